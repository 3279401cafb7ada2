package registry

import (
	"context"
	"sort"

	"github.com/specialistvlad/procgrid/internal/config"
	"github.com/specialistvlad/procgrid/internal/plugin"
	"github.com/specialistvlad/procgrid/internal/process"
	"github.com/zclconf/go-cty/cty"
)

// Module is the interface that all core modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// PrimitiveFunc applies a customisation primitive to a process. It receives
// a mutable clone and returns the process to pass on.
type PrimitiveFunc func(ctx context.Context, p *process.Process, args map[string]cty.Value) (*process.Process, error)

// Primitive is a built-in customisation.
type Primitive struct {
	Description string
	// Args declares the accepted arguments and their types. Required
	// arguments are listed in Required.
	Args     map[string]cty.Type
	Required []string
	Fn       PrimitiveFunc
}

// Registry holds all the registered plugins, primitives and declarations for
// a single application instance.
type Registry struct {
	plugins        map[string]*plugin.Registered
	primitives     map[string]*Primitive
	fragments      map[string]*config.Fragment
	eras           map[string]*config.EraDecl
	eventContents  map[string]*config.EventContentDecl
	aliases        map[string]*config.ConditionsAliasDecl
	customisations map[string]*config.CustomisationDecl
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		plugins:        make(map[string]*plugin.Registered),
		primitives:     make(map[string]*Primitive),
		fragments:      make(map[string]*config.Fragment),
		eras:           make(map[string]*config.EraDecl),
		eventContents:  make(map[string]*config.EventContentDecl),
		aliases:        make(map[string]*config.ConditionsAliasDecl),
		customisations: make(map[string]*config.CustomisationDecl),
	}
}

// Plugins returns the registered plugin names in lexical order.
func (r *Registry) Plugins() []string { return sortedKeys(r.plugins) }

// Primitives returns the registered primitive names in lexical order.
func (r *Registry) Primitives() []string { return sortedKeys(r.primitives) }

// Fragments returns the loaded fragment names in lexical order.
func (r *Registry) Fragments() []string { return sortedKeys(r.fragments) }

// Customisations returns the composite customisation names in lexical order.
func (r *Registry) Customisations() []string { return sortedKeys(r.customisations) }

// ConditionsAliases returns every alias declared by the loaded fragments.
func (r *Registry) ConditionsAliases() map[string]string {
	out := make(map[string]string, len(r.aliases))
	for k, v := range r.aliases {
		out[k] = v.Tag
	}
	return out
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
