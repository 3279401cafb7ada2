package registry

import (
	"fmt"
	"log/slog"

	"github.com/specialistvlad/procgrid/internal/errs"
	"github.com/specialistvlad/procgrid/internal/plugin"
)

// RegisterPlugin registers the Go implementation of a plugin.
func (r *Registry) RegisterPlugin(name string, p *plugin.Registered) {
	if _, exists := r.plugins[name]; exists {
		panic(fmt.Sprintf("plugin with name '%s' already registered", name))
	}
	slog.Debug("Registering plugin.", "name", name, "kind", p.Kind)
	r.plugins[name] = p
}

// Plugin returns the plugin registered under name.
func (r *Registry) Plugin(name string) (*plugin.Registered, error) {
	p, ok := r.plugins[name]
	if !ok {
		return nil, errs.Unresolved("plugin", name, "")
	}
	return p, nil
}

// RegisterPrimitive registers a built-in customisation primitive.
func (r *Registry) RegisterPrimitive(name string, p *Primitive) {
	if _, exists := r.primitives[name]; exists {
		panic(fmt.Sprintf("customisation primitive with name '%s' already registered", name))
	}
	slog.Debug("Registering customisation primitive.", "name", name)
	r.primitives[name] = p
}

// Primitive returns the primitive registered under name.
func (r *Registry) Primitive(name string) (*Primitive, error) {
	p, ok := r.primitives[name]
	if !ok {
		return nil, errs.Unresolved("customisation", name, "")
	}
	return p, nil
}
