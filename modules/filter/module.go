package filter

import (
	"context"
	"fmt"

	"github.com/specialistvlad/procgrid/internal/plugin"
	"github.com/specialistvlad/procgrid/internal/process"
	"github.com/specialistvlad/procgrid/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Filter modes.
const (
	ModePass   = "pass"
	ModeReject = "reject"
	ModeModulo = "modulo"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Filter accepts or rejects events by a fixed rule.
type Filter struct {
	mode   string
	modulo uint64
	offset uint64
}

// Filter implements plugin.Filter.
func (f *Filter) Filter(_ context.Context, ev *plugin.Event) (bool, error) {
	switch f.mode {
	case ModeReject:
		return false, nil
	case ModeModulo:
		return ev.Number%f.modulo == f.offset, nil
	default:
		return true, nil
	}
}

// New creates a filter for one stage.
func New(cfg plugin.Config) (any, error) {
	f := &Filter{mode: ModePass, modulo: 1}
	if _, err := cfg.Param("mode", &f.mode); err != nil {
		return nil, err
	}
	if _, err := cfg.Param("modulo", &f.modulo); err != nil {
		return nil, err
	}
	if _, err := cfg.Param("offset", &f.offset); err != nil {
		return nil, err
	}

	switch f.mode {
	case ModePass, ModeReject:
	case ModeModulo:
		if f.modulo == 0 {
			return nil, fmt.Errorf("stage %q: modulo must be positive", cfg.Label)
		}
		f.offset %= f.modulo
	default:
		return nil, fmt.Errorf("stage %q: unknown filter mode %q", cfg.Label, f.mode)
	}
	return f, nil
}

// Register registers the plugin with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterPlugin("EventFilter", &plugin.Registered{
		Kind:        process.KindFilter,
		Description: "Passes, rejects, or passes every n-th event.",
		Params: map[string]cty.Type{
			"mode":   cty.String,
			"modulo": cty.Number,
			"offset": cty.Number,
			// Trigger selection is recorded but not evaluated.
			"triggerConditions": cty.List(cty.String),
			"hltResults":        cty.String,
			"l1tResults":        cty.String,
			"throw":             cty.Bool,
		},
		New: New,
	})
}
