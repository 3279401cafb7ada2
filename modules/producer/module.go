package producer

import (
	"context"

	"github.com/specialistvlad/procgrid/internal/inputtag"
	"github.com/specialistvlad/procgrid/internal/plugin"
	"github.com/specialistvlad/procgrid/internal/process"
	"github.com/specialistvlad/procgrid/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Producer puts every product it declares into each event it runs for.
type Producer struct {
	products []inputtag.Product
}

// Produce implements plugin.Producer.
func (p *Producer) Produce(_ context.Context, ev *plugin.Event) error {
	for _, prod := range p.products {
		ev.Put(prod)
	}
	return nil
}

// New creates a producer for one stage.
func New(cfg plugin.Config) (any, error) {
	p := &Producer{}
	for _, d := range cfg.Produces {
		p.products = append(p.products, d.Product(cfg.Label, cfg.Process))
	}
	return p, nil
}

// Register registers the plugins with the registry.
func (m *Module) Register(r *registry.Registry) {
	// The framework types behind generic producers carry arbitrary physics
	// parameters, so no schema is declared.
	r.RegisterPlugin("ProductProducer", &plugin.Registered{
		Kind:        process.KindProducer,
		Description: "Emits the declared products for every event.",
		New:         New,
	})
	r.RegisterPlugin("LogErrorHarvester", &plugin.Registered{
		Kind:        process.KindProducer,
		Description: "Collects error summaries from the modules listed in includeModules.",
		Params: map[string]cty.Type{
			"includeModules": cty.List(cty.String),
			"excludeModules": cty.List(cty.String),
		},
		New: New,
	})
}
