package testutil

import (
	"context"
	"fmt"

	"github.com/specialistvlad/procgrid/internal/plugin"
	"github.com/specialistvlad/procgrid/internal/process"
	"github.com/specialistvlad/procgrid/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// FailingModule registers "FailingProducer", a producer that fails on the
// event number given by its failOn parameter and produces nothing
// otherwise. It is useful for tests of error propagation across streams.
type FailingModule struct{}

// Register registers the "FailingProducer" plugin.
func (m *FailingModule) Register(r *registry.Registry) {
	r.RegisterPlugin("FailingProducer", &plugin.Registered{
		Kind:        process.KindProducer,
		Description: "Test producer that fails on one event.",
		Params:      map[string]cty.Type{"failOn": cty.Number},
		New: func(cfg plugin.Config) (any, error) {
			p := &failingProducer{label: cfg.Label}
			if _, err := cfg.Param("failOn", &p.failOn); err != nil {
				return nil, err
			}
			return p, nil
		},
	})
}

type failingProducer struct {
	label  string
	failOn uint64
}

func (p *failingProducer) Produce(_ context.Context, ev *plugin.Event) error {
	if ev.Number == p.failOn {
		return fmt.Errorf("%s: synthetic failure on event %d", p.label, ev.Number)
	}
	return nil
}
