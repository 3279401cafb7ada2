package dqm

import (
	"context"
	"sync"

	"github.com/specialistvlad/procgrid/internal/inputtag"
	"github.com/specialistvlad/procgrid/internal/plugin"
	"github.com/specialistvlad/procgrid/internal/process"
	"github.com/specialistvlad/procgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Analyzer counts, per run, the events in which each consumed product was
// present. It stands in for the monitoring modules of a DQM sequence.
type Analyzer struct {
	consumes []inputtag.Tag

	mu     sync.Mutex
	events map[uint32]int
	seen   map[string]int
}

// Analyze implements plugin.Analyzer.
func (a *Analyzer) Analyze(_ context.Context, ev *plugin.Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events[ev.Run]++
	for _, tag := range a.consumes {
		if ev.Has(tag) {
			a.seen[tag.String()]++
		}
	}
	return nil
}

// Events returns the number of analyzed events for a run.
func (a *Analyzer) Events(run uint32) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.events[run]
}

// Seen returns how many events contained a product matching tag.
func (a *Analyzer) Seen(tag string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.seen[tag]
}

// New creates an analyzer for one stage.
func New(cfg plugin.Config) (any, error) {
	return &Analyzer{
		consumes: cfg.Consumes,
		events:   make(map[uint32]int),
		seen:     make(map[string]int),
	}, nil
}

// Register registers the plugin with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterPlugin("DQMAnalyzer", &plugin.Registered{
		Kind:        process.KindAnalyzer,
		Description: "Monitors the presence of consumed products per run.",
		New:         New,
	})
}
