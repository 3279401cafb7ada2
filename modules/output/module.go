package output

import (
	"context"
	"sync"

	"github.com/specialistvlad/procgrid/internal/inputtag"
	"github.com/specialistvlad/procgrid/internal/plugin"
	"github.com/specialistvlad/procgrid/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Recorder is an output module that counts what it would have written. No
// file is opened.
type Recorder struct {
	label string
	// perRun records each product once per run, like a DQM file that holds
	// run-level histograms.
	perRun bool

	mu       sync.Mutex
	events   int
	products map[string]int
	runs     map[uint32]map[string]bool
}

// Write implements plugin.Output.
func (r *Recorder) Write(_ context.Context, ev *plugin.Event, retained []inputtag.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events++
	for _, p := range retained {
		branch := p.Branch()
		if r.perRun {
			seen := r.runs[ev.Run]
			if seen == nil {
				seen = make(map[string]bool)
				r.runs[ev.Run] = seen
			}
			if seen[branch] {
				continue
			}
			seen[branch] = true
		}
		r.products[branch]++
	}
	return nil
}

// Summary implements plugin.Output.
func (r *Recorder) Summary() plugin.OutputSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	products := make(map[string]int, len(r.products))
	for k, v := range r.products {
		products[k] = v
	}
	return plugin.OutputSummary{Events: r.events, Products: products}
}

func newRecorder(perRun bool) func(plugin.Config) (any, error) {
	return func(cfg plugin.Config) (any, error) {
		return &Recorder{
			label:    cfg.Label,
			perRun:   perRun,
			products: make(map[string]int),
			runs:     make(map[uint32]map[string]bool),
		}, nil
	}
}

// Register registers the plugins with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterPlugin("PoolOutputModule", &plugin.Registered{
		Kind:        plugin.KindOutput,
		Description: "Event data output. Records retained products per event.",
		Params: map[string]cty.Type{
			"eventAutoFlushCompressedSize": cty.Number,
			"fastCloning":                  cty.Bool,
			"dropMetaData":                 cty.String,
			"splitLevel":                   cty.Number,
			"overrideBranchesSplitLevel":   cty.DynamicPseudoType,
			"overrideInputFileSplitLevels": cty.Bool,
		},
		New: newRecorder(false),
	})
	r.RegisterPlugin("DQMRootOutputModule", &plugin.Registered{
		Kind:        plugin.KindOutput,
		Description: "Monitoring output. Records each retained product once per run.",
		Params: map[string]cty.Type{
			"splitLevel": cty.Number,
		},
		New: newRecorder(true),
	})
}
