package engine

import (
	"fmt"
	"slices"

	"github.com/specialistvlad/procgrid/internal/dag"
	"github.com/specialistvlad/procgrid/internal/errs"
	"github.com/specialistvlad/procgrid/internal/inputtag"
	"github.com/specialistvlad/procgrid/internal/plugin"
	"github.com/specialistvlad/procgrid/internal/process"
	"github.com/specialistvlad/procgrid/internal/registry"
)

// Defaults for Options fields left at zero.
const (
	DefaultRun           = 1
	DefaultEventsPerLumi = 100
)

// Options controls a dry run. Zero values fall back to the process settings.
type Options struct {
	// Events overrides the process max events.
	Events int64
	// Streams overrides the number of streams of the process options.
	Streams int
	// Run is the run number given to every event.
	Run uint32
	// EventsPerLumi is the number of events in each luminosity block.
	EventsPerLumi uint64
}

// Engine holds the instantiated plugins of one process.
type Engine struct {
	proc    *process.Process
	events  int64
	streams int
	run     uint32
	perLumi uint64

	source   []inputtag.Product
	paths    []*pathPlan
	endPaths []*pathPlan
	stages   map[string]*stageInstance
	outputs  map[string]*outputInstance

	// providers are the on-demand producers, in lexical label order.
	providers []string
	// onDemand maps a provider to the providers to run, in dependency order,
	// when one of its products is missing.
	onDemand map[string][]string
}

type stageInstance struct {
	stage    *process.Stage
	products []inputtag.Product
	producer plugin.Producer
	filter   plugin.Filter
	analyzer plugin.Analyzer
}

type outputInstance struct {
	module   *process.OutputModule
	out      plugin.Output
	selector *inputtag.Selector
}

type step struct {
	label  string
	op     process.Operator
	output bool
}

type pathPlan struct {
	label string
	end   bool
	steps []step
}

// New prepares a dry run of a frozen process.
func New(p *process.Process, reg *registry.Registry, opts Options) (*Engine, error) {
	if p == nil {
		return nil, errs.Invalid("engine needs a process")
	}
	if !p.Frozen() {
		return nil, errs.Invalid("process %q must be frozen before it can run", p.Name())
	}

	e := &Engine{
		proc:     p,
		events:   opts.Events,
		streams:  opts.Streams,
		run:      opts.Run,
		perLumi:  opts.EventsPerLumi,
		stages:   make(map[string]*stageInstance),
		outputs:  make(map[string]*outputInstance),
		onDemand: make(map[string][]string),
	}
	if e.events <= 0 {
		e.events = p.MaxEvents().Input
	}
	if e.events < 0 {
		return nil, errs.Invalid("process %q reads every input event; give an explicit event count", p.Name())
	}
	if e.streams <= 0 {
		e.streams = p.Options().Streams()
	}
	if e.streams <= 0 {
		e.streams = 1
	}
	if e.run == 0 {
		e.run = DefaultRun
	}
	if e.perLumi == 0 {
		e.perLumi = DefaultEventsPerLumi
	}

	for _, branch := range p.Source().Provides {
		prod, err := inputtag.ParseBranch(branch)
		if err != nil {
			return nil, errs.Invalid("source: %s", err.Error())
		}
		e.source = append(e.source, prod)
	}

	if err := e.planPaths(reg); err != nil {
		return nil, err
	}
	if err := e.planOnDemand(reg); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) planPaths(reg *registry.Registry) error {
	sched := e.proc.Schedule()
	if sched == nil {
		return errs.Invalid("process %q has no schedule", e.proc.Name())
	}

	for _, label := range sched.Entries {
		path, err := e.proc.Path(label)
		if err != nil {
			return err
		}
		items, err := e.proc.Expand(label)
		if err != nil {
			return err
		}

		plan := &pathPlan{label: label, end: path.End}
		for _, item := range items {
			kind, _ := e.proc.Lookup(item.Label)
			s := step{label: item.Label, op: item.Op, output: kind == process.ObjectOutput}
			if s.output {
				if err := e.instantiateOutput(reg, item.Label); err != nil {
					return err
				}
			} else if err := e.instantiateStage(reg, item.Label); err != nil {
				return err
			}
			plan.steps = append(plan.steps, s)
		}

		if plan.end {
			e.endPaths = append(e.endPaths, plan)
		} else {
			e.paths = append(e.paths, plan)
		}
	}
	return nil
}

// planOnDemand orders the producers of associated tasks. A provider depends
// on every other provider whose products it consumes.
func (e *Engine) planOnDemand(reg *registry.Registry) error {
	labels := make(map[string]struct{})
	for _, task := range e.proc.Schedule().Associated {
		members, err := e.proc.TaskStages(task)
		if err != nil {
			return err
		}
		for _, label := range members {
			s, err := e.proc.Stage(label)
			if err != nil {
				return err
			}
			if s.Kind != process.KindProducer {
				continue
			}
			if err := e.instantiateStage(reg, label); err != nil {
				return err
			}
			labels[label] = struct{}{}
		}
	}

	g := dag.New()
	for label := range labels {
		g.AddNode(label)
		e.providers = append(e.providers, label)
	}
	slices.Sort(e.providers)

	for _, consumer := range e.providers {
		for _, tag := range e.stages[consumer].stage.Consumes {
			for _, producer := range e.providers {
				if producer == consumer || !e.produces(producer, tag) {
					continue
				}
				if err := g.AddEdge(producer, consumer); err != nil {
					return err
				}
			}
		}
	}

	order, err := g.TopologicalOrder()
	if err != nil {
		return errs.Invalid("on-demand producers depend on each other: %s", err.Error())
	}
	rank := make(map[string]int, len(order))
	for i, label := range order {
		rank[label] = i
	}
	for _, label := range e.providers {
		needed, err := g.Subgraph(label)
		if err != nil {
			return err
		}
		slices.SortFunc(needed, func(a, b string) int { return rank[a] - rank[b] })
		e.onDemand[label] = needed
	}
	return nil
}

func (e *Engine) produces(label string, tag inputtag.Tag) bool {
	for _, prod := range e.stages[label].products {
		if tag.Matches(prod) {
			return true
		}
	}
	return false
}

func (e *Engine) instantiateStage(reg *registry.Registry, label string) error {
	if _, ok := e.stages[label]; ok {
		return nil
	}
	s, err := e.proc.Stage(label)
	if err != nil {
		return err
	}
	def, err := reg.Plugin(s.Plugin)
	if err != nil {
		return err
	}
	inst, err := def.Instantiate(plugin.Config{
		Label:    s.Label,
		Process:  e.proc.Name(),
		Params:   s.Params,
		Consumes: s.Consumes,
		Produces: s.Produces,
	})
	if err != nil {
		return err
	}

	si := &stageInstance{stage: s, products: s.Products(e.proc.Name())}
	switch v := inst.(type) {
	case plugin.Producer:
		si.producer = v
	case plugin.Filter:
		si.filter = v
	case plugin.Analyzer:
		si.analyzer = v
	default:
		return fmt.Errorf("stage %q: plugin %q is not a producer, filter or analyzer", label, s.Plugin)
	}
	e.stages[label] = si
	return nil
}

func (e *Engine) instantiateOutput(reg *registry.Registry, label string) error {
	if _, ok := e.outputs[label]; ok {
		return nil
	}
	o, err := e.proc.Output(label)
	if err != nil {
		return err
	}
	def, err := reg.Plugin(o.Plugin)
	if err != nil {
		return err
	}
	inst, err := def.Instantiate(plugin.Config{
		Label:   o.Label,
		Process: e.proc.Name(),
		Params:  o.Params,
		Output:  o,
	})
	if err != nil {
		return err
	}
	out, ok := inst.(plugin.Output)
	if !ok {
		return fmt.Errorf("output %q: plugin %q is not an output module", label, o.Plugin)
	}
	sel, err := inputtag.NewSelector(o.OutputCommands)
	if err != nil {
		return errs.Invalid("output %q: %s", label, err.Error())
	}
	e.outputs[label] = &outputInstance{module: o, out: out, selector: sel}
	return nil
}

// Streams returns the number of stream workers Run will start.
func (e *Engine) Streams() int { return e.streams }

// Events returns the number of events Run will process.
func (e *Engine) Events() int64 { return e.events }
