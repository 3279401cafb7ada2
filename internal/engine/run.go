package engine

import (
	"context"
	"fmt"

	"github.com/specialistvlad/procgrid/internal/ctxlog"
	"github.com/specialistvlad/procgrid/internal/inputtag"
	"github.com/specialistvlad/procgrid/internal/plugin"
	"github.com/specialistvlad/procgrid/internal/process"
	"golang.org/x/sync/errgroup"
)

// counters are owned by a single stream worker.
type counters struct {
	events  int64
	visited map[string]int
	passed  map[string]int
	missing map[string]int
}

func newCounters() *counters {
	return &counters{
		visited: make(map[string]int),
		passed:  make(map[string]int),
		missing: make(map[string]int),
	}
}

// eventState is the per-event memo of what already ran.
type eventState struct {
	ev        *plugin.Event
	ran       map[string]bool
	decisions map[string]bool
	paths     map[string]bool
	missing   map[string]bool
}

// Run processes the events and returns the merged report. The first plugin
// error cancels the remaining streams.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Info("Dry run started.", "process", e.proc.Name(), "events", e.events, "streams", e.streams)

	g, gctx := errgroup.WithContext(ctx)
	numbers := make(chan uint64)

	g.Go(func() error {
		defer close(numbers)
		for n := uint64(1); n <= uint64(e.events); n++ {
			select {
			case numbers <- n:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	perStream := make([]*counters, e.streams)
	for i := range perStream {
		c := newCounters()
		perStream[i] = c
		streamID := i
		g.Go(func() error {
			return e.stream(gctx, streamID, numbers, c)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Dry run failed.", "error", err)
		return nil, err
	}

	report := e.report(perStream)
	logger.Info("Dry run finished.", "events", report.Events, "missing", len(report.Missing))
	return report, nil
}

// stream is the processing loop of a single worker.
func (e *Engine) stream(ctx context.Context, id int, numbers <-chan uint64, c *counters) error {
	logger := ctxlog.FromContext(ctx).With("stream", id)
	logger.Debug("Stream started.")

	for n := range numbers {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.processEvent(ctx, n, c); err != nil {
			logger.Error("Event failed.", "event", n, "error", err)
			return err
		}
	}

	logger.Debug("Stream finished.", "events", c.events)
	return nil
}

func (e *Engine) processEvent(ctx context.Context, n uint64, c *counters) error {
	lumi := uint32((n-1)/e.perLumi) + 1
	st := &eventState{
		ev:        plugin.NewEvent(e.run, lumi, n),
		ran:       make(map[string]bool),
		decisions: make(map[string]bool),
		paths:     make(map[string]bool),
		missing:   make(map[string]bool),
	}
	for _, prod := range e.source {
		st.ev.Put(prod)
	}

	// Every Path runs before any EndPath so output gates see final results.
	for _, plan := range e.paths {
		if err := e.runPath(ctx, plan, st, c); err != nil {
			return err
		}
	}
	for _, plan := range e.endPaths {
		if err := e.runPath(ctx, plan, st, c); err != nil {
			return err
		}
	}

	for tag := range st.missing {
		c.missing[tag]++
	}
	c.events++
	return nil
}

func (e *Engine) runPath(ctx context.Context, plan *pathPlan, st *eventState, c *counters) error {
	c.visited[plan.label]++

	for _, s := range plan.steps {
		var (
			pass bool
			err  error
		)
		if s.output {
			pass, err = true, e.runOutput(ctx, s.label, st)
		} else {
			pass, err = e.runStage(ctx, s.label, st)
		}
		if err != nil {
			return fmt.Errorf("%s %q: %w", pathKind(plan), plan.label, err)
		}

		switch s.op {
		case process.OpInvert:
			pass = !pass
		case process.OpIgnore:
			pass = true
		}
		if !pass {
			st.paths[plan.label] = false
			return nil
		}
	}

	st.paths[plan.label] = true
	c.passed[plan.label]++
	return nil
}

func pathKind(plan *pathPlan) string {
	if plan.end {
		return "end path"
	}
	return "path"
}

// runStage runs a stage at most once per event and returns its decision.
// Stages that are not filters always pass.
func (e *Engine) runStage(ctx context.Context, label string, st *eventState) (bool, error) {
	si := e.stages[label]
	if si.filter != nil {
		if d, ok := st.decisions[label]; ok {
			return d, nil
		}
	} else if st.ran[label] {
		return true, nil
	}

	if err := e.satisfy(ctx, si.stage, st); err != nil {
		return false, err
	}
	st.ran[label] = true

	switch {
	case si.producer != nil:
		return true, si.producer.Produce(ctx, st.ev)
	case si.filter != nil:
		pass, err := si.filter.Filter(ctx, st.ev)
		if err != nil {
			return false, fmt.Errorf("filter %q: %w", label, err)
		}
		st.decisions[label] = pass
		return pass, nil
	default:
		return true, si.analyzer.Analyze(ctx, st.ev)
	}
}

// satisfy makes sure the consumed products of a stage are present, running
// on-demand producers when needed. Products nobody can make are recorded as
// missing.
func (e *Engine) satisfy(ctx context.Context, s *process.Stage, st *eventState) error {
	for _, tag := range s.Consumes {
		if st.ev.Has(tag) {
			continue
		}
		provider := e.providerFor(tag)
		if provider == "" {
			st.missing[tag.String()] = true
			continue
		}
		for _, label := range e.onDemand[provider] {
			if st.ran[label] {
				continue
			}
			st.ran[label] = true
			si := e.stages[label]
			for _, in := range si.stage.Consumes {
				if !st.ev.Has(in) && e.providerFor(in) == "" {
					st.missing[in.String()] = true
				}
			}
			if err := si.producer.Produce(ctx, st.ev); err != nil {
				return fmt.Errorf("on-demand producer %q: %w", label, err)
			}
		}
	}
	return nil
}

func (e *Engine) providerFor(tag inputtag.Tag) string {
	for _, label := range e.providers {
		if e.produces(label, tag) {
			return label
		}
	}
	return ""
}

func (e *Engine) runOutput(ctx context.Context, label string, st *eventState) error {
	oi := e.outputs[label]
	if sel := oi.module.SelectEvents; len(sel) > 0 {
		selected := false
		for _, path := range sel {
			if st.paths[path] {
				selected = true
				break
			}
		}
		if !selected {
			return nil
		}
	}

	var retained []inputtag.Product
	for _, prod := range st.ev.Products() {
		if oi.selector.Keeps(prod.Branch()) {
			retained = append(retained, prod)
		}
	}
	if err := oi.out.Write(ctx, st.ev, retained); err != nil {
		return fmt.Errorf("output %q: %w", label, err)
	}
	return nil
}
