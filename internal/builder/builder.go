package builder

import (
	"context"
	"fmt"

	"github.com/specialistvlad/procgrid/internal/conditions"
	"github.com/specialistvlad/procgrid/internal/config"
	"github.com/specialistvlad/procgrid/internal/ctxlog"
	"github.com/specialistvlad/procgrid/internal/customise"
	"github.com/specialistvlad/procgrid/internal/errs"
	"github.com/specialistvlad/procgrid/internal/process"
	"github.com/specialistvlad/procgrid/internal/registry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/specialistvlad/procgrid/internal/builder"

// Assembler builds one process from one declaration. It is not reusable:
// once a phase fails, or the process is frozen, every further call fails.
type Assembler struct {
	decl      *config.ProcessDecl
	registry  *registry.Registry
	resolver  conditions.Resolver
	overrides Overrides
	extra     []customise.Named
	tracer    trace.Tracer
	newID     func() string

	phase  Phase
	failed error
	proc   *process.Process
	// modifiers enabled by the process era.
	modifiers map[string]bool
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithResolver sets the conditions resolver. Without one, aliases declared
// in the loaded fragments and the built-in aliases are used.
func WithResolver(r conditions.Resolver) Option {
	return func(a *Assembler) { a.resolver = r }
}

// WithOverrides sets values that replace the declared ones.
func WithOverrides(o Overrides) Option {
	return func(a *Assembler) { a.overrides = o }
}

// WithCustomisations appends Go customisation functions. They run after the
// customisations declared in the process, in the given order.
func WithCustomisations(fns ...customise.Named) Option {
	return func(a *Assembler) { a.extra = append(a.extra, fns...) }
}

// WithTracerProvider sets the provider of the tracer used for phase spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(a *Assembler) { a.tracer = tp.Tracer(tracerName) }
}

// WithBuildID sets the function generating the build id stored in the
// process metadata.
func WithBuildID(fn func() string) Option {
	return func(a *Assembler) { a.newID = fn }
}

// New creates an assembler for decl using the fragments and plugins held by
// reg.
func New(decl *config.ProcessDecl, reg *registry.Registry, opts ...Option) *Assembler {
	a := &Assembler{
		decl:     decl,
		registry: reg,
		tracer:   otel.GetTracerProvider().Tracer(tracerName),
		newID:    newBuildID,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.resolver == nil {
		a.resolver = conditions.NewStaticResolver(reg.ConditionsAliases())
	}
	return a
}

// Phase returns the last phase that completed.
func (a *Assembler) Phase() Phase { return a.phase }

// referrer names the process in resolution errors.
func (a *Assembler) referrer() string {
	return fmt.Sprintf("process %q", a.decl.Name)
}

// run executes fn as phase, enforcing the phase order. A failure is
// remembered and aborts the assembly.
func (a *Assembler) run(ctx context.Context, phase Phase, fn func(ctx context.Context) error) error {
	if a.failed != nil {
		return errs.New(errs.CodePhaseOrder, "cannot run phase %q: assembly was aborted", phase).WithCause(a.failed)
	}
	if a.phase == PhaseFreeze {
		return errs.Frozen("run phase " + phase.String())
	}
	if a.phase != phase-1 {
		return errs.PhaseOrder(phase.String(), (a.phase + 1).String())
	}

	ctx, span := a.tracer.Start(ctx, "assemble."+phase.String(),
		trace.WithAttributes(attribute.String("process.name", a.decl.Name)))
	defer span.End()

	logger := ctxlog.FromContext(ctx).With("phase", phase.String())
	logger.Debug("Assembly phase started.")

	if err := fn(ctxlog.WithLogger(ctx, logger)); err != nil {
		a.failed = err
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Debug("Assembly phase failed.", "error", err)
		return err
	}

	a.phase = phase
	span.SetStatus(codes.Ok, "")
	logger.Debug("Assembly phase complete.")
	return nil
}

// Build runs every phase in order and returns the frozen process.
func (a *Assembler) Build(ctx context.Context) (*process.Process, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: Starting process assembly.", "process", a.decl.Name)

	steps := []func(context.Context) error{
		a.LoadStages,
		a.InstantiateIO,
		a.BuildPaths,
		a.AssembleSchedule,
		a.AssociateTasks,
		a.Customise,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return nil, err
		}
	}
	p, err := a.Freeze(ctx)
	if err != nil {
		return nil, err
	}

	logger.Info("Build: Process assembly successful.",
		"process", p.Name(),
		"stages", len(p.Stages()),
		"paths", len(p.Paths()),
		"schedule", len(p.Schedule().Entries),
	)
	return p, nil
}
