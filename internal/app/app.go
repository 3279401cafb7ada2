package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/specialistvlad/procgrid/internal/builder"
	"github.com/specialistvlad/procgrid/internal/conditions"
	"github.com/specialistvlad/procgrid/internal/config"
	"github.com/specialistvlad/procgrid/internal/ctxlog"
	"github.com/specialistvlad/procgrid/internal/dump"
	"github.com/specialistvlad/procgrid/internal/engine"
	"github.com/specialistvlad/procgrid/internal/process"
	"github.com/specialistvlad/procgrid/internal/registry"
)

// Loader reads configuration files into the format-agnostic model.
type Loader interface {
	Load(ctx context.Context, paths ...string) (*config.Model, error)
}

// BuilderFunc creates the builder that assembles a process declaration.
type BuilderFunc func(decl *config.ProcessDecl, reg *registry.Registry, opts ...builder.Option) builder.Builder

func newAssembler(decl *config.ProcessDecl, reg *registry.Registry, opts ...builder.Option) builder.Builder {
	return builder.New(decl, reg, opts...)
}

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	logger   *slog.Logger
	ctx      context.Context
	config   *Config
	registry *registry.Registry
	model    *config.Model
	options  []builder.Option
	builder  BuilderFunc
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
// A mismatch between registered plugins and loaded fragments is a programmer
// error and panics.
func NewApp(outW io.Writer, cfg *Config, loader Loader, modules ...registry.Module) (*App, error) {
	logger := NewLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	// The process path comes first so its file order is stable.
	paths := append([]string{cfg.ProcessPath}, cfg.FragmentPaths...)
	model, err := loader.Load(ctx, paths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Debug("Configuration loaded and translated into unified model.", "fragments", len(model.Fragments))

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules))

	if err := reg.PopulateFromModel(ctx, model); err != nil {
		return nil, fmt.Errorf("failed to populate registry: %w", err)
	}
	if err := reg.ValidateRegistry(ctx); err != nil {
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	return &App{
		logger:   logger,
		ctx:      ctx,
		config:   cfg,
		registry: reg,
		model:    model,
		builder:  newAssembler,
	}, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// WithBuilderOptions appends options passed to every assembler the app
// creates.
func (a *App) WithBuilderOptions(opts ...builder.Option) *App {
	a.options = append(a.options, opts...)
	return a
}

// WithBuilder replaces the function creating the process builder.
func (a *App) WithBuilder(fn BuilderFunc) *App {
	a.builder = fn
	return a
}

// Build assembles the declared process.
func (a *App) Build(ctx context.Context) (*process.Process, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	if a.model.Process == nil {
		return nil, fmt.Errorf("no process block found in %s", a.config.ProcessPath)
	}

	resolver, closeFn, err := a.resolver(ctx)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	opts := append([]builder.Option{
		builder.WithResolver(resolver),
		builder.WithOverrides(a.config.Overrides),
	}, a.options...)
	return a.builder(a.model.Process, a.registry, opts...).Build(ctx)
}

// resolver chains the optional SQLite catalog in front of the aliases
// declared in fragments.
func (a *App) resolver(ctx context.Context) (conditions.Resolver, func(), error) {
	static := conditions.NewStaticResolver(a.registry.ConditionsAliases())
	if a.config.ConditionsDB == "" {
		return static, func() {}, nil
	}

	catalog, err := conditions.OpenCatalog(ctx, a.config.ConditionsDB)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := catalog.Close(); err != nil {
			a.logger.Warn("Failed to close conditions catalog.", "error", err)
		}
	}
	return conditions.Chain{catalog, static}, closeFn, nil
}

// Dump builds the process and writes its snapshot to w in the given format.
func (a *App) Dump(ctx context.Context, w io.Writer, format string) error {
	p, err := a.Build(ctx)
	if err != nil {
		return err
	}
	return dump.Write(w, p.Snapshot(), format)
}

// Simulate builds the process and runs it through the dry-run engine.
func (a *App) Simulate(ctx context.Context) (*engine.Report, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	p, err := a.Build(ctx)
	if err != nil {
		return nil, err
	}

	e, err := engine.New(p, a.registry, engine.Options{
		Events:        a.config.Events,
		Streams:       a.config.Streams,
		Run:           a.config.Run,
		EventsPerLumi: a.config.EventsPerLumi,
	})
	if err != nil {
		return nil, err
	}
	return e.Run(ctx)
}
