package plugin

import (
	"context"
	"fmt"
	"reflect"

	"github.com/specialistvlad/procgrid/internal/inputtag"
	"github.com/specialistvlad/procgrid/internal/process"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// KindOutput is the kind of plugins that implement output modules.
const KindOutput process.Kind = "output"

// Registered holds the compiled Go parts of a plugin.
type Registered struct {
	Kind        process.Kind
	Description string
	// Params declares the parameters the plugin reads and their types.
	// cty.DynamicPseudoType accepts any value. A nil map accepts any
	// parameter. Otherwise parameters not listed here are rejected when the
	// process sets throw_if_illegal_parameter, and carried but ignored when
	// it does not.
	Params map[string]cty.Type
	// New creates an instance for one stage or output module.
	New func(cfg Config) (any, error)
}

// Config is what a plugin constructor receives.
type Config struct {
	Label    string
	Process  string
	Params   map[string]cty.Value
	Consumes []inputtag.Tag
	Produces []inputtag.Declaration
	// Output is set for output plugins only.
	Output *process.OutputModule
}

// Param decodes the parameter name into target, which must be a pointer.
// It reports whether the parameter was present.
func (c Config) Param(name string, target any) (bool, error) {
	v, ok := c.Params[name]
	if !ok || v.IsNull() {
		return false, nil
	}

	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return false, fmt.Errorf("param %q: target must be a non-nil pointer", name)
	}
	ty, err := gocty.ImpliedType(rv.Elem().Interface())
	if err != nil {
		return false, fmt.Errorf("param %q: %w", name, err)
	}
	converted, err := convert.Convert(v, ty)
	if err != nil {
		return false, fmt.Errorf("stage %q param %q: %w", c.Label, name, err)
	}
	if err := gocty.FromCtyValue(converted, target); err != nil {
		return false, fmt.Errorf("stage %q param %q: %w", c.Label, name, err)
	}
	return true, nil
}

// Producer puts products into the event.
type Producer interface {
	Produce(ctx context.Context, ev *Event) error
}

// Filter decides whether the rest of a path runs for the event.
type Filter interface {
	Filter(ctx context.Context, ev *Event) (bool, error)
}

// Analyzer observes the event without modifying it.
type Analyzer interface {
	Analyze(ctx context.Context, ev *Event) error
}

// Output records the products retained for an event.
type Output interface {
	Write(ctx context.Context, ev *Event, retained []inputtag.Product) error
	// Summary reports what was written so far.
	Summary() OutputSummary
}

// OutputSummary describes what an output module recorded.
type OutputSummary struct {
	Events   int            `json:"events" yaml:"events"`
	Products map[string]int `json:"products" yaml:"products"`
}

// Instantiate calls the plugin constructor and checks the instance
// implements the interface that matches the plugin kind.
func (r *Registered) Instantiate(cfg Config) (any, error) {
	inst, err := r.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate %q: %w", cfg.Label, err)
	}

	var ok bool
	switch r.Kind {
	case process.KindProducer:
		_, ok = inst.(Producer)
	case process.KindFilter:
		_, ok = inst.(Filter)
	case process.KindAnalyzer:
		_, ok = inst.(Analyzer)
	case KindOutput:
		_, ok = inst.(Output)
	}
	if !ok {
		return nil, fmt.Errorf("plugin instance for %q (%T) does not implement kind %q", cfg.Label, inst, r.Kind)
	}
	return inst, nil
}
