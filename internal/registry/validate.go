package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/specialistvlad/procgrid/internal/ctxlog"
	"github.com/specialistvlad/procgrid/internal/errs"
	"github.com/specialistvlad/procgrid/internal/plugin"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// ValidateRegistry performs a strict parity check between the loaded
// fragments and the Go code. Every stage must name a registered, non-output
// plugin, and every parameter the plugin declares must be convertible to the
// declared type. Every composite customisation must apply registered
// primitives with acceptable arguments.
func (r *Registry) ValidateRegistry(ctx context.Context) error {
	var problems []string
	logger := ctxlog.FromContext(ctx)

	for _, name := range r.Fragments() {
		f := r.fragments[name]
		for _, stage := range f.Stages {
			where := fmt.Sprintf("fragment '%s', stage '%s'", name, stage.Label)
			p, ok := r.plugins[stage.Plugin]
			if !ok {
				problems = append(problems, fmt.Sprintf("%s: plugin '%s' is not registered", where, stage.Plugin))
				continue
			}
			if p.Kind == plugin.KindOutput {
				problems = append(problems, fmt.Sprintf("%s: plugin '%s' implements output modules and cannot back a stage", where, stage.Plugin))
				continue
			}
			problems = append(problems, checkValues(where, stage.Params, p.Params)...)
			for _, o := range stage.EraOverrides {
				problems = append(problems, checkValues(where+" era '"+o.Modifier+"'", o.Params, p.Params)...)
			}
			for pname, ty := range p.Params {
				if ty.Equals(cty.DynamicPseudoType) {
					if _, set := stage.Params[pname]; set {
						logger.Warn("Plugin declares a parameter with type 'any', which disables static type checking.", "plugin", stage.Plugin, "stage", stage.Label, "param", pname)
					}
				}
			}
		}

		for _, c := range f.Customisations {
			for i, step := range c.Steps {
				where := fmt.Sprintf("customisation '%s', step %d", c.Name, i+1)
				prim, ok := r.primitives[step.Primitive]
				if !ok {
					problems = append(problems, fmt.Sprintf("%s: primitive '%s' is not registered", where, step.Primitive))
					continue
				}
				problems = append(problems, CheckArgs(where, step.Args, prim)...)
			}
		}
	}

	if len(problems) > 0 {
		return errs.New(errs.CodeValidation, "registry validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

// CheckArgs checks arguments against a primitive's declaration and returns
// one message per problem.
func CheckArgs(where string, args map[string]cty.Value, prim *Primitive) []string {
	var problems []string
	for _, req := range prim.Required {
		if _, ok := args[req]; !ok {
			problems = append(problems, fmt.Sprintf("%s: missing required argument '%s'", where, req))
		}
	}
	for _, name := range sortedKeys(args) {
		if _, ok := prim.Args[name]; !ok {
			problems = append(problems, fmt.Sprintf("%s: unsupported argument '%s'", where, name))
		}
	}
	return append(problems, checkValues(where, args, prim.Args)...)
}

func checkValues(where string, values map[string]cty.Value, schema map[string]cty.Type) []string {
	var problems []string
	for _, name := range sortedKeys(values) {
		want, ok := schema[name]
		if !ok || want.Equals(cty.DynamicPseudoType) {
			continue
		}
		if _, err := convert.Convert(values[name], want); err != nil {
			problems = append(problems, fmt.Sprintf("%s, param '%s': type mismatch. Declared '%s' but value is '%s'",
				where, name, want.FriendlyName(), values[name].Type().FriendlyName()))
		}
	}
	return problems
}
