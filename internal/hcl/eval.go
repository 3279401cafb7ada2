package hcl

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/procgrid/internal/inputtag"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// newEvalContext builds the evaluation context shared by every file: the
// process environment as `env`, plus a small function library.
func newEvalContext(env map[string]string) *hcl.EvalContext {
	envVals := make(map[string]cty.Value, len(env))
	for k, v := range env {
		envVals[k] = cty.StringVal(v)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(envVals),
		},
		Functions: map[string]function.Function{
			"input_tag": inputTagFunc,
			"concat":    stdlib.ConcatFunc,
			"format":    stdlib.FormatFunc,
			"join":      stdlib.JoinFunc,
			"lower":     stdlib.LowerFunc,
			"upper":     stdlib.UpperFunc,
		},
	}
}

// inputTagFunc builds a canonical input tag string from its parts:
// input_tag("TriggerResults", "", "HLT") yields "TriggerResults::HLT".
var inputTagFunc = function.New(&function.Spec{
	Description: "Builds a canonical label:instance:process input tag.",
	Params: []function.Parameter{
		{Name: "label", Type: cty.String},
	},
	VarParam: &function.Parameter{Name: "parts", Type: cty.String},
	Type:     function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		if len(args) > 3 {
			return cty.NilVal, fmt.Errorf("input_tag takes at most 3 arguments, got %d", len(args))
		}
		tag := inputtag.Tag{Label: args[0].AsString()}
		if len(args) > 1 {
			tag.Instance = args[1].AsString()
		}
		if len(args) > 2 {
			tag.Process = args[2].AsString()
		}
		if _, err := inputtag.Parse(tag.String()); err != nil {
			return cty.NilVal, err
		}
		return cty.StringVal(tag.String()), nil
	},
})

// evalBodyAttributes evaluates every attribute of a free-form body.
func evalBodyAttributes(body hcl.Body, evalCtx *hcl.EvalContext) (map[string]cty.Value, hcl.Diagnostics) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}

	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]cty.Value, len(attrs))
	for _, name := range names {
		val, valDiags := attrs[name].Expr.Value(evalCtx)
		diags = append(diags, valDiags...)
		if valDiags.HasErrors() {
			continue
		}
		out[name] = val
	}
	return out, diags
}

// objectToParams converts an evaluated `params` attribute into a parameter
// map. An absent or null value yields an empty map.
func objectToParams(v cty.Value, what string) (map[string]cty.Value, error) {
	if v == cty.NilVal || v.IsNull() {
		return map[string]cty.Value{}, nil
	}
	if !v.IsWhollyKnown() {
		return nil, fmt.Errorf("%s: params must be known at load time", what)
	}
	ty := v.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return nil, fmt.Errorf("%s: params must be an object, got %s", what, ty.FriendlyName())
	}
	out := v.AsValueMap()
	if out == nil {
		out = map[string]cty.Value{}
	}
	return out, nil
}
