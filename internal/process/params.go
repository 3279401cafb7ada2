// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file implements dotted-path access to stage parameters.
package process

import (
	"math/big"
	"strings"

	"github.com/specialistvlad/procgrid/internal/errs"
	"github.com/zclconf/go-cty/cty"
)

// SetParam sets the parameter at dottedPath (e.g. `tracks.minPt`) on the
// stage or output module with the given label. Intermediate parameter sets
// are created when missing.
func (p *Process) SetParam(label, dottedPath string, value cty.Value) error {
	if err := p.mutable("set parameter"); err != nil {
		return err
	}
	steps, err := splitParamPath(dottedPath)
	if err != nil {
		return err
	}

	params, err := p.paramsOf(label)
	if err != nil {
		return err
	}
	updated, err := setParam(params, steps, value)
	if err != nil {
		return errs.Invalid("cannot set %s.%s: %s", label, dottedPath, err.Error())
	}

	if s, ok := p.stages[label]; ok {
		s.Params = updated
	} else {
		p.outputs[label].Params = updated
	}
	return nil
}

// Param returns the parameter at dottedPath on the stage or output module
// with the given label.
func (p *Process) Param(label, dottedPath string) (cty.Value, error) {
	steps, err := splitParamPath(dottedPath)
	if err != nil {
		return cty.NilVal, err
	}
	params, err := p.paramsOf(label)
	if err != nil {
		return cty.NilVal, err
	}

	v, ok := params[steps[0]]
	if !ok {
		return cty.NilVal, errs.Unresolved("parameter", dottedPath, quote(label))
	}
	for _, step := range steps[1:] {
		if v.IsNull() || !v.Type().IsObjectType() || !v.Type().HasAttribute(step) {
			return cty.NilVal, errs.Unresolved("parameter", dottedPath, quote(label))
		}
		v = v.GetAttr(step)
	}
	return v, nil
}

func (p *Process) paramsOf(label string) (map[string]cty.Value, error) {
	if s, ok := p.stages[label]; ok {
		return s.Params, nil
	}
	if o, ok := p.outputs[label]; ok {
		return o.Params, nil
	}
	return nil, errs.Unresolved(string(ObjectStage), label, "")
}

func splitParamPath(dottedPath string) ([]string, error) {
	steps := strings.Split(dottedPath, ".")
	for _, s := range steps {
		if s == "" {
			return nil, errs.Invalid("malformed parameter path %q", dottedPath)
		}
	}
	return steps, nil
}

// setParam returns a copy of params with the value at steps replaced.
func setParam(params map[string]cty.Value, steps []string, value cty.Value) (map[string]cty.Value, error) {
	out := make(map[string]cty.Value, len(params)+1)
	for k, v := range params {
		out[k] = v
	}
	if len(steps) == 1 {
		out[steps[0]] = value
		return out, nil
	}

	var attrs map[string]cty.Value
	if current, ok := params[steps[0]]; ok && !current.IsNull() {
		if !current.Type().IsObjectType() {
			return nil, errs.Invalid("%q is not a parameter set", steps[0])
		}
		attrs = current.AsValueMap()
	}
	nested, err := setParam(attrs, steps[1:], value)
	if err != nil {
		return nil, err
	}
	out[steps[0]] = cty.ObjectVal(nested)
	return out, nil
}

// MergeParams deep-merges override into base. Nested parameter sets present
// on both sides are merged recursively; any other value is replaced.
func MergeParams(base, override map[string]cty.Value) map[string]cty.Value {
	out := make(map[string]cty.Value, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		if cur, ok := out[k]; ok && isParamSet(cur) && isParamSet(v) {
			out[k] = cty.ObjectVal(MergeParams(cur.AsValueMap(), v.AsValueMap()))
			continue
		}
		out[k] = v
	}
	return out
}

func isParamSet(v cty.Value) bool {
	return v.IsKnown() && !v.IsNull() && v.Type().IsObjectType()
}

// PlainValue converts a cty value into plain Go values: string, bool, int64
// or float64 numbers, []any and map[string]any. Unknown and null values
// become nil.
func PlainValue(v cty.Value) any {
	if v == cty.NilVal || !v.IsKnown() || v.IsNull() {
		return nil
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString()
	case ty == cty.Bool:
		return v.True()
	case ty == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return i
			}
		}
		f, _ := bf.Float64()
		return f
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		out := make([]any, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			out = append(out, PlainValue(ev))
		}
		return out
	case ty.IsMapType() || ty.IsObjectType():
		out := make(map[string]any)
		for k, ev := range v.AsValueMap() {
			out[k] = PlainValue(ev)
		}
		return out
	default:
		return v.GoString()
	}
}

// PlainParams converts a parameter map with PlainValue.
func PlainParams(params map[string]cty.Value) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = PlainValue(v)
	}
	return out
}

// ParamNames returns the parameter names in lexical order.
func ParamNames(params map[string]cty.Value) []string {
	return sortedLabels(params)
}
