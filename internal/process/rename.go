// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file implements the mass replacement of a process name in the input
// tags of every stage reachable from a set of sequences.
package process

import (
	"github.com/specialistvlad/procgrid/internal/errs"
	"github.com/specialistvlad/procgrid/internal/inputtag"
	"github.com/zclconf/go-cty/cty"
)

// ReplaceProcessName rewrites every reference to process `from` so it points
// at process `to`, for all stages reachable from the named sequences. Both
// consumed input tags and string parameters are visited: a tag-shaped string
// whose process is `from`, or a string equal to `from`, is replaced.
// Parameters whose name is in whitelist are left untouched. It returns the
// number of values replaced.
func (p *Process) ReplaceProcessName(from, to string, sequences, whitelist []string) (int, error) {
	if err := p.mutable("replace process name"); err != nil {
		return 0, err
	}
	if from == "" || to == "" {
		return 0, errs.Invalid("process name replacement needs both 'from' and 'to'")
	}

	labels := make(map[string]struct{})
	for _, seq := range sequences {
		items, err := p.ExpandSequence(seq)
		if err != nil {
			return 0, err
		}
		for _, item := range items {
			if _, ok := p.stages[item.Label]; ok {
				labels[item.Label] = struct{}{}
			}
		}
	}

	skip := make(map[string]bool, len(whitelist))
	for _, name := range whitelist {
		skip[name] = true
	}

	total := 0
	for _, label := range sortedLabels(labels) {
		s := p.stages[label]
		for i, tag := range s.Consumes {
			if tag.Process == from {
				s.Consumes[i] = tag.WithProcess(to)
				total++
			}
		}
		for name, v := range s.Params {
			if skip[name] {
				continue
			}
			nv, n, err := replaceInValue(v, from, to, skip)
			if err != nil {
				return total, errs.Invalid("stage %q parameter %q: %s", label, name, err.Error())
			}
			s.Params[name] = nv
			total += n
		}
	}
	return total, nil
}

func replaceInValue(v cty.Value, from, to string, skip map[string]bool) (cty.Value, int, error) {
	count := 0
	out, err := cty.Transform(v, func(path cty.Path, v cty.Value) (cty.Value, error) {
		if !v.IsKnown() || v.IsNull() || v.Type() != cty.String {
			return v, nil
		}
		if len(path) > 0 {
			if attr, ok := path[len(path)-1].(cty.GetAttrStep); ok && skip[attr.Name] {
				return v, nil
			}
		}
		s := v.AsString()
		if s == from {
			count++
			return cty.StringVal(to), nil
		}
		if inputtag.LooksLikeTag(s) {
			tag := inputtag.MustParse(s)
			if tag.Process == from {
				count++
				return cty.StringVal(tag.WithProcess(to).String()), nil
			}
		}
		return v, nil
	})
	return out, count, err
}
