// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file flattens nested sequences into the leaf items a path executes.
package process

import (
	"github.com/specialistvlad/procgrid/internal/errs"
)

// Expand returns the flattened items of the Path or EndPath with the given
// label: every sequence is replaced by its members, recursively, so the
// result only references stages and output modules. An ignored sequence
// (`-seq`) ignores the decisions of all its members. Inverting a sequence is
// not allowed.
func (p *Process) Expand(label string) ([]Item, error) {
	path, ok := p.paths[label]
	if !ok {
		return nil, errs.Unresolved(string(ObjectPath), label, "")
	}
	return p.expandItems(path.Items, string(ObjectPath)+" "+quote(label), map[string]bool{})
}

// ExpandSequence returns the flattened items of a sequence.
func (p *Process) ExpandSequence(label string) ([]Item, error) {
	if _, ok := p.sequences[label]; !ok {
		return nil, errs.Unresolved(string(ObjectSequence), label, "")
	}
	return p.expandItems([]Item{{Label: label}}, "", map[string]bool{})
}

func (p *Process) expandItems(items []Item, referrer string, visiting map[string]bool) ([]Item, error) {
	var out []Item
	for _, item := range items {
		kind, ok := p.labels[item.Label]
		if !ok {
			return nil, errs.Unresolved("stage", item.Label, referrer)
		}

		switch kind {
		case ObjectStage, ObjectOutput:
			out = append(out, item)
		case ObjectSequence:
			if item.Op == OpInvert {
				return nil, errs.Invalid("sequence %q cannot be inverted", item.Label)
			}
			if visiting[item.Label] {
				return nil, errs.Invalid("sequence %q contains itself", item.Label)
			}
			visiting[item.Label] = true
			members, err := p.expandItems(p.sequences[item.Label].Items, string(ObjectSequence)+" "+quote(item.Label), visiting)
			delete(visiting, item.Label)
			if err != nil {
				return nil, err
			}
			for _, m := range members {
				if item.Op == OpIgnore {
					m.Op = OpIgnore
				}
				out = append(out, m)
			}
		default:
			return nil, errs.Invalid("%s %q cannot be used as a path item", kind, item.Label)
		}
	}
	return out, nil
}

// TaskStages returns the labels of every stage reachable from the given
// task, including stages of nested tasks, in lexical order.
func (p *Process) TaskStages(label string) ([]string, error) {
	seen := make(map[string]bool)
	stages := make(map[string]struct{})

	var walk func(task, referrer string) error
	walk = func(task, referrer string) error {
		t, ok := p.tasks[task]
		if !ok {
			return errs.Unresolved(string(ObjectTask), task, referrer)
		}
		if seen[task] {
			return nil
		}
		seen[task] = true
		for _, m := range t.Members {
			switch p.labels[m] {
			case ObjectStage:
				stages[m] = struct{}{}
			case ObjectTask:
				if err := walk(m, string(ObjectTask)+" "+quote(task)); err != nil {
					return err
				}
			case "":
				return errs.Unresolved("stage", m, string(ObjectTask)+" "+quote(task))
			default:
				return errs.Invalid("%s %q cannot be a member of task %q", p.labels[m], m, task)
			}
		}
		return nil
	}

	if err := walk(label, ""); err != nil {
		return nil, err
	}
	return sortedLabels(stages), nil
}
