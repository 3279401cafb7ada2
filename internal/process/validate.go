// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file contains the structural validation of a Process.
//
// Why validate the whole process at once?
//
// Customisations may rewrite any part of a process, so a local check at the
// mutator is not enough: a renamed stage can leave a dangling sequence member
// behind. Validate re-checks every reference and every struct constraint and
// is run after each customisation step and before freezing.
package process

import (
	"slices"

	"github.com/go-playground/validator/v10"
	"github.com/specialistvlad/procgrid/internal/dag"
	"github.com/specialistvlad/procgrid/internal/errs"
	"github.com/specialistvlad/procgrid/internal/inputtag"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every reference and constraint of the process and returns
// the first violation found. Checks run in a fixed order over sorted labels,
// so the reported error is stable.
func (p *Process) Validate() error {
	checks := []func() error{
		p.validateStages,
		p.validateSequences,
		p.validateTasks,
		p.validatePaths,
		p.validateOutputs,
		p.validateSchedule,
		p.validateSettings,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Process) validateStages() error {
	for _, label := range p.Stages() {
		s := p.stages[label]
		if !s.Kind.Valid() {
			return errs.Invalid("stage %q has unknown kind %q", label, s.Kind)
		}
		if s.Plugin == "" {
			return errs.Invalid("stage %q does not name a plugin", label)
		}
		if len(s.Produces) > 0 && !inputtag.ValidLabel(label) {
			return errs.Invalid("stage %q produces products but its label is not a valid product label", label)
		}
	}
	return nil
}

func (p *Process) validateSequences() error {
	g := dag.New()
	for _, label := range p.Sequences() {
		g.AddNode(label)
	}
	for _, label := range p.Sequences() {
		referrer := string(ObjectSequence) + " " + quote(label)
		for _, item := range p.sequences[label].Items {
			kind, ok := p.labels[item.Label]
			if !ok {
				return errs.Unresolved("stage", item.Label, referrer)
			}
			switch kind {
			case ObjectStage, ObjectOutput:
			case ObjectSequence:
				if item.Op == OpInvert {
					return errs.Invalid("sequence %q cannot be inverted in %s", item.Label, referrer)
				}
				if err := g.AddEdge(item.Label, label); err != nil {
					return errs.Invalid("sequence %q contains itself", label)
				}
			default:
				return errs.Invalid("%s %q cannot be a member of %s", kind, item.Label, referrer)
			}
		}
	}
	if err := g.DetectCycles(); err != nil {
		return errs.Invalid("sequence nesting is cyclic").WithCause(err)
	}
	return nil
}

func (p *Process) validateTasks() error {
	for _, label := range p.Tasks() {
		if _, err := p.TaskStages(label); err != nil {
			return err
		}
	}
	return nil
}

func (p *Process) validatePaths() error {
	for _, label := range p.pathOrder {
		path := p.paths[label]
		items, err := p.Expand(label)
		if err != nil {
			return err
		}
		if path.End {
			continue
		}
		for _, item := range items {
			if p.labels[item.Label] == ObjectOutput {
				return errs.Invalid("output module %q may only appear in an end_path, found in path %q", item.Label, label)
			}
		}
	}
	return nil
}

func (p *Process) validateOutputs() error {
	for _, label := range p.Outputs() {
		o := p.outputs[label]
		if err := validate.Struct(o); err != nil {
			return errs.New(errs.CodeValidation, "output module %q is invalid", label).WithCause(err)
		}
		if _, err := inputtag.NewSelector(o.OutputCommands); err != nil {
			return errs.Invalid("output module %q: %s", label, err.Error())
		}
		for _, sel := range o.SelectEvents {
			path, ok := p.paths[sel]
			if !ok {
				return errs.Unresolved(string(ObjectPath), sel, "output "+quote(label))
			}
			if path.End {
				return errs.Invalid("output module %q selects on end_path %q", label, sel)
			}
			if p.schedule != nil && !slices.Contains(p.schedule.Entries, sel) {
				return errs.Invalid("output module %q selects on path %q, which is not scheduled", label, sel)
			}
		}
	}
	return nil
}

func (p *Process) validateSchedule() error {
	if p.schedule == nil {
		return nil
	}
	if err := p.checkScheduleEntries(p.schedule.Entries); err != nil {
		return err
	}
	for _, task := range p.schedule.Associated {
		if _, ok := p.tasks[task]; !ok {
			return errs.Unresolved(string(ObjectTask), task, "schedule")
		}
	}
	return nil
}

func (p *Process) validateSettings() error {
	if err := validate.Struct(p.options); err != nil {
		return errs.New(errs.CodeValidation, "options are invalid").WithCause(err)
	}
	if err := validate.Struct(p.maxEvents); err != nil {
		return errs.New(errs.CodeValidation, "max events are invalid").WithCause(err)
	}
	for _, branch := range p.source.Provides {
		if _, err := inputtag.ParseBranch(branch); err != nil {
			return errs.Invalid("source provides malformed product: %s", err.Error())
		}
	}
	for _, label := range p.options.CanDeleteEarly {
		if _, err := inputtag.ParseBranch(label); err != nil {
			return errs.Invalid("can_delete_early: %s", err.Error())
		}
	}
	return nil
}

// ValidateStruct runs struct-tag validation on v. It is exposed for the
// layers that build process values from declarations.
func ValidateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		return errs.New(errs.CodeValidation, "%T is invalid", v).WithCause(err)
	}
	return nil
}
