package builder

import (
	"context"
	"fmt"

	"github.com/specialistvlad/procgrid/internal/ctxlog"
	"github.com/specialistvlad/procgrid/internal/customise"
	"github.com/specialistvlad/procgrid/internal/errs"
	"github.com/specialistvlad/procgrid/internal/process"
)

// BuildPaths adds every declared Path and EndPath in declaration order.
func (a *Assembler) BuildPaths(ctx context.Context) error {
	return a.run(ctx, PhaseBuildPaths, func(ctx context.Context) error {
		for _, pd := range a.decl.Paths {
			items, err := process.ParseItems(pd.Items)
			if err != nil {
				return fmt.Errorf("path %q: %w", pd.Label, err)
			}
			if pd.End {
				err = a.proc.AddEndPath(pd.Label, items)
			} else {
				err = a.proc.AddPath(pd.Label, items)
			}
			if err != nil {
				return err
			}
		}
		ctxlog.FromContext(ctx).Debug("Paths built.", "paths", len(a.decl.Paths))
		return nil
	})
}

// AssembleSchedule sets the schedule exactly as declared.
func (a *Assembler) AssembleSchedule(ctx context.Context) error {
	return a.run(ctx, PhaseAssembleSchedule, func(ctx context.Context) error {
		if a.decl.Schedule == nil {
			return errs.Invalid("process %q declares no schedule", a.decl.Name)
		}
		if err := a.proc.SetSchedule(a.decl.Schedule.Entries); err != nil {
			return err
		}
		ctxlog.FromContext(ctx).Debug("Schedule assembled.", "entries", a.decl.Schedule.Entries)
		return nil
	})
}

// AssociateTasks associates every declared task with the schedule.
func (a *Assembler) AssociateTasks(ctx context.Context) error {
	return a.run(ctx, PhaseAssociateTasks, func(ctx context.Context) error {
		for _, task := range a.decl.Schedule.Associate {
			if err := a.proc.Associate(task); err != nil {
				return err
			}
		}
		return nil
	})
}

// Customise validates the process, resolves every declared customisation
// and applies them, followed by the Go customisations given as options.
// Every result is checked against the plugin parameter schemas before the
// next customisation runs. Errors from a customisation function are
// returned unmodified.
func (a *Assembler) Customise(ctx context.Context) error {
	return a.run(ctx, PhaseCustomise, func(ctx context.Context) error {
		if err := a.proc.Validate(); err != nil {
			return err
		}
		fns, err := customise.Resolve(a.registry, a.decl.Customise, a.referrer())
		if err != nil {
			return err
		}
		fns = append(fns, a.extra...)

		p, err := customise.ApplyChecked(ctx, a.proc, a.checkParams, fns...)
		if err != nil {
			return err
		}
		a.proc = p
		ctxlog.FromContext(ctx).Debug("Customisations applied.", "count", len(fns))
		return nil
	})
}

// Freeze validates the process a final time, freezes it and returns it.
func (a *Assembler) Freeze(ctx context.Context) (*process.Process, error) {
	err := a.run(ctx, PhaseFreeze, func(ctx context.Context) error {
		if err := a.proc.Validate(); err != nil {
			return err
		}
		a.proc.Freeze()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a.proc, nil
}
