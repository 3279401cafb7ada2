package customise

import (
	"context"

	"github.com/specialistvlad/procgrid/internal/ctxlog"
	"github.com/specialistvlad/procgrid/internal/errs"
	"github.com/specialistvlad/procgrid/internal/process"
)

// Func is a customisation function. It receives a mutable clone of the
// current process and returns the process to pass on.
type Func func(ctx context.Context, p *process.Process) (*process.Process, error)

// Named pairs a customisation function with the name it is logged under.
type Named struct {
	Name string
	Fn   Func
}

// Check inspects a customisation result after it passed Validate. It may
// normalise the process in place.
type Check func(p *process.Process) error

// Apply folds fns over p in order. Every function receives a clone of the
// result of the previous one, and every result is validated before it is
// passed on. An error returned by a function is returned as is; p itself is
// never modified.
func Apply(ctx context.Context, p *process.Process, fns ...Named) (*process.Process, error) {
	return ApplyChecked(ctx, p, nil, fns...)
}

// ApplyChecked is Apply with check run on every result after Validate, so
// a step can rely on what check enforces.
func ApplyChecked(ctx context.Context, p *process.Process, check Check, fns ...Named) (*process.Process, error) {
	logger := ctxlog.FromContext(ctx)
	current := p
	for i, f := range fns {
		logger.Debug("Applying customisation.", "step", i+1, "name", f.Name)
		next, err := f.Fn(ctx, current.Clone())
		if err != nil {
			return nil, err
		}
		if next == nil {
			return nil, errs.Invalid("customisation %q returned no process", f.Name)
		}
		if next.Frozen() {
			return nil, errs.Invalid("customisation %q returned a frozen process", f.Name)
		}
		if err := next.Validate(); err != nil {
			return nil, err
		}
		if check != nil {
			if err := check(next); err != nil {
				return nil, err
			}
		}
		current = next
	}
	return current, nil
}
