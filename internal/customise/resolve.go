package customise

import (
	"context"
	"fmt"
	"strings"

	"github.com/specialistvlad/procgrid/internal/config"
	"github.com/specialistvlad/procgrid/internal/errs"
	"github.com/specialistvlad/procgrid/internal/process"
	"github.com/specialistvlad/procgrid/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Resolve turns customise declarations into customisation functions. A name
// refers either to a primitive, which receives the declared arguments, or
// to a composite customisation declared in a fragment, which takes none.
// Every name is resolved before any function runs, so an unknown name fails
// the build before the process is touched.
func Resolve(r *registry.Registry, decls []*config.CustomiseDecl, referrer string) ([]Named, error) {
	out := make([]Named, 0, len(decls))
	for _, d := range decls {
		fn, err := resolveOne(r, d, referrer)
		if err != nil {
			return nil, err
		}
		out = append(out, Named{Name: d.Name, Fn: fn})
	}
	return out, nil
}

func resolveOne(r *registry.Registry, d *config.CustomiseDecl, referrer string) (Func, error) {
	if prim, err := r.Primitive(d.Name); err == nil {
		return bind(d.Name, prim, d.Args)
	}

	composite, err := r.Customisation(d.Name)
	if err != nil {
		return nil, errs.Unresolved("customisation", d.Name, referrer)
	}
	if len(d.Args) > 0 {
		return nil, errs.Invalid("composite customisation %q takes no arguments", d.Name)
	}

	steps := make([]Func, 0, len(composite.Steps))
	for i, step := range composite.Steps {
		prim, err := r.Primitive(step.Primitive)
		if err != nil {
			return nil, errs.Unresolved("customisation primitive", step.Primitive,
				fmt.Sprintf("customisation %q step %d", d.Name, i+1))
		}
		fn, err := bind(step.Primitive, prim, step.Args)
		if err != nil {
			return nil, err
		}
		steps = append(steps, fn)
	}

	return func(ctx context.Context, p *process.Process) (*process.Process, error) {
		for _, step := range steps {
			next, err := step(ctx, p)
			if err != nil {
				return nil, err
			}
			p = next
		}
		return p, nil
	}, nil
}

// bind checks args against the primitive declaration and closes over them.
func bind(name string, prim *registry.Primitive, args map[string]cty.Value) (Func, error) {
	if problems := registry.CheckArgs(name, args, prim); len(problems) > 0 {
		return nil, errs.Invalid("invalid arguments for customisation %q:\n- %s", name, strings.Join(problems, "\n- "))
	}
	return func(ctx context.Context, p *process.Process) (*process.Process, error) {
		return prim.Fn(ctx, p, args)
	}, nil
}

// Wrap adapts a plain function into a named customisation.
func Wrap(name string, fn Func) Named {
	return Named{Name: name, Fn: fn}
}
