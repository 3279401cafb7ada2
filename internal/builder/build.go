package builder

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/specialistvlad/procgrid/internal/config"
	"github.com/specialistvlad/procgrid/internal/ctxlog"
	"github.com/specialistvlad/procgrid/internal/errs"
	"github.com/specialistvlad/procgrid/internal/inputtag"
	"github.com/specialistvlad/procgrid/internal/plugin"
	"github.com/specialistvlad/procgrid/internal/process"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

func newBuildID() string { return uuid.NewString() }

// LoadStages creates the process and loads every fragment named by the
// process `load` list, in order, followed by the stages, sequences and tasks
// declared in the process itself.
func (a *Assembler) LoadStages(ctx context.Context) error {
	return a.run(ctx, PhaseLoadStages, func(ctx context.Context) error {
		logger := ctxlog.FromContext(ctx)
		if a.decl.Name == "" {
			return errs.Invalid("process name must not be empty")
		}

		a.modifiers = map[string]bool{}
		if a.decl.Era != "" {
			era, err := a.registry.Era(a.decl.Era)
			if err != nil {
				return errs.Unresolved("era", a.decl.Era, a.referrer())
			}
			for _, m := range era.Modifiers {
				a.modifiers[m] = true
			}
		}
		a.proc = process.New(a.decl.Name, a.decl.Era)

		for _, name := range a.decl.Load {
			f, err := a.registry.Fragment(name)
			if err != nil {
				return errs.Unresolved("fragment", name, a.referrer())
			}
			if err := a.addDeclarations(f.Stages, f.Sequences, f.Tasks); err != nil {
				return fmt.Errorf("loading fragment %q: %w", name, err)
			}
			logger.Debug("Loaded fragment.", "fragment", name, "stages", len(f.Stages))
		}
		if err := a.addDeclarations(a.decl.Stages, a.decl.Sequences, a.decl.Tasks); err != nil {
			return err
		}

		logger.Debug("Stages loaded.", "stages", len(a.proc.Stages()), "sequences", len(a.proc.Sequences()), "tasks", len(a.proc.Tasks()))
		return nil
	})
}

func (a *Assembler) addDeclarations(stages []*config.StageDecl, sequences []*config.SequenceDecl, tasks []*config.TaskDecl) error {
	for _, sd := range stages {
		s, err := a.newStage(sd)
		if err != nil {
			return err
		}
		if err := a.proc.AddStage(s); err != nil {
			return err
		}
	}
	for _, sd := range sequences {
		items, err := process.ParseItems(sd.Members)
		if err != nil {
			return fmt.Errorf("sequence %q: %w", sd.Label, err)
		}
		if err := a.proc.AddSequence(sd.Label, items); err != nil {
			return err
		}
	}
	for _, td := range tasks {
		if err := a.proc.AddTask(td.Label, td.Members); err != nil {
			return err
		}
	}
	return nil
}

// newStage turns a declaration into a stage. The plugin decides the kind;
// parameters declared by the plugin are converted to the declared type, and
// era overrides are merged in the order they are declared.
func (a *Assembler) newStage(sd *config.StageDecl) (*process.Stage, error) {
	reg, err := a.registry.Plugin(sd.Plugin)
	if err != nil {
		return nil, errs.Unresolved("plugin", sd.Plugin, fmt.Sprintf("stage %q", sd.Label))
	}
	if reg.Kind == plugin.KindOutput {
		return nil, errs.Invalid("stage %q: plugin %q implements output modules", sd.Label, sd.Plugin)
	}

	params := process.MergeParams(nil, sd.Params)
	for _, o := range sd.EraOverrides {
		if a.modifiers[o.Modifier] {
			params = process.MergeParams(params, o.Params)
		}
	}
	params, err = convertParams(fmt.Sprintf("stage %q", sd.Label), params, reg.Params)
	if err != nil {
		return nil, err
	}

	s := &process.Stage{
		Label:  sd.Label,
		Type:   sd.Type,
		Plugin: sd.Plugin,
		Kind:   reg.Kind,
		Params: params,
	}
	if s.Type == "" {
		s.Type = sd.Plugin
	}
	for _, raw := range sd.Consumes {
		tag, err := inputtag.Parse(raw)
		if err != nil {
			return nil, errs.Invalid("stage %q: %v", sd.Label, err)
		}
		s.Consumes = append(s.Consumes, tag)
	}
	for _, raw := range sd.Produces {
		d, err := inputtag.ParseDeclaration(raw)
		if err != nil {
			return nil, errs.Invalid("stage %q: %v", sd.Label, err)
		}
		s.Produces = append(s.Produces, d)
	}
	return s, nil
}

// convertParams converts the parameters a plugin declares to their declared
// type. Other parameters are returned unchanged.
func convertParams(where string, params map[string]cty.Value, schema map[string]cty.Type) (map[string]cty.Value, error) {
	for _, name := range process.ParamNames(params) {
		want, ok := schema[name]
		if !ok || want.Equals(cty.DynamicPseudoType) {
			continue
		}
		v, err := convert.Convert(params[name], want)
		if err != nil {
			return nil, errs.New(errs.CodeValidation, "%s, param '%s': type mismatch. Declared '%s' but value is '%s'",
				where, name, want.FriendlyName(), params[name].Type().FriendlyName())
		}
		params[name] = v
	}
	return params, nil
}

// illegalParams lists the parameters of a stage or output module that its
// plugin does not declare. Plugins without a parameter schema accept all.
func illegalParams(params map[string]cty.Value, schema map[string]cty.Type) []string {
	if schema == nil {
		return nil
	}
	var out []string
	for name := range params {
		if _, ok := schema[name]; !ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
