package customise

import (
	"context"
	"sort"

	"github.com/specialistvlad/procgrid/internal/ctxlog"
	"github.com/specialistvlad/procgrid/internal/errs"
	"github.com/specialistvlad/procgrid/internal/inputtag"
	"github.com/specialistvlad/procgrid/internal/process"
	"github.com/specialistvlad/procgrid/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// DefaultHarvester is the label of the stage configured by the
// log_error_harvester primitive when no label is given.
const DefaultHarvester = "logErrorHarvester"

// Module registers the built-in customisation primitives.
type Module struct{}

// Register implements registry.Module.
func (Module) Register(r *registry.Registry) {
	r.RegisterPrimitive("set", &registry.Primitive{
		Description: "Overrides stage or output parameters, like a command-line override.",
		Args: map[string]cty.Type{
			"label":  cty.String,
			"param":  cty.String,
			"value":  cty.DynamicPseudoType,
			"values": cty.DynamicPseudoType,
		},
		Required: []string{"label"},
		Fn:       setParams,
	})
	r.RegisterPrimitive("process_name_replace", &registry.Primitive{
		Description: "Rewrites input tags that point at one process so they point at another.",
		Args: map[string]cty.Type{
			"from":      cty.String,
			"to":        cty.String,
			"sequences": cty.List(cty.String),
			"whitelist": cty.List(cty.String),
		},
		Required: []string{"from", "to", "sequences"},
		Fn:       processNameReplace,
	})
	r.RegisterPrimitive("associate_task", &registry.Primitive{
		Description: "Associates a task with the schedule, optionally creating it.",
		Args: map[string]cty.Type{
			"task":              cty.String,
			"create_if_missing": cty.Bool,
			"members":           cty.List(cty.String),
		},
		Required: []string{"task"},
		Fn:       associateTask,
	})
	r.RegisterPrimitive("early_delete", &registry.Primitive{
		Description: "Marks products that nothing reads or retains as deletable early.",
		Args:        map[string]cty.Type{"enabled": cty.Bool},
		Fn:          earlyDelete,
	})
	r.RegisterPrimitive("log_error_harvester", &registry.Primitive{
		Description: "Restricts the log error harvester to producers of retained products.",
		Args:        map[string]cty.Type{"label": cty.String},
		Fn:          logErrorHarvester,
	})
	r.RegisterPrimitive("schedule_append", &registry.Primitive{
		Description: "Appends existing paths to the end of the schedule.",
		Args:        map[string]cty.Type{"paths": cty.List(cty.String)},
		Required:    []string{"paths"},
		Fn:          scheduleAppend,
	})
}

func setParams(_ context.Context, p *process.Process, args map[string]cty.Value) (*process.Process, error) {
	label, err := requiredString(args, "label")
	if err != nil {
		return nil, errs.Invalid("set: %v", err)
	}

	param, hasParam := args["param"]
	value, hasValue := args["value"]
	if hasParam != hasValue {
		return nil, errs.Invalid("set: 'param' and 'value' must be given together")
	}
	if hasParam {
		if !param.Type().Equals(cty.String) || param.IsNull() {
			return nil, errs.Invalid("set: 'param' must be a string")
		}
		if err := p.SetParam(label, param.AsString(), value); err != nil {
			return nil, err
		}
	}

	if values, ok := args["values"]; ok && !values.IsNull() {
		ty := values.Type()
		if !ty.IsObjectType() && !ty.IsMapType() {
			return nil, errs.Invalid("set: 'values' must be an object, got %s", ty.FriendlyName())
		}
		m := values.AsValueMap()
		for _, path := range process.ParamNames(m) {
			if err := p.SetParam(label, path, m[path]); err != nil {
				return nil, err
			}
		}
	} else if !hasParam {
		return nil, errs.Invalid("set: one of 'param' or 'values' is required")
	}
	return p, nil
}

func processNameReplace(ctx context.Context, p *process.Process, args map[string]cty.Value) (*process.Process, error) {
	from, err := requiredString(args, "from")
	if err != nil {
		return nil, errs.Invalid("process_name_replace: %v", err)
	}
	to, err := requiredString(args, "to")
	if err != nil {
		return nil, errs.Invalid("process_name_replace: %v", err)
	}
	var sequences, whitelist []string
	if _, err := arg(args, "sequences", &sequences); err != nil {
		return nil, errs.Invalid("process_name_replace: %v", err)
	}
	if _, err := arg(args, "whitelist", &whitelist); err != nil {
		return nil, errs.Invalid("process_name_replace: %v", err)
	}

	n, err := p.ReplaceProcessName(from, to, sequences, whitelist)
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Replaced process name.", "from", from, "to", to, "replacements", n)
	return p, nil
}

func associateTask(_ context.Context, p *process.Process, args map[string]cty.Value) (*process.Process, error) {
	task, err := requiredString(args, "task")
	if err != nil {
		return nil, errs.Invalid("associate_task: %v", err)
	}
	var create bool
	var members []string
	if _, err := arg(args, "create_if_missing", &create); err != nil {
		return nil, errs.Invalid("associate_task: %v", err)
	}
	if _, err := arg(args, "members", &members); err != nil {
		return nil, errs.Invalid("associate_task: %v", err)
	}

	if _, ok := p.Lookup(task); !ok && create {
		if err := p.AddTask(task, members); err != nil {
			return nil, err
		}
	}
	if err := p.Associate(task); err != nil {
		return nil, err
	}
	return p, nil
}

func earlyDelete(ctx context.Context, p *process.Process, args map[string]cty.Value) (*process.Process, error) {
	enabled := true
	if _, err := arg(args, "enabled", &enabled); err != nil {
		return nil, errs.Invalid("early_delete: %v", err)
	}
	opts := p.Options()
	if !enabled {
		opts.CanDeleteEarly = []string{}
		return p, p.SetOptions(opts)
	}

	retained, err := retainedProducts(p)
	if err != nil {
		return nil, err
	}
	consumed := consumedTags(p)

	var deletable []string
	for _, prod := range producedProducts(p) {
		if retained[prod.Branch()] {
			continue
		}
		if anyMatches(consumed, prod) {
			continue
		}
		deletable = append(deletable, prod.Branch())
	}
	sort.Strings(deletable)
	if deletable == nil {
		deletable = []string{}
	}
	opts.CanDeleteEarly = deletable
	if err := p.SetOptions(opts); err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Early delete configured.", "products", len(deletable))
	return p, nil
}

func logErrorHarvester(_ context.Context, p *process.Process, args map[string]cty.Value) (*process.Process, error) {
	label := DefaultHarvester
	if _, err := arg(args, "label", &label); err != nil {
		return nil, errs.Invalid("log_error_harvester: %v", err)
	}
	if _, err := p.Stage(label); err != nil {
		return nil, err
	}

	retained, err := retainedProducts(p)
	if err != nil {
		return nil, err
	}
	producers := map[string]bool{}
	for _, prod := range producedProducts(p) {
		if retained[prod.Branch()] && prod.Label != label {
			producers[prod.Label] = true
		}
	}
	names := make([]string, 0, len(producers))
	for name := range producers {
		names = append(names, name)
	}
	sort.Strings(names)

	vals := make([]cty.Value, 0, len(names))
	for _, n := range names {
		vals = append(vals, cty.StringVal(n))
	}
	list := cty.ListValEmpty(cty.String)
	if len(vals) > 0 {
		list = cty.ListVal(vals)
	}
	if err := p.SetParam(label, "includeModules", list); err != nil {
		return nil, err
	}
	return p, nil
}

func scheduleAppend(_ context.Context, p *process.Process, args map[string]cty.Value) (*process.Process, error) {
	var paths []string
	if _, err := arg(args, "paths", &paths); err != nil {
		return nil, errs.Invalid("schedule_append: %v", err)
	}
	if err := p.AppendSchedule(paths...); err != nil {
		return nil, err
	}
	return p, nil
}

// producedProducts lists every product declared by the producers of p.
func producedProducts(p *process.Process) []inputtag.Product {
	var out []inputtag.Product
	for _, label := range p.Stages() {
		s, _ := p.Stage(label)
		if s.Kind != process.KindProducer {
			continue
		}
		out = append(out, s.Products(p.Name())...)
	}
	return out
}

// retainedProducts returns the branches kept by at least one output module.
func retainedProducts(p *process.Process) (map[string]bool, error) {
	products := producedProducts(p)
	for _, b := range p.Source().Provides {
		if prod, err := inputtag.ParseBranch(b); err == nil {
			products = append(products, prod)
		}
	}

	retained := map[string]bool{}
	for _, label := range p.Outputs() {
		o, _ := p.Output(label)
		sel, err := inputtag.NewSelector(o.OutputCommands)
		if err != nil {
			return nil, errs.Invalid("output %q: %v", label, err)
		}
		for _, prod := range products {
			if sel.Keeps(prod.Branch()) {
				retained[prod.Branch()] = true
			}
		}
	}
	return retained, nil
}

func consumedTags(p *process.Process) []inputtag.Tag {
	var out []inputtag.Tag
	for _, label := range p.Stages() {
		s, _ := p.Stage(label)
		out = append(out, s.Consumes...)
	}
	return out
}

func anyMatches(tags []inputtag.Tag, prod inputtag.Product) bool {
	for _, t := range tags {
		if t.Matches(prod) {
			return true
		}
	}
	return false
}
