package builder

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/specialistvlad/procgrid/internal/config"
	"github.com/specialistvlad/procgrid/internal/ctxlog"
	"github.com/specialistvlad/procgrid/internal/errs"
	"github.com/specialistvlad/procgrid/internal/plugin"
	"github.com/specialistvlad/procgrid/internal/process"
)

// InstantiateIO sets the source, event limits, options, metadata, output
// modules and conditions of the process, then runs the declared process-name
// replacements.
func (a *Assembler) InstantiateIO(ctx context.Context) error {
	return a.run(ctx, PhaseInstantiateIO, func(ctx context.Context) error {
		logger := ctxlog.FromContext(ctx)
		p := a.proc

		if err := p.SetSource(a.source()); err != nil {
			return err
		}
		maxEvents := a.maxEvents()
		if err := process.ValidateStruct(maxEvents); err != nil {
			return err
		}
		if err := p.SetMaxEvents(maxEvents); err != nil {
			return err
		}
		opts := a.options()
		if err := process.ValidateStruct(opts); err != nil {
			return err
		}
		if err := p.SetOptions(opts); err != nil {
			return err
		}
		if err := p.SetMetadata(a.metadata()); err != nil {
			return err
		}

		for _, od := range a.decl.Outputs {
			o, err := a.newOutput(od)
			if err != nil {
				return err
			}
			if err := p.AddOutput(o); err != nil {
				return err
			}
		}

		if err := a.resolveConditions(ctx); err != nil {
			return err
		}

		for _, r := range a.decl.ProcessNameReplace {
			n, err := p.ReplaceProcessName(r.From, r.To, r.Sequences, r.Whitelist)
			if err != nil {
				return err
			}
			logger.Debug("Replaced process name.", "from", r.From, "to", r.To, "replacements", n)
		}

		if err := a.checkParams(p); err != nil {
			return err
		}

		logger.Debug("I/O instantiated.",
			"max_events", maxEvents.Input,
			"threads", opts.NumberOfThreads,
			"outputs", len(p.Outputs()),
			"global_tag", p.Conditions().Resolved,
		)
		return nil
	})
}

func (a *Assembler) source() process.Source {
	var s process.Source
	if sd := a.decl.Source; sd != nil {
		s = process.Source{
			Plugin:             sd.Plugin,
			FileNames:          slices.Clone(sd.FileNames),
			SecondaryFileNames: slices.Clone(sd.SecondaryFileNames),
			Provides:           slices.Clone(sd.Provides),
		}
	}
	if len(a.overrides.FileNames) > 0 {
		s.FileNames = slices.Clone(a.overrides.FileNames)
	}
	return s
}

func (a *Assembler) maxEvents() process.MaxEvents {
	m := process.MaxEvents{Input: -1}
	if md := a.decl.MaxEvents; md != nil {
		m.Input = md.Input
		if md.Output != nil {
			out := *md.Output
			m.Output = &out
		}
	}
	if a.overrides.MaxEvents != nil {
		m.Input = *a.overrides.MaxEvents
	}
	return m
}

func (a *Assembler) options() process.Options {
	o := process.DefaultOptions()
	if od := a.decl.Options; od != nil {
		setIf(&o.NumberOfThreads, od.NumberOfThreads)
		setIf(&o.NumberOfStreams, od.NumberOfStreams)
		setIf(&o.NumberOfConcurrentLuminosityBlocks, od.NumberOfConcurrentLuminosityBlocks)
		setIf(&o.NumberOfConcurrentRuns, od.NumberOfConcurrentRuns)
		setIf(&o.FileMode, od.FileMode)
		setIf(&o.WantSummary, od.WantSummary)
		setIf(&o.DeleteNonConsumedUnscheduledModules, od.DeleteNonConsumedUnscheduledModules)
		setIf(&o.ThrowIfIllegalParameter, od.ThrowIfIllegalParameter)
		setIf(&o.DumpOptions, od.DumpOptions)
		setIf(&o.PrintDependencies, od.PrintDependencies)
		if od.SizeOfStackForThreadsInKB != nil {
			v := *od.SizeOfStackForThreadsInKB
			o.SizeOfStackForThreadsInKB = &v
		}
		if od.Accelerators != nil {
			o.Accelerators = slices.Clone(od.Accelerators)
		}
		if od.CanDeleteEarly != nil {
			o.CanDeleteEarly = slices.Clone(od.CanDeleteEarly)
		}
	}

	ov := a.overrides
	setIf(&o.NumberOfThreads, ov.NumberOfThreads)
	setIf(&o.NumberOfStreams, ov.NumberOfStreams)
	setIf(&o.FileMode, ov.FileMode)
	if ov.SizeOfStackForThreadsInKB != nil {
		v := *ov.SizeOfStackForThreadsInKB
		o.SizeOfStackForThreadsInKB = &v
	}
	return o
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func (a *Assembler) metadata() process.Metadata {
	m := process.Metadata{BuildID: a.newID()}
	if md := a.decl.Metadata; md != nil {
		m.Annotation = md.Annotation
		m.Name = md.Name
		m.Version = md.Version
	}
	return m
}

func (a *Assembler) newOutput(od *config.OutputDecl) (*process.OutputModule, error) {
	reg, err := a.registry.Plugin(od.Plugin)
	if err != nil {
		return nil, errs.Unresolved("plugin", od.Plugin, fmt.Sprintf("output %q", od.Label))
	}
	if reg.Kind != plugin.KindOutput {
		return nil, errs.Invalid("output %q: plugin %q does not implement output modules", od.Label, od.Plugin)
	}

	commands := slices.Clone(od.OutputCommands)
	if od.EventContent != "" {
		if len(commands) > 0 {
			return nil, errs.Invalid("output %q: event_content and output_commands are mutually exclusive", od.Label)
		}
		commands, err = a.registry.EventContentCommands(od.EventContent)
		if err != nil {
			var nre *errs.NameResolutionError
			if errors.As(err, &nre) && nre.Name == od.EventContent {
				return nil, errs.Unresolved("event_content", od.EventContent, fmt.Sprintf("output %q", od.Label))
			}
			return nil, err
		}
	}

	params, err := convertParams(fmt.Sprintf("output %q", od.Label), process.MergeParams(nil, od.Params), reg.Params)
	if err != nil {
		return nil, err
	}
	o := &process.OutputModule{
		Label:                od.Label,
		Plugin:               od.Plugin,
		FileName:             od.FileName,
		DataTier:             od.DataTier,
		FilterName:           od.FilterName,
		CompressionAlgorithm: strings.ToUpper(od.CompressionAlgorithm),
		CompressionLevel:     od.CompressionLevel,
		EventContent:         od.EventContent,
		OutputCommands:       commands,
		SelectEvents:         slices.Clone(od.SelectEvents),
		Params:               params,
	}
	if err := process.ValidateStruct(o); err != nil {
		return nil, err
	}
	return o, nil
}

func (a *Assembler) resolveConditions(ctx context.Context) error {
	requested := a.overrides.GlobalTag
	var records []process.Record
	if cd := a.decl.Conditions; cd != nil {
		if requested == "" {
			requested = cd.GlobalTag
		}
		for _, r := range cd.Records {
			records = append(records, process.Record{Record: r.Record, Tag: r.Tag, Label: r.Label, Connect: r.Connect})
		}
	}
	if requested == "" {
		return nil
	}

	resolved, err := a.resolver.Resolve(ctx, requested)
	if err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("Resolved conditions tag.", "requested", requested, "tag", resolved.Tag)
	return a.proc.SetConditions(process.Conditions{
		Requested: requested,
		Resolved:  resolved.Tag,
		Records:   records,
	})
}

// checkParams converts stage and output parameters to the types their
// plugins declare and writes the converted values back. When the process
// sets throw_if_illegal_parameter, parameters a plugin does not declare are
// rejected.
func (a *Assembler) checkParams(p *process.Process) error {
	throw := p.Options().ThrowIfIllegalParameter
	for _, label := range p.Stages() {
		s, err := p.Stage(label)
		if err != nil {
			return err
		}
		where := fmt.Sprintf("stage %q", label)
		reg, err := a.registry.Plugin(s.Plugin)
		if err != nil {
			return errs.Unresolved("plugin", s.Plugin, where)
		}
		if bad := illegalParams(s.Params, reg.Params); throw && len(bad) > 0 {
			return errs.Invalid("%s: illegal parameter(s) for plugin %q: %s", where, s.Plugin, strings.Join(bad, ", "))
		}
		if s.Params, err = convertParams(where, s.Params, reg.Params); err != nil {
			return err
		}
		if err := p.ReplaceStage(s); err != nil {
			return err
		}
	}
	for _, label := range p.Outputs() {
		o, err := p.Output(label)
		if err != nil {
			return err
		}
		where := fmt.Sprintf("output %q", label)
		reg, err := a.registry.Plugin(o.Plugin)
		if err != nil {
			return errs.Unresolved("plugin", o.Plugin, where)
		}
		if bad := illegalParams(o.Params, reg.Params); throw && len(bad) > 0 {
			return errs.Invalid("%s: illegal parameter(s) for plugin %q: %s", where, o.Plugin, strings.Join(bad, ", "))
		}
		if o.Params, err = convertParams(where, o.Params, reg.Params); err != nil {
			return err
		}
		if err := p.ReplaceOutput(o); err != nil {
			return err
		}
	}
	return nil
}
