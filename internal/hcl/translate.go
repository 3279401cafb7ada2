// This file contains the logic for translating decoded HCL blocks into the
// format-agnostic configuration model defined in the config package.

package hcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/procgrid/internal/config"
)

func translateFragment(fb *fragmentBlock, file string, evalCtx *hcl.EvalContext) (*config.Fragment, error) {
	f := &config.Fragment{Name: fb.Name, SourceFile: file}

	for _, sb := range fb.Stages {
		s, err := translateStage(sb, "fragment "+fb.Name)
		if err != nil {
			return nil, err
		}
		f.Stages = append(f.Stages, s)
	}
	for _, lb := range fb.Sequences {
		f.Sequences = append(f.Sequences, &config.SequenceDecl{Label: lb.Label, Members: lb.Members})
	}
	for _, lb := range fb.Tasks {
		f.Tasks = append(f.Tasks, &config.TaskDecl{Label: lb.Label, Members: lb.Members})
	}
	for _, ec := range fb.EventContents {
		f.EventContents = append(f.EventContents, &config.EventContentDecl{
			Name:           ec.Name,
			Extends:        ec.Extends,
			OutputCommands: ec.OutputCommands,
		})
	}
	for _, e := range fb.Eras {
		f.Eras = append(f.Eras, &config.EraDecl{Name: e.Name, Modifiers: e.Modifiers})
	}
	for _, a := range fb.ConditionsAliases {
		f.ConditionsAliases = append(f.ConditionsAliases, &config.ConditionsAliasDecl{Alias: a.Alias, Tag: a.Tag})
	}
	for _, cb := range fb.Customisations {
		c := &config.CustomisationDecl{Name: cb.Name}
		for _, ab := range cb.Applies {
			args, diags := evalBodyAttributes(ab.Body, evalCtx)
			if err := diagsError(diags); err != nil {
				return nil, fmt.Errorf("customisation %q, apply %q: %w", cb.Name, ab.Primitive, err)
			}
			c.Steps = append(c.Steps, &config.ApplyDecl{Primitive: ab.Primitive, Args: args})
		}
		f.Customisations = append(f.Customisations, c)
	}
	return f, nil
}

func translateStage(sb *stageBlock, owner string) (*config.StageDecl, error) {
	where := fmt.Sprintf("%s, stage %q", owner, sb.Label)
	params, err := objectToParams(sb.Params, where)
	if err != nil {
		return nil, err
	}
	s := &config.StageDecl{
		Label:    sb.Label,
		Plugin:   sb.Plugin,
		Type:     sb.Type,
		Params:   params,
		Consumes: sb.Consumes,
		Produces: sb.Produces,
	}
	for _, eb := range sb.Eras {
		eraParams, err := objectToParams(eb.Params, where+" era "+eb.Modifier)
		if err != nil {
			return nil, err
		}
		s.EraOverrides = append(s.EraOverrides, &config.EraOverride{Modifier: eb.Modifier, Params: eraParams})
	}
	return s, nil
}

func translateProcess(pb *processBlock, file string, evalCtx *hcl.EvalContext) (*config.ProcessDecl, error) {
	p := &config.ProcessDecl{
		Name:       pb.Name,
		SourceFile: file,
		Era:        pb.Era,
		Load:       pb.Load,
	}

	if pb.MaxEvents != nil || pb.MaxOutputEvents != nil {
		p.MaxEvents = &config.MaxEventsDecl{Input: -1, Output: pb.MaxOutputEvents}
		if pb.MaxEvents != nil {
			p.MaxEvents.Input = *pb.MaxEvents
		}
	}
	if sb := pb.Source; sb != nil {
		p.Source = &config.SourceDecl{
			Plugin:             sb.Plugin,
			FileNames:          sb.FileNames,
			SecondaryFileNames: sb.SecondaryFileNames,
			Provides:           sb.Provides,
		}
	}
	if ob := pb.Options; ob != nil {
		p.Options = &config.OptionsDecl{
			NumberOfThreads:                     ob.NumberOfThreads,
			NumberOfStreams:                     ob.NumberOfStreams,
			NumberOfConcurrentLuminosityBlocks:  ob.NumberOfConcurrentLuminosityBlocks,
			NumberOfConcurrentRuns:              ob.NumberOfConcurrentRuns,
			FileMode:                            ob.FileMode,
			SizeOfStackForThreadsInKB:           ob.SizeOfStackForThreadsInKB,
			WantSummary:                         ob.WantSummary,
			Accelerators:                        ob.Accelerators,
			CanDeleteEarly:                      ob.CanDeleteEarly,
			DeleteNonConsumedUnscheduledModules: ob.DeleteNonConsumedUnscheduledModules,
			ThrowIfIllegalParameter:             ob.ThrowIfIllegalParameter,
			DumpOptions:                         ob.DumpOptions,
			PrintDependencies:                   ob.PrintDependencies,
		}
	}
	if mb := pb.Metadata; mb != nil {
		p.Metadata = &config.MetadataDecl{Annotation: mb.Annotation, Name: mb.Name, Version: mb.Version}
	}
	if cb := pb.Conditions; cb != nil {
		p.Conditions = &config.ConditionsDecl{GlobalTag: cb.GlobalTag}
		for _, rb := range cb.Records {
			p.Conditions.Records = append(p.Conditions.Records, &config.RecordDecl{
				Record:  rb.Record,
				Tag:     rb.Tag,
				Label:   rb.Label,
				Connect: rb.Connect,
			})
		}
	}
	for _, rb := range pb.Replaces {
		p.ProcessNameReplace = append(p.ProcessNameReplace, &config.ProcessNameReplaceDecl{
			From:      rb.From,
			To:        rb.To,
			Sequences: rb.Sequences,
			Whitelist: rb.Whitelist,
		})
	}

	owner := "process " + pb.Name
	for _, sb := range pb.Stages {
		s, err := translateStage(sb, owner)
		if err != nil {
			return nil, err
		}
		p.Stages = append(p.Stages, s)
	}
	for _, lb := range pb.Sequences {
		p.Sequences = append(p.Sequences, &config.SequenceDecl{Label: lb.Label, Members: lb.Members})
	}
	for _, lb := range pb.Tasks {
		p.Tasks = append(p.Tasks, &config.TaskDecl{Label: lb.Label, Members: lb.Members})
	}
	for _, ob := range pb.Outputs {
		o, err := translateOutput(ob, owner)
		if err != nil {
			return nil, err
		}
		p.Outputs = append(p.Outputs, o)
	}
	for _, path := range pb.Paths {
		p.Paths = append(p.Paths, &config.PathDecl{Label: path.Label, Items: path.Sequence})
	}
	for _, path := range pb.EndPaths {
		p.Paths = append(p.Paths, &config.PathDecl{Label: path.Label, Items: path.Sequence, End: true})
	}
	if sb := pb.Schedule; sb != nil {
		p.Schedule = &config.ScheduleDecl{Entries: sb.Entries, Associate: sb.Associate}
	}
	for _, cb := range pb.Customise {
		args, diags := evalBodyAttributes(cb.Body, evalCtx)
		if err := diagsError(diags); err != nil {
			return nil, fmt.Errorf("customise %q: %w", cb.Name, err)
		}
		p.Customise = append(p.Customise, &config.CustomiseDecl{Name: cb.Name, Args: args})
	}
	return p, nil
}

func translateOutput(ob *outputBlock, owner string) (*config.OutputDecl, error) {
	where := fmt.Sprintf("%s, output %q", owner, ob.Label)
	if ob.EventContent != "" && len(ob.OutputCommands) > 0 {
		return nil, fmt.Errorf("%s: event_content and output_commands are mutually exclusive", where)
	}
	params, err := objectToParams(ob.Params, where)
	if err != nil {
		return nil, err
	}
	o := &config.OutputDecl{
		Label:                ob.Label,
		Plugin:               ob.Plugin,
		FileName:             ob.FileName,
		DataTier:             ob.DataTier,
		FilterName:           ob.FilterName,
		CompressionAlgorithm: ob.CompressionAlgorithm,
		EventContent:         ob.EventContent,
		OutputCommands:       ob.OutputCommands,
		SelectEvents:         ob.SelectEvents,
		Params:               params,
	}
	if ob.CompressionLevel != nil {
		o.CompressionLevel = *ob.CompressionLevel
	}
	return o, nil
}
