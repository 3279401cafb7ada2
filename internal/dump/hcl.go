package dump

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/specialistvlad/procgrid/internal/process"
	"github.com/zclconf/go-cty/cty"
)

func encodeHCL(snap process.Snapshot) []byte {
	f := hclwrite.NewEmptyFile()
	body := f.Body().AppendNewBlock("process", []string{snap.Name}).Body()

	if snap.Era != "" {
		body.SetAttributeValue("era", cty.StringVal(snap.Era))
	}
	body.SetAttributeValue("max_events", cty.NumberIntVal(snap.MaxEvents.Input))
	if out := snap.MaxEvents.Output; out != nil {
		body.SetAttributeValue("max_output_events", cty.NumberIntVal(*out))
	}

	if src := snap.Source; src.Plugin != "" {
		body.AppendNewline()
		b := body.AppendNewBlock("source", []string{src.Plugin}).Body()
		b.SetAttributeValue("file_names", stringList(src.FileNames))
		if len(src.SecondaryFileNames) > 0 {
			b.SetAttributeValue("secondary_file_names", stringList(src.SecondaryFileNames))
		}
		if len(src.Provides) > 0 {
			b.SetAttributeValue("provides", stringList(src.Provides))
		}
	}

	body.AppendNewline()
	writeOptions(body.AppendNewBlock("options", nil).Body(), snap.Options)

	if md := snap.Metadata; md != (process.Metadata{}) {
		body.AppendNewline()
		b := body.AppendNewBlock("metadata", nil).Body()
		b.SetAttributeValue("annotation", cty.StringVal(md.Annotation))
		b.SetAttributeValue("name", cty.StringVal(md.Name))
		b.SetAttributeValue("version", cty.StringVal(md.Version))
	}

	if c := snap.Conditions; c.Requested != "" || c.Resolved != "" {
		body.AppendNewline()
		b := body.AppendNewBlock("conditions", nil).Body()
		tag := c.Resolved
		if tag == "" {
			tag = c.Requested
		}
		b.SetAttributeValue("global_tag", cty.StringVal(tag))
		for _, r := range c.Records {
			rb := b.AppendNewBlock("record", []string{r.Record}).Body()
			rb.SetAttributeValue("tag", cty.StringVal(r.Tag))
			if r.Label != "" {
				rb.SetAttributeValue("label", cty.StringVal(r.Label))
			}
			if r.Connect != "" {
				rb.SetAttributeValue("connect", cty.StringVal(r.Connect))
			}
		}
	}

	for _, s := range snap.Stages {
		body.AppendNewline()
		b := body.AppendNewBlock("stage", []string{s.Label}).Body()
		b.SetAttributeValue("plugin", cty.StringVal(s.Plugin))
		if s.Type != "" && s.Type != s.Plugin {
			b.SetAttributeValue("type", cty.StringVal(s.Type))
		}
		if len(s.Params) > 0 {
			b.SetAttributeValue("params", toCty(s.Params))
		}
		if len(s.Consumes) > 0 {
			b.SetAttributeValue("consumes", stringList(s.Consumes))
		}
		if len(s.Produces) > 0 {
			b.SetAttributeValue("produces", stringList(s.Produces))
		}
	}

	for _, s := range snap.Sequences {
		body.AppendNewline()
		body.AppendNewBlock("sequence", []string{s.Label}).Body().SetAttributeValue("members", stringList(s.Items))
	}
	for _, t := range snap.Tasks {
		body.AppendNewline()
		body.AppendNewBlock("task", []string{t.Label}).Body().SetAttributeValue("members", stringList(t.Members))
	}

	for _, o := range snap.Outputs {
		body.AppendNewline()
		b := body.AppendNewBlock("output", []string{o.Label}).Body()
		b.SetAttributeValue("plugin", cty.StringVal(o.Plugin))
		b.SetAttributeValue("file_name", cty.StringVal(o.FileName))
		b.SetAttributeValue("data_tier", cty.StringVal(o.DataTier))
		if o.FilterName != "" {
			b.SetAttributeValue("filter_name", cty.StringVal(o.FilterName))
		}
		if o.CompressionAlgorithm != "" {
			b.SetAttributeValue("compression_algorithm", cty.StringVal(o.CompressionAlgorithm))
		}
		b.SetAttributeValue("compression_level", cty.NumberIntVal(int64(o.CompressionLevel)))
		// Event contents are already flattened into the commands.
		b.SetAttributeValue("output_commands", stringList(o.OutputCommands))
		if len(o.SelectEvents) > 0 {
			b.SetAttributeValue("select_events", stringList(o.SelectEvents))
		}
		if len(o.Params) > 0 {
			b.SetAttributeValue("params", toCty(o.Params))
		}
	}

	for _, p := range snap.Paths {
		body.AppendNewline()
		kind := "path"
		if p.End {
			kind = "end_path"
		}
		body.AppendNewBlock(kind, []string{p.Label}).Body().SetAttributeValue("sequence", stringList(p.Items))
	}

	body.AppendNewline()
	b := body.AppendNewBlock("schedule", nil).Body()
	b.SetAttributeValue("entries", stringList(snap.Schedule))
	if len(snap.Associated) > 0 {
		b.SetAttributeValue("associate", stringList(snap.Associated))
	}

	return hclwrite.Format(f.Bytes())
}

func writeOptions(b *hclwrite.Body, o process.Options) {
	b.SetAttributeValue("number_of_threads", cty.NumberUIntVal(uint64(o.NumberOfThreads)))
	b.SetAttributeValue("number_of_streams", cty.NumberUIntVal(uint64(o.NumberOfStreams)))
	b.SetAttributeValue("number_of_concurrent_luminosity_blocks", cty.NumberUIntVal(uint64(o.NumberOfConcurrentLuminosityBlocks)))
	b.SetAttributeValue("number_of_concurrent_runs", cty.NumberUIntVal(uint64(o.NumberOfConcurrentRuns)))
	b.SetAttributeValue("file_mode", cty.StringVal(o.FileMode))
	if o.SizeOfStackForThreadsInKB != nil {
		b.SetAttributeValue("size_of_stack_for_threads_in_kb", cty.NumberUIntVal(uint64(*o.SizeOfStackForThreadsInKB)))
	}
	b.SetAttributeValue("want_summary", cty.BoolVal(o.WantSummary))
	b.SetAttributeValue("accelerators", stringList(o.Accelerators))
	b.SetAttributeValue("can_delete_early", stringList(o.CanDeleteEarly))
	b.SetAttributeValue("delete_non_consumed_unscheduled_modules", cty.BoolVal(o.DeleteNonConsumedUnscheduledModules))
	b.SetAttributeValue("throw_if_illegal_parameter", cty.BoolVal(o.ThrowIfIllegalParameter))
	b.SetAttributeValue("dump_options", cty.BoolVal(o.DumpOptions))
	b.SetAttributeValue("print_dependencies", cty.BoolVal(o.PrintDependencies))
}

func stringList(values []string) cty.Value {
	if len(values) == 0 {
		return cty.ListValEmpty(cty.String)
	}
	out := make([]cty.Value, len(values))
	for i, v := range values {
		out[i] = cty.StringVal(v)
	}
	return cty.ListVal(out)
}

// toCty converts the plain values produced by process.PlainValue back into
// cty values.
func toCty(v any) cty.Value {
	switch t := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType)
	case string:
		return cty.StringVal(t)
	case bool:
		return cty.BoolVal(t)
	case int64:
		return cty.NumberIntVal(t)
	case float64:
		return cty.NumberFloatVal(t)
	case []any:
		if len(t) == 0 {
			return cty.EmptyTupleVal
		}
		out := make([]cty.Value, len(t))
		for i, e := range t {
			out[i] = toCty(e)
		}
		return cty.TupleVal(out)
	case map[string]any:
		if len(t) == 0 {
			return cty.EmptyObjectVal
		}
		out := make(map[string]cty.Value, len(t))
		for k, e := range t {
			out[k] = toCty(e)
		}
		return cty.ObjectVal(out)
	default:
		return cty.StringVal(fmt.Sprint(t))
	}
}
