package hcl

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// fileRoot is used to decode all possible top-level blocks from any file.
// Unknown blocks are reported as errors.
type fileRoot struct {
	Fragments []*fragmentBlock `hcl:"fragment,block"`
	Processes []*processBlock  `hcl:"process,block"`
}

// --- Fragment Structures ---

type fragmentBlock struct {
	Name              string                `hcl:"name,label"`
	Stages            []*stageBlock         `hcl:"stage,block"`
	Sequences         []*listBlock          `hcl:"sequence,block"`
	Tasks             []*listBlock          `hcl:"task,block"`
	EventContents     []*eventContentBlock  `hcl:"event_content,block"`
	Eras              []*eraBlock           `hcl:"era,block"`
	ConditionsAliases []*aliasBlock         `hcl:"conditions_alias,block"`
	Customisations    []*customisationBlock `hcl:"customisation,block"`
}

// stageBlock is a `stage` block. It may appear in fragments and in the
// process block.
type stageBlock struct {
	Label    string           `hcl:"label,label"`
	Plugin   string           `hcl:"plugin"`
	Type     string           `hcl:"type,optional"`
	Params   cty.Value        `hcl:"params,optional"`
	Consumes []string         `hcl:"consumes,optional"`
	Produces []string         `hcl:"produces,optional"`
	Eras     []*stageEraBlock `hcl:"era,block"`
}

// stageEraBlock holds parameter overrides for one era modifier.
type stageEraBlock struct {
	Modifier string    `hcl:"modifier,label"`
	Params   cty.Value `hcl:"params"`
}

// listBlock is a `sequence` or `task` block.
type listBlock struct {
	Label   string   `hcl:"label,label"`
	Members []string `hcl:"members"`
}

type eventContentBlock struct {
	Name           string   `hcl:"name,label"`
	Extends        []string `hcl:"extends,optional"`
	OutputCommands []string `hcl:"output_commands,optional"`
}

type eraBlock struct {
	Name      string   `hcl:"name,label"`
	Modifiers []string `hcl:"modifiers"`
}

type aliasBlock struct {
	Alias string `hcl:"alias,label"`
	Tag   string `hcl:"tag"`
}

type customisationBlock struct {
	Name    string        `hcl:"name,label"`
	Applies []*applyBlock `hcl:"apply,block"`
}

// applyBlock arguments are free-form; they are evaluated as attributes.
type applyBlock struct {
	Primitive string   `hcl:"primitive,label"`
	Body      hcl.Body `hcl:",remain"`
}

// --- Process Structures ---

type processBlock struct {
	Name            string            `hcl:"name,label"`
	Era             string            `hcl:"era,optional"`
	Load            []string          `hcl:"load,optional"`
	MaxEvents       *int64            `hcl:"max_events,optional"`
	MaxOutputEvents *int64            `hcl:"max_output_events,optional"`
	Source          *sourceBlock      `hcl:"source,block"`
	Options         *optionsBlock     `hcl:"options,block"`
	Metadata        *metadataBlock    `hcl:"metadata,block"`
	Conditions      *conditionsBlock  `hcl:"conditions,block"`
	Replaces        []*replaceBlock   `hcl:"process_name_replace,block"`
	Stages          []*stageBlock     `hcl:"stage,block"`
	Sequences       []*listBlock      `hcl:"sequence,block"`
	Tasks           []*listBlock      `hcl:"task,block"`
	Outputs         []*outputBlock    `hcl:"output,block"`
	Paths           []*pathBlock      `hcl:"path,block"`
	EndPaths        []*pathBlock      `hcl:"end_path,block"`
	Schedule        *scheduleBlock    `hcl:"schedule,block"`
	Customise       []*customiseBlock `hcl:"customise,block"`
}

type sourceBlock struct {
	Plugin             string   `hcl:"plugin,label"`
	FileNames          []string `hcl:"file_names,optional"`
	SecondaryFileNames []string `hcl:"secondary_file_names,optional"`
	Provides           []string `hcl:"provides,optional"`
}

type optionsBlock struct {
	NumberOfThreads                     *uint32  `hcl:"number_of_threads,optional"`
	NumberOfStreams                     *uint32  `hcl:"number_of_streams,optional"`
	NumberOfConcurrentLuminosityBlocks  *uint32  `hcl:"number_of_concurrent_luminosity_blocks,optional"`
	NumberOfConcurrentRuns              *uint32  `hcl:"number_of_concurrent_runs,optional"`
	FileMode                            *string  `hcl:"file_mode,optional"`
	SizeOfStackForThreadsInKB           *uint32  `hcl:"size_of_stack_for_threads_in_kb,optional"`
	WantSummary                         *bool    `hcl:"want_summary,optional"`
	Accelerators                        []string `hcl:"accelerators,optional"`
	CanDeleteEarly                      []string `hcl:"can_delete_early,optional"`
	DeleteNonConsumedUnscheduledModules *bool    `hcl:"delete_non_consumed_unscheduled_modules,optional"`
	ThrowIfIllegalParameter             *bool    `hcl:"throw_if_illegal_parameter,optional"`
	DumpOptions                         *bool    `hcl:"dump_options,optional"`
	PrintDependencies                   *bool    `hcl:"print_dependencies,optional"`
}

type metadataBlock struct {
	Annotation string `hcl:"annotation,optional"`
	Name       string `hcl:"name,optional"`
	Version    string `hcl:"version,optional"`
}

type conditionsBlock struct {
	GlobalTag string         `hcl:"global_tag"`
	Records   []*recordBlock `hcl:"record,block"`
}

type recordBlock struct {
	Record  string `hcl:"record,label"`
	Tag     string `hcl:"tag"`
	Label   string `hcl:"label,optional"`
	Connect string `hcl:"connect,optional"`
}

type replaceBlock struct {
	From      string   `hcl:"from"`
	To        string   `hcl:"to"`
	Sequences []string `hcl:"sequences"`
	Whitelist []string `hcl:"whitelist,optional"`
}

type outputBlock struct {
	Label                string    `hcl:"label,label"`
	Plugin               string    `hcl:"plugin"`
	FileName             string    `hcl:"file_name"`
	DataTier             string    `hcl:"data_tier"`
	FilterName           string    `hcl:"filter_name,optional"`
	CompressionAlgorithm string    `hcl:"compression_algorithm,optional"`
	CompressionLevel     *int      `hcl:"compression_level,optional"`
	EventContent         string    `hcl:"event_content,optional"`
	OutputCommands       []string  `hcl:"output_commands,optional"`
	SelectEvents         []string  `hcl:"select_events,optional"`
	Params               cty.Value `hcl:"params,optional"`
}

type pathBlock struct {
	Label    string   `hcl:"label,label"`
	Sequence []string `hcl:"sequence"`
}

type scheduleBlock struct {
	Entries   []string `hcl:"entries"`
	Associate []string `hcl:"associate,optional"`
}

// customiseBlock arguments are free-form; they are evaluated as attributes.
type customiseBlock struct {
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}
