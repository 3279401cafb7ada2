package config

import (
	"github.com/zclconf/go-cty/cty"
)

// Model is the unified, format-agnostic representation of everything read
// from the configuration files: reusable fragments and at most one process.
type Model struct {
	Fragments []*Fragment
	Process   *ProcessDecl
}

// Fragment is a named, reusable bundle of stage definitions, the analogue of
// an imported configuration module.
type Fragment struct {
	Name              string
	SourceFile        string
	Stages            []*StageDecl
	Sequences         []*SequenceDecl
	Tasks             []*TaskDecl
	EventContents     []*EventContentDecl
	Eras              []*EraDecl
	ConditionsAliases []*ConditionsAliasDecl
	Customisations    []*CustomisationDecl
}

// StageDecl is the format-agnostic representation of a `stage` block.
type StageDecl struct {
	Label    string
	Plugin   string
	Type     string
	Params   map[string]cty.Value
	Consumes []string
	Produces []string
	// EraOverrides are parameter overrides applied when the process era
	// enables the named modifier.
	EraOverrides []*EraOverride
}

// EraOverride holds the parameters an era modifier changes on a stage.
type EraOverride struct {
	Modifier string
	Params   map[string]cty.Value
}

// SequenceDecl is the format-agnostic representation of a `sequence` block.
type SequenceDecl struct {
	Label   string
	Members []string
}

// TaskDecl is the format-agnostic representation of a `task` block.
type TaskDecl struct {
	Label   string
	Members []string
}

// EventContentDecl is a named list of output commands that output modules
// can copy. The commands of every content in Extends come first.
type EventContentDecl struct {
	Name           string
	Extends        []string
	OutputCommands []string
}

// EraDecl maps an era name to the modifiers it enables.
type EraDecl struct {
	Name      string
	Modifiers []string
}

// ConditionsAliasDecl maps a symbolic conditions alias to a concrete tag.
type ConditionsAliasDecl struct {
	Alias string
	Tag   string
}

// CustomisationDecl is a named composite customisation: an ordered list of
// primitive applications.
type CustomisationDecl struct {
	Name  string
	Steps []*ApplyDecl
}

// ApplyDecl applies a customisation primitive with arguments.
type ApplyDecl struct {
	Primitive string
	Args      map[string]cty.Value
}

// ProcessDecl is the format-agnostic representation of the `process` block.
type ProcessDecl struct {
	Name       string
	SourceFile string
	Era        string
	Load       []string
	MaxEvents  *MaxEventsDecl
	Source     *SourceDecl
	Options    *OptionsDecl
	Metadata   *MetadataDecl
	Conditions *ConditionsDecl
	// ProcessNameReplace lists visitors run during I/O instantiation.
	ProcessNameReplace []*ProcessNameReplaceDecl
	Stages             []*StageDecl
	Sequences          []*SequenceDecl
	Tasks              []*TaskDecl
	Outputs            []*OutputDecl
	Paths              []*PathDecl
	Schedule           *ScheduleDecl
	// Customise lists customisation invocations in declaration order.
	Customise []*CustomiseDecl
}

// MaxEventsDecl bounds input and output events.
type MaxEventsDecl struct {
	Input  int64
	Output *int64
}

// SourceDecl describes the event source.
type SourceDecl struct {
	Plugin             string
	FileNames          []string
	SecondaryFileNames []string
	Provides           []string
}

// OptionsDecl holds the options set in configuration. Nil fields keep their
// defaults.
type OptionsDecl struct {
	NumberOfThreads                     *uint32
	NumberOfStreams                     *uint32
	NumberOfConcurrentLuminosityBlocks  *uint32
	NumberOfConcurrentRuns              *uint32
	FileMode                            *string
	SizeOfStackForThreadsInKB           *uint32
	WantSummary                         *bool
	Accelerators                        []string
	CanDeleteEarly                      []string
	DeleteNonConsumedUnscheduledModules *bool
	ThrowIfIllegalParameter             *bool
	DumpOptions                         *bool
	PrintDependencies                   *bool
}

// MetadataDecl annotates the configuration.
type MetadataDecl struct {
	Annotation string
	Name       string
	Version    string
}

// ConditionsDecl requests a global tag and optional record overrides.
type ConditionsDecl struct {
	GlobalTag string
	Records   []*RecordDecl
}

// RecordDecl overrides the tag of a single conditions record.
type RecordDecl struct {
	Record  string
	Tag     string
	Label   string
	Connect string
}

// ProcessNameReplaceDecl rewrites input tags that point at process From so
// they point at process To, for every stage in Sequences.
type ProcessNameReplaceDecl struct {
	From      string
	To        string
	Sequences []string
	Whitelist []string
}

// OutputDecl is the format-agnostic representation of an `output` block.
type OutputDecl struct {
	Label                string
	Plugin               string
	FileName             string
	DataTier             string
	FilterName           string
	CompressionAlgorithm string
	CompressionLevel     int
	// EventContent names an event_content whose commands are copied. It is
	// mutually exclusive with OutputCommands.
	EventContent   string
	OutputCommands []string
	SelectEvents   []string
	Params         map[string]cty.Value
}

// PathDecl is the format-agnostic representation of a `path` or `end_path`
// block.
type PathDecl struct {
	Label string
	Items []string
	End   bool
}

// ScheduleDecl lists the scheduled paths in order and the associated tasks.
type ScheduleDecl struct {
	Entries   []string
	Associate []string
}

// CustomiseDecl invokes a customisation primitive or composite by name.
type CustomiseDecl struct {
	Name string
	Args map[string]cty.Value
}
