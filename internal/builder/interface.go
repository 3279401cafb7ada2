package builder

import (
	"context"

	"github.com/specialistvlad/procgrid/internal/process"
)

// Phase identifies a step of the assembly. Phases run in declaration order.
type Phase int

const (
	PhaseNew Phase = iota
	PhaseLoadStages
	PhaseInstantiateIO
	PhaseBuildPaths
	PhaseAssembleSchedule
	PhaseAssociateTasks
	PhaseCustomise
	PhaseFreeze
)

var phaseNames = [...]string{
	PhaseNew:              "new",
	PhaseLoadStages:       "load_stages",
	PhaseInstantiateIO:    "instantiate_io",
	PhaseBuildPaths:       "build_paths",
	PhaseAssembleSchedule: "assemble_schedule",
	PhaseAssociateTasks:   "associate_tasks",
	PhaseCustomise:        "customise",
	PhaseFreeze:           "freeze",
}

// String returns the snake_case phase name used in span names and errors.
func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// Builder produces a frozen process. Assembler is the implementation used by
// the application; tests may substitute their own.
type Builder interface {
	Build(ctx context.Context) (*process.Process, error)
}

var _ Builder = (*Assembler)(nil)

// Overrides replace values from the process declaration. They come from the
// command line or the environment. Nil and empty fields keep the declared
// value.
type Overrides struct {
	MaxEvents                 *int64
	NumberOfThreads           *uint32
	NumberOfStreams           *uint32
	FileMode                  *string
	SizeOfStackForThreadsInKB *uint32
	FileNames                 []string
	GlobalTag                 string
}
