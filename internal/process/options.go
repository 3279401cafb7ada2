// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the process-wide settings: options, event limits, the
// source, configuration metadata and conditions.
package process

import "slices"

// File modes.
const (
	FileModeFullMerge = "FULLMERGE"
	FileModeNoMerge   = "NOMERGE"
)

// Options holds the process-wide scheduling and bookkeeping settings.
type Options struct {
	NumberOfThreads                     uint32   `json:"number_of_threads" yaml:"number_of_threads" validate:"gte=1"`
	NumberOfStreams                     uint32   `json:"number_of_streams" yaml:"number_of_streams"`
	NumberOfConcurrentLuminosityBlocks  uint32   `json:"number_of_concurrent_luminosity_blocks" yaml:"number_of_concurrent_luminosity_blocks"`
	NumberOfConcurrentRuns              uint32   `json:"number_of_concurrent_runs" yaml:"number_of_concurrent_runs" validate:"gte=1"`
	FileMode                            string   `json:"file_mode" yaml:"file_mode" validate:"oneof=FULLMERGE NOMERGE"`
	SizeOfStackForThreadsInKB           *uint32  `json:"size_of_stack_for_threads_in_kb,omitempty" yaml:"size_of_stack_for_threads_in_kb,omitempty" validate:"omitempty,gte=1"`
	WantSummary                         bool     `json:"want_summary" yaml:"want_summary"`
	Accelerators                        []string `json:"accelerators" yaml:"accelerators" validate:"min=1,dive,required"`
	CanDeleteEarly                      []string `json:"can_delete_early" yaml:"can_delete_early"`
	DeleteNonConsumedUnscheduledModules bool     `json:"delete_non_consumed_unscheduled_modules" yaml:"delete_non_consumed_unscheduled_modules"`
	ThrowIfIllegalParameter             bool     `json:"throw_if_illegal_parameter" yaml:"throw_if_illegal_parameter"`
	DumpOptions                         bool     `json:"dump_options" yaml:"dump_options"`
	PrintDependencies                   bool     `json:"print_dependencies" yaml:"print_dependencies"`
}

// DefaultOptions returns the framework defaults.
func DefaultOptions() Options {
	return Options{
		NumberOfThreads:                     1,
		NumberOfStreams:                     0,
		NumberOfConcurrentLuminosityBlocks:  0,
		NumberOfConcurrentRuns:              1,
		FileMode:                            FileModeFullMerge,
		Accelerators:                        []string{"*"},
		CanDeleteEarly:                      []string{},
		DeleteNonConsumedUnscheduledModules: true,
		ThrowIfIllegalParameter:             true,
	}
}

func (o Options) clone() Options {
	c := o
	if o.SizeOfStackForThreadsInKB != nil {
		v := *o.SizeOfStackForThreadsInKB
		c.SizeOfStackForThreadsInKB = &v
	}
	c.Accelerators = slices.Clone(o.Accelerators)
	c.CanDeleteEarly = slices.Clone(o.CanDeleteEarly)
	return c
}

// Streams returns the effective number of streams. Zero streams means one
// stream per thread.
func (o Options) Streams() int {
	if o.NumberOfStreams == 0 {
		return int(o.NumberOfThreads)
	}
	return int(o.NumberOfStreams)
}

// MaxEvents bounds the number of events read and written. Input -1 means
// every event the source provides.
type MaxEvents struct {
	Input  int64  `json:"input" yaml:"input" validate:"gte=-1"`
	Output *int64 `json:"output,omitempty" yaml:"output,omitempty" validate:"omitempty,gte=-1"`
}

// Source describes where events come from.
type Source struct {
	Plugin             string   `json:"plugin" yaml:"plugin"`
	FileNames          []string `json:"file_names" yaml:"file_names"`
	SecondaryFileNames []string `json:"secondary_file_names" yaml:"secondary_file_names"`
	// Provides lists branch names of the products present in every input
	// event.
	Provides []string `json:"provides" yaml:"provides"`
}

func (s Source) clone() Source {
	return Source{
		Plugin:             s.Plugin,
		FileNames:          slices.Clone(s.FileNames),
		SecondaryFileNames: slices.Clone(s.SecondaryFileNames),
		Provides:           slices.Clone(s.Provides),
	}
}

// Metadata annotates the configuration.
type Metadata struct {
	Annotation string `json:"annotation" yaml:"annotation"`
	Name       string `json:"name" yaml:"name"`
	Version    string `json:"version" yaml:"version"`
	BuildID    string `json:"build_id" yaml:"build_id"`
}

// Record overrides the conditions tag of a single record.
type Record struct {
	Record  string `json:"record" yaml:"record"`
	Tag     string `json:"tag" yaml:"tag"`
	Label   string `json:"label,omitempty" yaml:"label,omitempty"`
	Connect string `json:"connect,omitempty" yaml:"connect,omitempty"`
}

// Conditions holds the requested and resolved global tag.
type Conditions struct {
	Requested string   `json:"requested" yaml:"requested"`
	Resolved  string   `json:"resolved" yaml:"resolved"`
	Records   []Record `json:"records,omitempty" yaml:"records,omitempty"`
}

func (c Conditions) clone() Conditions {
	c.Records = slices.Clone(c.Records)
	return c
}
