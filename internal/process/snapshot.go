// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file produces a plain-Go view of a Process for serialisation and
// comparison.
package process

// Snapshot is a plain-Go, deterministic view of a process. Parameter values
// are converted with PlainValue.
type Snapshot struct {
	Name       string             `json:"name" yaml:"name"`
	Era        string             `json:"era,omitempty" yaml:"era,omitempty"`
	Frozen     bool               `json:"frozen" yaml:"frozen"`
	Metadata   Metadata           `json:"metadata" yaml:"metadata"`
	Source     Source             `json:"source" yaml:"source"`
	MaxEvents  MaxEvents          `json:"max_events" yaml:"max_events"`
	Options    Options            `json:"options" yaml:"options"`
	Conditions Conditions         `json:"conditions" yaml:"conditions"`
	Stages     []StageSnapshot    `json:"stages" yaml:"stages"`
	Sequences  []SequenceSnapshot `json:"sequences" yaml:"sequences"`
	Tasks      []TaskSnapshot     `json:"tasks" yaml:"tasks"`
	Outputs    []OutputSnapshot   `json:"outputs" yaml:"outputs"`
	Paths      []PathSnapshot     `json:"paths" yaml:"paths"`
	Schedule   []string           `json:"schedule" yaml:"schedule"`
	Associated []string           `json:"associated" yaml:"associated"`
}

// StageSnapshot is the plain view of a Stage.
type StageSnapshot struct {
	Label    string         `json:"label" yaml:"label"`
	Type     string         `json:"type" yaml:"type"`
	Plugin   string         `json:"plugin" yaml:"plugin"`
	Kind     Kind           `json:"kind" yaml:"kind"`
	Params   map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
	Consumes []string       `json:"consumes,omitempty" yaml:"consumes,omitempty"`
	Produces []string       `json:"produces,omitempty" yaml:"produces,omitempty"`
}

// SequenceSnapshot is the plain view of a Sequence.
type SequenceSnapshot struct {
	Label string   `json:"label" yaml:"label"`
	Items []string `json:"items" yaml:"items"`
}

// TaskSnapshot is the plain view of a Task.
type TaskSnapshot struct {
	Label   string   `json:"label" yaml:"label"`
	Members []string `json:"members" yaml:"members"`
}

// PathSnapshot is the plain view of a Path or EndPath.
type PathSnapshot struct {
	Label string   `json:"label" yaml:"label"`
	End   bool     `json:"end" yaml:"end"`
	Items []string `json:"items" yaml:"items"`
}

// OutputSnapshot is the plain view of an OutputModule.
type OutputSnapshot struct {
	Label                string         `json:"label" yaml:"label"`
	Plugin               string         `json:"plugin" yaml:"plugin"`
	FileName             string         `json:"file_name" yaml:"file_name"`
	DataTier             string         `json:"data_tier" yaml:"data_tier"`
	FilterName           string         `json:"filter_name,omitempty" yaml:"filter_name,omitempty"`
	CompressionAlgorithm string         `json:"compression_algorithm,omitempty" yaml:"compression_algorithm,omitempty"`
	CompressionLevel     int            `json:"compression_level" yaml:"compression_level"`
	EventContent         string         `json:"event_content,omitempty" yaml:"event_content,omitempty"`
	OutputCommands       []string       `json:"output_commands" yaml:"output_commands"`
	SelectEvents         []string       `json:"select_events,omitempty" yaml:"select_events,omitempty"`
	Params               map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// Snapshot returns the plain view of the process.
func (p *Process) Snapshot() Snapshot {
	snap := Snapshot{
		Name:       p.name,
		Era:        p.era,
		Frozen:     p.frozen,
		Metadata:   p.metadata,
		Source:     p.Source(),
		MaxEvents:  p.MaxEvents(),
		Options:    p.Options(),
		Conditions: p.Conditions(),
		Stages:     make([]StageSnapshot, 0, len(p.stages)),
		Sequences:  make([]SequenceSnapshot, 0, len(p.sequences)),
		Tasks:      make([]TaskSnapshot, 0, len(p.tasks)),
		Outputs:    make([]OutputSnapshot, 0, len(p.outputs)),
		Paths:      make([]PathSnapshot, 0, len(p.paths)),
		Schedule:   []string{},
		Associated: []string{},
	}

	for _, label := range p.Stages() {
		s := p.stages[label]
		ss := StageSnapshot{Label: s.Label, Type: s.Type, Plugin: s.Plugin, Kind: s.Kind}
		if len(s.Params) > 0 {
			ss.Params = PlainParams(s.Params)
		}
		for _, tag := range s.Consumes {
			ss.Consumes = append(ss.Consumes, tag.String())
		}
		for _, d := range s.Produces {
			ss.Produces = append(ss.Produces, d.String())
		}
		snap.Stages = append(snap.Stages, ss)
	}
	for _, label := range p.Sequences() {
		snap.Sequences = append(snap.Sequences, SequenceSnapshot{Label: label, Items: itemStrings(p.sequences[label].Items)})
	}
	for _, label := range p.Tasks() {
		snap.Tasks = append(snap.Tasks, TaskSnapshot{Label: label, Members: append([]string{}, p.tasks[label].Members...)})
	}
	for _, label := range p.Outputs() {
		o := p.outputs[label]
		os := OutputSnapshot{
			Label:                o.Label,
			Plugin:               o.Plugin,
			FileName:             o.FileName,
			DataTier:             o.DataTier,
			FilterName:           o.FilterName,
			CompressionAlgorithm: o.CompressionAlgorithm,
			CompressionLevel:     o.CompressionLevel,
			EventContent:         o.EventContent,
			OutputCommands:       append([]string{}, o.OutputCommands...),
			SelectEvents:         append([]string(nil), o.SelectEvents...),
		}
		if len(o.Params) > 0 {
			os.Params = PlainParams(o.Params)
		}
		snap.Outputs = append(snap.Outputs, os)
	}
	for _, label := range p.pathOrder {
		path := p.paths[label]
		snap.Paths = append(snap.Paths, PathSnapshot{Label: label, End: path.End, Items: itemStrings(path.Items)})
	}
	if p.schedule != nil {
		snap.Schedule = append(snap.Schedule, p.schedule.Entries...)
		snap.Associated = append(snap.Associated, p.schedule.Associated...)
	}
	return snap
}
