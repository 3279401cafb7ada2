// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the Stage and the containers that group stages.
//
// Why keep parameters as cty values?
//
// Stage parameters are heterogeneous: numbers, strings, input tags, lists and
// nested parameter sets. go-cty gives us immutable, typed values with a
// structural walker, which is exactly what customisations such as the
// process-name replacement need. Copying a Stage never needs to deep-copy a
// parameter value.
package process

import (
	"slices"

	"github.com/specialistvlad/procgrid/internal/inputtag"
	"github.com/zclconf/go-cty/cty"
)

// Kind classifies what a stage does for an event.
type Kind string

const (
	KindProducer Kind = "producer"
	KindFilter   Kind = "filter"
	KindAnalyzer Kind = "analyzer"
)

// Valid reports whether k is a known stage kind.
func (k Kind) Valid() bool {
	switch k {
	case KindProducer, KindFilter, KindAnalyzer:
		return true
	}
	return false
}

// Stage is a configured instance of a plugin.
type Stage struct {
	Label string
	// Type is the framework type name. It is informational only.
	Type     string
	Plugin   string
	Kind     Kind
	Params   map[string]cty.Value
	Consumes []inputtag.Tag
	Produces []inputtag.Declaration
}

// Clone returns a copy of the stage that shares no mutable state.
func (s *Stage) Clone() *Stage {
	c := *s
	c.Params = make(map[string]cty.Value, len(s.Params))
	for k, v := range s.Params {
		c.Params[k] = v
	}
	c.Consumes = slices.Clone(s.Consumes)
	c.Produces = slices.Clone(s.Produces)
	return &c
}

// Products returns the products the stage puts into the event for the given
// process name.
func (s *Stage) Products(process string) []inputtag.Product {
	out := make([]inputtag.Product, 0, len(s.Produces))
	for _, d := range s.Produces {
		out = append(out, d.Product(s.Label, process))
	}
	return out
}

// Sequence is a named, ordered list of items.
type Sequence struct {
	Label string
	Items []Item
}

func (s *Sequence) clone() *Sequence {
	return &Sequence{Label: s.Label, Items: slices.Clone(s.Items)}
}

// Task is a named, unordered set of stages and tasks used for on-demand
// execution.
type Task struct {
	Label   string
	Members []string
}

func (t *Task) clone() *Task {
	return &Task{Label: t.Label, Members: slices.Clone(t.Members)}
}

// Path is an ordered list of items placed on the schedule. End marks an
// EndPath.
type Path struct {
	Label string
	Items []Item
	End   bool
}

func (p *Path) clone() *Path {
	return &Path{Label: p.Label, Items: slices.Clone(p.Items), End: p.End}
}

// Schedule is the ordered list of Path and EndPath labels plus the tasks
// associated for on-demand execution.
type Schedule struct {
	Entries    []string
	Associated []string
}

func (s *Schedule) clone() *Schedule {
	if s == nil {
		return nil
	}
	return &Schedule{Entries: slices.Clone(s.Entries), Associated: slices.Clone(s.Associated)}
}
