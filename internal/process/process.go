// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the Process, the root container of an assembled
// configuration, together with its mutators and lookups.
package process

import (
	"sort"

	"github.com/specialistvlad/procgrid/internal/errs"
)

// ObjectKind names the kind of object a label refers to.
type ObjectKind string

const (
	ObjectStage    ObjectKind = "stage"
	ObjectSequence ObjectKind = "sequence"
	ObjectTask     ObjectKind = "task"
	ObjectPath     ObjectKind = "path"
	ObjectEndPath  ObjectKind = "end_path"
	ObjectOutput   ObjectKind = "output"
)

// Process is the assembled configuration. It is mutable until Freeze is
// called. A Process is not safe for concurrent mutation; once frozen it may
// be read from multiple goroutines.
type Process struct {
	name string
	era  string

	// labels is the single namespace shared by every named object.
	labels    map[string]ObjectKind
	stages    map[string]*Stage
	sequences map[string]*Sequence
	tasks     map[string]*Task
	outputs   map[string]*OutputModule
	paths     map[string]*Path
	// pathOrder keeps paths and end-paths in declaration order.
	pathOrder []string

	schedule   *Schedule
	options    Options
	maxEvents  MaxEvents
	source     Source
	metadata   Metadata
	conditions Conditions

	frozen bool
}

// New creates an empty process with default options and no event limit.
func New(name, era string) *Process {
	return &Process{
		name:      name,
		era:       era,
		labels:    make(map[string]ObjectKind),
		stages:    make(map[string]*Stage),
		sequences: make(map[string]*Sequence),
		tasks:     make(map[string]*Task),
		outputs:   make(map[string]*OutputModule),
		paths:     make(map[string]*Path),
		options:   DefaultOptions(),
		maxEvents: MaxEvents{Input: -1},
	}
}

// Name returns the process name.
func (p *Process) Name() string { return p.name }

// Era returns the era the process was built for.
func (p *Process) Era() string { return p.era }

// Frozen reports whether the process has been frozen.
func (p *Process) Frozen() bool { return p.frozen }

// Freeze makes the process immutable. Freezing twice is a no-op.
func (p *Process) Freeze() {
	p.frozen = true
}

func (p *Process) mutable(op string) error {
	if p.frozen {
		return errs.Frozen(op)
	}
	return nil
}

func (p *Process) claim(label string, kind ObjectKind) error {
	if label == "" {
		return errs.Invalid("%s label cannot be empty", kind)
	}
	if existing, ok := p.labels[label]; ok {
		return errs.Duplicate(string(kind), label).WithDetail("existing", string(existing))
	}
	p.labels[label] = kind
	return nil
}

// AddStage adds a stage to the process.
func (p *Process) AddStage(s *Stage) error {
	if err := p.mutable("add stage"); err != nil {
		return err
	}
	if !s.Kind.Valid() {
		return errs.Invalid("stage %q has unknown kind %q", s.Label, s.Kind)
	}
	if err := p.claim(s.Label, ObjectStage); err != nil {
		return err
	}
	p.stages[s.Label] = s.Clone()
	return nil
}

// ReplaceStage swaps an existing stage for a new definition with the same
// label.
func (p *Process) ReplaceStage(s *Stage) error {
	if err := p.mutable("replace stage"); err != nil {
		return err
	}
	if _, ok := p.stages[s.Label]; !ok {
		return errs.Unresolved(string(ObjectStage), s.Label, "")
	}
	if !s.Kind.Valid() {
		return errs.Invalid("stage %q has unknown kind %q", s.Label, s.Kind)
	}
	p.stages[s.Label] = s.Clone()
	return nil
}

// AddSequence adds a sequence. Members are resolved by Validate, so
// sequences may be added before the stages they reference.
func (p *Process) AddSequence(label string, items []Item) error {
	if err := p.mutable("add sequence"); err != nil {
		return err
	}
	if err := p.claim(label, ObjectSequence); err != nil {
		return err
	}
	p.sequences[label] = (&Sequence{Label: label, Items: items}).clone()
	return nil
}

// AddTask adds a task.
func (p *Process) AddTask(label string, members []string) error {
	if err := p.mutable("add task"); err != nil {
		return err
	}
	if err := p.claim(label, ObjectTask); err != nil {
		return err
	}
	p.tasks[label] = (&Task{Label: label, Members: members}).clone()
	return nil
}

// AddOutput adds an output module.
func (p *Process) AddOutput(o *OutputModule) error {
	if err := p.mutable("add output"); err != nil {
		return err
	}
	if err := p.claim(o.Label, ObjectOutput); err != nil {
		return err
	}
	p.outputs[o.Label] = o.Clone()
	return nil
}

// AddPath adds a Path. Every item must already be defined.
func (p *Process) AddPath(label string, items []Item) error {
	return p.addPath(label, items, false)
}

// AddEndPath adds an EndPath. Every item must already be defined.
func (p *Process) AddEndPath(label string, items []Item) error {
	return p.addPath(label, items, true)
}

func (p *Process) addPath(label string, items []Item, end bool) error {
	kind := ObjectPath
	if end {
		kind = ObjectEndPath
	}
	if err := p.mutable("add " + string(kind)); err != nil {
		return err
	}
	referrer := string(kind) + " " + quote(label)
	for _, item := range items {
		k, ok := p.labels[item.Label]
		if !ok {
			return errs.Unresolved("stage", item.Label, referrer)
		}
		switch k {
		case ObjectStage, ObjectSequence:
		case ObjectOutput:
			if !end {
				return errs.Invalid("output module %q may only appear in an end_path, found in path %q", item.Label, label)
			}
		default:
			return errs.Invalid("%s %q cannot be used as an item of %s", k, item.Label, referrer)
		}
	}
	if err := p.claim(label, kind); err != nil {
		return err
	}
	p.paths[label] = (&Path{Label: label, Items: items, End: end}).clone()
	p.pathOrder = append(p.pathOrder, label)
	return nil
}

// SetSchedule replaces the schedule entries. Each entry must be a defined
// Path or EndPath and may appear at most once. Associated tasks are kept.
func (p *Process) SetSchedule(entries []string) error {
	if err := p.mutable("set schedule"); err != nil {
		return err
	}
	if err := p.checkScheduleEntries(entries); err != nil {
		return err
	}
	var associated []string
	if p.schedule != nil {
		associated = p.schedule.Associated
	}
	p.schedule = (&Schedule{Entries: entries, Associated: associated}).clone()
	if p.schedule.Entries == nil {
		p.schedule.Entries = []string{}
	}
	return nil
}

// AppendSchedule appends entries to the end of the schedule.
func (p *Process) AppendSchedule(entries ...string) error {
	if err := p.mutable("append schedule"); err != nil {
		return err
	}
	if p.schedule == nil {
		return errs.Invalid("cannot append to schedule: schedule has not been set")
	}
	all := append(append([]string{}, p.schedule.Entries...), entries...)
	if err := p.checkScheduleEntries(all); err != nil {
		return err
	}
	p.schedule.Entries = all
	return nil
}

func (p *Process) checkScheduleEntries(entries []string) error {
	seen := make(map[string]bool, len(entries))
	for _, label := range entries {
		if _, ok := p.paths[label]; !ok {
			return errs.Unresolved(string(ObjectPath), label, "schedule")
		}
		if seen[label] {
			return errs.Duplicate("schedule entry", label)
		}
		seen[label] = true
	}
	return nil
}

// Associate attaches a task to the schedule for on-demand execution.
// Associating the same task twice is a no-op.
func (p *Process) Associate(task string) error {
	if err := p.mutable("associate task"); err != nil {
		return err
	}
	if _, ok := p.tasks[task]; !ok {
		return errs.Unresolved(string(ObjectTask), task, "schedule")
	}
	if p.schedule == nil {
		p.schedule = &Schedule{Entries: []string{}}
	}
	for _, t := range p.schedule.Associated {
		if t == task {
			return nil
		}
	}
	p.schedule.Associated = append(p.schedule.Associated, task)
	return nil
}

// Lookup returns the kind of object registered under label.
func (p *Process) Lookup(label string) (ObjectKind, bool) {
	k, ok := p.labels[label]
	return k, ok
}

// Stage returns a copy of the stage with the given label.
func (p *Process) Stage(label string) (*Stage, error) {
	s, ok := p.stages[label]
	if !ok {
		return nil, errs.Unresolved(string(ObjectStage), label, "")
	}
	return s.Clone(), nil
}

// Sequence returns a copy of the sequence with the given label.
func (p *Process) Sequence(label string) (*Sequence, error) {
	s, ok := p.sequences[label]
	if !ok {
		return nil, errs.Unresolved(string(ObjectSequence), label, "")
	}
	return s.clone(), nil
}

// Task returns a copy of the task with the given label.
func (p *Process) Task(label string) (*Task, error) {
	t, ok := p.tasks[label]
	if !ok {
		return nil, errs.Unresolved(string(ObjectTask), label, "")
	}
	return t.clone(), nil
}

// Output returns a copy of the output module with the given label.
func (p *Process) Output(label string) (*OutputModule, error) {
	o, ok := p.outputs[label]
	if !ok {
		return nil, errs.Unresolved(string(ObjectOutput), label, "")
	}
	return o.Clone(), nil
}

// Path returns a copy of the Path or EndPath with the given label.
func (p *Process) Path(label string) (*Path, error) {
	path, ok := p.paths[label]
	if !ok {
		return nil, errs.Unresolved(string(ObjectPath), label, "")
	}
	return path.clone(), nil
}

// Stages returns the stage labels in lexical order.
func (p *Process) Stages() []string { return sortedLabels(p.stages) }

// Sequences returns the sequence labels in lexical order.
func (p *Process) Sequences() []string { return sortedLabels(p.sequences) }

// Tasks returns the task labels in lexical order.
func (p *Process) Tasks() []string { return sortedLabels(p.tasks) }

// Outputs returns the output module labels in lexical order.
func (p *Process) Outputs() []string { return sortedLabels(p.outputs) }

// Paths returns the Path and EndPath labels in declaration order.
func (p *Process) Paths() []string { return append([]string(nil), p.pathOrder...) }

// Schedule returns a copy of the schedule, or nil if none was set.
func (p *Process) Schedule() *Schedule { return p.schedule.clone() }

// Options returns a copy of the options.
func (p *Process) Options() Options { return p.options.clone() }

// SetOptions replaces the options.
func (p *Process) SetOptions(o Options) error {
	if err := p.mutable("set options"); err != nil {
		return err
	}
	p.options = o.clone()
	return nil
}

// MaxEvents returns the event limits.
func (p *Process) MaxEvents() MaxEvents {
	m := p.maxEvents
	if m.Output != nil {
		v := *m.Output
		m.Output = &v
	}
	return m
}

// SetMaxEvents replaces the event limits.
func (p *Process) SetMaxEvents(m MaxEvents) error {
	if err := p.mutable("set max events"); err != nil {
		return err
	}
	if m.Output != nil {
		v := *m.Output
		m.Output = &v
	}
	p.maxEvents = m
	return nil
}

// Source returns a copy of the source.
func (p *Process) Source() Source { return p.source.clone() }

// SetSource replaces the source.
func (p *Process) SetSource(s Source) error {
	if err := p.mutable("set source"); err != nil {
		return err
	}
	p.source = s.clone()
	return nil
}

// Metadata returns the configuration metadata.
func (p *Process) Metadata() Metadata { return p.metadata }

// SetMetadata replaces the configuration metadata.
func (p *Process) SetMetadata(m Metadata) error {
	if err := p.mutable("set metadata"); err != nil {
		return err
	}
	p.metadata = m
	return nil
}

// Conditions returns a copy of the conditions.
func (p *Process) Conditions() Conditions { return p.conditions.clone() }

// SetConditions replaces the conditions.
func (p *Process) SetConditions(c Conditions) error {
	if err := p.mutable("set conditions"); err != nil {
		return err
	}
	p.conditions = c.clone()
	return nil
}

// ReplaceOutput swaps an existing output module for a new definition with
// the same label.
func (p *Process) ReplaceOutput(o *OutputModule) error {
	if err := p.mutable("replace output"); err != nil {
		return err
	}
	if _, ok := p.outputs[o.Label]; !ok {
		return errs.Unresolved(string(ObjectOutput), o.Label, "")
	}
	p.outputs[o.Label] = o.Clone()
	return nil
}

// Clone returns a mutable deep copy of the process. Cloning a frozen process
// yields an unfrozen copy.
func (p *Process) Clone() *Process {
	c := New(p.name, p.era)
	for k, v := range p.labels {
		c.labels[k] = v
	}
	for k, v := range p.stages {
		c.stages[k] = v.Clone()
	}
	for k, v := range p.sequences {
		c.sequences[k] = v.clone()
	}
	for k, v := range p.tasks {
		c.tasks[k] = v.clone()
	}
	for k, v := range p.outputs {
		c.outputs[k] = v.Clone()
	}
	for k, v := range p.paths {
		c.paths[k] = v.clone()
	}
	c.pathOrder = append([]string(nil), p.pathOrder...)
	c.schedule = p.schedule.clone()
	c.options = p.options.clone()
	c.maxEvents = p.MaxEvents()
	c.source = p.source.clone()
	c.metadata = p.metadata
	c.conditions = p.conditions.clone()
	return c
}

func sortedLabels[T any](m map[string]T) []string {
	labels := make([]string, 0, len(m))
	for k := range m {
		labels = append(labels, k)
	}
	sort.Strings(labels)
	return labels
}

func quote(s string) string {
	return `"` + s + `"`
}
