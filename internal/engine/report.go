package engine

// PathReport counts how often a Path or EndPath was entered and how often
// every item passed.
type PathReport struct {
	Label   string `json:"label" yaml:"label"`
	End     bool   `json:"end" yaml:"end"`
	Visited int    `json:"visited" yaml:"visited"`
	Passed  int    `json:"passed" yaml:"passed"`
}

// OutputReport is what an output module recorded.
type OutputReport struct {
	Label    string         `json:"label" yaml:"label"`
	Plugin   string         `json:"plugin" yaml:"plugin"`
	Events   int            `json:"events" yaml:"events"`
	Products map[string]int `json:"products" yaml:"products"`
}

// Report summarises a dry run. Paths are listed in schedule order, Paths
// before EndPaths; outputs in lexical label order.
type Report struct {
	Events  int64          `json:"events" yaml:"events"`
	Streams int            `json:"streams" yaml:"streams"`
	Paths   []PathReport   `json:"paths" yaml:"paths"`
	Outputs []OutputReport `json:"outputs" yaml:"outputs"`
	// Missing counts, per input tag, the events in which a consumed product
	// was absent.
	Missing map[string]int `json:"missing,omitempty" yaml:"missing,omitempty"`
}

// Path returns the report of the given path.
func (r *Report) Path(label string) (PathReport, bool) {
	for _, p := range r.Paths {
		if p.Label == label {
			return p, true
		}
	}
	return PathReport{}, false
}

// Output returns the report of the given output module.
func (r *Report) Output(label string) (OutputReport, bool) {
	for _, o := range r.Outputs {
		if o.Label == label {
			return o, true
		}
	}
	return OutputReport{}, false
}

func (e *Engine) report(perStream []*counters) *Report {
	r := &Report{Streams: e.streams, Missing: make(map[string]int)}

	visited := make(map[string]int)
	passed := make(map[string]int)
	for _, c := range perStream {
		r.Events += c.events
		for k, v := range c.visited {
			visited[k] += v
		}
		for k, v := range c.passed {
			passed[k] += v
		}
		for k, v := range c.missing {
			r.Missing[k] += v
		}
	}

	for _, plans := range [][]*pathPlan{e.paths, e.endPaths} {
		for _, plan := range plans {
			r.Paths = append(r.Paths, PathReport{
				Label:   plan.label,
				End:     plan.end,
				Visited: visited[plan.label],
				Passed:  passed[plan.label],
			})
		}
	}

	for _, label := range e.proc.Outputs() {
		oi, ok := e.outputs[label]
		if !ok {
			continue
		}
		summary := oi.out.Summary()
		r.Outputs = append(r.Outputs, OutputReport{
			Label:    label,
			Plugin:   oi.module.Plugin,
			Events:   summary.Events,
			Products: summary.Products,
		})
	}
	return r
}
