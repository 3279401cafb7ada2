package inputtag

import (
	"fmt"
	"path"
	"strings"
)

type rule struct {
	keep    bool
	pattern string
}

// Selector decides which products an output module retains, following a
// list of `keep <pattern>` and `drop <pattern>` commands. The last matching
// command wins; a product matched by none is dropped. An empty command list
// keeps everything.
type Selector struct {
	rules []rule
}

// NewSelector compiles output commands into a Selector.
func NewSelector(commands []string) (*Selector, error) {
	s := &Selector{rules: make([]rule, 0, len(commands))}
	for _, cmd := range commands {
		fields := strings.Fields(cmd)
		if len(fields) != 2 {
			return nil, fmt.Errorf("output command %q must be 'keep <pattern>' or 'drop <pattern>'", cmd)
		}

		var keep bool
		switch fields[0] {
		case "keep":
			keep = true
		case "drop":
			keep = false
		default:
			return nil, fmt.Errorf("output command %q has unknown verb %q", cmd, fields[0])
		}

		if _, err := path.Match(fields[1], ""); err != nil {
			return nil, fmt.Errorf("output command %q has a bad pattern: %w", cmd, err)
		}
		s.rules = append(s.rules, rule{keep: keep, pattern: fields[1]})
	}
	return s, nil
}

// Keeps reports whether the branch survives the commands.
func (s *Selector) Keeps(branch string) bool {
	if len(s.rules) == 0 {
		return true
	}
	kept := false
	for _, r := range s.rules {
		// Patterns were validated in NewSelector.
		if ok, _ := path.Match(r.pattern, branch); ok {
			kept = r.keep
		}
	}
	return kept
}
