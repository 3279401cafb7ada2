package inputtag

import (
	"fmt"
	"regexp"
	"strings"
)

// labelRegex matches a stage label. Underscores are reserved as the branch
// name separator and therefore not allowed.
var labelRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9]*$`)

// partRegex matches an instance or process name, which may be empty.
var partRegex = regexp.MustCompile(`^[a-zA-Z0-9]*$`)

// ValidLabel reports whether label can be used by a product-producing stage.
func ValidLabel(label string) bool {
	return labelRegex.MatchString(label)
}

// Parse creates a Tag by parsing its canonical string representation.
func Parse(raw string) (Tag, error) {
	if raw == "" {
		return Tag{}, fmt.Errorf("input tag cannot be empty")
	}

	parts := strings.Split(raw, ":")
	if len(parts) > 3 {
		return Tag{}, fmt.Errorf("input tag %q has too many parts", raw)
	}

	if !labelRegex.MatchString(parts[0]) {
		return Tag{}, fmt.Errorf("invalid label in input tag %q", raw)
	}
	tag := Tag{Label: parts[0]}

	if len(parts) > 1 {
		if !partRegex.MatchString(parts[1]) {
			return Tag{}, fmt.Errorf("invalid instance in input tag %q", raw)
		}
		tag.Instance = parts[1]
	}
	if len(parts) > 2 {
		if !partRegex.MatchString(parts[2]) {
			return Tag{}, fmt.Errorf("invalid process in input tag %q", raw)
		}
		tag.Process = parts[2]
	}

	return tag, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// static declarations.
func MustParse(raw string) Tag {
	tag, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return tag
}
