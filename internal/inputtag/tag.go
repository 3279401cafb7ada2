package inputtag

import "strings"

// Tag refers to a data product by the label of the stage that produced it,
// an optional product instance and an optional process name.
type Tag struct {
	Label    string
	Instance string
	Process  string
}

// String serializes the Tag into its canonical representation, omitting
// trailing empty parts.
func (t Tag) String() string {
	switch {
	case t.Process != "":
		return t.Label + ":" + t.Instance + ":" + t.Process
	case t.Instance != "":
		return t.Label + ":" + t.Instance
	default:
		return t.Label
	}
}

// Equal reports whether two tags refer to the same product.
func (t Tag) Equal(other Tag) bool {
	return t == other
}

// WithProcess returns a copy of the tag bound to the given process.
func (t Tag) WithProcess(process string) Tag {
	t.Process = process
	return t
}

// Matches reports whether the product satisfies the tag. An empty process in
// the tag matches a product from any process.
func (t Tag) Matches(p Product) bool {
	if t.Label != p.Label || t.Instance != p.Instance {
		return false
	}
	return t.Process == "" || t.Process == p.Process
}

// LooksLikeTag reports whether s has the shape of a fully qualified tag
// with an explicit process part, e.g. `TriggerResults::HLT`.
func LooksLikeTag(s string) bool {
	if strings.Count(s, ":") != 2 {
		return false
	}
	_, err := Parse(s)
	return err == nil
}
