// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines path items and their operators.
package process

import (
	"strings"

	"github.com/specialistvlad/procgrid/internal/errs"
)

// Operator modifies how a filter's decision affects the enclosing path.
type Operator int

const (
	// OpNone uses the filter decision as is.
	OpNone Operator = iota
	// OpInvert inverts the filter decision (`~label`).
	OpInvert
	// OpIgnore ignores the filter decision (`-label`).
	OpIgnore
)

// Prefix returns the source notation of the operator.
func (o Operator) Prefix() string {
	switch o {
	case OpInvert:
		return "~"
	case OpIgnore:
		return "-"
	default:
		return ""
	}
}

// Item is a reference to a stage, sequence or output module inside a path or
// sequence.
type Item struct {
	Label string
	Op    Operator
}

// String returns the item in its source notation.
func (i Item) String() string {
	return i.Op.Prefix() + i.Label
}

// ParseItem parses `label`, `~label` or `-label`.
func ParseItem(raw string) (Item, error) {
	raw = strings.TrimSpace(raw)
	item := Item{Label: raw}
	switch {
	case strings.HasPrefix(raw, "~"):
		item = Item{Label: raw[1:], Op: OpInvert}
	case strings.HasPrefix(raw, "-"):
		item = Item{Label: raw[1:], Op: OpIgnore}
	}
	if item.Label == "" || strings.ContainsAny(item.Label, "~- \t") {
		return Item{}, errs.Invalid("malformed path item %q", raw)
	}
	return item, nil
}

// ParseItems parses a list of items, stopping at the first malformed entry.
func ParseItems(raw []string) ([]Item, error) {
	items := make([]Item, 0, len(raw))
	for _, r := range raw {
		item, err := ParseItem(r)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func itemStrings(items []Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.String()
	}
	return out
}
