// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines output modules, the terminal stages that retain products.
package process

import (
	"slices"

	"github.com/zclconf/go-cty/cty"
)

// OutputModule retains the products selected by its output commands for
// every event that passes its select_events gate.
type OutputModule struct {
	Label                string   `validate:"required"`
	Plugin               string   `validate:"required"`
	FileName             string   `validate:"required"`
	DataTier             string   `validate:"required"`
	FilterName           string   `validate:"-"`
	CompressionAlgorithm string   `validate:"omitempty,oneof=ZLIB LZMA LZ4 ZSTD"`
	CompressionLevel     int      `validate:"gte=0,lte=9"`
	EventContent         string   `validate:"-"`
	OutputCommands       []string `validate:"dive,required"`
	// SelectEvents lists the Path labels an event must pass. Empty means
	// every event.
	SelectEvents []string             `validate:"dive,required"`
	Params       map[string]cty.Value `validate:"-"`
}

// Clone returns a copy of the output module.
func (o *OutputModule) Clone() *OutputModule {
	c := *o
	c.OutputCommands = slices.Clone(o.OutputCommands)
	c.SelectEvents = slices.Clone(o.SelectEvents)
	c.Params = make(map[string]cty.Value, len(o.Params))
	for k, v := range o.Params {
		c.Params[k] = v
	}
	return &c
}
