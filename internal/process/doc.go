// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package process provides the in-memory model of an assembled event-processing
// configuration: its stages, sequences, tasks, paths, end-paths, output
// modules, schedule, options and conditions.
//
// # Core Concepts
//
//   - Stage: A named, configured instance of a plugin. It carries its
//     parameters as go-cty values, the input tags it consumes and the
//     products it declares.
//
//   - Sequence: A named, ordered list of path items. Sequences may nest, but
//     never cyclically.
//
//   - Task: A named, unordered set of stages that run on demand when a
//     scheduled stage consumes one of their products.
//
//   - Path and EndPath: Ordered item lists placed on the schedule. A rejecting
//     filter stops the rest of its Path. An EndPath runs for every event and
//     is the only place output modules may appear.
//
//   - Schedule: The ordered list of Path/EndPath labels plus the associated
//     tasks.
//
// # Why a separate process package?
//
// Every label lives in a single namespace and every reference is resolved
// through an explicit map, so a dangling name is reported as a
// NameResolutionError instead of surfacing as a runtime surprise. The model is
// mutable while it is being assembled and customised. Once Freeze is called,
// every mutator returns a FROZEN error and the value can be shared freely by
// the dump, the inspection server and the dry-run engine.
package process
