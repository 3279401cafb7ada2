// Package engine runs a frozen process over synthetic events.
//
// # Why a dry-run engine exists
//
// An assembled schedule is only a list of names until something walks it.
// The engine walks it the way the framework would: Paths in schedule order,
// then EndPaths, with filter decisions gating the rest of a path and output
// modules recording what their output commands retain. No physics runs and
// no file is written; every plugin only moves product names around.
//
// This lets us check the properties that matter for a configuration:
//   - a filter that rejects every event on a Path does not starve an EndPath
//   - `~` and `-` operators change exactly the decisions they should
//   - every consumed product is produced by someone, either on a path or on
//     demand from an associated task
//   - output modules retain the branches their event content promises
//
// # How it works
//
// New instantiates one plugin per stage and output module, flattens every
// scheduled path, and orders the on-demand producers of associated tasks
// with a dependency graph. Run feeds event numbers into a channel consumed
// by one worker per stream. Each worker keeps its own counters and the
// report merges them after all workers are done.
package engine
