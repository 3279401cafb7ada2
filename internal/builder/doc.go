/*
Package builder assembles a frozen process from a process declaration. It is
the bridge between the static configuration model (the 'config' package) and
the consumers of an assembled process: the dump writers, the inspection
server and the dry-run engine.

The primary artifact produced by this package is a validated, frozen
*process.Process.

Assembly is a strictly ordered sequence of phases, each a method on
Assembler:

 1. LoadStages: Loads the fragments named by the process `load` list from the
    registry, turns every stage declaration into a process.Stage backed by a
    registered plugin and applies the parameter overrides of the modifiers
    enabled by the process era. Sequences and tasks follow.

 2. InstantiateIO: Sets source, max events, options, metadata and output
    modules. Output modules that reference an event content get its
    flattened commands. The requested conditions tag is resolved, and the
    declared process-name replacements run.

 3. BuildPaths: Builds every Path and EndPath from previously loaded stages,
    sequences and output modules.

 4. AssembleSchedule: Places paths on the schedule exactly as declared.

 5. AssociateTasks: Associates the declared tasks with the schedule.

 6. Customise: Resolves every customisation by name and folds them over the
    process in order, validating after each step.

 7. Freeze: Validates a final time and freezes the process.

Calling a phase out of order fails with a PHASE_ORDER error, and any failure
aborts the assembly: later phases refuse to run. Each phase runs inside an
OpenTelemetry span named `assemble.<phase>`.
*/
package builder
