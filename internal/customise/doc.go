// Package customise applies customisation functions to an assembled process.
//
// A customisation receives a clone of the current process and returns the
// process to pass on. Apply folds a list of them strictly in order and
// validates the result after every step. The package also provides the
// built-in primitives (set, process_name_replace, associate_task,
// early_delete, log_error_harvester, schedule_append) and resolves
// HCL-declared composites into customisation functions.
package customise
