// Package errs defines the error types shared by the assembly layer.
//
// Every failure carries a machine-readable Code. Unresolved names get their
// own type, NameResolutionError, so callers can match them with errors.As and
// report which kind of label was missing and who referenced it.
package errs
