package errs

import (
	"fmt"
	"sort"
	"strings"
)

// Error is the unified error type of the assembly layer.
type Error struct {
	// Code is a machine-readable error code.
	Code Code
	// Message is a human-readable error message.
	Message string
	// Details contains additional context for the error.
	Details map[string]any
	// Cause is the underlying error that caused this error.
	Cause error
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Code))
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, e.Details[k]))
		}
		sb.WriteString(" [")
		sb.WriteString(strings.Join(parts, " "))
		sb.WriteString("]")
	}
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

// Unwrap returns the underlying cause of the error.
func (e *Error) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new Error.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Duplicate reports a label defined twice.
func Duplicate(kind, label string) *Error {
	return New(CodeDuplicateName, "%s %q is already defined", kind, label).
		WithDetail("kind", kind)
}

// Invalid reports a malformed declaration.
func Invalid(format string, args ...any) *Error {
	return New(CodeInvalidConfig, format, args...)
}

// Frozen reports a mutation on a frozen process.
func Frozen(operation string) *Error {
	return New(CodeFrozen, "cannot %s: process is frozen", operation)
}

// PhaseOrder reports an assembly phase called out of sequence.
func PhaseOrder(phase, expected string) *Error {
	return New(CodePhaseOrder, "phase %q called out of order, expected %q", phase, expected)
}

// NameResolutionError reports a reference to a label that is not defined.
type NameResolutionError struct {
	// Kind is the kind of object that was looked up, e.g. "stage".
	Kind string
	// Name is the label that could not be resolved.
	Name string
	// Referrer names the object holding the reference, if known.
	Referrer string
}

// Error implements the error interface.
func (e *NameResolutionError) Error() string {
	if e.Referrer != "" {
		return fmt.Sprintf("%s: undefined %s %q referenced by %s", CodeNameResolution, e.Kind, e.Name, e.Referrer)
	}
	return fmt.Sprintf("%s: undefined %s %q", CodeNameResolution, e.Kind, e.Name)
}

// Unresolved creates a NameResolutionError.
func Unresolved(kind, name, referrer string) *NameResolutionError {
	return &NameResolutionError{Kind: kind, Name: name, Referrer: referrer}
}

// CodeOf returns the code of the outermost classified error in err's chain,
// or "" when there is none. A PHASE_ORDER error wrapping an earlier
// NameResolutionError reports PHASE_ORDER.
func CodeOf(err error) Code {
	switch e := classified(err).(type) {
	case *NameResolutionError:
		return CodeNameResolution
	case *Error:
		return e.Code
	}
	return ""
}

// classified walks the Unwrap chain depth-first and returns the first
// *Error or *NameResolutionError it meets.
func classified(err error) error {
	for err != nil {
		switch err.(type) {
		case *Error, *NameResolutionError:
			return err
		}
		switch u := err.(type) {
		case interface{ Unwrap() error }:
			err = u.Unwrap()
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				if c := classified(inner); c != nil {
					return c
				}
			}
			return nil
		default:
			return nil
		}
	}
	return nil
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// IsNameResolution reports whether the outermost classified error in err's
// chain is a NameResolutionError.
func IsNameResolution(err error) bool {
	_, ok := classified(err).(*NameResolutionError)
	return ok
}
