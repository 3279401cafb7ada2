package errs

// Code is a machine-readable error code.
type Code string

const (
	// CodeNameResolution indicates a reference to a label that does not exist.
	CodeNameResolution Code = "NAME_RESOLUTION"
	// CodeDuplicateName indicates a label defined twice in one namespace.
	CodeDuplicateName Code = "DUPLICATE_NAME"
	// CodeInvalidConfig indicates a malformed declaration or attribute.
	CodeInvalidConfig Code = "INVALID_CONFIG"
	// CodePhaseOrder indicates an assembly phase called out of order.
	CodePhaseOrder Code = "PHASE_ORDER"
	// CodeFrozen indicates a mutation attempted on a frozen process.
	CodeFrozen Code = "FROZEN"
	// CodeValidation indicates a struct or process failed validation.
	CodeValidation Code = "VALIDATION"
)
