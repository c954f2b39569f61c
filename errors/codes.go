package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Caller errors
const (
	// ErrCodeInvalidArgument indicates a factory received a nil or out-of-range argument.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeIllegalState indicates a gatherer contract was violated at run time,
	// e.g. a state was integrated after it had been combined or finished.
	ErrCodeIllegalState ErrorCode = "ILLEGAL_STATE"
)

// Execution errors
const (
	// ErrCodeTaskFailed indicates a concurrently executed task failed.
	ErrCodeTaskFailed ErrorCode = "TASK_FAILED"
	// ErrCodeCanceled indicates the evaluation was canceled through its context.
	ErrCodeCanceled ErrorCode = "CANCELED"
	// ErrCodeInternal indicates an unexpected failure inside the library.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var callerCodes = map[ErrorCode]bool{
	ErrCodeInvalidArgument: true,
	ErrCodeIllegalState:    true,
}

// IsCallerCode reports whether the code points at a bug in the calling code
// rather than a failure during execution.
func IsCallerCode(code ErrorCode) bool {
	return callerCodes[code]
}
