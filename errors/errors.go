package errors

import (
	"fmt"
)

// AppError is the unified library error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// --- Common Error Constructors ---

// InvalidArgument creates a new AppError for a rejected factory argument.
func InvalidArgument(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	msg := fmt.Sprintf("invalid argument: %s", reason)
	if field != "" {
		msg = fmt.Sprintf("invalid argument %s: %s", field, reason)
	}
	return &AppError{
		Code: ErrCodeInvalidArgument, Message: msg, Details: details,
	}
}

// Validation creates a new AppError for an aggregated validation failure.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidArgument, Message: message,
	}
}

// IllegalState creates a new AppError for a violated gatherer contract.
func IllegalState(message string) *AppError {
	return &AppError{
		Code: ErrCodeIllegalState, Message: message,
	}
}

// TaskFailed creates a new AppError for a failed concurrent task.
func TaskFailed(cause error) *AppError {
	return &AppError{
		Code: ErrCodeTaskFailed, Message: "concurrent task failed", Cause: cause,
	}
}

// Canceled creates a new AppError for an evaluation stopped by its context.
func Canceled(cause error) *AppError {
	return &AppError{
		Code: ErrCodeCanceled, Message: "evaluation canceled", Cause: cause,
	}
}

// Internal creates a new AppError for an unexpected failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "an unexpected error occurred", Cause: cause,
	}
}

// Panic converts a recovered panic value into an internal AppError. Errors are
// kept as the cause so errors.Is keeps working on them.
func Panic(recovered any) *AppError {
	cause, ok := recovered.(error)
	if !ok {
		cause = fmt.Errorf("%v", recovered)
	}
	return Internal(cause).WithDetail("panic", fmt.Sprintf("%v", recovered))
}
