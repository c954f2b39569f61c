// Package errors provides the structured error type used across gatherkit.
//
// Every error raised by the library itself (argument validation at construction
// time, invariant violations, failed concurrent tasks) is an *AppError carrying a
// machine-readable ErrorCode. Errors returned by user-supplied gatherer hooks are
// never wrapped by the engine; they propagate to the caller unchanged.
//
//	g, err := gatherers.WindowFixed[int](0)
//	if errors.HasCode(err, errors.ErrCodeInvalidArgument) { ... }
package errors
