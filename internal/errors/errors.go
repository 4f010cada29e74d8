package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Ghost error code.
type ErrorCode string

const (
	ErrInvalidSpec        ErrorCode = "INVALID_SPEC"        // 400
	ErrInvalidRequest     ErrorCode = "INVALID_REQUEST"     // 400
	ErrCancelled          ErrorCode = "CANCELLED"           // 499
	ErrNotFound           ErrorCode = "NOT_FOUND"           // 404
	ErrAccessorExists     ErrorCode = "ACCESSOR_EXISTS"     // 409
	ErrCorruptArtifact    ErrorCode = "CORRUPT_ARTIFACT"    // 422
	ErrCaptureUnavailable ErrorCode = "CAPTURE_UNAVAILABLE" // 503
	ErrIOFailure          ErrorCode = "IO_FAILURE"          // 500
	ErrInternal           ErrorCode = "INTERNAL"            // 500
)

// GhostError represents a structured error with code, status, and details.
type GhostError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any

	// Cause is the underlying error, if any. Exposed through Unwrap.
	Cause error
}

// Error implements the error interface.
func (e *GhostError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *GhostError) Unwrap() error {
	return e.Cause
}

// NewInvalidSpec creates a 400 error for an incomplete or malformed action spec.
// No I/O has happened when this is returned; the caller should prompt again.
func NewInvalidSpec(msg string) *GhostError {
	return &GhostError{
		Code:    ErrInvalidSpec,
		Status:  400,
		Message: msg,
	}
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *GhostError {
	return &GhostError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewCancelled creates a 499 error when the user or caller cancels an operation.
func NewCancelled(operation string) *GhostError {
	return &GhostError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", operation),
		Details: map[string]any{"operation": operation},
	}
}

// NewNotFound creates a 404 error for a missing session or record.
func NewNotFound(identifier string) *GhostError {
	return &GhostError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewFileNotFound creates a 404 error for a missing file.
func NewFileNotFound(path string) *GhostError {
	return &GhostError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewAccessorExists creates a 409 error when an accessor name is already bound
// to a different locator in the page-object container.
func NewAccessorExists(path, name string) *GhostError {
	return &GhostError{
		Code:    ErrAccessorExists,
		Status:  409,
		Message: fmt.Sprintf("accessor %q already exists in %s with a different locator", name, path),
		Details: map[string]any{"path": path, "name": name},
	}
}

// NewCorruptArtifact creates a 422 error when a generated file exists but its
// structural delimiters cannot be located. Nothing is written.
func NewCorruptArtifact(path, reason string) *GhostError {
	return &GhostError{
		Code:    ErrCorruptArtifact,
		Status:  422,
		Message: fmt.Sprintf("corrupt artifact %s: %s", path, reason),
		Details: map[string]any{"path": path, "reason": reason},
	}
}

// NewCaptureUnavailable creates a 503 error when the automation driver cannot be reached.
func NewCaptureUnavailable(err error) *GhostError {
	msg := "capture unavailable"
	if err != nil {
		msg = fmt.Sprintf("capture unavailable: %v", err)
	}
	return &GhostError{
		Code:    ErrCaptureUnavailable,
		Status:  503,
		Message: msg,
		Cause:   err,
	}
}

// NewIOFailure creates a 500 error for filesystem failures on path.
func NewIOFailure(path string, err error) *GhostError {
	msg := fmt.Sprintf("i/o failure on %s", path)
	if err != nil {
		msg = fmt.Sprintf("i/o failure on %s: %v", path, err)
	}
	return &GhostError{
		Code:    ErrIOFailure,
		Status:  500,
		Message: msg,
		Details: map[string]any{"path": path},
		Cause:   err,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *GhostError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &GhostError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		Cause:   err,
	}
}

// Is checks if an error is, or wraps, a GhostError with the given code.
func Is(err error, code ErrorCode) bool {
	var gErr *GhostError
	if stderrors.As(err, &gErr) {
		return gErr.Code == code
	}
	return false
}

// CodeOf returns the code of the first GhostError in err's chain, or ErrInternal.
func CodeOf(err error) ErrorCode {
	var gErr *GhostError
	if stderrors.As(err, &gErr) {
		return gErr.Code
	}
	return ErrInternal
}
