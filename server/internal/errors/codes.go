package errors

import (
	"context"
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a specific error type for reply operations.
type ErrorCode string

const (
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeTokenizerFailed indicates the tokenizer could not encode or decode.
	ErrCodeTokenizerFailed ErrorCode = "TOKENIZER_FAILED"
	// ErrCodeAssemblyFailed indicates the prompt could not be assembled.
	ErrCodeAssemblyFailed ErrorCode = "ASSEMBLY_FAILED"
	// ErrCodeCompletionFailed indicates the completion backend failed.
	ErrCodeCompletionFailed ErrorCode = "COMPLETION_FAILED"
	// ErrCodeCompletionEmpty indicates the completion held no usable reply.
	ErrCodeCompletionEmpty ErrorCode = "COMPLETION_EMPTY"
	// ErrCodeHistoryUnavailable indicates the channel history could not be read.
	ErrCodeHistoryUnavailable ErrorCode = "HISTORY_UNAVAILABLE"
	// ErrCodeContextCanceled indicates the operation was canceled.
	ErrCodeContextCanceled ErrorCode = "CONTEXT_CANCELED"
	// ErrCodeTimeout indicates the operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// AIError represents a structured error for reply operations.
type AIError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *AIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *AIError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error.
func (e *AIError) WithContext(key string, value interface{}) *AIError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// GetCode returns the error code.
func (e *AIError) GetCode() ErrorCode {
	return e.Code
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *AIError {
	return &AIError{Code: ErrCodeInvalidArgument, Message: msg}
}

// ContextCanceled creates a context canceled error.
func ContextCanceled(cause error) *AIError {
	return &AIError{Code: ErrCodeContextCanceled, Message: "operation canceled", Cause: cause}
}

// Timeout creates a timeout error.
func Timeout(msg string, cause error) *AIError {
	return &AIError{Code: ErrCodeTimeout, Message: msg, Cause: cause}
}

// Wrap wraps an existing error with a code. Cancellation and deadline
// errors keep their own codes regardless of the requested one.
func Wrap(cause error, code ErrorCode, msg string) *AIError {
	switch {
	case stderrors.Is(cause, context.Canceled):
		return &AIError{Code: ErrCodeContextCanceled, Message: msg, Cause: cause}
	case stderrors.Is(cause, context.DeadlineExceeded):
		return &AIError{Code: ErrCodeTimeout, Message: msg, Cause: cause}
	}
	return &AIError{Code: code, Message: msg, Cause: cause}
}

// IsCode checks if an error, or any error it wraps, has a specific code.
func IsCode(err error, code ErrorCode) bool {
	var aiErr *AIError
	if stderrors.As(err, &aiErr) {
		return aiErr.Code == code
	}
	return false
}

// GetCodeFromError extracts the error code from any error.
// Returns the provided default code if the error is not an AIError.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	var aiErr *AIError
	if stderrors.As(err, &aiErr) {
		return aiErr.Code
	}
	return defaultCode
}
