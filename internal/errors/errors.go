// Package errors provides error code definitions for the record store.
package errors

import "fmt"

// ErrorCode represents a unique, stable error code surfaced to callers.
type ErrorCode string

const (
	// General errors
	ErrInternal   ErrorCode = "INTERNAL_ERROR"
	ErrInvalid    ErrorCode = "INVALID_INPUT"
	ErrNotFound   ErrorCode = "NOT_FOUND"
	ErrDuplicate  ErrorCode = "DUPLICATE"
	ErrValidation ErrorCode = "VALIDATION_ERROR"

	// Local store errors
	ErrStore     ErrorCode = "STORE_ERROR"
	ErrMigration ErrorCode = "MIGRATION_FAILED"

	// Remote store errors
	ErrRemote         ErrorCode = "REMOTE_ERROR"
	ErrRemoteDecode   ErrorCode = "REMOTE_DECODE_FAILED"
	ErrRemoteNotFound ErrorCode = "REMOTE_NOT_FOUND"

	// Sync errors
	ErrSyncIneligible ErrorCode = "SYNC_INELIGIBLE"
	ErrSyncFailed     ErrorCode = "SYNC_FAILED"
	ErrPushFailed     ErrorCode = "PUSH_FAILED"
	ErrPullFailed     ErrorCode = "PULL_FAILED"

	// Cache errors
	ErrCacheFetch ErrorCode = "CACHE_FETCH_FAILED"

	// Coordinator errors
	ErrDisposed        ErrorCode = "COORDINATOR_DISPOSED"
	ErrSubscribeFailed ErrorCode = "SUBSCRIBE_FAILED"
)

// AppError represents an application error with code and message.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an error code.
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Is checks if an error carries a specific code, unwrapping as needed.
func Is(err error, code ErrorCode) bool {
	for err != nil {
		if appErr, ok := err.(*AppError); ok && appErr.Code == code {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
