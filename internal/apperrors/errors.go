package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrAccountResolution indicates that a tenant has no provisioned ledger account.
// Allocation must fail closed on this; there is no fallback account.
var ErrAccountResolution = errors.New("tenant ledger account could not be resolved")

// ErrLedgerImbalance indicates a constructed entry whose debits and credits do not sum equal.
// Nothing may be written for the affected operation.
var ErrLedgerImbalance = errors.New("ledger entry debits and credits do not balance")

// ErrConflict indicates a concurrent modification was detected; the operation may be retried.
var ErrConflict = errors.New("concurrent modification detected")

// ErrInternal indicates an unexpected internal failure.
var ErrInternal = errors.New("internal error")

// AppError wraps an underlying error with an application status code and message.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError wrapping err.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}
