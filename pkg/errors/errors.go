package errors

import (
	stderrors "errors"
	"fmt"
)

type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

var (
	ErrConfigLoad      = "CONFIG_LOAD_ERROR"
	ErrDatabaseConnect = "DATABASE_CONNECT_ERROR"
	ErrRPConnect       = "RPC_CONNECT_ERROR"
	ErrValidation      = "VALIDATION_ERROR"
	ErrNotASafe        = "NOT_A_SAFE_ERROR"
	ErrNoOwnersFound   = "NO_OWNERS_FOUND_ERROR"
	ErrChainCall       = "CHAIN_CALL_ERROR"
	ErrConflict        = "CONFLICT_ERROR"
	ErrPersistence     = "PERSISTENCE_ERROR"
	ErrNotFound        = "NOT_FOUND_ERROR"
)

// CodeOf returns the error code of the outermost AppError in err's chain,
// or an empty string when err carries no code.
func CodeOf(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code string) bool {
	return CodeOf(err) == code
}
