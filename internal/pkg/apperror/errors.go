package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeBadRequest        ErrorCode = "BAD_REQUEST"
	ErrCodeConflict          ErrorCode = "CONFLICT"
	ErrCodeInternal          ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation        ErrorCode = "VALIDATION_ERROR"
	ErrCodeIllegalTransition ErrorCode = "ILLEGAL_TRANSITION"
	ErrCodeReversalFailed    ErrorCode = "REVERSAL_FAILED"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeBadRequest, ErrCodeValidation, ErrCodeReversalFailed:
		return http.StatusBadRequest
	case ErrCodeConflict, ErrCodeIllegalTransition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeNotFound
}

func IsValidation(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeValidation
}

func IsConflict(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) &&
		(appErr.Code == ErrCodeConflict || appErr.Code == ErrCodeIllegalTransition)
}

func IsReversalFailed(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeReversalFailed
}

// HTTPStatus returns the response status for any error, defaulting to 500.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

var (
	ErrCaseNotFound        = New(ErrCodeNotFound, "fraud case not found")
	ErrDuplicateActiveCase = New(ErrCodeConflict, "active fraud case already exists for this transaction")
	ErrIllegalTransition   = New(ErrCodeIllegalTransition, "illegal case status transition")
	ErrAlreadyAssigned     = New(ErrCodeConflict, "case is already assigned to an arbitrator")
	ErrInvalidCaseState    = New(ErrCodeConflict, "case is not in a valid state for this operation")
	ErrInvalidReport       = New(ErrCodeValidation, "transaction is not valid for fraud reporting")
	ErrCaseInactive        = New(ErrCodeConflict, "cannot modify an inactive fraud case")
)

// NewReversalFailed wraps a ledger or executor failure. Callers must convert it
// into an escalation or a reported failure, never swallow it.
func NewReversalFailed(err error, message string) *AppError {
	return Wrap(err, ErrCodeReversalFailed, message)
}
