package domain

import (
	"errors"
	"net/http"
)

// Error codes for business logic errors.
const (
	CodeNotFound       = 1
	CodeAlreadyExists  = 2
	CodeValidation     = 3
	CodeInternal       = 4
	CodeUnauthorized   = 5
	CodeMissingData    = 6
	CodeNotAuthorized  = 7
	CodeDuplicatedDate = 8
)

// AppError represents a business logic error with a code, message, and optional wrapped error.
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the wrapped error for use with errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined business errors.
//
// Match them with the Is* helpers rather than errors.Is: the helpers compare
// codes, so freshly constructed errors from NewAppError match too.
var (
	ErrNotFound       = &AppError{Code: CodeNotFound, Message: "not found"}
	ErrAlreadyExists  = &AppError{Code: CodeAlreadyExists, Message: "already exists"}
	ErrValidation     = &AppError{Code: CodeValidation, Message: "validation error"}
	ErrInternal       = &AppError{Code: CodeInternal, Message: "internal error"}
	ErrUnauthorized   = &AppError{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrMissingData    = &AppError{Code: CodeMissingData, Message: "missing data"}
	ErrNotAuthorized  = &AppError{Code: CodeNotAuthorized, Message: "not authorized"}
	ErrDuplicatedDate = &AppError{Code: CodeDuplicatedDate, Message: "duplicated date"}
)

// NewAppError creates a new AppError with the given code, message, and wrapped error.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsNotFound reports whether err is or wraps an AppError with CodeNotFound.
func IsNotFound(err error) bool {
	return hasCode(err, CodeNotFound)
}

// IsAlreadyExists reports whether err is or wraps an AppError with CodeAlreadyExists.
func IsAlreadyExists(err error) bool {
	return hasCode(err, CodeAlreadyExists)
}

// IsValidation reports whether err is or wraps an AppError with CodeValidation.
func IsValidation(err error) bool {
	return hasCode(err, CodeValidation)
}

// IsInternal reports whether err is or wraps an AppError with CodeInternal.
func IsInternal(err error) bool {
	return hasCode(err, CodeInternal)
}

// IsUnauthorized reports whether err is or wraps an AppError with CodeUnauthorized.
func IsUnauthorized(err error) bool {
	return hasCode(err, CodeUnauthorized)
}

// IsMissingData reports whether err is or wraps an AppError with CodeMissingData.
func IsMissingData(err error) bool {
	return hasCode(err, CodeMissingData)
}

// IsNotAuthorized reports whether err is or wraps an AppError with CodeNotAuthorized.
func IsNotAuthorized(err error) bool {
	return hasCode(err, CodeNotAuthorized)
}

// IsDuplicatedDate reports whether err is or wraps an AppError with CodeDuplicatedDate.
func IsDuplicatedDate(err error) bool {
	return hasCode(err, CodeDuplicatedDate)
}

// hasCode checks whether err is or wraps an *AppError with the given code.
func hasCode(err error, code int) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// HTTPStatusCode maps an error to an HTTP status code.
// If the error is an *AppError, the code is mapped; otherwise http.StatusInternalServerError is returned.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if err != nil && errors.As(err, &appErr) {
		switch appErr.Code {
		case CodeNotFound:
			return http.StatusNotFound
		case CodeAlreadyExists, CodeDuplicatedDate:
			return http.StatusConflict
		case CodeValidation, CodeMissingData:
			return http.StatusBadRequest
		case CodeUnauthorized:
			return http.StatusUnauthorized
		case CodeNotAuthorized:
			return http.StatusForbidden
		case CodeInternal:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}
