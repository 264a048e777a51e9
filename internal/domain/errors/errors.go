package errors

import (
	"errors"
	"net/http"
)

// Domain errors
var (
	ErrInvalidRequest      = errors.New("invalid request")
	ErrNotFound            = errors.New("resource not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
)

// Error codes returned to API callers
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeNotFound            = "NOT_FOUND"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeConstraintViolation = "CONSTRAINT_VIOLATION"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeInternalError       = "INTERNAL_ERROR"
)

// AppError represents application error with HTTP status
type AppError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new app error
func NewAppError(status int, code, message string, err error) *AppError {
	return &AppError{
		Status:  status,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func InvalidRequest(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeInvalidRequest, message, ErrInvalidRequest)
}

func NotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, CodeNotFound, message, ErrNotFound)
}

func InvalidInput(message string) *AppError {
	return NewAppError(http.StatusUnprocessableEntity, CodeInvalidInput, message, ErrInvalidInput)
}

func ConstraintViolation(message string) *AppError {
	return NewAppError(http.StatusConflict, CodeConstraintViolation, message, ErrConstraintViolation)
}

func Unauthorized(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeUnauthorized, message, ErrUnauthorized)
}

func Forbidden(message string) *AppError {
	return NewAppError(http.StatusForbidden, CodeForbidden, message, ErrForbidden)
}

func InternalError(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeInternalError, "internal server error", err)
}

// FromError maps any error onto the closed set of API outcomes.
// AppErrors pass through, wrapped sentinels get their canonical status.
func FromError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, ErrInvalidRequest):
		return NewAppError(http.StatusBadRequest, CodeInvalidRequest, "Invalid request.", err)
	case errors.Is(err, ErrNotFound):
		return NewAppError(http.StatusNotFound, CodeNotFound, "Not Found.", err)
	case errors.Is(err, ErrInvalidInput):
		return NewAppError(http.StatusUnprocessableEntity, CodeInvalidInput, "Invalid input.", err)
	case errors.Is(err, ErrConstraintViolation):
		return NewAppError(http.StatusConflict, CodeConstraintViolation, "Constraint violation.", err)
	case errors.Is(err, ErrUnauthorized):
		return NewAppError(http.StatusUnauthorized, CodeUnauthorized, "Unauthorized.", err)
	case errors.Is(err, ErrForbidden):
		return NewAppError(http.StatusForbidden, CodeForbidden, "Forbidden.", err)
	default:
		return InternalError(err)
	}
}
