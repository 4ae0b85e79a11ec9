package errors

import (
	"errors"
	"fmt"
	"net/http"
)

type AppError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code string, message string, status int, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
		Err:     err,
	}
}

func BadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    "BAD_REQUEST",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     err,
	}
}

func Unauthorized(message string, err error) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     err,
	}
}

func Forbidden(message string, err error) *AppError {
	return &AppError{
		Code:    "FORBIDDEN",
		Message: message,
		Status:  http.StatusForbidden,
		Err:     err,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: message,
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Code:    "CONFLICT",
		Message: message,
		Status:  http.StatusConflict,
		Err:     nil,
	}
}

// DuplicatePendingRequest signals that the conversation already carries a
// pending or pending_confirmation request of the given kind.
func DuplicatePendingRequest(kind string) *AppError {
	return &AppError{
		Code:    "DUPLICATE_PENDING_REQUEST",
		Message: fmt.Sprintf("conversation already has a pending %s request", kind),
		Status:  http.StatusConflict,
		Err:     nil,
	}
}

func WrongMessageType(expected, actual string) *AppError {
	return &AppError{
		Code:    "WRONG_MESSAGE_TYPE",
		Message: fmt.Sprintf("message is %s, expected %s", actual, expected),
		Status:  http.StatusBadRequest,
		Err:     nil,
	}
}

func InvalidPhotoURL(url string, err error) *AppError {
	return &AppError{
		Code:    "INVALID_PHOTO_URL",
		Message: fmt.Sprintf("invalid photo url: %s", url),
		Status:  http.StatusBadRequest,
		Err:     err,
	}
}

// CleanupFailure reports partial failures from best-effort cleanup. It is
// surfaced to callers but never aborts the operation that produced it.
func CleanupFailure(message string, err error) *AppError {
	return &AppError{
		Code:    "CLEANUP_FAILURE",
		Message: message,
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

func Is(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
