package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an AppError independently of its HTTP status.
type Kind string

const (
	KindValidation       Kind = "validation_error"
	KindNotFound         Kind = "not_found"
	KindConflict         Kind = "conflict"
	KindStoreUnavailable Kind = "store_unavailable"
	KindBadRequest       Kind = "bad_request"
	KindUnauthorized     Kind = "unauthorized"
	KindForbidden        Kind = "forbidden"
	KindInternal         Kind = "internal"
)

type AppError struct {
	Code    int         `json:"code"`
	Kind    Kind        `json:"kind"`
	Message string      `json:"message"`
	Entity  string      `json:"entity,omitempty"`
	ID      string      `json:"id,omitempty"`
	Details interface{} `json:"details,omitempty"`
	Err     error       `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kindForStatus(code),
		Message: message,
		Err:     err,
	}
}

func kindForStatus(code int) Kind {
	switch code {
	case http.StatusBadRequest:
		return KindBadRequest
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	case http.StatusServiceUnavailable:
		return KindStoreUnavailable
	default:
		return KindInternal
	}
}

// Is reports whether err is an AppError of the given kind.
func Is(err error, kind Kind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

func BadRequest(message string) *AppError {
	return New(http.StatusBadRequest, message, nil)
}

func Unauthorized(message string) *AppError {
	return New(http.StatusUnauthorized, message, nil)
}

func Forbidden(message string) *AppError {
	return New(http.StatusForbidden, message, nil)
}

// NotFound builds a not-found error carrying the entity type and identifier.
func NotFound(entity, id string) *AppError {
	msg := fmt.Sprintf("%s not found", entity)
	if id != "" {
		msg = fmt.Sprintf("%s not found: %s", entity, id)
	}
	e := New(http.StatusNotFound, msg, nil)
	e.Entity = entity
	e.ID = id
	return e
}

// Validation rejects a write. Details usually holds []validation.FieldError.
func Validation(message string, details interface{}) *AppError {
	e := New(http.StatusBadRequest, message, nil)
	e.Kind = KindValidation
	e.Details = details
	return e
}

func Conflict(message string) *AppError {
	return New(http.StatusConflict, message, nil)
}

// ConflictEntity is Conflict with entity context attached.
func ConflictEntity(entity, id, message string) *AppError {
	e := Conflict(message)
	e.Entity = entity
	e.ID = id
	return e
}

func StoreUnavailable(err error) *AppError {
	return New(http.StatusServiceUnavailable, "Data store unavailable", err)
}

func Internal(err error) *AppError {
	return New(http.StatusInternalServerError, "Internal Server Error", err)
}
