// Package apperr maps domain failures onto the API's error categories.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/claude/replog/internal/models"
)

// Type is the category of an error.
type Type string

const (
	TypeValidation   Type = "validation"
	TypeUnauthorized Type = "unauthorized"
	TypeNotFound     Type = "not_found"
	TypeConflict     Type = "conflict"
	TypeRateLimited  Type = "rate_limited"
	TypeInternal     Type = "internal"
)

// genericMessage is what clients see for internal errors.
const genericMessage = "something went wrong"

// Error is a categorised error with a client-safe message.
type Error struct {
	Type    Type
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the status code for the error's type.
func (e *Error) HTTPStatus() int {
	switch e.Type {
	case TypeValidation:
		return http.StatusBadRequest
	case TypeUnauthorized:
		return http.StatusUnauthorized
	case TypeNotFound:
		return http.StatusNotFound
	case TypeConflict:
		return http.StatusConflict
	case TypeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the message safe to return to a client.
func (e *Error) PublicMessage() string {
	if e.Type == TypeInternal {
		return genericMessage
	}
	return e.Message
}

func Validation(message string) *Error {
	return &Error{Type: TypeValidation, Message: message}
}

func Unauthorized(message string) *Error {
	return &Error{Type: TypeUnauthorized, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Type: TypeNotFound, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Type: TypeConflict, Message: message}
}

func RateLimited() *Error {
	return &Error{Type: TypeRateLimited, Message: "rate limit exceeded"}
}

func Internal(message string, cause error) *Error {
	return &Error{Type: TypeInternal, Message: message, Cause: cause}
}

// From converts any error into an *Error. Model validation errors become
// validation errors; anything unrecognised is internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		return &Error{Type: TypeValidation, Message: ve.Message, Cause: err}
	}
	return Internal("internal error", err)
}
