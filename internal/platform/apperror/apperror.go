// Package apperror defines the error taxonomy shared by every domain
// service. Handlers map these to HTTP status codes in one place so the
// services never import net/http.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindReferenceNotFound
	KindInvalidTransition
	KindConflict
	KindForbidden
	KindNotFound
)

// Error is a classified application error.
type Error struct {
	Kind     Kind
	Message  string
	Resource string // resource type, when the error concerns one
	Field    string // offending field, for validation errors
	Err      error  // wrapped cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match two apperrors by kind.
func (e *Error) Is(target error) bool {
	var ae *Error
	if errors.As(target, &ae) {
		return ae.Kind == e.Kind
	}
	return false
}

func Validation(field, msg string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: msg}
}

func ReferenceNotFound(resource, msg string) *Error {
	return &Error{Kind: KindReferenceNotFound, Resource: resource, Message: msg}
}

func InvalidTransition(msg string) *Error {
	return &Error{Kind: KindInvalidTransition, Message: msg}
}

func Conflict(resource, msg string) *Error {
	return &Error{Kind: KindConflict, Resource: resource, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func NotFound(resource, msg string) *Error {
	return &Error{Kind: KindNotFound, Resource: resource, Message: msg}
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}

// HTTPStatus maps an error to the HTTP status a handler should return.
// Unclassified errors map to 500.
func HTTPStatus(err error) int {
	var ae *Error
	if !errors.As(err, &ae) {
		return http.StatusInternalServerError
	}
	switch ae.Kind {
	case KindValidation, KindInvalidTransition:
		return http.StatusBadRequest
	case KindReferenceNotFound:
		return http.StatusUnprocessableEntity
	case KindConflict:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
