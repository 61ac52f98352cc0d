package interfaces

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind is the stable, machine-readable class of an error returned to API callers.
type ErrorKind string

const (
	// KindValidation marks bad or missing request input.
	KindValidation ErrorKind = "validation_error"

	// KindNotFound marks a template lookup miss.
	KindNotFound ErrorKind = "not_found"

	// KindProvider marks a failure reported by the e-signature provider.
	KindProvider ErrorKind = "provider_error"

	// KindPersistence marks a local file read or write failure.
	KindPersistence ErrorKind = "persistence_error"

	// KindInternal is used for anything not created through this package.
	KindInternal ErrorKind = "internal_error"
)

// HTTPStatus maps an error kind to the status code the API responds with.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error carries an ErrorKind alongside the message and an optional cause.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// PublicMessage is the text safe to hand back to API callers. Persistence
// failures are reduced to a generic message; the detail only goes to the log.
func (e *Error) PublicMessage() string {
	if e.Kind == KindPersistence {
		return "internal storage error"
	}
	return e.Error()
}

// NewValidationError reports bad request input.
func NewValidationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NewNotFoundError reports a lookup miss.
func NewNotFoundError(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// NewProviderError wraps a provider failure. providerMsg is the message the
// provider reported, if any, and is embedded in the error text.
func NewProviderError(op, providerMsg string, err error) *Error {
	msg := op + " failed"
	if providerMsg != "" {
		msg = fmt.Sprintf("%s: %s", msg, providerMsg)
	}
	return &Error{Kind: KindProvider, Message: msg, Err: err}
}

// NewPersistenceError wraps a local storage failure.
func NewPersistenceError(op string, err error) *Error {
	return &Error{Kind: KindPersistence, Message: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
