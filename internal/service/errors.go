package service

import (
	"errors"

	"okenna/streamtube/internal/repository"
)

// ErrorKind classifies service failures. Errors keep their original kind all
// the way to the transport layer; nothing downgrades them on the way out.
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindNotFound      ErrorKind = "not_found"
	KindAuthorization ErrorKind = "authorization"
	KindConflict      ErrorKind = "conflict"
	KindUpload        ErrorKind = "upload"
	KindPersistence   ErrorKind = "persistence"
	KindCancelled     ErrorKind = "cancelled"
)

// Error is the service-level error type carrying its taxonomy kind and the
// underlying cause, if any.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func validationError(message string) *Error {
	return newError(KindValidation, message, nil)
}

func notFoundError(message string) *Error {
	return newError(KindNotFound, message, nil)
}

func authorizationError(message string) *Error {
	return newError(KindAuthorization, message, nil)
}

func conflictError(message string, cause error) *Error {
	return newError(KindConflict, message, cause)
}

func uploadError(message string, cause error) *Error {
	return newError(KindUpload, message, cause)
}

func persistenceError(message string, cause error) *Error {
	return newError(KindPersistence, message, cause)
}

func cancelledError(message string) *Error {
	return newError(KindCancelled, message, nil)
}

// KindOf returns the taxonomy kind of err, or "" for unclassified errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// repoError maps a repository failure onto the taxonomy: absent rows become
// NotFound with the given message, duplicate keys Conflict, everything else
// Persistence.
func repoError(err error, notFoundMsg, persistMsg string) *Error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return notFoundError(notFoundMsg)
	case errors.Is(err, repository.ErrConflict):
		return conflictError(persistMsg, err)
	default:
		return persistenceError(persistMsg, err)
	}
}
