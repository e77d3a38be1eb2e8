package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a failure for the HTTP boundary.
type ErrorKind int

const (
	KindUpstream ErrorKind = iota
	KindUnauthenticated
	KindForbidden
	KindInvalidInput
	KindNotFound
	KindRetired
)

// Status maps a kind onto its HTTP status code.
func (k ErrorKind) Status() int {
	switch k {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindRetired:
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

// AppError carries a client-safe message and an optional internal cause.
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func newAppError(kind ErrorKind, msg string, cause error) *AppError {
	return &AppError{Kind: kind, Message: msg, Err: cause}
}

func Unauthenticated(msg string) *AppError { return newAppError(KindUnauthenticated, msg, nil) }
func Forbidden(msg string) *AppError       { return newAppError(KindForbidden, msg, nil) }
func InvalidInput(msg string) *AppError    { return newAppError(KindInvalidInput, msg, nil) }
func NotFound(msg string) *AppError        { return newAppError(KindNotFound, msg, nil) }
func Retired(msg string) *AppError         { return newAppError(KindRetired, msg, nil) }

// Upstream wraps a failed store or adapter call. Only msg reaches the client.
func Upstream(msg string, cause error) *AppError {
	return newAppError(KindUpstream, msg, cause)
}

// AsAppError returns err as an *AppError, wrapping unknown errors as upstream failures.
func AsAppError(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return Upstream("Internal server error", err)
}
