// Package apperr defines the error taxonomy surfaced by the API:
// not-found (which deliberately covers "exists but not yours"),
// bad-request validation failures, and token failures.
package apperr

import (
	"errors"
	"net/http"
)

type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string { return e.Detail }

func NotFound(detail string) *Error {
	return &Error{Status: http.StatusNotFound, Detail: detail}
}

func BadRequest(detail string) *Error {
	return &Error{Status: http.StatusBadRequest, Detail: detail}
}

func Unauthorized(detail string) *Error {
	return &Error{Status: http.StatusUnauthorized, Detail: detail}
}

// As unwraps err into an *Error if it is one (directly or wrapped).
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
