// Package core carries the HTTP plumbing shared by all modules: the JSON
// response envelope, request decoding and error-to-status mapping.
package core

import "net/http"

// HTTPError is an error carrying an HTTP status and a user-facing message.
// The wrapped cause, if any, is included in the response body but the
// status and message stay authoritative.
type HTTPError struct {
	Code    int
	Message string
	Err     error
}

func (e HTTPError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e HTTPError) Unwrap() error {
	return e.Err
}

// WithError attaches an underlying cause to the error.
func (e HTTPError) WithError(err error) HTTPError {
	e.Err = err
	return e
}

func NewHTTPError(code int, message string) HTTPError {
	return HTTPError{Code: code, Message: message}
}

func BadRequest(message string) HTTPError {
	return NewHTTPError(http.StatusBadRequest, message)
}

func Unauthorized(message string) HTTPError {
	return NewHTTPError(http.StatusUnauthorized, message)
}

func Forbidden(message string) HTTPError {
	return NewHTTPError(http.StatusForbidden, message)
}

func NotFound(message string) HTTPError {
	return NewHTTPError(http.StatusNotFound, message)
}

func BadGateway(message string) HTTPError {
	return NewHTTPError(http.StatusBadGateway, message)
}

func Internal(message string) HTTPError {
	return NewHTTPError(http.StatusInternalServerError, message)
}
