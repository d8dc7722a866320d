package apiclient

import (
	"errors"
	"fmt"
)

// ErrSessionExpired is returned once the refresh protocol has given up:
// either no refresh token was persisted or the refresh call itself was
// rejected. Persisted tokens are already cleared when callers see it.
var ErrSessionExpired = errors.New("your session has expired, please log in again")

// ServerError is a response the server actually produced: a status code
// plus the message from the response envelope, when one was present.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("server error (%d)", e.StatusCode)
}

// NetworkError means the request went out but no response came back.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "unable to reach the server: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error { return e.Err }

// RequestError means the request could not be built or dispatched at
// all, before anything touched the wire.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string {
	return "request could not be sent: " + e.Err.Error()
}

func (e *RequestError) Unwrap() error { return e.Err }

// ErrorMessage extracts the server-provided message from err, falling
// back to the given default. Stores use this to fill their error field.
func ErrorMessage(err error, fallback string) string {
	var se *ServerError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	if errors.Is(err, ErrSessionExpired) {
		return ErrSessionExpired.Error()
	}
	return fallback
}
