package clients

import (
	"errors"
	"fmt"
)

// TransportError reports a call that did not produce a 2xx response.
// Status is 0 when the request never got a response at all.
type TransportError struct {
	Service string
	Method  string
	Path    string
	Status  int
	Err     error
}

func (e *TransportError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s %s: %v", e.Service, e.Method, e.Path, e.Err)
	}
	return fmt.Sprintf("%s %s %s: unexpected status %d", e.Service, e.Method, e.Path, e.Status)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError reports a 2xx response whose body was not valid JSON.
type ParseError struct {
	Service string
	Path    string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s %s: decode response: %v", e.Service, e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsFailure reports whether err came from either transport failure channel.
func IsFailure(err error) bool {
	var te *TransportError
	var pe *ParseError
	return errors.As(err, &te) || errors.As(err, &pe)
}

// StatusCode returns the HTTP status carried by a TransportError, or 0.
func StatusCode(err error) int {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Status
	}
	return 0
}
