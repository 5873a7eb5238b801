package service

import (
	"fmt"
	"net/http"
)

// StatusError is a non-2xx response from the remote service. Message is the
// server-provided text, suitable for showing to the user verbatim.
type StatusError struct {
	Message string
	Method  string
	Path    string
	Status  int
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
}

// TransportError is a request that never produced a response.
type TransportError struct {
	Err    error
	Method string
	Path   string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
