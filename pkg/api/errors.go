package api

import "fmt"

// StatusError is a non-2xx reply from the service. It matches one of the
// model error sentinels with errors.Is.
type StatusError struct {
	Code    int
	Message string
	Method  string
	Path    string
	kind    error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: %s %s: %d %s", e.kind, e.Method, e.Path, e.Code, e.Message)
}

func (e *StatusError) Unwrap() error {
	return e.kind
}
