package gateway

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport means no response was received.
	ErrTransport = errors.New("transport failure")
	// ErrServer means the server answered with a non-2xx status.
	ErrServer = errors.New("server failure")
	// ErrMalformed means a 2xx body could not be decoded.
	ErrMalformed = errors.New("malformed payload")
)

// StatusError carries the status of a failed call. The body is ignored.
type StatusError struct {
	Method string
	Path   string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: server returned status %d", e.Method, e.Path, e.Code)
}

func (e *StatusError) Is(target error) bool { return target == ErrServer }
