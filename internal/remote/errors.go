package remote

import "fmt"

// TransportErrorKind distinguishes a connection-level failure from a timeout.
type TransportErrorKind string

const (
	TransportNetwork TransportErrorKind = "network"
	TransportTimeout TransportErrorKind = "timeout"
)

// TransportError means the remote endpoint could not be reached at all.
type TransportError struct {
	Kind TransportErrorKind
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s error connecting to remote service: %v", e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RemoteError means the remote service was reachable but rejected the request.
// The caller decides whether this constitutes action failure.
type RemoteError struct {
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote service returned status %d: %s", e.StatusCode, e.Body)
}

// DecodeError means a 2xx response carried a body that could not be parsed.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("unable to parse remote service response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
