package core

import "fmt"

// FailureClass is the closed classification of external-call failures.
// The retry decision is derived from the class alone, never from the
// concrete error type of whatever client library produced it.
type FailureClass int

const (
	// FailureUnclassified is any failure the classifier does not
	// recognize. Treated as fatal: an unknown error must never loop.
	FailureUnclassified FailureClass = iota
	FailureRateLimited
	FailureTimeout
	FailureConnectivity
	FailureServer
	FailureBadRequest
)

func (c FailureClass) String() string {
	switch c {
	case FailureRateLimited:
		return "rate-limited"
	case FailureTimeout:
		return "timeout"
	case FailureConnectivity:
		return "connectivity"
	case FailureServer:
		return "server"
	case FailureBadRequest:
		return "bad-request"
	default:
		return "unclassified"
	}
}

// Retryable reports whether a failure of this class may be retried
// with backoff. The partition is a hard contract: fatal classes must
// never be retried.
func (c FailureClass) Retryable() bool {
	switch c {
	case FailureRateLimited, FailureTimeout, FailureConnectivity, FailureServer:
		return true
	default:
		return false
	}
}

// CallError wraps an external-call failure with its classification.
// Collaborator adapters construct these at the boundary so the call
// engine can classify without knowing any client library types.
type CallError struct {
	Class FailureClass
	Err   error
}

func (e *CallError) Error() string {
	if e == nil || e.Err == nil {
		return "call error"
	}
	return fmt.Sprintf("%s: %s", e.Class, e.Err.Error())
}

func (e *CallError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// RateLimited marks err as a rate-limit failure.
func RateLimited(err error) error { return &CallError{Class: FailureRateLimited, Err: err} }

// Timeout marks err as a timeout failure.
func Timeout(err error) error { return &CallError{Class: FailureTimeout, Err: err} }

// Connectivity marks err as a transient connectivity failure.
func Connectivity(err error) error { return &CallError{Class: FailureConnectivity, Err: err} }

// Server marks err as a 5xx-class server failure.
func Server(err error) error { return &CallError{Class: FailureServer, Err: err} }

// BadRequest marks err as a malformed-request failure.
func BadRequest(err error) error { return &CallError{Class: FailureBadRequest, Err: err} }
