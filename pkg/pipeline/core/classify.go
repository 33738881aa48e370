package core

import (
	"context"
	"errors"
	"net"
)

// Classify maps an error onto the closed failure taxonomy.
//
// Adapters that already know the failure class wrap their errors in
// CallError; those win. Otherwise a few transport-level signals are
// recognized (deadline, net timeouts and dial failures). Everything
// else is unclassified, which callers must treat as fatal.
func Classify(err error) FailureClass {
	if err == nil {
		return FailureUnclassified
	}

	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Class
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}

	var ne net.Error
	if errors.As(err, &ne) {
		if ne.Timeout() {
			return FailureTimeout
		}
		return FailureConnectivity
	}

	var oe *net.OpError
	if errors.As(err, &oe) {
		return FailureConnectivity
	}

	return FailureUnclassified
}
