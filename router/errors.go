package router

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind is the stable, machine-readable classification carried by every
// routing failure. Codes never change once assigned.
type ErrorKind int

const (
	KindUnknown              ErrorKind = 0
	KindLongPrompt           ErrorKind = 8
	KindUnsupportedOperation ErrorKind = 9
	KindRouteError           ErrorKind = 10
	KindCancelled            ErrorKind = 11
	KindTimeout              ErrorKind = 12
	KindConnection           ErrorKind = 13
	KindMasterRejected       ErrorKind = 14
)

func (k ErrorKind) String() string {
	switch k {
	case KindLongPrompt:
		return "LONG_PROMPT_ERROR"
	case KindUnsupportedOperation:
		return "UNSUPPORTED_OPERATION"
	case KindRouteError:
		return "ROUTE_ERROR"
	case KindCancelled:
		return "CANCELLED_ERROR"
	case KindTimeout:
		return "TIMEOUT_ERROR"
	case KindConnection:
		return "CONNECTION_ERROR"
	case KindMasterRejected:
		return "MASTER_REJECTED_ERROR"
	case KindUnknown:
		return "UNKNOWN_ERROR"
	default:
		return "UNKNOWN_ERROR"
	}
}

// Code renders the kind as "<code>_<NAME>", the form used for metric tags.
func (k ErrorKind) Code() string {
	return fmt.Sprintf("%d_%s", int(k), k.String())
}

// AdmissionError rejects a request before any routing call is made.
type AdmissionError struct {
	Kind      ErrorKind
	RequestID int64
	Message   string
}

func (e *AdmissionError) Error() string {
	return fmt.Sprintf("%s: request <%d> %s", e.Kind, e.RequestID, e.Message)
}

// RouteError is a terminal routing failure. Err holds the underlying transport
// error, if any; Kind is copied from it rather than replaced.
type RouteError struct {
	Kind      ErrorKind
	RequestID int64
	Stage     string // "master", "domain" or "route"
	Message   string
	Err       error
}

func (e *RouteError) Error() string {
	msg := fmt.Sprintf("%s: request <%d> %s", e.Kind, e.RequestID, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RouteError) Unwrap() error { return e.Err }

// TransportError is returned by network collaborators (the master client) to
// distinguish connectivity problems from logical rejection.
type TransportError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// KindOf classifies err. Typed router errors report their own kind; bare context
// errors map to KindCancelled or KindTimeout; anything else is KindUnknown.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	var admErr *AdmissionError
	if errors.As(err, &admErr) {
		return admErr.Kind
	}
	var routeErr *RouteError
	if errors.As(err, &routeErr) {
		return routeErr.Kind
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transportErr.Kind
	}
	switch {
	case errors.Is(err, context.Canceled):
		return KindCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	}
	return KindUnknown
}

// contextError converts a done context into a RouteError for the given stage.
func contextError(ctx context.Context, requestID int64, stage string) error {
	err := ctx.Err()
	if err == nil {
		return nil
	}
	return &RouteError{
		Kind:      KindOf(err),
		RequestID: requestID,
		Stage:     stage,
		Message:   "routing interrupted",
		Err:       err,
	}
}
