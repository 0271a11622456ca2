package router

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKind_Code(t *testing.T) {
	assert.Equal(t, "8_LONG_PROMPT_ERROR", KindLongPrompt.Code())
	assert.Equal(t, "9_UNSUPPORTED_OPERATION", KindUnsupportedOperation.Code())
	assert.Equal(t, "10_ROUTE_ERROR", KindRouteError.Code())
	assert.Equal(t, "0_UNKNOWN_ERROR", KindUnknown.Code())
}

func TestKindOf(t *testing.T) {
	transport := &TransportError{Kind: KindTimeout, Op: "master post", Err: context.DeadlineExceeded}
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{name: "nil", err: nil, want: KindUnknown},
		{name: "admission", err: &AdmissionError{Kind: KindLongPrompt}, want: KindLongPrompt},
		{name: "route", err: &RouteError{Kind: KindRouteError}, want: KindRouteError},
		{name: "route wrapping transport keeps own kind",
			err:  &RouteError{Kind: KindConnection, Err: &TransportError{Kind: KindMasterRejected}},
			want: KindConnection},
		{name: "transport", err: transport, want: KindTimeout},
		{name: "wrapped transport", err: fmt.Errorf("outer: %w", transport), want: KindTimeout},
		{name: "bare cancel", err: context.Canceled, want: KindCancelled},
		{name: "bare deadline", err: context.DeadlineExceeded, want: KindTimeout},
		{name: "plain", err: errors.New("x"), want: KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestRouteError_UnwrapsCause(t *testing.T) {
	cause := &TransportError{Kind: KindConnection, Op: "master post", Err: errors.New("refused")}
	err := &RouteError{Kind: KindConnection, RequestID: 3, Stage: "master", Message: "master route failed", Err: cause}

	var got *TransportError
	assert.True(t, errors.As(err, &got))
	assert.Contains(t, err.Error(), "request <3>")
	assert.Contains(t, err.Error(), "refused")
}

func TestContextError(t *testing.T) {
	assert.NoError(t, contextError(context.Background(), 1, "route"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := contextError(ctx, 1, "domain")
	var routeErr *RouteError
	assert.True(t, errors.As(err, &routeErr))
	assert.Equal(t, KindCancelled, routeErr.Kind)
	assert.Equal(t, "domain", routeErr.Stage)
}
