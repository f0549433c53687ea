package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func noStatus(error) (int, string, bool) { return 0, "", false }

func TestClassifyError(t *testing.T) {
	protocol := &ProtocolError{StatusCode: 500, Body: "boom"}

	tests := []struct {
		name   string
		err    error
		status func(error) (int, string, bool)
		check  func(t *testing.T, got error)
	}{
		{
			name:   "wrapped protocol error passes through",
			err:    fmt.Errorf("POST \"/v1/messages\": %w", protocol),
			status: noStatus,
			check: func(t *testing.T, got error) {
				if got != protocol {
					t.Errorf("got %v, want original protocol error", got)
				}
			},
		},
		{
			name:   "sdk status error becomes protocol error",
			err:    errors.New("api error"),
			status: func(error) (int, string, bool) { return 401, "unauthorized", true },
			check: func(t *testing.T, got error) {
				var p *ProtocolError
				if !errors.As(got, &p) || p.StatusCode != 401 || p.Body != "unauthorized" {
					t.Errorf("got %v", got)
				}
			},
		},
		{
			name:   "context cancellation is a transport error",
			err:    context.Canceled,
			status: noStatus,
			check: func(t *testing.T, got error) {
				var tr *TransportError
				if !errors.As(got, &tr) || !errors.Is(got, context.Canceled) {
					t.Errorf("got %v", got)
				}
				if IsRetryable(got) {
					t.Error("cancellation should not be retryable")
				}
			},
		},
		{
			name:   "anything else is malformed",
			err:    errors.New("unexpected end of JSON input"),
			status: noStatus,
			check: func(t *testing.T, got error) {
				var m *MalformedResponseError
				if !errors.As(got, &m) {
					t.Errorf("got %T", got)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, classifyError(tt.err, tt.status))
		})
	}

	if classifyError(nil, noStatus) != nil {
		t.Error("nil should stay nil")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{&ProtocolError{StatusCode: 400}, false},
		{&ProtocolError{StatusCode: 429}, true},
		{&ProtocolError{StatusCode: 503}, true},
		{&MalformedResponseError{Reason: "x"}, false},
		{ErrMissingCredential, false},
		{&TransportError{Err: errors.New("connection refused")}, true},
	}
	for _, tt := range tests {
		if got := IsRetryable(tt.err); got != tt.want {
			t.Errorf("IsRetryable(%v) = %t, want %t", tt.err, got, tt.want)
		}
	}
}
