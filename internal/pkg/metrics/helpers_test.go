package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestNormalizeRoute(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/api/process", "/api/process"},
		{"/api/process/65f1c2", "/api/process/:id"},
		{"/api/users/whoami", "/api/users/whoami"},
		{"/api/users/change-password", "/api/users/change-password"},
		{"/api/users/abc123", "/api/users/:id"},
		{"/api/auth/signin", "/api/auth/signin"},
	}
	for _, tt := range tests {
		if got := NormalizeRoute(tt.in); got != tt.want {
			t.Errorf("NormalizeRoute(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClassifyUpstreamError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		err    error
		want   string
	}{
		{"deadline", 0, fmt.Errorf("call: %w", context.DeadlineExceeded), "timeout"},
		{"canceled", 0, context.Canceled, "canceled"},
		{"refused", 0, errors.New("dial tcp: connection refused"), "connection"},
		{"other", 0, errors.New("boom"), "network"},
		{"not found", 404, nil, "not_found"},
		{"unauthorized", 401, nil, "unauthorized"},
		{"server", 502, nil, "server_error"},
		{"teapot", 418, nil, "client_error"},
		{"ok", 200, nil, "none"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyUpstreamError(tt.status, tt.err); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
