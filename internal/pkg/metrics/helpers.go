package metrics

import (
	"context"
	"errors"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// RecordUpstreamCall records upstream API call metrics consistently
// route: normalized upstream path (e.g., "/api/process/:id")
// statusCode: HTTP status returned (0 when the call never produced a response)
// err: transport error from the call (nil if a response was received)
func RecordUpstreamCall(method, route string, statusCode int, duration time.Duration, err error) {
	UpstreamCalls.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	UpstreamDuration.WithLabelValues(method, route).Observe(float64(duration.Milliseconds()))

	if err != nil || statusCode >= 400 {
		UpstreamErrors.WithLabelValues(route, ClassifyUpstreamError(statusCode, err)).Inc()
	}
}

// RecordGateDecision records a session gate outcome
func RecordGateDecision(class, outcome string) {
	GateDecisions.WithLabelValues(class, outcome).Inc()
}

// RecordProxyOutcome records how a proxy route answered
func RecordProxyOutcome(route, outcome string) {
	ProxyOutcomes.WithLabelValues(route, outcome).Inc()
}

// ClassifyUpstreamError categorizes upstream failures for metrics
func ClassifyUpstreamError(statusCode int, err error) string {
	if err != nil {
		var netErr net.Error
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return "timeout"
		case errors.Is(err, context.Canceled):
			return "canceled"
		case errors.As(err, &netErr) && netErr.Timeout():
			return "timeout"
		case strings.Contains(strings.ToLower(err.Error()), "connection"):
			return "connection"
		case strings.Contains(err.Error(), "tls"), strings.Contains(err.Error(), "TLS"):
			return "tls"
		default:
			return "network"
		}
	}

	switch {
	case statusCode == 400:
		return "bad_request"
	case statusCode == 401:
		return "unauthorized"
	case statusCode == 403:
		return "forbidden"
	case statusCode == 404:
		return "not_found"
	case statusCode == 429:
		return "rate_limited"
	case statusCode >= 500:
		return "server_error"
	case statusCode >= 400:
		return "client_error"
	default:
		return "none"
	}
}

var routePatterns = []struct {
	regex   *regexp.Regexp
	replace string
}{
	{regexp.MustCompile(`^/api/process/[^/]+`), "/api/process/:id"},
	{regexp.MustCompile(`^/api/users/[^/]+$`), "/api/users/:id"},
}

var fixedUserRoutes = map[string]bool{
	"/api/users/whoami":                  true,
	"/api/users/verify-email":            true,
	"/api/users/send-email-verification": true,
	"/api/users/change-password":         true,
}

// NormalizeRoute replaces IDs in upstream paths with placeholders
// This prevents high cardinality in metrics while still providing useful aggregation
func NormalizeRoute(path string) string {
	if fixedUserRoutes[path] {
		return path
	}
	normalized := path
	for _, p := range routePatterns {
		normalized = p.regex.ReplaceAllString(normalized, p.replace)
	}
	return normalized
}
