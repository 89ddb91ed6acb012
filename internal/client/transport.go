package client

import (
	"net/http"
	"time"

	"github.com/devilmonastery/processo/internal/pkg/metrics"
)

// metricsTransport wraps an http.RoundTripper to collect metrics on upstream API calls
type metricsTransport struct {
	base http.RoundTripper
}

// NewMetricsTransport creates a new transport wrapper that collects metrics
// for every upstream call. Routes are normalized so IDs do not explode label cardinality.
func NewMetricsTransport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &metricsTransport{base: base}
}

// RoundTrip implements http.RoundTripper, wrapping the base transport with metrics collection
func (t *metricsTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	duration := time.Since(start)

	statusCode := 0
	if resp != nil {
		statusCode = resp.StatusCode
	}

	metrics.RecordUpstreamCall(req.Method, metrics.NormalizeRoute(req.URL.Path), statusCode, duration, err)
	return resp, err
}
