package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP/Web Handler Metrics
var (
	// HTTPRequests tracks HTTP requests
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "processo_http_requests_total",
			Help: "Total HTTP requests by method, route, and status",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPDuration tracks HTTP request duration
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:                            "processo_http_request_duration_ms",
			Help:                            "HTTP request duration in milliseconds",
			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  100,
			NativeHistogramMinResetDuration: 1 * time.Hour,
		},
		[]string{"method", "route"},
	)

	// HTTPActiveRequests tracks active HTTP requests
	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "processo_http_active_requests",
			Help: "Number of active HTTP requests",
		},
	)

	// HTTPPanics tracks handler panics recovered by middleware
	HTTPPanics = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "processo_http_panics_total",
			Help: "Total handler panics recovered",
		},
	)
)

// Session Gate Metrics
var (
	// GateDecisions tracks gate outcomes per route class
	GateDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "processo_gate_decisions_total",
			Help: "Session gate decisions by route class and outcome",
		},
		[]string{"class", "outcome"},
	)
)

// Upstream API Metrics
var (
	// UpstreamCalls tracks calls to the upstream API
	UpstreamCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "processo_upstream_calls_total",
			Help: "Total upstream API calls by method, route (normalized path), and status code",
		},
		[]string{"method", "route", "status_code"},
	)

	// UpstreamDuration tracks upstream API latency
	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:                            "processo_upstream_duration_ms",
			Help:                            "Upstream API call duration in milliseconds",
			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  100,
			NativeHistogramMinResetDuration: 1 * time.Hour,
		},
		[]string{"method", "route"},
	)

	// UpstreamErrors tracks upstream failures by type
	UpstreamErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "processo_upstream_errors_total",
			Help: "Total upstream API errors by route and error type",
		},
		[]string{"route", "error_type"},
	)
)

// Proxy Handler Metrics
var (
	// ProxyOutcomes tracks how each local proxy route answered
	ProxyOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "processo_proxy_outcomes_total",
			Help: "Proxy handler outcomes by route name and outcome",
		},
		[]string{"route", "outcome"},
	)
)
