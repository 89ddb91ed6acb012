package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/devilmonastery/processo/internal/pkg/idgen"
	"github.com/devilmonastery/processo/internal/pkg/logger"
	"github.com/devilmonastery/processo/internal/pkg/metrics"
)

// RequestIDHeader carries the request id in and out
const RequestIDHeader = "X-Request-ID"

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	written     int64
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.wroteHeader = true
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Logging logs one structured line per request and records HTTP metrics
func Logging(log *slog.Logger) mux.MiddlewareFunc {
	log = log.With("component", "http")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = idgen.RequestID()
			}
			w.Header().Set(RequestIDHeader, requestID)
			matched := &matchedRoute{}
			ctx := logger.ContextWithRequestID(r.Context(), requestID)
			r = r.WithContext(context.WithValue(ctx, matchedRouteKey{}, matched))

			// Skip health checks and static files to reduce noise
			if r.URL.Path == "/health" || isStaticFile(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			metrics.HTTPActiveRequests.Inc()
			defer metrics.HTTPActiveRequests.Dec()

			wrapped := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)
			route := routeTemplate(r)
			if route == unmatchedRoute && matched.template != "" {
				route = matched.template
			}
			metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.statusCode)).Inc()
			metrics.HTTPDuration.WithLabelValues(r.Method, route).Observe(float64(duration.Milliseconds()))

			attrs := []any{
				"request_id", requestID,
				"method", r.Method,
				"path", r.URL.Path,
				"route", route,
				"status", wrapped.statusCode,
				"duration_ms", duration.Milliseconds(),
				"bytes", wrapped.written,
				"client_ip", clientIP(r),
				"user_agent", r.UserAgent(),
			}
			switch {
			case wrapped.statusCode >= 500:
				log.Error("request", attrs...)
			case wrapped.statusCode >= 400:
				log.Warn("request", attrs...)
			default:
				log.Info("request", attrs...)
			}
		})
	}
}

const unmatchedRoute = "unmatched"

type matchedRouteKey struct{}

type matchedRoute struct {
	template string
}

// TagRoute hands the matched route template back to Logging when Logging
// wraps the router from outside, where mux.CurrentRoute is not set.
func TagRoute(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m, ok := r.Context().Value(matchedRouteKey{}).(*matchedRoute); ok {
			m.template = routeTemplate(r)
		}
		next.ServeHTTP(w, r)
	})
}

// routeTemplate returns the mux path template so metrics don't explode on ids
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return unmatchedRoute
}

// clientIP prefers proxy headers over the socket address
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}

// isStaticFile checks if the path is a static file request
func isStaticFile(path string) bool {
	return strings.HasPrefix(path, "/static/")
}
