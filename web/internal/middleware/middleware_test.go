package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"github.com/devilmonastery/processo/internal/domain/entities"
	"github.com/devilmonastery/processo/internal/pkg/logger"
	"github.com/devilmonastery/processo/web/internal/session"
)

func TestLoggingSetsRequestIDAndRoute(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, 0, "json")

	r := mux.NewRouter()
	r.Use(Logging(log))
	r.HandleFunc("/dashboard/processos/{id}", func(w http.ResponseWriter, r *http.Request) {
		if logger.RequestIDFromContext(r.Context()) == "" {
			t.Error("expected request id in context")
		}
		w.WriteHeader(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard/processos/99", nil))

	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("expected X-Request-ID response header")
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid log line %q: %v", buf.String(), err)
	}
	if entry["route"] != "/dashboard/processos/{id}" {
		t.Errorf("route = %v", entry["route"])
	}
	if entry["status"] != float64(http.StatusNotFound) {
		t.Errorf("status = %v", entry["status"])
	}
}

func TestLoggingOutsideRouter(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, 0, "json")

	r := mux.NewRouter()
	r.Use(TagRoute)
	r.HandleFunc("/dashboard/processos/{id}", func(w http.ResponseWriter, r *http.Request) {}).Methods(http.MethodGet)
	h := Logging(log)(r)

	tests := []struct {
		path       string
		method     string
		wantRoute  string
		wantStatus int
	}{
		{"/dashboard/processos/7", http.MethodGet, "/dashboard/processos/{id}", http.StatusOK},
		{"/dashboard/unknown", http.MethodGet, "unmatched", http.StatusNotFound},
		{"/dashboard/processos/7", http.MethodPost, "unmatched", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		buf.Reset()
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("%s %s: invalid log line %q: %v", tt.method, tt.path, buf.String(), err)
		}
		if entry["route"] != tt.wantRoute || entry["status"] != float64(tt.wantStatus) {
			t.Errorf("%s %s: route = %v status = %v", tt.method, tt.path, entry["route"], entry["status"])
		}
	}
}

func TestLoggingKeepsInboundRequestID(t *testing.T) {
	r := mux.NewRouter()
	r.Use(Logging(logger.Discard()))
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if got := rec.Header().Get(RequestIDHeader); got != "abc" {
		t.Errorf("expected inbound request id to be echoed, got %q", got)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")
	if got := clientIP(req); got != "10.0.0.1" {
		t.Errorf("clientIP = %q", got)
	}
}

func TestRecovery(t *testing.T) {
	panicky := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	h := Recovery(logger.Discard())(panicky)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/process", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected JSON body: %v", err)
	}
	if body["code"] != "INTERNAL_ERROR" {
		t.Errorf("code = %q", body["code"])
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	if rec.Code != http.StatusInternalServerError || !strings.Contains(rec.Body.String(), "Erro interno") {
		t.Errorf("page panic = %d %q", rec.Code, rec.Body.String())
	}
}

func TestAttachViewer(t *testing.T) {
	fetches := 0
	mw := AttachViewer(func(w http.ResponseWriter, r *http.Request) session.Fetcher {
		return func(ctx context.Context) (*entities.User, error) {
			fetches++
			return &entities.User{ID: "u-1"}, nil
		}
	})

	var got *entities.User
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v := session.ViewerFromContext(r.Context())
		got, _ = v.User(r.Context())
		_, _ = v.User(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	if got == nil || got.ID != "u-1" {
		t.Errorf("viewer user = %+v", got)
	}
	if fetches != 1 {
		t.Errorf("expected a single fetch, got %d", fetches)
	}
}
