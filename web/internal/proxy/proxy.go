package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"

	"github.com/gorilla/mux"

	"github.com/devilmonastery/processo/internal/client"
	"github.com/devilmonastery/processo/internal/pkg/logger"
	"github.com/devilmonastery/processo/internal/pkg/metrics"
	"github.com/devilmonastery/processo/web/internal/session"
)

const maxRequestBytes = 1 << 20

// Handler forwards local API calls to the upstream API
type Handler struct {
	client         *client.Client
	sessionManager *session.Manager
	verifier       *session.Verifier
	log            *slog.Logger
}

// NewHandler creates a proxy handler. verifier may be nil.
func NewHandler(apiClient *client.Client, sessionManager *session.Manager, verifier *session.Verifier, log *slog.Logger) *Handler {
	return &Handler{
		client:         apiClient,
		sessionManager: sessionManager,
		verifier:       verifier,
		log:            log.With("component", "proxy"),
	}
}

// Register mounts every route of table on r
func (h *Handler) Register(r *mux.Router, table []Route) {
	for _, rt := range table {
		r.Handle(rt.Pattern, h.Route(rt)).Methods(rt.Method)
		if rt.CORS {
			r.HandleFunc(rt.Pattern, preflight).Methods(http.MethodOptions)
		}
	}
}

// Route returns the forwarding handler for rt
func (h *Handler) Route(rt Route) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rt.CORS {
			setCORSHeaders(w)
		}
		outcome := h.forward(w, r, rt)
		metrics.RecordProxyOutcome(rt.Name, outcome)
	})
}

func (h *Handler) forward(w http.ResponseWriter, r *http.Request, rt Route) string {
	log := logger.FromContext(r.Context(), h.log).With("route", rt.Name)

	tm := session.NewSessionTokenManager(h.sessionManager, r, w)
	if rt.Auth {
		token, err := tm.GetToken()
		if err != nil {
			writeError(w, rt.Shape, http.StatusUnauthorized, CodeUnauthorized, MsgUnauthorized)
			return "unauthorized"
		}
		if h.verifier != nil {
			if _, err := h.verifier.Verify(token); err != nil {
				log.Debug("token rejected locally", "error", err)
				writeError(w, rt.Shape, http.StatusUnauthorized, CodeUnauthorized, MsgUnauthorized)
				return "unauthorized"
			}
		}
	}

	payload, err := readBody(r, rt)
	if err != nil {
		log.Error("failed to read request body", "error", err)
		writeError(w, rt.Shape, http.StatusInternalServerError, CodeInternal, MsgInternal)
		return "internal_error"
	}
	if missing := missingField(payload, rt.Required); missing != nil {
		writeError(w, rt.Shape, http.StatusBadRequest, CodeBadRequest, missing.Message)
		return "bad_request"
	}

	resp, err := h.client.WithTokenManager(tm).Do(r.Context(), client.Request{
		Method: rt.upstreamMethod(),
		Path:   upstreamPath(rt.UpstreamPath, mux.Vars(r)),
		Body:   payload,
		Auth:   rt.Auth,
	})
	switch {
	case err == nil:
	case errors.Is(err, client.ErrNotAuthenticated):
		writeError(w, rt.Shape, http.StatusUnauthorized, CodeUnauthorized, MsgUnauthorized)
		return "unauthorized"
	case client.IsTimeout(err):
		log.Warn("upstream timeout", "error", err)
		writeError(w, rt.Shape, http.StatusGatewayTimeout, CodeGatewayTimeout, MsgTimeout)
		return "timeout"
	case errors.Is(err, context.Canceled):
		log.Debug("request canceled by caller", "error", err)
		return "canceled"
	default:
		log.Error("upstream call failed", "error", err)
		writeError(w, rt.Shape, http.StatusInternalServerError, CodeInternal, MsgInternal)
		return "internal_error"
	}

	if rt.Passthrough {
		return h.passthrough(w, tm, rt, resp, log)
	}
	if !resp.OK() {
		return h.rejected(w, rt, resp, log)
	}

	if rt.SuccessBody != nil {
		writeJSON(w, http.StatusOK, rt.SuccessBody)
		return "ok"
	}
	out, err := jsonBody(resp.Body)
	if err != nil {
		log.Error("upstream returned invalid JSON", "status", resp.Status, "error", err)
		writeError(w, rt.Shape, http.StatusInternalServerError, CodeInternal, MsgInternal)
		return "internal_error"
	}
	writeRaw(w, http.StatusOK, out)
	return "ok"
}

// passthrough re-emits status and body, storing the session token on success
func (h *Handler) passthrough(w http.ResponseWriter, tm client.TokenManager, rt Route, resp *client.Response, log *slog.Logger) string {
	out, err := jsonBody(resp.Body)
	if err != nil {
		log.Error("upstream returned invalid JSON", "status", resp.Status, "error", err)
		writeError(w, rt.Shape, http.StatusInternalServerError, CodeInternal, MsgInternal)
		return "internal_error"
	}

	if rt.SetsSession && resp.OK() {
		var signin struct {
			Token string `json:"token"`
		}
		if json.Unmarshal(out, &signin) == nil && signin.Token != "" {
			_ = tm.SaveToken(signin.Token)
		}
	}

	writeRaw(w, resp.Status, out)
	if resp.OK() {
		return "ok"
	}
	return "upstream_error"
}

// rejected maps a non-2xx upstream answer
func (h *Handler) rejected(w http.ResponseWriter, rt Route, resp *client.Response, log *slog.Logger) string {
	if len(resp.Body) > 0 && !json.Valid(resp.Body) {
		log.Error("upstream error body is not JSON", "status", resp.Status)
		writeError(w, rt.Shape, http.StatusInternalServerError, CodeInternal, MsgInternal)
		return "internal_error"
	}

	apiErr := client.ParseAPIError(resp.Status, resp.Body)
	log.Info("upstream rejected request", "status", resp.Status, "code", apiErr.Code, "message", apiErr.Message)

	if rt.Codes != nil {
		m := rt.Codes.Lookup(apiErr.Code)
		writeError(w, rt.Shape, m.Status, m.Code, m.Message)
		return "upstream_error"
	}

	message := apiErr.Message
	if message == "" {
		message = rt.Fallback
	}
	writeError(w, rt.Shape, resp.Status, apiErr.Code, message)
	return "upstream_error"
}

// readBody returns the inbound JSON for methods that carry one. The bytes are
// forwarded as sent unless the route restricts fields, in which case the kept
// values are copied without being decoded.
func readBody(r *http.Request, rt Route) ([]byte, error) {
	if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
		return nil, nil
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if !json.Valid(data) {
		return nil, errors.New("decode body: invalid JSON")
	}
	if len(rt.Fields) == 0 {
		return data, nil
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	restricted := make(map[string]json.RawMessage, len(rt.Fields))
	for _, f := range rt.Fields {
		if v, ok := body[f]; ok {
			restricted[f] = v
		}
	}
	out, err := json.Marshal(restricted)
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	return out, nil
}

// missingField reports the first required field that is absent, null or an
// empty string. Bodies that are not objects carry no fields.
func missingField(payload []byte, required []Required) *Required {
	if len(required) == 0 {
		return nil
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(payload, &body); err != nil {
		return &required[0]
	}
	for i, req := range required {
		v := bytes.TrimSpace(body[req.Field])
		if len(v) == 0 || bytes.Equal(v, []byte("null")) || bytes.Equal(v, []byte(`""`)) {
			return &required[i]
		}
	}
	return nil
}

var pathVar = regexp.MustCompile(`\{([a-zA-Z_]+)\}`)

// upstreamPath fills {var} placeholders from the local path variables
func upstreamPath(template string, vars map[string]string) string {
	return pathVar.ReplaceAllStringFunc(template, func(m string) string {
		return url.PathEscape(vars[m[1:len(m)-1]])
	})
}

// jsonBody validates an upstream body; empty bodies become {}
func jsonBody(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return []byte("{}"), nil
	}
	if !json.Valid(data) {
		return nil, errors.New("invalid JSON")
	}
	return data, nil
}
