package handlers

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/devilmonastery/processo/internal/client"
	"github.com/devilmonastery/processo/internal/domain/entities"
	"github.com/devilmonastery/processo/internal/pkg/logger"
	"github.com/devilmonastery/processo/web/internal/forms"
	"github.com/devilmonastery/processo/web/internal/proxy"
	"github.com/devilmonastery/processo/web/internal/render"
	"github.com/devilmonastery/processo/web/internal/session"
)

// Handler holds dependencies for all web handlers
type Handler struct {
	client          *client.Client
	sessionManager  *session.Manager
	templates       *render.TemplateSet
	gaMeasurementID string
	log             *slog.Logger
}

// New creates a new handler with dependencies
func New(apiClient *client.Client, sessionManager *session.Manager, templates *render.TemplateSet, gaMeasurementID string, log *slog.Logger) *Handler {
	return &Handler{
		client:          apiClient,
		sessionManager:  sessionManager,
		templates:       templates,
		gaMeasurementID: gaMeasurementID,
		log:             log.With(slog.String("component", "web_handler")),
	}
}

// getClient returns the upstream client bound to this request's token cookie.
// The underlying connection pool is shared by every request.
func (h *Handler) getClient(w http.ResponseWriter, r *http.Request) *client.Client {
	return h.client.WithTokenManager(session.NewSessionTokenManager(h.sessionManager, r, w))
}

// FetchViewer builds the whoami fetcher used by the viewer middleware
func (h *Handler) FetchViewer(w http.ResponseWriter, r *http.Request) session.Fetcher {
	return func(ctx context.Context) (*entities.User, error) {
		if !h.sessionManager.HasToken(r) {
			return nil, session.ErrNoToken
		}
		return h.getClient(w, r).WhoAmI(ctx)
	}
}

// currentUser returns the request's user, or nil when there is none
func (h *Handler) currentUser(r *http.Request) *entities.User {
	user, err := session.ViewerFromContext(r.Context()).User(r.Context())
	if err != nil {
		return nil
	}
	return user
}

// requireUser loads the viewer or answers the request itself.
// ok is false when the caller must return.
func (h *Handler) requireUser(w http.ResponseWriter, r *http.Request) (*entities.User, bool) {
	user, err := session.ViewerFromContext(r.Context()).User(r.Context())
	if err != nil {
		h.handleUpstreamError(w, r, err, "")
		return nil, false
	}
	return user, true
}

// newTemplateData creates a new template data map with standard fields populated.
// Callers can add page-specific fields to the returned map.
func (h *Handler) newTemplateData(w http.ResponseWriter, r *http.Request, page string) map[string]interface{} {
	data := h.newPublicTemplateData(w, r, page)
	data["User"] = h.currentUser(r)
	return data
}

// newPublicTemplateData is newTemplateData for signed-out pages. It never
// loads the viewer, so a stale cookie costs no upstream call.
func (h *Handler) newPublicTemplateData(w http.ResponseWriter, r *http.Request, page string) map[string]interface{} {
	return map[string]interface{}{
		"User":            nil,
		"CurrentPage":     page,
		"Flashes":         h.sessionManager.Flashes(r, w),
		"GAMeasurementID": h.gaMeasurementID,
		"Errors":          forms.FieldErrors{},
	}
}

// renderTemplate renders a page with a 200 status
func (h *Handler) renderTemplate(w http.ResponseWriter, name string, data interface{}) {
	h.renderStatus(w, http.StatusOK, name, data)
}

// renderStatus renders a page into a buffer first so a template failure
// never leaves a half-written response
func (h *Handler) renderStatus(w http.ResponseWriter, status int, name string, data interface{}) {
	if h.templates == nil {
		http.Error(w, "Templates not loaded", http.StatusInternalServerError)
		return
	}
	h.log.Debug("rendering template", slog.String("template", name))

	var buf bytes.Buffer
	if err := h.templates.Execute(&buf, name, data); err != nil {
		h.log.Error("template rendering failed",
			slog.String("template", name),
			slog.String("error", err.Error()))
		http.Error(w, "Erro interno do servidor", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// renderError renders the error page
func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	data := h.newTemplateData(w, r, "")
	data["Status"] = status
	data["Message"] = message
	h.renderStatus(w, status, "error.html", data)
}

// handleUpstreamError answers a failed page fetch. An expired or missing
// session clears the cookie and sends the user back to login.
func (h *Handler) handleUpstreamError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	log := logger.FromContext(r.Context(), h.log)

	switch {
	case errors.Is(err, session.ErrNoToken), errors.Is(err, client.ErrNotAuthenticated), client.IsUnauthorized(err):
		log.Info("session rejected by upstream, redirecting to login", slog.String("error", err.Error()))
		h.clearSessionAndRedirect(w, r, "/login?reason=expired")
	case errors.Is(err, context.Canceled):
		log.Debug("request canceled by client", slog.String("path", r.URL.Path))
	case client.IsNotFound(err) && notFound != "":
		h.renderError(w, r, http.StatusNotFound, notFound)
	case client.IsTimeout(err):
		log.Warn("upstream timeout", slog.String("error", err.Error()))
		h.renderError(w, r, http.StatusGatewayTimeout, proxy.MsgTimeout)
	default:
		log.Error("upstream call failed", slog.String("error", err.Error()))
		h.renderError(w, r, http.StatusBadGateway, proxy.MsgInternal)
	}
}

// clearSessionAndRedirect clears the token cookie and the viewer, then redirects
func (h *Handler) clearSessionAndRedirect(w http.ResponseWriter, r *http.Request, target string) {
	h.sessionManager.ClearToken(w)
	session.ViewerFromContext(r.Context()).Clear()
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// flash queues a message for the next page
func (h *Handler) flash(w http.ResponseWriter, r *http.Request, kind session.FlashKind, message string) {
	if err := h.sessionManager.AddFlash(r, w, kind, message); err != nil {
		h.log.Error("failed to save flash message", slog.String("error", err.Error()))
	}
}

// upstreamMessage extracts a user-facing message from a failed form submission
func upstreamMessage(err error, fallback string) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if client.IsTimeout(err) {
		return proxy.MsgTimeout
	}
	return fallback
}

// formError reports whether err is an upstream rejection of submitted data
// that should be shown on the form rather than as an error page
func formError(err error) bool {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return client.IsTimeout(err)
	}
	return apiErr.Status == http.StatusBadRequest ||
		apiErr.Status == http.StatusConflict ||
		apiErr.Status == http.StatusUnprocessableEntity
}
