package middleware

import (
	"net/http"

	"github.com/devilmonastery/processo/web/internal/session"
)

// FetcherFunc builds the whoami fetcher for one request
type FetcherFunc func(w http.ResponseWriter, r *http.Request) session.Fetcher

// AttachViewer gives every request its own lazily loaded session.Viewer.
// Nothing is fetched until a handler asks for the user.
func AttachViewer(fetcherFor FetcherFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			v := session.NewViewer(fetcherFor(w, r))
			next.ServeHTTP(w, r.WithContext(session.WithViewer(r.Context(), v)))
		})
	}
}
