package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gorilla/mux"

	"github.com/devilmonastery/processo/internal/pkg/logger"
	"github.com/devilmonastery/processo/internal/pkg/metrics"
)

// Recovery turns handler panics into a generic 500. API paths get a JSON
// body, pages get plain text.
func Recovery(log *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				metrics.HTTPPanics.Inc()
				logger.FromContext(r.Context(), log).Error("panic in handler",
					"method", r.Method,
					"path", r.URL.Path,
					"panic", rec,
					"stack", string(debug.Stack()),
				)

				if strings.HasPrefix(r.URL.Path, "/api/") {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"message": "Erro ao processar a requisição",
						"code":    "INTERNAL_ERROR",
					})
					return
				}
				http.Error(w, "Erro interno do servidor", http.StatusInternalServerError)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
