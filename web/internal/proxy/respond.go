package proxy

import (
	"encoding/json"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// writeError answers in the route's error shape
func writeError(w http.ResponseWriter, shape Shape, status int, code, message string) {
	if shape == ShapeCoded {
		if code == "" {
			code = codeForStatus(status)
		}
		writeJSON(w, status, map[string]string{"message": message, "code": code})
		return
	}
	writeJSON(w, status, map[string]string{"error": message})
}

func codeForStatus(status int) string {
	switch {
	case status == http.StatusUnauthorized:
		return CodeUnauthorized
	case status == http.StatusGatewayTimeout:
		return CodeGatewayTimeout
	case status >= 500:
		return CodeInternal
	default:
		return CodeBadRequest
	}
}

func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
}

// preflight answers OPTIONS for CORS-enabled routes
func preflight(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	writeJSON(w, http.StatusOK, map[string]any{})
}
