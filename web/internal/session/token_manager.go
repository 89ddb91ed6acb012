package session

import (
	"net/http"

	"github.com/devilmonastery/processo/internal/client"
)

// SessionTokenManager implements client.TokenManager on top of the token cookie
type SessionTokenManager struct {
	manager *Manager
	request *http.Request
	writer  http.ResponseWriter
}

// NewSessionTokenManager creates a new cookie-based token manager
// Note: This must be created per-request since it needs access to the request/response
func NewSessionTokenManager(manager *Manager, r *http.Request, w http.ResponseWriter) client.TokenManager {
	return &SessionTokenManager{
		manager: manager,
		request: r,
		writer:  w,
	}
}

// GetToken returns the current session token from the request cookie
func (s *SessionTokenManager) GetToken() (string, error) {
	return s.manager.GetToken(s.request)
}

// SaveToken writes the token cookie on the response
func (s *SessionTokenManager) SaveToken(token string) error {
	s.manager.SetToken(s.writer, token)
	return nil
}

// ClearToken deletes the token cookie
func (s *SessionTokenManager) ClearToken() error {
	s.manager.ClearToken(s.writer)
	return nil
}
