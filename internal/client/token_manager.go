package client

// TokenManager is an interface for managing authentication tokens
// Different implementations can store tokens in files, cookies, etc.
type TokenManager interface {
	// GetToken returns the current session token
	GetToken() (token string, err error)

	// SaveToken stores the session token
	SaveToken(token string) error

	// ClearToken removes stored credentials
	ClearToken() error
}

// StaticToken is a read-only TokenManager around a single token value
type StaticToken string

func (s StaticToken) GetToken() (string, error) {
	if s == "" {
		return "", ErrNotAuthenticated
	}
	return string(s), nil
}

func (s StaticToken) SaveToken(string) error { return nil }

func (s StaticToken) ClearToken() error { return nil }
