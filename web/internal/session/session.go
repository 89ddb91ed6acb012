package session

import (
	"encoding/gob"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
)

const (
	// TokenCookieName is the name of the cookie holding the backend session token
	TokenCookieName = "token"

	// TokenMaxAge is the token cookie lifetime in seconds (7 days)
	TokenMaxAge = 7 * 24 * 60 * 60

	// FlashSessionName is the name of the signed cookie used for flash messages
	FlashSessionName = "processo_flash"
)

// FlashKind selects the styling of a flash message
type FlashKind string

const (
	FlashSuccess FlashKind = "success"
	FlashError   FlashKind = "error"
	FlashInfo    FlashKind = "info"
)

// Flash is a one-shot message shown on the next rendered page
type Flash struct {
	Kind    FlashKind
	Message string
}

func init() {
	gob.Register(Flash{})
}

// Manager owns the token cookie contract and the flash message store
type Manager struct {
	secure  bool
	flashes *sessions.CookieStore
}

// NewManager creates a new session manager.
// secretKey signs the flash cookie; secure marks cookies Secure (production).
func NewManager(secretKey []byte, secure bool) *Manager {
	store := sessions.NewCookieStore(secretKey)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   5 * 60,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}

	return &Manager{
		secure:  secure,
		flashes: store,
	}
}

// GetToken retrieves the session token from its cookie
func (m *Manager) GetToken(r *http.Request) (string, error) {
	c, err := r.Cookie(TokenCookieName)
	if err != nil || c.Value == "" {
		return "", ErrNoToken
	}
	return c.Value, nil
}

// HasToken checks if a non-empty token cookie exists
func (m *Manager) HasToken(r *http.Request) bool {
	_, err := m.GetToken(r)
	return err == nil
}

// TokenCookie builds the cookie that stores token
func (m *Manager) TokenCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     TokenCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   TokenMaxAge,
		Expires:  time.Now().Add(TokenMaxAge * time.Second),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// SetToken stores the session token in its cookie
func (m *Manager) SetToken(w http.ResponseWriter, token string) {
	http.SetCookie(w, m.TokenCookie(token))
}

// ClearToken instructs the browser to delete the token cookie
func (m *Manager) ClearToken(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// AddFlash queues a message for the next page render
func (m *Manager) AddFlash(r *http.Request, w http.ResponseWriter, kind FlashKind, message string) error {
	sess, err := m.flashes.Get(r, FlashSessionName)
	if err != nil {
		// A cookie signed with an old secret is replaced by a fresh session
		sess, _ = m.flashes.New(r, FlashSessionName)
	}
	sess.AddFlash(Flash{Kind: kind, Message: message})
	return sess.Save(r, w)
}

// Flashes pops all queued messages
func (m *Manager) Flashes(r *http.Request, w http.ResponseWriter) []Flash {
	sess, err := m.flashes.Get(r, FlashSessionName)
	if err != nil {
		return nil
	}
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}

	out := make([]Flash, 0, len(raw))
	for _, v := range raw {
		if f, ok := v.(Flash); ok {
			out = append(out, f)
		}
	}
	_ = sess.Save(r, w)
	return out
}
