package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNoToken is returned when no token cookie is present
	ErrNoToken = errors.New("no token in session")

	// ErrInvalidToken is returned when the token cannot be decoded
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when the token has expired
	ErrTokenExpired = errors.New("token expired")
)

// Claims is the payload the upstream backend puts in session tokens
type Claims struct {
	UserID   string `json:"id,omitempty"`
	TenantID string `json:"tenantId,omitempty"`
	jwt.RegisteredClaims
}

// Expired reports whether the expiry lies strictly before now
func (c *Claims) Expired(now time.Time) bool {
	return c.ExpiresAt == nil || c.ExpiresAt.Time.Before(now)
}

// Decode parses a token without verifying its signature.
// The backend is the authority on signatures; this is only used to steer
// redirects. A token without an exp claim counts as malformed.
func Decode(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrNoToken
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing exp claim", ErrInvalidToken)
	}
	return claims, nil
}

// IsTokenExpired returns true if the token is empty, undecodable, or expired
func IsTokenExpired(tokenString string, now time.Time) bool {
	claims, err := Decode(tokenString)
	if err != nil {
		return true
	}
	return claims.Expired(now)
}

// Verifier checks token signatures locally when the deployment shares the
// backend's HMAC key. A nil Verifier accepts everything.
type Verifier struct {
	key      []byte
	issuer   string
	audience string
}

// NewVerifier returns nil when key is empty
func NewVerifier(key, issuer, audience string) *Verifier {
	if key == "" {
		return nil
	}
	return &Verifier{key: []byte(key), issuer: issuer, audience: audience}
}

// Verify checks signature, expiry, and the configured issuer and audience
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	if v == nil {
		return Decode(tokenString)
	}
	if tokenString == "" {
		return nil, ErrNoToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}
