package session

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func createTestToken(claims jwt.MapClaims) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	// Decode never checks signatures
	tokenString, _ := token.SigningString()
	return tokenString + ".fake_signature"
}

func signedToken(t *testing.T, key string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestDecode_ValidToken(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tokenString := createTestToken(jwt.MapClaims{
		"id":       "u-1",
		"tenantId": "t-9",
		"iss":      "processo-api",
		"sub":      "u-1",
		"aud":      "processo-web",
		"iat":      float64(time.Now().Unix()),
		"exp":      float64(exp.Unix()),
	})

	claims, err := Decode(tokenString)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if claims.UserID != "u-1" {
		t.Errorf("expected UserID=u-1, got %q", claims.UserID)
	}
	if claims.TenantID != "t-9" {
		t.Errorf("expected TenantID=t-9, got %q", claims.TenantID)
	}
	if claims.Issuer != "processo-api" {
		t.Errorf("expected issuer processo-api, got %q", claims.Issuer)
	}
	if !claims.ExpiresAt.Time.Equal(exp) {
		t.Errorf("expected exp %v, got %v", exp, claims.ExpiresAt.Time)
	}
	if claims.Expired(time.Now()) {
		t.Error("token should not be expired")
	}
}

func TestDecode_ExpiredTokenStillDecodes(t *testing.T) {
	tokenString := createTestToken(jwt.MapClaims{
		"id":  "u-1",
		"exp": float64(time.Now().Add(-time.Hour).Unix()),
	})

	claims, err := Decode(tokenString)
	if err != nil {
		t.Fatalf("expired tokens must decode, got %v", err)
	}
	if !claims.Expired(time.Now()) {
		t.Error("expected token to be expired")
	}
}

func TestDecode_Failures(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", ErrNoToken},
		{"garbage", "not-a-token", ErrInvalidToken},
		{"two segments", "abc.def", ErrInvalidToken},
		{"bad base64", "!!!.@@@.###", ErrInvalidToken},
		{"missing exp", createTestToken(jwt.MapClaims{"id": "u-1"}), ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.token)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestClaimsExpiredBoundary(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	c := &Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now)}}
	if c.Expired(now) {
		t.Error("exp == now is not expired")
	}
	if !c.Expired(now.Add(time.Second)) {
		t.Error("exp < now is expired")
	}
}

func TestIsTokenExpired(t *testing.T) {
	now := time.Now()
	if !IsTokenExpired("", now) {
		t.Error("empty token counts as expired")
	}
	if !IsTokenExpired("garbage", now) {
		t.Error("undecodable token counts as expired")
	}
	valid := createTestToken(jwt.MapClaims{"exp": float64(now.Add(time.Hour).Unix())})
	if IsTokenExpired(valid, now) {
		t.Error("valid token reported expired")
	}
}

func TestVerifier(t *testing.T) {
	const key = "shared-secret"
	v := NewVerifier(key, "processo-api", "processo-web")
	exp := float64(time.Now().Add(time.Hour).Unix())

	good := signedToken(t, key, jwt.MapClaims{"id": "u-1", "iss": "processo-api", "aud": "processo-web", "exp": exp})
	if claims, err := v.Verify(good); err != nil || claims.UserID != "u-1" {
		t.Fatalf("expected valid token, got %v, %v", claims, err)
	}

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"wrong key", signedToken(t, "other", jwt.MapClaims{"iss": "processo-api", "aud": "processo-web", "exp": exp}), ErrInvalidToken},
		{"wrong issuer", signedToken(t, key, jwt.MapClaims{"iss": "evil", "aud": "processo-web", "exp": exp}), ErrInvalidToken},
		{"wrong audience", signedToken(t, key, jwt.MapClaims{"iss": "processo-api", "aud": "other", "exp": exp}), ErrInvalidToken},
		{"missing exp", signedToken(t, key, jwt.MapClaims{"iss": "processo-api", "aud": "processo-web"}), ErrInvalidToken},
		{"expired", signedToken(t, key, jwt.MapClaims{"iss": "processo-api", "aud": "processo-web", "exp": float64(time.Now().Add(-time.Hour).Unix())}), ErrTokenExpired},
		{"unsigned", createTestToken(jwt.MapClaims{"iss": "processo-api", "aud": "processo-web", "exp": exp}), ErrInvalidToken},
		{"empty", "", ErrNoToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(tt.token)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestNilVerifierOnlyDecodes(t *testing.T) {
	var v *Verifier
	if NewVerifier("", "", "") != nil {
		t.Fatal("expected nil verifier without a key")
	}
	tok := createTestToken(jwt.MapClaims{"id": "u-1", "exp": float64(time.Now().Add(time.Hour).Unix())})
	if _, err := v.Verify(tok); err != nil {
		t.Errorf("nil verifier should accept decodable token, got %v", err)
	}
}
