package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/devilmonastery/processo/internal/client"
)

// ErrNotLoggedIn is returned when no credentials file exists for the context
var ErrNotLoggedIn = errors.New("not logged in")

// Credentials stores the authentication credentials
type Credentials struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id,omitempty"`
	TenantID  string    `json:"tenant_id,omitempty"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired checks if the token is expired
func (c *Credentials) IsExpired() bool {
	return !c.ExpiresAt.IsZero() && time.Now().After(c.ExpiresAt)
}

// tokenClaims are the claims the upstream API puts in its session tokens
type tokenClaims struct {
	UserID   string `json:"id"`
	TenantID string `json:"tenantId"`
	jwt.RegisteredClaims
}

// NewCredentials decodes token (without verifying it) to fill in the
// user and expiry fields
func NewCredentials(token, email string) (*Credentials, error) {
	var claims tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	creds := &Credentials{
		Token:    token,
		UserID:   claims.UserID,
		TenantID: claims.TenantID,
		Email:    email,
	}
	if claims.ExpiresAt != nil {
		creds.ExpiresAt = claims.ExpiresAt.Time
	}
	return creds, nil
}

// NewFileCredentials creates a new file-based credential manager that implements TokenManager
func NewFileCredentials() client.TokenManager {
	return &FileCredentials{}
}

// FileCredentials implements TokenManager using file-based credential storage
type FileCredentials struct{}

// GetToken returns the stored token, refusing tokens that have expired
func (f *FileCredentials) GetToken() (string, error) {
	creds, err := LoadCredentials()
	if err != nil {
		slog.Debug("failed to load credentials",
			slog.String("component", "cli-token"),
			slog.String("error", err.Error()))
		return "", err
	}
	if creds.IsExpired() {
		return "", fmt.Errorf("session expired at %s", creds.ExpiresAt.Local().Format("2006-01-02 15:04"))
	}
	return creds.Token, nil
}

// SaveToken stores a new token, keeping the email of the existing credentials
func (f *FileCredentials) SaveToken(token string) error {
	email := ""
	if old, err := LoadCredentials(); err == nil {
		email = old.Email
	}
	creds, err := NewCredentials(token, email)
	if err != nil {
		return err
	}
	return SaveCredentials(creds)
}

// ClearToken removes the credentials file
func (f *FileCredentials) ClearToken() error {
	return RemoveCredentials()
}

// credentialsPath returns the path to the credentials file for the current context
func credentialsPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	config, err := LoadConfig()
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}

	configDir := filepath.Join(homeDir, ".config", "processo")
	filename := fmt.Sprintf("credentials-%s.json", config.CurrentContext)
	return filepath.Join(configDir, filename), nil
}

// SaveCredentials saves credentials to disk
func SaveCredentials(creds *Credentials) error {
	path, err := credentialsPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	// read/write for owner only
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}

	return nil
}

// LoadCredentials loads credentials from disk
func LoadCredentials() (*Credentials, error) {
	path, err := credentialsPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotLoggedIn
		}
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}

	return &creds, nil
}

// RemoveCredentials removes the credentials file
func RemoveCredentials() error {
	path, err := credentialsPath()
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}

	return nil
}
