package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/devilmonastery/processo/internal/domain/entities"
)

// Upstream API paths
const (
	PathSignIn           = "/api/auth/signin"
	PathSignUp           = "/api/auth/signup"
	PathVerifyEmail      = "/api/users/verify-email"
	PathSendVerification = "/api/users/send-email-verification"
	PathWhoAmI           = "/api/users/whoami"
	PathChangePassword   = "/api/users/change-password"
	PathProcesses        = "/api/process"
	pathProcessTemplate  = "/api/process/%s"
	pathUserTemplate     = "/api/users/%s"
)

// ProcessPath returns the upstream path of one case
func ProcessPath(id string) string {
	return fmt.Sprintf(pathProcessTemplate, url.PathEscape(id))
}

// UserPath returns the upstream path of one user
func UserPath(id string) string {
	return fmt.Sprintf(pathUserTemplate, url.PathEscape(id))
}

// SignInResponse is the upstream sign-in answer
type SignInResponse struct {
	Token string         `json:"token"`
	User  *entities.User `json:"user,omitempty"`
}

// doJSON sends in as JSON and decodes a 2xx body into out.
// Non-2xx answers come back as *APIError.
func (c *Client) doJSON(ctx context.Context, method, path string, auth bool, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	resp, err := c.Do(ctx, Request{Method: method, Path: path, Body: body, Auth: auth})
	if err != nil {
		return err
	}
	if !resp.OK() {
		return ParseAPIError(resp.Status, resp.Body)
	}
	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

// SignIn exchanges credentials for a session token
func (c *Client) SignIn(ctx context.Context, creds entities.Credentials) (*SignInResponse, error) {
	var out SignInResponse
	if err := c.doJSON(ctx, http.MethodPost, PathSignIn, false, creds, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, fmt.Errorf("sign-in response carried no token")
	}
	return &out, nil
}

// SignUp registers a new account
func (c *Client) SignUp(ctx context.Context, reg entities.Registration) error {
	return c.doJSON(ctx, http.MethodPost, PathSignUp, false, reg, nil)
}

// VerifyEmail confirms an email address using the token from the verification mail
func (c *Client) VerifyEmail(ctx context.Context, token string) error {
	return c.doJSON(ctx, http.MethodPost, PathVerifyEmail, false, map[string]string{"token": token}, nil)
}

// ResendVerification asks the upstream to send the verification mail again
func (c *Client) ResendVerification(ctx context.Context, email string) error {
	return c.doJSON(ctx, http.MethodPost, PathSendVerification, true, map[string]string{"email": email}, nil)
}

// WhoAmI fetches the authenticated user
func (c *Client) WhoAmI(ctx context.Context) (*entities.User, error) {
	var user entities.User
	if err := c.doJSON(ctx, http.MethodGet, PathWhoAmI, true, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile updates the editable profile fields of a user
func (c *Client) UpdateProfile(ctx context.Context, userID string, update entities.ProfileUpdate) error {
	return c.doJSON(ctx, http.MethodPut, UserPath(userID), true, update, nil)
}

// ChangePassword changes the password of the authenticated user
func (c *Client) ChangePassword(ctx context.Context, change entities.PasswordChange) error {
	return c.doJSON(ctx, http.MethodPost, PathChangePassword, true, change, nil)
}

// ListProcesses returns every case visible to the authenticated user
func (c *Client) ListProcesses(ctx context.Context) ([]entities.Process, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, PathProcesses, true, nil, &raw); err != nil {
		return nil, err
	}
	return decodeProcessList(raw)
}

// GetProcess fetches one case
func (c *Client) GetProcess(ctx context.Context, id string) (*entities.Process, error) {
	var p entities.Process
	if err := c.doJSON(ctx, http.MethodGet, ProcessPath(id), true, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProcess creates a case and returns the stored record
func (c *Client) CreateProcess(ctx context.Context, p *entities.Process) (*entities.Process, error) {
	var out entities.Process
	if err := c.doJSON(ctx, http.MethodPost, PathProcesses, true, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProcess replaces a case
func (c *Client) UpdateProcess(ctx context.Context, id string, p *entities.Process) (*entities.Process, error) {
	var out entities.Process
	if err := c.doJSON(ctx, http.MethodPut, ProcessPath(id), true, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteProcess removes a case
func (c *Client) DeleteProcess(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, ProcessPath(id), true, nil, nil)
}

// decodeProcessList accepts a bare array or an envelope object
func decodeProcessList(raw json.RawMessage) ([]entities.Process, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '[' {
		var list []entities.Process
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("failed to decode process list: %w", err)
		}
		return list, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode process list: %w", err)
	}
	for _, key := range []string{"processes", "data", "items"} {
		if inner, ok := envelope[key]; ok {
			return decodeProcessList(inner)
		}
	}
	return nil, fmt.Errorf("unexpected process list shape")
}
