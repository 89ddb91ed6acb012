package cli

import (
	"fmt"
	"log/slog"

	"github.com/devilmonastery/processo/internal/client"
)

// NewAPIClient creates an API client authenticated with the stored credentials
func NewAPIClient() (*client.Client, error) {
	return newClient(NewFileCredentials())
}

// NewUnauthenticatedClient creates a client without authentication (for login)
func NewUnauthenticatedClient() (*client.Client, error) {
	return newClient(nil)
}

func newClient(tm client.TokenManager) (*client.Client, error) {
	config, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	apiURL, err := config.APIURL()
	if err != nil {
		return nil, err
	}

	apiClient, err := client.NewClient(apiURL, tm,
		client.WithLogger(slog.Default().With(slog.String("component", "cli-api"))))
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}
	return apiClient, nil
}
