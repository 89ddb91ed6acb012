package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/devilmonastery/processo/internal/client"
	"github.com/devilmonastery/processo/internal/domain/entities"
)

// formatDuration formats a duration in a human-friendly way (e.g., "2 days, 3 hours and 45 minutes")
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}

	units := []struct {
		n    int
		name string
	}{
		{int(d.Hours() / 24), "day"},
		{int(d.Hours()) % 24, "hour"},
		{int(d.Minutes()) % 60, "minute"},
	}

	var parts []string
	for _, u := range units {
		if u.n == 1 {
			parts = append(parts, "1 "+u.name)
		} else if u.n > 1 {
			parts = append(parts, fmt.Sprintf("%d %ss", u.n, u.name))
		}
	}
	if len(parts) == 0 {
		seconds := int(d.Seconds()) % 60
		if seconds == 1 {
			return "1 second"
		}
		return fmt.Sprintf("%d seconds", seconds)
	}

	if len(parts) == 1 {
		return parts[0]
	}
	return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
}

func newAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authentication commands",
		Long:  `Manage authentication for the processo CLI`,
	}

	cmd.AddCommand(newAuthLoginCommand())
	cmd.AddCommand(newAuthLogoutCommand())
	cmd.AddCommand(newAuthStatusCommand())
	cmd.AddCommand(newAuthTokenCommand())

	return cmd
}

func newAuthLoginCommand() *cobra.Command {
	var (
		email         string
		passwordStdin bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the processo API",
		Long: `Sign in with email and password. The password is read from the terminal
without echo, or from stdin with --password-stdin.

Examples:
  processo auth login --email ana@example.com
  echo "$PASSWORD" | processo auth login --email ana@example.com --password-stdin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := slog.Default().With("command", "login")

			password, err := readPassword(cmd, &email, passwordStdin)
			if err != nil {
				return err
			}

			apiClient, err := NewUnauthenticatedClient()
			if err != nil {
				return err
			}

			log.Info("signing in", slog.String("api", apiClient.BaseURL()), slog.String("email", email))
			resp, err := apiClient.SignIn(cmd.Context(), entities.Credentials{Email: email, Password: password})
			if err != nil {
				var apiErr *client.APIError
				if errors.As(err, &apiErr) && apiErr.Message != "" {
					return fmt.Errorf("authentication failed: %s", apiErr.Message)
				}
				return fmt.Errorf("authentication failed: %w", err)
			}

			creds, err := NewCredentials(resp.Token, email)
			if err != nil {
				return err
			}
			if err := SaveCredentials(creds); err != nil {
				return fmt.Errorf("failed to save credentials: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Successfully logged in as %s\n", email)
			if !creds.ExpiresAt.IsZero() {
				fmt.Fprintf(out, "  Token expires: %s\n", creds.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email (prompted if not provided)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")

	return cmd
}

// readPassword prompts for the missing email and the password
func readPassword(cmd *cobra.Command, email *string, fromStdin bool) (string, error) {
	in := cmd.InOrStdin()
	out := cmd.ErrOrStderr()
	reader := bufio.NewReader(in)

	if *email == "" {
		fmt.Fprint(out, "Email: ")
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("failed to read email: %w", err)
		}
		*email = strings.TrimSpace(line)
		if *email == "" {
			return "", fmt.Errorf("email is required")
		}
	}

	if !fromStdin && in == os.Stdin && term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprint(out, "Password: ")
		passwordBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(passwordBytes), nil
	}

	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", fmt.Errorf("password is required")
	}
	return password, nil
}

func newAuthLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := LoadCredentials(); err != nil {
				return err
			}
			if err := RemoveCredentials(); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "✓ Successfully logged out")
			return nil
		},
	}
}

func newAuthStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show authentication status",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			creds, err := LoadCredentials()
			if err != nil {
				fmt.Fprintln(out, "Not logged in")
				return nil
			}

			fmt.Fprintf(out, "Logged in as: %s\n", creds.Email)
			if creds.UserID != "" {
				fmt.Fprintf(out, "User ID: %s\n", creds.UserID)
			}
			if creds.ExpiresAt.IsZero() {
				fmt.Fprintln(out, "Token has no expiry")
				return nil
			}

			fmt.Fprintf(out, "Token expires: %s\n", creds.ExpiresAt.Local().Format("2006-01-02 15:04:05 MST"))

			now := time.Now()
			if creds.IsExpired() {
				fmt.Fprintf(out, "⚠  Token expired %s ago - run 'processo auth login'\n", formatDuration(now.Sub(creds.ExpiresAt)))
			} else {
				fmt.Fprintf(out, "✓  Valid for %s\n", formatDuration(creds.ExpiresAt.Sub(now)))
			}

			return nil
		},
	}
}

func newAuthTokenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Display the current session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := LoadCredentials()
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), creds.Token)
			return nil
		},
	}
}
