package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/devilmonastery/processo/internal/domain/entities"
)

// useTempHome points the config and credential files at a fresh directory
func useTempHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := tokenClaims{
		UserID:   "u1",
		TenantID: "t1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func pointAt(t *testing.T, apiURL string) {
	t.Helper()
	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	ctx, err := config.GetCurrentContext()
	if err != nil {
		t.Fatalf("GetCurrentContext: %v", err)
	}
	ctx.API.URL = apiURL
	if err := SaveConfig(config); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "30 seconds"},
		{time.Second, "1 second"},
		{time.Minute, "1 minute"},
		{2*time.Hour + 5*time.Minute, "2 hours and 5 minutes"},
		{49*time.Hour + 30*time.Minute, "2 days, 1 hour and 30 minutes"},
		{-3 * time.Hour, "3 hours"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestLoadConfigCreatesDefault(t *testing.T) {
	home := useTempHome(t)

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if config.CurrentContext != "local" {
		t.Errorf("CurrentContext = %q", config.CurrentContext)
	}
	url, err := config.APIURL()
	if err != nil || url != DefaultAPIURL {
		t.Errorf("APIURL = %q, %v", url, err)
	}
	if _, err := os.Stat(filepath.Join(home, ".processo")); err != nil {
		t.Errorf("config file not written: %v", err)
	}
}

func TestContextManagement(t *testing.T) {
	config := DefaultConfig()

	prod := &Context{}
	prod.API.URL = "https://api.example.com"
	config.AddContext("prod", prod)

	if err := config.SetCurrentContext("missing"); err == nil {
		t.Error("expected error switching to unknown context")
	}
	if err := config.SetCurrentContext("prod"); err != nil {
		t.Fatalf("SetCurrentContext: %v", err)
	}
	if err := config.DeleteContext("prod"); err == nil {
		t.Error("expected error deleting the current context")
	}
	if err := config.DeleteContext("local"); err != nil {
		t.Errorf("DeleteContext: %v", err)
	}
	if len(config.Contexts) != 1 {
		t.Errorf("contexts = %v", config.Contexts)
	}
}

func TestValidateAPIURL(t *testing.T) {
	got, err := ValidateAPIURL("https://api.example.com/")
	if err != nil || got != "https://api.example.com" {
		t.Errorf("ValidateAPIURL = %q, %v", got, err)
	}
	for _, bad := range []string{"", "api.example.com", "ftp://x", "http://"} {
		if _, err := ValidateAPIURL(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestNewCredentialsDecodesClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	creds, err := NewCredentials(signedToken(t, exp), "ana@example.com")
	if err != nil {
		t.Fatalf("NewCredentials: %v", err)
	}
	if creds.UserID != "u1" || creds.TenantID != "t1" {
		t.Errorf("claims = %+v", creds)
	}
	if !creds.ExpiresAt.Equal(exp) {
		t.Errorf("ExpiresAt = %v, want %v", creds.ExpiresAt, exp)
	}

	if _, err := NewCredentials("not-a-token", ""); err == nil {
		t.Error("expected error for malformed token")
	}
}

func TestCredentialsFilePermissionsAndExpiry(t *testing.T) {
	home := useTempHome(t)

	tm := NewFileCredentials()
	if _, err := tm.GetToken(); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("GetToken before login = %v", err)
	}

	expired := signedToken(t, time.Now().Add(-time.Minute))
	if err := tm.SaveToken(expired); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}

	path := filepath.Join(home, ".config", "processo", "credentials-local.json")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat credentials: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("credentials mode = %o", perm)
	}

	if _, err := tm.GetToken(); err == nil {
		t.Error("expected expired token to be refused")
	}

	if err := tm.ClearToken(); err != nil {
		t.Fatalf("ClearToken: %v", err)
	}
	if _, err := LoadCredentials(); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("LoadCredentials after clear = %v", err)
	}
}

func TestLoginCommandStoresCredentials(t *testing.T) {
	useTempHome(t)
	token := signedToken(t, time.Now().Add(time.Hour))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/signin" {
			http.NotFound(w, r)
			return
		}
		var creds entities.Credentials
		json.NewDecoder(r.Body).Decode(&creds)
		w.Header().Set("Content-Type", "application/json")
		if creds.Password != "s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"Credenciais inválidas"}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"token": token})
	}))
	defer srv.Close()
	pointAt(t, srv.URL)

	_, err := execute(t, "wrong\n", "auth", "login", "--email", "ana@example.com", "--password-stdin")
	if err == nil || !strings.Contains(err.Error(), "Credenciais inválidas") {
		t.Fatalf("login with bad password = %v", err)
	}

	out, err := execute(t, "s3cret\n", "auth", "login", "--email", "ana@example.com", "--password-stdin")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(out, "logged in as ana@example.com") {
		t.Errorf("output = %q", out)
	}

	creds, err := LoadCredentials()
	if err != nil {
		t.Fatalf("LoadCredentials: %v", err)
	}
	if creds.Token != token || creds.Email != "ana@example.com" || creds.UserID != "u1" {
		t.Errorf("creds = %+v", creds)
	}

	out, err = execute(t, "", "auth", "status")
	if err != nil || !strings.Contains(out, "Valid for") {
		t.Errorf("status = %q, %v", out, err)
	}
}

func TestCommandsRequireLogin(t *testing.T) {
	useTempHome(t)

	_, err := execute(t, "", "process", "list")
	if err == nil || !strings.Contains(err.Error(), "auth login") {
		t.Errorf("process list without login = %v", err)
	}
}

func TestProcessListFiltersAndSorts(t *testing.T) {
	useTempHome(t)
	token := signedToken(t, time.Now().Add(time.Hour))

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]entities.Process{
			{ID: "a", Folder: "001", Title: "Silva vs Banco", Tags: []string{"urgente"}, CreatedAt: "2024-01-10T10:00:00Z"},
			{ID: "b", Folder: "002", Title: "Souza trabalhista", CreatedAt: "2024-03-01T10:00:00Z"},
			{ID: "c", Folder: "003", Title: "Silva inventário", Tags: []string{"urgente"}, CreatedAt: "2024-02-01T10:00:00Z"},
		})
	}))
	defer srv.Close()
	pointAt(t, srv.URL)

	creds, err := NewCredentials(token, "ana@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if err := SaveCredentials(creds); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "", "process", "list", "--tag", "urgente", "--query", "silva")
	if err != nil {
		t.Fatalf("process list: %v", err)
	}
	if gotAuth != "Bearer "+token {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if strings.Contains(out, "Souza") {
		t.Errorf("filtered case listed:\n%s", out)
	}
	first, second := strings.Index(out, "Silva inventário"), strings.Index(out, "Silva vs Banco")
	if first < 0 || second < 0 || first > second {
		t.Errorf("expected newest first:\n%s", out)
	}
}

func TestProcessDeleteNeedsConfirmation(t *testing.T) {
	useTempHome(t)

	var deleted bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete && r.URL.Path == "/api/process/abc" {
			deleted = true
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()
	pointAt(t, srv.URL)

	creds, _ := NewCredentials(signedToken(t, time.Now().Add(time.Hour)), "ana@example.com")
	if err := SaveCredentials(creds); err != nil {
		t.Fatal(err)
	}

	if _, err := execute(t, "", "process", "delete", "abc"); err == nil {
		t.Error("expected refusal without --yes")
	}
	if deleted {
		t.Fatal("deleted without confirmation")
	}
	if _, err := execute(t, "", "process", "delete", "abc", "--yes"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !deleted {
		t.Error("upstream delete not called")
	}
}

func TestProcessMarkdown(t *testing.T) {
	p := &entities.Process{
		Title:         "Silva vs Banco",
		Folder:        "001",
		ProcessNumber: "0001234-56.2024.8.26.0100",
		Court:         &entities.Court{Number: "2", Forum: "Central"},
		Involved: []entities.Party{
			{Name: "João Silva", Qualification: entities.QualificationAuthor},
			{Name: "Banco X", Qualification: entities.QualificationDefendant},
		},
		Description: "Revisão contratual",
	}

	md := processMarkdown(p)
	for _, want := range []string{"# Silva vs Banco", "2 / Central", "## Autores", "- João Silva", "## Réus", "Revisão contratual"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "Observações") {
		t.Error("empty observations rendered")
	}
}

func TestExpiredSessionRefusedBeforeRequest(t *testing.T) {
	useTempHome(t)

	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()
	pointAt(t, srv.URL)

	creds, err := NewCredentials(signedToken(t, time.Now().Add(-time.Hour)), "ana@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if err := SaveCredentials(creds); err != nil {
		t.Fatal(err)
	}

	_, err = execute(t, "", "whoami")
	if err == nil || !strings.Contains(err.Error(), "session expired") {
		t.Errorf("whoami with expired token = %v", err)
	}
	if called {
		t.Error("upstream called with an expired token")
	}
}
