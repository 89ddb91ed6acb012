package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

// expandEnvVars expands environment variables in the format ${VAR} or $VAR
func expandEnvVars(data []byte) []byte {
	return []byte(os.ExpandEnv(string(data)))
}

// Environment names
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// WebServerConfig represents the web server configuration
type WebServerConfig struct {
	Server      HTTPServer      `yaml:"server"`
	API         APIConfig       `yaml:"api"`
	Session     SessionConfig   `yaml:"session"`
	Templates   TemplatesConfig `yaml:"templates"`
	Logging     LoggingConfig   `yaml:"logging"`
	Analytics   AnalyticsConfig `yaml:"analytics"`
	Environment string          `yaml:"environment"`
}

// HTTPServer holds HTTP server configuration
type HTTPServer struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	MetricsPort int    `yaml:"metrics_port"` // 0 means Port+10
}

// APIConfig points at the upstream REST API
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// SessionConfig holds session configuration
type SessionConfig struct {
	Secret string `yaml:"secret"` // signs the flash cookie; base64 or raw

	// VerifyKey enables HMAC signature checks on session tokens.
	// Empty means tokens are only decoded.
	VerifyKey string `yaml:"verify_key"`
	Issuer    string `yaml:"issuer"`
	Audience  string `yaml:"audience"`
}

// TemplatesConfig holds template loading configuration
type TemplatesConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// AnalyticsConfig holds the Google Analytics measurement id; empty disables the snippet
type AnalyticsConfig struct {
	MeasurementID string `yaml:"measurement_id"`
}

// IsProduction reports whether cookies should be marked Secure
func (c *WebServerConfig) IsProduction() bool {
	return c.Environment == EnvProduction
}

// MetricsPort resolves the metrics listener port
func (c *WebServerConfig) MetricsPort() int {
	if c.Server.MetricsPort != 0 {
		return c.Server.MetricsPort
	}
	return c.Server.Port + 10
}

// DefaultConfigPaths defines the default locations to search for web configuration files
var DefaultConfigPaths = []string{
	"./config.yaml",
	"./config.yml",
	"./configs/web.yaml",
	"./configs/web.yml",
	"/etc/processo/config.yaml",
	"/etc/processo/config.yml",
}

// Default returns the configuration used when no file is found
func Default() *WebServerConfig {
	return &WebServerConfig{
		Server: HTTPServer{
			Host: "localhost",
			Port: 3000,
		},
		API: APIConfig{
			BaseURL: "http://localhost:3333",
			Timeout: 10 * time.Second,
		},
		Templates: TemplatesConfig{
			Path: "web/templates",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Environment: EnvDevelopment,
	}
}

// Load loads the web server configuration from the specified file or default
// locations, then applies environment overrides
func Load(configPath string) (*WebServerConfig, error) {
	config := Default()

	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" && fileExists(configPath) {
		fmt.Printf("[CONFIG] Loading web config from: %s\n", configPath)
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		data = expandEnvVars(data)

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else {
		fmt.Printf("[CONFIG] No web config file found, using defaults\n")
	}

	if err := applyEnv(config); err != nil {
		return nil, err
	}

	if err := validate(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// applyEnv lets environment variables take precedence over the file
func applyEnv(config *WebServerConfig) error {
	if v := os.Getenv("API_URL"); v != "" {
		config.API.BaseURL = v
		fmt.Printf("[CONFIG] Using API URL from environment: %s\n", v)
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		config.Session.Secret = v
	}
	if v := os.Getenv("SESSION_VERIFY_KEY"); v != "" {
		config.Session.VerifyKey = v
	}
	if v := os.Getenv("APP_ENV"); v != "" {
		config.Environment = v
	}
	if v := os.Getenv("GA_MEASUREMENT_ID"); v != "" {
		config.Analytics.MeasurementID = v
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		config.Server.Port = port
	}
	return nil
}

// findConfigFile searches for a configuration file in default locations
func findConfigFile() string {
	for _, path := range DefaultConfigPaths {
		if fileExists(path) {
			return path
		}
	}
	return ""
}

// fileExists checks if a file exists and is not a directory
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// validate performs basic validation on the web configuration
func validate(config *WebServerConfig) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if config.Server.MetricsPort < 0 || config.Server.MetricsPort > 65535 {
		return fmt.Errorf("server.metrics_port must be between 0 and 65535")
	}

	u, err := url.Parse(config.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute http(s) URL, got %q", config.API.BaseURL)
	}
	if config.API.Timeout < 0 {
		return fmt.Errorf("api.timeout cannot be negative")
	}

	switch config.Environment {
	case EnvDevelopment, EnvProduction, "test":
	default:
		return fmt.Errorf("environment must be development, production or test, got %q", config.Environment)
	}
	if config.IsProduction() && config.Session.Secret == "" {
		return fmt.Errorf("session.secret is required in production")
	}

	switch config.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format must be json or text, got %q", config.Logging.Format)
	}

	return nil
}
