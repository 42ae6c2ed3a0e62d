package config

import (
	"fmt"
	"net/url"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for uiforge-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"3000"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL" env-default:""` // Auto-derived from Port if empty
	Version  string `yaml:"-"`                                      // Set at load time, not from config

	// TLS configuration (optional - if both provided, server uses HTTPS)
	TLSCertPath string `yaml:"tls_cert_path" env:"TLS_CERT_PATH" env-default:""`
	TLSKeyPath  string `yaml:"tls_key_path" env:"TLS_KEY_PATH" env-default:""`

	// Authentication configuration
	Auth AuthConfig `yaml:"auth"`

	// OAuth provider configuration
	OAuth OAuthConfig `yaml:"oauth"`

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Generation gateway configuration
	Generation GenerationConfig `yaml:"generation"`

	// MigrationsPath is the directory containing SQL migrations.
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	// SessionSecret signs session JWTs and the OAuth state cookie.
	// Server will fail to start if this is not set.
	SessionSecret string `yaml:"-" env:"SESSION_SECRET"` // Secret - not in YAML

	// SessionTTLHours is how long an issued session token stays valid.
	SessionTTLHours int `yaml:"session_ttl_hours" env:"SESSION_TTL_HOURS" env-default:"168"`

	// RequireEmailConfirmation rejects password logins from unconfirmed
	// accounts with the email_not_confirmed error code.
	RequireEmailConfirmation bool `yaml:"require_email_confirmation" env:"AUTH_REQUIRE_EMAIL_CONFIRMATION" env-default:"false"`

	// DisableSignups rejects new password signups with the
	// signup_disabled error code.
	DisableSignups bool `yaml:"disable_signups" env:"AUTH_DISABLE_SIGNUPS" env-default:"false"`

	// RateLimitPerMinute caps auth attempts per client IP.
	RateLimitPerMinute int `yaml:"rate_limit_per_minute" env:"AUTH_RATE_LIMIT_PER_MINUTE" env-default:"20"`

	// CookieDomain is the domain for the session cookie (optional).
	// If empty, it is auto-derived from BaseURL.
	CookieDomain string `yaml:"cookie_domain" env:"COOKIE_DOMAIN" env-default:""`
}

// OAuthConfig holds OAuth client credentials for the supported providers.
type OAuthConfig struct {
	GoogleClientID     string `yaml:"google_client_id" env:"GOOGLE_CLIENT_ID" env-default:""`
	GoogleClientSecret string `yaml:"-" env:"GOOGLE_CLIENT_SECRET"` // Secret - not in YAML
	GithubClientID     string `yaml:"github_client_id" env:"GITHUB_CLIENT_ID" env-default:""`
	GithubClientSecret string `yaml:"-" env:"GITHUB_CLIENT_SECRET"` // Secret - not in YAML
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"uiforge"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"uiforge_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// GenerationConfig holds the generation gateway settings.
type GenerationConfig struct {
	// Provider selects the backing model API: "openai" or "anthropic".
	Provider string `yaml:"provider" env:"GENERATION_PROVIDER" env-default:"openai"`

	// Endpoint is the base URL for OpenAI-compatible providers.
	// Leave empty for the official API.
	Endpoint string `yaml:"endpoint" env:"GENERATION_ENDPOINT" env-default:""`

	// Model is the model name, e.g. "gpt-4o" or "claude-sonnet-4-20250514".
	Model string `yaml:"model" env:"GENERATION_MODEL" env-default:"gpt-4o"`

	// APIKey authenticates against the provider. Optional for local endpoints.
	APIKey string `yaml:"-" env:"GENERATION_API_KEY"` // Secret - not in YAML

	// Temperature for chat completions.
	Temperature float64 `yaml:"temperature" env:"GENERATION_TEMPERATURE" env-default:"0.2"`

	// MaxRetries bounds retry attempts for transient provider failures.
	MaxRetries int `yaml:"max_retries" env:"GENERATION_MAX_RETRIES" env-default:"2"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if err := cfg.validateTLS(); err != nil {
		return nil, fmt.Errorf("invalid TLS configuration: %w", err)
	}

	if cfg.Auth.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET must be set")
	}

	// Auto-derive BaseURL from Port if not explicitly set.
	// Use HTTPS scheme if TLS is configured.
	if cfg.BaseURL == "" {
		scheme := "http"
		if cfg.TLSCertPath != "" {
			scheme = "https"
		}
		cfg.BaseURL = (&url.URL{
			Scheme: scheme,
			Host:   "localhost:" + cfg.Port,
		}).String()
	}

	return cfg, nil
}

// validateTLS ensures TLS configuration is valid if provided.
func (c *Config) validateTLS() error {
	certSet := c.TLSCertPath != ""
	keySet := c.TLSKeyPath != ""

	if certSet != keySet {
		return fmt.Errorf("both tls_cert_path and tls_key_path must be provided together")
	}

	if certSet {
		if _, err := os.Stat(c.TLSCertPath); err != nil {
			return fmt.Errorf("TLS cert file does not exist: %w", err)
		}
		if _, err := os.Stat(c.TLSKeyPath); err != nil {
			return fmt.Errorf("TLS key file does not exist: %w", err)
		}
	}

	return nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
