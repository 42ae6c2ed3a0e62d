package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, content string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config.yaml: %v", err)
	}
	t.Chdir(dir)
}

func TestLoadDefaults(t *testing.T) {
	writeConfigFile(t, "")
	t.Setenv("SESSION_SECRET", "test-secret")

	cfg, err := Load("test-version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Version != "test-version" {
		t.Errorf("expected version test-version, got %s", cfg.Version)
	}
	if cfg.Port != "3000" {
		t.Errorf("expected default port 3000, got %s", cfg.Port)
	}
	if cfg.BaseURL != "http://localhost:3000" {
		t.Errorf("expected derived base URL, got %s", cfg.BaseURL)
	}
	if cfg.Auth.SessionTTLHours != 168 {
		t.Errorf("expected default session TTL 168h, got %d", cfg.Auth.SessionTTLHours)
	}
	if cfg.Generation.Provider != "openai" {
		t.Errorf("expected default provider openai, got %s", cfg.Generation.Provider)
	}
	if cfg.Database.Database != "uiforge_engine" {
		t.Errorf("expected default database name, got %s", cfg.Database.Database)
	}
}

func TestLoadEnvOverridesYAML(t *testing.T) {
	writeConfigFile(t, "port: \"8080\"\ngeneration:\n  model: gpt-4o\n")
	t.Setenv("SESSION_SECRET", "test-secret")
	t.Setenv("PORT", "9090")
	t.Setenv("GENERATION_MODEL", "claude-sonnet-4-20250514")

	cfg, err := Load("dev")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("expected env to override yaml port, got %s", cfg.Port)
	}
	if cfg.Generation.Model != "claude-sonnet-4-20250514" {
		t.Errorf("expected env to override yaml model, got %s", cfg.Generation.Model)
	}
}

func TestLoadRequiresSessionSecret(t *testing.T) {
	writeConfigFile(t, "")
	t.Setenv("SESSION_SECRET", "")

	if _, err := Load("dev"); err == nil {
		t.Error("expected an error when SESSION_SECRET is unset")
	}
}

func TestLoadRejectsHalfTLSConfig(t *testing.T) {
	writeConfigFile(t, "tls_cert_path: /tmp/cert.pem\n")
	t.Setenv("SESSION_SECRET", "test-secret")
	t.Setenv("TLS_KEY_PATH", "")

	if _, err := Load("dev"); err == nil {
		t.Error("expected an error when only the cert path is set")
	}
}

func TestConnectionString(t *testing.T) {
	dbCfg := DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "uiforge",
		Password: "secret",
		Database: "uiforge_engine",
		SSLMode:  "require",
	}

	want := "host=db.internal port=5433 user=uiforge password=secret dbname=uiforge_engine sslmode=require"
	if got := dbCfg.ConnectionString(); got != want {
		t.Errorf("unexpected connection string:\n got %s\nwant %s", got, want)
	}
}
