package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom with missing file: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("default port = %s, want 8080", cfg.Server.Port)
	}
	if cfg.Cache.RoleTTL != 30*time.Second {
		t.Errorf("default role TTL = %v, want 30s", cfg.Cache.RoleTTL)
	}
	if cfg.Completion.ResetWhenEmpty {
		t.Error("default completion policy should leave empty parents unchanged")
	}
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "atelier.yaml")
	yaml := `
server:
  port: "9090"
completion:
  reset_when_empty: true
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("port = %s, want 9090", cfg.Server.Port)
	}
	if !cfg.Completion.ResetWhenEmpty {
		t.Error("yaml should enable reset_when_empty")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %s, want debug", cfg.Logging.Level)
	}
	// Untouched sections keep defaults.
	if cfg.Postgres.MaxConns != 15 {
		t.Errorf("max_conns = %d, want 15", cfg.Postgres.MaxConns)
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "atelier.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: \"9090\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ATELIER_PORT", "7070")
	t.Setenv("ATELIER_ROLE_TTL", "10s")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Server.Port != "7070" {
		t.Errorf("port = %s, want env override 7070", cfg.Server.Port)
	}
	if cfg.Cache.RoleTTL != 10*time.Second {
		t.Errorf("role TTL = %v, want 10s", cfg.Cache.RoleTTL)
	}
}

func TestValidateRejectsLongRoleTTL(t *testing.T) {
	t.Setenv("ATELIER_ROLE_TTL", "1h")
	_, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected validation error for 1h role TTL")
	}
}

func TestValidateRejectsMissingDSN(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "atelier.yaml")
	if err := os.WriteFile(path, []byte("postgres:\n  dsn: \"\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected validation error for empty dsn")
	}
}
