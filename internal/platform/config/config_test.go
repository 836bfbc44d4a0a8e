package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "pathway/internal/platform/errors"
)

func TestNewDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if cfg.DBPath != filepath.Join(dir, "pathway.db") {
		t.Fatalf("DBPath = %q", cfg.DBPath)
	}
	if cfg.AppScheme != DefaultAppScheme {
		t.Fatalf("AppScheme = %q", cfg.AppScheme)
	}
	if cfg.ListenAddr != ":8080" {
		t.Fatalf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.SaveTimeout() != 30*time.Second {
		t.Fatalf("SaveTimeout = %v", cfg.SaveTimeout())
	}
	if err := cfg.RequireAuthBackend(); !errors.Is(err, apperrors.ErrNotConfigured) {
		t.Fatalf("RequireAuthBackend = %v, want ErrNotConfigured", err)
	}
}

func TestNewReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	raw := []byte(`
public_site_url: https://pathway.example.org
listen_addr: ":9090"
save_timeout_seconds: 5
auth:
  token_endpoint: https://id.example.org/auth/v1
  api_key: anon-key
`)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), raw, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if cfg.PublicSiteURL != "https://pathway.example.org" {
		t.Fatalf("PublicSiteURL = %q", cfg.PublicSiteURL)
	}
	if cfg.ListenAddr != ":9090" {
		t.Fatalf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.SaveTimeout() != 5*time.Second {
		t.Fatalf("SaveTimeout = %v", cfg.SaveTimeout())
	}
	if err := cfg.RequireAuthBackend(); err != nil {
		t.Fatalf("RequireAuthBackend = %v", err)
	}
}

func TestNewEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	raw := []byte("public_site_url: https://file.example.org\n")
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), raw, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PATHWAY_SITE_URL", "https://env.example.org")
	t.Setenv("PATHWAY_DB_PATH", "/tmp/elsewhere.db")

	cfg, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if cfg.PublicSiteURL != "https://env.example.org" {
		t.Fatalf("PublicSiteURL = %q", cfg.PublicSiteURL)
	}
	if cfg.DBPath != "/tmp/elsewhere.db" {
		t.Fatalf("DBPath = %q", cfg.DBPath)
	}
}

func TestNewRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("listen_addr: [oops"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := New(dir); err == nil {
		t.Fatal("New accepted malformed yaml")
	}
}

func TestNewRequiresStateDir(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("New accepted empty state dir")
	}
}
