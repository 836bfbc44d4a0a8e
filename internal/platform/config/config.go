package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "pathway/internal/platform/errors"
)

const (
	// DefaultAppScheme is the custom scheme the native shell registers for
	// auth deep links.
	DefaultAppScheme = "mountainpathway"

	defaultListenAddr  = ":8080"
	defaultSaveTimeout = 30 * time.Second
)

type AuthConfig struct {
	TokenEndpoint     string `yaml:"token_endpoint"`
	APIKey            string `yaml:"api_key"`
	ResetPasswordPath string `yaml:"reset_password_path"`
}

type Config struct {
	StateDir      string     `yaml:"-"`
	DBPath        string     `yaml:"db_path"`
	PublicSiteURL string     `yaml:"public_site_url"`
	AppScheme     string     `yaml:"app_scheme"`
	ListenAddr    string     `yaml:"listen_addr"`
	SaveTimeoutS  int        `yaml:"save_timeout_seconds"`
	Auth          AuthConfig `yaml:"auth"`
}

// New loads configuration for the given state directory. A config.yaml inside
// the state dir is optional; environment variables override file values.
func New(stateDir string) (Config, error) {
	if stateDir == "" {
		return Config{}, fmt.Errorf("state dir is required")
	}
	cfg := Config{
		StateDir:     stateDir,
		AppScheme:    DefaultAppScheme,
		ListenAddr:   defaultListenAddr,
		SaveTimeoutS: int(defaultSaveTimeout / time.Second),
		Auth:         AuthConfig{ResetPasswordPath: "/auth/reset-password"},
	}

	path := filepath.Join(stateDir, "config.yaml")
	raw, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	applyEnv(&cfg)

	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(stateDir, "pathway.db")
	}
	if cfg.AppScheme == "" {
		cfg.AppScheme = DefaultAppScheme
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = defaultListenAddr
	}
	if cfg.SaveTimeoutS <= 0 {
		cfg.SaveTimeoutS = int(defaultSaveTimeout / time.Second)
	}
	if cfg.Auth.ResetPasswordPath == "" {
		cfg.Auth.ResetPasswordPath = "/auth/reset-password"
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	for env, target := range map[string]*string{
		"PATHWAY_SITE_URL":       &cfg.PublicSiteURL,
		"PATHWAY_APP_SCHEME":     &cfg.AppScheme,
		"PATHWAY_LISTEN_ADDR":    &cfg.ListenAddr,
		"PATHWAY_DB_PATH":        &cfg.DBPath,
		"PATHWAY_TOKEN_ENDPOINT": &cfg.Auth.TokenEndpoint,
		"PATHWAY_API_KEY":        &cfg.Auth.APIKey,
	} {
		if v := os.Getenv(env); v != "" {
			*target = v
		}
	}
}

// SaveTimeout bounds a single remote save attempt.
func (c Config) SaveTimeout() time.Duration {
	return time.Duration(c.SaveTimeoutS) * time.Second
}

// RequireAuthBackend reports whether the identity provider is reachable by
// configuration. There is no degraded mode: callers surface this as a blocking
// "not configured" state.
func (c Config) RequireAuthBackend() error {
	if c.Auth.TokenEndpoint == "" || c.Auth.APIKey == "" {
		return apperrors.ErrNotConfigured
	}
	return nil
}
