package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadUsesDefaultsAndYAMLOverrides(t *testing.T) {
	clearConfigEnv(t)

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	yaml := `
http:
  addr: ":9090"
auth:
  token_ttl: 12h
  login_max_attempts: 3
geo:
  cache_ttl: 1h
sso:
  client_id: dashboard-app
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.HTTP.Addr != ":9090" {
		t.Fatalf("unexpected http addr: %s", cfg.HTTP.Addr)
	}
	if cfg.Auth.TokenTTL != 12*time.Hour {
		t.Fatalf("unexpected token ttl: %s", cfg.Auth.TokenTTL)
	}
	if cfg.Auth.LoginMaxAttempts != 3 {
		t.Fatalf("unexpected login max attempts: %d", cfg.Auth.LoginMaxAttempts)
	}
	if cfg.Geo.CacheTTL != time.Hour {
		t.Fatalf("unexpected geo cache ttl: %s", cfg.Geo.CacheTTL)
	}
	if cfg.SSO.ClientID != "dashboard-app" {
		t.Fatalf("unexpected sso client id: %s", cfg.SSO.ClientID)
	}

	if cfg.Auth.LoginWindow != 15*time.Minute {
		t.Fatalf("login window default should stay 15m, got %s", cfg.Auth.LoginWindow)
	}
	if cfg.Geo.PrimaryBaseURL != "https://ipwhois.app/json" {
		t.Fatalf("unexpected geo primary default: %s", cfg.Geo.PrimaryBaseURL)
	}
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load config with missing file: %v", err)
	}

	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Fatalf("unexpected default token ttl: %s", cfg.Auth.TokenTTL)
	}
	if cfg.Auth.LoginMaxAttempts != 5 {
		t.Fatalf("unexpected default login max attempts: %d", cfg.Auth.LoginMaxAttempts)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("unexpected default http addr: %s", cfg.HTTP.Addr)
	}
	if cfg.S3.Bucket != "monitoring-avatars" {
		t.Fatalf("unexpected default bucket: %s", cfg.S3.Bucket)
	}
}

func TestLoadEnvOverridesWinOverYAML(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("TOKEN_TTL", "48h")
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Auth.TokenTTL != 48*time.Hour {
		t.Fatalf("env TOKEN_TTL should override, got %s", cfg.Auth.TokenTTL)
	}
	if cfg.Auth.JWTSecret != "from-env" {
		t.Fatalf("env JWT_SECRET should override, got %s", cfg.Auth.JWTSecret)
	}
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV",
		"HTTP_ADDR",
		"HTTP_READ_TIMEOUT",
		"HTTP_WRITE_TIMEOUT",
		"HTTP_IDLE_TIMEOUT",
		"LOG_LEVEL",
		"SENTRY_DSN",
		"POSTGRES_DSN",
		"REDIS_ADDR",
		"REDIS_PASSWORD",
		"REDIS_DB",
		"S3_ENDPOINT",
		"S3_ACCESS_KEY",
		"S3_SECRET_KEY",
		"S3_BUCKET",
		"S3_USE_SSL",
		"JWT_SECRET",
		"TOKEN_TTL",
		"LOGIN_MAX_ATTEMPTS",
		"LOGIN_WINDOW",
		"SSO_CLIENT_ID",
		"SSO_CLIENT_SECRET",
		"SSO_AUTH_URL",
		"SSO_TOKEN_URL",
		"SSO_USERINFO_URL",
		"SSO_REDIRECT_URL",
		"SSO_SIGNOUT_URL",
		"GEO_PRIMARY_BASE_URL",
		"GEO_FALLBACK_BASE_URL",
		"GEO_TIMEOUT",
		"GEO_CACHE_TTL",
	} {
		t.Setenv(key, "")
	}
}
