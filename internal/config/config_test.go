package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/codr1/Courtside/internal/schedule"
)

const validYAML = `
app:
  name: Club Norte
  port: 9000
club:
  name: Club Norte
  timezone: America/Argentina/Buenos_Aires
  locale: es-AR
calendar:
  start_hour: 7
  end_hour: 23
  live_refresh: 30s
clients:
  phone_region: ar
auth:
  session_ttl: 12h
`

func setSecret(t *testing.T) {
	t.Helper()
	t.Setenv("APP_SECRET_KEY", "0123456789abcdef0123")
}

func TestParseAppliesDefaultsAndSecrets(t *testing.T) {
	setSecret(t)
	t.Setenv("REDIS_PASSWORD", "hunter2")

	cfg, err := Parse([]byte(validYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.App.Port != 9000 || cfg.App.Environment != "development" {
		t.Fatalf("unexpected app config %+v", cfg.App)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.Filename == "" {
		t.Fatalf("expected sqlite defaults, got %+v", cfg.Database)
	}
	if cfg.Calendar.LiveRefresh != 30*time.Second {
		t.Fatalf("expected 30s live refresh, got %s", cfg.Calendar.LiveRefresh)
	}
	if cfg.Clients.PhoneRegion != "AR" {
		t.Fatalf("expected upper-cased region, got %q", cfg.Clients.PhoneRegion)
	}
	if cfg.Clients.AggregateCron != "*/15 * * * *" {
		t.Fatalf("unexpected aggregate cron %q", cfg.Clients.AggregateCron)
	}
	if cfg.Auth.Provider != AuthProviderLocal || cfg.Auth.SessionTTL != 12*time.Hour {
		t.Fatalf("unexpected auth config %+v", cfg.Auth)
	}
	if cfg.Redis.Password != "hunter2" {
		t.Fatalf("expected redis password from env")
	}
	if cfg.Locale() != schedule.LocaleSpanish {
		t.Fatalf("expected es locale, got %q", cfg.Locale())
	}
	if cfg.Location().String() != "America/Argentina/Buenos_Aires" {
		t.Fatalf("unexpected location %s", cfg.Location())
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad port", func(c *Config) { c.App.Port = 70000 }, "app port"},
		{"bad driver", func(c *Config) { c.Database.Driver = "postgres" }, "unsupported database driver"},
		{"bad timezone", func(c *Config) { c.Club.Timezone = "Mars/Olympus" }, "club timezone"},
		{"bad locale", func(c *Config) { c.Club.Locale = "xx" }, "locale"},
		{"bad hours", func(c *Config) { c.Calendar.StartHour = 20; c.Calendar.EndHour = 10 }, "calendar hours"},
		{"fast refresh", func(c *Config) { c.Calendar.LiveRefresh = time.Millisecond }, "live_refresh"},
		{"bad region", func(c *Config) { c.Clients.PhoneRegion = "ZZ" }, "phone_region"},
		{"bad cron", func(c *Config) { c.Clients.AggregateCron = "every minute" }, "aggregate_cron"},
		{"short secret", func(c *Config) { c.App.SecretKey = "short" }, "APP_SECRET_KEY"},
		{"cognito ids", func(c *Config) { c.Auth.Provider = AuthProviderCognito }, "cognito"},
		{"bad provider", func(c *Config) { c.Auth.Provider = "ldap" }, "unsupported auth provider"},
		{"email sender", func(c *Config) { c.Email.Enabled = true; c.Email.Region = "us-east-1" }, "email region and sender"},
		{"events url", func(c *Config) { c.Events.Enabled = true }, "AMQP_URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.App.SecretKey = "0123456789abcdef0123"
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected error containing %q", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	cfg.App.SecretKey = "0123456789abcdef0123"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
	if cfg.Calendar.StartHour != 8 || cfg.Calendar.EndHour != 24 {
		t.Fatalf("unexpected default calendar hours %+v", cfg.Calendar)
	}
}

func TestCognitoDoesNotNeedSecret(t *testing.T) {
	cfg := Default()
	cfg.Auth.Provider = AuthProviderCognito
	cfg.Auth.Cognito.PoolID = "us-east-1_pool"
	cfg.Auth.Cognito.ClientID = "client"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected cognito config to validate without APP_SECRET_KEY, got %v", err)
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(validYAML), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("APP_SECRET_KEY=from-dotenv-0123456789\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("APP_SECRET_KEY", "")
	os.Unsetenv("APP_SECRET_KEY")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.SecretKey != "from-dotenv-0123456789" {
		t.Fatalf("expected secret from .env, got %q", cfg.App.SecretKey)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
