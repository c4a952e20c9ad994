package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func env(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Server.Addr != "0.0.0.0:8080" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.Auth.TokenTTL != 7*24*time.Hour {
		t.Errorf("Auth.TokenTTL = %v", cfg.Auth.TokenTTL)
	}
	if cfg.Queue.MaxWorkers != 10 {
		t.Errorf("Queue.MaxWorkers = %d", cfg.Queue.MaxWorkers)
	}
	if cfg.Stripe.Currency != "usd" {
		t.Errorf("Stripe.Currency = %q", cfg.Stripe.Currency)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "microearn.toml")
	body := `
env = "production"

[server]
addr = "127.0.0.1:9000"
client_url = "https://app.example.com/"
request_timeout = "10s"

[auth]
jwt_secret = "from-file"
token_ttl = "24h"

[queue]
max_workers = 3
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Env != EnvProduction || cfg.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("env=%q addr=%q", cfg.Env, cfg.Server.Addr)
	}
	if cfg.Server.RequestTimeout != 10*time.Second || cfg.Auth.TokenTTL != 24*time.Hour {
		t.Errorf("durations: %v %v", cfg.Server.RequestTimeout, cfg.Auth.TokenTTL)
	}
	if cfg.Queue.MaxWorkers != 3 {
		t.Errorf("MaxWorkers = %d", cfg.Queue.MaxWorkers)
	}
	// Unset keys keep their defaults.
	if cfg.Stripe.APIBase != "https://api.stripe.com" {
		t.Errorf("APIBase = %q", cfg.Stripe.APIBase)
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "https://app.example.com" {
		t.Errorf("AllowedOrigins = %v", cfg.Server.AllowedOrigins)
	}
	if !strings.HasPrefix(cfg.Stripe.SuccessURL, "https://app.example.com/payments/success") {
		t.Errorf("SuccessURL = %q", cfg.Stripe.SuccessURL)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("missing file should fail")
	}
}

func TestEnvOverrides(t *testing.T) {
	cfg := Default()
	cfg.applyEnv(env(map[string]string{
		"DATABASE_URL":                   "postgres://prod",
		"PORT":                           "7070",
		"JWT_SECRET":                     "s3cret",
		"STRIPE_SECRET_KEY":              "sk_test",
		"STRIPE_WEBHOOK_SECRET":          "whsec",
		"FIREBASE_PROJECT_ID":            "microearn-prod",
		"GOOGLE_APPLICATION_CREDENTIALS": "/etc/microearn/sa.json",
		"LOG_LEVEL":                      "debug",
		"CLIENT_URL":                     "",
	}))
	cfg.derive()

	if cfg.Database.URL != "postgres://prod" || cfg.Server.Addr != "0.0.0.0:7070" {
		t.Errorf("db=%q addr=%q", cfg.Database.URL, cfg.Server.Addr)
	}
	if cfg.Auth.JWTSecret != "s3cret" || cfg.Auth.FirebaseProjectID != "microearn-prod" || cfg.Auth.FirebaseCredentialsFile != "/etc/microearn/sa.json" {
		t.Errorf("auth: %+v", cfg.Auth)
	}
	if cfg.Stripe.SecretKey != "sk_test" || cfg.Stripe.WebhookSecret != "whsec" {
		t.Errorf("stripe: %+v", cfg.Stripe)
	}
	// Empty values do not clobber defaults.
	if cfg.Server.ClientURL != "http://localhost:3000" {
		t.Errorf("ClientURL = %q", cfg.Server.ClientURL)
	}
	lvl, err := cfg.SlogLevel()
	if err != nil || lvl != slog.LevelDebug {
		t.Errorf("SlogLevel = %v, %v", lvl, err)
	}
}

func TestValidate(t *testing.T) {
	dev := Default()
	dev.derive()
	if err := dev.Validate(); err != nil {
		t.Errorf("dev defaults should validate: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"no secret in production", func(c *Config) { c.Env = EnvProduction; c.Auth.JWTSecret = "" }, "jwt_secret"},
		{"no firebase project in production", func(c *Config) { c.Env = EnvProduction; c.Auth.JWTSecret = "x" }, "firebase_project_id"},
		{"zero workers", func(c *Config) { c.Queue.MaxWorkers = 0 }, "max_workers"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"no database", func(c *Config) { c.Database.URL = "" }, "database.url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			cfg.derive()
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want mention of %q", err, tt.want)
			}
		})
	}
}
