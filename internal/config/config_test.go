package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"courtbook/internal/models"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("COURTBOOK_TEST_SECRET", "s3cret")

	yamlContent := `
database:
  path: "test.db"
api:
  auth:
    jwt_secret: "${COURTBOOK_TEST_SECRET}"
  cors:
    allowed_origins: ["https://club.example"]
schedule:
  timezone: "Europe/Paris"
  lock_ttl: 10s
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.API.Auth.JWTSecret != "s3cret" {
		t.Errorf("expected jwt_secret expanded from env, got %q", cfg.API.Auth.JWTSecret)
	}
	if len(cfg.API.CORS.AllowedOrigins) != 1 || cfg.API.CORS.AllowedOrigins[0] != "https://club.example" {
		t.Errorf("unexpected allowed origins %v", cfg.API.CORS.AllowedOrigins)
	}
	if cfg.Schedule.LockTTL != 10*time.Second {
		t.Errorf("expected lock_ttl 10s, got %s", cfg.Schedule.LockTTL)
	}
	if cfg.Schedule.Timezone != "Europe/Paris" {
		t.Errorf("expected timezone Europe/Paris, got %s", cfg.Schedule.Timezone)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidateConfig(t *testing.T) {
	valid := func() Config {
		c := Config{
			Database: DatabaseConfig{Path: "path"},
			API:      APIConfig{Auth: APIAuthConfig{JWTSecret: "secret"}},
		}
		c.applyDefaults()
		return c
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{name: "missing database path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: true},
		{name: "missing secret", mutate: func(c *Config) { c.API.Auth.JWTSecret = "" }, wantErr: true},
		{name: "placeholder secret", mutate: func(c *Config) { c.API.Auth.JWTSecret = "CHANGE_ME" }, wantErr: true},
		{name: "unordered hours", mutate: func(c *Config) { c.Schedule.Hours = []int{18, 17} }, wantErr: true},
		{name: "negative courts", mutate: func(c *Config) { c.Schedule.Courts = -1 }, wantErr: true},
		{name: "unknown timezone", mutate: func(c *Config) { c.Schedule.Timezone = "Nowhere/City" }, wantErr: true},
		{
			name: "lock wait exceeds ttl",
			mutate: func(c *Config) {
				c.Schedule.LockTTL = time.Second
				c.Schedule.LockWait = 2 * time.Second
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.API.GRPC.Port != 8081 {
		t.Errorf("expected default gRPC port 8081, got %d", cfg.API.GRPC.Port)
	}
	if cfg.API.HTTP.Port != 8080 {
		t.Errorf("expected default HTTP port 8080, got %d", cfg.API.HTTP.Port)
	}
	if len(cfg.Schedule.Hours) != 5 || cfg.Schedule.Hours[0] != 16 || cfg.Schedule.Hours[4] != 20 {
		t.Errorf("expected default hours 16..20, got %v", cfg.Schedule.Hours)
	}
	if cfg.Schedule.Courts != 4 {
		t.Errorf("expected 4 courts, got %d", cfg.Schedule.Courts)
	}
	if cfg.Schedule.PurgeAfterDays != models.DefaultPurgeAfterDays {
		t.Errorf("expected purge after %d days, got %d", models.DefaultPurgeAfterDays, cfg.Schedule.PurgeAfterDays)
	}
	if cfg.API.RateLimit.Burst != models.RateLimitBurst {
		t.Errorf("expected default burst %d, got %d", models.RateLimitBurst, cfg.API.RateLimit.Burst)
	}
	if cfg.API.Auth.TokenTTL != 24*time.Hour {
		t.Errorf("expected token ttl 24h, got %s", cfg.API.Auth.TokenTTL)
	}

	grid, err := cfg.Schedule.Grid()
	if err != nil {
		t.Fatalf("default grid invalid: %v", err)
	}
	if grid.Capacity() != 20 {
		t.Errorf("expected capacity 20, got %d", grid.Capacity())
	}
}
