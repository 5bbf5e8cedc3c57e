package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	g := cfg.Generation
	if g.Width != 1000 || g.Height != 1000 || g.Seed != 42 || g.StarCount != 500 || g.GridSize != 10 {
		t.Errorf("unexpected generation defaults: %+v", g)
	}
	if g.Distribution != "scatter" || g.Engine != "mt19937" {
		t.Errorf("method/engine defaults = %s/%s", g.Distribution, g.Engine)
	}
	if g.AdjacencyThreshold != 1.5 || g.MaxGatesPerSystem != 6 || g.MinGatesForHub != 3 || g.MinHubDistance != 100 {
		t.Errorf("gate/hub defaults wrong: %+v", g)
	}
	if cfg.Redis.SummaryTTL != 5*time.Minute {
		t.Errorf("summary TTL = %v", cfg.Redis.SummaryTTL)
	}
	if cfg.Database.ConnectAttempts != 5 || cfg.Redis.ConnectAttempts != 3 {
		t.Errorf("connect attempts = %d/%d", cfg.Database.ConnectAttempts, cfg.Redis.ConnectAttempts)
	}
	if cfg.RateLimit.WriteCost != 5 {
		t.Errorf("write cost = %d", cfg.RateLimit.WriteCost)
	}
}

func TestLoadGenerationOverrides(t *testing.T) {
	t.Setenv("GALAXY_SEED", "7")
	t.Setenv("GALAXY_ENGINE", "pcg")
	t.Setenv("GALAXY_HUB_SPAWN_PROBABILITY", "1")
	t.Setenv("GALAXY_STAR_COUNT", "not-a-number")

	cfg, err := load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	g := cfg.Generation
	if g.Seed != 7 || g.Engine != "pcg" || g.HubSpawnProbability != 1 {
		t.Errorf("overrides not applied: %+v", g)
	}
	if g.StarCount != 500 {
		t.Errorf("malformed star count should fall back to 500, got %d", g.StarCount)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: "8080"},
			Database: DatabaseConfig{Enabled: true, Host: "localhost", Name: "galaxy"},
			Admin:    AdminConfig{Enabled: true, JWTSecret: strings.Repeat("s", 32)},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing port", func(c *Config) { c.Server.Port = "" }, "SERVER_PORT"},
		{"missing db host", func(c *Config) { c.Database.Host = "" }, "DB_HOST"},
		{"db disabled skips checks", func(c *Config) { c.Database = DatabaseConfig{} }, ""},
		{"short secret", func(c *Config) { c.Admin.JWTSecret = "short" }, "32 characters"},
		{"admin disabled", func(c *Config) { c.Admin = AdminConfig{} }, ""},
		{"telemetry without endpoint", func(c *Config) { c.Telemetry.Enabled = true }, "OTEL_ENDPOINT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}
