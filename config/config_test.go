package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Scoring.Provider != ProviderVision {
		t.Errorf("provider = %q, want %q", cfg.Scoring.Provider, ProviderVision)
	}
	if cfg.Scoring.AlertThreshold != 6 {
		t.Errorf("alertThreshold = %d, want 6", cfg.Scoring.AlertThreshold)
	}
	if cfg.Scoring.Timeout != 20*time.Second {
		t.Errorf("timeout = %v, want 20s", cfg.Scoring.Timeout)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("port = %q, want 8080", cfg.Server.Port)
	}
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := writeConfig(t, `
scoring:
  provider: external
  alertThreshold: 8
  external:
    endpoint: http://scorer.local/score
kafka:
  brokers: ["a:9092"]
`)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("KAFKA_BROKERS", "b:9092, c:9092")

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("port = %q, want env override 9090", cfg.Server.Port)
	}
	if cfg.Scoring.Provider != ProviderExternal || cfg.Scoring.AlertThreshold != 8 {
		t.Errorf("scoring = %+v", cfg.Scoring)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[0] != "b:9092" || cfg.Kafka.Brokers[1] != "c:9092" {
		t.Errorf("brokers = %v, want [b:9092 c:9092]", cfg.Kafka.Brokers)
	}
}

func TestValidate(t *testing.T) {
	base := Config{Scoring: ScoringConfig{Provider: ProviderVision, AlertThreshold: 6, Timeout: time.Second}}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid vision", func(*Config) {}, false},
		{"unknown provider", func(c *Config) { c.Scoring.Provider = "magic" }, true},
		{"external without endpoint", func(c *Config) { c.Scoring.Provider = ProviderExternal }, true},
		{"external with endpoint", func(c *Config) {
			c.Scoring.Provider = ProviderExternal
			c.Scoring.External.Endpoint = "http://x"
		}, false},
		{"threshold too high", func(c *Config) { c.Scoring.AlertThreshold = 11 }, true},
		{"zero timeout", func(c *Config) { c.Scoring.Timeout = 0 }, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestNewLogger_LevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := ServerConfig{LogLevel: "WARN", LogJSON: true}.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record written at warn level: %s", out)
	}
	if !strings.HasPrefix(out, "{") || !strings.Contains(out, `"k":"v"`) {
		t.Errorf("want a JSON record, got %s", out)
	}
	if got := parseLevel("verbose"); got != slog.LevelInfo {
		t.Errorf("parseLevel(verbose) = %v, want info", got)
	}
}
