package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

// writeTempConfig creates a minimal configuration file required for
// LoadConfig and returns its path.
func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "cfg-*.yml")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close temp file: %v", err)
	}
	return f.Name()
}

const minimalConfig = `niftypulse:
  name: "TestApp"
  version: "1.0"
catalog:
  path: "catalog.yml"
`

func TestLoadConfigDefaults(t *testing.T) {
	path := writeTempConfig(t, minimalConfig)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Market.TickInterval != 2*time.Second {
		t.Errorf("tick interval default = %v", cfg.Market.TickInterval)
	}
	if cfg.Market.HistoryCap != 50 {
		t.Errorf("history cap default = %d", cfg.Market.HistoryCap)
	}
	if cfg.Oracle.BatchSize != 10 || cfg.Oracle.MaxAttempts != 3 {
		t.Errorf("oracle defaults = %+v", cfg.Oracle)
	}
	if cfg.Oracle.RateLimitCooldown != 10*time.Second {
		t.Errorf("rate limit cooldown default = %v", cfg.Oracle.RateLimitCooldown)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeTempConfig(t, minimalConfig+`market:
  tick_interval: 500ms
  history_cap: 25
  volatility: 2
  high_beta_volatility: 6
  high_beta_symbols: [ADANIENT, ZOMATO]
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Market.TickInterval != 500*time.Millisecond {
		t.Errorf("tick interval = %v", cfg.Market.TickInterval)
	}
	hb := cfg.Market.HighBeta()
	if !hb["ADANIENT"] || !hb["ZOMATO"] || hb["TCS"] {
		t.Errorf("high beta set = %v", hb)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{"missing name", "niftypulse:\n  version: \"1\"\ncatalog:\n  path: c.yml\n", "name is required"},
		{"missing catalog", "niftypulse:\n  name: a\n  version: \"1\"\n", "catalog.path is required"},
		{
			"oracle without key",
			minimalConfig + "oracle:\n  enabled: true\n",
			"api_key is required",
		},
		{
			"oversized batch",
			minimalConfig + "oracle:\n  enabled: true\n  api_key: k\n  batch_size: 50\n",
			"batch_size",
		},
		{
			"archive without bucket",
			minimalConfig + "archive:\n  enabled: true\n",
			"bucket is required",
		},
	}
	for _, tc := range cases {
		path := writeTempConfig(t, tc.content)
		if _, err := LoadConfig(path); err == nil || !strings.Contains(err.Error(), tc.wantErr) {
			t.Errorf("%s: err = %v, want containing %q", tc.name, err, tc.wantErr)
		}
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("ORACLE_API_KEY", "from-env")
	t.Setenv("LOG_LEVEL", "debug")

	path := writeTempConfig(t, minimalConfig+"oracle:\n  enabled: true\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Oracle.APIKey != "from-env" {
		t.Errorf("oracle api key = %q", cfg.Oracle.APIKey)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q", cfg.Logging.Level)
	}
}
