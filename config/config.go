package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Niftypulse NiftypulseConfig `yaml:"niftypulse"`
	Market     MarketConfig     `yaml:"market"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Oracle     OracleConfig     `yaml:"oracle"`
	Analysis   AnalysisConfig   `yaml:"analysis"`
	Dashboard  DashboardConfig  `yaml:"dashboard"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Archive    ArchiveConfig    `yaml:"archive"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type NiftypulseConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type MarketConfig struct {
	TickInterval       time.Duration `yaml:"tick_interval"`
	HistoryCap         int           `yaml:"history_cap"`
	Volatility         float64       `yaml:"volatility"`
	HighBetaVolatility float64       `yaml:"high_beta_volatility"`
	HighBetaSymbols    []string      `yaml:"high_beta_symbols"`
	// FlowRefreshChance is the per-open-tick probability of regenerating
	// the market-wide institutional flow snapshot.
	FlowRefreshChance float64 `yaml:"flow_refresh_chance"`
}

type CatalogConfig struct {
	Path string `yaml:"path"`
}

type OracleConfig struct {
	Enabled           bool          `yaml:"enabled"`
	SyncOnStart       bool          `yaml:"sync_on_start"`
	BatchSize         int           `yaml:"batch_size"`
	BatchDelay        time.Duration `yaml:"batch_delay"`
	MaxAttempts       int           `yaml:"max_attempts"`
	BaseBackoff       time.Duration `yaml:"base_backoff"`
	RateLimitCooldown time.Duration `yaml:"rate_limit_cooldown"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	APIKey            string        `yaml:"api_key"`
}

type AnalysisConfig struct {
	Enabled bool          `yaml:"enabled"`
	Timeout time.Duration `yaml:"timeout"`
}

type DashboardConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Address         string        `yaml:"address"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	LogHistory      int           `yaml:"log_history"`
	MetricsHistory  int           `yaml:"metrics_history"`
}

type MetricsConfig struct {
	Enabled             bool   `yaml:"enabled"`
	Address             string `yaml:"address"`
	CloudWatchNamespace string `yaml:"cloudwatch_namespace"`
}

type ArchiveConfig struct {
	Enabled       bool          `yaml:"enabled"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	S3            S3Config      `yaml:"s3"`
}

type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Prefix          string `yaml:"prefix"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
}

// Environment collects the overrides honoured on top of the YAML file.
type Environment struct {
	OracleAPIKey       string `envconfig:"ORACLE_API_KEY"`
	LogLevel           string `envconfig:"LOG_LEVEL"`
	AWSRegion          string `envconfig:"AWS_REGION"`
	AWSAccessKeyID     string `envconfig:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `envconfig:"AWS_SECRET_ACCESS_KEY"`
	ArchiveBucket      string `envconfig:"ARCHIVE_BUCKET"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := defaults()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	var env Environment
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("failed to read environment overrides: %w", err)
	}
	applyEnvironment(config, env)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return config, nil
}

func defaults() *Config {
	return &Config{
		Market: MarketConfig{
			TickInterval:       2 * time.Second,
			HistoryCap:         50,
			Volatility:         1.5,
			HighBetaVolatility: 5,
			FlowRefreshChance:  0.1,
		},
		Oracle: OracleConfig{
			SyncOnStart:       true,
			BatchSize:         10,
			BatchDelay:        2 * time.Second,
			MaxAttempts:       3,
			BaseBackoff:       time.Second,
			RateLimitCooldown: 10 * time.Second,
			RequestsPerSecond: 0.25,
			Burst:             1,
		},
		Analysis: AnalysisConfig{
			Timeout: 30 * time.Second,
		},
		Dashboard: DashboardConfig{
			RefreshInterval: 5 * time.Second,
			LogHistory:      200,
			MetricsHistory:  200,
		},
		Metrics: MetricsConfig{
			Address: "0.0.0.0:2112",
		},
		Archive: ArchiveConfig{
			FlushInterval: time.Minute,
		},
	}
}

func applyEnvironment(cfg *Config, env Environment) {
	if v := strings.TrimSpace(env.OracleAPIKey); v != "" {
		cfg.Oracle.APIKey = v
	}
	if v := strings.TrimSpace(env.LogLevel); v != "" {
		cfg.Logging.Level = v
	}
	if v := strings.TrimSpace(env.AWSRegion); v != "" {
		cfg.Archive.S3.Region = v
	}
	if v := strings.TrimSpace(env.AWSAccessKeyID); v != "" {
		cfg.Archive.S3.AccessKeyID = v
	}
	if v := strings.TrimSpace(env.AWSSecretAccessKey); v != "" {
		cfg.Archive.S3.SecretAccessKey = v
	}
	if v := strings.TrimSpace(env.ArchiveBucket); v != "" {
		cfg.Archive.S3.Bucket = v
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Niftypulse.Name == "" {
		return fmt.Errorf("niftypulse.name is required")
	}
	if cfg.Niftypulse.Version == "" {
		return fmt.Errorf("niftypulse.version is required")
	}
	if cfg.Catalog.Path == "" {
		return fmt.Errorf("catalog.path is required")
	}
	if cfg.Market.TickInterval <= 0 {
		return fmt.Errorf("market.tick_interval must be greater than 0")
	}
	if cfg.Market.HistoryCap <= 0 {
		return fmt.Errorf("market.history_cap must be greater than 0")
	}
	if cfg.Market.Volatility <= 0 || cfg.Market.HighBetaVolatility <= 0 {
		return fmt.Errorf("market volatility coefficients must be greater than 0")
	}
	if cfg.Market.FlowRefreshChance < 0 || cfg.Market.FlowRefreshChance > 1 {
		return fmt.Errorf("market.flow_refresh_chance must be within [0, 1]")
	}

	if cfg.Oracle.Enabled {
		if cfg.Oracle.BatchSize <= 0 || cfg.Oracle.BatchSize > 10 {
			return fmt.Errorf("oracle.batch_size must be within (0, 10]")
		}
		if cfg.Oracle.MaxAttempts <= 0 {
			return fmt.Errorf("oracle.max_attempts must be greater than 0")
		}
		if cfg.Oracle.BaseBackoff <= 0 {
			return fmt.Errorf("oracle.base_backoff must be greater than 0")
		}
		if cfg.Oracle.APIKey == "" {
			return fmt.Errorf("oracle.api_key is required when the oracle is enabled")
		}
	}

	if cfg.Dashboard.Enabled && cfg.Dashboard.Address == "" {
		return fmt.Errorf("dashboard.address is required when the dashboard is enabled")
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Address == "" {
		return fmt.Errorf("metrics.address is required when metrics are enabled")
	}

	if cfg.Archive.Enabled {
		if cfg.Archive.S3.Bucket == "" {
			return fmt.Errorf("archive.s3.bucket is required when the archive is enabled")
		}
		if cfg.Archive.S3.Region == "" {
			return fmt.Errorf("archive.s3.region is required when the archive is enabled")
		}
		if cfg.Archive.FlushInterval <= 0 {
			return fmt.Errorf("archive.flush_interval must be greater than 0")
		}
	}
	return nil
}

// HighBeta returns the configured high-beta symbol set as a lookup map.
func (m MarketConfig) HighBeta() map[string]bool {
	out := make(map[string]bool, len(m.HighBetaSymbols))
	for _, sym := range m.HighBetaSymbols {
		out[strings.TrimSpace(sym)] = true
	}
	return out
}
