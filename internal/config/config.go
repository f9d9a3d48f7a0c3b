// Package config loads pipeline configuration from a YAML file with
// environment overrides for secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full configuration for the reconciliation pipeline.
type Config struct {
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickhouseDSN string `yaml:"clickhouse_dsn"`

	Indexer IndexerConfig `yaml:"indexer"`

	FreshnessWindow  time.Duration `yaml:"freshness_window"`
	RequestInterval  time.Duration `yaml:"request_interval"`
	RateLimitBackoff time.Duration `yaml:"rate_limit_backoff"`

	AdminListenAddr string `yaml:"admin_listen_addr"`
	CronSchedule    string `yaml:"cron_schedule"`
}

// IndexerConfig configures the indexer API fallback source.
type IndexerConfig struct {
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`
	PageSize int    `yaml:"page_size"`
	MaxPages int    `yaml:"max_pages"`
}

// Defaults applied for fields left unset in the file.
const (
	DefaultFreshnessWindow  = 4 * time.Hour
	DefaultRequestInterval  = 2 * time.Second
	DefaultRateLimitBackoff = 30 * time.Second
	DefaultAdminListenAddr  = ":8080"
	DefaultCronSchedule     = "0 */4 * * *"
)

// Load reads the config file at path, applies env overrides and
// defaults, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv overlays secrets from the environment. Env values win over
// the file so deployments never have to write keys to disk.
func (c *Config) applyEnv() {
	if v := os.Getenv("POOLDASH_POSTGRES_DSN"); v != "" {
		c.PostgresDSN = v
	}
	if v := os.Getenv("POOLDASH_CLICKHOUSE_DSN"); v != "" {
		c.ClickhouseDSN = v
	}
	if v := os.Getenv("POOLDASH_INDEXER_API_KEY"); v != "" {
		c.Indexer.APIKey = v
	}
}

func (c *Config) applyDefaults() {
	if c.FreshnessWindow <= 0 {
		c.FreshnessWindow = DefaultFreshnessWindow
	}
	if c.RequestInterval <= 0 {
		c.RequestInterval = DefaultRequestInterval
	}
	if c.RateLimitBackoff <= 0 {
		c.RateLimitBackoff = DefaultRateLimitBackoff
	}
	if c.AdminListenAddr == "" {
		c.AdminListenAddr = DefaultAdminListenAddr
	}
	if c.CronSchedule == "" {
		c.CronSchedule = DefaultCronSchedule
	}
}

func (c *Config) validate() error {
	if c.PostgresDSN == "" {
		return fmt.Errorf("postgres_dsn is required")
	}
	if c.Indexer.PageSize < 0 {
		return fmt.Errorf("indexer.page_size must not be negative")
	}
	if c.Indexer.MaxPages < 0 {
		return fmt.Errorf("indexer.max_pages must not be negative")
	}
	return nil
}
