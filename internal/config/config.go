// Package config loads the application configuration from defaults, an
// optional YAML file, and environment overrides, in that order. All
// components receive their settings from here explicitly; nothing reads
// the environment from inside business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Providers ProvidersConfig `yaml:"providers"`
	Retry     RetryConfig     `yaml:"retry"`
	Health    HealthConfig    `yaml:"health"`
	Alerts    AlertsConfig    `yaml:"alerts"`
}

// ServerConfig contains the HTTP server settings.
type ServerConfig struct {
	Port string `yaml:"port"`
}

// DatabaseConfig contains the postgres connection settings.
type DatabaseConfig struct {
	Host          string `yaml:"host"`
	Port          string `yaml:"port"`
	User          string `yaml:"user"`
	Password      string `yaml:"password"`
	Name          string `yaml:"name"`
	SSLMode       string `yaml:"ssl_mode"`
	RunMigrations bool   `yaml:"run_migrations"`
}

// RedisConfig contains the cache settings. An empty Addr disables the
// caching layer entirely.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ProvidersConfig selects and configures the market data sources.
type ProvidersConfig struct {
	// Order is the fallback chain order; the first entry is the
	// primary source.
	Order               []string `yaml:"order"`
	YahooBaseURL        string   `yaml:"yahoo_base_url"`
	AlphaVantageBaseURL string   `yaml:"alphavantage_base_url"`
	AlphaVantageAPIKey  string   `yaml:"alphavantage_api_key"`
}

// RetryConfig contains the whole-chain retry parameters.
type RetryConfig struct {
	MaxRetries        int     `yaml:"max_retries"`
	BaseDelay         string  `yaml:"base_delay"` // duration string, e.g. "2s"
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
}

// ParseBaseDelay converts the delay string to a time.Duration.
func (r RetryConfig) ParseBaseDelay() (time.Duration, error) {
	if r.BaseDelay == "" {
		return 0, nil
	}
	return time.ParseDuration(r.BaseDelay)
}

// HealthConfig contains the health-check settings.
type HealthConfig struct {
	Symbols                 []string `yaml:"symbols"`
	ProbeSymbol             string   `yaml:"probe_symbol"`
	ProbeLookbackDays       int      `yaml:"probe_lookback_days"`
	StalenessThresholdHours int      `yaml:"staleness_threshold_hours"`
}

// AlertsConfig contains the alert channel settings. An empty WebhookURL
// degrades alert dispatch to log-only.
type AlertsConfig struct {
	WebhookURL string `yaml:"webhook_url"`
	Channel    string `yaml:"channel"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080"},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    "5432",
			User:    "postgres",
			Name:    "stockwatch",
			SSLMode: "disable",
		},
		Providers: ProvidersConfig{Order: []string{"yahoo", "alphavantage"}},
		Retry:     RetryConfig{MaxRetries: 3, BaseDelay: "2s", BackoffMultiplier: 2},
		Health: HealthConfig{
			ProbeSymbol:             "AAPL",
			ProbeLookbackDays:       7,
			StalenessThresholdHours: 48,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file
// at path, and environment overrides. path may be empty.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Server.Port, "PORT")

	setString(&c.Database.Host, "DB_HOST")
	setString(&c.Database.Port, "DB_PORT")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.Name, "DB_NAME")
	setString(&c.Database.SSLMode, "DB_SSLMODE")
	if v := os.Getenv("RUN_MIGRATIONS"); v != "" {
		c.Database.RunMigrations = v == "true"
	}

	if host := os.Getenv("REDIS_HOST"); host != "" {
		port := os.Getenv("REDIS_PORT")
		if port == "" {
			port = "6379"
		}
		c.Redis.Addr = host + ":" + port
	}
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setInt(&c.Redis.DB, "REDIS_DB")

	if v := os.Getenv("PROVIDER_ORDER"); v != "" {
		c.Providers.Order = splitList(v)
	}
	setString(&c.Providers.YahooBaseURL, "YAHOO_BASE_URL")
	setString(&c.Providers.AlphaVantageBaseURL, "ALPHAVANTAGE_BASE_URL")
	setString(&c.Providers.AlphaVantageAPIKey, "ALPHAVANTAGE_API_KEY")

	setInt(&c.Retry.MaxRetries, "MAX_RETRIES")
	setString(&c.Retry.BaseDelay, "BASE_DELAY")
	if v := os.Getenv("BACKOFF_MULTIPLIER"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Retry.BackoffMultiplier = f
		}
	}

	if v := os.Getenv("HEALTH_SYMBOLS"); v != "" {
		c.Health.Symbols = splitList(v)
	}
	setString(&c.Health.ProbeSymbol, "HEALTH_PROBE_SYMBOL")
	setInt(&c.Health.ProbeLookbackDays, "HEALTH_PROBE_LOOKBACK_DAYS")
	setInt(&c.Health.StalenessThresholdHours, "STALENESS_THRESHOLD_HOURS")

	setString(&c.Alerts.WebhookURL, "ALERT_WEBHOOK_URL")
	setString(&c.Alerts.Channel, "ALERT_CHANNEL")
}

// Validate checks the configuration for values that would misbehave at
// runtime.
func (c *Config) Validate() error {
	if len(c.Providers.Order) == 0 {
		return fmt.Errorf("providers.order must name at least one provider")
	}
	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative")
	}
	if c.Retry.BackoffMultiplier < 1 {
		return fmt.Errorf("retry.backoff_multiplier must be at least 1")
	}
	if d, err := c.Retry.ParseBaseDelay(); err != nil {
		return fmt.Errorf("retry.base_delay: %w", err)
	} else if d < 0 {
		return fmt.Errorf("retry.base_delay must not be negative")
	}
	if c.Health.StalenessThresholdHours < 0 {
		return fmt.Errorf("health.staleness_threshold_hours must not be negative")
	}
	if c.Health.ProbeLookbackDays < 0 {
		return fmt.Errorf("health.probe_lookback_days must not be negative")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
