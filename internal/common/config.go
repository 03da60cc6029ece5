package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for the fundnav binaries
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Source   SourceConfig   `toml:"source"`
	Sync     SyncConfig     `toml:"sync"`
	Logging  LoggingConfig  `toml:"logging"`
	Funds    []FundSeed     `toml:"funds"`
}

// ServerConfig holds gRPC server configuration
type ServerConfig struct {
	Port     int    `toml:"port"`
	APIToken string `toml:"api_token"`
}

// Address returns the listen address for the gRPC server
func (c *ServerConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// DatabaseConfig holds the store connection settings
// Driver is "postgres" or "sqlite3". DSN wins over the individual postgres fields when set.
type DatabaseConfig struct {
	Driver   string `toml:"driver"`
	DSN      string `toml:"dsn"`
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Name     string `toml:"name"`
	SSLMode  string `toml:"sslmode"`
}

// ConnectionString returns the DSN handed to database/sql
func (c *DatabaseConfig) ConnectionString() string {
	if c.DSN != "" {
		return c.DSN
	}
	if c.Driver == "sqlite3" {
		return "fundnav.db"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// SourceConfig holds the Eastmoney history endpoint configuration
type SourceConfig struct {
	BaseURL        string      `toml:"base_url"`
	PageSize       int         `toml:"page_size"`
	Timeout        string      `toml:"timeout"`
	RateLimit      float64     `toml:"rate_limit"` // requests per second, 0 disables limiting
	Burst          int         `toml:"burst"`
	SkipMissingNAV bool        `toml:"skip_missing_nav"`
	Retry          RetryConfig `toml:"retry"`
}

// GetTimeout parses and returns the per-request timeout
func (c *SourceConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 15*time.Second)
}

// RetryConfig controls retries of a single page request
// MaxAttempts <= 1 disables retrying
type RetryConfig struct {
	MaxAttempts     int    `toml:"max_attempts"`
	InitialInterval string `toml:"initial_interval"`
	MaxInterval     string `toml:"max_interval"`
}

// GetInitialInterval parses and returns the first backoff interval
func (c *RetryConfig) GetInitialInterval() time.Duration {
	return parseDuration(c.InitialInterval, 500*time.Millisecond)
}

// GetMaxInterval parses and returns the backoff interval cap
func (c *RetryConfig) GetMaxInterval() time.Duration {
	return parseDuration(c.MaxInterval, 5*time.Second)
}

// SyncConfig holds NAV synchronization settings
type SyncConfig struct {
	Days        int    `toml:"days"`
	Concurrency int    `toml:"concurrency"`
	FundTimeout string `toml:"fund_timeout"`
	Interval    string `toml:"interval"` // periodic server-side sync, empty or "0" disables it
	Location    string `toml:"location"` // time zone used to decide "today"
}

// GetFundTimeout parses and returns the timeout for one fund's fetch+upsert
func (c *SyncConfig) GetFundTimeout() time.Duration {
	return parseDuration(c.FundTimeout, 2*time.Minute)
}

// GetInterval parses and returns the periodic sync interval, zero when disabled
func (c *SyncConfig) GetInterval() time.Duration {
	return parseDuration(c.Interval, 0)
}

// GetLocation loads the sync time zone, falling back to UTC
func (c *SyncConfig) GetLocation() *time.Location {
	if c.Location == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Location)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// FundSeed is a fund registered at startup
type FundSeed struct {
	Code     string `toml:"code"`
	Name     string `toml:"name"`
	FundType string `toml:"type"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:     8080,
			APIToken: "dev-token",
		},
		Database: DatabaseConfig{
			Driver:   "postgres",
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Password: "postgres",
			Name:     "fundnav",
			SSLMode:  "disable",
		},
		Source: SourceConfig{
			BaseURL:   "https://api.fund.eastmoney.com",
			PageSize:  100,
			Timeout:   "15s",
			RateLimit: 5,
			Burst:     5,
			Retry: RetryConfig{
				MaxAttempts:     1,
				InitialInterval: "500ms",
				MaxInterval:     "5s",
			},
		},
		Sync: SyncConfig{
			Days:        30,
			Concurrency: 4,
			FundTimeout: "2m",
			Location:    "Asia/Shanghai",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
// Later files override earlier ones; missing files are skipped
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the values that would otherwise fail deep inside a sync
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite3":
	default:
		return fmt.Errorf("invalid config: database.driver must be postgres or sqlite3, got %q", c.Database.Driver)
	}
	if c.Source.PageSize <= 0 {
		return fmt.Errorf("invalid config: source.page_size must be positive, got %d", c.Source.PageSize)
	}
	if c.Sync.Concurrency <= 0 {
		return fmt.Errorf("invalid config: sync.concurrency must be positive, got %d", c.Sync.Concurrency)
	}
	if c.Sync.Days < 1 || c.Sync.Days > 3650 {
		return fmt.Errorf("invalid config: sync.days must be within 1..3650, got %d", c.Sync.Days)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("FUNDNAV_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			config.Server.Port = p
		}
	}
	if v := os.Getenv("API_TOKEN"); v != "" {
		config.Server.APIToken = v
	}

	// Database: the explicit connection string wins, individual vars are Docker friendly
	if v := os.Getenv("FUNDNAV_DB_DRIVER"); v != "" {
		config.Database.Driver = v
	}
	if v := os.Getenv("DB_CONN_STR"); v != "" {
		config.Database.DSN = v
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		config.Database.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			config.Database.Port = p
		}
	}
	if v := os.Getenv("DB_USER"); v != "" {
		config.Database.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		config.Database.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		config.Database.Name = v
	}

	if v := os.Getenv("FUNDNAV_SOURCE_BASE_URL"); v != "" {
		config.Source.BaseURL = v
	}
	if v := os.Getenv("FUNDNAV_SOURCE_RETRY_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.Source.Retry.MaxAttempts = n
		}
	}
	if v := os.Getenv("FUNDNAV_SKIP_MISSING_NAV"); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "y":
			config.Source.SkipMissingNAV = true
		case "0", "false", "no", "n":
			config.Source.SkipMissingNAV = false
		}
	}

	if v := os.Getenv("FUNDNAV_SYNC_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.Sync.Concurrency = n
		}
	}
	if v := os.Getenv("FUNDNAV_SYNC_INTERVAL"); v != "" {
		config.Sync.Interval = v
	}

	if v := os.Getenv("FUNDNAV_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("FUNDNAV_LOG_FORMAT"); v != "" {
		config.Logging.Format = v
	}
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
