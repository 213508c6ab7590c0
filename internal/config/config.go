package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Environment string `toml:"-"`

	Host string `toml:"host"`
	Port int    `toml:"port"`

	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// postgres
	PostgresHost     string `toml:"postgres_host"`
	PostgresPort     string `toml:"postgres_port"`
	PostgresDBName   string `toml:"postgres_db_name"`
	PostgresUser     string `toml:"postgres_user"`
	PostgresMaxConns int32  `toml:"postgres_max_conns"`

	// redis
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`

	// cache
	CacheDriver        string `toml:"cache_driver"`
	CacheLayering      bool   `toml:"cache_layering"`
	CacheDefaultTTLSec int    `toml:"cache_default_ttl_sec"`
	CacheL1TTLSec      int    `toml:"cache_l1_ttl_sec"`
	CacheMemorySizeMB  int    `toml:"cache_memory_size_mb"`
	CacheKeyPrefix     string `toml:"cache_key_prefix"`

	// rtf program
	MaxTMDeltaKg       float64 `toml:"max_tm_delta_kg"`
	ETagEnabled        bool    `toml:"etag_enabled"`
	AutoAdjustStrategy string  `toml:"auto_adjust_strategy"`

	// sessions
	SessionAbortAfterMin    int `toml:"session_abort_after_min"`
	SessionSweepIntervalMin int `toml:"session_sweep_interval_min"`

	MetricsSnapshotIntervalSec int `toml:"metrics_snapshot_interval_sec"`
	TMEventsRateLimitPerMin    int `toml:"tm_events_rate_limit_per_min"`

	AllowedOrigins []string `toml:"allowed_origins"`

	Secrets Secrets `toml:"-"`
}

// Secrets never live in the config file.
type Secrets struct {
	PostgresPassword string `env:"GYMPROGRAM_POSTGRES_PASS"`
	RedisPassword    string `env:"GYMPROGRAM_REDIS_PASS"`
	SentryDSN        string `env:"SENTRY_DSN"`
	HoneycombEnabled bool   `env:"HONEYCOMB_ENABLED, default=false"`
	HoneycombAPIKey  string `env:"HONEYCOMB_API_KEY"`
}

const (
	defaultMaxTMDeltaKg         = 15
	defaultSessionAbortAfter    = 4 * time.Hour
	defaultSessionSweepInterval = 10 * time.Minute
	defaultMetricsSnapshot      = 15 * time.Second
	defaultTMEventsPerMin       = 30
	defaultCacheMemorySizeMB    = 32
)

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("no config section for env: %s", env)
	}
	cfg.Environment = strings.ToLower(env)
	return cfg, nil
}

// Load reads the env section of the TOML file at path and fills the secrets
// from the process environment.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file [%s]: %w", path, err)
	}
	return fromToml(&t, env, envconfig.OsLookuper())
}

func fromToml(t *Toml, env string, lookuper envconfig.Lookuper) (*Config, error) {
	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}

	if err := envconfig.ProcessWith(context.Background(), &envconfig.Config{
		Target:   &cfg.Secrets,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("read secrets from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port <= 0 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.MaxTMDeltaKg < 0 {
		return fmt.Errorf("max_tm_delta_kg must not be negative: %v", c.MaxTMDeltaKg)
	}
	if c.CacheDefaultTTLSec < 0 || c.CacheL1TTLSec < 0 {
		return fmt.Errorf("cache ttl must not be negative")
	}
	return nil
}

func (c *Config) CacheDefaultTTL() time.Duration {
	return time.Duration(c.CacheDefaultTTLSec) * time.Second
}

func (c *Config) CacheL1TTL() time.Duration {
	return time.Duration(c.CacheL1TTLSec) * time.Second
}

func (c *Config) CacheMemorySizeBytes() int {
	if c.CacheMemorySizeMB <= 0 {
		return defaultCacheMemorySizeMB * 1024 * 1024
	}
	return c.CacheMemorySizeMB * 1024 * 1024
}

// TMDeltaLimitKg is the guardrail for a single TM adjustment.
func (c *Config) TMDeltaLimitKg() float64 {
	if c.MaxTMDeltaKg == 0 {
		return defaultMaxTMDeltaKg
	}
	return c.MaxTMDeltaKg
}

func (c *Config) SessionAbortAfter() time.Duration {
	return minutesOr(c.SessionAbortAfterMin, defaultSessionAbortAfter)
}

func (c *Config) SessionSweepInterval() time.Duration {
	return minutesOr(c.SessionSweepIntervalMin, defaultSessionSweepInterval)
}

func (c *Config) MetricsSnapshotInterval() time.Duration {
	if c.MetricsSnapshotIntervalSec <= 0 {
		return defaultMetricsSnapshot
	}
	return time.Duration(c.MetricsSnapshotIntervalSec) * time.Second
}

func (c *Config) TMEventsPerMin() int {
	if c.TMEventsRateLimitPerMin <= 0 {
		return defaultTMEventsPerMin
	}
	return c.TMEventsRateLimitPerMin
}

func minutesOr(minutes int, def time.Duration) time.Duration {
	if minutes <= 0 {
		return def
	}
	return time.Duration(minutes) * time.Minute
}
