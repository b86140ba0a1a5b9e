package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // search.timezone must resolve on hosts without zoneinfo

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Search    SearchConfig    `mapstructure:"search"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	AllowOrigins string `mapstructure:"allow_origins"`
	// RateLimit is requests per minute per client IP; 0 disables the limiter.
	RateLimit int `mapstructure:"rate_limit"`
}

// DatabaseConfig selects the provider backend. Driver is "postgres" or "sqlite".
type DatabaseConfig struct {
	Driver     string `mapstructure:"driver"`
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	DBName     string `mapstructure:"dbname"`
	SSLMode    string `mapstructure:"sslmode"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
	// Cron is the deal sweep schedule in cron syntax.
	Cron string `mapstructure:"cron"`
}

// SearchConfig tunes explore sessions and the provider cache.
type SearchConfig struct {
	PageSize     int    `mapstructure:"page_size"`
	DebounceMS   int    `mapstructure:"debounce_ms"`
	StallAfterMS int    `mapstructure:"stall_after_ms"`
	OpenRefreshS int    `mapstructure:"open_refresh_s"`
	CacheTTLS    int    `mapstructure:"cache_ttl_s"`
	Locale       string `mapstructure:"locale"`
	Timezone     string `mapstructure:"timezone"`
	// ProviderURL points the terminal client at a running API instead of a database.
	ProviderURL string `mapstructure:"provider_url"`
}

func (s SearchConfig) Debounce() time.Duration {
	return time.Duration(s.DebounceMS) * time.Millisecond
}

func (s SearchConfig) StallAfter() time.Duration {
	return time.Duration(s.StallAfterMS) * time.Millisecond
}

func (s SearchConfig) OpenRefresh() time.Duration {
	return time.Duration(s.OpenRefreshS) * time.Second
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.allow_origins", "http://localhost:3000, http://localhost:5173")
	v.SetDefault("server.rate_limit", 120)
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "diadiem")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "diadiem")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.sqlite_path", "diadiem.db")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "deal-lifecycle")
	v.SetDefault("temporal.cron", "*/5 * * * *")
	v.SetDefault("search.page_size", 20)
	v.SetDefault("search.debounce_ms", 300)
	v.SetDefault("search.stall_after_ms", 8000)
	v.SetDefault("search.open_refresh_s", 60)
	v.SetDefault("search.cache_ttl_s", 120)
	v.SetDefault("search.locale", "vi")
	v.SetDefault("search.timezone", "Asia/Ho_Chi_Minh")
	v.SetDefault("search.provider_url", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: DIADIEM_DATABASE_HOST → database.host
	v.SetEnvPrefix("DIADIEM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	switch c.Database.Driver {
	case "postgres":
		if c.Database.Host == "" {
			errs = append(errs, "database.host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.User == "" {
			errs = append(errs, "database.user is required")
		}
		if c.Database.DBName == "" {
			errs = append(errs, "database.dbname is required")
		}
	case "sqlite":
		if c.Database.SQLitePath == "" {
			errs = append(errs, "database.sqlite_path is required for the sqlite driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("database.driver must be postgres or sqlite, got %q", c.Database.Driver))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, "server.rate_limit must not be negative")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Search.PageSize <= 0 || c.Search.PageSize > 100 {
		errs = append(errs, fmt.Sprintf("search.page_size must be 1-100, got %d", c.Search.PageSize))
	}
	if c.Search.DebounceMS < 0 {
		errs = append(errs, "search.debounce_ms must not be negative")
	}
	if c.Search.StallAfterMS < 0 {
		errs = append(errs, "search.stall_after_ms must not be negative")
	}
	if c.Search.OpenRefreshS < 0 {
		errs = append(errs, "search.open_refresh_s must not be negative")
	}
	if c.Search.CacheTTLS < 0 {
		errs = append(errs, "search.cache_ttl_s must not be negative")
	}
	if c.Search.Timezone != "" {
		if _, err := time.LoadLocation(c.Search.Timezone); err != nil {
			errs = append(errs, fmt.Sprintf("search.timezone %q: %v", c.Search.Timezone, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
