package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Maps      MapsConfig      `mapstructure:"maps"`
	Cache     CacheConfig     `mapstructure:"cache"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

// MapsConfig selects and tunes the map backend. An empty api_key selects the
// built-in deterministic estimate provider.
type MapsConfig struct {
	APIKey          string `mapstructure:"api_key"`
	BaseURL         string `mapstructure:"base_url"`
	RatePerSecond   int    `mapstructure:"rate_per_second"`
	DailyQuota      int    `mapstructure:"daily_quota"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds"`
	DeadlineSeconds int    `mapstructure:"deadline_seconds"`
}

type CacheConfig struct {
	GeocodeTTLSeconds int `mapstructure:"geocode_ttl_seconds"`
	GeocodeMaxEntries int `mapstructure:"geocode_max_entries"`
	TransitTTLSeconds int `mapstructure:"transit_ttl_seconds"`
	TransitMaxEntries int `mapstructure:"transit_max_entries"`
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Enabled bool   `mapstructure:"enabled"`
}

type ValkeyConfig struct {
	Addr    string `mapstructure:"addr"`
	Enabled bool   `mapstructure:"enabled"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
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
	v.SetDefault("server.read_timeout", 15)
	v.SetDefault("server.write_timeout", 60)
	v.SetDefault("maps.api_key", "")
	v.SetDefault("maps.base_url", "")
	v.SetDefault("maps.rate_per_second", 10)
	v.SetDefault("maps.daily_quota", 25000)
	v.SetDefault("maps.timeout_seconds", 10)
	v.SetDefault("maps.deadline_seconds", 45)
	v.SetDefault("cache.geocode_ttl_seconds", 86400)
	v.SetDefault("cache.geocode_max_entries", 10000)
	v.SetDefault("cache.transit_ttl_seconds", 3600)
	v.SetDefault("cache.transit_max_entries", 10000)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.enabled", false)
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.enabled", false)
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: WAYPLAN_MAPS_API_KEY → maps.api_key
	v.SetEnvPrefix("WAYPLAN")
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
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Maps.RatePerSecond <= 0 {
		errs = append(errs, "maps.rate_per_second must be positive")
	}
	if c.Maps.DailyQuota <= 0 {
		errs = append(errs, "maps.daily_quota must be positive")
	}
	if c.Cache.GeocodeTTLSeconds <= 0 || c.Cache.TransitTTLSeconds <= 0 {
		errs = append(errs, "cache TTLs must be positive")
	}
	if c.Cache.GeocodeMaxEntries <= 0 || c.Cache.TransitMaxEntries <= 0 {
		errs = append(errs, "cache capacities must be positive")
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		errs = append(errs, "nats.url is required when nats.enabled")
	}
	if c.Valkey.Enabled && c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required when valkey.enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
