package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/samirrijal/arnav/internal/core/navigation"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig      `mapstructure:"server"`
	Database   DatabaseConfig    `mapstructure:"database"`
	Catalog    CatalogConfig     `mapstructure:"catalog"`
	NATS       NATSConfig        `mapstructure:"nats"`
	Valkey     ValkeyConfig      `mapstructure:"valkey"`
	Temporal   TemporalConfig    `mapstructure:"temporal"`
	Telemetry  TelemetryConfig   `mapstructure:"telemetry"`
	Log        LogConfig         `mapstructure:"log"`
	Engine     navigation.Params `mapstructure:"engine"`
	Navigation NavigationConfig  `mapstructure:"navigation"`
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	ReadTimeout    int `mapstructure:"read_timeout"`
	WriteTimeout   int `mapstructure:"write_timeout"`
	RequestTimeout int `mapstructure:"request_timeout"`
	RateLimit      int `mapstructure:"rate_limit"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Catalog backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

type CatalogConfig struct {
	Backend    string `mapstructure:"backend"`
	SQLitePath string `mapstructure:"sqlite_path"`
	SeedFile   string `mapstructure:"seed_file"`
	CacheTTL   int    `mapstructure:"cache_ttl"`
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Enabled bool   `mapstructure:"enabled"`
}

type ValkeyConfig struct {
	Addr    string `mapstructure:"addr"`
	Enabled bool   `mapstructure:"enabled"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
	Enabled   bool   `mapstructure:"enabled"`
	// LegTimeout bounds how long a tour waits at one stop, in minutes.
	LegTimeout int `mapstructure:"leg_timeout"`
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

type NavigationConfig struct {
	QueuePolicy        string  `mapstructure:"queue_policy"`
	DefaultQueueID     int     `mapstructure:"default_queue_id"`
	DefaultDestination string  `mapstructure:"default_destination"`
	AutoAdvance        bool    `mapstructure:"auto_advance"`
	ArrivalRadius      float64 `mapstructure:"arrival_radius_m"`
	WalkingSpeed       float64 `mapstructure:"walking_speed_m_per_min"`
}

// EngineParams merges the navigation overrides into the engine parameters.
func (c *Config) EngineParams() navigation.Params {
	p := c.Engine
	if c.Navigation.ArrivalRadius > 0 {
		p.ArrivalRadius = c.Navigation.ArrivalRadius
	}
	if c.Navigation.WalkingSpeed > 0 {
		p.WalkingSpeed = c.Navigation.WalkingSpeed
	}
	return p
}

// Load reads configuration from .env, file and environment variables.
func Load(service string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v, service)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: ARNAV_DATABASE_HOST → database.host
	v.SetEnvPrefix("ARNAV")
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

func setDefaults(v *viper.Viper, service string) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.request_timeout", 15)
	v.SetDefault("server.rate_limit", 120)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "arnav")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "arnav")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("catalog.backend", BackendMemory)
	v.SetDefault("catalog.sqlite_path", "arnav.db")
	v.SetDefault("catalog.seed_file", "")
	v.SetDefault("catalog.cache_ttl", 300)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.enabled", false)
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.enabled", false)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "arnav-tours")
	v.SetDefault("temporal.enabled", false)
	v.SetDefault("temporal.leg_timeout", 30)
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	d := navigation.DefaultParams
	v.SetDefault("engine.min_scale", d.MinScale)
	v.SetDefault("engine.max_scale", d.MaxScale)
	v.SetDefault("engine.ref_distance_m", d.RefDistance)
	v.SetDefault("engine.half_fov_deg", d.HalfFOV)
	v.SetDefault("engine.pitch_gate", d.PitchGate)
	v.SetDefault("engine.pitch_min_deg", d.PitchMin)
	v.SetDefault("engine.pitch_max_deg", d.PitchMax)
	v.SetDefault("engine.pixels_per_degree", d.PixelsPerDegree)
	v.SetDefault("engine.reference_pitch_deg", d.ReferencePitch)
	v.SetDefault("engine.viewport_width_px", d.ViewportWidth)
	v.SetDefault("engine.viewport_height_px", d.ViewportHeight)
	v.SetDefault("engine.arrival_radius_m", d.ArrivalRadius)
	v.SetDefault("engine.walking_speed_m_per_min", d.WalkingSpeed)

	v.SetDefault("navigation.queue_policy", "fixed")
	v.SetDefault("navigation.default_queue_id", 0)
	v.SetDefault("navigation.default_destination", "CocaCola")
	v.SetDefault("navigation.auto_advance", false)
	v.SetDefault("navigation.arrival_radius_m", 0)
	v.SetDefault("navigation.walking_speed_m_per_min", 0)
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

	switch c.Catalog.Backend {
	case BackendMemory:
	case BackendPostgres:
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
	case BackendSQLite:
		if c.Catalog.SQLitePath == "" {
			errs = append(errs, "catalog.sqlite_path is required for the sqlite backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("catalog.backend must be memory, postgres or sqlite, got %q", c.Catalog.Backend))
	}

	if c.NATS.Enabled && c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Enabled && c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Temporal.Enabled && c.Temporal.HostPort == "" {
		errs = append(errs, "temporal.host_port is required")
	}

	switch c.Navigation.QueuePolicy {
	case "", "fixed", "nearest":
	default:
		errs = append(errs, fmt.Sprintf("navigation.queue_policy must be fixed or nearest, got %q", c.Navigation.QueuePolicy))
	}
	if c.Navigation.DefaultQueueID < 0 {
		errs = append(errs, "navigation.default_queue_id must not be negative")
	}
	if err := c.EngineParams().Validate(); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
