package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Auth      AuthConfig      `yaml:"auth"`
	Log       LogConfig       `yaml:"log"`
	Transport TransportConfig `yaml:"transport"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port" validate:"min=1,max=65535"`
}

// StoreConfig selects the document store backend. DSN is a file path for
// sqlite and bolt and a connection URI for mongo.
type StoreConfig struct {
	Driver   string `yaml:"driver" validate:"oneof=memory sqlite bolt mongo"`
	DSN      string `yaml:"dsn" validate:"required_unless=Driver memory"`
	Database string `yaml:"database"`
}

type AuthConfig struct {
	Enabled bool `yaml:"enabled"`
	// DefaultTenant is used for every request when auth is disabled.
	DefaultTenant string        `yaml:"default_tenant" validate:"required_if=Enabled false"`
	RedisURL      string        `yaml:"redis_url"`
	CacheTTL      time.Duration `yaml:"cache_ttl" validate:"min=0"`
}

type LogConfig struct {
	Level      string `yaml:"level" validate:"oneof=debug info warn error"`
	Format     string `yaml:"format" validate:"oneof=text json"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" validate:"min=0"`
	MaxBackups int    `yaml:"max_backups" validate:"min=0"`
}

type TransportConfig struct {
	Mode string `yaml:"mode" validate:"oneof=http stdio"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Store: StoreConfig{
			Driver: "sqlite",
			DSN:    "fleetd.db",
		},
		Auth: AuthConfig{
			DefaultTenant: "default",
			CacheTTL:      5 * time.Minute,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Transport: TransportConfig{Mode: "http"},
		Metrics:   MetricsConfig{Enabled: true},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("FLEETD_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := Validate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Server.Host, "FLEETD_SERVER_HOST")
	if err := setInt(&cfg.Server.Port, "FLEETD_SERVER_PORT"); err != nil {
		return err
	}

	setString(&cfg.Store.Driver, "FLEETD_STORE_DRIVER")
	setString(&cfg.Store.DSN, "FLEETD_STORE_DSN")
	setString(&cfg.Store.Database, "FLEETD_STORE_DATABASE")

	if err := setBool(&cfg.Auth.Enabled, "FLEETD_AUTH_ENABLED"); err != nil {
		return err
	}
	setString(&cfg.Auth.DefaultTenant, "FLEETD_AUTH_DEFAULT_TENANT")
	setString(&cfg.Auth.RedisURL, "FLEETD_REDIS_URL")
	if v := os.Getenv("FLEETD_AUTH_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid FLEETD_AUTH_CACHE_TTL: %w", err)
		}
		cfg.Auth.CacheTTL = d
	}

	setString(&cfg.Log.Level, "FLEETD_LOG_LEVEL")
	setString(&cfg.Log.Format, "FLEETD_LOG_FORMAT")
	setString(&cfg.Log.File, "FLEETD_LOG_FILE")

	setString(&cfg.Transport.Mode, "FLEETD_TRANSPORT_MODE")
	return setBool(&cfg.Metrics.Enabled, "FLEETD_METRICS_ENABLED")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = b
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
