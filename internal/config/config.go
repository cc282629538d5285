// Package config holds runtime configuration for the test emulator.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/rmuit/copernica-testapi/internal/database"
)

// Config covers the backing engine, timezone and removal policy.
// Configuration can come from a YAML file (config.yaml) or environment
// variables; environment variables override YAML values.
type Config struct {
	// Database selects and addresses the backing engine.
	Database DatabaseConfig `yaml:"database"`

	// Timezone is the output timezone for date coercion and record
	// timestamps. "Local" follows the process's ambient timezone.
	Timezone string `yaml:"timezone" env:"TESTAPI_TIMEZONE" env-default:"Local"`

	// CascadeRemove soft-removes a profile's subprofiles together with the
	// profile. The emulated service leaves this unspecified, so it is policy.
	CascadeRemove bool `yaml:"cascade_remove" env:"TESTAPI_CASCADE_REMOVE" env-default:"false"`

	// LogLevel is a zap level name (debug, info, warn, error).
	LogLevel string `yaml:"log_level" env:"TESTAPI_LOG_LEVEL" env-default:"info"`
}

// DatabaseConfig holds backing-engine connection settings. The environment
// names match the ones the surrounding tooling already uses.
type DatabaseConfig struct {
	Type     string `yaml:"type" env:"DB_TYPE" env-default:"sqlite"`
	Host     string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"DB_PORT" env-default:""`
	Name     string `yaml:"name" env:"DB_NAME" env-default:""`
	User     string `yaml:"user" env:"DB_USER" env-default:""`
	Password string `yaml:"-" env:"DB_PASSWORD"` // Secret - not in YAML
	Path     string `yaml:"path" env:"DB_PATH" env-default:""`
}

// Load reads config.yaml with environment overrides; without a config file,
// configuration comes from the environment alone.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if cfg.Database.Port == "" {
		switch cfg.Database.Type {
		case "mysql":
			cfg.Database.Port = "3306"
		case "postgres", "postgresql":
			cfg.Database.Port = "5432"
		}
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Location resolves the configured output timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ConnectorConfig maps onto the connector's configuration.
func (c *Config) ConnectorConfig() database.Config {
	return database.Config{
		Type:     c.Database.Type,
		Host:     c.Database.Host,
		Port:     c.Database.Port,
		Database: c.Database.Name,
		User:     c.Database.User,
		Password: c.Database.Password,
		Path:     c.Database.Path,
	}
}
