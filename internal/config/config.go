// Package config provides configuration loading for ideabankd.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/rubenlestaa/ideabank/internal/httpapi"
	"github.com/rubenlestaa/ideabank/internal/oracle"
)

const envPrefix = "IDEABANK_"

// Config is the full daemon configuration.
type Config struct {
	Server    httpapi.Config  `koanf:"server"`
	Oracle    oracle.Config   `koanf:"oracle"`
	Database  DatabaseConfig  `koanf:"database"`
	Logging   LoggingConfig   `koanf:"logging"`
	Reminders RemindersConfig `koanf:"reminders"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `koanf:"path"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// RemindersConfig holds the reminder scheduler settings.
type RemindersConfig struct {
	PollInterval time.Duration `koanf:"poll_interval"`
}

// Load reads configuration with the precedence (highest first):
// environment variables with the IDEABANK_ prefix, the YAML file at
// configPath, hardcoded defaults. A missing file is not an error; a
// missing path loads defaults plus environment only.
//
// Environment variables map section and field through underscores:
//
//	IDEABANK_SERVER_PORT    -> server.port
//	IDEABANK_ORACLE_MODEL   -> oracle.model
//	IDEABANK_DATABASE_PATH  -> database.path
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		content, err := os.ReadFile(configPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		} else if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		// IDEABANK_SERVER_PORT -> server.port: first underscore splits
		// section from field, remaining underscores stay in the field.
		lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Oracle.ServerURL == "" {
		cfg.Oracle.ServerURL = "http://localhost:11434"
	}
	if cfg.Oracle.Model == "" {
		cfg.Oracle.Model = "llama3.1"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "ideabank.db"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Reminders.PollInterval == 0 {
		cfg.Reminders.PollInterval = 30 * time.Second
	}
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	if c.Reminders.PollInterval < time.Second {
		return fmt.Errorf("reminders.poll_interval must be at least 1s, got %s", c.Reminders.PollInterval)
	}
	return nil
}
