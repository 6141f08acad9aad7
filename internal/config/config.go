// Package config provides configuration loading for taskgated.
package config

import (
	"fmt"
	"time"
)

// Config is the full daemon configuration.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Logging LoggingConfig `koanf:"logging"`
	Store   StoreConfig   `koanf:"store"`
	Sweep   SweepConfig   `koanf:"sweep"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig selects level and encoding.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// StoreConfig locates the run database.
type StoreConfig struct {
	Path string `koanf:"path"`
}

// SweepConfig bounds sweep execution.
type SweepConfig struct {
	// Workers is the number of variants evaluated concurrently.
	Workers int `koanf:"workers"`
	// MaxVariants caps n on API sweep requests.
	MaxVariants int `koanf:"max_variants"`
}

// Validate checks the configuration for values the daemon cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1-65535, got %d", c.Server.Port)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}
	if c.Sweep.Workers < 1 {
		return fmt.Errorf("sweep.workers must be positive, got %d", c.Sweep.Workers)
	}
	if c.Sweep.MaxVariants < 1 {
		return fmt.Errorf("sweep.max_variants must be positive, got %d", c.Sweep.MaxVariants)
	}
	return nil
}
