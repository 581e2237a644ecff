package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/timekeeper/internal/cryptox"
)

// Config holds runtime settings for the timekeeper CLI.
type Config struct {
	DBPath        string
	LogLevel      string
	KDFIterations uint32
	BusyTimeout   time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DBPath = "timekeeper.db"
	c.LogLevel = "warn"
	c.KDFIterations = cryptox.DefaultIterations
	c.BusyTimeout = 5 * time.Second
}

// Validate reports settings that would make the store unusable.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path must not be empty")
	}
	if c.KDFIterations < 1 {
		return fmt.Errorf("kdf iterations must be at least 1, got %d", c.KDFIterations)
	}
	if c.BusyTimeout < 0 {
		return fmt.Errorf("busy timeout must not be negative, got %s", c.BusyTimeout)
	}
	return nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the environment, the config file named in args (if any) and the flags in
// args. Later sources take precedence over earlier ones.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseEnv(cfg); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	if err := parseFile(cfg, args); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
