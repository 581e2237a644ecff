package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDBPath        = "TIMEKEEPER_DB_PATH"
	EnvLogLevel      = "TIMEKEEPER_LOG_LEVEL"
	EnvKDFIterations = "TIMEKEEPER_KDF_ITERATIONS"
	EnvBusyTimeout   = "TIMEKEEPER_BUSY_TIMEOUT"
)

// parseEnv overlays cfg with TIMEKEEPER_* variables. A .env file in the
// working directory is loaded first if present; variables already set in the
// process environment win over it.
func parseEnv(cfg *Config) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	if v, ok := os.LookupEnv(EnvDBPath); ok && v != "" {
		cfg.DBPath = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		cfg.LogLevel = v
	}
	if v, ok := os.LookupEnv(EnvKDFIterations); ok && v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return err
		}
		cfg.KDFIterations = uint32(n)
	}
	if v, ok := os.LookupEnv(EnvBusyTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		cfg.BusyTimeout = d
	}
	return nil
}
