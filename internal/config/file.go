package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dmitrijs2005/timekeeper/internal/flagx"
	"github.com/dmitrijs2005/timekeeper/internal/timex"
)

// FileConfig is a DTO used exclusively for file unmarshalling. It relies on
// timex.Duration so durations can be written as "5s" or integer nanoseconds.
// Zero values mean "not set" and leave the current Config value untouched.
type FileConfig struct {
	DBPath        string         `json:"db_path" yaml:"db_path"`
	LogLevel      string         `json:"log_level" yaml:"log_level"`
	KDFIterations uint32         `json:"kdf_iterations" yaml:"kdf_iterations"`
	BusyTimeout   timex.Duration `json:"busy_timeout" yaml:"busy_timeout"`
}

// parseFile overlays cfg with values from the file named by -c/--config in
// args. Files ending in .yaml or .yml are decoded as YAML, everything else as
// JSON. Without the flag nothing is loaded.
func parseFile(cfg *Config, args []string) error {
	path := flagx.ConfigFilePath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fc FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return err
	}

	if fc.DBPath != "" {
		cfg.DBPath = fc.DBPath
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	if fc.KDFIterations != 0 {
		cfg.KDFIterations = fc.KDFIterations
	}
	if fc.BusyTimeout.Duration != 0 {
		cfg.BusyTimeout = fc.BusyTimeout.Duration
	}
	return nil
}
