// Package config loads runtime configuration for the timekeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment variables, optionally seeded from a .env file in the
//     working directory (see parseEnv).
//  3. Optional JSON or YAML file selected via -c, -config or --config
//     (see parseFile). The format is chosen by extension.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// # Environment
//
//	TIMEKEEPER_DB_PATH          path to the SQLite database file
//	TIMEKEEPER_LOG_LEVEL        debug | info | warn | error
//	TIMEKEEPER_KDF_ITERATIONS   argon2id time cost for new encryption setups
//	TIMEKEEPER_BUSY_TIMEOUT     SQLite busy timeout ("5s", "500ms")
//
// # Supported flags
//
//	-d, --db string          path to the SQLite database file
//	-l, --log-level string   log level
//
// # File schema
//
// Durations use timex.Duration, so they can be strings like "5s" or integer
// nanoseconds:
//
//	{
//	  "db_path": "/home/me/.local/share/timekeeper/timekeeper.db",
//	  "log_level": "info",
//	  "kdf_iterations": 4,
//	  "busy_timeout": "5s"
//	}
package config
