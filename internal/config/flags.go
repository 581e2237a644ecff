package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/timekeeper/internal/flagx"
)

var knownFlags = []string{
	"-d", "-db", "--db",
	"-l", "-log-level", "--log-level",
}

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-d, --db string          path to the SQLite database file
//	-l, --log-level string   log level
//
// args is filtered with flagx.FilterArgs first so subcommands and their own
// flags do not interfere.
func parseFlags(cfg *Config, args []string) error {
	filtered := flagx.FilterArgs(args, knownFlags)

	fs := flag.NewFlagSet("timekeeper", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.DBPath, "d", cfg.DBPath, "path to the SQLite database file")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "path to the SQLite database file")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")

	return fs.Parse(filtered)
}
