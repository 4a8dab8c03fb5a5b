package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/srikaanthtb/bolt-forum/internal/logging"
)

const (
	BackendSQLite   = "sqlite"
	BackendSupabase = "supabase"
)

var validBackends = []string{BackendSQLite, BackendSupabase}

var Addr = &cli.StringFlag{
	Name:    "addr",
	Aliases: []string{"a"},
	Usage:   "The address to listen on",
	Value:   ":8080",
	Sources: cli.EnvVars("ADDR"),
}

var Backend = &cli.StringFlag{
	Name:    "backend",
	Aliases: []string{"b"},
	Usage:   "The data service to use: sqlite or supabase",
	Value:   BackendSQLite,
	Validator: func(value string) error {
		if !slices.Contains(validBackends, value) {
			return fmt.Errorf("invalid backend: %s, allowed values are: %s", value, validBackends)
		}
		return nil
	},
	Sources: cli.EnvVars("BACKEND"),
}

var DBPath = &cli.StringFlag{
	Name:    "db-path",
	Usage:   "The SQLite database file",
	Value:   "forum.db",
	Sources: cli.EnvVars("DB_PATH"),
}

var SupabaseURL = &cli.StringFlag{
	Name:    "supabase-url",
	Usage:   "The base URL of the Supabase project",
	Sources: cli.EnvVars("SUPABASE_URL"),
}

var SupabaseKey = &cli.StringFlag{
	Name:    "supabase-key",
	Usage:   "The anonymous API key of the Supabase project",
	Sources: cli.EnvVars("SUPABASE_ANON_KEY"),
}

var LogLevel = &cli.StringFlag{
	Name:    "log-level",
	Aliases: []string{"l"},
	Usage:   "The level of the logs",
	Value:   "info",
	Validator: func(value string) error {
		if !slices.Contains(logging.ValidLevels, value) {
			return fmt.Errorf("invalid log level: %s, allowed values are: %s", value, logging.ValidLevels)
		}
		return nil
	},
	Sources: cli.EnvVars("LOG_LEVEL"),
}

var RequestTimeout = &cli.DurationFlag{
	Name:    "request-timeout",
	Usage:   "Timeout of a single request to the data service",
	Value:   10 * time.Second,
	Sources: cli.EnvVars("REQUEST_TIMEOUT"),
}

var SecureCookies = &cli.BoolFlag{
	Name:        "secure-cookies",
	Usage:       "Mark session cookies as HTTPS only",
	DefaultText: "false",
	Value:       false,
	Sources:     cli.EnvVars("SECURE_COOKIES"),
}

// Flags are the settings shared by every command.
func Flags() []cli.Flag {
	return []cli.Flag{
		Addr,
		Backend,
		DBPath,
		SupabaseURL,
		SupabaseKey,
		LogLevel,
		RequestTimeout,
		SecureCookies,
	}
}
