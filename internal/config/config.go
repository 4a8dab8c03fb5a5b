// Package config reads the forum's settings from flags, the environment and
// an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

var ErrInvalidConfig = errors.New("invalid config")

var validate = validator.New(validator.WithRequiredStructEnabled())

type Config struct {
	Addr           string        `validate:"required"`
	Backend        string        `validate:"oneof=sqlite supabase"`
	DBPath         string        `validate:"required_if=Backend sqlite"`
	SupabaseURL    string        `validate:"required_if=Backend supabase"`
	SupabaseKey    string        `validate:"required_if=Backend supabase"`
	LogLevel       string        `validate:"oneof=debug info warn error"`
	RequestTimeout time.Duration `validate:"gt=0"`
	SecureCookies  bool
}

// LoadDotEnv loads variables from the given files, .env by default, without
// overriding ones already set. Missing files are skipped.
func LoadDotEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	for _, name := range filenames {
		if err := godotenv.Load(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

// FromCommand collects the settings parsed by c and validates them.
func FromCommand(c *cli.Command) (*Config, error) {
	cfg := &Config{
		Addr:           c.String(Addr.Name),
		Backend:        c.String(Backend.Name),
		DBPath:         c.String(DBPath.Name),
		SupabaseURL:    c.String(SupabaseURL.Name),
		SupabaseKey:    c.String(SupabaseKey.Name),
		LogLevel:       c.String(LogLevel.Name),
		RequestTimeout: c.Duration(RequestTimeout.Name),
		SecureCookies:  c.Bool(SecureCookies.Name),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
