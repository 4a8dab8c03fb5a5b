package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/srikaanthtb/bolt-forum/internal/config"
)

func validConfig() config.Config {
	return config.Config{
		Addr:           ":8080",
		Backend:        config.BackendSQLite,
		DBPath:         "forum.db",
		LogLevel:       "info",
		RequestTimeout: 10 * time.Second,
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	t.Run("sqlite", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig()
		require.NoError(t, cfg.Validate())
	})

	t.Run("supabase needs url and key", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig()
		cfg.Backend = config.BackendSupabase
		require.ErrorIs(t, cfg.Validate(), config.ErrInvalidConfig)

		cfg.SupabaseURL = "https://project.supabase.co"
		require.ErrorIs(t, cfg.Validate(), config.ErrInvalidConfig)

		cfg.SupabaseKey = "anon"
		require.NoError(t, cfg.Validate())
	})

	t.Run("unknown backend", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig()
		cfg.Backend = "mysql"
		require.ErrorIs(t, cfg.Validate(), config.ErrInvalidConfig)
	})

	t.Run("zero timeout", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig()
		cfg.RequestTimeout = 0
		require.ErrorIs(t, cfg.Validate(), config.ErrInvalidConfig)
	})
}

func TestFromCommand(t *testing.T) {
	t.Setenv("SUPABASE_ANON_KEY", "anon-from-env")

	var cfg *config.Config
	cmd := &cli.Command{
		Name:  "forum",
		Flags: config.Flags(),
		Action: func(_ context.Context, c *cli.Command) error {
			var err error
			cfg, err = config.FromCommand(c)
			return err
		},
	}

	err := cmd.Run(context.Background(), []string{
		"forum",
		"--backend", "supabase",
		"--supabase-url", "https://project.supabase.co",
		"--request-timeout", "3s",
	})
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.Addr)
	require.Equal(t, config.BackendSupabase, cfg.Backend)
	require.Equal(t, "anon-from-env", cfg.SupabaseKey)
	require.Equal(t, 3*time.Second, cfg.RequestTimeout)
	require.Equal(t, "info", cfg.LogLevel)
	require.False(t, cfg.SecureCookies)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("FORUM_TEST_DOTENV=from-file\nFORUM_TEST_SET=from-file\n"), 0o600))

	t.Setenv("FORUM_TEST_SET", "from-env")
	t.Cleanup(func() { os.Unsetenv("FORUM_TEST_DOTENV") })

	require.NoError(t, config.LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	require.Equal(t, "from-file", os.Getenv("FORUM_TEST_DOTENV"))
	require.Equal(t, "from-env", os.Getenv("FORUM_TEST_SET"))
}
