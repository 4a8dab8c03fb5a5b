package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/srikaanthtb/bolt-forum/internal/backend"
	"github.com/srikaanthtb/bolt-forum/internal/config"
	"github.com/srikaanthtb/bolt-forum/internal/db"
	"github.com/srikaanthtb/bolt-forum/internal/logging"
	"github.com/srikaanthtb/bolt-forum/internal/server"
	"github.com/srikaanthtb/bolt-forum/internal/supabase"
)

const VERSION = "0.1.0"

var cmd = &cli.Command{
	Name:    "forum",
	Usage:   "A small forum: short posts, a global feed and likes",
	Version: VERSION,
	Flags:   config.Flags(),
	Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
		logger, err := logging.New(c.String(config.LogLevel.Name), os.Stdout)
		if err != nil {
			return ctx, err
		}
		slog.SetDefault(logger)
		return ctx, nil
	},
	Commands: []*cli.Command{
		{
			Name:   "serve",
			Usage:  "Serve the forum over HTTP",
			Action: serve,
		},
		{
			Name:   "migrate",
			Usage:  "Create or update the SQLite schema and exit",
			Action: migrate,
		},
	},
	DefaultCommand: "serve",
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, c *cli.Command) error {
	cfg, err := config.FromCommand(c)
	if err != nil {
		return err
	}
	logger := slog.Default()

	service, err := openService(cfg, logger)
	if err != nil {
		return err
	}
	defer service.Close()

	srv, err := server.New(service, logger, server.Options{
		RequestTimeout: cfg.RequestTimeout,
		SecureCookies:  cfg.SecureCookies,
	})
	if err != nil {
		return err
	}
	return srv.Run(ctx, cfg.Addr)
}

func migrate(_ context.Context, c *cli.Command) error {
	cfg, err := config.FromCommand(c)
	if err != nil {
		return err
	}
	if cfg.Backend != config.BackendSQLite {
		return fmt.Errorf("migrate only applies to the %s backend", config.BackendSQLite)
	}

	store, err := db.Open(cfg.DBPath, slog.Default())
	if err != nil {
		return err
	}
	slog.Info("schema up to date", "db_path", cfg.DBPath)
	return store.Close()
}

func openService(cfg *config.Config, logger *slog.Logger) (backend.Service, error) {
	switch cfg.Backend {
	case config.BackendSupabase:
		return supabase.NewClient(&supabase.ClientConfig{
			URL:               cfg.SupabaseURL,
			AnonKey:           cfg.SupabaseKey,
			Timeout:           cfg.RequestTimeout,
			TransportSettings: supabase.DefaultConfig.TransportSettings,
		}, logger), nil
	default:
		store, err := db.Open(cfg.DBPath, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}
