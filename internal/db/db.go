package db

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/srikaanthtb/bolt-forum/internal/backend"
)

//go:embed schema.sql
var schemaFS embed.FS

// Store is the SQLite-backed remote data service used for local runs and tests.
type Store struct {
	DB     *sql.DB
	Logger *slog.Logger
}

var (
	_ backend.Service       = (*Store)(nil)
	_ backend.PostPublisher = (*Store)(nil)
)

func Open(path string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	if err := Migrate(context.Background(), db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{DB: db, Logger: logger.With("component", "db.Store")}, nil
}

func Migrate(ctx context.Context, db *sql.DB) error {
	sqlBytes, err := fs.ReadFile(schemaFS, "schema.sql")
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, string(sqlBytes)); err != nil {
		return err
	}
	return nil
}

func (s *Store) NewAuth() backend.Auth {
	return &Auth{db: s.DB, logger: s.Logger.With("component", "db.Auth")}
}

func (s *Store) Close() error {
	return s.DB.Close()
}
