package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"
	"github.com/propledger/backend/internal/infrastructure/config"
	"github.com/propledger/backend/internal/infrastructure/logger"
	"github.com/propledger/backend/internal/infrastructure/migration"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

// app carries the state shared by every subcommand
type app struct {
	migrationsPath string
	databaseURL    string
	logLevel       string

	log *zap.Logger
	db  *sql.DB
}

func (a *app) init() error {
	log, err := logger.New(&logger.Config{
		Level:      a.logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.log = log

	path, err := resolveMigrationsPath(a.migrationsPath)
	if err != nil {
		return err
	}
	a.migrationsPath = path
	return nil
}

func (a *app) close() {
	if a.db != nil {
		_ = a.db.Close()
	}
	if a.log != nil {
		_ = logger.Sync(a.log)
	}
}

// migrator connects to the database and opens a migrator over it
func (a *app) migrator() (*migration.Migrator, error) {
	if a.databaseURL != "" {
		a.log.Info("Migration CLI using explicit database URL", zap.String("migrations_path", a.migrationsPath))
		return migration.NewFromURL(a.databaseURL, a.migrationsPath, a.log)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	a.db = db

	a.log.Info("Migration CLI connected",
		zap.String("database", cfg.Database.DBName),
		zap.String("migrations_path", a.migrationsPath),
	)
	return migration.New(db, a.migrationsPath, a.log)
}

// resolveMigrationsPath prefers an explicit path, then ./migrations, then the
// directory two levels above the executable.
func resolveMigrationsPath(path string) (string, error) {
	if path == "" {
		path = defaultMigrationsPath
		if _, err := os.Stat(path); err != nil {
			if execPath, err := os.Executable(); err == nil {
				candidate := filepath.Join(filepath.Dir(execPath), "..", "..", defaultMigrationsPath)
				if _, err := os.Stat(candidate); err == nil {
					path = candidate
				}
			}
		}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	return abs, nil
}
