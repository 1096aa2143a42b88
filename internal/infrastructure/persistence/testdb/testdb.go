// Package testdb opens databases for tests: in-memory SQLite for behavior,
// sqlmock for asserting SQL, and a PostgreSQL container for the migrations.
package testdb

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/propledger/backend/internal/infrastructure/migration"
	"github.com/propledger/backend/internal/infrastructure/persistence"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func options(t *testing.T) persistence.Options {
	opts := persistence.Options{Logger: zap.NewNop(), LogLevel: "silent"}
	if os.Getenv("TEST_DB_DEBUG") != "" {
		opts.Logger = zaptest.NewLogger(t)
		opts.LogLevel = "info"
	}
	return opts
}

// NewSQLite returns a private in-memory SQLite database with the ledger schema.
// The pool is pinned to one connection so every statement sees the same
// database and writers serialize the way row locks would.
func NewSQLite(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	d, err := persistence.Open(sqlite.Open(dsn), options(t))
	require.NoError(t, err, "Failed to open sqlite")

	sqlDB, err := d.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, persistence.AutoMigrate(d.DB), "Failed to migrate sqlite")
	return d.DB
}

// NewMockDB returns a PostgreSQL-dialect GORM handle backed by sqlmock
func NewMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create sqlmock")
	t.Cleanup(func() { _ = mockDB.Close() })

	d, err := persistence.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), options(t))
	require.NoError(t, err, "Failed to open GORM connection")
	return d.DB, mock
}

// NewPostgres starts a PostgreSQL container, applies the SQL migrations and
// returns a connection to it. The container is terminated on cleanup.
func NewPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("ledger_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	d, err := persistence.Open(postgres.Open(dsn), options(t))
	require.NoError(t, err, "Failed to connect to database")
	sqlDB, err := d.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(10)
	t.Cleanup(func() { _ = sqlDB.Close() })

	m, err := migration.New(sqlDB, MigrationsPath(t), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up(), "Failed to run migrations")
	return d.DB
}

// MigrationsPath locates the repository's migrations directory
func MigrationsPath(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)

	dir := filepath.Dir(file)
	for range 6 {
		candidate := filepath.Join(dir, "migrations")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
		dir = filepath.Dir(dir)
	}
	t.Fatal("migrations directory not found")
	return ""
}
