package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/propledger/backend/internal/infrastructure/config"
	"github.com/propledger/backend/internal/infrastructure/logger"
	"github.com/propledger/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// connectTimeout bounds the first ping of a new pool
const connectTimeout = 10 * time.Second

// Database is an open ledger store
type Database struct {
	DB *gorm.DB
}

// Options tunes how NewDatabase and Open configure GORM
type Options struct {
	Logger        *zap.Logger
	LogLevel      string // silent, error, warn, info
	SlowThreshold time.Duration
	DBTracing     telemetry.DBTracingConfig
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

func (o Options) gormConfig() *gorm.Config {
	level := o.LogLevel
	if level == "" {
		level = "silent"
	}
	return &gorm.Config{
		Logger: logger.NewGormLogger(o.logger().Named("gorm"), logger.MapGormLogLevel(level),
			logger.WithSlowThreshold(o.SlowThreshold),
			logger.WithIgnoreRecordNotFoundError(true),
		),
		// every ledger write already runs inside an explicit TransactionScope
		SkipDefaultTransaction: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// NewDatabase opens and pings the PostgreSQL pool described by cfg. Unset
// log options fall back to the database section of the configuration.
func NewDatabase(ctx context.Context, cfg *config.DatabaseConfig, opts Options) (*Database, error) {
	if opts.LogLevel == "" {
		opts.LogLevel = cfg.LogLevel
	}
	if opts.SlowThreshold == 0 {
		opts.SlowThreshold = cfg.SlowThreshold
	}

	d, err := Open(postgres.Open(cfg.DSN()), opts)
	if err != nil {
		return nil, err
	}
	pool, err := d.pool()
	if err != nil {
		return nil, err
	}
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := d.Ping(pingCtx); err != nil {
		_ = pool.Close()
		return nil, err
	}

	opts.logger().Info("Database connected",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.DBName),
		zap.Int("max_open_conns", cfg.MaxOpenConns),
	)
	return d, nil
}

// Open wraps any GORM dialector with the ledger's logger and tracing plugin.
// Tests use it with SQLite and sqlmock.
func Open(dialector gorm.Dialector, opts Options) (*Database, error) {
	db, err := gorm.Open(dialector, opts.gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := telemetry.NewDBTracingPlugin(opts.DBTracing, opts.logger()).RegisterOtelGorm(db); err != nil {
		return nil, fmt.Errorf("failed to register database tracing: %w", err)
	}
	return &Database{DB: db}, nil
}

func (d *Database) pool() (*sql.DB, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB, nil
}

// Ping checks that the store is reachable
func (d *Database) Ping(ctx context.Context) error {
	pool, err := d.pool()
	if err != nil {
		return err
	}
	if err := pool.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// Close releases the connection pool
func (d *Database) Close() error {
	pool, err := d.pool()
	if err != nil {
		return err
	}
	return pool.Close()
}
