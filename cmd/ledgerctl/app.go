package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	appbilling "github.com/propledger/backend/internal/application/billing"
	appevent "github.com/propledger/backend/internal/application/event"
	appleasing "github.com/propledger/backend/internal/application/leasing"
	appmetering "github.com/propledger/backend/internal/application/metering"
	appshared "github.com/propledger/backend/internal/application/shared"
	"github.com/propledger/backend/internal/infrastructure/config"
	"github.com/propledger/backend/internal/infrastructure/event"
	"github.com/propledger/backend/internal/infrastructure/logger"
	"github.com/propledger/backend/internal/infrastructure/persistence"
	"github.com/propledger/backend/internal/infrastructure/telemetry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
)

// AccountEnv names the variable that supplies --account when the flag is omitted
const AccountEnv = "PROPLEDGER_ACCOUNT"

// app carries the wiring shared by every subcommand
type app struct {
	accountFlag string
	configFile  string
	compact     bool

	accountID uuid.UUID
	log       *zap.Logger
	svc       *services
	shutdown  []func(context.Context) error
}

// services bundles the application services the commands drive
type services struct {
	bills    *appbilling.BillService
	payments *appbilling.PaymentService
	readings *appmetering.MeterReadingService
	leases   *appleasing.LeaseService
	outbox   *appevent.OutboxService
}

// newServices wires repositories, transaction scopes and services over db
func newServices(db *gorm.DB, log *zap.Logger, metrics *telemetry.LedgerMetrics, pagination appshared.Pagination) *services {
	publisher := event.NewOutboxPublisher(event.NewLedgerSerializer())

	billRepo := persistence.NewGormBillRepository(db)
	expenseRepo := persistence.NewGormExpenseRepository(db)
	paymentRepo := persistence.NewGormPaymentRepository(db)
	unitRepo := persistence.NewGormUnitRepository(db)
	tenantRepo := persistence.NewGormTenantRepository(db)
	propertyRepo := persistence.NewGormPropertyRepository(db)
	leaseRepo := persistence.NewGormLeaseRepository(db)
	meterRepo := persistence.NewGormMeterRepository(db)
	submeterRepo := persistence.NewGormSubmeterRepository(db)
	readingRepo := persistence.NewGormMeterReadingRepository(db)
	userRepo := persistence.NewGormUserRepository(db)

	billingScope := persistence.NewGormBillingTransactionScope(db, publisher)

	bills := appbilling.NewBillService(billRepo, expenseRepo, tenantRepo, billingScope)
	bills.SetMetrics(metrics)
	bills.SetPagination(pagination)

	payments := appbilling.NewPaymentService(billRepo, paymentRepo, billingScope)
	payments.SetMetrics(metrics)
	payments.SetPagination(pagination)

	readings := appmetering.NewMeterReadingService(meterRepo, submeterRepo, readingRepo, userRepo,
		persistence.NewGormMeteringTransactionScope(db, publisher))
	readings.SetMetrics(metrics)
	readings.SetPagination(pagination)

	leases := appleasing.NewLeaseService(leaseRepo, unitRepo, tenantRepo, propertyRepo,
		persistence.NewGormLeasingTransactionScope(db, publisher))
	leases.SetMetrics(metrics)
	leases.SetPagination(pagination)

	return &services{
		bills:    bills,
		payments: payments,
		readings: readings,
		leases:   leases,
		outbox:   appevent.NewOutboxService(event.NewGormOutboxRepository(db), log),
	}
}

// init loads configuration and opens the database, unless services were
// injected beforehand
func (a *app) init(ctx context.Context) error {
	if err := a.resolveAccount(); err != nil {
		return err
	}
	if a.svc != nil {
		if a.log == nil {
			a.log = zap.NewNop()
		}
		return nil
	}

	cfg, err := loadConfig(a.configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	output := cfg.Log.Output
	if output == "stdout" {
		// stdout carries command results
		output = "stderr"
	}
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     output,
		TimeFormat: logger.DefaultTimeFormat,
		Service:    cfg.App.Name,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.App.Name,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to initialize log export: %w", err)
	}
	// registered first so it flushes after everything else has logged
	a.shutdown = append(a.shutdown, lp.Shutdown)
	log = logger.Tee(log, lp.Core("ledgerctl", zapcore.LevelOf(log.Core())))
	a.log = log

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.App.Name,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.shutdown = append(a.shutdown, tp.Shutdown)

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.App.Name,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	a.shutdown = append(a.shutdown, mp.Shutdown)

	metrics, err := telemetry.NewLedgerMetrics(telemetry.LedgerMetricsConfig{
		Meter:  mp.Meter(telemetry.MeterName),
		Logger: log,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize ledger metrics: %w", err)
	}

	db, err := persistence.NewDatabase(ctx, &cfg.Database, persistence.Options{
		Logger: log,
		DBTracing: telemetry.DBTracingConfig{
			Enabled:         cfg.Telemetry.DBTracing.Enabled,
			LogFullSQL:      cfg.Telemetry.DBTracing.LogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBTracing.SlowQueryThresh,
			DBSystem:        "postgresql",
		},
	})
	if err != nil {
		return err
	}
	a.shutdown = append(a.shutdown, func(context.Context) error { return db.Close() })

	a.svc = newServices(db.DB, log, metrics, appshared.Pagination{
		DefaultLimit: cfg.Ledger.DefaultPageSize,
		MaxLimit:     cfg.Ledger.MaxPageSize,
	})
	log.Debug("ledgerctl initialized",
		zap.String("env", cfg.App.Env),
		zap.String("database", cfg.Database.DBName),
	)
	return nil
}

// loadConfig reads path when given, else searches the default locations
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func (a *app) resolveAccount() error {
	raw := a.accountFlag
	if raw == "" {
		raw = os.Getenv(AccountEnv)
	}
	if raw == "" {
		return fmt.Errorf("an account is required: pass --account or set %s", AccountEnv)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid account id %q: %w", raw, err)
	}
	a.accountID = id
	return nil
}

// context scopes the command context to the account for service logs
func (a *app) context(cmd *cobra.Command) context.Context {
	ctx := logger.WithContext(cmd.Context(), a.log)
	ctx = logger.WithAccountID(ctx, a.accountID.String())
	return logger.WithCommand(ctx, cmd.CommandPath())
}

// close flushes telemetry and releases the database, newest first
func (a *app) close(ctx context.Context) error {
	var errs []error
	for i := len(a.shutdown) - 1; i >= 0; i-- {
		if err := a.shutdown[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.shutdown = nil
	if a.log != nil {
		_ = logger.Sync(a.log)
	}
	return errors.Join(errs...)
}
