package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogsConfig holds log export configuration.
type LogsConfig struct {
	Enabled           bool
	CollectorEndpoint string
	ServiceName       string
	Insecure          bool
}

// LoggerProvider owns the SDK logger provider that receives zap entries
// through the otelzap bridge.
type LoggerProvider struct {
	sdk *sdklog.LoggerProvider
	log *zap.Logger
}

// NewLoggerProvider installs a batching OTLP logger provider as the global
// provider. Disabled providers bridge nothing.
func NewLoggerProvider(ctx context.Context, cfg LogsConfig, log *zap.Logger) (*LoggerProvider, error) {
	lp := &LoggerProvider{log: log}
	if !cfg.Enabled {
		log.Debug("Log export disabled")
		return lp, nil
	}

	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlploggrpc.WithInsecure())
	}
	exporter, err := otlploggrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP logs exporter: %w", err)
	}
	res, err := newResource(cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	lp.sdk = sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	)
	global.SetLoggerProvider(lp.sdk)

	log.Info("Log export enabled", zap.String("collector_endpoint", cfg.CollectorEndpoint))
	return lp, nil
}

// Enabled reports whether log entries are exported
func (lp *LoggerProvider) Enabled() bool { return lp.sdk != nil }

// Core returns a zap core that forwards entries at or above level to the
// collector. A disabled provider returns a no-op core.
func (lp *LoggerProvider) Core(name string, level zapcore.LevelEnabler) zapcore.Core {
	if lp.sdk == nil {
		return zapcore.NewNopCore()
	}
	return &leveledCore{
		Core:  otelzap.NewCore(name, otelzap.WithLoggerProvider(lp.sdk)),
		level: level,
	}
}

// Shutdown flushes pending records and stops the exporter
func (lp *LoggerProvider) Shutdown(ctx context.Context) error {
	if lp.sdk == nil {
		return nil
	}
	return shutdown(ctx, lp.log, "logger", lp.sdk.Shutdown)
}

// leveledCore applies the console logger's level to the bridge, which
// otherwise accepts every level.
type leveledCore struct {
	zapcore.Core
	level zapcore.LevelEnabler
}

func (c *leveledCore) Enabled(lvl zapcore.Level) bool {
	return c.level.Enabled(lvl) && c.Core.Enabled(lvl)
}

func (c *leveledCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.level.Enabled(entry.Level) {
		return ce
	}
	return c.Core.Check(entry, ce)
}

func (c *leveledCore) With(fields []zapcore.Field) zapcore.Core {
	return &leveledCore{Core: c.Core.With(fields), level: c.level}
}
