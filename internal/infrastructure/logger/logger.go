package logger

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultTimeFormat is the timestamp layout of every log entry
const DefaultTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Config holds logger configuration
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json, console
	Output     string // stdout, stderr, or file path
	TimeFormat string
	Service    string // added as the "service" field when set
}

// ForEnvironment returns the logger settings used by an application environment.
// Production logs JSON at info; every other environment logs colored console
// output at debug.
func ForEnvironment(env string) *Config {
	cfg := &Config{Level: "debug", Format: "console", Output: "stderr", TimeFormat: DefaultTimeFormat}
	if env == "production" {
		cfg.Level = "info"
		cfg.Format = "json"
	}
	return cfg
}

// New creates a zap logger writing to cfg.Output
func New(cfg *Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		lvl, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = lvl
	}

	sink, colored, err := openSink(cfg.Output)
	if err != nil {
		return nil, err
	}

	core := zapcore.NewCore(newEncoder(cfg, colored), sink, level)
	l := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	if cfg.Service != "" {
		l = l.With(zap.String("service", cfg.Service))
	}
	return l, nil
}

// Tee returns l writing to cores as well. Fields already added to l stay on
// its own core; fields added afterwards reach every core. Nil cores are skipped.
func Tee(l *zap.Logger, cores ...zapcore.Core) *zap.Logger {
	return l.WithOptions(zap.WrapCore(func(base zapcore.Core) zapcore.Core {
		all := []zapcore.Core{base}
		for _, c := range cores {
			if c != nil {
				all = append(all, c)
			}
		}
		return zapcore.NewTee(all...)
	}))
}

func newEncoder(cfg *Config, colored bool) zapcore.Encoder {
	layout := cfg.TimeFormat
	if layout == "" {
		layout = DefaultTimeFormat
	}
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "time"
	ec.EncodeTime = zapcore.TimeEncoderOfLayout(layout)
	ec.EncodeDuration = zapcore.MillisDurationEncoder

	if cfg.Format != "console" {
		return zapcore.NewJSONEncoder(ec)
	}
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	if colored {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return zapcore.NewConsoleEncoder(ec)
}

// openSink resolves an output name. Standard streams may be colored; files never are.
func openSink(output string) (zapcore.WriteSyncer, bool, error) {
	switch strings.ToLower(output) {
	case "", "stdout":
		return zapcore.Lock(os.Stdout), true, nil
	case "stderr":
		return zapcore.Lock(os.Stderr), true, nil
	}
	f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, false, fmt.Errorf("failed to open log file %s: %w", output, err)
	}
	return zapcore.AddSync(f), false, nil
}

// Sync flushes buffered entries. Terminals and pipes reject fsync with
// EINVAL or ENOTTY; those errors are dropped.
func Sync(l *zap.Logger) error {
	err := l.Sync()
	if errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) {
		return nil
	}
	return err
}
