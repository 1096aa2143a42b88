package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey int

const (
	loggerKey contextKey = iota
	accountKey
	commandKey
)

// WithContext attaches l to ctx
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the attached logger, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok && l != nil {
		return l
	}
	return zap.NewNop()
}

// WithAccountID scopes ctx to one ledger account. Entries logged through L
// carry it as account_id.
func WithAccountID(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, accountKey, accountID)
}

// GetAccountID returns the account scope of ctx, if any
func GetAccountID(ctx context.Context) string {
	id, _ := ctx.Value(accountKey).(string)
	return id
}

// WithCommand records the operator command being served, e.g. "ledgerctl bill show"
func WithCommand(ctx context.Context, command string) context.Context {
	return context.WithValue(ctx, commandKey, command)
}

// GetCommand returns the command recorded in ctx, if any
func GetCommand(ctx context.Context) string {
	c, _ := ctx.Value(commandKey).(string)
	return c
}

// scopeFields collects the correlation fields carried by ctx
func scopeFields(ctx context.Context) []zap.Field {
	var fields []zap.Field
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	if id := GetAccountID(ctx); id != "" {
		fields = append(fields, zap.String("account_id", id))
	}
	if c := GetCommand(ctx); c != "" {
		fields = append(fields, zap.String("command", c))
	}
	return fields
}

// ContextLogger logs with the trace, account and command fields of its context
type ContextLogger struct {
	ctx    context.Context
	logger *zap.Logger
}

// L returns a ContextLogger for ctx, e.g.
// logger.L(ctx).Info("bill assembled", zap.String("bill_id", id))
func L(ctx context.Context) *ContextLogger {
	return &ContextLogger{ctx: ctx, logger: FromContext(ctx)}
}

// With returns a child logger carrying extra fields
func (cl *ContextLogger) With(fields ...zap.Field) *ContextLogger {
	return &ContextLogger{ctx: cl.ctx, logger: cl.base().With(fields...)}
}

func (cl *ContextLogger) base() *zap.Logger {
	if cl.logger == nil {
		return zap.NewNop()
	}
	return cl.logger
}

// Zap returns the underlying logger with the context fields applied
func (cl *ContextLogger) Zap() *zap.Logger {
	return cl.base().With(scopeFields(cl.ctx)...)
}

func (cl *ContextLogger) Debug(msg string, fields ...zap.Field) { cl.Zap().Debug(msg, fields...) }
func (cl *ContextLogger) Info(msg string, fields ...zap.Field)  { cl.Zap().Info(msg, fields...) }
func (cl *ContextLogger) Warn(msg string, fields ...zap.Field)  { cl.Zap().Warn(msg, fields...) }
func (cl *ContextLogger) Error(msg string, fields ...zap.Field) { cl.Zap().Error(msg, fields...) }
