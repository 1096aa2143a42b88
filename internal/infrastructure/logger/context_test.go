package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func bufferLogger(buf *bytes.Buffer) *zap.Logger {
	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	return zap.New(zapcore.NewCore(encoder, zapcore.AddSync(buf), zapcore.DebugLevel))
}

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	l := zap.NewNop()
	assert.Same(t, l, FromContext(WithContext(context.Background(), l)))
	assert.NotNil(t, FromContext(WithContext(context.Background(), nil)))
}

func TestScopeValues(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetAccountID(ctx))
	assert.Empty(t, GetCommand(ctx))

	ctx = WithCommand(WithAccountID(ctx, "acct-1"), "ledgerctl bill show")
	assert.Equal(t, "acct-1", GetAccountID(ctx))
	assert.Equal(t, "ledgerctl bill show", GetCommand(ctx))
}

func TestL_AddsScopeFieldsOnce(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithContext(context.Background(), bufferLogger(&buf))
	ctx = WithAccountID(ctx, "acct-9")

	L(ctx).With(zap.String("bill_id", "b-1")).Info("bill assembled")

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, `"account_id":"acct-9"`))
	assert.Contains(t, out, `"bill_id":"b-1"`)
	assert.NotContains(t, out, `"command"`)
	assert.NotContains(t, out, `"trace_id"`)
}

func TestL_TraceCorrelation(t *testing.T) {
	var buf bytes.Buffer
	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
	ctx := trace.ContextWithSpanContext(WithContext(context.Background(), bufferLogger(&buf)), sc)

	L(ctx).Warn("overpayment rejected")
	assert.Contains(t, buf.String(), `"trace_id":"`+traceID.String()+`"`)
	assert.Contains(t, buf.String(), `"span_id":"`+spanID.String()+`"`)
}

func TestContextLogger_NilLogger(t *testing.T) {
	cl := &ContextLogger{ctx: context.Background()}
	assert.NotPanics(t, func() { cl.With(zap.Int("n", 1)).Info("test") })
}
