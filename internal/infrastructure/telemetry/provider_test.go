package telemetry_test

import (
	"context"
	"testing"

	"github.com/propledger/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestProviders_Disabled(t *testing.T) {
	ctx := context.Background()
	log := zaptest.NewLogger(t)

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		CollectorEndpoint: "localhost:14317",
		SamplingRatio:     1.0,
		ServiceName:       "propledger-test",
	}, log)
	require.NoError(t, err)
	assert.False(t, tp.Enabled())
	assert.NotNil(t, tp.Tracer("test"))
	assert.NoError(t, tp.Shutdown(ctx))

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{ServiceName: "propledger-test"}, log)
	require.NoError(t, err)
	assert.False(t, mp.Enabled())
	assert.NotNil(t, mp.Meter("test"))
	assert.NoError(t, mp.Shutdown(ctx))
}

// The OTLP gRPC exporters connect lazily, so enabling them needs no collector.
func TestTracerProvider_Enabled(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping exporter test in short mode")
	}

	ctx := context.Background()
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           true,
		CollectorEndpoint: "localhost:14317",
		SamplingRatio:     0.5,
		ServiceName:       "propledger-test",
		Insecure:          true,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.True(t, tp.Enabled())
	_, span := tp.Tracer("test").Start(ctx, "bill.create")
	span.End()
	// nothing listens on the endpoint; only the lifecycle is under test
	_ = tp.Shutdown(ctx)
}
