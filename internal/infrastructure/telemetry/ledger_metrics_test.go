package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/propledger/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestLedgerMetrics(t *testing.T) (*telemetry.LedgerMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	lm, err := telemetry.NewLedgerMetrics(telemetry.LedgerMetricsConfig{
		Meter: provider.Meter(telemetry.MeterName),
	})
	require.NoError(t, err)
	return lm, reader
}

func collectSums(t *testing.T, reader *sdkmetric.ManualReader) map[string][]metricdata.DataPoint[int64] {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string][]metricdata.DataPoint[int64]{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				out[m.Name] = sum.DataPoints
			}
		}
	}
	return out
}

func TestNewLedgerMetrics_NilMeter(t *testing.T) {
	lm, err := telemetry.NewLedgerMetrics(telemetry.LedgerMetricsConfig{})
	assert.Nil(t, lm)
	assert.ErrorIs(t, err, telemetry.ErrMeterNil)
}

func TestLedgerMetrics_Records(t *testing.T) {
	lm, reader := newTestLedgerMetrics(t)
	ctx := context.Background()
	account := uuid.New()

	lm.RecordBillAssembled(ctx, account, "create", decimal.NewFromInt(1175))
	lm.RecordPaymentAllocated(ctx, account, "create", "cash")
	lm.RecordPaymentAllocated(ctx, account, "create", "cash")
	lm.RecordStatusTransition(ctx, account, "paid")
	lm.RecordReading(ctx, account, "create", true)
	lm.RecordLeaseTransition(ctx, account, "terminate")

	sums := collectSums(t, reader)
	assert.Equal(t, int64(1), sums["propledger_bills_assembled_total"][0].Value)
	assert.Equal(t, int64(2), sums["propledger_payments_allocated_total"][0].Value)
	assert.Equal(t, int64(1), sums["propledger_bill_status_transitions_total"][0].Value)
	assert.Equal(t, int64(1), sums["propledger_lease_transitions_total"][0].Value)

	series, ok := sums["propledger_meter_readings_total"][0].Attributes.Value(attribute.Key("series"))
	require.True(t, ok)
	assert.Equal(t, "submeter", series.AsString())
}

func TestLedgerMetrics_RecordRejection(t *testing.T) {
	lm, reader := newTestLedgerMetrics(t)
	ctx := context.Background()
	account := uuid.New()

	lm.RecordRejection(ctx, account, shared.NewInvalidStateError("OVERPAYMENT", "too much"))
	lm.RecordRejection(ctx, account, errors.New("connection reset"))
	lm.RecordRejection(ctx, account, nil)

	points := collectSums(t, reader)["propledger_invariant_rejections_total"]
	require.Len(t, points, 1)
	assert.Equal(t, int64(1), points[0].Value)
	code, _ := points[0].Attributes.Value(telemetry.AttrErrorCode)
	assert.Equal(t, "OVERPAYMENT", code.AsString())
}

func TestLedgerMetrics_NilSafe(t *testing.T) {
	var lm *telemetry.LedgerMetrics
	assert.NotPanics(t, func() {
		lm.RecordBillAssembled(context.Background(), uuid.New(), "create", decimal.Zero)
		lm.RecordRejection(context.Background(), uuid.New(), shared.ErrInvalidState)
	})
	assert.NotNil(t, telemetry.NewNopLedgerMetrics())
}
