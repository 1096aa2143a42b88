package telemetry

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

// MeterName is the instrumentation scope of the ledger metrics
const MeterName = "propledger-backend"

// BillAmountBuckets are bucket boundaries for bill totals in currency units.
var BillAmountBuckets = []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000}

// ErrMeterNil is returned by NewLedgerMetrics without a meter
var ErrMeterNil = errors.New("telemetry: ledger metrics need a meter")

// LedgerMetrics counts the mutations of the billing, metering and leasing
// services. A nil *LedgerMetrics records nothing.
type LedgerMetrics struct {
	logger *zap.Logger

	billsAssembled      *Counter
	billTotals          *Histogram
	paymentsAllocated   *Counter
	statusTransitions   *Counter
	readingsRecorded    *Counter
	leaseTransitions    *Counter
	invariantRejections *Counter
}

// LedgerMetricsConfig holds configuration for ledger metrics.
type LedgerMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewLedgerMetrics creates the ledger instruments on cfg.Meter.
func NewLedgerMetrics(cfg LedgerMetricsConfig) (*LedgerMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	lm := &LedgerMetrics{logger: logger}

	var err error
	if lm.billsAssembled, err = NewCounter(cfg.Meter,
		"propledger_bills_assembled_total",
		"Bills created or reassembled",
		"{bills}",
	); err != nil {
		return nil, err
	}
	if lm.billTotals, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "propledger_bill_total_amount",
		Description: "Total amount of assembled bills",
		Unit:        "{currency}",
		Boundaries:  BillAmountBuckets,
	}); err != nil {
		return nil, err
	}
	if lm.paymentsAllocated, err = NewCounter(cfg.Meter,
		"propledger_payments_allocated_total",
		"Payment mutations applied to bills",
		"{payments}",
	); err != nil {
		return nil, err
	}
	if lm.statusTransitions, err = NewCounter(cfg.Meter,
		"propledger_bill_status_transitions_total",
		"Bill payment status changes by target status",
		"{transitions}",
	); err != nil {
		return nil, err
	}
	if lm.readingsRecorded, err = NewCounter(cfg.Meter,
		"propledger_meter_readings_total",
		"Meter reading mutations",
		"{readings}",
	); err != nil {
		return nil, err
	}
	if lm.leaseTransitions, err = NewCounter(cfg.Meter,
		"propledger_lease_transitions_total",
		"Lease registrations, terminations and deletions",
		"{leases}",
	); err != nil {
		return nil, err
	}
	if lm.invariantRejections, err = NewCounter(cfg.Meter,
		"propledger_invariant_rejections_total",
		"Requests rejected by a domain invariant",
		"{requests}",
	); err != nil {
		return nil, err
	}

	return lm, nil
}

// NewNopLedgerMetrics returns metrics backed by a no-op meter.
func NewNopLedgerMetrics() *LedgerMetrics {
	lm, _ := NewLedgerMetrics(LedgerMetricsConfig{Meter: noop.NewMeterProvider().Meter(MeterName)})
	return lm
}

// RecordBillAssembled counts a bill create or update and records its total.
func (lm *LedgerMetrics) RecordBillAssembled(ctx context.Context, accountID uuid.UUID, operation string, total decimal.Decimal) {
	if lm == nil {
		return
	}
	attrs := []attribute.KeyValue{
		AttrAccountID.String(accountID.String()),
		AttrOperation.String(operation),
	}
	lm.billsAssembled.Inc(ctx, attrs...)
	lm.billTotals.Record(ctx, total.InexactFloat64(), attrs...)
}

// RecordPaymentAllocated counts a payment create, update or delete.
func (lm *LedgerMetrics) RecordPaymentAllocated(ctx context.Context, accountID uuid.UUID, operation, method string) {
	if lm == nil {
		return
	}
	lm.paymentsAllocated.Inc(ctx,
		AttrAccountID.String(accountID.String()),
		AttrOperation.String(operation),
		AttrPaymentMethod.String(method),
	)
}

// RecordStatusTransition counts a bill moving into status.
func (lm *LedgerMetrics) RecordStatusTransition(ctx context.Context, accountID uuid.UUID, status string) {
	if lm == nil {
		return
	}
	lm.statusTransitions.Inc(ctx,
		AttrAccountID.String(accountID.String()),
		AttrPaymentStatus.String(status),
	)
}

// RecordReading counts a reading mutation on a meter or submeter series.
func (lm *LedgerMetrics) RecordReading(ctx context.Context, accountID uuid.UUID, operation string, onSubmeter bool) {
	if lm == nil {
		return
	}
	series := "meter"
	if onSubmeter {
		series = "submeter"
	}
	lm.readingsRecorded.Inc(ctx,
		AttrAccountID.String(accountID.String()),
		AttrOperation.String(operation),
		AttrSeries.String(series),
	)
}

// RecordLeaseTransition counts a lease create, terminate or delete.
func (lm *LedgerMetrics) RecordLeaseTransition(ctx context.Context, accountID uuid.UUID, operation string) {
	if lm == nil {
		return
	}
	lm.leaseTransitions.Inc(ctx,
		AttrAccountID.String(accountID.String()),
		AttrOperation.String(operation),
	)
}

// RecordRejection counts err when it is an invariant or validation failure.
// Infrastructure errors are not counted.
func (lm *LedgerMetrics) RecordRejection(ctx context.Context, accountID uuid.UUID, err error) {
	if lm == nil || err == nil {
		return
	}
	de, ok := shared.AsDomainError(err)
	if !ok {
		return
	}
	lm.invariantRejections.Inc(ctx,
		AttrAccountID.String(accountID.String()),
		AttrErrorCode.String(de.Code),
	)
}
