package shared

import (
	"context"

	"github.com/google/uuid"
	domshared "github.com/propledger/backend/internal/domain/shared"
	"github.com/propledger/backend/internal/infrastructure/logger"
	"github.com/propledger/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Fail marks span as failed and logs err before returning it unchanged.
// Domain errors are rejected requests and log at Warn with their code;
// anything else is an infrastructure failure and logs at Error.
func Fail(ctx context.Context, span trace.Span, metrics *telemetry.LedgerMetrics, accountID uuid.UUID, op string, err error) error {
	if err == nil {
		return nil
	}
	telemetry.RecordError(span, err)

	log := logger.L(ctx).With(zap.String("operation", op))
	if logger.GetAccountID(ctx) == "" {
		log = log.With(zap.String("account_id", accountID.String()))
	}
	if de, ok := domshared.AsDomainError(err); ok {
		metrics.RecordRejection(ctx, accountID, err)
		log.Warn("request rejected", zap.String("code", de.Code), zap.String("kind", string(de.Kind)), zap.String("reason", de.Message))
		return err
	}
	log.Error("operation failed", zap.Error(err))
	return err
}
