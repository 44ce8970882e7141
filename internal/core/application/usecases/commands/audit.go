package commands

import (
	"context"
	"log/slog"
	"time"

	"storefront/internal/core/domain/model/audit"
	"storefront/internal/core/domain/model/kernel"
	"storefront/internal/core/ports"
)

// recordAudit writes an audit record after a committed mutation. Audit data is
// diagnostic, not authoritative: a failed write is logged and swallowed so it
// can never fail or roll back the parent operation.
func recordAudit(
	ctx context.Context,
	recorder ports.AuditRecorder,
	logger *slog.Logger,
	orderID kernel.UUID,
	entityType, entityID, action, actor string,
	actorType audit.ActorType,
	changes map[string]any,
) {
	record, err := audit.NewRecord(
		kernel.NewUUID(), &orderID, entityType, entityID, action, actor, actorType, changes, time.Now().UTC(),
	)
	if err != nil {
		logger.ErrorContext(ctx, "failed to build audit record", "action", action, "error", err)
		return
	}

	if err = recorder.Record(ctx, record); err != nil {
		logger.ErrorContext(ctx, "failed to write audit record", "action", action, "error", err)
	}
}
