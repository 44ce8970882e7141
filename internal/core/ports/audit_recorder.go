package ports

import (
	"context"

	"storefront/internal/core/domain/model/audit"
)

// AuditRecorder appends immutable change records. It is a pure append: no
// reads, no validation beyond the record's own constructor.
//
// Audit writes happen after the corresponding state mutation has committed;
// a failed audit write is logged by the caller and never rolls back or fails
// the parent operation.
type AuditRecorder interface {
	Record(ctx context.Context, record *audit.Record) error
}
