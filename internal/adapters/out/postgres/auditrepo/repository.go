package auditrepo

import (
	"context"

	"storefront/internal/core/domain/model/audit"

	"gorm.io/gorm"
)

// GormAuditRecorder implements AuditRecorder using GORM. It writes through
// the shared connection, never a unit of work: audit entries are recorded
// after the audited mutation has committed, and a failed audit write must not
// roll anything back.
type GormAuditRecorder struct {
	db *gorm.DB
}

// NewGormAuditRecorder creates a new GORM audit recorder.
func NewGormAuditRecorder(db *gorm.DB) *GormAuditRecorder {
	return &GormAuditRecorder{db: db}
}

// Record appends one audit entry.
func (r *GormAuditRecorder) Record(ctx context.Context, record *audit.Record) error {
	if err := record.Validate(); err != nil {
		return err
	}

	dto, err := fromDomain(record)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Create(&dto).Error
}
