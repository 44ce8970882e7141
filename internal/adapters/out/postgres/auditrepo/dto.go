// Package auditrepo persists the append-only audit trail. Records are only
// ever inserted; there is no update or delete path, and reads happen through
// ad-hoc queries rather than the repository.
package auditrepo

import (
	"encoding/json"
	"time"

	"storefront/internal/core/domain/model/audit"

	"github.com/google/uuid"
)

// RecordDTO represents the database structure for one audit entry. Changes
// is the JSON-serialized change payload stored as jsonb.
type RecordDTO struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	OrderID    *uuid.UUID `gorm:"type:uuid;index"`
	EntityType string     `gorm:"index:idx_audit_entity"`
	EntityID   string     `gorm:"index:idx_audit_entity"`
	Action     string
	Actor      string
	ActorType  string
	Changes    []byte    `gorm:"type:jsonb"`
	CreatedAt  time.Time `gorm:"index"`
}

// TableName overrides GORM's default naming convention to use "audit_records".
func (RecordDTO) TableName() string {
	return "audit_records"
}

func fromDomain(record *audit.Record) (RecordDTO, error) {
	changes, err := json.Marshal(record.Changes())
	if err != nil {
		return RecordDTO{}, err
	}

	dto := RecordDTO{
		ID:         record.ID().Bytes(),
		EntityType: record.EntityType(),
		EntityID:   record.EntityID(),
		Action:     record.Action(),
		Actor:      record.Actor(),
		ActorType:  string(record.ActorType()),
		Changes:    changes,
		CreatedAt:  record.CreatedAt(),
	}
	if orderID := record.OrderID(); orderID != nil {
		id := orderID.Bytes()
		dto.OrderID = &id
	}

	return dto, nil
}
