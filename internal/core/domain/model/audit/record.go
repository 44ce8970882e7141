// Package audit provides the append-only audit trail entity. Audit records
// are diagnostic, never authoritative application state: they are written
// after the corresponding mutation and are never updated or deleted.
package audit

import (
	"errors"
	"time"

	"storefront/internal/core/domain/model/kernel"
	"storefront/internal/pkg/errs"
)

// ErrRecordIsNotConstructed is returned when a Record instance was not
// created through the NewRecord constructor.
var ErrRecordIsNotConstructed = errors.New("Record must be created via NewRecord constructor")

// ActorType classifies who performed an audited action.
type ActorType string

const (
	// ActorAdmin is a human operator identified by the x-admin-id header.
	ActorAdmin ActorType = "admin"
	// ActorSystem is an internal process such as the tracking refresh job.
	ActorSystem ActorType = "system"
	// ActorWebhook is an external provider calling back into the system.
	ActorWebhook ActorType = "webhook"
)

// Validate checks that the actor type is one of the known values.
func (t ActorType) Validate() error {
	switch t {
	case ActorAdmin, ActorSystem, ActorWebhook:
		return nil
	default:
		return errs.NewValueIsInvalidError("actorType")
	}
}

// Record is one immutable audit entry: who changed which entity, how, and
// with what payload. Changes is a free-form JSON object serialized by the
// recorder.
type Record struct {
	id         kernel.UUID
	orderID    *kernel.UUID
	entityType string
	entityID   string
	action     string
	actor      string
	actorType  ActorType
	changes    map[string]any
	createdAt  time.Time

	isConstructed bool
}

// NewRecord creates an audit record. Entity type/ID, action, actor and a
// valid actor type are required; orderID is optional for entries not tied
// to a single order.
func NewRecord(
	id kernel.UUID,
	orderID *kernel.UUID,
	entityType, entityID, action, actor string,
	actorType ActorType,
	changes map[string]any,
	createdAt time.Time,
) (*Record, error) {
	r := &Record{
		orderID:       orderID,
		changes:       changes,
		createdAt:     createdAt,
		isConstructed: true,
	}

	if err := errors.Join(
		r.setID(id),
		r.setEntity(entityType, entityID),
		r.setAction(action),
		r.setActor(actor, actorType),
	); err != nil {
		return nil, err
	}

	return r, nil
}

// Validate ensures the Record instance was properly constructed.
func (r *Record) Validate() error {
	if r == nil || !r.isConstructed {
		return ErrRecordIsNotConstructed
	}
	return nil
}

// ID returns the record's unique identifier.
func (r *Record) ID() kernel.UUID { return r.id }

// OrderID returns the related order ID, nil if not order-scoped.
func (r *Record) OrderID() *kernel.UUID { return r.orderID }

// EntityType returns the audited entity type, e.g. "order" or "payment".
func (r *Record) EntityType() string { return r.entityType }

// EntityID returns the audited entity's identifier.
func (r *Record) EntityID() string { return r.entityID }

// Action returns the performed action, e.g. "capture_payment".
func (r *Record) Action() string { return r.action }

// Actor returns who performed the action.
func (r *Record) Actor() string { return r.actor }

// ActorType returns the actor classification.
func (r *Record) ActorType() ActorType { return r.actorType }

// Changes returns the change payload.
func (r *Record) Changes() map[string]any { return r.changes }

// CreatedAt returns when the record was written.
func (r *Record) CreatedAt() time.Time { return r.createdAt }

func (r *Record) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	r.id = id
	return nil
}

func (r *Record) setEntity(entityType, entityID string) error {
	if entityType == "" {
		return errs.NewValueIsRequiredError("entityType")
	}
	if entityID == "" {
		return errs.NewValueIsRequiredError("entityID")
	}
	r.entityType = entityType
	r.entityID = entityID
	return nil
}

func (r *Record) setAction(action string) error {
	if action == "" {
		return errs.NewValueIsRequiredError("action")
	}
	r.action = action
	return nil
}

func (r *Record) setActor(actor string, actorType ActorType) error {
	if actor == "" {
		return errs.NewValueIsRequiredError("actor")
	}
	if err := actorType.Validate(); err != nil {
		return err
	}
	r.actor = actor
	r.actorType = actorType
	return nil
}
