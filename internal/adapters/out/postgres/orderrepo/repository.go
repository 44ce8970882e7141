package orderrepo

import (
	"context"
	"errors"

	"storefront/internal/core/domain/model/kernel"
	"storefront/internal/core/domain/model/order"
	"storefront/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements OrderRepository using GORM. The repository
// always reads and writes whole aggregates; child tables are loaded with the
// order and saved in the same statement batch.
type GormOrderRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
	locking bool
}

// aggregateTracker defines the interface for tracking aggregates.
type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// NewGormOrderRepository creates a new GORM order repository. locking is set
// by the unit of work when the repository is bound to a transaction; Get then
// takes a FOR UPDATE lock on the order row.
func NewGormOrderRepository(db *gorm.DB, tracker aggregateTracker, locking bool) *GormOrderRepository {
	return &GormOrderRepository{
		db:      db,
		tracker: tracker,
		locking: locking,
	}
}

// Add saves a new order aggregate, children included.
func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return err
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Update saves an existing order aggregate. Child rows are upserted; the
// aggregate only ever appends children (shipments, refunds, events) or
// updates counters on existing ones, so no delete pass is needed.
func (r *GormOrderRepository) Update(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	err := r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(&dto).Error
	if err != nil {
		return err
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Get retrieves an order aggregate by ID. Inside a transaction the order row
// is locked FOR UPDATE so concurrent mutations of the same order serialize at
// the database.
func (r *GormOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return r.get(ctx, id.Bytes())
}

// GetByShipment retrieves the order owning the given shipment.
func (r *GormOrderRepository) GetByShipment(ctx context.Context, shipmentID kernel.UUID) (*order.Order, error) {
	if err := shipmentID.Validate(); err != nil {
		return nil, err
	}

	var shipment ShipmentDTO
	err := r.db.WithContext(ctx).
		Select("order_id").
		First(&shipment, "id = ?", shipmentID.Bytes()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("shipment", shipmentID.String())
		}
		return nil, err
	}

	return r.get(ctx, shipment.OrderID)
}

func (r *GormOrderRepository) get(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	tx := r.db.WithContext(ctx)
	if r.locking {
		tx = tx.Clauses(clause.Locking{
			Strength: clause.LockingStrengthUpdate,
			Table:    clause.Table{Name: "orders"},
		})
	}

	var dto OrderDTO
	err := tx.
		Preload("Items").
		Preload("Payments").
		Preload("Shipments").
		Preload("Shipments.Items").
		Preload("Shipments.Events").
		Preload("Refunds").
		Preload("Refunds.Items").
		First(&dto, "orders.id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}
