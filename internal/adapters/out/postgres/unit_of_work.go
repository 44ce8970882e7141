// Package postgres provides the GORM-based Unit of Work implementation.
// A unit of work owns a single database transaction and hands out
// repositories bound to it, so a fulfillment, its item quantity updates and
// the derived order status commit or roll back together.
//
// Each business operation gets its own instance from the factory; instances
// are not safe for concurrent use.
package postgres

import (
	"context"

	"storefront/internal/adapters/out/postgres/orderrepo"
	"storefront/internal/core/domain/model/kernel"
	"storefront/internal/core/ports"

	"gorm.io/gorm"
)

// trackedAggregate records an aggregate mutated during the unit of work.
// Kept for post-commit processing such as outbox publishing.
type trackedAggregate struct {
	ID        kernel.UUID
	Aggregate interface{}
}

// GormUnitOfWorkFactory creates UnitOfWork instances sharing one GORM
// connection pool. Every Create call returns a fresh instance with its own
// transaction state.
type GormUnitOfWorkFactory struct {
	db *gorm.DB
}

// NewGormUnitOfWorkFactory creates a factory bound to the given database.
func NewGormUnitOfWorkFactory(db *gorm.DB) *GormUnitOfWorkFactory {
	return &GormUnitOfWorkFactory{db: db}
}

// Create produces a new UnitOfWork ready for a business transaction.
func (f *GormUnitOfWorkFactory) Create() ports.UnitOfWork {
	return &GormUnitOfWork{
		db:                f.db,
		trackedAggregates: make([]trackedAggregate, 0),
	}
}

// GormUnitOfWork coordinates a database transaction for one business
// operation. Before Begin, repositories read through the shared connection;
// after Begin, they run inside the transaction and lock the rows they load.
type GormUnitOfWork struct {
	db                *gorm.DB
	tx                *gorm.DB
	trackedAggregates []trackedAggregate
}

// Begin starts a database transaction. Calling Begin again on an instance
// with an active transaction is a no-op, never a nested transaction.
func (uow *GormUnitOfWork) Begin(ctx context.Context) error {
	if uow.tx != nil {
		return nil
	}

	uow.tx = uow.db.WithContext(ctx).Begin()
	if uow.tx.Error != nil {
		err := uow.tx.Error
		uow.tx = nil
		return err
	}

	return nil
}

// Commit finalizes the current transaction. Returns
// gorm.ErrInvalidTransaction when no transaction is active.
func (uow *GormUnitOfWork) Commit(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Commit().Error
	uow.tx = nil
	return err
}

// Rollback discards the current transaction. Returns
// gorm.ErrInvalidTransaction when no transaction is active, which lets
// callers run it unconditionally in defer after a successful commit.
func (uow *GormUnitOfWork) Rollback(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Rollback().Error
	uow.tx = nil
	return err
}

// TrackAggregate registers an aggregate mutated during this unit of work.
func (uow *GormUnitOfWork) TrackAggregate(id kernel.UUID, aggregate interface{}) {
	uow.trackedAggregates = append(uow.trackedAggregates, trackedAggregate{
		ID:        id,
		Aggregate: aggregate,
	})
}

// GetTrackedAggregates returns the aggregates mutated during this unit of work.
func (uow *GormUnitOfWork) GetTrackedAggregates() []trackedAggregate {
	return uow.trackedAggregates
}

// OrderRepository returns an order repository bound to the current
// transaction when one is active, or to the shared connection otherwise.
// Repositories obtained inside a transaction lock loaded order rows
// FOR UPDATE.
func (uow *GormUnitOfWork) OrderRepository() ports.OrderRepository {
	db := uow.db
	if uow.tx != nil {
		db = uow.tx
	}

	return orderrepo.NewGormOrderRepository(db, uow, uow.tx != nil)
}
