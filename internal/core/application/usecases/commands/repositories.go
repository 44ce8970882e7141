// Package commands contains business operations that modify system state.
// Implements the Command pattern for write operations in the CQRS architecture.
// All commands follow a consistent pattern: validation, per-order
// serialization, transaction management, provider calls, persistence, and a
// post-commit audit record.
package commands

import (
	"context"

	"storefront/internal/core/ports"
)

// Unit of Work interfaces provide transaction management for command handlers.
// These abstractions ensure data consistency across the order aggregate.
type (
	// TxManager handles database transaction lifecycle.
	// Ensures atomic operations across multiple repository calls.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	// OrderRepoFactory provides access to the order repository. Before Begin
	// the repository reads from the main connection; after Begin it is bound
	// to the transaction.
	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	// OrderUoW manages transactions for order mutations.
	OrderUoW interface {
		TxManager
		OrderRepoFactory
	}

	// OrderUoWFactory creates new order unit of work instances.
	OrderUoWFactory interface {
		Create() OrderUoW
	}
)

// OrderLocker serializes mutating operations per order. Handlers hold the
// order's lock for their whole run, so two concurrent fulfillments cannot
// both pass the availability check before either commits.
type OrderLocker interface {
	Lock(orderID string)
	Unlock(orderID string)
}
