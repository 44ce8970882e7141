// Package order provides the domain model for the storefront's order-management
// core: the Order aggregate root with its line items, payments, shipments and
// refunds, plus the state machines that govern their lifecycles.
//
// The package includes:
//   - Order: The aggregate root composing OrderItem, Payment, Shipment and Refund
//   - PaymentStatus, FulfillmentStatus, ShipmentStatus, RefundStatus: value-object
//     state machines enforcing valid transitions
//
// Key business rules:
//   - Quantity conservation: an item can never be fulfilled or refunded beyond
//     its ordered quantity
//   - Money conservation: a payment's refunded total can never exceed its
//     captured total
//   - Order-level statuses are derived from child entities, never set directly;
//     the one explicit transition is cancellation, which is rejected once the
//     order has been delivered
//   - All preconditions are validated before any mutation, so failed operations
//     leave the aggregate byte-for-byte unchanged
//
// The package follows Domain-Driven Design principles, providing rich domain
// behavior, encapsulation, and validation to ensure business rules are enforced.
package order
