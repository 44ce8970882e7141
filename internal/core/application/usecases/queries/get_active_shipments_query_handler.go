package queries

import (
	"context"

	"storefront/internal/core/domain/model/kernel"
	"storefront/internal/core/domain/model/order"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetActiveShipmentsQueryHandler retrieves in-flight shipments from the
// database for the tracking refresh job.
type GetActiveShipmentsQueryHandler struct {
	db *gorm.DB
}

// NewGetActiveShipmentsQueryHandler creates a handler for active shipment
// queries.
func NewGetActiveShipmentsQueryHandler(db *gorm.DB) GetActiveShipmentsQueryHandler {
	return GetActiveShipmentsQueryHandler{db: db}
}

// Handle executes the query. Results are sorted by shipment ID so polling
// order is stable across job runs.
func (h GetActiveShipmentsQueryHandler) Handle(
	ctx context.Context,
	query GetActiveShipmentsQuery,
) ([]GetActiveShipmentsQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	shipments := make([]GetActiveShipmentsQueryResponse, 0)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			order_id,
			carrier,
			tracking_number,
			status
		FROM shipments
		WHERE status IN (?, ?, ?, ?)
		ORDER BY id
	`, order.LabelCreated, order.InTransit, order.OutForDelivery, order.ShipmentException).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id, orderID uuid.UUID
		var carrier, trackingNumber string
		var status int

		err = rows.Scan(
			&id,
			&orderID,
			&carrier,
			&trackingNumber,
			&status,
		)
		if err != nil {
			return nil, err
		}

		shipmentID, idErr := kernel.UUIDFromBytes(id[:])
		if idErr != nil {
			return nil, idErr
		}
		ownerID, idErr := kernel.UUIDFromBytes(orderID[:])
		if idErr != nil {
			return nil, idErr
		}

		shipments = append(shipments, GetActiveShipmentsQueryResponse{
			ShipmentID:     shipmentID,
			OrderID:        ownerID,
			Carrier:        carrier,
			TrackingNumber: trackingNumber,
			Status:         order.ShipmentStatus(status),
		})
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return shipments, nil
}
