package queries

import (
	"context"
	"time"

	"storefront/internal/core/domain/model/order"

	"gorm.io/gorm"
)

// ExportOrdersQueryHandler builds flat export rows in the database: the item
// and tracking summaries are aggregated with string_agg so the export stays a
// single round trip regardless of order size.
type ExportOrdersQueryHandler struct {
	db *gorm.DB
}

// NewExportOrdersQueryHandler creates a handler for order exports.
func NewExportOrdersQueryHandler(db *gorm.DB) ExportOrdersQueryHandler {
	return ExportOrdersQueryHandler{db: db}
}

type exportRow struct {
	Number            string
	Currency          string
	CustomerName      string
	CustomerEmail     string
	PaymentStatus     int
	FulfillmentStatus int
	GrandTotalCents   int64
	ItemsSummary      *string
	TrackingNumbers   *string
	CreatedAt         time.Time
}

// Handle executes the export query. Rows come back oldest first so repeated
// exports of the same range are stable.
func (h ExportOrdersQueryHandler) Handle(
	ctx context.Context,
	query ExportOrdersQuery,
) ([]ExportOrdersQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	list := GetOrdersQueryHandler{db: h.db}
	base := list.applyFilter(h.db.WithContext(ctx).Table("orders"), query.Filter())

	rows := make([]exportRow, 0)
	err := base.
		Select(`orders.number, orders.currency,
			orders.customer_name, orders.customer_email,
			orders.payment_status, orders.fulfillment_status,
			orders.grand_total_cents, orders.created_at,
			(SELECT string_agg(order_items.quantity || 'x ' || order_items.name, '; ' ORDER BY order_items.name)
				FROM order_items WHERE order_items.order_id = orders.id) AS items_summary,
			(SELECT string_agg(shipments.tracking_number, '; ' ORDER BY shipments.tracking_number)
				FROM shipments WHERE shipments.order_id = orders.id) AS tracking_numbers`).
		Order("orders.created_at asc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	responses := make([]ExportOrdersQueryResponse, 0, len(rows))
	for _, row := range rows {
		resp := ExportOrdersQueryResponse{
			Number:            row.Number,
			Currency:          row.Currency,
			CustomerName:      row.CustomerName,
			CustomerEmail:     row.CustomerEmail,
			PaymentStatus:     order.PaymentStatus(row.PaymentStatus).String(),
			FulfillmentStatus: order.FulfillmentStatus(row.FulfillmentStatus).String(),
			GrandTotalCents:   row.GrandTotalCents,
			CreatedAt:         row.CreatedAt,
		}
		if row.ItemsSummary != nil {
			resp.ItemsSummary = *row.ItemsSummary
		}
		if row.TrackingNumbers != nil {
			resp.TrackingNumbers = *row.TrackingNumbers
		}
		responses = append(responses, resp)
	}

	return responses, nil
}
