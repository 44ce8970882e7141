package queries

import (
	"context"
	"time"

	"storefront/internal/core/domain/model/kernel"
	"storefront/internal/core/domain/model/order"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetOrdersQueryHandler serves the admin order list straight from the
// database. Read models bypass the aggregate entirely; only mutations go
// through the domain layer.
type GetOrdersQueryHandler struct {
	db *gorm.DB
}

// NewGetOrdersQueryHandler creates a handler for order list queries.
func NewGetOrdersQueryHandler(db *gorm.DB) GetOrdersQueryHandler {
	return GetOrdersQueryHandler{db: db}
}

type orderSummaryRow struct {
	ID                uuid.UUID
	Number            string
	Currency          string
	CustomerName      string
	CustomerEmail     string
	PaymentStatus     int
	FulfillmentStatus int
	GrandTotalCents   int64
	ItemCount         int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Handle executes the order list query: one COUNT for the total and one page
// SELECT, both under the same filter.
func (h GetOrdersQueryHandler) Handle(
	ctx context.Context,
	query GetOrdersQuery,
) (GetOrdersQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetOrdersQueryResponse{}, err
	}

	base := h.applyFilter(h.db.WithContext(ctx).Table("orders"), query.Filter())

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return GetOrdersQueryResponse{}, err
	}

	direction := "asc"
	if query.SortDesc() {
		direction = "desc"
	}

	rows := make([]orderSummaryRow, 0, query.PageSize())
	err := h.applyFilter(h.db.WithContext(ctx).Table("orders"), query.Filter()).
		Select(`orders.id, orders.number, orders.currency,
			orders.customer_name, orders.customer_email,
			orders.payment_status, orders.fulfillment_status,
			orders.grand_total_cents, orders.created_at, orders.updated_at,
			(SELECT COUNT(*) FROM order_items WHERE order_items.order_id = orders.id) AS item_count`).
		Order("orders." + orderSortColumns[query.SortBy()] + " " + direction).
		Limit(query.PageSize()).
		Offset((query.Page() - 1) * query.PageSize()).
		Scan(&rows).Error
	if err != nil {
		return GetOrdersQueryResponse{}, err
	}

	summaries := make([]OrderSummary, 0, len(rows))
	for _, row := range rows {
		id, idErr := kernel.UUIDFromBytes(row.ID[:])
		if idErr != nil {
			return GetOrdersQueryResponse{}, idErr
		}
		summaries = append(summaries, OrderSummary{
			ID:                id,
			Number:            row.Number,
			Currency:          row.Currency,
			CustomerName:      row.CustomerName,
			CustomerEmail:     row.CustomerEmail,
			PaymentStatus:     order.PaymentStatus(row.PaymentStatus),
			FulfillmentStatus: order.FulfillmentStatus(row.FulfillmentStatus),
			GrandTotalCents:   row.GrandTotalCents,
			ItemCount:         row.ItemCount,
			CreatedAt:         row.CreatedAt,
			UpdatedAt:         row.UpdatedAt,
		})
	}

	return GetOrdersQueryResponse{
		Orders:   summaries,
		Total:    total,
		Page:     query.Page(),
		PageSize: query.PageSize(),
	}, nil
}

func (h GetOrdersQueryHandler) applyFilter(tx *gorm.DB, filter OrderFilter) *gorm.DB {
	if len(filter.PaymentStatuses) > 0 {
		statuses := make([]int, 0, len(filter.PaymentStatuses))
		for _, s := range filter.PaymentStatuses {
			statuses = append(statuses, int(s))
		}
		tx = tx.Where("orders.payment_status IN ?", statuses)
	}
	if len(filter.FulfillmentStatuses) > 0 {
		statuses := make([]int, 0, len(filter.FulfillmentStatuses))
		for _, s := range filter.FulfillmentStatuses {
			statuses = append(statuses, int(s))
		}
		tx = tx.Where("orders.fulfillment_status IN ?", statuses)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		tx = tx.Where(`orders.number ILIKE ?
			OR orders.customer_name ILIKE ?
			OR orders.customer_email ILIKE ?
			OR EXISTS (
				SELECT 1 FROM shipments
				WHERE shipments.order_id = orders.id
				AND shipments.tracking_number ILIKE ?
			)`, pattern, pattern, pattern, pattern)
	}
	if filter.CreatedFrom != nil {
		tx = tx.Where("orders.created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		tx = tx.Where("orders.created_at <= ?", *filter.CreatedTo)
	}
	if filter.MinTotalCents != nil {
		tx = tx.Where("orders.grand_total_cents >= ?", *filter.MinTotalCents)
	}
	if filter.MaxTotalCents != nil {
		tx = tx.Where("orders.grand_total_cents <= ?", *filter.MaxTotalCents)
	}
	return tx
}
