package queries

import (
	"errors"
	"time"

	"storefront/internal/pkg/guard"
)

var (
	ErrExportOrdersQueryIsNotConstructed = errors.New(
		"ExportOrdersQuery must be created via NewExportOrdersQuery constructor",
	)
)

// ExportOrdersQuery produces flat order rows for CSV-style export: one row
// per order with items and tracking numbers collapsed into summary strings.
// The same filter as the order list applies; there is no pagination, exports
// always cover the full match.
type ExportOrdersQuery struct { //nolint:recvcheck //using for validation
	filter OrderFilter

	guard guard.ConstructorGuard
}

// NewExportOrdersQuery creates an export query over the given filter.
func NewExportOrdersQuery(filter OrderFilter) (ExportOrdersQuery, error) {
	q := ExportOrdersQuery{
		guard: guard.NewConstructorGuard(),
	}

	if err := filter.validate(); err != nil {
		return ExportOrdersQuery{}, err
	}

	q.filter = filter
	return q, nil
}

// Validate ensures the query was created through the constructor.
func (q ExportOrdersQuery) Validate() error {
	return q.guard.Validate(ErrExportOrdersQueryIsNotConstructed)
}

// Filter returns the active filter.
func (q ExportOrdersQuery) Filter() OrderFilter {
	return q.filter
}

// ExportOrdersQueryResponse is one flat export row. ItemsSummary reads like
// "2x Widget; 1x Gadget"; TrackingNumbers like "9400...01; 9400...02".
type ExportOrdersQueryResponse struct {
	Number            string
	Currency          string
	CustomerName      string
	CustomerEmail     string
	PaymentStatus     string
	FulfillmentStatus string
	GrandTotalCents   int64
	ItemsSummary      string
	TrackingNumbers   string
	CreatedAt         time.Time
}
