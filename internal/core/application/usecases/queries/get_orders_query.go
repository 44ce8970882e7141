package queries

import (
	"errors"
	"fmt"
	"time"

	"storefront/internal/core/domain/model/kernel"
	"storefront/internal/core/domain/model/order"
	"storefront/internal/pkg/errs"
	"storefront/internal/pkg/guard"
)

var (
	ErrGetOrdersQueryIsNotConstructed = errors.New(
		"GetOrdersQuery must be created via NewGetOrdersQuery constructor",
	)
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// Sortable columns for the order list. Keys are the API-level names.
var orderSortColumns = map[string]string{
	"created_at":  "created_at",
	"updated_at":  "updated_at",
	"number":      "number",
	"grand_total": "grand_total_cents",
}

// OrderFilter narrows the order list. Zero-valued fields are ignored, so an
// empty filter returns everything.
type OrderFilter struct {
	// PaymentStatuses and FulfillmentStatuses are OR-ed within each set and
	// AND-ed across sets.
	PaymentStatuses     []order.PaymentStatus
	FulfillmentStatuses []order.FulfillmentStatus

	// Search matches order number, customer name, customer email and any
	// shipment tracking number, case-insensitive substring.
	Search string

	CreatedFrom *time.Time
	CreatedTo   *time.Time

	MinTotalCents *int64
	MaxTotalCents *int64
}

// GetOrdersQuery retrieves a filtered, sorted, paginated page of orders for
// the admin order list.
//
// Example:
//
//	filter := OrderFilter{Search: "ada@example.com"}
//	query, err := NewGetOrdersQuery(filter, "created_at", true, 1, 50)
//	if err != nil {
//	    return fmt.Errorf("invalid query: %w", err)
//	}
//	page, err := handler.Handle(ctx, query)
type GetOrdersQuery struct { //nolint:recvcheck //using for validation
	filter   OrderFilter
	sortBy   string
	sortDesc bool
	page     int
	pageSize int

	guard guard.ConstructorGuard
}

// NewGetOrdersQuery creates a query for the order list. sortBy must be one of
// created_at, updated_at, number or grand_total; an empty sortBy defaults to
// created_at. page is 1-based; pageSize 0 defaults to 50, capped at 200.
func NewGetOrdersQuery(filter OrderFilter, sortBy string, sortDesc bool, page, pageSize int) (GetOrdersQuery, error) {
	q := GetOrdersQuery{
		sortDesc: sortDesc,
		guard:    guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		q.setFilter(filter),
		q.setSortBy(sortBy),
		q.setPage(page, pageSize),
	); err != nil {
		return GetOrdersQuery{}, err
	}

	return q, nil
}

// Validate ensures the query was created through the constructor.
func (q GetOrdersQuery) Validate() error {
	return q.guard.Validate(ErrGetOrdersQueryIsNotConstructed)
}

// Filter returns the active filter.
func (q GetOrdersQuery) Filter() OrderFilter {
	return q.filter
}

// SortBy returns the resolved sort column.
func (q GetOrdersQuery) SortBy() string {
	return q.sortBy
}

// SortDesc reports whether the sort is descending.
func (q GetOrdersQuery) SortDesc() bool {
	return q.sortDesc
}

// Page returns the 1-based page number.
func (q GetOrdersQuery) Page() int {
	return q.page
}

// PageSize returns the resolved page size.
func (q GetOrdersQuery) PageSize() int {
	return q.pageSize
}

// validate checks the filter's internal consistency; it is shared by the
// list and export queries.
func (f OrderFilter) validate() error {
	for _, s := range f.PaymentStatuses {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	for _, s := range f.FulfillmentStatuses {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	if f.CreatedFrom != nil && f.CreatedTo != nil && f.CreatedTo.Before(*f.CreatedFrom) {
		return errs.NewValueIsInvalidErrorWithCause(
			"createdTo", fmt.Errorf("%s is before createdFrom", f.CreatedTo))
	}
	if f.MinTotalCents != nil && *f.MinTotalCents < 0 {
		return errs.NewValueIsInvalidError("minTotalCents")
	}
	if f.MaxTotalCents != nil && *f.MaxTotalCents < 0 {
		return errs.NewValueIsInvalidError("maxTotalCents")
	}
	return nil
}

func (q *GetOrdersQuery) setFilter(filter OrderFilter) error {
	if err := filter.validate(); err != nil {
		return err
	}
	q.filter = filter
	return nil
}

func (q *GetOrdersQuery) setSortBy(sortBy string) error {
	if sortBy == "" {
		sortBy = "created_at"
	}
	if _, ok := orderSortColumns[sortBy]; !ok {
		return errs.NewValueIsInvalidErrorWithCause(
			"sortBy", fmt.Errorf("%q is not a sortable column", sortBy))
	}
	q.sortBy = sortBy
	return nil
}

func (q *GetOrdersQuery) setPage(page, pageSize int) error {
	if page <= 0 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = defaultPageSize
	}
	if pageSize < 0 || pageSize > maxPageSize {
		return errs.NewValueIsOutOfRangeError("pageSize", pageSize, 1, maxPageSize)
	}
	q.page = page
	q.pageSize = pageSize
	return nil
}

// OrderSummary is one row of the admin order list.
type OrderSummary struct {
	ID                kernel.UUID
	Number            string
	Currency          string
	CustomerName      string
	CustomerEmail     string
	PaymentStatus     order.PaymentStatus
	FulfillmentStatus order.FulfillmentStatus
	GrandTotalCents   int64
	ItemCount         int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// GetOrdersQueryResponse is one page of the order list plus the total match
// count for pagination.
type GetOrdersQueryResponse struct {
	Orders   []OrderSummary
	Total    int64
	Page     int
	PageSize int
}
