// Package http is the inbound HTTP adapter: the admin API and the provider
// webhooks. Handlers translate requests into commands and queries and map
// the error taxonomy onto status codes; no business rules live here.
package http

import (
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"storefront/internal/core/application/usecases/commands"
	"storefront/internal/core/application/usecases/queries"
	"storefront/internal/core/domain/model/audit"
	"storefront/internal/core/domain/model/kernel"
	"storefront/internal/core/domain/model/order"
	"storefront/internal/core/ports"
	"storefront/internal/pkg/errs"

	"github.com/labstack/echo/v4"
	openapitypes "github.com/oapi-codegen/runtime/types"
)

// actorHeader identifies the human operator on mutating admin endpoints.
const actorHeader = "x-admin-id"

// Server coordinates between HTTP handlers and application use cases.
type Server struct {
	cancelOrderHandler       commands.CancelOrderCommandHandler
	capturePaymentHandler    commands.CapturePaymentCommandHandler
	createFulfillmentHandler commands.CreateFulfillmentCommandHandler
	processRefundHandler     commands.ProcessRefundCommandHandler
	updateTrackingHandler    commands.UpdateShipmentTrackingCommandHandler

	getOrdersHandler    queries.GetOrdersQueryHandler
	exportOrdersHandler queries.ExportOrdersQueryHandler

	gateway ports.PaymentGateway
	carrier ports.ShippingCarrier
	auditor ports.AuditRecorder
	logger  *slog.Logger
}

// NewServer creates the HTTP server with the required command and query
// handlers plus the provider ports used by the pass-through endpoints.
func NewServer(
	cancelOrderHandler commands.CancelOrderCommandHandler,
	capturePaymentHandler commands.CapturePaymentCommandHandler,
	createFulfillmentHandler commands.CreateFulfillmentCommandHandler,
	processRefundHandler commands.ProcessRefundCommandHandler,
	updateTrackingHandler commands.UpdateShipmentTrackingCommandHandler,
	getOrdersHandler queries.GetOrdersQueryHandler,
	exportOrdersHandler queries.ExportOrdersQueryHandler,
	gateway ports.PaymentGateway,
	carrier ports.ShippingCarrier,
	auditor ports.AuditRecorder,
	logger *slog.Logger,
) *Server {
	return &Server{
		cancelOrderHandler:       cancelOrderHandler,
		capturePaymentHandler:    capturePaymentHandler,
		createFulfillmentHandler: createFulfillmentHandler,
		processRefundHandler:     processRefundHandler,
		updateTrackingHandler:    updateTrackingHandler,
		getOrdersHandler:         getOrdersHandler,
		exportOrdersHandler:      exportOrdersHandler,
		gateway:                  gateway,
		carrier:                  carrier,
		auditor:                  auditor,
		logger:                   logger,
	}
}

// RegisterRoutes attaches every endpoint to the echo instance.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", s.Health)

	v1 := e.Group("/api/v1")
	v1.GET("/orders", s.GetOrders)
	v1.GET("/orders/export", s.ExportOrders)
	v1.POST("/orders/:orderID/cancel", s.CancelOrder)
	v1.POST("/orders/:orderID/payments/capture", s.CapturePayment)
	v1.POST("/orders/:orderID/refunds", s.ProcessRefund)
	v1.POST("/orders/:orderID/fulfillments", s.CreateFulfillment)
	v1.POST("/shipments/rates", s.QuoteRates)
	v1.POST("/webhooks/payment", s.PaymentWebhook)
	v1.POST("/webhooks/tracking", s.TrackingWebhook)
}

// Health handles GET /health.
func (s *Server) Health(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Healthy")
}

// GetOrders handles GET /api/v1/orders - the filtered, paginated order list.
func (s *Server) GetOrders(ctx echo.Context) error {
	query, err := s.buildOrdersQuery(ctx)
	if err != nil {
		return s.errorResponse(ctx, err)
	}

	resp, err := s.getOrdersHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.errorResponse(ctx, err)
	}

	page := OrdersPage{
		Orders:   make([]OrderSummary, 0, len(resp.Orders)),
		Total:    resp.Total,
		Page:     resp.Page,
		PageSize: resp.PageSize,
	}
	for _, summary := range resp.Orders {
		page.Orders = append(page.Orders, OrderSummary{
			ID:                summary.ID.Bytes(),
			Number:            summary.Number,
			Currency:          summary.Currency,
			CustomerName:      summary.CustomerName,
			CustomerEmail:     openapitypes.Email(summary.CustomerEmail),
			PaymentStatus:     summary.PaymentStatus.String(),
			FulfillmentStatus: summary.FulfillmentStatus.String(),
			GrandTotalCents:   summary.GrandTotalCents,
			ItemCount:         summary.ItemCount,
			CreatedAt:         summary.CreatedAt,
			UpdatedAt:         summary.UpdatedAt,
		})
	}

	return ctx.JSON(http.StatusOK, page)
}

// ExportOrders handles GET /api/v1/orders/export - a CSV download under the
// same filters as the list endpoint.
func (s *Server) ExportOrders(ctx echo.Context) error {
	filter, err := s.buildOrderFilter(ctx)
	if err != nil {
		return s.errorResponse(ctx, err)
	}

	query, err := queries.NewExportOrdersQuery(filter)
	if err != nil {
		return s.errorResponse(ctx, err)
	}

	rows, err := s.exportOrdersHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.errorResponse(ctx, err)
	}

	ctx.Response().Header().Set(echo.HeaderContentType, "text/csv")
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="orders.csv"`)
	ctx.Response().WriteHeader(http.StatusOK)

	writer := csv.NewWriter(ctx.Response())
	header := []string{
		"number", "created_at", "customer_name", "customer_email", "currency",
		"grand_total_cents", "payment_status", "fulfillment_status",
		"items", "tracking_numbers",
	}
	if err = writer.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.Number,
			row.CreatedAt.UTC().Format(time.RFC3339),
			row.CustomerName,
			row.CustomerEmail,
			row.Currency,
			strconv.FormatInt(row.GrandTotalCents, 10),
			row.PaymentStatus,
			row.FulfillmentStatus,
			row.ItemsSummary,
			row.TrackingNumbers,
		}
		if err = writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// CancelOrder handles POST /api/v1/orders/:orderID/cancel.
func (s *Server) CancelOrder(ctx echo.Context) error {
	orderID, actor, err := s.mutationContext(ctx)
	if err != nil {
		return s.errorResponse(ctx, err)
	}

	var body CancelOrderRequest
	if err = ctx.Bind(&body); err != nil {
		return s.badRequest(ctx, "Invalid request body")
	}

	cmd, err := commands.NewCancelOrderCommand(orderID, body.Reason, actor)
	if err != nil {
		return s.errorResponse(ctx, err)
	}

	if err = s.cancelOrderHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.errorResponse(ctx, err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// CapturePayment handles POST /api/v1/orders/:orderID/payments/capture.
func (s *Server) CapturePayment(ctx echo.Context) error {
	orderID, actor, err := s.mutationContext(ctx)
	if err != nil {
		return s.errorResponse(ctx, err)
	}

	var body CapturePaymentRequest
	if err = ctx.Bind(&body); err != nil {
		return s.badRequest(ctx, "Invalid request body")
	}

	cmd, err := commands.NewCapturePaymentCommand(orderID, body.AmountCents, actor)
	if err != nil {
		return s.errorResponse(ctx, err)
	}

	if err = s.capturePaymentHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.errorResponse(ctx, err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// ProcessRefund handles POST /api/v1/orders/:orderID/refunds.
func (s *Server) ProcessRefund(ctx echo.Context) error {
	orderID, actor, err := s.mutationContext(ctx)
	if err != nil {
		return s.errorResponse(ctx, err)
	}

	var body ProcessRefundRequest
	if err = ctx.Bind(&body); err != nil {
		return s.badRequest(ctx, "Invalid request body")
	}

	items := make([]order.RefundItemRequest, 0, len(body.Items))
	for _, item := range body.Items {
		itemID, idErr := kernel.UUIDFromBytes(item.OrderItemID[:])
		if idErr != nil {
			return s.errorResponse(ctx, idErr)
		}
		items = append(items, order.RefundItemRequest{
			OrderItemID: itemID,
			Quantity:    item.Quantity,
		})
	}

	cmd, err := commands.NewProcessRefundCommand(orderID, body.AmountCents, body.Reason, items, actor)
	if err != nil {
		return s.errorResponse(ctx, err)
	}

	if err = s.processRefundHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.errorResponse(ctx, err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// CreateFulfillment handles POST /api/v1/orders/:orderID/fulfillments.
func (s *Server) CreateFulfillment(ctx echo.Context) error {
	orderID, actor, err := s.mutationContext(ctx)
	if err != nil {
		return s.errorResponse(ctx, err)
	}

	var body CreateFulfillmentRequest
	if err = ctx.Bind(&body); err != nil {
		return s.badRequest(ctx, "Invalid request body")
	}

	items := make([]order.FulfillmentRequest, 0, len(body.Items))
	for _, item := range body.Items {
		itemID, idErr := kernel.UUIDFromBytes(item.OrderItemID[:])
		if idErr != nil {
			return s.errorResponse(ctx, idErr)
		}
		items = append(items, order.FulfillmentRequest{
			OrderItemID: itemID,
			Quantity:    item.Quantity,
		})
	}

	cmd, err := commands.NewCreateFulfillmentCommand(
		orderID, items, body.Carrier, body.Service,
		commands.FulfillmentOptions{
			Insurance:       body.Insurance,
			Signature:       body.Signature,
			ValidateAddress: body.ValidateAddress,
		},
		actor,
	)
	if err != nil {
		return s.errorResponse(ctx, err)
	}

	if err = s.createFulfillmentHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.errorResponse(ctx, err)
	}
	return ctx.NoContent(http.StatusCreated)
}

// QuoteRates handles POST /api/v1/shipments/rates - rate shopping across the
// carrier network without committing to a purchase.
func (s *Server) QuoteRates(ctx echo.Context) error {
	var body QuoteRatesRequest
	if err := ctx.Bind(&body); err != nil {
		return s.badRequest(ctx, "Invalid request body")
	}

	from, err := addressToDomain(body.FromAddress)
	if err != nil {
		return s.errorResponse(ctx, err)
	}
	to, err := addressToDomain(body.ToAddress)
	if err != nil {
		return s.errorResponse(ctx, err)
	}

	items := make([]ports.ParcelItem, 0, len(body.Items))
	for _, item := range body.Items {
		items = append(items, ports.ParcelItem{
			Name:        item.Name,
			Quantity:    item.Quantity,
			WeightGrams: item.WeightGrams,
			ValueCents:  item.ValueCents,
		})
	}

	rates, err := s.carrier.QuoteRates(ctx.Request().Context(), ports.ShipmentRequest{
		FromAddress: from,
		ToAddress:   to,
		Items:       items,
	})
	if err != nil {
		return s.errorResponse(ctx, err)
	}

	response := make([]ShippingRateResponse, 0, len(rates))
	for _, rate := range rates {
		response = append(response, ShippingRateResponse{
			Carrier:       rate.Carrier,
			Service:       rate.Service,
			CostCents:     rate.CostCents,
			EstimatedDays: rate.EstimatedDays,
			Currency:      rate.Currency,
		})
	}
	return ctx.JSON(http.StatusOK, response)
}

// PaymentWebhook handles POST /api/v1/webhooks/payment. The event is
// accepted only after its signature verifies against the gateway secret;
// accepted events land in the audit trail.
func (s *Server) PaymentWebhook(ctx echo.Context) error {
	payload, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return s.badRequest(ctx, "Failed to read request body")
	}

	signature := ctx.Request().Header.Get("Stripe-Signature")
	event, err := s.gateway.VerifyWebhook(payload, signature)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, Error{
			Code:    http.StatusUnauthorized,
			Message: "Webhook signature verification failed",
		})
	}

	record, err := audit.NewRecord(
		kernel.NewUUID(), nil,
		"payment_event", event.ID, "payment_webhook",
		"stripe", audit.ActorWebhook,
		map[string]any{"type": event.Type},
		time.Now().UTC(),
	)
	if err == nil {
		err = s.auditor.Record(ctx.Request().Context(), record)
	}
	if err != nil {
		s.logger.Error("failed to audit payment webhook",
			slog.String("event_id", event.ID), slog.Any("error", err))
	}

	return ctx.JSON(http.StatusOK, map[string]bool{"received": true})
}

// TrackingWebhook handles POST /api/v1/webhooks/tracking - carrier-pushed
// tracking events, applied through the same command as the polling job.
func (s *Server) TrackingWebhook(ctx echo.Context) error {
	var body TrackingWebhookRequest
	if err := ctx.Bind(&body); err != nil {
		return s.badRequest(ctx, "Invalid request body")
	}

	shipmentID, err := kernel.UUIDFromBytes(body.ShipmentID[:])
	if err != nil {
		return s.errorResponse(ctx, err)
	}

	events := make([]order.TrackingEvent, 0, len(body.Events))
	for _, event := range body.Events {
		status, statusErr := parseShipmentStatus(event.Status)
		if statusErr != nil {
			return s.errorResponse(ctx, statusErr)
		}
		events = append(events, order.TrackingEvent{
			Status:      status,
			Description: event.Description,
			Location:    event.Location,
			OccurredAt:  event.OccurredAt,
		})
	}

	cmd, err := commands.NewUpdateShipmentTrackingCommand(shipmentID, events, "carrier", audit.ActorWebhook)
	if err != nil {
		return s.errorResponse(ctx, err)
	}

	if err = s.updateTrackingHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.errorResponse(ctx, err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (s *Server) buildOrdersQuery(ctx echo.Context) (queries.GetOrdersQuery, error) {
	filter, err := s.buildOrderFilter(ctx)
	if err != nil {
		return queries.GetOrdersQuery{}, err
	}

	page := 0
	if raw := ctx.QueryParam("page"); raw != "" {
		if page, err = strconv.Atoi(raw); err != nil {
			return queries.GetOrdersQuery{}, errs.NewValueIsInvalidErrorWithCause("page", err)
		}
	}
	pageSize := 0
	if raw := ctx.QueryParam("page_size"); raw != "" {
		if pageSize, err = strconv.Atoi(raw); err != nil {
			return queries.GetOrdersQuery{}, errs.NewValueIsInvalidErrorWithCause("page_size", err)
		}
	}

	sortDesc := ctx.QueryParam("sort_desc") == "true"
	return queries.NewGetOrdersQuery(filter, ctx.QueryParam("sort_by"), sortDesc, page, pageSize)
}

func (s *Server) buildOrderFilter(ctx echo.Context) (queries.OrderFilter, error) {
	paymentStatuses, err := parsePaymentStatuses(ctx.QueryParam("payment_status"))
	if err != nil {
		return queries.OrderFilter{}, err
	}
	fulfillmentStatuses, err := parseFulfillmentStatuses(ctx.QueryParam("fulfillment_status"))
	if err != nil {
		return queries.OrderFilter{}, err
	}

	filter := queries.OrderFilter{
		PaymentStatuses:     paymentStatuses,
		FulfillmentStatuses: fulfillmentStatuses,
		Search:              ctx.QueryParam("search"),
	}

	if raw := ctx.QueryParam("created_from"); raw != "" {
		from, parseErr := time.Parse(time.RFC3339, raw)
		if parseErr != nil {
			return queries.OrderFilter{}, errs.NewValueIsInvalidErrorWithCause("created_from", parseErr)
		}
		filter.CreatedFrom = &from
	}
	if raw := ctx.QueryParam("created_to"); raw != "" {
		to, parseErr := time.Parse(time.RFC3339, raw)
		if parseErr != nil {
			return queries.OrderFilter{}, errs.NewValueIsInvalidErrorWithCause("created_to", parseErr)
		}
		filter.CreatedTo = &to
	}
	if raw := ctx.QueryParam("min_total_cents"); raw != "" {
		cents, parseErr := strconv.ParseInt(raw, 10, 64)
		if parseErr != nil {
			return queries.OrderFilter{}, errs.NewValueIsInvalidErrorWithCause("min_total_cents", parseErr)
		}
		filter.MinTotalCents = &cents
	}
	if raw := ctx.QueryParam("max_total_cents"); raw != "" {
		cents, parseErr := strconv.ParseInt(raw, 10, 64)
		if parseErr != nil {
			return queries.OrderFilter{}, errs.NewValueIsInvalidErrorWithCause("max_total_cents", parseErr)
		}
		filter.MaxTotalCents = &cents
	}

	return filter, nil
}

// mutationContext extracts the order ID path parameter and the acting admin
// from a mutating request.
func (s *Server) mutationContext(ctx echo.Context) (kernel.UUID, string, error) {
	orderID, err := kernel.UUIDFromString(ctx.Param("orderID"))
	if err != nil {
		return kernel.UUID{}, "", errs.NewValueIsInvalidErrorWithCause("orderID", err)
	}

	actor := ctx.Request().Header.Get(actorHeader)
	if actor == "" {
		return kernel.UUID{}, "", errs.NewValueIsRequiredError(actorHeader)
	}
	return orderID, actor, nil
}

func (s *Server) badRequest(ctx echo.Context, message string) error {
	return ctx.JSON(http.StatusBadRequest, Error{
		Code:    http.StatusBadRequest,
		Message: message,
	})
}

// errorResponse maps the error taxonomy onto HTTP statuses: not found 404,
// state conflicts 409, provider failures 502, validation 400, the rest 500.
func (s *Server) errorResponse(ctx echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errs.ErrStateConflict):
		status = http.StatusConflict
	case errors.Is(err, errs.ErrProviderFailure):
		status = http.StatusBadGateway
	case errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, kernel.ErrUUIDIsNotConstructed):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			slog.String("path", ctx.Request().URL.Path), slog.Any("error", err))
	}

	return ctx.JSON(status, Error{Code: status, Message: err.Error()})
}

func addressToDomain(payload AddressPayload) (kernel.Address, error) {
	return kernel.NewAddress(
		payload.Name,
		payload.Street1, payload.Street2,
		payload.City, payload.State, payload.PostalCode, payload.Country,
		payload.Phone, payload.Email,
	)
}
