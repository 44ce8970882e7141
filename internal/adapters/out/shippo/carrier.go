// Package shippo implements the shipping carrier port against the Shippo
// REST API. Shippo is a rate aggregator: one shipment request is quoted
// across carriers, and a label purchase buys one specific quoted rate.
package shippo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"storefront/internal/core/domain/model/kernel"
	"storefront/internal/core/domain/model/order"
	"storefront/internal/core/ports"
	"storefront/internal/pkg/errs"
)

const (
	providerName   = "shippo"
	defaultBaseURL = "https://api.goshippo.com"
)

// Carrier is a Shippo-backed ShippingCarrier. Safe for concurrent use.
type Carrier struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option customizes a Carrier. Used by tests to point at a stub server.
type Option func(*Carrier)

// WithBaseURL overrides the Shippo API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Carrier) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Carrier) { c.httpClient = client }
}

// NewCarrier creates a Shippo carrier adapter.
func NewCarrier(apiToken string, logger *slog.Logger, opts ...Option) (*Carrier, error) {
	if apiToken == "" {
		return nil, errs.NewValueIsRequiredError("apiToken")
	}
	if logger == nil {
		return nil, errs.NewValueIsRequiredError("logger")
	}

	c := &Carrier{
		baseURL:    defaultBaseURL,
		apiToken:   apiToken,
		httpClient: &http.Client{Timeout: 20 * time.Second},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type addressPayload struct {
	Name    string `json:"name"`
	Street1 string `json:"street1"`
	Street2 string `json:"street2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`

	ValidationResults *struct {
		IsValid bool `json:"is_valid"`
		Messages []struct {
			Text string `json:"text"`
		} `json:"messages"`
	} `json:"validation_results,omitempty"`
}

type parcelPayload struct {
	Length       string `json:"length"`
	Width        string `json:"width"`
	Height       string `json:"height"`
	DistanceUnit string `json:"distance_unit"`
	Weight       string `json:"weight"`
	MassUnit     string `json:"mass_unit"`
}

type ratePayload struct {
	ObjectID      string `json:"object_id"`
	Provider      string `json:"provider"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	EstimatedDays int    `json:"estimated_days"`
	Servicelevel  struct {
		Token string `json:"token"`
	} `json:"servicelevel"`
}

type shipmentPayload struct {
	ObjectID string        `json:"object_id"`
	Status   string        `json:"status"`
	Rates    []ratePayload `json:"rates"`
	Messages []struct {
		Text string `json:"text"`
	} `json:"messages"`
}

type transactionPayload struct {
	ObjectID       string `json:"object_id"`
	Status         string `json:"status"`
	TrackingNumber string `json:"tracking_number"`
	LabelURL       string `json:"label_url"`
	ETA            string `json:"eta"`
	Messages       []struct {
		Text string `json:"text"`
	} `json:"messages"`
}

type trackPayload struct {
	TrackingNumber string `json:"tracking_number"`
	ETA            string `json:"eta"`
	TrackingHistory []struct {
		Status        string `json:"status"`
		StatusDetails string `json:"status_details"`
		StatusDate    string `json:"status_date"`
		Location      *struct {
			City    string `json:"city"`
			State   string `json:"state"`
			Country string `json:"country"`
		} `json:"location"`
	} `json:"tracking_history"`
}

// QuoteRates creates a rate-quote shipment and returns every quoted
// carrier/service option.
func (c *Carrier) QuoteRates(ctx context.Context, req ports.ShipmentRequest) ([]ports.ShippingRate, error) {
	shipment, err := c.createShipment(ctx, "quote_rates", req)
	if err != nil {
		return nil, err
	}

	rates := make([]ports.ShippingRate, 0, len(shipment.Rates))
	for _, rate := range shipment.Rates {
		cents, centsErr := amountToCents(rate.Amount)
		if centsErr != nil {
			return nil, errs.NewProviderError(providerName, "quote_rates", centsErr)
		}
		rates = append(rates, ports.ShippingRate{
			Carrier:       rate.Provider,
			Service:       rate.Servicelevel.Token,
			CostCents:     cents,
			EstimatedDays: rate.EstimatedDays,
			Currency:      rate.Currency,
		})
	}
	return rates, nil
}

// BuyLabel quotes the shipment, matches the requested carrier/service pair
// among the returned rates and purchases exactly that rate. A pair absent
// from the quote fails the call before any purchase attempt.
func (c *Carrier) BuyLabel(ctx context.Context, req ports.ShipmentRequest) (ports.ShippingLabel, error) {
	const operation = "buy_label"

	if req.Carrier == "" {
		return ports.ShippingLabel{}, errs.NewValueIsRequiredError("carrier")
	}
	if req.Service == "" {
		return ports.ShippingLabel{}, errs.NewValueIsRequiredError("service")
	}

	shipment, err := c.createShipment(ctx, operation, req)
	if err != nil {
		return ports.ShippingLabel{}, err
	}

	var matched *ratePayload
	for i := range shipment.Rates {
		rate := &shipment.Rates[i]
		if strings.EqualFold(rate.Provider, req.Carrier) &&
			strings.EqualFold(rate.Servicelevel.Token, req.Service) {
			matched = rate
			break
		}
	}
	if matched == nil {
		return ports.ShippingLabel{}, errs.NewProviderError(providerName, operation,
			fmt.Errorf("no rate for %s %s", req.Carrier, req.Service))
	}

	cost, err := amountToCents(matched.Amount)
	if err != nil {
		return ports.ShippingLabel{}, errs.NewProviderError(providerName, operation, err)
	}

	var transaction transactionPayload
	err = c.post(ctx, operation, "/transactions", map[string]any{
		"rate":            matched.ObjectID,
		"label_file_type": "PDF",
		"async":           false,
	}, &transaction)
	if err != nil {
		return ports.ShippingLabel{}, err
	}

	if !strings.EqualFold(transaction.Status, "SUCCESS") {
		cause := errors.New("transaction status " + transaction.Status)
		if len(transaction.Messages) > 0 {
			cause = errors.New(transaction.Messages[0].Text)
		}
		return ports.ShippingLabel{}, errs.NewProviderError(providerName, operation, cause)
	}

	return ports.ShippingLabel{
		LabelID:           transaction.ObjectID,
		TrackingNumber:    transaction.TrackingNumber,
		LabelURL:          transaction.LabelURL,
		CostCents:         cost,
		EstimatedDelivery: parseTimestamp(transaction.ETA),
	}, nil
}

// VoidLabel requests a refund for an unused label. Shippo processes refunds
// asynchronously; QUEUED and PENDING both count as accepted.
func (c *Carrier) VoidLabel(ctx context.Context, labelID string) (bool, error) {
	if labelID == "" {
		return false, errs.NewValueIsRequiredError("labelID")
	}

	var refund struct {
		Status string `json:"status"`
	}
	err := c.post(ctx, "void_label", "/refunds", map[string]any{
		"transaction": labelID,
		"async":       false,
	}, &refund)
	if err != nil {
		return false, err
	}

	switch strings.ToUpper(refund.Status) {
	case "SUCCESS", "QUEUED", "PENDING":
		return true, nil
	default:
		return false, nil
	}
}

// Track fetches the carrier tracking history for a tracking number, mapped
// onto the internal shipment statuses and ordered as the carrier returns it.
func (c *Carrier) Track(ctx context.Context, trackingNumber, carrier string) ([]ports.TrackingInfo, error) {
	const operation = "track"

	if trackingNumber == "" {
		return nil, errs.NewValueIsRequiredError("trackingNumber")
	}
	if carrier == "" {
		return nil, errs.NewValueIsRequiredError("carrier")
	}

	path := "/tracks/" + url.PathEscape(carrier) + "/" + url.PathEscape(trackingNumber)
	var track trackPayload
	if err := c.get(ctx, operation, path, &track); err != nil {
		return nil, err
	}

	eta := parseTimestamp(track.ETA)
	infos := make([]ports.TrackingInfo, 0, len(track.TrackingHistory))
	for _, event := range track.TrackingHistory {
		timestamp := parseTimestamp(event.StatusDate)
		if timestamp == nil {
			return nil, errs.NewProviderError(providerName, operation,
				errors.New("tracking event without status_date"))
		}

		location := ""
		if event.Location != nil {
			location = strings.TrimSuffix(
				strings.Join([]string{event.Location.City, event.Location.State}, ", "), ", ")
		}

		infos = append(infos, ports.TrackingInfo{
			Status:            shipmentStatusFromProvider(event.Status),
			Description:       event.StatusDetails,
			Location:          location,
			Timestamp:         *timestamp,
			EstimatedDelivery: eta,
		})
	}
	return infos, nil
}

// ValidateAddress submits the address for carrier-side validation and
// returns the normalized form.
func (c *Carrier) ValidateAddress(ctx context.Context, address kernel.Address) (kernel.Address, error) {
	const operation = "validate_address"

	body := addressFromDomain(address)
	var validated addressPayload
	err := c.post(ctx, operation, "/addresses?validate=true", body, &validated)
	if err != nil {
		return kernel.Address{}, err
	}

	if validated.ValidationResults != nil && !validated.ValidationResults.IsValid {
		cause := errors.New("address is not deliverable")
		if len(validated.ValidationResults.Messages) > 0 {
			cause = errors.New(validated.ValidationResults.Messages[0].Text)
		}
		return kernel.Address{}, errs.NewValueIsInvalidErrorWithCause("address", cause)
	}

	return kernel.NewAddress(
		validated.Name,
		validated.Street1, validated.Street2,
		validated.City, validated.State, validated.Zip, validated.Country,
		validated.Phone, validated.Email,
	)
}

func (c *Carrier) createShipment(ctx context.Context, operation string, req ports.ShipmentRequest) (shipmentPayload, error) {
	if len(req.Items) == 0 {
		return shipmentPayload{}, errs.NewValueIsRequiredError("items")
	}

	totalGrams := 0
	for _, item := range req.Items {
		totalGrams += item.WeightGrams * item.Quantity
	}

	extra := map[string]any{}
	if req.Insurance {
		valueCents := int64(0)
		for _, item := range req.Items {
			valueCents += item.ValueCents * int64(item.Quantity)
		}
		extra["insurance"] = map[string]any{
			"amount":   centsToAmount(valueCents),
			"currency": "USD",
		}
	}
	if req.Signature {
		extra["signature_confirmation"] = "STANDARD"
	}

	body := map[string]any{
		"address_from": addressFromDomain(req.FromAddress),
		"address_to":   addressFromDomain(req.ToAddress),
		"parcels": []parcelPayload{{
			Length:       "30",
			Width:        "20",
			Height:       "10",
			DistanceUnit: "cm",
			Weight:       strconv.Itoa(totalGrams),
			MassUnit:     "g",
		}},
		"extra": extra,
		"async": false,
	}

	var shipment shipmentPayload
	if err := c.post(ctx, operation, "/shipments", body, &shipment); err != nil {
		return shipmentPayload{}, err
	}

	if strings.EqualFold(shipment.Status, "ERROR") {
		cause := errors.New("shipment status ERROR")
		if len(shipment.Messages) > 0 {
			cause = errors.New(shipment.Messages[0].Text)
		}
		return shipmentPayload{}, errs.NewProviderError(providerName, operation, cause)
	}
	return shipment, nil
}

func (c *Carrier) post(ctx context.Context, operation, path string, body any, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return errs.NewProviderError(providerName, operation, err)
	}
	return c.do(ctx, operation, http.MethodPost, path, bytes.NewReader(encoded), out)
}

func (c *Carrier) get(ctx context.Context, operation, path string, out any) error {
	return c.do(ctx, operation, http.MethodGet, path, nil, out)
}

func (c *Carrier) do(ctx context.Context, operation, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errs.NewProviderError(providerName, operation, err)
	}
	req.Header.Set("Authorization", "ShippoToken "+c.apiToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("shippo request failed",
			slog.String("operation", operation), slog.Any("error", err))
		return errs.NewProviderError(providerName, operation, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.NewProviderError(providerName, operation, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		c.logger.Warn("shippo rejected request",
			slog.String("operation", operation),
			slog.Int("status", resp.StatusCode))
		return errs.NewProviderError(providerName, operation,
			fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))))
	}

	if err = json.Unmarshal(raw, out); err != nil {
		return errs.NewProviderError(providerName, operation, err)
	}
	return nil
}

func addressFromDomain(a kernel.Address) addressPayload {
	return addressPayload{
		Name:    a.Name(),
		Street1: a.Street1(),
		Street2: a.Street2(),
		City:    a.City(),
		State:   a.State(),
		Zip:     a.PostalCode(),
		Country: a.Country(),
		Phone:   a.Phone(),
		Email:   a.Email(),
	}
}

// amountToCents parses Shippo's decimal string amounts ("7.99") into cents.
func amountToCents(amount string) (int64, error) {
	whole, frac, _ := strings.Cut(amount, ".")
	if whole == "" {
		whole = "0"
	}
	dollars, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q: %w", amount, err)
	}

	cents := int64(0)
	if frac != "" {
		if len(frac) > 2 {
			frac = frac[:2]
		}
		for len(frac) < 2 {
			frac += "0"
		}
		cents, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("amount %q: %w", amount, err)
		}
	}
	return dollars*100 + cents, nil
}

func centsToAmount(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

func parseTimestamp(value string) *time.Time {
	if value == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil
	}
	utc := parsed.UTC()
	return &utc
}

// shipmentStatusFromProvider maps Shippo tracking statuses onto the internal
// enum. Unrecognized statuses map to InTransit, the safest default for a
// package already in the carrier network.
func shipmentStatusFromProvider(status string) order.ShipmentStatus {
	switch strings.ToUpper(status) {
	case "PRE_TRANSIT":
		return order.LabelCreated
	case "TRANSIT":
		return order.InTransit
	case "OUT_FOR_DELIVERY":
		return order.OutForDelivery
	case "DELIVERED":
		return order.ShipmentDelivered
	case "FAILURE", "RETURNED":
		return order.ShipmentException
	default:
		return order.InTransit
	}
}
