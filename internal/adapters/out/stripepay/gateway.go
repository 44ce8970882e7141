// Package stripepay implements the payment gateway port against the Stripe
// REST API. Requests are form-encoded per Stripe's convention; provider
// statuses map onto the internal enums through fixed tables and every
// provider failure comes back as an errs.ProviderError preserving the
// original message.
package stripepay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
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

	"storefront/internal/core/domain/model/order"
	"storefront/internal/core/ports"
	"storefront/internal/pkg/errs"
)

const (
	providerName   = "stripe"
	defaultBaseURL = "https://api.stripe.com"

	// signatureTolerance bounds webhook replay: events whose signed
	// timestamp is older than this are rejected.
	signatureTolerance = 5 * time.Minute
)

// Gateway is a Stripe-backed PaymentGateway. Safe for concurrent use.
type Gateway struct {
	baseURL       string
	apiKey        string
	webhookSecret string
	httpClient    *http.Client
	logger        *slog.Logger
	now           func() time.Time
}

// Option customizes a Gateway. Used by tests to point at a stub server and
// freeze time.
type Option func(*Gateway)

// WithBaseURL overrides the Stripe API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(g *Gateway) { g.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(g *Gateway) { g.httpClient = client }
}

// WithClock overrides the time source used for webhook tolerance checks.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

// NewGateway creates a Stripe gateway. apiKey authenticates API calls,
// webhookSecret verifies inbound webhook signatures.
func NewGateway(apiKey, webhookSecret string, logger *slog.Logger, opts ...Option) (*Gateway, error) {
	if apiKey == "" {
		return nil, errs.NewValueIsRequiredError("apiKey")
	}
	if logger == nil {
		return nil, errs.NewValueIsRequiredError("logger")
	}

	g := &Gateway{
		baseURL:       defaultBaseURL,
		apiKey:        apiKey,
		webhookSecret: webhookSecret,
		httpClient:    &http.Client{Timeout: 15 * time.Second},
		logger:        logger,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// paymentIntentPayload is the subset of Stripe's payment intent object the
// gateway consumes.
type paymentIntentPayload struct {
	ID           string `json:"id"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
	ClientSecret string `json:"client_secret"`
}

type refundPayload struct {
	ID     string `json:"id"`
	Amount int64  `json:"amount"`
	Status string `json:"status"`
	Reason string `json:"reason"`
}

type errorPayload struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Authorize creates a manual-capture payment intent and confirms it, placing
// a hold on the customer's payment method.
func (g *Gateway) Authorize(ctx context.Context, req ports.AuthorizeRequest) (ports.PaymentIntent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(req.AmountCents, 10))
	form.Set("currency", strings.ToLower(req.Currency))
	form.Set("capture_method", "manual")
	form.Set("confirm", "true")
	if req.PaymentMethodID != "" {
		form.Set("payment_method", req.PaymentMethodID)
	}
	if req.CustomerID != "" {
		form.Set("customer", req.CustomerID)
	}
	for k, v := range req.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	var payload paymentIntentPayload
	if err := g.post(ctx, "authorize", "/v1/payment_intents", form, &payload); err != nil {
		return ports.PaymentIntent{}, err
	}
	return g.toIntent(payload), nil
}

// Capture transfers previously authorized funds. A nil amount captures the
// full authorization.
func (g *Gateway) Capture(ctx context.Context, req ports.CaptureRequest) (ports.PaymentIntent, error) {
	form := url.Values{}
	if req.AmountCents != nil {
		form.Set("amount_to_capture", strconv.FormatInt(*req.AmountCents, 10))
	}

	path := "/v1/payment_intents/" + url.PathEscape(req.PaymentIntentID) + "/capture"
	var payload paymentIntentPayload
	if err := g.post(ctx, "capture", path, form, &payload); err != nil {
		return ports.PaymentIntent{}, err
	}
	return g.toIntent(payload), nil
}

// Refund returns captured funds against the original charge.
func (g *Gateway) Refund(ctx context.Context, req ports.RefundRequest) (ports.RefundResult, error) {
	form := url.Values{}
	form.Set("payment_intent", req.ChargeID)
	form.Set("amount", strconv.FormatInt(req.AmountCents, 10))
	if req.Reason != "" {
		form.Set("metadata[reason]", req.Reason)
	}
	for k, v := range req.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	var payload refundPayload
	if err := g.post(ctx, "refund", "/v1/refunds", form, &payload); err != nil {
		return ports.RefundResult{}, err
	}

	return ports.RefundResult{
		ID:          payload.ID,
		AmountCents: payload.Amount,
		Status:      refundStatusFromProvider(payload.Status),
		Reason:      req.Reason,
	}, nil
}

// Void cancels an authorization before capture.
func (g *Gateway) Void(ctx context.Context, req ports.VoidRequest) (ports.PaymentIntent, error) {
	form := url.Values{}
	if req.Reason != "" {
		form.Set("cancellation_reason", req.Reason)
	}

	path := "/v1/payment_intents/" + url.PathEscape(req.PaymentIntentID) + "/cancel"
	var payload paymentIntentPayload
	if err := g.post(ctx, "void", path, form, &payload); err != nil {
		return ports.PaymentIntent{}, err
	}
	return g.toIntent(payload), nil
}

// GetPayment fetches the current provider state of a payment intent.
func (g *Gateway) GetPayment(ctx context.Context, paymentIntentID string) (ports.PaymentIntent, error) {
	path := "/v1/payment_intents/" + url.PathEscape(paymentIntentID)
	var payload paymentIntentPayload
	if err := g.do(ctx, "get_payment", http.MethodGet, path, nil, &payload); err != nil {
		return ports.PaymentIntent{}, err
	}
	return g.toIntent(payload), nil
}

// VerifyWebhook checks the Stripe-Signature header against the webhook
// secret and, on success, returns the parsed event. The header format is
// "t=<unix>,v1=<hmac>"; the signed payload is "<unix>.<body>".
func (g *Gateway) VerifyWebhook(payload []byte, signature string) (ports.WebhookEvent, error) {
	timestamp, candidates, err := parseSignatureHeader(signature)
	if err != nil {
		return ports.WebhookEvent{}, err
	}

	if g.now().Sub(time.Unix(timestamp, 0)) > signatureTolerance {
		return ports.WebhookEvent{}, errs.NewValueIsInvalidErrorWithCause(
			"signature", errors.New("timestamp outside tolerance"))
	}

	mac := hmac.New(sha256.New, []byte(g.webhookSecret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	verified := false
	for _, candidate := range candidates {
		if hmac.Equal([]byte(expected), []byte(candidate)) {
			verified = true
			break
		}
	}
	if !verified {
		return ports.WebhookEvent{}, errs.NewValueIsInvalidErrorWithCause(
			"signature", errors.New("no matching v1 signature"))
	}

	var event struct {
		ID      string         `json:"id"`
		Type    string         `json:"type"`
		Created int64          `json:"created"`
		Data    map[string]any `json:"data"`
	}
	if err = json.Unmarshal(payload, &event); err != nil {
		return ports.WebhookEvent{}, errs.NewValueIsInvalidErrorWithCause("payload", err)
	}

	return ports.WebhookEvent{
		ID:      event.ID,
		Type:    event.Type,
		Data:    event.Data,
		Created: time.Unix(event.Created, 0).UTC(),
	}, nil
}

func parseSignatureHeader(signature string) (int64, []string, error) {
	if signature == "" {
		return 0, nil, errs.NewValueIsRequiredError("signature")
	}

	var timestamp int64
	var candidates []string
	for _, part := range strings.Split(signature, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, nil, errs.NewValueIsInvalidErrorWithCause("signature", err)
			}
			timestamp = ts
		case "v1":
			candidates = append(candidates, value)
		}
	}

	if timestamp == 0 || len(candidates) == 0 {
		return 0, nil, errs.NewValueIsInvalidErrorWithCause(
			"signature", errors.New("missing t or v1 component"))
	}
	return timestamp, candidates, nil
}

func (g *Gateway) post(ctx context.Context, operation, path string, form url.Values, out any) error {
	return g.do(ctx, operation, http.MethodPost, path, form, out)
}

func (g *Gateway) do(ctx context.Context, operation, method, path string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return errs.NewProviderError(providerName, operation, err)
	}
	req.SetBasicAuth(g.apiKey, "")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.logger.Error("stripe request failed",
			slog.String("operation", operation), slog.Any("error", err))
		return errs.NewProviderError(providerName, operation, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.NewProviderError(providerName, operation, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var stripeErr errorPayload
		cause := fmt.Errorf("http %d", resp.StatusCode)
		if json.Unmarshal(raw, &stripeErr) == nil && stripeErr.Error.Message != "" {
			cause = fmt.Errorf("http %d: %s", resp.StatusCode, stripeErr.Error.Message)
		}
		g.logger.Warn("stripe rejected request",
			slog.String("operation", operation),
			slog.Int("status", resp.StatusCode))
		return errs.NewProviderError(providerName, operation, cause)
	}

	if err = json.Unmarshal(raw, out); err != nil {
		return errs.NewProviderError(providerName, operation, err)
	}
	return nil
}

func (g *Gateway) toIntent(payload paymentIntentPayload) ports.PaymentIntent {
	return ports.PaymentIntent{
		ID:           payload.ID,
		AmountCents:  payload.Amount,
		Currency:     strings.ToUpper(payload.Currency),
		Status:       paymentStatusFromProvider(payload.Status),
		ClientSecret: payload.ClientSecret,
	}
}

// paymentStatusFromProvider maps Stripe payment intent statuses onto the
// internal enum. Anything unrecognized maps to PaymentFailed so a new
// provider status can never be mistaken for money movement.
func paymentStatusFromProvider(status string) order.PaymentStatus {
	switch status {
	case "requires_payment_method", "requires_confirmation", "requires_action", "processing":
		return order.PaymentPending
	case "requires_capture":
		return order.PaymentAuthorized
	case "succeeded":
		return order.PaymentCaptured
	case "canceled":
		return order.PaymentVoided
	default:
		return order.PaymentFailed
	}
}

func refundStatusFromProvider(status string) order.RefundStatus {
	switch status {
	case "pending", "requires_action":
		return order.RefundProcessing
	case "succeeded":
		return order.RefundSucceeded
	default:
		return order.RefundFailed
	}
}
