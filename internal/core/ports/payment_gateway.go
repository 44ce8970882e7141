package ports

import (
	"context"
	"time"

	"storefront/internal/core/domain/model/order"
)

// AuthorizeRequest reserves funds on a payment method without transferring them.
type AuthorizeRequest struct {
	AmountCents     int64
	Currency        string
	PaymentMethodID string
	CustomerID      string
	Metadata        map[string]string
}

// CaptureRequest transfers previously authorized funds.
// A nil AmountCents captures the full authorized amount.
type CaptureRequest struct {
	PaymentIntentID string
	AmountCents     *int64
}

// RefundRequest returns previously captured funds, fully or partially.
type RefundRequest struct {
	ChargeID    string
	AmountCents int64
	Reason      string
	Metadata    map[string]string
}

// VoidRequest cancels an authorization before capture, releasing the hold.
type VoidRequest struct {
	PaymentIntentID string
	Reason          string
}

// PaymentIntent is the provider's view of a payment, with the provider's
// native status already mapped onto the internal PaymentStatus enum.
type PaymentIntent struct {
	ID           string
	AmountCents  int64
	Currency     string
	Status       order.PaymentStatus
	ClientSecret string
}

// RefundResult is the provider's view of a refund.
type RefundResult struct {
	ID          string
	AmountCents int64
	Status      order.RefundStatus
	Reason      string
}

// WebhookEvent is a verified provider callback.
type WebhookEvent struct {
	ID      string
	Type    string
	Data    map[string]any
	Created time.Time
}

// PaymentGateway is the capability surface of an external payment processor.
// Implementations are stateless aside from credentials and safe for concurrent
// use. They map provider statuses through a fixed table, wrap provider errors
// preserving the original message, and never retry; retry policy belongs to
// the caller, which must also bound each call with a context deadline.
type PaymentGateway interface {
	Authorize(ctx context.Context, req AuthorizeRequest) (PaymentIntent, error)
	Capture(ctx context.Context, req CaptureRequest) (PaymentIntent, error)
	Refund(ctx context.Context, req RefundRequest) (RefundResult, error)
	Void(ctx context.Context, req VoidRequest) (PaymentIntent, error)
	GetPayment(ctx context.Context, paymentIntentID string) (PaymentIntent, error)
	VerifyWebhook(payload []byte, signature string) (WebhookEvent, error)
}
