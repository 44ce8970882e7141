package order_test

import (
	"testing"
	"time"

	"storefront/internal/core/domain/model/kernel"
	"storefront/internal/core/domain/model/order"
	"storefront/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPayment(t *testing.T) {
	t.Run("should create authorized payment with nothing captured", func(t *testing.T) {
		p, err := order.NewPayment(kernel.NewUUID(), mustMoney(t, 5000), "stripe", "pi_abc")

		require.NoError(t, err)
		assert.Equal(t, order.PaymentAuthorized, p.Status())
		assert.Equal(t, int64(5000), p.Amount().Cents())
		assert.True(t, p.Captured().IsZero())
		assert.True(t, p.Refunded().IsZero())
		assert.Nil(t, p.CapturedAt())
	})

	t.Run("should require provider and charge ID", func(t *testing.T) {
		p, err := order.NewPayment(kernel.NewUUID(), mustMoney(t, 5000), "", "")

		require.Error(t, err)
		assert.Nil(t, p)
		assert.Contains(t, err.Error(), "provider")
		assert.Contains(t, err.Error(), "providerChargeID")
	})

	t.Run("should fail validation for zero value payment", func(t *testing.T) {
		var p order.Payment
		assert.ErrorIs(t, p.Validate(), order.ErrPaymentIsNotConstructed)
	})
}

func TestPayment_Capture(t *testing.T) {
	t.Run("should capture partial amount", func(t *testing.T) {
		p := mustPayment(t, 5000)
		capturedAt := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

		err := p.Capture(mustMoney(t, 3000), capturedAt)

		require.NoError(t, err)
		assert.Equal(t, order.PaymentCaptured, p.Status())
		assert.Equal(t, int64(3000), p.Captured().Cents())
		require.NotNil(t, p.CapturedAt())
		assert.Equal(t, capturedAt, *p.CapturedAt())
	})

	t.Run("should reject capture above authorized amount", func(t *testing.T) {
		p := mustPayment(t, 5000)

		err := p.Capture(mustMoney(t, 5001), time.Now())

		require.Error(t, err)
		assert.ErrorIs(t, err, errs.ErrStateConflict)
		assert.Equal(t, order.PaymentAuthorized, p.Status())
	})

	t.Run("should reject double capture", func(t *testing.T) {
		p := mustPayment(t, 5000)
		require.NoError(t, p.Capture(mustMoney(t, 5000), time.Now()))

		err := p.Capture(mustMoney(t, 5000), time.Now())

		assert.ErrorIs(t, err, errs.ErrStateConflict)
	})
}

func TestPayment_Refunds(t *testing.T) {
	captured := func(t *testing.T) *order.Payment {
		p := mustPayment(t, 5000)
		require.NoError(t, p.Capture(mustMoney(t, 5000), time.Now()))
		return p
	}

	t.Run("should track remaining balance across refunds", func(t *testing.T) {
		p := captured(t)

		require.NoError(t, p.ApplyRefund(mustMoney(t, 2000)))
		assert.Equal(t, order.PaymentPartiallyRefunded, p.Status())

		available, err := p.AvailableToRefund()
		require.NoError(t, err)
		assert.Equal(t, int64(3000), available.Cents())

		require.NoError(t, p.ApplyRefund(mustMoney(t, 3000)))
		assert.Equal(t, order.PaymentRefunded, p.Status())
	})

	t.Run("should reject refund exceeding remaining balance", func(t *testing.T) {
		p := captured(t)
		require.NoError(t, p.ApplyRefund(mustMoney(t, 4000)))

		err := p.ApplyRefund(mustMoney(t, 2000))

		require.Error(t, err)
		assert.ErrorIs(t, err, errs.ErrStateConflict)
		assert.Equal(t, int64(4000), p.Refunded().Cents())
	})

	t.Run("should reject zero refund", func(t *testing.T) {
		p := captured(t)

		err := p.ValidateRefund(mustMoney(t, 0))

		assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("should reject refund before capture", func(t *testing.T) {
		p := mustPayment(t, 5000)

		err := p.ValidateRefund(mustMoney(t, 100))

		assert.ErrorIs(t, err, errs.ErrStateConflict)
	})
}

func TestRestorePayment(t *testing.T) {
	t.Run("should restore capture and refund balances", func(t *testing.T) {
		capturedAt := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

		p, err := order.RestorePayment(
			kernel.NewUUID(), mustMoney(t, 5000), mustMoney(t, 5000), mustMoney(t, 2000),
			"stripe", "pi_abc", order.PaymentPartiallyRefunded, &capturedAt)

		require.NoError(t, err)
		assert.Equal(t, order.PaymentPartiallyRefunded, p.Status())
		assert.Equal(t, int64(2000), p.Refunded().Cents())
	})

	t.Run("should reject refunded above captured", func(t *testing.T) {
		p, err := order.RestorePayment(
			kernel.NewUUID(), mustMoney(t, 5000), mustMoney(t, 1000), mustMoney(t, 2000),
			"stripe", "pi_abc", order.PaymentPartiallyRefunded, nil)

		require.Error(t, err)
		assert.Nil(t, p)
		assert.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
	})
}
