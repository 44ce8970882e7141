package commands_test

import (
	"testing"

	"storefront/internal/core/application/usecases/commands"
	"storefront/internal/core/domain/model/kernel"
	"storefront/internal/core/domain/model/order"
	"storefront/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProcessRefundCommand_ValidInput(t *testing.T) {
	id := kernel.NewUUID()
	itemID := kernel.NewUUID()
	cmd, err := commands.NewProcessRefundCommand(
		id, 1500, "damaged item",
		[]order.RefundItemRequest{{OrderItemID: itemID, Quantity: 1}},
		"admin-1")
	require.NoError(t, err)
	assert.Equal(t, id, cmd.OrderID())
	assert.Equal(t, int64(1500), cmd.AmountCents())
	assert.Equal(t, "damaged item", cmd.Reason())
	require.Len(t, cmd.Items(), 1)
}

func TestNewProcessRefundCommand_OrderLevelRefund(t *testing.T) {
	cmd, err := commands.NewProcessRefundCommand(kernel.NewUUID(), 1500, "", nil, "admin-1")
	require.NoError(t, err)
	assert.Empty(t, cmd.Items())
	assert.Empty(t, cmd.Reason())
}

func TestNewProcessRefundCommand_NonPositiveAmount(t *testing.T) {
	_, err := commands.NewProcessRefundCommand(kernel.NewUUID(), 0, "", nil, "admin-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

func TestNewProcessRefundCommand_NonPositiveItemQuantity(t *testing.T) {
	_, err := commands.NewProcessRefundCommand(
		kernel.NewUUID(), 1500, "",
		[]order.RefundItemRequest{{OrderItemID: kernel.NewUUID(), Quantity: -1}},
		"admin-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

func TestNewProcessRefundCommand_EmptyActor(t *testing.T) {
	_, err := commands.NewProcessRefundCommand(kernel.NewUUID(), 1500, "", nil, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrValueIsRequired)
}
