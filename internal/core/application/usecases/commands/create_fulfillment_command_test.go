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

func TestNewCreateFulfillmentCommand_ValidInput(t *testing.T) {
	id := kernel.NewUUID()
	itemID := kernel.NewUUID()
	cmd, err := commands.NewCreateFulfillmentCommand(
		id,
		[]order.FulfillmentRequest{{OrderItemID: itemID, Quantity: 2}},
		"usps", "Priority",
		commands.FulfillmentOptions{Insurance: true},
		"admin-1")
	require.NoError(t, err)
	assert.Equal(t, id, cmd.OrderID())
	assert.Equal(t, "usps", cmd.Carrier())
	assert.Equal(t, "Priority", cmd.Service())
	assert.True(t, cmd.Options().Insurance)
	require.Len(t, cmd.Items(), 1)
	assert.Equal(t, 2, cmd.Items()[0].Quantity)
}

func TestNewCreateFulfillmentCommand_NoItems(t *testing.T) {
	_, err := commands.NewCreateFulfillmentCommand(
		kernel.NewUUID(), nil, "usps", "Priority", commands.FulfillmentOptions{}, "admin-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrValueIsRequired)
}

func TestNewCreateFulfillmentCommand_NonPositiveQuantity(t *testing.T) {
	_, err := commands.NewCreateFulfillmentCommand(
		kernel.NewUUID(),
		[]order.FulfillmentRequest{{OrderItemID: kernel.NewUUID(), Quantity: 0}},
		"usps", "Priority", commands.FulfillmentOptions{}, "admin-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

func TestNewCreateFulfillmentCommand_MissingCarrierOrService(t *testing.T) {
	items := []order.FulfillmentRequest{{OrderItemID: kernel.NewUUID(), Quantity: 1}}

	_, err := commands.NewCreateFulfillmentCommand(
		kernel.NewUUID(), items, "", "Priority", commands.FulfillmentOptions{}, "admin-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrValueIsRequired)

	_, err = commands.NewCreateFulfillmentCommand(
		kernel.NewUUID(), items, "usps", "", commands.FulfillmentOptions{}, "admin-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrValueIsRequired)
}

func TestCreateFulfillmentCommand_ItemsAreCopied(t *testing.T) {
	items := []order.FulfillmentRequest{{OrderItemID: kernel.NewUUID(), Quantity: 1}}
	cmd, err := commands.NewCreateFulfillmentCommand(
		kernel.NewUUID(), items, "usps", "Priority", commands.FulfillmentOptions{}, "admin-1")
	require.NoError(t, err)

	items[0].Quantity = 99
	assert.Equal(t, 1, cmd.Items()[0].Quantity)
}
