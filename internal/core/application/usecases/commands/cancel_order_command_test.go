package commands_test

import (
	"testing"

	"storefront/internal/core/application/usecases/commands"
	"storefront/internal/core/domain/model/kernel"
	"storefront/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCancelOrderCommand_ValidInput(t *testing.T) {
	id := kernel.NewUUID()
	cmd, err := commands.NewCancelOrderCommand(id, "customer request", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, id, cmd.OrderID())
	assert.Equal(t, "customer request", cmd.Reason())
	assert.Equal(t, "admin-1", cmd.Actor())
}

func TestNewCancelOrderCommand_InvalidOrderID(t *testing.T) {
	_, err := commands.NewCancelOrderCommand(kernel.UUID{}, "customer request", "admin-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, kernel.ErrUUIDIsNotConstructed)
}

func TestNewCancelOrderCommand_EmptyReason(t *testing.T) {
	_, err := commands.NewCancelOrderCommand(kernel.NewUUID(), "", "admin-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrValueIsRequired)
}

func TestNewCancelOrderCommand_EmptyActor(t *testing.T) {
	_, err := commands.NewCancelOrderCommand(kernel.NewUUID(), "customer request", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrValueIsRequired)
}

func TestCancelOrderCommand_ZeroValueFailsValidation(t *testing.T) {
	var cmd commands.CancelOrderCommand
	assert.ErrorIs(t, cmd.Validate(), commands.ErrCancelOrderCommandIsNotConstructed)
}
