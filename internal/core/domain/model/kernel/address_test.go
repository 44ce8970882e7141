package kernel_test

import (
	"testing"

	"storefront/internal/core/domain/model/kernel"
	"storefront/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validAddress(t *testing.T) kernel.Address {
	t.Helper()
	addr, err := kernel.NewAddress(
		"Jane Doe", "1 Market St", "Suite 400", "San Francisco", "CA",
		"94105", "US", "+14155550100", "jane@example.com",
	)
	require.NoError(t, err)
	return addr
}

func TestNewAddress(t *testing.T) {
	t.Run("creates_valid_address", func(t *testing.T) {
		addr := validAddress(t)

		require.NoError(t, addr.Validate())
		assert.Equal(t, "Jane Doe", addr.Name())
		assert.Equal(t, "1 Market St", addr.Street1())
		assert.Equal(t, "Suite 400", addr.Street2())
		assert.Equal(t, "San Francisco", addr.City())
		assert.Equal(t, "CA", addr.State())
		assert.Equal(t, "94105", addr.PostalCode())
		assert.Equal(t, "US", addr.Country())
	})

	t.Run("optional_fields_may_be_empty", func(t *testing.T) {
		addr, err := kernel.NewAddress("Jane Doe", "1 Market St", "", "Berlin", "", "10115", "DE", "", "")

		require.NoError(t, err)
		assert.Empty(t, addr.Street2())
		assert.Empty(t, addr.State())
	})

	t.Run("missing_required_fields_are_joined", func(t *testing.T) {
		_, err := kernel.NewAddress("", "", "", "", "", "", "", "", "")

		require.Error(t, err)
		require.ErrorIs(t, err, errs.ErrValueIsRequired)
		assert.Contains(t, err.Error(), "street1")
		assert.Contains(t, err.Error(), "city")
		assert.Contains(t, err.Error(), "postalCode")
		assert.Contains(t, err.Error(), "country")
	})
}

func TestAddress_IsEqual(t *testing.T) {
	a := validAddress(t)
	b := validAddress(t)
	c, err := kernel.NewAddress("Jane Doe", "2 Mission St", "", "San Francisco", "CA", "94105", "US", "", "")
	require.NoError(t, err)

	assert.True(t, a.IsEqual(b))
	assert.False(t, a.IsEqual(c))
}

func TestAddress_Validate(t *testing.T) {
	t.Run("zero_value_fails_validation", func(t *testing.T) {
		var addr kernel.Address

		require.Error(t, addr.Validate())
	})
}
