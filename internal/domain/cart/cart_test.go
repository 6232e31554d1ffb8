package cart

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/printshop/personalizer/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCart_AddLine(t *testing.T) {
	c, err := New("sess-1")
	require.NoError(t, err)

	variantID := uuid.New()
	first, err := c.AddLine(uuid.New(), variantID, "Tee", 2, decimal.RequireFromString("12.50"))
	require.NoError(t, err)
	second, err := c.AddLine(uuid.New(), variantID, "Tee", 1, decimal.RequireFromString("12.50"))
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID, "same variant gets a separate line")
	assert.Equal(t, c.ID, first.CartID)
	assert.Equal(t, 3, c.TotalQuantity())
	assert.True(t, decimal.RequireFromString("37.5").Equal(c.Total()))
}

func TestCart_Validation(t *testing.T) {
	_, err := New(" ")
	assert.True(t, errors.Is(err, shared.ErrMissingInput))

	c, err := New("sess")
	require.NoError(t, err)

	_, err = c.AddLine(uuid.New(), uuid.Nil, "Tee", 1, decimal.Zero)
	assert.True(t, errors.Is(err, shared.ErrMissingInput))

	_, err = c.AddLine(uuid.New(), uuid.New(), "Tee", 0, decimal.Zero)
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
}

func TestLine_SetQuantity(t *testing.T) {
	l := &Line{Quantity: 1, UnitPrice: decimal.NewFromInt(4)}
	require.NoError(t, l.SetQuantity(5))
	assert.Equal(t, 5, l.Quantity)
	assert.True(t, decimal.NewFromInt(20).Equal(l.Subtotal()))

	assert.Error(t, l.SetQuantity(-1))
	assert.Error(t, l.SetQuantity(10001))
	assert.Equal(t, 5, l.Quantity)
}
