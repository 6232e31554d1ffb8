package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/printshop/personalizer/internal/domain/cart"
	"github.com/printshop/personalizer/internal/domain/personalization"
	"github.com/printshop/personalizer/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) FindBySession(ctx context.Context, sessionID string) (*cart.Cart, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockCartRepository) FindByID(ctx context.Context, id uuid.UUID) (*cart.Cart, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockCartRepository) FindLine(ctx context.Context, lineID uuid.UUID) (*cart.Line, error) {
	args := m.Called(ctx, lineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Line), args.Error(1)
}

func (m *MockCartRepository) Create(ctx context.Context, c *cart.Cart) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCartRepository) CreateLine(ctx context.Context, line *cart.Line) error {
	return m.Called(ctx, line).Error(0)
}

func (m *MockCartRepository) UpdateLine(ctx context.Context, line *cart.Line) error {
	return m.Called(ctx, line).Error(0)
}

func (m *MockCartRepository) DeleteLine(ctx context.Context, lineID uuid.UUID) error {
	return m.Called(ctx, lineID).Error(0)
}

type MockRecordRepository struct {
	mock.Mock
}

func (m *MockRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*personalization.Personalization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*personalization.Personalization), args.Error(1)
}

func (m *MockRecordRepository) FindByLine(ctx context.Context, lineID uuid.UUID) ([]personalization.Personalization, error) {
	args := m.Called(ctx, lineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]personalization.Personalization), args.Error(1)
}

func (m *MockRecordRepository) Create(ctx context.Context, record *personalization.Personalization) error {
	return m.Called(ctx, record).Error(0)
}

func (m *MockRecordRepository) ReplaceForLine(ctx context.Context, lineID uuid.UUID, records []*personalization.Personalization, onError personalization.SaveErrorFunc) ([]uuid.UUID, error) {
	args := m.Called(ctx, lineID, records, onError)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockRecordRepository) DeleteByLine(ctx context.Context, lineID uuid.UUID) error {
	return m.Called(ctx, lineID).Error(0)
}

func imageURL(id uuid.UUID) string {
	return "/api/v1/personalizations/" + id.String() + "/image"
}

func newCart(t *testing.T) *cart.Cart {
	t.Helper()
	c, err := cart.New("session-1")
	require.NoError(t, err)
	_, err = c.AddLine(uuid.New(), uuid.New(), "T-Shirt (White, M)", 2, decimal.NewFromInt(20))
	require.NoError(t, err)
	_, err = c.AddLine(uuid.New(), uuid.New(), "Mug", 1, decimal.RequireFromString("7.50"))
	require.NoError(t, err)
	return c
}

func TestService_GetCart(t *testing.T) {
	ctx := context.Background()

	t.Run("session without cart gets an empty cart", func(t *testing.T) {
		carts := new(MockCartRepository)
		carts.On("FindBySession", ctx, "session-1").Return(nil, shared.ErrNotFound)

		resp, err := NewService(carts, new(MockRecordRepository), imageURL).GetCart(ctx, "session-1")
		require.NoError(t, err)
		assert.Nil(t, resp.ID)
		assert.Empty(t, resp.Lines)
		assert.True(t, resp.Total.IsZero())
	})

	t.Run("lists lines with totals and design links", func(t *testing.T) {
		c := newCart(t)
		shirt, mug := c.Lines[0], c.Lines[1]

		withImage := personalization.Personalization{
			BaseEntity: shared.NewBaseEntity(), LineID: shirt.ID, AreaKey: "front", Title: "Front", Preview: []byte("png"),
		}
		noImage := personalization.Personalization{
			BaseEntity: shared.NewBaseEntity(), LineID: shirt.ID, AreaKey: "back",
		}

		carts := new(MockCartRepository)
		carts.On("FindBySession", ctx, "session-1").Return(c, nil)
		records := new(MockRecordRepository)
		records.On("FindByLine", ctx, shirt.ID).Return([]personalization.Personalization{withImage, noImage}, nil)
		records.On("FindByLine", ctx, mug.ID).Return([]personalization.Personalization{}, nil)

		resp, err := NewService(carts, records, imageURL).GetCart(ctx, "session-1")
		require.NoError(t, err)

		require.NotNil(t, resp.ID)
		assert.Equal(t, c.ID, *resp.ID)
		assert.Equal(t, 3, resp.TotalQuantity)
		assert.True(t, decimal.RequireFromString("47.50").Equal(resp.Total))

		require.Len(t, resp.Lines, 2)
		assert.True(t, decimal.NewFromInt(40).Equal(resp.Lines[0].Subtotal))
		require.Len(t, resp.Lines[0].Personalizations, 2)
		require.NotNil(t, resp.Lines[0].Personalizations[0].ImageURL)
		assert.Equal(t, imageURL(withImage.ID), *resp.Lines[0].Personalizations[0].ImageURL)
		assert.Nil(t, resp.Lines[0].Personalizations[1].ImageURL)
		assert.Equal(t, "back", resp.Lines[0].Personalizations[1].Title)
		assert.Empty(t, resp.Lines[1].Personalizations)
	})

	t.Run("record lookup failure keeps the line", func(t *testing.T) {
		c := newCart(t)

		carts := new(MockCartRepository)
		carts.On("FindBySession", ctx, "session-1").Return(c, nil)
		records := new(MockRecordRepository)
		records.On("FindByLine", ctx, mock.Anything).Return(nil, assert.AnError)

		resp, err := NewService(carts, records, imageURL).GetCart(ctx, "session-1")
		require.NoError(t, err)
		assert.Len(t, resp.Lines, 2)
	})

	t.Run("requires a session", func(t *testing.T) {
		_, err := NewService(new(MockCartRepository), new(MockRecordRepository), imageURL).GetCart(ctx, "")
		assert.ErrorIs(t, err, shared.ErrMissingInput)
	})
}

func TestService_RemoveLine(t *testing.T) {
	ctx := context.Background()

	t.Run("removes a line of the session's cart", func(t *testing.T) {
		c := newCart(t)
		line := c.Lines[0]

		carts := new(MockCartRepository)
		carts.On("FindBySession", ctx, "session-1").Return(c, nil)
		carts.On("FindLine", ctx, line.ID).Return(&line, nil)
		carts.On("DeleteLine", ctx, line.ID).Return(nil)

		err := NewService(carts, new(MockRecordRepository), imageURL).RemoveLine(ctx, "session-1", line.ID)
		require.NoError(t, err)
		carts.AssertExpectations(t)
	})

	t.Run("line of another cart is not found", func(t *testing.T) {
		c := newCart(t)
		foreign := cart.Line{BaseEntity: shared.NewBaseEntity(), CartID: uuid.New()}

		carts := new(MockCartRepository)
		carts.On("FindBySession", ctx, "session-1").Return(c, nil)
		carts.On("FindLine", ctx, foreign.ID).Return(&foreign, nil)

		err := NewService(carts, new(MockRecordRepository), imageURL).RemoveLine(ctx, "session-1", foreign.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		carts.AssertNotCalled(t, "DeleteLine", mock.Anything, mock.Anything)
	})

	t.Run("session without cart", func(t *testing.T) {
		carts := new(MockCartRepository)
		carts.On("FindBySession", ctx, "session-1").Return(nil, shared.ErrNotFound)

		err := NewService(carts, new(MockRecordRepository), imageURL).RemoveLine(ctx, "session-1", uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
