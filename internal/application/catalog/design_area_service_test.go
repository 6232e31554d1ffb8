package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/printshop/personalizer/internal/domain/catalog"
	"github.com/printshop/personalizer/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type designAreaFixture struct {
	products *MockProductRepository
	areas    *MockDesignAreaRepository
	storage  *MockObjectStorage
	variant  *catalog.ProductVariant
}

func newDesignAreaFixture(t *testing.T) *designAreaFixture {
	t.Helper()
	product, err := catalog.NewProductTemplate("T-Shirt", "")
	require.NoError(t, err)
	variant, err := product.AddVariant([]string{"White"}, decimal.NewFromInt(20))
	require.NoError(t, err)
	variant.SetImage(catalog.VariantImageStorageKey(variant.ID))

	return &designAreaFixture{
		products: new(MockProductRepository),
		areas:    new(MockDesignAreaRepository),
		storage:  new(MockObjectStorage),
		variant:  variant,
	}
}

func (f *designAreaFixture) service(normalizer ImageNormalizer) *DesignAreaService {
	registry := NewDesignAreaRegistry(f.products, f.areas, f.storage)
	return NewDesignAreaService(f.products, f.areas, registry, f.storage, normalizer)
}

func (f *designAreaFixture) area(t *testing.T, key, label string, sortOrder int) *catalog.DesignArea {
	t.Helper()
	a, err := catalog.NewDesignArea(f.variant.ID, catalog.DesignAreaInput{Key: key, Label: label, SortOrder: sortOrder})
	require.NoError(t, err)
	return a
}

func TestDesignAreaService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("saves a new area", func(t *testing.T) {
		f := newDesignAreaFixture(t)
		f.products.On("FindVariant", ctx, f.variant.ID).Return(f.variant, nil)
		f.areas.On("Save", ctx, mock.AnythingOfType("*catalog.DesignArea")).Return(nil)

		resp, err := f.service(stubNormalizer{}).Create(ctx, f.variant.ID, DesignAreaRequest{
			Key:        " front ",
			Label:      "Front",
			Restricted: true,
			Bounds:     &catalog.Rect{X: 5, Y: 5, Width: 100, Height: 120},
		})
		require.NoError(t, err)
		assert.Equal(t, "front", resp.Key)
		assert.Equal(t, f.variant.ID, resp.VariantID)
		assert.True(t, resp.Restricted)
		assert.Empty(t, resp.ImageURL)
		f.areas.AssertExpectations(t)
	})

	t.Run("label stands in for a missing key", func(t *testing.T) {
		f := newDesignAreaFixture(t)
		f.products.On("FindVariant", ctx, f.variant.ID).Return(f.variant, nil)
		f.areas.On("Save", ctx, mock.Anything).Return(nil)

		resp, err := f.service(stubNormalizer{}).Create(ctx, f.variant.ID, DesignAreaRequest{Label: "Back"})
		require.NoError(t, err)
		assert.Equal(t, "Back", resp.Key)
	})

	tests := []struct {
		name    string
		req     DesignAreaRequest
		wantErr error
	}{
		{"no key or label", DesignAreaRequest{Key: " ", SortOrder: 1}, shared.ErrMissingInput},
		{"key too long", DesignAreaRequest{Key: strings.Repeat("k", 65)}, shared.ErrInvalidInput},
		{"negative bounds", DesignAreaRequest{Key: "front", Bounds: &catalog.Rect{Width: -1}}, shared.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDesignAreaFixture(t)
			f.products.On("FindVariant", ctx, f.variant.ID).Return(f.variant, nil)

			_, err := f.service(stubNormalizer{}).Create(ctx, f.variant.ID, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			f.areas.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		})
	}

	t.Run("unknown variant", func(t *testing.T) {
		f := newDesignAreaFixture(t)
		id := uuid.New()
		f.products.On("FindVariant", ctx, id).Return(nil, shared.ErrNotFound)

		_, err := f.service(stubNormalizer{}).Create(ctx, id, DesignAreaRequest{Key: "front"})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestDesignAreaService_ListAndUpdate(t *testing.T) {
	ctx := context.Background()
	f := newDesignAreaFixture(t)
	front := f.area(t, "front", "Front", 0)
	back := f.area(t, "back", "Back", 1)
	back.SetImage(catalog.ImageStorageKey(back.ID), "back.png")

	f.products.On("FindVariant", ctx, f.variant.ID).Return(f.variant, nil)
	f.areas.On("FindByVariant", ctx, f.variant.ID).Return([]catalog.DesignArea{*front, *back}, nil)
	f.areas.On("FindByID", ctx, front.ID).Return(front, nil)
	f.areas.On("Save", ctx, front).Return(nil)
	svc := f.service(stubNormalizer{})

	t.Run("list", func(t *testing.T) {
		resp, err := svc.ListByVariant(ctx, f.variant.ID)
		require.NoError(t, err)
		require.Len(t, resp, 2)
		assert.Equal(t, "front", resp[0].Key)
		assert.Empty(t, resp[0].ImageURL, "admin view shows only the area's own image")
		assert.Equal(t, "https://cdn.test/"+back.ImageKey, resp[1].ImageURL)
		assert.Equal(t, "back.png", resp[1].ImageName)
	})

	t.Run("update replaces every editable field", func(t *testing.T) {
		resp, err := svc.Update(ctx, front.ID, DesignAreaRequest{Key: "front", Label: "Chest", SortOrder: 4})
		require.NoError(t, err)
		assert.Equal(t, "Chest", resp.Label)
		assert.Equal(t, 4, resp.SortOrder)
		assert.Nil(t, resp.Bounds)
	})

	t.Run("update rejects invalid input", func(t *testing.T) {
		_, err := svc.Update(ctx, front.ID, DesignAreaRequest{})
		assert.ErrorIs(t, err, shared.ErrMissingInput)
	})
}

func TestDesignAreaService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("removes the area and its image", func(t *testing.T) {
		f := newDesignAreaFixture(t)
		area := f.area(t, "front", "", 0)
		area.SetImage(catalog.ImageStorageKey(area.ID), "front.png")
		f.areas.On("FindByID", ctx, area.ID).Return(area, nil)
		f.areas.On("Delete", ctx, area.ID).Return(nil)
		f.storage.On("DeleteObject", ctx, area.ImageKey).Return(nil)

		require.NoError(t, f.service(stubNormalizer{}).Delete(ctx, area.ID))
		f.areas.AssertExpectations(t)
		f.storage.AssertExpectations(t)
	})

	t.Run("image cleanup failure is not an error", func(t *testing.T) {
		f := newDesignAreaFixture(t)
		area := f.area(t, "front", "", 0)
		area.SetImage(catalog.ImageStorageKey(area.ID), "front.png")
		f.areas.On("FindByID", ctx, area.ID).Return(area, nil)
		f.areas.On("Delete", ctx, area.ID).Return(nil)
		f.storage.On("DeleteObject", ctx, area.ImageKey).Return(errors.New("timeout"))

		assert.NoError(t, f.service(stubNormalizer{}).Delete(ctx, area.ID))
	})

	t.Run("area without image skips storage", func(t *testing.T) {
		f := newDesignAreaFixture(t)
		area := f.area(t, "front", "", 0)
		f.areas.On("FindByID", ctx, area.ID).Return(area, nil)
		f.areas.On("Delete", ctx, area.ID).Return(nil)

		require.NoError(t, f.service(stubNormalizer{}).Delete(ctx, area.ID))
		f.storage.AssertNotCalled(t, "DeleteObject", mock.Anything, mock.Anything)
	})

	t.Run("unknown area", func(t *testing.T) {
		f := newDesignAreaFixture(t)
		id := uuid.New()
		f.areas.On("FindByID", ctx, id).Return(nil, shared.ErrNotFound)

		assert.ErrorIs(t, f.service(stubNormalizer{}).Delete(ctx, id), shared.ErrNotFound)
	})
}

func TestDesignAreaService_UploadImage(t *testing.T) {
	ctx := context.Background()
	png := []byte("normalized-png")

	t.Run("stores the PNG under the area key", func(t *testing.T) {
		f := newDesignAreaFixture(t)
		area := f.area(t, "front", "", 0)
		key := catalog.ImageStorageKey(area.ID)
		f.areas.On("FindByID", ctx, area.ID).Return(area, nil)
		f.areas.On("Save", ctx, area).Return(nil)
		f.storage.On("Upload", ctx, key, png, "image/png").Return(nil)

		resp, err := f.service(stubNormalizer{out: png}).UploadImage(ctx, area.ID, []byte("raw"), `C:\designs\front.png`)
		require.NoError(t, err)
		assert.Equal(t, "front.png", resp.ImageName)
		assert.Equal(t, "https://cdn.test/"+key, resp.ImageURL)
		f.storage.AssertExpectations(t)
	})

	t.Run("rejected image is not stored", func(t *testing.T) {
		f := newDesignAreaFixture(t)
		area := f.area(t, "front", "", 0)
		f.areas.On("FindByID", ctx, area.ID).Return(area, nil)

		_, err := f.service(stubNormalizer{err: shared.ErrInvalidInput}).UploadImage(ctx, area.ID, []byte("raw"), "x.gif")
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
		f.storage.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCleanImageName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"front.png", "front.png"},
		{"  spaced.png ", "spaced.png"},
		{"a/b/c.png", "c.png"},
		{`C:\x\y.png`, "y.png"},
		{"", ""},
		{strings.Repeat("n", 300), strings.Repeat("n", maxImageNameLength)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanImageName(tt.in), tt.in)
	}
}

func TestDesignAreaRegistry(t *testing.T) {
	ctx := context.Background()
	f := newDesignAreaFixture(t)
	front := f.area(t, "", "Front", 0)
	front.SetImage(catalog.ImageStorageKey(front.ID), "front.png")
	back := f.area(t, "back", "", 1)

	f.products.On("FindVariant", ctx, f.variant.ID).Return(f.variant, nil)
	f.areas.On("FindByVariant", ctx, f.variant.ID).Return([]catalog.DesignArea{*front, *back}, nil)
	registry := NewDesignAreaRegistry(f.products, f.areas, f.storage)

	t.Run("resolves keys, labels and image fallback", func(t *testing.T) {
		resolved, err := registry.ListForVariant(ctx, f.variant.ID)
		require.NoError(t, err)
		require.Len(t, resolved, 2)

		assert.Equal(t, "Front", resolved[0].Key)
		assert.Equal(t, "Front", resolved[0].Label)
		assert.Equal(t, "https://cdn.test/"+front.ImageKey, resolved[0].ImageURL)

		assert.Equal(t, "back", resolved[1].Label)
		assert.Equal(t, "https://cdn.test/"+f.variant.ImageKey, resolved[1].ImageURL)
	})

	t.Run("area image", func(t *testing.T) {
		f.storage.On("GetObject", ctx, front.ImageKey).Return([]byte("png"), nil).Once()
		data, err := registry.AreaImage(ctx, front)
		require.NoError(t, err)
		assert.Equal(t, []byte("png"), data)

		data, err = registry.AreaImage(ctx, back)
		require.NoError(t, err)
		assert.Nil(t, data)
	})

	t.Run("missing stored image is not an error", func(t *testing.T) {
		f.storage.On("GetObject", ctx, front.ImageKey).Return(nil, shared.ErrNotFound).Once()
		data, err := registry.AreaImage(ctx, front)
		require.NoError(t, err)
		assert.Nil(t, data)
	})

	t.Run("storage failure surfaces", func(t *testing.T) {
		f.storage.On("GetObject", ctx, front.ImageKey).Return(nil, errors.New("s3 down")).Once()
		_, err := registry.AreaImage(ctx, front)
		assert.Error(t, err)
	})
}
