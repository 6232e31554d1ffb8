package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/printshop/personalizer/internal/domain/catalog"
	"github.com/stretchr/testify/mock"
)

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.ProductTemplate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.ProductTemplate), args.Error(1)
}

func (m *MockProductRepository) FindVariant(ctx context.Context, variantID uuid.UUID) (*catalog.ProductVariant, error) {
	args := m.Called(ctx, variantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.ProductVariant), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.ProductTemplate) error {
	return m.Called(ctx, product).Error(0)
}

func (m *MockProductRepository) SaveVariant(ctx context.Context, variant *catalog.ProductVariant) error {
	return m.Called(ctx, variant).Error(0)
}

type MockDesignAreaRepository struct {
	mock.Mock
}

func (m *MockDesignAreaRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.DesignArea, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.DesignArea), args.Error(1)
}

func (m *MockDesignAreaRepository) FindByVariant(ctx context.Context, variantID uuid.UUID) ([]catalog.DesignArea, error) {
	args := m.Called(ctx, variantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.DesignArea), args.Error(1)
}

func (m *MockDesignAreaRepository) Save(ctx context.Context, area *catalog.DesignArea) error {
	return m.Called(ctx, area).Error(0)
}

func (m *MockDesignAreaRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockObjectStorage struct {
	mock.Mock
	urlErr error
}

func (m *MockObjectStorage) Upload(ctx context.Context, storageKey string, data []byte, contentType string) error {
	return m.Called(ctx, storageKey, data, contentType).Error(0)
}

func (m *MockObjectStorage) GetObject(ctx context.Context, storageKey string) ([]byte, error) {
	args := m.Called(ctx, storageKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// GenerateDownloadURL answers with a CDN URL for the key unless urlErr is set
func (m *MockObjectStorage) GenerateDownloadURL(_ context.Context, storageKey string, _ time.Duration) (string, time.Time, error) {
	if m.urlErr != nil {
		return "", time.Time{}, m.urlErr
	}
	return "https://cdn.test/" + storageKey, time.Time{}, nil
}

func (m *MockObjectStorage) DeleteObject(ctx context.Context, storageKey string) error {
	return m.Called(ctx, storageKey).Error(0)
}

func (m *MockObjectStorage) ObjectExists(ctx context.Context, storageKey string) (bool, error) {
	args := m.Called(ctx, storageKey)
	return args.Bool(0), args.Error(1)
}

type stubNormalizer struct {
	out []byte
	err error
}

func (n stubNormalizer) NormalizePNG([]byte) ([]byte, error) {
	return n.out, n.err
}
