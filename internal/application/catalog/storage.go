package catalog

import (
	"context"
	"time"
)

// ObjectStorageService stores catalog and design area images
type ObjectStorageService interface {
	// Upload stores data under storageKey, replacing any existing object
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error
	// GetObject returns the object bytes. Missing objects return shared.ErrNotFound.
	GetObject(ctx context.Context, storageKey string) ([]byte, error)
	// GenerateDownloadURL returns a URL clients can fetch the object from.
	// A zero expiresIn uses the store's default; the returned time is zero for permanent URLs.
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
	// DeleteObject removes the object. Deleting a missing object is not an error.
	DeleteObject(ctx context.Context, storageKey string) error
	// ObjectExists reports whether an object is stored under storageKey
	ObjectExists(ctx context.Context, storageKey string) (bool, error)
}

// ImageNormalizer converts uploaded images to the PNG stored for design areas and variants
type ImageNormalizer interface {
	NormalizePNG(data []byte) ([]byte, error)
}

const pngContentType = "image/png"
