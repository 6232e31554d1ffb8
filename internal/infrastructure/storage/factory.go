package storage

import (
	"context"
	"fmt"

	catalogapp "github.com/printshop/personalizer/internal/application/catalog"
	"github.com/printshop/personalizer/internal/infrastructure/config"
	"go.uber.org/zap"
)

// New builds the configured object storage. The s3 provider also makes sure
// the bucket exists.
func New(ctx context.Context, cfg *config.StorageConfig, logger *zap.Logger) (catalogapp.ObjectStorageService, error) {
	switch cfg.Provider {
	case "s3":
		s, err := NewS3ObjectStorage(cfg, WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		logger.Info("Using S3 object storage", zap.String("bucket", s.Bucket()))
		return s, nil
	case "memory", "":
		logger.Warn("Using in-memory object storage, uploaded images are lost on restart")
		return NewMemoryObjectStorage(cfg.PublicBaseURL), nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}
