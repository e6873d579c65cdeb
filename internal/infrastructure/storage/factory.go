package storage

import (
	"context"
	"fmt"

	"github.com/erp/production/internal/domain/document"
	"github.com/erp/production/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewDocumentStore creates the document store selected by cfg.Driver
func NewDocumentStore(ctx context.Context, cfg *config.StorageConfig, logger *zap.Logger) (document.Store, error) {
	switch cfg.Driver {
	case "", "memory":
		logger.Warn("Using in-memory document store; documents are lost on restart")
		return NewMemoryDocumentStore(), nil
	case "s3":
		store, err := NewS3DocumentStore(ctx, cfg, WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		logger.Info("S3 document store ready", zap.String("bucket", store.GetBucket()))
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
