package bootstrap

import (
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"

	"github.com/GregMSThompson/ca-portal/internal/client/objectstore/gcs"
	"github.com/GregMSThompson/ca-portal/internal/client/objectstore/minio"
	"github.com/GregMSThompson/ca-portal/internal/config"
)

// ObjectStore is the document blob backend selected by STORAGEDRIVER.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, data []byte) error
	SignedURL(ctx context.Context, key string, ttl time.Duration, fileName string) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, int64, error)
	Delete(ctx context.Context, key string) error
}

// InitObjectStore returns the store and, for Cloud Storage, the client to close.
func InitObjectStore(ctx context.Context, cfg *config.Config) (ObjectStore, *storage.Client, error) {
	switch cfg.StorageDriver {
	case config.StorageGCS:
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, nil, err
		}
		return gcs.New(client, cfg.StorageBucket), client, nil
	case config.StorageMinio:
		store, err := minio.New(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL, cfg.StorageBucket)
		if err != nil {
			return nil, nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
