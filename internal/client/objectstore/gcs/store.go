package gcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"cloud.google.com/go/storage"

	"github.com/GregMSThompson/ca-portal/internal/errs"
)

// Store keeps client documents in a Cloud Storage bucket. The bucket is private;
// reads go through V4 signed URLs or the API.
type Store struct {
	bucket *storage.BucketHandle
}

func New(client *storage.Client, bucket string) *Store {
	return &Store{bucket: client.Bucket(bucket)}
}

func (s *Store) Upload(ctx context.Context, key, contentType string, data []byte) error {
	w := s.bucket.Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.ChunkSize = 0 // single request, payloads are small

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		w.Close()
		return errs.NewStorageError(key, "failed to upload object", err)
	}
	if err := w.Close(); err != nil {
		return errs.NewStorageError(key, "failed to finalize upload", err)
	}
	return nil
}

func (s *Store) SignedURL(_ context.Context, key string, ttl time.Duration, fileName string) (string, error) {
	opts := &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(ttl),
	}
	if fileName != "" {
		opts.QueryParameters = url.Values{
			"response-content-disposition": {fmt.Sprintf("inline; filename=%q", fileName)},
		}
	}
	u, err := s.bucket.SignedURL(key, opts)
	if err != nil {
		return "", errs.NewExternalServiceError("storage", "failed to sign object url", false, err)
	}
	return u, nil
}

func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	r, err := s.bucket.Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, 0, errs.NewNotFoundError("file not found in storage")
		}
		return nil, 0, errs.NewStorageError(key, "failed to open object", err)
	}
	return r, r.Attrs.Size, nil
}

// Delete removes the object. A missing object is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.bucket.Object(key).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return errs.NewStorageError(key, "failed to delete object", err)
	}
	return nil
}
