package minio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/GregMSThompson/ca-portal/internal/errs"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	endpoint := os.Getenv("MINIO_TEST_ENDPOINT")
	if endpoint == "" {
		t.Skip("MINIO_TEST_ENDPOINT not set")
	}
	s, err := New(endpoint, os.Getenv("MINIO_TEST_ACCESS_KEY"), os.Getenv("MINIO_TEST_SECRET_KEY"), false, "test-documents")
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if err := s.EnsureBucket(context.Background()); err != nil {
		t.Fatalf("EnsureBucket error: %v", err)
	}
	return s
}

func TestStoreRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	key := fmt.Sprintf("uid/cat/type/2024-25/%d-salary.pdf", time.Now().UnixNano())

	if err := s.Upload(ctx, key, "application/pdf", []byte("%PDF-1.7")); err != nil {
		t.Fatalf("Upload error: %v", err)
	}

	signed, err := s.SignedURL(ctx, key, time.Minute, "salary.pdf")
	if err != nil {
		t.Fatalf("SignedURL error: %v", err)
	}
	u, err := url.Parse(signed)
	if err != nil || u.Query().Get("X-Amz-Expires") != "60" {
		t.Fatalf("unexpected signed url %q", signed)
	}

	r, size, err := s.Open(ctx, key)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	body, _ := io.ReadAll(r)
	r.Close()
	if string(body) != "%PDF-1.7" || size != 8 {
		t.Fatalf("unexpected body %q size %d", body, size)
	}

	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	var notFound *errs.NotFoundError
	if _, _, err := s.Open(ctx, key); !errors.As(err, &notFound) {
		t.Fatalf("Open after delete = %v, want NotFoundError", err)
	}
}
