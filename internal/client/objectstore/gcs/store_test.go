package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/GregMSThompson/ca-portal/internal/errs"
)

// Runs against fake-gcs-server or another emulator exposed via STORAGE_EMULATOR_HOST.
func TestStoreWithEmulator(t *testing.T) {
	if os.Getenv("STORAGE_EMULATOR_HOST") == "" {
		t.Skip("STORAGE_EMULATOR_HOST not set")
	}
	ctx := context.Background()
	client, err := storage.NewClient(ctx, option.WithoutAuthentication())
	if err != nil {
		t.Fatalf("storage client error: %v", err)
	}
	defer client.Close()

	bucket := "test-documents"
	if err := client.Bucket(bucket).Create(ctx, "test-project", nil); err != nil {
		t.Logf("bucket create: %v", err)
	}
	s := New(client, bucket)
	key := fmt.Sprintf("uid/cat/type/2024-25/%d-pan.pdf", time.Now().UnixNano())

	if err := s.Upload(ctx, key, "application/pdf", []byte("%PDF-1.4")); err != nil {
		t.Fatalf("Upload error: %v", err)
	}
	r, size, err := s.Open(ctx, key)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	body, _ := io.ReadAll(r)
	r.Close()
	if string(body) != "%PDF-1.4" || size != int64(len(body)) {
		t.Fatalf("unexpected object %q size %d", body, size)
	}

	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("second Delete should be a no-op, got %v", err)
	}
	var notFound *errs.NotFoundError
	if _, _, err := s.Open(ctx, key); !errors.As(err, &notFound) {
		t.Fatalf("Open after delete = %v, want NotFoundError", err)
	}
}
