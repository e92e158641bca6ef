package storage

import (
	"context"
	"io"
	"time"
)

// Storage abstracts media storage for product and post images.
// Implementations cover the local filesystem (development) and
// S3-compatible object storage (AWS, MinIO).
type Storage interface {
	// Put uploads content and returns the publicly accessible URL.
	// key is the object path (e.g. "products/{id}/{uuid}.webp").
	Put(ctx context.Context, key string, body io.Reader, contentType string) (url string, err error)

	// Delete removes the object at key.
	Delete(ctx context.Context, key string) error

	// PresignGet returns a time-limited URL for private objects.
	// Implementations on public buckets may simply return the permanent URL.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}
