package port

import (
	"context"
	"io"
)

// ObjectStorage abstracts raw document byte storage.
type ObjectStorage interface {
	Upload(ctx context.Context, bucket, key, contentType string, body io.Reader) error
	Download(ctx context.Context, bucket, key string) ([]byte, error)
	Delete(ctx context.Context, bucket, key string) error
}
