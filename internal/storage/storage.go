package storage

import (
	"context"
	"io"
)

// ObjectInfo represents metadata for a stored object.
type ObjectInfo struct {
	Key  string
	Size int64
}

// ObjectStorage captures the minimal operations the upload archive needs.
type ObjectStorage interface {
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	UploadObject(ctx context.Context, key string, r io.Reader, size int64) error
	DownloadObject(ctx context.Context, key string, destPath string) error
}
