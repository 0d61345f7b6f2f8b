package storage

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// ObjectInfo represents metadata for a remote file/object.
type ObjectInfo struct {
	Key  string
	Size int64
}

// ObjectStorage captures the minimal S3-compatible operations the batch
// commands need: pull upload files in, push result CSVs out.
type ObjectStorage interface {
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	DownloadObject(ctx context.Context, key string, destPath string) error
	UploadObject(ctx context.Context, key string, data []byte) error
}

// DownloadPrefix downloads every object under prefix whose key passes keep
// into destDir, flattening keys to their base names. It returns the local
// paths in listing order.
func DownloadPrefix(ctx context.Context, store ObjectStorage, prefix, destDir string, keep func(key string) bool) ([]string, error) {
	objects, err := store.ListObjects(ctx, prefix)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, obj := range objects {
		if strings.HasSuffix(obj.Key, "/") || (keep != nil && !keep(obj.Key)) {
			continue
		}

		dest := filepath.Join(destDir, path.Base(obj.Key))
		if err := store.DownloadObject(ctx, obj.Key, dest); err != nil {
			return nil, fmt.Errorf("failed to download %s: %w", obj.Key, err)
		}
		paths = append(paths, dest)
	}

	return paths, nil
}

// ObjectKey joins a prefix and a local file's base name into an object key.
func ObjectKey(prefix, localPath string) string {
	base := filepath.Base(localPath)
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return base
	}
	return prefix + "/" + base
}
