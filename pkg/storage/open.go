package storage

import (
	"context"
	"fmt"
	"strings"
)

// supportedBlobSchemes lists the URL schemes handed to gocloud.dev/blob
var supportedBlobSchemes = []string{"gs://", "s3://", "azblob://", "file://", "mem://"}

// Open creates a backend for storageURL. Plain paths use the filesystem
// backend, URLs with one of the supported schemes use blob storage.
// prefix is only used by blob backends.
func Open(ctx context.Context, storageURL, prefix string) (Storage, error) {
	if storageURL == "" {
		return nil, fmt.Errorf("storage url must not be empty")
	}
	if !strings.Contains(storageURL, "://") {
		return NewFilesystem(storageURL)
	}
	if !IsBlobURL(storageURL) {
		return nil, fmt.Errorf("unsupported storage URL scheme in %q; supported schemes: %s", storageURL, strings.Join(supportedBlobSchemes, ", "))
	}
	return NewBlob(ctx, storageURL, prefix)
}

// IsBlobURL checks if the bucket URL has a supported scheme
func IsBlobURL(storageURL string) bool {
	for _, scheme := range supportedBlobSchemes {
		if strings.HasPrefix(storageURL, scheme) {
			return true
		}
	}
	return false
}

// Provider returns a human-readable provider name from the URL scheme
func Provider(storageURL string) string {
	switch {
	case strings.HasPrefix(storageURL, "gs://"):
		return "Google Cloud Storage"
	case strings.HasPrefix(storageURL, "s3://"):
		return "AWS S3"
	case strings.HasPrefix(storageURL, "azblob://"):
		return "Azure Blob Storage"
	case strings.HasPrefix(storageURL, "file://"):
		return "Local Bucket"
	case strings.HasPrefix(storageURL, "mem://"):
		return "In-Memory Bucket"
	case !strings.Contains(storageURL, "://"):
		return "Filesystem"
	default:
		return "unknown"
	}
}
