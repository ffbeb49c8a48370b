// Package storage keeps uploaded product images and export snapshots in S3
// or on the local file system.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// ErrNotFound is returned by Get when no object exists under the key.
var ErrNotFound = errors.New("object not found")

// ErrInvalidKey is returned for keys that are empty or escape the store root.
var ErrInvalidKey = errors.New("invalid object key")

// Store defines the interface for object storage.
type Store interface {
	// Put stores body under key and returns the object's public URL.
	Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error)

	// Get opens the object stored under key.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// CleanKey normalises a slash-separated object key and rejects keys that
// are empty or point outside the store.
func CleanKey(key string) (string, error) {
	key = strings.TrimPrefix(strings.ReplaceAll(key, "\\", "/"), "/")
	if key == "" {
		return "", ErrInvalidKey
	}

	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}
