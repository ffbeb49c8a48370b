package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// fallbackStore tries S3 first, then falls back to the local store.
type fallbackStore struct {
	s3Store   Store
	fileStore Store
	s3Prefix  string
	s3Enabled bool
	logger    zerolog.Logger
}

// NewFallbackStore creates a store that writes to S3 when it is enabled and
// reachable, and to the local file system otherwise. If s3Store is nil only
// the file store is used. The S3 key is s3Prefix followed by the key.
func NewFallbackStore(s3Store, fileStore Store, s3Prefix string, s3Enabled bool, logger zerolog.Logger) Store {
	return &fallbackStore{
		s3Store:   s3Store,
		fileStore: fileStore,
		s3Prefix:  s3Prefix,
		s3Enabled: s3Enabled,
		logger:    logger.With().Str("component", "fallback-store").Logger(),
	}
}

func (s *fallbackStore) useS3() bool {
	return s.s3Enabled && s.s3Store != nil
}

// Put stores body in S3, or locally when S3 is disabled or fails. The body
// is buffered so it can be replayed for the second attempt.
func (s *fallbackStore) Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	if !s.useS3() {
		s.logger.Debug().
			Bool("s3_enabled", s.s3Enabled).
			Bool("has_s3_store", s.s3Store != nil).
			Msg("S3 disabled or not configured, using local file system")
		return s.fileStore.Put(ctx, key, body, contentType)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("failed to read upload %s: %w", key, err)
	}

	s3Key := s.s3Prefix + key
	url, err := s.s3Store.Put(ctx, s3Key, bytes.NewReader(data), contentType)
	if err == nil {
		return url, nil
	}

	s.logger.Warn().
		Err(err).
		Str("s3_key", s3Key).
		Msg("failed to store in S3, falling back to local file system")

	return s.fileStore.Put(ctx, key, bytes.NewReader(data), contentType)
}

// Get reads from S3 first, then from the local file system.
func (s *fallbackStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if s.useS3() {
		s3Key := s.s3Prefix + key
		body, err := s.s3Store.Get(ctx, s3Key)
		if err == nil {
			return body, nil
		}
		s.logger.Warn().
			Err(err).
			Str("s3_key", s3Key).
			Msg("failed to read from S3, falling back to local file system")
	}

	return s.fileStore.Get(ctx, key)
}
