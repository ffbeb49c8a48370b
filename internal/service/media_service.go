package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"stockroom/internal/model"
	"stockroom/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MaxImageBytes is the largest accepted product image.
const MaxImageBytes = 5 << 20

// ImagePrefix is the storage folder for product images.
const ImagePrefix = "images/"

// mediaService implements MediaService.
type mediaService struct {
	store  storage.Store
	logger zerolog.Logger
}

// NewMediaService creates a new media service.
func NewMediaService(store storage.Store, logger zerolog.Logger) MediaService {
	return &mediaService{
		store:  store,
		logger: logger.With().Str("service", "media").Logger(),
	}
}

// UploadImage checks the content is an image of at most MaxImageBytes and
// stores it under a random key that keeps the file extension.
func (s *mediaService) UploadImage(ctx context.Context, actor model.Actor, filename string, r io.Reader) (*model.UploadResponse, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) > MaxImageBytes {
		return nil, model.ErrImageTooLarge
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		s.logger.Warn().Str("content_type", contentType).Str("filename", filename).Msg("rejected non-image upload")
		return nil, model.ErrNotImage
	}

	key := ImagePrefix + uuid.NewString() + imageExtension(filename, contentType)
	url, err := s.store.Put(ctx, key, bytes.NewReader(data), contentType)
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("failed to store image")
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	s.logger.Info().
		Str("key", key).
		Str("actor", actor.ID.String()).
		Int("bytes", len(data)).
		Msg("image uploaded")

	return &model.UploadResponse{URL: url, Key: key}, nil
}

// Open reads a stored image or snapshot through the storage chain, so
// objects kept in S3 resolve as well as local ones.
func (s *mediaService) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	body, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidKey) {
			return nil, "", model.ErrFileNotFound
		}
		s.logger.Error().Err(err).Str("key", key).Msg("failed to open file")
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}

	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(key)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return body, contentType, nil
}

// imageExtension keeps the uploaded extension, or derives one from the
// detected type.
func imageExtension(filename, contentType string) string {
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" && len(ext) <= 5 {
		return ext
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}
