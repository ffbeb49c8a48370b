package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// fileStore implements Store on a local directory.
type fileStore struct {
	dir     string
	baseURL string
	logger  zerolog.Logger
}

// NewFileStore creates a store rooted at dir. Public URLs are baseURL
// followed by the object key.
func NewFileStore(dir, baseURL string, logger zerolog.Logger) (Store, error) {
	logger = logger.With().Str("component", "file-store").Logger()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Error().Err(err).Str("dir", dir).Msg("failed to create storage directory")
		return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
	}

	return &fileStore{
		dir:     dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
	}, nil
}

// Put writes body to a temporary file and renames it into place, so a
// reader never sees a partial object.
func (s *fileStore) Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	key, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	target := filepath.Join(s.dir, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory for %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("failed to create temporary file")
		return "", fmt.Errorf("failed to store %s: %w", key, err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	written, err := io.Copy(tmp, readerWithContext(ctx, body))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("failed to write file")
		return "", fmt.Errorf("failed to store %s: %w", key, err)
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("failed to move file into place")
		return "", fmt.Errorf("failed to store %s: %w", key, err)
	}

	s.logger.Info().
		Str("key", key).
		Str("content_type", contentType).
		Int64("bytes", written).
		Msg("file stored")

	return s.baseURL + "/" + key, nil
}

// Get opens the file stored under key.
func (s *fileStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	key, err := CleanKey(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filepath.Join(s.dir, filepath.FromSlash(key)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to open %s: %w", key, err)
	}
	return file, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return ctxReader{ctx: ctx, r: r}
}
