package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
)

// S3API is the subset of the S3 client used by the store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// s3Store implements Store on an S3 bucket.
type s3Store struct {
	client S3API
	bucket string
	region string
	logger zerolog.Logger
}

// NewS3Store creates a new S3-backed store using the default AWS
// credential chain.
func NewS3Store(ctx context.Context, bucket, region string, logger zerolog.Logger) (Store, error) {
	logger = logger.With().Str("component", "s3-store").Logger()

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	logger.Info().
		Str("bucket", bucket).
		Str("region", region).
		Msg("S3 store initialised")

	return NewS3StoreWithClient(s3.NewFromConfig(cfg), bucket, region, logger), nil
}

// NewS3StoreWithClient creates an S3-backed store around an existing client.
func NewS3StoreWithClient(client S3API, bucket, region string, logger zerolog.Logger) Store {
	return &s3Store{
		client: client,
		bucket: bucket,
		region: region,
		logger: logger,
	}
}

// Put uploads body under key. Non-seekable bodies are buffered first so
// the request can be signed.
func (s *s3Store) Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	key, err := CleanKey(key)
	if err != nil {
		return "", err
	}

	if _, ok := body.(io.ReadSeeker); !ok {
		data, err := io.ReadAll(body)
		if err != nil {
			return "", fmt.Errorf("failed to read upload %s: %w", key, err)
		}
		body = bytes.NewReader(data)
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		s.logger.Error().
			Err(err).
			Str("bucket", s.bucket).
			Str("key", key).
			Msg("failed to put object to S3")
		return "", fmt.Errorf("failed to put object to S3 (bucket=%s, key=%s): %w", s.bucket, key, err)
	}

	s.logger.Info().
		Str("bucket", s.bucket).
		Str("key", key).
		Msg("object stored in S3")

	return s.url(key), nil
}

// Get downloads the object stored under key.
func (s *s3Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	key, err := CleanKey(key)
	if err != nil {
		return nil, err
	}

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, ErrNotFound
		}
		s.logger.Error().
			Err(err).
			Str("bucket", s.bucket).
			Str("key", key).
			Msg("failed to get object from S3")
		return nil, fmt.Errorf("failed to get object from S3 (bucket=%s, key=%s): %w", s.bucket, key, err)
	}
	return result.Body, nil
}

func (s *s3Store) url(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}
