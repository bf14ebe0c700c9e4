package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/snarg/voxmood/internal/config"
)

// Store abstracts persistence of uploaded audio and rendered report files.
// Keys are slash-separated relative paths like "2026-08-31/<uuid>.wav".
type Store interface {
	// Save stores a blob under the given key.
	Save(ctx context.Context, key string, data []byte, contentType string) error

	// Open returns a reader for the blob.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists checks whether a blob is present.
	Exists(ctx context.Context, key string) bool

	// LocalPath returns the filesystem path if the blob is on local disk,
	// "" otherwise. Collaborators that shell out (sox, STT upload) need a
	// real file path.
	LocalPath(key string) string

	// Type returns "local" or "s3".
	Type() string
}

// New selects a storage backend from config. S3 setups are validated at
// startup so a bad bucket fails fast instead of on the first upload.
func New(cfg *config.Config, log zerolog.Logger) (Store, error) {
	if !cfg.S3Enabled() {
		return NewLocalStore(cfg.DataDir), nil
	}

	s3store, err := NewS3Store(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("s3 init failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s3store.HeadBucket(ctx); err != nil {
		return nil, fmt.Errorf("s3 startup check failed (bucket=%q endpoint=%q): %w",
			cfg.S3Bucket, cfg.S3Endpoint, err)
	}
	log.Info().Str("bucket", cfg.S3Bucket).Str("endpoint", cfg.S3Endpoint).Msg("s3 connection verified")

	return s3store, nil
}
