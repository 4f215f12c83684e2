package objstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stdapi-go/internal/config"
)

// ErrNotFound indicates a missing object.
type ErrNotFound struct {
	Ref string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("object not found: %s", e.Ref)
}

// Store is the object storage used for media staging and generated image
// delivery. References are bucket-qualified s3:// URIs regardless of the
// backing implementation, since providers receive them verbatim.
type Store interface {
	// Put stores data under key and returns the full s3:// reference.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)

	// Get fetches an object by its s3:// reference.
	Get(ctx context.Context, ref string) ([]byte, string, error)

	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, ref string) error

	// Health checks backend availability.
	Health(ctx context.Context) error

	Close() error
}

const defaultBucket = "stdapi-media"

// New builds a Store from runtime configuration.
func New(ctx context.Context, cfg *config.FileConfig) (Store, error) {
	bucket := cfg.S3Bucket
	if bucket == "" {
		bucket = defaultBucket
	}

	switch strings.ToLower(cfg.StorageBackend) {
	case "", "memory":
		return NewMemoryStore(bucket), nil
	case "file":
		return NewFileStore(cfg.StorageBaseDir, bucket)
	case "redis":
		return NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisPrefix, bucket)
	case "s3":
		return NewS3Store(ctx, cfg, bucket)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.StorageBackend)
	}
}

// Ref builds the s3:// reference for a key under the configured bucket.
func Ref(cfg *config.FileConfig, key string) string {
	bucket := cfg.S3Bucket
	if bucket == "" {
		bucket = defaultBucket
	}
	return formatRef(bucket, key)
}

// IsNotFound reports whether err is a missing-object error.
func IsNotFound(err error) bool {
	var notFound *ErrNotFound
	return errors.As(err, &notFound)
}

// ParseRef splits an s3://bucket/key reference.
func ParseRef(ref string) (bucket, key string, err error) {
	const scheme = "s3://"
	if !strings.HasPrefix(ref, scheme) {
		return "", "", fmt.Errorf("invalid object reference: %s", ref)
	}
	rest := ref[len(scheme):]
	slash := strings.IndexByte(rest, '/')
	if slash <= 0 || slash == len(rest)-1 {
		return "", "", fmt.Errorf("invalid object reference: %s", ref)
	}
	return rest[:slash], rest[slash+1:], nil
}

func formatRef(bucket, key string) string {
	return "s3://" + bucket + "/" + key
}
