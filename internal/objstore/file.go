package objstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore keeps objects on the local filesystem. Content type is kept in a
// sidecar file next to the payload.
type FileStore struct {
	baseDir string
	bucket  string
}

func NewFileStore(baseDir, bucket string) (*FileStore, error) {
	if baseDir == "" {
		baseDir = "data"
	}
	dir := filepath.Join(baseDir, "objects")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create object directory %s: %w", dir, err)
	}
	return &FileStore{baseDir: dir, bucket: bucket}, nil
}

func (f *FileStore) pathFor(key string) (string, error) {
	// Keys are generated internally, but reject traversal anyway.
	clean := filepath.Clean(key)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid object key: %s", key)
	}
	return filepath.Join(f.baseDir, clean), nil
}

func (f *FileStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	path, err := f.pathFor(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory for %s: %w", key, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write object %s: %w", key, err)
	}
	if err := os.WriteFile(path+".meta", []byte(contentType), 0o644); err != nil {
		return "", fmt.Errorf("failed to write object metadata %s: %w", key, err)
	}
	return formatRef(f.bucket, key), nil
}

func (f *FileStore) Get(ctx context.Context, ref string) ([]byte, string, error) {
	_, key, err := ParseRef(ref)
	if err != nil {
		return nil, "", err
	}
	path, err := f.pathFor(key)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", &ErrNotFound{Ref: ref}
		}
		return nil, "", err
	}
	contentType := ""
	if meta, err := os.ReadFile(path + ".meta"); err == nil {
		contentType = string(meta)
	}
	return data, contentType, nil
}

func (f *FileStore) Delete(ctx context.Context, ref string) error {
	_, key, err := ParseRef(ref)
	if err != nil {
		return err
	}
	path, err := f.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := os.Remove(path + ".meta"); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (f *FileStore) Health(ctx context.Context) error {
	_, err := os.Stat(f.baseDir)
	return err
}

func (f *FileStore) Close() error { return nil }
