// Package file implements an objectstore.Store on the local filesystem.
//
// Objects live at <root>/<bucket>/<key>. Writes go to a temporary file in
// the destination directory and are renamed into place, so readers never see
// a half-written object.
package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"salesetl/internal/objectstore"
)

func init() {
	objectstore.Register("file", func(_ context.Context, cfg objectstore.Config) (objectstore.Store, error) {
		if cfg.Root == "" {
			return nil, fmt.Errorf("file store: root must not be empty")
		}
		return New(cfg.Root), nil
	})
}

// Store is a filesystem-backed object store rooted at a directory.
type Store struct{ root string }

var _ objectstore.Store = (*Store)(nil)

// New returns a Store rooted at root. The directory is created on first Put.
func New(root string) *Store { return &Store{root: root} }

// path resolves bucket/key under the root, rejecting names that would
// escape it.
func (s *Store) path(bucket, key string) (string, error) {
	k := filepath.FromSlash(key)
	if !filepath.IsLocal(bucket) || !filepath.IsLocal(k) {
		return "", fmt.Errorf("file store: invalid object name %q/%q", bucket, key)
	}
	return filepath.Join(s.root, bucket, k), nil
}

// Get opens the object for reading.
//
// If the context is already done, Get returns its error without touching the
// filesystem. A missing object yields an error wrapping objectstore.ErrNotFound.
func (s *Store) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	p, err := s.path(bucket, key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("open %s: %w", p, objectstore.ErrNotFound)
		}
		return nil, fmt.Errorf("open %s: %w", p, err)
	}
	return f, nil
}

// Put writes body to bucket/key. contentType is not recorded.
func (s *Store) Put(ctx context.Context, bucket, key string, body io.Reader, _ string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	p, err := s.path(bucket, key)
	if err != nil {
		return err
	}
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".put-*")
	if err != nil {
		return fmt.Errorf("create temp in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, body); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", p, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("rename into %s: %w", p, err)
	}
	return nil
}
