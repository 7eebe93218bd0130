// Package objectstore defines the object storage collaborator used by the
// transform and load stages, plus a small registry of backends.
//
// Backends register themselves from init (see internal/objectstore/all);
// callers open a Store with New and stay unaware of the concrete backend.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
)

// ErrNotFound is returned (wrapped) by Get when the object does not exist.
var ErrNotFound = errors.New("object not found")

// Store reads and writes whole objects addressed by bucket and key.
type Store interface {
	// Get opens the object for reading. The caller closes the reader.
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, error)

	// Put stores body under bucket/key, replacing any existing object. Body
	// is consumed until EOF.
	Put(ctx context.Context, bucket, key string, body io.Reader, contentType string) error
}

// Config selects and configures a backend.
type Config struct {
	// Kind is the backend name: "s3" or "file".
	Kind string `json:"kind"`

	// Region, Endpoint and PathStyle configure the s3 backend. Endpoint is
	// optional and targets S3-compatible services (MinIO, LocalStack).
	Region    string `json:"region"`
	Endpoint  string `json:"endpoint"`
	PathStyle bool   `json:"path_style"`

	// Root is the base directory of the file backend; buckets are
	// subdirectories of Root.
	Root string `json:"root"`
}

// Factory opens a Store for cfg.
type Factory func(ctx context.Context, cfg Config) (Store, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a backend available under kind. It is typically called from
// a backend package's init function.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// Kinds lists the registered backend names, sorted.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// New opens a Store of cfg.Kind.
func New(ctx context.Context, cfg Config) (Store, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("objectstore: unknown kind %q (registered: %v)", cfg.Kind, Kinds())
	}
	return f(ctx, cfg)
}
