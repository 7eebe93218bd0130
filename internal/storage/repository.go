// Package storage defines the relational store collaborator used by the load
// and query stages, a registry of backends, and a synchronous batcher that
// groups rows into fixed-size insert transactions.
//
// Backends (mysql, postgres, sqlite, mssql) register a Factory from init;
// importing internal/storage/all wires every built-in backend.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"salesetl/internal/ddl"
)

// Config carries the connection settings shared by all backends. DSN, when
// set, takes precedence over the discrete fields.
type Config struct {
	Kind           string
	DSN            string
	Host           string
	Port           int
	User           string
	Password       string
	Name           string
	Table          string
	ConnectTimeout time.Duration
}

// Repository is one session against a relational store. Implementations hold
// at most one open connection.
type Repository interface {
	// EnsureTable creates the table described by def if it does not exist.
	// The statement is committed before EnsureTable returns.
	EnsureTable(ctx context.Context, def ddl.TableDef) error

	// Truncate removes every row of the configured table and commits.
	Truncate(ctx context.Context) error

	// CopyFrom inserts rows (aligned to columns) into the configured table
	// inside a single transaction. On error the transaction is rolled back
	// and no row of this call is kept.
	CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error)

	// Query runs a read-only statement with bound args and returns every row
	// as a column-name keyed map.
	Query(ctx context.Context, sql string, args ...any) ([]map[string]any, error)

	Close()
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a backend available under kind. Registering the same kind
// twice replaces the earlier factory.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// ListKinds returns the registered kinds, sorted. The slice is a copy.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// New opens a Repository using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}
