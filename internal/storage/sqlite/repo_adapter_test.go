package sqlite

import (
	"context"
	"testing"

	"salesetl/internal/storage"
)

// TestRegistrationUsesNewRepositoryHook verifies that the "sqlite" backend
// registered in init() uses the newRepository hook and that wrappedRepo
// delegates Close.
func TestRegistrationUsesNewRepositoryHook(t *testing.T) {
	origNewRepository := newRepository
	defer func() { newRepository = origNewRepository }()

	var (
		gotCfg   Config
		closed   bool
		fakeRepo = &Repository{}
	)
	newRepository = func(ctx context.Context, cfg Config) (*Repository, func(), error) {
		gotCfg = cfg
		return fakeRepo, func() { closed = true }, nil
	}

	repo, err := storage.New(context.Background(), storage.Config{
		Kind:  "sqlite",
		Name:  "sales.db",
		Table: "sales",
	})
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	if gotCfg.DSN != "sales.db" || gotCfg.Table != "sales" {
		t.Fatalf("hook cfg = %+v", gotCfg)
	}

	w, ok := repo.(*wrappedRepo)
	if !ok {
		t.Fatalf("storage.New() type = %T, want *wrappedRepo", repo)
	}
	if w.Repository != fakeRepo {
		t.Fatalf("wrappedRepo.Repository = %p, want %p", w.Repository, fakeRepo)
	}

	repo.Close()
	if !closed {
		t.Fatalf("wrappedRepo.Close() did not invoke closeFn")
	}
}

func TestDSNFor(t *testing.T) {
	if got := dsnFor(storage.Config{DSN: "file:x.db", Name: "SALES"}); got != "file:x.db" {
		t.Fatalf("dsnFor = %q", got)
	}
	if got := dsnFor(storage.Config{Name: "SALES"}); got != "SALES" {
		t.Fatalf("dsnFor = %q", got)
	}
}
