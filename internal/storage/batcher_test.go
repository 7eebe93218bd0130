package storage

import (
	"context"
	"errors"
	"testing"
)

// TestBatcher_GroupsRows verifies rows are grouped into batches of the
// configured size with a final partial batch on Flush.
func TestBatcher_GroupsRows(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	var sizes []int
	copyFn := func(_ context.Context, _ []string, rows [][]any) (int64, error) {
		sizes = append(sizes, len(rows))
		return int64(len(rows)), nil
	}

	b, err := NewBatcher([]string{"c1", "c2"}, 3, copyFn)
	if err != nil {
		t.Fatalf("NewBatcher: %v", err)
	}
	for i := 0; i < 7; i++ {
		if err := b.Add(ctx, []any{i, "x"}); err != nil {
			t.Fatalf("Add(%d): %v", i, err)
		}
	}
	if b.Pending() != 1 {
		t.Fatalf("Pending = %d, want 1", b.Pending())
	}
	if err := b.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := b.Flush(ctx); err != nil {
		t.Fatalf("second Flush: %v", err)
	}

	if len(sizes) != 3 || sizes[0] != 3 || sizes[1] != 3 || sizes[2] != 1 {
		t.Fatalf("batch sizes = %v, want [3 3 1]", sizes)
	}
	if b.Inserted() != 7 || b.Batches() != 3 {
		t.Fatalf("Inserted=%d Batches=%d, want 7 and 3", b.Inserted(), b.Batches())
	}
}

// TestBatcher_ErrorStopsCounting ensures a failed batch is reported, not
// counted, and discarded.
func TestBatcher_ErrorStopsCounting(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	wantErr := errors.New("duplicate key")
	calls := 0
	copyFn := func(_ context.Context, _ []string, rows [][]any) (int64, error) {
		calls++
		if calls == 2 {
			return 0, wantErr
		}
		return int64(len(rows)), nil
	}

	b, err := NewBatcher([]string{"c"}, 2, copyFn)
	if err != nil {
		t.Fatalf("NewBatcher: %v", err)
	}
	_ = b.Add(ctx, []any{1})
	_ = b.Add(ctx, []any{2})
	_ = b.Add(ctx, []any{3})
	err = b.Add(ctx, []any{4})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Add error = %v, want %v", err, wantErr)
	}
	if b.Inserted() != 2 || b.Batches() != 1 || b.Pending() != 0 {
		t.Fatalf("Inserted=%d Batches=%d Pending=%d", b.Inserted(), b.Batches(), b.Pending())
	}
}

func TestBatcher_Validation(t *testing.T) {
	t.Parallel()

	ok := func(context.Context, []string, [][]any) (int64, error) { return 0, nil }
	if _, err := NewBatcher([]string{"c"}, 0, ok); err == nil {
		t.Fatal("want error for zero batch size")
	}
	if _, err := NewBatcher([]string{"c"}, 1, nil); err == nil {
		t.Fatal("want error for nil copyFn")
	}

	b, _ := NewBatcher([]string{"a", "b"}, 10, ok)
	if err := b.Add(context.Background(), []any{1}); err == nil {
		t.Fatal("want error for short row")
	}
}

func TestBatcher_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	b, _ := NewBatcher([]string{"c"}, 10, func(context.Context, []string, [][]any) (int64, error) {
		called = true
		return 1, nil
	})
	_ = b.Add(context.Background(), []any{1})
	if err := b.Flush(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Flush error = %v, want context.Canceled", err)
	}
	if called {
		t.Fatal("copyFn called after cancellation")
	}
}
