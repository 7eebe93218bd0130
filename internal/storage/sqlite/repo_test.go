package sqlite

import (
	"context"
	"strings"
	"testing"

	"salesetl/internal/ddl"
	"salesetl/internal/sales"
)

func newMemRepo(tb testing.TB) *Repository {
	tb.Helper()
	r, closeFn, err := NewRepository(context.Background(), Config{DSN: ":memory:", Table: "sales"})
	if err != nil {
		tb.Fatalf("NewRepository: %v", err)
	}
	tb.Cleanup(closeFn)
	return r
}

func saleRow(id int64, region string) []any {
	return []any{id, region, "Chad", "Office Supplies", "Online", "High",
		"1/27/2011", "2/12/2011", 4484, 651.21, 524.96, 2920025.64, 2353920.64, 566105.0, 16, 0.1938}
}

func count(t *testing.T, r *Repository) int64 {
	t.Helper()
	rows, err := r.Query(context.Background(), `SELECT COUNT(*) AS n FROM sales`)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	return rows[0]["n"].(int64)
}

func TestEnsureTable_Idempotent(t *testing.T) {
	t.Parallel()

	r := newMemRepo(t)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := r.EnsureTable(ctx, sales.Table("sales")); err != nil {
			t.Fatalf("EnsureTable #%d: %v", i+1, err)
		}
	}
	if n := count(t, r); n != 0 {
		t.Fatalf("count = %d, want 0", n)
	}
}

func TestCopyFrom_InsertsAndQueries(t *testing.T) {
	t.Parallel()

	r := newMemRepo(t)
	ctx := context.Background()
	if err := r.EnsureTable(ctx, sales.Table("sales")); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}

	n, err := r.CopyFrom(ctx, sales.TableColumns, [][]any{saleRow(1, "Asia"), saleRow(2, "Asia"), saleRow(3, "Europe")})
	if err != nil || n != 3 {
		t.Fatalf("CopyFrom = %d, %v; want 3, nil", n, err)
	}

	got, err := r.Query(ctx, `SELECT region, COUNT(order_id) AS orders FROM sales WHERE region = ? GROUP BY region`, "Asia")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 || got[0]["region"] != "Asia" || got[0]["orders"] != int64(2) {
		t.Fatalf("Query rows = %#v", got)
	}
}

// TestCopyFrom_DuplicateRollsBackBatch checks that a duplicate key inside a
// batch fails the call and leaves earlier committed batches in place.
func TestCopyFrom_DuplicateRollsBackBatch(t *testing.T) {
	t.Parallel()

	r := newMemRepo(t)
	ctx := context.Background()
	if err := r.EnsureTable(ctx, sales.Table("sales")); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
	if _, err := r.CopyFrom(ctx, sales.TableColumns, [][]any{saleRow(1, "Asia")}); err != nil {
		t.Fatalf("first batch: %v", err)
	}

	_, err := r.CopyFrom(ctx, sales.TableColumns, [][]any{saleRow(2, "Asia"), saleRow(2, "Asia")})
	if err == nil {
		t.Fatal("want error for duplicate order_id")
	}
	if n := count(t, r); n != 1 {
		t.Fatalf("count = %d, want 1 (failed batch rolled back)", n)
	}
}

func TestCopyFrom_RowLengthMismatch(t *testing.T) {
	t.Parallel()

	r := newMemRepo(t)
	ctx := context.Background()
	if err := r.EnsureTable(ctx, sales.Table("sales")); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
	_, err := r.CopyFrom(ctx, sales.TableColumns, [][]any{{int64(1)}})
	if err == nil || !strings.Contains(err.Error(), "has 1 values") {
		t.Fatalf("err = %v", err)
	}
	if _, err := r.CopyFrom(ctx, nil, nil); err == nil {
		t.Fatal("want error for empty columns")
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	r := newMemRepo(t)
	ctx := context.Background()
	if err := r.EnsureTable(ctx, sales.Table("sales")); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
	if _, err := r.CopyFrom(ctx, sales.TableColumns, [][]any{saleRow(1, "Asia"), saleRow(2, "Asia")}); err != nil {
		t.Fatalf("CopyFrom: %v", err)
	}
	if err := r.Truncate(ctx); err != nil {
		t.Fatalf("Truncate: %v", err)
	}
	if n := count(t, r); n != 0 {
		t.Fatalf("count after truncate = %d, want 0", n)
	}
}

func TestNewRepository_Validation(t *testing.T) {
	t.Parallel()

	if _, _, err := NewRepository(context.Background(), Config{Table: "sales"}); err == nil {
		t.Fatal("want error for empty DSN")
	}
	if _, _, err := NewRepository(context.Background(), Config{DSN: ":memory:"}); err == nil {
		t.Fatal("want error for empty table")
	}
}

func TestDialect_CreateTable(t *testing.T) {
	t.Parallel()

	got, err := ddl.BuildCreateTableSQL(sales.Table("sales"), Dialect)
	if err != nil {
		t.Fatalf("BuildCreateTableSQL: %v", err)
	}
	for _, want := range []string{
		`CREATE TABLE IF NOT EXISTS "sales"`,
		`"order_id" INTEGER NOT NULL`,
		`"region" VARCHAR(64)`,
		`"gross_margin" REAL`,
		`PRIMARY KEY ("order_id")`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("DDL missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, `"region" VARCHAR(64) NOT NULL`) {
		t.Errorf("nullable column rendered NOT NULL:\n%s", got)
	}
}
