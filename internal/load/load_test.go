package load

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"salesetl/internal/ddl"
	"salesetl/internal/objectstore"
	"salesetl/internal/objectstore/file"
	"salesetl/internal/sales"
	"salesetl/internal/storage/sqlite"
)

const testBucket = "sales-bucket"

// fakeRepo records every call made by the loader.
type fakeRepo struct {
	calls      []string
	batches    []int
	rows       [][]any
	failBatch  int // 1-based batch number that fails; 0 = never
	truncErr   error
	ensureErr  error
	ensuredFor string
}

func (f *fakeRepo) EnsureTable(_ context.Context, def ddl.TableDef) error {
	f.calls = append(f.calls, "ensure")
	f.ensuredFor = def.FQN
	return f.ensureErr
}

func (f *fakeRepo) Truncate(context.Context) error {
	f.calls = append(f.calls, "truncate")
	return f.truncErr
}

func (f *fakeRepo) CopyFrom(_ context.Context, _ []string, rows [][]any) (int64, error) {
	f.calls = append(f.calls, "copy")
	if f.failBatch == len(f.batches)+1 {
		return 0, errors.New("duplicate entry")
	}
	f.batches = append(f.batches, len(rows))
	f.rows = append(f.rows, rows...)
	return int64(len(rows)), nil
}

func (f *fakeRepo) Query(context.Context, string, ...any) ([]map[string]any, error) { return nil, nil }
func (f *fakeRepo) Close()                                                           {}

// transformedCSV renders n valid transformed rows with ids 1..n.
func transformedCSV(n int) string {
	var sb strings.Builder
	sb.WriteString(strings.Join(sales.Header, ",") + "\n")
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&sb, "Asia,Japan,Snacks,Online,High,1/2/2020,%d,1/5/2020,10,2.5,1.5,25,15,10,3,0.4,25\n", i)
	}
	return sb.String()
}

func putObject(t *testing.T, body string) objectstore.Store {
	t.Helper()
	st := file.New(t.TempDir())
	if err := st.Put(context.Background(), testBucket, "transformed/in.csv", strings.NewReader(body), "text/csv"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	return st
}

// TestLoad_CommitsFixedSizeBatches checks that 2500 valid rows with the
// default batch size produce commits of 1000, 1000 and 500 rows.
func TestLoad_CommitsFixedSizeBatches(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	l := New(putObject(t, transformedCSV(2500)), repo, Options{})

	res, err := l.Load(context.Background(), Input{Bucket: testBucket, Key: "transformed/in.csv"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := fmt.Sprint(repo.batches); got != "[1000 1000 500]" {
		t.Fatalf("batches = %s, want [1000 1000 500]", got)
	}
	if res.RowsRead != 2500 || res.RowsInserted != 2500 || res.Batches != 3 {
		t.Fatalf("result = %+v", res)
	}
	if repo.calls[0] != "ensure" || repo.calls[1] != "truncate" {
		t.Fatalf("call order = %v, want ensure, truncate first", repo.calls[:2])
	}
	if repo.ensuredFor != "sales" {
		t.Fatalf("EnsureTable table = %q, want sales", repo.ensuredFor)
	}
	if id, ok := repo.rows[0][0].(int64); !ok || id != 1 {
		t.Fatalf("first order_id = %#v, want int64(1)", repo.rows[0][0])
	}
}

func TestLoad_AppendSkipsTruncate(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	l := New(putObject(t, transformedCSV(3)), repo, Options{Mode: ModeAppend, BatchSize: 2})
	if _, err := l.Load(context.Background(), Input{Bucket: testBucket, Key: "transformed/in.csv"}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, c := range repo.calls {
		if c == "truncate" {
			t.Fatalf("append mode truncated the table: %v", repo.calls)
		}
	}
	if fmt.Sprint(repo.batches) != "[2 1]" {
		t.Fatalf("batches = %v", repo.batches)
	}
}

func TestLoad_SkipsBlankAndInvalidRows(t *testing.T) {
	t.Parallel()

	body := strings.Join(sales.Header, ",") + "\n" +
		"Asia,Japan,Snacks,Online,High,1/2/2020,1,1/5/2020,10,2.5,1.5,25,15,10,3,0.4,25\n" +
		",,,,,,,,,,,,,,,,\n" +
		"Asia,Japan,Snacks,Online,High,1/2/2020,,1/5/2020,10,2.5,1.5,25,15,10,3,0.4,25\n" +
		"Asia,Japan,Snacks,Online,High,1/2/2020,3,1/5/2020,ten,2.5,1.5,25,15,10,3,0.4,25\n" +
		"Asia,Japan,Snacks,Online,High,1/2/2020,4,1/5/2020,10,2.5,1.5,25,15,10,3,0.4,25\n"

	repo := &fakeRepo{}
	l := New(putObject(t, body), repo, Options{})
	res, err := l.Load(context.Background(), Input{Bucket: testBucket, Key: "transformed/in.csv"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.RowsRead != 4 || res.RowsInserted != 2 || res.RowsSkipped != 2 {
		t.Fatalf("result = %+v, want read=4 inserted=2 skipped=2", res)
	}
}

func TestLoad_SkipsNonFiniteValues(t *testing.T) {
	t.Parallel()

	body := strings.Join(sales.Header, ",") + "\n" +
		"Asia,Japan,Snacks,Online,High,1/2/2020,1,1/5/2020,10,2.5,1.5,25,15,10,3,+Inf,25\n" +
		"Asia,Japan,Snacks,Online,High,1/2/2020,2,1/5/2020,10,2.5,1.5,NaN,15,10,3,0.4,25\n" +
		"Asia,Japan,Snacks,Online,High,1/2/2020,3,1/5/2020,10,2.5,1.5,25,15,10,3,0.4,25\n"

	repo := &fakeRepo{}
	l := New(putObject(t, body), repo, Options{})
	res, err := l.Load(context.Background(), Input{Bucket: testBucket, Key: "transformed/in.csv"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.RowsRead != 3 || res.RowsInserted != 1 || res.RowsSkipped != 2 {
		t.Fatalf("result = %+v, want read=3 inserted=1 skipped=2", res)
	}
	if len(repo.rows) != 1 || repo.rows[0][0] != int64(3) {
		t.Fatalf("inserted rows = %v, want only order 3", repo.rows)
	}
}

func TestLoad_FatalErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		repo    *fakeRepo
		key     string
		wantErr string
	}{
		{"ensure table", &fakeRepo{ensureErr: errors.New("no privilege")}, "transformed/in.csv", "ensure table"},
		{"truncate", &fakeRepo{truncErr: errors.New("lock timeout")}, "transformed/in.csv", "truncate"},
		{"missing object", &fakeRepo{}, "transformed/nope.csv", "read input"},
		{"batch insert", &fakeRepo{failBatch: 2}, "transformed/in.csv", "duplicate entry"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			l := New(putObject(t, transformedCSV(5)), tt.repo, Options{BatchSize: 2})
			res, err := l.Load(context.Background(), Input{Bucket: testBucket, Key: tt.key})
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Load error = %v, want %q", err, tt.wantErr)
			}
			if tt.name == "batch insert" && res.RowsInserted != 2 {
				t.Fatalf("committed rows = %d, want 2 (first batch kept)", res.RowsInserted)
			}
			if tt.name == "missing object" && !errors.Is(err, objectstore.ErrNotFound) {
				t.Fatalf("err = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestLoad_EmptyObject(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	l := New(putObject(t, ""), repo, Options{})
	res, err := l.Load(context.Background(), Input{Bucket: testBucket, Key: "transformed/in.csv"})
	if err != nil || res != (Result{}) {
		t.Fatalf("Load = %+v, %v; want zero result", res, err)
	}
}

func TestLoad_UnknownMode(t *testing.T) {
	t.Parallel()

	l := New(putObject(t, transformedCSV(1)), &fakeRepo{}, Options{Mode: "merge"})
	if _, err := l.Load(context.Background(), Input{Bucket: testBucket, Key: "transformed/in.csv"}); err == nil {
		t.Fatal("want error for unknown mode")
	}
}

// sqliteRepo adapts *sqlite.Repository to storage.Repository. Close is a
// no-op; the connection is closed by the t.Cleanup registered in openSQLite.
type sqliteRepo struct {
	*sqlite.Repository
}

func (sqliteRepo) Close() {}

func openSQLite(t *testing.T) sqliteRepo {
	t.Helper()
	r, closeFn, err := sqlite.NewRepository(context.Background(), sqlite.Config{DSN: ":memory:", Table: "sales"})
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	t.Cleanup(closeFn)
	return sqliteRepo{r}
}

func countRows(t *testing.T, r sqliteRepo) int64 {
	t.Helper()
	rows, err := r.Query(context.Background(), "SELECT COUNT(*) AS n FROM sales")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	return rows[0]["n"].(int64)
}

// TestLoad_ReplaceTwiceKeepsOneSnapshot loads the same file twice and checks
// the table holds exactly the file's rows afterwards.
func TestLoad_ReplaceTwiceKeepsOneSnapshot(t *testing.T) {
	t.Parallel()

	repo := openSQLite(t)
	l := New(putObject(t, transformedCSV(1234)), repo, Options{})

	for i := 0; i < 2; i++ {
		res, err := l.Load(context.Background(), Input{Bucket: testBucket, Key: "transformed/in.csv"})
		if err != nil {
			t.Fatalf("Load #%d: %v", i+1, err)
		}
		if res.RowsInserted != 1234 || res.Batches != 2 {
			t.Fatalf("Load #%d result = %+v", i+1, res)
		}
	}
	if n := countRows(t, repo); n != 1234 {
		t.Fatalf("table rows = %d, want 1234", n)
	}
}

// TestLoad_DuplicateInBatchFailsRun checks that a repeated Order ID fails its
// batch, the run reports an error, and earlier batches stay committed.
func TestLoad_DuplicateInBatchFailsRun(t *testing.T) {
	t.Parallel()

	body := transformedCSV(3) +
		"Asia,Japan,Snacks,Online,High,1/2/2020,3,1/5/2020,10,2.5,1.5,25,15,10,3,0.4,25\n"

	repo := openSQLite(t)
	l := New(putObject(t, body), repo, Options{BatchSize: 2})
	res, err := l.Load(context.Background(), Input{Bucket: testBucket, Key: "transformed/in.csv"})
	if err == nil {
		t.Fatal("want error for duplicate order id inside a batch")
	}
	if res.RowsInserted != 2 {
		t.Fatalf("committed = %d, want 2", res.RowsInserted)
	}
	if n := countRows(t, repo); n != 2 {
		t.Fatalf("table rows = %d, want 2 (failed batch rolled back)", n)
	}
}
