// Package load implements the BatchLoader stage: it reads a transformed
// sales file from object storage and replaces the contents of the sales
// table with it, committing one transaction per fixed-size batch.
//
// Load protocol:
//
//  1. Ensure the table exists (idempotent, committed).
//  2. In replace mode, truncate the table and commit. From here on the
//     previous snapshot is gone; a later failure leaves a partial table.
//  3. Read the file by header name. Wholly blank rows are ignored; every
//     other row counts as read. Rows without an Order ID or with fields that
//     do not coerce are logged and skipped.
//  4. Every BatchSize rows are inserted and committed as one transaction;
//     the final partial batch is flushed after the scan.
//
// Any failure in steps 1, 2 or 4, or while reading the object, fails the run.
// The in-flight batch is rolled back by the backend; committed batches stay.
package load

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"salesetl/internal/metrics"
	"salesetl/internal/objectstore"
	"salesetl/internal/parser/csv"
	"salesetl/internal/sales"
	"salesetl/internal/storage"
)

// Mode selects whether a load replaces the table contents or appends to them.
type Mode string

const (
	// ModeReplace truncates the table before loading (snapshot semantics).
	ModeReplace Mode = "replace"
	// ModeAppend keeps existing rows; keys already present fail their batch.
	ModeAppend Mode = "append"
)

// DefaultBatchSize is the number of rows per insert transaction.
const DefaultBatchSize = 1000

// skipSamples is how many skipped-row messages are kept for the summary.
const skipSamples = 20

// Options configures a Loader. Zero values select the defaults.
type Options struct {
	Table     string
	BatchSize int
	Mode      Mode
}

// Input names the transformed object to load.
type Input struct {
	Bucket string
	Key    string
}

// Result reports the outcome of a successful load.
type Result struct {
	RowsRead     int64
	RowsInserted int64
	Batches      int
	RowsSkipped  int
}

// Loader loads one transformed file per call to Load.
type Loader struct {
	store objectstore.Store
	repo  storage.Repository
	opts  Options
}

// New returns a Loader reading from store and writing through repo. The
// caller owns repo and closes it after the run.
func New(store objectstore.Store, repo storage.Repository, opts Options) *Loader {
	if opts.Table == "" {
		opts.Table = sales.DefaultTable
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Mode == "" {
		opts.Mode = ModeReplace
	}
	return &Loader{store: store, repo: repo, opts: opts}
}

// Load runs the load protocol for in.
func (l *Loader) Load(ctx context.Context, in Input) (res Result, err error) {
	start := time.Now()
	defer func() { metrics.RecordStage("load", err, time.Since(start)) }()

	if l.opts.Mode != ModeReplace && l.opts.Mode != ModeAppend {
		return Result{}, fmt.Errorf("load: unknown mode %q", l.opts.Mode)
	}

	runID := uuid.NewString()
	log.Printf("load: start run=%s bucket=%s key=%s table=%s mode=%s batch_size=%d",
		runID, in.Bucket, in.Key, l.opts.Table, l.opts.Mode, l.opts.BatchSize)

	if err := l.repo.EnsureTable(ctx, sales.Table(l.opts.Table)); err != nil {
		return Result{}, fmt.Errorf("load: ensure table: %w", err)
	}

	if l.opts.Mode == ModeReplace {
		if err := l.repo.Truncate(ctx); err != nil {
			return Result{}, fmt.Errorf("load: truncate: %w", err)
		}
		log.Printf("load: table %s truncated and committed run=%s; the previous snapshot is no longer recoverable", l.opts.Table, runID)
	}

	body, err := l.store.Get(ctx, in.Bucket, in.Key)
	if err != nil {
		return Result{}, fmt.Errorf("load: read input: %w", err)
	}
	defer body.Close()

	r := csv.NewReader(body, csv.Options{TrimSpace: true})
	header, err := r.Header()
	if errors.Is(err, io.EOF) {
		log.Printf("load: input s3://%s/%s is empty run=%s", in.Bucket, in.Key, runID)
		return Result{}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("load: read input: %w", err)
	}
	idx := sales.NewHeaderIndex(header)
	for _, name := range idx.Missing() {
		log.Printf("load: warning: expected column %q missing from input header; values default to empty/zero", name)
	}

	batcher, err := storage.NewBatcher(sales.TableColumns, l.opts.BatchSize, l.repo.CopyFrom)
	if err != nil {
		return Result{}, fmt.Errorf("load: %w", err)
	}
	skips := sales.NewSkipLog(skipSamples)

	streamErr := r.Stream(ctx,
		func(line int, rec []string) error {
			if sales.IsBlank(rec) {
				return nil
			}
			res.RowsRead++

			row, err := sales.ParseTransformed(idx, rec)
			if err != nil {
				skips.Add(&sales.RowError{Line: line, Err: err})
				return nil
			}
			vals, err := row.Values()
			if err != nil {
				skips.Add(&sales.RowError{Line: line, OrderID: row.OrderID, Err: err})
				return nil
			}
			return batcher.Add(ctx, vals)
		},
		func(line int, err error) {
			res.RowsRead++
			skips.Add(&sales.RowError{Line: line, Err: err})
		},
	)
	if streamErr == nil {
		streamErr = batcher.Flush(ctx)
	}

	res.RowsInserted = batcher.Inserted()
	res.Batches = batcher.Batches()
	res.RowsSkipped = skips.Count()
	skips.Log("load")
	metrics.RecordRows("load", "read", res.RowsRead)
	metrics.RecordRows("load", "inserted", res.RowsInserted)
	for reason, n := range skips.ByReason() {
		metrics.RecordRows("load", reason, int64(n))
	}

	if streamErr != nil {
		log.Printf("load: failed run=%s rows_read=%d committed=%d batches=%d err=%v",
			runID, res.RowsRead, res.RowsInserted, res.Batches, streamErr)
		return res, fmt.Errorf("load: %w", streamErr)
	}

	log.Printf("load: complete run=%s rows_read=%d rows_inserted=%d batches=%d skipped=%d elapsed=%s",
		runID, res.RowsRead, res.RowsInserted, res.Batches, res.RowsSkipped, time.Since(start).Truncate(time.Millisecond))
	return res, nil
}
