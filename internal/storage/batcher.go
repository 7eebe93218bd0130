package storage

import (
	"context"
	"fmt"
	"log"
	"time"

	"salesetl/internal/metrics"
)

// CopyFn abstracts a backend's bulk insert. It inserts rows (aligned to
// columns) as one transaction and returns the number of rows inserted.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// Batcher accumulates rows and hands them to a CopyFn in groups of Size.
// Each group becomes one insert transaction. A Batcher is not safe for
// concurrent use.
//
// On every successful flush a progress line is logged with running totals
// and rows/sec since the previous flush.
type Batcher struct {
	columns []string
	size    int
	copyFn  CopyFn

	batch   [][]any
	total   int64
	batches int

	start     time.Time
	lastFlush time.Time
	lastTotal int64
}

// NewBatcher returns a Batcher that flushes every size rows.
func NewBatcher(columns []string, size int, copyFn CopyFn) (*Batcher, error) {
	if size <= 0 {
		return nil, fmt.Errorf("batchSize must be > 0")
	}
	if copyFn == nil {
		return nil, fmt.Errorf("copyFn must not be nil")
	}
	now := time.Now()
	return &Batcher{
		columns:   columns,
		size:      size,
		copyFn:    copyFn,
		batch:     make([][]any, 0, size),
		start:     now,
		lastFlush: now,
	}, nil
}

// Add appends row and flushes once the batch is full.
func (b *Batcher) Add(ctx context.Context, row []any) error {
	if len(row) != len(b.columns) {
		return fmt.Errorf("storage: row has %d values, want %d", len(row), len(b.columns))
	}
	b.batch = append(b.batch, row)
	if len(b.batch) >= b.size {
		return b.Flush(ctx)
	}
	return nil
}

// Flush inserts the pending rows, if any. The pending batch is discarded
// whether or not the insert succeeds.
func (b *Batcher) Flush(ctx context.Context) error {
	if len(b.batch) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	pending := len(b.batch)
	n, err := b.copyFn(ctx, b.columns, b.batch)
	b.batch = b.batch[:0]
	if err != nil {
		log.Printf("loader: batch #%d failed rows=%d total_inserted=%d err=%v", b.batches+1, pending, b.total, err)
		return fmt.Errorf("storage: batch #%d: %w", b.batches+1, err)
	}
	b.total += n
	b.batches++
	metrics.RecordBatch("load", int(n))

	now := time.Now()
	sinceLast := now.Sub(b.lastFlush)
	rps := float64(0)
	if sinceLast > 0 {
		rps = float64(b.total-b.lastTotal) / sinceLast.Seconds()
	}
	log.Printf(
		"batch #%d: rps=%.0f inserted=%d total_inserted=%d elapsed=%s since_last=%s",
		b.batches,
		rps,
		n,
		b.total,
		now.Sub(b.start).Truncate(time.Millisecond),
		sinceLast.Truncate(time.Millisecond),
	)
	b.lastFlush = now
	b.lastTotal = b.total
	return nil
}

// Inserted returns the rows committed so far.
func (b *Batcher) Inserted() int64 { return b.total }

// Batches returns the number of committed batches.
func (b *Batcher) Batches() int { return b.batches }

// Pending returns the number of rows waiting for the next flush.
func (b *Batcher) Pending() int { return len(b.batch) }
