// Package transform implements the TransformPipeline stage: one forward pass
// over a raw sales file that parses, deduplicates and enriches each row and
// streams the 17-column result back to object storage.
//
// The output is written through an io.Pipe while it is produced, so memory
// stays bounded by the CSV writer and pipe buffers regardless of file size.
package transform

import (
	"context"
	encsv "encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"salesetl/internal/metrics"
	"salesetl/internal/objectstore"
	"salesetl/internal/parser/csv"
	"salesetl/internal/sales"
)

// timestampLayout renders local time with microseconds; ':' is replaced
// with '-' to keep object keys filesystem friendly.
const timestampLayout = "2006-01-02T15:04:05.000000"

const skipSamples = 20

// Input names the raw object to transform.
type Input struct {
	Bucket string
	Key    string
}

// Result reports a completed transform.
type Result struct {
	RowsRead        int64
	RowsTransformed int64
	RowsSkipped     int64
	AvgRevenue      float64
	AvgProfit       float64
	OutputKey       string
	Bucket          string
}

// Summary renders the one-line human-readable outcome.
func (r Result) Summary() string {
	return fmt.Sprintf("Transformed %d rows. AvgRevenue=%s AvgProfit=%s",
		r.RowsTransformed, formatFloat(r.AvgRevenue), formatFloat(r.AvgProfit))
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// OutputKey returns the key the transformed file is written under.
func OutputKey(inputKey string, now time.Time) string {
	ts := strings.ReplaceAll(now.Format(timestampLayout), ":", "-")
	return "transformed/" + inputKey + "_transformed_" + ts + ".csv"
}

// Pipeline transforms one raw file per call to Run.
type Pipeline struct {
	store objectstore.Store

	// Now stamps output keys; tests replace it for deterministic keys.
	Now func() time.Time
}

// New returns a Pipeline reading and writing through store.
func New(store objectstore.Store) *Pipeline {
	return &Pipeline{store: store, Now: time.Now}
}

// Run transforms s3://in.Bucket/in.Key into a new object in the same bucket.
//
// Row-level failures are logged, counted and skipped. Only a failure to read
// the input or to write the output fails the run.
func (p *Pipeline) Run(ctx context.Context, in Input) (res Result, err error) {
	start := time.Now()
	defer func() { metrics.RecordStage("transform", err, time.Since(start)) }()

	runID := uuid.NewString()
	log.Printf("transform: start run=%s bucket=%s key=%s", runID, in.Bucket, in.Key)

	body, err := p.store.Get(ctx, in.Bucket, in.Key)
	if err != nil {
		return Result{}, fmt.Errorf("transform: read input: %w", err)
	}
	defer body.Close()

	outKey := OutputKey(in.Key, p.Now())
	skips := sales.NewSkipLog(skipSamples)
	var m RunMetrics

	pr, pw := io.Pipe()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := p.store.Put(gctx, in.Bucket, outKey, pr, "text/csv")
		// Unblock the writer if the upload stopped reading early.
		pr.CloseWithError(err)
		if err != nil {
			return fmt.Errorf("transform: write output: %w", err)
		}
		return nil
	})
	var rowsErr error
	g.Go(func() error {
		// A failed upload reaches this side as a pipe write error.
		rowsErr = transformRows(ctx, body, pw, &m, skips)
		pw.CloseWithError(rowsErr)
		return rowsErr
	})
	if err := g.Wait(); err != nil {
		// A failed read also aborts the upload; report the cause.
		if rowsErr != nil {
			err = rowsErr
		}
		log.Printf("transform: failed run=%s rows_read=%d err=%v", runID, m.RowsRead, err)
		return Result{}, err
	}

	m.RowsSkipped = int64(skips.Count())
	skips.Log("transform")
	metrics.RecordRows("transform", "read", m.RowsRead)
	metrics.RecordRows("transform", "transformed", m.RowsTransformed)
	for reason, n := range skips.ByReason() {
		metrics.RecordRows("transform", reason, int64(n))
	}

	avgRevenue, avgProfit := m.Averages()
	res = Result{
		RowsRead:        m.RowsRead,
		RowsTransformed: m.RowsTransformed,
		RowsSkipped:     m.RowsSkipped,
		AvgRevenue:      avgRevenue,
		AvgProfit:       avgProfit,
		OutputKey:       outKey,
		Bucket:          in.Bucket,
	}
	log.Printf("transform: complete run=%s rows_read=%d rows_transformed=%d skipped=%d distinct_ids=%d output=%s/%s elapsed=%s",
		runID, res.RowsRead, res.RowsTransformed, res.RowsSkipped, m.DistinctIDs, in.Bucket, outKey, time.Since(start).Truncate(time.Millisecond))
	return res, nil
}

// transformRows reads raw records from r and writes the header plus one
// transformed record per accepted row to w.
func transformRows(ctx context.Context, r io.Reader, w io.Writer, m *RunMetrics, skips *sales.SkipLog) error {
	dedup := sales.NewDeduplicator()
	defer func() { m.DistinctIDs = dedup.Len() }()

	out := encsv.NewWriter(w)
	if err := out.Write(sales.Header); err != nil {
		return fmt.Errorf("transform: write output: %w", err)
	}

	in := csv.NewReader(r, csv.Options{})
	if _, err := in.Header(); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("transform: read input: %w", err)
	}

	var writeErr error
	err := in.Stream(ctx,
		func(line int, rec []string) error {
			m.RowsRead++
			row, err := sales.ParseRaw(rec)
			if err != nil {
				skips.Add(&sales.RowError{Line: line, OrderID: rawOrderID(rec), Err: err})
				return nil
			}
			if !dedup.Admit(row.OrderID) {
				skips.Add(&sales.RowError{Line: line, OrderID: row.OrderID, Err: sales.ErrDuplicate})
				return nil
			}
			row, err = sales.Enrich(row)
			if err != nil {
				skips.Add(&sales.RowError{Line: line, OrderID: row.OrderID, Err: err})
				return nil
			}
			if err := out.Write(row.Record()); err != nil {
				writeErr = fmt.Errorf("transform: write output: %w", err)
				return writeErr
			}
			m.Add(row)
			return nil
		},
		func(line int, err error) {
			m.RowsRead++
			skips.Add(&sales.RowError{Line: line, Err: err})
		},
	)
	switch {
	case err == nil:
	case writeErr != nil:
		return writeErr
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("transform: read input: %w", err)
	}

	out.Flush()
	if err := out.Error(); err != nil {
		return fmt.Errorf("transform: write output: %w", err)
	}
	return nil
}

// rawOrderID labels a skipped record when it is too broken to parse.
func rawOrderID(rec []string) string {
	if len(rec) <= 6 {
		return ""
	}
	return strings.TrimSpace(rec[6])
}
