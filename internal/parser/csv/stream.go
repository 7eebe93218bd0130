// Package csv provides streaming CSV reading for sales files.
//
// Reader emits records one at a time without whole-file buffering. A byte
// order mark (as written by spreadsheet exports) is removed before parsing.
// Malformed lines are soft errors: they are reported through onError and the
// stream continues.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Options controls how records are read.
type Options struct {
	// Comma is the field delimiter; zero means ','.
	Comma rune

	// TrimSpace trims leading and trailing whitespace from every field.
	TrimSpace bool
}

// Reader streams CSV records from an underlying io.Reader.
type Reader struct {
	cr   *csv.Reader
	opts Options
}

// NewReader wraps r. Records may have any number of fields; width checks are
// left to the caller.
func NewReader(r io.Reader, opts Options) *Reader {
	cr := csv.NewReader(stripBOM(r))
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false
	return &Reader{cr: cr, opts: opts}
}

// Header reads the first record. It returns io.EOF for empty input.
func (r *Reader) Header() ([]string, error) {
	h, err := r.cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	return r.clean(h), nil
}

// Stream reads every remaining record and calls fn with the record's 1-based
// starting line. Records that fail to parse go to onError (if non-nil) and
// are skipped.
//
// Stream returns nil at EOF, ctx.Err() on cancellation, the first error
// returned by fn, or a wrapped read error when the underlying reader fails.
func (r *Reader) Stream(
	ctx context.Context,
	fn func(line int, rec []string) error,
	onError func(line int, err error),
) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rec, err := r.cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return fmt.Errorf("read csv: %w", err)
			}
			if onError != nil {
				onError(pe.StartLine, fmt.Errorf("parse: %w", err))
			}
			continue
		}

		line, _ := r.cr.FieldPos(0)
		if err := fn(line, r.clean(rec)); err != nil {
			return err
		}
	}
}

func (r *Reader) clean(rec []string) []string {
	if !r.opts.TrimSpace {
		return rec
	}
	for i, v := range rec {
		rec[i] = strings.TrimSpace(v)
	}
	return rec
}
