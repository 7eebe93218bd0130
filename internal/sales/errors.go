package sales

import (
	"errors"
	"fmt"
)

var (
	// ErrTooFewFields reports a raw record with fewer than RawFields fields.
	ErrTooFewFields = errors.New("too few fields")

	// ErrMissingOrderID reports an empty (after trimming) Order ID.
	ErrMissingOrderID = errors.New("missing order id")

	// ErrZeroRevenue reports a row whose gross margin cannot be computed
	// because Total Revenue is exactly zero.
	ErrZeroRevenue = errors.New("total revenue is zero")

	// ErrNotFinite reports a numeric value that is NaN or infinite, whether
	// read from input or derived by Enrich.
	ErrNotFinite = errors.New("value is not finite")
)

// FieldError reports a field that failed numeric or date coercion.
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: cannot parse %q: %v", e.Field, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// RowError ties a row-level failure to its input line. Row errors never
// abort a run; callers skip the row and count it.
type RowError struct {
	Line    int
	OrderID string
	Err     error
}

func (e *RowError) Error() string {
	if e.OrderID != "" {
		return fmt.Sprintf("line %d (order %s): %v", e.Line, e.OrderID, e.Err)
	}
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Reason classifies err into a short, stable label used for skip counters
// and metrics.
func Reason(err error) string {
	var fe *FieldError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTooFewFields):
		return "too_few_fields"
	case errors.Is(err, ErrMissingOrderID):
		return "missing_order_id"
	case errors.Is(err, ErrZeroRevenue):
		return "zero_revenue"
	case errors.Is(err, ErrDuplicate):
		return "duplicate"
	case errors.As(err, &fe):
		return "bad_field"
	default:
		return "other"
	}
}
