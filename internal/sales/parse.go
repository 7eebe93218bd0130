package sales

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// ParseRaw turns one raw input record into a Row without derived fields.
//
// Fields are positional: Region, Country, Item Type, Sales Channel, Order
// Priority, Order Date, Order ID, Ship Date, Units Sold, Unit Price, Unit
// Cost, Total Revenue, Total Cost, Total Profit. Fields beyond the 14th are
// ignored. The priority code is expanded with Priority.
//
// Errors: ErrTooFewFields, ErrMissingOrderID, or a *FieldError for a numeric
// or date field that does not coerce. NaN and infinities are rejected with
// ErrNotFinite.
func ParseRaw(rec []string) (Row, error) {
	if len(rec) < RawFields {
		return Row{}, ErrTooFewFields
	}

	r := Row{
		Region:        rec[0],
		Country:       rec[1],
		ItemType:      rec[2],
		SalesChannel:  rec[3],
		OrderPriority: Priority(rec[4]),
		OrderDate:     rec[5],
		OrderID:       strings.TrimSpace(rec[6]),
		ShipDate:      rec[7],
	}
	if r.OrderID == "" {
		return Row{}, ErrMissingOrderID
	}

	var err error
	if r.UnitsSold, err = parseInt("Units Sold", rec[8]); err != nil {
		return Row{}, err
	}
	floats := []struct {
		name string
		dst  *float64
		raw  string
	}{
		{"Unit Price", &r.UnitPrice, rec[9]},
		{"Unit Cost", &r.UnitCost, rec[10]},
		{"Total Revenue", &r.TotalRevenue, rec[11]},
		{"Total Cost", &r.TotalCost, rec[12]},
		{"Total Profit", &r.TotalProfit, rec[13]},
	}
	for _, f := range floats {
		if *f.dst, err = parseFloat(f.name, f.raw); err != nil {
			return Row{}, err
		}
	}

	if _, err := parseDate("Order Date", r.OrderDate); err != nil {
		return Row{}, err
	}
	if _, err := parseDate("Ship Date", r.ShipDate); err != nil {
		return Row{}, err
	}
	return r, nil
}

func parseInt(field, s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, &FieldError{Field: field, Value: s, Err: err}
	}
	return v, nil
}

func parseFloat(field, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, &FieldError{Field: field, Value: s, Err: err}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &FieldError{Field: field, Value: s, Err: ErrNotFinite}
	}
	return v, nil
}

func parseDate(field, s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, &FieldError{Field: field, Value: s, Err: err}
	}
	return t, nil
}
