package sales

import (
	"strings"
)

// HeaderIndex maps transformed-file column names to their positions.
type HeaderIndex map[string]int

// NewHeaderIndex indexes header. Names are matched after trimming.
func NewHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

// Missing lists the expected load columns (the first 16 of Header) that are
// absent from the index.
func (h HeaderIndex) Missing() []string {
	var out []string
	for _, name := range Header[:16] {
		if _, ok := h[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}

func (h HeaderIndex) get(rec []string, name, def string) string {
	i, ok := h[name]
	if !ok || i >= len(rec) {
		return def
	}
	return strings.TrimSpace(rec[i])
}

// IsBlank reports whether every field of rec is empty or whitespace.
func IsBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// ParseTransformed reads one row of a transformed file by column name. The
// derived columns are taken as-is; nothing is recomputed. Absent numeric
// columns default to zero.
//
// Errors: ErrMissingOrderID, or a *FieldError when the Order ID is not an
// integer or a numeric/date field does not coerce.
func ParseTransformed(h HeaderIndex, rec []string) (Row, error) {
	r := Row{
		Region:        h.get(rec, "Region", ""),
		Country:       h.get(rec, "Country", ""),
		ItemType:      h.get(rec, "Item Type", ""),
		SalesChannel:  h.get(rec, "Sales Channel", ""),
		OrderPriority: h.get(rec, "Order Priority", ""),
		OrderDate:     h.get(rec, "Order Date", ""),
		OrderID:       h.get(rec, "Order ID", ""),
		ShipDate:      h.get(rec, "Ship Date", ""),
	}
	if r.OrderID == "" {
		return Row{}, ErrMissingOrderID
	}
	if _, err := r.Values(); err != nil {
		return Row{}, err
	}

	var err error
	if r.UnitsSold, err = parseInt("Units Sold", h.get(rec, "Units Sold", "0")); err != nil {
		return Row{}, err
	}
	if r.OrderProcessingTime, err = parseInt("Order Processing Time", h.get(rec, "Order Processing Time", "0")); err != nil {
		return Row{}, err
	}
	floats := []struct {
		name string
		dst  *float64
	}{
		{"Unit Price", &r.UnitPrice},
		{"Unit Cost", &r.UnitCost},
		{"Total Revenue", &r.TotalRevenue},
		{"Total Cost", &r.TotalCost},
		{"Total Profit", &r.TotalProfit},
		{"Gross Margin", &r.GrossMargin},
		{"Order Value", &r.OrderValue},
	}
	for _, f := range floats {
		if *f.dst, err = parseFloat(f.name, h.get(rec, f.name, "0")); err != nil {
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
