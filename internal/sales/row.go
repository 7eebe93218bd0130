// Package sales holds the sales-record domain: the typed Row, the raw-record
// parser, the per-run de-duplicator, the enricher that derives computed
// fields, and the parser for already-transformed rows used by the loader.
package sales

import (
	"fmt"
	"strconv"
)

// RawFields is the minimum number of positional fields in a raw record.
const RawFields = 14

// DateLayout is the fixed MM/DD/YYYY layout of Order Date and Ship Date.
// One- and two-digit month and day are both accepted.
const DateLayout = "1/2/2006"

// Header is the 17-column layout of a transformed file.
var Header = []string{
	"Region", "Country", "Item Type", "Sales Channel", "Order Priority",
	"Order Date", "Order ID", "Ship Date", "Units Sold", "Unit Price",
	"Unit Cost", "Total Revenue", "Total Cost", "Total Profit",
	"Order Processing Time", "Gross Margin", "Order Value",
}

// Row is one typed sales record. OrderProcessingTime, GrossMargin and
// OrderValue are derived by Enrich.
type Row struct {
	Region        string
	Country       string
	ItemType      string
	SalesChannel  string
	OrderPriority string
	OrderDate     string
	OrderID       string
	ShipDate      string
	UnitsSold     int
	UnitPrice     float64
	UnitCost      float64
	TotalRevenue  float64
	TotalCost     float64
	TotalProfit   float64

	OrderProcessingTime int
	GrossMargin         float64
	OrderValue          float64
}

// Record renders r in Header order.
func (r Row) Record() []string {
	return []string{
		r.Region,
		r.Country,
		r.ItemType,
		r.SalesChannel,
		r.OrderPriority,
		r.OrderDate,
		r.OrderID,
		r.ShipDate,
		strconv.Itoa(r.UnitsSold),
		formatFloat(r.UnitPrice),
		formatFloat(r.UnitCost),
		formatFloat(r.TotalRevenue),
		formatFloat(r.TotalCost),
		formatFloat(r.TotalProfit),
		strconv.Itoa(r.OrderProcessingTime),
		formatFloat(r.GrossMargin),
		formatFloat(r.OrderValue),
	}
}

// Values returns r aligned to TableColumns, with OrderID coerced to int64.
func (r Row) Values() ([]any, error) {
	id, err := strconv.ParseInt(r.OrderID, 10, 64)
	if err != nil {
		return nil, &FieldError{Field: "Order ID", Value: r.OrderID, Err: err}
	}
	return []any{
		id,
		r.Region,
		r.Country,
		r.ItemType,
		r.SalesChannel,
		r.OrderPriority,
		r.OrderDate,
		r.ShipDate,
		r.UnitsSold,
		r.UnitPrice,
		r.UnitCost,
		r.TotalRevenue,
		r.TotalCost,
		r.TotalProfit,
		r.OrderProcessingTime,
		r.GrossMargin,
	}, nil
}

func (r Row) String() string {
	return fmt.Sprintf("order %s (%s/%s %s)", r.OrderID, r.Region, r.Country, r.ItemType)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
