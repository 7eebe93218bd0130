package sales

import (
	"math"
	"strconv"
)

const secondsPerDay = 24 * 60 * 60

// Enrich computes the derived fields of a parsed row:
//
//   - OrderProcessingTime: whole days from Order Date to Ship Date; negative
//     when the dates are inverted.
//   - GrossMargin: TotalProfit / TotalRevenue; ErrZeroRevenue when
//     TotalRevenue is zero.
//   - OrderValue: UnitsSold * UnitPrice.
//
// A margin or order value that is not finite (a subnormal revenue, an
// overflowing product) is a *FieldError wrapping ErrNotFinite.
func Enrich(r Row) (Row, error) {
	od, err := parseDate("Order Date", r.OrderDate)
	if err != nil {
		return Row{}, err
	}
	sd, err := parseDate("Ship Date", r.ShipDate)
	if err != nil {
		return Row{}, err
	}
	if r.TotalRevenue == 0 {
		return Row{}, ErrZeroRevenue
	}

	// Both dates parse as UTC midnight, so the difference is a whole number
	// of days.
	r.OrderProcessingTime = int((sd.Unix() - od.Unix()) / secondsPerDay)
	r.GrossMargin = r.TotalProfit / r.TotalRevenue
	r.OrderValue = float64(r.UnitsSold) * r.UnitPrice
	if err := finite("Gross Margin", r.GrossMargin); err != nil {
		return Row{}, err
	}
	if err := finite("Order Value", r.OrderValue); err != nil {
		return Row{}, err
	}
	return r, nil
}

// finite rejects overflowed derived values so they never reach the output.
func finite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &FieldError{Field: field, Value: strconv.FormatFloat(v, 'g', -1, 64), Err: ErrNotFinite}
	}
	return nil
}
