// Package format holds pure display-formatting helpers for the API
// layer. Values are routed through decimal so rounding is exact
// instead of drifting with float printing.
package format

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency renders a price as a dollar amount with two decimals,
// e.g. 227.478 -> "$227.48".
func Currency(v float64) string {
	return "$" + decimal.NewFromFloat(v).Round(2).StringFixed(2)
}

// Percent renders a change percentage with a leading sign,
// e.g. 0.81 -> "+0.81%", -1.239 -> "-1.24%".
func Percent(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	if d.Sign() >= 0 {
		return "+" + d.StringFixed(2) + "%"
	}
	return d.StringFixed(2) + "%"
}

// Compact renders a large value in market-cap style, e.g.
// 3451020000000 -> "3.45T", 12450700 -> "12.45M".
func Compact(v float64) string {
	d := decimal.NewFromFloat(v)
	abs := d.Abs()
	switch {
	case abs.GreaterThanOrEqual(decimal.New(1, 12)):
		return d.Div(decimal.New(1, 12)).Round(2).StringFixed(2) + "T"
	case abs.GreaterThanOrEqual(decimal.New(1, 9)):
		return d.Div(decimal.New(1, 9)).Round(2).StringFixed(2) + "B"
	case abs.GreaterThanOrEqual(decimal.New(1, 6)):
		return d.Div(decimal.New(1, 6)).Round(2).StringFixed(2) + "M"
	case abs.GreaterThanOrEqual(decimal.New(1, 3)):
		return d.Div(decimal.New(1, 3)).Round(2).StringFixed(2) + "K"
	default:
		return fmt.Sprintf("%.2f", v)
	}
}
