// Package report renders shopping plans for people: a printable checklist
// grouped by store and an XLSX workbook.
package report

import (
	"github.com/shopspring/decimal"
)

// moneyPlaces is the precision prices are shown with.
const moneyPlaces = 2

// Money rounds a computed amount to cents, half away from zero.
func Money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(moneyPlaces)
}

// FormatMoney renders an amount with exactly two decimals.
func FormatMoney(v float64) string {
	return Money(v).StringFixed(moneyPlaces)
}

// FormatPct renders a percentage with two decimals and a % sign.
func FormatPct(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2) + "%"
}

// FormatQuantity drops trailing zeros: 2, 1.5, 0.25.
func FormatQuantity(q float64) string {
	return decimal.NewFromFloat(q).String()
}
