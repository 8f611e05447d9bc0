package finance

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const bahtSymbol = "฿"

var (
	thaiPrinter = message.NewPrinter(language.Thai)
	hundred     = decimal.NewFromInt(100)
)

// FormatTHB renders an amount the way Thai-locale reports show money: ฿1,234.50
func FormatTHB(d decimal.Decimal) string {
	d = d.Round(2)
	if d.IsNegative() {
		return "-" + bahtSymbol + thaiPrinter.Sprintf("%.2f", d.Neg().InexactFloat64())
	}
	return bahtSymbol + thaiPrinter.Sprintf("%.2f", d.InexactFloat64())
}

// Percent renders a percentage with two decimals, e.g. 71.43%
func Percent(p float64) string {
	return thaiPrinter.Sprintf("%.2f%%", p)
}

// percentOf returns part/total*100 rounded to 2 decimals, 0 when total is zero
func percentOf(part, total decimal.Decimal) float64 {
	if total.IsZero() {
		return 0
	}
	return part.Div(total).Mul(hundred).Round(2).InexactFloat64()
}
