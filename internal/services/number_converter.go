package services

import (
	"fmt"
	"strings"

	"github.com/divan/num2words"
	"github.com/shopspring/decimal"
)

// AmountInWords spells out a baht amount for printed receipts
// Example: 1500.50 -> "ONE THOUSAND FIVE HUNDRED BAHT AND 50/100"
func AmountInWords(amount decimal.Decimal) string {
	amount = amount.Round(2)
	baht := amount.IntPart()
	satang := amount.Sub(decimal.NewFromInt(baht)).Shift(2).Abs().IntPart()

	words := num2words.Convert(int(baht))
	return fmt.Sprintf("%s BAHT AND %02d/100", strings.ToUpper(words), satang)
}
