package finance

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrRecurringMonths = errors.New("recurring_months must be greater than 1")
	ErrNegativeAmount  = errors.New("amount must not be negative")
)

// RecurringPlan is one logical expense to be spread over Months installments
type RecurringPlan struct {
	Total       decimal.Decimal
	Months      int
	Date        time.Time
	Description string
}

// Installment is one generated monthly slice of a RecurringPlan
type Installment struct {
	Sequence    int
	Amount      decimal.Decimal
	Date        time.Time
	Description string
}

// SplitRecurring expands a plan into Months installments. Each installment is
// Total/Months truncated to whole currency units; the remainder is not
// redistributed, so the installments may sum to less than Total (at most
// Months units less). Installment 1 keeps the original date and description.
//
// Floor is deliberate. Rounding to the nearest unit can make
// the installments sum to more than Total (1001.6 over 3 rounds to
// 3 x 334 = 1002). Do not switch it to Round.
func SplitRecurring(p RecurringPlan) ([]Installment, error) {
	if p.Months <= 1 {
		return nil, ErrRecurringMonths
	}
	if p.Total.IsNegative() {
		return nil, ErrNegativeAmount
	}

	monthly := p.Total.Div(decimal.NewFromInt(int64(p.Months))).Floor()

	out := make([]Installment, p.Months)
	for i := range out {
		seq := i + 1
		desc := p.Description
		if seq > 1 {
			desc = InstallmentDescription(p.Description, seq, p.Months)
		}
		out[i] = Installment{
			Sequence:    seq,
			Amount:      monthly,
			Date:        AddMonthsClamped(p.Date, i),
			Description: desc,
		}
	}
	return out, nil
}

// InstallmentDescription appends the "(installment i/N)" marker
func InstallmentDescription(base string, seq, months int) string {
	return fmt.Sprintf("%s (installment %d/%d)", base, seq, months)
}
