package finance

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitRecurring(t *testing.T) {
	start := time.Date(2025, time.January, 31, 9, 0, 0, 0, time.UTC)

	parts, err := SplitRecurring(RecurringPlan{
		Total:       decimal.NewFromInt(12000),
		Months:      3,
		Date:        start,
		Description: "Studio rent",
	})
	require.NoError(t, err)
	require.Len(t, parts, 3)

	assert.Equal(t, 1, parts[0].Sequence)
	assert.Equal(t, "Studio rent", parts[0].Description)
	assert.Equal(t, start, parts[0].Date)

	assert.Equal(t, "Studio rent (installment 2/3)", parts[1].Description)
	assert.Equal(t, time.Date(2025, time.February, 28, 9, 0, 0, 0, time.UTC), parts[1].Date)
	assert.Equal(t, time.Date(2025, time.March, 31, 9, 0, 0, 0, time.UTC), parts[2].Date)

	for _, p := range parts {
		assert.Equal(t, "4000", p.Amount.String())
	}
}

func TestSplitRecurring_RemainderIsNotRedistributed(t *testing.T) {
	parts, err := SplitRecurring(RecurringPlan{
		Total:  decimal.NewFromInt(1000),
		Months: 3,
		Date:   day(2025, time.May, 1),
	})
	require.NoError(t, err)

	sum := decimal.Zero
	for _, p := range parts {
		assert.Equal(t, "333", p.Amount.String())
		sum = sum.Add(p.Amount)
	}
	assert.Equal(t, "999", sum.String())
}

func TestSplitRecurring_Invalid(t *testing.T) {
	tests := []struct {
		name string
		plan RecurringPlan
		err  error
	}{
		{"single month", RecurringPlan{Total: decimal.NewFromInt(100), Months: 1}, ErrRecurringMonths},
		{"zero months", RecurringPlan{Total: decimal.NewFromInt(100)}, ErrRecurringMonths},
		{"negative amount", RecurringPlan{Total: decimal.NewFromInt(-1), Months: 2}, ErrNegativeAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SplitRecurring(tt.plan)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestAddMonthsClamped(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		n    int
		want time.Time
	}{
		{"leap year february", day(2024, time.January, 31), 1, day(2024, time.February, 29)},
		{"across year end", day(2025, time.November, 30), 3, day(2026, time.February, 28)},
		{"plain", day(2025, time.March, 15), 2, day(2025, time.May, 15)},
		{"zero", day(2025, time.March, 31), 0, day(2025, time.March, 31)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AddMonthsClamped(tt.in, tt.n))
		})
	}
}

func TestSplitRecurring_ConservationProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(2025))

	for iter := 0; iter < 500; iter++ {
		total := decimal.New(rng.Int63n(10_000_000), -2)
		months := 2 + rng.Intn(35)

		parts, err := SplitRecurring(RecurringPlan{Total: total, Months: months, Date: day(2025, time.January, 1+rng.Intn(31))})
		require.NoError(t, err)
		require.Len(t, parts, months)

		sum := decimal.Zero
		seen := make(map[int]bool)
		for _, p := range parts {
			sum = sum.Add(p.Amount)
			assert.False(t, seen[p.Sequence], "duplicate sequence %d", p.Sequence)
			seen[p.Sequence] = true
			assert.GreaterOrEqual(t, p.Sequence, 1)
			assert.LessOrEqual(t, p.Sequence, months)
		}

		lower := total.Sub(decimal.NewFromInt(int64(months)))
		assert.True(t, sum.LessThanOrEqual(total), "sum %s exceeds total %s", sum, total)
		assert.True(t, sum.GreaterThanOrEqual(lower), "sum %s below %s", sum, lower)
	}
}

func TestSplitRecurring_NeverExceedsTotal(t *testing.T) {
	total := decimal.RequireFromString("1001.6")
	parts, err := SplitRecurring(RecurringPlan{Total: total, Months: 3, Date: time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)

	sum := decimal.Zero
	for _, p := range parts {
		assert.True(t, p.Amount.Equal(decimal.NewFromInt(333)), p.Amount.String())
		sum = sum.Add(p.Amount)
	}
	assert.True(t, sum.LessThanOrEqual(total))
}
