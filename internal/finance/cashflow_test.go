package finance

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCashFlow_RunningBalance(t *testing.T) {
	r, err := NewDateRange(day(2025, time.May, 1), day(2025, time.May, 3), time.UTC)
	require.NoError(t, err)

	incomes := []Transaction{
		tx(1, day(2025, time.May, 1), 100, "package", "confirmed"),
		tx(2, day(2025, time.May, 3), 50, "goods", "confirmed"),
	}
	expenses := []Transaction{
		tx(10, day(2025, time.May, 2), 30, "rent", "approved"),
		tx(11, day(2025, time.May, 3), 20, "supplies", "approved"),
	}

	inflow := Aggregate(incomes, Query{Range: r, GroupBy: GroupByDay})
	outflow := Aggregate(expenses, Query{Range: r, GroupBy: GroupByDay})
	cf := BuildCashFlow(inflow, outflow)

	require.Len(t, cf.Rows, 3)
	wantInflow := []string{"100", "0", "50"}
	wantOutflow := []string{"0", "30", "20"}
	wantBalance := []string{"100", "70", "100"}
	wantLabels := []string{"1/5/2025", "2/5/2025", "3/5/2025"}
	for i, row := range cf.Rows {
		assert.Equal(t, wantLabels[i], row.Label)
		assert.Equal(t, wantInflow[i], row.Inflow.String())
		assert.Equal(t, wantOutflow[i], row.Outflow.String())
		assert.Equal(t, wantBalance[i], row.RunningBalance.String())
	}

	assert.Len(t, cf.Rows[2].Inflows, 1)
	assert.Len(t, cf.Rows[2].Outflows, 1)
	assert.Equal(t, "-30", cf.Rows[1].Net.String())
	assert.Equal(t, "-฿30.00", cf.Rows[1].NetFormatted)
	assert.Equal(t, "100", cf.ClosingBalance.String())
	assert.Equal(t, "daily", cf.Period)
}

func TestBuildCashFlow_Empty(t *testing.T) {
	r, err := NewDateRange(day(2025, time.May, 1), day(2025, time.May, 3), time.UTC)
	require.NoError(t, err)

	cf := BuildCashFlow(
		Aggregate(nil, Query{Range: r, GroupBy: GroupByMonth}),
		Aggregate(nil, Query{Range: r, GroupBy: GroupByMonth}),
	)

	assert.Empty(t, cf.Rows)
	assert.True(t, cf.ClosingBalance.IsZero())
	assert.True(t, cf.NetCashFlow.IsZero())
}

func TestBuildCashFlow_BalanceIdentityProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	r, err := NewDateRange(day(2024, time.January, 1), day(2025, time.December, 31), time.UTC)
	require.NoError(t, err)

	random := func(n int) []Transaction {
		out := make([]Transaction, n)
		for i := range out {
			out[i] = Transaction{
				ID:     uint(i + 1),
				Date:   r.Start.Add(time.Duration(rng.Int63n(int64(730 * 24 * time.Hour)))),
				Amount: decimal.New(rng.Int63n(500_000), -2),
			}
		}
		return out
	}

	for iter := 0; iter < 200; iter++ {
		incomes := random(1 + rng.Intn(30))
		expenses := random(rng.Intn(30))

		for _, by := range []GroupBy{GroupByDay, GroupByMonth, GroupByYear} {
			cf := BuildCashFlow(
				Aggregate(incomes, Query{Range: r, GroupBy: by}),
				Aggregate(expenses, Query{Range: r, GroupBy: by}),
			)

			in, out := decimal.Zero, decimal.Zero
			for _, x := range incomes {
				in = in.Add(x.Amount)
			}
			for _, x := range expenses {
				out = out.Add(x.Amount)
			}

			require.NotEmpty(t, cf.Rows)
			last := cf.Rows[len(cf.Rows)-1]
			assert.True(t, last.RunningBalance.Equal(in.Sub(out)), "iteration %d", iter)
			assert.True(t, cf.ClosingBalance.Equal(cf.TotalInflow.Sub(cf.TotalOutflow)))

			for i := 1; i < len(cf.Rows); i++ {
				assert.True(t, cf.Rows[i-1].Bucket.Less(cf.Rows[i].Bucket))
			}
		}
	}
}
