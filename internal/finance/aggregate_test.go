package finance

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 0, 0, 0, time.UTC)
}

func tx(id uint, date time.Time, amount int64, group, status string) Transaction {
	return Transaction{ID: id, Date: date, Amount: decimal.NewFromInt(amount), Group: group, Status: status}
}

func marchRange(t *testing.T) DateRange {
	r, err := NewDateRange(day(2025, time.March, 1), day(2025, time.March, 31), time.UTC)
	require.NoError(t, err)
	return r
}

func TestAggregate_CategoryBreakdown(t *testing.T) {
	txs := []Transaction{
		tx(1, day(2025, time.March, 3), 3000, "rent", "approved"),
		tx(2, day(2025, time.March, 10), 2000, "utilities", "approved"),
		tx(3, day(2025, time.March, 20), 2000, "rent", "approved"),
		tx(4, day(2025, time.March, 21), 999, "rent", "pending"),
		tx(5, day(2025, time.April, 1), 500, "utilities", "approved"),
	}

	res := Aggregate(txs, Query{Range: marchRange(t), Statuses: []string{"approved"}, GroupBy: GroupByCategory})

	assert.Equal(t, "7000", res.Total.String())
	assert.Equal(t, 3, res.Count)
	require.Len(t, res.Groups, 2)

	assert.Equal(t, "rent", res.Groups[0].Key)
	assert.Equal(t, "5000", res.Groups[0].Total.String())
	assert.Equal(t, 2, res.Groups[0].Count)
	assert.Equal(t, "2500", res.Groups[0].Average.String())
	assert.Equal(t, 71.43, res.Groups[0].Percentage)

	assert.Equal(t, "utilities", res.Groups[1].Key)
	assert.Equal(t, "2000", res.Groups[1].Total.String())
	assert.Equal(t, 28.57, res.Groups[1].Percentage)
}

func TestAggregate_GroupFilter(t *testing.T) {
	txs := []Transaction{
		tx(1, day(2025, time.March, 3), 100, "package", "confirmed"),
		tx(2, day(2025, time.March, 4), 50, "goods", "confirmed"),
	}

	res := Aggregate(txs, Query{Range: marchRange(t), Groups: []string{"goods"}})

	require.Len(t, res.Groups, 1)
	assert.Equal(t, "goods", res.Groups[0].Key)
	assert.Equal(t, 100.0, res.Groups[0].Percentage)
}

func TestAggregate_Empty(t *testing.T) {
	res := Aggregate(nil, Query{Range: marchRange(t), GroupBy: GroupByCategory})

	assert.True(t, res.Total.IsZero())
	assert.Equal(t, 0, res.Count)
	assert.NotNil(t, res.Groups)
	assert.Empty(t, res.Groups)
	assert.Equal(t, "฿0.00", res.TotalFormatted)
}

func TestAggregate_EndOfDayBoundary(t *testing.T) {
	r := marchRange(t)
	lastMs := time.Date(2025, time.March, 31, 23, 59, 59, int(999*time.Millisecond), time.UTC)

	txs := []Transaction{
		tx(1, lastMs, 10, "rent", "approved"),
		tx(2, lastMs.Add(time.Millisecond), 20, "rent", "approved"),
		tx(3, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), 5, "rent", "approved"),
	}

	res := Aggregate(txs, Query{Range: r})

	assert.Equal(t, 2, res.Count)
	assert.Equal(t, "15", res.Total.String())
}

func TestAggregate_TimeBucketsSortChronologically(t *testing.T) {
	r, err := NewDateRange(day(2025, time.January, 1), day(2025, time.February, 28), time.UTC)
	require.NoError(t, err)

	txs := []Transaction{
		tx(1, day(2025, time.February, 1), 10, "x", ""),
		tx(2, day(2025, time.January, 31), 20, "x", ""),
		tx(3, day(2025, time.January, 5), 30, "x", ""),
		tx(4, day(2025, time.January, 5), 5, "y", ""),
	}

	daily := Aggregate(txs, Query{Range: r, GroupBy: GroupByDay})
	require.Len(t, daily.Groups, 3)
	assert.Equal(t, "5/1/2025", daily.Groups[0].Label)
	assert.Equal(t, "35", daily.Groups[0].Total.String())
	assert.Equal(t, "31/1/2025", daily.Groups[1].Label)
	assert.Equal(t, "1/2/2025", daily.Groups[2].Label)

	monthly := Aggregate(txs, Query{Range: r, GroupBy: GroupByMonth})
	require.Len(t, monthly.Groups, 2)
	assert.Equal(t, "1/2025", monthly.Groups[0].Label)
	assert.Equal(t, "2/2025", monthly.Groups[1].Label)
	assert.Equal(t, BucketKey{Year: 2025, Month: 2}, *monthly.Groups[1].Bucket)

	yearly := Aggregate(txs, Query{Range: r, GroupBy: GroupByYear})
	require.Len(t, yearly.Groups, 1)
	assert.Equal(t, "2025", yearly.Groups[0].Label)
}

func TestAggregate_BucketsUseRangeLocation(t *testing.T) {
	bangkok := time.FixedZone("ICT", 7*3600)
	r, err := NewDateRange(time.Date(2025, 3, 1, 0, 0, 0, 0, bangkok), time.Date(2025, 3, 2, 0, 0, 0, 0, bangkok), bangkok)
	require.NoError(t, err)

	// 2025-03-01 18:30 UTC is already March 2nd in Bangkok
	txs := []Transaction{tx(1, time.Date(2025, 3, 1, 18, 30, 0, 0, time.UTC), 10, "x", "")}

	res := Aggregate(txs, Query{Range: r, GroupBy: GroupByDay})
	require.Len(t, res.Groups, 1)
	assert.Equal(t, "2/3/2025", res.Groups[0].Label)
}

func TestBucketKey_Less(t *testing.T) {
	tests := []struct {
		name string
		a, b BucketKey
		want bool
	}{
		{"earlier year", BucketKey{Year: 2024, Month: 12}, BucketKey{Year: 2025, Month: 1}, true},
		{"earlier month", BucketKey{Year: 2025, Month: 2}, BucketKey{Year: 2025, Month: 10}, true},
		{"later day", BucketKey{Year: 2025, Month: 1, Day: 31}, BucketKey{Year: 2025, Month: 1, Day: 5}, false},
		{"equal", BucketKey{Year: 2025}, BucketKey{Year: 2025}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Less(tt.b))
		})
	}
}

func TestAggregate_TotalsConsistencyProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	groups := []string{"rent", "salary", "equipment", "utilities", "marketing"}
	statuses := []string{"approved", "pending", "rejected"}
	r, err := NewDateRange(day(2025, time.January, 1), day(2025, time.December, 31), time.UTC)
	require.NoError(t, err)

	for iter := 0; iter < 200; iter++ {
		n := rng.Intn(40)
		txs := make([]Transaction, n)
		for i := range txs {
			txs[i] = Transaction{
				ID:     uint(i + 1),
				Date:   r.Start.Add(time.Duration(rng.Int63n(int64(400 * 24 * time.Hour)))),
				Amount: decimal.New(rng.Int63n(1_000_000), -2),
				Group:  groups[rng.Intn(len(groups))],
				Status: statuses[rng.Intn(len(statuses))],
			}
		}

		for _, by := range []GroupBy{GroupByCategory, GroupByDay, GroupByMonth, GroupByYear} {
			q := Query{Range: r, Statuses: []string{"approved"}, GroupBy: by}
			res := Aggregate(txs, q)

			expected := decimal.Zero
			count := 0
			for _, tx := range txs {
				if r.Contains(tx.Date) && tx.Status == "approved" {
					expected = expected.Add(tx.Amount)
					count++
				}
			}

			sum := decimal.Zero
			pct := 0.0
			groupCount := 0
			for _, g := range res.Groups {
				sum = sum.Add(g.Total)
				pct += g.Percentage
				groupCount += g.Count
			}

			assert.True(t, expected.Equal(res.Total), "total mismatch on iteration %d", iter)
			assert.True(t, expected.Equal(sum), "group sum mismatch on iteration %d", iter)
			assert.Equal(t, count, groupCount)
			if res.Total.IsPositive() {
				assert.InDelta(t, 100.0, pct, 0.005*float64(len(res.Groups))+1e-9)
			}
		}
	}
}
