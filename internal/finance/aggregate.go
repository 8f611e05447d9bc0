package finance

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a store-agnostic ledger record fed into the engine
type Transaction struct {
	ID          uint            `json:"id"`
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	VAT         decimal.Decimal `json:"vat_amount"`
	Group       string          `json:"group"`
	Status      string          `json:"status"`
	Description string          `json:"description"`
}

// GroupBy selects how Aggregate partitions matching records
type GroupBy int

const (
	GroupByCategory GroupBy = iota
	GroupByDay
	GroupByMonth
	GroupByYear
)

func (g GroupBy) IsTimeBucket() bool {
	return g == GroupByDay || g == GroupByMonth || g == GroupByYear
}

func (g GroupBy) String() string {
	switch g {
	case GroupByDay:
		return "daily"
	case GroupByMonth:
		return "monthly"
	case GroupByYear:
		return "yearly"
	default:
		return "category"
	}
}

// BucketKey identifies a calendar bucket. Coarser buckets leave Month/Day at 0.
type BucketKey struct {
	Year  int `json:"year"`
	Month int `json:"month,omitempty"`
	Day   int `json:"day,omitempty"`
}

// BucketOf truncates t to the bucket granularity of g
func BucketOf(t time.Time, g GroupBy) BucketKey {
	y, m, d := t.Date()
	switch g {
	case GroupByDay:
		return BucketKey{Year: y, Month: int(m), Day: d}
	case GroupByMonth:
		return BucketKey{Year: y, Month: int(m)}
	default:
		return BucketKey{Year: y}
	}
}

// Less orders buckets chronologically on the numeric tuple
func (k BucketKey) Less(o BucketKey) bool {
	if k.Year != o.Year {
		return k.Year < o.Year
	}
	if k.Month != o.Month {
		return k.Month < o.Month
	}
	return k.Day < o.Day
}

// Label is the display form: D/M/YYYY, M/YYYY or YYYY. Never sort on it.
func (k BucketKey) Label(g GroupBy) string {
	switch g {
	case GroupByDay:
		return fmt.Sprintf("%d/%d/%d", k.Day, k.Month, k.Year)
	case GroupByMonth:
		return fmt.Sprintf("%d/%d", k.Month, k.Year)
	default:
		return strconv.Itoa(k.Year)
	}
}

// Query describes one aggregation pass
type Query struct {
	Range DateRange
	// Statuses keeps only records in one of these statuses; empty keeps all.
	Statuses []string
	// Groups keeps only records whose Group is listed; empty keeps all.
	Groups  []string
	GroupBy GroupBy
}

// Group is one partition of an aggregation
type Group struct {
	Key            string          `json:"key"`
	Label          string          `json:"label"`
	Bucket         *BucketKey      `json:"bucket,omitempty"`
	Total          decimal.Decimal `json:"total_amount"`
	TotalFormatted string          `json:"total_formatted"`
	Count          int             `json:"count"`
	Average        decimal.Decimal `json:"average_amount"`
	Percentage     float64         `json:"percentage"`
	Transactions   []Transaction   `json:"transactions,omitempty"`
}

// Result is the fully materialized output of Aggregate
type Result struct {
	Range          DateRange       `json:"range"`
	GroupBy        GroupBy         `json:"-"`
	Total          decimal.Decimal `json:"total_amount"`
	TotalFormatted string          `json:"total_formatted"`
	TotalVAT       decimal.Decimal `json:"total_vat"`
	Count          int             `json:"count"`
	Groups         []Group         `json:"groups"`
}

// Aggregate filters txs by range, status and group, then partitions them.
// Category groups are sorted by total descending, time buckets chronologically.
func Aggregate(txs []Transaction, q Query) Result {
	res := Result{
		Range:    q.Range,
		GroupBy:  q.GroupBy,
		Total:    decimal.Zero,
		TotalVAT: decimal.Zero,
		Groups:   []Group{},
	}

	statuses := toSet(q.Statuses)
	groups := toSet(q.Groups)
	loc := q.Range.Location()

	type acc struct {
		group  Group
		bucket BucketKey
	}
	byKey := make(map[string]*acc)

	for _, tx := range txs {
		if !q.Range.Contains(tx.Date) {
			continue
		}
		if statuses != nil && !statuses[tx.Status] {
			continue
		}
		if groups != nil && !groups[tx.Group] {
			continue
		}

		var key string
		var bucket BucketKey
		if q.GroupBy.IsTimeBucket() {
			bucket = BucketOf(tx.Date.In(loc), q.GroupBy)
			key = bucket.Label(q.GroupBy)
		} else {
			key = tx.Group
		}

		a, ok := byKey[key]
		if !ok {
			a = &acc{group: Group{Key: key, Label: key, Total: decimal.Zero}, bucket: bucket}
			byKey[key] = a
		}
		a.group.Total = a.group.Total.Add(tx.Amount)
		a.group.Count++
		a.group.Transactions = append(a.group.Transactions, tx)

		res.Total = res.Total.Add(tx.Amount)
		res.TotalVAT = res.TotalVAT.Add(tx.VAT)
		res.Count++
	}

	buckets := make(map[string]BucketKey, len(byKey))
	for key, a := range byKey {
		g := a.group
		g.Average = g.Total.Div(decimal.NewFromInt(int64(g.Count))).Round(2)
		g.Percentage = percentOf(g.Total, res.Total)
		g.TotalFormatted = FormatTHB(g.Total)
		if q.GroupBy.IsTimeBucket() {
			b := a.bucket
			g.Bucket = &b
			buckets[key] = b
		}
		res.Groups = append(res.Groups, g)
	}

	if q.GroupBy.IsTimeBucket() {
		sort.Slice(res.Groups, func(i, j int) bool {
			return buckets[res.Groups[i].Key].Less(buckets[res.Groups[j].Key])
		})
	} else {
		sort.Slice(res.Groups, func(i, j int) bool {
			if c := res.Groups[i].Total.Cmp(res.Groups[j].Total); c != 0 {
				return c > 0
			}
			return res.Groups[i].Key < res.Groups[j].Key
		})
	}

	res.TotalFormatted = FormatTHB(res.Total)
	return res
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
