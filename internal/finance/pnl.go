package finance

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ProfitAndLoss summarizes one period
type ProfitAndLoss struct {
	Range             DateRange       `json:"range"`
	TotalIncome       decimal.Decimal `json:"total_income"`
	TotalExpense      decimal.Decimal `json:"total_expense"`
	TotalVAT          decimal.Decimal `json:"total_vat"`
	NetExpense        decimal.Decimal `json:"net_expense"`
	NetProfit         decimal.Decimal `json:"net_profit"`
	ProfitMargin      float64         `json:"profit_margin"`
	IsProfitable      bool            `json:"is_profitable"`
	IncomeCount       int             `json:"income_count"`
	ExpenseCount      int             `json:"expense_count"`
	IncomeByType      []Group         `json:"income_by_type"`
	ExpenseByCategory []Group         `json:"expense_by_category"`

	TotalIncomeFormatted  string `json:"total_income_formatted"`
	TotalExpenseFormatted string `json:"total_expense_formatted"`
	NetProfitFormatted    string `json:"net_profit_formatted"`
}

// ComputeProfitAndLoss combines category aggregates of income and expense
// taken over the same range. Status filtering happens in Aggregate.
func ComputeProfitAndLoss(income, expense Result) ProfitAndLoss {
	net := income.Total.Sub(expense.Total)
	return ProfitAndLoss{
		Range:                 income.Range,
		TotalIncome:           income.Total,
		TotalExpense:          expense.Total,
		TotalVAT:              expense.TotalVAT,
		NetExpense:            expense.Total.Sub(expense.TotalVAT),
		NetProfit:             net,
		ProfitMargin:          percentOf(net, income.Total),
		IsProfitable:          net.IsPositive(),
		IncomeCount:           income.Count,
		ExpenseCount:          expense.Count,
		IncomeByType:          stripTransactions(income.Groups),
		ExpenseByCategory:     stripTransactions(expense.Groups),
		TotalIncomeFormatted:  FormatTHB(income.Total),
		TotalExpenseFormatted: FormatTHB(expense.Total),
		NetProfitFormatted:    FormatTHB(net),
	}
}

func stripTransactions(groups []Group) []Group {
	out := make([]Group, len(groups))
	for i, g := range groups {
		g.Transactions = nil
		out[i] = g
	}
	return out
}

// Change is a current-versus-previous delta of one metric
type Change struct {
	Current       decimal.Decimal `json:"current"`
	Previous      decimal.Decimal `json:"previous"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent float64         `json:"change_percent"`
}

// NewChange computes change and change percent; the percent is 0 when previous is 0
func NewChange(current, previous decimal.Decimal) Change {
	diff := current.Sub(previous)
	return Change{
		Current:       current,
		Previous:      previous,
		Change:        diff,
		ChangePercent: percentOf(diff, previous),
	}
}

// KeyedChange is a Change for one income type or expense category
type KeyedChange struct {
	Key string `json:"key"`
	Change
}

// Comparison is period-over-period P&L
type Comparison struct {
	CurrentRange      DateRange     `json:"current_range"`
	PreviousRange     DateRange     `json:"previous_range"`
	Income            Change        `json:"income"`
	Expense           Change        `json:"expense"`
	NetProfit         Change        `json:"net_profit"`
	ProfitMargin      Change        `json:"profit_margin"`
	IncomeByType      []KeyedChange `json:"income_by_type"`
	ExpenseByCategory []KeyedChange `json:"expense_by_category"`
}

// Compare diffs two P&L snapshots. Category keys are the union of both periods,
// a key missing on one side compares against zero.
func Compare(current, previous ProfitAndLoss) Comparison {
	return Comparison{
		CurrentRange:  current.Range,
		PreviousRange: previous.Range,
		Income:        NewChange(current.TotalIncome, previous.TotalIncome),
		Expense:       NewChange(current.TotalExpense, previous.TotalExpense),
		NetProfit:     NewChange(current.NetProfit, previous.NetProfit),
		ProfitMargin: NewChange(
			decimal.NewFromFloat(current.ProfitMargin),
			decimal.NewFromFloat(previous.ProfitMargin),
		),
		IncomeByType:      compareGroups(current.IncomeByType, previous.IncomeByType),
		ExpenseByCategory: compareGroups(current.ExpenseByCategory, previous.ExpenseByCategory),
	}
}

func compareGroups(current, previous []Group) []KeyedChange {
	cur := make(map[string]decimal.Decimal, len(current))
	prev := make(map[string]decimal.Decimal, len(previous))
	keys := make([]string, 0, len(current)+len(previous))

	for _, g := range current {
		cur[g.Key] = g.Total
		keys = append(keys, g.Key)
	}
	for _, g := range previous {
		prev[g.Key] = g.Total
		if _, seen := cur[g.Key]; !seen {
			keys = append(keys, g.Key)
		}
	}
	sort.Strings(keys)

	out := make([]KeyedChange, 0, len(keys))
	for _, k := range keys {
		c, ok := cur[k]
		if !ok {
			c = decimal.Zero
		}
		p, ok := prev[k]
		if !ok {
			p = decimal.Zero
		}
		out = append(out, KeyedChange{Key: k, Change: NewChange(c, p)})
	}
	return out
}

// MonthRow is one line of a yearly monthly summary
type MonthRow struct {
	Month        int             `json:"month"`
	Label        string          `json:"label"`
	Income       decimal.Decimal `json:"income"`
	Expense      decimal.Decimal `json:"expense"`
	NetProfit    decimal.Decimal `json:"net_profit"`
	ProfitMargin float64         `json:"profit_margin"`
	IncomeCount  int             `json:"income_count"`
	ExpenseCount int             `json:"expense_count"`

	IncomeFormatted    string `json:"income_formatted"`
	ExpenseFormatted   string `json:"expense_formatted"`
	NetProfitFormatted string `json:"net_profit_formatted"`
}

// DenseMonthlySummary unrolls month-bucketed aggregates of one year into exactly
// twelve rows, zero-filling months without records.
func DenseMonthlySummary(year int, income, expense Result) []MonthRow {
	type cell struct {
		total decimal.Decimal
		count int
	}
	index := func(r Result) map[int]cell {
		m := make(map[int]cell)
		for _, g := range r.Groups {
			if g.Bucket == nil || g.Bucket.Year != year {
				continue
			}
			c := m[g.Bucket.Month]
			c.total = c.total.Add(g.Total)
			c.count += g.Count
			m[g.Bucket.Month] = c
		}
		return m
	}
	in, out := index(income), index(expense)

	rows := make([]MonthRow, 12)
	for i := range rows {
		month := i + 1
		inc, exp := in[month].total, out[month].total
		net := inc.Sub(exp)
		rows[i] = MonthRow{
			Month:              month,
			Label:              BucketKey{Year: year, Month: month}.Label(GroupByMonth),
			Income:             inc,
			Expense:            exp,
			NetProfit:          net,
			ProfitMargin:       percentOf(net, inc),
			IncomeCount:        in[month].count,
			ExpenseCount:       out[month].count,
			IncomeFormatted:    FormatTHB(inc),
			ExpenseFormatted:   FormatTHB(exp),
			NetProfitFormatted: FormatTHB(net),
		}
	}
	return rows
}

// MonthName is the English month name used in exported sheets
func MonthName(month int) string {
	return time.Month(month).String()
}
