package finance

import (
	"sort"

	"github.com/shopspring/decimal"
)

// CashFlowRow is one time bucket of a cash-flow statement
type CashFlowRow struct {
	Bucket                  BucketKey       `json:"bucket"`
	Label                   string          `json:"label"`
	Inflow                  decimal.Decimal `json:"inflow"`
	Outflow                 decimal.Decimal `json:"outflow"`
	Net                     decimal.Decimal `json:"net"`
	RunningBalance          decimal.Decimal `json:"running_balance"`
	InflowFormatted         string          `json:"inflow_formatted"`
	OutflowFormatted        string          `json:"outflow_formatted"`
	NetFormatted            string          `json:"net_formatted"`
	RunningBalanceFormatted string          `json:"running_balance_formatted"`
	Inflows                 []Transaction   `json:"inflows"`
	Outflows                []Transaction   `json:"outflows"`
}

// CashFlow is a chronologically ordered statement with a running balance
type CashFlow struct {
	Range          DateRange       `json:"range"`
	Period         string          `json:"period_type"`
	Rows           []CashFlowRow   `json:"rows"`
	TotalInflow    decimal.Decimal `json:"total_inflow"`
	TotalOutflow   decimal.Decimal `json:"total_outflow"`
	NetCashFlow    decimal.Decimal `json:"net_cash_flow"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
}

// BuildCashFlow merges time-bucketed inflow and outflow aggregates and threads
// a running balance through them in chronological order. Both inputs must be
// bucketed at the same granularity; the inflow side decides the labels.
func BuildCashFlow(inflow, outflow Result) CashFlow {
	granularity := inflow.GroupBy
	if !granularity.IsTimeBucket() {
		granularity = outflow.GroupBy
	}

	rows := make(map[BucketKey]*CashFlowRow)
	row := func(g Group) *CashFlowRow {
		key := BucketKey{}
		if g.Bucket != nil {
			key = *g.Bucket
		}
		r, ok := rows[key]
		if !ok {
			r = &CashFlowRow{
				Bucket:   key,
				Label:    key.Label(granularity),
				Inflow:   decimal.Zero,
				Outflow:  decimal.Zero,
				Inflows:  []Transaction{},
				Outflows: []Transaction{},
			}
			rows[key] = r
		}
		return r
	}

	for _, g := range inflow.Groups {
		r := row(g)
		r.Inflow = r.Inflow.Add(g.Total)
		r.Inflows = append(r.Inflows, g.Transactions...)
	}
	for _, g := range outflow.Groups {
		r := row(g)
		r.Outflow = r.Outflow.Add(g.Total)
		r.Outflows = append(r.Outflows, g.Transactions...)
	}

	ordered := make([]CashFlowRow, 0, len(rows))
	for _, r := range rows {
		ordered = append(ordered, *r)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Bucket.Less(ordered[j].Bucket)
	})

	cf := CashFlow{
		Range:        inflow.Range,
		Period:       granularity.String(),
		Rows:         ordered,
		TotalInflow:  decimal.Zero,
		TotalOutflow: decimal.Zero,
	}

	balance := decimal.Zero
	for i := range cf.Rows {
		r := &cf.Rows[i]
		r.Net = r.Inflow.Sub(r.Outflow)
		balance = balance.Add(r.Net)
		r.RunningBalance = balance

		r.InflowFormatted = FormatTHB(r.Inflow)
		r.OutflowFormatted = FormatTHB(r.Outflow)
		r.NetFormatted = FormatTHB(r.Net)
		r.RunningBalanceFormatted = FormatTHB(r.RunningBalance)

		cf.TotalInflow = cf.TotalInflow.Add(r.Inflow)
		cf.TotalOutflow = cf.TotalOutflow.Add(r.Outflow)
	}
	cf.NetCashFlow = cf.TotalInflow.Sub(cf.TotalOutflow)
	cf.ClosingBalance = balance

	return cf
}
