package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sjperalta/studio-finance-api/internal/clock"
	"github.com/sjperalta/studio-finance-api/internal/finance"
	"github.com/sjperalta/studio-finance-api/internal/models"
	"github.com/sjperalta/studio-finance-api/internal/repository"
	"github.com/sjperalta/studio-finance-api/pkg/logger"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// StatusFilter names the entry statuses a report counts. An empty side
// falls back to the default: confirmed income and approved expenses.
type StatusFilter struct {
	Income  []models.IncomeStatus
	Expense []models.ExpenseStatus
}

// DefaultStatusFilter counts confirmed income and approved expenses
func DefaultStatusFilter() StatusFilter {
	return StatusFilter{
		Income:  []models.IncomeStatus{models.IncomeStatusConfirmed},
		Expense: []models.ExpenseStatus{models.ExpenseStatusApproved},
	}
}

func (f StatusFilter) withDefaults() StatusFilter {
	def := DefaultStatusFilter()
	if len(f.Income) == 0 {
		f.Income = def.Income
	}
	if len(f.Expense) == 0 {
		f.Expense = def.Expense
	}
	return f
}

// BreakdownParams selects one side of the ledger for a grouped breakdown
type BreakdownParams struct {
	Range  finance.DateRange
	Status StatusFilter
	// Groups restricts the breakdown to these income types or categories
	Groups []string
	// Period buckets by time instead of by type/category when set
	Period models.PeriodType
}

// ComparisonParams selects the two months to compare. Zero Year/Month means
// the current month; zero CompareYear/CompareMonth means the month before.
type ComparisonParams struct {
	Year         int
	Month        int
	CompareYear  int
	CompareMonth int
	Status       StatusFilter
}

// MonthlySummary is the dense twelve-month table of one year
type MonthlySummary struct {
	Year       int                   `json:"year"`
	Months     []finance.MonthRow    `json:"months"`
	Totals     finance.ProfitAndLoss `json:"totals"`
	BestMonth  int                   `json:"best_month,omitempty"`
	WorstMonth int                   `json:"worst_month,omitempty"`
}

// Dashboard is the landing view: this month against the previous one
type Dashboard struct {
	Today        finance.ProfitAndLoss `json:"today"`
	CurrentMonth finance.ProfitAndLoss `json:"current_month"`
	YearToDate   finance.ProfitAndLoss `json:"year_to_date"`
	Comparison   finance.Comparison    `json:"comparison"`
}

type ReportService struct {
	incomeRepo  repository.IncomeRepository
	expenseRepo repository.ExpenseRepository
	summaryRepo repository.SummaryRepository
	clock       clock.Clock
	cacheTTL    time.Duration
}

func NewReportService(
	incomeRepo repository.IncomeRepository,
	expenseRepo repository.ExpenseRepository,
	summaryRepo repository.SummaryRepository,
	clk clock.Clock,
	cacheTTL time.Duration,
) *ReportService {
	return &ReportService{
		incomeRepo:  incomeRepo,
		expenseRepo: expenseRepo,
		summaryRepo: summaryRepo,
		clock:       clk,
		cacheTTL:    cacheTTL,
	}
}

// Location is the business timezone reports are bucketed in
func (s *ReportService) Location() *time.Location {
	return clock.Location(s.clock)
}

// ProfitAndLoss computes the P&L of a date range
func (s *ReportService) ProfitAndLoss(ctx context.Context, rng finance.DateRange, status StatusFilter) (*finance.ProfitAndLoss, error) {
	income, expense, err := s.aggregateBoth(ctx, rng, status, finance.GroupByCategory)
	if err != nil {
		return nil, err
	}
	pnl := finance.ComputeProfitAndLoss(income, expense)
	return &pnl, nil
}

// IncomeBreakdown groups income by type, or by time bucket when Period is set
func (s *ReportService) IncomeBreakdown(ctx context.Context, params BreakdownParams) (*finance.Result, error) {
	groupBy, err := groupByFor(params.Period)
	if err != nil {
		return nil, err
	}
	res, err := s.aggregateIncome(ctx, params.Range, params.Status.withDefaults().Income, params.Groups, groupBy)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ExpenseBreakdown groups expenses by category, or by time bucket when Period is set
func (s *ReportService) ExpenseBreakdown(ctx context.Context, params BreakdownParams) (*finance.Result, error) {
	groupBy, err := groupByFor(params.Period)
	if err != nil {
		return nil, err
	}
	res, err := s.aggregateExpense(ctx, params.Range, params.Status.withDefaults().Expense, params.Groups, groupBy)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// CashFlow builds the running-balance statement of a range bucketed by period
func (s *ReportService) CashFlow(ctx context.Context, rng finance.DateRange, period models.PeriodType, status StatusFilter) (*finance.CashFlow, error) {
	if period == "" {
		period = models.PeriodDaily
	}
	groupBy, err := groupByFor(period)
	if err != nil {
		return nil, err
	}
	income, expense, err := s.aggregateBoth(ctx, rng, status, groupBy)
	if err != nil {
		return nil, err
	}
	cf := finance.BuildCashFlow(income, expense)
	return &cf, nil
}

// MonthlySummary returns one row per month of year, zero-filled
func (s *ReportService) MonthlySummary(ctx context.Context, year int, status StatusFilter) (*MonthlySummary, error) {
	if year == 0 {
		year = s.clock.Now().Year()
	}
	if err := validateYear(year); err != nil {
		return nil, err
	}

	rng := finance.YearRange(year, s.Location())
	load := func(groupBy finance.GroupBy) (finance.Result, finance.Result, error) {
		return s.aggregateBoth(ctx, rng, status, groupBy)
	}
	income, expense, err := load(finance.GroupByMonth)
	if err != nil {
		return nil, err
	}
	incomeCat, expenseCat, err := load(finance.GroupByCategory)
	if err != nil {
		return nil, err
	}

	summary := &MonthlySummary{
		Year:   year,
		Months: finance.DenseMonthlySummary(year, income, expense),
		Totals: finance.ComputeProfitAndLoss(incomeCat, expenseCat),
	}
	for _, row := range summary.Months {
		if row.IncomeCount+row.ExpenseCount == 0 {
			continue
		}
		if summary.BestMonth == 0 || row.NetProfit.GreaterThan(summary.Months[summary.BestMonth-1].NetProfit) {
			summary.BestMonth = row.Month
		}
		if summary.WorstMonth == 0 || row.NetProfit.LessThan(summary.Months[summary.WorstMonth-1].NetProfit) {
			summary.WorstMonth = row.Month
		}
	}
	return summary, nil
}

// Comparison diffs the P&L of two calendar months
func (s *ReportService) Comparison(ctx context.Context, params ComparisonParams) (*finance.Comparison, error) {
	now := s.clock.Now()
	if params.Year == 0 {
		params.Year = now.Year()
	}
	if params.Month == 0 {
		params.Month = int(now.Month())
	}
	if params.CompareYear == 0 && params.CompareMonth == 0 {
		y, m := finance.PreviousMonth(params.Year, time.Month(params.Month))
		params.CompareYear, params.CompareMonth = y, int(m)
	}
	if params.CompareYear == 0 {
		params.CompareYear = params.Year
	}
	for _, ym := range [][2]int{{params.Year, params.Month}, {params.CompareYear, params.CompareMonth}} {
		if err := validateYear(ym[0]); err != nil {
			return nil, err
		}
		if ym[1] < 1 || ym[1] > 12 {
			return nil, validationError("month must be between 1 and 12")
		}
	}

	loc := s.Location()
	current, err := s.ProfitAndLoss(ctx, finance.MonthRange(params.Year, time.Month(params.Month), loc), params.Status)
	if err != nil {
		return nil, err
	}
	previous, err := s.ProfitAndLoss(ctx, finance.MonthRange(params.CompareYear, time.Month(params.CompareMonth), loc), params.Status)
	if err != nil {
		return nil, err
	}

	cmp := finance.Compare(*current, *previous)
	return &cmp, nil
}

// Dashboard summarizes today, this month and the year so far
func (s *ReportService) Dashboard(ctx context.Context) (*Dashboard, error) {
	now := s.clock.Now()
	loc := s.Location()

	today, err := finance.NewDateRange(now, now, loc)
	if err != nil {
		return nil, classify(err, "failed to build dashboard")
	}
	ytd, err := finance.NewDateRange(finance.YearRange(now.Year(), loc).Start, now, loc)
	if err != nil {
		return nil, classify(err, "failed to build dashboard")
	}

	var todayPnL, ytdPnL, month *finance.ProfitAndLoss
	var cmp *finance.Comparison
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		todayPnL, err = s.ProfitAndLoss(gctx, today, StatusFilter{})
		return err
	})
	g.Go(func() (err error) {
		ytdPnL, err = s.ProfitAndLoss(gctx, ytd, StatusFilter{})
		return err
	})
	g.Go(func() (err error) {
		month, err = s.ProfitAndLoss(gctx, finance.MonthRange(now.Year(), now.Month(), loc), StatusFilter{})
		return err
	})
	g.Go(func() (err error) {
		cmp, err = s.Comparison(gctx, ComparisonParams{Year: now.Year(), Month: int(now.Month())})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Dashboard{
		Today:        *todayPnL,
		YearToDate:   *ytdPnL,
		CurrentMonth: *month,
		Comparison:   *cmp,
	}, nil
}

// RefreshSummaryCache recomputes the cached snapshots of today, this month,
// last month and this year, and drops expired ones.
func (s *ReportService) RefreshSummaryCache(ctx context.Context) error {
	now := s.clock.Now()
	loc := s.Location()
	py, pm := finance.PreviousMonth(now.Year(), now.Month())

	today, err := finance.NewDateRange(now, now, loc)
	if err != nil {
		return classify(err, "failed to refresh summaries")
	}
	periods := []struct {
		typ models.PeriodType
		rng finance.DateRange
	}{
		{models.PeriodDaily, today},
		{models.PeriodMonthly, finance.MonthRange(now.Year(), now.Month(), loc)},
		{models.PeriodMonthly, finance.MonthRange(py, pm, loc)},
		{models.PeriodYearly, finance.YearRange(now.Year(), loc)},
	}

	for _, p := range periods {
		pnl, err := s.ProfitAndLoss(ctx, p.rng, StatusFilter{})
		if err != nil {
			return err
		}
		summary, err := s.snapshot(p.typ, *pnl, now)
		if err != nil {
			return err
		}
		if err := s.summaryRepo.Upsert(ctx, summary); err != nil {
			return internalError("failed to store summary", err)
		}
	}

	removed, err := s.summaryRepo.DeleteExpired(ctx, now)
	if err != nil {
		return internalError("failed to prune summaries", err)
	}
	logger.Debug("summary cache refreshed", "periods", len(periods), "expired_removed", removed)
	return nil
}

func (s *ReportService) snapshot(periodType models.PeriodType, pnl finance.ProfitAndLoss, now time.Time) (*models.FinancialSummary, error) {
	breakdown, err := json.Marshal(struct {
		IncomeByType      []finance.Group `json:"income_by_type"`
		ExpenseByCategory []finance.Group `json:"expense_by_category"`
	}{pnl.IncomeByType, pnl.ExpenseByCategory})
	if err != nil {
		return nil, internalError("failed to encode summary breakdown", err)
	}

	return &models.FinancialSummary{
		PeriodType:   periodType,
		PeriodStart:  pnl.Range.Start,
		PeriodEnd:    pnl.Range.End,
		TotalIncome:  pnl.TotalIncome,
		TotalExpense: pnl.TotalExpense,
		NetProfit:    pnl.NetProfit,
		ProfitMargin: pnl.ProfitMargin,
		IncomeCount:  pnl.IncomeCount,
		ExpenseCount: pnl.ExpenseCount,
		Breakdown:    breakdown,
		ExpiresAt:    now.Add(s.cacheTTL),
	}, nil
}

// ListSummaries returns cached snapshots, newest period first
func (s *ReportService) ListSummaries(ctx context.Context, periodType models.PeriodType, query *repository.ListQuery) ([]models.FinancialSummary, int64, error) {
	summaries, total, err := s.summaryRepo.List(ctx, periodType, query)
	if err != nil {
		return nil, 0, classify(err, "failed to list summaries")
	}
	return summaries, total, nil
}

// CachedSummary returns the snapshot of one period, if present and fresh
func (s *ReportService) CachedSummary(ctx context.Context, periodType models.PeriodType, rng finance.DateRange) (*models.FinancialSummary, error) {
	summary, err := s.summaryRepo.Find(ctx, periodType, rng.Start, rng.End)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &Error{Kind: KindNotFound, Message: fmt.Sprintf("no cached %s summary for %s", periodType, rng)}
		}
		return nil, classify(err, "failed to load summary")
	}
	if summary.IsExpired(s.clock.Now()) {
		return nil, &Error{Kind: KindNotFound, Message: fmt.Sprintf("cached %s summary for %s has expired", periodType, rng)}
	}
	return summary, nil
}

func (s *ReportService) aggregateBoth(ctx context.Context, rng finance.DateRange, status StatusFilter, groupBy finance.GroupBy) (finance.Result, finance.Result, error) {
	status = status.withDefaults()

	var income, expense finance.Result
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		income, err = s.aggregateIncome(gctx, rng, status.Income, nil, groupBy)
		return err
	})
	g.Go(func() error {
		var err error
		expense, err = s.aggregateExpense(gctx, rng, status.Expense, nil, groupBy)
		return err
	})
	if err := g.Wait(); err != nil {
		return finance.Result{}, finance.Result{}, err
	}
	return income, expense, nil
}

func (s *ReportService) aggregateIncome(ctx context.Context, rng finance.DateRange, statuses []models.IncomeStatus, groups []string, groupBy finance.GroupBy) (finance.Result, error) {
	entries, err := s.incomeRepo.FindInRange(ctx, rng.Start, rng.End, statuses)
	if err != nil {
		return finance.Result{}, internalError("failed to load income entries", err)
	}

	// a confirmed entry without a positive amount never counts toward revenue
	valid := entries[:0]
	for _, e := range entries {
		if e.Status == models.IncomeStatusConfirmed && !e.CountsTowardRevenue() {
			continue
		}
		valid = append(valid, e)
	}

	return finance.Aggregate(models.IncomeTransactions(valid), finance.Query{
		Range:    rng,
		Statuses: statusStrings(statuses),
		Groups:   groups,
		GroupBy:  groupBy,
	}), nil
}

func (s *ReportService) aggregateExpense(ctx context.Context, rng finance.DateRange, statuses []models.ExpenseStatus, groups []string, groupBy finance.GroupBy) (finance.Result, error) {
	entries, err := s.expenseRepo.FindInRange(ctx, rng.Start, rng.End, statuses)
	if err != nil {
		return finance.Result{}, internalError("failed to load expense entries", err)
	}
	return finance.Aggregate(models.ExpenseTransactions(entries), finance.Query{
		Range:    rng,
		Statuses: statusStrings(statuses),
		Groups:   groups,
		GroupBy:  groupBy,
	}), nil
}

func groupByFor(period models.PeriodType) (finance.GroupBy, error) {
	switch period {
	case "":
		return finance.GroupByCategory, nil
	case models.PeriodDaily:
		return finance.GroupByDay, nil
	case models.PeriodMonthly:
		return finance.GroupByMonth, nil
	case models.PeriodYearly:
		return finance.GroupByYear, nil
	}
	return 0, validationError("invalid period_type %q", period)
}

func validateYear(year int) error {
	if year < 2000 || year > 2100 {
		return validationError("year must be between 2000 and 2100")
	}
	return nil
}

func statusStrings[T ~string](statuses []T) []string {
	out := make([]string, len(statuses))
	for i, st := range statuses {
		out[i] = string(st)
	}
	return out
}
