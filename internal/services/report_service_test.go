package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/studio-finance-api/internal/clock"
	"github.com/sjperalta/studio-finance-api/internal/finance"
	"github.com/sjperalta/studio-finance-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReportTestService(store *memStore, now time.Time) *ReportService {
	repos := store.repos()
	return NewReportService(repos.Income, repos.Expense, repos.Summary, clock.Fixed{T: now}, time.Hour)
}

func day(year int, month time.Month, d, hour int) time.Time {
	return time.Date(year, month, d, hour, 0, 0, 0, bangkok)
}

func (s *memStore) addIncome(amount int64, t models.IncomeType, status models.IncomeStatus, at time.Time) {
	id := s.id()
	s.incomes[id] = models.IncomeEntry{ID: id, Amount: decimal.NewFromInt(amount), IncomeType: t, Status: status, IncomeDate: at}
}

func (s *memStore) addExpense(amount, vat int64, c models.ExpenseCategory, status models.ExpenseStatus, at time.Time) {
	id := s.id()
	s.expenses[id] = models.ExpenseEntry{ID: id, Amount: decimal.NewFromInt(amount), VATAmount: decimal.NewFromInt(vat), Category: c, Status: status, ExpenseDate: at}
}

// seedApril fills March and April 2025 with a mix of statuses
func seedApril(store *memStore) {
	store.addIncome(5000, models.IncomeTypePackage, models.IncomeStatusConfirmed, day(2025, 4, 3, 10))
	store.addIncome(1000, models.IncomeTypeSession, models.IncomeStatusPending, day(2025, 4, 4, 10))
	store.addIncome(300, models.IncomeTypeGoods, models.IncomeStatusCancelled, day(2025, 4, 5, 10))
	store.addIncome(0, models.IncomeTypeManual, models.IncomeStatusConfirmed, day(2025, 4, 6, 10))
	store.addExpense(2000, 100, models.ExpenseCategoryRent, models.ExpenseStatusApproved, day(2025, 4, 1, 9))
	store.addExpense(500, 0, models.ExpenseCategorySupplies, models.ExpenseStatusPending, day(2025, 4, 2, 9))

	store.addIncome(2500, models.IncomeTypePackage, models.IncomeStatusConfirmed, day(2025, 3, 30, 23))
	store.addExpense(2000, 0, models.ExpenseCategoryRent, models.ExpenseStatusApproved, day(2025, 3, 1, 9))
}

func TestReportService_ProfitAndLoss_DefaultStatuses(t *testing.T) {
	store := newMemStore()
	seedApril(store)
	svc := newReportTestService(store, day(2025, 4, 20, 12))

	rng := finance.MonthRange(2025, time.April, bangkok)
	pnl, err := svc.ProfitAndLoss(context.Background(), rng, StatusFilter{})
	require.NoError(t, err)

	assert.True(t, pnl.TotalIncome.Equal(decimal.NewFromInt(5000)), pnl.TotalIncome.String())
	assert.True(t, pnl.TotalExpense.Equal(decimal.NewFromInt(2000)), pnl.TotalExpense.String())
	assert.True(t, pnl.TotalVAT.Equal(decimal.NewFromInt(100)))
	assert.True(t, pnl.NetProfit.Equal(decimal.NewFromInt(3000)))
	assert.Equal(t, 60.0, pnl.ProfitMargin)
	assert.True(t, pnl.IsProfitable)
	assert.Equal(t, 1, pnl.IncomeCount)
	assert.Equal(t, 1, pnl.ExpenseCount)
}

func TestReportService_ProfitAndLoss_ExplicitStatuses(t *testing.T) {
	store := newMemStore()
	seedApril(store)
	svc := newReportTestService(store, day(2025, 4, 20, 12))

	rng := finance.MonthRange(2025, time.April, bangkok)
	pnl, err := svc.ProfitAndLoss(context.Background(), rng, StatusFilter{
		Income:  []models.IncomeStatus{models.IncomeStatusConfirmed, models.IncomeStatusPending},
		Expense: []models.ExpenseStatus{models.ExpenseStatusApproved, models.ExpenseStatusPending},
	})
	require.NoError(t, err)

	assert.True(t, pnl.TotalIncome.Equal(decimal.NewFromInt(6000)), pnl.TotalIncome.String())
	assert.True(t, pnl.TotalExpense.Equal(decimal.NewFromInt(2500)), pnl.TotalExpense.String())
	assert.Equal(t, 2, pnl.IncomeCount)
}

func TestReportService_Comparison(t *testing.T) {
	store := newMemStore()
	seedApril(store)
	svc := newReportTestService(store, day(2025, 4, 20, 12))

	cmp, err := svc.Comparison(context.Background(), ComparisonParams{})
	require.NoError(t, err)

	assert.Equal(t, time.April, cmp.CurrentRange.Start.Month())
	assert.Equal(t, time.March, cmp.PreviousRange.Start.Month())
	assert.True(t, cmp.Income.Current.Equal(decimal.NewFromInt(5000)))
	assert.True(t, cmp.Income.Previous.Equal(decimal.NewFromInt(2500)))
	assert.True(t, cmp.Income.Change.Equal(decimal.NewFromInt(2500)))
	assert.Equal(t, 100.0, cmp.Income.ChangePercent)
	assert.True(t, cmp.Expense.Change.IsZero())
}

func TestReportService_Comparison_JanuaryWrapsToDecember(t *testing.T) {
	svc := newReportTestService(newMemStore(), day(2025, 1, 15, 12))

	cmp, err := svc.Comparison(context.Background(), ComparisonParams{})
	require.NoError(t, err)
	assert.Equal(t, 2024, cmp.PreviousRange.Start.Year())
	assert.Equal(t, time.December, cmp.PreviousRange.Start.Month())
}

func TestReportService_Comparison_InvalidMonth(t *testing.T) {
	svc := newReportTestService(newMemStore(), day(2025, 4, 20, 12))

	_, err := svc.Comparison(context.Background(), ComparisonParams{Year: 2025, Month: 13})
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestReportService_CashFlow_RunningBalance(t *testing.T) {
	store := newMemStore()
	store.addIncome(100, models.IncomeTypeSession, models.IncomeStatusConfirmed, day(2025, 4, 1, 10))
	store.addExpense(30, 0, models.ExpenseCategorySupplies, models.ExpenseStatusApproved, day(2025, 4, 2, 10))
	store.addIncome(30, models.IncomeTypeGoods, models.IncomeStatusConfirmed, day(2025, 4, 3, 10))
	svc := newReportTestService(store, day(2025, 4, 20, 12))

	rng, err := finance.NewDateRange(day(2025, 4, 1, 0), day(2025, 4, 3, 0), bangkok)
	require.NoError(t, err)

	cf, err := svc.CashFlow(context.Background(), rng, "", StatusFilter{})
	require.NoError(t, err)

	require.Len(t, cf.Rows, 3)
	want := []int64{100, 70, 100}
	for i, row := range cf.Rows {
		assert.True(t, row.RunningBalance.Equal(decimal.NewFromInt(want[i])), "row %d balance %s", i, row.RunningBalance)
	}
	assert.Equal(t, "daily", cf.Period)
	assert.True(t, cf.ClosingBalance.Equal(decimal.NewFromInt(100)))
}

func TestReportService_MonthlySummary(t *testing.T) {
	store := newMemStore()
	seedApril(store)
	svc := newReportTestService(store, day(2025, 4, 20, 12))

	summary, err := svc.MonthlySummary(context.Background(), 0, StatusFilter{})
	require.NoError(t, err)

	assert.Equal(t, 2025, summary.Year)
	require.Len(t, summary.Months, 12)
	assert.True(t, summary.Months[3].NetProfit.Equal(decimal.NewFromInt(3000)))
	assert.True(t, summary.Months[2].NetProfit.Equal(decimal.NewFromInt(500)))
	assert.True(t, summary.Months[0].Income.IsZero())
	assert.Equal(t, 4, summary.BestMonth)
	assert.Equal(t, 3, summary.WorstMonth)
	assert.True(t, summary.Totals.TotalIncome.Equal(decimal.NewFromInt(7500)))

	_, err = svc.MonthlySummary(context.Background(), 1999, StatusFilter{})
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestReportService_Breakdown(t *testing.T) {
	store := newMemStore()
	seedApril(store)
	svc := newReportTestService(store, day(2025, 4, 20, 12))
	rng := finance.MonthRange(2025, time.April, bangkok)

	income, err := svc.IncomeBreakdown(context.Background(), BreakdownParams{
		Range:  rng,
		Status: StatusFilter{Income: []models.IncomeStatus{models.IncomeStatusConfirmed, models.IncomeStatusPending}},
	})
	require.NoError(t, err)
	require.Len(t, income.Groups, 2)
	assert.Equal(t, "package", income.Groups[0].Key)

	filtered, err := svc.IncomeBreakdown(context.Background(), BreakdownParams{
		Range:  rng,
		Status: StatusFilter{Income: []models.IncomeStatus{models.IncomeStatusConfirmed, models.IncomeStatusPending}},
		Groups: []string{"session"},
	})
	require.NoError(t, err)
	assert.True(t, filtered.Total.Equal(decimal.NewFromInt(1000)))

	_, err = svc.ExpenseBreakdown(context.Background(), BreakdownParams{Range: rng, Period: "weekly"})
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestReportService_RepositoryFailure(t *testing.T) {
	store := newMemStore()
	store.failFind = errors.New("connection refused")
	svc := newReportTestService(store, day(2025, 4, 20, 12))

	_, err := svc.ProfitAndLoss(context.Background(), finance.MonthRange(2025, time.April, bangkok), StatusFilter{})
	assert.Equal(t, KindInternal, KindOf(err))
}

func TestReportService_RefreshSummaryCache(t *testing.T) {
	store := newMemStore()
	seedApril(store)
	now := day(2025, 4, 20, 12)
	svc := newReportTestService(store, now)
	ctx := context.Background()

	require.NoError(t, svc.RefreshSummaryCache(ctx))
	assert.Len(t, store.summary, 4)

	cached, err := svc.CachedSummary(ctx, models.PeriodMonthly, finance.MonthRange(2025, time.April, bangkok))
	require.NoError(t, err)
	assert.True(t, cached.NetProfit.Equal(decimal.NewFromInt(3000)))
	assert.True(t, cached.ExpiresAt.Equal(now.Add(time.Hour)))
	assert.Contains(t, string(cached.Breakdown), "income_by_type")

	_, err = svc.CachedSummary(ctx, models.PeriodMonthly, finance.MonthRange(2024, time.April, bangkok))
	assert.Equal(t, KindNotFound, KindOf(err))

	later := newReportTestService(store, now.Add(2*time.Hour))
	_, err = later.CachedSummary(ctx, models.PeriodMonthly, finance.MonthRange(2025, time.April, bangkok))
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestReportService_Dashboard(t *testing.T) {
	store := newMemStore()
	seedApril(store)
	svc := newReportTestService(store, day(2025, 4, 3, 18))

	d, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.True(t, d.Today.TotalIncome.Equal(decimal.NewFromInt(5000)))
	assert.True(t, d.CurrentMonth.NetProfit.Equal(decimal.NewFromInt(3000)))
	assert.True(t, d.YearToDate.TotalIncome.Equal(decimal.NewFromInt(7500)))
	assert.True(t, d.Comparison.Income.Previous.Equal(decimal.NewFromInt(2500)))
}

func TestReportService_Dashboard_RepositoryFailure(t *testing.T) {
	store := newMemStore()
	store.failFind = errors.New("connection reset")
	svc := newReportTestService(store, day(2025, 4, 3, 18))

	d, err := svc.Dashboard(context.Background())
	assert.Nil(t, d)
	assert.Equal(t, KindInternal, KindOf(err))
}
