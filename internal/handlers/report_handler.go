package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/studio-finance-api/internal/models"
	"github.com/sjperalta/studio-finance-api/internal/services"
)

type ReportHandler struct {
	reportService *services.ReportService
	exportService *services.ExportService
	loc           *time.Location
}

func NewReportHandler(reportService *services.ReportService, exportService *services.ExportService, loc *time.Location) *ReportHandler {
	return &ReportHandler{reportService: reportService, exportService: exportService, loc: loc}
}

// @Summary Profit & Loss
// @Description Income, expenses, VAT, net profit and margin over a date range
// @Tags Reports
// @Produce json
// @Param start_date query string true "YYYY-MM-DD"
// @Param end_date query string true "YYYY-MM-DD"
// @Param income_status query string false "Comma list, default confirmed"
// @Param expense_status query string false "Comma list, default approved"
// @Success 200 {object} finance.ProfitAndLoss
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /finance/reports/profit-loss [get]
func (h *ReportHandler) ProfitLoss(c *gin.Context) {
	rng, err := dateRange(c, h.loc)
	if err != nil {
		respondError(c, err)
		return
	}
	status, err := statusFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}

	pnl, err := h.reportService.ProfitAndLoss(c.Request.Context(), rng, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pnl)
}

// @Summary Income Breakdown
// @Description Income grouped by type, or by period when period_type is set
// @Tags Reports
// @Produce json
// @Param start_date query string true "YYYY-MM-DD"
// @Param end_date query string true "YYYY-MM-DD"
// @Param period_type query string false "daily|monthly|yearly"
// @Param income_type query string false "Comma list of income types"
// @Param income_status query string false "Comma list, default confirmed"
// @Success 200 {object} finance.Result
// @Security BearerAuth
// @Router /finance/reports/income-breakdown [get]
func (h *ReportHandler) IncomeBreakdown(c *gin.Context) {
	params, err := breakdownParams(c, h.loc, "income_type", models.ParseIncomeType)
	if err != nil {
		respondError(c, err)
		return
	}
	result, err := h.reportService.IncomeBreakdown(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// @Summary Expense Breakdown
// @Description Expenses grouped by category, or by period when period_type is set
// @Tags Reports
// @Produce json
// @Param start_date query string true "YYYY-MM-DD"
// @Param end_date query string true "YYYY-MM-DD"
// @Param period_type query string false "daily|monthly|yearly"
// @Param category query string false "Comma list of expense categories"
// @Param expense_status query string false "Comma list, default approved"
// @Success 200 {object} finance.Result
// @Security BearerAuth
// @Router /finance/reports/expense-breakdown [get]
func (h *ReportHandler) ExpenseBreakdown(c *gin.Context) {
	params, err := breakdownParams(c, h.loc, "category", models.ParseExpenseCategory)
	if err != nil {
		respondError(c, err)
		return
	}
	result, err := h.reportService.ExpenseBreakdown(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func breakdownParams[T ~string](c *gin.Context, loc *time.Location, groupKey string, parseGroup func(string) (T, error)) (services.BreakdownParams, error) {
	var params services.BreakdownParams
	var err error
	if params.Range, err = dateRange(c, loc); err != nil {
		return params, err
	}
	if params.Status, err = statusFilter(c); err != nil {
		return params, err
	}
	if params.Period, err = periodParam(c); err != nil {
		return params, err
	}
	groups, err := enumList(c, groupKey, parseGroup)
	for _, g := range groups {
		params.Groups = append(params.Groups, string(g))
	}
	return params, err
}

// @Summary Cash Flow
// @Description Inflow, outflow and running balance per period bucket
// @Tags Reports
// @Produce json
// @Param start_date query string true "YYYY-MM-DD"
// @Param end_date query string true "YYYY-MM-DD"
// @Param period_type query string false "daily|monthly|yearly" default(daily)
// @Success 200 {object} finance.CashFlow
// @Security BearerAuth
// @Router /finance/reports/cash-flow [get]
func (h *ReportHandler) CashFlow(c *gin.Context) {
	rng, err := dateRange(c, h.loc)
	if err != nil {
		respondError(c, err)
		return
	}
	period, err := periodParam(c)
	if err != nil {
		respondError(c, err)
		return
	}
	status, err := statusFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}

	cf, err := h.reportService.CashFlow(c.Request.Context(), rng, period, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cf)
}

// @Summary Monthly Summary
// @Description Twelve dense month rows for a year, with totals and best/worst month
// @Tags Reports
// @Produce json
// @Param year query int false "Year, default current"
// @Success 200 {object} services.MonthlySummary
// @Security BearerAuth
// @Router /finance/reports/monthly-summary [get]
func (h *ReportHandler) MonthlySummary(c *gin.Context) {
	year, err := intParam(c, "year")
	if err != nil {
		respondError(c, err)
		return
	}
	status, err := statusFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}

	summary, err := h.reportService.MonthlySummary(c.Request.Context(), year, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// @Summary Month Comparison
// @Description Compares a month with another, by default the month before
// @Tags Reports
// @Produce json
// @Param year query int false "Year"
// @Param month query int false "Month 1-12"
// @Param compare_year query int false "Year to compare with"
// @Param compare_month query int false "Month to compare with"
// @Success 200 {object} finance.Comparison
// @Security BearerAuth
// @Router /finance/reports/comparison [get]
func (h *ReportHandler) Comparison(c *gin.Context) {
	params, err := comparisonParams(c)
	if err != nil {
		respondError(c, err)
		return
	}
	cmp, err := h.reportService.Comparison(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cmp)
}

func comparisonParams(c *gin.Context) (services.ComparisonParams, error) {
	var params services.ComparisonParams
	var err error
	if params.Year, err = intParam(c, "year"); err != nil {
		return params, err
	}
	if params.Month, err = intParam(c, "month"); err != nil {
		return params, err
	}
	if params.CompareYear, err = intParam(c, "compare_year"); err != nil {
		return params, err
	}
	if params.CompareMonth, err = intParam(c, "compare_month"); err != nil {
		return params, err
	}
	params.Status, err = statusFilter(c)
	return params, err
}

// @Summary Dashboard
// @Description Today, current month and year-to-date figures plus the month comparison
// @Tags Reports
// @Produce json
// @Success 200 {object} services.Dashboard
// @Security BearerAuth
// @Router /finance/reports/dashboard [get]
func (h *ReportHandler) Dashboard(c *gin.Context) {
	d, err := h.reportService.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// @Summary Export Report
// @Description Renders a report as Excel, CSV or PDF
// @Tags Reports
// @Produce application/octet-stream
// @Param report query string true "profit-loss|cash-flow|monthly-summary|comparison"
// @Param format query string false "xlsx|csv|pdf" default(xlsx)
// @Param start_date query string false "YYYY-MM-DD"
// @Param end_date query string false "YYYY-MM-DD"
// @Success 200 {file} file "report"
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /finance/reports/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	kind, err := services.ParseReportKind(c.Query("report"))
	if err != nil {
		respondError(c, err)
		return
	}
	format, err := services.ParseExportFormat(c.Query("format"))
	if err != nil {
		respondError(c, err)
		return
	}

	var params services.ExportParams
	if params.Range, err = optionalDateRange(c, h.loc); err != nil {
		respondError(c, err)
		return
	}
	if params.Period, err = periodParam(c); err != nil {
		respondError(c, err)
		return
	}
	cmp, err := comparisonParams(c)
	if err != nil {
		respondError(c, err)
		return
	}
	params.Year, params.Month = cmp.Year, cmp.Month
	params.CompareYear, params.CompareMonth = cmp.CompareYear, cmp.CompareMonth
	params.Status = cmp.Status

	data, name, err := h.exportService.Export(c.Request.Context(), kind, format, params)
	if err != nil {
		respondError(c, err)
		return
	}
	attachment(c, "attachment", format.ContentType(), name, data)
}

// @Summary Cached Summaries
// @Description Financial summary snapshots written by the refresh job
// @Tags Reports
// @Produce json
// @Param period_type query string false "daily|monthly|yearly" default(monthly)
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /finance/summaries [get]
func (h *ReportHandler) Summaries(c *gin.Context) {
	period, err := periodParam(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if period == "" {
		period = models.PeriodMonthly
	}
	query := listQuery(c, 20)

	summaries, total, err := h.reportService.ListSummaries(c.Request.Context(), period, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summaries": summaries, "pagination": pagination(query, total)})
}
