package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/sjperalta/studio-finance-api/internal/finance"
	"github.com/sjperalta/studio-finance-api/internal/models"
	"github.com/xuri/excelize/v2"
)

// ReportKind names an exportable report
type ReportKind string

const (
	ReportProfitLoss     ReportKind = "profit-loss"
	ReportCashFlow       ReportKind = "cash-flow"
	ReportMonthlySummary ReportKind = "monthly-summary"
	ReportComparison     ReportKind = "comparison"
)

// ExportFormat is an output file format
type ExportFormat string

const (
	FormatXLSX ExportFormat = "xlsx"
	FormatCSV  ExportFormat = "csv"
	FormatPDF  ExportFormat = "pdf"
)

// ContentType returns the MIME type of the format
func (f ExportFormat) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	default:
		return "application/pdf"
	}
}

func ParseReportKind(s string) (ReportKind, error) {
	switch k := ReportKind(strings.ToLower(strings.TrimSpace(s))); k {
	case ReportProfitLoss, ReportCashFlow, ReportMonthlySummary, ReportComparison:
		return k, nil
	}
	return "", validationError("invalid report %q (allowed: profit-loss, cash-flow, monthly-summary, comparison)", s)
}

func ParseExportFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatXLSX, nil
	case FormatXLSX, FormatCSV, FormatPDF:
		return f, nil
	}
	return "", validationError("invalid format %q (allowed: xlsx, csv, pdf)", s)
}

// ExportParams carries the inputs of every exportable report; each report
// reads the fields it needs.
type ExportParams struct {
	Range        *finance.DateRange
	Period       models.PeriodType
	Year         int
	Month        int
	CompareYear  int
	CompareMonth int
	Status       StatusFilter
}

// Percent marks a cell holding a percentage value
type Percent float64

// Table is one titled grid of a report. Cells hold raw values:
// decimal.Decimal, Percent, int or string.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]any
}

// ReportDocument is a fully resolved report ready to render
type ReportDocument struct {
	Name     string
	Title    string
	Subtitle string
	Tables   []Table
}

type ExportService struct {
	reportSvc *ReportService
}

func NewExportService(reportSvc *ReportService) *ExportService {
	return &ExportService{reportSvc: reportSvc}
}

// Export computes a report and renders it, returning the file body and name
func (s *ExportService) Export(ctx context.Context, kind ReportKind, format ExportFormat, params ExportParams) ([]byte, string, error) {
	doc, err := s.Build(ctx, kind, params)
	if err != nil {
		return nil, "", err
	}
	return s.Render(doc, format)
}

// Build computes the report data and lays it out as tables
func (s *ExportService) Build(ctx context.Context, kind ReportKind, params ExportParams) (*ReportDocument, error) {
	needsRange := kind == ReportProfitLoss || kind == ReportCashFlow
	if needsRange && params.Range == nil {
		return nil, validationError("%s", finance.ErrMissingRange.Error())
	}

	switch kind {
	case ReportProfitLoss:
		pnl, err := s.reportSvc.ProfitAndLoss(ctx, *params.Range, params.Status)
		if err != nil {
			return nil, err
		}
		return ProfitAndLossDocument(pnl), nil
	case ReportCashFlow:
		cf, err := s.reportSvc.CashFlow(ctx, *params.Range, params.Period, params.Status)
		if err != nil {
			return nil, err
		}
		return CashFlowDocument(cf), nil
	case ReportMonthlySummary:
		ms, err := s.reportSvc.MonthlySummary(ctx, params.Year, params.Status)
		if err != nil {
			return nil, err
		}
		return MonthlySummaryDocument(ms), nil
	case ReportComparison:
		cmp, err := s.reportSvc.Comparison(ctx, ComparisonParams{
			Year:         params.Year,
			Month:        params.Month,
			CompareYear:  params.CompareYear,
			CompareMonth: params.CompareMonth,
			Status:       params.Status,
		})
		if err != nil {
			return nil, err
		}
		return ComparisonDocument(cmp), nil
	}
	return nil, validationError("invalid report %q", kind)
}

// Render writes doc in the requested format
func (s *ExportService) Render(doc *ReportDocument, format ExportFormat) ([]byte, string, error) {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatCSV:
		data, err = renderCSV(doc)
	case FormatPDF:
		data, err = renderPDF(doc)
	default:
		format = FormatXLSX
		data, err = renderXLSX(doc)
	}
	if err != nil {
		return nil, "", internalError("failed to render "+string(format), err)
	}
	return data, fmt.Sprintf("%s.%s", doc.Name, format), nil
}

// ProfitAndLossDocument lays out a P&L statement
func ProfitAndLossDocument(pnl *finance.ProfitAndLoss) *ReportDocument {
	summary := Table{
		Title:   "Summary",
		Headers: []string{"Metric", "Amount"},
		Rows: [][]any{
			{"Total income", pnl.TotalIncome},
			{"Total expense", pnl.TotalExpense},
			{"VAT", pnl.TotalVAT},
			{"Net expense (excl. VAT)", pnl.NetExpense},
			{"Net profit", pnl.NetProfit},
			{"Profit margin", Percent(pnl.ProfitMargin)},
			{"Income entries", pnl.IncomeCount},
			{"Expense entries", pnl.ExpenseCount},
		},
	}
	return &ReportDocument{
		Name:     "profit_loss_" + rangeSlug(pnl.Range),
		Title:    "Profit & Loss",
		Subtitle: pnl.Range.String(),
		Tables: []Table{
			summary,
			groupTable("Income by type", "Type", pnl.IncomeByType),
			groupTable("Expense by category", "Category", pnl.ExpenseByCategory),
		},
	}
}

func groupTable(title, keyHeader string, groups []finance.Group) Table {
	t := Table{Title: title, Headers: []string{keyHeader, "Count", "Total", "Average", "Share"}}
	for _, g := range groups {
		t.Rows = append(t.Rows, []any{g.Label, g.Count, g.Total, g.Average, Percent(g.Percentage)})
	}
	return t
}

// CashFlowDocument lays out a cash-flow statement
func CashFlowDocument(cf *finance.CashFlow) *ReportDocument {
	t := Table{Title: "Cash flow", Headers: []string{"Period", "Inflow", "Outflow", "Net", "Running balance"}}
	for _, r := range cf.Rows {
		t.Rows = append(t.Rows, []any{r.Label, r.Inflow, r.Outflow, r.Net, r.RunningBalance})
	}
	t.Rows = append(t.Rows, []any{"Total", cf.TotalInflow, cf.TotalOutflow, cf.NetCashFlow, cf.ClosingBalance})

	return &ReportDocument{
		Name:     "cash_flow_" + rangeSlug(cf.Range),
		Title:    "Cash Flow (" + cf.Period + ")",
		Subtitle: cf.Range.String(),
		Tables:   []Table{t},
	}
}

// MonthlySummaryDocument lays out the twelve-month table of a year
func MonthlySummaryDocument(ms *MonthlySummary) *ReportDocument {
	t := Table{Title: "Monthly summary", Headers: []string{"Month", "Income", "Expense", "Net profit", "Margin", "Income entries", "Expense entries"}}
	for _, r := range ms.Months {
		t.Rows = append(t.Rows, []any{
			finance.MonthName(r.Month), r.Income, r.Expense, r.NetProfit,
			Percent(r.ProfitMargin), r.IncomeCount, r.ExpenseCount,
		})
	}
	tot := ms.Totals
	t.Rows = append(t.Rows, []any{
		"Total", tot.TotalIncome, tot.TotalExpense, tot.NetProfit,
		Percent(tot.ProfitMargin), tot.IncomeCount, tot.ExpenseCount,
	})

	return &ReportDocument{
		Name:     fmt.Sprintf("monthly_summary_%d", ms.Year),
		Title:    "Monthly Summary",
		Subtitle: strconv.Itoa(ms.Year),
		Tables:   []Table{t},
	}
}

// ComparisonDocument lays out a period-over-period comparison
func ComparisonDocument(cmp *finance.Comparison) *ReportDocument {
	headers := []string{"Metric", "Current", "Previous", "Change", "Change %"}
	metrics := Table{Title: "Overview", Headers: headers}
	for _, m := range []struct {
		name string
		c    finance.Change
	}{
		{"Income", cmp.Income},
		{"Expense", cmp.Expense},
		{"Net profit", cmp.NetProfit},
	} {
		metrics.Rows = append(metrics.Rows, changeRow(m.name, m.c))
	}
	metrics.Rows = append(metrics.Rows, []any{
		"Profit margin",
		Percent(cmp.ProfitMargin.Current.InexactFloat64()),
		Percent(cmp.ProfitMargin.Previous.InexactFloat64()),
		Percent(cmp.ProfitMargin.Change.InexactFloat64()),
		Percent(cmp.ProfitMargin.ChangePercent),
	})

	keyed := func(title string, changes []finance.KeyedChange) Table {
		t := Table{Title: title, Headers: headers}
		for _, kc := range changes {
			t.Rows = append(t.Rows, changeRow(kc.Key, kc.Change))
		}
		return t
	}

	return &ReportDocument{
		Name:     fmt.Sprintf("comparison_%s_vs_%s", cmp.CurrentRange.Start.Format("200601"), cmp.PreviousRange.Start.Format("200601")),
		Title:    "Period Comparison",
		Subtitle: cmp.CurrentRange.String() + " vs " + cmp.PreviousRange.String(),
		Tables: []Table{
			metrics,
			keyed("Income by type", cmp.IncomeByType),
			keyed("Expense by category", cmp.ExpenseByCategory),
		},
	}
}

func changeRow(name string, c finance.Change) []any {
	return []any{name, c.Current, c.Previous, c.Change, Percent(c.ChangePercent)}
}

func rangeSlug(r finance.DateRange) string {
	return r.Start.Format("20060102") + "_" + r.End.Format("20060102")
}

// cellText is the plain rendering used by CSV
func cellText(v any) string {
	switch x := v.(type) {
	case decimal.Decimal:
		return x.StringFixed(2)
	case Percent:
		return strconv.FormatFloat(float64(x), 'f', 2, 64)
	case int:
		return strconv.Itoa(x)
	case string:
		return x
	}
	return fmt.Sprint(v)
}

// displayText is the human rendering used by PDF
func displayText(v any) string {
	switch x := v.(type) {
	case decimal.Decimal:
		return strings.Replace(finance.FormatTHB(x), "฿", "THB ", 1)
	case Percent:
		return finance.Percent(float64(x))
	}
	return cellText(v)
}

func renderCSV(doc *ReportDocument) ([]byte, error) {
	buf := new(bytes.Buffer)
	writer := csv.NewWriter(buf)

	_ = writer.Write([]string{doc.Title, doc.Subtitle})
	_ = writer.Write([]string{"Generated", time.Now().Format("2006-01-02 15:04")})
	for _, t := range doc.Tables {
		_ = writer.Write([]string{""})
		_ = writer.Write([]string{t.Title})
		_ = writer.Write(t.Headers)
		for _, row := range t.Rows {
			record := make([]string, len(row))
			for i, v := range row {
				record[i] = cellText(v)
			}
			_ = writer.Write(record)
		}
	}

	writer.Flush()
	return buf.Bytes(), writer.Error()
}

func renderXLSX(doc *ReportDocument) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	moneyFmt := "#,##0.00"
	moneyStyle, _ := f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt})
	percentFmt := `0.00"%"`
	percentStyle, _ := f.NewStyle(&excelize.Style{CustomNumFmt: &percentFmt})

	for i, t := range doc.Tables {
		sheet := sheetName(t.Title, i)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}

		_ = f.SetCellValue(sheet, "A1", doc.Title+" - "+t.Title)
		_ = f.SetCellStyle(sheet, "A1", "A1", titleStyle)
		_ = f.SetCellValue(sheet, "A2", doc.Subtitle)

		const headerRow = 4
		for col, h := range t.Headers {
			cell, _ := excelize.CoordinatesToCellName(col+1, headerRow)
			_ = f.SetCellValue(sheet, cell, h)
			_ = f.SetCellStyle(sheet, cell, cell, headerStyle)
		}

		for r, row := range t.Rows {
			for col, v := range row {
				cell, _ := excelize.CoordinatesToCellName(col+1, headerRow+1+r)
				switch x := v.(type) {
				case decimal.Decimal:
					_ = f.SetCellValue(sheet, cell, x.InexactFloat64())
					_ = f.SetCellStyle(sheet, cell, cell, moneyStyle)
				case Percent:
					_ = f.SetCellValue(sheet, cell, float64(x))
					_ = f.SetCellStyle(sheet, cell, cell, percentStyle)
				default:
					_ = f.SetCellValue(sheet, cell, v)
				}
			}
		}

		if n := len(t.Headers); n > 0 {
			last, _ := excelize.ColumnNumberToName(n)
			_ = f.SetColWidth(sheet, "A", last, 18)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// sheetName trims titles to Excel's 31 character limit
func sheetName(title string, index int) string {
	name := strings.NewReplacer("/", "-", "\\", "-", "?", "", "*", "", "[", "(", "]", ")", ":", "").Replace(title)
	if name == "" {
		name = fmt.Sprintf("Sheet%d", index+1)
	}
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}

func renderPDF(doc *ReportDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, tr(doc.Title))
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(40, 8, tr(doc.Subtitle))
	pdf.Ln(12)

	const width = 190.0
	for _, t := range doc.Tables {
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(40, 10, tr(t.Title))
		pdf.Ln(10)

		colW := width / float64(len(t.Headers))
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(224, 224, 224)
		for _, h := range t.Headers {
			pdf.CellFormat(colW, 7, tr(h), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 9)
		for _, row := range t.Rows {
			for i, v := range row {
				align := "R"
				if _, isText := v.(string); isText || i == 0 {
					align = "L"
				}
				pdf.CellFormat(colW, 6, tr(displayText(v)), "1", 0, align, false, 0, "")
			}
			pdf.Ln(-1)
		}
		pdf.Ln(6)
	}

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
