package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/sjperalta/studio-finance-api/internal/finance"
	"github.com/sjperalta/studio-finance-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newExportTestService(t *testing.T) *ExportService {
	t.Helper()
	store := newMemStore()
	seedApril(store)
	return NewExportService(newReportTestService(store, day(2025, 4, 20, 12)))
}

func aprilRange() *finance.DateRange {
	rng := finance.MonthRange(2025, time.April, bangkok)
	return &rng
}

func TestExportService_ProfitLossCSV(t *testing.T) {
	svc := newExportTestService(t)

	data, name, err := svc.Export(context.Background(), ReportProfitLoss, FormatCSV, ExportParams{Range: aprilRange()})
	require.NoError(t, err)
	assert.Equal(t, "profit_loss_20250401_20250430.csv", name)

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	require.NoError(t, err)

	assert.Equal(t, "Profit & Loss", records[0][0])
	assert.Contains(t, records, []string{"Total income", "5000.00"})
	assert.Contains(t, records, []string{"Net profit", "3000.00"})
	assert.Contains(t, records, []string{"Profit margin", "60.00"})
	assert.Contains(t, records, []string{"package", "1", "5000.00", "5000.00", "100.00"})
}

func TestExportService_MonthlySummaryXLSX(t *testing.T) {
	svc := newExportTestService(t)

	data, name, err := svc.Export(context.Background(), ReportMonthlySummary, FormatXLSX, ExportParams{Year: 2025})
	require.NoError(t, err)
	assert.Equal(t, "monthly_summary_2025.xlsx", name)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	require.Equal(t, []string{"Monthly summary"}, sheets)

	header, err := f.GetCellValue("Monthly summary", "A4")
	require.NoError(t, err)
	assert.Equal(t, "Month", header)

	april, err := f.GetCellValue("Monthly summary", "A8")
	require.NoError(t, err)
	assert.Equal(t, "April", april)

	rows, err := f.GetRows("Monthly summary", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	// title, subtitle, blank, header, 12 months, total
	assert.Len(t, rows, 17)
	assert.Equal(t, "3000", rows[7][3])
}

func TestExportService_ComparisonPDF(t *testing.T) {
	svc := newExportTestService(t)

	data, name, err := svc.Export(context.Background(), ReportComparison, FormatPDF, ExportParams{Year: 2025, Month: 4})
	require.NoError(t, err)
	assert.Equal(t, "comparison_202504_vs_202503.pdf", name)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestExportService_CashFlowDocument(t *testing.T) {
	svc := newExportTestService(t)

	doc, err := svc.Build(context.Background(), ReportCashFlow, ExportParams{Range: aprilRange(), Period: models.PeriodDaily})
	require.NoError(t, err)
	require.Len(t, doc.Tables, 1)

	rows := doc.Tables[0].Rows
	total := rows[len(rows)-1]
	assert.Equal(t, "Total", total[0])
	assert.Equal(t, "3000.00", cellText(total[4]))
}

func TestExportService_Build_Errors(t *testing.T) {
	svc := newExportTestService(t)

	_, err := svc.Build(context.Background(), ReportProfitLoss, ExportParams{})
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = svc.Build(context.Background(), ReportCashFlow, ExportParams{Range: aprilRange(), Period: "hourly"})
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestParseReportKindAndFormat(t *testing.T) {
	kind, err := ParseReportKind(" Cash-Flow ")
	require.NoError(t, err)
	assert.Equal(t, ReportCashFlow, kind)

	_, err = ParseReportKind("balance-sheet")
	assert.Equal(t, KindValidation, KindOf(err))

	format, err := ParseExportFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, format)

	format, err = ParseExportFormat("PDF")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, format)
	assert.Equal(t, "application/pdf", format.ContentType())

	_, err = ParseExportFormat("docx")
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "Income by type", sheetName("Income by type", 0))
	assert.Equal(t, "Sheet3", sheetName("", 2))
	assert.Len(t, sheetName("A very long sheet title that exceeds the limit", 0), 31)
	assert.Equal(t, "P-L (2025)", sheetName("P/L [2025]", 0))
}
