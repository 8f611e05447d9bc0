package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// FinancialSummary is a cached period P&L snapshot. Reports never depend on
// it being present; it only backs the summaries listing and the dashboard.
type FinancialSummary struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	PeriodType   PeriodType      `gorm:"size:10;not null;uniqueIndex:idx_financial_summaries_period" json:"period_type"`
	PeriodStart  time.Time       `gorm:"not null;uniqueIndex:idx_financial_summaries_period" json:"period_start"`
	PeriodEnd    time.Time       `gorm:"not null;uniqueIndex:idx_financial_summaries_period" json:"period_end"`
	TotalIncome  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_income"`
	TotalExpense decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_expense"`
	NetProfit    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"net_profit"`
	ProfitMargin float64         `gorm:"not null;default:0" json:"profit_margin"`
	IncomeCount  int             `gorm:"not null;default:0" json:"income_count"`
	ExpenseCount int             `gorm:"not null;default:0" json:"expense_count"`
	Breakdown    json.RawMessage `gorm:"type:jsonb" json:"breakdown"`
	ExpiresAt    time.Time       `gorm:"not null;index" json:"expires_at"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// TableName specifies the table name for FinancialSummary
func (FinancialSummary) TableName() string {
	return "financial_summaries"
}

// IsExpired returns true once the snapshot should be recomputed
func (s *FinancialSummary) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
