package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/studio-finance-api/internal/finance"
)

// DefaultIncomeCategory is applied when an entry is created without a category
const DefaultIncomeCategory = "general"

// IncomeEntry is one revenue record of the income ledger
type IncomeEntry struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Description   string          `gorm:"type:text" json:"description"`
	IncomeType    IncomeType      `gorm:"size:20;not null;index" json:"income_type"`
	IncomeDate    time.Time       `gorm:"not null;index" json:"income_date"`
	Status        IncomeStatus    `gorm:"size:20;not null;default:confirmed;index" json:"status"`
	Category      string          `gorm:"size:50;not null;default:general;index" json:"category"`
	OrderID       *uint           `gorm:"index" json:"order_id,omitempty"`
	ReservationID *uint           `gorm:"index" json:"reservation_id,omitempty"`
	PaymentMethod PaymentMethod   `gorm:"size:20;not null;default:cash" json:"payment_method"`
	Notes         *string         `gorm:"type:text" json:"notes,omitempty"`
	CreatedByID   uint            `gorm:"not null;index" json:"created_by_id"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	// Associations
	Order *Order `gorm:"foreignKey:OrderID" json:"order,omitempty"`
}

// TableName specifies the table name for IncomeEntry
func (IncomeEntry) TableName() string {
	return "income_entries"
}

// CountsTowardRevenue reports whether the entry belongs in revenue totals.
// A confirmed entry without a positive amount is invalid for reporting.
func (e *IncomeEntry) CountsTowardRevenue() bool {
	return e.Status == IncomeStatusConfirmed && e.Amount.IsPositive()
}

// MayConfirm returns true if the entry can move to confirmed
func (e *IncomeEntry) MayConfirm() bool {
	return e.Status == IncomeStatusPending
}

// MayCancel returns true if the entry can be cancelled
func (e *IncomeEntry) MayCancel() bool {
	return e.Status == IncomeStatusPending || e.Status == IncomeStatusConfirmed
}

// ToTransaction projects the entry onto the aggregation engine's record type
func (e *IncomeEntry) ToTransaction() finance.Transaction {
	return finance.Transaction{
		ID:          e.ID,
		Date:        e.IncomeDate,
		Amount:      e.Amount,
		Group:       string(e.IncomeType),
		Status:      string(e.Status),
		Description: e.Description,
	}
}

// IncomeTransactions converts a slice of entries for aggregation
func IncomeTransactions(entries []IncomeEntry) []finance.Transaction {
	out := make([]finance.Transaction, len(entries))
	for i := range entries {
		out[i] = entries[i].ToTransaction()
	}
	return out
}
