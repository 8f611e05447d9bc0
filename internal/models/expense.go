package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/studio-finance-api/internal/finance"
)

// ExpenseEntry is one cost record of the expense ledger
type ExpenseEntry struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	Amount            decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	VATAmount         decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"vat_amount"`
	Description       string          `gorm:"type:text" json:"description"`
	Category          ExpenseCategory `gorm:"size:20;not null;index" json:"category"`
	ExpenseDate       time.Time       `gorm:"not null;index" json:"expense_date"`
	Status            ExpenseStatus   `gorm:"size:20;not null;default:pending;index" json:"status"`
	PaymentMethod     PaymentMethod   `gorm:"size:20;not null;default:cash" json:"payment_method"`
	Vendor            *string         `gorm:"size:255" json:"vendor,omitempty"`
	IsRecurring       bool            `gorm:"not null;default:false" json:"is_recurring"`
	RecurringMonths   int             `gorm:"not null;default:0" json:"recurring_months"`
	RecurringSequence int             `gorm:"not null;default:0" json:"recurring_sequence"`
	ParentExpenseID   *uint           `gorm:"index" json:"parent_expense_id,omitempty"`
	ReceiptPath       *string         `json:"-"`
	ReceiptFilename   *string         `gorm:"size:255" json:"receipt_filename,omitempty"`
	CreatedByID       uint            `gorm:"not null;index" json:"created_by_id"`
	ApprovedByID      *uint           `gorm:"index" json:"approved_by_id,omitempty"`
	ApprovedAt        *time.Time      `json:"approved_at,omitempty"`
	RejectionReason   *string         `gorm:"type:text" json:"rejection_reason,omitempty"`
	CreatedAt         time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// TableName specifies the table name for ExpenseEntry
func (ExpenseEntry) TableName() string {
	return "expense_entries"
}

// NetAmount is the amount excluding VAT
func (e *ExpenseEntry) NetAmount() decimal.Decimal {
	return e.Amount.Sub(e.VATAmount)
}

// IsRecurringParent returns true for the first installment of a split expense
func (e *ExpenseEntry) IsRecurringParent() bool {
	return e.IsRecurring && e.ParentExpenseID == nil && e.RecurringMonths > 1
}

// HasReceipt returns true if a receipt file is attached
func (e *ExpenseEntry) HasReceipt() bool {
	return e.ReceiptPath != nil && *e.ReceiptPath != ""
}

// MayApprove returns true if the expense is still awaiting a decision
func (e *ExpenseEntry) MayApprove() bool {
	return e.Status == ExpenseStatusPending
}

// ToTransaction projects the entry onto the aggregation engine's record type
func (e *ExpenseEntry) ToTransaction() finance.Transaction {
	return finance.Transaction{
		ID:          e.ID,
		Date:        e.ExpenseDate,
		Amount:      e.Amount,
		VAT:         e.VATAmount,
		Group:       string(e.Category),
		Status:      string(e.Status),
		Description: e.Description,
	}
}

// ExpenseTransactions converts a slice of entries for aggregation
func ExpenseTransactions(entries []ExpenseEntry) []finance.Transaction {
	out := make([]finance.Transaction, len(entries))
	for i := range entries {
		out[i] = entries[i].ToTransaction()
	}
	return out
}
