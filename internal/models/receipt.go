package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReceiptNumberIndex is the unique index guarding receipt numbers
const ReceiptNumberIndex = "idx_receipts_receipt_number"

// Receipt is an issued, numbered proof of payment
type Receipt struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	ReceiptNumber string          `gorm:"size:32;not null;uniqueIndex:idx_receipts_receipt_number" json:"receipt_number"`
	IssueDate     time.Time       `gorm:"type:date;not null;index" json:"issue_date"`
	IncomeID      *uint           `gorm:"index" json:"income_id,omitempty"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	CustomerName  string          `gorm:"size:255" json:"customer_name"`
	PaymentMethod PaymentMethod   `gorm:"size:20;not null;default:cash" json:"payment_method"`
	Description   string          `gorm:"type:text" json:"description"`
	CreatedByID   uint            `gorm:"not null;index" json:"created_by_id"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`

	// Associations
	Income *IncomeEntry `gorm:"foreignKey:IncomeID" json:"income,omitempty"`
}

// TableName specifies the table name for Receipt
func (Receipt) TableName() string {
	return "receipts"
}

// ReceiptSequence is the per-day counter row, keyed by YYYYMMDD
type ReceiptSequence struct {
	Key       string    `gorm:"column:day_key;primaryKey;size:8" json:"day_key"`
	Value     int64     `gorm:"not null;default:0" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for ReceiptSequence
func (ReceiptSequence) TableName() string {
	return "receipt_sequences"
}
