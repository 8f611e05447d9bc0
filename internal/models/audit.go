package models

import (
	"time"
)

// AuditLog represents a system audit entry
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Action    string    `gorm:"size:50;not null" json:"action"` // CREATE, UPDATE, DELETE, CONFIRM, APPROVE, ...
	Entity    string    `gorm:"size:50;not null;index:idx_audit_logs_entity" json:"entity"`
	EntityID  uint      `gorm:"index:idx_audit_logs_entity" json:"entity_id"`
	Details   string    `gorm:"type:text" json:"details"`
	IPAddress string    `gorm:"size:45" json:"ip_address"`
	UserAgent string    `gorm:"size:255" json:"user_agent"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	// Associations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName specifies the table name for AuditLog
func (AuditLog) TableName() string {
	return "audit_logs"
}

// Audit actions
const (
	AuditActionCreate  = "CREATE"
	AuditActionUpdate  = "UPDATE"
	AuditActionDelete  = "DELETE"
	AuditActionConfirm = "CONFIRM"
	AuditActionCancel  = "CANCEL"
	AuditActionApprove = "APPROVE"
	AuditActionReject  = "REJECT"
	AuditActionIssue   = "ISSUE"
	AuditActionUpload  = "UPLOAD"
)

// Audited entities
const (
	AuditEntityIncome  = "IncomeEntry"
	AuditEntityExpense = "ExpenseEntry"
	AuditEntityReceipt = "Receipt"
	AuditEntityOrder   = "Order"
)
