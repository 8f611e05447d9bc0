package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderType is the kind of sale an order records
type OrderType string

const (
	OrderTypePackage OrderType = "package"
	OrderTypeSession OrderType = "session"
	OrderTypeGoods   OrderType = "goods"
)

// Order status constants
const (
	OrderStatusPending   = "pending"
	OrderStatusApproved  = "approved"
	OrderStatusRejected  = "rejected"
	OrderStatusCancelled = "cancelled"
)

// Order is the booking/sales collaborator's order, reduced to the fields the
// income ledger links to and reverses.
type Order struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	UserID      uint            `gorm:"not null;index" json:"user_id"`
	ProductID   *uint           `gorm:"index" json:"product_id,omitempty"`
	OrderType   OrderType       `gorm:"size:20;not null" json:"order_type"`
	Quantity    int             `gorm:"not null;default:1" json:"quantity"`
	Sessions    int             `gorm:"not null;default:0" json:"sessions"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	Status      string          `gorm:"size:20;not null;default:pending;index" json:"status"`
	Notes       *string         `gorm:"type:text" json:"notes,omitempty"`
	ApprovedAt  *time.Time      `json:"approved_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TableName specifies the table name for Order
func (Order) TableName() string {
	return "orders"
}

// IsApproved returns true if the order's side effects have been applied
func (o *Order) IsApproved() bool {
	return o.Status == OrderStatusApproved
}

// GrantsSessions returns true for package and session sales
func (o *Order) GrantsSessions() bool {
	return o.OrderType == OrderTypePackage || o.OrderType == OrderTypeSession
}

// IncomeType maps the order kind onto the income taxonomy
func (o *Order) IncomeType() IncomeType {
	switch o.OrderType {
	case OrderTypePackage:
		return IncomeTypePackage
	case OrderTypeSession:
		return IncomeTypeSession
	default:
		return IncomeTypeGoods
	}
}

// AppendNote adds a line to the order notes
func (o *Order) AppendNote(note string) {
	if o.Notes == nil || *o.Notes == "" {
		o.Notes = &note
		return
	}
	joined := *o.Notes + "\n" + note
	o.Notes = &joined
}

// Product is the sellable-goods projection; stock is restored on reversals
type Product struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Name      string          `gorm:"not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"price"`
	Stock     int             `gorm:"not null;default:0" json:"stock"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TableName specifies the table name for Product
func (Product) TableName() string {
	return "products"
}
