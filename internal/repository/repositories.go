package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	Income  IncomeRepository
	Expense ExpenseRepository
	Receipt ReceiptRepository
	Order   OrderRepository
	Summary SummaryRepository
	Audit   AuditRepository
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Income:  NewIncomeRepository(db),
		Expense: NewExpenseRepository(db),
		Receipt: NewReceiptRepository(db),
		Order:   NewOrderRepository(db),
		Summary: NewSummaryRepository(db),
		Audit:   NewAuditRepository(db),
	}
}

// UnitOfWork runs a group of writes all-or-nothing. fn receives repositories
// bound to the transaction; returning an error rolls every write back.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(tx *Repositories) error) error
}

type gormUnitOfWork struct {
	db *gorm.DB
}

// NewUnitOfWork creates a transaction-scoped unit of work
func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &gormUnitOfWork{db: db}
}

func (u *gormUnitOfWork) Do(ctx context.Context, fn func(tx *Repositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}
