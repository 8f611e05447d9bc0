package repository

import (
	"context"
	"time"

	"github.com/sjperalta/studio-finance-api/internal/models"
	"gorm.io/gorm"
)

// ExpenseRepository defines the interface for expense ledger access
type ExpenseRepository interface {
	FindByID(ctx context.Context, id uint) (*models.ExpenseEntry, error)
	FindByParent(ctx context.Context, parentID uint) ([]models.ExpenseEntry, error)
	Create(ctx context.Context, entry *models.ExpenseEntry) error
	Update(ctx context.Context, entry *models.ExpenseEntry) error
	Delete(ctx context.Context, id uint) error
	DeleteByParent(ctx context.Context, parentID uint) error
	List(ctx context.Context, query *ExpenseQuery) ([]models.ExpenseEntry, int64, error)
	FindInRange(ctx context.Context, start, end time.Time, statuses []models.ExpenseStatus) ([]models.ExpenseEntry, error)
}

// ExpenseQuery extends ListQuery with expense-specific filters
type ExpenseQuery struct {
	*ListQuery
	From     *time.Time
	To       *time.Time
	Category models.ExpenseCategory
	Status   models.ExpenseStatus
	ParentID *uint
}

var expenseSortable = map[string]string{
	"expense_date": "expense_entries.expense_date",
	"amount":       "expense_entries.amount",
	"created_at":   "expense_entries.created_at",
}

type expenseRepository struct {
	db *gorm.DB
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *gorm.DB) ExpenseRepository {
	return &expenseRepository{db: db}
}

func (r *expenseRepository) FindByID(ctx context.Context, id uint) (*models.ExpenseEntry, error) {
	var entry models.ExpenseEntry
	err := r.db.WithContext(ctx).First(&entry, id).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *expenseRepository) FindByParent(ctx context.Context, parentID uint) ([]models.ExpenseEntry, error) {
	var entries []models.ExpenseEntry
	err := r.db.WithContext(ctx).
		Where("parent_expense_id = ?", parentID).
		Order("recurring_sequence ASC").
		Find(&entries).Error
	return entries, err
}

func (r *expenseRepository) Create(ctx context.Context, entry *models.ExpenseEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *expenseRepository) Update(ctx context.Context, entry *models.ExpenseEntry) error {
	return r.db.WithContext(ctx).Save(entry).Error
}

func (r *expenseRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.ExpenseEntry{}, id).Error
}

func (r *expenseRepository) DeleteByParent(ctx context.Context, parentID uint) error {
	return r.db.WithContext(ctx).
		Where("parent_expense_id = ?", parentID).
		Delete(&models.ExpenseEntry{}).Error
}

func (r *expenseRepository) List(ctx context.Context, query *ExpenseQuery) ([]models.ExpenseEntry, int64, error) {
	var entries []models.ExpenseEntry
	var total int64

	db := r.db.WithContext(ctx).Model(&models.ExpenseEntry{})

	if query.From != nil {
		db = db.Where("expense_entries.expense_date >= ?", *query.From)
	}
	if query.To != nil {
		db = db.Where("expense_entries.expense_date <= ?", *query.To)
	}
	if query.Category != "" {
		db = db.Where("expense_entries.category = ?", query.Category)
	}
	if query.Status != "" {
		db = db.Where("expense_entries.status = ?", query.Status)
	}
	if query.ParentID != nil {
		db = db.Where("expense_entries.parent_expense_id = ? OR expense_entries.id = ?", *query.ParentID, *query.ParentID)
	}
	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Where("expense_entries.description ILIKE ? OR expense_entries.vendor ILIKE ?", search, search)
	}

	countDB := db.Session(&gorm.Session{})
	if err := countDB.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := paginate(db, query.ListQuery, expenseSortable, "expense_entries.expense_date DESC").
		Find(&entries).Error
	return entries, total, err
}

func (r *expenseRepository) FindInRange(ctx context.Context, start, end time.Time, statuses []models.ExpenseStatus) ([]models.ExpenseEntry, error) {
	var entries []models.ExpenseEntry
	db := r.db.WithContext(ctx).
		Where("expense_date >= ? AND expense_date <= ?", start, end)
	if len(statuses) > 0 {
		db = db.Where("status IN ?", statuses)
	}
	err := db.Order("expense_date ASC").Find(&entries).Error
	return entries, err
}
