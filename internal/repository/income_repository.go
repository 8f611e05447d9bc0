package repository

import (
	"context"
	"time"

	"github.com/sjperalta/studio-finance-api/internal/models"
	"gorm.io/gorm"
)

// IncomeRepository defines the interface for income ledger access
type IncomeRepository interface {
	FindByID(ctx context.Context, id uint) (*models.IncomeEntry, error)
	FindByOrderID(ctx context.Context, orderID uint) (*models.IncomeEntry, error)
	Create(ctx context.Context, entry *models.IncomeEntry) error
	Update(ctx context.Context, entry *models.IncomeEntry) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, query *IncomeQuery) ([]models.IncomeEntry, int64, error)
	FindInRange(ctx context.Context, start, end time.Time, statuses []models.IncomeStatus) ([]models.IncomeEntry, error)
}

// IncomeQuery extends ListQuery with income-specific filters
type IncomeQuery struct {
	*ListQuery
	From          *time.Time
	To            *time.Time
	IncomeType    models.IncomeType
	Status        models.IncomeStatus
	Category      string
	PaymentMethod models.PaymentMethod
}

var incomeSortable = map[string]string{
	"income_date": "income_entries.income_date",
	"amount":      "income_entries.amount",
	"created_at":  "income_entries.created_at",
}

type incomeRepository struct {
	db *gorm.DB
}

// NewIncomeRepository creates a new income repository
func NewIncomeRepository(db *gorm.DB) IncomeRepository {
	return &incomeRepository{db: db}
}

func (r *incomeRepository) FindByID(ctx context.Context, id uint) (*models.IncomeEntry, error) {
	var entry models.IncomeEntry
	err := r.db.WithContext(ctx).First(&entry, id).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *incomeRepository) FindByOrderID(ctx context.Context, orderID uint) (*models.IncomeEntry, error) {
	var entry models.IncomeEntry
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *incomeRepository) Create(ctx context.Context, entry *models.IncomeEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *incomeRepository) Update(ctx context.Context, entry *models.IncomeEntry) error {
	return r.db.WithContext(ctx).Save(entry).Error
}

func (r *incomeRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.IncomeEntry{}, id).Error
}

func (r *incomeRepository) List(ctx context.Context, query *IncomeQuery) ([]models.IncomeEntry, int64, error) {
	var entries []models.IncomeEntry
	var total int64

	db := r.db.WithContext(ctx).Model(&models.IncomeEntry{})

	if query.From != nil {
		db = db.Where("income_entries.income_date >= ?", *query.From)
	}
	if query.To != nil {
		db = db.Where("income_entries.income_date <= ?", *query.To)
	}
	if query.IncomeType != "" {
		db = db.Where("income_entries.income_type = ?", query.IncomeType)
	}
	if query.Status != "" {
		db = db.Where("income_entries.status = ?", query.Status)
	}
	if query.Category != "" {
		db = db.Where("income_entries.category = ?", query.Category)
	}
	if query.PaymentMethod != "" {
		db = db.Where("income_entries.payment_method = ?", query.PaymentMethod)
	}
	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Where("income_entries.description ILIKE ? OR income_entries.notes ILIKE ?", search, search)
	}

	// Count total using a separate session so the main query is not altered by Count()
	countDB := db.Session(&gorm.Session{})
	if err := countDB.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := paginate(db, query.ListQuery, incomeSortable, "income_entries.income_date DESC").
		Find(&entries).Error
	return entries, total, err
}

func (r *incomeRepository) FindInRange(ctx context.Context, start, end time.Time, statuses []models.IncomeStatus) ([]models.IncomeEntry, error) {
	var entries []models.IncomeEntry
	db := r.db.WithContext(ctx).
		Where("income_date >= ? AND income_date <= ?", start, end)
	if len(statuses) > 0 {
		db = db.Where("status IN ?", statuses)
	}
	err := db.Order("income_date ASC").Find(&entries).Error
	return entries, err
}
