package repository

import (
	"context"
	"errors"

	"github.com/sjperalta/studio-finance-api/internal/models"
	"gorm.io/gorm"
)

// ErrDuplicateReceiptNumber is returned when the receipt number unique index rejects an insert
var ErrDuplicateReceiptNumber = errors.New("receipt number already issued")

// ReceiptRepository defines the interface for receipt data access
type ReceiptRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Receipt, error)
	FindByNumber(ctx context.Context, number string) (*models.Receipt, error)
	FindByIncome(ctx context.Context, incomeID uint) ([]models.Receipt, error)
	Create(ctx context.Context, receipt *models.Receipt) error
	List(ctx context.Context, query *ListQuery) ([]models.Receipt, int64, error)
}

type receiptRepository struct {
	db *gorm.DB
}

// NewReceiptRepository creates a new receipt repository
func NewReceiptRepository(db *gorm.DB) ReceiptRepository {
	return &receiptRepository{db: db}
}

func (r *receiptRepository) FindByID(ctx context.Context, id uint) (*models.Receipt, error) {
	var receipt models.Receipt
	err := r.db.WithContext(ctx).Preload("Income").First(&receipt, id).Error
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (r *receiptRepository) FindByNumber(ctx context.Context, number string) (*models.Receipt, error) {
	var receipt models.Receipt
	err := r.db.WithContext(ctx).Where("receipt_number = ?", number).First(&receipt).Error
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (r *receiptRepository) FindByIncome(ctx context.Context, incomeID uint) ([]models.Receipt, error) {
	var receipts []models.Receipt
	err := r.db.WithContext(ctx).
		Where("income_id = ?", incomeID).
		Order("receipt_number ASC").
		Find(&receipts).Error
	return receipts, err
}

func (r *receiptRepository) Create(ctx context.Context, receipt *models.Receipt) error {
	if err := r.db.WithContext(ctx).Create(receipt).Error; err != nil {
		if isDuplicateKeyError(err, models.ReceiptNumberIndex) {
			return ErrDuplicateReceiptNumber
		}
		return err
	}
	return nil
}

func (r *receiptRepository) List(ctx context.Context, query *ListQuery) ([]models.Receipt, int64, error) {
	var receipts []models.Receipt
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Receipt{})
	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Where("receipt_number ILIKE ? OR customer_name ILIKE ?", search, search)
	}
	if val, ok := query.Filters["issue_date"]; ok && val != "" {
		db = db.Where("issue_date = ?", val)
	}

	countDB := db.Session(&gorm.Session{})
	if err := countDB.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := paginate(db, query, map[string]string{"receipt_number": "receipt_number"}, "receipt_number DESC").
		Find(&receipts).Error
	return receipts, total, err
}
