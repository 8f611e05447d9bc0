package repository

import (
	"context"
	"time"

	"github.com/sjperalta/studio-finance-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SummaryRepository stores cached period snapshots
type SummaryRepository interface {
	Upsert(ctx context.Context, summary *models.FinancialSummary) error
	Find(ctx context.Context, periodType models.PeriodType, start, end time.Time) (*models.FinancialSummary, error)
	List(ctx context.Context, periodType models.PeriodType, query *ListQuery) ([]models.FinancialSummary, int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type summaryRepository struct {
	db *gorm.DB
}

// NewSummaryRepository creates a new summary cache repository
func NewSummaryRepository(db *gorm.DB) SummaryRepository {
	return &summaryRepository{db: db}
}

func (r *summaryRepository) Upsert(ctx context.Context, summary *models.FinancialSummary) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "period_type"}, {Name: "period_start"}, {Name: "period_end"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_income", "total_expense", "net_profit", "profit_margin",
			"income_count", "expense_count", "breakdown", "expires_at", "updated_at",
		}),
	}).Create(summary).Error
}

func (r *summaryRepository) Find(ctx context.Context, periodType models.PeriodType, start, end time.Time) (*models.FinancialSummary, error) {
	var summary models.FinancialSummary
	err := r.db.WithContext(ctx).
		Where("period_type = ? AND period_start = ? AND period_end = ?", periodType, start, end).
		First(&summary).Error
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func (r *summaryRepository) List(ctx context.Context, periodType models.PeriodType, query *ListQuery) ([]models.FinancialSummary, int64, error) {
	var summaries []models.FinancialSummary
	var total int64

	db := r.db.WithContext(ctx).Model(&models.FinancialSummary{})
	if periodType != "" {
		db = db.Where("period_type = ?", periodType)
	}

	countDB := db.Session(&gorm.Session{})
	if err := countDB.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := paginate(db, query, map[string]string{"period_start": "period_start"}, "period_start DESC").
		Find(&summaries).Error
	return summaries, total, err
}

func (r *summaryRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&models.FinancialSummary{})
	return res.RowsAffected, res.Error
}
