package repository

import (
	"context"

	"github.com/sjperalta/studio-finance-api/internal/models"
	"gorm.io/gorm"
)

// AuditRepository persists audit entries
type AuditRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, query *ListQuery) ([]models.AuditLog, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *auditRepository) List(ctx context.Context, query *ListQuery) ([]models.AuditLog, int64, error) {
	var logs []models.AuditLog
	var total int64

	db := r.db.WithContext(ctx).Model(&models.AuditLog{})
	if val, ok := query.Filters["entity"]; ok && val != "" {
		db = db.Where("entity = ?", val)
	}
	if val, ok := query.Filters["entity_id"]; ok && val != "" {
		db = db.Where("entity_id = ?", val)
	}

	if err := db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := paginate(db, query, nil, "created_at DESC").Preload("User").Find(&logs).Error
	return logs, total, err
}
