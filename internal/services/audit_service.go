package services

import (
	"context"

	"github.com/sjperalta/studio-finance-api/internal/models"
	"github.com/sjperalta/studio-finance-api/internal/repository"
	"github.com/sjperalta/studio-finance-api/pkg/logger"
)

// Actor identifies who performs a mutation, for the audit trail
type Actor struct {
	UserID    uint
	IP        string
	UserAgent string
}

type AuditService struct {
	repo repository.AuditRepository
}

func NewAuditService(repo repository.AuditRepository) *AuditService {
	return &AuditService{repo: repo}
}

// Log records an audit entry. Audit failures never fail the audited operation.
func (s *AuditService) Log(ctx context.Context, actor Actor, action, entity string, entityID uint, details string) {
	if err := s.LogWith(ctx, s.repo, actor, action, entity, entityID, details); err != nil {
		logger.Warn("failed to write audit log", "action", action, "entity", entity, "entity_id", entityID, "error", err)
	}
}

// LogWith records an audit entry through the given repository, so the entry
// commits or rolls back together with a unit of work.
func (s *AuditService) LogWith(ctx context.Context, repo repository.AuditRepository, actor Actor, action, entity string, entityID uint, details string) error {
	return repo.Create(ctx, &models.AuditLog{
		UserID:    actor.UserID,
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		Details:   details,
		IPAddress: actor.IP,
		UserAgent: actor.UserAgent,
	})
}

// List retrieves audit logs, optionally filtered by entity and entity_id
func (s *AuditService) List(ctx context.Context, query *repository.ListQuery) ([]models.AuditLog, int64, error) {
	logs, total, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, 0, classify(err, "failed to list audit logs")
	}
	return logs, total, nil
}
