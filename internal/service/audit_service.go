package service

import (
	"context"
	"fmt"

	"occ-api/internal/model"
	"occ-api/internal/repository"
	"occ-api/pkg/pagination"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type AuditLogResponse struct {
	ID         string                 `json:"id"`
	UserID     string                 `json:"user_id"`
	UserName   string                 `json:"user_name"`
	Action     string                 `json:"action"`
	EntityID   string                 `json:"entity_id"`
	EntityName string                 `json:"entity_name"`
	Details    map[string]interface{} `json:"details"`
	CreatedAt  string                 `json:"created_at"`
}

type AuditService interface {
	// Record writes an audit entry. Failures are logged, never returned:
	// the audited operation has already succeeded.
	Record(ctx context.Context, actor Actor, action, entityName, entityID string, details map[string]interface{})
	List(ctx context.Context, filter repository.AuditFilter, p pagination.Params) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	repo repository.AuditRepository
	log  *zap.Logger
}

// NewAuditService creates a new AuditService instance
func NewAuditService(repo repository.AuditRepository, log *zap.Logger) AuditService {
	return &auditService{repo: repo, log: log}
}

func (s *auditService) Record(ctx context.Context, actor Actor, action, entityName, entityID string, details map[string]interface{}) {
	entry := &model.AuditLog{
		UserID:     actor.userRef(),
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    datatypes.JSONMap(details),
	}
	if err := s.repo.Log(ctx, entry); err != nil {
		s.log.Warn("failed to write audit log",
			zap.String("action", action),
			zap.String("entity_id", entityID),
			zap.Error(err))
	}
}

func (s *auditService) List(ctx context.Context, filter repository.AuditFilter, p pagination.Params) ([]AuditLogResponse, int64, error) {
	logs, total, err := s.repo.List(ctx, filter, repository.Page{Offset: p.Offset, Limit: p.Limit})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		name := "System"
		userID := ""
		if l.User != nil {
			name = l.User.Name
		}
		if l.UserID != nil && *l.UserID != uuid.Nil {
			userID = l.UserID.String()
		}

		res = append(res, AuditLogResponse{
			ID:         l.ID.String(),
			UserID:     userID,
			UserName:   name,
			Action:     l.Action,
			EntityID:   l.EntityID,
			EntityName: l.EntityName,
			Details:    l.Details,
			CreatedAt:  l.CreatedAt.Format(timeLayout),
		})
	}
	return res, total, nil
}
