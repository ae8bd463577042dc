package repository

import (
	"context"

	"occ-api/internal/model"

	"gorm.io/gorm"
)

type AuditFilter struct {
	EntityName string
	Action     string
}

type AuditRepository interface {
	Log(ctx context.Context, entry *model.AuditLog) error
	List(ctx context.Context, filter AuditFilter, page Page) ([]model.AuditLog, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Log(ctx context.Context, entry *model.AuditLog) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *auditRepository) List(ctx context.Context, filter AuditFilter, page Page) ([]model.AuditLog, int64, error) {
	var logs []model.AuditLog
	var total int64

	query := GetDB(ctx, r.db).Model(&model.AuditLog{})
	if filter.EntityName != "" {
		query = query.Where("entity_name = ?", filter.EntityName)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := page.apply(query.Preload("User").Order("created_at desc")).Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
