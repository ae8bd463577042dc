package repository

import (
	"context"

	"occ-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ActivityTypeRepository interface {
	Create(ctx context.Context, at *model.ActivityType) error
	Update(ctx context.Context, at *model.ActivityType) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ActivityType, error)
	List(ctx context.Context, activeOnly bool) ([]model.ActivityType, error)
	NameTaken(ctx context.Context, name string, except *uuid.UUID) (bool, error)
}

type activityTypeRepository struct {
	db *gorm.DB
}

func NewActivityTypeRepository(db *gorm.DB) ActivityTypeRepository {
	return &activityTypeRepository{db: db}
}

func (r *activityTypeRepository) Create(ctx context.Context, at *model.ActivityType) error {
	return GetDB(ctx, r.db).Create(at).Error
}

func (r *activityTypeRepository) Update(ctx context.Context, at *model.ActivityType) error {
	return GetDB(ctx, r.db).Save(at).Error
}

func (r *activityTypeRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ActivityType, error) {
	var at model.ActivityType
	if err := GetDB(ctx, r.db).First(&at, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &at, nil
}

func (r *activityTypeRepository) List(ctx context.Context, activeOnly bool) ([]model.ActivityType, error) {
	var types []model.ActivityType
	query := GetDB(ctx, r.db).Order("nome ASC")
	if activeOnly {
		query = query.Where("ativo = ?", true)
	}
	if err := query.Find(&types).Error; err != nil {
		return nil, err
	}
	return types, nil
}

func (r *activityTypeRepository) NameTaken(ctx context.Context, name string, except *uuid.UUID) (bool, error) {
	var count int64
	query := GetDB(ctx, r.db).Model(&model.ActivityType{}).Where("LOWER(nome) = LOWER(?)", name)
	if except != nil {
		query = query.Where("id <> ?", *except)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
