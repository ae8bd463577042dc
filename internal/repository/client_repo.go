package repository

import (
	"context"

	"occ-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClientRepository interface {
	Create(ctx context.Context, client *model.Client) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Client, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Client, error)
	List(ctx context.Context, search string, page Page) ([]model.Client, int64, error)
	Update(ctx context.Context, client *model.Client) error
	Delete(ctx context.Context, id uuid.UUID) error

	CreateCompany(ctx context.Context, company *model.ClientCompany) error
	UpdateCompany(ctx context.Context, company *model.ClientCompany) error
	GetCompanyByID(ctx context.Context, id uuid.UUID) (*model.ClientCompany, error)
	CNPJTaken(ctx context.Context, cnpj string, exceptCompany *uuid.UUID) (bool, error)
}

type clientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) ClientRepository {
	return &clientRepository{db: db}
}

func (r *clientRepository) Create(ctx context.Context, client *model.Client) error {
	return GetDB(ctx, r.db).Omit("Company").Create(client).Error
}

func (r *clientRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Client, error) {
	var client model.Client
	if err := GetDB(ctx, r.db).Preload("Company").First(&client, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *clientRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Client, error) {
	var client model.Client
	if err := GetDB(ctx, r.db).Preload("Company").First(&client, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *clientRepository) List(ctx context.Context, search string, page Page) ([]model.Client, int64, error) {
	var clients []model.Client
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Client{})
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("clients.name ILIKE ? OR clients.email ILIKE ? OR clients.id IN (?)", like, like,
			GetDB(ctx, r.db).Model(&model.ClientCompany{}).Select("client_id").
				Where("company_name ILIKE ? OR cnpj LIKE ?", like, like))
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := page.apply(query.Preload("Company").Order("clients.created_at DESC")).Find(&clients).Error; err != nil {
		return nil, 0, err
	}
	return clients, total, nil
}

func (r *clientRepository) Update(ctx context.Context, client *model.Client) error {
	return GetDB(ctx, r.db).Omit("Company", "User").Save(client).Error
}

// Delete soft-deletes the client and its company.
func (r *clientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("client_id = ?", id).Delete(&model.ClientCompany{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.Client{}).Error
}

func (r *clientRepository) CreateCompany(ctx context.Context, company *model.ClientCompany) error {
	return GetDB(ctx, r.db).Create(company).Error
}

func (r *clientRepository) UpdateCompany(ctx context.Context, company *model.ClientCompany) error {
	return GetDB(ctx, r.db).Save(company).Error
}

func (r *clientRepository) GetCompanyByID(ctx context.Context, id uuid.UUID) (*model.ClientCompany, error) {
	var company model.ClientCompany
	if err := GetDB(ctx, r.db).First(&company, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *clientRepository) CNPJTaken(ctx context.Context, cnpj string, exceptCompany *uuid.UUID) (bool, error) {
	var count int64
	query := GetDB(ctx, r.db).Model(&model.ClientCompany{}).Where("cnpj = ?", cnpj)
	if exceptCompany != nil {
		query = query.Where("id <> ?", *exceptCompany)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
