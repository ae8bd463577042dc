package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"occ-api/internal/model"
	"occ-api/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var hundred = decimal.NewFromInt(100)

type ActivityTypeRequest struct {
	Name            string           `json:"nome" binding:"required,min=2,max=255"`
	Description     string           `json:"descricao"`
	PresumptionIRPJ decimal.Decimal  `json:"presuncao_irpj"`
	PresumptionCSLL decimal.Decimal  `json:"presuncao_csll"`
	VariableIRPJ    bool             `json:"presuncao_irpj_variavel"`
	RevenueLimit    *decimal.Decimal `json:"faturamento_limite"`
	IRPJUpToLimit   *decimal.Decimal `json:"presuncao_irpj_ate_limite"`
	IRPJAboveLimit  *decimal.Decimal `json:"presuncao_irpj_acima_limite"`
	Active          *bool            `json:"ativo"`
}

// PresumptionResult is the IRPJ/CSLL presumption that applies to a revenue figure.
type PresumptionResult struct {
	ActivityTypeID  uuid.UUID       `json:"tipo_atividade_id"`
	Revenue         decimal.Decimal `json:"faturamento"`
	PresumptionIRPJ decimal.Decimal `json:"presuncao_irpj"`
	PresumptionCSLL decimal.Decimal `json:"presuncao_csll"`
}

type ActivityTypeService interface {
	Create(ctx context.Context, actor Actor, req ActivityTypeRequest) (*model.ActivityType, error)
	Get(ctx context.Context, id string) (*model.ActivityType, error)
	List(ctx context.Context, includeInactive bool) ([]model.ActivityType, error)
	Update(ctx context.Context, actor Actor, id string, req ActivityTypeRequest) (*model.ActivityType, error)
	Deactivate(ctx context.Context, actor Actor, id string) error
	Presumption(ctx context.Context, id string, revenue decimal.Decimal) (*PresumptionResult, error)
}

type activityTypeService struct {
	repo  repository.ActivityTypeRepository
	audit AuditService
}

func NewActivityTypeService(repo repository.ActivityTypeRepository, audit AuditService) ActivityTypeService {
	return &activityTypeService{repo: repo, audit: audit}
}

func checkPercent(field string, v decimal.Decimal) error {
	if v.IsNegative() || v.GreaterThan(hundred) {
		return invalidInput(field, "must be between 0 and 100")
	}
	return nil
}

func (r ActivityTypeRequest) validate() error {
	if err := checkPercent("presuncao_irpj", r.PresumptionIRPJ); err != nil {
		return err
	}
	if err := checkPercent("presuncao_csll", r.PresumptionCSLL); err != nil {
		return err
	}
	if !r.VariableIRPJ {
		return nil
	}
	if r.RevenueLimit == nil || !r.RevenueLimit.IsPositive() {
		return invalidInput("faturamento_limite", "a positive revenue limit is required for a variable presumption")
	}
	if r.IRPJUpToLimit == nil {
		return invalidInput("presuncao_irpj_ate_limite", "required for a variable presumption")
	}
	if r.IRPJAboveLimit == nil {
		return invalidInput("presuncao_irpj_acima_limite", "required for a variable presumption")
	}
	if err := checkPercent("presuncao_irpj_ate_limite", *r.IRPJUpToLimit); err != nil {
		return err
	}
	return checkPercent("presuncao_irpj_acima_limite", *r.IRPJAboveLimit)
}

func (r ActivityTypeRequest) apply(at *model.ActivityType) {
	at.Name = strings.TrimSpace(r.Name)
	at.Description = strings.TrimSpace(r.Description)
	at.PresumptionIRPJ = r.PresumptionIRPJ
	at.PresumptionCSLL = r.PresumptionCSLL
	at.VariableIRPJ = r.VariableIRPJ
	if r.VariableIRPJ {
		at.RevenueLimit = r.RevenueLimit
		at.IRPJUpToLimit = r.IRPJUpToLimit
		at.IRPJAboveLimit = r.IRPJAboveLimit
	} else {
		at.RevenueLimit, at.IRPJUpToLimit, at.IRPJAboveLimit = nil, nil, nil
	}
	if r.Active != nil {
		at.Active = *r.Active
	}
}

func (s *activityTypeService) checkName(ctx context.Context, name string, except *uuid.UUID) error {
	taken, err := s.repo.NameTaken(ctx, strings.TrimSpace(name), except)
	if err != nil {
		return fmt.Errorf("failed to check activity type name: %w", err)
	}
	if taken {
		return ErrNameTaken
	}
	return nil
}

func (s *activityTypeService) Create(ctx context.Context, actor Actor, req ActivityTypeRequest) (*model.ActivityType, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if err := s.checkName(ctx, req.Name, nil); err != nil {
		return nil, err
	}

	at := &model.ActivityType{Active: true}
	req.apply(at)
	if err := s.repo.Create(ctx, at); err != nil {
		return nil, fmt.Errorf("failed to create activity type: %w", err)
	}

	s.audit.Record(ctx, actor, model.ActionCreateActivityType, "tipo_atividade", at.ID.String(), map[string]interface{}{"nome": at.Name})
	return at, nil
}

func (s *activityTypeService) Get(ctx context.Context, id string) (*model.ActivityType, error) {
	aid, err := uuid.Parse(id)
	if err != nil {
		return nil, invalidInput("id", "invalid activity type id")
	}
	at, err := s.repo.FindByID(ctx, aid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrActivityTypeNotFound
		}
		return nil, fmt.Errorf("failed to fetch activity type: %w", err)
	}
	return at, nil
}

func (s *activityTypeService) List(ctx context.Context, includeInactive bool) ([]model.ActivityType, error) {
	items, err := s.repo.List(ctx, !includeInactive)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity types: %w", err)
	}
	return items, nil
}

func (s *activityTypeService) Update(ctx context.Context, actor Actor, id string, req ActivityTypeRequest) (*model.ActivityType, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	at, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(strings.TrimSpace(req.Name), at.Name) {
		if err := s.checkName(ctx, req.Name, &at.ID); err != nil {
			return nil, err
		}
	}

	req.apply(at)
	if err := s.repo.Update(ctx, at); err != nil {
		return nil, fmt.Errorf("failed to update activity type: %w", err)
	}

	s.audit.Record(ctx, actor, model.ActionUpdateActivityType, "tipo_atividade", at.ID.String(), map[string]interface{}{"nome": at.Name})
	return at, nil
}

// Deactivate is the delete operation; rows are kept for historical reports.
func (s *activityTypeService) Deactivate(ctx context.Context, actor Actor, id string) error {
	at, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !at.Active {
		return nil
	}
	at.Active = false
	if err := s.repo.Update(ctx, at); err != nil {
		return fmt.Errorf("failed to deactivate activity type: %w", err)
	}
	s.audit.Record(ctx, actor, model.ActionDeactivateActivityType, "tipo_atividade", at.ID.String(), nil)
	return nil
}

func (s *activityTypeService) Presumption(ctx context.Context, id string, revenue decimal.Decimal) (*PresumptionResult, error) {
	if revenue.IsNegative() {
		return nil, invalidInput("faturamento", "revenue must not be negative")
	}
	at, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &PresumptionResult{
		ActivityTypeID:  at.ID,
		Revenue:         revenue,
		PresumptionIRPJ: at.IRPJPresumption(revenue),
		PresumptionCSLL: at.PresumptionCSLL,
	}, nil
}
