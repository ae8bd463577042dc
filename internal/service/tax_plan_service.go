package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"occ-api/internal/model"
	"occ-api/internal/repository"
	"occ-api/internal/taxcalc"
	"occ-api/pkg/pagination"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

type TaxPlanRequest struct {
	ClientID string `json:"client_id" binding:"required,uuid"`
	Year     int    `json:"year" binding:"required,min=2000,max=2100"`
	Title    string `json:"title" binding:"required,min=3,max=255"`
	Notes    string `json:"notes"`
}

type PlanRevenueRequest struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date" binding:"required"`
}

type PlanExpenseRequest struct {
	Description string          `json:"description"`
	Category    string          `json:"category" binding:"max=60"`
	Amount      decimal.Decimal `json:"amount"`
	Creditable  bool            `json:"creditable"`
	Date        string          `json:"date" binding:"required"`
}

type TaxPlanFilter struct {
	ClientID string
	Year     int
}

type MonthlyBalance struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
	Expense float64 `json:"expense"`
	Balance float64 `json:"balance"`
}

type TaxPlanSummary struct {
	PlanID             uuid.UUID        `json:"plan_id"`
	Year               int              `json:"year"`
	TotalRevenue       float64          `json:"total_revenue"`
	TotalExpense       float64          `json:"total_expense"`
	Balance            float64          `json:"balance"`
	CreditableExpenses float64          `json:"creditable_expenses"`
	PotentialCredits   float64          `json:"potential_pis_cofins_credits"`
	Monthly            []MonthlyBalance `json:"monthly"`
}

type TaxPlanService interface {
	CreatePlan(ctx context.Context, actor Actor, req TaxPlanRequest) (*model.TaxPlan, error)
	GetPlan(ctx context.Context, actor Actor, id string) (*model.TaxPlan, error)
	ListPlans(ctx context.Context, actor Actor, filter TaxPlanFilter, p pagination.Params) ([]model.TaxPlan, int64, error)
	UpdatePlan(ctx context.Context, actor Actor, id string, req TaxPlanRequest) (*model.TaxPlan, error)
	DeletePlan(ctx context.Context, actor Actor, id string) error

	AddRevenue(ctx context.Context, actor Actor, planID string, req PlanRevenueRequest) (*model.PlanRevenue, error)
	DeleteRevenue(ctx context.Context, actor Actor, planID, revenueID string) error
	AddExpense(ctx context.Context, actor Actor, planID string, req PlanExpenseRequest) (*model.PlanExpense, error)
	DeleteExpense(ctx context.Context, actor Actor, planID, expenseID string) error

	Summary(ctx context.Context, actor Actor, planID string) (*TaxPlanSummary, error)
}

type taxPlanService struct {
	plans   repository.TaxPlanRepository
	clients repository.ClientRepository
	calc    *taxcalc.Calculator
	audit   AuditService
}

func NewTaxPlanService(plans repository.TaxPlanRepository, clients repository.ClientRepository, calc *taxcalc.Calculator, audit AuditService) TaxPlanService {
	return &taxPlanService{plans: plans, clients: clients, calc: calc, audit: audit}
}

func (s *taxPlanService) lookupClient(ctx context.Context, raw string) (*model.Client, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, invalidInput("client_id", "invalid client id")
	}
	client, err := s.clients.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to fetch client: %w", err)
	}
	return client, nil
}

// ownClient resolves the client record of a CLIENT caller.
func (s *taxPlanService) ownClient(ctx context.Context, actor Actor) (*model.Client, error) {
	client, err := s.clients.GetByUserID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrForbidden
		}
		return nil, fmt.Errorf("failed to fetch client: %w", err)
	}
	return client, nil
}

// plan loads a plan the actor may see. Staff see every plan, clients only their own.
func (s *taxPlanService) plan(ctx context.Context, actor Actor, raw string) (*model.TaxPlan, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, invalidInput("id", "invalid tax plan id")
	}
	plan, err := s.plans.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaxPlanNotFound
		}
		return nil, fmt.Errorf("failed to fetch tax plan: %w", err)
	}
	if actor.IsStaff() {
		return plan, nil
	}
	client, err := s.ownClient(ctx, actor)
	if err != nil {
		return nil, err
	}
	if client.ID != plan.ClientID {
		return nil, ErrTaxPlanNotFound
	}
	return plan, nil
}

func (s *taxPlanService) CreatePlan(ctx context.Context, actor Actor, req TaxPlanRequest) (*model.TaxPlan, error) {
	client, err := s.lookupClient(ctx, req.ClientID)
	if err != nil {
		return nil, err
	}

	plan := &model.TaxPlan{
		ClientID:  client.ID,
		Year:      req.Year,
		Title:     strings.TrimSpace(req.Title),
		Notes:     req.Notes,
		CreatedBy: actor.ID,
	}
	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to create tax plan: %w", err)
	}

	s.audit.Record(ctx, actor, model.ActionCreateTaxPlan, "tax_plan", plan.ID.String(), map[string]interface{}{
		"client_id": client.ID,
		"year":      plan.Year,
	})
	return plan, nil
}

func (s *taxPlanService) GetPlan(ctx context.Context, actor Actor, id string) (*model.TaxPlan, error) {
	return s.plan(ctx, actor, id)
}

func (s *taxPlanService) ListPlans(ctx context.Context, actor Actor, filter TaxPlanFilter, p pagination.Params) ([]model.TaxPlan, int64, error) {
	var repoFilter repository.TaxPlanFilter
	repoFilter.Year = filter.Year

	if actor.IsStaff() {
		if filter.ClientID != "" {
			id, err := uuid.Parse(filter.ClientID)
			if err != nil {
				return nil, 0, invalidInput("client_id", "invalid client id")
			}
			repoFilter.ClientID = &id
		}
	} else {
		client, err := s.ownClient(ctx, actor)
		if err != nil {
			return nil, 0, err
		}
		repoFilter.ClientID = &client.ID
	}

	plans, total, err := s.plans.List(ctx, repoFilter, repository.Page{Offset: p.Offset, Limit: p.Limit})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tax plans: %w", err)
	}
	return plans, total, nil
}

func (s *taxPlanService) UpdatePlan(ctx context.Context, actor Actor, id string, req TaxPlanRequest) (*model.TaxPlan, error) {
	plan, err := s.plan(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if req.ClientID != plan.ClientID.String() {
		client, err := s.lookupClient(ctx, req.ClientID)
		if err != nil {
			return nil, err
		}
		plan.ClientID = client.ID
		plan.Client = nil
	}
	plan.Year = req.Year
	plan.Title = strings.TrimSpace(req.Title)
	plan.Notes = req.Notes

	if err := s.plans.Update(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to update tax plan: %w", err)
	}
	return plan, nil
}

func (s *taxPlanService) DeletePlan(ctx context.Context, actor Actor, id string) error {
	plan, err := s.plan(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.plans.Delete(ctx, plan.ID); err != nil {
		return fmt.Errorf("failed to delete tax plan: %w", err)
	}
	s.audit.Record(ctx, actor, model.ActionDeleteTaxPlan, "tax_plan", plan.ID.String(), nil)
	return nil
}

// planEntry validates the fields shared by revenues and expenses. The date
// must fall inside the plan year.
func planEntry(plan *model.TaxPlan, amount decimal.Decimal, rawDate string) (time.Time, error) {
	if !amount.IsPositive() {
		return time.Time{}, invalidInput("amount", "amount must be greater than zero")
	}
	date, err := time.Parse(dateLayout, rawDate)
	if err != nil {
		return time.Time{}, invalidInput("date", "date must use the YYYY-MM-DD format")
	}
	if date.Year() != plan.Year {
		return time.Time{}, invalidInput("date", "date must fall in %d", plan.Year)
	}
	return date, nil
}

func (s *taxPlanService) AddRevenue(ctx context.Context, actor Actor, planID string, req PlanRevenueRequest) (*model.PlanRevenue, error) {
	plan, err := s.plan(ctx, actor, planID)
	if err != nil {
		return nil, err
	}
	date, err := planEntry(plan, req.Amount, req.Date)
	if err != nil {
		return nil, err
	}

	rev := &model.PlanRevenue{
		PlanID:      plan.ID,
		Description: strings.TrimSpace(req.Description),
		Amount:      req.Amount.Round(2),
		Date:        date,
	}
	if err := s.plans.AddRevenue(ctx, rev); err != nil {
		return nil, fmt.Errorf("failed to add revenue: %w", err)
	}
	return rev, nil
}

func (s *taxPlanService) DeleteRevenue(ctx context.Context, actor Actor, planID, revenueID string) error {
	plan, err := s.plan(ctx, actor, planID)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(revenueID)
	if err != nil {
		return invalidInput("revenue_id", "invalid revenue id")
	}
	n, err := s.plans.DeleteRevenue(ctx, plan.ID, id)
	if err != nil {
		return fmt.Errorf("failed to delete revenue: %w", err)
	}
	if n == 0 {
		return ErrPlanEntryNotFound
	}
	return nil
}

func (s *taxPlanService) AddExpense(ctx context.Context, actor Actor, planID string, req PlanExpenseRequest) (*model.PlanExpense, error) {
	plan, err := s.plan(ctx, actor, planID)
	if err != nil {
		return nil, err
	}
	date, err := planEntry(plan, req.Amount, req.Date)
	if err != nil {
		return nil, err
	}

	exp := &model.PlanExpense{
		PlanID:      plan.ID,
		Description: strings.TrimSpace(req.Description),
		Category:    strings.TrimSpace(req.Category),
		Amount:      req.Amount.Round(2),
		Creditable:  req.Creditable,
		Date:        date,
	}
	if err := s.plans.AddExpense(ctx, exp); err != nil {
		return nil, fmt.Errorf("failed to add expense: %w", err)
	}
	return exp, nil
}

func (s *taxPlanService) DeleteExpense(ctx context.Context, actor Actor, planID, expenseID string) error {
	plan, err := s.plan(ctx, actor, planID)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(expenseID)
	if err != nil {
		return invalidInput("expense_id", "invalid expense id")
	}
	n, err := s.plans.DeleteExpense(ctx, plan.ID, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if n == 0 {
		return ErrPlanEntryNotFound
	}
	return nil
}

func (s *taxPlanService) Summary(ctx context.Context, actor Actor, planID string) (*TaxPlanSummary, error) {
	plan, err := s.plan(ctx, actor, planID)
	if err != nil {
		return nil, err
	}

	revenues, err := s.plans.RevenueByMonth(ctx, plan.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum revenues: %w", err)
	}
	expenses, err := s.plans.ExpenseByMonth(ctx, plan.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum expenses: %w", err)
	}
	creditable, err := s.plans.CreditableExpenses(ctx, plan.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum creditable expenses: %w", err)
	}

	sum := &TaxPlanSummary{
		PlanID:             plan.ID,
		Year:               plan.Year,
		CreditableExpenses: creditable,
		PotentialCredits:   s.calc.PotentialCredits(creditable),
		Monthly:            mergeMonths(revenues, expenses),
	}
	for _, m := range sum.Monthly {
		sum.TotalRevenue += m.Revenue
		sum.TotalExpense += m.Expense
	}
	sum.Balance = sum.TotalRevenue - sum.TotalExpense
	return sum, nil
}

// mergeMonths joins two month-sorted series into one, keeping months present
// in either.
func mergeMonths(revenues, expenses []repository.MonthlyAmount) []MonthlyBalance {
	out := make([]MonthlyBalance, 0, len(revenues)+len(expenses))
	i, j := 0, 0
	for i < len(revenues) || j < len(expenses) {
		var m MonthlyBalance
		switch {
		case j == len(expenses) || (i < len(revenues) && revenues[i].Month < expenses[j].Month):
			m = MonthlyBalance{Month: revenues[i].Month, Revenue: revenues[i].Amount}
			i++
		case i == len(revenues) || expenses[j].Month < revenues[i].Month:
			m = MonthlyBalance{Month: expenses[j].Month, Expense: expenses[j].Amount}
			j++
		default:
			m = MonthlyBalance{Month: revenues[i].Month, Revenue: revenues[i].Amount, Expense: expenses[j].Amount}
			i++
			j++
		}
		m.Balance = m.Revenue - m.Expense
		out = append(out, m)
	}
	return out
}
