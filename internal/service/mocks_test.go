package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"occ-api/internal/broker"
	"occ-api/internal/model"
	"occ-api/internal/repository"
	"occ-api/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Mocks embed the repository interface so unused methods stay nil; calling
// one of those panics, which flags an unexpected dependency in a test.

type auditEntry struct {
	Action   string
	Entity   string
	EntityID string
}

type mockAudit struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (m *mockAudit) Record(_ context.Context, _ Actor, action, entityName, entityID string, _ map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, auditEntry{Action: action, Entity: entityName, EntityID: entityID})
}

func (m *mockAudit) List(context.Context, repository.AuditFilter, pagination.Params) ([]AuditLogResponse, int64, error) {
	return nil, 0, errors.New("List not supported")
}

func (m *mockAudit) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.Action)
	}
	return out
}

type mockTx struct{ calls int }

func (m *mockTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

type mockUserRepo struct {
	repository.UserRepository
	CreateFn     func(ctx context.Context, u *model.User) error
	GetByIDFn    func(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmailFn func(ctx context.Context, email string) (*model.User, error)
	UpdateFn     func(ctx context.Context, u *model.User) error
	TouchLoginFn func(ctx context.Context, id uuid.UUID, at time.Time) error
}

func (m *mockUserRepo) Create(ctx context.Context, u *model.User) error {
	if m.CreateFn == nil {
		return errors.New("CreateFn not set")
	}
	return m.CreateFn(ctx, u)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if m.GetByIDFn == nil {
		return nil, errors.New("GetByIDFn not set")
	}
	return m.GetByIDFn(ctx, id)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.GetByEmailFn == nil {
		return nil, errors.New("GetByEmailFn not set")
	}
	return m.GetByEmailFn(ctx, email)
}

func (m *mockUserRepo) Update(ctx context.Context, u *model.User) error {
	if m.UpdateFn == nil {
		return errors.New("UpdateFn not set")
	}
	return m.UpdateFn(ctx, u)
}

func (m *mockUserRepo) TouchLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	if m.TouchLoginFn == nil {
		return errors.New("TouchLoginFn not set")
	}
	return m.TouchLoginFn(ctx, id, at)
}

// memTokens is an in-memory refresh token store.
type memTokens struct {
	mu     sync.Mutex
	tokens map[string]*model.RefreshToken
}

func newMemTokens() *memTokens {
	return &memTokens{tokens: map[string]*model.RefreshToken{}}
}

func (m *memTokens) Create(_ context.Context, t *model.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[t.Token] = t
	return nil
}

func (m *memTokens) GetActive(_ context.Context, token string, now time.Time) (*model.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[token]
	if !ok || t.RevokedAt != nil || !t.ExpiresAt.After(now) {
		return nil, gorm.ErrRecordNotFound
	}
	return t, nil
}

func (m *memTokens) Revoke(_ context.Context, token string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[token]
	if !ok || t.RevokedAt != nil {
		return gorm.ErrRecordNotFound
	}
	t.RevokedAt = &at
	return nil
}

// racedTokens reports every token as active but lets only the first Revoke
// through, like two refreshes reading the row before either updates it.
type racedTokens struct {
	*memTokens
}

func (r racedTokens) GetActive(_ context.Context, token string, _ time.Time) (*model.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTokens) RevokeAllForUser(_ context.Context, userID uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &at
		}
	}
	return nil
}

type mockRoleService struct {
	RoleService
	GetPermissionsByRoleNameFn func(ctx context.Context, role string) ([]string, error)
}

func (m *mockRoleService) GetPermissionsByRoleName(ctx context.Context, role string) ([]string, error) {
	if m.GetPermissionsByRoleNameFn == nil {
		return nil, errors.New("GetPermissionsByRoleNameFn not set")
	}
	return m.GetPermissionsByRoleNameFn(ctx, role)
}

type mockClientRepo struct {
	repository.ClientRepository
	GetByIDFn        func(ctx context.Context, id uuid.UUID) (*model.Client, error)
	GetByUserIDFn    func(ctx context.Context, userID uuid.UUID) (*model.Client, error)
	GetCompanyByIDFn func(ctx context.Context, id uuid.UUID) (*model.ClientCompany, error)
}

func (m *mockClientRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Client, error) {
	if m.GetByIDFn == nil {
		return nil, errors.New("GetByIDFn not set")
	}
	return m.GetByIDFn(ctx, id)
}

func (m *mockClientRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Client, error) {
	if m.GetByUserIDFn == nil {
		return nil, errors.New("GetByUserIDFn not set")
	}
	return m.GetByUserIDFn(ctx, userID)
}

func (m *mockClientRepo) GetCompanyByID(ctx context.Context, id uuid.UUID) (*model.ClientCompany, error) {
	if m.GetCompanyByIDFn == nil {
		return nil, errors.New("GetCompanyByIDFn not set")
	}
	return m.GetCompanyByIDFn(ctx, id)
}

type mockReportRepo struct {
	repository.TaxReportRepository
	CreateFn  func(ctx context.Context, r *model.TaxCalculationReport) error
	GetByIDFn func(ctx context.Context, id uuid.UUID) (*model.TaxCalculationReport, error)
	DeleteFn  func(ctx context.Context, id uuid.UUID) error
}

func (m *mockReportRepo) Create(ctx context.Context, r *model.TaxCalculationReport) error {
	if m.CreateFn == nil {
		return errors.New("CreateFn not set")
	}
	return m.CreateFn(ctx, r)
}

func (m *mockReportRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.TaxCalculationReport, error) {
	if m.GetByIDFn == nil {
		return nil, errors.New("GetByIDFn not set")
	}
	return m.GetByIDFn(ctx, id)
}

func (m *mockReportRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn == nil {
		return errors.New("DeleteFn not set")
	}
	return m.DeleteFn(ctx, id)
}

type mockSurveyRepo struct {
	repository.SurveyRepository
	CreateFn         func(ctx context.Context, s *model.Survey) error
	GetByIDFn        func(ctx context.Context, id uuid.UUID) (*model.Survey, error)
	HasRespondedFn   func(ctx context.Context, surveyID, userID uuid.UUID) (bool, error)
	CreateResponseFn func(ctx context.Context, r *model.SurveyResponse) error
}

func (m *mockSurveyRepo) Create(ctx context.Context, s *model.Survey) error {
	if m.CreateFn == nil {
		return errors.New("CreateFn not set")
	}
	return m.CreateFn(ctx, s)
}

func (m *mockSurveyRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Survey, error) {
	if m.GetByIDFn == nil {
		return nil, errors.New("GetByIDFn not set")
	}
	return m.GetByIDFn(ctx, id)
}

func (m *mockSurveyRepo) HasResponded(ctx context.Context, surveyID, userID uuid.UUID) (bool, error) {
	if m.HasRespondedFn == nil {
		return false, errors.New("HasRespondedFn not set")
	}
	return m.HasRespondedFn(ctx, surveyID, userID)
}

func (m *mockSurveyRepo) CreateResponse(ctx context.Context, r *model.SurveyResponse) error {
	if m.CreateResponseFn == nil {
		return errors.New("CreateResponseFn not set")
	}
	return m.CreateResponseFn(ctx, r)
}

type mockTaxPlanRepo struct {
	repository.TaxPlanRepository
	CreateFn             func(ctx context.Context, p *model.TaxPlan) error
	GetByIDFn            func(ctx context.Context, id uuid.UUID) (*model.TaxPlan, error)
	AddRevenueFn         func(ctx context.Context, r *model.PlanRevenue) error
	DeleteExpenseFn      func(ctx context.Context, planID, id uuid.UUID) (int64, error)
	RevenueByMonthFn     func(ctx context.Context, planID uuid.UUID) ([]repository.MonthlyAmount, error)
	ExpenseByMonthFn     func(ctx context.Context, planID uuid.UUID) ([]repository.MonthlyAmount, error)
	CreditableExpensesFn func(ctx context.Context, planID uuid.UUID) (float64, error)
}

func (m *mockTaxPlanRepo) Create(ctx context.Context, p *model.TaxPlan) error {
	if m.CreateFn == nil {
		return errors.New("CreateFn not set")
	}
	return m.CreateFn(ctx, p)
}

func (m *mockTaxPlanRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.TaxPlan, error) {
	if m.GetByIDFn == nil {
		return nil, errors.New("GetByIDFn not set")
	}
	return m.GetByIDFn(ctx, id)
}

func (m *mockTaxPlanRepo) AddRevenue(ctx context.Context, r *model.PlanRevenue) error {
	if m.AddRevenueFn == nil {
		return errors.New("AddRevenueFn not set")
	}
	return m.AddRevenueFn(ctx, r)
}

func (m *mockTaxPlanRepo) DeleteExpense(ctx context.Context, planID, id uuid.UUID) (int64, error) {
	if m.DeleteExpenseFn == nil {
		return 0, errors.New("DeleteExpenseFn not set")
	}
	return m.DeleteExpenseFn(ctx, planID, id)
}

func (m *mockTaxPlanRepo) RevenueByMonth(ctx context.Context, planID uuid.UUID) ([]repository.MonthlyAmount, error) {
	if m.RevenueByMonthFn == nil {
		return nil, errors.New("RevenueByMonthFn not set")
	}
	return m.RevenueByMonthFn(ctx, planID)
}

func (m *mockTaxPlanRepo) ExpenseByMonth(ctx context.Context, planID uuid.UUID) ([]repository.MonthlyAmount, error) {
	if m.ExpenseByMonthFn == nil {
		return nil, errors.New("ExpenseByMonthFn not set")
	}
	return m.ExpenseByMonthFn(ctx, planID)
}

func (m *mockTaxPlanRepo) CreditableExpenses(ctx context.Context, planID uuid.UUID) (float64, error) {
	if m.CreditableExpensesFn == nil {
		return 0, errors.New("CreditableExpensesFn not set")
	}
	return m.CreditableExpensesFn(ctx, planID)
}

type mockActivityTypeRepo struct {
	repository.ActivityTypeRepository
	CreateFn    func(ctx context.Context, at *model.ActivityType) error
	UpdateFn    func(ctx context.Context, at *model.ActivityType) error
	FindByIDFn  func(ctx context.Context, id uuid.UUID) (*model.ActivityType, error)
	NameTakenFn func(ctx context.Context, name string, except *uuid.UUID) (bool, error)
}

func (m *mockActivityTypeRepo) Create(ctx context.Context, at *model.ActivityType) error {
	if m.CreateFn == nil {
		return errors.New("CreateFn not set")
	}
	return m.CreateFn(ctx, at)
}

func (m *mockActivityTypeRepo) Update(ctx context.Context, at *model.ActivityType) error {
	if m.UpdateFn == nil {
		return errors.New("UpdateFn not set")
	}
	return m.UpdateFn(ctx, at)
}

func (m *mockActivityTypeRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.ActivityType, error) {
	if m.FindByIDFn == nil {
		return nil, errors.New("FindByIDFn not set")
	}
	return m.FindByIDFn(ctx, id)
}

func (m *mockActivityTypeRepo) NameTaken(ctx context.Context, name string, except *uuid.UUID) (bool, error) {
	if m.NameTakenFn == nil {
		return false, errors.New("NameTakenFn not set")
	}
	return m.NameTakenFn(ctx, name, except)
}

type mockStatsRepo struct {
	counts map[string]int64
	since  time.Time
	months []model.MonthlyReportCt
}

func (m *mockStatsRepo) Count(_ context.Context, table interface{}) (int64, error) {
	switch table.(type) {
	case *model.Client:
		return m.counts["clients"], nil
	case *model.TaxCalculationReport:
		return m.counts["reports"], nil
	case *model.Post:
		return m.counts["posts"], nil
	}
	return 0, errors.New("unexpected table")
}

func (m *mockStatsRepo) RegimeDistribution(context.Context) ([]model.RegimeCount, error) {
	return []model.RegimeCount{{Regime: "Simples Nacional", Count: 3}}, nil
}

func (m *mockStatsRepo) AverageSavings(context.Context) (float64, error) { return 1234.5, nil }

func (m *mockStatsRepo) ReportsByMonth(_ context.Context, since time.Time) ([]model.MonthlyReportCt, error) {
	m.since = since
	return m.months, nil
}

type recordingHub struct {
	mu     sync.Mutex
	events []string
}

func (h *recordingHub) BroadcastEvent(eventType string, _ interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, eventType)
}

type recordingPublisher struct {
	events []broker.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, evt broker.Event) error {
	p.events = append(p.events, evt)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }
