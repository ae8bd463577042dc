package service

import (
	"context"
	"errors"
	"testing"

	"occ-api/internal/broker"
	"occ-api/internal/model"
	"occ-api/internal/taxcalc"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func testCalculator(t *testing.T) *taxcalc.Calculator {
	t.Helper()
	ref, err := taxcalc.DefaultReference()
	require.NoError(t, err)
	calc, err := taxcalc.NewCalculator(ref)
	require.NoError(t, err)
	return calc
}

func f(v float64) *float64 { return &v }

func serviceRequest(companyID uuid.UUID) TaxCalculationRequest {
	req := TaxCalculationRequest{
		CompanyID: companyID.String(),
		Year:      2024,
		TaxInputRequest: TaxInputRequest{
			CompanyType: "serviço",
			CNAE:        "6201501",
			Payroll12m:  150_000,
			NetProfit:   100_000,
			ISSRate:     0.05,
		},
	}
	req.Jan, req.Fev, req.Mar, req.Abr, req.Mai, req.Jun = f(40_000), f(40_000), f(40_000), f(40_000), f(40_000), f(40_000)
	req.Jul, req.Ago, req.Set, req.Out, req.Nov, req.Dez = f(40_000), f(40_000), f(40_000), f(40_000), f(40_000), f(40_000)
	req.JanAnterior, req.DezAnterior = f(35_000), f(35_000)
	return req
}

type calcFixture struct {
	svc       TaxCalculationService
	reports   *mockReportRepo
	clients   *mockClientRepo
	hub       *recordingHub
	publisher *recordingPublisher
	audit     *mockAudit
	company   *model.ClientCompany
	owner     uuid.UUID
}

func newCalcFixture(t *testing.T) *calcFixture {
	t.Helper()
	fx := &calcFixture{
		hub:       &recordingHub{},
		publisher: &recordingPublisher{},
		audit:     &mockAudit{},
		company:   &model.ClientCompany{ID: uuid.New(), CompanyName: "Acme Ltda"},
		owner:     uuid.New(),
	}
	fx.clients = &mockClientRepo{
		GetCompanyByIDFn: func(_ context.Context, id uuid.UUID) (*model.ClientCompany, error) {
			if id == fx.company.ID {
				return fx.company, nil
			}
			return nil, gorm.ErrRecordNotFound
		},
		GetByUserIDFn: func(_ context.Context, userID uuid.UUID) (*model.Client, error) {
			if userID == fx.owner {
				return &model.Client{UserID: userID, Company: fx.company}, nil
			}
			return &model.Client{UserID: userID, Company: &model.ClientCompany{ID: uuid.New()}}, nil
		},
	}
	fx.reports = &mockReportRepo{CreateFn: func(_ context.Context, r *model.TaxCalculationReport) error {
		r.ID = uuid.New()
		return nil
	}}
	fx.svc = NewTaxCalculationService(testCalculator(t), fx.reports, fx.clients, fx.hub, fx.publisher, fx.audit, zap.NewNop())
	return fx
}

func TestCalculatePersistsAndNotifies(t *testing.T) {
	fx := newCalcFixture(t)
	var saved *model.TaxCalculationReport
	fx.reports.CreateFn = func(_ context.Context, r *model.TaxCalculationReport) error {
		r.ID = uuid.New()
		saved = r
		return nil
	}

	res, err := fx.svc.Calculate(context.Background(), Actor{ID: uuid.New(), Role: model.RoleAdmin}, serviceRequest(fx.company.ID))
	require.NoError(t, err)
	require.NotNil(t, res.ReportID)
	require.NotNil(t, saved)

	assert.Equal(t, *res.ReportID, saved.ID)
	assert.Equal(t, "6201501", saved.CNAE)
	assert.Equal(t, 2024, saved.Year)
	assert.Equal(t, res.Best.String(), saved.BestRegime)
	assert.Equal(t, "480000", saved.RBA.String())
	assert.Equal(t, 480_000.0, res.Revenue.RBA)

	assert.Equal(t, []string{EventTaxCalculationCreated}, fx.hub.events)
	require.Len(t, fx.publisher.events, 1)
	assert.Equal(t, broker.EventTaxCalculationCreated, fx.publisher.events[0].Type)
	assert.Equal(t, []string{model.ActionCreateTaxCalculation}, fx.audit.actions())
}

func TestCalculatePublishFailureIsNotFatal(t *testing.T) {
	fx := newCalcFixture(t)
	fx.publisher.err = errors.New("broker down")

	res, err := fx.svc.Calculate(context.Background(), Actor{ID: uuid.New(), Role: model.RoleAdmin}, serviceRequest(fx.company.ID))
	require.NoError(t, err)
	assert.NotNil(t, res.ReportID)
}

func TestCalculateReturnsComparisonWhenSaveFails(t *testing.T) {
	fx := newCalcFixture(t)
	fx.reports.CreateFn = func(context.Context, *model.TaxCalculationReport) error { return errors.New("db gone") }

	res, err := fx.svc.Calculate(context.Background(), Actor{ID: uuid.New(), Role: model.RoleAdmin}, serviceRequest(fx.company.ID))
	var pErr *ReportPersistenceError
	require.True(t, errors.As(err, &pErr))
	require.NotNil(t, res)
	assert.Nil(t, res.ReportID)
	assert.Equal(t, 480_000.0, res.Revenue.RBA)
	assert.Empty(t, fx.hub.events)
}

func TestCalculateAccessRules(t *testing.T) {
	fx := newCalcFixture(t)

	_, err := fx.svc.Calculate(context.Background(), Actor{ID: uuid.New(), Role: model.RoleAdmin}, serviceRequest(uuid.New()))
	assert.ErrorIs(t, err, ErrCompanyNotFound)

	_, err = fx.svc.Calculate(context.Background(), Actor{ID: uuid.New(), Role: model.RoleClient}, serviceRequest(fx.company.ID))
	assert.ErrorIs(t, err, ErrForbidden)

	res, err := fx.svc.Calculate(context.Background(), Actor{ID: fx.owner, Role: model.RoleClient}, serviceRequest(fx.company.ID))
	require.NoError(t, err)
	assert.NotNil(t, res.ReportID)
}

func TestCalculateValidatesBeforeLookup(t *testing.T) {
	fx := newCalcFixture(t)
	fx.clients.GetCompanyByIDFn = nil

	req := serviceRequest(fx.company.ID)
	req.CompanyType = "agro"
	_, err := fx.svc.Calculate(context.Background(), Actor{Role: model.RoleAdmin}, req)
	var vErr *taxcalc.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "tipo_empresa", vErr.Field)

	req = serviceRequest(fx.company.ID)
	req.ISSRate = 0.09
	_, err = fx.svc.Calculate(context.Background(), Actor{Role: model.RoleAdmin}, req)
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "aliquota_iss", vErr.Field)
}

func TestSimulateDoesNotPersist(t *testing.T) {
	fx := newCalcFixture(t)
	fx.reports.CreateFn = nil

	cmp, err := fx.svc.Simulate(context.Background(), serviceRequest(uuid.New()).TaxInputRequest)
	require.NoError(t, err)
	assert.Len(t, cmp.Ranking, 3)
	assert.Empty(t, fx.hub.events)
}

func TestDeleteReportPermissions(t *testing.T) {
	fx := newCalcFixture(t)
	creator := uuid.New()
	report := &model.TaxCalculationReport{ID: uuid.New(), CompanyID: fx.company.ID, CreatedBy: creator}
	fx.reports.GetByIDFn = func(context.Context, uuid.UUID) (*model.TaxCalculationReport, error) { return report, nil }
	deleted := 0
	fx.reports.DeleteFn = func(context.Context, uuid.UUID) error {
		deleted++
		return nil
	}

	err := fx.svc.DeleteReport(context.Background(), Actor{ID: fx.owner, Role: model.RoleClient}, report.ID.String())
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, fx.svc.DeleteReport(context.Background(), Actor{ID: creator, Role: model.RoleClient}, report.ID.String()))
	require.NoError(t, fx.svc.DeleteReport(context.Background(), Actor{ID: uuid.New(), Role: model.RoleAdmin}, report.ID.String()))
	assert.Equal(t, 2, deleted)
	assert.Contains(t, fx.hub.events, EventReportDeleted)
}
