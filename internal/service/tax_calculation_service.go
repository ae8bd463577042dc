package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"occ-api/internal/broker"
	"occ-api/internal/model"
	"occ-api/internal/repository"
	"occ-api/internal/taxcalc"
	"occ-api/pkg/pagination"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Event types pushed to staff dashboards over the websocket.
const (
	EventTaxCalculationCreated = "TAX_CALCULATION_CREATED"
	EventReportDeleted         = "REPORT_DELETED"
)

// Broadcaster pushes realtime events to connected dashboards.
type Broadcaster interface {
	BroadcastEvent(eventType string, payload interface{})
}

// ReportPersistenceError means the comparison was computed but the report could
// not be saved. The comparison is still returned alongside it.
type ReportPersistenceError struct {
	Err error
}

func (e *ReportPersistenceError) Error() string {
	return "failed to save tax calculation report: " + e.Err.Error()
}

func (e *ReportPersistenceError) Unwrap() error { return e.Err }

// TaxInputRequest carries the financial figures of a comparison. Omitted months count as zero.
// Rates are fractions (0.05 = 5%).
type TaxInputRequest struct {
	CompanyType string `json:"tipo_empresa" binding:"required" example:"serviço"`
	CNAE        string `json:"cnae" binding:"required" example:"6201501"`

	Jan *float64 `json:"jan"`
	Fev *float64 `json:"fev"`
	Mar *float64 `json:"mar"`
	Abr *float64 `json:"abr"`
	Mai *float64 `json:"mai"`
	Jun *float64 `json:"jun"`
	Jul *float64 `json:"jul"`
	Ago *float64 `json:"ago"`
	Set *float64 `json:"set"`
	Out *float64 `json:"out"`
	Nov *float64 `json:"nov"`
	Dez *float64 `json:"dez"`

	JanAnterior *float64 `json:"jan_anterior"`
	FevAnterior *float64 `json:"fev_anterior"`
	MarAnterior *float64 `json:"mar_anterior"`
	AbrAnterior *float64 `json:"abr_anterior"`
	MaiAnterior *float64 `json:"mai_anterior"`
	JunAnterior *float64 `json:"jun_anterior"`
	JulAnterior *float64 `json:"jul_anterior"`
	AgoAnterior *float64 `json:"ago_anterior"`
	SetAnterior *float64 `json:"set_anterior"`
	OutAnterior *float64 `json:"out_anterior"`
	NovAnterior *float64 `json:"nov_anterior"`
	DezAnterior *float64 `json:"dez_anterior"`

	Payroll12m float64 `json:"folha_pagamento_12m"`
	NetProfit  float64 `json:"lucro_liquido_anual"`
	ISSRate    float64 `json:"aliquota_iss" example:"0.05"`
	ICMSRate   float64 `json:"aliquota_icms" example:"0.18"`
	Credits    float64 `json:"creditos_pis_cofins"`
}

type TaxCalculationRequest struct {
	CompanyID string `json:"company_id" binding:"required,uuid"`
	Year      int    `json:"ano" binding:"omitempty,min=2000,max=2100"`
	TaxInputRequest
}

func (r TaxInputRequest) current() [12]*float64 {
	return [12]*float64{r.Jan, r.Fev, r.Mar, r.Abr, r.Mai, r.Jun, r.Jul, r.Ago, r.Set, r.Out, r.Nov, r.Dez}
}

func (r TaxInputRequest) prior() [12]*float64 {
	return [12]*float64{
		r.JanAnterior, r.FevAnterior, r.MarAnterior, r.AbrAnterior, r.MaiAnterior, r.JunAnterior,
		r.JulAnterior, r.AgoAnterior, r.SetAnterior, r.OutAnterior, r.NovAnterior, r.DezAnterior,
	}
}

// ToInput converts the request into calculator input. HasMonthly is set when
// any current-year month was sent.
func (r TaxInputRequest) ToInput() (taxcalc.Input, error) {
	companyType, err := taxcalc.ParseCompanyType(r.CompanyType)
	if err != nil {
		return taxcalc.Input{}, &taxcalc.ValidationError{
			Field:   "tipo_empresa",
			Bound:   "comércio|serviço|indústria",
			Message: "unknown company type",
		}
	}

	in := taxcalc.Input{
		CompanyType: companyType,
		CNAE:        r.CNAE,
		Payroll12m:  r.Payroll12m,
		NetProfit:   r.NetProfit,
		ISSRate:     r.ISSRate,
		ICMSRate:    r.ICMSRate,
		Credits:     r.Credits,
	}
	for i, v := range r.current() {
		if v != nil {
			in.Current[i] = *v
			in.HasMonthly = true
		}
	}
	for i, v := range r.prior() {
		if v != nil {
			in.Prior[i] = *v
		}
	}
	return in, nil
}

// CalculationResponse is the comparison plus the id of the stored report.
type CalculationResponse struct {
	ReportID *uuid.UUID `json:"report_id,omitempty"`
	taxcalc.Comparison
}

type ReportListFilter struct {
	CompanyID string
	Year      int
}

type ReportSummary struct {
	ID               uuid.UUID `json:"id"`
	CompanyID        uuid.UUID `json:"company_id"`
	CompanyName      string    `json:"company_name,omitempty"`
	Year             int       `json:"ano"`
	CompanyType      string    `json:"tipo_empresa"`
	CNAE             string    `json:"cnae"`
	RBA              float64   `json:"rba"`
	RBAA             float64   `json:"rbaa"`
	RBT12            float64   `json:"rbt12"`
	BestRegime       string    `json:"melhor_regime"`
	Savings          float64   `json:"economia"`
	ReferenceVersion string    `json:"versao_tabelas"`
	CreatedBy        uuid.UUID `json:"created_by"`
	CreatorName      string    `json:"created_by_name,omitempty"`
	CreatedAt        string    `json:"created_at"`
}

type ReportDetail struct {
	ReportSummary
	Current    []float64       `json:"meses_atual"`
	Prior      []float64       `json:"meses_anterior"`
	Payroll12m float64         `json:"folha_pagamento_12m"`
	NetProfit  float64         `json:"lucro_liquido_anual"`
	ISSRate    float64         `json:"aliquota_iss"`
	ICMSRate   float64         `json:"aliquota_icms"`
	Credits    float64         `json:"creditos_pis_cofins"`
	Result     json.RawMessage `json:"resultado" swaggertype:"object"`
}

type TaxCalculationService interface {
	Calculate(ctx context.Context, actor Actor, req TaxCalculationRequest) (*CalculationResponse, error)
	Simulate(ctx context.Context, req TaxInputRequest) (*taxcalc.Comparison, error)
	ListReports(ctx context.Context, actor Actor, filter ReportListFilter, p pagination.Params) ([]ReportSummary, int64, error)
	GetReport(ctx context.Context, actor Actor, id string) (*ReportDetail, error)
	DeleteReport(ctx context.Context, actor Actor, id string) error
}

type taxCalculationService struct {
	calc      *taxcalc.Calculator
	reports   repository.TaxReportRepository
	clients   repository.ClientRepository
	hub       Broadcaster
	publisher broker.Publisher
	audit     AuditService
	log       *zap.Logger
	now       func() time.Time
}

func NewTaxCalculationService(
	calc *taxcalc.Calculator,
	reports repository.TaxReportRepository,
	clients repository.ClientRepository,
	hub Broadcaster,
	publisher broker.Publisher,
	audit AuditService,
	log *zap.Logger,
) TaxCalculationService {
	return &taxCalculationService{
		calc:      calc,
		reports:   reports,
		clients:   clients,
		hub:       hub,
		publisher: publisher,
		audit:     audit,
		log:       log,
		now:       time.Now,
	}
}

// ownCompanyID returns the company of a CLIENT actor.
func (s *taxCalculationService) ownCompanyID(ctx context.Context, actor Actor) (uuid.UUID, error) {
	client, err := s.clients.GetByUserID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, ErrForbidden
		}
		return uuid.Nil, fmt.Errorf("failed to fetch client: %w", err)
	}
	if client.Company == nil {
		return uuid.Nil, ErrCompanyNotFound
	}
	return client.Company.ID, nil
}

func (s *taxCalculationService) Calculate(ctx context.Context, actor Actor, req TaxCalculationRequest) (*CalculationResponse, error) {
	in, err := req.ToInput()
	if err != nil {
		return nil, err
	}
	if err := in.Validate(s.calc.Reference().Rates()); err != nil {
		return nil, err
	}

	companyID, err := uuid.Parse(req.CompanyID)
	if err != nil {
		return nil, invalidInput("company_id", "invalid company id")
	}
	company, err := s.clients.GetCompanyByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("failed to fetch company: %w", err)
	}
	if !actor.IsStaff() {
		own, err := s.ownCompanyID(ctx, actor)
		if err != nil {
			return nil, err
		}
		if own != company.ID {
			return nil, ErrForbidden
		}
	}

	cmp, err := s.calc.Compare(in)
	if err != nil {
		return nil, err
	}

	year := req.Year
	if year == 0 {
		year = s.now().Year()
	}

	report, err := s.buildReport(company.ID, year, in, cmp, actor.ID)
	if err == nil {
		err = s.reports.Create(ctx, report)
	}
	if err != nil {
		s.log.Error("tax calculation report not saved",
			zap.String("company_id", company.ID.String()),
			zap.Error(err))
		return &CalculationResponse{Comparison: cmp}, &ReportPersistenceError{Err: err}
	}

	s.log.Info("tax calculation saved",
		zap.String("report_id", report.ID.String()),
		zap.String("company_id", company.ID.String()),
		zap.String("melhor_regime", cmp.Best.String()),
		zap.Float64("economia", cmp.Savings))

	event := map[string]interface{}{
		"report_id":     report.ID,
		"company_id":    company.ID,
		"company_name":  company.CompanyName,
		"ano":           year,
		"melhor_regime": cmp.Best.String(),
		"economia":      cmp.Savings,
		"created_by":    actor.ID,
	}
	s.hub.BroadcastEvent(EventTaxCalculationCreated, event)
	if err := s.publisher.Publish(ctx, broker.NewEvent(broker.EventTaxCalculationCreated, event)); err != nil {
		s.log.Warn("failed to publish calculation event", zap.String("report_id", report.ID.String()), zap.Error(err))
	}
	s.audit.Record(ctx, actor, model.ActionCreateTaxCalculation, "tax_calculation_report", report.ID.String(), map[string]interface{}{
		"company_id":    company.ID.String(),
		"melhor_regime": cmp.Best.String(),
	})

	id := report.ID
	return &CalculationResponse{ReportID: &id, Comparison: cmp}, nil
}

func (s *taxCalculationService) buildReport(companyID uuid.UUID, year int, in taxcalc.Input, cmp taxcalc.Comparison, actorID uuid.UUID) (*model.TaxCalculationReport, error) {
	current, err := json.Marshal(in.Current)
	if err != nil {
		return nil, err
	}
	prior, err := json.Marshal(in.Prior)
	if err != nil {
		return nil, err
	}
	result, err := json.Marshal(cmp)
	if err != nil {
		return nil, err
	}

	return &model.TaxCalculationReport{
		CompanyID:        companyID,
		Year:             year,
		CompanyType:      in.CompanyType.String(),
		CNAE:             in.CNAE,
		Current:          datatypes.JSON(current),
		Prior:            datatypes.JSON(prior),
		Payroll12m:       decimal.NewFromFloat(in.Payroll12m),
		NetProfit:        decimal.NewFromFloat(in.NetProfit),
		ISSRate:          decimal.NewFromFloat(in.ISSRate),
		ICMSRate:         decimal.NewFromFloat(in.ICMSRate),
		Credits:          decimal.NewFromFloat(in.Credits),
		RBA:              decimal.NewFromFloat(cmp.Revenue.RBA),
		RBAA:             decimal.NewFromFloat(cmp.Revenue.RBAA),
		RBT12:            decimal.NewFromFloat(cmp.Revenue.RBT12),
		BestRegime:       cmp.Best.String(),
		Savings:          decimal.NewFromFloat(cmp.Savings).Round(2),
		Result:           datatypes.JSON(result),
		ReferenceVersion: cmp.ReferenceVersion,
		CreatedBy:        actorID,
	}, nil
}

func (s *taxCalculationService) Simulate(_ context.Context, req TaxInputRequest) (*taxcalc.Comparison, error) {
	in, err := req.ToInput()
	if err != nil {
		return nil, err
	}
	cmp, err := s.calc.Compare(in)
	if err != nil {
		return nil, err
	}
	return &cmp, nil
}

func (s *taxCalculationService) ListReports(ctx context.Context, actor Actor, filter ReportListFilter, p pagination.Params) ([]ReportSummary, int64, error) {
	var repoFilter repository.ReportFilter
	repoFilter.Year = filter.Year

	if filter.CompanyID != "" {
		id, err := uuid.Parse(filter.CompanyID)
		if err != nil {
			return nil, 0, invalidInput("company_id", "invalid company id")
		}
		repoFilter.CompanyID = &id
	}
	if !actor.IsStaff() {
		own, err := s.ownCompanyID(ctx, actor)
		if err != nil {
			return nil, 0, err
		}
		if repoFilter.CompanyID != nil && *repoFilter.CompanyID != own {
			return nil, 0, ErrForbidden
		}
		repoFilter.CompanyID = &own
	}

	reports, total, err := s.reports.List(ctx, repoFilter, repository.Page{Offset: p.Offset, Limit: p.Limit})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reports: %w", err)
	}
	res := make([]ReportSummary, 0, len(reports))
	for i := range reports {
		res = append(res, toReportSummary(&reports[i]))
	}
	return res, total, nil
}

func (s *taxCalculationService) getReport(ctx context.Context, id string) (*model.TaxCalculationReport, error) {
	rid, err := uuid.Parse(id)
	if err != nil {
		return nil, invalidInput("id", "invalid report id")
	}
	report, err := s.reports.GetByID(ctx, rid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to fetch report: %w", err)
	}
	return report, nil
}

func (s *taxCalculationService) GetReport(ctx context.Context, actor Actor, id string) (*ReportDetail, error) {
	report, err := s.getReport(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff() && report.CreatedBy != actor.ID {
		own, err := s.ownCompanyID(ctx, actor)
		if err != nil {
			return nil, err
		}
		if own != report.CompanyID {
			return nil, ErrForbidden
		}
	}

	detail := &ReportDetail{
		ReportSummary: toReportSummary(report),
		Current:       make([]float64, 12),
		Prior:         make([]float64, 12),
		Payroll12m:    report.Payroll12m.InexactFloat64(),
		NetProfit:     report.NetProfit.InexactFloat64(),
		ISSRate:       report.ISSRate.InexactFloat64(),
		ICMSRate:      report.ICMSRate.InexactFloat64(),
		Credits:       report.Credits.InexactFloat64(),
		Result:        json.RawMessage(report.Result),
	}
	if err := json.Unmarshal(report.Current, &detail.Current); err != nil {
		return nil, fmt.Errorf("failed to decode stored months: %w", err)
	}
	if err := json.Unmarshal(report.Prior, &detail.Prior); err != nil {
		return nil, fmt.Errorf("failed to decode stored months: %w", err)
	}
	return detail, nil
}

func (s *taxCalculationService) DeleteReport(ctx context.Context, actor Actor, id string) error {
	report, err := s.getReport(ctx, id)
	if err != nil {
		return err
	}
	if !actor.IsStaff() && report.CreatedBy != actor.ID {
		return ErrForbidden
	}

	if err := s.reports.Delete(ctx, report.ID); err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}

	s.hub.BroadcastEvent(EventReportDeleted, map[string]interface{}{
		"report_id":  report.ID,
		"company_id": report.CompanyID,
	})
	s.audit.Record(ctx, actor, model.ActionDeleteTaxCalculation, "tax_calculation_report", report.ID.String(), map[string]interface{}{
		"company_id": report.CompanyID.String(),
	})
	return nil
}

func toReportSummary(r *model.TaxCalculationReport) ReportSummary {
	res := ReportSummary{
		ID:               r.ID,
		CompanyID:        r.CompanyID,
		Year:             r.Year,
		CompanyType:      r.CompanyType,
		CNAE:             r.CNAE,
		RBA:              r.RBA.InexactFloat64(),
		RBAA:             r.RBAA.InexactFloat64(),
		RBT12:            r.RBT12.InexactFloat64(),
		BestRegime:       r.BestRegime,
		Savings:          r.Savings.InexactFloat64(),
		ReferenceVersion: r.ReferenceVersion,
		CreatedBy:        r.CreatedBy,
		CreatedAt:        r.CreatedAt.Format(timeLayout),
	}
	if r.Company != nil {
		res.CompanyName = r.Company.CompanyName
	}
	if r.Creator != nil {
		res.CreatorName = r.Creator.Name
	}
	return res
}
