package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"occ-api/internal/model"
	"occ-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPlanService struct {
	service.TaxPlanService
	SummaryFn       func(ctx context.Context, actor service.Actor, planID string) (*service.TaxPlanSummary, error)
	DeleteRevenueFn func(ctx context.Context, actor service.Actor, planID, revenueID string) error
}

func (m *mockPlanService) Summary(ctx context.Context, actor service.Actor, planID string) (*service.TaxPlanSummary, error) {
	if m.SummaryFn == nil {
		return nil, errors.New("SummaryFn not set")
	}
	return m.SummaryFn(ctx, actor, planID)
}

func (m *mockPlanService) DeleteRevenue(ctx context.Context, actor service.Actor, planID, revenueID string) error {
	if m.DeleteRevenueFn == nil {
		return errors.New("DeleteRevenueFn not set")
	}
	return m.DeleteRevenueFn(ctx, actor, planID, revenueID)
}

func planRouter(svc service.TaxPlanService) *gin.Engine {
	perms := rolePerms{model.RoleAdmin: {model.PermTaxPlansManage}}
	return newTestRouter(perms, NewTaxPlanHandler(svc).RegisterRoutes)
}

func TestTaxPlanSummaryForClient(t *testing.T) {
	planID, clientUser := uuid.New(), uuid.New()
	svc := &mockPlanService{
		SummaryFn: func(_ context.Context, a service.Actor, id string) (*service.TaxPlanSummary, error) {
			assert.Equal(t, clientUser, a.ID)
			assert.Equal(t, planID.String(), id)
			return &service.TaxPlanSummary{PlanID: planID, Year: 2025, TotalRevenue: 1000, TotalExpense: 400, Balance: 600}, nil
		},
	}

	w := request(planRouter(svc), http.MethodGet, "/api/tax-plans/"+planID.String()+"/summary", bearer(t, clientUser, model.RoleClient), nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data, ok := decode(t, w).Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 600.0, data["balance"])
}

func TestTaxPlanSummaryOfOtherClientIsNotFound(t *testing.T) {
	svc := &mockPlanService{
		SummaryFn: func(context.Context, service.Actor, string) (*service.TaxPlanSummary, error) {
			return nil, service.ErrTaxPlanNotFound
		},
	}

	w := request(planRouter(svc), http.MethodGet, "/api/tax-plans/"+uuid.NewString()+"/summary", bearer(t, uuid.New(), model.RoleClient), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeletePlanRevenue(t *testing.T) {
	planID, entryID := uuid.NewString(), uuid.NewString()
	svc := &mockPlanService{
		DeleteRevenueFn: func(_ context.Context, _ service.Actor, gotPlan, gotEntry string) error {
			assert.Equal(t, planID, gotPlan)
			assert.Equal(t, entryID, gotEntry)
			return nil
		},
	}
	router := planRouter(svc)
	path := "/api/tax-plans/" + planID + "/revenues/" + entryID

	w := request(router, http.MethodDelete, path, bearer(t, uuid.New(), model.RoleClient), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = request(router, http.MethodDelete, path, bearer(t, uuid.New(), model.RoleAdmin), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
