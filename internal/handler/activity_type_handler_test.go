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
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockActivityService struct {
	service.ActivityTypeService
	ListFn        func(ctx context.Context, includeInactive bool) ([]model.ActivityType, error)
	PresumptionFn func(ctx context.Context, id string, revenue decimal.Decimal) (*service.PresumptionResult, error)
	DeactivateFn  func(ctx context.Context, actor service.Actor, id string) error
}

func (m *mockActivityService) List(ctx context.Context, includeInactive bool) ([]model.ActivityType, error) {
	if m.ListFn == nil {
		return nil, errors.New("ListFn not set")
	}
	return m.ListFn(ctx, includeInactive)
}

func (m *mockActivityService) Presumption(ctx context.Context, id string, revenue decimal.Decimal) (*service.PresumptionResult, error) {
	if m.PresumptionFn == nil {
		return nil, errors.New("PresumptionFn not set")
	}
	return m.PresumptionFn(ctx, id, revenue)
}

func (m *mockActivityService) Deactivate(ctx context.Context, actor service.Actor, id string) error {
	if m.DeactivateFn == nil {
		return errors.New("DeactivateFn not set")
	}
	return m.DeactivateFn(ctx, actor, id)
}

func activityRouter(svc service.ActivityTypeService) *gin.Engine {
	perms := rolePerms{model.RoleAdmin: {model.PermActivityTypesWrite}}
	return newTestRouter(perms, NewActivityTypeHandler(svc).RegisterRoutes)
}

func TestListActivityTypesIncludeInactiveIsStaffOnly(t *testing.T) {
	var seen []bool
	svc := &mockActivityService{
		ListFn: func(_ context.Context, includeInactive bool) ([]model.ActivityType, error) {
			seen = append(seen, includeInactive)
			return nil, nil
		},
	}
	router := activityRouter(svc)

	request(router, http.MethodGet, "/api/activity-types?include_inactive=true", bearer(t, uuid.New(), model.RoleClient), nil)
	request(router, http.MethodGet, "/api/activity-types?include_inactive=true", bearer(t, uuid.New(), model.RoleAdmin), nil)
	request(router, http.MethodGet, "/api/activity-types", bearer(t, uuid.New(), model.RoleAdmin), nil)

	assert.Equal(t, []bool{false, true, false}, seen)
}

func TestPresumptionParsesRevenue(t *testing.T) {
	id := uuid.New()
	svc := &mockActivityService{
		PresumptionFn: func(_ context.Context, gotID string, revenue decimal.Decimal) (*service.PresumptionResult, error) {
			assert.Equal(t, id.String(), gotID)
			assert.True(t, revenue.Equal(decimal.RequireFromString("150000.50")))
			return &service.PresumptionResult{ActivityTypeID: id, Revenue: revenue, PresumptionIRPJ: decimal.NewFromInt(16)}, nil
		},
	}
	router := activityRouter(svc)
	auth := bearer(t, uuid.New(), model.RoleClient)

	w := request(router, http.MethodGet, "/api/activity-types/"+id.String()+"/presuncao?faturamento=150000.50", auth, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = request(router, http.MethodGet, "/api/activity-types/"+id.String()+"/presuncao?faturamento=muito", auth, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "faturamento", decode(t, w).Field)
}

func TestDeactivateActivityType(t *testing.T) {
	svc := &mockActivityService{
		DeactivateFn: func(context.Context, service.Actor, string) error { return service.ErrActivityTypeNotFound },
	}
	router := activityRouter(svc)

	w := request(router, http.MethodDelete, "/api/activity-types/"+uuid.NewString(), bearer(t, uuid.New(), model.RoleClient), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = request(router, http.MethodDelete, "/api/activity-types/"+uuid.NewString(), bearer(t, uuid.New(), model.RoleAdmin), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
