package service

import (
	"context"
	"errors"
	"testing"

	"occ-api/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestActivityTypeValidation(t *testing.T) {
	repo := &mockActivityTypeRepo{}
	svc := NewActivityTypeService(repo, &mockAudit{})

	cases := []struct {
		name  string
		req   ActivityTypeRequest
		field string
	}{
		{"irpj above 100", ActivityTypeRequest{Name: "X", PresumptionIRPJ: decimal.NewFromInt(101)}, "presuncao_irpj"},
		{"negative csll", ActivityTypeRequest{Name: "X", PresumptionCSLL: decimal.NewFromInt(-1)}, "presuncao_csll"},
		{"variable without limit", ActivityTypeRequest{Name: "X", VariableIRPJ: true}, "faturamento_limite"},
		{"variable missing rate", ActivityTypeRequest{Name: "X", VariableIRPJ: true, RevenueLimit: dec("120000"), IRPJUpToLimit: dec("16")}, "presuncao_irpj_acima_limite"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), Actor{Role: model.RoleAdmin}, tc.req)
			var inErr *InputError
			require.True(t, errors.As(err, &inErr))
			assert.Equal(t, tc.field, inErr.Field)
		})
	}
}

func TestActivityTypeNameTaken(t *testing.T) {
	repo := &mockActivityTypeRepo{NameTakenFn: func(context.Context, string, *uuid.UUID) (bool, error) { return true, nil }}
	svc := NewActivityTypeService(repo, &mockAudit{})

	_, err := svc.Create(context.Background(), Actor{Role: model.RoleAdmin}, ActivityTypeRequest{Name: "Serviços", PresumptionIRPJ: decimal.NewFromInt(32)})
	assert.ErrorIs(t, err, ErrNameTaken)
}

func TestActivityTypeDeactivateAndPresumption(t *testing.T) {
	at := &model.ActivityType{
		ID:              uuid.New(),
		Name:            "Serviços em geral",
		PresumptionIRPJ: decimal.NewFromInt(32),
		PresumptionCSLL: decimal.NewFromInt(32),
		VariableIRPJ:    true,
		RevenueLimit:    dec("120000"),
		IRPJUpToLimit:   dec("16"),
		IRPJAboveLimit:  dec("32"),
		Active:          true,
	}
	updates := 0
	repo := &mockActivityTypeRepo{
		FindByIDFn: func(context.Context, uuid.UUID) (*model.ActivityType, error) { return at, nil },
		UpdateFn: func(context.Context, *model.ActivityType) error {
			updates++
			return nil
		},
	}
	audit := &mockAudit{}
	svc := NewActivityTypeService(repo, audit)

	res, err := svc.Presumption(context.Background(), at.ID.String(), decimal.NewFromInt(100_000))
	require.NoError(t, err)
	assert.True(t, res.PresumptionIRPJ.Equal(decimal.NewFromInt(16)))
	assert.True(t, res.PresumptionCSLL.Equal(decimal.NewFromInt(32)))

	require.NoError(t, svc.Deactivate(context.Background(), Actor{Role: model.RoleAdmin}, at.ID.String()))
	require.NoError(t, svc.Deactivate(context.Background(), Actor{Role: model.RoleAdmin}, at.ID.String()))
	assert.False(t, at.Active)
	assert.Equal(t, 1, updates)
	assert.Equal(t, []string{model.ActionDeactivateActivityType}, audit.actions())
}
