package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestActivityTypeIRPJPresumption(t *testing.T) {
	limit := decimal.NewFromInt(120000)
	below := decimal.NewFromInt(16)
	above := decimal.NewFromInt(32)

	fixed := ActivityType{PresumptionIRPJ: decimal.NewFromInt(8)}
	assert.True(t, fixed.IRPJPresumption(decimal.NewFromInt(1_000_000)).Equal(decimal.NewFromInt(8)))

	variable := ActivityType{
		PresumptionIRPJ: decimal.NewFromInt(32),
		VariableIRPJ:    true,
		RevenueLimit:    &limit,
		IRPJUpToLimit:   &below,
		IRPJAboveLimit:  &above,
	}
	assert.True(t, variable.IRPJPresumption(limit).Equal(below))
	assert.True(t, variable.IRPJPresumption(limit.Add(decimal.NewFromFloat(0.01))).Equal(above))
}

func TestIsStaffRole(t *testing.T) {
	assert.True(t, IsStaffRole(RoleSuperAdmin))
	assert.True(t, IsStaffRole(RoleAdmin))
	assert.False(t, IsStaffRole(RoleClient))
	assert.False(t, IsStaffRole(""))
}
