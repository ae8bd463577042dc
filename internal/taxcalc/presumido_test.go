package taxcalc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresumidoServiceScenario(t *testing.T) {
	calc := newCalc(t)

	res, err := calc.Presumido(PresumidoInput{CompanyType: CompanyTypeService, RBA: 500_000, ISSRate: 0.03})
	require.NoError(t, err)

	assert.InDelta(t, 32.0, res.Presumption, 1e-9)
	assert.InDelta(t, 160_000, res.PresumedProfit, 1e-6)
	assert.InDelta(t, 24_000, res.IRPJ, 1e-6)
	assert.InDelta(t, 0, res.IRPJSurtax, 1e-9)
	assert.InDelta(t, 14_400, res.CSLL, 1e-6)
	assert.InDelta(t, 3_250, res.PIS, 1e-6)
	assert.InDelta(t, 15_000, res.COFINS, 1e-6)
	assert.InDelta(t, 15_000, res.ISS, 1e-6)
	assert.Equal(t, 0.0, res.ICMS)
	assert.InDelta(t, 71_650, res.Total, 1e-6)
	assert.InDelta(t, res.Total, res.EffectiveRate/100*500_000, 1e-6)
}

func TestPresumidoTradeChargesICMSNotISS(t *testing.T) {
	calc := newCalc(t)

	res, err := calc.Presumido(PresumidoInput{CompanyType: CompanyTypeTrade, RBA: 1_000_000, ISSRate: 0.05, ICMSRate: 0.18})
	require.NoError(t, err)

	assert.InDelta(t, 80_000, res.PresumedProfit, 1e-6)
	assert.Equal(t, 0.0, res.ISS)
	assert.InDelta(t, 180_000, res.ICMS, 1e-6)
}

func TestPresumidoSurtaxOnlyAboveLimit(t *testing.T) {
	calc := newCalc(t)

	// 32% of 1,000,000 = 320,000 presumed; 80,000 above the annual limit.
	res, err := calc.Presumido(PresumidoInput{CompanyType: CompanyTypeService, RBA: 1_000_000, ISSRate: 0.02})
	require.NoError(t, err)
	assert.InDelta(t, 8_000, res.IRPJSurtax, 1e-6)

	// Exactly at the limit: 750,000 x 32% = 240,000.
	res, err = calc.Presumido(PresumidoInput{CompanyType: CompanyTypeService, RBA: 750_000, ISSRate: 0.02})
	require.NoError(t, err)
	assert.InDelta(t, 0, res.IRPJSurtax, 1e-9)
}

func TestPresumidoQuarterlyUsesQuarterLimit(t *testing.T) {
	calc := newCalc(t)

	res, err := calc.PresumidoQuarterly(PresumidoInput{CompanyType: CompanyTypeService, RBA: 250_000, ISSRate: 0.02})
	require.NoError(t, err)
	// 80,000 presumed, 20,000 above the quarterly limit.
	assert.InDelta(t, 2_000, res.IRPJSurtax, 1e-6)
}

func TestPresumidoZeroRevenue(t *testing.T) {
	calc := newCalc(t)

	_, err := calc.Presumido(PresumidoInput{CompanyType: CompanyTypeService, ISSRate: 0.02})
	assert.ErrorIs(t, err, ErrZeroRevenue)
}
