package taxcalc

import (
	"errors"
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serviceInput() Input {
	return Input{
		CompanyType: CompanyTypeService,
		CNAE:        "6201501",
		Current:     flat(40_000),
		Prior:       flat(35_000),
		HasMonthly:  true,
		Payroll12m:  150_000,
		NetProfit:   100_000,
		ISSRate:     0.05,
	}
}

func TestCompareRanksAndPicksMinimum(t *testing.T) {
	calc := newCalc(t)

	cmp, err := calc.Compare(serviceInput())
	require.NoError(t, err)

	totals := map[Regime]float64{
		RegimeSimplesNacional: cmp.Simples.Total,
		RegimeLucroPresumido:  cmp.Presumido.Total,
		RegimeLucroReal:       cmp.Real.Total,
	}
	require.Len(t, cmp.Ranking, 3)
	for _, r := range cmp.Ranking {
		assert.Equal(t, totals[r.Regime], r.Total)
	}
	lowest := math.Min(cmp.Simples.Total, math.Min(cmp.Presumido.Total, cmp.Real.Total))
	assert.Equal(t, lowest, totals[cmp.Best])
	assert.Equal(t, cmp.Ranking[1].Total-cmp.Ranking[0].Total, cmp.Savings)
	assert.GreaterOrEqual(t, cmp.Savings, 0.0)

	assert.Equal(t, 480_000.0, cmp.Revenue.RBA)
	assert.Equal(t, 420_000.0, cmp.Revenue.RBAA)
	assert.Len(t, cmp.Evolution, 12)
	assert.NotEmpty(t, cmp.ReferenceVersion)
	assert.False(t, cmp.MandatoryLucroReal)
}

func TestCompareProperties(t *testing.T) {
	calc := newCalc(t)
	r := rand.New(rand.NewSource(99))
	codes := []string{"4711302", "1091101", "6201501", "4120400", "9602501", "9999999"}
	types := []CompanyType{CompanyTypeTrade, CompanyTypeService, CompanyTypeIndustry}

	for n := 0; n < 300; n++ {
		in := Input{
			CompanyType: types[r.Intn(len(types))],
			CNAE:        codes[r.Intn(len(codes))],
			Current:     randomMonthly(r),
			Prior:       randomMonthly(r),
			ISSRate:     0.02 + float64(r.Intn(4))/100,
			ICMSRate:    0.02 + float64(r.Intn(19))/100,
			Credits:     float64(r.Intn(50_000)),
		}
		in.Payroll12m = in.Prior.Sum() * r.Float64() * 0.5
		in.NetProfit = in.Current.Sum() * r.Float64()

		cmp, err := calc.Compare(in)
		require.NoError(t, err)

		totals := []float64{cmp.Simples.Total, cmp.Presumido.Total, cmp.Real.Total}
		sorted := append([]float64(nil), totals...)
		sort.Float64s(sorted)
		assert.Equal(t, sorted[0], cmp.Ranking[0].Total)
		assert.Equal(t, sorted[1]-sorted[0], cmp.Savings)
		assert.GreaterOrEqual(t, cmp.Savings, 0.0)

		rba := cmp.Revenue.RBA
		assert.InDelta(t, cmp.Simples.Total, cmp.Simples.EffectiveRate/100*rba, 1e-6)
		assert.InDelta(t, cmp.Presumido.Total, cmp.Presumido.EffectiveRate/100*rba, 1e-6)
		assert.InDelta(t, cmp.Real.Total, cmp.Real.EffectiveRate/100*rba, 1e-6)
		assert.Empty(t, cmp.Evolution)
	}
}

func TestRankTiesKeepEncounterOrder(t *testing.T) {
	ranking := rank(
		RegimeTotal{Regime: RegimeSimplesNacional, Total: 10},
		RegimeTotal{Regime: RegimeLucroPresumido, Total: 10},
		RegimeTotal{Regime: RegimeLucroReal, Total: 5},
	)
	assert.Equal(t, []Regime{RegimeLucroReal, RegimeSimplesNacional, RegimeLucroPresumido},
		[]Regime{ranking[0].Regime, ranking[1].Regime, ranking[2].Regime})

	ranking = rank(
		RegimeTotal{Regime: RegimeSimplesNacional, Total: 7},
		RegimeTotal{Regime: RegimeLucroPresumido, Total: 7},
		RegimeTotal{Regime: RegimeLucroReal, Total: 7},
	)
	assert.Equal(t, RegimeSimplesNacional, ranking[0].Regime)
	assert.Equal(t, RegimeLucroPresumido, ranking[1].Regime)
}

func TestCompareUnknownIndustryCode(t *testing.T) {
	calc := newCalc(t)

	in := Input{
		CompanyType: CompanyTypeIndustry,
		CNAE:        "9999999",
		Current:     flat(10_000),
		Prior:       flat(10_000),
		NetProfit:   10_000,
		ICMSRate:    0.12,
	}
	cmp, err := calc.Compare(in)
	require.NoError(t, err)
	assert.Equal(t, AnnexII, cmp.Simples.Annex)
}

func TestCompareRejectsInvalidInput(t *testing.T) {
	calc := newCalc(t)

	cases := []struct {
		name   string
		mutate func(*Input)
		field  string
	}{
		{"profit above revenue", func(in *Input) { in.NetProfit = in.Current.Sum() + 1 }, "lucro_liquido_anual"},
		{"negative month", func(in *Input) { in.Current[3] = -1 }, "abr"},
		{"negative prior month", func(in *Input) { in.Prior[11] = -0.01 }, "dez_anterior"},
		{"negative payroll", func(in *Input) { in.Payroll12m = -1 }, "folha_pagamento_12m"},
		{"short cnae", func(in *Input) { in.CNAE = "620150" }, "cnae"},
		{"non numeric cnae", func(in *Input) { in.CNAE = "62O1501" }, "cnae"},
		{"iss missing for service", func(in *Input) { in.ISSRate = 0 }, "aliquota_iss"},
		{"iss too high", func(in *Input) { in.ISSRate = 0.06 }, "aliquota_iss"},
		{"iss not a number", func(in *Input) { in.ISSRate = math.NaN() }, "aliquota_iss"},
		{"icms too low", func(in *Input) { in.ICMSRate = 0.01 }, "aliquota_icms"},
		{"icms not a number", func(in *Input) { in.ICMSRate = math.NaN() }, "aliquota_icms"},
		{"credits too high", func(in *Input) { in.Credits = MaxCredits + 1 }, "creditos_pis_cofins"},
		{"unknown type", func(in *Input) { in.CompanyType = 0 }, "tipo_empresa"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := serviceInput()
			tc.mutate(&in)

			_, err := calc.Compare(in)
			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr), "got %v", err)
			assert.Equal(t, tc.field, vErr.Field)
		})
	}
}

func TestCompareZeroRevenue(t *testing.T) {
	calc := newCalc(t)

	in := serviceInput()
	in.Current = Monthly{}
	in.NetProfit = 0
	_, err := calc.Compare(in)
	assert.ErrorIs(t, err, ErrZeroRevenue)
}

func TestCompareAboveSimplesCeiling(t *testing.T) {
	calc := newCalc(t)

	in := serviceInput()
	in.Current = flat(500_000)
	_, err := calc.Compare(in)
	assert.ErrorIs(t, err, ErrRevenueAboveCeiling)
}
