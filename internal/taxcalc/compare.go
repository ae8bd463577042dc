package taxcalc

import (
	"fmt"
	"math"
	"sort"
)

var monthKeys = [12]string{"jan", "fev", "mar", "abr", "mai", "jun", "jul", "ago", "set", "out", "nov", "dez"}

// MonthKey returns the short Portuguese key of month index i (0 = January)
// used in request payloads.
func MonthKey(i int) string {
	if i < 0 || i > 11 {
		return ""
	}
	return monthKeys[i]
}

// Input is one comparison request. Rates are fractions (0.05 = 5%).
type Input struct {
	CompanyType CompanyType
	CNAE        string
	Current     Monthly
	Prior       Monthly
	// HasMonthly is set when the caller sent current-year months, which
	// enables the monthly evolution.
	HasMonthly bool
	Payroll12m float64
	NetProfit  float64
	ISSRate    float64
	ICMSRate   float64
	Credits    float64
}

// MaxCredits caps the declared PIS/COFINS input credits.
const MaxCredits = 1_000_000

// Validate rejects the input before any calculator runs.
func (in Input) Validate(rates Rates) error {
	if !in.CompanyType.Valid() {
		return invalid("tipo_empresa", "comércio|serviço|indústria", "unknown company type")
	}
	if len(in.CNAE) != 7 || !isDigits(in.CNAE) {
		return invalid("cnae", "7 digits", "CNAE must have exactly 7 digits")
	}
	for i := 0; i < 12; i++ {
		if err := nonNegative(monthKeys[i], in.Current[i]); err != nil {
			return err
		}
		if err := nonNegative(monthKeys[i]+"_anterior", in.Prior[i]); err != nil {
			return err
		}
	}
	if err := nonNegative("folha_pagamento_12m", in.Payroll12m); err != nil {
		return err
	}
	if err := nonNegative("lucro_liquido_anual", in.NetProfit); err != nil {
		return err
	}
	if rba := in.Current.Sum(); in.NetProfit > rba {
		return invalid("lucro_liquido_anual", fmt.Sprintf("<= %.2f", rba), "net profit cannot exceed annual revenue")
	}

	issBound := fmt.Sprintf("[%.2f, %.2f]", rates.ISSMin, rates.ISSMax)
	switch {
	case in.ISSRate == 0 && in.CompanyType == CompanyTypeService:
		return invalid("aliquota_iss", issBound, "ISS rate is required for service companies")
	case in.ISSRate != 0 && (in.ISSRate < rates.ISSMin || in.ISSRate > rates.ISSMax || math.IsNaN(in.ISSRate)):
		return invalid("aliquota_iss", issBound, "ISS rate out of range")
	}
	if in.ICMSRate != 0 && (in.ICMSRate < rates.ICMSMin || in.ICMSRate > rates.ICMSMax || math.IsNaN(in.ICMSRate)) {
		return invalid("aliquota_icms", fmt.Sprintf("[%.2f, %.2f]", rates.ICMSMin, rates.ICMSMax), "ICMS rate out of range")
	}
	if in.Credits < 0 || in.Credits > MaxCredits || math.IsNaN(in.Credits) {
		return invalid("creditos_pis_cofins", "[0, 1000000]", "credits out of range")
	}
	return nil
}

func nonNegative(field string, v float64) error {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return invalid(field, ">= 0", "value must not be negative")
	}
	return nil
}

// RegimeTotal is one entry of the ranking.
type RegimeTotal struct {
	Regime        Regime  `json:"regime"`
	Total         float64 `json:"imposto_total"`
	EffectiveRate float64 `json:"aliquota_efetiva"`
}

// Comparison bundles every regime result and the winner.
type Comparison struct {
	Revenue   Revenue         `json:"faturamento"`
	Simples   SimplesResult   `json:"simples_nacional"`
	Presumido PresumidoResult `json:"lucro_presumido"`
	Real      RealResult      `json:"lucro_real"`
	Ranking   []RegimeTotal   `json:"ranking"`
	Best      Regime          `json:"melhor_regime"`
	Savings   float64         `json:"economia"`
	// MandatoryLucroReal flags revenue above the Lucro Real obligation limit.
	MandatoryLucroReal bool          `json:"lucro_real_obrigatorio"`
	Evolution          []MonthResult `json:"evolucao_mensal,omitempty"`
	ReferenceVersion   string        `json:"versao_tabelas"`
}

// Compare validates the input, runs the three regimes and ranks them by total
// tax. Ties keep the Simples, Presumido, Real order.
func (c *Calculator) Compare(in Input) (Comparison, error) {
	if err := in.Validate(c.ref.rates); err != nil {
		return Comparison{}, err
	}
	rev := Aggregate(in.Current, in.Prior)
	if rev.RBA == 0 {
		return Comparison{}, ErrZeroRevenue
	}

	simples, err := c.Simples(SimplesInput{
		CNAE:        in.CNAE,
		CompanyType: in.CompanyType,
		Payroll12m:  in.Payroll12m,
		RBT12:       rev.RBT12,
		RBA:         rev.RBA,
	})
	if err != nil {
		return Comparison{}, err
	}
	presumido, err := c.Presumido(PresumidoInput{
		CompanyType: in.CompanyType,
		RBA:         rev.RBA,
		ISSRate:     in.ISSRate,
		ICMSRate:    in.ICMSRate,
	})
	if err != nil {
		return Comparison{}, fmt.Errorf("lucro presumido: %w", err)
	}
	lucroReal, err := c.Real(RealInput{
		CNAE:        in.CNAE,
		CompanyType: in.CompanyType,
		RBA:         rev.RBA,
		NetProfit:   in.NetProfit,
		ISSRate:     in.ISSRate,
		Credits:     in.Credits,
	})
	if err != nil {
		return Comparison{}, fmt.Errorf("lucro real: %w", err)
	}

	ranking := rank(
		RegimeTotal{Regime: RegimeSimplesNacional, Total: simples.Total, EffectiveRate: simples.EffectiveRate},
		RegimeTotal{Regime: RegimeLucroPresumido, Total: presumido.Total, EffectiveRate: presumido.EffectiveRate},
		RegimeTotal{Regime: RegimeLucroReal, Total: lucroReal.Total, EffectiveRate: lucroReal.EffectiveRate},
	)

	cmp := Comparison{
		Revenue:            rev,
		Simples:            simples,
		Presumido:          presumido,
		Real:               lucroReal,
		Ranking:            ranking,
		Best:               ranking[0].Regime,
		Savings:            ranking[1].Total - ranking[0].Total,
		MandatoryLucroReal: c.MandatoryLucroReal(rev.RBA),
		ReferenceVersion:   c.ref.version,
	}

	if in.HasMonthly {
		evo, err := c.Evolution(EvolutionInput{
			CNAE:        in.CNAE,
			CompanyType: in.CompanyType,
			Payroll12m:  in.Payroll12m,
			Current:     in.Current,
			Prior:       in.Prior,
		})
		if err != nil {
			return Comparison{}, fmt.Errorf("monthly evolution: %w", err)
		}
		cmp.Evolution = evo
	}
	return cmp, nil
}

// rank orders totals ascending; equal totals keep their argument order.
func rank(totals ...RegimeTotal) []RegimeTotal {
	out := append([]RegimeTotal(nil), totals...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total < out[j].Total })
	return out
}
