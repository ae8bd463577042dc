package taxcalc

import "math"

type PresumidoInput struct {
	CompanyType CompanyType
	RBA         float64
	ISSRate     float64
	ICMSRate    float64
}

type PresumidoResult struct {
	Presumption    float64 `json:"presuncao"`
	PresumedProfit float64 `json:"base_presumida"`
	IRPJ           float64 `json:"irpj"`
	IRPJSurtax     float64 `json:"irpj_adicional"`
	CSLL           float64 `json:"csll"`
	PIS            float64 `json:"pis"`
	COFINS         float64 `json:"cofins"`
	ISS            float64 `json:"iss"`
	ICMS           float64 `json:"icms"`
	Total          float64 `json:"imposto_total"`
	EffectiveRate  float64 `json:"aliquota_efetiva"`
}

// Presumido estimates a full year under Lucro Presumido.
func (c *Calculator) Presumido(in PresumidoInput) (PresumidoResult, error) {
	return c.presumido(in, c.ref.rates.IRPJSurtaxAnnualLimit)
}

// PresumidoQuarterly runs the same computation over a quarter's revenue, where
// the IRPJ surtax applies above the quarterly limit.
func (c *Calculator) PresumidoQuarterly(in PresumidoInput) (PresumidoResult, error) {
	return c.presumido(in, c.ref.rates.IRPJSurtaxQuarterlyLimit)
}

func (c *Calculator) presumido(in PresumidoInput, surtaxLimit float64) (PresumidoResult, error) {
	if in.RBA == 0 {
		return PresumidoResult{}, ErrZeroRevenue
	}
	pct, err := c.ref.PresumidoPresumption(in.CompanyType)
	if err != nil {
		return PresumidoResult{}, err
	}
	rates := c.ref.rates

	res := PresumidoResult{Presumption: pct * 100}
	res.PresumedProfit = in.RBA * pct
	res.IRPJ = res.PresumedProfit * rates.IRPJ
	res.IRPJSurtax = math.Max(0, res.PresumedProfit-surtaxLimit) * rates.IRPJSurtax
	res.CSLL = res.PresumedProfit * rates.CSLL
	res.PIS = in.RBA * rates.PISCumulative
	res.COFINS = in.RBA * rates.COFINSCumulative

	switch in.CompanyType {
	case CompanyTypeService:
		res.ISS = in.RBA * in.ISSRate
	case CompanyTypeTrade, CompanyTypeIndustry:
		res.ICMS = in.RBA * in.ICMSRate
	}

	res.Total = res.IRPJ + res.IRPJSurtax + res.CSLL + res.PIS + res.COFINS + res.ISS + res.ICMS
	res.EffectiveRate = res.Total / in.RBA * 100
	return res, nil
}
