package taxcalc

import (
	"math"
	"strconv"
	"strings"
)

type classRange struct{ lo, hi int }

// classRule routes an activity to a Lucro Real bucket when its folded
// description contains any keyword or its 4-digit CNAE class is in a range.
type classRule struct {
	class    ActivityClass
	keywords []string
	ranges   []classRange
}

func (r classRule) matches(cnaeClass int, description string) bool {
	for _, k := range r.keywords {
		if description != "" && strings.Contains(description, k) {
			return true
		}
	}
	for _, rg := range r.ranges {
		if cnaeClass >= rg.lo && cnaeClass <= rg.hi {
			return true
		}
	}
	return false
}

// realRules is evaluated top to bottom; the first match wins. Anything left
// over is general services, split by annual revenue.
var realRules = []classRule{
	{
		class:    ClassFuel,
		keywords: []string{"combustiv", "gas natural", "gas liquefeito"},
		ranges:   []classRange{{4681, 4681}, {4731, 4732}, {4784, 4784}},
	},
	{
		class:    ClassTradeIndustry,
		keywords: []string{"comercio", "industria", "fabricacao"},
		ranges:   []classRange{{1000, 3399}, {4500, 4799}},
	},
	{
		class:    ClassRealEstate,
		keywords: []string{"imobiliaria", "construcao", "loteamento", "incorporacao"},
		ranges:   []classRange{{4110, 4399}},
	},
	{
		class:    ClassHospital,
		keywords: []string{"hospitalar", "saude"},
		ranges:   []classRange{{8610, 8699}},
	},
	{
		class:    ClassCargoTransport,
		keywords: []string{"transporte de carga", "transporte rodoviario de carga", "frete"},
		ranges:   []classRange{{4930, 4930}},
	},
	{
		class:    ClassPassengerTransport,
		keywords: []string{"transporte de passageiro", "passageiros", "taxi"},
		ranges:   []classRange{{4912, 4912}, {4921, 4929}},
	},
	{
		class:    ClassRegulatedProfessional,
		keywords: []string{"advocat", "advogad", "contabil", "contador", "engenhari", "engenheiro", "arquitetura", "consultor"},
		ranges:   []classRange{{6201, 6209}, {6911, 6920}, {7111, 7119}},
	},
	{
		class:    ClassBrokerage,
		keywords: []string{"corretagem", "intermediacao", "agenciamento"},
		ranges:   []classRange{{4611, 4619}, {6621, 6622}, {6821, 6821}},
	},
	{
		class:    ClassAdministrationLeasing,
		keywords: []string{"locacao", "aluguel", "administracao", "cessao de"},
		ranges:   []classRange{{6810, 6810}, {6822, 6822}, {7711, 7739}},
	},
	{
		class:    ClassCreditOperations,
		keywords: []string{"credito", "financeira", "fomento mercantil", "factoring"},
		ranges:   []classRange{{6410, 6499}},
	},
}

// cnaeClass returns the 4-digit class of a CNAE subclass code, or -1.
func cnaeClass(code string) int {
	code = strings.TrimSpace(code)
	if len(code) < 4 || !isDigits(code) {
		return -1
	}
	n, err := strconv.Atoi(code[:4])
	if err != nil {
		return -1
	}
	return n
}

// Classify places an activity in its Lucro Real bucket. description may be
// empty, in which case only the CNAE class ranges apply.
func (c *Calculator) Classify(code, description string, rba float64) ActivityClass {
	class := cnaeClass(code)
	folded := Fold(description)
	for _, r := range realRules {
		if r.matches(class, folded) {
			return r.class
		}
	}
	if rba <= c.ref.rates.GeneralServicesLimit {
		return ClassGeneralServicesLow
	}
	return ClassGeneralServicesHigh
}

type RealInput struct {
	CNAE        string
	CompanyType CompanyType
	RBA         float64
	NetProfit   float64
	ISSRate     float64
	Credits     float64
}

type RealResult struct {
	ActivityClass   ActivityClass `json:"tipo_atividade"`
	PresumptionIRPJ float64       `json:"presuncao_irpj"`
	PresumptionCSLL float64       `json:"presuncao_csll"`
	BaseIRPJ        float64       `json:"base_irpj"`
	BaseCSLL        float64       `json:"base_csll"`
	IRPJ            float64       `json:"irpj"`
	IRPJSurtax      float64       `json:"irpj_adicional"`
	CSLL            float64       `json:"csll"`
	PIS             float64       `json:"pis"`
	COFINS          float64       `json:"cofins"`
	Credits         float64       `json:"creditos_pis_cofins"`
	PISCOFINSNet    float64       `json:"pis_cofins_liquido"`
	ISS             float64       `json:"iss"`
	Total           float64       `json:"imposto_total"`
	EffectiveRate   float64       `json:"aliquota_efetiva"`
}

// Real estimates Lucro Real. The activity presumption caps the declared
// profit separately for IRPJ and CSLL.
func (c *Calculator) Real(in RealInput) (RealResult, error) {
	if in.RBA == 0 {
		return RealResult{}, ErrZeroRevenue
	}
	var description string
	if act, ok := c.ref.Classification(in.CNAE); ok {
		description = act.Description
	}
	class := c.Classify(in.CNAE, description, in.RBA)
	p, err := c.ref.RealPresumption(class)
	if err != nil {
		return RealResult{}, err
	}
	rates := c.ref.rates

	res := RealResult{
		ActivityClass:   class,
		PresumptionIRPJ: p.IRPJ * 100,
		PresumptionCSLL: p.CSLL * 100,
		Credits:         in.Credits,
	}
	res.BaseIRPJ = math.Min(in.NetProfit, in.RBA*p.IRPJ)
	res.BaseCSLL = math.Min(in.NetProfit, in.RBA*p.CSLL)
	res.IRPJ = res.BaseIRPJ * rates.IRPJ
	res.IRPJSurtax = math.Max(0, res.BaseIRPJ-rates.IRPJSurtaxAnnualLimit) * rates.IRPJSurtax
	res.CSLL = res.BaseCSLL * rates.CSLL
	res.PIS = in.RBA * rates.PISNonCumulative
	res.COFINS = in.RBA * rates.COFINSNonCumulative
	res.PISCOFINSNet = math.Max(0, res.PIS+res.COFINS-in.Credits)

	if in.CompanyType == CompanyTypeService {
		res.ISS = in.RBA * in.ISSRate
	}

	res.Total = res.IRPJ + res.IRPJSurtax + res.CSLL + res.PISCOFINSNet + res.ISS
	res.EffectiveRate = res.Total / in.RBA * 100
	return res, nil
}

// MandatoryLucroReal reports whether annual revenue forces Lucro Real.
func (c *Calculator) MandatoryLucroReal(rba float64) bool {
	return rba > c.ref.rates.LucroRealMandatoryLimit
}

// PotentialCredits estimates non-cumulative PIS/COFINS credits on
// creditable expenses.
func (c *Calculator) PotentialCredits(expenses float64) float64 {
	if expenses <= 0 {
		return 0
	}
	return expenses * (c.ref.rates.PISNonCumulative + c.ref.rates.COFINSNonCumulative)
}
