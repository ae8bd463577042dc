package taxcalc

import (
	"errors"
	"fmt"
)

// Calculator runs every regime calculation against one Reference. It holds no
// mutable state and can be shared across goroutines.
type Calculator struct {
	ref *Reference
}

func NewCalculator(ref *Reference) (*Calculator, error) {
	if ref == nil {
		return nil, errors.New("taxcalc: nil reference")
	}
	return &Calculator{ref: ref}, nil
}

func (c *Calculator) Reference() *Reference { return c.ref }

type SimplesInput struct {
	CNAE        string
	CompanyType CompanyType
	Payroll12m  float64
	RBT12       float64
	RBA         float64
}

type SimplesResult struct {
	Annex         Annex    `json:"anexo"`
	FatorR        *float64 `json:"fator_r,omitempty"`
	Bracket       string   `json:"faixa_faturamento"`
	NominalRate   float64  `json:"aliquota_nominal"`
	Deduction     float64  `json:"parcela_deduzir"`
	EffectiveRate float64  `json:"aliquota_efetiva"`
	Total         float64  `json:"imposto_total"`
}

// FatorR is payroll over RBT12, defined as zero when RBT12 is zero.
func FatorR(payroll12m, rbt12 float64) float64 {
	if rbt12 == 0 {
		return 0
	}
	return payroll12m / rbt12
}

func defaultAnnex(t CompanyType) (Annex, error) {
	switch t {
	case CompanyTypeTrade:
		return AnnexI, nil
	case CompanyTypeIndustry:
		return AnnexII, nil
	case CompanyTypeService:
		return AnnexIII, nil
	}
	return 0, invalid("tipo_empresa", "comércio|serviço|indústria", "unknown company type %d", int(t))
}

// ResolveAnnex picks the bracket family for an activity. Known codes use the
// table; unknown codes fall back to the declared type. Service companies are
// then routed by Fator R to Anexo III or V.
func (c *Calculator) ResolveAnnex(cnae string, declared CompanyType, payroll12m, rbt12 float64) (Annex, *float64, error) {
	typ := declared
	var annex Annex
	if act, ok := c.ref.Classification(cnae); ok {
		annex = act.Annex
		typ = act.Type
	} else {
		a, err := defaultAnnex(declared)
		if err != nil {
			return 0, nil, err
		}
		annex = a
	}

	if typ != CompanyTypeService {
		return annex, nil, nil
	}
	fr := FatorR(payroll12m, rbt12)
	if fr >= c.ref.rates.FatorRThreshold {
		return AnnexIII, &fr, nil
	}
	return AnnexV, &fr, nil
}

// Simples computes the annual Simples Nacional DAS estimate.
func (c *Calculator) Simples(in SimplesInput) (SimplesResult, error) {
	annex, fr, err := c.ResolveAnnex(in.CNAE, in.CompanyType, in.Payroll12m, in.RBT12)
	if err != nil {
		return SimplesResult{}, err
	}

	b, err := c.ref.LookupBracket(in.RBT12, annex)
	if err != nil {
		return SimplesResult{}, fmt.Errorf("simples nacional: %w", err)
	}

	effective := EffectiveRate(in.RBT12, b)
	return SimplesResult{
		Annex:         annex,
		FatorR:        fr,
		Bracket:       b.Label,
		NominalRate:   b.NominalRate,
		Deduction:     b.Deduction,
		EffectiveRate: effective * 100,
		Total:         in.RBA * effective,
	}, nil
}

// EffectiveRate is ((RBT12 x nominal) - deduction) / RBT12 as a fraction.
// With no trailing revenue it is the nominal rate, the formula's limit in the
// first bracket.
func EffectiveRate(rbt12 float64, b Bracket) float64 {
	nominal := b.NominalRate / 100
	if rbt12 == 0 {
		return nominal
	}
	return (rbt12*nominal - b.Deduction) / rbt12
}
