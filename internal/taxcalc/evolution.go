package taxcalc

import "fmt"

var monthNames = [12]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// MonthName returns the Portuguese name of month m (1-12).
func MonthName(m int) string {
	if m < 1 || m > 12 {
		return ""
	}
	return monthNames[m-1]
}

type EvolutionInput struct {
	CNAE        string
	CompanyType CompanyType
	Payroll12m  float64
	Current     Monthly
	Prior       Monthly
}

// MonthResult is one month of the Simples Nacional projection. RBT12 is the
// window that precedes the month and sets the bracket; ClosingRBT12 is the
// window that ends with it.
type MonthResult struct {
	Month         int      `json:"mes_numero"`
	MonthName     string   `json:"mes"`
	Revenue       float64  `json:"faturamento_mes"`
	RBT12         float64  `json:"rbt12"`
	ClosingRBT12  float64  `json:"rbt12_fechamento"`
	Annex         Annex    `json:"anexo"`
	FatorR        *float64 `json:"fator_r,omitempty"`
	Bracket       string   `json:"faixa_faturamento"`
	NominalRate   float64  `json:"aliquota_nominal"`
	Deduction     float64  `json:"parcela_deduzir"`
	EffectiveRate float64  `json:"aliquota_efetiva"`
	Tax           float64  `json:"imposto_mes"`
}

// Evolution replays Simples Nacional for each month of the current year.
// It always returns twelve entries or an error.
func (c *Calculator) Evolution(in EvolutionInput) ([]MonthResult, error) {
	out := make([]MonthResult, 0, 12)
	for i := 0; i < 12; i++ {
		revenue := in.Current[i]
		rbt12 := TrailingRBT12(in.Current, in.Prior, i)

		s, err := c.Simples(SimplesInput{
			CNAE:        in.CNAE,
			CompanyType: in.CompanyType,
			Payroll12m:  in.Payroll12m,
			RBT12:       rbt12,
			RBA:         revenue * 12,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", monthNames[i], err)
		}

		out = append(out, MonthResult{
			Month:         i + 1,
			MonthName:     monthNames[i],
			Revenue:       revenue,
			RBT12:         rbt12,
			ClosingRBT12:  TrailingRBT12(in.Current, in.Prior, i+1),
			Annex:         s.Annex,
			FatorR:        s.FatorR,
			Bracket:       s.Bracket,
			NominalRate:   s.NominalRate,
			Deduction:     s.Deduction,
			EffectiveRate: s.EffectiveRate,
			Tax:           revenue * s.EffectiveRate / 100,
		})
	}
	return out, nil
}
