package taxcalc

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v2"
)

//go:embed data/reference.yaml
var embeddedReference []byte

// contiguityTolerance is the widest gap allowed between one bracket's upper
// bound and the next one's lower bound (tables are published in cents).
const contiguityTolerance = 0.01 + 1e-9

// Bracket is one row of a Simples Nacional progressive table.
type Bracket struct {
	Annex       Annex   `json:"anexo"`
	Label       string  `json:"faixa"`
	From        float64 `json:"receita_de"`
	To          float64 `json:"receita_ate"`
	NominalRate float64 `json:"aliquota_nominal"`
	Deduction   float64 `json:"valor_deduzir"`
}

// Activity is the CNAE classification entry.
type Activity struct {
	Code        string      `json:"cnae"`
	Description string      `json:"descricao"`
	Annex       Annex       `json:"anexo"`
	FatorR      bool        `json:"fator_r"`
	Type        CompanyType `json:"tipo"`
	NominalRate float64     `json:"aliquota"`

	folded string
}

// Presumption holds Lucro Real IRPJ/CSLL presumption fractions.
type Presumption struct {
	IRPJ float64 `json:"irpj"`
	CSLL float64 `json:"csll"`
}

// Rates are the statutory rates and limits. Rates are fractions.
type Rates struct {
	IRPJ                     float64
	IRPJSurtax               float64
	IRPJSurtaxAnnualLimit    float64
	IRPJSurtaxQuarterlyLimit float64
	CSLL                     float64
	PISCumulative            float64
	COFINSCumulative         float64
	PISNonCumulative         float64
	COFINSNonCumulative      float64
	FatorRThreshold          float64
	GeneralServicesLimit     float64
	LucroRealMandatoryLimit  float64
	ISSMin, ISSMax           float64
	ICMSMin, ICMSMax         float64
}

// Reference is the immutable reference data every calculator reads from.
// It is safe for concurrent use once built.
type Reference struct {
	version    string
	rates      Rates
	brackets   map[Annex][]Bracket
	activities map[string]Activity
	ordered    []Activity
	presumido  map[CompanyType]float64
	real       map[ActivityClass]Presumption
}

type rawReference struct {
	Version string `yaml:"version"`
	Rates   struct {
		IRPJ                     float64 `yaml:"irpj"`
		IRPJSurtax               float64 `yaml:"irpj_surtax"`
		IRPJSurtaxAnnualLimit    float64 `yaml:"irpj_surtax_annual_limit"`
		IRPJSurtaxQuarterlyLimit float64 `yaml:"irpj_surtax_quarterly_limit"`
		CSLL                     float64 `yaml:"csll"`
		PISCumulative            float64 `yaml:"pis_cumulative"`
		COFINSCumulative         float64 `yaml:"cofins_cumulative"`
		PISNonCumulative         float64 `yaml:"pis_non_cumulative"`
		COFINSNonCumulative      float64 `yaml:"cofins_non_cumulative"`
		FatorRThreshold          float64 `yaml:"fator_r_threshold"`
		GeneralServicesLimit     float64 `yaml:"general_services_limit"`
		LucroRealMandatoryLimit  float64 `yaml:"lucro_real_mandatory_limit"`
		ISSMin                   float64 `yaml:"iss_min"`
		ISSMax                   float64 `yaml:"iss_max"`
		ICMSMin                  float64 `yaml:"icms_min"`
		ICMSMax                  float64 `yaml:"icms_max"`
	} `yaml:"rates"`
	Presumido map[string]float64 `yaml:"presumido_presumption"`
	Real      map[string]struct {
		IRPJ float64 `yaml:"irpj"`
		CSLL float64 `yaml:"csll"`
	} `yaml:"real_presumption"`
	Brackets []struct {
		Annex       string  `yaml:"annex"`
		Label       string  `yaml:"label"`
		From        float64 `yaml:"from"`
		To          float64 `yaml:"to"`
		NominalRate float64 `yaml:"nominal_rate"`
		Deduction   float64 `yaml:"deduction"`
	} `yaml:"brackets"`
	Activities []struct {
		Code        string  `yaml:"code"`
		Description string  `yaml:"description"`
		Annex       string  `yaml:"annex"`
		FatorR      bool    `yaml:"fator_r"`
		Type        string  `yaml:"type"`
		NominalRate float64 `yaml:"nominal_rate"`
	} `yaml:"activities"`
}

// DefaultReference loads the tables compiled into the binary.
func DefaultReference() (*Reference, error) {
	return LoadReference(bytes.NewReader(embeddedReference))
}

// LoadReferenceFile loads reference data from a YAML file on disk.
func LoadReferenceFile(path string) (*Reference, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open reference data: %w", err)
	}
	defer f.Close()
	return LoadReference(f)
}

// LoadReference parses and validates YAML reference data. Any gap, overlap,
// missing family or missing rate is an error; nothing is defaulted.
func LoadReference(r io.Reader) (*Reference, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference data: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidReference)
	}

	var raw rawReference
	if err := yaml.UnmarshalStrict(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReference, err)
	}

	ref := &Reference{
		version:    raw.Version,
		brackets:   make(map[Annex][]Bracket, len(Annexes)),
		activities: make(map[string]Activity, len(raw.Activities)),
		presumido:  make(map[CompanyType]float64, 3),
		real:       make(map[ActivityClass]Presumption, len(ActivityClasses)),
	}

	rr := raw.Rates
	ref.rates = Rates{
		IRPJ:                     rr.IRPJ,
		IRPJSurtax:               rr.IRPJSurtax,
		IRPJSurtaxAnnualLimit:    rr.IRPJSurtaxAnnualLimit,
		IRPJSurtaxQuarterlyLimit: rr.IRPJSurtaxQuarterlyLimit,
		CSLL:                     rr.CSLL,
		PISCumulative:            rr.PISCumulative,
		COFINSCumulative:         rr.COFINSCumulative,
		PISNonCumulative:         rr.PISNonCumulative,
		COFINSNonCumulative:      rr.COFINSNonCumulative,
		FatorRThreshold:          rr.FatorRThreshold,
		GeneralServicesLimit:     rr.GeneralServicesLimit,
		LucroRealMandatoryLimit:  rr.LucroRealMandatoryLimit,
		ISSMin:                   rr.ISSMin,
		ISSMax:                   rr.ISSMax,
		ICMSMin:                  rr.ICMSMin,
		ICMSMax:                  rr.ICMSMax,
	}
	if err := ref.rates.validate(); err != nil {
		return nil, err
	}

	for k, v := range raw.Presumido {
		t, err := ParseCompanyType(k)
		if err != nil {
			return nil, fmt.Errorf("%w: presumido_presumption: %v", ErrInvalidReference, err)
		}
		if v <= 0 || v > 1 {
			return nil, fmt.Errorf("%w: presumido_presumption %s out of (0,1]", ErrInvalidReference, k)
		}
		ref.presumido[t] = v
	}
	for _, t := range []CompanyType{CompanyTypeTrade, CompanyTypeService, CompanyTypeIndustry} {
		if _, ok := ref.presumido[t]; !ok {
			return nil, fmt.Errorf("%w: missing presumido_presumption for %s", ErrInvalidReference, t)
		}
	}

	for k, v := range raw.Real {
		c, err := ParseActivityClass(k)
		if err != nil {
			return nil, fmt.Errorf("%w: real_presumption: %v", ErrInvalidReference, err)
		}
		if v.IRPJ <= 0 || v.IRPJ > 1 || v.CSLL <= 0 || v.CSLL > 1 {
			return nil, fmt.Errorf("%w: real_presumption %s out of (0,1]", ErrInvalidReference, k)
		}
		ref.real[c] = Presumption{IRPJ: v.IRPJ, CSLL: v.CSLL}
	}
	for _, c := range ActivityClasses {
		if _, ok := ref.real[c]; !ok {
			return nil, fmt.Errorf("%w: missing real_presumption for %s", ErrInvalidReference, c)
		}
	}

	for i, b := range raw.Brackets {
		a, err := ParseAnnex(b.Annex)
		if err != nil {
			return nil, fmt.Errorf("%w: bracket %d: %v", ErrInvalidReference, i, err)
		}
		if b.To < b.From || b.NominalRate <= 0 || b.Deduction < 0 {
			return nil, fmt.Errorf("%w: bracket %d of %s is malformed", ErrInvalidReference, i, a)
		}
		ref.brackets[a] = append(ref.brackets[a], Bracket{
			Annex:       a,
			Label:       b.Label,
			From:        b.From,
			To:          b.To,
			NominalRate: b.NominalRate,
			Deduction:   b.Deduction,
		})
	}
	for _, a := range Annexes {
		if err := checkContiguous(a, ref.brackets[a]); err != nil {
			return nil, err
		}
	}

	for _, a := range raw.Activities {
		if len(a.Code) != 7 || !isDigits(a.Code) {
			return nil, fmt.Errorf("%w: activity code %q is not 7 digits", ErrInvalidReference, a.Code)
		}
		if _, dup := ref.activities[a.Code]; dup {
			return nil, fmt.Errorf("%w: duplicate activity code %s", ErrInvalidReference, a.Code)
		}
		annex, err := ParseAnnex(a.Annex)
		if err != nil {
			return nil, fmt.Errorf("%w: activity %s: %v", ErrInvalidReference, a.Code, err)
		}
		typ, err := ParseCompanyType(a.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: activity %s: %v", ErrInvalidReference, a.Code, err)
		}
		act := Activity{
			Code:        a.Code,
			Description: a.Description,
			Annex:       annex,
			FatorR:      a.FatorR,
			Type:        typ,
			NominalRate: a.NominalRate,
			folded:      Fold(a.Description),
		}
		ref.activities[a.Code] = act
		ref.ordered = append(ref.ordered, act)
	}
	if len(ref.ordered) == 0 {
		return nil, fmt.Errorf("%w: no activities", ErrInvalidReference)
	}
	sort.Slice(ref.ordered, func(i, j int) bool { return ref.ordered[i].Code < ref.ordered[j].Code })

	return ref, nil
}

func (r Rates) validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"irpj", r.IRPJ},
		{"irpj_surtax", r.IRPJSurtax},
		{"irpj_surtax_annual_limit", r.IRPJSurtaxAnnualLimit},
		{"irpj_surtax_quarterly_limit", r.IRPJSurtaxQuarterlyLimit},
		{"csll", r.CSLL},
		{"pis_cumulative", r.PISCumulative},
		{"cofins_cumulative", r.COFINSCumulative},
		{"pis_non_cumulative", r.PISNonCumulative},
		{"cofins_non_cumulative", r.COFINSNonCumulative},
		{"fator_r_threshold", r.FatorRThreshold},
		{"general_services_limit", r.GeneralServicesLimit},
		{"lucro_real_mandatory_limit", r.LucroRealMandatoryLimit},
		{"iss_min", r.ISSMin},
		{"iss_max", r.ISSMax},
		{"icms_min", r.ICMSMin},
		{"icms_max", r.ICMSMax},
	}
	for _, f := range fields {
		if f.v <= 0 || math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: rate %s missing or not positive", ErrInvalidReference, f.name)
		}
	}
	if r.ISSMin > r.ISSMax || r.ICMSMin > r.ICMSMax {
		return fmt.Errorf("%w: inverted ISS/ICMS bounds", ErrInvalidReference)
	}
	return nil
}

func checkContiguous(a Annex, rows []Bracket) error {
	if len(rows) == 0 {
		return fmt.Errorf("%w: %s has no brackets", ErrInvalidReference, a)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].From < rows[j].From })
	if rows[0].From != 0 {
		return fmt.Errorf("%w: %s does not start at zero", ErrInvalidReference, a)
	}
	for i := 1; i < len(rows); i++ {
		gap := rows[i].From - rows[i-1].To
		if gap <= 0 {
			return fmt.Errorf("%w: %s brackets %q and %q overlap", ErrInvalidReference, a, rows[i-1].Label, rows[i].Label)
		}
		if gap > contiguityTolerance {
			return fmt.Errorf("%w: %s has a gap between %q and %q", ErrInvalidReference, a, rows[i-1].Label, rows[i].Label)
		}
	}
	return nil
}

func (r *Reference) Version() string { return r.version }

func (r *Reference) Rates() Rates { return r.rates }

// BracketsFor returns a copy of the family's table in ascending order.
func (r *Reference) BracketsFor(a Annex) ([]Bracket, error) {
	rows, ok := r.brackets[a]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAnnex, int(a))
	}
	out := make([]Bracket, len(rows))
	copy(out, rows)
	return out, nil
}

// Classification looks an activity up by its exact 7-digit code.
func (r *Reference) Classification(code string) (Activity, bool) {
	a, ok := r.activities[strings.TrimSpace(code)]
	return a, ok
}

// LookupBracket finds the bracket containing revenue. The first bracket covers
// [From, To]; every later one covers (previous To, To], which absorbs the
// cent gap the published tables leave between rows.
func (r *Reference) LookupBracket(revenue float64, a Annex) (Bracket, error) {
	if revenue < 0 || math.IsNaN(revenue) {
		return Bracket{}, invalid("rbt12", ">= 0", "revenue must not be negative")
	}
	rows, ok := r.brackets[a]
	if !ok {
		return Bracket{}, fmt.Errorf("%w: %d", ErrUnknownAnnex, int(a))
	}
	for i, b := range rows {
		if revenue > b.To {
			continue
		}
		if i == 0 && revenue < b.From {
			break
		}
		return b, nil
	}
	return Bracket{}, fmt.Errorf("%w: RBT12 of R$ %.2f does not fit any bracket of %s", ErrRevenueAboveCeiling, revenue, a)
}

// Ceiling is the upper bound of the family's last bracket.
func (r *Reference) Ceiling(a Annex) float64 {
	rows := r.brackets[a]
	if len(rows) == 0 {
		return 0
	}
	return rows[len(rows)-1].To
}

// SearchActivities matches codes by substring when term is numeric and
// otherwise matches descriptions ignoring case and accents. An empty term
// returns every activity. Results are ordered by code.
func (r *Reference) SearchActivities(term string) []Activity {
	term = strings.TrimSpace(term)
	if term == "" {
		out := make([]Activity, len(r.ordered))
		copy(out, r.ordered)
		return out
	}

	var out []Activity
	if isDigits(term) {
		for _, a := range r.ordered {
			if strings.Contains(a.Code, term) {
				out = append(out, a)
			}
		}
		return out
	}

	folded := Fold(term)
	for _, a := range r.ordered {
		if strings.Contains(a.folded, folded) || strings.Contains(a.Code, term) {
			out = append(out, a)
		}
	}
	return out
}

// PresumidoPresumption is the Lucro Presumido presumption fraction for a company type.
func (r *Reference) PresumidoPresumption(t CompanyType) (float64, error) {
	v, ok := r.presumido[t]
	if !ok {
		return 0, invalid("tipo_empresa", "comércio|serviço|indústria", "unknown company type %d", int(t))
	}
	return v, nil
}

// RealPresumption returns the presumption pair for a Lucro Real activity class.
func (r *Reference) RealPresumption(c ActivityClass) (Presumption, error) {
	v, ok := r.real[c]
	if !ok {
		return Presumption{}, fmt.Errorf("%w: no presumption for %s", ErrInvalidReference, c)
	}
	return v, nil
}
