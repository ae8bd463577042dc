package taxcalc

import (
	"fmt"
	"strings"
)

// Annex is one of the five Simples Nacional bracket families.
type Annex int

const (
	AnnexI Annex = iota + 1
	AnnexII
	AnnexIII
	AnnexIV
	AnnexV
)

// Annexes lists every family in table order.
var Annexes = []Annex{AnnexI, AnnexII, AnnexIII, AnnexIV, AnnexV}

// Roman returns the bare numeral ("III").
func (a Annex) Roman() string {
	switch a {
	case AnnexI:
		return "I"
	case AnnexII:
		return "II"
	case AnnexIII:
		return "III"
	case AnnexIV:
		return "IV"
	case AnnexV:
		return "V"
	}
	return ""
}

func (a Annex) String() string {
	if r := a.Roman(); r != "" {
		return "Anexo " + r
	}
	return fmt.Sprintf("Annex(%d)", int(a))
}

func (a Annex) Valid() bool { return a.Roman() != "" }

// ParseAnnex accepts "III" as well as "Anexo III".
func ParseAnnex(s string) (Annex, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	v = strings.TrimSpace(strings.TrimPrefix(v, "ANEXO"))
	for _, a := range Annexes {
		if a.Roman() == v {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAnnex, s)
}

func (a Annex) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAnnex, int(a))
	}
	return []byte(a.String()), nil
}

func (a *Annex) UnmarshalText(b []byte) error {
	v, err := ParseAnnex(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// CompanyType is the coarse activity type declared by the company.
type CompanyType int

const (
	CompanyTypeTrade CompanyType = iota + 1
	CompanyTypeService
	CompanyTypeIndustry
)

func (t CompanyType) String() string {
	switch t {
	case CompanyTypeTrade:
		return "comércio"
	case CompanyTypeService:
		return "serviço"
	case CompanyTypeIndustry:
		return "indústria"
	}
	return fmt.Sprintf("CompanyType(%d)", int(t))
}

func (t CompanyType) Valid() bool {
	switch t {
	case CompanyTypeTrade, CompanyTypeService, CompanyTypeIndustry:
		return true
	}
	return false
}

// ParseCompanyType ignores case and accents, so "Comercio" and "comércio" are equal.
func ParseCompanyType(s string) (CompanyType, error) {
	switch Fold(s) {
	case "comercio":
		return CompanyTypeTrade, nil
	case "servico":
		return CompanyTypeService, nil
	case "industria":
		return CompanyTypeIndustry, nil
	}
	return 0, fmt.Errorf("unknown company type %q", s)
}

func (t CompanyType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid company type %d", int(t))
	}
	return []byte(t.String()), nil
}

func (t *CompanyType) UnmarshalText(b []byte) error {
	v, err := ParseCompanyType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Regime is a Brazilian corporate taxation regime.
type Regime int

const (
	RegimeSimplesNacional Regime = iota + 1
	RegimeLucroPresumido
	RegimeLucroReal
)

func (r Regime) String() string {
	switch r {
	case RegimeSimplesNacional:
		return "Simples Nacional"
	case RegimeLucroPresumido:
		return "Lucro Presumido"
	case RegimeLucroReal:
		return "Lucro Real"
	}
	return fmt.Sprintf("Regime(%d)", int(r))
}

func ParseRegime(s string) (Regime, error) {
	switch Fold(s) {
	case "simples nacional":
		return RegimeSimplesNacional, nil
	case "lucro presumido":
		return RegimeLucroPresumido, nil
	case "lucro real":
		return RegimeLucroReal, nil
	}
	return 0, fmt.Errorf("unknown regime %q", s)
}

func (r Regime) MarshalText() ([]byte, error) {
	switch r {
	case RegimeSimplesNacional, RegimeLucroPresumido, RegimeLucroReal:
		return []byte(r.String()), nil
	}
	return nil, fmt.Errorf("invalid regime %d", int(r))
}

func (r *Regime) UnmarshalText(b []byte) error {
	v, err := ParseRegime(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// ActivityClass is the Lucro Real activity bucket that fixes the IRPJ/CSLL
// presumption percentages.
type ActivityClass int

const (
	ClassFuel ActivityClass = iota + 1
	ClassTradeIndustry
	ClassRealEstate
	ClassHospital
	ClassCargoTransport
	ClassPassengerTransport
	ClassRegulatedProfessional
	ClassBrokerage
	ClassAdministrationLeasing
	ClassCreditOperations
	ClassGeneralServicesLow
	ClassGeneralServicesHigh
)

// ActivityClasses lists every bucket, in cascade order.
var ActivityClasses = []ActivityClass{
	ClassFuel,
	ClassTradeIndustry,
	ClassRealEstate,
	ClassHospital,
	ClassCargoTransport,
	ClassPassengerTransport,
	ClassRegulatedProfessional,
	ClassBrokerage,
	ClassAdministrationLeasing,
	ClassCreditOperations,
	ClassGeneralServicesLow,
	ClassGeneralServicesHigh,
}

// Key is the identifier used in reference data and API payloads.
func (c ActivityClass) Key() string {
	switch c {
	case ClassFuel:
		return "COMBUSTIVEIS"
	case ClassTradeIndustry:
		return "COMERCIO_INDUSTRIA"
	case ClassRealEstate:
		return "IMOBILIARIAS"
	case ClassHospital:
		return "HOSPITALARES"
	case ClassCargoTransport:
		return "TRANSPORTE_CARGAS"
	case ClassPassengerTransport:
		return "TRANSPORTE_PASSAGEIROS"
	case ClassRegulatedProfessional:
		return "SERVICOS_PROFISSIONAIS"
	case ClassBrokerage:
		return "INTERMEDIACAO"
	case ClassAdministrationLeasing:
		return "ADMINISTRACAO_LOCACAO"
	case ClassCreditOperations:
		return "OPERACOES_CREDITO"
	case ClassGeneralServicesLow:
		return "SERVICOS_GERAL_BAIXO"
	case ClassGeneralServicesHigh:
		return "SERVICOS_GERAL_ALTO"
	}
	return ""
}

func (c ActivityClass) String() string {
	if k := c.Key(); k != "" {
		return k
	}
	return fmt.Sprintf("ActivityClass(%d)", int(c))
}

func ParseActivityClass(s string) (ActivityClass, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	for _, c := range ActivityClasses {
		if c.Key() == v {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown activity class %q", s)
}

func (c ActivityClass) MarshalText() ([]byte, error) {
	if c.Key() == "" {
		return nil, fmt.Errorf("invalid activity class %d", int(c))
	}
	return []byte(c.Key()), nil
}

func (c *ActivityClass) UnmarshalText(b []byte) error {
	v, err := ParseActivityClass(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
