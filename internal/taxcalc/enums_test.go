package taxcalc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnnex(t *testing.T) {
	for _, s := range []string{"III", "Anexo III", " anexo iii "} {
		a, err := ParseAnnex(s)
		require.NoError(t, err, s)
		assert.Equal(t, AnnexIII, a)
	}
	_, err := ParseAnnex("VI")
	assert.ErrorIs(t, err, ErrUnknownAnnex)
}

func TestParseCompanyType(t *testing.T) {
	for s, want := range map[string]CompanyType{
		"comércio":  CompanyTypeTrade,
		"Comercio":  CompanyTypeTrade,
		"SERVIÇO":   CompanyTypeService,
		"industria": CompanyTypeIndustry,
	} {
		got, err := ParseCompanyType(s)
		require.NoError(t, err, s)
		assert.Equal(t, want, got, s)
	}
	_, err := ParseCompanyType("agro")
	assert.Error(t, err)
}

func TestEnumsMarshalAsLabels(t *testing.T) {
	b, err := json.Marshal(struct {
		A Annex         `json:"a"`
		T CompanyType   `json:"t"`
		R Regime        `json:"r"`
		C ActivityClass `json:"c"`
	}{AnnexV, CompanyTypeService, RegimeLucroPresumido, ClassHospital})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"Anexo V","t":"serviço","r":"Lucro Presumido","c":"HOSPITALARES"}`, string(b))

	var r Regime
	require.NoError(t, r.UnmarshalText([]byte("lucro real")))
	assert.Equal(t, RegimeLucroReal, r)

	_, err = json.Marshal(Annex(0))
	assert.Error(t, err)
}
