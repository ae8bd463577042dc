package taxcalc

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCalc(t *testing.T) *Calculator {
	t.Helper()
	ref, err := DefaultReference()
	require.NoError(t, err)
	calc, err := NewCalculator(ref)
	require.NoError(t, err)
	return calc
}

func TestDefaultReferenceLoads(t *testing.T) {
	ref, err := DefaultReference()
	require.NoError(t, err)

	assert.NotEmpty(t, ref.Version())
	for _, a := range Annexes {
		rows, err := ref.BracketsFor(a)
		require.NoError(t, err)
		assert.Len(t, rows, 6, a.String())
		assert.Equal(t, 4_800_000.0, ref.Ceiling(a))
	}
	assert.Equal(t, 0.28, ref.Rates().FatorRThreshold)
}

func TestBracketsForReturnsCopy(t *testing.T) {
	ref, err := DefaultReference()
	require.NoError(t, err)

	rows, err := ref.BracketsFor(AnnexI)
	require.NoError(t, err)
	rows[0].NominalRate = 99

	again, err := ref.BracketsFor(AnnexI)
	require.NoError(t, err)
	assert.Equal(t, 4.0, again[0].NominalRate)

	_, err = ref.BracketsFor(Annex(9))
	assert.ErrorIs(t, err, ErrUnknownAnnex)
}

func TestLookupBracketPartitionsEveryFamily(t *testing.T) {
	ref, err := DefaultReference()
	require.NoError(t, err)

	for _, a := range Annexes {
		rows, err := ref.BracketsFor(a)
		require.NoError(t, err)

		var probes []float64
		for _, b := range rows {
			probes = append(probes, b.From, b.To, (b.From+b.To)/2, b.To+0.001, b.To+0.005)
		}
		for _, revenue := range probes {
			if revenue > ref.Ceiling(a) {
				continue
			}
			matches := 0
			for i, b := range rows {
				lowerOK := revenue >= b.From
				if i > 0 {
					lowerOK = revenue > rows[i-1].To
				}
				if lowerOK && revenue <= b.To {
					matches++
				}
			}
			assert.Equal(t, 1, matches, "%s revenue %.3f", a, revenue)

			b, err := ref.LookupBracket(revenue, a)
			require.NoError(t, err, "%s revenue %.3f", a, revenue)
			assert.True(t, revenue <= b.To)
		}
	}
}

func TestLookupBracketBoundaries(t *testing.T) {
	ref, err := DefaultReference()
	require.NoError(t, err)

	b, err := ref.LookupBracket(180000, AnnexI)
	require.NoError(t, err)
	assert.Equal(t, "1ª Faixa", b.Label)

	b, err = ref.LookupBracket(180000.005, AnnexI)
	require.NoError(t, err)
	assert.Equal(t, "2ª Faixa", b.Label)

	b, err = ref.LookupBracket(4_800_000, AnnexV)
	require.NoError(t, err)
	assert.Equal(t, "6ª Faixa", b.Label)

	_, err = ref.LookupBracket(4_800_000.01, AnnexIII)
	assert.ErrorIs(t, err, ErrRevenueAboveCeiling)

	_, err = ref.LookupBracket(-1, AnnexI)
	var vErr *ValidationError
	assert.True(t, errors.As(err, &vErr))
}

func TestClassificationExactMatch(t *testing.T) {
	ref, err := DefaultReference()
	require.NoError(t, err)

	act, ok := ref.Classification("6201501")
	require.True(t, ok)
	assert.Equal(t, AnnexV, act.Annex)
	assert.True(t, act.FatorR)
	assert.Equal(t, CompanyTypeService, act.Type)

	_, ok = ref.Classification("620150")
	assert.False(t, ok)
	_, ok = ref.Classification("9999999")
	assert.False(t, ok)
}

func TestSearchActivities(t *testing.T) {
	ref, err := DefaultReference()
	require.NoError(t, err)

	all := ref.SearchActivities("")
	assert.NotEmpty(t, all)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Code, all[i].Code)
	}

	byCode := ref.SearchActivities("4711")
	require.Len(t, byCode, 1)
	assert.Equal(t, "4711302", byCode[0].Code)

	accented := ref.SearchActivities("COMBUSTÍVEIS")
	plain := ref.SearchActivities("combustiveis")
	require.NotEmpty(t, plain)
	assert.Equal(t, plain, accented)
	for _, a := range plain {
		assert.Contains(t, Fold(a.Description), "combustiveis")
	}

	assert.Empty(t, ref.SearchActivities("zzz nada"))
}

func TestLoadReferenceRejectsBadData(t *testing.T) {
	valid := string(embeddedReference)

	cases := []struct {
		name string
		doc  string
	}{
		{"empty", "   \n"},
		{"malformed", "rates: [unclosed"},
		{"unknown field", valid + "\nextra: 1\n"},
		{"missing family", strings.ReplaceAll(valid, "annex: V,", "annex: IV,")},
		{"gap between brackets", strings.Replace(valid, "from: 180000.01, to: 360000, nominal_rate: 7.3", "from: 190000, to: 360000, nominal_rate: 7.3", 1)},
		{"overlap", strings.Replace(valid, "from: 180000.01, to: 360000, nominal_rate: 7.3", "from: 170000, to: 360000, nominal_rate: 7.3", 1)},
		{"missing rate", strings.Replace(valid, "csll: 0.09", "csll: 0", 1)},
		{"bad activity code", strings.Replace(valid, `code: "4511101"`, `code: "45111"`, 1)},
		{"duplicate activity", strings.Replace(valid, `code: "4530703"`, `code: "4511101"`, 1)},
		{"missing real class", strings.Replace(valid, "  OPERACOES_CREDITO: {irpj: 0.384, csll: 0.384}\n", "", 1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadReference(strings.NewReader(tc.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidReference)
		})
	}
}

func TestFold(t *testing.T) {
	assert.Equal(t, "comercio", Fold("  Comércio "))
	assert.Equal(t, "liquefeito", Fold("liqüefeito"))
	assert.Equal(t, "servico", Fold("SERVIÇO"))
}
