package slug

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	cases := map[string]string{
		"Reforma Tributária 2026":           "reforma-tributaria-2026",
		"  Simples Nacional: o que muda?  ": "simples-nacional-o-que-muda",
		"Lucro Presumido & Lucro Real":      "lucro-presumido-lucro-real",
		"ÇÃO--ção":                          "cao-cao",
		"!!!":                               "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Make(in), in)
	}
}

func TestMakeIsBounded(t *testing.T) {
	got := Make(strings.Repeat("imposto ", 100))
	assert.LessOrEqual(t, len(got), maxLen)
	assert.False(t, strings.HasSuffix(got, "-"))
}
