package cnpj

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	assert.Equal(t, "11222333000181", Sanitize("11.222.333/0001-81"))
	assert.Equal(t, "", Sanitize("abc"))
}

func TestValid(t *testing.T) {
	cases := map[string]bool{
		"11222333000181": true,
		"11444777000161": true,
		"11222333000182": false,
		"11111111111111": false,
		"1122233300018":  false,
		"1122233300018a": false,
	}
	for in, want := range cases {
		assert.Equal(t, want, Valid(in), in)
	}
}
