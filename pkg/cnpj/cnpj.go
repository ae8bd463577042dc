// Package cnpj normalizes and checks Brazilian company registration numbers.
package cnpj

import "unicode"

// Sanitize drops everything that is not a digit ("11.222.333/0001-81" -> "11222333000181").
func Sanitize(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			out = append(out, r)
		}
	}
	return string(out)
}

var (
	firstWeights  = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	secondWeights = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// Valid reports whether s is 14 sanitized digits, not all equal, with correct check digits.
func Valid(s string) bool {
	if len(s) != 14 {
		return false
	}
	allEq := true
	for i := 0; i < 14; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
		if s[i] != s[0] {
			allEq = false
		}
	}
	if allEq {
		return false
	}
	return checkDigit(s[:12], firstWeights) == int(s[12]-'0') &&
		checkDigit(s[:13], secondWeights) == int(s[13]-'0')
}

func checkDigit(digits string, weights []int) int {
	sum := 0
	for i, w := range weights {
		sum += int(digits[i]-'0') * w
	}
	if r := sum % 11; r >= 2 {
		return 11 - r
	}
	return 0
}
