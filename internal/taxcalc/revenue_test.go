package taxcalc

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func randomMonthly(r *rand.Rand) Monthly {
	var m Monthly
	for i := range m {
		m[i] = float64(r.Intn(5_000_000)) / 100
	}
	return m
}

func TestAggregateMatchesConcatenatedSeries(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for n := 0; n < 200; n++ {
		current, prior := randomMonthly(r), randomMonthly(r)

		series := append(append([]float64{}, prior[:]...), current[:]...)
		var want float64
		for _, v := range series[len(series)-12:] {
			want += v
		}

		got := Aggregate(current, prior)
		assert.Equal(t, want, got.RBT12)
		assert.Equal(t, current.Sum(), got.RBA)
		assert.Equal(t, prior.Sum(), got.RBAA)
	}
}

func TestAggregateZeroes(t *testing.T) {
	assert.Equal(t, Revenue{}, Aggregate(Monthly{}, Monthly{}))
}

func TestTrailingRBT12Window(t *testing.T) {
	var current, prior Monthly
	for i := 0; i < 12; i++ {
		current[i] = float64(100 + i)
		prior[i] = float64(i + 1)
	}

	assert.Equal(t, prior.Sum(), TrailingRBT12(current, prior, 0))
	// February: January of this year plus February..December of last year.
	assert.Equal(t, current[0]+prior.Sum()-prior[0], TrailingRBT12(current, prior, 1))
	assert.Equal(t, Aggregate(current, prior).RBT12, TrailingRBT12(current, prior, 12))

	assert.Equal(t, TrailingRBT12(current, prior, 0), TrailingRBT12(current, prior, -3))
	assert.Equal(t, TrailingRBT12(current, prior, 12), TrailingRBT12(current, prior, 20))
}
