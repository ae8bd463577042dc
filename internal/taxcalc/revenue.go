package taxcalc

// Monthly holds one calendar year of revenue, index 0 = January.
type Monthly [12]float64

func (m Monthly) Sum() float64 {
	var s float64
	for _, v := range m {
		s += v
	}
	return s
}

// Revenue is the aggregate view of the 24-month history.
type Revenue struct {
	RBA   float64 `json:"rba"`
	RBAA  float64 `json:"rbaa"`
	RBT12 float64 `json:"rbt12"`
}

// Aggregate sums the current year (RBA), the prior year (RBAA) and the last
// twelve values of prior ++ current (RBT12).
func Aggregate(current, prior Monthly) Revenue {
	series := make([]float64, 0, 24)
	series = append(series, prior[:]...)
	series = append(series, current[:]...)

	var rbt12 float64
	for _, v := range series[len(series)-12:] {
		rbt12 += v
	}
	return Revenue{
		RBA:   current.Sum(),
		RBAA:  prior.Sum(),
		RBT12: rbt12,
	}
}

// TrailingRBT12 returns the twelve-month revenue that precedes month i
// (0 = January): current[0:i] plus prior[i:12]. i = 12 gives the window
// closing with December, which is Aggregate's RBT12.
func TrailingRBT12(current, prior Monthly, i int) float64 {
	if i < 0 {
		i = 0
	}
	if i > 12 {
		i = 12
	}
	var s float64
	for _, v := range current[:i] {
		s += v
	}
	for _, v := range prior[i:] {
		s += v
	}
	return s
}
