package detector

import "github.com/vadiminshakov/pndscan/pkg/indicators"

const (
	dailyGrowthThreshold = 0.20
	totalGrowthThreshold = 0.80
	pumpWindow           = 3
)

// ThreeOver20 flags day i when each of the three day-over-day changes
// i->i+1, i+1->i+2 and i+2->i+3 exceeds 20%, then smears every hit over the
// three-day pump window.
func ThreeOver20(values []float64) []bool {
	raw := make([]bool, len(values))
	for i := 0; i+3 < len(values); i++ {
		raw[i] = indicators.PctChange(values[i], values[i+1]) > dailyGrowthThreshold &&
			indicators.PctChange(values[i+1], values[i+2]) > dailyGrowthThreshold &&
			indicators.PctChange(values[i+2], values[i+3]) > dailyGrowthThreshold
	}
	return Smear(raw, pumpWindow)
}

// EightyOver3 flags day i when the series shifted back by two positions grows more
// than 80% over three periods: (x[i+5] - x[i+2]) / x[i+2] > 0.8. Hits are smeared
// like ThreeOver20.
func EightyOver3(values []float64) []bool {
	raw := make([]bool, len(values))
	for i := 0; i+5 < len(values); i++ {
		raw[i] = indicators.PctChange(values[i+2], values[i+5]) > totalGrowthThreshold
	}
	return Smear(raw, pumpWindow)
}

// Smear returns a copy of flags where every true position i also sets i+1 .. i+width-1,
// clamped to the slice end. All hits are collected before any is propagated.
func Smear(flags []bool, width int) []bool {
	hits := make([]int, 0)
	for i, f := range flags {
		if f {
			hits = append(hits, i)
		}
	}

	out := make([]bool, len(flags))
	for _, i := range hits {
		for j := i; j < i+width && j < len(out); j++ {
			out[j] = true
		}
	}

	return out
}
