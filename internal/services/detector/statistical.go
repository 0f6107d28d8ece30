package detector

import (
	"math"

	"github.com/vadiminshakov/pndscan/pkg/indicators"
)

const (
	defaultQuantileHigh = 0.99
	defaultQuantileLow  = 0.0

	defaultPersistWindow = 30
	defaultPersistC      = 5.0

	defaultVolatilityWindow = 30
	defaultVolatilityC      = 6.0
)

// QuantileDetector flags values outside the [Low, High] quantile band fitted on the
// input itself. A Low of 0 maps to the sample minimum, so only the upper tail can flag.
type QuantileDetector struct {
	High float64
	Low  float64
}

// NewQuantileDetector returns the 99th-percentile detector.
func NewQuantileDetector() *QuantileDetector {
	return &QuantileDetector{High: defaultQuantileHigh, Low: defaultQuantileLow}
}

// FitDetect implements StatisticalDetector.
func (q *QuantileDetector) FitDetect(values []float64) []bool {
	flags := make([]bool, len(values))

	sorted := indicators.Finite(values)
	if len(sorted) == 0 {
		return flags
	}

	high := indicators.Quantile(sorted, q.High)
	low := indicators.Quantile(sorted, q.Low)
	for i, v := range values {
		if !indicators.IsFinite(v) {
			continue
		}
		flags[i] = v > high || v < low
	}

	return flags
}

// PersistDetector flags upward deviations of a value from the median of its trailing
// Window values, beyond Q3 + C*IQR of all such deviations.
type PersistDetector struct {
	Window int
	C      float64
}

// NewPersistDetector returns the 30-period, c=5 detector.
func NewPersistDetector() *PersistDetector {
	return &PersistDetector{Window: defaultPersistWindow, C: defaultPersistC}
}

// FitDetect implements StatisticalDetector.
func (p *PersistDetector) FitDetect(values []float64) []bool {
	medians := indicators.RollingMedian(values, p.Window)

	diffs := make([]float64, len(values))
	for t := range values {
		diffs[t] = math.NaN()
		if t == 0 {
			continue
		}
		// baseline is the window that ends right before t
		diffs[t] = values[t] - medians[t-1]
	}

	return upperIQR(diffs, p.C)
}

// VolatilityShiftDetector flags points where the standard deviation of the Window
// values after t exceeds that of the Window values ending at t by more than
// Q3 + C*IQR of all such shifts.
type VolatilityShiftDetector struct {
	Window int
	C      float64
}

// NewVolatilityShiftDetector returns the 30-period, c=6 detector.
func NewVolatilityShiftDetector() *VolatilityShiftDetector {
	return &VolatilityShiftDetector{Window: defaultVolatilityWindow, C: defaultVolatilityC}
}

// FitDetect implements StatisticalDetector.
func (v *VolatilityShiftDetector) FitDetect(values []float64) []bool {
	return upperIQR(v.shifts(values), v.C)
}

// shifts returns std(values[t+1 .. t+Window]) - std(values[t-Window+1 .. t]),
// NaN where either window is incomplete.
func (v *VolatilityShiftDetector) shifts(values []float64) []float64 {
	// std[j] covers the window ending at j
	std := indicators.RollingStd(values, v.Window)

	out := make([]float64, len(values))
	for t := range values {
		out[t] = math.NaN()
		if t < v.Window-1 || t+v.Window >= len(values) {
			continue
		}
		out[t] = std[t+v.Window] - std[t]
	}

	return out
}

// upperIQR flags finite values above Q3 + c*(Q3 - Q1), quartiles fitted on the finite values.
func upperIQR(values []float64, c float64) []bool {
	flags := make([]bool, len(values))

	sorted := indicators.Finite(values)
	if len(sorted) == 0 {
		return flags
	}

	q1 := indicators.Quantile(sorted, 0.25)
	q3 := indicators.Quantile(sorted, 0.75)
	high := q3 + c*(q3-q1)
	for i, d := range values {
		if !indicators.IsFinite(d) {
			continue
		}
		flags[i] = d > high
	}

	return flags
}
