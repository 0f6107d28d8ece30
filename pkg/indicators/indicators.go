// Package indicators provides the numeric building blocks of the anomaly detectors:
// guarded percent changes, quantiles and trailing rolling statistics.
package indicators

import (
	"math"
	"sort"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/volatility"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/pndscan/pkg/sequence"
)

// PctChange returns (to - from) / from, or NaN when the ratio is undefined
// (zero or missing base, missing target, infinite result).
func PctChange(from, to float64) float64 {
	if from == 0 || math.IsNaN(from) || math.IsNaN(to) {
		return math.NaN()
	}

	r := (to - from) / from
	if math.IsInf(r, 0) || math.IsNaN(r) {
		return math.NaN()
	}

	return r
}

// PctChanges returns the one-period percent change series; the first element is NaN.
func PctChanges(values []float64) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = PctChange(values[i-1], values[i])
	}
	return out
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Finite returns a sorted copy of the finite values.
func Finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if IsFinite(v) {
			out = append(out, v)
		}
	}
	sort.Float64s(out)
	return out
}

// Quantile returns the q-th quantile of sorted using linear interpolation between
// closest ranks. sorted must be ascending and non-empty.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}

	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// RollingMedian returns, at position j, the median of values[j-window+1 .. j].
// Positions without a complete window of finite values are NaN.
func RollingMedian(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	if window <= 0 {
		return out
	}

	buf := make([]float64, window)
	for _, seg := range sequence.Find(values, IsFinite) {
		for j := seg.Start + window - 1; j <= seg.End; j++ {
			copy(buf, values[j-window+1:j+1])
			sort.Float64s(buf)
			out[j] = Quantile(buf, 0.5)
		}
	}

	return out
}

// RollingStd returns, at position j, the standard deviation of values[j-window+1 .. j].
// Positions without a complete window of finite values are NaN.
func RollingStd(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	if window <= 1 {
		return out
	}

	// the moving std is computed per finite segment so a gap never leaks into later windows
	for _, seg := range sequence.Find(values, IsFinite) {
		if seg.Len() < window {
			continue
		}

		std := volatility.NewMovingStdWithPeriod[float64](window)
		inputChan := helper.SliceToChan(values[seg.Start : seg.End+1])
		stdFloat := helper.ChanToSlice(std.Compute(inputChan))

		// align on the segment end, skipping anything reported before a full window
		offset := seg.Len() - len(stdFloat)
		for k, v := range stdFloat {
			pos := seg.Start + offset + k
			if pos < seg.Start+window-1 || !IsFinite(v) {
				continue
			}
			out[pos] = v
		}
	}

	return out
}

// DecimalsToFloat64 converts a slice of decimal.Decimal to []float64.
func DecimalsToFloat64(decimals []decimal.Decimal) []float64 {
	result := make([]float64, len(decimals))
	for i, d := range decimals {
		result[i], _ = d.Float64()
	}
	return result
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
