package indicators

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPctChange(t *testing.T) {
	tests := []struct {
		name     string
		from, to float64
		expected float64
		isNaN    bool
	}{
		{name: "growth", from: 100, to: 121, expected: 0.21},
		{name: "drop", from: 100, to: 50, expected: -0.5},
		{name: "zero base", from: 0, to: 10, isNaN: true},
		{name: "zero to zero", from: 0, to: 0, isNaN: true},
		{name: "missing base", from: math.NaN(), to: 10, isNaN: true},
		{name: "missing target", from: 10, to: math.NaN(), isNaN: true},
		{name: "infinite target", from: 10, to: math.Inf(1), isNaN: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PctChange(tt.from, tt.to)
			if tt.isNaN {
				assert.True(t, math.IsNaN(got))
				return
			}
			assert.InDelta(t, tt.expected, got, 1e-12)
		})
	}
}

func TestPctChanges(t *testing.T) {
	got := PctChanges([]float64{100, 110, 0, 5})

	require.Len(t, got, 4)
	assert.True(t, math.IsNaN(got[0]))
	assert.InDelta(t, 0.1, got[1], 1e-12)
	assert.InDelta(t, -1.0, got[2], 1e-12)
	assert.True(t, math.IsNaN(got[3]))
}

func TestQuantile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}

	assert.Equal(t, 1.0, Quantile(sorted, 0))
	assert.Equal(t, 4.0, Quantile(sorted, 1))
	assert.InDelta(t, 2.5, Quantile(sorted, 0.5), 1e-12)
	assert.InDelta(t, 1.75, Quantile(sorted, 0.25), 1e-12)
	assert.InDelta(t, 3.97, Quantile(sorted, 0.99), 1e-12)
	assert.Equal(t, 7.0, Quantile([]float64{7}, 0.3))
}

func TestFinite(t *testing.T) {
	got := Finite([]float64{3, math.NaN(), 1, math.Inf(-1), 2})
	assert.Equal(t, []float64{1, 2, 3}, got)
}

func TestRollingMedian(t *testing.T) {
	values := []float64{5, 1, 3, math.NaN(), 2, 4, 6}

	got := RollingMedian(values, 3)

	require.Len(t, got, len(values))
	assert.True(t, math.IsNaN(got[0]))
	assert.True(t, math.IsNaN(got[1]))
	assert.Equal(t, 3.0, got[2])
	assert.True(t, math.IsNaN(got[3]))
	assert.True(t, math.IsNaN(got[4]))
	assert.True(t, math.IsNaN(got[5]))
	assert.Equal(t, 4.0, got[6])
	// input is untouched
	assert.Equal(t, 5.0, values[0])
}

func TestRollingStdConstantSegment(t *testing.T) {
	values := make([]float64, 10)
	for i := range values {
		values[i] = 100
	}

	got := RollingStd(values, 4)

	require.Len(t, got, len(values))
	for i := 0; i < 3; i++ {
		assert.True(t, math.IsNaN(got[i]), "position %d has no full window", i)
	}
	for i := 3; i < len(values); i++ {
		assert.InDelta(t, 0, got[i], 1e-9)
	}
}

func TestRollingStdShortSegment(t *testing.T) {
	got := RollingStd([]float64{1, 2, math.NaN(), 3}, 3)
	for _, v := range got {
		assert.True(t, math.IsNaN(v))
	}
}

func TestDecimalsToFloat64(t *testing.T) {
	got := DecimalsToFloat64([]decimal.Decimal{decimal.RequireFromString("1.5"), decimal.NewFromInt(2)})
	assert.Equal(t, []float64{1.5, 2}, got)
}
