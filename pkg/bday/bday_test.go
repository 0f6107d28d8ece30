package bday

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAdd(t *testing.T) {
	// 2024-01-06 is a Saturday.
	tests := []struct {
		name     string
		from     time.Time
		n        int
		expected time.Time
	}{
		{"zero on business day", day(2024, 1, 5), 0, day(2024, 1, 5)},
		{"zero on saturday rolls forward", day(2024, 1, 6), 0, day(2024, 1, 8)},
		{"plus one on friday", day(2024, 1, 5), 1, day(2024, 1, 8)},
		{"plus one on saturday", day(2024, 1, 6), 1, day(2024, 1, 8)},
		{"plus two on sunday", day(2024, 1, 7), 2, day(2024, 1, 9)},
		{"minus one on saturday", day(2024, 1, 6), -1, day(2024, 1, 5)},
		{"minus one on monday", day(2024, 1, 8), -1, day(2024, 1, 5)},
		{"minus ten", day(2024, 1, 11), -10, day(2023, 12, 28)},
		{"plus five", day(2024, 1, 4), 5, day(2024, 1, 11)},
		{"minus seven", day(2024, 1, 4), -7, day(2023, 12, 26)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Add(tt.from, tt.n))
		})
	}
}

func TestAddDropsTimeOfDay(t *testing.T) {
	ts := time.Date(2024, 1, 5, 18, 45, 0, 0, time.FixedZone("MSK", 3*3600))
	assert.Equal(t, day(2024, 1, 8), Add(ts, 1))
}

func TestRange(t *testing.T) {
	days := Range(day(2024, 1, 6), day(2024, 1, 16))

	require.Len(t, days, 7)
	assert.Equal(t, day(2024, 1, 8), days[0])
	assert.Equal(t, day(2024, 1, 16), days[len(days)-1])
	for _, d := range days {
		assert.True(t, IsBusinessDay(d))
	}
}

func TestRangeEmpty(t *testing.T) {
	assert.Empty(t, Range(day(2024, 1, 6), day(2024, 1, 7)))
	assert.Empty(t, Range(day(2024, 1, 10), day(2024, 1, 9)))
}

func TestRoll(t *testing.T) {
	assert.Equal(t, day(2024, 1, 8), RollForward(day(2024, 1, 7)))
	assert.Equal(t, day(2024, 1, 5), RollBack(day(2024, 1, 7)))
	assert.Equal(t, day(2024, 1, 3), RollBack(day(2024, 1, 3)))
}
