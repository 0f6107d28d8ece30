package sequence

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFind(t *testing.T) {
	isOne := func(v int) bool { return v == 1 }

	tests := []struct {
		name     string
		input    []int
		expected []Interval
	}{
		{
			name:     "mixed runs",
			input:    []int{1, 1, 0, 0, 1, 1, 1, 0, 1, 0, 0, 1, 0, 1, 1},
			expected: []Interval{{0, 1}, {4, 6}, {8, 8}, {11, 11}, {13, 14}},
		},
		{
			name:     "empty",
			input:    nil,
			expected: nil,
		},
		{
			name:     "single matching element",
			input:    []int{1},
			expected: []Interval{{0, 0}},
		},
		{
			name:     "no matches",
			input:    []int{0, 2, 3},
			expected: nil,
		},
		{
			name:     "all match",
			input:    []int{1, 1, 1},
			expected: []Interval{{0, 2}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Find(tt.input, isOne))
		})
	}
}

func TestFindDoesNotMutateInput(t *testing.T) {
	input := []bool{true, false, true}
	Find(input, func(v bool) bool { return v })
	require.Equal(t, []bool{true, false, true}, input)
}

func TestFindMaximality(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	pred := func(v int) bool { return v%3 == 0 }

	for round := 0; round < 50; round++ {
		seq := make([]int, rnd.Intn(40))
		for i := range seq {
			seq[i] = rnd.Intn(6)
		}

		runs := Find(seq, pred)
		prevEnd := -2
		for _, r := range runs {
			require.LessOrEqual(t, r.Start, r.End)
			require.Greater(t, r.Start, prevEnd+1, "runs must be separated by a failing position")
			for i := r.Start; i <= r.End; i++ {
				require.True(t, pred(seq[i]))
			}
			if r.Start > 0 {
				require.False(t, pred(seq[r.Start-1]))
			}
			if r.End < len(seq)-1 {
				require.False(t, pred(seq[r.End+1]))
			}
			prevEnd = r.End
		}
	}
}

func TestRuns(t *testing.T) {
	input := []int{1, 1, 2, 2, 1, 1, 1, 1, 0, 0, 0, 5, 4, 0, 0, 5, 5, 4, 4}

	runs := Runs(input)

	expected := []Interval{
		{0, 1}, {2, 3}, {4, 7}, {8, 10}, {11, 11}, {12, 12}, {13, 14}, {15, 16}, {17, 18},
	}
	require.Equal(t, expected, runs)

	covered := 0
	next := 0
	for _, r := range runs {
		require.Equal(t, next, r.Start, "runs must be contiguous")
		covered += r.Len()
		next = r.End + 1
	}
	assert.Equal(t, len(input), covered)
}

func TestRunsMatchesPerValueUnion(t *testing.T) {
	input := []int{3, 3, 1, 2, 2, 3, 1, 1}

	var union []Interval
	for _, v := range []int{1, 2, 3} {
		val := v
		union = append(union, Find(input, func(x int) bool { return x == val })...)
	}

	runs := Runs(input)
	require.Len(t, runs, len(union))
	for _, u := range union {
		assert.Contains(t, runs, u)
	}
}

func TestRunsEmpty(t *testing.T) {
	assert.Empty(t, Runs([]string{}))
}

func TestInterval(t *testing.T) {
	i := Interval{Start: 2, End: 4}
	assert.Equal(t, 3, i.Len())
	assert.True(t, i.Contains(2))
	assert.True(t, i.Contains(4))
	assert.False(t, i.Contains(5))
}
