// Package sequence finds maximal contiguous runs in ordered collections.
package sequence

// Interval is a closed index range [Start, End] with Start <= End.
type Interval struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of positions covered by the interval.
func (i Interval) Len() int {
	return i.End - i.Start + 1
}

// Contains reports whether idx lies inside the interval.
func (i Interval) Contains(idx int) bool {
	return idx >= i.Start && idx <= i.End
}

// Find returns every maximal run of positions where pred holds, ordered by start.
//
// Example: Find([1 1 0 0 1 1 1 0 1 0 0 1 0 1 1], ==1) -> (0,1) (4,6) (8,8) (11,11) (13,14).
func Find[T any](seq []T, pred func(T) bool) []Interval {
	var result []Interval

	start := -1
	for i, v := range seq {
		if pred(v) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			result = append(result, Interval{Start: start, End: i - 1})
			start = -1
		}
	}
	if start >= 0 {
		result = append(result, Interval{Start: start, End: len(seq) - 1})
	}

	return result
}

// Runs groups seq into maximal runs of equal adjacent values, ordered by start.
// A value reappearing later starts a new run. The runs partition [0, len(seq)).
//
// Values that are never equal to themselves (float NaN) form single-position runs.
func Runs[T comparable](seq []T) []Interval {
	if len(seq) == 0 {
		return nil
	}

	result := make([]Interval, 0, 8)
	start := 0
	for i := 1; i < len(seq); i++ {
		if seq[i] != seq[i-1] {
			result = append(result, Interval{Start: start, End: i - 1})
			start = i
		}
	}

	return append(result, Interval{Start: start, End: len(seq) - 1})
}
