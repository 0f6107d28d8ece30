package domain

import (
	"fmt"
	"time"
)

// Mark per-business-day category code.
type Mark int

const (
	// MarkInvalid anomalous or missing data span, including the buffer margin.
	MarkInvalid Mark = -1
	// MarkNormal default.
	MarkNormal Mark = 0
	// MarkPrecedingAnomaly anomaly detected shortly before a news event.
	MarkPrecedingAnomaly Mark = 1
)

// String returns a human-readable representation.
func (m Mark) String() string {
	switch m {
	case MarkNormal:
		return "normal"
	case MarkPrecedingAnomaly:
		return "preceding_anomaly"
	case MarkInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("mark(%d)", int(m))
	}
}

// NewsTrigger links a news event to the earliest anomalous day in its lookback window.
type NewsTrigger struct {
	News    time.Time `json:"news"`
	Trigger time.Time `json:"trigger"`
}

// MarkTable business-day resampled frame with its marks.
type MarkTable struct {
	// Frame resampled source columns, NaN where no sample fell on a business day.
	Frame *Frame `json:"frame"`
	// Marks one code per business day.
	Marks []Mark `json:"marks"`
	// Episodes run ordinal per business day, nil unless grouping was requested.
	Episodes []int `json:"episodes,omitempty"`
	// Triggers news events that produced a preceding-anomaly mark.
	Triggers []NewsTrigger `json:"triggers,omitempty"`
	// Skipped news events whose lookback window contained missing values.
	Skipped []time.Time `json:"skipped,omitempty"`
}

// Len returns the number of business days.
func (t *MarkTable) Len() int {
	return len(t.Marks)
}

// Count returns how many days carry mark m.
func (t *MarkTable) Count(m Mark) int {
	n := 0
	for _, v := range t.Marks {
		if v == m {
			n++
		}
	}
	return n
}

// EpisodeCount returns the number of distinct episodes, 0 when grouping is off.
func (t *MarkTable) EpisodeCount() int {
	if len(t.Episodes) == 0 {
		return 0
	}
	return t.Episodes[len(t.Episodes)-1] + 1
}
