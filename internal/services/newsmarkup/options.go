package newsmarkup

import (
	"github.com/pkg/errors"
	"github.com/vadiminshakov/pndscan/internal/domain"
)

// Options tunes the markup pass.
type Options struct {
	// ValueColumn frame column checked for missing values.
	ValueColumn string
	// MarkPeriod marks DaysBefore..DaysAfter around the trigger instead of the trigger alone.
	MarkPeriod bool
	// InvalidMark code for anomalous or missing spans; any integer is accepted.
	InvalidMark domain.Mark
	DaysBefore  int
	DaysAfter   int
	// GroupEpisodes numbers every run of equal marks.
	GroupEpisodes bool
}

// DefaultOptions returns a fresh set of defaults.
func DefaultOptions() Options {
	return Options{
		ValueColumn: domain.ColumnClose,
		MarkPeriod:  true,
		InvalidMark: domain.MarkInvalid,
		DaysBefore:  7,
		DaysAfter:   5,
	}
}

// Validate checks option consistency.
func (o Options) Validate() error {
	if o.ValueColumn == "" {
		return errors.New("value column is required")
	}
	if o.DaysBefore < 0 {
		return errors.Errorf("days before must be non-negative, got %d", o.DaysBefore)
	}
	if o.DaysAfter < 0 {
		return errors.Errorf("days after must be non-negative, got %d", o.DaysAfter)
	}
	return nil
}
