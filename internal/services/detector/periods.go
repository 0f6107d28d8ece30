package detector

import (
	"github.com/vadiminshakov/pndscan/internal/domain"
	"github.com/vadiminshakov/pndscan/pkg/sequence"
)

// Periods lists, for every column in table order, the runs of flagged rows as date ranges.
func Periods(table *domain.AnomalyTable) []domain.DetectorPeriods {
	names := table.Names()
	out := make([]domain.DetectorPeriods, 0, len(names))

	for _, name := range names {
		flags, _ := table.Column(name)
		runs := sequence.Find(flags, func(f bool) bool { return f })

		periods := make([]domain.DatePeriod, len(runs))
		for i, r := range runs {
			periods[i] = domain.DatePeriod{Start: table.Index[r.Start], End: table.Index[r.End]}
		}
		out = append(out, domain.DetectorPeriods{Detector: name, Periods: periods})
	}

	return out
}
