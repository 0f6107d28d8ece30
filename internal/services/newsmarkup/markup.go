// Package newsmarkup labels business days around anomalies and the news they precede.
package newsmarkup

import (
	"math"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/pndscan/internal/domain"
	"github.com/vadiminshakov/pndscan/pkg/bday"
	"github.com/vadiminshakov/pndscan/pkg/sequence"
)

const (
	// invalidMargin business days added on both sides of an anomalous or missing run.
	invalidMargin = 3
	// lookbackDays business days searched before a news event.
	lookbackDays = 10
)

// Mark resamples frame to business days and labels every day:
// anomalous or missing spans (plus a margin) are invalid, and the span around the
// earliest anomaly in a news event's lookback window is marked as preceding the news.
// anomaly must be aligned with frame's index.
func Mark(frame *domain.Frame, anomaly []bool, news []domain.NewsEvent, opts Options) (*domain.MarkTable, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid markup options")
	}
	if frame == nil {
		return nil, errors.New("frame is nil")
	}
	if len(anomaly) != frame.Len() {
		return nil, errors.Errorf("anomaly signal has %d rows, frame has %d", len(anomaly), frame.Len())
	}
	if _, ok := frame.Column(opts.ValueColumn); !ok {
		return nil, errors.Errorf("frame has no column %q", opts.ValueColumn)
	}

	resampled, signal, err := resample(frame, anomaly)
	if err != nil {
		return nil, errors.Wrap(err, "resample to business days")
	}

	values, _ := resampled.Column(opts.ValueColumn)
	n := len(values)
	marks := make([]domain.Mark, n)

	runs := append(
		sequence.Find(signal, func(v bool) bool { return v }),
		sequence.Find(values, math.IsNaN)...,
	)
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].Start < runs[j].Start })
	for _, r := range runs {
		fill(marks, max(r.Start-invalidMargin, 0), min(r.End+invalidMargin, n-1), opts.InvalidMark)
	}

	table := &domain.MarkTable{Frame: resampled, Marks: marks}
	idx := resampled.Index

	for _, event := range news {
		day := bday.Date(event.Date)
		lo, hi := span(idx, bday.Add(day, -lookbackDays), bday.Add(day, 0))

		if hasNaN(values[lo:hi]) {
			table.Skipped = append(table.Skipped, day)
			continue
		}

		trigger := -1
		for i := lo; i < hi; i++ {
			if signal[i] {
				trigger = i
				break
			}
		}
		if trigger < 0 {
			continue
		}

		table.Triggers = append(table.Triggers, domain.NewsTrigger{News: day, Trigger: idx[trigger]})
		if !opts.MarkPeriod {
			marks[trigger] = domain.MarkPrecedingAnomaly
			continue
		}

		from, to := span(idx, bday.Add(idx[trigger], -opts.DaysBefore), bday.Add(idx[trigger], opts.DaysAfter))
		if from < to {
			fill(marks, from, to-1, domain.MarkPrecedingAnomaly)
		}
	}

	if opts.GroupEpisodes {
		table.Episodes = make([]int, n)
		for ordinal, r := range sequence.Runs(marks) {
			for i := r.Start; i <= r.End; i++ {
				table.Episodes[i] = ordinal
			}
		}
	}

	return table, nil
}

// resample reindexes frame and the anomaly signal onto the business days between the
// first and the last sample. Weekend samples are dropped; slots without a sample get
// NaN values and a false signal.
func resample(frame *domain.Frame, anomaly []bool) (*domain.Frame, []bool, error) {
	positions := make([]int, frame.Len())
	var calendar []time.Time

	if frame.Len() > 0 {
		calendar = bday.Range(frame.Index[0], frame.Index[frame.Len()-1])

		for i, ts := range frame.Index {
			d := bday.Date(ts)
			if i > 0 && d.Equal(bday.Date(frame.Index[i-1])) {
				return nil, nil, errors.Errorf("duplicate date %s", d.Format(time.DateOnly))
			}
			positions[i] = -1
			if !bday.IsBusinessDay(d) {
				continue
			}
			positions[i] = sort.Search(len(calendar), func(j int) bool { return !calendar[j].Before(d) })
		}
	}

	out, err := domain.NewFrame(calendar)
	if err != nil {
		return nil, nil, err
	}

	for _, name := range frame.Columns() {
		src, _ := frame.Column(name)
		dst := make([]float64, len(calendar))
		for j := range dst {
			dst[j] = math.NaN()
		}
		for i, pos := range positions {
			if pos >= 0 {
				dst[pos] = src[i]
			}
		}
		if err := out.SetColumn(name, dst); err != nil {
			return nil, nil, err
		}
	}

	signal := make([]bool, len(calendar))
	for i, pos := range positions {
		if pos >= 0 {
			signal[pos] = anomaly[i]
		}
	}

	return out, signal, nil
}

// span returns the half-open index range of days within [from, to].
func span(idx []time.Time, from, to time.Time) (int, int) {
	lo := sort.Search(len(idx), func(i int) bool { return !idx[i].Before(from) })
	hi := sort.Search(len(idx), func(i int) bool { return idx[i].After(to) })
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

func fill(marks []domain.Mark, from, to int, m domain.Mark) {
	for i := from; i <= to; i++ {
		marks[i] = m
	}
}

func hasNaN(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
