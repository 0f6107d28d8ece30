// Package detector flags pump-and-dump style anomalies in a price series.
//
// Two growth-rate rules (3over20, 80over3) always run; three statistical detectors
// (quantile, persist, volatility) are optional and pluggable.
package detector

import (
	"github.com/vadiminshakov/pndscan/internal/domain"
	"github.com/vadiminshakov/pndscan/pkg/indicators"
)

// StatisticalDetector fits on a series and flags its anomalous points in one step.
// Points the detector cannot assess (warm-up, missing input) must be false.
type StatisticalDetector interface {
	FitDetect(values []float64) []bool
}

// Options selects the optional statistical columns.
type Options struct {
	Quantile   bool
	Persist    bool
	Volatility bool
}

// DefaultOptions enables the quantile detector only.
func DefaultOptions() Options {
	return Options{Quantile: true}
}

// Detector computes anomaly tables.
type Detector struct {
	quantile   StatisticalDetector
	persist    StatisticalDetector
	volatility StatisticalDetector
}

// Option customises a Detector.
type Option func(*Detector)

// WithQuantile replaces the quantile detector.
func WithQuantile(d StatisticalDetector) Option {
	return func(det *Detector) {
		det.quantile = d
	}
}

// WithPersist replaces the persist detector.
func WithPersist(d StatisticalDetector) Option {
	return func(det *Detector) {
		det.persist = d
	}
}

// WithVolatility replaces the volatility shift detector.
func WithVolatility(d StatisticalDetector) Option {
	return func(det *Detector) {
		det.volatility = d
	}
}

// New creates a Detector with the reference statistical detectors and optional overrides.
func New(opts ...Option) *Detector {
	d := &Detector{
		quantile:   NewQuantileDetector(),
		persist:    NewPersistDetector(),
		volatility: NewVolatilityShiftDetector(),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

type column struct {
	name    string
	enabled bool
	compute func(values []float64) []bool
}

// Detect builds the anomaly table for ts. The input is never modified and every
// column has exactly ts.Len() rows.
func (d *Detector) Detect(ts domain.TimeSeries, opts Options) *domain.AnomalyTable {
	values := make([]float64, len(ts.Values))
	copy(values, ts.Values)

	columns := []column{
		{name: domain.Detector3Over20, enabled: true, compute: ThreeOver20},
		{name: domain.Detector80Over3, enabled: true, compute: EightyOver3},
		{name: domain.DetectorQuantile, enabled: opts.Quantile, compute: func(v []float64) []bool {
			return d.quantile.FitDetect(indicators.PctChanges(v))
		}},
		{name: domain.DetectorPersist, enabled: opts.Persist, compute: d.persist.FitDetect},
		{name: domain.DetectorVolatility, enabled: opts.Volatility, compute: d.volatility.FitDetect},
	}

	table := domain.NewAnomalyTable(ts.Index)
	for _, c := range columns {
		if !c.enabled {
			continue
		}
		// names are unique and lengths fitted, so Add failing is a programming error
		if err := table.Add(c.name, fit(c.compute(values), len(values))); err != nil {
			panic(err)
		}
	}

	return table
}

// fit pads or truncates flags to n rows, missing rows are false.
func fit(flags []bool, n int) []bool {
	if len(flags) == n {
		return flags
	}
	out := make([]bool, n)
	copy(out, flags)
	return out
}
