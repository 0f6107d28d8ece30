package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

var nan = math.NaN()

// TimeSeries ordered (timestamp, value) pairs. NaN marks a missing value.
type TimeSeries struct {
	Name   string
	Index  []time.Time
	Values []float64
}

// NewTimeSeries validates that index and values align and timestamps strictly increase.
func NewTimeSeries(name string, index []time.Time, values []float64) (TimeSeries, error) {
	if len(index) != len(values) {
		return TimeSeries{}, fmt.Errorf("series %q: index has %d entries, values %d", name, len(index), len(values))
	}
	if err := checkIndex(index); err != nil {
		return TimeSeries{}, fmt.Errorf("series %q: %w", name, err)
	}
	return TimeSeries{Name: name, Index: index, Values: values}, nil
}

// Len returns the number of samples.
func (s TimeSeries) Len() int {
	return len(s.Values)
}

// Frame a time index shared by named float64 columns.
type Frame struct {
	Index   []time.Time
	order   []string
	columns map[string][]float64
}

// NewFrame creates an empty frame over a strictly increasing index.
func NewFrame(index []time.Time) (*Frame, error) {
	if err := checkIndex(index); err != nil {
		return nil, err
	}
	return &Frame{Index: index, columns: make(map[string][]float64)}, nil
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Index)
}

// SetColumn adds or replaces a column; values must match the index length.
func (f *Frame) SetColumn(name string, values []float64) error {
	if len(values) != len(f.Index) {
		return fmt.Errorf("column %q has %d values, index has %d", name, len(values), len(f.Index))
	}
	if _, ok := f.columns[name]; !ok {
		f.order = append(f.order, name)
	}
	f.columns[name] = values
	return nil
}

// Column returns a column by name.
func (f *Frame) Column(name string) ([]float64, bool) {
	if f == nil {
		return nil, false
	}
	values, ok := f.columns[name]
	return values, ok
}

// Columns returns column names in insertion order.
func (f *Frame) Columns() []string {
	if f == nil {
		return nil
	}
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// Series extracts one column as a TimeSeries.
func (f *Frame) Series(name string) (TimeSeries, error) {
	values, ok := f.Column(name)
	if !ok {
		return TimeSeries{}, fmt.Errorf("frame has no column %q", name)
	}
	return TimeSeries{Name: name, Index: f.Index, Values: values}, nil
}

type frameColumnJSON struct {
	Name   string     `json:"name"`
	Values []*float64 `json:"values"`
}

type frameJSON struct {
	Index   []time.Time       `json:"index"`
	Columns []frameColumnJSON `json:"columns"`
}

// MarshalJSON encodes missing values as null.
func (f *Frame) MarshalJSON() ([]byte, error) {
	payload := frameJSON{Index: f.Index, Columns: make([]frameColumnJSON, 0, len(f.order))}
	for _, name := range f.order {
		values := f.columns[name]
		col := frameColumnJSON{Name: name, Values: make([]*float64, len(values))}
		for i, v := range values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			col.Values[i] = &v
		}
		payload.Columns = append(payload.Columns, col)
	}
	return json.Marshal(payload)
}

// UnmarshalJSON decodes null values as NaN.
func (f *Frame) UnmarshalJSON(data []byte) error {
	var payload frameJSON
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}

	*f = Frame{Index: payload.Index, columns: make(map[string][]float64)}
	for _, col := range payload.Columns {
		values := make([]float64, len(col.Values))
		for i, v := range col.Values {
			if v == nil {
				values[i] = nan
				continue
			}
			values[i] = *v
		}
		if err := f.SetColumn(col.Name, values); err != nil {
			return err
		}
	}
	return nil
}

func checkIndex(index []time.Time) error {
	for i := 1; i < len(index); i++ {
		if !index[i].After(index[i-1]) {
			return fmt.Errorf("index not strictly increasing at position %d (%s after %s)",
				i, index[i].Format(time.RFC3339), index[i-1].Format(time.RFC3339))
		}
	}
	return nil
}
