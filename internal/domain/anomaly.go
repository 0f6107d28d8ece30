package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Detector column names in declaration order.
const (
	Detector3Over20    = "3over20"
	Detector80Over3    = "80over3"
	DetectorQuantile   = "quantile"
	DetectorPersist    = "persist"
	DetectorVolatility = "volatility"

	// SignalAny selects the element-wise OR of every detector column.
	SignalAny = "any"
)

// AnomalyTable boolean detector signals aligned to one series index.
// Column order is the insertion order.
type AnomalyTable struct {
	Index   []time.Time
	names   []string
	columns map[string][]bool
}

// NewAnomalyTable creates an empty table over index.
func NewAnomalyTable(index []time.Time) *AnomalyTable {
	return &AnomalyTable{Index: index, columns: make(map[string][]bool)}
}

// Add appends a column. Re-adding an existing name is an error.
func (t *AnomalyTable) Add(name string, flags []bool) error {
	if len(flags) != len(t.Index) {
		return fmt.Errorf("anomaly column %q has %d flags, index has %d", name, len(flags), len(t.Index))
	}
	if _, ok := t.columns[name]; ok {
		return fmt.Errorf("anomaly column %q already exists", name)
	}
	t.names = append(t.names, name)
	t.columns[name] = flags
	return nil
}

// Len returns the number of rows.
func (t *AnomalyTable) Len() int {
	return len(t.Index)
}

// Names returns column names in order.
func (t *AnomalyTable) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Column returns the flags of one detector.
func (t *AnomalyTable) Column(name string) ([]bool, bool) {
	flags, ok := t.columns[name]
	return flags, ok
}

// Any returns the element-wise OR of all columns.
func (t *AnomalyTable) Any() []bool {
	out := make([]bool, len(t.Index))
	for _, name := range t.names {
		for i, f := range t.columns[name] {
			out[i] = out[i] || f
		}
	}
	return out
}

// Count returns the number of flagged rows in a column.
func (t *AnomalyTable) Count(name string) int {
	n := 0
	for _, f := range t.columns[name] {
		if f {
			n++
		}
	}
	return n
}

// Signal selects one column, or the OR of all columns for SignalAny.
func (t *AnomalyTable) Signal(name string) ([]bool, error) {
	if name == SignalAny {
		return t.Any(), nil
	}
	flags, ok := t.columns[name]
	if !ok {
		return nil, fmt.Errorf("unknown anomaly signal %q (have %v)", name, t.names)
	}
	return flags, nil
}

type anomalyColumnJSON struct {
	Name  string `json:"name"`
	Flags []bool `json:"flags"`
}

type anomalyTableJSON struct {
	Index   []time.Time         `json:"index"`
	Columns []anomalyColumnJSON `json:"columns"`
}

// MarshalJSON keeps column order.
func (t *AnomalyTable) MarshalJSON() ([]byte, error) {
	payload := anomalyTableJSON{Index: t.Index, Columns: make([]anomalyColumnJSON, 0, len(t.names))}
	for _, name := range t.names {
		payload.Columns = append(payload.Columns, anomalyColumnJSON{Name: name, Flags: t.columns[name]})
	}
	return json.Marshal(payload)
}

// UnmarshalJSON restores column order.
func (t *AnomalyTable) UnmarshalJSON(data []byte) error {
	var payload anomalyTableJSON
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	*t = *NewAnomalyTable(payload.Index)
	for _, col := range payload.Columns {
		if err := t.Add(col.Name, col.Flags); err != nil {
			return err
		}
	}
	return nil
}

// DatePeriod closed date range of consecutive flagged rows.
type DatePeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// DetectorPeriods flagged periods of one detector column.
type DetectorPeriods struct {
	Detector string       `json:"detector"`
	Periods  []DatePeriod `json:"periods"`
}
