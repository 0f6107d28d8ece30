package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/pndscan/internal/domain"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestRender(t *testing.T) {
	index := []time.Time{day(1), day(2), day(3), day(4)}
	anomalies := domain.NewAnomalyTable(index)
	require.NoError(t, anomalies.Add(domain.Detector3Over20, []bool{false, true, true, false}))
	require.NoError(t, anomalies.Add(domain.Detector80Over3, []bool{false, false, false, false}))

	result := domain.AnalysisResult{
		Ticker:    "ABRD",
		Source:    domain.SourceCSV,
		Signal:    domain.Detector3Over20,
		Anomalies: anomalies,
		Periods: []domain.DetectorPeriods{
			{Detector: domain.Detector3Over20, Periods: []domain.DatePeriod{{Start: day(2), End: day(3)}}},
			{Detector: domain.Detector80Over3},
		},
		Marks: &domain.MarkTable{
			Marks:    []domain.Mark{1, 1, 1, 0},
			Triggers: []domain.NewsTrigger{{News: day(4), Trigger: day(2)}},
			Skipped:  []time.Time{day(3)},
			Episodes: []int{0, 0, 0, 1},
		},
		NewsTotal: 2,
	}

	out := Render([]domain.AnalysisResult{result})

	assert.Contains(t, out, "ABRD")
	assert.Contains(t, out, "2024-01-02..2024-01-03")
	assert.Contains(t, out, "2 (1 skipped)")
	assert.Contains(t, out, "2024-01-02 before news of 2024-01-04")
	assert.NotContains(t, out, "80over3 periods")
}

func TestRenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, nil))
	assert.Contains(t, buf.String(), "no results")
}

func TestFormatPeriods(t *testing.T) {
	periods := make([]domain.DatePeriod, 0, 7)
	for d := 1; d <= 7; d++ {
		periods = append(periods, domain.DatePeriod{Start: day(d), End: day(d)})
	}

	got := formatPeriods(periods)

	assert.Equal(t, "2024-01-01, 2024-01-02, 2024-01-03, 2024-01-04, 2024-01-05, +2 more", got)
}
