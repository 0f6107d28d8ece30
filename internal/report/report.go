// Package report renders analysis results for the terminal.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/vadiminshakov/pndscan/internal/domain"
)

// maxPeriods caps the periods listed per detector.
const maxPeriods = 5

var (
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	warning   = lipgloss.AdaptiveColor{Light: "#D7263D", Dark: "#F25F5C"}
	subtle    = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(0, 2).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(subtle).
			Width(20)

	alertStyle = lipgloss.NewStyle().
			Foreground(warning).
			Bold(true)

	okStyle = lipgloss.NewStyle().
		Foreground(special)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(highlight).
			Padding(0, 1).
			MarginBottom(1)
)

// Write renders results to w.
func Write(w io.Writer, results []domain.AnalysisResult) error {
	_, err := io.WriteString(w, Render(results))
	return err
}

// Render formats one box per result.
func Render(results []domain.AnalysisResult) string {
	if len(results) == 0 {
		return lipgloss.NewStyle().Foreground(subtle).Render("no results") + "\n"
	}

	boxes := make([]string, 0, len(results))
	for _, r := range results {
		boxes = append(boxes, renderResult(r))
	}
	return lipgloss.JoinVertical(lipgloss.Left, boxes...) + "\n"
}

func renderResult(r domain.AnalysisResult) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(r.Ticker))
	b.WriteString("\n")
	row(&b, "source", string(r.Source))
	row(&b, "signal", r.Signal)

	if r.Anomalies != nil {
		row(&b, "days", fmt.Sprintf("%d", r.Anomalies.Len()))
		for _, name := range r.Anomalies.Names() {
			row(&b, name, flagCount(r.Anomalies.Count(name)))
		}
	}

	for _, p := range r.Periods {
		if len(p.Periods) == 0 {
			continue
		}
		row(&b, p.Detector+" periods", formatPeriods(p.Periods))
	}

	if r.Marks != nil {
		row(&b, "news", fmt.Sprintf("%d (%d skipped)", r.NewsTotal, len(r.Marks.Skipped)))
		row(&b, "preceding days", flagCount(r.Marks.Count(domain.MarkPrecedingAnomaly)))
		for _, tr := range r.Marks.Triggers {
			row(&b, "trigger", fmt.Sprintf("%s before news of %s",
				tr.Trigger.Format(time.DateOnly), tr.News.Format(time.DateOnly)))
		}
		if n := r.Marks.EpisodeCount(); n > 0 {
			row(&b, "episodes", fmt.Sprintf("%d", n))
		}
	}

	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func row(b *strings.Builder, label, value string) {
	b.WriteString(labelStyle.Render(label))
	b.WriteString(value)
	b.WriteString("\n")
}

func flagCount(n int) string {
	if n == 0 {
		return okStyle.Render("0")
	}
	return alertStyle.Render(fmt.Sprintf("%d", n))
}

func formatPeriods(periods []domain.DatePeriod) string {
	parts := make([]string, 0, maxPeriods+1)
	for i, p := range periods {
		if i == maxPeriods {
			parts = append(parts, fmt.Sprintf("+%d more", len(periods)-maxPeriods))
			break
		}
		if p.Start.Equal(p.End) {
			parts = append(parts, p.Start.Format(time.DateOnly))
			continue
		}
		parts = append(parts, p.Start.Format(time.DateOnly)+".."+p.End.Format(time.DateOnly))
	}
	return strings.Join(parts, ", ")
}
