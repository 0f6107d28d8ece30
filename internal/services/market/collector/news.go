package collector

import (
	"os"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/pndscan/internal/domain"
	"gopkg.in/yaml.v3"
)

type newsEntry struct {
	Date   string `yaml:"date"`
	Title  string `yaml:"title"`
	Source string `yaml:"source"`
}

// LoadNews reads a YAML list of news events:
//
//	- date: 2024-01-11
//	  title: Board approves buyback
//	  source: e-disclosure
func LoadNews(path string) ([]domain.NewsEvent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read news file")
	}

	events, err := ParseNews(data)
	if err != nil {
		return nil, errors.Wrapf(err, "news file %s", path)
	}
	return events, nil
}

// ParseNews decodes a YAML news list.
func ParseNews(data []byte) ([]domain.NewsEvent, error) {
	var entries []newsEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, errors.Wrap(err, "failed to parse news yaml")
	}

	events := make([]domain.NewsEvent, 0, len(entries))
	for i, e := range entries {
		if e.Date == "" {
			return nil, errors.Errorf("news entry %d has no date", i)
		}
		date, err := parseDate(e.Date)
		if err != nil {
			return nil, errors.Wrapf(err, "news entry %d", i)
		}
		events = append(events, domain.NewsEvent{Date: date, Title: e.Title, Source: e.Source})
	}

	return events, nil
}
