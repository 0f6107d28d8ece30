package setup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/pndscan/config"
	"github.com/vadiminshakov/pndscan/internal/domain"
)

func TestBuildConfig(t *testing.T) {
	a := DefaultAnswers()
	a.Tickers = "sber, gazp"
	a.Detectors = []string{domain.DetectorPersist}
	a.Signal = domain.DetectorPersist
	a.GroupEpisodes = true
	a.Listen = ":8080"

	tmp, err := BuildConfig(a)
	require.NoError(t, err)

	require.Len(t, tmp.Securities, 2)
	assert.Equal(t, "SBER", tmp.Securities[0].Ticker)
	assert.Equal(t, filepath.Join("./data", "SBER.csv"), tmp.Securities[0].Path)
	assert.Equal(t, filepath.Join("./news", "GAZP.yaml"), tmp.Securities[1].NewsPath)

	require.NotNil(t, tmp.Detect.Quantile)
	assert.False(t, *tmp.Detect.Quantile)
	assert.True(t, tmp.Detect.Persist)

	cfg, err := tmp.ToConfig()
	require.NoError(t, err)
	assert.Equal(t, domain.DetectorPersist, cfg.Signal)
	assert.Equal(t, 7, cfg.Markup.DaysBefore)
	assert.Equal(t, 5, cfg.Markup.DaysAfter)
	assert.True(t, cfg.Markup.GroupEpisodes)
	assert.Equal(t, ":8080", cfg.Web.Listen)
}

func TestBuildConfigExchange(t *testing.T) {
	a := DefaultAnswers()
	a.Tickers = "btc_usdt"
	a.Source = string(domain.SourceBinance)
	a.NewsDir = ""

	tmp, err := BuildConfig(a)
	require.NoError(t, err)
	assert.Empty(t, tmp.Securities[0].Path)
	assert.Empty(t, tmp.Securities[0].NewsPath)

	cfg, err := tmp.ToConfig()
	require.NoError(t, err)
	assert.Equal(t, domain.SourceBinance, cfg.Securities[0].Source)
}

func TestBuildConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Answers)
	}{
		{"no tickers", func(a *Answers) { a.Tickers = " , " }},
		{"unknown detector", func(a *Answers) { a.Detectors = []string{"magic"} }},
		{"bad days", func(a *Answers) { a.DaysBefore = "x" }},
		{"negative days", func(a *Answers) { a.DaysAfter = "-1" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := DefaultAnswers()
			a.Tickers = "SBER"
			tt.modify(&a)
			_, err := BuildConfig(a)
			assert.Error(t, err)
		})
	}
}

func TestSave(t *testing.T) {
	a := DefaultAnswers()
	a.Tickers = "SBER"

	tmp, err := BuildConfig(a)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "pnd.yaml")
	require.NoError(t, Save(path, tmp))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	cfg, err := config.Parse(data)
	require.NoError(t, err)
	require.Len(t, cfg.Securities, 1)
	assert.Equal(t, "SBER", cfg.Securities[0].Ticker)
	assert.True(t, cfg.Detect.Quantile)
}

func TestSaveRejectsInvalid(t *testing.T) {
	a := DefaultAnswers()
	a.Tickers = "SBER"
	a.Signal = domain.DetectorVolatility

	tmp, err := BuildConfig(a)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "pnd.yaml")
	assert.Error(t, Save(path, tmp))
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
