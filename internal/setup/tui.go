// Package setup implements the interactive configuration wizard.
package setup

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/pndscan/config"
	"github.com/vadiminshakov/pndscan/internal/domain"
	"gopkg.in/yaml.v3"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// Answers collected by the wizard.
type Answers struct {
	// Tickers comma or space separated.
	Tickers string
	Source  string
	// DataDir holds <TICKER>.csv exports for the csv source.
	DataDir string
	// NewsDir holds <TICKER>.yaml news files; empty disables news.
	NewsDir       string
	Detectors     []string
	Signal        string
	DaysBefore    string
	DaysAfter     string
	GroupEpisodes bool
	Listen        string
}

// DefaultAnswers pre-filled wizard values.
func DefaultAnswers() Answers {
	return Answers{
		Source:     string(domain.SourceCSV),
		DataDir:    "./data",
		NewsDir:    "./news",
		Detectors:  []string{domain.DetectorQuantile},
		Signal:     domain.Detector3Over20,
		DaysBefore: "7",
		DaysAfter:  "5",
	}
}

// BuildConfig turns wizard answers into the YAML config layout.
func BuildConfig(a Answers) (config.ConfigTmp, error) {
	tickers := splitTickers(a.Tickers)
	if len(tickers) == 0 {
		return config.ConfigTmp{}, errors.New("no tickers given")
	}

	tmp := config.ConfigTmp{
		Securities: make([]config.SecurityTmp, 0, len(tickers)),
		Web:        config.WebTmp{Listen: a.Listen},
	}

	for _, ticker := range tickers {
		sec := config.SecurityTmp{Ticker: ticker, Source: a.Source}
		if domain.SourceKind(a.Source) == domain.SourceCSV {
			sec.Path = filepath.Join(a.DataDir, ticker+".csv")
		}
		if a.NewsDir != "" {
			sec.NewsPath = filepath.Join(a.NewsDir, ticker+".yaml")
		}
		tmp.Securities = append(tmp.Securities, sec)
	}

	quantile := false
	for _, d := range a.Detectors {
		switch d {
		case domain.DetectorQuantile:
			quantile = true
		case domain.DetectorPersist:
			tmp.Detect.Persist = true
		case domain.DetectorVolatility:
			tmp.Detect.Volatility = true
		default:
			return config.ConfigTmp{}, errors.Errorf("unknown detector %q", d)
		}
	}
	tmp.Detect.Quantile = &quantile

	before, err := parseDays("days before", a.DaysBefore)
	if err != nil {
		return config.ConfigTmp{}, err
	}
	after, err := parseDays("days after", a.DaysAfter)
	if err != nil {
		return config.ConfigTmp{}, err
	}

	tmp.Markup = config.MarkupTmp{
		Signal:        a.Signal,
		DaysBefore:    &before,
		DaysAfter:     &after,
		GroupEpisodes: a.GroupEpisodes,
	}

	return tmp, nil
}

// Save validates tmp and writes it as YAML to path.
func Save(path string, tmp config.ConfigTmp) error {
	if _, err := tmp.ToConfig(); err != nil {
		return errors.Wrap(err, "generated config is invalid")
	}

	data, err := yaml.Marshal(tmp)
	if err != nil {
		return errors.Wrap(err, "failed to generate yaml")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to save config file")
	}
	return nil
}

// RunTUI launches the terminal configuration wizard and writes the result to path.
func RunTUI(path string) error {
	a := DefaultAnswers()
	var confirm bool

	step := func(title string) {
		fmt.Print("\033[H\033[2J")
		fmt.Println(headerStyle.Render("PNDSCAN CONFIG WIZARD"))
		fmt.Println(stepStyle.Render(title))
	}

	step("STEP 1: SECURITIES")
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Pick what to scan for pump-and-dump episodes.\n"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Tickers").
				Description("Comma separated, e.g. SBER, GAZP or BTC_USDT for exchanges").
				Value(&a.Tickers).
				Validate(func(s string) error {
					if len(splitTickers(s)) == 0 {
						return fmt.Errorf("at least one ticker is required")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Price source").
				Options(
					huh.NewOption("CSV exports (MOEX ISS)", string(domain.SourceCSV)),
					huh.NewOption("Binance daily klines", string(domain.SourceBinance)),
					huh.NewOption("Bybit daily klines", string(domain.SourceBybit)),
				).
				Value(&a.Source),
		),
	).Run()
	if err != nil {
		return err
	}

	step("STEP 2: DATA")
	fields := []huh.Field{
		huh.NewInput().
			Title("News directory").
			Description("<TICKER>.yaml files, leave empty to skip news").
			Value(&a.NewsDir),
	}
	if domain.SourceKind(a.Source) == domain.SourceCSV {
		fields = append([]huh.Field{
			huh.NewInput().
				Title("CSV directory").
				Description("<TICKER>.csv files").
				Value(&a.DataDir),
		}, fields...)
	}
	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return err
	}

	step("STEP 3: DETECTORS")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Statistical detectors").
				Description("3over20 and 80over3 always run").
				Options(
					huh.NewOption("Quantile of daily changes", domain.DetectorQuantile).Selected(true),
					huh.NewOption("Persistent spike", domain.DetectorPersist),
					huh.NewOption("Volatility shift", domain.DetectorVolatility),
				).
				Value(&a.Detectors),
		),
	).Run()
	if err != nil {
		return err
	}

	signals := []huh.Option[string]{
		huh.NewOption("3over20", domain.Detector3Over20),
		huh.NewOption("80over3", domain.Detector80Over3),
	}
	for _, d := range a.Detectors {
		signals = append(signals, huh.NewOption(d, d))
	}
	signals = append(signals, huh.NewOption("any detector", domain.SignalAny))

	step("STEP 4: NEWS MARKUP")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Signal").
				Description("Anomaly column that marks news as preceded").
				Options(signals...).
				Value(&a.Signal),
			huh.NewInput().
				Title("Days before trigger").
				Value(&a.DaysBefore).
				Validate(func(s string) error {
					_, err := parseDays("days before", s)
					return err
				}),
			huh.NewInput().
				Title("Days after trigger").
				Value(&a.DaysAfter).
				Validate(func(s string) error {
					_, err := parseDays("days after", s)
					return err
				}),
			huh.NewConfirm().
				Title("Group marked days into episodes?").
				Value(&a.GroupEpisodes),
			huh.NewInput().
				Title("Serve results on").
				Description("Address like :8080, leave empty to disable").
				Value(&a.Listen),
		),
	).Run()
	if err != nil {
		return err
	}

	tmp, err := BuildConfig(a)
	if err != nil {
		return err
	}

	step("FINAL CONFIRMATION")
	summary := fmt.Sprintf(
		"Tickers: %s\nSource: %s\nDetectors: %s\nSignal: %s\nWindow: -%s/+%s days\n",
		strings.Join(splitTickers(a.Tickers), ", "), a.Source, strings.Join(a.Detectors, ", "),
		a.Signal, a.DaysBefore, a.DaysAfter,
	)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Save configuration to %s?", path)).
				Affirmative("Yes, save").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}
	if !confirm {
		return errors.New("setup cancelled by user")
	}

	if err := Save(path, tmp); err != nil {
		return err
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s", path)))
	return nil
}

func splitTickers(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == ';'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, strings.ToUpper(f))
	}
	return out
}

func parseDays(name, s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, errors.Errorf("%s must be a whole number", name)
	}
	if n < 0 {
		return 0, errors.Errorf("%s must not be negative", name)
	}
	return n, nil
}
