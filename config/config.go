// Package config loads the pipeline configuration from YAML.
package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/pndscan/internal/domain"
	"github.com/vadiminshakov/pndscan/internal/services/detector"
	"github.com/vadiminshakov/pndscan/internal/services/newsmarkup"
	"gopkg.in/yaml.v3"
)

const (
	defaultWorkers  = 4
	defaultLogLevel = "info"
	defaultStoreDir = "./wal/results"
	defaultCertDir  = "./certs"
)

// Config typed pipeline configuration.
type Config struct {
	LogLevel   string
	Workers    int
	StoreDir   string
	Securities []domain.Security
	Detect     detector.Options
	// Signal anomaly column driving the markup, a detector name or domain.SignalAny.
	Signal string
	Markup newsmarkup.Options
	Web    Web
	Keys   APIKeys
}

// Web results API settings; an empty Listen disables the server.
type Web struct {
	Listen   string
	TLSHosts []string
	CertDir  string
}

// APIKeys exchange credentials read from the environment.
type APIKeys struct {
	BinanceKey    string
	BinanceSecret string
	BybitKey      string
	BybitSecret   string
}

// ConfigTmp raw YAML layout.
type ConfigTmp struct {
	LogLevel   string        `yaml:"log_level,omitempty"`
	Workers    int           `yaml:"workers,omitempty"`
	StoreDir   string        `yaml:"store_dir,omitempty"`
	Securities []SecurityTmp `yaml:"securities"`
	Detect     DetectTmp     `yaml:"detect"`
	Markup     MarkupTmp     `yaml:"markup"`
	Web        WebTmp        `yaml:"web,omitempty"`
}

// SecurityTmp raw security entry.
type SecurityTmp struct {
	Ticker   string `yaml:"ticker"`
	Source   string `yaml:"source,omitempty"`
	Path     string `yaml:"path,omitempty"`
	NewsPath string `yaml:"news_path,omitempty"`
	Limit    int    `yaml:"limit,omitempty"`
}

// DetectTmp raw detector switches; quantile defaults to on.
type DetectTmp struct {
	Quantile   *bool `yaml:"quantile,omitempty"`
	Persist    bool  `yaml:"persist"`
	Volatility bool  `yaml:"volatility"`
}

// MarkupTmp raw markup settings; nil fields take defaults.
type MarkupTmp struct {
	Signal        string `yaml:"signal,omitempty"`
	ValueColumn   string `yaml:"value_column,omitempty"`
	MarkPeriod    *bool  `yaml:"mark_period,omitempty"`
	InvalidMark   *int   `yaml:"invalid_mark,omitempty"`
	DaysBefore    *int   `yaml:"days_before,omitempty"`
	DaysAfter     *int   `yaml:"days_after,omitempty"`
	GroupEpisodes bool   `yaml:"group_episodes"`
}

// WebTmp raw web settings.
type WebTmp struct {
	Listen   string   `yaml:"listen,omitempty"`
	TLSHosts []string `yaml:"tls_hosts,omitempty"`
	CertDir  string   `yaml:"cert_dir,omitempty"`
}

// Load reads and validates a YAML config file and picks up API keys from the environment.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to read config")
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config %s", path)
	}

	cfg.Keys = APIKeys{
		BinanceKey:    os.Getenv("BINANCE_API_KEY"),
		BinanceSecret: os.Getenv("BINANCE_API_SECRET"),
		BybitKey:      os.Getenv("BYBIT_API_KEY"),
		BybitSecret:   os.Getenv("BYBIT_API_SECRET"),
	}

	return cfg, nil
}

// Parse decodes YAML into a validated Config.
func Parse(data []byte) (Config, error) {
	var tmp ConfigTmp
	if err := yaml.Unmarshal(data, &tmp); err != nil {
		return Config{}, errors.Wrap(err, "failed to parse yaml")
	}
	return tmp.ToConfig()
}

// ToConfig applies defaults and validates.
func (c ConfigTmp) ToConfig() (Config, error) {
	cfg := Config{
		LogLevel: c.LogLevel,
		Workers:  c.Workers,
		StoreDir: c.StoreDir,
		Detect:   detector.DefaultOptions(),
		Signal:   c.Markup.Signal,
		Markup:   newsmarkup.DefaultOptions(),
		Web: Web{
			Listen:   c.Web.Listen,
			TLSHosts: c.Web.TLSHosts,
			CertDir:  c.Web.CertDir,
		},
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return Config{}, errors.Errorf("incorrect 'log_level' param %q (debug, info, warn or error)", cfg.LogLevel)
	}

	if cfg.Workers == 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.Workers < 0 {
		return Config{}, errors.Errorf("incorrect 'workers' param %d (must be positive)", cfg.Workers)
	}
	if cfg.StoreDir == "" {
		cfg.StoreDir = defaultStoreDir
	}
	if cfg.Web.CertDir == "" {
		cfg.Web.CertDir = defaultCertDir
	}

	securities, err := c.securities()
	if err != nil {
		return Config{}, err
	}
	cfg.Securities = securities

	if c.Detect.Quantile != nil {
		cfg.Detect.Quantile = *c.Detect.Quantile
	}
	cfg.Detect.Persist = c.Detect.Persist
	cfg.Detect.Volatility = c.Detect.Volatility

	if cfg.Signal == "" {
		cfg.Signal = domain.Detector3Over20
	}
	if err := checkSignal(cfg.Signal, cfg.Detect); err != nil {
		return Config{}, err
	}

	if c.Markup.ValueColumn != "" {
		cfg.Markup.ValueColumn = strings.ToUpper(c.Markup.ValueColumn)
	}
	if c.Markup.MarkPeriod != nil {
		cfg.Markup.MarkPeriod = *c.Markup.MarkPeriod
	}
	if c.Markup.InvalidMark != nil {
		cfg.Markup.InvalidMark = domain.Mark(*c.Markup.InvalidMark)
	}
	if c.Markup.DaysBefore != nil {
		cfg.Markup.DaysBefore = *c.Markup.DaysBefore
	}
	if c.Markup.DaysAfter != nil {
		cfg.Markup.DaysAfter = *c.Markup.DaysAfter
	}
	cfg.Markup.GroupEpisodes = c.Markup.GroupEpisodes
	if err := cfg.Markup.Validate(); err != nil {
		return Config{}, errors.Wrap(err, "incorrect 'markup' section")
	}

	return cfg, nil
}

func (c ConfigTmp) securities() ([]domain.Security, error) {
	if len(c.Securities) == 0 {
		return nil, errors.New("no securities configured")
	}

	seen := make(map[string]bool, len(c.Securities))
	out := make([]domain.Security, 0, len(c.Securities))
	for i, s := range c.Securities {
		if s.Ticker == "" {
			return nil, errors.Errorf("security %d has no 'ticker'", i)
		}
		if seen[s.Ticker] {
			return nil, errors.Errorf("security %s is listed twice", s.Ticker)
		}
		seen[s.Ticker] = true

		sec := domain.Security{
			Ticker:   s.Ticker,
			Source:   domain.SourceKind(strings.ToLower(s.Source)),
			Path:     s.Path,
			NewsPath: s.NewsPath,
			Limit:    s.Limit,
		}
		if sec.Source == "" {
			sec.Source = domain.SourceCSV
		}

		switch sec.Source {
		case domain.SourceCSV:
			if sec.Path == "" {
				return nil, errors.Errorf("security %s: csv source needs 'path'", s.Ticker)
			}
		case domain.SourceBinance, domain.SourceBybit:
			if _, err := domain.ParsePair(strings.ToUpper(s.Ticker)); err != nil {
				return nil, errors.Wrapf(err, "security %s", s.Ticker)
			}
		default:
			return nil, errors.Errorf("security %s: unknown 'source' %q (csv, binance or bybit)", s.Ticker, s.Source)
		}
		if sec.Limit < 0 {
			return nil, errors.Errorf("security %s: 'limit' must be positive", s.Ticker)
		}

		out = append(out, sec)
	}

	return out, nil
}

func checkSignal(signal string, opts detector.Options) error {
	enabled := map[string]bool{
		domain.SignalAny:          true,
		domain.Detector3Over20:    true,
		domain.Detector80Over3:    true,
		domain.DetectorQuantile:   opts.Quantile,
		domain.DetectorPersist:    opts.Persist,
		domain.DetectorVolatility: opts.Volatility,
	}

	on, known := enabled[signal]
	if !known {
		return errors.Errorf("incorrect 'markup.signal' %q", signal)
	}
	if !on {
		return errors.Errorf("'markup.signal' %q needs the detector enabled in 'detect'", signal)
	}
	return nil
}
