// Package collector loads daily price histories and news lists for securities.
package collector

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/pndscan/internal/domain"
	"github.com/vadiminshakov/pndscan/pkg/retrier"
	"go.uber.org/zap"
)

const (
	dailyInterval = "1d"
	defaultLimit  = 500
	fetchTimeout  = 30 * time.Second
)

// KlineProvider fetches candlesticks from an exchange.
type KlineProvider interface {
	// GetKlines fetches up to limit klines of the given interval ("1d").
	GetKlines(ctx context.Context, pair domain.Pair, interval string, limit int) ([]domain.MarketCandle, error)
}

// Collector resolves a security's price frame and news from its configured source.
type Collector struct {
	providers map[domain.SourceKind]KlineProvider
	retrier   *retrier.Retrier
	logger    *zap.Logger
}

// Option customises a Collector.
type Option func(*Collector)

// WithProvider registers the kline provider for an exchange source.
func WithProvider(kind domain.SourceKind, p KlineProvider) Option {
	return func(c *Collector) {
		c.providers[kind] = p
	}
}

// WithRetrier replaces the retry policy of exchange fetches.
func WithRetrier(r *retrier.Retrier) Option {
	return func(c *Collector) {
		c.retrier = r
	}
}

// NewCollector creates a collector; exchange sources need a registered provider.
func NewCollector(logger *zap.Logger, opts ...Option) *Collector {
	c := &Collector{
		providers: make(map[domain.SourceKind]KlineProvider),
		logger:    logger,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.retrier == nil {
		c.retrier = retrier.New(retrier.WithOnRetry(func(attempt int, err error, wait time.Duration) {
			logger.Warn("retrying kline fetch", zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(err))
		}))
	}

	return c
}

// Prices returns the OHLCV frame of sec ordered by date.
func (c *Collector) Prices(ctx context.Context, sec domain.Security) (*domain.Frame, error) {
	var (
		candles []domain.MarketCandle
		err     error
	)

	switch sec.Source {
	case domain.SourceCSV, "":
		candles, err = LoadCSV(sec.Path)
	case domain.SourceBinance, domain.SourceBybit:
		candles, err = c.fetch(ctx, sec)
	default:
		return nil, errors.Errorf("unknown price source %q for %s", sec.Source, sec.Ticker)
	}
	if err != nil {
		return nil, err
	}

	frame, err := domain.CandlesToFrame(candles)
	if err != nil {
		return nil, errors.Wrapf(err, "build price frame for %s", sec.Ticker)
	}

	return frame, nil
}

// News returns the news events of sec, nil when it has no news file.
func (c *Collector) News(sec domain.Security) ([]domain.NewsEvent, error) {
	if sec.NewsPath == "" {
		return nil, nil
	}
	return LoadNews(sec.NewsPath)
}

func (c *Collector) fetch(ctx context.Context, sec domain.Security) ([]domain.MarketCandle, error) {
	provider, ok := c.providers[sec.Source]
	if !ok {
		return nil, errors.Errorf("no %s client configured for %s", sec.Source, sec.Ticker)
	}

	pair, err := domain.ParsePair(strings.ToUpper(sec.Ticker))
	if err != nil {
		return nil, errors.Wrapf(err, "security %s", sec.Ticker)
	}

	limit := sec.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	candles, err := retrier.DoWithData(c.retrier, ctx, func(ctx context.Context) ([]domain.MarketCandle, error) {
		return provider.GetKlines(ctx, pair, dailyInterval, limit)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch daily klines for %s", sec.Ticker)
	}
	if len(candles) == 0 {
		return nil, errors.Errorf("no kline data returned for %s", sec.Ticker)
	}

	c.logger.Debug("klines fetched",
		zap.String("ticker", sec.Ticker),
		zap.String("source", string(sec.Source)),
		zap.Int("count", len(candles)))

	return candles, nil
}
