package collector

import (
	"context"
	"strconv"
	"time"

	bybit "github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/pndscan/internal/domain"
	"github.com/vadiminshakov/pndscan/pkg/retrier"
)

const bybitMaxLimit = 1000

// BybitKlineProvider implements KlineProvider for Bybit spot.
type BybitKlineProvider struct {
	client *bybit.Client
}

// NewBybitKlineProvider creates a new Bybit kline provider.
func NewBybitKlineProvider(client *bybit.Client) *BybitKlineProvider {
	return &BybitKlineProvider{client: client}
}

// NewBybitClient builds a client, authenticated only when a key is given.
func NewBybitClient(apiKey, apiSecret string) *bybit.Client {
	client := bybit.NewClient()
	if apiKey != "" {
		client = client.WithAuth(apiKey, apiSecret)
	}
	return client
}

// GetKlines fetches kline data. Bybit lists newest first; the result is oldest first.
func (p *BybitKlineProvider) GetKlines(ctx context.Context, pair domain.Pair, interval string, limit int) ([]domain.MarketCandle, error) {
	if limit <= 0 {
		return nil, retrier.Permanent(errors.New("limit must be > 0"))
	}
	if limit > bybitMaxLimit {
		limit = bybitMaxLimit
	}

	bybitInterval, err := convertIntervalToBybit(interval)
	if err != nil {
		return nil, retrier.Permanent(errors.Wrapf(err, "invalid interval: %s", interval))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := p.client.V5().Market().GetKline(bybit.V5GetKlineParam{
		Category: bybit.CategoryV5Spot,
		Symbol:   bybit.SymbolV5(pair.Symbol()),
		Interval: bybitInterval,
		Limit:    &limit,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch klines from Bybit for %s", pair.String())
	}
	if result == nil {
		return nil, errors.Errorf("empty result from Bybit API for %s", pair.String())
	}

	items := result.Result.List
	candles := make([]domain.MarketCandle, len(items))
	for i, k := range items {
		openTime, err := parseTimestamp(k.StartTime)
		if err != nil {
			return nil, retrier.Permanent(errors.Wrapf(err, "failed to parse start time at index %d", i))
		}

		candle, err := candleFromStrings(i, openTime, k.Open, k.High, k.Low, k.Close, k.Volume)
		if err != nil {
			return nil, retrier.Permanent(err)
		}
		candles[len(items)-1-i] = candle
	}

	return candles, nil
}

// convertIntervalToBybit maps the intervals the collector requests to Bybit's codes.
func convertIntervalToBybit(interval string) (bybit.Interval, error) {
	switch interval {
	case dailyInterval:
		return bybit.Interval("D"), nil
	default:
		return "", errors.Errorf("unsupported interval: %s", interval)
	}
}

// parseTimestamp converts a millisecond timestamp string to UTC time.
func parseTimestamp(ts string) (time.Time, error) {
	if ts == "" {
		return time.Time{}, errors.New("empty timestamp")
	}

	msec, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "failed to parse timestamp: %s", ts)
	}

	return time.UnixMilli(msec).UTC(), nil
}
