package collector

import (
	"context"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/pndscan/internal/domain"
	"github.com/vadiminshakov/pndscan/pkg/retrier"
)

// binanceMaxLimit is the largest page the klines endpoint serves.
const binanceMaxLimit = 1000

// BinanceKlineProvider implements KlineProvider for Binance spot.
type BinanceKlineProvider struct {
	client *binance.Client
}

// NewBinanceKlineProvider creates a new Binance kline provider.
func NewBinanceKlineProvider(client *binance.Client) *BinanceKlineProvider {
	return &BinanceKlineProvider{client: client}
}

// NewBinanceClient builds a client; market data needs no credentials, so both may be empty.
func NewBinanceClient(apiKey, apiSecret string) *binance.Client {
	return binance.NewClient(apiKey, apiSecret)
}

// GetKlines fetches kline data from Binance.
func (p *BinanceKlineProvider) GetKlines(ctx context.Context, pair domain.Pair, interval string, limit int) ([]domain.MarketCandle, error) {
	if limit <= 0 {
		return nil, retrier.Permanent(errors.New("limit must be > 0"))
	}
	if limit > binanceMaxLimit {
		limit = binanceMaxLimit
	}

	klines, err := p.client.NewKlinesService().
		Symbol(pair.Symbol()).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch klines from Binance for %s", pair.String())
	}

	result := make([]domain.MarketCandle, len(klines))
	for i, k := range klines {
		candle, err := candleFromStrings(i, time.UnixMilli(k.OpenTime).UTC(), k.Open, k.High, k.Low, k.Close, k.Volume)
		if err != nil {
			return nil, retrier.Permanent(err)
		}
		result[i] = candle
	}

	return result, nil
}

// candleFromStrings parses one OHLCV row.
func candleFromStrings(row int, openTime time.Time, open, high, low, closePrice, volume string) (domain.MarketCandle, error) {
	candle := domain.MarketCandle{OpenTime: openTime}

	var err error
	if candle.Open, err = parseDecimal("open price", row, open); err != nil {
		return candle, err
	}
	if candle.High, err = parseDecimal("high price", row, high); err != nil {
		return candle, err
	}
	if candle.Low, err = parseDecimal("low price", row, low); err != nil {
		return candle, err
	}
	if candle.Close, err = parseDecimal("close price", row, closePrice); err != nil {
		return candle, err
	}
	if candle.Volume, err = parseDecimal("volume", row, volume); err != nil {
		return candle, err
	}

	return candle, nil
}
