package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Column names used by price frames.
const (
	ColumnOpen   = "OPEN"
	ColumnHigh   = "HIGH"
	ColumnLow    = "LOW"
	ColumnClose  = "CLOSE"
	ColumnVolume = "VOLUME"
)

// MarketCandle single OHLCV candlestick. Missing fields are nil.
type MarketCandle struct {
	OpenTime time.Time
	Open     *decimal.Decimal
	High     *decimal.Decimal
	Low      *decimal.Decimal
	Close    *decimal.Decimal
	Volume   *decimal.Decimal
}

// CandlesToFrame builds an OHLCV frame ordered by open time.
func CandlesToFrame(candles []MarketCandle) (*Frame, error) {
	sorted := make([]MarketCandle, len(candles))
	copy(sorted, candles)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OpenTime.Before(sorted[j].OpenTime)
	})

	index := make([]time.Time, len(sorted))
	cols := map[string][]float64{
		ColumnOpen:   make([]float64, len(sorted)),
		ColumnHigh:   make([]float64, len(sorted)),
		ColumnLow:    make([]float64, len(sorted)),
		ColumnClose:  make([]float64, len(sorted)),
		ColumnVolume: make([]float64, len(sorted)),
	}
	for i, c := range sorted {
		index[i] = c.OpenTime
		cols[ColumnOpen][i] = decimalOrNaN(c.Open)
		cols[ColumnHigh][i] = decimalOrNaN(c.High)
		cols[ColumnLow][i] = decimalOrNaN(c.Low)
		cols[ColumnClose][i] = decimalOrNaN(c.Close)
		cols[ColumnVolume][i] = decimalOrNaN(c.Volume)
	}

	frame, err := NewFrame(index)
	if err != nil {
		return nil, err
	}
	for _, name := range []string{ColumnOpen, ColumnHigh, ColumnLow, ColumnClose, ColumnVolume} {
		if err := frame.SetColumn(name, cols[name]); err != nil {
			return nil, err
		}
	}

	return frame, nil
}

func decimalOrNaN(d *decimal.Decimal) float64 {
	if d == nil {
		return nan
	}
	f, _ := d.Float64()
	return f
}
