// Package domain defines the data structures shared by the pump-and-dump pipeline.
package domain

import (
	"fmt"
	"strings"
)

// Pair exchange trading pair, used by crypto kline sources.
type Pair struct {
	// From base asset symbol.
	From string
	// To quote asset symbol.
	To string
}

// String returns the string representation.
func (p Pair) String() string {
	return fmt.Sprintf("%s_%s", p.From, p.To)
}

// Symbol returns the concatenated exchange symbol.
func (p Pair) Symbol() string {
	return fmt.Sprintf("%s%s", p.From, p.To)
}

// ParsePair parses "BASE_QUOTE".
func ParsePair(s string) (Pair, error) {
	parts := strings.Split(s, "_")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Pair{}, fmt.Errorf("invalid pair %q, expected BASE_QUOTE", s)
	}
	return Pair{From: parts[0], To: parts[1]}, nil
}

// SourceKind identifies where a security's price history comes from.
type SourceKind string

const (
	SourceCSV     SourceKind = "csv"
	SourceBinance SourceKind = "binance"
	SourceBybit   SourceKind = "bybit"
)

// Security one instrument to analyse.
type Security struct {
	// Ticker exchange ticker or pair ("ABRD", "BTC_USDT").
	Ticker string
	// Source price history provider.
	Source SourceKind
	// Path price CSV file, csv source only.
	Path string
	// NewsPath YAML news list, optional.
	NewsPath string
	// Limit number of daily klines to request from exchange sources.
	Limit int
}
