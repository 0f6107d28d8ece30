package collector

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// parseDecimal parses an exchange or CSV number; an empty cell is a missing value.
// A decimal comma is accepted.
func parseDecimal(field string, row int, s string) (*decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s at row %d", field, row)
	}

	return &d, nil
}
