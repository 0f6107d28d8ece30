package collector

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/pndscan/internal/domain"
)

var dateLayouts = []string{time.DateOnly, "02.01.2006", "20060102", time.RFC3339, time.DateTime}

var dateColumns = []string{"TRADEDATE", "DATE"}

// LoadCSV reads a daily price file, see ReadCSV.
func LoadCSV(path string) ([]domain.MarketCandle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open price file")
	}
	defer f.Close()

	candles, err := ReadCSV(f)
	if err != nil {
		return nil, errors.Wrapf(err, "price file %s", path)
	}
	return candles, nil
}

// ReadCSV parses a MOEX ISS style export: lines before the header row (the one with a
// TRADEDATE or DATE column) are skipped, the table ends at the first blank line.
// Fields may be separated by ';' or ','. OPEN, HIGH, LOW and VOLUME are optional,
// CLOSE is required; empty cells are missing values.
func ReadCSV(r io.Reader) ([]domain.MarketCandle, error) {
	header, body, err := extractTable(r)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(strings.NewReader(header + "\n" + strings.Join(body, "\n")))
	reader.Comma = delimiter(header)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse csv")
	}

	cols := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		cols[strings.ToUpper(strings.TrimSpace(name))] = i
	}

	dateCol := -1
	for _, name := range dateColumns {
		if i, ok := cols[name]; ok {
			dateCol = i
			break
		}
	}
	if _, ok := cols[domain.ColumnClose]; !ok {
		return nil, errors.Errorf("csv has no %s column", domain.ColumnClose)
	}

	cell := func(record []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	candles := make([]domain.MarketCandle, 0, len(records)-1)
	for n, record := range records[1:] {
		row := n + 1
		if dateCol >= len(record) {
			return nil, errors.Errorf("row %d has no date", row)
		}

		date, err := parseDate(record[dateCol])
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", row)
		}

		candle, err := candleFromStrings(row, date,
			cell(record, domain.ColumnOpen),
			cell(record, domain.ColumnHigh),
			cell(record, domain.ColumnLow),
			cell(record, domain.ColumnClose),
			cell(record, domain.ColumnVolume),
		)
		if err != nil {
			return nil, err
		}
		candles = append(candles, candle)
	}

	return candles, nil
}

func extractTable(r io.Reader) (string, []string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var (
		header string
		body   []string
	)
	for scanner.Scan() {
		line := strings.TrimRight(strings.TrimPrefix(scanner.Text(), "\ufeff"), "\r")
		if header == "" {
			if isHeader(line) {
				header = line
			}
			continue
		}
		if strings.TrimSpace(line) == "" {
			break
		}
		body = append(body, line)
	}
	if err := scanner.Err(); err != nil {
		return "", nil, errors.Wrap(err, "failed to read csv")
	}
	if header == "" {
		return "", nil, errors.New("csv has no header row with a TRADEDATE or DATE column")
	}

	return header, body, nil
}

func isHeader(line string) bool {
	fields := strings.FieldsFunc(line, func(r rune) bool { return r == ';' || r == ',' })
	for _, f := range fields {
		name := strings.ToUpper(strings.Trim(strings.TrimSpace(f), `"`))
		for _, col := range dateColumns {
			if name == col {
				return true
			}
		}
	}
	return false
}

func delimiter(header string) rune {
	if strings.Count(header, ";") > strings.Count(header, ",") {
		return ';'
	}
	return ','
}

// parseDate parses a date in one of the accepted layouts as midnight UTC.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Errorf("unrecognised date %q", s)
}
