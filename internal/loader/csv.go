// Package loader reads kline history from CSV files, one file per
// symbol, for runs that do not go through the bar store.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"pump-short-lab/internal/domain"
)

// Expected header of a kline CSV file.
var expectedHeader = []string{"timestamp_ms", "open", "high", "low", "close", "volume"}

var (
	ErrBadHeader = errors.New("unexpected csv header")
	ErrNoFiles   = errors.New("no csv files in directory")
)

// LoadFile reads one symbol's bars from a CSV file. Bars are validated as
// a series, so corrupt files fail fast instead of polluting a run.
func LoadFile(path string) ([]domain.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	bars, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	symbol := SymbolFromPath(path)
	if err := domain.ValidateSeries(symbol, bars); err != nil {
		return nil, err
	}

	return bars, nil
}

// LoadDir reads every *.csv file in dir, keyed by the file name stem as
// symbol.
func LoadDir(dir string) (map[string][]domain.Bar, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	series := make(map[string][]domain.Bar)
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		bars, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		series[SymbolFromPath(path)] = bars
	}

	if len(series) == 0 {
		return nil, ErrNoFiles
	}
	return series, nil
}

// SymbolFromPath derives the symbol from a file path: the upper-cased
// file name without extension.
func SymbolFromPath(path string) string {
	base := filepath.Base(path)
	return strings.ToUpper(strings.TrimSuffix(base, filepath.Ext(base)))
}

func parse(r io.Reader) ([]domain.Bar, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if !headerMatches(header) {
		return nil, fmt.Errorf("%w: got %v", ErrBadHeader, header)
	}

	var bars []domain.Bar
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		line++

		bar, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bars = append(bars, bar)
	}

	return bars, nil
}

func headerMatches(header []string) bool {
	if len(header) != len(expectedHeader) {
		return false
	}
	for i, h := range header {
		if strings.ToLower(strings.TrimSpace(h)) != expectedHeader[i] {
			return false
		}
	}
	return true
}

func parseRecord(record []string) (domain.Bar, error) {
	if len(record) != 6 {
		return domain.Bar{}, fmt.Errorf("expected 6 fields, got %d", len(record))
	}

	ts, err := strconv.ParseInt(strings.TrimSpace(record[0]), 10, 64)
	if err != nil {
		return domain.Bar{}, fmt.Errorf("parse timestamp_ms: %w", err)
	}

	values := make([]float64, 5)
	for i, field := range []string{"open", "high", "low", "close", "volume"} {
		v, err := strconv.ParseFloat(strings.TrimSpace(record[i+1]), 64)
		if err != nil {
			return domain.Bar{}, fmt.Errorf("parse %s: %w", field, err)
		}
		values[i] = v
	}

	return domain.Bar{
		TimestampMs: ts,
		Open:        values[0],
		High:        values[1],
		Low:         values[2],
		Close:       values[3],
		Volume:      values[4],
	}, nil
}
