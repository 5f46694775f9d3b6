package datasource

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/seenimoa/stockscore/pkg/models"
)

// dateLayouts are accepted for bar dates in CSV files.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05-07:00",
	"01/02/2006",
}

// LoadPrices reads a price series from a .csv, .json, .yaml or .yml file.
// JSON may be a list of bars or a Yahoo chart response. The series is
// sorted by date but not validated.
func LoadPrices(path string) (models.PriceSeries, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prices: %w", err)
	}

	var series models.PriceSeries
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		series, err = ReadPricesCSV(bytes.NewReader(data))
	case ".json":
		series, err = ReadPricesJSON(data)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &series)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse prices %s: %w", path, err)
	}

	if len(series) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoData)
	}
	SortSeries(series)
	return series, nil
}

// ReadPricesCSV parses bars with a header row naming date, open, high,
// low, close and volume columns in any order (case-insensitive). Extra
// columns such as "Adj Close" are ignored. Rows with a null close are
// skipped.
func ReadPricesCSV(r io.Reader) (models.PriceSeries, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := cols["date"]; !ok {
		if i, ok := cols["timestamp"]; ok {
			cols["date"] = i
		}
	}
	for _, name := range []string{"date", "open", "high", "low", "close", "volume"} {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	var series models.PriceSeries
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		closeStr := strings.TrimSpace(rec[cols["close"]])
		if closeStr == "" || strings.EqualFold(closeStr, "null") {
			continue
		}

		bar, err := parseCSVBar(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		series = append(series, bar)
	}

	return series, nil
}

func parseCSVBar(rec []string, cols map[string]int) (models.OHLCV, error) {
	var bar models.OHLCV

	ts, err := parseDate(rec[cols["date"]])
	if err != nil {
		return bar, err
	}
	bar.Timestamp = ts

	nums := make(map[string]float64, 5)
	for _, name := range []string{"open", "high", "low", "close", "volume"} {
		v, err := parseFinite(rec[cols[name]])
		if err != nil {
			return bar, fmt.Errorf("%s: %w", name, err)
		}
		nums[name] = v
	}
	bar.Open, bar.High, bar.Low, bar.Close = nums["open"], nums["high"], nums["low"], nums["close"]
	bar.Volume = int64(nums["volume"])

	return bar, nil
}

// parseFinite parses a numeric cell. strconv accepts "NaN" and "Inf",
// which never describe a real quote.
func parseFinite(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q: %w", strings.TrimSpace(s), models.ErrNonFiniteValue)
	}
	return v, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// ReadPricesJSON parses either a list of bars or a Yahoo chart response.
func ReadPricesJSON(data []byte) (models.PriceSeries, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var series models.PriceSeries
		if err := json.Unmarshal(trimmed, &series); err != nil {
			return nil, err
		}
		return series, nil
	}

	var resp yfChartResponse
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return nil, err
	}
	return chartSeries(resp, "")
}

// SortSeries orders bars by date, oldest first.
func SortSeries(series models.PriceSeries) {
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Timestamp.Before(series[j].Timestamp)
	})
}

// LoadFundamentals reads a snapshot from a .json, .yaml or .yml file and
// canonicalizes its keys. Unknown keys are returned for reporting.
func LoadFundamentals(path string) (models.Fundamentals, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Fundamentals{}, nil, fmt.Errorf("read fundamentals: %w", err)
	}

	raw := make(map[string]any)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &raw)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		return models.Fundamentals{}, nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return models.Fundamentals{}, nil, fmt.Errorf("parse fundamentals %s: %w", path, err)
	}

	return Canonicalize(raw)
}
