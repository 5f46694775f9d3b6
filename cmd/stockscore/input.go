package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/seenimoa/stockscore/internal/analyzer"
	"github.com/seenimoa/stockscore/internal/datasource"
)

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().String("prices", "", "price history file (.csv, .json, .yaml)")
	cmd.Flags().String("fundamentals", "", "fundamentals snapshot file (.json, .yaml)")
	cmd.Flags().Bool("fetch", false, "fetch price history from Yahoo Finance instead of --prices")
	cmd.Flags().Int("days", 400, "history to fetch with --fetch, in calendar days")
}

func asJSON(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

// loadInput builds an analyzer input from the input flags. Both files are
// optional; missing data scores neutral.
func loadInput(cmd *cobra.Command, symbol string) (analyzer.Input, error) {
	in := analyzer.Input{Symbol: strings.ToUpper(symbol)}

	pricesPath, _ := cmd.Flags().GetString("prices")
	fetch, _ := cmd.Flags().GetBool("fetch")
	switch {
	case pricesPath != "" && fetch:
		return in, fmt.Errorf("--prices and --fetch are mutually exclusive")
	case pricesPath != "":
		series, err := datasource.LoadPrices(pricesPath)
		if err != nil {
			return in, err
		}
		in.Prices = series
	case fetch:
		if in.Symbol == "" {
			return in, fmt.Errorf("--fetch needs a symbol")
		}
		days, _ := cmd.Flags().GetInt("days")
		to := time.Now()
		series, err := datasource.NewYFinance().GetHistoricalData(cmd.Context(), in.Symbol, to.AddDate(0, 0, -days), to)
		if err != nil {
			return in, err
		}
		in.Prices = series
	}

	if path, _ := cmd.Flags().GetString("fundamentals"); path != "" {
		f, unknown, err := datasource.LoadFundamentals(path)
		if err != nil {
			return in, err
		}
		if len(unknown) > 0 {
			log.WithField("fields", unknown).Debug("ignored unknown fundamentals fields")
		}
		in.Fundamentals = f
	}

	if in.Symbol == "" && pricesPath != "" {
		in.Symbol = strings.ToUpper(strings.TrimSuffix(filepath.Base(pricesPath), filepath.Ext(pricesPath)))
	}
	return in, nil
}

// manifestEntry is one symbol of a batch manifest.
type manifestEntry struct {
	Symbol       string `yaml:"symbol"       json:"symbol"`
	Prices       string `yaml:"prices"       json:"prices"`
	Fundamentals string `yaml:"fundamentals" json:"fundamentals"`
}

// loadManifest reads a batch manifest and the files it names. Relative
// paths are resolved against the manifest's directory.
func loadManifest(path string) ([]analyzer.Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var entries []manifestEntry
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &entries)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &entries)
	default:
		return nil, fmt.Errorf("%w: %s", datasource.ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("manifest %s lists no symbols", path)
	}

	dir := filepath.Dir(path)
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}

	inputs := make([]analyzer.Input, 0, len(entries))
	for i, e := range entries {
		if e.Symbol == "" {
			return nil, fmt.Errorf("manifest entry %d: symbol is required", i)
		}
		in := analyzer.Input{Symbol: strings.ToUpper(e.Symbol)}
		if e.Prices != "" {
			if in.Prices, err = datasource.LoadPrices(resolve(e.Prices)); err != nil {
				return nil, fmt.Errorf("%s: %w", in.Symbol, err)
			}
		}
		if e.Fundamentals != "" {
			if in.Fundamentals, _, err = datasource.LoadFundamentals(resolve(e.Fundamentals)); err != nil {
				return nil, fmt.Errorf("%s: %w", in.Symbol, err)
			}
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}
