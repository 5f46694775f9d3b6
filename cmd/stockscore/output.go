package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/seenimoa/stockscore/internal/analyzer"
	"github.com/seenimoa/stockscore/internal/config"
	"github.com/seenimoa/stockscore/internal/fx"
	"github.com/seenimoa/stockscore/internal/report"
	"github.com/seenimoa/stockscore/pkg/models"
)

const rule = "═══════════════════════════════════════"

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printResult(w io.Writer, res *analyzer.Result) {
	rec := res.Recommendation
	name := res.Symbol
	if name == "" {
		name = "(unnamed)"
	}

	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  %s: %s\n", name, rec.Action)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  Overall score: %.1f/100\n", rec.OverallScore)
	fmt.Fprintf(w, "  Confidence:    %.1f%%\n", rec.Confidence)
	fmt.Fprintf(w, "  Risk level:    %s\n", rec.RiskLevel)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "  Scores:")
	for _, s := range rec.Scores.All() {
		note := ""
		if s.Fallback {
			note = "  (no data, neutral)"
		}
		fmt.Fprintf(w, "    %-18s %5.1f%s\n", string(s.Name)+":", s.Value, note)
	}
	fmt.Fprintln(w)

	if len(rec.Factors) > 0 {
		fmt.Fprintln(w, "  Key factors:")
		for _, f := range rec.Factors {
			fmt.Fprintf(w, "    • %s\n", f)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "  %s\n", rec.Reasoning)
	fmt.Fprintln(w)
	printSummary(w, res.Summary)
}

func printSummary(w io.Writer, s models.TechnicalSummary) {
	fmt.Fprintln(w, "  Technical summary:")
	fmt.Fprintf(w, "    Trend:  %s\n", s.Trend)
	fmt.Fprintf(w, "    Volume: %s\n", s.Volume)
	if s.RSI != nil {
		fmt.Fprintf(w, "    RSI:    %.1f\n", *s.RSI)
	}
	if s.Momentum != nil {
		fmt.Fprintf(w, "    10-bar momentum: %+.2f%%\n", *s.Momentum)
	}
	for _, sig := range s.Signals {
		fmt.Fprintf(w, "    • %s\n", sig)
	}
}

func printMetrics(w io.Writer, m models.MetricsBundle) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	row := func(name string, v *float64, format string) {
		if v == nil {
			fmt.Fprintf(tw, "  %s\t-\n", name)
			return
		}
		fmt.Fprintf(tw, "  %s\t"+format+"\n", name, *v)
	}

	fmt.Fprintf(tw, "  Financial health\t%.1f/100\n", m.HealthScore)
	row("P/E", m.TrailingPE, "%.2f")
	row("P/B", m.PriceToBook, "%.2f")
	row("P/S", m.PriceToSales, "%.2f")
	row("ROE", m.ROE, "%.4f")
	row("Debt/Equity", m.DebtToEquity, "%.2f")
	row("Beta", m.Beta, "%.2f")
	row("Volatility", m.Volatility, "%.4f")
	row("Sharpe ratio", m.SharpeRatio, "%.2f")
	row("Max drawdown", m.MaxDrawdown, "%.4f")
	row("52w high", m.High52W, "%.2f")
	row("52w low", m.Low52W, "%.2f")
	tw.Flush()

	for _, n := range m.ValuationNotes {
		fmt.Fprintf(w, "  • %s\n", n)
	}
}

func printBatch(w io.Writer, b *analyzer.BatchResult) {
	fmt.Fprintf(w, "Batch %s: %d succeeded, %d failed (%s)\n", b.ID, b.Succeeded, b.Failed, b.Duration)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tACTION\tOVERALL\tCONFIDENCE\tRISK")
	for _, item := range b.Items {
		if item.Result == nil {
			fmt.Fprintf(tw, "%s\tERROR\t-\t-\t%s\n", item.Symbol, item.Error)
			continue
		}
		rec := item.Result.Recommendation
		fmt.Fprintf(tw, "%s\t%s\t%.1f\t%.1f\t%s\n", item.Symbol, rec.Action, rec.OverallScore, rec.Confidence, rec.RiskLevel)
	}
	tw.Flush()
}

// writeReport renders res to path, choosing HTML or text by extension.
func writeReport(path string, res *analyzer.Result, prices models.PriceSeries) error {
	format := report.FormatText
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		format = report.FormatHTML
	}

	out, err := report.Generate(res, prices, report.Config{Format: format})
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// runFX prints a quote, or a conversion when an amount is given.
func runFX(ctx context.Context, w io.Writer, conv *fx.Converter, args []string) error {
	from, to := args[0], args[1]

	if len(args) == 2 {
		q, err := conv.Rate(ctx, from, to)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s = %s (%s)\n", q.Pair, q.Rate.String(), q.Origin)
		return nil
	}

	amount, err := decimal.NewFromString(args[2])
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", args[2], err)
	}
	out, q, err := conv.Convert(ctx, amount, from, to)
	if err != nil {
		return err
	}
	origin := ""
	if q.Origin != "" {
		origin = fmt.Sprintf(" (%s rate %s)", q.Origin, q.Rate.String())
	}
	fmt.Fprintf(w, "%s = %s%s\n",
		fx.FormatAmount(amount, strings.ToUpper(from)),
		fx.FormatAmount(out, strings.ToUpper(to)),
		origin)
	return nil
}

func printStatus(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "  stockscore — Status")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  Version:       %s (%s)\n", version, commit)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "  Configuration:")
	fmt.Fprintf(w, "    Batch workers: %d (max %d items)\n", cfg.Analysis.Workers, cfg.Analysis.MaxBatchItems)
	fmt.Fprintf(w, "    API Server:    %s\n", cfg.API.Addr())
	fmt.Fprintf(w, "    FX base:       %s (cache %ds)\n", cfg.FX.BaseCurrency, cfg.FX.CacheTTL)
	fmt.Fprintf(w, "    Logging:       %s/%s → %s\n", cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "  API Keys:")
	for _, k := range config.CheckAPIKeys(cfg) {
		status := "❌ not set"
		if k.IsSet {
			status = fmt.Sprintf("✅ set (%s: %s)", k.Source, k.Masked)
		}
		fmt.Fprintf(w, "    %-25s %s\n", k.Name+":", status)
	}
	fmt.Fprintln(w, rule)
}
