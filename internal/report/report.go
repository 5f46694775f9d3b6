package report

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/seenimoa/stockscore/internal/analysis/technical"
	"github.com/seenimoa/stockscore/internal/analyzer"
	"github.com/seenimoa/stockscore/internal/scoring"
	"github.com/seenimoa/stockscore/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Report Generator
// ════════════════════════════════════════════════════════════════════

// Format specifies the output format.
type Format string

const (
	FormatHTML Format = "html"
	FormatText Format = "text"
)

// ErrUnsupportedFormat is returned for a format other than html or text.
var ErrUnsupportedFormat = errors.New("unsupported report format")

// chartBars caps the candles drawn in the price chart.
const chartBars = 120

// Config controls report generation.
type Config struct {
	Format   Format      // output format (default: html)
	Title    string      // report title (default: "Stock Analysis")
	Author   string      // shown in the header (default: "stockscore")
	ChartCfg ChartConfig // price chart rendering config
	Now      time.Time   // generation time (default: time.Now)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Format:   FormatHTML,
		Title:    "Stock Analysis",
		Author:   "stockscore",
		ChartCfg: DefaultChartConfig(),
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Format == "" {
		c.Format = d.Format
	}
	if c.Title == "" {
		c.Title = d.Title
	}
	if c.Author == "" {
		c.Author = d.Author
	}
	if c.ChartCfg.Width == 0 {
		c.ChartCfg = d.ChartCfg
	}
	if c.Now.IsZero() {
		c.Now = time.Now()
	}
	return c
}

// ════════════════════════════════════════════════════════════════════
// Report Data
// ════════════════════════════════════════════════════════════════════

// Data is the flattened model handed to the templates.
type Data struct {
	Title       string
	Symbol      string
	Author      string
	GeneratedAt string
	Bars        int
	LastPrice   string

	Action      string
	ActionClass string // CSS class: strong-buy, buy, hold, sell, strong-sell
	Overall     string
	Confidence  string
	Risk        string
	Reasoning   string
	Factors     []string

	Scores         []ScoreRow
	Technical      []Row
	Signals        []string
	Metrics        []Row
	ValuationNotes []string

	PriceChart template.HTML
	ScoreChart template.HTML
	GaugeChart template.HTML
}

// ScoreRow is one sub-score line.
type ScoreRow struct {
	Label  string
	Value  string
	Weight string
	Note   string
}

// Row is a label/value pair.
type Row struct {
	Label string
	Value string
}

// ════════════════════════════════════════════════════════════════════
// Generate Report
// ════════════════════════════════════════════════════════════════════

// Generate renders res in cfg.Format. prices is optional and only feeds
// the price chart and the last close.
func Generate(res *analyzer.Result, prices models.PriceSeries, cfg Config) (string, error) {
	switch cfg.withDefaults().Format {
	case FormatHTML:
		return GenerateHTML(res, prices, cfg)
	case FormatText:
		return GenerateText(res, prices, cfg)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, cfg.Format)
	}
}

// GenerateHTML renders a self-contained HTML report with inline SVG charts.
func GenerateHTML(res *analyzer.Result, prices models.PriceSeries, cfg Config) (string, error) {
	if res == nil {
		return "", fmt.Errorf("result is nil")
	}
	cfg = cfg.withDefaults()
	data := buildData(res, prices, cfg)

	chartCfg := cfg.ChartCfg
	chartCfg.Title = res.Symbol + " price"
	if len(prices) > 0 {
		window, overlays := chartWindow(prices)
		data.PriceChart = template.HTML(CandlestickChart(window, overlays, chartCfg))
	}

	items := make([]BarItem, 0, 5)
	for _, s := range res.Recommendation.Scores.All() {
		items = append(items, BarItem{Label: scoreLabel(s.Name), Value: s.Value, Muted: s.Fallback})
	}
	data.ScoreChart = template.HTML(ScoreBarChart(items, ChartConfig{}))
	data.GaugeChart = template.HTML(GaugeChart(res.Recommendation.OverallScore, "Overall", 200))

	tmpl, err := template.New("report").Parse(reportTemplate)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return buf.String(), nil
}

// GenerateText renders a plain-text report for terminals.
func GenerateText(res *analyzer.Result, prices models.PriceSeries, cfg Config) (string, error) {
	if res == nil {
		return "", fmt.Errorf("result is nil")
	}
	return renderText(buildData(res, prices, cfg.withDefaults())), nil
}

// ════════════════════════════════════════════════════════════════════
// Internal
// ════════════════════════════════════════════════════════════════════

func buildData(res *analyzer.Result, prices models.PriceSeries, cfg Config) Data {
	rec := res.Recommendation
	d := Data{
		Title:          cfg.Title,
		Symbol:         res.Symbol,
		Author:         cfg.Author,
		GeneratedAt:    cfg.Now.UTC().Format("02 Jan 2006, 15:04 MST"),
		Bars:           res.Bars,
		Action:         string(rec.Action),
		ActionClass:    actionClass(rec.Action),
		Overall:        fmt.Sprintf("%.1f/100", rec.OverallScore),
		Confidence:     fmt.Sprintf("%.1f%%", rec.Confidence),
		Risk:           string(rec.RiskLevel),
		Reasoning:      rec.Reasoning,
		Factors:        rec.Factors,
		Signals:        res.Summary.Signals,
		ValuationNotes: res.Metrics.ValuationNotes,
	}
	if d.Symbol == "" {
		d.Symbol = "N/A"
	}
	if n := len(prices); n > 0 {
		d.LastPrice = fmt.Sprintf("%.2f", prices[n-1].Close)
	}

	for _, s := range rec.Scores.All() {
		row := ScoreRow{
			Label:  scoreLabel(s.Name),
			Value:  fmt.Sprintf("%.1f", s.Value),
			Weight: fmt.Sprintf("%.0f%%", weight(s.Name)*100),
		}
		if s.Fallback {
			row.Note = "no data, neutral"
		}
		d.Scores = append(d.Scores, row)
	}

	sum := res.Summary
	d.Technical = []Row{
		{"Trend", string(sum.Trend)},
		{"Volume", string(sum.Volume)},
		{"RSI (14)", optional(sum.RSI, "%.1f")},
		{"Momentum (10)", optional(sum.Momentum, "%+.2f%%")},
		{"MA 20", optional(sum.MA20, "%.2f")},
		{"MA 50", optional(sum.MA50, "%.2f")},
		{"ATR (14)", optional(sum.ATR, "%.2f")},
	}
	if sum.MACD != nil {
		d.Technical = append(d.Technical, Row{"MACD hist", fmt.Sprintf("%.3f", sum.MACD.Histogram)})
	}
	if lv := sum.Pivots; lv != nil {
		d.Technical = append(d.Technical,
			Row{"Pivot", fmt.Sprintf("%.2f", lv.Pivot)},
			Row{"Support (S1)", fmt.Sprintf("%.2f", lv.S1)},
			Row{"Resistance (R1)", fmt.Sprintf("%.2f", lv.R1)},
		)
	}
	if sr := sum.SupportResistance; sr != nil {
		d.Technical = append(d.Technical,
			Row{"Nearest support", optional(sr.NearestSupport, "%.2f")},
			Row{"Nearest resistance", optional(sr.NearestResistance, "%.2f")},
			Row{fmt.Sprintf("Swing levels (%d)", sr.Window), fmt.Sprintf("%d support, %d resistance", len(sr.Supports), len(sr.Resistances))},
		)
	}

	m := res.Metrics
	d.Metrics = []Row{
		{"Financial health", fmt.Sprintf("%.1f/100", m.HealthScore)},
		{"P/E", optional(m.TrailingPE, "%.2f")},
		{"P/B", optional(m.PriceToBook, "%.2f")},
		{"ROE", optional(m.ROE, "%.4f")},
		{"Debt/Equity", optional(m.DebtToEquity, "%.2f")},
		{"Beta", optional(m.Beta, "%.2f")},
		{"Volatility", optional(m.Volatility, "%.4f")},
		{"Sharpe ratio", optional(m.SharpeRatio, "%.2f")},
		{"Max drawdown", optional(m.MaxDrawdown, "%.4f")},
		{"vs 52w high", optional(m.PriceVs52WHigh, "%.4f")},
	}
	return d
}

// chartWindow returns the tail of prices and SMA overlays computed over
// the full series, so the first charted bars already carry averages.
func chartWindow(prices models.PriceSeries) (models.PriceSeries, []Overlay) {
	closes := prices.Closes()
	start := max(len(prices)-chartBars, 0)

	var overlays []Overlay
	for _, p := range []int{20, 50} {
		sma := technical.SMA(closes, p)
		if len(sma) != len(closes) {
			continue
		}
		overlays = append(overlays, Overlay{Name: fmt.Sprintf("SMA %d", p), Values: sma[start:]})
	}
	return prices[start:], overlays
}

func optional(v *float64, format string) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf(format, *v)
}

func scoreLabel(n models.SubScoreName) string {
	switch n {
	case models.ScoreFinancialHealth:
		return "Financial health"
	case models.ScoreValuation:
		return "Valuation"
	case models.ScoreTechnical:
		return "Technical"
	case models.ScoreGrowth:
		return "Growth"
	case models.ScoreMomentum:
		return "Momentum"
	}
	return string(n)
}

func weight(n models.SubScoreName) float64 {
	switch n {
	case models.ScoreFinancialHealth:
		return scoring.WeightFinancialHealth
	case models.ScoreValuation:
		return scoring.WeightValuation
	case models.ScoreTechnical:
		return scoring.WeightTechnical
	case models.ScoreGrowth:
		return scoring.WeightGrowth
	case models.ScoreMomentum:
		return scoring.WeightMomentum
	}
	return 0
}

func actionClass(a models.Action) string {
	return strings.ReplaceAll(strings.ToLower(string(a)), "_", "-")
}

// ════════════════════════════════════════════════════════════════════
// Plain-text renderer
// ════════════════════════════════════════════════════════════════════

func renderText(d Data) string {
	var sb strings.Builder
	line := strings.Repeat("═", 60)
	thinLine := strings.Repeat("─", 60)

	sb.WriteString(line + "\n")
	fmt.Fprintf(&sb, "  %s: %s\n", d.Title, d.Symbol)
	fmt.Fprintf(&sb, "  Generated: %s | Author: %s\n", d.GeneratedAt, d.Author)
	sb.WriteString(line + "\n")

	fmt.Fprintf(&sb, "  %d bars analysed", d.Bars)
	if d.LastPrice != "" {
		fmt.Fprintf(&sb, ", last close %s", d.LastPrice)
	}
	sb.WriteString("\n" + thinLine + "\n")

	sb.WriteString("\n  ★ RECOMMENDATION\n")
	fmt.Fprintf(&sb, "  %s (overall %s, confidence %s, risk %s)\n", d.Action, d.Overall, d.Confidence, d.Risk)
	for _, f := range d.Factors {
		fmt.Fprintf(&sb, "    • %s\n", f)
	}
	fmt.Fprintf(&sb, "\n  %s\n", d.Reasoning)
	sb.WriteString(thinLine + "\n")

	sb.WriteString("\n  ■ SCORES\n")
	for _, s := range d.Scores {
		fmt.Fprintf(&sb, "    %-18s %6s  (weight %s)", s.Label, s.Value, s.Weight)
		if s.Note != "" {
			fmt.Fprintf(&sb, "  %s", s.Note)
		}
		sb.WriteString("\n")
	}
	sb.WriteString(thinLine + "\n")

	writeRows := func(title string, rows []Row, notes []string) {
		fmt.Fprintf(&sb, "\n  ■ %s\n", title)
		for _, r := range rows {
			fmt.Fprintf(&sb, "    %-18s %s\n", r.Label, r.Value)
		}
		for _, n := range notes {
			fmt.Fprintf(&sb, "    • %s\n", n)
		}
		sb.WriteString(thinLine + "\n")
	}
	writeRows("TECHNICAL SUMMARY", d.Technical, d.Signals)
	writeRows("FUNDAMENTAL & RISK METRICS", d.Metrics, d.ValuationNotes)

	sb.WriteString("\n" + line + "\n")
	sb.WriteString("  Informational only. Not financial advice.\n")
	sb.WriteString(line + "\n")
	return sb.String()
}
