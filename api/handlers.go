package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/seenimoa/stockscore/internal/analysis/fundamental"
	"github.com/seenimoa/stockscore/internal/analysis/technical"
	"github.com/seenimoa/stockscore/internal/analyzer"
	"github.com/seenimoa/stockscore/internal/datasource"
	"github.com/seenimoa/stockscore/internal/fx"
	"github.com/seenimoa/stockscore/internal/logging"
	"github.com/seenimoa/stockscore/internal/report"
	"github.com/seenimoa/stockscore/pkg/models"
)

// defaultHistoryDays is the lookback fetched when a request names a ticker
// without prices.
const defaultHistoryDays = 400

// ============================================================
// Request / Response types
// ============================================================

// AnalyzeRequest is the body for POST /api/v1/analyze. Fundamentals may use
// canonical names or Yahoo-style keys. With Fetch set and no prices, the
// history is loaded for Symbol.
type AnalyzeRequest struct {
	Symbol       string                 `json:"symbol"`
	Prices       models.PriceSeries     `json:"prices,omitempty"`
	Fundamentals map[string]interface{} `json:"fundamentals,omitempty"`
	Fetch        bool                   `json:"fetch,omitempty"`
	Days         int                    `json:"days,omitempty"`
}

// AnalyzeResponse is the analysis plus the snapshot keys that were ignored.
type AnalyzeResponse struct {
	*analyzer.Result
	IgnoredFields []string `json:"ignored_fields,omitempty"`
}

// BatchRequest is the body for POST /api/v1/analyze/batch.
type BatchRequest struct {
	Items   []AnalyzeRequest `json:"items"`
	Workers int              `json:"workers,omitempty"`
}

// SeriesRequest is the body for POST /api/v1/technical and /metrics.
type SeriesRequest struct {
	Prices       models.PriceSeries     `json:"prices"`
	Fundamentals map[string]interface{} `json:"fundamentals,omitempty"`
}

// ExplainResponse is one metric explanation.
type ExplainResponse struct {
	Metric      string `json:"metric"`
	Explanation string `json:"explanation"`
	Known       bool   `json:"known"`
}

// FXResponse is a quote and an optional converted amount.
type FXResponse struct {
	fx.Quote
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	Converted *decimal.Decimal `json:"converted,omitempty"`
	Display   string           `json:"display,omitempty"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	in, ignored, err := s.buildInput(r.Context(), req)
	if err != nil {
		writeError(w, statusForInput(err), err.Error())
		return
	}

	res, err := s.analyzer.Analyze(in)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	logging.WithSymbol(s.log, res.Symbol).WithField("action", res.Recommendation.Action).Debug("analysis complete")

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    AnalyzeResponse{Result: res, IgnoredFields: ignored},
	})
}

// handleReport runs the same pipeline as handleAnalyze and returns the
// rendered report instead of JSON. ?format=text selects plain text.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	format := report.Format(strings.ToLower(r.URL.Query().Get("format")))
	if format == "" {
		format = report.FormatHTML
	}
	if format != report.FormatHTML && format != report.FormatText {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%v: %q", report.ErrUnsupportedFormat, format))
		return
	}

	in, _, err := s.buildInput(r.Context(), req)
	if err != nil {
		writeError(w, statusForInput(err), err.Error())
		return
	}
	res, err := s.analyzer.Analyze(in)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	out, err := report.Generate(res, in.Prices, report.Config{Format: format})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	contentType := "text/html; charset=utf-8"
	if format == report.FormatText {
		contentType = "text/plain; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(out))
}

func (s *Server) handleAnalyzeBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "items is required")
		return
	}
	if limit := s.cfg.Analysis.MaxBatchItems; limit > 0 && len(req.Items) > limit {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("batch of %d items exceeds limit of %d", len(req.Items), limit))
		return
	}

	inputs := make([]analyzer.Input, len(req.Items))
	for i, item := range req.Items {
		in, _, err := s.buildInput(r.Context(), item)
		if err != nil {
			logging.WithSymbol(s.log, item.Symbol).WithError(err).Warn("batch item not loaded")
			in = analyzer.Input{Symbol: strings.ToUpper(strings.TrimSpace(item.Symbol)), LoadErr: err}
		}
		inputs[i] = in
	}

	workers := req.Workers
	if limit := s.cfg.Analysis.Workers; workers <= 0 || (limit > 0 && workers > limit) {
		workers = limit
	}

	batch, err := s.analyzer.AnalyzeBatch(r.Context(), inputs, workers)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	s.log.WithFields(logging.Fields{
		"batch_id":  batch.ID,
		"succeeded": batch.Succeeded,
		"failed":    batch.Failed,
	}).Info("batch analysis complete")

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    batch,
	})
}

func (s *Server) handleTechnical(w http.ResponseWriter, r *http.Request) {
	var req SeriesRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validatePrices(req.Prices); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    technical.Summarize(req.Prices),
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	var req SeriesRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validatePrices(req.Prices); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	f, _, err := datasource.Canonicalize(req.Fundamentals)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    fundamental.ComputeMetrics(f, req.Prices),
	})
}

func (s *Server) handleOHLCV(w http.ResponseWriter, r *http.Request) {
	if s.prices == nil {
		writeError(w, http.StatusServiceUnavailable, "price source not configured")
		return
	}

	ticker := chi.URLParam(r, "ticker")
	days := defaultHistoryDays
	if d := r.URL.Query().Get("days"); d != "" {
		n, err := strconv.Atoi(d)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = n
	}

	candles, err := s.fetchHistory(r.Context(), ticker, days)
	if err != nil {
		writeError(w, statusForInput(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    candles,
	})
}

func (s *Server) handleExplainList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    fundamental.ExplainedMetrics(),
	})
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	metric := chi.URLParam(r, "metric")
	text, known := fundamental.Explain(metric)

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    ExplainResponse{Metric: metric, Explanation: text, Known: known},
	})
}

func (s *Server) handleFX(w http.ResponseWriter, r *http.Request) {
	if s.fx == nil {
		writeError(w, http.StatusServiceUnavailable, "currency converter not configured")
		return
	}

	from, to := chi.URLParam(r, "from"), chi.URLParam(r, "to")
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	var amount *decimal.Decimal
	if a := r.URL.Query().Get("amount"); a != "" {
		d, err := decimal.NewFromString(a)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid amount")
			return
		}
		amount = &d
	}

	quote, err := s.fx.Rate(ctx, from, to)
	if err != nil {
		writeError(w, fxStatus(err), err.Error())
		return
	}

	resp := FXResponse{Quote: quote}
	if amount != nil {
		converted := amount.Mul(quote.Rate)
		resp.Amount = amount
		resp.Converted = &converted
		resp.Display = fx.FormatAmount(converted, quote.To)
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    resp,
	})
}

// ============================================================
// Helpers
// ============================================================

var (
	errNoPrices            = errors.New("fetch requested but no price source is configured")
	errInvalidFundamentals = errors.New("invalid fundamentals")
)

// buildInput turns a request into an analyzer input, fetching history when
// asked to.
func (s *Server) buildInput(ctx context.Context, req AnalyzeRequest) (analyzer.Input, []string, error) {
	f, ignored, err := datasource.Canonicalize(req.Fundamentals)
	if err != nil {
		return analyzer.Input{}, nil, fmt.Errorf("%w: %v", errInvalidFundamentals, err)
	}

	in := analyzer.Input{
		Symbol:       strings.ToUpper(strings.TrimSpace(req.Symbol)),
		Prices:       req.Prices,
		Fundamentals: f,
	}

	if len(in.Prices) == 0 && req.Fetch {
		if s.prices == nil {
			return analyzer.Input{}, nil, errNoPrices
		}
		days := req.Days
		if days <= 0 {
			days = defaultHistoryDays
		}
		in.Prices, err = s.fetchHistory(ctx, in.Symbol, days)
		if err != nil {
			return analyzer.Input{}, nil, err
		}
	}

	return in, ignored, nil
}

func (s *Server) fetchHistory(ctx context.Context, ticker string, days int) (models.PriceSeries, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	to := time.Now()
	from := to.AddDate(0, 0, -days)
	return s.prices.GetHistoricalData(ctx, ticker, from, to)
}

// validatePrices rejects an empty or malformed series.
func validatePrices(prices models.PriceSeries) error {
	if err := prices.Validate(); err != nil {
		return fmt.Errorf("invalid price series: %w", err)
	}
	return nil
}

// statusForInput maps input-building errors to HTTP status codes.
func statusForInput(err error) int {
	switch {
	case errors.Is(err, errNoPrices):
		return http.StatusServiceUnavailable
	case errors.Is(err, datasource.ErrTickerNotFound):
		return http.StatusNotFound
	case errors.Is(err, errInvalidFundamentals):
		return http.StatusBadRequest
	default:
		return statusFor(err)
	}
}

func fxStatus(err error) int {
	switch {
	case errors.Is(err, fx.ErrInvalidCurrency):
		return http.StatusBadRequest
	case errors.Is(err, fx.ErrRateUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
