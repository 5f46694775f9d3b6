package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/seenimoa/stockscore/internal/config"
	"github.com/seenimoa/stockscore/internal/datasource"
	"github.com/seenimoa/stockscore/internal/fx"
	"github.com/seenimoa/stockscore/internal/logging"
	"github.com/seenimoa/stockscore/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

func testConfig() *config.Config {
	return &config.Config{
		Analysis: config.AnalysisConfig{Workers: 2, MaxBatchItems: 3},
		FX:       config.FXConfig{APIKey: "sk-secret-value-123", FallbackRates: map[string]float64{"USD_CAD": 1.35}},
	}
}

func testServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	srv, err := NewServer(testConfig(), opts...)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv
}

func do(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

// decodeData re-decodes the envelope's data into v.
func decodeData(t *testing.T, resp APIResponse, v interface{}) {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	if err != nil {
		t.Fatalf("marshal data: %v", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
}

func series(n int, rate float64) models.PriceSeries {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make(models.PriceSeries, n)
	price := 50.0
	for i := range out {
		open := price
		price *= 1 + rate
		hi, lo := open, price
		if lo > hi {
			hi, lo = lo, hi
		}
		out[i] = models.OHLCV{
			Timestamp: start.AddDate(0, 0, i),
			Open:      open,
			High:      hi + 0.25,
			Low:       lo - 0.25,
			Close:     price,
			Volume:    500_000,
		}
	}
	return out
}

type stubFetcher struct {
	candles models.PriceSeries
	err     error
	calls   int
}

func (s *stubFetcher) GetHistoricalData(_ context.Context, ticker string, _, _ time.Time) (models.PriceSeries, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.candles, nil
}

type stubRates map[string]map[string]float64

func (s stubRates) Rates(_ context.Context, base string) (map[string]float64, error) {
	r, ok := s[base]
	if !ok {
		return nil, errors.New("source offline")
	}
	return r, nil
}

// ════════════════════════════════════════════════════════════════════
// Server construction
// ════════════════════════════════════════════════════════════════════

func TestNewServerNilConfig(t *testing.T) {
	if _, err := NewServer(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestHealth(t *testing.T) {
	srv := testServer(t, WithVersion("1.2.3"))

	for _, path := range []string{"/health", "/api/v1/health"} {
		rec := do(t, srv, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", path, rec.Code)
		}
		resp := decodeResponse(t, rec)
		data := resp.Data.(map[string]interface{})
		if data["status"] != "ok" || data["version"] != "1.2.3" {
			t.Errorf("%s: data = %v", path, data)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := testServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/analyze", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q, want *", got)
	}
}

func TestRequestsAreLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.Discard()
	logger.SetOutput(&buf)
	srv := testServer(t, WithLogger(logger))

	do(t, srv, http.MethodGet, "/health", nil)
	if !strings.Contains(buf.String(), "HTTP request") || !strings.Contains(buf.String(), "/health") {
		t.Errorf("expected request log line, got %q", buf.String())
	}
}

// ════════════════════════════════════════════════════════════════════
// Analysis endpoints
// ════════════════════════════════════════════════════════════════════

func TestAnalyze(t *testing.T) {
	srv := testServer(t)
	rec := do(t, srv, http.MethodPost, "/api/v1/analyze", AnalyzeRequest{
		Symbol: " acme ",
		Prices: series(120, 0.004),
		Fundamentals: map[string]interface{}{
			"trailingPE":    14.2,
			"profitMargins": 0.2,
			"sector":        "Industrials",
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var got struct {
		Symbol         string                `json:"symbol"`
		Bars           int                   `json:"bars"`
		Recommendation models.Recommendation `json:"recommendation"`
		IgnoredFields  []string              `json:"ignored_fields"`
	}
	decodeData(t, decodeResponse(t, rec), &got)

	if got.Symbol != "ACME" || got.Bars != 120 {
		t.Errorf("symbol/bars = %q/%d", got.Symbol, got.Bars)
	}
	if got.Recommendation.Action == "" || got.Recommendation.Scores.Technical.Fallback {
		t.Errorf("unexpected recommendation: %+v", got.Recommendation)
	}
	if len(got.IgnoredFields) != 1 || got.IgnoredFields[0] != "sector" {
		t.Errorf("ignored = %v", got.IgnoredFields)
	}
}

func TestAnalyzeErrors(t *testing.T) {
	srv := testServer(t)

	bad := series(30, 0.01)
	bad[4].Timestamp = bad[2].Timestamp

	tests := []struct {
		name string
		body interface{}
		want int
	}{
		{"malformed json", `{"symbol":`, http.StatusBadRequest},
		{"invalid series", AnalyzeRequest{Symbol: "X", Prices: bad}, http.StatusUnprocessableEntity},
		{"bad fundamentals", AnalyzeRequest{Symbol: "X", Fundamentals: map[string]interface{}{"pe_ratio": "cheap"}}, http.StatusBadRequest},
		{"fetch without source", AnalyzeRequest{Symbol: "X", Fetch: true}, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/api/v1/analyze", tt.body)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
			if resp := decodeResponse(t, rec); resp.Success || resp.Error == "" {
				t.Errorf("expected error envelope, got %+v", resp)
			}
		})
	}
}

func TestAnalyzeFetchesHistory(t *testing.T) {
	fetcher := &stubFetcher{candles: series(80, 0.002)}
	srv := testServer(t, WithPriceFetcher(fetcher))

	rec := do(t, srv, http.MethodPost, "/api/v1/analyze", AnalyzeRequest{Symbol: "ACME", Fetch: true})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if fetcher.calls != 1 {
		t.Errorf("fetch calls = %d, want 1", fetcher.calls)
	}

	fetcher.err = fmt.Errorf("yahoo: %w", datasource.ErrTickerNotFound)
	rec = do(t, srv, http.MethodPost, "/api/v1/analyze", AnalyzeRequest{Symbol: "NOPE", Fetch: true})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestAnalyzeBatch(t *testing.T) {
	srv := testServer(t)

	bad := series(30, 0.01)
	bad[1].Volume = -5

	rec := do(t, srv, http.MethodPost, "/api/v1/analyze/batch", BatchRequest{
		Items: []AnalyzeRequest{
			{Symbol: "UP", Prices: series(90, 0.003)},
			{Symbol: "BAD", Prices: bad},
			{Symbol: "NONE"},
		},
		Workers: 16,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var batch struct {
		ID        string `json:"batch_id"`
		Succeeded int    `json:"succeeded"`
		Failed    int    `json:"failed"`
		Items     []struct {
			Symbol string `json:"symbol"`
			Error  string `json:"error"`
		} `json:"items"`
	}
	decodeData(t, decodeResponse(t, rec), &batch)

	if batch.ID == "" || batch.Succeeded != 2 || batch.Failed != 1 {
		t.Errorf("batch = %+v", batch)
	}
	if len(batch.Items) != 3 || batch.Items[1].Symbol != "BAD" || batch.Items[1].Error == "" {
		t.Errorf("items = %+v", batch.Items)
	}
}

func TestAnalyzeBatchItemLoadFailures(t *testing.T) {
	srv := testServer(t)

	rec := do(t, srv, http.MethodPost, "/api/v1/analyze/batch", BatchRequest{
		Items: []AnalyzeRequest{
			{Symbol: "cheap", Fundamentals: map[string]interface{}{"pe_ratio": "cheap"}},
			{Symbol: "UP", Prices: series(90, 0.003)},
			{Symbol: "remote", Fetch: true},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var batch struct {
		Succeeded int `json:"succeeded"`
		Failed    int `json:"failed"`
		Items     []struct {
			Index  int             `json:"index"`
			Symbol string          `json:"symbol"`
			Result json.RawMessage `json:"result"`
			Error  string          `json:"error"`
		} `json:"items"`
	}
	decodeData(t, decodeResponse(t, rec), &batch)

	if batch.Succeeded != 1 || batch.Failed != 2 || len(batch.Items) != 3 {
		t.Fatalf("batch = %+v", batch)
	}
	if it := batch.Items[0]; it.Symbol != "CHEAP" || !strings.Contains(it.Error, "fundamentals") || it.Result != nil {
		t.Errorf("item 0 = %+v", it)
	}
	if it := batch.Items[1]; it.Error != "" || it.Result == nil {
		t.Errorf("item 1 = %+v", it)
	}
	if it := batch.Items[2]; it.Index != 2 || it.Symbol != "REMOTE" || it.Error == "" {
		t.Errorf("item 2 = %+v", it)
	}
}

func TestAnalyzeBatchLimits(t *testing.T) {
	srv := testServer(t)

	rec := do(t, srv, http.MethodPost, "/api/v1/analyze/batch", BatchRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty batch: status = %d", rec.Code)
	}

	items := make([]AnalyzeRequest, 4)
	rec = do(t, srv, http.MethodPost, "/api/v1/analyze/batch", BatchRequest{Items: items})
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized batch: status = %d", rec.Code)
	}
}

func TestTechnical(t *testing.T) {
	srv := testServer(t)

	rec := do(t, srv, http.MethodPost, "/api/v1/technical", SeriesRequest{Prices: series(60, 0.01)})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var summary models.TechnicalSummary
	decodeData(t, decodeResponse(t, rec), &summary)
	if !summary.Sufficient || summary.Trend != models.TrendStrongUp {
		t.Errorf("summary = %+v", summary)
	}

	rec = do(t, srv, http.MethodPost, "/api/v1/technical", SeriesRequest{})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("empty series: status = %d", rec.Code)
	}
}

func TestMetrics(t *testing.T) {
	srv := testServer(t)

	rec := do(t, srv, http.MethodPost, "/api/v1/metrics", SeriesRequest{
		Prices:       series(260, 0.001),
		Fundamentals: map[string]interface{}{"roe": 0.25, "beta": 0.9},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var m models.MetricsBundle
	decodeData(t, decodeResponse(t, rec), &m)
	if m.Volatility == nil || m.MaxDrawdown == nil || m.ROE == nil || *m.ROE != 0.25 {
		t.Errorf("metrics = %+v", m)
	}
}

// ════════════════════════════════════════════════════════════════════
// Reference, market data, currency, config
// ════════════════════════════════════════════════════════════════════

func TestExplain(t *testing.T) {
	srv := testServer(t)

	rec := do(t, srv, http.MethodGet, "/api/v1/explain/pe_ratio", nil)
	var known ExplainResponse
	decodeData(t, decodeResponse(t, rec), &known)
	if !known.Known || !strings.Contains(known.Explanation, "P/E") {
		t.Errorf("pe_ratio = %+v", known)
	}

	rec = do(t, srv, http.MethodGet, "/api/v1/explain/unobtainium", nil)
	var unknown ExplainResponse
	decodeData(t, decodeResponse(t, rec), &unknown)
	if unknown.Known || unknown.Explanation == "" {
		t.Errorf("unknown metric = %+v", unknown)
	}

	rec = do(t, srv, http.MethodGet, "/api/v1/explain", nil)
	var list []string
	decodeData(t, decodeResponse(t, rec), &list)
	if len(list) == 0 {
		t.Error("expected metric list")
	}
}

func TestOHLCV(t *testing.T) {
	if rec := do(t, testServer(t), http.MethodGet, "/api/v1/ohlcv/ACME", nil); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("without fetcher: status = %d", rec.Code)
	}

	srv := testServer(t, WithPriceFetcher(&stubFetcher{candles: series(5, 0.01)}))
	rec := do(t, srv, http.MethodGet, "/api/v1/ohlcv/ACME?days=10", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var candles models.PriceSeries
	decodeData(t, decodeResponse(t, rec), &candles)
	if len(candles) != 5 {
		t.Errorf("candles = %d, want 5", len(candles))
	}

	if rec := do(t, srv, http.MethodGet, "/api/v1/ohlcv/ACME?days=zero", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bad days: status = %d", rec.Code)
	}
}

func TestFX(t *testing.T) {
	if rec := do(t, testServer(t), http.MethodGet, "/api/v1/fx/USD/CAD", nil); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("without converter: status = %d", rec.Code)
	}

	conv := fx.New(stubRates{"EUR": {"USD": 1.1}},
		fx.WithFallbackRates(map[string]float64{"USD_CAD": 1.35}),
		fx.WithLogger(logging.Discard()),
	)
	srv := testServer(t, WithConverter(conv))

	tests := []struct {
		path      string
		status    int
		origin    fx.Origin
		converted string
		display   string
	}{
		{"/api/v1/fx/eur/usd?amount=200", http.StatusOK, fx.OriginLive, "220", "$220.00"},
		{"/api/v1/fx/EUR/USD", http.StatusOK, fx.OriginCache, "", ""},
		{"/api/v1/fx/USD/CAD?amount=10", http.StatusOK, fx.OriginFallback, "13.5", "C$13.50"},
		{"/api/v1/fx/CAD/CAD", http.StatusOK, fx.OriginIdentity, "", ""},
		{"/api/v1/fx/GBP/JPY", http.StatusBadGateway, "", "", ""},
		{"/api/v1/fx/US/CAD", http.StatusBadRequest, "", "", ""},
		{"/api/v1/fx/USD/CAD?amount=lots", http.StatusBadRequest, "", "", ""},
	}
	for _, tt := range tests {
		rec := do(t, srv, http.MethodGet, tt.path, nil)
		if rec.Code != tt.status {
			t.Errorf("%s: status = %d, want %d (%s)", tt.path, rec.Code, tt.status, rec.Body.String())
			continue
		}
		if tt.status != http.StatusOK {
			continue
		}
		var got struct {
			Origin    fx.Origin `json:"origin"`
			Converted string    `json:"converted"`
			Display   string    `json:"display"`
		}
		decodeData(t, decodeResponse(t, rec), &got)
		if got.Origin != tt.origin || got.Converted != tt.converted || got.Display != tt.display {
			t.Errorf("%s: got %+v", tt.path, got)
		}
	}
}

func TestConfigEndpointsHideSecrets(t *testing.T) {
	srv := testServer(t)

	rec := do(t, srv, http.MethodGet, "/api/v1/config", nil)
	if strings.Contains(rec.Body.String(), "sk-secret-value-123") {
		t.Fatal("config endpoint leaked the API key")
	}
	if srv.cfg.FX.APIKey == "" {
		t.Fatal("redaction modified the running config")
	}

	rec = do(t, srv, http.MethodGet, "/api/v1/config/keys", nil)
	var keys []config.KeyStatus
	decodeData(t, decodeResponse(t, rec), &keys)
	if len(keys) != 1 || !keys[0].IsSet || strings.Contains(keys[0].Masked, "secret") {
		t.Errorf("keys = %+v", keys)
	}
}

func TestReport(t *testing.T) {
	srv := testServer(t)
	body := AnalyzeRequest{Symbol: "acme", Prices: series(120, 0.004)}

	rec := do(t, srv, http.MethodPost, "/api/v1/report", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "ACME") || !strings.Contains(rec.Body.String(), "<svg") {
		t.Error("expected an HTML report with charts")
	}

	rec = do(t, srv, http.MethodPost, "/api/v1/report?format=text", body)
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain") {
		t.Fatalf("text report: status %d, type %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Body.String(), "RECOMMENDATION") {
		t.Error("expected text report body")
	}

	rec = do(t, srv, http.MethodPost, "/api/v1/report?format=pdf", body)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("pdf status = %d, want 400", rec.Code)
	}
}
