package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/seenimoa/stockscore/internal/infra"
	"github.com/seenimoa/stockscore/pkg/models"
)

// DefaultChartURL is the Yahoo Finance v8 chart endpoint.
const DefaultChartURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// YFinance fetches daily bars from the Yahoo Finance chart API. Results
// are cached per ticker and range.
type YFinance struct {
	BaseURL string
	Client  *http.Client

	cache   *infra.Cache[string, models.PriceSeries]
	limiter *infra.RateLimiter
}

// NewYFinance creates a new Yahoo Finance data source.
func NewYFinance() *YFinance {
	return &YFinance{
		BaseURL: DefaultChartURL,
		Client:  HTTPClient,
		cache:   infra.NewCache[string, models.PriceSeries](15 * time.Minute),
		limiter: infra.NewRateLimiter(5, 200*time.Millisecond), // 5 req/s
	}
}

// Name returns the data source name.
func (y *YFinance) Name() string { return "Yahoo Finance" }

// --- Yahoo Finance v8 API types ---

type yfChartResponse struct {
	Chart struct {
		Result []yfChartResult `json:"result"`
		Error  *yfError        `json:"error"`
	} `json:"chart"`
}

type yfChartResult struct {
	Meta       yfChartMeta  `json:"meta"`
	Timestamp  []int64      `json:"timestamp"`
	Indicators yfIndicators `json:"indicators"`
}

type yfChartMeta struct {
	Symbol             string  `json:"symbol"`
	Currency           string  `json:"currency"`
	RegularMarketPrice float64 `json:"regularMarketPrice"`
}

type yfIndicators struct {
	Quote []yfOHLCV `json:"quote"`
}

type yfOHLCV struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}

type yfError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// --- Public methods ---

// GetHistoricalData returns daily bars for ticker between from and to.
func (y *YFinance) GetHistoricalData(ctx context.Context, ticker string, from, to time.Time) (models.PriceSeries, error) {
	symbol := strings.ToUpper(strings.TrimSpace(ticker))
	if symbol == "" {
		return nil, fmt.Errorf("%w: empty ticker", ErrTickerNotFound)
	}

	cacheKey := fmt.Sprintf("hist:%s:%d:%d", symbol, from.Unix(), to.Unix())
	if cached, ok := y.cache.Get(cacheKey); ok {
		return cached, nil
	}

	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/%s?period1=%d&period2=%d&interval=1d",
		strings.TrimRight(y.BaseURL, "/"), url.PathEscape(symbol), from.Unix(), to.Unix())

	body, err := doGet(ctx, y.Client, u, map[string]string{
		"Accept": "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("yfinance chart %s: %w", symbol, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp yfChartResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse yfinance chart: %w", err)
	}

	candles, err := chartSeries(resp, symbol)
	if err != nil {
		return nil, err
	}

	y.cache.Set(cacheKey, candles)
	return candles, nil
}

// --- Helpers ---

func chartSeries(resp yfChartResponse, ticker string) (models.PriceSeries, error) {
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yfinance chart error: %s", resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, ticker)
	}
	candles := parseYFCandles(resp.Chart.Result[0])
	if len(candles) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, ticker)
	}
	return candles, nil
}

// parseYFCandles converts the column arrays of a chart result into bars.
// Positions with a null close (halted or holiday rows) are dropped.
func parseYFCandles(result yfChartResult) models.PriceSeries {
	if len(result.Indicators.Quote) == 0 {
		return nil
	}

	q := result.Indicators.Quote[0]
	candles := make(models.PriceSeries, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(q.Close) || q.Close[i] == nil {
			continue
		}
		c := models.OHLCV{
			Timestamp: time.Unix(ts, 0).UTC(),
			Close:     *q.Close[i],
		}
		c.Open = valueOr(q.Open, i, c.Close)
		c.High = valueOr(q.High, i, c.Close)
		c.Low = valueOr(q.Low, i, c.Close)
		if i < len(q.Volume) && q.Volume[i] != nil {
			c.Volume = *q.Volume[i]
		}
		candles = append(candles, c)
	}
	return candles
}

func valueOr(vals []*float64, i int, fallback float64) float64 {
	if i < len(vals) && vals[i] != nil {
		return *vals[i]
	}
	return fallback
}
