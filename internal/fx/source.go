package fx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/seenimoa/stockscore/internal/infra"
)

// RateSource returns the exchange rates quoted against base, keyed by
// currency code.
type RateSource interface {
	Rates(ctx context.Context, base string) (map[string]float64, error)
}

// HTTPSource reads rate tables from an exchangerate-api style endpoint:
// GET {endpoint with {from} replaced} → {"base": "...", "rates": {...}}.
type HTTPSource struct {
	Endpoint string
	APIKey   string
	Client   *http.Client

	limiter *infra.RateLimiter
}

// NewHTTPSource creates a source for endpoint limited to rpm requests per
// minute.
func NewHTTPSource(endpoint, apiKey string, timeout time.Duration, rpm int) *HTTPSource {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSource{
		Endpoint: endpoint,
		APIKey:   apiKey,
		Client:   &http.Client{Timeout: timeout},
		limiter:  infra.PerMinute(rpm),
	}
}

type ratesResponse struct {
	Base   string             `json:"base"`
	Result string             `json:"result"`
	Rates  map[string]float64 `json:"rates"`
}

// Rates fetches the rate table for base.
func (s *HTTPSource) Rates(ctx context.Context, base string) (map[string]float64, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	url := strings.ReplaceAll(s.Endpoint, "{from}", base)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if s.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.APIKey)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rates %s: %w", base, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch rates %s: HTTP %d: %s", base, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode rates %s: %w", base, err)
	}
	if out.Result == "error" || len(out.Rates) == 0 {
		return nil, fmt.Errorf("fetch rates %s: empty rate table", base)
	}

	return out.Rates, nil
}
