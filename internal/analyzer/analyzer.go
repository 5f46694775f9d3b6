// Package analyzer chains the three scoring stages for one symbol:
// technical summary, metrics bundle and recommendation. It also runs many
// symbols concurrently for batch requests.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/stockscore/internal/analysis/fundamental"
	"github.com/seenimoa/stockscore/internal/analysis/technical"
	"github.com/seenimoa/stockscore/internal/scoring"
	"github.com/seenimoa/stockscore/pkg/models"
)

// DefaultWorkers bounds AnalyzeBatch when workers <= 0.
const DefaultWorkers = 4

// ErrEmptyBatch is returned by AnalyzeBatch for an empty input list.
var ErrEmptyBatch = errors.New("batch has no inputs")

// Input is everything known about one symbol.
type Input struct {
	Symbol       string              `json:"symbol"`
	Prices       models.PriceSeries  `json:"prices"`
	Fundamentals models.Fundamentals `json:"fundamentals"`

	// LoadErr marks an input whose data could not be gathered. AnalyzeBatch
	// reports it as that item's failure without running the pipeline.
	LoadErr error `json:"-"`
}

// Result is the full analysis of one symbol.
type Result struct {
	Symbol         string                  `json:"symbol"`
	Bars           int                     `json:"bars"`
	Summary        models.TechnicalSummary `json:"technical_summary"`
	Metrics        models.MetricsBundle    `json:"metrics"`
	Recommendation models.Recommendation   `json:"recommendation"`
}

// Analyzer runs the pipeline with a given scorer.
type Analyzer struct {
	scorer *scoring.Scorer
}

// New creates an Analyzer. A nil scorer uses scoring.New().
func New(scorer *scoring.Scorer) *Analyzer {
	if scorer == nil {
		scorer = scoring.New()
	}
	return &Analyzer{scorer: scorer}
}

// Analyze runs summary, metrics and recommendation for one input. An absent
// price series is allowed and yields neutral price-based scores; a present
// but malformed one is rejected with a *models.ValidationError.
func (a *Analyzer) Analyze(in Input) (*Result, error) {
	if len(in.Prices) > 0 {
		if err := in.Prices.Validate(); err != nil {
			return nil, fmt.Errorf("%s: invalid price series: %w", label(in.Symbol), err)
		}
	}

	metrics := fundamental.ComputeMetrics(in.Fundamentals, in.Prices)
	return &Result{
		Symbol:         in.Symbol,
		Bars:           len(in.Prices),
		Summary:        technical.Summarize(in.Prices),
		Metrics:        metrics,
		Recommendation: a.scorer.Recommend(in.Fundamentals, in.Prices, metrics),
	}, nil
}

// Analyze runs the pipeline with the default scorer.
func Analyze(in Input) (*Result, error) {
	return New(nil).Analyze(in)
}

// ItemResult is one entry of a batch. Exactly one of Result and Error is
// set.
type ItemResult struct {
	Index  int     `json:"index"`
	Symbol string  `json:"symbol"`
	Result *Result `json:"result,omitempty"`
	Error  string  `json:"error,omitempty"`

	err error
}

// Err returns the analysis error of a failed item.
func (r ItemResult) Err() error { return r.err }

// BatchResult collects a batch run in input order.
type BatchResult struct {
	ID        string       `json:"batch_id"`
	StartedAt time.Time    `json:"started_at"`
	Duration  string       `json:"duration"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Items     []ItemResult `json:"items"`
}

// AnalyzeBatch analyzes inputs with at most workers goroutines. A failing
// item does not stop the others; it is reported in its ItemResult. The
// only batch-level errors are an empty input list and context
// cancellation.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, inputs []Input, workers int) (*BatchResult, error) {
	if len(inputs) == 0 {
		return nil, ErrEmptyBatch
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}

	batch := &BatchResult{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Items:     make([]ItemResult, len(inputs)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, in := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			item := ItemResult{Index: i, Symbol: in.Symbol}
			var res *Result
			err := in.LoadErr
			if err == nil {
				res, err = a.Analyze(in)
			}
			if err != nil {
				item.err = err
				item.Error = err.Error()
			} else {
				item.Result = res
			}
			// Each goroutine owns its slot.
			batch.Items[i] = item
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch %s: %w", batch.ID, err)
	}

	for _, item := range batch.Items {
		if item.err != nil {
			batch.Failed++
		} else {
			batch.Succeeded++
		}
	}
	batch.Duration = time.Since(batch.StartedAt).Round(time.Microsecond).String()
	return batch, nil
}

func label(symbol string) string {
	if s := strings.TrimSpace(symbol); s != "" {
		return s
	}
	return "input"
}
