package scoring

import "github.com/seenimoa/stockscore/pkg/models"

// TraceSink observes a scoring run. Implementations must not retain or
// modify the values they receive.
type TraceSink interface {
	SubScore(s models.SubScore)
	Decision(r models.Recommendation)
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) SubScore(models.SubScore)        {}
func (NopSink) Decision(models.Recommendation) {}

// RecordingSink keeps what it observes, for tests and diagnostics.
type RecordingSink struct {
	SubScores []models.SubScore
	Decisions []models.Recommendation
}

func (r *RecordingSink) SubScore(s models.SubScore) {
	r.SubScores = append(r.SubScores, s)
}

func (r *RecordingSink) Decision(rec models.Recommendation) {
	r.Decisions = append(r.Decisions, rec)
}
