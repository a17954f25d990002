package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/voyantic/placeintel/internal/model"
	"github.com/voyantic/placeintel/internal/source"
)

func signalSet(n int, domain model.Domain) []model.TasteSignal {
	sigs := make([]model.TasteSignal, n)
	for i := range sigs {
		sigs[i] = model.TasteSignal{Domain: domain, Confidence: 0.7}
	}
	return sigs
}

func TestScoreReliability_NoEvidence(t *testing.T) {
	rel := ScoreReliability(Aggregate{}, DefaultScoring())
	assert.Zero(t, rel.Score)
	assert.Contains(t, rel.SuspectFlags, "no_evidence")
}

func TestScoreReliability_RichEvidence(t *testing.T) {
	agg := AggregateReports([]source.Report{{
		Source:      "reviews",
		ReviewCount: 120,
		Signals: []model.TasteSignal{
			{Domain: model.DomainDesign, Tag: "a", Confidence: 0.8},
			{Domain: model.DomainCharacter, Tag: "b", Confidence: 0.8},
			{Domain: model.DomainService, Tag: "c", Confidence: 0.8},
			{Domain: model.DomainFood, Tag: "d", Confidence: 0.8},
			{Domain: model.DomainLocation, Tag: "e", Confidence: 0.8},
			{Domain: model.DomainWellness, Tag: "f", Confidence: 0.8},
			{Domain: model.DomainFood, Tag: "g", Confidence: 0.8},
			{Domain: model.DomainFood, Tag: "h", Confidence: 0.8},
		},
	}})

	rel := ScoreReliability(agg, DefaultScoring())
	assert.Greater(t, rel.Score, 0.7)
	assert.False(t, rel.Suspect())
}

func TestScoreReliability_NoReviewsPenalized(t *testing.T) {
	withReviews := Aggregate{Signals: signalSet(6, model.DomainFood), ReviewCount: 50}
	withoutReviews := Aggregate{Signals: signalSet(6, model.DomainFood)}

	a := ScoreReliability(withReviews, DefaultScoring())
	b := ScoreReliability(withoutReviews, DefaultScoring())
	assert.Greater(t, a.Score, b.Score)
	assert.Contains(t, b.SuspectFlags, "no_reviews")
}

func TestScoreReliability_ThinEvidenceFlagged(t *testing.T) {
	agg := Aggregate{Signals: signalSet(3, model.DomainDesign), ReviewCount: 5}
	rel := ScoreReliability(agg, DefaultScoring())
	assert.Contains(t, rel.SuspectFlags, "thin_evidence")
	assert.True(t, rel.Suspect())
}

func TestScoreReliability_MoreEvidenceNeverHurts(t *testing.T) {
	cfg := DefaultScoring()
	small := ScoreReliability(Aggregate{Signals: signalSet(4, model.DomainFood), ReviewCount: 10}, cfg)
	big := ScoreReliability(Aggregate{Signals: signalSet(20, model.DomainFood), ReviewCount: 10}, cfg)
	assert.GreaterOrEqual(t, big.Score, small.Score)
}

func TestScoreReliability_DiversityCounts(t *testing.T) {
	cfg := DefaultScoring()
	narrow := Aggregate{Signals: signalSet(6, model.DomainFood), ReviewCount: 30}
	broad := Aggregate{
		Signals: append(append(signalSet(2, model.DomainFood), signalSet(2, model.DomainDesign)...),
			signalSet(2, model.DomainService)...),
		ReviewCount: 30,
	}
	assert.Greater(t, ScoreReliability(broad, cfg).Score, ScoreReliability(narrow, cfg).Score)
}
