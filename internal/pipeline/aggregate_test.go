package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyantic/placeintel/internal/model"
	"github.com/voyantic/placeintel/internal/source"
)

func TestAggregateReports_DedupKeepsHighestConfidence(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	reports := []source.Report{
		{
			Source: "reviews",
			Signals: []model.TasteSignal{
				{Domain: model.DomainFood, Tag: "Tasting Menu", Confidence: 0.6, Polarity: model.PolarityPositive, ExtractedAt: now},
				{Domain: model.DomainFood, Tag: "tasting menu", Confidence: 0.8, Polarity: model.PolarityPositive, ExtractedAt: now},
			},
		},
	}

	agg := AggregateReports(reports)
	require.Len(t, agg.Signals, 1)
	assert.InDelta(t, 0.8, agg.Signals[0].Confidence, 0.001)
}

func TestAggregateReports_SameTagDifferentSourcesKept(t *testing.T) {
	reports := []source.Report{
		{Source: "reviews", Signals: []model.TasteSignal{
			{Domain: model.DomainDesign, Tag: "brutalist", Confidence: 0.7},
		}},
		{Source: "editorial", Signals: []model.TasteSignal{
			{Domain: model.DomainDesign, Tag: "brutalist", Confidence: 0.9},
		}},
	}

	agg := AggregateReports(reports)
	assert.Len(t, agg.Signals, 2, "corroboration across sources is preserved")
}

func TestAggregateReports_PolaritySplit(t *testing.T) {
	reports := []source.Report{
		{Source: "reviews", Signals: []model.TasteSignal{
			{Domain: model.DomainService, Tag: "attentive staff", Confidence: 0.8, Polarity: model.PolarityPositive},
			{Domain: model.DomainService, Tag: "slow checkin", Confidence: 0.6, Polarity: model.PolarityNegative},
		}},
	}

	agg := AggregateReports(reports)
	require.Len(t, agg.Signals, 1)
	require.Len(t, agg.AntiSignals, 1)
	assert.Equal(t, "slow checkin", agg.AntiSignals[0].Tag)
}

func TestAggregateReports_DropsUnknownDomainAndBadConfidence(t *testing.T) {
	reports := []source.Report{
		{Source: "menu", Signals: []model.TasteSignal{
			{Domain: "vibes", Tag: "cool", Confidence: 0.9},
			{Domain: model.DomainFood, Tag: "broken", Confidence: 1.4},
			{Domain: model.DomainFood, Tag: "omakase", Confidence: 0.9},
		}},
	}

	agg := AggregateReports(reports)
	require.Len(t, agg.Signals, 1)
	assert.Equal(t, "omakase", agg.Signals[0].Tag)
}

func TestAggregateReports_DeterministicOrder(t *testing.T) {
	reports := []source.Report{
		{Source: "b", Signals: []model.TasteSignal{
			{Domain: model.DomainLocation, Tag: "quiet street", Confidence: 0.5},
			{Domain: model.DomainDesign, Tag: "mid-century", Confidence: 0.5},
		}},
		{Source: "a", Signals: []model.TasteSignal{
			{Domain: model.DomainDesign, Tag: "art deco", Confidence: 0.5},
		}},
	}

	first := AggregateReports(reports)
	second := AggregateReports(reports)
	assert.Equal(t, first.Signals, second.Signals)
	assert.Equal(t, model.DomainDesign, first.Signals[0].Domain, "canonical domain order first")
	assert.Equal(t, "art deco", first.Signals[0].Tag)
}

func TestAggregateReports_MergesFactsAndReviewCounts(t *testing.T) {
	reports := []source.Report{
		{Source: "reviews", ReviewCount: 40, Signals: []model.TasteSignal{
			{Domain: model.DomainFood, Tag: "omakase", Confidence: 0.9},
		}},
		{Source: "editorial", Facts: map[string]any{"michelin_keys": 2}},
	}

	agg := AggregateReports(reports)
	assert.Equal(t, 40, agg.ReviewCount)
	assert.Equal(t, 2, agg.Facts["michelin_keys"])
}

func TestAggregateReports_BackfillsSourceAndPolarity(t *testing.T) {
	reports := []source.Report{
		{Source: "awards", Signals: []model.TasteSignal{
			{Domain: model.DomainCharacter, Tag: "storied", Confidence: 0.7},
		}},
	}

	agg := AggregateReports(reports)
	require.Len(t, agg.Signals, 1)
	assert.Equal(t, "awards", agg.Signals[0].Source)
	assert.Equal(t, model.PolarityPositive, agg.Signals[0].Polarity)
}
