package taste

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyantic/placeintel/internal/model"
)

func TestSynthesizeProfile(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	nodes := []model.TasteNode{
		{ID: "a", Domain: model.DomainFood, Confidence: 0.8, ExtractedAt: now, IsActive: true},
		{ID: "b", Domain: model.DomainFood, Confidence: 0.6, ExtractedAt: now, IsActive: true},
		{ID: "c", Domain: model.DomainDesign, Confidence: 0.5, ExtractedAt: now, IsActive: true},
		{ID: "d", Domain: model.DomainService, Confidence: 0.9, ExtractedAt: now, IsActive: false},
	}

	profile := SynthesizeProfile(nodes, DefaultDecay(), now)
	assert.InDelta(t, 0.7, profile[model.DomainFood], 0.001)
	assert.InDelta(t, 0.5, profile[model.DomainDesign], 0.001)
	assert.Equal(t, 0.0, profile[model.DomainService], "inactive nodes are ignored")
	assert.Equal(t, 0.0, profile[model.DomainWellness])
}

func TestDetectContradictions(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	nodes := []model.TasteNode{
		{ID: "hi", Domain: model.DomainWellness, Confidence: 0.95, ExtractedAt: now, IsActive: true},
		{ID: "lo", Domain: model.DomainWellness, Confidence: 0.2, ExtractedAt: now, IsActive: true},
		{ID: "mid", Domain: model.DomainFood, Confidence: 0.6, ExtractedAt: now, IsActive: true},
	}

	pairs := DetectContradictions(nodes, ContradictionSpread, DefaultDecay(), now)
	require.Len(t, pairs, 1)
	assert.Equal(t, model.DomainWellness, pairs[0].Domain)
	assert.Equal(t, "hi", pairs[0].NodeA)
	assert.Equal(t, "lo", pairs[0].NodeB)
	assert.InDelta(t, 0.75, pairs[0].Spread, 0.001)
}

func TestDetectContradictions_InactiveIgnored(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	nodes := []model.TasteNode{
		{ID: "hi", Domain: model.DomainFood, Confidence: 0.95, ExtractedAt: now, IsActive: true},
		{ID: "lo", Domain: model.DomainFood, Confidence: 0.1, ExtractedAt: now, IsActive: false},
	}

	pairs := DetectContradictions(nodes, ContradictionSpread, DefaultDecay(), now)
	assert.Empty(t, pairs)
}

func TestDetectContradictions_Deterministic(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	nodes := []model.TasteNode{
		{ID: "a", Domain: model.DomainCharacter, Confidence: 0.9, ExtractedAt: now, IsActive: true},
		{ID: "b", Domain: model.DomainCharacter, Confidence: 0.3, ExtractedAt: now, IsActive: true},
		{ID: "c", Domain: model.DomainCharacter, Confidence: 0.1, ExtractedAt: now, IsActive: true},
	}

	first := DetectContradictions(nodes, 0.4, DefaultDecay(), now)
	second := DetectContradictions(nodes, 0.4, DefaultDecay(), now)
	assert.Equal(t, first, second)
}
