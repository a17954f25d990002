package taste

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/voyantic/placeintel/internal/model"
)

func freshNodes(now time.Time) []model.TasteNode {
	var nodes []model.TasteNode
	for _, d := range model.Domains {
		nodes = append(nodes, model.TasteNode{
			ID:          string(d) + "-1",
			Domain:      d,
			Confidence:  0.9,
			ExtractedAt: now,
			IsActive:    true,
		})
	}
	return nodes
}

func TestEvaluateReprofile_AllQuiet(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	lastSynth := now.AddDate(0, -1, 0)

	d := EvaluateReprofile(ReprofileInput{
		LastSynthesizedAt:      &lastSynth,
		BookingsSinceSynthesis: 1,
		Nodes:                  freshNodes(now),
		ActiveContradictions:   0,
	}, DefaultDecay(), now)

	assert.False(t, d.ShouldReprofile)
	assert.False(t, d.StaleProfile)
	assert.False(t, d.BookingVolume)
	assert.False(t, d.LowConfidence)
	assert.False(t, d.HighContradiction)
}

func TestEvaluateReprofile_StaleBySevenMonths(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	lastSynth := now.AddDate(0, -7, 0)

	d := EvaluateReprofile(ReprofileInput{
		LastSynthesizedAt: &lastSynth,
		Nodes:             freshNodes(now),
	}, DefaultDecay(), now)

	assert.True(t, d.ShouldReprofile)
	assert.True(t, d.StaleProfile)
	assert.False(t, d.BookingVolume)
	assert.False(t, d.HighContradiction)
}

func TestEvaluateReprofile_NeverSynthesized(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	d := EvaluateReprofile(ReprofileInput{Nodes: freshNodes(now)}, DefaultDecay(), now)
	assert.True(t, d.StaleProfile)
	assert.True(t, d.ShouldReprofile)
}

func TestEvaluateReprofile_BookingVolume(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	lastSynth := now.AddDate(0, -1, 0)

	d := EvaluateReprofile(ReprofileInput{
		LastSynthesizedAt:      &lastSynth,
		BookingsSinceSynthesis: 3,
		Nodes:                  freshNodes(now),
	}, DefaultDecay(), now)

	assert.True(t, d.ShouldReprofile)
	assert.True(t, d.BookingVolume)
}

func TestEvaluateReprofile_DecayedConfidenceFloor(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	lastSynth := now.AddDate(0, -1, 0)

	// A single node aged past two half-lives decays below 0.5.
	nodes := []model.TasteNode{{
		ID:          "old-food",
		Domain:      model.DomainFood,
		Confidence:  0.9,
		ExtractedAt: now.AddDate(0, 0, -400),
		IsActive:    true,
	}}

	d := EvaluateReprofile(ReprofileInput{
		LastSynthesizedAt: &lastSynth,
		Nodes:             nodes,
	}, DefaultDecay(), now)

	assert.True(t, d.ShouldReprofile)
	assert.True(t, d.LowConfidence)
	assert.Less(t, d.DomainConfidences[model.DomainFood], 0.5)
}

func TestEvaluateReprofile_ContradictionRatio(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	lastSynth := now.AddDate(0, -1, 0)

	d := EvaluateReprofile(ReprofileInput{
		LastSynthesizedAt:    &lastSynth,
		Nodes:                freshNodes(now), // 6 active
		ActiveContradictions: 2,              // ratio 0.33 > 0.30
	}, DefaultDecay(), now)

	assert.True(t, d.ShouldReprofile)
	assert.True(t, d.HighContradiction)
	assert.InDelta(t, 2.0/6.0, d.ContradictionRatio, 0.001)
}

func TestEvaluateReprofile_ZeroSignalsZeroRatio(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	lastSynth := now.AddDate(0, -1, 0)

	// No signals: ratio is defined as 0, not a division error.
	d := EvaluateReprofile(ReprofileInput{
		LastSynthesizedAt:    &lastSynth,
		ActiveContradictions: 5,
	}, DefaultDecay(), now)

	assert.Equal(t, 0.0, d.ContradictionRatio)
	assert.False(t, d.HighContradiction)
}
