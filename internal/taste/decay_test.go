package taste

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/voyantic/placeintel/internal/model"
)

func TestDecayConfidence_Current(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	// Extracted right now, no decay.
	got := DecayConfidence(0.9, now, DefaultDecay(), now)
	assert.Equal(t, 0.9, got)
}

func TestDecayConfidence_HalfLife(t *testing.T) {
	extracted := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := extracted.AddDate(0, 0, 180)

	// Exactly one half-life old, confidence halved.
	got := DecayConfidence(0.8, extracted, DefaultDecay(), now)
	assert.InDelta(t, 0.4, got, 0.01)
}

func TestDecayConfidence_TwoHalfLives(t *testing.T) {
	extracted := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := extracted.AddDate(0, 0, 360)

	got := DecayConfidence(0.8, extracted, DefaultDecay(), now)
	assert.InDelta(t, 0.2, got, 0.01)
}

func TestDecayConfidence_Monotonic(t *testing.T) {
	extracted := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	prev := 1.0
	for days := 0; days <= 720; days += 30 {
		now := extracted.AddDate(0, 0, days)
		got := DecayConfidence(0.95, extracted, DefaultDecay(), now)
		assert.LessOrEqual(t, got, prev, "decay must be non-increasing at %d days", days)
		prev = got
	}
}

func TestDecayConfidence_Floor(t *testing.T) {
	extracted := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := DecayConfig{HalfLifeDays: 180, Floor: 0.1}

	got := DecayConfidence(0.9, extracted, cfg, now)
	assert.Equal(t, 0.1, got)
}

func TestDecayConfidence_ZeroAndNegative(t *testing.T) {
	now := time.Now()

	assert.Equal(t, 0.0, DecayConfidence(0, now, DefaultDecay(), now))
	assert.Equal(t, 0.0, DecayConfidence(-0.3, now, DefaultDecay(), now))
}

func TestDecayConfidence_ZeroExtractedAt(t *testing.T) {
	now := time.Now()

	// Zero time means "assume current", no decay.
	got := DecayConfidence(0.7, time.Time{}, DefaultDecay(), now)
	assert.Equal(t, 0.7, got)
}

func TestDecayConfidence_FutureExtractedAt(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	future := now.AddDate(1, 0, 0)

	got := DecayConfidence(0.7, future, DefaultDecay(), now)
	assert.Equal(t, 0.7, got)
}

func TestDecayConfidence_ZeroHalfLifeDefaults(t *testing.T) {
	extracted := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := extracted.AddDate(0, 0, DefaultHalfLifeDays)
	cfg := DecayConfig{HalfLifeDays: 0}

	got := DecayConfidence(0.8, extracted, cfg, now)
	assert.InDelta(t, 0.4, got, 0.01)
}

func TestDecayConfidence_Curve(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		daysBefore int
	}{
		{"30d", 30},
		{"90d", 90},
		{"180d", 180},
		{"360d", 360},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			extracted := now.AddDate(0, 0, -tc.daysBefore)
			got := DecayConfidence(0.8, extracted, DefaultDecay(), now)
			expected := 0.8 * math.Pow(2, -float64(tc.daysBefore)/DefaultHalfLifeDays)
			assert.InDelta(t, expected, got, 0.01)
		})
	}
}

func TestDomainAverages_SkipsInactive(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	nodes := []model.TasteNode{
		{Domain: model.DomainFood, Confidence: 0.8, ExtractedAt: now, IsActive: true},
		{Domain: model.DomainFood, Confidence: 0.4, ExtractedAt: now, IsActive: true},
		{Domain: model.DomainFood, Confidence: 0.1, ExtractedAt: now, IsActive: false},
	}

	avgs := DomainAverages(nodes, DefaultDecay(), now)
	assert.InDelta(t, 0.6, avgs[model.DomainFood], 0.001)
	_, ok := avgs[model.DomainDesign]
	assert.False(t, ok, "domains with no nodes must be absent")
}

func TestDomainAverages_Empty(t *testing.T) {
	avgs := DomainAverages(nil, DefaultDecay(), time.Now())
	assert.Empty(t, avgs)
}
