// Package taste holds the pure scoring core: confidence decay, the
// reprofiling evaluator, and the place/user match engine. Every function
// takes now as an explicit parameter so results are deterministic.
package taste

import (
	"math"
	"time"

	"github.com/voyantic/placeintel/internal/model"
)

// DefaultHalfLifeDays is the system-wide decay half-life.
const DefaultHalfLifeDays = 180

// DecayConfig controls confidence decay.
type DecayConfig struct {
	HalfLifeDays int     `yaml:"half_life_days" mapstructure:"half_life_days"`
	Floor        float64 `yaml:"floor" mapstructure:"floor"`
}

// DefaultDecay returns the system default decay configuration.
func DefaultDecay() DecayConfig {
	return DecayConfig{HalfLifeDays: DefaultHalfLifeDays, Floor: 0}
}

// DecayConfidence computes the time-decayed confidence of a stored value.
// Formula: effective = max(floor, raw * 2^(-ageDays / halfLifeDays)).
// Raw stored confidence never changes; this is applied on every read that
// needs a current value.
func DecayConfidence(raw float64, extractedAt time.Time, cfg DecayConfig, now time.Time) float64 {
	if raw <= 0 {
		return 0
	}
	if extractedAt.IsZero() {
		// No timestamp, treat as current.
		return raw
	}

	ageDays := now.Sub(extractedAt).Hours() / 24
	if ageDays <= 0 {
		return raw
	}

	halfLife := float64(cfg.HalfLifeDays)
	if halfLife <= 0 {
		halfLife = DefaultHalfLifeDays
	}

	decayed := raw * math.Pow(2, -ageDays/halfLife)
	if decayed < cfg.Floor {
		return cfg.Floor
	}
	return decayed
}

// DecayedSignalConfidence applies decay to a taste signal.
func DecayedSignalConfidence(sig model.TasteSignal, cfg DecayConfig, now time.Time) float64 {
	return DecayConfidence(sig.Confidence, sig.ExtractedAt, cfg, now)
}

// DomainAverages computes the decayed average confidence per domain over
// a set of taste nodes. Domains with no nodes are absent from the result;
// averaging over zero nodes is defined as no entry, not an error.
func DomainAverages(nodes []model.TasteNode, cfg DecayConfig, now time.Time) map[model.Domain]float64 {
	sums := make(map[model.Domain]float64)
	counts := make(map[model.Domain]int)
	for _, n := range nodes {
		if !n.IsActive {
			continue
		}
		sums[n.Domain] += DecayConfidence(n.Confidence, n.ExtractedAt, cfg, now)
		counts[n.Domain]++
	}

	avgs := make(map[model.Domain]float64, len(sums))
	for d, sum := range sums {
		avgs[d] = sum / float64(counts[d])
	}
	return avgs
}
