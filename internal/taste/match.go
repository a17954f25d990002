package taste

import (
	"math"
	"time"

	"github.com/voyantic/placeintel/internal/model"
)

// NeutralScore is returned when the user profile carries no weight at all.
const NeutralScore = 50.0

// MatchConfig holds the tunable constants of strength aggregation.
type MatchConfig struct {
	// Saturation controls how fast accumulated evidence approaches full
	// strength: strength = net / (net + Saturation) for positive net.
	Saturation float64     `yaml:"saturation" mapstructure:"saturation"`
	Decay      DecayConfig `yaml:"decay" mapstructure:"decay"`
}

// DefaultMatch returns the default match configuration.
func DefaultMatch() MatchConfig {
	return MatchConfig{Saturation: 2.0, Decay: DefaultDecay()}
}

// DomainMatch is the per-domain breakdown of a match score.
type DomainMatch struct {
	Domain        model.Domain `json:"domain"`
	UserWeight    float64      `json:"user_weight"`
	PlaceStrength float64      `json:"place_strength"`
	Contribution  float64      `json:"contribution"`
}

// MatchResult is the outcome of matching a user profile against a place.
type MatchResult struct {
	OverallScore float64       `json:"overall_score"`
	Breakdown    []DomainMatch `json:"breakdown"`
	TopDimension model.Domain  `json:"top_dimension"`
}

// PlaceStrengths aggregates a place's signals into a six-domain
// delivered-strength vector. Positive signals raise a domain, negative
// and anti-signals lower it, each contributing its decayed confidence.
// A domain with no evidence has strength 0: absence is scored, not
// skipped.
func PlaceStrengths(signals, antiSignals []model.TasteSignal, cfg MatchConfig, now time.Time) model.TasteProfile {
	net := make(map[model.Domain]float64, len(model.Domains))

	for _, sig := range signals {
		c := DecayedSignalConfidence(sig, cfg.Decay, now)
		if sig.Polarity == model.PolarityNegative {
			net[sig.Domain] -= c
		} else {
			net[sig.Domain] += c
		}
	}
	for _, sig := range antiSignals {
		net[sig.Domain] -= DecayedSignalConfidence(sig, cfg.Decay, now)
	}

	saturation := cfg.Saturation
	if saturation <= 0 {
		saturation = 2.0
	}

	strengths := model.NewTasteProfile()
	for _, d := range model.Domains {
		n := net[d]
		if n <= 0 {
			continue
		}
		strengths[d] = n / (n + saturation)
	}
	return strengths
}

// Match combines a user's domain weights with a place's signal evidence
// into an overall 0-100 score with a per-domain breakdown. A user profile
// with zero total weight yields NeutralScore, never a division error.
func Match(userWeights model.TasteProfile, signals, antiSignals []model.TasteSignal, cfg MatchConfig, now time.Time) MatchResult {
	strengths := PlaceStrengths(signals, antiSignals, cfg, now)

	result := MatchResult{
		Breakdown: make([]DomainMatch, 0, len(model.Domains)),
	}

	totalWeight := userWeights.TotalWeight()
	var weighted float64
	var topProduct float64

	for _, d := range model.Domains {
		w := userWeights[d]
		s := strengths[d]
		contribution := w * s
		weighted += contribution

		result.Breakdown = append(result.Breakdown, DomainMatch{
			Domain:        d,
			UserWeight:    w,
			PlaceStrength: s,
			Contribution:  contribution,
		})

		// Strict > keeps canonical domain order as the tiebreak.
		if contribution > topProduct {
			topProduct = contribution
			result.TopDimension = d
		}
	}

	if totalWeight <= 0 {
		result.OverallScore = NeutralScore
		return result
	}

	result.OverallScore = math.Round(weighted/totalWeight*100*100) / 100
	return result
}
