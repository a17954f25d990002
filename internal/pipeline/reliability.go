package pipeline

import (
	"math"

	"github.com/voyantic/placeintel/internal/model"
)

// ScoringConfig tunes the reliability formula. Saturation points are the
// counts at which a dimension reaches half strength.
type ScoringConfig struct {
	SignalSaturation float64 `yaml:"signal_saturation" mapstructure:"signal_saturation"`
	ReviewSaturation float64 `yaml:"review_saturation" mapstructure:"review_saturation"`
	ReviewWeight     float64 `yaml:"review_weight" mapstructure:"review_weight"`
	VolumeWeight     float64 `yaml:"volume_weight" mapstructure:"volume_weight"`
	DiversityWeight  float64 `yaml:"diversity_weight" mapstructure:"diversity_weight"`

	// NoReviewPenalty scales the score when non-review sources produced
	// evidence but no review corpus backs it.
	NoReviewPenalty float64 `yaml:"no_review_penalty" mapstructure:"no_review_penalty"`

	// Suspect thresholds.
	MinScore   float64 `yaml:"min_score" mapstructure:"min_score"`
	MinSignals int     `yaml:"min_signals" mapstructure:"min_signals"`
}

// DefaultScoring returns the production reliability weights.
func DefaultScoring() ScoringConfig {
	return ScoringConfig{
		SignalSaturation: 8,
		ReviewSaturation: 10,
		ReviewWeight:     0.5,
		VolumeWeight:     0.3,
		DiversityWeight:  0.2,
		NoReviewPenalty:  0.5,
		MinScore:         0.5,
		MinSignals:       5,
	}
}

// Reliability is the scored assessment of one enriched place.
type Reliability struct {
	Score        float64  `json:"score"`
	SuspectFlags []string `json:"suspect_flags,omitempty"`
}

// Suspect reports whether any flag was raised.
func (r Reliability) Suspect() bool {
	return len(r.SuspectFlags) > 0
}

// ScoreReliability rates how trustworthy the aggregated evidence is.
// Volume and review depth follow n/(n+k) saturation curves so early
// evidence moves the score fast and later evidence has diminishing
// returns. Diversity counts distinct taste domains covered. No evidence
// at all scores zero.
func ScoreReliability(agg Aggregate, cfg ScoringConfig) Reliability {
	total := len(agg.Signals) + len(agg.AntiSignals)
	if total == 0 && agg.ReviewCount == 0 {
		return Reliability{Score: 0, SuspectFlags: []string{"no_evidence"}}
	}

	n := float64(total)
	volume := n / (n + cfg.SignalSaturation)

	r := float64(agg.ReviewCount)
	reviews := r / (r + cfg.ReviewSaturation)

	covered := make(map[model.Domain]bool)
	for _, sig := range agg.Signals {
		covered[sig.Domain] = true
	}
	for _, sig := range agg.AntiSignals {
		covered[sig.Domain] = true
	}
	diversity := float64(len(covered)) / float64(len(model.Domains))

	score := cfg.ReviewWeight*reviews + cfg.VolumeWeight*volume + cfg.DiversityWeight*diversity
	if agg.ReviewCount == 0 && total > 0 {
		score *= cfg.NoReviewPenalty
	}
	score = math.Max(0, math.Min(1, score))

	var flags []string
	if score < cfg.MinScore {
		flags = append(flags, "low_score")
	}
	if total <= cfg.MinSignals {
		flags = append(flags, "thin_evidence")
	}
	if agg.ReviewCount == 0 {
		flags = append(flags, "no_reviews")
	}

	return Reliability{Score: score, SuspectFlags: flags}
}
