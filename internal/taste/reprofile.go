package taste

import (
	"time"

	"github.com/voyantic/placeintel/internal/model"
)

// Reprofiling trigger thresholds. Any single trigger firing is sufficient.
const (
	ReprofileMaxAge             = 6 * 30 * 24 * time.Hour // ~6 months
	ReprofileBookingThreshold   = 3
	ReprofileConfidenceFloor    = 0.5
	ReprofileContradictionRatio = 0.30
)

// ReprofileInput is everything the evaluator needs, gathered by the caller.
type ReprofileInput struct {
	LastSynthesizedAt      *time.Time
	BookingsSinceSynthesis int
	Nodes                  []model.TasteNode
	ActiveContradictions   int
}

// ReprofileDecision is the boolean decision plus the full diagnostic
// breakdown so callers can explain why.
type ReprofileDecision struct {
	ShouldReprofile    bool                         `json:"should_reprofile"`
	StaleProfile       bool                         `json:"stale_profile"`
	BookingVolume      bool                         `json:"booking_volume"`
	LowConfidence      bool                         `json:"low_confidence"`
	HighContradiction  bool                         `json:"high_contradiction"`
	ProfileAgeDays     float64                      `json:"profile_age_days"`
	Bookings           int                          `json:"bookings"`
	DomainConfidences  map[model.Domain]float64     `json:"domain_confidences"`
	ActiveSignals      int                          `json:"active_signals"`
	Contradictions     int                          `json:"contradictions"`
	ContradictionRatio float64                      `json:"contradiction_ratio"`
}

// EvaluateReprofile decides whether a user's taste profile is stale enough
// to need re-synthesis. Four independent triggers, combined with OR:
// profile age, booking volume since synthesis, any domain's decayed
// average confidence below the floor, and the contradiction ratio.
func EvaluateReprofile(in ReprofileInput, cfg DecayConfig, now time.Time) ReprofileDecision {
	d := ReprofileDecision{
		Bookings:          in.BookingsSinceSynthesis,
		DomainConfidences: DomainAverages(in.Nodes, cfg, now),
		Contradictions:    in.ActiveContradictions,
	}

	// Trigger 1: time since last synthesis (never synthesized counts as stale).
	if in.LastSynthesizedAt == nil {
		d.StaleProfile = true
	} else {
		age := now.Sub(*in.LastSynthesizedAt)
		d.ProfileAgeDays = age.Hours() / 24
		d.StaleProfile = age >= ReprofileMaxAge
	}

	// Trigger 2: saved-place volume since synthesis.
	d.BookingVolume = in.BookingsSinceSynthesis >= ReprofileBookingThreshold

	// Trigger 3: any domain's decayed average confidence under the floor.
	for _, avg := range d.DomainConfidences {
		if avg < ReprofileConfidenceFloor {
			d.LowConfidence = true
			break
		}
	}

	// Trigger 4: contradiction ratio. No signals means ratio 0, not an error.
	for _, n := range in.Nodes {
		if n.IsActive {
			d.ActiveSignals++
		}
	}
	if d.ActiveSignals > 0 {
		d.ContradictionRatio = float64(in.ActiveContradictions) / float64(d.ActiveSignals)
	}
	d.HighContradiction = d.ContradictionRatio > ReprofileContradictionRatio

	d.ShouldReprofile = d.StaleProfile || d.BookingVolume || d.LowConfidence || d.HighContradiction
	return d
}
