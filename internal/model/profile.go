package model

import "time"

// TasteNode is one extracted user preference. Deactivated, not deleted,
// when superseded.
type TasteNode struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Domain      Domain    `json:"domain"`
	Tag         string    `json:"tag,omitempty"`
	Confidence  float64   `json:"confidence"`
	Source      string    `json:"source,omitempty"`
	ExtractedAt time.Time `json:"extracted_at"`
	IsActive    bool      `json:"is_active"`
}

// ContradictionNode pairs two taste nodes whose implied preferences
// conflict. Lifecycle mirrors TasteNode.
type ContradictionNode struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Domain     Domain    `json:"domain"`
	NodeA      string    `json:"node_a"`
	NodeB      string    `json:"node_b"`
	Spread     float64   `json:"spread"`
	DetectedAt time.Time `json:"detected_at"`
	IsActive   bool      `json:"is_active"`
}

// TasteProfile is a six-dimension vector: per domain, either a user's
// weighting of that domain or a place's delivered strength on it. All
// values are in [0,1].
type TasteProfile map[Domain]float64

// NewTasteProfile returns a zeroed profile covering all domains.
func NewTasteProfile() TasteProfile {
	p := make(TasteProfile, len(Domains))
	for _, d := range Domains {
		p[d] = 0
	}
	return p
}

// TotalWeight sums the profile across all domains.
func (p TasteProfile) TotalWeight() float64 {
	var total float64
	for _, d := range Domains {
		total += p[d]
	}
	return total
}

// UserProfile is the persisted synthesis state for one user.
type UserProfile struct {
	UserID                 string       `json:"user_id"`
	Weights                TasteProfile `json:"weights"`
	LastSynthesizedAt      *time.Time   `json:"last_synthesized_at,omitempty"`
	BookingsSinceSynthesis int          `json:"bookings_since_synthesis"`
	UpdatedAt              time.Time    `json:"updated_at"`
}

// PlaceVector is the precomputed delivered-strength vector for a place,
// recomputable from the signal store at any time.
type PlaceVector struct {
	PlaceID    string       `json:"place_id"`
	Vector     TasteProfile `json:"vector"`
	Embedding  []float32    `json:"embedding,omitempty"`
	ComputedAt time.Time    `json:"computed_at"`
}
