package model

import "time"

// PlaceStatus represents the enrichment state of a place.
type PlaceStatus string

const (
	PlaceStatusPending    PlaceStatus = "pending"
	PlaceStatusProcessing PlaceStatus = "processing"
	PlaceStatusComplete   PlaceStatus = "complete"
	PlaceStatusFailed     PlaceStatus = "failed"

	// PlaceStatusUnknown is never stored; status reads report it for
	// places that were never registered.
	PlaceStatusUnknown PlaceStatus = "unknown"
)

// Domain is one of the six taste dimensions every signal maps onto.
type Domain string

const (
	DomainDesign    Domain = "design"
	DomainCharacter Domain = "character"
	DomainService   Domain = "service"
	DomainFood      Domain = "food"
	DomainLocation  Domain = "location"
	DomainWellness  Domain = "wellness"
)

// Domains lists all taste domains in canonical order.
var Domains = []Domain{
	DomainDesign,
	DomainCharacter,
	DomainService,
	DomainFood,
	DomainLocation,
	DomainWellness,
}

// ValidDomain reports whether d is one of the six taste domains.
func ValidDomain(d Domain) bool {
	for _, known := range Domains {
		if d == known {
			return true
		}
	}
	return false
}

// Polarity marks a signal as evidence for or against a domain strength.
type Polarity string

const (
	PolarityPositive Polarity = "positive"
	PolarityNegative Polarity = "negative"
)

// TasteSignal is one piece of evidence about a place, tagged to a domain.
// Confidence is the value at extraction time; decay is applied on read,
// never baked into storage.
type TasteSignal struct {
	Domain      Domain    `json:"domain"`
	Tag         string    `json:"tag"`
	Confidence  float64   `json:"confidence"`
	Source      string    `json:"source"`
	Polarity    Polarity  `json:"polarity"`
	ExtractedAt time.Time `json:"extracted_at"`
}

// PlaceRef identifies a venue to be enriched.
type PlaceRef struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	URL     string `json:"url,omitempty"`
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
}

// SourceAttempt records a single fetch attempt by a source adapter.
// Multiple attempts per source (fallback methods) are kept in order and
// never overwritten, so failure causes stay auditable.
type SourceAttempt struct {
	Method      string    `json:"method"`
	Items       int       `json:"items"`
	Error       string    `json:"error,omitempty"`
	AttemptedAt time.Time `json:"attempted_at"`
}

// SourceDiagnostic is the per-source entry in sourcesProcessed.
type SourceDiagnostic struct {
	Source      string          `json:"source"`
	SignalCount int             `json:"signal_count"`
	ReviewCount int             `json:"review_count,omitempty"`
	Attempts    []SourceAttempt `json:"attempts"`
}

// Failed reports whether the source produced nothing and every attempt errored.
func (d SourceDiagnostic) Failed() bool {
	if d.SignalCount > 0 || len(d.Attempts) == 0 {
		return false
	}
	for _, a := range d.Attempts {
		if a.Error == "" {
			return false
		}
	}
	return true
}

// PlaceIntelligence is the enriched record for one venue, keyed by the
// external place identifier. Mutated only by the pipeline orchestrator.
type PlaceIntelligence struct {
	ID               string                      `json:"id"`
	Name             string                      `json:"name"`
	Status           PlaceStatus                 `json:"status"`
	Signals          []TasteSignal               `json:"signals"`
	AntiSignals      []TasteSignal               `json:"anti_signals"`
	Facts            map[string]any              `json:"facts,omitempty"`
	ReliabilityScore *float64                    `json:"reliability_score"`
	SignalCount      int                         `json:"signal_count"`
	AntiSignalCount  int                         `json:"anti_signal_count"`
	ReviewCount      int                         `json:"review_count"`
	SourcesProcessed map[string]SourceDiagnostic `json:"sources_processed,omitempty"`
	PipelineVersion  string                      `json:"pipeline_version,omitempty"`
	LastEnrichedAt   *time.Time                  `json:"last_enriched_at,omitempty"`
	CreatedAt        time.Time                   `json:"created_at"`
	UpdatedAt        time.Time                   `json:"updated_at"`
}

// RunStatus represents the state of a single pipeline run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Terminal reports whether the run can no longer change.
func (s RunStatus) Terminal() bool {
	return s == RunStatusComplete || s == RunStatusFailed
}

// PipelineRun is one enrichment attempt for a place. Stage log is
// append-only; at most one non-terminal run exists per place, enforced by
// the PlaceIntelligence status guard.
type PipelineRun struct {
	ID              string         `json:"id"`
	PlaceID         string         `json:"place_id"`
	Status          RunStatus      `json:"status"`
	CurrentStage    string         `json:"current_stage,omitempty"`
	StagesCompleted []string       `json:"stages_completed"`
	Error           string         `json:"error,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	StartedAt       time.Time      `json:"started_at"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
	DurationMs      int64          `json:"duration_ms"`
}
