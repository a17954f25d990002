// Package monitoring gathers operational metrics over the place store:
// enrichment backlog, failure rates, reliability distribution, and
// staleness of enriched records.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/voyantic/placeintel/internal/model"
	"github.com/voyantic/placeintel/internal/store"
)

// Snapshot is a point-in-time view of enrichment health.
type Snapshot struct {
	PlacesTotal      int `json:"places_total"`
	PlacesPending    int `json:"places_pending"`
	PlacesProcessing int `json:"places_processing"`
	PlacesComplete   int `json:"places_complete"`
	PlacesFailed     int `json:"places_failed"`

	// Suspect counts complete places tripping any audit threshold: low
	// reliability, thin signal volume, or no reviews.
	Suspect        int     `json:"suspect"`
	AvgReliability float64 `json:"avg_reliability"`

	// Stale counts complete places not enriched within the staleness
	// window.
	Stale int `json:"stale"`

	RunsFailed       int     `json:"runs_failed"`
	RunFailRate      float64 `json:"run_fail_rate"`
	AvgRunDurationMs int64   `json:"avg_run_duration_ms"`

	StalenessDays    int       `json:"staleness_days"`
	SuspectThreshold float64   `json:"suspect_threshold"`
	CollectedAt      time.Time `json:"collected_at"`
}

// CollectorConfig tunes the snapshot thresholds.
type CollectorConfig struct {
	// SuspectThreshold is the reliability score below which a complete
	// place counts as suspect. Default: 0.5.
	SuspectThreshold float64

	// StalenessDays is the age of last_enriched_at past which a complete
	// place counts as stale. Default: 180.
	StalenessDays int

	// MaxPlaces caps how many places per status are inspected. Default: 5000.
	MaxPlaces int
}

// DefaultCollectorConfig returns the standard thresholds.
func DefaultCollectorConfig() CollectorConfig {
	return CollectorConfig{
		SuspectThreshold: 0.5,
		StalenessDays:    180,
		MaxPlaces:        5000,
	}
}

// Collector derives health metrics from the store.
type Collector struct {
	store store.Store
	cfg   CollectorConfig
	now   func() time.Time
}

// NewCollector creates a collector over the given store.
func NewCollector(st store.Store, cfg CollectorConfig) *Collector {
	if cfg.SuspectThreshold <= 0 {
		cfg.SuspectThreshold = 0.5
	}
	if cfg.StalenessDays <= 0 {
		cfg.StalenessDays = 180
	}
	if cfg.MaxPlaces <= 0 {
		cfg.MaxPlaces = 5000
	}
	return &Collector{store: st, cfg: cfg, now: func() time.Time { return time.Now().UTC() }}
}

// Collect builds a snapshot from current store state.
func (c *Collector) Collect(ctx context.Context) (*Snapshot, error) {
	now := c.now()
	snap := &Snapshot{
		StalenessDays:    c.cfg.StalenessDays,
		SuspectThreshold: c.cfg.SuspectThreshold,
		CollectedAt:      now,
	}
	staleCutoff := now.AddDate(0, 0, -c.cfg.StalenessDays)

	var reliabilitySum float64
	var scored int
	var durationSum int64
	var timedRuns int

	statuses := []model.PlaceStatus{
		model.PlaceStatusPending,
		model.PlaceStatusProcessing,
		model.PlaceStatusComplete,
		model.PlaceStatusFailed,
	}
	for _, status := range statuses {
		places, err := c.store.ListPlaces(ctx, store.PlaceFilter{Status: status, Limit: c.cfg.MaxPlaces})
		if err != nil {
			return nil, eris.Wrapf(err, "monitoring: list %s places", status)
		}
		snap.PlacesTotal += len(places)

		switch status {
		case model.PlaceStatusPending:
			snap.PlacesPending = len(places)
		case model.PlaceStatusProcessing:
			snap.PlacesProcessing = len(places)
		case model.PlaceStatusFailed:
			snap.PlacesFailed = len(places)
		case model.PlaceStatusComplete:
			snap.PlacesComplete = len(places)
			for _, p := range places {
				if p.ReliabilityScore != nil {
					reliabilitySum += *p.ReliabilityScore
					scored++
				}
				if p.LastEnrichedAt != nil && p.LastEnrichedAt.Before(staleCutoff) {
					snap.Stale++
				}
			}
		}

		// Run outcomes come from each place's most recent run.
		if status == model.PlaceStatusComplete || status == model.PlaceStatusFailed {
			for _, p := range places {
				run, err := c.store.LatestRun(ctx, p.ID)
				if err != nil {
					return nil, eris.Wrapf(err, "monitoring: latest run for %s", p.ID)
				}
				if run == nil {
					continue
				}
				if run.Status == model.RunStatusFailed {
					snap.RunsFailed++
				}
				if run.DurationMs > 0 {
					durationSum += run.DurationMs
					timedRuns++
				}
			}
		}
	}

	suspects, err := c.store.ListSuspectPlaces(ctx, store.SuspectFilter{
		MinScore: c.cfg.SuspectThreshold,
		Limit:    c.cfg.MaxPlaces,
	})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list suspect places")
	}
	snap.Suspect = len(suspects)

	if scored > 0 {
		snap.AvgReliability = reliabilitySum / float64(scored)
	}
	finished := snap.PlacesComplete + snap.PlacesFailed
	if finished > 0 {
		snap.RunFailRate = float64(snap.RunsFailed) / float64(finished)
	}
	if timedRuns > 0 {
		snap.AvgRunDurationMs = durationSum / int64(timedRuns)
	}
	return snap, nil
}

// Healthy reports whether the snapshot is within operating bounds: the
// backlog is not dominated by failures and suspect places are a minority
// of completed ones.
func (s *Snapshot) Healthy() bool {
	if s.RunFailRate > 0.5 {
		return false
	}
	if s.PlacesComplete > 0 && float64(s.Suspect)/float64(s.PlacesComplete) > 0.5 {
		return false
	}
	return true
}
