// Package pipeline drives place enrichment: source fan-out, signal
// aggregation, reliability scoring, and persistence of the resulting
// intelligence record. Each run is tracked as a resumable stage log.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/voyantic/placeintel/internal/model"
	"github.com/voyantic/placeintel/internal/source"
	"github.com/voyantic/placeintel/internal/store"
)

// Version identifies the pipeline revision stamped on every enriched
// place, so stale records can be found after scoring changes.
const Version = "v2"

const defaultSourceTimeout = 90 * time.Second

// Config tunes the orchestrator.
type Config struct {
	SourceTimeout time.Duration
	Scoring       ScoringConfig
}

// Orchestrator runs the enrichment state machine for a single place.
type Orchestrator struct {
	store         store.Store
	adapters      []source.Adapter
	scoring       ScoringConfig
	sourceTimeout time.Duration
}

// New creates an Orchestrator over the given store and source adapters.
func New(st store.Store, adapters []source.Adapter, cfg Config) *Orchestrator {
	timeout := cfg.SourceTimeout
	if timeout <= 0 {
		timeout = defaultSourceTimeout
	}
	scoring := cfg.Scoring
	if scoring.ReviewWeight == 0 && scoring.VolumeWeight == 0 && scoring.DiversityWeight == 0 {
		scoring = DefaultScoring()
	}
	return &Orchestrator{
		store:         st,
		adapters:      adapters,
		scoring:       scoring,
		sourceTimeout: timeout,
	}
}

// Result is what an enrichment run produced.
type Result struct {
	Place       *model.PlaceIntelligence
	Run         *model.PipelineRun
	Reliability Reliability

	// Skipped is true when the place was already complete and the
	// trigger was treated as a no-op.
	Skipped bool
}

// Enrich runs the full pipeline for one place. Re-triggering a complete
// place is a no-op; triggering a place that is mid-run returns
// store.ErrConflict so callers can surface the rejection.
func (o *Orchestrator) Enrich(ctx context.Context, ref model.PlaceRef) (*Result, error) {
	log := zap.L().With(zap.String("place_id", ref.ID), zap.String("place", ref.Name))

	place, err := o.store.GetPlace(ctx, ref.ID)
	if eris.Is(err, store.ErrNotFound) {
		place, err = o.store.RegisterPlace(ctx, ref)
	}
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load place")
	}

	if place.Status == model.PlaceStatusComplete {
		log.Info("pipeline: place already enriched, skipping")
		return &Result{Place: place, Skipped: true}, nil
	}

	// Failed places are retryable: put them back through the guard. The
	// requeue is an implicit reset, so log it for the audit trail.
	if place.Status == model.PlaceStatusFailed {
		log.Info("pipeline: requeuing failed place for retry")
		if err := o.store.SetPlaceStatus(ctx, place.ID, model.PlaceStatusPending); err != nil {
			return nil, eris.Wrap(err, "pipeline: requeue failed place")
		}
	}

	if err := o.store.MarkPlaceProcessing(ctx, place.ID); err != nil {
		return nil, err
	}

	run, err := o.store.CreateRun(ctx, place.ID)
	if err != nil {
		// Roll the guard back so the place is not stuck in processing.
		_ = o.store.SetPlaceStatus(ctx, place.ID, model.PlaceStatusPending)
		return nil, eris.Wrap(err, "pipeline: create run")
	}

	start := time.Now()
	log.Info("pipeline: starting enrichment", zap.String("run_id", run.ID))

	// Stage tracking helper with mutex for concurrent source completion.
	var stagesMu sync.Mutex
	trackStage := func(name string) {
		stagesMu.Lock()
		run.StagesCompleted = append(run.StagesCompleted, name)
		completed := append([]string(nil), run.StagesCompleted...)
		stagesMu.Unlock()
		if err := o.store.UpdateRunStage(ctx, run.ID, name, completed); err != nil {
			log.Warn("pipeline: failed to record stage", zap.String("stage", name), zap.Error(err))
		}
	}

	// ===== Stage 1: source fan-out =====
	reports := make([]source.Report, len(o.adapters))
	g, gCtx := errgroup.WithContext(ctx)
	for i, adapter := range o.adapters {
		g.Go(func() error {
			srcCtx, cancel := context.WithTimeout(gCtx, o.sourceTimeout)
			defer cancel()

			srcStart := time.Now()
			reports[i] = adapter.Fetch(srcCtx, ref)
			log.Info("pipeline: source complete",
				zap.String("source", adapter.Name()),
				zap.Int("signals", len(reports[i].Signals)),
				zap.Int("reviews", reports[i].ReviewCount),
				zap.Duration("took", time.Since(srcStart)),
			)
			trackStage("source:" + adapter.Name())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, o.fail(ctx, place, run, start, eris.Wrap(err, "pipeline: source fan-out"))
	}

	diagnostics := make(map[string]model.SourceDiagnostic, len(reports))
	for _, r := range reports {
		diagnostics[r.Source] = r.Diagnostic()
	}

	// ===== Stage 2: aggregate =====
	agg := AggregateReports(reports)
	trackStage("aggregate")

	if len(agg.Signals)+len(agg.AntiSignals) == 0 {
		place.SourcesProcessed = diagnostics
		return nil, o.fail(ctx, place, run, start, eris.New("pipeline: no signals extracted from any source"))
	}

	// ===== Stage 3: score =====
	rel := ScoreReliability(agg, o.scoring)
	trackStage("score")
	if rel.Suspect() {
		log.Warn("pipeline: reliability flags raised",
			zap.Float64("score", rel.Score),
			zap.Strings("flags", rel.SuspectFlags),
		)
	}

	// ===== Stage 4: persist =====
	now := time.Now().UTC()
	place.Name = ref.Name
	place.Status = model.PlaceStatusComplete
	place.Signals = agg.Signals
	place.AntiSignals = agg.AntiSignals
	place.Facts = agg.Facts
	place.ReliabilityScore = &rel.Score
	place.SignalCount = len(agg.Signals)
	place.AntiSignalCount = len(agg.AntiSignals)
	place.ReviewCount = agg.ReviewCount
	place.SourcesProcessed = diagnostics
	place.PipelineVersion = Version
	place.LastEnrichedAt = &now

	if err := o.store.SavePlaceIntelligence(ctx, place); err != nil {
		return nil, o.fail(ctx, place, run, start, eris.Wrap(err, "pipeline: persist intelligence"))
	}
	trackStage("persist")

	completed := time.Now().UTC()
	run.Status = model.RunStatusComplete
	run.CurrentStage = "persist"
	run.CompletedAt = &completed
	run.DurationMs = time.Since(start).Milliseconds()
	run.Metadata = map[string]any{
		"signal_count":      len(agg.Signals),
		"anti_signal_count": len(agg.AntiSignals),
		"review_count":      agg.ReviewCount,
		"reliability":       rel.Score,
		"suspect_flags":     rel.SuspectFlags,
	}
	if err := o.store.FinishRun(ctx, run); err != nil {
		log.Warn("pipeline: failed to finalize run record", zap.Error(err))
	}

	log.Info("pipeline: enrichment complete",
		zap.Int("signals", len(agg.Signals)),
		zap.Int("anti_signals", len(agg.AntiSignals)),
		zap.Float64("reliability", rel.Score),
		zap.Int64("duration_ms", run.DurationMs),
	)
	return &Result{Place: place, Run: run, Reliability: rel}, nil
}

// fail marks both the run and the place failed, keeping whatever
// diagnostics were collected before the failure.
func (o *Orchestrator) fail(ctx context.Context, place *model.PlaceIntelligence, run *model.PipelineRun, start time.Time, cause error) error {
	completed := time.Now().UTC()
	run.Status = model.RunStatusFailed
	run.Error = cause.Error()
	run.CompletedAt = &completed
	run.DurationMs = time.Since(start).Milliseconds()
	if err := o.store.FinishRun(ctx, run); err != nil {
		zap.L().Warn("pipeline: failed to record run failure", zap.Error(err))
	}

	place.Status = model.PlaceStatusFailed
	if err := o.store.SavePlaceIntelligence(ctx, place); err != nil {
		zap.L().Warn("pipeline: failed to mark place failed", zap.Error(err))
	}
	return cause
}

// Describe returns a short human-readable summary of a run, used by the
// status command.
func Describe(run *model.PipelineRun) string {
	if run == nil {
		return "no runs recorded"
	}
	switch run.Status {
	case model.RunStatusRunning:
		return fmt.Sprintf("running (stage %s, %d stages done)", run.CurrentStage, len(run.StagesCompleted))
	case model.RunStatusFailed:
		return fmt.Sprintf("failed at %s: %s", run.CurrentStage, run.Error)
	default:
		return fmt.Sprintf("complete in %dms (%d stages)", run.DurationMs, len(run.StagesCompleted))
	}
}
