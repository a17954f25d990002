// Package backfill recomputes derived taste state in bulk: user weight
// profiles (with contradiction detection) and per-place delivered-strength
// vectors. Both phases are idempotent and safe to re-run.
package backfill

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/voyantic/placeintel/internal/model"
	"github.com/voyantic/placeintel/internal/store"
	"github.com/voyantic/placeintel/internal/taste"
)

// Mode selects which backfill phases run. The zero value runs both.
type Mode struct {
	SkipUsers  bool
	SkipPlaces bool

	// UserID restricts the user phase to a single user.
	UserID string
}

// ParseMode parses an operator-facing mode string: "full", "properties",
// or "user:<id>".
func ParseMode(s string) (Mode, error) {
	switch {
	case s == "" || s == "full":
		return Mode{}, nil
	case s == "properties":
		return Mode{SkipUsers: true}, nil
	default:
		if id, ok := strings.CutPrefix(s, "user:"); ok && id != "" {
			return Mode{SkipPlaces: true, UserID: id}, nil
		}
		return Mode{}, eris.Errorf("backfill: unknown mode %q", s)
	}
}

// Config tunes the backfill job.
type Config struct {
	// Concurrency bounds parallel users/places. Default: 4.
	Concurrency int

	// PlaceLimit caps how many complete places are vectorized per run.
	// Zero means the store default.
	PlaceLimit int

	// ContradictionThreshold is the decayed-confidence spread that marks
	// two nodes contradictory. Zero means the engine default.
	ContradictionThreshold float64

	// EmbedRate throttles embedding API calls. Nil means unthrottled.
	EmbedRate *rate.Limiter

	Decay taste.DecayConfig
	Match taste.MatchConfig
}

// Result summarizes one backfill pass.
type Result struct {
	UsersProcessed        int64 `json:"users_processed"`
	ProfilesUpdated       int64 `json:"profiles_updated"`
	ContradictionsCreated int64 `json:"contradictions_created"`
	UserFailures          int64 `json:"user_failures"`

	PlacesProcessed    int64 `json:"places_processed"`
	VectorsComputed    int64 `json:"vectors_computed"`
	EmbeddingsComputed int64 `json:"embeddings_computed"`
	PlaceFailures      int64 `json:"place_failures"`

	Duration time.Duration `json:"duration"`
}

// Job runs the two backfill phases against a store.
type Job struct {
	store    store.Store
	embedder Embedder
	cfg      Config
	now      func() time.Time
}

// New creates a backfill job. embedder may be nil to skip embeddings.
func New(st store.Store, embedder Embedder, cfg Config) *Job {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Decay == (taste.DecayConfig{}) {
		cfg.Decay = taste.DefaultDecay()
	}
	if cfg.Match == (taste.MatchConfig{}) {
		cfg.Match = taste.DefaultMatch()
	}
	return &Job{
		store:    st,
		embedder: embedder,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run executes the phases mode selects: user profile synthesis, then
// place vectors. Individual user/place failures are logged and counted,
// never fatal; only listing failures abort the run.
func (j *Job) Run(ctx context.Context, mode Mode) (*Result, error) {
	start := j.now()
	res := &Result{}

	if !mode.SkipUsers {
		if err := j.synthesizeUsers(ctx, mode.UserID, res); err != nil {
			return nil, err
		}
	}
	if !mode.SkipPlaces {
		if err := j.vectorizePlaces(ctx, res); err != nil {
			return nil, err
		}
	}

	res.Duration = j.now().Sub(start)
	zap.L().Info("backfill complete",
		zap.Int64("users", res.UsersProcessed),
		zap.Int64("profiles_updated", res.ProfilesUpdated),
		zap.Int64("contradictions_created", res.ContradictionsCreated),
		zap.Int64("user_failures", res.UserFailures),
		zap.Int64("places", res.PlacesProcessed),
		zap.Int64("vectors", res.VectorsComputed),
		zap.Int64("embeddings", res.EmbeddingsComputed),
		zap.Int64("place_failures", res.PlaceFailures),
		zap.Duration("duration", res.Duration),
	)
	return res, nil
}

func (j *Job) synthesizeUsers(ctx context.Context, onlyUser string, res *Result) error {
	var userIDs []string
	if onlyUser != "" {
		userIDs = []string{onlyUser}
	} else {
		var err error
		userIDs, err = j.store.ListUserIDs(ctx)
		if err != nil {
			return err
		}
	}

	var processed, updated, created, failures atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.cfg.Concurrency)
	for _, userID := range userIDs {
		g.Go(func() error {
			processed.Add(1)
			n, err := j.synthesizeUser(gctx, userID)
			if err != nil {
				failures.Add(1)
				zap.L().Warn("backfill: user synthesis failed",
					zap.String("user_id", userID), zap.Error(err))
				return nil
			}
			updated.Add(1)
			created.Add(n)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	res.UsersProcessed = processed.Load()
	res.ProfilesUpdated = updated.Load()
	res.ContradictionsCreated = created.Load()
	res.UserFailures = failures.Load()
	return nil
}

// synthesizeUser rebuilds one user's weight profile and records any
// newly detected contradictions. Returns the net-new contradiction count.
func (j *Job) synthesizeUser(ctx context.Context, userID string) (int64, error) {
	now := j.now()

	nodes, err := j.store.ListTasteNodes(ctx, userID)
	if err != nil {
		return 0, err
	}

	weights := taste.SynthesizeProfile(nodes, j.cfg.Decay, now)
	profile := &model.UserProfile{
		UserID:            userID,
		Weights:           weights,
		LastSynthesizedAt: &now,
	}
	if err := j.store.SaveUserProfile(ctx, profile); err != nil {
		return 0, err
	}

	var created int64
	for _, pair := range taste.DetectContradictions(nodes, j.cfg.ContradictionThreshold, j.cfg.Decay, now) {
		isNew, err := j.store.CreateContradiction(ctx, &model.ContradictionNode{
			ID:         uuid.New().String(),
			UserID:     userID,
			Domain:     pair.Domain,
			NodeA:      pair.NodeA,
			NodeB:      pair.NodeB,
			Spread:     pair.Spread,
			DetectedAt: now,
			IsActive:   true,
		})
		if err != nil {
			return created, err
		}
		if isNew {
			created++
		}
	}
	return created, nil
}

func (j *Job) vectorizePlaces(ctx context.Context, res *Result) error {
	places, err := j.store.ListPlaces(ctx, store.PlaceFilter{
		Status: model.PlaceStatusComplete,
		Limit:  j.cfg.PlaceLimit,
	})
	if err != nil {
		return err
	}

	var processed, vectors, embeddings, failures atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.cfg.Concurrency)
	for i := range places {
		place := &places[i]
		g.Go(func() error {
			processed.Add(1)
			embedded, err := j.vectorizePlace(gctx, place)
			if err != nil {
				failures.Add(1)
				zap.L().Warn("backfill: place vector failed",
					zap.String("place_id", place.ID), zap.Error(err))
				return nil
			}
			vectors.Add(1)
			if embedded {
				embeddings.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	res.PlacesProcessed = processed.Load()
	res.VectorsComputed = vectors.Load()
	res.EmbeddingsComputed = embeddings.Load()
	res.PlaceFailures = failures.Load()
	return nil
}

// vectorizePlace recomputes one place's delivered-strength vector and,
// when an embedder is wired, its embedding. Embedding failures degrade to
// a vector-only row rather than failing the place.
func (j *Job) vectorizePlace(ctx context.Context, place *model.PlaceIntelligence) (bool, error) {
	now := j.now()
	vector := taste.PlaceStrengths(place.Signals, place.AntiSignals, j.cfg.Match, now)

	pv := &model.PlaceVector{
		PlaceID:    place.ID,
		Vector:     vector,
		ComputedAt: now,
	}

	embedded := false
	if j.embedder != nil {
		if j.cfg.EmbedRate != nil {
			if err := j.cfg.EmbedRate.Wait(ctx); err != nil {
				return false, err
			}
		}
		emb, err := j.embedder.Embed(ctx, embeddingText(place, vector))
		if err != nil {
			zap.L().Warn("backfill: embedding failed, storing vector only",
				zap.String("place_id", place.ID), zap.Error(err))
		} else if len(emb) > 0 {
			pv.Embedding = emb
			embedded = true
		}
	}

	if err := j.store.SavePlaceVector(ctx, pv); err != nil {
		return false, err
	}
	return embedded, nil
}
