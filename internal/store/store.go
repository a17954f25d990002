// Package store defines persistence for place intelligence, pipeline
// runs, user taste state, and precomputed vectors.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/voyantic/placeintel/internal/model"
)

var (
	// ErrNotFound marks a lookup for an entity that was never registered.
	ErrNotFound = eris.New("store: not found")

	// ErrConflict marks a guarded status transition that lost: the place
	// is not in the state the transition requires (e.g. a second run
	// started while one is still processing).
	ErrConflict = eris.New("store: status conflict")
)

// PlaceFilter specifies criteria for listing places.
type PlaceFilter struct {
	Status model.PlaceStatus
	Limit  int
}

// SuspectFilter holds the audit thresholds for flagging complete places.
// Zero values fall back to the production scoring thresholds.
type SuspectFilter struct {
	MinScore   float64
	MinSignals int
	Limit      int
}

func (f SuspectFilter) withDefaults() SuspectFilter {
	if f.MinScore <= 0 {
		f.MinScore = 0.5
	}
	if f.MinSignals <= 0 {
		f.MinSignals = 5
	}
	if f.Limit <= 0 {
		f.Limit = 500
	}
	return f
}

// Store is the persistence interface shared by the pipeline, the taste
// engines, and the backfill job. The place record has a single writer
// (its orchestrator run); everything else reads.
type Store interface {
	// Places
	RegisterPlace(ctx context.Context, ref model.PlaceRef) (*model.PlaceIntelligence, error)
	GetPlace(ctx context.Context, id string) (*model.PlaceIntelligence, error)
	MarkPlaceProcessing(ctx context.Context, id string) error
	SetPlaceStatus(ctx context.Context, id string, status model.PlaceStatus) error
	ResetPlace(ctx context.Context, id string) error
	SavePlaceIntelligence(ctx context.Context, place *model.PlaceIntelligence) error
	ListPlaces(ctx context.Context, filter PlaceFilter) ([]model.PlaceIntelligence, error)
	// ListSuspectPlaces returns complete places whose evidence trips an
	// audit threshold: low reliability, thin signal volume, or no reviews.
	ListSuspectPlaces(ctx context.Context, filter SuspectFilter) ([]model.PlaceIntelligence, error)

	// Runs
	CreateRun(ctx context.Context, placeID string) (*model.PipelineRun, error)
	UpdateRunStage(ctx context.Context, runID, currentStage string, stagesCompleted []string) error
	FinishRun(ctx context.Context, run *model.PipelineRun) error
	LatestRun(ctx context.Context, placeID string) (*model.PipelineRun, error)
	ListRuns(ctx context.Context, placeID string, limit int) ([]model.PipelineRun, error)

	// Users
	ListUserIDs(ctx context.Context) ([]string, error)
	// SaveTasteNode upserts a preference node captured by upstream
	// interaction systems.
	SaveTasteNode(ctx context.Context, node *model.TasteNode) error
	ListTasteNodes(ctx context.Context, userID string) ([]model.TasteNode, error)
	GetUserProfile(ctx context.Context, userID string) (*model.UserProfile, error)
	SaveUserProfile(ctx context.Context, profile *model.UserProfile) error
	ListActiveContradictions(ctx context.Context, userID string) ([]model.ContradictionNode, error)
	// CreateContradiction inserts the node unless the same pair is already
	// recorded; the bool reports whether a row was actually created, so
	// batch jobs can report net-new work.
	CreateContradiction(ctx context.Context, node *model.ContradictionNode) (bool, error)

	// Vectors
	SavePlaceVector(ctx context.Context, vector *model.PlaceVector) error
	GetPlaceVector(ctx context.Context, placeID string) (*model.PlaceVector, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
