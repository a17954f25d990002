package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyantic/placeintel/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_GetPlace_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .* FROM places WHERE id = \$1`).
		WithArgs("unknown-place").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetPlace(context.Background(), "unknown-place")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MarkPlaceProcessing_Guard(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE places SET status = 'processing'`).
		WithArgs("place-1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.MarkPlaceProcessing(context.Background(), "place-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MarkPlaceProcessing_Conflict(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE places SET status = 'processing'`).
		WithArgs("place-1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{
		"id", "name", "status", "signals", "anti_signals", "facts",
		"reliability_score", "signal_count", "anti_signal_count", "review_count",
		"sources_processed", "pipeline_version", "last_enriched_at", "created_at", "updated_at",
	}).AddRow("place-1", "Hotel Aurora", "processing", []byte(`[]`), []byte(`[]`), nil,
		nil, 0, 0, 0, nil, "", nil, now, now)
	mock.ExpectQuery(`SELECT .* FROM places WHERE id = \$1`).
		WithArgs("place-1").
		WillReturnRows(rows)

	err := s.MarkPlaceProcessing(context.Background(), "place-1")
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MarkPlaceProcessing_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE places SET status = 'processing'`).
		WithArgs("ghost", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery(`SELECT .* FROM places WHERE id = \$1`).
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	err := s.MarkPlaceProcessing(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ResetPlace(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE places SET status = 'pending', signals = '\[\]'`).
		WithArgs("place-1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.ResetPlace(context.Background(), "place-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListSuspectPlaces(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	score := 0.7
	rows := pgxmock.NewRows([]string{
		"id", "name", "status", "signals", "anti_signals", "facts",
		"reliability_score", "signal_count", "anti_signal_count", "review_count",
		"sources_processed", "pipeline_version", "last_enriched_at", "created_at", "updated_at",
	}).AddRow("p-thin", "Hotel Aurora", "complete", []byte(`[]`), []byte(`[]`), nil,
		&score, 3, 0, 40, nil, "", nil, now, now)

	mock.ExpectQuery(`SELECT .* FROM places WHERE status = \$1`).
		WithArgs("complete", 0.5, 5, 500).
		WillReturnRows(rows)

	places, err := s.ListSuspectPlaces(context.Background(), SuspectFilter{})
	require.NoError(t, err)
	require.Len(t, places, 1)
	assert.Equal(t, "p-thin", places[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SavePlaceIntelligence(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE places SET name = \$2`).
		WithArgs("place-1", "Hotel Aurora", "complete",
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			2, 1, 40, pgxmock.AnyArg(), "v2", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	score := 0.72
	enriched := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	place := &model.PlaceIntelligence{
		ID:     "place-1",
		Name:   "Hotel Aurora",
		Status: model.PlaceStatusComplete,
		Signals: []model.TasteSignal{
			{Domain: model.DomainDesign, Tag: "brutalist", Confidence: 0.8, Polarity: model.PolarityPositive},
			{Domain: model.DomainFood, Tag: "tasting menu", Confidence: 0.7, Polarity: model.PolarityPositive},
		},
		AntiSignals: []model.TasteSignal{
			{Domain: model.DomainService, Tag: "slow checkin", Confidence: 0.6, Polarity: model.PolarityNegative},
		},
		ReliabilityScore: &score,
		SignalCount:      2,
		AntiSignalCount:  1,
		ReviewCount:      40,
		PipelineVersion:  "v2",
		LastEnrichedAt:   &enriched,
	}

	err := s.SavePlaceIntelligence(context.Background(), place)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO pipeline_runs`).
		WithArgs(pgxmock.AnyArg(), "place-1", "running", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run, err := s.CreateRun(context.Background(), "place-1")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, "place-1", run.PlaceID)
	assert.Equal(t, model.RunStatusRunning, run.Status)
	assert.Empty(t, run.StagesCompleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LatestRun_None(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .* FROM pipeline_runs WHERE place_id = \$1`).
		WithArgs("place-1").
		WillReturnError(pgx.ErrNoRows)

	run, err := s.LatestRun(context.Background(), "place-1")
	require.NoError(t, err)
	assert.Nil(t, run)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LatestRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	started := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{
		"id", "place_id", "status", "current_stage", "stages_completed",
		"error", "metadata", "started_at", "completed_at", "duration_ms",
	}).AddRow("run-1", "place-1", "complete", "persist",
		[]byte(`["fetch","aggregate","score","persist"]`), "", nil, started, nil, int64(4200))
	mock.ExpectQuery(`SELECT .* FROM pipeline_runs WHERE place_id = \$1`).
		WithArgs("place-1").
		WillReturnRows(rows)

	run, err := s.LatestRun(context.Background(), "place-1")
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, model.RunStatusComplete, run.Status)
	assert.Equal(t, []string{"fetch", "aggregate", "score", "persist"}, run.StagesCompleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateContradiction_Idempotent(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	node := &model.ContradictionNode{
		UserID:     "user-1",
		Domain:     model.DomainWellness,
		NodeA:      "node-a",
		NodeB:      "node-b",
		Spread:     0.6,
		DetectedAt: time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC),
	}

	mock.ExpectExec(`INSERT INTO contradiction_nodes`).
		WithArgs(pgxmock.AnyArg(), "user-1", "wellness", "node-a", "node-b", 0.6, node.DetectedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO contradiction_nodes`).
		WithArgs(pgxmock.AnyArg(), "user-1", "wellness", "node-a", "node-b", 0.6, node.DetectedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	created, err := s.CreateContradiction(context.Background(), node)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.CreateContradiction(context.Background(), node)
	require.NoError(t, err)
	assert.False(t, created, "same pair inserts nothing the second time")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveUserProfile_Upsert(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO user_profiles .* ON CONFLICT`).
		WithArgs("user-1", pgxmock.AnyArg(), pgxmock.AnyArg(), 2, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	synthesized := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	profile := &model.UserProfile{
		UserID:                 "user-1",
		Weights:                model.TasteProfile{model.DomainFood: 0.8},
		LastSynthesizedAt:      &synthesized,
		BookingsSinceSynthesis: 2,
	}

	err := s.SaveUserProfile(context.Background(), profile)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetPlaceVector_None(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT place_id, vector, embedding, computed_at FROM place_vectors`).
		WithArgs("place-1").
		WillReturnError(pgx.ErrNoRows)

	v, err := s.GetPlaceVector(context.Background(), "place-1")
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.NoError(t, mock.ExpectationsWereMet())
}
