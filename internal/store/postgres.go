package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/voyantic/placeintel/internal/db"
	"github.com/voyantic/placeintel/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// the hottest store operations.
var preparedStatements = map[string]string{
	"get_place":       `SELECT id, name, status, signals, anti_signals, facts, reliability_score, signal_count, anti_signal_count, review_count, sources_processed, pipeline_version, last_enriched_at, created_at, updated_at FROM places WHERE id = $1`,
	"mark_processing": `UPDATE places SET status = 'processing', updated_at = $2 WHERE id = $1 AND status = 'pending'`,
	"insert_run":      `INSERT INTO pipeline_runs (id, place_id, status, stages_completed, started_at) VALUES ($1, $2, $3, $4, $5)`,
	"update_stage":    `UPDATE pipeline_runs SET current_stage = $1, stages_completed = $2 WHERE id = $3`,
	"latest_run":      `SELECT id, place_id, status, current_stage, stages_completed, error, metadata, started_at, completed_at, duration_ms FROM pipeline_runs WHERE place_id = $1 ORDER BY started_at DESC LIMIT 1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS places (
	id                TEXT PRIMARY KEY,
	name              TEXT NOT NULL DEFAULT '',
	status            TEXT NOT NULL DEFAULT 'pending',
	signals           JSONB NOT NULL DEFAULT '[]',
	anti_signals      JSONB NOT NULL DEFAULT '[]',
	facts             JSONB,
	reliability_score DOUBLE PRECISION,
	signal_count      INTEGER NOT NULL DEFAULT 0,
	anti_signal_count INTEGER NOT NULL DEFAULT 0,
	review_count      INTEGER NOT NULL DEFAULT 0,
	sources_processed JSONB,
	pipeline_version  TEXT NOT NULL DEFAULT '',
	last_enriched_at  TIMESTAMPTZ,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_places_status ON places(status);
CREATE INDEX IF NOT EXISTS idx_places_reliability ON places(reliability_score);

CREATE TABLE IF NOT EXISTS pipeline_runs (
	id               TEXT PRIMARY KEY,
	place_id         TEXT NOT NULL REFERENCES places(id),
	status           TEXT NOT NULL DEFAULT 'running',
	current_stage    TEXT NOT NULL DEFAULT '',
	stages_completed JSONB NOT NULL DEFAULT '[]',
	error            TEXT NOT NULL DEFAULT '',
	metadata         JSONB,
	started_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at     TIMESTAMPTZ,
	duration_ms      BIGINT NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_pipeline_runs_place ON pipeline_runs(place_id, started_at DESC);

CREATE TABLE IF NOT EXISTS taste_nodes (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL,
	domain       TEXT NOT NULL,
	tag          TEXT NOT NULL DEFAULT '',
	confidence   DOUBLE PRECISION NOT NULL,
	source       TEXT NOT NULL DEFAULT '',
	extracted_at TIMESTAMPTZ NOT NULL,
	is_active    BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE INDEX IF NOT EXISTS idx_taste_nodes_user ON taste_nodes(user_id, is_active);

CREATE TABLE IF NOT EXISTS contradiction_nodes (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	domain      TEXT NOT NULL,
	node_a      TEXT NOT NULL,
	node_b      TEXT NOT NULL,
	spread      DOUBLE PRECISION NOT NULL DEFAULT 0,
	detected_at TIMESTAMPTZ NOT NULL,
	is_active   BOOLEAN NOT NULL DEFAULT TRUE,
	UNIQUE (node_a, node_b)
);

CREATE INDEX IF NOT EXISTS idx_contradictions_user ON contradiction_nodes(user_id, is_active);

CREATE TABLE IF NOT EXISTS user_profiles (
	user_id                  TEXT PRIMARY KEY,
	weights                  JSONB NOT NULL,
	last_synthesized_at      TIMESTAMPTZ,
	bookings_since_synthesis INTEGER NOT NULL DEFAULT 0,
	updated_at               TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS place_vectors (
	place_id    TEXT PRIMARY KEY,
	vector      JSONB NOT NULL,
	embedding   JSONB,
	computed_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) RegisterPlace(ctx context.Context, ref model.PlaceRef) (*model.PlaceIntelligence, error) {
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO places (id, name, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO NOTHING`,
		ref.ID, ref.Name, string(model.PlaceStatusPending), now, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: register place %s", ref.ID)
	}
	return s.GetPlace(ctx, ref.ID)
}

const selectPlace = `SELECT id, name, status, signals, anti_signals, facts, reliability_score, signal_count, anti_signal_count, review_count, sources_processed, pipeline_version, last_enriched_at, created_at, updated_at FROM places`

func scanPlace(row pgx.Row) (*model.PlaceIntelligence, error) {
	var p model.PlaceIntelligence
	var signalsJSON, antiJSON, factsJSON, sourcesJSON []byte

	err := row.Scan(&p.ID, &p.Name, &p.Status, &signalsJSON, &antiJSON, &factsJSON,
		&p.ReliabilityScore, &p.SignalCount, &p.AntiSignalCount, &p.ReviewCount,
		&sourcesJSON, &p.PipelineVersion, &p.LastEnrichedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(signalsJSON, &p.Signals); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal signals")
	}
	if err := json.Unmarshal(antiJSON, &p.AntiSignals); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal anti signals")
	}
	if factsJSON != nil {
		if err := json.Unmarshal(factsJSON, &p.Facts); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal facts")
		}
	}
	if sourcesJSON != nil {
		if err := json.Unmarshal(sourcesJSON, &p.SourcesProcessed); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal sources processed")
		}
	}
	return &p, nil
}

func (s *PostgresStore) GetPlace(ctx context.Context, id string) (*model.PlaceIntelligence, error) {
	p, err := scanPlace(s.pool.QueryRow(ctx, selectPlace+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "postgres: get place %s", id)
	}
	return p, nil
}

// MarkPlaceProcessing performs the guarded pending → processing
// transition. Losing the guard (the place is already processing, complete,
// or failed) returns ErrConflict without touching run state.
func (s *PostgresStore) MarkPlaceProcessing(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE places SET status = 'processing', updated_at = $2 WHERE id = $1 AND status = 'pending'`,
		id, time.Now().UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: mark processing %s", id)
	}
	if tag.RowsAffected() == 0 {
		if _, getErr := s.GetPlace(ctx, id); getErr != nil {
			return getErr
		}
		return ErrConflict
	}
	return nil
}

func (s *PostgresStore) SetPlaceStatus(ctx context.Context, id string, status model.PlaceStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE places SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set place status %s", id)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetPlace clears enrichment output and returns the place to pending so
// a new run may start. Run history is preserved for audit.
func (s *PostgresStore) ResetPlace(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE places SET status = 'pending', signals = '[]', anti_signals = '[]', facts = NULL,
		 reliability_score = NULL, signal_count = 0, anti_signal_count = 0, review_count = 0,
		 sources_processed = NULL, updated_at = $2
		 WHERE id = $1`,
		id, time.Now().UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: reset place %s", id)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SavePlaceIntelligence(ctx context.Context, place *model.PlaceIntelligence) error {
	signalsJSON, err := json.Marshal(place.Signals)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal signals")
	}
	antiJSON, err := json.Marshal(place.AntiSignals)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal anti signals")
	}
	var factsJSON, sourcesJSON []byte
	if place.Facts != nil {
		if factsJSON, err = json.Marshal(place.Facts); err != nil {
			return eris.Wrap(err, "postgres: marshal facts")
		}
	}
	if place.SourcesProcessed != nil {
		if sourcesJSON, err = json.Marshal(place.SourcesProcessed); err != nil {
			return eris.Wrap(err, "postgres: marshal sources processed")
		}
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE places SET name = $2, status = $3, signals = $4, anti_signals = $5, facts = $6,
		 reliability_score = $7, signal_count = $8, anti_signal_count = $9, review_count = $10,
		 sources_processed = $11, pipeline_version = $12, last_enriched_at = $13, updated_at = $14
		 WHERE id = $1`,
		place.ID, place.Name, string(place.Status), signalsJSON, antiJSON, factsJSON,
		place.ReliabilityScore, place.SignalCount, place.AntiSignalCount, place.ReviewCount,
		sourcesJSON, place.PipelineVersion, place.LastEnrichedAt, time.Now().UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: save place %s", place.ID)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListPlaces(ctx context.Context, filter PlaceFilter) ([]model.PlaceIntelligence, error) {
	query := selectPlace + ` WHERE true`
	args := []any{}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` AND status = $1`
	}
	query += ` ORDER BY created_at ASC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 500
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list places")
	}
	defer rows.Close()

	var places []model.PlaceIntelligence
	for rows.Next() {
		p, err := scanPlace(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan place")
		}
		places = append(places, *p)
		if len(places) >= limit {
			break
		}
	}
	return places, eris.Wrap(rows.Err(), "postgres: list places iterate")
}

func (s *PostgresStore) ListSuspectPlaces(ctx context.Context, filter SuspectFilter) ([]model.PlaceIntelligence, error) {
	f := filter.withDefaults()
	rows, err := s.pool.Query(ctx, selectPlace+
		` WHERE status = $1
		 AND (reliability_score IS NULL OR reliability_score < $2 OR signal_count <= $3 OR review_count = 0)
		 ORDER BY reliability_score ASC NULLS FIRST LIMIT $4`,
		string(model.PlaceStatusComplete), f.MinScore, f.MinSignals, f.Limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list suspect places")
	}
	defer rows.Close()

	var places []model.PlaceIntelligence
	for rows.Next() {
		p, err := scanPlace(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan place")
		}
		places = append(places, *p)
	}
	return places, eris.Wrap(rows.Err(), "postgres: list suspect places iterate")
}

func (s *PostgresStore) CreateRun(ctx context.Context, placeID string) (*model.PipelineRun, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO pipeline_runs (id, place_id, status, stages_completed, started_at) VALUES ($1, $2, $3, $4, $5)`,
		id, placeID, string(model.RunStatusRunning), []byte(`[]`), now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert run for %s", placeID)
	}

	return &model.PipelineRun{
		ID:              id,
		PlaceID:         placeID,
		Status:          model.RunStatusRunning,
		StagesCompleted: []string{},
		StartedAt:       now,
	}, nil
}

func (s *PostgresStore) UpdateRunStage(ctx context.Context, runID, currentStage string, stagesCompleted []string) error {
	stagesJSON, err := json.Marshal(stagesCompleted)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal stages")
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE pipeline_runs SET current_stage = $1, stages_completed = $2 WHERE id = $3`,
		currentStage, stagesJSON, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run stage %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FinishRun(ctx context.Context, run *model.PipelineRun) error {
	stagesJSON, err := json.Marshal(run.StagesCompleted)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal stages")
	}
	var metadataJSON []byte
	if run.Metadata != nil {
		if metadataJSON, err = json.Marshal(run.Metadata); err != nil {
			return eris.Wrap(err, "postgres: marshal run metadata")
		}
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE pipeline_runs SET status = $1, current_stage = $2, stages_completed = $3, error = $4,
		 metadata = $5, completed_at = $6, duration_ms = $7 WHERE id = $8`,
		string(run.Status), run.CurrentStage, stagesJSON, run.Error,
		metadataJSON, run.CompletedAt, run.DurationMs, run.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: finish run %s", run.ID)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const selectRun = `SELECT id, place_id, status, current_stage, stages_completed, error, metadata, started_at, completed_at, duration_ms FROM pipeline_runs`

func scanRun(row pgx.Row) (*model.PipelineRun, error) {
	var r model.PipelineRun
	var stagesJSON, metadataJSON []byte

	err := row.Scan(&r.ID, &r.PlaceID, &r.Status, &r.CurrentStage, &stagesJSON,
		&r.Error, &metadataJSON, &r.StartedAt, &r.CompletedAt, &r.DurationMs)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(stagesJSON, &r.StagesCompleted); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal stages")
	}
	if metadataJSON != nil {
		if err := json.Unmarshal(metadataJSON, &r.Metadata); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal run metadata")
		}
	}
	return &r, nil
}

func (s *PostgresStore) LatestRun(ctx context.Context, placeID string) (*model.PipelineRun, error) {
	r, err := scanRun(s.pool.QueryRow(ctx,
		selectRun+` WHERE place_id = $1 ORDER BY started_at DESC LIMIT 1`, placeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: latest run for %s", placeID)
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, placeID string, limit int) ([]model.PipelineRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		selectRun+` WHERE place_id = $1 ORDER BY started_at DESC LIMIT $2`, placeID, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.PipelineRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT user_id FROM taste_nodes ORDER BY user_id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list user ids")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "postgres: scan user id")
		}
		ids = append(ids, id)
	}
	return ids, eris.Wrap(rows.Err(), "postgres: list user ids iterate")
}

func (s *PostgresStore) SaveTasteNode(ctx context.Context, node *model.TasteNode) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO taste_nodes (id, user_id, domain, tag, confidence, source, extracted_at, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET confidence = EXCLUDED.confidence,
		   source = EXCLUDED.source, extracted_at = EXCLUDED.extracted_at,
		   is_active = EXCLUDED.is_active`,
		node.ID, node.UserID, string(node.Domain), node.Tag, node.Confidence,
		node.Source, node.ExtractedAt, node.IsActive,
	)
	return eris.Wrapf(err, "postgres: save taste node %s", node.ID)
}

func (s *PostgresStore) ListTasteNodes(ctx context.Context, userID string) ([]model.TasteNode, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, domain, tag, confidence, source, extracted_at, is_active
		 FROM taste_nodes WHERE user_id = $1 ORDER BY extracted_at ASC`, userID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list taste nodes")
	}
	defer rows.Close()

	var nodes []model.TasteNode
	for rows.Next() {
		var n model.TasteNode
		if err := rows.Scan(&n.ID, &n.UserID, &n.Domain, &n.Tag, &n.Confidence, &n.Source, &n.ExtractedAt, &n.IsActive); err != nil {
			return nil, eris.Wrap(err, "postgres: scan taste node")
		}
		nodes = append(nodes, n)
	}
	return nodes, eris.Wrap(rows.Err(), "postgres: list taste nodes iterate")
}

func (s *PostgresStore) GetUserProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	var p model.UserProfile
	var weightsJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT user_id, weights, last_synthesized_at, bookings_since_synthesis, updated_at
		 FROM user_profiles WHERE user_id = $1`, userID,
	).Scan(&p.UserID, &weightsJSON, &p.LastSynthesizedAt, &p.BookingsSinceSynthesis, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get user profile %s", userID)
	}
	if err := json.Unmarshal(weightsJSON, &p.Weights); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal weights")
	}
	return &p, nil
}

func (s *PostgresStore) SaveUserProfile(ctx context.Context, profile *model.UserProfile) error {
	weightsJSON, err := json.Marshal(profile.Weights)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal weights")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO user_profiles (user_id, weights, last_synthesized_at, bookings_since_synthesis, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id) DO UPDATE SET weights = $2, last_synthesized_at = $3,
		   bookings_since_synthesis = $4, updated_at = $5`,
		profile.UserID, weightsJSON, profile.LastSynthesizedAt,
		profile.BookingsSinceSynthesis, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: save user profile %s", profile.UserID)
}

func (s *PostgresStore) ListActiveContradictions(ctx context.Context, userID string) ([]model.ContradictionNode, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, domain, node_a, node_b, spread, detected_at, is_active
		 FROM contradiction_nodes WHERE user_id = $1 AND is_active ORDER BY detected_at ASC`, userID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list contradictions")
	}
	defer rows.Close()

	var nodes []model.ContradictionNode
	for rows.Next() {
		var c model.ContradictionNode
		if err := rows.Scan(&c.ID, &c.UserID, &c.Domain, &c.NodeA, &c.NodeB, &c.Spread, &c.DetectedAt, &c.IsActive); err != nil {
			return nil, eris.Wrap(err, "postgres: scan contradiction")
		}
		nodes = append(nodes, c)
	}
	return nodes, eris.Wrap(rows.Err(), "postgres: list contradictions iterate")
}

func (s *PostgresStore) CreateContradiction(ctx context.Context, node *model.ContradictionNode) (bool, error) {
	if node.ID == "" {
		node.ID = uuid.New().String()
	}
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO contradiction_nodes (id, user_id, domain, node_a, node_b, spread, detected_at, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)
		 ON CONFLICT (node_a, node_b) DO NOTHING`,
		node.ID, node.UserID, string(node.Domain), node.NodeA, node.NodeB, node.Spread, node.DetectedAt,
	)
	if err != nil {
		return false, eris.Wrap(err, "postgres: create contradiction")
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) SavePlaceVector(ctx context.Context, vector *model.PlaceVector) error {
	vectorJSON, err := json.Marshal(vector.Vector)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal vector")
	}
	var embeddingJSON []byte
	if vector.Embedding != nil {
		if embeddingJSON, err = json.Marshal(vector.Embedding); err != nil {
			return eris.Wrap(err, "postgres: marshal embedding")
		}
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO place_vectors (place_id, vector, embedding, computed_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (place_id) DO UPDATE SET vector = $2, embedding = $3, computed_at = $4`,
		vector.PlaceID, vectorJSON, embeddingJSON, vector.ComputedAt,
	)
	return eris.Wrapf(err, "postgres: save place vector %s", vector.PlaceID)
}

func (s *PostgresStore) GetPlaceVector(ctx context.Context, placeID string) (*model.PlaceVector, error) {
	var v model.PlaceVector
	var vectorJSON []byte
	var embeddingJSON *[]byte

	err := s.pool.QueryRow(ctx,
		`SELECT place_id, vector, embedding, computed_at FROM place_vectors WHERE place_id = $1`,
		placeID,
	).Scan(&v.PlaceID, &vectorJSON, &embeddingJSON, &v.ComputedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get place vector %s", placeID)
	}
	if err := json.Unmarshal(vectorJSON, &v.Vector); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal vector")
	}
	if embeddingJSON != nil {
		if err := json.Unmarshal(*embeddingJSON, &v.Embedding); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal embedding")
		}
	}
	return &v, nil
}
