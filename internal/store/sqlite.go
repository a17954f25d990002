package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/voyantic/placeintel/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. Meant for local
// runs and tests; the production store is Postgres.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS places (
	id                TEXT PRIMARY KEY,
	name              TEXT NOT NULL DEFAULT '',
	status            TEXT NOT NULL DEFAULT 'pending',
	signals           TEXT NOT NULL DEFAULT '[]',
	anti_signals      TEXT NOT NULL DEFAULT '[]',
	facts             TEXT,
	reliability_score REAL,
	signal_count      INTEGER NOT NULL DEFAULT 0,
	anti_signal_count INTEGER NOT NULL DEFAULT 0,
	review_count      INTEGER NOT NULL DEFAULT 0,
	sources_processed TEXT,
	pipeline_version  TEXT NOT NULL DEFAULT '',
	last_enriched_at  DATETIME,
	created_at        DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at        DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS pipeline_runs (
	id               TEXT PRIMARY KEY,
	place_id         TEXT NOT NULL REFERENCES places(id),
	status           TEXT NOT NULL DEFAULT 'running',
	current_stage    TEXT NOT NULL DEFAULT '',
	stages_completed TEXT NOT NULL DEFAULT '[]',
	error            TEXT NOT NULL DEFAULT '',
	metadata         TEXT,
	started_at       DATETIME NOT NULL DEFAULT (datetime('now')),
	completed_at     DATETIME,
	duration_ms      INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS taste_nodes (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL,
	domain       TEXT NOT NULL,
	tag          TEXT NOT NULL DEFAULT '',
	confidence   REAL NOT NULL,
	source       TEXT NOT NULL DEFAULT '',
	extracted_at DATETIME NOT NULL,
	is_active    INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS contradiction_nodes (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	domain      TEXT NOT NULL,
	node_a      TEXT NOT NULL,
	node_b      TEXT NOT NULL,
	spread      REAL NOT NULL DEFAULT 0,
	detected_at DATETIME NOT NULL,
	is_active   INTEGER NOT NULL DEFAULT 1,
	UNIQUE (node_a, node_b)
);

CREATE TABLE IF NOT EXISTS user_profiles (
	user_id                  TEXT PRIMARY KEY,
	weights                  TEXT NOT NULL,
	last_synthesized_at      DATETIME,
	bookings_since_synthesis INTEGER NOT NULL DEFAULT 0,
	updated_at               DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS place_vectors (
	place_id    TEXT PRIMARY KEY,
	vector      TEXT NOT NULL,
	embedding   TEXT,
	computed_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_places_status ON places(status);
CREATE INDEX IF NOT EXISTS idx_pipeline_runs_place ON pipeline_runs(place_id, started_at);
CREATE INDEX IF NOT EXISTS idx_taste_nodes_user ON taste_nodes(user_id, is_active);
CREATE INDEX IF NOT EXISTS idx_contradictions_user ON contradiction_nodes(user_id, is_active);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrapf(err, "sqlite: rows affected for %s %s", entity, id)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) RegisterPlace(ctx context.Context, ref model.PlaceRef) (*model.PlaceIntelligence, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO places (id, name, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO NOTHING`,
		ref.ID, ref.Name, string(model.PlaceStatusPending), now, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: register place %s", ref.ID)
	}
	return s.GetPlace(ctx, ref.ID)
}

const sqliteSelectPlace = `SELECT id, name, status, signals, anti_signals, facts, reliability_score, signal_count, anti_signal_count, review_count, sources_processed, pipeline_version, last_enriched_at, created_at, updated_at FROM places`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlaceSQL(row rowScanner) (*model.PlaceIntelligence, error) {
	var p model.PlaceIntelligence
	var signalsJSON, antiJSON string
	var factsJSON, sourcesJSON sql.NullString

	err := row.Scan(&p.ID, &p.Name, &p.Status, &signalsJSON, &antiJSON, &factsJSON,
		&p.ReliabilityScore, &p.SignalCount, &p.AntiSignalCount, &p.ReviewCount,
		&sourcesJSON, &p.PipelineVersion, &p.LastEnrichedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(signalsJSON), &p.Signals); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal signals")
	}
	if err := json.Unmarshal([]byte(antiJSON), &p.AntiSignals); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal anti signals")
	}
	if factsJSON.Valid {
		if err := json.Unmarshal([]byte(factsJSON.String), &p.Facts); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal facts")
		}
	}
	if sourcesJSON.Valid {
		if err := json.Unmarshal([]byte(sourcesJSON.String), &p.SourcesProcessed); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal sources processed")
		}
	}
	return &p, nil
}

func (s *SQLiteStore) GetPlace(ctx context.Context, id string) (*model.PlaceIntelligence, error) {
	p, err := scanPlaceSQL(s.db.QueryRowContext(ctx, sqliteSelectPlace+` WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "sqlite: get place %s", id)
	}
	return p, nil
}

func (s *SQLiteStore) MarkPlaceProcessing(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE places SET status = 'processing', updated_at = ? WHERE id = ? AND status = 'pending'`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark processing %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		if _, getErr := s.GetPlace(ctx, id); getErr != nil {
			return getErr
		}
		return ErrConflict
	}
	return nil
}

func (s *SQLiteStore) SetPlaceStatus(ctx context.Context, id string, status model.PlaceStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE places SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set place status %s", id)
	}
	return checkRowsAffected(res, "place", id)
}

func (s *SQLiteStore) ResetPlace(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE places SET status = 'pending', signals = '[]', anti_signals = '[]', facts = NULL,
		 reliability_score = NULL, signal_count = 0, anti_signal_count = 0, review_count = 0,
		 sources_processed = NULL, updated_at = ?
		 WHERE id = ?`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: reset place %s", id)
	}
	return checkRowsAffected(res, "place", id)
}

func (s *SQLiteStore) SavePlaceIntelligence(ctx context.Context, place *model.PlaceIntelligence) error {
	signalsJSON, err := json.Marshal(place.Signals)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal signals")
	}
	antiJSON, err := json.Marshal(place.AntiSignals)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal anti signals")
	}
	var factsJSON, sourcesJSON any
	if place.Facts != nil {
		b, err := json.Marshal(place.Facts)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal facts")
		}
		factsJSON = string(b)
	}
	if place.SourcesProcessed != nil {
		b, err := json.Marshal(place.SourcesProcessed)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal sources processed")
		}
		sourcesJSON = string(b)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE places SET name = ?, status = ?, signals = ?, anti_signals = ?, facts = ?,
		 reliability_score = ?, signal_count = ?, anti_signal_count = ?, review_count = ?,
		 sources_processed = ?, pipeline_version = ?, last_enriched_at = ?, updated_at = ?
		 WHERE id = ?`,
		place.Name, string(place.Status), string(signalsJSON), string(antiJSON), factsJSON,
		place.ReliabilityScore, place.SignalCount, place.AntiSignalCount, place.ReviewCount,
		sourcesJSON, place.PipelineVersion, place.LastEnrichedAt, time.Now().UTC(), place.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: save place %s", place.ID)
	}
	return checkRowsAffected(res, "place", place.ID)
}

func (s *SQLiteStore) ListPlaces(ctx context.Context, filter PlaceFilter) ([]model.PlaceIntelligence, error) {
	query := sqliteSelectPlace + ` WHERE 1=1`
	args := []any{}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at ASC LIMIT ?`
	limit := filter.Limit
	if limit <= 0 {
		limit = 500
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list places")
	}
	defer rows.Close()

	var places []model.PlaceIntelligence
	for rows.Next() {
		p, err := scanPlaceSQL(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan place")
		}
		places = append(places, *p)
	}
	return places, eris.Wrap(rows.Err(), "sqlite: list places iterate")
}

func (s *SQLiteStore) ListSuspectPlaces(ctx context.Context, filter SuspectFilter) ([]model.PlaceIntelligence, error) {
	f := filter.withDefaults()
	rows, err := s.db.QueryContext(ctx, sqliteSelectPlace+
		` WHERE status = ?
		 AND (reliability_score IS NULL OR reliability_score < ? OR signal_count <= ? OR review_count = 0)
		 ORDER BY reliability_score ASC LIMIT ?`,
		string(model.PlaceStatusComplete), f.MinScore, f.MinSignals, f.Limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list suspect places")
	}
	defer rows.Close()

	var places []model.PlaceIntelligence
	for rows.Next() {
		p, err := scanPlaceSQL(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan place")
		}
		places = append(places, *p)
	}
	return places, eris.Wrap(rows.Err(), "sqlite: list suspect places iterate")
}

func (s *SQLiteStore) CreateRun(ctx context.Context, placeID string) (*model.PipelineRun, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pipeline_runs (id, place_id, status, stages_completed, started_at) VALUES (?, ?, ?, ?, ?)`,
		id, placeID, string(model.RunStatusRunning), "[]", now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert run for %s", placeID)
	}

	return &model.PipelineRun{
		ID:              id,
		PlaceID:         placeID,
		Status:          model.RunStatusRunning,
		StagesCompleted: []string{},
		StartedAt:       now,
	}, nil
}

func (s *SQLiteStore) UpdateRunStage(ctx context.Context, runID, currentStage string, stagesCompleted []string) error {
	stagesJSON, err := json.Marshal(stagesCompleted)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal stages")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE pipeline_runs SET current_stage = ?, stages_completed = ? WHERE id = ?`,
		currentStage, string(stagesJSON), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run stage %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) FinishRun(ctx context.Context, run *model.PipelineRun) error {
	stagesJSON, err := json.Marshal(run.StagesCompleted)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal stages")
	}
	var metadataJSON any
	if run.Metadata != nil {
		b, err := json.Marshal(run.Metadata)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal run metadata")
		}
		metadataJSON = string(b)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE pipeline_runs SET status = ?, current_stage = ?, stages_completed = ?, error = ?,
		 metadata = ?, completed_at = ?, duration_ms = ? WHERE id = ?`,
		string(run.Status), run.CurrentStage, string(stagesJSON), run.Error,
		metadataJSON, run.CompletedAt, run.DurationMs, run.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish run %s", run.ID)
	}
	return checkRowsAffected(res, "run", run.ID)
}

const sqliteSelectRun = `SELECT id, place_id, status, current_stage, stages_completed, error, metadata, started_at, completed_at, duration_ms FROM pipeline_runs`

func scanRunSQL(row rowScanner) (*model.PipelineRun, error) {
	var r model.PipelineRun
	var stagesJSON string
	var metadataJSON sql.NullString

	err := row.Scan(&r.ID, &r.PlaceID, &r.Status, &r.CurrentStage, &stagesJSON,
		&r.Error, &metadataJSON, &r.StartedAt, &r.CompletedAt, &r.DurationMs)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(stagesJSON), &r.StagesCompleted); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal stages")
	}
	if metadataJSON.Valid {
		if err := json.Unmarshal([]byte(metadataJSON.String), &r.Metadata); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal run metadata")
		}
	}
	return &r, nil
}

func (s *SQLiteStore) LatestRun(ctx context.Context, placeID string) (*model.PipelineRun, error) {
	r, err := scanRunSQL(s.db.QueryRowContext(ctx,
		sqliteSelectRun+` WHERE place_id = ? ORDER BY started_at DESC LIMIT 1`, placeID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: latest run for %s", placeID)
	}
	return r, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, placeID string, limit int) ([]model.PipelineRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		sqliteSelectRun+` WHERE place_id = ? ORDER BY started_at DESC LIMIT ?`, placeID, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.PipelineRun
	for rows.Next() {
		r, err := scanRunSQL(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM taste_nodes ORDER BY user_id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list user ids")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan user id")
		}
		ids = append(ids, id)
	}
	return ids, eris.Wrap(rows.Err(), "sqlite: list user ids iterate")
}

func (s *SQLiteStore) SaveTasteNode(ctx context.Context, node *model.TasteNode) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO taste_nodes (id, user_id, domain, tag, confidence, source, extracted_at, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET confidence = excluded.confidence,
		   source = excluded.source, extracted_at = excluded.extracted_at,
		   is_active = excluded.is_active`,
		node.ID, node.UserID, string(node.Domain), node.Tag, node.Confidence,
		node.Source, node.ExtractedAt, node.IsActive,
	)
	return eris.Wrapf(err, "sqlite: save taste node %s", node.ID)
}

func (s *SQLiteStore) ListTasteNodes(ctx context.Context, userID string) ([]model.TasteNode, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, domain, tag, confidence, source, extracted_at, is_active
		 FROM taste_nodes WHERE user_id = ? ORDER BY extracted_at ASC`, userID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list taste nodes")
	}
	defer rows.Close()

	var nodes []model.TasteNode
	for rows.Next() {
		var n model.TasteNode
		if err := rows.Scan(&n.ID, &n.UserID, &n.Domain, &n.Tag, &n.Confidence, &n.Source, &n.ExtractedAt, &n.IsActive); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan taste node")
		}
		nodes = append(nodes, n)
	}
	return nodes, eris.Wrap(rows.Err(), "sqlite: list taste nodes iterate")
}

func (s *SQLiteStore) GetUserProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	var p model.UserProfile
	var weightsJSON string

	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, weights, last_synthesized_at, bookings_since_synthesis, updated_at
		 FROM user_profiles WHERE user_id = ?`, userID,
	).Scan(&p.UserID, &weightsJSON, &p.LastSynthesizedAt, &p.BookingsSinceSynthesis, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get user profile %s", userID)
	}
	if err := json.Unmarshal([]byte(weightsJSON), &p.Weights); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal weights")
	}
	return &p, nil
}

func (s *SQLiteStore) SaveUserProfile(ctx context.Context, profile *model.UserProfile) error {
	weightsJSON, err := json.Marshal(profile.Weights)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal weights")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO user_profiles (user_id, weights, last_synthesized_at, bookings_since_synthesis, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET weights = excluded.weights,
		   last_synthesized_at = excluded.last_synthesized_at,
		   bookings_since_synthesis = excluded.bookings_since_synthesis,
		   updated_at = excluded.updated_at`,
		profile.UserID, string(weightsJSON), profile.LastSynthesizedAt,
		profile.BookingsSinceSynthesis, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: save user profile %s", profile.UserID)
}

func (s *SQLiteStore) ListActiveContradictions(ctx context.Context, userID string) ([]model.ContradictionNode, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, domain, node_a, node_b, spread, detected_at, is_active
		 FROM contradiction_nodes WHERE user_id = ? AND is_active = 1 ORDER BY detected_at ASC`, userID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list contradictions")
	}
	defer rows.Close()

	var nodes []model.ContradictionNode
	for rows.Next() {
		var c model.ContradictionNode
		if err := rows.Scan(&c.ID, &c.UserID, &c.Domain, &c.NodeA, &c.NodeB, &c.Spread, &c.DetectedAt, &c.IsActive); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan contradiction")
		}
		nodes = append(nodes, c)
	}
	return nodes, eris.Wrap(rows.Err(), "sqlite: list contradictions iterate")
}

func (s *SQLiteStore) CreateContradiction(ctx context.Context, node *model.ContradictionNode) (bool, error) {
	if node.ID == "" {
		node.ID = uuid.New().String()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO contradiction_nodes (id, user_id, domain, node_a, node_b, spread, detected_at, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 1)
		 ON CONFLICT (node_a, node_b) DO NOTHING`,
		node.ID, node.UserID, string(node.Domain), node.NodeA, node.NodeB, node.Spread, node.DetectedAt,
	)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: create contradiction")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: rows affected")
	}
	return n > 0, nil
}

func (s *SQLiteStore) SavePlaceVector(ctx context.Context, vector *model.PlaceVector) error {
	vectorJSON, err := json.Marshal(vector.Vector)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal vector")
	}
	var embeddingJSON any
	if vector.Embedding != nil {
		b, err := json.Marshal(vector.Embedding)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal embedding")
		}
		embeddingJSON = string(b)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO place_vectors (place_id, vector, embedding, computed_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (place_id) DO UPDATE SET vector = excluded.vector,
		   embedding = excluded.embedding, computed_at = excluded.computed_at`,
		vector.PlaceID, string(vectorJSON), embeddingJSON, vector.ComputedAt,
	)
	return eris.Wrapf(err, "sqlite: save place vector %s", vector.PlaceID)
}

func (s *SQLiteStore) GetPlaceVector(ctx context.Context, placeID string) (*model.PlaceVector, error) {
	var v model.PlaceVector
	var vectorJSON string
	var embeddingJSON sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT place_id, vector, embedding, computed_at FROM place_vectors WHERE place_id = ?`,
		placeID,
	).Scan(&v.PlaceID, &vectorJSON, &embeddingJSON, &v.ComputedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get place vector %s", placeID)
	}
	if err := json.Unmarshal([]byte(vectorJSON), &v.Vector); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal vector")
	}
	if embeddingJSON.Valid {
		if err := json.Unmarshal([]byte(embeddingJSON.String), &v.Embedding); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal embedding")
		}
	}
	return &v, nil
}
