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

	"github.com/sells-group/sentinel/internal/model"
	"github.com/sells-group/sentinel/internal/resilience"
)

// SQLiteStore implements Store using modernc.org/sqlite.
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
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS score_runs (
	id           TEXT PRIMARY KEY,
	label        TEXT NOT NULL DEFAULT '',
	config_hash  TEXT NOT NULL,
	entity_count INTEGER NOT NULL DEFAULT 0,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS entity_scores (
	run_id      TEXT NOT NULL REFERENCES score_runs(id),
	entity_type TEXT NOT NULL,
	entity_id   TEXT NOT NULL,
	name        TEXT NOT NULL DEFAULT '',
	score       REAL NOT NULL,
	components  TEXT,
	source      TEXT NOT NULL DEFAULT 'rules',
	PRIMARY KEY (run_id, entity_type, entity_id)
);

CREATE TABLE IF NOT EXISTS model_artifacts (
	name       TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_score_runs_created_at ON score_runs(created_at);
CREATE INDEX IF NOT EXISTS idx_entity_scores_type_score ON entity_scores(entity_type, score);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, run model.ScoreRun) (*model.ScoreRun, error) {
	run.ID = uuid.New().String()
	run.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO score_runs (id, label, config_hash, entity_count, created_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Label, run.ConfigHash, run.EntityCount, run.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}
	return &run, nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.ScoreRun, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, label, config_hash, entity_count, created_at FROM score_runs WHERE id = ?`,
		runID,
	)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: run %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", runID)
	}
	return r, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.ScoreRun, error) {
	if limit <= 0 {
		limit = defaultRunLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, label, config_hash, entity_count, created_at FROM score_runs
		 ORDER BY created_at DESC, id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.ScoreRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

// SaveEntityScores upserts scores by (run, entity type, entity id) in one
// transaction.
// SaveEntityScores upserts scores in one transaction, retrying when the
// database is locked by another writer.
func (s *SQLiteStore) SaveEntityScores(ctx context.Context, runID string, scores []model.EntityScore) error {
	cfg := resilience.DefaultRetryConfig()
	cfg.OnRetry = resilience.RetryLogger("sqlite", "save_entity_scores")
	return resilience.Do(ctx, cfg, func(ctx context.Context) error {
		return s.saveEntityScores(ctx, runID, scores)
	})
}

func (s *SQLiteStore) saveEntityScores(ctx context.Context, runID string, scores []model.EntityScore) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM score_runs WHERE id = ?`, runID).Scan(&exists)
	if err != nil {
		return eris.Wrapf(err, "sqlite: check run %s", runID)
	}
	if exists == 0 {
		return eris.Wrapf(ErrNotFound, "sqlite: run %s", runID)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO entity_scores (run_id, entity_type, entity_id, name, score, components, source)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (run_id, entity_type, entity_id) DO UPDATE SET
		 name = excluded.name, score = excluded.score, components = excluded.components, source = excluded.source`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare score insert")
	}
	defer stmt.Close() //nolint:errcheck

	for _, sc := range scores {
		components, err := marshalComponents(sc.Components)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx,
			runID, string(sc.EntityType), sc.EntityID, sc.Name, sc.Score, nullableText(components), sourceOrRules(sc.Source),
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert score %s/%s", sc.EntityType, sc.EntityID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit scores")
}

func (s *SQLiteStore) ListEntityScores(ctx context.Context, filter ScoreFilter) ([]model.EntityScore, error) {
	query := `SELECT entity_type, entity_id, name, score, components, source FROM entity_scores WHERE 1=1`
	var args []any

	if filter.RunID != "" {
		query += ` AND run_id = ?`
		args = append(args, filter.RunID)
	}
	if filter.EntityType != "" {
		query += ` AND entity_type = ?`
		args = append(args, string(filter.EntityType))
	}
	if filter.MinScore > 0 {
		query += ` AND score >= ?`
		args = append(args, filter.MinScore)
	}
	query += ` ORDER BY score DESC, entity_type, entity_id`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list scores")
	}
	defer rows.Close() //nolint:errcheck

	var scores []model.EntityScore
	for rows.Next() {
		var (
			sc         model.EntityScore
			entityType string
			components sql.NullString
		)
		if err := rows.Scan(&entityType, &sc.EntityID, &sc.Name, &sc.Score, &components, &sc.Source); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan score")
		}
		sc.EntityType = model.EntityType(entityType)
		if components.Valid {
			if err := json.Unmarshal([]byte(components.String), &sc.Components); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal components")
			}
		}
		scores = append(scores, sc)
	}
	return scores, eris.Wrap(rows.Err(), "sqlite: list scores iterate")
}

func (s *SQLiteStore) SaveArtifact(ctx context.Context, name string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO model_artifacts (name, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		name, data, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: save artifact %s", name)
}

func (s *SQLiteStore) LoadArtifact(ctx context.Context, name string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM model_artifacts WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: artifact %s", name)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: load artifact %s", name)
	}
	return data, nil
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.ScoreRun, error) {
	var r model.ScoreRun
	if err := row.Scan(&r.ID, &r.Label, &r.ConfigHash, &r.EntityCount, &r.CreatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

// marshalComponents returns nil for an empty breakdown so the column is NULL.
func marshalComponents(b model.Breakdown) ([]byte, error) {
	if len(b) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(b)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal components")
	}
	return data, nil
}

func nullableText(data []byte) any {
	if data == nil {
		return nil
	}
	return string(data)
}

func sourceOrRules(source string) string {
	if source == "" {
		return model.SourceRules
	}
	return source
}
