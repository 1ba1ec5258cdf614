package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/sentinel/internal/db"
	"github.com/sells-group/sentinel/internal/model"
	"github.com/sells-group/sentinel/internal/resilience"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
	retry   resilience.RetryConfig
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection.
var preparedStatements = map[string]string{
	"insert_run":    `INSERT INTO score_runs (id, label, config_hash, entity_count, created_at) VALUES ($1, $2, $3, $4, $5)`,
	"get_run":       `SELECT id, label, config_hash, entity_count, created_at FROM score_runs WHERE id = $1`,
	"load_artifact": `SELECT data FROM model_artifacts WHERE name = $1`,
}

var scoreUpsert = db.UpsertConfig{
	Table:   "entity_scores",
	Columns: []string{"run_id", "entity_type", "entity_id", "name", "score", "components", "source"},
	Keys:    []string{"run_id", "entity_type", "entity_id"},
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
	if minConns > maxConns {
		minConns = maxConns
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
	retry := resilience.DefaultRetryConfig()
	pingRetry := retry
	pingRetry.OnRetry = resilience.RetryLogger("postgres", "ping")
	if err := resilience.Do(ctx, pingRetry, pool.Ping); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	zap.L().Debug("postgres: pool ready", zap.Int32("max_conns", maxConns), zap.Int32("min_conns", minConns))
	return &PostgresStore{pool: pool, closeFn: pool.Close, retry: retry}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS score_runs (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	label        TEXT NOT NULL DEFAULT '',
	config_hash  TEXT NOT NULL,
	entity_count INTEGER NOT NULL DEFAULT 0,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS entity_scores (
	run_id      TEXT NOT NULL REFERENCES score_runs(id) ON DELETE CASCADE,
	entity_type TEXT NOT NULL,
	entity_id   TEXT NOT NULL,
	name        TEXT NOT NULL DEFAULT '',
	score       DOUBLE PRECISION NOT NULL,
	components  JSONB,
	source      TEXT NOT NULL DEFAULT 'rules',
	PRIMARY KEY (run_id, entity_type, entity_id)
);

CREATE TABLE IF NOT EXISTS model_artifacts (
	name       TEXT PRIMARY KEY,
	data       BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_score_runs_created_at ON score_runs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_entity_scores_type_score ON entity_scores(entity_type, score DESC);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, run model.ScoreRun) (*model.ScoreRun, error) {
	run.ID = uuid.New().String()
	run.CreatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO score_runs (id, label, config_hash, entity_count, created_at) VALUES ($1, $2, $3, $4, $5)`,
		run.ID, run.Label, run.ConfigHash, run.EntityCount, run.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}
	return &run, nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.ScoreRun, error) {
	r, err := scanRun(s.pool.QueryRow(ctx,
		`SELECT id, label, config_hash, entity_count, created_at FROM score_runs WHERE id = $1`,
		runID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: run %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]model.ScoreRun, error) {
	if limit <= 0 {
		limit = defaultRunLimit
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, label, config_hash, entity_count, created_at FROM score_runs
		 ORDER BY created_at DESC, id LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.ScoreRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

// SaveEntityScores upserts scores through a COPY into a temp table. The
// upsert is idempotent, so transient failures are retried.
func (s *PostgresStore) SaveEntityScores(ctx context.Context, runID string, scores []model.EntityScore) error {
	rows := make([][]any, 0, len(scores))
	for _, sc := range scores {
		components, err := marshalComponents(sc.Components)
		if err != nil {
			return err
		}
		rows = append(rows, []any{
			runID, string(sc.EntityType), sc.EntityID, sc.Name, sc.Score, components, sourceOrRules(sc.Source),
		})
	}

	cfg := s.retry
	cfg.OnRetry = resilience.RetryLogger("postgres", "save_entity_scores")
	n, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (int64, error) {
		return db.BulkUpsert(ctx, s.pool, scoreUpsert, rows)
	})
	if err != nil {
		return eris.Wrapf(err, "postgres: save scores for run %s", runID)
	}
	zap.L().Debug("postgres: saved entity scores", zap.String("run_id", runID), zap.Int64("rows", n))
	return nil
}

func (s *PostgresStore) ListEntityScores(ctx context.Context, filter ScoreFilter) ([]model.EntityScore, error) {
	query := `SELECT entity_type, entity_id, name, score, components, source FROM entity_scores WHERE true`
	args := []any{}
	argIdx := 1

	if filter.RunID != "" {
		query += fmt.Sprintf(` AND run_id = $%d`, argIdx)
		args = append(args, filter.RunID)
		argIdx++
	}
	if filter.EntityType != "" {
		query += fmt.Sprintf(` AND entity_type = $%d`, argIdx)
		args = append(args, string(filter.EntityType))
		argIdx++
	}
	if filter.MinScore > 0 {
		query += fmt.Sprintf(` AND score >= $%d`, argIdx)
		args = append(args, filter.MinScore)
		argIdx++
	}
	query += ` ORDER BY score DESC, entity_type, entity_id`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, argIdx)
		args = append(args, filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list scores")
	}
	defer rows.Close()

	var scores []model.EntityScore
	for rows.Next() {
		var (
			sc         model.EntityScore
			entityType string
			components []byte
		)
		if err := rows.Scan(&entityType, &sc.EntityID, &sc.Name, &sc.Score, &components, &sc.Source); err != nil {
			return nil, eris.Wrap(err, "postgres: scan score")
		}
		sc.EntityType = model.EntityType(entityType)
		if len(components) > 0 {
			if err := json.Unmarshal(components, &sc.Components); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal components")
			}
		}
		scores = append(scores, sc)
	}
	return scores, eris.Wrap(rows.Err(), "postgres: list scores iterate")
}

func (s *PostgresStore) SaveArtifact(ctx context.Context, name string, data []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO model_artifacts (name, data, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (name) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		name, data, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: save artifact %s", name)
}

func (s *PostgresStore) LoadArtifact(ctx context.Context, name string) ([]byte, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM model_artifacts WHERE name = $1`, name).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: artifact %s", name)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: load artifact %s", name)
	}
	return data, nil
}
