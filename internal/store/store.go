// Package store persists score runs, entity scores and trained model
// artifacts. Entities themselves are never stored; they arrive with each
// assessment.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/sentinel/internal/model"
)

// ErrNotFound is returned when a run or artifact does not exist.
var ErrNotFound = eris.New("store: not found")

// defaultRunLimit caps ListRuns when no limit is given.
const defaultRunLimit = 100

// ScoreFilter specifies criteria for listing entity scores. Zero values
// match everything; a zero Limit returns all matches.
type ScoreFilter struct {
	RunID      string           `json:"run_id,omitempty"`
	EntityType model.EntityType `json:"entity_type,omitempty"`
	MinScore   float64          `json:"min_score,omitempty"`
	Limit      int              `json:"limit,omitempty"`
}

// Store defines the persistence interface for assessment results.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, run model.ScoreRun) (*model.ScoreRun, error)
	GetRun(ctx context.Context, runID string) (*model.ScoreRun, error)
	ListRuns(ctx context.Context, limit int) ([]model.ScoreRun, error)

	// Scores
	SaveEntityScores(ctx context.Context, runID string, scores []model.EntityScore) error
	ListEntityScores(ctx context.Context, filter ScoreFilter) ([]model.EntityScore, error)

	// Model artifacts
	SaveArtifact(ctx context.Context, name string, data []byte) error
	LoadArtifact(ctx context.Context, name string) ([]byte, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
