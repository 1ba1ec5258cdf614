package model

import "time"

// EntityScore is one scored entity, ready to be saved.
type EntityScore struct {
	EntityType EntityType `json:"entity_type"`
	EntityID   string     `json:"entity_id"`
	Name       string     `json:"name,omitempty"`
	Score      float64    `json:"score"`
	Components Breakdown  `json:"components,omitempty"`
	Source     string     `json:"source,omitempty"` // "rules" or "model"
}

// Score sources.
const (
	SourceRules = "rules"
	SourceModel = "model"
)

// ScoreRun groups the scores of one assessment.
type ScoreRun struct {
	ID          string    `json:"id"`
	Label       string    `json:"label,omitempty"`
	ConfigHash  string    `json:"config_hash"`
	EntityCount int       `json:"entity_count"`
	CreatedAt   time.Time `json:"created_at"`
}
