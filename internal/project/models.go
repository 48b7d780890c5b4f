package project

import (
	"time"

	"veopm/internal/asset"
	"veopm/internal/costs"
	"veopm/internal/shot"
)

// Project is the aggregate row for one production: identity, scene plans,
// and running cost counters. Shots and assets live in their own tables.
type Project struct {
	Slug       string
	Title      string
	ScenePlans []ScenePlan
	Costs      costs.Summary
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ScenePlan is one entry of the script breakdown: a scene key, a short
// summary, and the shot identifiers derived for it.
type ScenePlan struct {
	Scene   string   `json:"scene"`
	Summary string   `json:"summary,omitempty"`
	ShotIDs []string `json:"shotIds,omitempty"`
}

// Snapshot is the serialized form of a whole project pushed to the vault as
// projects/<slug>/state.json. A load→save round trip is lossless for every
// field.
type Snapshot struct {
	Slug       string               `json:"slug"`
	Title      string               `json:"title,omitempty"`
	Shots      []shot.Shot          `json:"shots"`
	Assets     []asset.ProjectAsset `json:"assets,omitempty"`
	ScenePlans []ScenePlan          `json:"scenePlans,omitempty"`
	Costs      costs.Summary        `json:"apiCallSummary"`
	SavedAt    time.Time            `json:"savedAt"`
}
