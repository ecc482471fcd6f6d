// Package state provides SQLite-based persistence for HiveCore.
package state

import (
	"io"

	"github.com/Hiveagents-ones/HiveCore-sub002/pkg/models"
)

// ProfileStore handles agent profile snapshot persistence.
type ProfileStore interface {
	SaveProfile(p *models.AgentProfile) error
	GetProfile(agentID string) (*models.AgentProfile, error)
	ListProfiles(activeOnly bool) ([]models.AgentProfile, error)
}

// RoundStore handles execution round persistence.
type RoundStore interface {
	CreateRound(r *models.ExecutionRound) error
	GetRound(id string) (*models.ExecutionRound, error)
	UpdateRound(r *models.ExecutionRound) error
	ListRounds(projectID string) ([]models.ExecutionRound, error)
	ActiveRound(projectID string) (*models.ExecutionRound, error)
	NextRoundNumber(projectID string) (int, error)
}

// ExecutionStore handles requirement execution persistence.
type ExecutionStore interface {
	CreateExecution(e *models.RequirementExecution) error
	GetExecution(id string) (*models.RequirementExecution, error)
	UpdateExecution(e *models.RequirementExecution) error
	ListExecutions(roundID string) ([]models.RequirementExecution, error)
	LatestExecutions(roundID string) (map[string]*models.RequirementExecution, error)
}

// Migrator handles database schema migrations.
// Separating this allows clients to depend only on migration functionality.
type Migrator interface {
	// Migrate applies all pending schema migrations.
	Migrate() error
}

// Store defines the interface for state persistence.
// This interface allows the orchestrator to work with any state backend
// without depending on the concrete SQLite implementation.
// It composes focused sub-interfaces for better modularity.
type Store interface {
	io.Closer
	Migrator
	ProfileStore
	RoundStore
	ExecutionStore
}

// Compile-time verification that DB implements all interfaces.
var (
	_ Store          = (*DB)(nil)
	_ Migrator       = (*DB)(nil)
	_ ProfileStore   = (*DB)(nil)
	_ RoundStore     = (*DB)(nil)
	_ ExecutionStore = (*DB)(nil)
)
