// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"time"

	"github.com/LaStefan/bpmn-process-optimization/schema"
)

// StoreManager defines the interface for managing run stores.
// This allows the persistence layer to be mocked for testing.
type StoreManager interface {
	GetRunStore() RunStore
}

// RunStore defines the interface for tracking simulation runs and storing
// per-case outcomes.
type RunStore interface {
	// BeginRun creates a new simulation run and returns its unique ID
	BeginRun(planner string, seed int64, horizonHours float64, startTime time.Time, configParams map[string]any) (int64, error)

	// EndRun updates the simulation run with completion data
	EndRun(runID int64, endTime time.Time, score float64) error

	// RecordCaseOutcome stores the final outcome of a single case
	RecordCaseOutcome(runID int64, outcome schema.CaseOutcome) error

	// GetAllRuns returns every recorded simulation run
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllCaseOutcomes returns every recorded case outcome
	GetAllCaseOutcomes() ([]schema.CaseOutcomeRecord, error)

	// GetStatus returns status information about the run store
	GetStatus() (schema.RunStoreStatus, error)

	// Close closes the underlying connection
	Close() error
}
