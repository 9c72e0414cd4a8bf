package schema

import "time"

// RunRecord mirrors a row of the bpo_simulation_runs table.
type RunRecord struct {
	RunID        int64
	Planner      string
	Seed         int64
	HorizonHours float64
	StartTime    time.Time
	EndTime      *time.Time
	Score        *float64
	ConfigParams *string // JSON-encoded run configuration
}

// CaseOutcomeRecord mirrors a row of the bpo_case_outcomes table.
type CaseOutcomeRecord struct {
	RunID         int64
	CaseID        int
	Diagnosis     string
	ArrivalTime   float64
	AdmissionTime float64
	ReleaseTime   float64
	WaitingAdm    float64
	WaitingHosp   float64
	Replans       int
	Emergency     bool
	RecordedAt    time.Time
}

// RunStoreStatus holds status information about the run store.
type RunStoreStatus struct {
	Backend       DatabaseBackend
	Connected     bool
	TotalRuns     int64
	LastRunID     int64
	LastRunTime   time.Time
	OldestRunTime time.Time
	TableSizes    map[string]int64
}
