// Package parquet provides data structures and functions for exporting
// simulation run data to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/LaStefan/bpmn-process-optimization/schema"
	"github.com/parquet-go/parquet-go"
)

// SimulationRun represents a single simulation run with metadata.
// This struct maps to the bpo_simulation_runs database table.
type SimulationRun struct {
	// RunID is the unique identifier for this simulation run
	RunID int64 `parquet:"run_id,snappy"`

	// Planner names the admission planning policy that was simulated
	Planner string `parquet:"planner,snappy"`

	// Seed is the random seed the scenario was generated from
	Seed int64 `parquet:"seed,snappy"`

	// HorizonHours is the simulated horizon in hours
	HorizonHours float64 `parquet:"horizon_hours,snappy"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// Score is the composite KPI score of the run (nullable, lower is better)
	Score *float64 `parquet:"score,optional,snappy"`

	// ConfigParams contains the JSON-encoded run configuration (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// CaseOutcome represents the outcome of a single patient case in a run.
// This struct maps to the bpo_case_outcomes database table.
type CaseOutcome struct {
	// RunID references the parent simulation run
	RunID int64 `parquet:"run_id,snappy"`

	// CaseID is the patient case identifier within the run
	CaseID int32 `parquet:"case_id,snappy"`

	// Diagnosis is the patient diagnosis code (A1..B4 or ER)
	Diagnosis string `parquet:"diagnosis,snappy"`

	// Emergency reports whether the case arrived through the ER
	Emergency bool `parquet:"emergency,snappy"`

	// ArrivalHours is the arrival time in simulation hours
	ArrivalHours float64 `parquet:"arrival_hours,snappy"`

	// AdmissionHours is the admission time in simulation hours (negative if never admitted)
	AdmissionHours float64 `parquet:"admission_hours,snappy"`

	// ReleaseHours is the release time in simulation hours (negative if not released)
	ReleaseHours float64 `parquet:"release_hours,snappy"`

	// WaitingAdmissionHours is the time from arrival to intake start
	WaitingAdmissionHours float64 `parquet:"waiting_admission_hours,snappy"`

	// WaitingHospitalHours is the time spent queueing inside the hospital
	WaitingHospitalHours float64 `parquet:"waiting_hospital_hours,snappy"`

	// Replans is the number of times the admission was moved
	Replans int32 `parquet:"replans,snappy"`
}

// WriteSimulationRunsParquet writes a slice of SimulationRun structs to a Parquet file.
func WriteSimulationRunsParquet(data []SimulationRun, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// The schema is automatically derived from the SimulationRun struct tags
	writer := parquet.NewGenericWriter[SimulationRun](file)
	defer func() { _ = writer.Close() }()

	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}

	return nil
}

// WriteCaseOutcomesParquet writes a slice of CaseOutcome structs to a Parquet file.
func WriteCaseOutcomesParquet(data []CaseOutcome, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// The schema is automatically derived from the CaseOutcome struct tags
	writer := parquet.NewGenericWriter[CaseOutcome](file)
	defer func() { _ = writer.Close() }()

	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}

	return nil
}

// MockFetchSimulationRuns generates sample SimulationRun data for demonstration.
func MockFetchSimulationRuns() []SimulationRun {
	now := time.Now()
	startTime1 := now.Add(-2 * time.Hour)
	endTime1 := now.Add(-2*time.Hour + 40*time.Second)
	score1 := 44.8
	configParams1 := `{"planner":"heuristic","seed":2018,"horizon":8760}`

	startTime2 := now.Add(-24 * time.Hour)
	endTime2 := now.Add(-24*time.Hour + 55*time.Second)
	score2 := 31.2
	configParams2 := `{"planner":"optimized","seed":2018,"horizon":8760}`

	startTime3 := now.Add(-10 * time.Minute)
	// Note: endTime3, score3, configParams3 are nil to demonstrate nullable fields

	return []SimulationRun{
		{
			RunID:        1,
			Planner:      "heuristic",
			Seed:         2018,
			HorizonHours: 8760,
			StartTime:    startTime1,
			EndTime:      &endTime1,
			Score:        &score1,
			ConfigParams: &configParams1,
		},
		{
			RunID:        2,
			Planner:      "optimized",
			Seed:         2018,
			HorizonHours: 8760,
			StartTime:    startTime2,
			EndTime:      &endTime2,
			Score:        &score2,
			ConfigParams: &configParams2,
		},
		{
			RunID:        3,
			Planner:      "baseline",
			Seed:         99,
			HorizonHours: 672,
			StartTime:    startTime3,
			EndTime:      nil, // Still running - nullable field
			Score:        nil, // Not yet computed - nullable field
			ConfigParams: nil, // No config stored - nullable field
		},
	}
}

// MockFetchCaseOutcomes generates sample CaseOutcome data for demonstration.
func MockFetchCaseOutcomes() []CaseOutcome {
	return []CaseOutcome{
		{
			RunID:                 1,
			CaseID:                0,
			Diagnosis:             "A2",
			Emergency:             false,
			ArrivalHours:          12.5,
			AdmissionHours:        38.0,
			ReleaseHours:          110.25,
			WaitingAdmissionHours: 25.5,
			WaitingHospitalHours:  3.0,
			Replans:               1,
		},
		{
			RunID:                 1,
			CaseID:                1,
			Diagnosis:             "B1",
			Emergency:             false,
			ArrivalHours:          14.0,
			AdmissionHours:        40.0,
			ReleaseHours:          162.5,
			WaitingAdmissionHours: 26.0,
			WaitingHospitalHours:  6.25,
			Replans:               2,
		},
		{
			RunID:                 1,
			CaseID:                2,
			Diagnosis:             "ER",
			Emergency:             true,
			ArrivalHours:          16.75,
			AdmissionHours:        16.75,
			ReleaseHours:          -1, // Still in hospital at the horizon
			WaitingAdmissionHours: 0,
			WaitingHospitalHours:  1.5,
			Replans:               0,
		},
	}
}

// ConvertRunRecords converts schema.RunRecord to SimulationRun for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []SimulationRun {
	result := make([]SimulationRun, len(records))
	for i, record := range records {
		result[i] = SimulationRun{
			RunID:        record.RunID,
			Planner:      record.Planner,
			Seed:         record.Seed,
			HorizonHours: record.HorizonHours,
			StartTime:    record.StartTime,
			EndTime:      record.EndTime,
			Score:        record.Score,
			ConfigParams: record.ConfigParams,
		}
	}
	return result
}

// ConvertCaseOutcomeRecords converts schema.CaseOutcomeRecord to CaseOutcome for Parquet export.
func ConvertCaseOutcomeRecords(records []schema.CaseOutcomeRecord) []CaseOutcome {
	result := make([]CaseOutcome, len(records))
	for i, record := range records {
		result[i] = CaseOutcome{
			RunID:                 record.RunID,
			CaseID:                int32(record.CaseID),
			Diagnosis:             record.Diagnosis,
			Emergency:             record.Emergency,
			ArrivalHours:          record.ArrivalTime,
			AdmissionHours:        record.AdmissionTime,
			ReleaseHours:          record.ReleaseTime,
			WaitingAdmissionHours: record.WaitingAdm,
			WaitingHospitalHours:  record.WaitingHosp,
			Replans:               int32(record.Replans),
		}
	}
	return result
}

// ConvertRunOutcomes converts the in-memory outcomes of one run for Parquet
// output. The run has not been persisted, so RunID is zero.
func ConvertRunOutcomes(run *schema.RunResult) []CaseOutcome {
	result := make([]CaseOutcome, len(run.Outcomes))
	for i, o := range run.Outcomes {
		result[i] = CaseOutcome{
			CaseID:                int32(o.CaseID),
			Diagnosis:             string(o.Diagnosis),
			Emergency:             o.Emergency,
			ArrivalHours:          o.ArrivalTime,
			AdmissionHours:        o.AdmissionTime,
			ReleaseHours:          o.ReleaseTime,
			WaitingAdmissionHours: o.WaitingAdm,
			WaitingHospitalHours:  o.WaitingHosp,
			Replans:               int32(o.Replans),
		}
	}
	return result
}
