// Package schema has configs, models and global variables for all parts of bpo.
package schema

import "time"

// SimEpoch is simulation time zero: Monday 2018-01-01 00:00:00 UTC.
// All simulation timestamps are fractional hours after this moment.
var SimEpoch = time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)

// SimTime converts simulation hours to wall-clock time.
func SimTime(hours float64) time.Time {
	return SimEpoch.Add(time.Duration(hours * float64(time.Hour)))
}

// HourOfWeek returns the hour within the 168h week for a simulation time.
func HourOfWeek(hours float64) float64 {
	h := hours
	for h < 0 {
		h += HoursPerWeek
	}
	return h - float64(int(h)/HoursPerWeek*HoursPerWeek)
}

// DayOfWeek returns the day of the week (Monday=0 .. Sunday=6).
func DayOfWeek(hours float64) int {
	return int(HourOfWeek(hours)) / HoursPerDay
}

// IsWeekday reports whether the simulation time falls on Monday-Friday.
func IsWeekday(hours float64) bool {
	return DayOfWeek(hours) < 5
}

// Event is a single simulation lifecycle event as seen by planners
// and reporters.
type Event struct {
	CaseID    int            // Patient case identifier
	Element   string         // Process element (task or event) name
	Timestamp float64        // Simulation time in hours
	Resource  ResourceType   // Resource in use, if any
	Lifecycle Lifecycle      // "start" or "complete"
	Data      map[string]any // Additional event data (e.g. diagnosis)
}

// ScheduleEntry requests that count resources of a type be available
// from a given simulation time onward.
type ScheduleEntry struct {
	Resource ResourceType
	Time     float64
	Count    int
}

// Admission plans a case for admission at a given simulation time.
type Admission struct {
	CaseID int
	Time   float64
}

// CaseOutcome summarizes a single case after the simulation finishes.
type CaseOutcome struct {
	CaseID        int       `json:"case_id"`
	Diagnosis     Diagnosis `json:"diagnosis"`
	ArrivalTime   float64   `json:"arrival_time"`
	AdmissionTime float64   `json:"admission_time"` // negative if never admitted
	ReleaseTime   float64   `json:"release_time"`   // negative if still in hospital at horizon
	WaitingAdm    float64   `json:"waiting_admission_hours"`
	WaitingHosp   float64   `json:"waiting_hospital_hours"`
	Replans       int       `json:"replans"`
	Emergency     bool      `json:"emergency"`
}

// CostBreakdown splits resource costs by rate class.
type CostBreakdown struct {
	Regular   float64 `json:"regular"`
	ShortTerm float64 `json:"short_term"`
	Overtime  float64 `json:"overtime"`
}

// Total returns the summed cost across all rate classes.
func (c CostBreakdown) Total() float64 {
	return c.Regular + c.ShortTerm + c.Overtime
}

// KPIReport aggregates all KPIs of a simulation run.
type KPIReport struct {
	MeanWTA       float64               `json:"mean_wta_hours"`
	MaxWTA        float64               `json:"max_wta_hours"`
	MeanWTH       float64               `json:"mean_wth_hours"`
	WTHBuckets    map[Diagnosis]float64 `json:"wth_by_diagnosis"`
	Nervousness   float64               `json:"nervousness"` // replans per planned case
	TotalReplans  int                   `json:"total_replans"`
	Cost          CostBreakdown         `json:"cost"`
	CasesArrived  int                   `json:"cases_arrived"`
	CasesAdmitted int                   `json:"cases_admitted"`
	CasesReleased int                   `json:"cases_released"`
	Violations    int                   `json:"constraint_violations"`
	Score         float64               `json:"score"` // composite, lower is better
}

// RunResult is the full output of a single simulation run.
type RunResult struct {
	Planner   PlannerKind   `json:"planner"`
	Seed      int64         `json:"seed"`
	Horizon   float64       `json:"horizon_hours"`
	Report    KPIReport     `json:"report"`
	Outcomes  []CaseOutcome `json:"outcomes,omitempty"`
	EventLog  string        `json:"event_log,omitempty"` // path of CSV log, if written
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// ComparisonResult holds KPI reports of multiple planners on one scenario.
type ComparisonResult struct {
	Seed    int64       `json:"seed"`
	Horizon float64     `json:"horizon_hours"`
	Runs    []RunResult `json:"runs"`
	Best    PlannerKind `json:"best"` // lowest composite score
}

// CheckViolation records one KPI threshold breach.
type CheckViolation struct {
	KPI       KPIKey  `json:"kpi"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
}

// CheckResult is the outcome of a threshold gate run.
type CheckResult struct {
	Planner    PlannerKind        `json:"planner"`
	Passed     bool               `json:"passed"`
	Violations []CheckViolation   `json:"violations,omitempty"`
	Thresholds map[KPIKey]float64 `json:"thresholds"`
	Report     KPIReport          `json:"report"`
}

// KPIDefinition describes a single KPI for the kpis command.
type KPIDefinition struct {
	Key     KPIKey  `json:"key"`
	Name    string  `json:"name"`
	Purpose string  `json:"purpose"`
	Formula string  `json:"formula"`
	Weight  float64 `json:"weight"`
}

// KPIRenderModel is the render model for KPI definitions output.
type KPIRenderModel struct {
	Definitions []KPIDefinition `json:"definitions"`
	ScoreNote   string          `json:"score_note"`
}
