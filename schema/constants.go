package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// PlannerKind identifies an admission planning policy.
	PlannerKind string

	// DatabaseBackend represents the database backend for the run store.
	DatabaseBackend string

	// ResourceType identifies a schedulable hospital resource.
	ResourceType string

	// Diagnosis is a patient diagnosis code.
	Diagnosis string

	// Lifecycle is the lifecycle state of a process element.
	Lifecycle string

	// KPIKey represents keys used in KPI reports and score breakdowns.
	KPIKey string
)

// All output modes supported.
const (
	TextOut    OutputMode = "text" // default
	CSVOut     OutputMode = "csv"
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All planners supported.
const (
	HeuristicPlanner PlannerKind = "heuristic" // default
	OptimizedPlanner PlannerKind = "optimized"
	BaselinePlanner  PlannerKind = "baseline"
)

// All run store backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// ValidDatabaseBackends is the set of accepted run store backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidPlannerKinds is the set of accepted planner names.
var ValidPlannerKinds = map[PlannerKind]struct{}{
	HeuristicPlanner: {},
	OptimizedPlanner: {},
	BaselinePlanner:  {},
}

// All hospital resource types.
const (
	OperatingRoom  ResourceType = "OR"
	ABed           ResourceType = "A_BED"
	BBed           ResourceType = "B_BED"
	Intake         ResourceType = "INTAKE"
	ERPractitioner ResourceType = "ER_PRACTITIONER"
)

// ResourceCaps holds the maximum number of resources per type.
var ResourceCaps = map[ResourceType]int{
	OperatingRoom:  5,
	ABed:           30,
	BBed:           40,
	Intake:         4,
	ERPractitioner: 9,
}

// AllResourceTypes lists resource types in display order.
var AllResourceTypes = []ResourceType{
	OperatingRoom, ABed, BBed, Intake, ERPractitioner,
}

// Diagnosis codes. A-group patients skip surgery and occupy A beds;
// B-group patients require surgery and occupy B beds.
const (
	DiagA1 Diagnosis = "A1"
	DiagA2 Diagnosis = "A2"
	DiagA3 Diagnosis = "A3"
	DiagA4 Diagnosis = "A4"
	DiagB1 Diagnosis = "B1"
	DiagB2 Diagnosis = "B2"
	DiagB3 Diagnosis = "B3"
	DiagB4 Diagnosis = "B4"
	DiagER Diagnosis = "ER" // emergency arrivals without an elective diagnosis
)

// AllDiagnoses lists elective diagnoses in display order.
var AllDiagnoses = []Diagnosis{
	DiagA1, DiagA2, DiagA3, DiagA4,
	DiagB1, DiagB2, DiagB3, DiagB4,
}

// Surgical reports whether the diagnosis requires surgery.
func (d Diagnosis) Surgical() bool {
	switch d {
	case DiagB1, DiagB2, DiagB3, DiagB4:
		return true
	}
	return false
}

// BedType returns the bed resource occupied during nursing.
func (d Diagnosis) BedType() ResourceType {
	if d.Surgical() {
		return BBed
	}
	return ABed
}

// Lifecycle states reported for process elements.
const (
	LifecycleStart    Lifecycle = "start"
	LifecycleComplete Lifecycle = "complete"
)

// KPI keys used in reports and the composite score.
const (
	KPIWaitingAdmission KPIKey = "wta"  // hours from arrival to admission
	KPIWaitingHospital  KPIKey = "wth"  // in-hospital waiting hours
	KPINervousness      KPIKey = "nerv" // replanning events per planned case
	KPICost             KPIKey = "cost" // total resource cost
)

// AllKPIKeys lists KPI keys in display order.
var AllKPIKeys = []KPIKey{
	KPIWaitingAdmission, KPIWaitingHospital, KPINervousness, KPICost,
}

// Planner constraint constants, in simulation hours.
const (
	HoursPerDay  = 24
	HoursPerWeek = 168

	// PlanHorizon is the minimum notice for an admission.
	PlanHorizon = 24
	// ScheduleHorizon is the minimum notice for a schedule change.
	ScheduleHorizon = 14
	// ScheduleFreeze is the window inside which capacity may only increase.
	ScheduleFreeze = 158
	// SchedulingHour is the hour of day at which planners may reschedule.
	SchedulingHour = 18
)
