package sim

import (
	"sort"

	"github.com/LaStefan/bpmn-process-optimization/schema"
)

// Priority tuning for the heuristic planner. Every waiting hour adds to a
// patient's priority; severe diagnoses and replanned patients are boosted.
const (
	heuristicWaitingWeight   = 1.0
	heuristicDiagnosisWeight = 10.0
	heuristicReplanPenalty   = 20.0
	heuristicUrgentThreshold = 100.0
)

// Heuristic is a priority-based admission planner: patients are ranked by
// waiting time, diagnosis severity and replanning status; urgent patients
// are admitted at the earliest legal moment, the rest a day later. The
// resource schedule follows a fixed weekday/weekend template one week ahead.
type Heuristic struct {
	events    *EventLogReporter
	resources *ResourceScheduleReporter

	arrivals  map[int]float64
	diagnoses map[int]schema.Diagnosis
}

// NewHeuristic builds the heuristic planner. Reporters may be nil.
func NewHeuristic(events *EventLogReporter, resources *ResourceScheduleReporter) *Heuristic {
	return &Heuristic{
		events:    events,
		resources: resources,
		arrivals:  make(map[int]float64),
		diagnoses: make(map[int]schema.Diagnosis),
	}
}

// Report forwards events to the reporters and tracks per-case arrival info.
func (h *Heuristic) Report(ev schema.Event) {
	if h.events != nil {
		h.events.Callback(ev)
	}
	if h.resources != nil {
		h.resources.Callback(ev)
	}
	if ev.Element == ElementArrival {
		h.arrivals[ev.CaseID] = ev.Timestamp
		if d, ok := ev.Data["diagnosis"].(schema.Diagnosis); ok {
			h.diagnoses[ev.CaseID] = d
		}
	}
}

// priority scores a case; higher means more urgent.
func (h *Heuristic) priority(caseID int, now float64, isReplan bool) float64 {
	arrival, ok := h.arrivals[caseID]
	if !ok {
		arrival = now
	}
	waiting := now - arrival

	severity := 0.0
	switch h.diagnoses[caseID] {
	case schema.DiagB1:
		severity = 3
	case schema.DiagA2:
		severity = 2
	case schema.DiagA3:
		severity = 1
	}

	penalty := 0.0
	if isReplan {
		penalty = heuristicReplanPenalty
	}
	return heuristicWaitingWeight*waiting + heuristicDiagnosisWeight*severity + penalty
}

// Plan admits patients in priority order. Urgent patients get the minimum
// 24h notice, everyone else 48h.
func (h *Heuristic) Plan(casesToPlan, casesToReplan []int, now float64) []schema.Admission {
	type scored struct {
		caseID   int
		priority float64
	}
	ranked := make([]scored, 0, len(casesToPlan)+len(casesToReplan))
	for _, id := range casesToPlan {
		ranked = append(ranked, scored{id, h.priority(id, now, false)})
	}
	for _, id := range casesToReplan {
		ranked = append(ranked, scored{id, h.priority(id, now, true)})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].priority > ranked[j].priority })

	planned := make([]schema.Admission, 0, len(ranked))
	for _, sc := range ranked {
		plannedTime := now + 2*schema.PlanHorizon
		if sc.priority > heuristicUrgentThreshold {
			plannedTime = now + schema.PlanHorizon
		}
		planned = append(planned, schema.Admission{CaseID: sc.caseID, Time: plannedTime})
	}
	return planned
}

// Schedule applies a weekly template: on weekdays, full capacity next week
// at 08:00 and a skeleton crew (1 OR, 1 intake) from 18:00; in the weekend,
// reduced bed and practitioner counts.
func (h *Heuristic) Schedule(now float64) []schema.ScheduleEntry {
	// now is 18:00; +158h is this day next week at 08:00, +168h at 18:00.
	morning := now + schema.ScheduleFreeze
	evening := now + schema.HoursPerWeek

	if schema.IsWeekday(now) {
		return []schema.ScheduleEntry{
			{Resource: schema.OperatingRoom, Time: morning, Count: 5},
			{Resource: schema.ABed, Time: morning, Count: 30},
			{Resource: schema.BBed, Time: morning, Count: 40},
			{Resource: schema.Intake, Time: morning, Count: 4},
			{Resource: schema.ERPractitioner, Time: morning, Count: 9},
			{Resource: schema.OperatingRoom, Time: evening, Count: 1},
			{Resource: schema.Intake, Time: evening, Count: 1},
		}
	}
	return []schema.ScheduleEntry{
		{Resource: schema.OperatingRoom, Time: morning, Count: 1},
		{Resource: schema.ABed, Time: morning, Count: 30},
		{Resource: schema.BBed, Time: morning, Count: 10},
		{Resource: schema.Intake, Time: morning, Count: 1},
		{Resource: schema.ERPractitioner, Time: morning, Count: 4},
		{Resource: schema.OperatingRoom, Time: evening, Count: 1},
		{Resource: schema.Intake, Time: evening, Count: 1},
	}
}
