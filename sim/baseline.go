package sim

import "github.com/LaStefan/bpmn-process-optimization/schema"

// Baseline is the reference planner: every case is admitted at the minimum
// legal notice in arrival order, and the resource schedule is never touched
// (resources stay at their caps). It is the yardstick the other planners
// are compared against.
type Baseline struct {
	events    *EventLogReporter
	resources *ResourceScheduleReporter
}

// NewBaseline builds the baseline planner. Reporters may be nil.
func NewBaseline(events *EventLogReporter, resources *ResourceScheduleReporter) *Baseline {
	return &Baseline{events: events, resources: resources}
}

// Report forwards events to the reporters.
func (b *Baseline) Report(ev schema.Event) {
	if b.events != nil {
		b.events.Callback(ev)
	}
	if b.resources != nil {
		b.resources.Callback(ev)
	}
}

// Plan admits every new case a day ahead and never replans.
func (b *Baseline) Plan(casesToPlan, _ []int, now float64) []schema.Admission {
	planned := make([]schema.Admission, 0, len(casesToPlan))
	for _, id := range casesToPlan {
		planned = append(planned, schema.Admission{CaseID: id, Time: now + schema.PlanHorizon})
	}
	return planned
}

// Schedule leaves the resource schedule untouched.
func (b *Baseline) Schedule(float64) []schema.ScheduleEntry {
	return nil
}
