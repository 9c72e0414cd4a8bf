// Package sim implements the hospital admission simulation and the
// admission-planning policies evaluated against it.
//
// Simulation time is measured in fractional hours since schema.SimEpoch
// (Monday 2018-01-01 00:00). The simulator drives a Planner through three
// hooks: Report for every lifecycle event, Plan whenever cases can be
// planned or replanned, and Schedule once per simulated day at 18:00.
package sim

import (
	"fmt"

	"github.com/LaStefan/bpmn-process-optimization/internal/contract"
	"github.com/LaStefan/bpmn-process-optimization/schema"
)

// Planner decides when patients are admitted and how many resources are
// scheduled. Implementations must be safe for single-goroutine use only;
// the simulator never calls a planner concurrently.
type Planner interface {
	// Report is invoked for every simulation event.
	Report(ev schema.Event)

	// Plan is invoked when new cases become plannable or planned cases
	// become replannable. It returns the admissions to (re)plan; admission
	// times must be at least 24 hours ahead.
	Plan(casesToPlan, casesToReplan []int, now float64) []schema.Admission

	// Schedule is invoked each day at 18:00. Returned entries must be at
	// least 14 hours ahead, must not exceed resource caps, and may only
	// increase capacity inside the 158 hour freeze window.
	Schedule(now float64) []schema.ScheduleEntry
}

// NewPlanner builds the planner for a kind, wiring up the reporters.
// The event log reporter is nil-safe and may be omitted.
func NewPlanner(kind schema.PlannerKind, events *EventLogReporter, resources *ResourceScheduleReporter) (Planner, error) {
	switch kind {
	case schema.HeuristicPlanner:
		return NewHeuristic(events, resources), nil
	case schema.OptimizedPlanner:
		return NewOptimized(events, resources), nil
	case schema.BaselinePlanner:
		return NewBaseline(events, resources), nil
	}
	return nil, fmt.Errorf("unknown planner kind: %s", kind)
}

// newEventLogReporter opens the event log for a run config, or returns nil
// when no log was requested.
func newEventLogReporter(cfg *contract.Config, path string) (*EventLogReporter, error) {
	if path == "" {
		return nil, nil
	}
	return NewEventLogReporter(path, cfg.DataColumns)
}
