package sim

import (
	"container/heap"
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/LaStefan/bpmn-process-optimization/schema"
)

// caseStatus is the lifecycle state of a patient case.
type caseStatus int

const (
	caseCreated  caseStatus = iota // elective, not yet planned
	casePlanned                    // admission time fixed, not yet in hospital
	caseWaiting                    // enabled task queued for a resource
	caseInTask                     // task running
	caseReleased                   // pathway finished
)

// caseState carries everything the simulator tracks for one patient.
type caseState struct {
	id        int
	diagnosis schema.Diagnosis
	arrival   float64
	emergency bool

	tasks []task
	next  int

	status    caseStatus
	admission float64 // planned admission time, -1 if unplanned
	admitted  float64 // actual intake start, -1 until then
	released  float64 // release time, -1 until then
	replans   int

	waitStart float64 // when the current task became enabled
	waiting   float64 // accumulated in-hospital waiting hours
}

func (c *caseState) currentTask() *task {
	if c.next >= len(c.tasks) {
		return nil
	}
	return &c.tasks[c.next]
}

// Event kinds processed by the simulator loop.
type eventKind int

const (
	evElectiveArrival eventKind = iota
	evEmergencyArrival
	evAdmissionDue
	evTaskComplete
	evScheduleMoment
	evCapacityChange
)

type simEvent struct {
	time     float64
	seq      int64 // tie-break: insertion order keeps the loop deterministic
	kind     eventKind
	caseID   int
	resource schema.ResourceType
}

// eventQueue is a min-heap ordered by (time, seq).
type eventQueue []*simEvent

func (q eventQueue) Len() int { return len(q) }
func (q eventQueue) Less(i, j int) bool {
	if q[i].time != q[j].time {
		return q[i].time < q[j].time
	}
	return q[i].seq < q[j].seq
}
func (q eventQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *eventQueue) Push(x any)        { *q = append(*q, x.(*simEvent)) }
func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	ev := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return ev
}

// Simulator runs the healthcare problem against a planner until the horizon.
type Simulator struct {
	problem *HealthcareProblem
	planner Planner
	horizon float64

	clock    float64
	queue    eventQueue
	seq      int64
	cases    map[int]*caseState
	schedule *ResourceSchedule
	busy     map[schema.ResourceType]int
	waiting  map[schema.ResourceType][]int // FIFO case ids per resource

	toPlan      []int        // elective cases awaiting a first plan
	replannable map[int]bool // planned cases not yet locked in
	planDirty   bool

	kpis *kpiTracker
}

// NewSimulator assembles a simulator for one run.
func NewSimulator(problem *HealthcareProblem, planner Planner, horizonHours float64) *Simulator {
	return &Simulator{
		problem:     problem,
		planner:     planner,
		horizon:     horizonHours,
		cases:       make(map[int]*caseState),
		schedule:    NewResourceSchedule(),
		busy:        make(map[schema.ResourceType]int),
		waiting:     make(map[schema.ResourceType][]int),
		replannable: make(map[int]bool),
		kpis:        newKPITracker(),
	}
}

// Run executes the simulation and returns the KPI report and case outcomes.
// The context is checked between events so long runs can be cancelled.
func (s *Simulator) Run(ctx context.Context, weights map[schema.KPIKey]float64) (schema.KPIReport, []schema.CaseOutcome, error) {
	// Seed the recurring event chains.
	s.push(&simEvent{time: s.problem.NextElectiveArrival(), kind: evElectiveArrival})
	s.push(&simEvent{time: s.problem.NextEmergencyArrival(), kind: evEmergencyArrival})
	s.push(&simEvent{time: schema.SchedulingHour, kind: evScheduleMoment})

	steps := 0
	for s.queue.Len() > 0 {
		if steps%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return schema.KPIReport{}, nil, err
			}
		}
		steps++

		ev := heap.Pop(&s.queue).(*simEvent)
		if ev.time > s.horizon {
			break
		}
		s.advanceTo(ev.time)

		switch ev.kind {
		case evElectiveArrival:
			s.handleElectiveArrival()
		case evEmergencyArrival:
			s.handleEmergencyArrival()
		case evAdmissionDue:
			s.handleAdmissionDue(ev.caseID)
		case evTaskComplete:
			s.handleTaskComplete(ev.caseID)
		case evScheduleMoment:
			s.handleScheduleMoment()
		case evCapacityChange:
			s.startQueued(ev.resource)
		}

		if s.planDirty {
			s.planDirty = false
			s.invokePlanner()
		}
	}
	s.advanceTo(s.horizon)

	return s.kpis.report(weights, s.horizon), s.outcomes(), nil
}

// advanceTo moves the clock forward, accruing resource costs over the slice.
// Capacity changepoints are also events, so scheduled counts are constant
// within a slice.
func (s *Simulator) advanceTo(t float64) {
	dt := t - s.clock
	if dt <= 0 {
		return
	}
	for _, rt := range schema.AllResourceTypes {
		scheduled := s.schedule.CountAt(rt, s.clock)
		short := s.schedule.ShortAt(rt, s.clock)
		s.kpis.addCost(rt, scheduled, short, s.busy[rt], dt)
	}
	s.clock = t
}

func (s *Simulator) push(ev *simEvent) {
	s.seq++
	ev.seq = s.seq
	heap.Push(&s.queue, ev)
}

// report forwards a lifecycle event to the planner.
func (s *Simulator) report(c *caseState, element string, rt schema.ResourceType, lc schema.Lifecycle) {
	s.planner.Report(schema.Event{
		CaseID:    c.id,
		Element:   element,
		Timestamp: s.clock,
		Resource:  rt,
		Lifecycle: lc,
		Data:      map[string]any{"diagnosis": c.diagnosis},
	})
}

func (s *Simulator) handleElectiveArrival() {
	c := s.problem.NewElectiveCase(s.clock)
	s.cases[c.id] = c
	s.kpis.recordArrival()
	s.report(c, ElementArrival, "", schema.LifecycleComplete)

	s.toPlan = append(s.toPlan, c.id)
	s.planDirty = true

	s.push(&simEvent{time: s.clock + s.problem.NextElectiveArrival(), kind: evElectiveArrival})
}

func (s *Simulator) handleEmergencyArrival() {
	c := s.problem.NewEmergencyCase(s.clock)
	s.cases[c.id] = c
	s.kpis.recordArrival()
	s.report(c, ElementArrival, "", schema.LifecycleComplete)

	// Emergency patients go straight to the ER queue.
	s.enableTask(c)

	s.push(&simEvent{time: s.clock + s.problem.NextEmergencyArrival(), kind: evEmergencyArrival})
}

// handleAdmissionDue admits a planned case: the intake task becomes enabled.
// Stale events from superseded plans are dropped by the time guard.
func (s *Simulator) handleAdmissionDue(caseID int) {
	c := s.cases[caseID]
	if c == nil || c.status != casePlanned || c.admission != s.clock {
		return
	}
	// No free intake slot means the patient is sent home and has to be
	// planned again. That counts against nervousness like any other replan.
	if s.schedule.CountAt(schema.Intake, s.clock)-s.busy[schema.Intake] <= len(s.waiting[schema.Intake]) {
		delete(s.replannable, caseID)
		c.status = caseCreated
		c.admission = -1
		c.replans++
		s.kpis.recordReplan()
		s.report(c, ElementReplanned, "", schema.LifecycleComplete)
		s.toPlan = append(s.toPlan, caseID)
		s.planDirty = true
		return
	}
	delete(s.replannable, caseID)
	s.report(c, ElementAdmission, "", schema.LifecycleComplete)
	s.enableTask(c)
}

// enableTask queues the case's current task for its resource.
func (s *Simulator) enableTask(c *caseState) {
	c.status = caseWaiting
	c.waitStart = s.clock
	rt := c.currentTask().resource
	s.waiting[rt] = append(s.waiting[rt], c.id)
	s.startQueued(rt)
}

// startQueued starts as many queued tasks as free capacity allows.
func (s *Simulator) startQueued(rt schema.ResourceType) {
	for len(s.waiting[rt]) > 0 {
		free := s.schedule.CountAt(rt, s.clock) - s.busy[rt]
		if free <= 0 {
			return
		}
		caseID := s.waiting[rt][0]
		s.waiting[rt] = s.waiting[rt][1:]
		c := s.cases[caseID]

		c.waiting += s.clock - c.waitStart
		c.status = caseInTask
		s.busy[rt]++

		tk := c.currentTask()
		if tk.element == ElementIntake {
			c.admitted = s.clock
			s.kpis.recordAdmission(s.clock - c.arrival)
		}
		s.report(c, tk.element, rt, schema.LifecycleStart)
		s.push(&simEvent{time: s.clock + tk.duration, kind: evTaskComplete, caseID: caseID})
	}
}

func (s *Simulator) handleTaskComplete(caseID int) {
	c := s.cases[caseID]
	tk := c.currentTask()
	rt := tk.resource

	s.busy[rt]--
	s.report(c, tk.element, rt, schema.LifecycleComplete)
	c.next++

	if c.currentTask() != nil {
		s.enableTask(c)
	} else {
		c.status = caseReleased
		c.released = s.clock
		s.report(c, ElementReleasing, "", schema.LifecycleComplete)
		s.kpis.recordRelease(c.diagnosis, c.waiting)
	}

	// The freed resource may unblock a queued case, and a freed slot means
	// planners may want to act.
	s.startQueued(rt)
	s.planDirty = true
}

// handleScheduleMoment runs the daily 18:00 planner scheduling hook.
func (s *Simulator) handleScheduleMoment() {
	for _, entry := range s.planner.Schedule(s.clock) {
		if err := s.validateScheduleEntry(entry); err != nil {
			s.kpis.recordViolation()
			continue
		}
		s.schedule.Apply(entry, s.clock)
		s.push(&simEvent{time: entry.Time, kind: evCapacityChange, resource: entry.Resource})
	}
	s.push(&simEvent{time: s.clock + schema.HoursPerDay, kind: evScheduleMoment})
}

// validateScheduleEntry enforces the scheduling constraints: minimum notice,
// resource caps, and no capacity decrease inside the freeze window.
func (s *Simulator) validateScheduleEntry(entry schema.ScheduleEntry) error {
	limit, ok := schema.ResourceCaps[entry.Resource]
	if !ok {
		return fmt.Errorf("unknown resource type %q", entry.Resource)
	}
	if entry.Count < 0 || entry.Count > limit {
		return fmt.Errorf("count %d out of range for %s (cap %d)", entry.Count, entry.Resource, limit)
	}
	if entry.Time < s.clock+schema.ScheduleHorizon {
		return fmt.Errorf("schedule entry at %.1f is under the %dh notice", entry.Time, schema.ScheduleHorizon)
	}
	if entry.Time < s.clock+schema.ScheduleFreeze {
		if entry.Count < s.schedule.CountAt(entry.Resource, entry.Time) {
			return fmt.Errorf("capacity decrease inside the %dh freeze window", schema.ScheduleFreeze)
		}
	}
	return nil
}

// invokePlanner runs the planner's Plan hook and applies valid admissions.
func (s *Simulator) invokePlanner() {
	toPlan := s.pendingToPlan()
	toReplan := s.pendingToReplan()
	if len(toPlan) == 0 && len(toReplan) == 0 {
		return
	}

	for _, adm := range s.planner.Plan(toPlan, toReplan, s.clock) {
		c := s.cases[adm.CaseID]
		if c == nil || (c.status != caseCreated && c.status != casePlanned) {
			s.kpis.recordViolation()
			continue
		}
		if adm.Time < s.clock+schema.PlanHorizon {
			s.kpis.recordViolation()
			continue
		}
		if c.status == casePlanned {
			// A case inside its own 24h notice is locked in.
			if c.admission <= s.clock+schema.PlanHorizon {
				s.kpis.recordViolation()
				continue
			}
			if adm.Time != c.admission {
				c.replans++
				s.kpis.recordReplan()
				s.report(c, ElementReplanned, "", schema.LifecycleComplete)
			}
		}

		c.status = casePlanned
		c.admission = adm.Time
		s.replannable[c.id] = true
		s.push(&simEvent{time: adm.Time, kind: evAdmissionDue, caseID: c.id})
	}
}

// pendingToPlan returns unplanned elective cases, pruning planned ones.
func (s *Simulator) pendingToPlan() []int {
	pending := s.toPlan[:0]
	for _, id := range s.toPlan {
		if c := s.cases[id]; c != nil && c.status == caseCreated {
			pending = append(pending, id)
		}
	}
	s.toPlan = pending
	out := make([]int, len(pending))
	copy(out, pending)
	return out
}

// pendingToReplan returns planned cases whose admission is still more than
// the plan horizon away; anything closer is locked in.
func (s *Simulator) pendingToReplan() []int {
	var out []int
	for id := range s.replannable {
		c := s.cases[id]
		if c == nil || c.status != casePlanned {
			delete(s.replannable, id)
			continue
		}
		if c.admission > s.clock+schema.PlanHorizon {
			out = append(out, id)
		}
	}
	sort.Ints(out)
	return out
}

// outcomes snapshots the final state of every case, ordered by case id.
func (s *Simulator) outcomes() []schema.CaseOutcome {
	out := make([]schema.CaseOutcome, 0, len(s.cases))
	for _, c := range s.cases {
		wta := 0.0
		if c.admitted >= 0 {
			wta = c.admitted - c.arrival
		}
		out = append(out, schema.CaseOutcome{
			CaseID:        c.id,
			Diagnosis:     c.diagnosis,
			ArrivalTime:   round2(c.arrival),
			AdmissionTime: round2(c.admitted),
			ReleaseTime:   round2(c.released),
			WaitingAdm:    round2(wta),
			WaitingHosp:   round2(c.waiting),
			Replans:       c.replans,
			Emergency:     c.emergency,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CaseID < out[j].CaseID })
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ScheduleSnapshot exposes the final resource schedule, used by the
// occupancy chart.
func (s *Simulator) ScheduleSnapshot() *ResourceSchedule {
	return s.schedule
}
