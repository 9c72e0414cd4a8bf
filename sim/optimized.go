package sim

import (
	"math"
	"sort"

	"github.com/LaStefan/bpmn-process-optimization/schema"
)

// Optimized planner tuning.
const (
	optimizedMaxReplans    = 35   // replans applied per planning cycle
	optimizedReplanCooloff = 24.0 // hours before a case may be replanned again
	optimizedLongWait      = 30.0 // waiting hours that promote a replan
	optimizedSpacing       = 0.25 // hours between consecutive admissions
)

// Priority classes, lower admits earlier.
const (
	classCritical = 0
	classHigher   = 1
	classStandard = 2
)

// Optimized is a diagnosis-class admission planner with controlled
// replanning and a two-week morning/afternoon capacity template. Compared
// to Heuristic it spaces admissions tightly from the minimum legal notice
// and rate-limits replanning to keep nervousness down.
type Optimized struct {
	events    *EventLogReporter
	resources *ResourceScheduleReporter

	diagnoses     map[int]schema.Diagnosis
	firstPlanned  map[int]float64
	lastReplanned map[int]float64
}

// NewOptimized builds the optimized planner. Reporters may be nil.
func NewOptimized(events *EventLogReporter, resources *ResourceScheduleReporter) *Optimized {
	return &Optimized{
		events:        events,
		resources:     resources,
		diagnoses:     make(map[int]schema.Diagnosis),
		firstPlanned:  make(map[int]float64),
		lastReplanned: make(map[int]float64),
	}
}

// Report forwards events to the reporters and tracks diagnoses.
func (o *Optimized) Report(ev schema.Event) {
	if o.events != nil {
		o.events.Callback(ev)
	}
	if o.resources != nil {
		o.resources.Callback(ev)
	}
	if d, ok := ev.Data["diagnosis"].(schema.Diagnosis); ok {
		o.diagnoses[ev.CaseID] = d
	}
}

// classFor assigns a priority class to a diagnosis. The weekday and weekend
// orderings are swapped: surgical B1/B2 cases lead on weekends when OR time
// is scarce, mid-severity cases lead on weekdays.
func (o *Optimized) classFor(diag schema.Diagnosis, weekday bool) int {
	critical := diag == schema.DiagB1 || diag == schema.DiagB2
	higher := diag == schema.DiagA3 || diag == schema.DiagA4 ||
		diag == schema.DiagB3 || diag == schema.DiagB4

	switch {
	case weekday && critical:
		return classHigher
	case weekday && higher:
		return classCritical
	case critical:
		return classCritical
	case higher:
		return classHigher
	default:
		return classStandard
	}
}

// replanClassFor is the replanning counterpart of classFor with the regimes
// flipped: surgical B1/B2 replans lead on weekdays, mid-severity replans lead
// on weekends. A long wait promotes a case into the B1/B2 class of the
// current regime.
func (o *Optimized) replanClassFor(diag schema.Diagnosis, wait float64, weekday bool) int {
	critical := diag == schema.DiagB1 || diag == schema.DiagB2 || wait > optimizedLongWait
	higher := diag == schema.DiagA3 || diag == schema.DiagA4 ||
		diag == schema.DiagB3 || diag == schema.DiagB4

	switch {
	case weekday && critical:
		return classCritical
	case weekday && higher:
		return classHigher
	case critical:
		return classHigher
	case higher:
		return classCritical
	default:
		return classStandard
	}
}

// Plan spaces new admissions from the minimum legal notice with per-class
// offsets, then applies a bounded number of replans for long-waiting or
// critical cases.
func (o *Optimized) Plan(casesToPlan, casesToReplan []int, now float64) []schema.Admission {
	baseTime := now + schema.PlanHorizon
	weekday := schema.IsWeekday(now)

	type scored struct {
		caseID int
		class  int
		wait   float64
	}

	// --- Prioritized admission planning ---
	newCases := make([]scored, 0, len(casesToPlan))
	for _, id := range casesToPlan {
		if _, ok := o.firstPlanned[id]; !ok {
			o.firstPlanned[id] = now
		}
		newCases = append(newCases, scored{caseID: id, class: o.classFor(o.diagnoses[id], weekday)})
	}
	sort.SliceStable(newCases, func(i, j int) bool { return newCases[i].class < newCases[j].class })

	planned := make([]schema.Admission, 0, len(newCases))
	for i, sc := range newCases {
		admission := baseTime + float64(sc.class*2) + float64(i)*optimizedSpacing
		planned = append(planned, schema.Admission{CaseID: sc.caseID, Time: roundToNotice(admission, baseTime)})
	}

	// --- Controlled replanning ---
	replans := make([]scored, 0, len(casesToReplan))
	for _, id := range casesToReplan {
		if now-o.lastReplanned[id] < optimizedReplanCooloff {
			continue
		}
		wait := now - o.firstPlanned[id]
		class := o.replanClassFor(o.diagnoses[id], wait, weekday)
		replans = append(replans, scored{caseID: id, class: class, wait: wait})
	}
	sort.SliceStable(replans, func(i, j int) bool {
		if replans[i].class != replans[j].class {
			return replans[i].class < replans[j].class
		}
		return replans[i].wait > replans[j].wait
	})

	maxReplans := min(optimizedMaxReplans, len(replans))
	for i := range maxReplans {
		sc := replans[i]
		admission := baseTime + float64(i) // 1 hour spacing
		planned = append(planned, schema.Admission{CaseID: sc.caseID, Time: roundToNotice(admission, baseTime)})
		o.lastReplanned[sc.caseID] = now
	}

	return planned
}

// roundToNotice rounds an admission to the whole hour. Planning moments fall
// on continuous event times, so an exact round can land under the minimum
// notice; those land on the next hour instead.
func roundToNotice(admission, baseTime float64) float64 {
	t := math.Round(admission)
	if t < baseTime {
		t++
	}
	return t
}

// weekday and weekend capacity templates for morning (08:00) and
// afternoon (14:00) blocks.
var (
	optimizedWeekdayMorning = map[schema.ResourceType]int{
		schema.OperatingRoom:  3,
		schema.ABed:           25,
		schema.BBed:           40,
		schema.Intake:         4,
		schema.ERPractitioner: 3,
	}
	optimizedWeekdayAfternoon = map[schema.ResourceType]int{
		schema.OperatingRoom:  3,
		schema.ABed:           25,
		schema.BBed:           40,
		schema.Intake:         4,
		schema.ERPractitioner: 3,
	}
	optimizedWeekendMorning = map[schema.ResourceType]int{
		schema.OperatingRoom:  2,
		schema.ABed:           13,
		schema.BBed:           40,
		schema.Intake:         3,
		schema.ERPractitioner: 6,
	}
	optimizedWeekendAfternoon = map[schema.ResourceType]int{
		schema.OperatingRoom:  2,
		schema.ABed:           13,
		schema.BBed:           40,
		schema.Intake:         2,
		schema.ERPractitioner: 6,
	}
)

// Schedule lays out a 14-day capacity template with morning and afternoon
// blocks. Inside the freeze window only increases over the current capacity
// are emitted; beyond it the template is applied as-is.
func (o *Optimized) Schedule(now float64) []schema.ScheduleEntry {
	if int(now)%schema.HoursPerDay != schema.SchedulingHour {
		return nil
	}

	dayOfWeek := schema.DayOfWeek(now)
	nextMidnight := now + float64(schema.HoursPerDay-schema.SchedulingHour)
	weekCutoff := now + schema.ScheduleFreeze

	var entries []schema.ScheduleEntry
	for dayOffset := range 14 {
		targetDay := (dayOfWeek + dayOffset + 1) % 7
		targetDate := nextMidnight + float64(dayOffset*schema.HoursPerDay)
		morning := targetDate + 8
		afternoon := targetDate + 14

		morningRes := optimizedWeekdayMorning
		afternoonRes := optimizedWeekdayAfternoon
		if targetDay >= 5 {
			morningRes = optimizedWeekendMorning
			afternoonRes = optimizedWeekendAfternoon
		}

		entries = append(entries, o.templateEntries(morningRes, morning, weekCutoff)...)
		entries = append(entries, o.templateEntries(afternoonRes, afternoon, weekCutoff)...)
	}
	return entries
}

// templateEntries emits the template for one time block, honoring the
// increase-only constraint inside the freeze window. The planner has no view
// of the live schedule, so inside the window it conservatively assumes full
// caps and emits nothing (the template never exceeds the caps).
func (o *Optimized) templateEntries(template map[schema.ResourceType]int, at, weekCutoff float64) []schema.ScheduleEntry {
	entries := make([]schema.ScheduleEntry, 0, len(template))
	for _, rt := range schema.AllResourceTypes {
		count, ok := template[rt]
		if !ok {
			continue
		}
		if at < weekCutoff {
			if count > schema.ResourceCaps[rt] {
				entries = append(entries, schema.ScheduleEntry{Resource: rt, Time: at, Count: count})
			}
			continue
		}
		entries = append(entries, schema.ScheduleEntry{Resource: rt, Time: at, Count: count})
	}
	return entries
}
