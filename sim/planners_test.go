package sim

import (
	"testing"

	"github.com/LaStefan/bpmn-process-optimization/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPlanner(t *testing.T) {
	tests := []struct {
		kind    schema.PlannerKind
		wantErr bool
	}{
		{schema.HeuristicPlanner, false},
		{schema.OptimizedPlanner, false},
		{schema.BaselinePlanner, false},
		{"ilp", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			planner, err := NewPlanner(tt.kind, nil, nil)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, planner)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, planner)
			}
		})
	}
}

func TestBaselinePlan(t *testing.T) {
	b := NewBaseline(nil, nil)

	now := 100.5
	planned := b.Plan([]int{3, 1, 2}, []int{7, 8}, now)

	require.Len(t, planned, 3, "baseline ignores replannable cases")
	for i, id := range []int{3, 1, 2} {
		assert.Equal(t, id, planned[i].CaseID, "arrival order is preserved")
		assert.Equal(t, now+schema.PlanHorizon, planned[i].Time)
	}

	assert.Nil(t, b.Schedule(18))
}

func TestHeuristicPriority(t *testing.T) {
	h := NewHeuristic(nil, nil)
	h.arrivals[1] = 0
	h.arrivals[2] = 0
	h.diagnoses[1] = schema.DiagA1
	h.diagnoses[2] = schema.DiagB1

	now := 50.0
	assert.Greater(t, h.priority(2, now, false), h.priority(1, now, false),
		"severe diagnosis outranks equal waiting time")
	assert.Greater(t, h.priority(1, now, true), h.priority(1, now, false),
		"replanned cases get a boost")

	// Unknown arrivals count as zero waiting.
	assert.InDelta(t, 0.0, h.priority(99, now, false), 1e-9)
}

func TestHeuristicPlanNotice(t *testing.T) {
	h := NewHeuristic(nil, nil)
	now := 200.0

	// Case 1 waited long enough to cross the urgency threshold, case 2 just arrived.
	h.arrivals[1] = now - heuristicUrgentThreshold - 10
	h.arrivals[2] = now

	planned := h.Plan([]int{1, 2}, nil, now)
	require.Len(t, planned, 2)

	byCase := make(map[int]float64, len(planned))
	for _, adm := range planned {
		byCase[adm.CaseID] = adm.Time
	}
	assert.Equal(t, now+schema.PlanHorizon, byCase[1], "urgent case gets the minimum notice")
	assert.Equal(t, now+2*schema.PlanHorizon, byCase[2], "regular case gets a day extra")
}

func TestHeuristicPlanRanksByPriority(t *testing.T) {
	h := NewHeuristic(nil, nil)
	now := 100.0
	h.arrivals[1] = 90 // short wait
	h.arrivals[2] = 10 // long wait

	planned := h.Plan([]int{1, 2}, nil, now)
	require.Len(t, planned, 2)
	assert.Equal(t, 2, planned[0].CaseID, "longest-waiting case is ranked first")
}

func TestHeuristicScheduleIsLegal(t *testing.T) {
	h := NewHeuristic(nil, nil)

	for _, now := range []float64{18, 5*schema.HoursPerDay + 18} { // Monday and Saturday
		entries := h.Schedule(now)
		require.NotEmpty(t, entries)
		for _, e := range entries {
			limit, ok := schema.ResourceCaps[e.Resource]
			require.True(t, ok)
			assert.LessOrEqual(t, e.Count, limit)
			assert.GreaterOrEqual(t, e.Count, 0)
			assert.GreaterOrEqual(t, e.Time, now+schema.ScheduleHorizon)
		}
	}
}

func TestHeuristicScheduleWeekendReducesCapacity(t *testing.T) {
	h := NewHeuristic(nil, nil)

	weekday := h.Schedule(18)
	weekend := h.Schedule(5*schema.HoursPerDay + 18)

	countFor := func(entries []schema.ScheduleEntry, rt schema.ResourceType, at float64) int {
		for _, e := range entries {
			if e.Resource == rt && e.Time == at {
				return e.Count
			}
		}
		return -1
	}

	assert.Equal(t, 5, countFor(weekday, schema.OperatingRoom, 18+schema.ScheduleFreeze))
	assert.Equal(t, 1, countFor(weekend, schema.OperatingRoom, 5*schema.HoursPerDay+18+schema.ScheduleFreeze))
}

func TestOptimizedPlanRespectsNotice(t *testing.T) {
	o := NewOptimized(nil, nil)
	o.diagnoses[1] = schema.DiagB1
	o.diagnoses[2] = schema.DiagA1
	o.diagnoses[3] = schema.DiagA4

	now := 10.4 // fractional clock must not push admissions under the notice
	planned := o.Plan([]int{1, 2, 3}, nil, now)
	require.Len(t, planned, 3)

	for _, adm := range planned {
		assert.GreaterOrEqual(t, adm.Time, now+schema.PlanHorizon)
		assert.Equal(t, adm.Time, float64(int(adm.Time)), "admissions land on the hour")
	}
}

func TestOptimizedReplanCooloff(t *testing.T) {
	o := NewOptimized(nil, nil)
	o.diagnoses[1] = schema.DiagA1
	o.firstPlanned[1] = 0

	first := o.Plan(nil, []int{1}, 100)
	require.Len(t, first, 1)

	// Within the cooloff the same case is left alone.
	again := o.Plan(nil, []int{1}, 110)
	assert.Empty(t, again)

	// After the cooloff it may move again.
	later := o.Plan(nil, []int{1}, 100+optimizedReplanCooloff+1)
	assert.Len(t, later, 1)
}

func TestOptimizedReplanLimit(t *testing.T) {
	o := NewOptimized(nil, nil)
	ids := make([]int, 0, optimizedMaxReplans+20)
	for id := 1; id <= optimizedMaxReplans+20; id++ {
		o.diagnoses[id] = schema.DiagA1
		o.firstPlanned[id] = 0
		ids = append(ids, id)
	}

	planned := o.Plan(nil, ids, 1000)
	assert.Len(t, planned, optimizedMaxReplans, "replans are rate-limited per cycle")
}

func TestOptimizedClassFor(t *testing.T) {
	o := NewOptimized(nil, nil)

	// Weekends prioritize surgical B1/B2 cases for scarce OR time.
	assert.Equal(t, classCritical, o.classFor(schema.DiagB1, false))
	assert.Equal(t, classHigher, o.classFor(schema.DiagB1, true))
	assert.Equal(t, classCritical, o.classFor(schema.DiagA3, true))
	assert.Equal(t, classStandard, o.classFor(schema.DiagA1, true))
	assert.Equal(t, classStandard, o.classFor(schema.DiagA1, false))
}

func TestOptimizedReplanClassFor(t *testing.T) {
	o := NewOptimized(nil, nil)

	// Replanning flips the regimes of classFor: surgical B1/B2 lead on
	// weekdays, the mid-severity group leads on weekends.
	assert.Equal(t, classCritical, o.replanClassFor(schema.DiagB1, 0, true))
	assert.Equal(t, classHigher, o.replanClassFor(schema.DiagA3, 0, true))
	assert.Equal(t, classHigher, o.replanClassFor(schema.DiagB1, 0, false))
	assert.Equal(t, classCritical, o.replanClassFor(schema.DiagA3, 0, false))
	assert.Equal(t, classStandard, o.replanClassFor(schema.DiagA1, 0, true))

	// A long wait promotes into the B1/B2 class of the current regime.
	assert.Equal(t, classCritical, o.replanClassFor(schema.DiagA1, optimizedLongWait+1, true))
	assert.Equal(t, classHigher, o.replanClassFor(schema.DiagA1, optimizedLongWait+1, false))
}

func TestOptimizedReplanOrdersSurgicalFirstOnWeekdays(t *testing.T) {
	o := NewOptimized(nil, nil)
	o.diagnoses[1] = schema.DiagB1
	o.diagnoses[2] = schema.DiagA3
	o.firstPlanned[1] = 90
	o.firstPlanned[2] = 90

	// Friday: the surgical B1 replan is admitted before the A3 one.
	planned := o.Plan(nil, []int{1, 2}, 100)
	require.Len(t, planned, 2)
	assert.Equal(t, 1, planned[0].CaseID)
	assert.Less(t, planned[0].Time, planned[1].Time)

	// Saturday: the ordering flips.
	o2 := NewOptimized(nil, nil)
	o2.diagnoses[1] = schema.DiagB1
	o2.diagnoses[2] = schema.DiagA3
	o2.firstPlanned[1] = 120
	o2.firstPlanned[2] = 120
	planned = o2.Plan(nil, []int{1, 2}, 130)
	require.Len(t, planned, 2)
	assert.Equal(t, 2, planned[0].CaseID)
}

func TestOptimizedAdmissionsRoundToNearestHour(t *testing.T) {
	o := NewOptimized(nil, nil)
	o.diagnoses[1] = schema.DiagB1 // weekday class 1
	o.diagnoses[2] = schema.DiagA3 // weekday class 0

	now := 10.2 // base time 34.2
	planned := o.Plan([]int{1, 2}, nil, now)
	require.Len(t, planned, 2)

	byCase := make(map[int]float64, len(planned))
	for _, adm := range planned {
		byCase[adm.CaseID] = adm.Time
	}
	// 34.2 rounds to 34, under the notice, so the A3 case lands at 35;
	// the B1 case at 34.2+2+0.25 rounds down to 36, still legal.
	assert.Equal(t, 35.0, byCase[2])
	assert.Equal(t, 36.0, byCase[1])
}

func TestOptimizedScheduleOnlyAtSchedulingHour(t *testing.T) {
	o := NewOptimized(nil, nil)

	assert.Nil(t, o.Schedule(12), "no template outside the 18:00 hook")
	entries := o.Schedule(18)
	assert.NotEmpty(t, entries)
}

func TestOptimizedScheduleIsLegal(t *testing.T) {
	o := NewOptimized(nil, nil)

	for _, now := range []float64{18, 6*schema.HoursPerDay + 18} {
		for _, e := range o.Schedule(now) {
			limit, ok := schema.ResourceCaps[e.Resource]
			require.True(t, ok)
			assert.GreaterOrEqual(t, e.Count, 0)
			assert.LessOrEqual(t, e.Count, limit)
			assert.GreaterOrEqual(t, e.Time, now+schema.ScheduleHorizon)
			if e.Time < now+schema.ScheduleFreeze {
				assert.Greater(t, e.Count, schema.ResourceCaps[e.Resource],
					"inside the freeze only increases may be emitted")
			}
		}
	}
}
