package sim

import (
	"testing"

	"github.com/LaStefan/bpmn-process-optimization/schema"
	"github.com/stretchr/testify/assert"
)

func TestNewResourceScheduleStartsAtCaps(t *testing.T) {
	s := NewResourceSchedule()

	for rt, limit := range schema.ResourceCaps {
		assert.Equal(t, limit, s.CountAt(rt, 0), "resource %s", rt)
		assert.Equal(t, limit, s.CountAt(rt, 5000), "resource %s", rt)
		assert.Zero(t, s.ShortAt(rt, 0))
	}
}

func TestResourceScheduleApply(t *testing.T) {
	s := NewResourceSchedule()

	// Decided at t=18, effective well outside the freeze window.
	s.Apply(schema.ScheduleEntry{Resource: schema.OperatingRoom, Time: 200, Count: 2}, 18)

	assert.Equal(t, 5, s.CountAt(schema.OperatingRoom, 199))
	assert.Equal(t, 2, s.CountAt(schema.OperatingRoom, 200))
	assert.Equal(t, 2, s.CountAt(schema.OperatingRoom, 400))
	assert.Zero(t, s.ShortAt(schema.OperatingRoom, 200), "long-notice change is all regular capacity")
}

func TestResourceScheduleApplyShortNotice(t *testing.T) {
	s := NewResourceSchedule()

	// Drop to 1 OR from t=400, then raise back to 4 on short notice.
	s.Apply(schema.ScheduleEntry{Resource: schema.OperatingRoom, Time: 400, Count: 1}, 18)
	s.Apply(schema.ScheduleEntry{Resource: schema.OperatingRoom, Time: 410, Count: 4}, 390)

	assert.Equal(t, 1, s.CountAt(schema.OperatingRoom, 405))
	assert.Equal(t, 4, s.CountAt(schema.OperatingRoom, 410))
	// 410-390=20h notice is inside the freeze window: the 3 added ORs are short-term.
	assert.Equal(t, 3, s.ShortAt(schema.OperatingRoom, 410))
}

func TestResourceScheduleApplyOverwritesSameTime(t *testing.T) {
	s := NewResourceSchedule()

	s.Apply(schema.ScheduleEntry{Resource: schema.Intake, Time: 300, Count: 2}, 18)
	s.Apply(schema.ScheduleEntry{Resource: schema.Intake, Time: 300, Count: 3}, 18)

	assert.Equal(t, 3, s.CountAt(schema.Intake, 300))
}

func TestResourceScheduleKeepsTimelineSorted(t *testing.T) {
	s := NewResourceSchedule()

	s.Apply(schema.ScheduleEntry{Resource: schema.ABed, Time: 500, Count: 20}, 18)
	s.Apply(schema.ScheduleEntry{Resource: schema.ABed, Time: 300, Count: 10}, 18)
	s.Apply(schema.ScheduleEntry{Resource: schema.ABed, Time: 400, Count: 15}, 18)

	assert.Equal(t, 30, s.CountAt(schema.ABed, 299))
	assert.Equal(t, 10, s.CountAt(schema.ABed, 300))
	assert.Equal(t, 15, s.CountAt(schema.ABed, 450))
	assert.Equal(t, 20, s.CountAt(schema.ABed, 501))
}

func TestResourceScheduleNextChangeAfter(t *testing.T) {
	s := NewResourceSchedule()
	assert.Equal(t, -1.0, s.NextChangeAfter(0), "fresh schedule never changes")

	s.Apply(schema.ScheduleEntry{Resource: schema.BBed, Time: 250, Count: 10}, 18)
	s.Apply(schema.ScheduleEntry{Resource: schema.Intake, Time: 200, Count: 1}, 18)

	assert.Equal(t, 200.0, s.NextChangeAfter(18))
	assert.Equal(t, 250.0, s.NextChangeAfter(200))
	assert.Equal(t, -1.0, s.NextChangeAfter(250))
}
