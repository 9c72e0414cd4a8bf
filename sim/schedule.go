package sim

import (
	"sort"

	"github.com/LaStefan/bpmn-process-optimization/schema"
)

// changepoint marks a new total capacity for a resource from a given time.
// short is the portion of the capacity that was added on short notice
// (inside the freeze window) and is billed at the short-term rate.
type changepoint struct {
	time  float64
	count int
	short int
}

// ResourceSchedule is the piecewise-constant capacity timeline per resource
// type. It starts at full caps so an inactive planner still has a working
// hospital.
type ResourceSchedule struct {
	lines map[schema.ResourceType][]changepoint
}

// NewResourceSchedule returns a schedule with every resource at its cap
// from time zero.
func NewResourceSchedule() *ResourceSchedule {
	lines := make(map[schema.ResourceType][]changepoint, len(schema.ResourceCaps))
	for rt, limit := range schema.ResourceCaps {
		lines[rt] = []changepoint{{time: 0, count: limit}}
	}
	return &ResourceSchedule{lines: lines}
}

// CountAt returns the total scheduled capacity of a resource at time t.
func (s *ResourceSchedule) CountAt(rt schema.ResourceType, t float64) int {
	line := s.lines[rt]
	idx := sort.Search(len(line), func(i int) bool { return line[i].time > t })
	if idx == 0 {
		return 0
	}
	return line[idx-1].count
}

// ShortAt returns the short-notice portion of the capacity at time t.
func (s *ResourceSchedule) ShortAt(rt schema.ResourceType, t float64) int {
	line := s.lines[rt]
	idx := sort.Search(len(line), func(i int) bool { return line[i].time > t })
	if idx == 0 {
		return 0
	}
	return line[idx-1].short
}

// Apply inserts a schedule entry decided at time setAt. The caller has
// already validated horizons and caps; Apply only derives the short-notice
// portion and keeps the timeline sorted.
func (s *ResourceSchedule) Apply(entry schema.ScheduleEntry, setAt float64) {
	prev := s.CountAt(entry.Resource, entry.Time)
	short := 0
	if entry.Time-setAt < schema.ScheduleFreeze && entry.Count > prev {
		short = entry.Count - prev
	}

	line := s.lines[entry.Resource]
	idx := sort.Search(len(line), func(i int) bool { return line[i].time >= entry.Time })
	cp := changepoint{time: entry.Time, count: entry.Count, short: short}
	if idx < len(line) && line[idx].time == entry.Time {
		line[idx] = cp
	} else {
		line = append(line, changepoint{})
		copy(line[idx+1:], line[idx:])
		line[idx] = cp
	}
	s.lines[entry.Resource] = line
}

// NextChangeAfter returns the earliest changepoint time strictly after t
// across all resources, or -1 when the schedule never changes again.
func (s *ResourceSchedule) NextChangeAfter(t float64) float64 {
	next := -1.0
	for _, line := range s.lines {
		idx := sort.Search(len(line), func(i int) bool { return line[i].time > t })
		if idx < len(line) {
			if next < 0 || line[idx].time < next {
				next = line[idx].time
			}
		}
	}
	return next
}
