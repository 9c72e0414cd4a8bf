package sim

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/LaStefan/bpmn-process-optimization/schema"
)

// EventLogReporter streams simulation events to a CSV file for process-mining
// consumption. Timestamps are rendered as wall-clock times derived from the
// simulation epoch. Extra data columns (e.g. "diagnosis") are pulled from the
// event data map.
type EventLogReporter struct {
	file        *os.File
	writer      *csv.Writer
	dataColumns []string
}

// NewEventLogReporter opens the CSV log and writes the header row.
func NewEventLogReporter(path string, dataColumns []string) (*EventLogReporter, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log %q: %w", path, err)
	}

	writer := csv.NewWriter(file)
	header := []string{"case_id", "element", "resource", "lifecycle", "timestamp"}
	header = append(header, dataColumns...)
	if err := writer.Write(header); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to write event log header: %w", err)
	}

	return &EventLogReporter{file: file, writer: writer, dataColumns: dataColumns}, nil
}

// Callback appends one event to the log.
func (r *EventLogReporter) Callback(ev schema.Event) {
	record := []string{
		fmt.Sprintf("%d", ev.CaseID),
		ev.Element,
		string(ev.Resource),
		string(ev.Lifecycle),
		schema.SimTime(ev.Timestamp).Format(time.RFC3339),
	}
	for _, col := range r.dataColumns {
		val := ""
		if ev.Data != nil {
			if v, ok := ev.Data[col]; ok {
				val = fmt.Sprint(v)
			}
		}
		record = append(record, val)
	}
	_ = r.writer.Write(record)
}

// Close flushes and closes the underlying file.
func (r *EventLogReporter) Close() error {
	r.writer.Flush()
	if err := r.writer.Error(); err != nil {
		_ = r.file.Close()
		return err
	}
	return r.file.Close()
}

// ResourceScheduleReporter tracks how many resources of each type are busy
// over time, bucketed per simulation hour, and renders a text occupancy chart.
type ResourceScheduleReporter struct {
	busy    map[schema.ResourceType]int
	buckets map[schema.ResourceType]map[int]float64 // hour bucket -> busy-hours
	lastAt  map[schema.ResourceType]float64
}

// NewResourceScheduleReporter returns an empty occupancy tracker.
func NewResourceScheduleReporter() *ResourceScheduleReporter {
	buckets := make(map[schema.ResourceType]map[int]float64, len(schema.AllResourceTypes))
	for _, rt := range schema.AllResourceTypes {
		buckets[rt] = make(map[int]float64)
	}
	return &ResourceScheduleReporter{
		busy:    make(map[schema.ResourceType]int),
		buckets: buckets,
		lastAt:  make(map[schema.ResourceType]float64),
	}
}

// Callback observes a lifecycle event and updates occupancy counters.
func (r *ResourceScheduleReporter) Callback(ev schema.Event) {
	if ev.Resource == "" {
		return
	}
	r.accrue(ev.Resource, ev.Timestamp)
	switch ev.Lifecycle {
	case schema.LifecycleStart:
		r.busy[ev.Resource]++
	case schema.LifecycleComplete:
		if r.busy[ev.Resource] > 0 {
			r.busy[ev.Resource]--
		}
	}
}

// accrue spreads the busy count since the last event over hour buckets.
func (r *ResourceScheduleReporter) accrue(rt schema.ResourceType, until float64) {
	from := r.lastAt[rt]
	count := float64(r.busy[rt])
	for from < until {
		bucket := int(from)
		end := math.Min(float64(bucket+1), until)
		r.buckets[rt][bucket] += count * (end - from)
		from = end
	}
	r.lastAt[rt] = until
}

// RenderChart renders mean occupancy per hour of week over [from, to) as a
// text chart, one row per resource type, one column per 4h block.
func (r *ResourceScheduleReporter) RenderChart(from, to float64) string {
	const blockHours = 4
	blocks := schema.HoursPerWeek / blockHours

	var b strings.Builder
	b.WriteString("Mean occupancy per hour of week (columns of 4h, Mon 00:00 first):\n")

	for _, rt := range schema.AllResourceTypes {
		sums := make([]float64, blocks)
		counts := make([]int, blocks)
		for bucket, busyHours := range r.buckets[rt] {
			t := float64(bucket)
			if t < from || t >= to {
				continue
			}
			block := (bucket % schema.HoursPerWeek) / blockHours
			sums[block] += busyHours
			counts[block]++
		}

		limit := schema.ResourceCaps[rt]
		row := make([]byte, blocks)
		for i := range row {
			mean := 0.0
			if counts[i] > 0 {
				mean = sums[i] / float64(counts[i])
			}
			row[i] = densityGlyph(mean, float64(limit))
		}
		fmt.Fprintf(&b, "%-16s %s\n", rt, row)
	}

	b.WriteString("Legend: . 0%  - <25%  = <50%  * <75%  # >=75% of cap\n")
	return b.String()
}

// densityGlyph maps a utilization ratio to a chart character.
func densityGlyph(mean, limit float64) byte {
	if limit <= 0 || mean <= 0 {
		return '.'
	}
	switch ratio := mean / limit; {
	case ratio < 0.25:
		return '-'
	case ratio < 0.5:
		return '='
	case ratio < 0.75:
		return '*'
	default:
		return '#'
	}
}

// PeakBusy returns the observed peak hourly occupancy per resource type
// within [from, to), ordered as schema.AllResourceTypes.
func (r *ResourceScheduleReporter) PeakBusy(from, to float64) map[schema.ResourceType]float64 {
	peaks := make(map[schema.ResourceType]float64, len(r.buckets))
	for rt, line := range r.buckets {
		keys := make([]int, 0, len(line))
		for bucket := range line {
			keys = append(keys, bucket)
		}
		sort.Ints(keys)
		for _, bucket := range keys {
			t := float64(bucket)
			if t < from || t >= to {
				continue
			}
			if line[bucket] > peaks[rt] {
				peaks[rt] = line[bucket]
			}
		}
	}
	return peaks
}
