// Package availability steps bookable intervals through availability windows.
package availability

import (
	"sort"
	"time"
)

// Interval is the half-open range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two half-open intervals share any instant.
// Touching boundaries do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

// AvailableSlots returns the intervals of length duration inside
// [windowStart, windowEnd) that fit entirely in the window, do not overlap any
// busy interval and do not start before now. Candidates begin at windowStart
// and advance by step in absolute time.
func AvailableSlots(windowStart, windowEnd time.Time, duration, step time.Duration, busy []Interval, now time.Time) []Interval {
	if duration <= 0 || step <= 0 {
		return nil
	}
	if !windowEnd.After(windowStart) {
		return nil
	}
	if windowStart.Add(duration).After(windowEnd) {
		return nil
	}

	var slots []Interval
	for t := windowStart; !t.Add(duration).After(windowEnd); t = t.Add(step) {
		candidate := Interval{Start: t, End: t.Add(duration)}
		if candidate.Start.Before(now) {
			continue
		}
		if !OverlapsAny(candidate, busy) {
			slots = append(slots, candidate)
		}
	}
	return slots
}

func OverlapsAny(candidate Interval, busy []Interval) bool {
	for _, b := range busy {
		if candidate.Overlaps(b) {
			return true
		}
	}
	return false
}

// Sort orders intervals by start, then end. Equal intervals keep their
// relative order.
func Sort(slots []Interval) {
	sort.SliceStable(slots, func(i, j int) bool {
		if !slots[i].Start.Equal(slots[j].Start) {
			return slots[i].Start.Before(slots[j].Start)
		}
		return slots[i].End.Before(slots[j].End)
	})
}
