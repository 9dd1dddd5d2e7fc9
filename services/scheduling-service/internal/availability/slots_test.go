package availability

import (
	"testing"
	"time"
)

func TestAvailableSlots_Basic(t *testing.T) {
	loc := time.UTC
	day := time.Date(2026, 1, 28, 0, 0, 0, 0, loc)
	windowStart := time.Date(2026, 1, 28, 9, 0, 0, 0, loc)
	windowEnd := time.Date(2026, 1, 28, 10, 0, 0, 0, loc)

	busy := []Interval{
		{Start: day.Add(9*time.Hour + 15*time.Minute), End: day.Add(9*time.Hour + 45*time.Minute)},
	}

	slots := AvailableSlots(windowStart, windowEnd, 15*time.Minute, 15*time.Minute, busy, day)
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
	if !slots[0].Start.Equal(day.Add(9 * time.Hour)) {
		t.Fatalf("expected first slot 09:00, got %s", slots[0].Start.Format(time.RFC3339))
	}
	if !slots[1].Start.Equal(day.Add(9*time.Hour + 45*time.Minute)) {
		t.Fatalf("expected second slot 09:45, got %s", slots[1].Start.Format(time.RFC3339))
	}
	for _, s := range slots {
		if s.End.Sub(s.Start) != 15*time.Minute {
			t.Fatalf("slot %v has wrong length", s)
		}
	}
}

func TestAvailableSlots_SkipsPast(t *testing.T) {
	loc := time.UTC
	day := time.Date(2026, 1, 28, 0, 0, 0, 0, loc)
	windowStart := day.Add(9 * time.Hour)
	windowEnd := day.Add(10 * time.Hour)

	now := day.Add(9*time.Hour + 31*time.Minute)
	slots := AvailableSlots(windowStart, windowEnd, 15*time.Minute, 15*time.Minute, nil, now)
	// 09:00, 09:15, 09:30 are in the past (start < now). 09:45 is future.
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(slots))
	}
	if !slots[0].Start.Equal(day.Add(9*time.Hour + 45*time.Minute)) {
		t.Fatalf("expected slot 09:45, got %s", slots[0].Start.Format(time.RFC3339))
	}
}

func TestAvailableSlots_StartAtNowIsKept(t *testing.T) {
	day := time.Date(2026, 1, 28, 0, 0, 0, 0, time.UTC)
	slots := AvailableSlots(day.Add(9*time.Hour), day.Add(10*time.Hour), 30*time.Minute, 30*time.Minute, nil, day.Add(9*time.Hour))
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
}

func TestAvailableSlots_DropsPartialTrailingSlot(t *testing.T) {
	day := time.Date(2026, 1, 28, 0, 0, 0, 0, time.UTC)
	slots := AvailableSlots(day.Add(9*time.Hour), day.Add(10*time.Hour+20*time.Minute), 30*time.Minute, 30*time.Minute, nil, day)
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
	if !slots[1].End.Equal(day.Add(10 * time.Hour)) {
		t.Fatalf("expected last slot to end at 10:00, got %s", slots[1].End.Format(time.RFC3339))
	}
}

func TestAvailableSlots_DurationLongerThanWindow(t *testing.T) {
	day := time.Date(2026, 1, 28, 0, 0, 0, 0, time.UTC)
	if slots := AvailableSlots(day.Add(9*time.Hour), day.Add(10*time.Hour), 90*time.Minute, 90*time.Minute, nil, day); slots != nil {
		t.Fatalf("expected no slots, got %v", slots)
	}
}

func TestOverlapsTouchingBoundaries(t *testing.T) {
	day := time.Date(2026, 1, 28, 0, 0, 0, 0, time.UTC)
	a := Interval{Start: day.Add(9 * time.Hour), End: day.Add(10 * time.Hour)}
	b := Interval{Start: day.Add(10 * time.Hour), End: day.Add(11 * time.Hour)}
	if a.Overlaps(b) || b.Overlaps(a) {
		t.Fatal("touching intervals must not overlap")
	}
	c := Interval{Start: day.Add(9*time.Hour + 59*time.Minute), End: day.Add(11 * time.Hour)}
	if !a.Overlaps(c) || !c.Overlaps(a) {
		t.Fatal("expected overlap")
	}
}

func TestSortOrdersByStartThenEnd(t *testing.T) {
	day := time.Date(2026, 1, 28, 0, 0, 0, 0, time.UTC)
	slots := []Interval{
		{Start: day.Add(10 * time.Hour), End: day.Add(11 * time.Hour)},
		{Start: day.Add(9 * time.Hour), End: day.Add(10 * time.Hour)},
		{Start: day.Add(9 * time.Hour), End: day.Add(9*time.Hour + 30*time.Minute)},
	}
	Sort(slots)
	if !slots[0].End.Equal(day.Add(9*time.Hour+30*time.Minute)) || !slots[1].End.Equal(day.Add(10*time.Hour)) || !slots[2].Start.Equal(day.Add(10*time.Hour)) {
		t.Fatalf("unexpected order: %v", slots)
	}
}
