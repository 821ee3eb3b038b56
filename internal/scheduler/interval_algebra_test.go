package scheduler

import (
	"testing"
	"time"

	"github.com/example/meetsched/internal/timeutil"
)

func mustParse(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return parsed
}

func TestMergeCoalescesOverlappingAndAdjacentIntervals(t *testing.T) {
	a := Interval{Start: mustParse(t, "2024-01-15T10:00:00Z"), End: mustParse(t, "2024-01-15T11:00:00Z")}
	b := Interval{Start: mustParse(t, "2024-01-15T11:00:00Z"), End: mustParse(t, "2024-01-15T12:00:00Z")} // adjacent
	c := Interval{Start: mustParse(t, "2024-01-15T11:30:00Z"), End: mustParse(t, "2024-01-15T13:00:00Z")} // overlapping
	d := Interval{Start: mustParse(t, "2024-01-15T15:00:00Z"), End: mustParse(t, "2024-01-15T16:00:00Z")} // disjoint

	merged := Merge([]Interval{d, c, b, a})
	if len(merged) != 2 {
		t.Fatalf("expected 2 merged intervals, got %d: %#v", len(merged), merged)
	}
	if !merged[0].Start.Equal(a.Start) || !merged[0].End.Equal(c.End) {
		t.Fatalf("expected first merged interval [%v,%v), got %#v", a.Start, c.End, merged[0])
	}
	if !merged[1].Start.Equal(d.Start) || !merged[1].End.Equal(d.End) {
		t.Fatalf("expected second merged interval to equal d, got %#v", merged[1])
	}
}

func TestMergeEmptyInput(t *testing.T) {
	if got := Merge(nil); got != nil {
		t.Fatalf("expected nil for empty input, got %#v", got)
	}
}

func TestOverlapsZeroBufferAdjacencyDoesNotConflict(t *testing.T) {
	block := Interval{Start: mustParse(t, "2024-01-15T10:00:00Z"), End: mustParse(t, "2024-01-15T11:00:00Z")}
	slot := Interval{Start: mustParse(t, "2024-01-15T11:00:00Z"), End: mustParse(t, "2024-01-15T11:30:00Z")}

	if Overlaps(slot, []Interval{block}, 0, 0) {
		t.Fatalf("expected zero-buffer adjacency to not conflict")
	}
}

func TestOverlapsWithBufferConflictsOnAdjacency(t *testing.T) {
	block := Interval{Start: mustParse(t, "2024-01-15T10:00:00Z"), End: mustParse(t, "2024-01-15T11:00:00Z")}
	slot := Interval{Start: mustParse(t, "2024-01-15T11:00:00Z"), End: mustParse(t, "2024-01-15T11:30:00Z")}

	if !Overlaps(slot, []Interval{block}, 15*time.Minute, 0) {
		t.Fatalf("expected 15m buffer before to produce a conflict")
	}
}

func TestOverlapsDisjointDoesNotConflict(t *testing.T) {
	block := Interval{Start: mustParse(t, "2024-01-15T08:00:00Z"), End: mustParse(t, "2024-01-15T09:00:00Z")}
	slot := Interval{Start: mustParse(t, "2024-01-15T11:00:00Z"), End: mustParse(t, "2024-01-15T11:30:00Z")}

	if Overlaps(slot, []Interval{block}, 15*time.Minute, 15*time.Minute) {
		t.Fatalf("expected distant block to not conflict even with buffers")
	}
}

func TestEnumerateDayProducesSlotsWithinWorkingHours(t *testing.T) {
	resolver := timeutil.NewTimezoneResolver()
	hours := []WorkingHours{{DayOfWeek: time.Monday, StartLocal: "09:00", EndLocal: "17:00"}}
	date := timeutil.LocalDateTime{Year: 2024, Month: time.January, Day: 15} // a Monday

	slots, err := EnumerateDay(resolver, date, hours, 30, 15, "America/New_York")
	if err != nil {
		t.Fatalf("EnumerateDay failed: %v", err)
	}
	if len(slots) == 0 {
		t.Fatalf("expected at least one slot")
	}

	first := slots[0]
	wantStart, _ := resolver.ToInstant(timeutil.LocalDateTime{Year: 2024, Month: time.January, Day: 15, Hour: 9}, "America/New_York")
	if !first.Start.Equal(wantStart) {
		t.Fatalf("expected first slot to start at 09:00 local, got %v", first.Start)
	}

	last := slots[len(slots)-1]
	wantLastEnd, _ := resolver.ToInstant(timeutil.LocalDateTime{Year: 2024, Month: time.January, Day: 15, Hour: 17}, "America/New_York")
	if last.End.After(wantLastEnd) {
		t.Fatalf("expected last slot to end at or before working hours end, got %v", last.End)
	}
}

func TestEnumerateDaySkipsNonMatchingWeekday(t *testing.T) {
	resolver := timeutil.NewTimezoneResolver()
	hours := []WorkingHours{{DayOfWeek: time.Saturday, StartLocal: "09:00", EndLocal: "17:00"}}
	date := timeutil.LocalDateTime{Year: 2024, Month: time.January, Day: 15} // a Monday

	slots, err := EnumerateDay(resolver, date, hours, 30, 15, "America/New_York")
	if err != nil {
		t.Fatalf("EnumerateDay failed: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("expected no slots for non-matching weekday, got %d", len(slots))
	}
}

func TestEnumerateDaySkipsSpringForwardGap(t *testing.T) {
	resolver := timeutil.NewTimezoneResolver()
	// 2024-03-10 is a Sunday and the US spring-forward day.
	hours := []WorkingHours{{DayOfWeek: time.Sunday, StartLocal: "01:00", EndLocal: "04:00"}}
	date := timeutil.LocalDateTime{Year: 2024, Month: time.March, Day: 10}

	slots, err := EnumerateDay(resolver, date, hours, 30, 30, "America/New_York")
	if err != nil {
		t.Fatalf("EnumerateDay failed: %v", err)
	}
	for _, s := range slots {
		local, _ := resolver.ToLocalWall(s.Start, "America/New_York")
		if local.Hour == 2 {
			t.Fatalf("expected no slot to start in the nonexistent 02:00 hour, got %#v", local)
		}
	}
}
