// Package scheduler holds the pure, deterministic interval algebra the
// availability engine composes: merging busy intervals, testing slot/busy
// overlap under buffers, and enumerating candidate slots within a working
// hours window. None of these functions perform I/O or depend on wall-clock
// time except through the explicit TimezoneResolver argument.
package scheduler

import (
	"sort"
	"time"

	"github.com/example/meetsched/internal/timeutil"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Merge sorts the given intervals by start ascending and coalesces any two
// intervals with a.End >= b.Start (adjacency included) into their union.
// The result is pairwise-disjoint and sorted.
func Merge(intervals []Interval) []Interval {
	if len(intervals) == 0 {
		return nil
	}

	sorted := make([]Interval, len(intervals))
	copy(sorted, intervals)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	merged := make([]Interval, 0, len(sorted))
	current := sorted[0]
	for _, next := range sorted[1:] {
		if !next.Start.After(current.End) {
			if next.End.After(current.End) {
				current.End = next.End
			}
			continue
		}
		merged = append(merged, current)
		current = next
	}
	merged = append(merged, current)
	return merged
}

// Overlaps reports whether the half-open interval [slot.Start-bufBefore,
// slot.End+bufAfter) has a non-empty intersection with any of blocks. A
// block ending exactly at the buffered slot start (or starting exactly at
// the buffered slot end) does not conflict, consistent with half-open
// interval semantics throughout this package.
func Overlaps(slot Interval, blocks []Interval, bufBefore, bufAfter time.Duration) bool {
	expanded := Interval{Start: slot.Start.Add(-bufBefore), End: slot.End.Add(bufAfter)}
	for _, b := range blocks {
		if expanded.Start.Before(b.End) && b.Start.Before(expanded.End) {
			return true
		}
	}
	return false
}

// WorkingHours describes one weekly recurring local availability window.
type WorkingHours struct {
	DayOfWeek  time.Weekday
	StartLocal string // "HH:MM"
	EndLocal   string // "HH:MM"
}

// EnumerateDay emits candidate (start, end) slots for one local calendar
// date, placed at multiples of slotIntervalMin from the day's working-hours
// start, each lasting durationMin, never extending past the working-hours
// end. Conversions pass through the TimezoneResolver so that a candidate
// whose start is a nonexistent local time (DST spring-forward gap) is
// skipped entirely.
func EnumerateDay(resolver *timeutil.TimezoneResolver, date timeutil.LocalDateTime, hours []WorkingHours, durationMin, slotIntervalMin int, tz string) ([]Interval, error) {
	var windows []WorkingHours
	for _, h := range hours {
		if h.DayOfWeek == weekdayOf(date) {
			windows = append(windows, h)
		}
	}
	if len(windows) == 0 {
		return nil, nil
	}

	var slots []Interval
	for _, w := range windows {
		startHH, startMM, err := parseHHMM(w.StartLocal)
		if err != nil {
			return nil, err
		}
		endHH, endMM, err := parseHHMM(w.EndLocal)
		if err != nil {
			return nil, err
		}

		workingStart := timeutil.LocalDateTime{Year: date.Year, Month: date.Month, Day: date.Day, Hour: startHH, Minute: startMM}
		workingEnd := timeutil.LocalDateTime{Year: date.Year, Month: date.Month, Day: date.Day, Hour: endHH, Minute: endMM}

		for cursor := workingStart; cursor.Before(workingEnd); cursor = addMinutes(cursor, slotIntervalMin) {
			slotEndLocal := addMinutes(cursor, durationMin)
			if workingEnd.Before(slotEndLocal) {
				break
			}
			if !resolver.IsValidLocal(cursor, tz) {
				continue
			}
			if !resolver.IsValidLocal(slotEndLocal, tz) {
				continue
			}
			start, err := resolver.ToInstant(cursor, tz)
			if err != nil {
				return nil, err
			}
			end, err := resolver.ToInstant(slotEndLocal, tz)
			if err != nil {
				return nil, err
			}
			slots = append(slots, Interval{Start: start, End: end})
		}
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i].Start.Before(slots[j].Start) })
	return slots, nil
}

func weekdayOf(d timeutil.LocalDateTime) time.Weekday {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Weekday()
}

func addMinutes(d timeutil.LocalDateTime, minutes int) timeutil.LocalDateTime {
	t := time.Date(d.Year, d.Month, d.Day, d.Hour, d.Minute, d.Second, 0, time.UTC).Add(time.Duration(minutes) * time.Minute)
	return timeutil.LocalDateTime{Year: t.Year(), Month: t.Month(), Day: t.Day(), Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}
}

func parseHHMM(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, err
	}
	return t.Hour(), t.Minute(), nil
}
