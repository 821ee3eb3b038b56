package timeutil

import (
	"testing"
	"time"
)

func TestToInstantAndBackRoundTrips(t *testing.T) {
	r := NewTimezoneResolver()
	local := LocalDateTime{Year: 2024, Month: time.June, Day: 15, Hour: 9, Minute: 30}

	instant, err := r.ToInstant(local, "America/New_York")
	if err != nil {
		t.Fatalf("ToInstant failed: %v", err)
	}

	back, err := r.ToLocalWall(instant, "America/New_York")
	if err != nil {
		t.Fatalf("ToLocalWall failed: %v", err)
	}
	if back != local {
		t.Fatalf("expected round trip %#v, got %#v", local, back)
	}
}

func TestIsValidLocalRejectsSpringForwardGap(t *testing.T) {
	r := NewTimezoneResolver()
	// 2024-03-10 is the US spring-forward day; 02:30 local never exists in
	// America/New_York (clocks jump from 01:59:59 to 03:00:00).
	gap := LocalDateTime{Year: 2024, Month: time.March, Day: 10, Hour: 2, Minute: 30}
	if r.IsValidLocal(gap, "America/New_York") {
		t.Fatalf("expected nonexistent local time to be invalid")
	}

	existing := LocalDateTime{Year: 2024, Month: time.March, Day: 10, Hour: 9, Minute: 0}
	if !r.IsValidLocal(existing, "America/New_York") {
		t.Fatalf("expected ordinary local time to be valid")
	}
}

func TestToInstantResolvesAmbiguousFallBackToEarlierInstant(t *testing.T) {
	r := NewTimezoneResolver()
	// 2024-11-03 is the US fall-back day; 01:30 local occurs twice in
	// America/New_York. The resolver must pick the earlier instant.
	ambiguous := LocalDateTime{Year: 2024, Month: time.November, Day: 3, Hour: 1, Minute: 30}

	instant, err := r.ToInstant(ambiguous, "America/New_York")
	if err != nil {
		t.Fatalf("ToInstant failed: %v", err)
	}

	_, offset := instant.Zone()
	// The earlier occurrence is still under daylight time (EDT, UTC-4);
	// the later occurrence is standard time (EST, UTC-5).
	if offset != -4*60*60 {
		t.Fatalf("expected earlier (EDT) offset -4h, got %d seconds", offset)
	}
}

func TestIsValidIANAZone(t *testing.T) {
	if !IsValidIANAZone("America/New_York") {
		t.Fatalf("expected America/New_York to be a valid zone")
	}
	if IsValidIANAZone("Not/AZone") {
		t.Fatalf("expected bogus zone to be invalid")
	}
}
