package application

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAvailabilityEngine_ListSlots(t *testing.T) {
	t.Parallel()

	t.Run("returns slots respecting working hours, buffers, and busy blocks", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC) // Monday
		eventTypes := &eventTypeStoreStub{eventTypes: map[string]EventType{
			"et-1": {
				ID:                   "et-1",
				HostID:               "host-1",
				Active:               true,
				DurationMin:          30,
				SlotIntervalMin:      30,
				MinimumNoticeMin:     60,
				SchedulingWindowDays: 7,
				WorkingHours: []WorkingHours{
					{DayOfWeek: time.Monday, StartLocal: "09:00", EndLocal: "12:00"},
				},
			},
		}}
		hosts := &hostTimezoneStoreStub{hosts: map[string]Host{
			"host-1": {ID: "host-1", DisplayTimezone: "UTC"},
		}}
		bookings := &bookingOverlapStoreStub{
			bookings: []Booking{
				{HostID: "host-1", Status: BookingStatusConfirmed,
					Start: time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC),
					End:   time.Date(2026, time.March, 2, 9, 30, 0, 0, time.UTC)},
			},
		}

		engine := NewAvailabilityEngine(eventTypes, hosts, nil, bookings, nil, func() time.Time { return now }, nil)

		result, err := engine.ListSlots(context.Background(), ListSlotsParams{
			EventTypeID: "et-1",
			RangeStart:  now,
			RangeEnd:    now.Add(24 * time.Hour),
			GuestTimezone: "UTC",
		})
		if err != nil {
			t.Fatalf("ListSlots failed: %v", err)
		}

		slots := result.Slots["2026-03-02"]
		if len(slots) == 0 {
			t.Fatalf("expected slots on 2026-03-02, got none: %#v", result.Slots)
		}
		for _, s := range slots {
			if s.Start.Equal(time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)) {
				t.Fatalf("expected booked 09:00 slot to be excluded, got %#v", slots)
			}
		}
	})

	t.Run("rejects invalid guest timezone", func(t *testing.T) {
		t.Parallel()

		eventTypes := &eventTypeStoreStub{eventTypes: map[string]EventType{"et-1": {ID: "et-1", Active: true}}}
		engine := NewAvailabilityEngine(eventTypes, &hostTimezoneStoreStub{}, nil, nil, nil, time.Now, nil)

		_, err := engine.ListSlots(context.Background(), ListSlotsParams{EventTypeID: "et-1", RangeStart: time.Now(), RangeEnd: time.Now().Add(time.Hour), GuestTimezone: "Not/AZone"})
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("rejects inactive event types", func(t *testing.T) {
		t.Parallel()

		eventTypes := &eventTypeStoreStub{eventTypes: map[string]EventType{"et-1": {ID: "et-1", Active: false}}}
		engine := NewAvailabilityEngine(eventTypes, &hostTimezoneStoreStub{}, nil, nil, nil, time.Now, nil)

		_, err := engine.ListSlots(context.Background(), ListSlotsParams{EventTypeID: "et-1", RangeStart: time.Now(), RangeEnd: time.Now().Add(time.Hour), GuestTimezone: "UTC"})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("returns empty result when effective window collapses", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)
		eventTypes := &eventTypeStoreStub{eventTypes: map[string]EventType{
			"et-1": {ID: "et-1", HostID: "host-1", Active: true, DurationMin: 30, MinimumNoticeMin: 0, SchedulingWindowDays: 1},
		}}
		hosts := &hostTimezoneStoreStub{hosts: map[string]Host{"host-1": {ID: "host-1", DisplayTimezone: "UTC"}}}
		engine := NewAvailabilityEngine(eventTypes, hosts, nil, nil, nil, func() time.Time { return now }, nil)

		result, err := engine.ListSlots(context.Background(), ListSlotsParams{
			EventTypeID:   "et-1",
			RangeStart:    now.Add(30 * 24 * time.Hour),
			RangeEnd:      now.Add(31 * 24 * time.Hour),
			GuestTimezone: "UTC",
		})
		if err != nil {
			t.Fatalf("ListSlots failed: %v", err)
		}
		if len(result.Slots) != 0 {
			t.Fatalf("expected no slots, got %#v", result.Slots)
		}
	})
}

func TestAvailabilityEngine_IsSlotBookable(t *testing.T) {
	t.Parallel()

	t.Run("returns true for a free candidate within a working window", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)
		eventTypes := &eventTypeStoreStub{eventTypes: map[string]EventType{
			"et-1": {
				ID: "et-1", HostID: "host-1", Active: true, DurationMin: 30, SlotIntervalMin: 30,
				MinimumNoticeMin: 0, SchedulingWindowDays: 7,
				WorkingHours: []WorkingHours{{DayOfWeek: time.Monday, StartLocal: "09:00", EndLocal: "12:00"}},
			},
		}}
		hosts := &hostTimezoneStoreStub{hosts: map[string]Host{"host-1": {ID: "host-1", DisplayTimezone: "UTC"}}}
		engine := NewAvailabilityEngine(eventTypes, hosts, nil, nil, nil, func() time.Time { return now }, nil)

		bookable, err := engine.IsSlotBookable(context.Background(), "et-1", time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC))
		if err != nil {
			t.Fatalf("IsSlotBookable failed: %v", err)
		}
		if !bookable {
			t.Fatal("expected slot to be bookable")
		}
	})

	t.Run("returns false when a booking already occupies the slot", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)
		eventTypes := &eventTypeStoreStub{eventTypes: map[string]EventType{
			"et-1": {
				ID: "et-1", HostID: "host-1", Active: true, DurationMin: 30, SlotIntervalMin: 30,
				MinimumNoticeMin: 0, SchedulingWindowDays: 7,
				WorkingHours: []WorkingHours{{DayOfWeek: time.Monday, StartLocal: "09:00", EndLocal: "12:00"}},
			},
		}}
		hosts := &hostTimezoneStoreStub{hosts: map[string]Host{"host-1": {ID: "host-1", DisplayTimezone: "UTC"}}}
		bookings := &bookingOverlapStoreStub{bookings: []Booking{
			{HostID: "host-1", Status: BookingStatusConfirmed,
				Start: time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC),
				End:   time.Date(2026, time.March, 2, 9, 30, 0, 0, time.UTC)},
		}}
		engine := NewAvailabilityEngine(eventTypes, hosts, nil, bookings, nil, func() time.Time { return now }, nil)

		bookable, err := engine.IsSlotBookable(context.Background(), "et-1", time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC))
		if err != nil {
			t.Fatalf("IsSlotBookable failed: %v", err)
		}
		if bookable {
			t.Fatal("expected slot to be unbookable")
		}
	})

	t.Run("returns false for a start before minimum notice", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)
		eventTypes := &eventTypeStoreStub{eventTypes: map[string]EventType{
			"et-1": {ID: "et-1", HostID: "host-1", Active: true, DurationMin: 30, MinimumNoticeMin: 120, SchedulingWindowDays: 7},
		}}
		hosts := &hostTimezoneStoreStub{hosts: map[string]Host{"host-1": {ID: "host-1", DisplayTimezone: "UTC"}}}
		engine := NewAvailabilityEngine(eventTypes, hosts, nil, nil, nil, func() time.Time { return now }, nil)

		bookable, err := engine.IsSlotBookable(context.Background(), "et-1", now.Add(30*time.Minute))
		if err != nil {
			t.Fatalf("IsSlotBookable failed: %v", err)
		}
		if bookable {
			t.Fatal("expected slot inside minimum notice to be unbookable")
		}
	})
}

// --- stubs ---

type eventTypeStoreStub struct {
	eventTypes map[string]EventType
	err        error
}

func (s *eventTypeStoreStub) GetEventType(ctx context.Context, id string) (EventType, error) {
	if s.err != nil {
		return EventType{}, s.err
	}
	et, ok := s.eventTypes[id]
	if !ok {
		return EventType{}, ErrNotFound
	}
	return et, nil
}

type hostTimezoneStoreStub struct {
	hosts map[string]Host
	err   error
}

func (s *hostTimezoneStoreStub) GetHost(ctx context.Context, id string) (Host, error) {
	if s.err != nil {
		return Host{}, s.err
	}
	h, ok := s.hosts[id]
	if !ok {
		return Host{}, ErrNotFound
	}
	return h, nil
}

type bookingOverlapStoreStub struct {
	bookings []Booking
	err      error
}

func (s *bookingOverlapStoreStub) ListBookingsOverlapping(ctx context.Context, filter BookingOverlapFilter) ([]Booking, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []Booking
	for _, b := range s.bookings {
		if filter.HostID != "" && b.HostID != filter.HostID {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}
