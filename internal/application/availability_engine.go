package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/example/meetsched/internal/scheduler"
	"github.com/example/meetsched/internal/timeutil"
)

// HostTimezoneStore resolves the IANA zone an event type's slots are
// enumerated in. Narrower than a full host repository, mirroring
// AuthService's CredentialStore/SessionRepository split.
type HostTimezoneStore interface {
	GetHost(ctx context.Context, id string) (Host, error)
}

// EventTypeStore is the read-only view of event type configuration the
// availability engine depends on.
type EventTypeStore interface {
	GetEventType(ctx context.Context, id string) (EventType, error)
}

// CalendarStore resolves which calendars feed a host's busy set.
type CalendarStore interface {
	ListSelectedCalendarsForHost(ctx context.Context, hostID string, calendarIDs []string) ([]Calendar, error)
}

// BookingOverlapFilter narrows a local-booking busy-set query.
type BookingOverlapFilter struct {
	HostID        string
	StatusIn      []string
	OverlapsStart *time.Time
	OverlapsEnd   *time.Time
}

// BookingOverlapStore is the read-only view of the ledger the availability
// engine consults to treat a host's own PENDING/CONFIRMED bookings as busy.
type BookingOverlapStore interface {
	ListBookingsOverlapping(ctx context.Context, filter BookingOverlapFilter) ([]Booking, error)
}

// BusyProvider fetches externally known busy blocks for the given calendars
// within the half-open window [windowStart, windowEnd). Implementations fan
// out per connected account and isolate per-account failures internally
// (see calendarsync.Aggregator); a calendar whose account could not be
// reached is expected to contribute no busy blocks and log the soft failure
// rather than surface an error here — fail-open for availability, since the
// pre-commit check and the database's uniqueness constraint still guard
// against a double-book. FetchBusy only returns an error for conditions
// that make the whole result untrustworthy.
type BusyProvider interface {
	FetchBusy(ctx context.Context, calendars []Calendar, windowStart, windowEnd time.Time) ([]BusyBlock, error)
}

// AvailabilityEngine computes bookable slots for an event type, composing
// the pure scheduler.IntervalAlgebra with the host's working hours, the
// externally fetched busy set, and the host's own booking ledger.
type AvailabilityEngine struct {
	eventTypes EventTypeStore
	hosts      HostTimezoneStore
	calendars  CalendarStore
	bookings   BookingOverlapStore
	busy       BusyProvider
	resolver   *timeutil.TimezoneResolver
	now        func() time.Time
	logger     *slog.Logger
}

// NewAvailabilityEngine constructs an AvailabilityEngine with the provided
// dependencies.
func NewAvailabilityEngine(eventTypes EventTypeStore, hosts HostTimezoneStore, calendars CalendarStore, bookings BookingOverlapStore, busy BusyProvider, now func() time.Time, logger *slog.Logger) *AvailabilityEngine {
	if now == nil {
		now = time.Now
	}
	return &AvailabilityEngine{
		eventTypes: eventTypes,
		hosts:      hosts,
		calendars:  calendars,
		bookings:   bookings,
		busy:       busy,
		resolver:   timeutil.NewTimezoneResolver(),
		now:        now,
		logger:     defaultLogger(logger),
	}
}

func (e *AvailabilityEngine) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, e.logger, "AvailabilityEngine", operation, attrs...)
}

// activeBookingStatuses are the statuses that hold a slot as busy. PENDING
// bookings count as busy under the resolved open question: a booking
// awaiting confirmation still occupies the slot rather than being treated
// as tentative and overbookable.
var activeBookingStatuses = []string{string(BookingStatusPending), string(BookingStatusConfirmed)}

// ListSlots returns the bookable slots for an event type within the
// requested range, grouped by local calendar date in the guest's timezone.
func (e *AvailabilityEngine) ListSlots(ctx context.Context, params ListSlotsParams) (result ListSlotsResult, err error) {
	if e == nil {
		err = fmt.Errorf("AvailabilityEngine is nil")
		return
	}

	logger := e.loggerWith(ctx, "ListSlots", "event_type_id", params.EventTypeID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "list slots failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		count := 0
		for _, slots := range result.Slots {
			count += len(slots)
		}
		logger.With("slot_count", count).InfoContext(ctx, "list slots succeeded")
	}()

	if !timeutil.IsValidIANAZone(params.GuestTimezone) {
		err = &ValidationError{FieldErrors: map[string]string{"guestTimezone": "must be a valid IANA timezone"}}
		return
	}
	if !params.RangeStart.Before(params.RangeEnd) {
		err = &ValidationError{FieldErrors: map[string]string{"range": "rangeStart must be before rangeEnd"}}
		return
	}

	var eventType EventType
	eventType, err = e.eventTypes.GetEventType(ctx, params.EventTypeID)
	if err != nil {
		return
	}
	if !eventType.Active {
		err = ErrNotFound
		return
	}

	var host Host
	host, err = e.hosts.GetHost(ctx, eventType.HostID)
	if err != nil {
		return
	}
	if !timeutil.IsValidIANAZone(host.DisplayTimezone) {
		err = fmt.Errorf("application: host %s has invalid timezone %q", host.ID, host.DisplayTimezone)
		return
	}

	now := e.now()
	effectiveStart, effectiveEnd, ok := effectiveWindow(now, params.RangeStart, params.RangeEnd, eventType)
	if !ok {
		result = ListSlotsResult{Slots: SlotsByDate{}, Timezone: params.GuestTimezone}
		err = nil
		return
	}

	var merged []scheduler.Interval
	merged, err = e.mergedBusyIntervals(ctx, eventType, effectiveStart, effectiveEnd)
	if err != nil {
		return
	}

	bufBefore := time.Duration(eventType.BufferBeforeMin) * time.Minute
	bufAfter := time.Duration(eventType.BufferAfterMin) * time.Minute

	grouped := SlotsByDate{}
	startLocal, lerr := e.resolver.ToLocalWall(effectiveStart, host.DisplayTimezone)
	if lerr != nil {
		err = lerr
		return
	}
	endLocal, lerr := e.resolver.ToLocalWall(effectiveEnd, host.DisplayTimezone)
	if lerr != nil {
		err = lerr
		return
	}

	hours := make([]scheduler.WorkingHours, 0, len(eventType.WorkingHours))
	for _, h := range eventType.WorkingHours {
		hours = append(hours, scheduler.WorkingHours{DayOfWeek: h.DayOfWeek, StartLocal: h.StartLocal, EndLocal: h.EndLocal})
	}

	lastDay := endLocal.Date()
	for day := startLocal.Date(); !lastDay.Before(day); day = day.AddDays(1) {
		var candidates []scheduler.Interval
		candidates, err = scheduler.EnumerateDay(e.resolver, day, hours, eventType.DurationMin, intervalMinutes(eventType.SlotIntervalMin, eventType.DurationMin), host.DisplayTimezone)
		if err != nil {
			return
		}
		for _, candidate := range candidates {
			if candidate.Start.Before(effectiveStart) || candidate.End.After(effectiveEnd) {
				continue
			}
			if scheduler.Overlaps(candidate, merged, bufBefore, bufAfter) {
				continue
			}
			var guestLocal timeutil.LocalDateTime
			guestLocal, err = e.resolver.ToLocalWall(candidate.Start, params.GuestTimezone)
			if err != nil {
				return
			}
			key := localDateKey(guestLocal)
			grouped[key] = append(grouped[key], Slot{Start: candidate.Start, End: candidate.End})
		}
	}

	for key := range grouped {
		slots := grouped[key]
		sort.Slice(slots, func(i, j int) bool { return slots[i].Start.Before(slots[j].Start) })
		grouped[key] = slots
	}

	result = ListSlotsResult{Slots: grouped, Timezone: params.GuestTimezone}
	return
}

// IsSlotBookable re-derives bookability for a single candidate start instant
// using the same busy computation ListSlots performs, serving as the
// pre-commit check BookingService.Commit calls immediately before its
// uniqueness-gated insert.
func (e *AvailabilityEngine) IsSlotBookable(ctx context.Context, eventTypeID string, start time.Time) (bookable bool, err error) {
	if e == nil {
		err = fmt.Errorf("AvailabilityEngine is nil")
		return
	}

	logger := e.loggerWith(ctx, "IsSlotBookable", "event_type_id", eventTypeID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "slot bookability check failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("bookable", bookable).InfoContext(ctx, "slot bookability checked")
	}()

	var eventType EventType
	eventType, err = e.eventTypes.GetEventType(ctx, eventTypeID)
	if err != nil {
		return
	}
	if !eventType.Active {
		err = ErrNotFound
		return
	}

	var host Host
	host, err = e.hosts.GetHost(ctx, eventType.HostID)
	if err != nil {
		return
	}

	now := e.now()
	minStart := now.Add(time.Duration(eventType.MinimumNoticeMin) * time.Minute)
	windowEnd := now.Add(time.Duration(eventType.SchedulingWindowDays) * 24 * time.Hour)
	end := start.Add(time.Duration(eventType.DurationMin) * time.Minute)
	if start.Before(minStart) || end.After(windowEnd) {
		bookable = false
		return
	}

	var dayLocal timeutil.LocalDateTime
	dayLocal, err = e.resolver.ToLocalWall(start, host.DisplayTimezone)
	if err != nil {
		return
	}

	hours := make([]scheduler.WorkingHours, 0, len(eventType.WorkingHours))
	for _, h := range eventType.WorkingHours {
		hours = append(hours, scheduler.WorkingHours{DayOfWeek: h.DayOfWeek, StartLocal: h.StartLocal, EndLocal: h.EndLocal})
	}

	var candidates []scheduler.Interval
	candidates, err = scheduler.EnumerateDay(e.resolver, dayLocal.Date(), hours, eventType.DurationMin, intervalMinutes(eventType.SlotIntervalMin, eventType.DurationMin), host.DisplayTimezone)
	if err != nil {
		return
	}

	matched := false
	for _, candidate := range candidates {
		if candidate.Start.Equal(start) && candidate.End.Equal(end) {
			matched = true
			break
		}
	}
	if !matched {
		bookable = false
		return
	}

	fetchStart := start.Add(-time.Duration(eventType.BufferBeforeMin+1) * time.Minute)
	fetchEnd := end.Add(time.Duration(eventType.BufferAfterMin+1) * time.Minute)
	var merged []scheduler.Interval
	merged, err = e.mergedBusyIntervals(ctx, eventType, fetchStart, fetchEnd)
	if err != nil {
		return
	}

	bufBefore := time.Duration(eventType.BufferBeforeMin) * time.Minute
	bufAfter := time.Duration(eventType.BufferAfterMin) * time.Minute
	bookable = !scheduler.Overlaps(scheduler.Interval{Start: start, End: end}, merged, bufBefore, bufAfter)
	return
}

// mergedBusyIntervals fetches and merges the external-provider busy set with
// the host's own active bookings over [windowStart, windowEnd).
func (e *AvailabilityEngine) mergedBusyIntervals(ctx context.Context, eventType EventType, windowStart, windowEnd time.Time) ([]scheduler.Interval, error) {
	var intervals []scheduler.Interval

	if e.busy != nil && e.calendars != nil {
		calendars, err := e.calendars.ListSelectedCalendarsForHost(ctx, eventType.HostID, eventType.ParticipatingCalendarIDs)
		if err != nil {
			return nil, err
		}
		if len(calendars) > 0 {
			blocks, err := e.busy.FetchBusy(ctx, calendars, windowStart, windowEnd)
			if err != nil {
				return nil, fmt.Errorf("application: fetching busy blocks: %w", ErrUpstreamUnavailable)
			}
			for _, b := range blocks {
				intervals = append(intervals, scheduler.Interval{Start: b.Start, End: b.End})
			}
		}
	}

	if e.bookings != nil {
		bookings, err := e.bookings.ListBookingsOverlapping(ctx, BookingOverlapFilter{
			HostID:        eventType.HostID,
			StatusIn:      activeBookingStatuses,
			OverlapsStart: &windowStart,
			OverlapsEnd:   &windowEnd,
		})
		if err != nil {
			return nil, err
		}
		for _, b := range bookings {
			intervals = append(intervals, scheduler.Interval{Start: b.Start, End: b.End})
		}
	}

	return scheduler.Merge(intervals), nil
}

// effectiveWindow intersects the caller-requested range with the
// minimum-notice floor and scheduling-window ceiling derived from now.
func effectiveWindow(now, rangeStart, rangeEnd time.Time, eventType EventType) (start, end time.Time, ok bool) {
	minStart := now.Add(time.Duration(eventType.MinimumNoticeMin) * time.Minute)
	windowEnd := now.Add(time.Duration(eventType.SchedulingWindowDays) * 24 * time.Hour)

	start = rangeStart
	if minStart.After(start) {
		start = minStart
	}
	end = rangeEnd
	if windowEnd.Before(end) {
		end = windowEnd
	}
	if !start.Before(end) {
		return start, end, false
	}
	return start, end, true
}

func intervalMinutes(slotIntervalMin, durationMin int) int {
	if slotIntervalMin > 0 {
		return slotIntervalMin
	}
	return durationMin
}

func localDateKey(d timeutil.LocalDateTime) string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}
