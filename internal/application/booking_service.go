package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/meetsched/internal/timeutil"
)

// BookingRepository is the narrow ledger interface BookingService depends
// on. Implementations are expected to translate the underlying store's
// uniqueness-violation errors (the `(host, start, end)` and idempotencyKey
// constraints) into ErrSlotTaken before returning, so this package never
// reasons about a specific storage engine's error shapes.
type BookingRepository interface {
	CreateBooking(ctx context.Context, booking Booking) (Booking, error)
	UpdateBooking(ctx context.Context, booking Booking) (Booking, error)
	GetBookingByUID(ctx context.Context, uid string) (Booking, error)
	GetBookingByIdempotencyKey(ctx context.Context, key string) (Booking, error)
}

// CalendarLookup resolves a single calendar by id, used to find the
// destination calendar configured on an event type.
type CalendarLookup interface {
	GetCalendar(ctx context.Context, id string) (Calendar, error)
}

// ExternalEventWriter is the narrow write-side of the calendar provider
// port BookingCommit's post-commit step and Reschedule/Cancel depend on.
type ExternalEventWriter interface {
	CreateEvent(ctx context.Context, calendar Calendar, booking Booking) (externalEventRef, meetingURL string, err error)
	UpdateEvent(ctx context.Context, calendar Calendar, booking Booking) error
	DeleteEvent(ctx context.Context, calendar Calendar, externalEventRef string) error
}

// BookingNotification carries what a Mailer implementation needs to derive
// recipients and build an ICS attachment without BookingService needing to
// know the mailer's template or attachment conventions.
type BookingNotification struct {
	Template  string
	Booking   Booking
	Host      Host
	EventType EventType
}

// Mailer fires best-effort guest/host notifications. Failures are logged by
// BookingService and never fail a booking operation.
type Mailer interface {
	Send(ctx context.Context, notification BookingNotification) error
}

// SlotChecker is the pre-commit bookability check BookingService consults;
// satisfied by *AvailabilityEngine.
type SlotChecker interface {
	IsSlotBookable(ctx context.Context, eventTypeID string, start time.Time) (bool, error)
}

// BookingService implements the BookingCommit state machine: validate,
// pre-commit check, uniqueness-gated insert, best-effort external event
// creation, best-effort notification. Reschedule and Cancel are modeled on
// the same collaborators, generalizing the teacher's
// ScheduleService.{Create,Update,Delete} trio to booking semantics.
type BookingService struct {
	bookings    BookingRepository
	eventTypes  EventTypeStore
	hosts       HostTimezoneStore
	calendars   CalendarLookup
	availability SlotChecker
	external    ExternalEventWriter
	mailer      Mailer
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewBookingService constructs a BookingService with the provided
// dependencies. external and mailer may be nil, in which case the
// corresponding post-commit step is skipped.
func NewBookingService(bookings BookingRepository, eventTypes EventTypeStore, hosts HostTimezoneStore, calendars CalendarLookup, availability SlotChecker, external ExternalEventWriter, mailer Mailer, idGenerator func() string, now func() time.Time, logger *slog.Logger) *BookingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &BookingService{
		bookings:     bookings,
		eventTypes:   eventTypes,
		hosts:        hosts,
		calendars:    calendars,
		availability: availability,
		external:     external,
		mailer:       mailer,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

func (s *BookingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BookingService", operation, attrs...)
}

// Commit validates, reserves, and returns a booking, per spec.md §4.4's
// state machine. A request carrying an idempotency key that matches a
// previously stored booking short-circuits to that booking unchanged and
// reports replayed=true, so callers that expose this over HTTP can return
// 200 instead of 201 on a replay.
func (s *BookingService) Commit(ctx context.Context, params CreateBookingParams) (booking Booking, replayed bool, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Commit", "event_type_id", params.EventTypeID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "booking commit failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("booking_uid", booking.UID, "status", booking.Status, "replayed", replayed).InfoContext(ctx, "booking commit succeeded")
	}()

	if params.IdempotencyKey != nil && strings.TrimSpace(*params.IdempotencyKey) != "" {
		var existing Booking
		existing, err = s.bookings.GetBookingByIdempotencyKey(ctx, *params.IdempotencyKey)
		if err == nil {
			booking = existing
			replayed = true
			return
		}
		if !errors.Is(err, ErrNotFound) {
			return
		}
		err = nil
	}

	if verr := validateCreateBookingParams(params); verr != nil {
		err = verr
		return
	}

	var eventType EventType
	eventType, err = s.eventTypes.GetEventType(ctx, params.EventTypeID)
	if err != nil {
		return
	}
	if !eventType.Active {
		err = ErrNotFound
		return
	}

	var bookable bool
	bookable, err = s.availability.IsSlotBookable(ctx, params.EventTypeID, params.StartTime)
	if err != nil {
		return
	}
	if !bookable {
		err = ErrSlotTaken
		return
	}

	key := params.IdempotencyKey
	if key == nil || strings.TrimSpace(*key) == "" {
		derived := deriveIdempotencyKey(params.EventTypeID, params.StartTime, params.Guest.Email, s.now())
		key = &derived
	}

	now := s.now()
	status := BookingStatusConfirmed
	if eventType.RequiresConfirmation {
		status = BookingStatusPending
	}

	candidate := Booking{
		ID:              s.idGenerator(),
		UID:             s.idGenerator(),
		HostID:          eventType.HostID,
		EventTypeID:     eventType.ID,
		Start:           params.StartTime,
		End:             params.StartTime.Add(time.Duration(eventType.DurationMin) * time.Minute),
		GuestTimezone:   params.GuestTimezone,
		Guest:           params.Guest,
		CustomResponses: params.CustomResponses,
		IdempotencyKey:  key,
		Status:          status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	booking, err = s.bookings.CreateBooking(ctx, candidate)
	if err != nil {
		return
	}

	s.bestEffortExternalCreate(ctx, logger, &eventType, &booking)
	s.bestEffortNotify(ctx, logger, "booking_confirmed", eventType, booking)

	return
}

// Get resolves a booking by its public uid, for the guest-facing booking
// view. Returns ErrNotFound if no booking carries that uid.
func (s *BookingService) Get(ctx context.Context, uid string) (Booking, error) {
	if s == nil {
		return Booking{}, fmt.Errorf("BookingService is nil")
	}
	return s.bookings.GetBookingByUID(ctx, uid)
}

// Reschedule re-checks bookability for the new time and mutates the booking
// atomically, recording the prior uid. Unlike Commit's best-effort external
// step, a failed external provider update here fails the whole operation
// (UpstreamUnavailable is fail-closed for reschedule, per spec.md §7) and no
// local mutation is persisted.
func (s *BookingService) Reschedule(ctx context.Context, principal Principal, params RescheduleBookingParams) (booking Booking, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Reschedule", "uid", params.UID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "booking reschedule failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("new_uid", booking.UID, "prior_uid", derefString(booking.PriorUID)).InfoContext(ctx, "booking rescheduled")
	}()

	var existing Booking
	existing, err = s.bookings.GetBookingByUID(ctx, params.UID)
	if err != nil {
		return
	}
	if !authorizedForBooking(principal, existing, params.Email) {
		err = ErrUnauthorized
		return
	}
	if existing.Status == BookingStatusCancelled {
		err = ErrNotFound
		return
	}

	var eventType EventType
	eventType, err = s.eventTypes.GetEventType(ctx, existing.EventTypeID)
	if err != nil {
		return
	}

	var bookable bool
	bookable, err = s.availability.IsSlotBookable(ctx, existing.EventTypeID, params.NewStartTime)
	if err != nil {
		return
	}
	if !bookable {
		err = ErrSlotTaken
		return
	}

	updated := existing
	updated.Start = params.NewStartTime
	updated.End = params.NewStartTime.Add(time.Duration(eventType.DurationMin) * time.Minute)
	if strings.TrimSpace(params.GuestTimezone) != "" {
		updated.GuestTimezone = params.GuestTimezone
	}

	if s.external != nil && existing.ExternalEventRef != nil && eventType.DestinationCalendarID != "" {
		var calendar Calendar
		calendar, err = s.calendars.GetCalendar(ctx, eventType.DestinationCalendarID)
		if err != nil {
			return
		}
		if uerr := s.external.UpdateEvent(ctx, calendar, updated); uerr != nil {
			err = fmt.Errorf("application: updating external event: %w", ErrUpstreamUnavailable)
			return
		}
	}

	priorUID := existing.UID
	updated.PriorUID = &priorUID
	updated.UID = s.idGenerator()
	updated.UpdatedAt = s.now()

	booking, err = s.bookings.UpdateBooking(ctx, updated)
	if err != nil {
		return
	}

	s.bestEffortNotify(ctx, logger, "booking_rescheduled", eventType, booking)
	return
}

// Cancel marks a booking CANCELLED, immediately freeing its slot for future
// availability queries. Deleting the mirrored external event is fail-closed:
// a provider error surfaces to the caller and the local row is left
// unmodified.
func (s *BookingService) Cancel(ctx context.Context, principal Principal, params CancelBookingParams) (booking Booking, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Cancel", "uid", params.UID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "booking cancel failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "booking cancelled")
	}()

	var existing Booking
	existing, err = s.bookings.GetBookingByUID(ctx, params.UID)
	if err != nil {
		return
	}
	if !authorizedForBooking(principal, existing, params.Email) {
		err = ErrUnauthorized
		return
	}
	if existing.Status == BookingStatusCancelled {
		booking = existing
		err = nil
		return
	}

	var eventType EventType
	eventType, err = s.eventTypes.GetEventType(ctx, existing.EventTypeID)
	if err != nil {
		return
	}

	if s.external != nil && existing.ExternalEventRef != nil && eventType.DestinationCalendarID != "" {
		var calendar Calendar
		calendar, err = s.calendars.GetCalendar(ctx, eventType.DestinationCalendarID)
		if err != nil {
			return
		}
		if derr := s.external.DeleteEvent(ctx, calendar, *existing.ExternalEventRef); derr != nil {
			err = fmt.Errorf("application: deleting external event: %w", ErrUpstreamUnavailable)
			return
		}
	}

	now := s.now()
	updated := existing
	updated.Status = BookingStatusCancelled
	updated.CancelledAt = &now
	updated.UpdatedAt = now

	booking, err = s.bookings.UpdateBooking(ctx, updated)
	if err != nil {
		return
	}

	s.bestEffortNotify(ctx, logger, "booking_cancelled", eventType, booking)
	return
}

// bestEffortExternalCreate mirrors a newly committed booking onto the event
// type's destination calendar. Failure is logged and the booking stands
// CONFIRMED/PENDING with no external reference, per the resolved open
// question on partial success.
func (s *BookingService) bestEffortExternalCreate(ctx context.Context, logger *slog.Logger, eventType *EventType, booking *Booking) {
	if s.external == nil || eventType.DestinationCalendarID == "" {
		return
	}

	calendar, err := s.calendars.GetCalendar(ctx, eventType.DestinationCalendarID)
	if err != nil {
		logger.ErrorContext(ctx, "destination calendar lookup failed", "error", err, "booking_uid", booking.UID)
		return
	}

	ref, meetingURL, err := s.external.CreateEvent(ctx, calendar, *booking)
	if err != nil {
		logger.ErrorContext(ctx, "external event creation failed", "error", err, "booking_uid", booking.UID)
		return
	}

	booking.ExternalEventRef = &ref
	if meetingURL != "" {
		booking.MeetingURL = &meetingURL
	}
	booking.UpdatedAt = s.now()

	persisted, err := s.bookings.UpdateBooking(ctx, *booking)
	if err != nil {
		logger.ErrorContext(ctx, "persisting external event reference failed", "error", err, "booking_uid", booking.UID)
		return
	}
	*booking = persisted
}

func (s *BookingService) bestEffortNotify(ctx context.Context, logger *slog.Logger, template string, eventType EventType, booking Booking) {
	if s.mailer == nil {
		return
	}
	var host Host
	if s.hosts != nil {
		var err error
		host, err = s.hosts.GetHost(ctx, eventType.HostID)
		if err != nil {
			logger.ErrorContext(ctx, "notification host lookup failed", "error", err, "booking_uid", booking.UID)
			return
		}
	}
	if err := s.mailer.Send(ctx, BookingNotification{Template: template, Booking: booking, Host: host, EventType: eventType}); err != nil {
		logger.ErrorContext(ctx, "notification send failed", "error", err, "booking_uid", booking.UID)
	}
}

func validateCreateBookingParams(params CreateBookingParams) *ValidationError {
	verr := &ValidationError{}
	if strings.TrimSpace(params.EventTypeID) == "" {
		verr.add("eventTypeId", "is required")
	}
	if params.StartTime.IsZero() {
		verr.add("startTime", "is required")
	}
	if !timeutil.IsValidIANAZone(params.GuestTimezone) {
		verr.add("timezone", "must be a valid IANA timezone")
	}
	if strings.TrimSpace(params.Guest.Name) == "" {
		verr.add("guest.name", "is required")
	}
	if strings.TrimSpace(params.Guest.Email) == "" {
		verr.add("guest.email", "is required")
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

// derefString safely dereferences a nullable string for logging.
func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// authorizedForBooking reports whether the acting principal may mutate
// booking: either the owning host, or a guest whose provided email matches
// the booking's contact email, per spec.md §6's DELETE /bookings/{uid}
// authorization rule (generalized to PATCH as well).
func authorizedForBooking(principal Principal, booking Booking, guestEmail *string) bool {
	if principal.HostID != "" && principal.HostID == booking.HostID {
		return true
	}
	if guestEmail == nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(*guestEmail), booking.Guest.Email)
}

// derivedIdempotencyKeyTuple formats the tuple hashed to derive an
// idempotency key when the caller did not supply one.
func derivedIdempotencyKeyTuple(eventTypeID string, start time.Time, guestEmail string, wallClockMs int64) string {
	return fmt.Sprintf("%s|%s|%s|%d", eventTypeID, start.UTC().Format(time.RFC3339Nano), strings.ToLower(strings.TrimSpace(guestEmail)), wallClockMs)
}

// deriveIdempotencyKey hashes (eventType, start, guestEmail, wallClockMs)
// with SHA-256 so that a naive client retry within the same wall-clock
// millisecond deduplicates while ordinary, separated retries do not. This
// deliberately avoids google/uuid here: the key must be a deterministic
// function of its inputs, not a random value, see SPEC_FULL.md §4.4.
func deriveIdempotencyKey(eventTypeID string, start time.Time, guestEmail string, now time.Time) string {
	sum := sha256.Sum256([]byte(derivedIdempotencyKeyTuple(eventTypeID, start, guestEmail, now.UnixMilli())))
	return hex.EncodeToString(sum[:])
}
