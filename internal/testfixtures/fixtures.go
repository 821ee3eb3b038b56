package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/meetsched/internal/application"
)

var (
	hostCounter      uint64
	accountCounter   uint64
	calendarCounter  uint64
	eventTypeCounter uint64
	bookingCounter   uint64
	sessionCounter   uint64
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- Host fixtures -----------------------------

// HostOption configures a generated host fixture.
type HostOption func(*application.Host)

// NewHost returns a deterministic host fixture with optional overrides.
func NewHost(opts ...HostOption) application.Host {
	idx := atomic.AddUint64(&hostCounter, 1)
	id := fmt.Sprintf("host-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	host := application.Host{
		ID:              id,
		DisplayTimezone: "UTC",
		Email:           fmt.Sprintf("%s@example.com", id),
		DisplayName:     fmt.Sprintf("Host %03d", idx),
		CreatedAt:       created,
		UpdatedAt:       created,
	}
	for _, opt := range opts {
		opt(&host)
	}
	return host
}

// WithHostID overrides the generated host ID.
func WithHostID(id string) HostOption {
	return func(h *application.Host) { h.ID = id }
}

// WithHostEmail overrides the generated email address.
func WithHostEmail(email string) HostOption {
	return func(h *application.Host) { h.Email = email }
}

// WithHostTimezone overrides the generated display timezone.
func WithHostTimezone(tz string) HostOption {
	return func(h *application.Host) { h.DisplayTimezone = tz }
}

// NewHostCredentials returns deterministic credentials wrapping a generated
// host, carrying the supplied password hash unchanged.
func NewHostCredentials(passwordHash string, opts ...HostOption) application.HostCredentials {
	return application.HostCredentials{
		Host:         NewHost(opts...),
		PasswordHash: passwordHash,
	}
}

// -------------------------- ConnectedAccount fixtures --------------------------

// AccountOption configures a generated connected account fixture.
type AccountOption func(*application.ConnectedAccount)

// NewConnectedAccount returns a deterministic connected account fixture tied
// to hostID.
func NewConnectedAccount(hostID string, opts ...AccountOption) application.ConnectedAccount {
	idx := atomic.AddUint64(&accountCounter, 1)
	id := fmt.Sprintf("account-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	account := application.ConnectedAccount{
		ID:               id,
		HostID:           hostID,
		Provider:         application.ProviderGoogle,
		ExternalIdentity: fmt.Sprintf("%s@gmail.com", id),
		EncryptedTokens:  []byte("encrypted-token-" + id),
		Scopes:           []string{"calendar.readonly", "calendar.events"},
		Valid:            true,
		CreatedAt:        created,
		UpdatedAt:        created,
	}
	for _, opt := range opts {
		opt(&account)
	}
	return account
}

// WithAccountID overrides the generated account ID.
func WithAccountID(id string) AccountOption {
	return func(a *application.ConnectedAccount) { a.ID = id }
}

// WithAccountProvider overrides the generated provider.
func WithAccountProvider(provider application.AccountProvider) AccountOption {
	return func(a *application.ConnectedAccount) { a.Provider = provider }
}

// WithAccountInvalid marks the generated account as needing reauthorization.
func WithAccountInvalid() AccountOption {
	return func(a *application.ConnectedAccount) { a.Valid = false }
}

// ----------------------------- Calendar fixtures -----------------------------

// CalendarOption configures a generated calendar fixture.
type CalendarOption func(*application.Calendar)

// NewCalendar returns a deterministic calendar fixture tied to accountID.
func NewCalendar(accountID string, opts ...CalendarOption) application.Calendar {
	idx := atomic.AddUint64(&calendarCounter, 1)
	id := fmt.Sprintf("calendar-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	calendar := application.Calendar{
		ID:                    id,
		AccountID:             accountID,
		ExternalCalendarID:    fmt.Sprintf("external-%03d", idx),
		Writable:              true,
		SelectedForBusy:       true,
		IsDestinationEligible: true,
		CreatedAt:             created,
		UpdatedAt:             created,
	}
	for _, opt := range opts {
		opt(&calendar)
	}
	return calendar
}

// WithCalendarID overrides the generated calendar ID.
func WithCalendarID(id string) CalendarOption {
	return func(c *application.Calendar) { c.ID = id }
}

// WithCalendarNotSelected marks the generated calendar as excluded from
// busy-time aggregation.
func WithCalendarNotSelected() CalendarOption {
	return func(c *application.Calendar) { c.SelectedForBusy = false }
}

// WithCalendarReadOnly marks the generated calendar as ineligible to host new
// events.
func WithCalendarReadOnly() CalendarOption {
	return func(c *application.Calendar) {
		c.Writable = false
		c.IsDestinationEligible = false
	}
}

// ----------------------------- EventType fixtures -----------------------------

// EventTypeOption configures a generated event type fixture.
type EventTypeOption func(*application.EventType)

// NewEventType returns a deterministic, bookable event type fixture owned by
// hostID with sane defaults: 30-minute slots, weekday 09:00-17:00 working
// hours, one day of minimum notice, and a 14-day scheduling window.
func NewEventType(hostID string, opts ...EventTypeOption) application.EventType {
	idx := atomic.AddUint64(&eventTypeCounter, 1)
	id := fmt.Sprintf("event-type-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	eventType := application.EventType{
		ID:                   id,
		HostID:               hostID,
		Slug:                 fmt.Sprintf("slot-%03d", idx),
		Title:                fmt.Sprintf("Event Type %03d", idx),
		DurationMin:          30,
		BufferBeforeMin:      0,
		BufferAfterMin:       0,
		MinimumNoticeMin:     24 * 60,
		SchedulingWindowDays: 14,
		SlotIntervalMin:      30,
		WorkingHours:         WeekdayWorkingHours(),
		LocationKind:         application.LocationKindVideoConference,
		Active:               true,
		CreatedAt:            created,
		UpdatedAt:            created,
	}
	for _, opt := range opts {
		opt(&eventType)
	}
	return eventType
}

// WeekdayWorkingHours returns Monday-Friday 09:00-17:00, the default working
// hours used by NewEventType.
func WeekdayWorkingHours() []application.WorkingHours {
	hours := make([]application.WorkingHours, 0, 5)
	for _, day := range []time.Weekday{
		time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
	} {
		hours = append(hours, application.WorkingHours{
			DayOfWeek:  day,
			StartLocal: "09:00",
			EndLocal:   "17:00",
		})
	}
	return hours
}

// WithEventTypeID overrides the generated event type ID.
func WithEventTypeID(id string) EventTypeOption {
	return func(e *application.EventType) { e.ID = id }
}

// WithEventTypeSlug overrides the generated slug.
func WithEventTypeSlug(slug string) EventTypeOption {
	return func(e *application.EventType) { e.Slug = slug }
}

// WithEventTypeDuration overrides the generated duration in minutes.
func WithEventTypeDuration(minutes int) EventTypeOption {
	return func(e *application.EventType) { e.DurationMin = minutes }
}

// WithEventTypeCalendars sets the participating and destination calendars.
func WithEventTypeCalendars(participating []string, destination string) EventTypeOption {
	return func(e *application.EventType) {
		e.ParticipatingCalendarIDs = participating
		e.DestinationCalendarID = destination
	}
}

// WithEventTypeInactive marks the generated event type as deactivated.
func WithEventTypeInactive() EventTypeOption {
	return func(e *application.EventType) { e.Active = false }
}

// ----------------------------- Booking fixtures -----------------------------

// BookingOption configures a generated booking fixture.
type BookingOption func(*application.Booking)

// NewBooking returns a deterministic confirmed booking fixture for the given
// host and event type, lasting 30 minutes and starting n hours after
// ReferenceTime, where n is the fixture's sequence number (1 for the first).
func NewBooking(hostID, eventTypeID string, opts ...BookingOption) application.Booking {
	idx := atomic.AddUint64(&bookingCounter, 1)
	id := fmt.Sprintf("booking-%03d", idx)
	start := referenceTime.Add(time.Duration(idx) * time.Hour)
	booking := application.Booking{
		ID:            id,
		UID:           fmt.Sprintf("uid-%03d", idx),
		HostID:        hostID,
		EventTypeID:   eventTypeID,
		Start:         start,
		End:           start.Add(30 * time.Minute),
		GuestTimezone: "UTC",
		Guest: application.GuestIdentity{
			Name:  fmt.Sprintf("Guest %03d", idx),
			Email: fmt.Sprintf("guest-%03d@example.com", idx),
		},
		Status:    application.BookingStatusConfirmed,
		CreatedAt: start,
		UpdatedAt: start,
	}
	for _, opt := range opts {
		opt(&booking)
	}
	return booking
}

// WithBookingUID overrides the generated booking UID.
func WithBookingUID(uid string) BookingOption {
	return func(b *application.Booking) { b.UID = uid }
}

// WithBookingStatus overrides the generated booking status.
func WithBookingStatus(status application.BookingStatus) BookingOption {
	return func(b *application.Booking) { b.Status = status }
}

// WithBookingWindow overrides the generated start and end time.
func WithBookingWindow(start, end time.Time) BookingOption {
	return func(b *application.Booking) {
		b.Start = start
		b.End = end
	}
}

// WithBookingIdempotencyKey sets the generated booking's idempotency key.
func WithBookingIdempotencyKey(key string) BookingOption {
	return func(b *application.Booking) { b.IdempotencyKey = &key }
}

// ----------------------------- Session fixtures -----------------------------

// SessionOption configures a generated session fixture.
type SessionOption func(*application.Session)

// NewSession returns a deterministic, unexpired session fixture for hostID.
func NewSession(hostID string, opts ...SessionOption) application.Session {
	idx := atomic.AddUint64(&sessionCounter, 1)
	id := fmt.Sprintf("session-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	session := application.Session{
		ID:          id,
		HostID:      hostID,
		Token:       fmt.Sprintf("token-%03d", idx),
		Fingerprint: fmt.Sprintf("fingerprint-%03d", idx),
		ExpiresAt:   created.Add(24 * time.Hour),
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	for _, opt := range opts {
		opt(&session)
	}
	return session
}

// WithSessionToken overrides the generated session token.
func WithSessionToken(token string) SessionOption {
	return func(s *application.Session) { s.Token = token }
}

// WithSessionExpiresAt overrides the generated expiry.
func WithSessionExpiresAt(expiresAt time.Time) SessionOption {
	return func(s *application.Session) { s.ExpiresAt = expiresAt }
}

// WithSessionRevoked marks the generated session as revoked at its creation
// time.
func WithSessionRevoked() SessionOption {
	return func(s *application.Session) {
		revokedAt := s.CreatedAt
		s.RevokedAt = &revokedAt
	}
}
