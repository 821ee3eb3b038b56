package persistence

import (
	"context"
	"time"
)

// HostRepository exposes CRUD operations for hosts, including the credential
// fields needed by the authentication gate.
type HostRepository interface {
	CreateHost(ctx context.Context, host Host) error
	UpdateHost(ctx context.Context, host Host) error
	GetHost(ctx context.Context, id string) (Host, error)
	GetHostByEmail(ctx context.Context, email string) (Host, error)
	DeleteHost(ctx context.Context, id string) error
}

// AccountRepository stores connected external-calendar accounts.
type AccountRepository interface {
	CreateAccount(ctx context.Context, account ConnectedAccount) error
	UpdateAccount(ctx context.Context, account ConnectedAccount) error
	GetAccount(ctx context.Context, id string) (ConnectedAccount, error)
	ListAccountsForHost(ctx context.Context, hostID string) ([]ConnectedAccount, error)
	DeleteAccount(ctx context.Context, id string) error
}

// CalendarRepository stores calendars reconciled from connected accounts.
type CalendarRepository interface {
	CreateCalendar(ctx context.Context, calendar Calendar) error
	UpdateCalendar(ctx context.Context, calendar Calendar) error
	GetCalendar(ctx context.Context, id string) (Calendar, error)
	ListCalendarsForAccount(ctx context.Context, accountID string) ([]Calendar, error)
	ListSelectedCalendarsForHost(ctx context.Context, hostID string, calendarIDs []string) ([]Calendar, error)
	DeleteCalendar(ctx context.Context, id string) error
}

// EventTypeRepository stores bookable meeting configurations.
type EventTypeRepository interface {
	CreateEventType(ctx context.Context, eventType EventType) error
	UpdateEventType(ctx context.Context, eventType EventType) error
	GetEventType(ctx context.Context, id string) (EventType, error)
	GetEventTypeBySlug(ctx context.Context, hostID, slug string) (EventType, error)
	ListEventTypesForHost(ctx context.Context, hostID string) ([]EventType, error)
	DeleteEventType(ctx context.Context, id string) error
}

// BookingFilter narrows booking ledger queries.
type BookingFilter struct {
	HostID         string
	StatusIn       []string
	OverlapsStart  *time.Time
	OverlapsEnd    *time.Time
}

// BookingRepository is the narrow repository interface the booking commit
// path and availability engine depend on. It hides the uniqueness
// constraints that make it the source of truth for conflict-free commits:
// (host, start, end) for non-cancelled bookings, and idempotencyKey globally.
type BookingRepository interface {
	CreateBooking(ctx context.Context, booking Booking) (Booking, error)
	UpdateBooking(ctx context.Context, booking Booking) (Booking, error)
	GetBookingByUID(ctx context.Context, uid string) (Booking, error)
	GetBookingByIdempotencyKey(ctx context.Context, key string) (Booking, error)
	ListBookingsOverlapping(ctx context.Context, filter BookingFilter) ([]Booking, error)
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	UpdateSession(ctx context.Context, session Session) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}
