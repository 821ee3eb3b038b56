package application

import "time"

// Principal represents the authenticated actor invoking a service method.
// A zero value Principal (empty HostID) represents an unauthenticated guest,
// which is sufficient identity for the public availability/booking surface.
type Principal struct {
	HostID string
}

// LocationKind enumerates how a meeting is expected to take place.
type LocationKind string

const (
	LocationKindInPerson        LocationKind = "in_person"
	LocationKindPhone           LocationKind = "phone"
	LocationKindVideoConference LocationKind = "video_conference"
	LocationKindCustom          LocationKind = "custom"
)

// QuestionKind enumerates the shape of a custom booking question.
type QuestionKind string

const (
	QuestionKindText     QuestionKind = "text"
	QuestionKindTextarea QuestionKind = "textarea"
	QuestionKindSelect   QuestionKind = "select"
)

// CustomQuestion is a strongly typed replacement for a dynamically shaped
// custom-question configuration blob.
type CustomQuestion struct {
	Kind     QuestionKind
	Label    string
	Required bool
	Options  []string
}

// WorkingHours describes one weekly recurring availability window,
// interpreted in the owning host's timezone.
type WorkingHours struct {
	DayOfWeek  time.Weekday
	StartLocal string // "HH:MM"
	EndLocal   string // "HH:MM"
}

// Host is the owner of calendars, event types, and bookings.
type Host struct {
	ID              string
	DisplayTimezone string
	Email           string
	DisplayName     string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AccountProvider names the external calendar vendor a connected account
// belongs to.
type AccountProvider string

const (
	ProviderGoogle    AccountProvider = "google"
	ProviderMicrosoft AccountProvider = "microsoft"
	ProviderGeneric   AccountProvider = "generic"
)

// ConnectedAccount is an OAuth-linked external calendar account.
type ConnectedAccount struct {
	ID               string
	HostID           string
	Provider         AccountProvider
	ExternalIdentity string
	EncryptedTokens  []byte
	Scopes           []string
	Valid            bool
	LastSyncAt       *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Calendar is one calendar exposed by a ConnectedAccount.
type Calendar struct {
	ID                     string
	AccountID              string
	ExternalCalendarID     string
	Writable               bool
	SelectedForBusy        bool
	IsDestinationEligible  bool
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// EventType is a bookable meeting configuration owned by a host.
type EventType struct {
	ID                   string
	HostID               string
	Slug                 string
	Title                string
	DurationMin          int
	BufferBeforeMin      int
	BufferAfterMin       int
	MinimumNoticeMin      int
	SchedulingWindowDays int
	SlotIntervalMin      int
	WorkingHours         []WorkingHours
	ParticipatingCalendarIDs []string
	DestinationCalendarID    string
	LocationKind         LocationKind
	RequiresConfirmation bool
	CustomQuestions      []CustomQuestion
	Active               bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// BookingStatus enumerates the lifecycle state of a Booking.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
)

// GuestIdentity captures the contact details of a booking guest.
type GuestIdentity struct {
	Name    string
	Email   string
	Phone   *string
	Company *string
	Notes   *string
}

// Booking is a reserved, possibly externally mirrored, meeting slot.
type Booking struct {
	ID               string
	UID              string
	HostID           string
	EventTypeID      string
	Start            time.Time
	End              time.Time
	GuestTimezone    string
	Guest            GuestIdentity
	CustomResponses  map[string]string
	IdempotencyKey   *string
	Status           BookingStatus
	ExternalEventRef *string
	MeetingURL       *string
	PriorUID         *string
	CancelledAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// BusyBlock is a transient half-open busy interval, never persisted.
type BusyBlock struct {
	Start          time.Time
	End            time.Time
	SourceCalendarID string
}

// ListSlotsParams captures the inputs to AvailabilityEngine.ListSlots.
type ListSlotsParams struct {
	EventTypeID   string
	RangeStart    time.Time
	RangeEnd      time.Time
	GuestTimezone string
}

// Slot is one bookable half-open interval.
type Slot struct {
	Start time.Time
	End   time.Time
}

// SlotsByDate groups ascending slots under their local guest-timezone date key
// ("YYYY-MM-DD").
type SlotsByDate map[string][]Slot

// ListSlotsResult is the outcome of a listSlots call.
type ListSlotsResult struct {
	Slots    SlotsByDate
	Timezone string
}

// CreateBookingParams captures the inputs to BookingService.Commit.
type CreateBookingParams struct {
	EventTypeID     string
	StartTime       time.Time
	GuestTimezone   string
	Guest           GuestIdentity
	CustomResponses map[string]string
	IdempotencyKey  *string
}

// RescheduleBookingParams captures the inputs to BookingService.Reschedule.
type RescheduleBookingParams struct {
	UID           string
	NewStartTime  time.Time
	GuestTimezone string
	Email         *string
}

// CancelBookingParams captures the inputs to BookingService.Cancel.
type CancelBookingParams struct {
	UID    string
	Email  *string
	Reason *string
}

// Session represents an authenticated session issued to a host.
type Session struct {
	ID          string
	HostID      string
	Token       string
	Fingerprint string
	ExpiresAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	RevokedAt   *time.Time
}

// AuthenticateParams captures the data required to authenticate a host.
type AuthenticateParams struct {
	Email       string
	Password    string
	Fingerprint string
}

// AuthenticateResult captures the outcome of a successful authentication attempt.
type AuthenticateResult struct {
	Host    Host
	Session Session
}

// RefreshSessionParams captures the data required to refresh an existing session.
type RefreshSessionParams struct {
	Token       string
	Fingerprint string
}

// RefreshSessionResult captures the outcome of rotating a session token.
type RefreshSessionResult struct {
	Session Session
}

// HostCredentials models the authentication attributes persisted for a host.
type HostCredentials struct {
	Host           Host
	PasswordHash   string
	Disabled       bool
	FailedAttempts int
	LastFailedAt   *time.Time
}
