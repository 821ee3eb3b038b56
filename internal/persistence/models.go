package persistence

import "time"

// Host represents a host account row in the ledger store.
type Host struct {
	ID              string
	Email           string
	DisplayName     string
	DisplayTimezone string
	PasswordHash    string
	Disabled        bool
	FailedAttempts  int
	LastFailedAt    *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ConnectedAccount represents an OAuth-linked external calendar account row.
type ConnectedAccount struct {
	ID               string
	HostID           string
	Provider         string
	ExternalIdentity string
	EncryptedTokens  []byte
	Scopes           []string
	Valid            bool
	LastSyncAt       *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Calendar represents one calendar exposed by a ConnectedAccount.
type Calendar struct {
	ID                    string
	AccountID             string
	ExternalCalendarID    string
	Writable              bool
	SelectedForBusy       bool
	IsDestinationEligible bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// WorkingHours is one weekly recurring availability window row.
type WorkingHours struct {
	DayOfWeek  time.Weekday
	StartLocal string
	EndLocal   string
}

// CustomQuestion is one strongly typed custom booking question row.
type CustomQuestion struct {
	Kind     string
	Label    string
	Required bool
	Options  []string
}

// EventType represents a bookable meeting configuration row.
type EventType struct {
	ID                       string
	HostID                   string
	Slug                     string
	Title                    string
	DurationMin              int
	BufferBeforeMin          int
	BufferAfterMin           int
	MinimumNoticeMin         int
	SchedulingWindowDays     int
	SlotIntervalMin          int
	WorkingHours             []WorkingHours
	ParticipatingCalendarIDs []string
	DestinationCalendarID    string
	LocationKind             string
	RequiresConfirmation     bool
	CustomQuestions          []CustomQuestion
	Active                   bool
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// Booking represents a reserved meeting slot row.
type Booking struct {
	ID               string
	UID              string
	HostID           string
	EventTypeID      string
	Start            time.Time
	End              time.Time
	GuestTimezone    string
	GuestName        string
	GuestEmail       string
	GuestPhone       *string
	GuestCompany     *string
	GuestNotes       *string
	CustomResponses  map[string]string
	IdempotencyKey   *string
	Status           string
	ExternalEventRef *string
	MeetingURL       *string
	PriorUID         *string
	CancelledAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Session represents an authentication session persisted for a host.
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
