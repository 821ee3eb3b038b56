// Package calendarsync implements the BusyProvider-adjacent outbound
// boundary: an outbound CalendarProviderPort, a TokenVault sealing stored
// OAuth tokens at rest, a per-account refresh critical section, and an
// Aggregator that fans the application layer's narrow BusyProvider and
// ExternalEventWriter ports out across a host's connected accounts.
package calendarsync

import (
	"context"
	"time"

	"golang.org/x/oauth2"
)

// FreeBusyBlock is one busy interval reported by a provider for a calendar.
type FreeBusyBlock struct {
	Start time.Time
	End   time.Time
}

// EventPayload is the provider-agnostic shape of a meeting event, built
// from a Booking before being handed to CalendarProviderPort.
type EventPayload struct {
	UID            string
	Title          string
	Start          time.Time
	End            time.Time
	OrganizerEmail string
	AttendeeEmail  string
	AttendeeName   string
	Description    string
}

// CalendarProviderPort is the outbound port for an external calendar
// vendor, grounded on the retrieved worker_calendar_provider.go reference's
// CalendarProviderPort shape, narrowed to the operations this repository's
// core actually calls (free/busy, event CRUD, token refresh).
type CalendarProviderPort interface {
	FreeBusy(ctx context.Context, token *oauth2.Token, externalCalendarID string, timeMin, timeMax time.Time) ([]FreeBusyBlock, error)
	CreateEvent(ctx context.Context, token *oauth2.Token, externalCalendarID string, event EventPayload) (externalEventRef, meetingURL string, err error)
	UpdateEvent(ctx context.Context, token *oauth2.Token, externalCalendarID, externalEventRef string, event EventPayload) error
	DeleteEvent(ctx context.Context, token *oauth2.Token, externalCalendarID, externalEventRef string) error
	RefreshToken(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error)
}
