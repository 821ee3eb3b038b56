package calendarsync

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/example/meetsched/internal/application"
)

// HostEmailLookup resolves the organizer email line for an external event,
// optional because the fake provider used in tests does not care.
type HostEmailLookup interface {
	GetHost(ctx context.Context, id string) (application.Host, error)
}

// Aggregator fans the application layer's narrow BusyProvider and
// ExternalEventWriter ports out across a host's connected accounts. A
// single account's failure never fails the whole FreeBusy call: its
// calendars contribute no busy blocks and the failure is logged as a
// per-account soft failure, per spec.md §5's fail-open-for-availability
// policy (the pre-commit check and the uniqueness constraint still guard
// against a double-book, so treating a flaky account as merely "no known
// busy time" rather than "fully booked" is safe). Event mutation calls are
// fail-closed and return the underlying error directly.
type Aggregator struct {
	provider  CalendarProviderPort
	refresher *AccountTokenRefresher
	hosts     HostEmailLookup
	logger    *slog.Logger
}

// NewAggregator constructs an Aggregator. hosts may be nil, in which case
// the organizer email on outbound events is left blank. A nil logger
// defaults to slog.Default().
func NewAggregator(provider CalendarProviderPort, refresher *AccountTokenRefresher, hosts HostEmailLookup, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{provider: provider, refresher: refresher, hosts: hosts, logger: logger}
}

// FetchBusy implements application.BusyProvider.
func (a *Aggregator) FetchBusy(ctx context.Context, calendars []application.Calendar, windowStart, windowEnd time.Time) ([]application.BusyBlock, error) {
	byAccount := make(map[string][]application.Calendar)
	for _, c := range calendars {
		byAccount[c.AccountID] = append(byAccount[c.AccountID], c)
	}

	var (
		mu     sync.Mutex
		blocks []application.BusyBlock
		wg     sync.WaitGroup
	)

	for accountID, group := range byAccount {
		wg.Add(1)
		go func(accountID string, group []application.Calendar) {
			defer wg.Done()

			token, err := a.refresher.Token(ctx, accountID)
			if err != nil {
				a.logger.WarnContext(ctx, "calendar account soft failure: skipping busy fetch",
					"account_id", accountID, "error", err)
				return
			}

			for _, c := range group {
				fetched, ferr := a.provider.FreeBusy(ctx, token, c.ExternalCalendarID, windowStart, windowEnd)
				if ferr != nil {
					a.logger.WarnContext(ctx, "calendar soft failure: skipping busy fetch",
						"account_id", accountID, "calendar_id", c.ID, "error", ferr)
					continue
				}
				mu.Lock()
				for _, b := range fetched {
					blocks = append(blocks, application.BusyBlock{Start: b.Start, End: b.End, SourceCalendarID: c.ID})
				}
				mu.Unlock()
			}
		}(accountID, group)
	}

	wg.Wait()
	return blocks, nil
}

// CreateEvent implements application.ExternalEventWriter.
func (a *Aggregator) CreateEvent(ctx context.Context, calendar application.Calendar, booking application.Booking) (externalEventRef, meetingURL string, err error) {
	token, err := a.refresher.Token(ctx, calendar.AccountID)
	if err != nil {
		return "", "", err
	}
	payload := a.eventPayload(ctx, booking)
	return a.provider.CreateEvent(ctx, token, calendar.ExternalCalendarID, payload)
}

// UpdateEvent implements application.ExternalEventWriter.
func (a *Aggregator) UpdateEvent(ctx context.Context, calendar application.Calendar, booking application.Booking) error {
	if booking.ExternalEventRef == nil {
		return fmt.Errorf("calendarsync: booking %s has no external event reference", booking.UID)
	}
	token, err := a.refresher.Token(ctx, calendar.AccountID)
	if err != nil {
		return err
	}
	return a.provider.UpdateEvent(ctx, token, calendar.ExternalCalendarID, *booking.ExternalEventRef, a.eventPayload(ctx, booking))
}

// DeleteEvent implements application.ExternalEventWriter.
func (a *Aggregator) DeleteEvent(ctx context.Context, calendar application.Calendar, externalEventRef string) error {
	token, err := a.refresher.Token(ctx, calendar.AccountID)
	if err != nil {
		return err
	}
	return a.provider.DeleteEvent(ctx, token, calendar.ExternalCalendarID, externalEventRef)
}

func (a *Aggregator) eventPayload(ctx context.Context, booking application.Booking) EventPayload {
	organizer := ""
	if a.hosts != nil {
		if host, err := a.hosts.GetHost(ctx, booking.HostID); err == nil {
			organizer = host.Email
		}
	}
	return EventPayload{
		UID:            booking.UID,
		Title:          fmt.Sprintf("Meeting with %s", booking.Guest.Name),
		Start:          booking.Start,
		End:            booking.End,
		OrganizerEmail: organizer,
		AttendeeEmail:  booking.Guest.Email,
		AttendeeName:   booking.Guest.Name,
	}
}
