package calendarsync

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// FakeProvider is a deterministic in-memory CalendarProviderPort for
// service tests, grounded on the teacher's testfixtures convention of a
// controllable fake standing in for an external collaborator instead of a
// mock framework (no mocking library appears anywhere in the retrieved
// corpus).
type FakeProvider struct {
	mu             sync.Mutex
	busy           map[string][]FreeBusyBlock // externalCalendarID -> blocks
	events         map[string]EventPayload    // externalEventRef -> payload
	nextRef        int
	FailFreeBusy   map[string]bool // externalCalendarID -> force error
	FailRefresh    map[string]bool // token access token -> force error
	RefreshedCount int
}

// NewFakeProvider constructs an empty FakeProvider.
func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		busy:         make(map[string][]FreeBusyBlock),
		events:       make(map[string]EventPayload),
		FailFreeBusy: make(map[string]bool),
		FailRefresh:  make(map[string]bool),
	}
}

// SeedBusy registers a fixed busy block for an external calendar, as test
// setup would configure a host's existing meetings.
func (f *FakeProvider) SeedBusy(externalCalendarID string, block FreeBusyBlock) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy[externalCalendarID] = append(f.busy[externalCalendarID], block)
}

// FreeBusy implements CalendarProviderPort.
func (f *FakeProvider) FreeBusy(ctx context.Context, token *oauth2.Token, externalCalendarID string, timeMin, timeMax time.Time) ([]FreeBusyBlock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailFreeBusy[externalCalendarID] {
		return nil, fmt.Errorf("calendarsync: fake free/busy failure for %s", externalCalendarID)
	}

	var result []FreeBusyBlock
	for _, b := range f.busy[externalCalendarID] {
		if b.Start.Before(timeMax) && timeMin.Before(b.End) {
			result = append(result, b)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Start.Before(result[j].Start) })
	return result, nil
}

// CreateEvent implements CalendarProviderPort.
func (f *FakeProvider) CreateEvent(ctx context.Context, token *oauth2.Token, externalCalendarID string, event EventPayload) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextRef++
	ref := fmt.Sprintf("fake-event-%d", f.nextRef)
	f.events[ref] = event
	f.busy[externalCalendarID] = append(f.busy[externalCalendarID], FreeBusyBlock{Start: event.Start, End: event.End})
	meetingURL := fmt.Sprintf("https://fake.meet.example/%s", ref)
	return ref, meetingURL, nil
}

// UpdateEvent implements CalendarProviderPort.
func (f *FakeProvider) UpdateEvent(ctx context.Context, token *oauth2.Token, externalCalendarID, externalEventRef string, event EventPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.events[externalEventRef]; !ok {
		return fmt.Errorf("calendarsync: unknown event %s", externalEventRef)
	}
	f.events[externalEventRef] = event
	return nil
}

// DeleteEvent implements CalendarProviderPort.
func (f *FakeProvider) DeleteEvent(ctx context.Context, token *oauth2.Token, externalCalendarID, externalEventRef string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.events[externalEventRef]; !ok {
		return fmt.Errorf("calendarsync: unknown event %s", externalEventRef)
	}
	delete(f.events, externalEventRef)
	return nil
}

// RefreshToken implements CalendarProviderPort, always returning a token
// valid for one hour unless the access token is registered in FailRefresh.
func (f *FakeProvider) RefreshToken(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailRefresh[token.AccessToken] {
		return nil, fmt.Errorf("calendarsync: fake refresh failure for %s", token.AccessToken)
	}
	f.RefreshedCount++
	return &oauth2.Token{
		AccessToken:  fmt.Sprintf("%s-refreshed-%d", token.AccessToken, f.RefreshedCount),
		RefreshToken: token.RefreshToken,
		Expiry:       time.Now().Add(time.Hour),
	}, nil
}
