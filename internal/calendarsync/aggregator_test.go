package calendarsync

import (
	"context"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/example/meetsched/internal/application"
)

func seedAccount(t *testing.T, store *fakeAccountStore, vault *TokenVault, id string) {
	t.Helper()
	sealed := sealToken(t, vault, oauth2.Token{AccessToken: id + "-token", Expiry: time.Now().Add(time.Hour)})
	store.accounts[id] = application.ConnectedAccount{ID: id, Valid: true, EncryptedTokens: sealed}
}

func TestAggregator_FetchBusyMergesAcrossAccounts(t *testing.T) {
	vault, _ := NewTokenVault(make([]byte, 32))
	provider := NewFakeProvider()
	store := newFakeAccountStore()
	seedAccount(t, store, vault, "a1")
	seedAccount(t, store, vault, "a2")

	windowStart := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	windowEnd := windowStart.Add(24 * time.Hour)
	provider.SeedBusy("cal-1", FreeBusyBlock{Start: windowStart.Add(9 * time.Hour), End: windowStart.Add(10 * time.Hour)})
	provider.SeedBusy("cal-2", FreeBusyBlock{Start: windowStart.Add(14 * time.Hour), End: windowStart.Add(15 * time.Hour)})

	refresher := NewAccountTokenRefresher(vault, provider, store, time.Now)
	agg := NewAggregator(provider, refresher, nil, nil)

	calendars := []application.Calendar{
		{ID: "c1", AccountID: "a1", ExternalCalendarID: "cal-1"},
		{ID: "c2", AccountID: "a2", ExternalCalendarID: "cal-2"},
	}

	blocks, err := agg.FetchBusy(context.Background(), calendars, windowStart, windowEnd)
	if err != nil {
		t.Fatalf("FetchBusy failed: %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("expected 2 busy blocks, got %d: %#v", len(blocks), blocks)
	}
}

func TestAggregator_FetchBusyIsolatesAccountFailure(t *testing.T) {
	vault, _ := NewTokenVault(make([]byte, 32))
	provider := NewFakeProvider()
	provider.FailRefresh["a1-token"] = true
	store := newFakeAccountStore()
	seedAccount(t, store, vault, "a1")
	seedAccount(t, store, vault, "a2")
	// a1's token is already expired, so Token attempts the refresh that FailRefresh rejects.
	expired := sealToken(t, vault, oauth2.Token{AccessToken: "a1-token", Expiry: time.Now().Add(-time.Minute)})
	store.accounts["a1"] = application.ConnectedAccount{ID: "a1", Valid: true, EncryptedTokens: expired}

	windowStart := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	windowEnd := windowStart.Add(24 * time.Hour)
	provider.SeedBusy("cal-1", FreeBusyBlock{Start: windowStart.Add(9 * time.Hour), End: windowStart.Add(10 * time.Hour)})
	provider.SeedBusy("cal-2", FreeBusyBlock{Start: windowStart.Add(14 * time.Hour), End: windowStart.Add(15 * time.Hour)})

	refresher := NewAccountTokenRefresher(vault, provider, store, time.Now)
	agg := NewAggregator(provider, refresher, nil, nil)

	calendars := []application.Calendar{
		{ID: "c1", AccountID: "a1", ExternalCalendarID: "cal-1"},
		{ID: "c2", AccountID: "a2", ExternalCalendarID: "cal-2"},
	}

	blocks, err := agg.FetchBusy(context.Background(), calendars, windowStart, windowEnd)
	if err != nil {
		t.Fatalf("FetchBusy should never hard-fail, got %v", err)
	}

	var sawRealBlock bool
	for _, b := range blocks {
		if b.SourceCalendarID == "c1" {
			t.Fatalf("expected the failed account's calendar to contribute no busy blocks, got %#v", b)
		}
		if b.SourceCalendarID == "c2" {
			sawRealBlock = true
		}
	}
	if !sawRealBlock {
		t.Fatal("expected the healthy account's real busy block to still be present")
	}
}

func TestAggregator_CreateEventThenDeleteEvent(t *testing.T) {
	vault, _ := NewTokenVault(make([]byte, 32))
	provider := NewFakeProvider()
	store := newFakeAccountStore()
	seedAccount(t, store, vault, "a1")

	refresher := NewAccountTokenRefresher(vault, provider, store, time.Now)
	agg := NewAggregator(provider, refresher, nil, nil)

	calendar := application.Calendar{ID: "c1", AccountID: "a1", ExternalCalendarID: "cal-1"}
	booking := application.Booking{
		UID:    "uid-1",
		Start:  time.Now().Add(time.Hour),
		End:    time.Now().Add(90 * time.Minute),
		Guest:  application.GuestIdentity{Name: "Guest", Email: "guest@example.com"},
		HostID: "h1",
	}

	ref, meetingURL, err := agg.CreateEvent(context.Background(), calendar, booking)
	if err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}
	if ref == "" || meetingURL == "" {
		t.Fatal("expected non-empty externalEventRef and meetingUrl")
	}

	if err := agg.DeleteEvent(context.Background(), calendar, ref); err != nil {
		t.Fatalf("DeleteEvent failed: %v", err)
	}
	if err := agg.DeleteEvent(context.Background(), calendar, ref); err == nil {
		t.Fatal("expected deleting an already-deleted event to fail")
	}
}
