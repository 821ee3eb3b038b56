package calendarsync

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/example/meetsched/internal/application"
)

type fakeAccountStore struct {
	accounts map[string]application.ConnectedAccount
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{accounts: make(map[string]application.ConnectedAccount)}
}

func (s *fakeAccountStore) GetAccount(ctx context.Context, id string) (application.ConnectedAccount, error) {
	account, ok := s.accounts[id]
	if !ok {
		return application.ConnectedAccount{}, application.ErrNotFound
	}
	return account, nil
}

func (s *fakeAccountStore) UpdateAccount(ctx context.Context, account application.ConnectedAccount) error {
	s.accounts[account.ID] = account
	return nil
}

func sealToken(t *testing.T, vault *TokenVault, token oauth2.Token) []byte {
	t.Helper()
	plaintext, err := json.Marshal(token)
	if err != nil {
		t.Fatalf("marshal token: %v", err)
	}
	sealed, err := vault.Seal(plaintext)
	if err != nil {
		t.Fatalf("seal token: %v", err)
	}
	return sealed
}

func TestAccountTokenRefresher_ReturnsUnexpiredTokenWithoutRefreshing(t *testing.T) {
	vault, _ := NewTokenVault(make([]byte, 32))
	provider := NewFakeProvider()
	store := newFakeAccountStore()

	sealed := sealToken(t, vault, oauth2.Token{AccessToken: "fresh", Expiry: time.Now().Add(time.Hour)})
	store.accounts["a1"] = application.ConnectedAccount{ID: "a1", Valid: true, EncryptedTokens: sealed}

	refresher := NewAccountTokenRefresher(vault, provider, store, time.Now)
	token, err := refresher.Token(context.Background(), "a1")
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if token.AccessToken != "fresh" {
		t.Fatalf("expected unrefreshed token, got %q", token.AccessToken)
	}
	if provider.RefreshedCount != 0 {
		t.Fatalf("expected no refresh call, got %d", provider.RefreshedCount)
	}
}

func TestAccountTokenRefresher_RefreshesExpiringToken(t *testing.T) {
	vault, _ := NewTokenVault(make([]byte, 32))
	provider := NewFakeProvider()
	store := newFakeAccountStore()

	sealed := sealToken(t, vault, oauth2.Token{AccessToken: "stale", Expiry: time.Now().Add(10 * time.Second)})
	store.accounts["a1"] = application.ConnectedAccount{ID: "a1", Valid: true, EncryptedTokens: sealed}

	refresher := NewAccountTokenRefresher(vault, provider, store, time.Now)
	token, err := refresher.Token(context.Background(), "a1")
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if token.AccessToken == "stale" {
		t.Fatal("expected token to be refreshed")
	}

	updated := store.accounts["a1"]
	if updated.LastSyncAt == nil {
		t.Fatal("expected LastSyncAt to be set after refresh")
	}
}

func TestAccountTokenRefresher_MarksAccountInvalidOnRefreshFailure(t *testing.T) {
	vault, _ := NewTokenVault(make([]byte, 32))
	provider := NewFakeProvider()
	provider.FailRefresh["stale"] = true
	store := newFakeAccountStore()

	sealed := sealToken(t, vault, oauth2.Token{AccessToken: "stale", Expiry: time.Now().Add(-time.Minute)})
	store.accounts["a1"] = application.ConnectedAccount{ID: "a1", Valid: true, EncryptedTokens: sealed}

	refresher := NewAccountTokenRefresher(vault, provider, store, time.Now)
	_, err := refresher.Token(context.Background(), "a1")
	if err != application.ErrTokenInvalid {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
	if store.accounts["a1"].Valid {
		t.Fatal("expected account to be marked invalid")
	}
}
