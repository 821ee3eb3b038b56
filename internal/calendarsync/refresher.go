package calendarsync

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/example/meetsched/internal/application"
)

// refreshSkew is the expiry lookahead under which a token is refreshed
// before use, per spec.md's 60-second skew policy.
const refreshSkew = 60 * time.Second

// AccountStore is the narrow persistence view the refresher needs: read the
// current encrypted tokens, and persist a re-encrypted or invalidated copy.
type AccountStore interface {
	GetAccount(ctx context.Context, id string) (application.ConnectedAccount, error)
	UpdateAccount(ctx context.Context, account application.ConnectedAccount) error
}

// AccountTokenRefresher owns the per-account refresh critical section: two
// concurrent callers for the same account never race a refresh and
// invalidate each other's token, mirroring the teacher's per-key mutex
// pattern in its warning cache, generalized from a value cache to a token
// cache.
type AccountTokenRefresher struct {
	vault    *TokenVault
	provider CalendarProviderPort
	accounts AccountStore
	now      func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewAccountTokenRefresher constructs an AccountTokenRefresher.
func NewAccountTokenRefresher(vault *TokenVault, provider CalendarProviderPort, accounts AccountStore, now func() time.Time) *AccountTokenRefresher {
	if now == nil {
		now = time.Now
	}
	return &AccountTokenRefresher{
		vault:    vault,
		provider: provider,
		accounts: accounts,
		now:      now,
		locks:    make(map[string]*sync.Mutex),
	}
}

func (r *AccountTokenRefresher) lockFor(accountID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[accountID]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[accountID] = lock
	}
	return lock
}

// Token returns a usable, non-expiring-soon OAuth token for account,
// refreshing and re-persisting it first if necessary. A refresh rejected by
// the provider marks the account invalid and returns application.ErrTokenInvalid.
func (r *AccountTokenRefresher) Token(ctx context.Context, accountID string) (*oauth2.Token, error) {
	lock := r.lockFor(accountID)
	lock.Lock()
	defer lock.Unlock()

	account, err := r.accounts.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !account.Valid {
		return nil, application.ErrTokenInvalid
	}

	plaintext, err := r.vault.Open(account.EncryptedTokens)
	if err != nil {
		return nil, fmt.Errorf("calendarsync: opening stored token: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(plaintext, &token); err != nil {
		return nil, fmt.Errorf("calendarsync: decoding stored token: %w", err)
	}

	if time.Until(token.Expiry) > refreshSkew {
		return &token, nil
	}

	refreshed, err := r.provider.RefreshToken(ctx, &token)
	if err != nil {
		account.Valid = false
		if uerr := r.accounts.UpdateAccount(ctx, account); uerr != nil {
			return nil, fmt.Errorf("calendarsync: marking account invalid: %w", uerr)
		}
		return nil, application.ErrTokenInvalid
	}

	newPlaintext, err := json.Marshal(refreshed)
	if err != nil {
		return nil, fmt.Errorf("calendarsync: encoding refreshed token: %w", err)
	}
	sealed, err := r.vault.Seal(newPlaintext)
	if err != nil {
		return nil, err
	}

	now := r.now()
	account.EncryptedTokens = sealed
	account.LastSyncAt = &now
	if err := r.accounts.UpdateAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("calendarsync: persisting refreshed token: %w", err)
	}

	return refreshed, nil
}
