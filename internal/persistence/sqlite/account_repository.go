package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/meetsched/internal/persistence"
)

// AccountRepository implements persistence.AccountRepository using SQLite.
// EncryptedTokens is stored opaque: the repository never looks inside it,
// it is the TokenVault's ciphertext.
type AccountRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewAccountRepository creates a new SQLite connected-account repository.
func NewAccountRepository(pool *ConnectionPool) *AccountRepository {
	return &AccountRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateAccount inserts a new connected account.
func (r *AccountRepository) CreateAccount(ctx context.Context, account persistence.ConnectedAccount) error {
	if account.ID == "" || account.HostID == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now

	scopesJSON, err := json.Marshal(account.Scopes)
	if err != nil {
		return fmt.Errorf("failed to marshal scopes: %w", err)
	}

	query := `
		INSERT INTO connected_accounts (
			id, host_id, provider, external_identity, encrypted_tokens, scopes,
			valid, last_sync_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.helper.Exec(ctx, query,
		account.ID,
		account.HostID,
		account.Provider,
		account.ExternalIdentity,
		account.EncryptedTokens,
		string(scopesJSON),
		account.Valid,
		nullableTime(account.LastSyncAt),
		account.CreatedAt.Format(time.RFC3339),
		account.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return r.mapAccountError(err)
	}
	return nil
}

// UpdateAccount updates an existing connected account, used after a token
// refresh or when the provider reports the grant was revoked.
func (r *AccountRepository) UpdateAccount(ctx context.Context, account persistence.ConnectedAccount) error {
	if account.ID == "" {
		return persistence.ErrConstraintViolation
	}

	account.UpdatedAt = time.Now().UTC()

	scopesJSON, err := json.Marshal(account.Scopes)
	if err != nil {
		return fmt.Errorf("failed to marshal scopes: %w", err)
	}

	query := `
		UPDATE connected_accounts SET
			provider = ?, external_identity = ?, encrypted_tokens = ?, scopes = ?,
			valid = ?, last_sync_at = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.helper.Exec(ctx, query,
		account.Provider,
		account.ExternalIdentity,
		account.EncryptedTokens,
		string(scopesJSON),
		account.Valid,
		nullableTime(account.LastSyncAt),
		account.UpdatedAt.Format(time.RFC3339),
		account.ID,
	)
	if err != nil {
		return r.mapAccountError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// GetAccount retrieves a connected account by ID.
func (r *AccountRepository) GetAccount(ctx context.Context, id string) (persistence.ConnectedAccount, error) {
	if id == "" {
		return persistence.ConnectedAccount{}, persistence.ErrNotFound
	}

	query := accountSelectColumns + " FROM connected_accounts WHERE id = ?"
	row := r.helper.QueryRow(ctx, query, id)
	account, err := scanAccountRow(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.ConnectedAccount{}, persistence.ErrNotFound
		}
		return persistence.ConnectedAccount{}, r.mapper.MapError(err)
	}
	return account, nil
}

// ListAccountsForHost lists every connected account owned by a host,
// ordered by creation time, used by AccountService.ListAccounts.
func (r *AccountRepository) ListAccountsForHost(ctx context.Context, hostID string) ([]persistence.ConnectedAccount, error) {
	query := accountSelectColumns + " FROM connected_accounts WHERE host_id = ? ORDER BY created_at ASC, id ASC"

	rows, err := r.helper.Query(ctx, query, hostID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var accounts []persistence.ConnectedAccount
	for rows.Next() {
		account, err := scanAccountRow(rows.Scan)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return accounts, nil
}

// DeleteAccount removes a connected account and its calendars.
func (r *AccountRepository) DeleteAccount(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := r.helper.ExecTx(tx, "DELETE FROM calendars WHERE account_id = ?", id)
		if err != nil {
			return r.mapper.MapError(err)
		}

		result, err := r.helper.ExecTx(tx, "DELETE FROM connected_accounts WHERE id = ?", id)
		if err != nil {
			return r.mapper.MapError(err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return persistence.ErrNotFound
		}
		return nil
	})
}

const accountSelectColumns = `
	SELECT id, host_id, provider, external_identity, encrypted_tokens, scopes,
		valid, last_sync_at, created_at, updated_at
`

func scanAccountRow(scan func(dest ...interface{}) error) (persistence.ConnectedAccount, error) {
	var a persistence.ConnectedAccount
	var createdAtStr, updatedAtStr string
	var scopesJSON string
	var lastSyncAt sql.NullString

	err := scan(
		&a.ID, &a.HostID, &a.Provider, &a.ExternalIdentity, &a.EncryptedTokens, &scopesJSON,
		&a.Valid, &lastSyncAt, &createdAtStr, &updatedAtStr,
	)
	if err != nil {
		return persistence.ConnectedAccount{}, err
	}

	if scopesJSON != "" {
		if err := json.Unmarshal([]byte(scopesJSON), &a.Scopes); err != nil {
			return persistence.ConnectedAccount{}, fmt.Errorf("failed to unmarshal scopes: %w", err)
		}
	}

	if lastSyncAt.Valid {
		parsed, err := time.Parse(time.RFC3339, lastSyncAt.String)
		if err != nil {
			return persistence.ConnectedAccount{}, fmt.Errorf("failed to parse last_sync_at: %w", err)
		}
		a.LastSyncAt = &parsed
	}

	if a.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.ConnectedAccount{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if a.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.ConnectedAccount{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return a, nil
}

// mapAccountError maps SQLite errors to persistence sentinels for connected
// account operations.
func (r *AccountRepository) mapAccountError(err error) error {
	if err == nil {
		return nil
	}

	errStr := err.Error()

	if containsAny(errStr, []string{"UNIQUE constraint failed"}) {
		return persistence.ErrDuplicate
	}
	if containsAny(errStr, []string{"FOREIGN KEY constraint failed"}) {
		return persistence.ErrForeignKeyViolation
	}
	if containsAny(errStr, []string{"CHECK constraint failed"}) {
		return persistence.ErrConstraintViolation
	}

	return r.mapper.MapError(err)
}
