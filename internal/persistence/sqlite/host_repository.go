package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/meetsched/internal/persistence"
)

// HostRepository implements persistence.HostRepository using SQLite.
type HostRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewHostRepository creates a new SQLite host repository.
func NewHostRepository(pool *ConnectionPool) *HostRepository {
	return &HostRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateHost inserts a new host into the database.
func (r *HostRepository) CreateHost(ctx context.Context, host persistence.Host) error {
	if host.ID == "" {
		return persistence.ErrConstraintViolation
	}
	if host.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}

	normalizedEmail := normalizeEmail(host.Email)

	now := time.Now().UTC()
	host.CreatedAt = now
	host.UpdatedAt = now

	query := `
		INSERT INTO hosts (
			id, email, display_name, display_timezone, password_hash, disabled,
			failed_attempts, last_failed_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		host.ID,
		normalizedEmail,
		host.DisplayName,
		host.DisplayTimezone,
		host.PasswordHash,
		host.Disabled,
		host.FailedAttempts,
		nullableTime(host.LastFailedAt),
		host.CreatedAt.Format(time.RFC3339),
		host.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return r.mapHostError(err)
	}
	return nil
}

// UpdateHost updates an existing host in the database.
func (r *HostRepository) UpdateHost(ctx context.Context, host persistence.Host) error {
	if host.ID == "" {
		return persistence.ErrConstraintViolation
	}
	if host.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}

	normalizedEmail := normalizeEmail(host.Email)
	host.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE hosts SET
			email = ?, display_name = ?, display_timezone = ?, password_hash = ?,
			disabled = ?, failed_attempts = ?, last_failed_at = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.helper.Exec(ctx, query,
		normalizedEmail,
		host.DisplayName,
		host.DisplayTimezone,
		host.PasswordHash,
		host.Disabled,
		host.FailedAttempts,
		nullableTime(host.LastFailedAt),
		host.UpdatedAt.Format(time.RFC3339),
		host.ID,
	)
	if err != nil {
		return r.mapHostError(err)
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

// GetHost retrieves a host by ID from the database.
func (r *HostRepository) GetHost(ctx context.Context, id string) (persistence.Host, error) {
	if id == "" {
		return persistence.Host{}, persistence.ErrNotFound
	}
	return r.scanOneWhere(ctx, "id = ?", id)
}

// GetHostByEmail retrieves a host by email address from the database.
func (r *HostRepository) GetHostByEmail(ctx context.Context, email string) (persistence.Host, error) {
	if email == "" {
		return persistence.Host{}, persistence.ErrNotFound
	}
	return r.scanOneWhere(ctx, "email = ?", normalizeEmail(email))
}

func (r *HostRepository) scanOneWhere(ctx context.Context, whereClause string, args ...interface{}) (persistence.Host, error) {
	query := hostSelectColumns + " FROM hosts WHERE " + whereClause

	row := r.helper.QueryRow(ctx, query, args...)
	host, err := scanHostRow(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Host{}, persistence.ErrNotFound
		}
		return persistence.Host{}, r.mapper.MapError(err)
	}
	return host, nil
}

// DeleteHost removes a host by ID from the database, refusing to delete a
// host that still owns bookings.
func (r *HostRepository) DeleteHost(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var bookingCount int
		err := r.helper.QueryRowTx(tx, "SELECT COUNT(*) FROM bookings WHERE host_id = ?", id).Scan(&bookingCount)
		if err != nil {
			return r.mapper.MapError(err)
		}
		if bookingCount > 0 {
			return persistence.ErrForeignKeyViolation
		}

		result, err := r.helper.ExecTx(tx, "DELETE FROM hosts WHERE id = ?", id)
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

const hostSelectColumns = `
	SELECT id, email, display_name, display_timezone, password_hash, disabled,
		failed_attempts, last_failed_at, created_at, updated_at
`

func scanHostRow(scan func(dest ...interface{}) error) (persistence.Host, error) {
	var h persistence.Host
	var createdAtStr, updatedAtStr string
	var lastFailedAt sql.NullString

	err := scan(
		&h.ID, &h.Email, &h.DisplayName, &h.DisplayTimezone, &h.PasswordHash, &h.Disabled,
		&h.FailedAttempts, &lastFailedAt, &createdAtStr, &updatedAtStr,
	)
	if err != nil {
		return persistence.Host{}, err
	}

	if lastFailedAt.Valid {
		parsed, err := time.Parse(time.RFC3339, lastFailedAt.String)
		if err != nil {
			return persistence.Host{}, fmt.Errorf("failed to parse last_failed_at: %w", err)
		}
		h.LastFailedAt = &parsed
	}

	if h.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.Host{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if h.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.Host{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return h, nil
}

// mapHostError maps SQLite errors to persistence sentinels for host operations.
func (r *HostRepository) mapHostError(err error) error {
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

// normalizeEmail normalizes email addresses for consistent storage and lookup.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
