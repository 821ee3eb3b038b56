package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/meetsched/internal/persistence"
)

// CalendarRepository implements persistence.CalendarRepository using SQLite.
type CalendarRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewCalendarRepository creates a new SQLite calendar repository.
func NewCalendarRepository(pool *ConnectionPool) *CalendarRepository {
	return &CalendarRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateCalendar inserts a new calendar for a connected account.
func (r *CalendarRepository) CreateCalendar(ctx context.Context, calendar persistence.Calendar) error {
	if calendar.ID == "" || calendar.AccountID == "" || calendar.ExternalCalendarID == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	calendar.CreatedAt = now
	calendar.UpdatedAt = now

	query := `
		INSERT INTO calendars (
			id, account_id, external_calendar_id, writable, selected_for_busy,
			is_destination_eligible, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		calendar.ID,
		calendar.AccountID,
		calendar.ExternalCalendarID,
		calendar.Writable,
		calendar.SelectedForBusy,
		calendar.IsDestinationEligible,
		calendar.CreatedAt.Format(time.RFC3339),
		calendar.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return r.mapCalendarError(err)
	}
	return nil
}

// UpdateCalendar updates an existing calendar, typically to flip whether it
// is selected for busy-time aggregation or eligible as a booking destination.
func (r *CalendarRepository) UpdateCalendar(ctx context.Context, calendar persistence.Calendar) error {
	if calendar.ID == "" {
		return persistence.ErrConstraintViolation
	}

	calendar.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE calendars SET
			writable = ?, selected_for_busy = ?, is_destination_eligible = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.helper.Exec(ctx, query,
		calendar.Writable,
		calendar.SelectedForBusy,
		calendar.IsDestinationEligible,
		calendar.UpdatedAt.Format(time.RFC3339),
		calendar.ID,
	)
	if err != nil {
		return r.mapCalendarError(err)
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

// GetCalendar retrieves a calendar by ID.
func (r *CalendarRepository) GetCalendar(ctx context.Context, id string) (persistence.Calendar, error) {
	if id == "" {
		return persistence.Calendar{}, persistence.ErrNotFound
	}

	query := calendarSelectColumns + " FROM calendars WHERE id = ?"
	row := r.helper.QueryRow(ctx, query, id)
	calendar, err := scanCalendarRow(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Calendar{}, persistence.ErrNotFound
		}
		return persistence.Calendar{}, r.mapper.MapError(err)
	}
	return calendar, nil
}

// ListCalendarsForAccount lists all calendars belonging to a connected
// account, ordered by external calendar ID.
func (r *CalendarRepository) ListCalendarsForAccount(ctx context.Context, accountID string) ([]persistence.Calendar, error) {
	query := calendarSelectColumns + " FROM calendars WHERE account_id = ? ORDER BY external_calendar_id ASC, id ASC"

	rows, err := r.helper.Query(ctx, query, accountID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var calendars []persistence.Calendar
	for rows.Next() {
		calendar, err := scanCalendarRow(rows.Scan)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		calendars = append(calendars, calendar)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return calendars, nil
}

// ListSelectedCalendarsForHost lists calendars owned (through a connected
// account) by hostID, restricted to calendarIDs and selected_for_busy=true.
// The availability engine uses this to resolve an event type's
// ParticipatingCalendarIDs down to calendars it is actually allowed to read.
func (r *CalendarRepository) ListSelectedCalendarsForHost(ctx context.Context, hostID string, calendarIDs []string) ([]persistence.Calendar, error) {
	if len(calendarIDs) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(calendarIDs))
	args := make([]interface{}, 0, len(calendarIDs)+1)
	args = append(args, hostID)
	for i, id := range calendarIDs {
		placeholders[i] = "?"
		args = append(args, id)
	}

	query := calendarSelectColumns + fmt.Sprintf(`
		FROM calendars
		JOIN connected_accounts ON connected_accounts.id = calendars.account_id
		WHERE connected_accounts.host_id = ?
			AND calendars.selected_for_busy = 1
			AND calendars.id IN (%s)
		ORDER BY calendars.external_calendar_id ASC, calendars.id ASC
	`, strings.Join(placeholders, ","))

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var calendars []persistence.Calendar
	for rows.Next() {
		calendar, err := scanCalendarRow(rows.Scan)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		calendars = append(calendars, calendar)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return calendars, nil
}

// DeleteCalendar removes a calendar by ID.
func (r *CalendarRepository) DeleteCalendar(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx, "DELETE FROM calendars WHERE id = ?", id)
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
}

const calendarSelectColumns = `
	SELECT calendars.id, calendars.account_id, calendars.external_calendar_id,
		calendars.writable, calendars.selected_for_busy, calendars.is_destination_eligible,
		calendars.created_at, calendars.updated_at
`

func scanCalendarRow(scan func(dest ...interface{}) error) (persistence.Calendar, error) {
	var c persistence.Calendar
	var createdAtStr, updatedAtStr string

	err := scan(
		&c.ID, &c.AccountID, &c.ExternalCalendarID, &c.Writable, &c.SelectedForBusy,
		&c.IsDestinationEligible, &createdAtStr, &updatedAtStr,
	)
	if err != nil {
		return persistence.Calendar{}, err
	}

	if c.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.Calendar{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if c.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.Calendar{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return c, nil
}

// mapCalendarError maps SQLite errors to persistence sentinels for calendar
// operations. The unique index on (account_id, external_calendar_id)
// prevents double-importing the same external calendar.
func (r *CalendarRepository) mapCalendarError(err error) error {
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
