package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/meetsched/internal/persistence"
	"github.com/example/meetsched/internal/persistence/sqlite/migration"
)

func TestAccountRepository_CreateAndGet(t *testing.T) {
	repo, _, cleanup := setupAccountCalendarRepositoryTest(t)
	defer cleanup()

	ctx := context.Background()
	createTestHost(t, repo.pool, "host1", "host@example.com")

	account := persistence.ConnectedAccount{
		ID:               "acct1",
		HostID:           "host1",
		Provider:         "google",
		ExternalIdentity: "host@gmail.com",
		EncryptedTokens:  []byte{0x01, 0x02, 0x03},
		Scopes:           []string{"calendar.readonly", "calendar.events"},
		Valid:            true,
	}

	if err := repo.CreateAccount(ctx, account); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	retrieved, err := repo.GetAccount(ctx, "acct1")
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if len(retrieved.Scopes) != 2 {
		t.Errorf("expected scopes to round-trip, got %#v", retrieved.Scopes)
	}
	if string(retrieved.EncryptedTokens) != string(account.EncryptedTokens) {
		t.Errorf("expected encrypted_tokens to round-trip byte for byte")
	}
}

func TestAccountRepository_ListAccountsForHost(t *testing.T) {
	repo, _, cleanup := setupAccountCalendarRepositoryTest(t)
	defer cleanup()

	ctx := context.Background()
	createTestHost(t, repo.pool, "host1", "host@example.com")

	for _, id := range []string{"acct1", "acct2"} {
		account := persistence.ConnectedAccount{ID: id, HostID: "host1", Provider: "google", ExternalIdentity: id}
		if err := repo.CreateAccount(ctx, account); err != nil {
			t.Fatalf("CreateAccount(%s) failed: %v", id, err)
		}
	}

	accounts, err := repo.ListAccountsForHost(ctx, "host1")
	if err != nil {
		t.Fatalf("ListAccountsForHost failed: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(accounts))
	}
}

func TestAccountRepository_DeleteAccount_CascadesCalendars(t *testing.T) {
	repo, calendars, cleanup := setupAccountCalendarRepositoryTest(t)
	defer cleanup()

	ctx := context.Background()
	createTestHost(t, repo.pool, "host1", "host@example.com")

	account := persistence.ConnectedAccount{ID: "acct1", HostID: "host1", Provider: "google", ExternalIdentity: "x"}
	if err := repo.CreateAccount(ctx, account); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	cal := persistence.Calendar{ID: "cal1", AccountID: "acct1", ExternalCalendarID: "primary"}
	if err := calendars.CreateCalendar(ctx, cal); err != nil {
		t.Fatalf("CreateCalendar failed: %v", err)
	}

	if err := repo.DeleteAccount(ctx, "acct1"); err != nil {
		t.Fatalf("DeleteAccount failed: %v", err)
	}

	if _, err := calendars.GetCalendar(ctx, "cal1"); err != persistence.ErrNotFound {
		t.Fatalf("expected calendar to be cascaded away, got %v", err)
	}
}

func TestCalendarRepository_CreateAndList(t *testing.T) {
	_, calendars, cleanup := setupAccountCalendarRepositoryTest(t)
	defer cleanup()

	ctx := context.Background()
	createTestHost(t, calendars.pool, "host1", "host@example.com")
	seedAccount(t, calendars.pool, "acct1", "host1")

	cal := persistence.Calendar{
		ID: "cal1", AccountID: "acct1", ExternalCalendarID: "primary",
		Writable: true, SelectedForBusy: true, IsDestinationEligible: true,
	}
	if err := calendars.CreateCalendar(ctx, cal); err != nil {
		t.Fatalf("CreateCalendar failed: %v", err)
	}

	list, err := calendars.ListCalendarsForAccount(ctx, "acct1")
	if err != nil {
		t.Fatalf("ListCalendarsForAccount failed: %v", err)
	}
	if len(list) != 1 || !list[0].SelectedForBusy {
		t.Fatalf("expected one selected-for-busy calendar, got %#v", list)
	}
}

func TestCalendarRepository_CreateCalendar_DuplicateExternalIDRejected(t *testing.T) {
	_, calendars, cleanup := setupAccountCalendarRepositoryTest(t)
	defer cleanup()

	ctx := context.Background()
	createTestHost(t, calendars.pool, "host1", "host@example.com")
	seedAccount(t, calendars.pool, "acct1", "host1")

	first := persistence.Calendar{ID: "cal1", AccountID: "acct1", ExternalCalendarID: "primary"}
	if err := calendars.CreateCalendar(ctx, first); err != nil {
		t.Fatalf("CreateCalendar first failed: %v", err)
	}

	second := persistence.Calendar{ID: "cal2", AccountID: "acct1", ExternalCalendarID: "primary"}
	if err := calendars.CreateCalendar(ctx, second); err != persistence.ErrDuplicate {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestCalendarRepository_ListSelectedCalendarsForHost(t *testing.T) {
	_, calendars, cleanup := setupAccountCalendarRepositoryTest(t)
	defer cleanup()

	ctx := context.Background()
	createTestHost(t, calendars.pool, "host1", "host@example.com")
	seedAccount(t, calendars.pool, "acct1", "host1")

	selected := persistence.Calendar{ID: "cal1", AccountID: "acct1", ExternalCalendarID: "primary", SelectedForBusy: true}
	unselected := persistence.Calendar{ID: "cal2", AccountID: "acct1", ExternalCalendarID: "secondary", SelectedForBusy: false}
	if err := calendars.CreateCalendar(ctx, selected); err != nil {
		t.Fatalf("CreateCalendar selected failed: %v", err)
	}
	if err := calendars.CreateCalendar(ctx, unselected); err != nil {
		t.Fatalf("CreateCalendar unselected failed: %v", err)
	}

	results, err := calendars.ListSelectedCalendarsForHost(ctx, "host1", []string{"cal1", "cal2"})
	if err != nil {
		t.Fatalf("ListSelectedCalendarsForHost failed: %v", err)
	}
	if len(results) != 1 || results[0].ID != "cal1" {
		t.Fatalf("expected only cal1 to be selected, got %#v", results)
	}
}

func seedAccount(t *testing.T, pool *ConnectionPool, id, hostID string) {
	ctx := context.Background()
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := pool.DB().ExecContext(ctx, `
		INSERT INTO connected_accounts (id, host_id, provider, external_identity, encrypted_tokens, scopes, valid, created_at, updated_at)
		VALUES (?, ?, 'google', 'x@example.com', x'', '[]', 1, ?, ?)
	`, id, hostID, now, now)
	if err != nil {
		t.Fatalf("seedAccount failed: %v", err)
	}
}

func setupAccountCalendarRepositoryTest(t *testing.T) (*AccountRepository, *CalendarRepository, func()) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "test.db")

	config := migration.TempFileTestSQLiteConfig(dbPath)
	pool, err := NewConnectionPool(config)
	if err != nil {
		t.Fatalf("Failed to create connection pool: %v", err)
	}

	ctx := context.Background()
	_, err = pool.DB().ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS hosts (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			display_name TEXT NOT NULL,
			display_timezone TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			disabled INTEGER NOT NULL DEFAULT 0,
			failed_attempts INTEGER NOT NULL DEFAULT 0,
			last_failed_at TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS connected_accounts (
			id TEXT PRIMARY KEY,
			host_id TEXT NOT NULL,
			provider TEXT NOT NULL,
			external_identity TEXT NOT NULL,
			encrypted_tokens BLOB,
			scopes TEXT,
			valid INTEGER NOT NULL DEFAULT 1,
			last_sync_at TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			FOREIGN KEY (host_id) REFERENCES hosts(id)
		);

		CREATE TABLE IF NOT EXISTS calendars (
			id TEXT PRIMARY KEY,
			account_id TEXT NOT NULL,
			external_calendar_id TEXT NOT NULL,
			writable INTEGER NOT NULL DEFAULT 0,
			selected_for_busy INTEGER NOT NULL DEFAULT 0,
			is_destination_eligible INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			FOREIGN KEY (account_id) REFERENCES connected_accounts(id),
			UNIQUE (account_id, external_calendar_id)
		);
	`)
	if err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	accounts := NewAccountRepository(pool)
	calendars := NewCalendarRepository(pool)
	cleanup := func() { pool.Close() }
	return accounts, calendars, cleanup
}
