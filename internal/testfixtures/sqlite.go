package testfixtures

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/example/meetsched/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary SQLite
// database, migrated against the repository's real migration files, for
// integration-style persistence and application tests.
type SQLiteHarness struct {
	Hosts     *sqlite.HostRepository
	Accounts  *sqlite.AccountRepository
	Calendars *sqlite.CalendarRepository
	EventTypes *sqlite.EventTypeRepository
	Bookings  *sqlite.BookingRepository
	Sessions  *sqlite.SessionRepository

	db      *sqlite.Database
	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness against a temporary file
// database, running every migration under the repository's migrations
// directory. Callers may invoke Close explicitly; the helper also registers
// a cleanup callback with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	dir := tb.TempDir()
	dsn := "file:" + filepath.Join(dir, "scheduler.db") + "?_foreign_keys=on"

	db, err := sqlite.Open(context.Background(), dsn, migrationsDir())
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	harness := &SQLiteHarness{
		Hosts:      db.Hosts,
		Accounts:   db.Accounts,
		Calendars:  db.Calendars,
		EventTypes: db.EventTypes,
		Bookings:   db.Bookings,
		Sessions:   db.Sessions,
		db:         db,
		cleanup: func() {
			_ = db.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}

// migrationsDir resolves the repository's top-level migrations directory
// relative to this source file, so tests find it regardless of the
// package's working directory.
func migrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "migrations")
}
