package sqlite

import (
	"context"
	"fmt"

	"github.com/example/meetsched/internal/persistence/sqlite/migration"
)

// Database bundles a connection pool with the repository implementations
// that share it. cmd/scheduler wires this into the application layer's
// repository interfaces directly; every field satisfies the corresponding
// persistence.*Repository interface.
type Database struct {
	Pool      *ConnectionPool
	Hosts     *HostRepository
	Accounts  *AccountRepository
	Calendars *CalendarRepository
	EventTypes *EventTypeRepository
	Bookings  *BookingRepository
	Sessions  *SessionRepository
}

// Open creates a connection pool against dsn, runs every pending migration
// found in migrationDir, and returns a Database with one repository per
// aggregate wired against that pool.
func Open(ctx context.Context, dsn, migrationDir string) (*Database, error) {
	pool, err := NewConnectionPool(migration.DefaultSQLiteConfig(dsn))
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open database: %w", err)
	}

	if err := runMigrations(ctx, pool, migrationDir); err != nil {
		pool.Close()
		return nil, fmt.Errorf("sqlite: failed to run migrations: %w", err)
	}

	return &Database{
		Pool:       pool,
		Hosts:      NewHostRepository(pool),
		Accounts:   NewAccountRepository(pool),
		Calendars:  NewCalendarRepository(pool),
		EventTypes: NewEventTypeRepository(pool),
		Bookings:   NewBookingRepository(pool),
		Sessions:   NewSessionRepository(pool),
	}, nil
}

// Close releases the underlying connection pool.
func (d *Database) Close() error {
	return d.Pool.Close()
}

func runMigrations(ctx context.Context, pool *ConnectionPool, migrationDir string) error {
	scanner := migration.NewFileScanner()
	executor := migration.NewSQLiteExecutor(pool.DB())
	manager := migration.NewMigrationManager(scanner, executor, migrationDir)
	return manager.RunMigrations(ctx)
}
