package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/meetsched/internal/persistence"
	"github.com/example/meetsched/internal/persistence/sqlite/migration"
)

func TestEventTypeRepository_CreateAndGetBySlug(t *testing.T) {
	repo, cleanup := setupEventTypeRepositoryTest(t)
	defer cleanup()

	ctx := context.Background()
	createTestHost(t, repo.pool, "host1", "host@example.com")

	eventType := persistence.EventType{
		ID:                   "et1",
		HostID:               "host1",
		Slug:                 "intro-call",
		Title:                "Intro Call",
		DurationMin:          30,
		BufferBeforeMin:      5,
		BufferAfterMin:       5,
		MinimumNoticeMin:     60,
		SchedulingWindowDays: 14,
		SlotIntervalMin:      15,
		WorkingHours: []persistence.WorkingHours{
			{DayOfWeek: time.Monday, StartLocal: "09:00", EndLocal: "17:00"},
		},
		ParticipatingCalendarIDs: []string{"cal1", "cal2"},
		LocationKind:             "google_meet",
		CustomQuestions: []persistence.CustomQuestion{
			{Kind: "text", Label: "What do you want to discuss?", Required: true},
		},
		Active: true,
	}

	if err := repo.CreateEventType(ctx, eventType); err != nil {
		t.Fatalf("CreateEventType failed: %v", err)
	}

	retrieved, err := repo.GetEventTypeBySlug(ctx, "host1", "intro-call")
	if err != nil {
		t.Fatalf("GetEventTypeBySlug failed: %v", err)
	}
	if retrieved.Title != "Intro Call" {
		t.Errorf("expected title to round-trip, got %q", retrieved.Title)
	}
	if len(retrieved.WorkingHours) != 1 || retrieved.WorkingHours[0].StartLocal != "09:00" {
		t.Errorf("expected working_hours to round-trip, got %#v", retrieved.WorkingHours)
	}
	if len(retrieved.ParticipatingCalendarIDs) != 2 {
		t.Errorf("expected participating_calendar_ids to round-trip, got %#v", retrieved.ParticipatingCalendarIDs)
	}
	if len(retrieved.CustomQuestions) != 1 || !retrieved.CustomQuestions[0].Required {
		t.Errorf("expected custom_questions to round-trip, got %#v", retrieved.CustomQuestions)
	}
}

func TestEventTypeRepository_CreateEventType_DuplicateSlugRejected(t *testing.T) {
	repo, cleanup := setupEventTypeRepositoryTest(t)
	defer cleanup()

	ctx := context.Background()
	createTestHost(t, repo.pool, "host1", "host@example.com")

	base := persistence.EventType{HostID: "host1", Slug: "intro-call", Title: "Intro", DurationMin: 30, Active: true}

	first := base
	first.ID = "et1"
	if err := repo.CreateEventType(ctx, first); err != nil {
		t.Fatalf("CreateEventType first failed: %v", err)
	}

	second := base
	second.ID = "et2"
	err := repo.CreateEventType(ctx, second)
	if err != persistence.ErrDuplicate {
		t.Fatalf("expected ErrDuplicate for reused slug, got %v", err)
	}
}

func TestEventTypeRepository_CreateEventType_InvalidDuration(t *testing.T) {
	repo, cleanup := setupEventTypeRepositoryTest(t)
	defer cleanup()

	ctx := context.Background()
	createTestHost(t, repo.pool, "host1", "host@example.com")

	eventType := persistence.EventType{ID: "et1", HostID: "host1", Slug: "intro", Title: "Intro", DurationMin: 0}
	if err := repo.CreateEventType(ctx, eventType); err == nil {
		t.Fatal("expected constraint violation for zero duration, got nil")
	}
}

func TestEventTypeRepository_UpdateEventType(t *testing.T) {
	repo, cleanup := setupEventTypeRepositoryTest(t)
	defer cleanup()

	ctx := context.Background()
	createTestHost(t, repo.pool, "host1", "host@example.com")

	eventType := persistence.EventType{ID: "et1", HostID: "host1", Slug: "intro", Title: "Intro", DurationMin: 30, Active: true}
	if err := repo.CreateEventType(ctx, eventType); err != nil {
		t.Fatalf("CreateEventType failed: %v", err)
	}

	eventType.Title = "Updated Intro"
	eventType.Active = false
	if err := repo.UpdateEventType(ctx, eventType); err != nil {
		t.Fatalf("UpdateEventType failed: %v", err)
	}

	retrieved, err := repo.GetEventType(ctx, "et1")
	if err != nil {
		t.Fatalf("GetEventType failed: %v", err)
	}
	if retrieved.Title != "Updated Intro" || retrieved.Active {
		t.Errorf("expected update to persist, got %#v", retrieved)
	}
}

func TestEventTypeRepository_ListEventTypesForHost(t *testing.T) {
	repo, cleanup := setupEventTypeRepositoryTest(t)
	defer cleanup()

	ctx := context.Background()
	createTestHost(t, repo.pool, "host1", "host@example.com")
	createTestHost(t, repo.pool, "host2", "other@example.com")

	for _, id := range []string{"et1", "et2"} {
		et := persistence.EventType{ID: id, HostID: "host1", Slug: id, Title: id, DurationMin: 30, Active: true}
		if err := repo.CreateEventType(ctx, et); err != nil {
			t.Fatalf("CreateEventType(%s) failed: %v", id, err)
		}
	}
	other := persistence.EventType{ID: "et3", HostID: "host2", Slug: "et3", Title: "et3", DurationMin: 30, Active: true}
	if err := repo.CreateEventType(ctx, other); err != nil {
		t.Fatalf("CreateEventType other failed: %v", err)
	}

	results, err := repo.ListEventTypesForHost(ctx, "host1")
	if err != nil {
		t.Fatalf("ListEventTypesForHost failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 event types for host1, got %d", len(results))
	}
}

func TestEventTypeRepository_DeleteEventType(t *testing.T) {
	repo, cleanup := setupEventTypeRepositoryTest(t)
	defer cleanup()

	ctx := context.Background()
	createTestHost(t, repo.pool, "host1", "host@example.com")

	eventType := persistence.EventType{ID: "et1", HostID: "host1", Slug: "intro", Title: "Intro", DurationMin: 30, Active: true}
	if err := repo.CreateEventType(ctx, eventType); err != nil {
		t.Fatalf("CreateEventType failed: %v", err)
	}

	if err := repo.DeleteEventType(ctx, "et1"); err != nil {
		t.Fatalf("DeleteEventType failed: %v", err)
	}

	if _, err := repo.GetEventType(ctx, "et1"); err != persistence.ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	if err := repo.DeleteEventType(ctx, "et1"); err != persistence.ErrNotFound {
		t.Fatalf("expected ErrNotFound deleting already-deleted row, got %v", err)
	}
}

func setupEventTypeRepositoryTest(t *testing.T) (*EventTypeRepository, func()) {
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

		CREATE TABLE IF NOT EXISTS event_types (
			id TEXT PRIMARY KEY,
			host_id TEXT NOT NULL,
			slug TEXT NOT NULL,
			title TEXT NOT NULL,
			duration_min INTEGER NOT NULL CHECK (duration_min > 0),
			buffer_before_min INTEGER NOT NULL DEFAULT 0,
			buffer_after_min INTEGER NOT NULL DEFAULT 0,
			minimum_notice_min INTEGER NOT NULL DEFAULT 0,
			scheduling_window_days INTEGER NOT NULL DEFAULT 0,
			slot_interval_min INTEGER NOT NULL DEFAULT 0,
			working_hours TEXT,
			participating_calendar_ids TEXT,
			destination_calendar_id TEXT,
			location_kind TEXT,
			requires_confirmation INTEGER NOT NULL DEFAULT 0,
			custom_questions TEXT,
			active INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			FOREIGN KEY (host_id) REFERENCES hosts(id),
			UNIQUE (host_id, slug)
		);
	`)
	if err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	repo := NewEventTypeRepository(pool)
	cleanup := func() { pool.Close() }
	return repo, cleanup
}
