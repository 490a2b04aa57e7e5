package history

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// setupHistoryTestDB creates an in-memory SQLite database with the command_history table.
func setupHistoryTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE command_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			command_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			status TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;
		CREATE INDEX idx_command_history_command ON command_history(command_id);
		CREATE INDEX idx_command_history_time ON command_history(created_at DESC);
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// insertHistoryRow inserts a history row with a specific timestamp.
func insertHistoryRow(t *testing.T, db *sql.DB, commandID, kind, status string, createdAt time.Time) {
	t.Helper()

	_, err := db.Exec(
		"INSERT INTO command_history (command_id, kind, status, created_at) VALUES (?, ?, ?, ?)",
		commandID,
		kind,
		status,
		createdAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		t.Fatalf("failed to insert history row: %v", err)
	}
}

// TestRecordCommand verifies command outcome writes and retrieval.
func TestRecordCommand(t *testing.T) {
	db := setupHistoryTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	if err := repo.RecordCommand(ctx, "cmd-1", "fade", StatusApplied, ""); err != nil {
		t.Fatalf("RecordCommand() error = %v", err)
	}
	if err := repo.RecordCommand(ctx, "cmd-2", "set", StatusRejected, "address 700 out of range"); err != nil {
		t.Fatalf("RecordCommand() error = %v", err)
	}

	entries, err := repo.GetRecent(ctx, 10)
	if err != nil {
		t.Fatalf("GetRecent() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries length = %d, want 2", len(entries))
	}

	entry := entries[0]
	if entry.CommandID != "cmd-2" {
		t.Errorf("CommandID = %q, want %q", entry.CommandID, "cmd-2")
	}
	if entry.Status != StatusRejected {
		t.Errorf("Status = %q, want %q", entry.Status, StatusRejected)
	}
	if entry.Detail != "address 700 out of range" {
		t.Errorf("Detail = %q, want rejection reason", entry.Detail)
	}
	if entry.CreatedAt.IsZero() {
		t.Error("CreatedAt is zero, want non-zero")
	}
}

// TestRecordCommandValidation verifies required fields are enforced.
func TestRecordCommandValidation(t *testing.T) {
	db := setupHistoryTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	tests := []struct {
		name   string
		id     string
		kind   string
		status string
	}{
		{name: "missing id", id: "", kind: "set", status: StatusApplied},
		{name: "missing kind", id: "cmd-1", kind: "", status: StatusApplied},
		{name: "missing status", id: "cmd-1", kind: "set", status: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := repo.RecordCommand(ctx, tt.id, tt.kind, tt.status, ""); err == nil {
				t.Error("RecordCommand() error = nil, want validation error")
			}
		})
	}
}

// TestGetRecent verifies ordering and limit enforcement.
func TestGetRecent(t *testing.T) {
	db := setupHistoryTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	insertHistoryRow(t, db, "cmd-1", "set", StatusApplied, now.Add(-2*time.Hour))
	insertHistoryRow(t, db, "cmd-2", "fade", StatusApplied, now.Add(-1*time.Hour))
	insertHistoryRow(t, db, "cmd-3", "scene", StatusRejected, now)

	entries, err := repo.GetRecent(ctx, 2)
	if err != nil {
		t.Fatalf("GetRecent() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries length = %d, want 2", len(entries))
	}

	if entries[0].CommandID != "cmd-3" {
		t.Errorf("entry[0] CommandID = %q, want %q", entries[0].CommandID, "cmd-3")
	}
	if !entries[1].CreatedAt.Equal(now.Add(-1 * time.Hour)) {
		t.Errorf("entry[1] CreatedAt = %s, want %s", entries[1].CreatedAt, now.Add(-1*time.Hour))
	}
}

// TestPrune verifies old entries are removed.
func TestPrune(t *testing.T) {
	db := setupHistoryTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	insertHistoryRow(t, db, "cmd-old", "set", StatusApplied, now.Add(-40*24*time.Hour))
	insertHistoryRow(t, db, "cmd-new", "set", StatusApplied, now.Add(-12*time.Hour))

	deleted, err := repo.Prune(ctx, 30*24*time.Hour)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if deleted != 1 {
		t.Fatalf("deleted = %d, want 1", deleted)
	}

	entries, err := repo.GetRecent(ctx, 10)
	if err != nil {
		t.Fatalf("GetRecent() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries length = %d, want 1", len(entries))
	}
	if entries[0].CommandID != "cmd-new" {
		t.Errorf("remaining CommandID = %q, want %q", entries[0].CommandID, "cmd-new")
	}
}

// TestPruneValidation verifies the retention window must be positive.
func TestPruneValidation(t *testing.T) {
	db := setupHistoryTestDB(t)
	repo := NewSQLiteRepository(db)

	if _, err := repo.Prune(context.Background(), 0); err == nil {
		t.Error("Prune(0) error = nil, want validation error")
	}
}
