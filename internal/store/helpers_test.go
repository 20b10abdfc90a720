package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/dukerupert/hearth/internal/database"
	"github.com/dukerupert/hearth/internal/model"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// openFileTestDB opens a file-backed database. Unlike :memory:, it runs on a
// pool of connections, so concurrent transactions contend for the SQLite
// write lock instead of queueing for a single connection.
func openFileTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "hearth.db"))
	if err != nil {
		t.Fatalf("open file test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// concurrencyBackends lists the databases concurrent store tests run against.
var concurrencyBackends = []struct {
	name string
	open func(*testing.T) *sql.DB
}{
	{"memory", openTestDB},
	{"file", openFileTestDB},
}

func createUser(t *testing.T, db *sql.DB, id string) {
	t.Helper()
	if _, err := NewUserStore(db).Upsert(context.Background(), id, id+"@example.com", nil); err != nil {
		t.Fatalf("create user %s: %v", id, err)
	}
}

// createHousehold creates a household owned by adminID, creating the user
// row first.
func createHousehold(t *testing.T, db *sql.DB, adminID string) *model.Household {
	t.Helper()
	createUser(t, db, adminID)
	h, err := NewHouseholdStore(db).Create(context.Background(), "Test Household", nil, adminID, time.Now().UTC())
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	return h
}

func addMember(t *testing.T, db *sql.DB, householdID, userID string, role model.Role, joinedAt time.Time) {
	t.Helper()
	createUser(t, db, userID)
	if _, err := NewHouseholdStore(db).AddMember(context.Background(), householdID, userID, role, joinedAt); err != nil {
		t.Fatalf("add member %s: %v", userID, err)
	}
}
