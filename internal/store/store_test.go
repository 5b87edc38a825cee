package store

import (
	"database/sql"
	"testing"

	"github.com/roomly/roomly/internal/database"
	"github.com/roomly/roomly/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *sql.DB, email, name string) *model.User {
	t.Helper()
	user, err := NewUserStore(db).Create(email, name)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func createTestHousehold(t *testing.T, db *sql.DB, name, inviteCode string) *model.Household {
	t.Helper()
	household, err := NewHouseholdStore(db).Create(name, inviteCode)
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	return household
}

// createTestMembership adds user to household with the given role.
func createTestMembership(t *testing.T, db *sql.DB, householdID, userID int64, role string) *model.Membership {
	t.Helper()
	m, err := NewHouseholdStore(db).AddMember(householdID, userID, role)
	if err != nil {
		t.Fatalf("add member: %v", err)
	}
	return m
}
