package store

import (
	"testing"

	"github.com/roomly/roomly/internal/model"
)

func TestActivityAppendAndList(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "hank@example.com", "Hank")
	household := createTestHousehold(t, db, "Log House", "LOG00001")
	createTestMembership(t, db, household.ID, user.ID, model.RoleMember)

	as := NewActivityStore(db)

	ref := int64(42)
	if _, err := as.Append(db, household.ID, user.ID, model.ActivityTaskCompleted, 10, &ref); err != nil {
		t.Fatalf("append credit: %v", err)
	}
	if _, err := as.Append(db, household.ID, user.ID, model.ActivityRedemption, -4, nil); err != nil {
		t.Fatalf("append debit: %v", err)
	}

	activities, err := as.ListByHousehold(household.ID, 50)
	if err != nil {
		t.Fatalf("list by household: %v", err)
	}
	if len(activities) != 2 {
		t.Fatalf("expected 2 activities, got %d", len(activities))
	}
	// Newest first
	if activities[0].Type != model.ActivityRedemption {
		t.Errorf("first activity = %q, want redemption", activities[0].Type)
	}
	if activities[1].ReferenceID == nil || *activities[1].ReferenceID != 42 {
		t.Errorf("reference_id = %v, want 42", activities[1].ReferenceID)
	}

	byUser, err := as.ListByUser(user.ID, 1)
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if len(byUser) != 1 {
		t.Fatalf("limit 1 should return 1 row, got %d", len(byUser))
	}

	sum, err := as.SumDeltasForUser(user.ID)
	if err != nil {
		t.Fatalf("sum deltas: %v", err)
	}
	if sum != 6 {
		t.Errorf("sum = %d, want 6", sum)
	}
}
