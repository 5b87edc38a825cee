package store

import (
	"testing"

	"github.com/roomly/roomly/internal/model"
)

func TestHouseholdCreateAndLookup(t *testing.T) {
	db := setupTestDB(t)
	hs := NewHouseholdStore(db)

	household, err := hs.Create("Maple House", "MAPLE123")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	if household.Name != "Maple House" {
		t.Errorf("name = %q", household.Name)
	}
	if household.InviteCode != "MAPLE123" {
		t.Errorf("invite_code = %q", household.InviteCode)
	}

	byCode, err := hs.GetByInviteCode("MAPLE123")
	if err != nil {
		t.Fatalf("get by invite code: %v", err)
	}
	if byCode == nil || byCode.ID != household.ID {
		t.Fatalf("lookup by code returned %+v", byCode)
	}

	missing, err := hs.GetByInviteCode("NOPE0000")
	if err != nil {
		t.Fatalf("get by unknown code: %v", err)
	}
	if missing != nil {
		t.Error("unknown invite code should return nil")
	}
}

func TestDuplicateInviteCodeRejected(t *testing.T) {
	db := setupTestDB(t)
	hs := NewHouseholdStore(db)

	if _, err := hs.Create("First", "SAME0000"); err != nil {
		t.Fatalf("create first: %v", err)
	}
	if _, err := hs.Create("Second", "SAME0000"); err == nil {
		t.Error("duplicate invite code should fail")
	}
}

func TestMembershipLifecycle(t *testing.T) {
	db := setupTestDB(t)
	hs := NewHouseholdStore(db)

	user := createTestUser(t, db, "dave@example.com", "Dave")
	household := createTestHousehold(t, db, "Pine Cottage", "PINE0001")

	m, err := hs.AddMember(household.ID, user.ID, model.RoleMember)
	if err != nil {
		t.Fatalf("add member: %v", err)
	}
	if m.Role != model.RoleMember {
		t.Errorf("role = %q, want member", m.Role)
	}
	if !m.Active {
		t.Error("new membership should be active")
	}

	// Duplicate membership violates the unique constraint
	if _, err := hs.AddMember(household.ID, user.ID, model.RoleMember); err == nil {
		t.Error("duplicate membership should fail")
	}

	if err := hs.DeactivateMember(household.ID, user.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	m, err = hs.GetMember(household.ID, user.ID)
	if err != nil {
		t.Fatalf("get member: %v", err)
	}
	if m.Active {
		t.Error("membership should be inactive after deactivation")
	}

	members, err := hs.ListMembers(household.ID)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(members) != 0 {
		t.Errorf("inactive members should not be listed, got %d", len(members))
	}

	if err := hs.ReactivateMember(household.ID, user.ID); err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	members, err = hs.ListMembers(household.ID)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(members) != 1 {
		t.Errorf("expected 1 active member, got %d", len(members))
	}
}

func TestUpdateMemberRole(t *testing.T) {
	db := setupTestDB(t)
	hs := NewHouseholdStore(db)

	user := createTestUser(t, db, "erin@example.com", "Erin")
	household := createTestHousehold(t, db, "Willow Flat", "WILLOW01")
	createTestMembership(t, db, household.ID, user.ID, model.RoleMember)

	m, err := hs.UpdateMemberRole(household.ID, user.ID, model.RoleAdmin)
	if err != nil {
		t.Fatalf("update role: %v", err)
	}
	if m.Role != model.RoleAdmin {
		t.Errorf("role = %q, want admin", m.Role)
	}
}

func TestListHouseholdsForUser(t *testing.T) {
	db := setupTestDB(t)
	hs := NewHouseholdStore(db)

	user := createTestUser(t, db, "finn@example.com", "Finn")
	h1 := createTestHousehold(t, db, "One", "CODE0001")
	h2 := createTestHousehold(t, db, "Two", "CODE0002")
	createTestHousehold(t, db, "Three", "CODE0003")

	createTestMembership(t, db, h1.ID, user.ID, model.RoleAdmin)
	createTestMembership(t, db, h2.ID, user.ID, model.RoleMember)

	households, err := hs.ListHouseholdsForUser(user.ID)
	if err != nil {
		t.Fatalf("list households: %v", err)
	}
	if len(households) != 2 {
		t.Fatalf("expected 2 households, got %d", len(households))
	}
}
