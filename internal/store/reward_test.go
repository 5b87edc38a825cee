package store

import (
	"testing"

	"github.com/roomly/roomly/internal/model"
)

func TestRewardCRUD(t *testing.T) {
	db := setupTestDB(t)
	household := createTestHousehold(t, db, "Reward House", "RWRD0001")
	rs := NewRewardStore(db)

	reward, err := rs.Create(household.ID, "Movie night", "Pick the film", 15, true)
	if err != nil {
		t.Fatalf("create reward: %v", err)
	}
	if reward.Title != "Movie night" {
		t.Errorf("title = %q", reward.Title)
	}
	if reward.PointCost != 15 {
		t.Errorf("point_cost = %d, want 15", reward.PointCost)
	}
	if !reward.Available {
		t.Error("reward should be available")
	}

	updated, err := rs.Update(reward.ID, "Movie night", "Pick the film", 20, false)
	if err != nil {
		t.Fatalf("update reward: %v", err)
	}
	if updated.PointCost != 20 {
		t.Errorf("updated point_cost = %d, want 20", updated.PointCost)
	}
	if updated.Available {
		t.Error("reward should be unavailable after update")
	}

	rewards, err := rs.ListByHousehold(household.ID)
	if err != nil {
		t.Fatalf("list rewards: %v", err)
	}
	if len(rewards) != 1 {
		t.Fatalf("expected 1 reward, got %d", len(rewards))
	}

	if err := rs.Delete(reward.ID); err != nil {
		t.Fatalf("delete reward: %v", err)
	}
	got, err := rs.GetByID(reward.ID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Error("reward should be gone after delete")
	}
}

func TestRedemptions(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "gina@example.com", "Gina")
	household := createTestHousehold(t, db, "Redeem House", "RDM00001")
	createTestMembership(t, db, household.ID, user.ID, model.RoleMember)

	rs := NewRewardStore(db)
	reward, err := rs.Create(household.ID, "Sleep in", "", 10, true)
	if err != nil {
		t.Fatalf("create reward: %v", err)
	}

	id, err := rs.CreateRedemption(db, reward.ID, user.ID, 10)
	if err != nil {
		t.Fatalf("create redemption: %v", err)
	}

	redemption, err := rs.GetRedemption(id)
	if err != nil {
		t.Fatalf("get redemption: %v", err)
	}
	if redemption.RewardID != reward.ID {
		t.Errorf("reward_id = %d, want %d", redemption.RewardID, reward.ID)
	}
	if redemption.PointsSpent != 10 {
		t.Errorf("points_spent = %d, want 10", redemption.PointsSpent)
	}

	list, err := rs.ListRedemptionsByUser(user.ID)
	if err != nil {
		t.Fatalf("list redemptions: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 redemption, got %d", len(list))
	}
}

func TestLeaderboardOrder(t *testing.T) {
	db := setupTestDB(t)
	household := createTestHousehold(t, db, "Board House", "BRD00001")

	low := createTestUser(t, db, "low@example.com", "Low")
	high := createTestUser(t, db, "high@example.com", "High")
	mid := createTestUser(t, db, "mid@example.com", "Mid")
	for _, u := range []*model.User{low, high, mid} {
		createTestMembership(t, db, household.ID, u.ID, model.RoleMember)
	}

	// Outsider with a big balance must not appear
	outsider := createTestUser(t, db, "out@example.com", "Out")

	for _, row := range []struct {
		id     int64
		points int
	}{{low.ID, 5}, {high.ID, 50}, {mid.ID, 20}, {outsider.ID, 99}} {
		if _, err := db.Exec(`UPDATE users SET points = ? WHERE id = ?`, row.points, row.id); err != nil {
			t.Fatalf("seed points: %v", err)
		}
	}

	board, err := NewRewardStore(db).Leaderboard(household.ID)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(board) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(board))
	}
	want := []int{50, 20, 5}
	for i, entry := range board {
		if entry.Balance != want[i] {
			t.Errorf("entry[%d].Balance = %d, want %d", i, entry.Balance, want[i])
		}
	}
	if board[0].UserName != "High" {
		t.Errorf("top entry = %q, want High", board[0].UserName)
	}
}
