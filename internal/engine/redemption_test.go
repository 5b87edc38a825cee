package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/roomly/roomly/internal/apperr"
	"github.com/roomly/roomly/internal/model"
)

func TestRedeemHappyPath(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.user(t, "alice@example.com", "Alice")
	h := env.household(t, "Shop House", "SHOP0001")
	env.member(t, h.ID, alice.ID, model.RoleMember)

	// Earn 20 by completing a task, then spend 15
	task, err := env.taskEng.Create(ctx, alice.ID, CreateTaskInput{HouseholdID: h.ID, Title: "Garage", Points: 20})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if _, err := env.taskEng.Complete(ctx, task.ID, alice.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	reward, err := env.redeemEng.CreateReward(ctx, alice.ID, CreateRewardInput{
		HouseholdID: h.ID, Title: "Takeout pick", PointCost: 15, Available: true,
	})
	if err != nil {
		t.Fatalf("create reward: %v", err)
	}

	result, err := env.redeemEng.Redeem(ctx, reward.ID, alice.ID)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if result.NewBalance != 5 {
		t.Errorf("new balance = %d, want 5", result.NewBalance)
	}
	if result.Redemption.PointsSpent != 15 {
		t.Errorf("points spent = %d, want 15", result.Redemption.PointsSpent)
	}
	if got := env.balance(t, alice.ID); got != 5 {
		t.Errorf("stored balance = %d, want 5", got)
	}

	// Trail: one credit, one debit, deltas summing to the balance
	activities, err := env.activities.ListByHousehold(h.ID, 50)
	if err != nil {
		t.Fatalf("list activities: %v", err)
	}
	if len(activities) != 2 {
		t.Fatalf("expected 2 activities, got %d", len(activities))
	}
	if activities[0].Type != model.ActivityRedemption || activities[0].PointDelta != -15 {
		t.Errorf("latest activity = %q delta %d, want redemption -15", activities[0].Type, activities[0].PointDelta)
	}
	if activities[0].ReferenceID == nil || *activities[0].ReferenceID != reward.ID {
		t.Errorf("redemption activity reference = %v, want reward %d", activities[0].ReferenceID, reward.ID)
	}
	sum, err := env.activities.SumDeltasForUser(alice.ID)
	if err != nil {
		t.Fatalf("sum deltas: %v", err)
	}
	if sum != 5 {
		t.Errorf("activity sum = %d, want 5", sum)
	}
}

func TestRedeemInsufficientBalanceMutatesNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.user(t, "alice@example.com", "Alice")
	h := env.household(t, "Broke House", "BRK00001")
	env.member(t, h.ID, alice.ID, model.RoleMember)

	reward, err := env.redeemEng.CreateReward(ctx, alice.ID, CreateRewardInput{
		HouseholdID: h.ID, Title: "Day off", PointCost: 50, Available: true,
	})
	if err != nil {
		t.Fatalf("create reward: %v", err)
	}

	_, err = env.redeemEng.Redeem(ctx, reward.ID, alice.ID)
	if !apperr.Is(err, apperr.CodeInsufficientBalance) {
		t.Fatalf("expected insufficient_balance, got %v", err)
	}
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Balance == nil || *appErr.Balance != 0 {
		t.Errorf("error should report balance 0, got %+v", appErr)
	}

	// Nothing persisted
	if got := env.balance(t, alice.ID); got != 0 {
		t.Errorf("balance = %d, want 0", got)
	}
	redemptions, err := env.rewards.ListRedemptionsByUser(alice.ID)
	if err != nil {
		t.Fatalf("list redemptions: %v", err)
	}
	if len(redemptions) != 0 {
		t.Errorf("expected no redemption rows, got %d", len(redemptions))
	}
	activities, err := env.activities.ListByHousehold(h.ID, 50)
	if err != nil {
		t.Fatalf("list activities: %v", err)
	}
	if len(activities) != 0 {
		t.Errorf("expected no activity rows, got %d", len(activities))
	}
}

func TestConcurrentRedeemSpendsOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.user(t, "alice@example.com", "Alice")
	h := env.household(t, "Race House", "RRC00001")
	env.member(t, h.ID, alice.ID, model.RoleMember)

	// Earn 15, then race two 10-cost redemptions against that balance
	task, err := env.taskEng.Create(ctx, alice.ID, CreateTaskInput{HouseholdID: h.ID, Title: "Windows", Points: 15})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if _, err := env.taskEng.Complete(ctx, task.ID, alice.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	reward, err := env.redeemEng.CreateReward(ctx, alice.ID, CreateRewardInput{
		HouseholdID: h.ID, Title: "Movie night", PointCost: 10, Available: true,
	})
	if err != nil {
		t.Fatalf("create reward: %v", err)
	}

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = env.redeemEng.Redeem(ctx, reward.ID, alice.ID)
		}(i)
	}
	wg.Wait()

	var successes, rejections int
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case apperr.Is(err, apperr.CodeInsufficientBalance):
			rejections++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if successes != 1 || rejections != 1 {
		t.Errorf("got %d successes and %d rejections, want 1 and 1", successes, rejections)
	}

	if got := env.balance(t, alice.ID); got != 5 {
		t.Errorf("balance = %d, want 5", got)
	}
	redemptions, err := env.rewards.ListRedemptionsByUser(alice.ID)
	if err != nil {
		t.Fatalf("list redemptions: %v", err)
	}
	if len(redemptions) != 1 {
		t.Errorf("expected exactly 1 redemption row, got %d", len(redemptions))
	}
	sum, err := env.activities.SumDeltasForUser(alice.ID)
	if err != nil {
		t.Fatalf("sum deltas: %v", err)
	}
	if sum != 5 {
		t.Errorf("activity sum = %d, want 5", sum)
	}
}

func TestRedeemUnavailableOrMissingReward(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.user(t, "alice@example.com", "Alice")
	h := env.household(t, "Closed House", "CLS00001")
	env.member(t, h.ID, alice.ID, model.RoleMember)

	_, err := env.redeemEng.Redeem(ctx, 9999, alice.ID)
	if !apperr.Is(err, apperr.CodeNotFound) {
		t.Errorf("missing reward: expected not_found, got %v", err)
	}

	reward, err := env.redeemEng.CreateReward(ctx, alice.ID, CreateRewardInput{
		HouseholdID: h.ID, Title: "Retired perk", PointCost: 1, Available: false,
	})
	if err != nil {
		t.Fatalf("create reward: %v", err)
	}
	_, err = env.redeemEng.Redeem(ctx, reward.ID, alice.ID)
	if !apperr.Is(err, apperr.CodeConflict) {
		t.Errorf("unavailable reward: expected conflict, got %v", err)
	}
}

func TestRewardAdminOnlyMutations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.user(t, "admin@example.com", "Admin")
	member := env.user(t, "member@example.com", "Member")
	h := env.household(t, "Admin House", "ADM00001")
	env.member(t, h.ID, admin.ID, model.RoleAdmin)
	env.member(t, h.ID, member.ID, model.RoleMember)

	reward, err := env.redeemEng.CreateReward(ctx, admin.ID, CreateRewardInput{
		HouseholdID: h.ID, Title: "Lie in", PointCost: 5, Available: true,
	})
	if err != nil {
		t.Fatalf("create reward: %v", err)
	}

	_, err = env.redeemEng.UpdateReward(ctx, reward.ID, member.ID, CreateRewardInput{
		Title: "Lie in", PointCost: 1, Available: true,
	})
	if !apperr.Is(err, apperr.CodeAccessDenied) {
		t.Errorf("member update: expected access_denied, got %v", err)
	}

	err = env.redeemEng.DeleteReward(ctx, reward.ID, member.ID)
	if !apperr.Is(err, apperr.CodeAccessDenied) {
		t.Errorf("member delete: expected access_denied, got %v", err)
	}

	if err := env.redeemEng.DeleteReward(ctx, reward.ID, admin.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
}
