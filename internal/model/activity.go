package model

import "time"

// Activity type constants. Every point balance change writes exactly one
// activity row, so balances can be reconstructed from this table.
const (
	ActivityTaskCompleted  = "task_completed"
	ActivityRedemption     = "redemption"
	ActivityChallengeBonus = "challenge_bonus"
	ActivityAdjustment     = "adjustment"
)

type Activity struct {
	ID          int64     `json:"id"`
	HouseholdID int64     `json:"household_id"`
	UserID      int64     `json:"user_id"`
	Type        string    `json:"type"`
	PointDelta  int       `json:"point_delta"`
	ReferenceID *int64    `json:"reference_id"`
	CreatedAt   time.Time `json:"created_at"`
}
