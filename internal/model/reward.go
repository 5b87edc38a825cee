package model

import "time"

type Reward struct {
	ID          int64     `json:"id"`
	HouseholdID int64     `json:"household_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	PointCost   int       `json:"point_cost"`
	Available   bool      `json:"available"`
	CreatedAt   time.Time `json:"created_at"`
}

type Redemption struct {
	ID          int64     `json:"id"`
	RewardID    int64     `json:"reward_id"`
	RedeemedBy  int64     `json:"redeemed_by"`
	PointsSpent int       `json:"points_spent"`
	RedeemedAt  time.Time `json:"redeemed_at"`
}

type PointBalance struct {
	UserID   int64  `json:"user_id"`
	UserName string `json:"user_name"`
	Balance  int    `json:"balance"`
	Streak   int    `json:"streak_days"`
}
