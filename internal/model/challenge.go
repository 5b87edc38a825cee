package model

import "time"

type Challenge struct {
	ID             int64      `json:"id"`
	HouseholdID    int64      `json:"household_id"`
	Title          string     `json:"title"`
	PointReward    int        `json:"point_reward"`
	ParticipantCap *int       `json:"participant_cap"`
	DueDate        *time.Time `json:"due_date"`
	Active         bool       `json:"active"`
	CreatedAt      time.Time  `json:"created_at"`
}

type ChallengeParticipant struct {
	ChallengeID int64     `json:"challenge_id"`
	UserID      int64     `json:"user_id"`
	JoinedAt    time.Time `json:"joined_at"`
}
