package engine

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"github.com/roomly/roomly/internal/access"
	"github.com/roomly/roomly/internal/apperr"
	"github.com/roomly/roomly/internal/broker"
	"github.com/roomly/roomly/internal/ledger"
	"github.com/roomly/roomly/internal/model"
	"github.com/roomly/roomly/internal/store"
)

type ChallengeEngine struct {
	db         *sql.DB
	guard      *access.Guard
	challenges *store.ChallengeStore
	ledger     *ledger.Ledger
	broker     *broker.Broker
	logger     *slog.Logger

	now func() time.Time
}

func NewChallengeEngine(db *sql.DB, guard *access.Guard, challenges *store.ChallengeStore, l *ledger.Ledger, b *broker.Broker, logger *slog.Logger) *ChallengeEngine {
	return &ChallengeEngine{
		db:         db,
		guard:      guard,
		challenges: challenges,
		ledger:     l,
		broker:     b,
		logger:     logger,
		now:        time.Now,
	}
}

type CreateChallengeInput struct {
	HouseholdID    int64
	Title          string
	PointReward    int
	ParticipantCap *int
	DueDate        *time.Time
}

func (e *ChallengeEngine) Create(ctx context.Context, actorID int64, in CreateChallengeInput) (*model.Challenge, error) {
	if _, err := e.guard.Authorize(actorID, in.HouseholdID); err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, apperr.Validation("title is required")
	}
	if in.PointReward < 0 {
		return nil, apperr.Validation("point reward must be >= 0")
	}
	if in.ParticipantCap != nil && *in.ParticipantCap < 1 {
		return nil, apperr.Validation("participant cap must be >= 1")
	}
	return e.challenges.Create(in.HouseholdID, in.Title, in.PointReward, in.ParticipantCap, in.DueDate)
}

// Join adds the actor to a challenge roster. Duplicate joins and joins
// past the participant cap fail with a conflict; the count check and the
// insert share a transaction so concurrent joins cannot overfill the cap.
func (e *ChallengeEngine) Join(ctx context.Context, challengeID, actorID int64) (int, error) {
	challenge, err := e.challenges.GetByID(challengeID)
	if err != nil {
		return 0, err
	}
	if challenge == nil {
		return 0, apperr.NotFound("challenge %d not found", challengeID)
	}

	if _, err := e.guard.Authorize(actorID, challenge.HouseholdID); err != nil {
		return 0, err
	}
	if !challenge.Active {
		return 0, apperr.Conflict("challenge %d is not active", challengeID)
	}
	if challenge.DueDate != nil && challenge.DueDate.Before(e.now()) {
		return 0, apperr.Conflict("challenge %d has ended", challengeID)
	}

	var count int
	err = withTx(ctx, e.db, func(tx *sql.Tx) error {
		joined, err := e.challenges.IsParticipant(tx, challengeID, actorID)
		if err != nil {
			return err
		}
		if joined {
			return apperr.Conflict("already joined challenge %d", challengeID)
		}

		if challenge.ParticipantCap != nil {
			n, err := e.challenges.CountParticipants(tx, challengeID)
			if err != nil {
				return err
			}
			if n >= *challenge.ParticipantCap {
				return apperr.Conflict("challenge %d is full", challengeID)
			}
		}

		if err := e.challenges.AddParticipant(tx, challengeID, actorID); err != nil {
			return err
		}
		count, err = e.challenges.CountParticipants(tx, challengeID)
		return err
	})
	if err != nil {
		return 0, err
	}

	e.broker.Publish(challenge.HouseholdID, broker.NewChallengeJoined(broker.ChallengeJoinedData{
		ChallengeID:      challengeID,
		UserID:           actorID,
		ParticipantCount: count,
	}))

	return count, nil
}

// AwardBonus credits every participant the challenge's point reward.
// Admin only; each credit lands in the activity feed as a challenge bonus.
func (e *ChallengeEngine) AwardBonus(ctx context.Context, challengeID, actorID int64) (int, error) {
	challenge, err := e.challenges.GetByID(challengeID)
	if err != nil {
		return 0, err
	}
	if challenge == nil {
		return 0, apperr.NotFound("challenge %d not found", challengeID)
	}

	if _, err := e.guard.AuthorizeAdmin(actorID, challenge.HouseholdID); err != nil {
		return 0, err
	}

	participants, err := e.challenges.ListParticipants(challengeID)
	if err != nil {
		return 0, err
	}

	var awarded int
	err = withTx(ctx, e.db, func(tx *sql.Tx) error {
		awarded = 0
		for _, p := range participants {
			if _, err := e.ledger.Credit(tx, challenge.HouseholdID, p.UserID, challenge.PointReward, model.ActivityChallengeBonus, &challenge.ID); err != nil {
				return err
			}
			awarded++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	e.logger.Info("challenge bonus awarded",
		"challenge_id", challengeID,
		"participants", awarded,
		"points_each", challenge.PointReward)

	return awarded, nil
}
