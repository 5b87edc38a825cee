package engine

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roomly/roomly/internal/access"
	"github.com/roomly/roomly/internal/apperr"
	"github.com/roomly/roomly/internal/broker"
	"github.com/roomly/roomly/internal/ledger"
	"github.com/roomly/roomly/internal/model"
	"github.com/roomly/roomly/internal/push"
	"github.com/roomly/roomly/internal/store"
)

type RedemptionEngine struct {
	db       *sql.DB
	guard    *access.Guard
	rewards  *store.RewardStore
	ledger   *ledger.Ledger
	broker   *broker.Broker
	notifier *push.Notifier
	logger   *slog.Logger
}

func NewRedemptionEngine(db *sql.DB, guard *access.Guard, rewards *store.RewardStore, l *ledger.Ledger, b *broker.Broker, notifier *push.Notifier, logger *slog.Logger) *RedemptionEngine {
	return &RedemptionEngine{
		db:       db,
		guard:    guard,
		rewards:  rewards,
		ledger:   l,
		broker:   b,
		notifier: notifier,
		logger:   logger,
	}
}

type CreateRewardInput struct {
	HouseholdID int64
	Title       string
	Description string
	PointCost   int
	Available   bool
}

func (e *RedemptionEngine) CreateReward(ctx context.Context, actorID int64, in CreateRewardInput) (*model.Reward, error) {
	if _, err := e.guard.Authorize(actorID, in.HouseholdID); err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, apperr.Validation("title is required")
	}
	if in.PointCost < 0 {
		return nil, apperr.Validation("point cost must be >= 0")
	}
	return e.rewards.Create(in.HouseholdID, in.Title, in.Description, in.PointCost, in.Available)
}

func (e *RedemptionEngine) UpdateReward(ctx context.Context, rewardID, actorID int64, in CreateRewardInput) (*model.Reward, error) {
	reward, err := e.rewards.GetByID(rewardID)
	if err != nil {
		return nil, err
	}
	if reward == nil {
		return nil, apperr.NotFound("reward %d not found", rewardID)
	}
	if _, err := e.guard.AuthorizeAdmin(actorID, reward.HouseholdID); err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, apperr.Validation("title is required")
	}
	if in.PointCost < 0 {
		return nil, apperr.Validation("point cost must be >= 0")
	}
	return e.rewards.Update(rewardID, in.Title, in.Description, in.PointCost, in.Available)
}

func (e *RedemptionEngine) DeleteReward(ctx context.Context, rewardID, actorID int64) error {
	reward, err := e.rewards.GetByID(rewardID)
	if err != nil {
		return err
	}
	if reward == nil {
		return apperr.NotFound("reward %d not found", rewardID)
	}
	if _, err := e.guard.AuthorizeAdmin(actorID, reward.HouseholdID); err != nil {
		return err
	}
	return e.rewards.Delete(rewardID)
}

// RedemptionResult pairs the stored redemption with the balance left
// after the debit.
type RedemptionResult struct {
	Redemption *model.Redemption `json:"redemption"`
	NewBalance int               `json:"new_balance"`
}

// Redeem spends points on a reward. The balance check and the debit
// happen in the same statement, so a concurrent pair of redemptions can
// never spend the same points twice.
func (e *RedemptionEngine) Redeem(ctx context.Context, rewardID, actorID int64) (*RedemptionResult, error) {
	reward, err := e.rewards.GetByID(rewardID)
	if err != nil {
		return nil, err
	}
	if reward == nil {
		return nil, apperr.NotFound("reward %d not found", rewardID)
	}

	if _, err := e.guard.Authorize(actorID, reward.HouseholdID); err != nil {
		return nil, err
	}
	if !reward.Available {
		return nil, apperr.Conflict("reward %d is not available", rewardID)
	}

	var (
		newBalance   int
		redemptionID int64
	)
	err = withTx(ctx, e.db, func(tx *sql.Tx) error {
		// Re-check availability inside the transaction so a concurrent
		// disable cannot race the debit.
		current, err := e.rewards.GetTx(tx, rewardID)
		if err != nil {
			return err
		}
		if current == nil || !current.Available {
			return apperr.Conflict("reward %d is not available", rewardID)
		}

		newBalance, err = e.ledger.Debit(tx, reward.HouseholdID, actorID, reward.PointCost, model.ActivityRedemption, &reward.ID)
		if err != nil {
			return err
		}

		redemptionID, err = e.rewards.CreateRedemption(tx, rewardID, actorID, reward.PointCost)
		return err
	})
	if err != nil {
		return nil, err
	}

	redemption, err := e.rewards.GetRedemption(redemptionID)
	if err != nil {
		return nil, err
	}

	e.broker.Publish(reward.HouseholdID, broker.NewRewardRedeemed(broker.RewardRedeemedData{
		RewardID:     rewardID,
		RewardTitle:  reward.Title,
		RedemptionID: redemptionID,
		UserID:       actorID,
		NewBalance:   newBalance,
	}))
	e.notifier.NotifyHousehold(reward.HouseholdID, push.Payload{
		Title: "Reward redeemed",
		Body:  fmt.Sprintf("%s (%d points)", reward.Title, reward.PointCost),
		Tag:   "reward_redeemed",
	})

	e.logger.Info("reward redeemed",
		"reward_id", rewardID,
		"user_id", actorID,
		"points_spent", reward.PointCost,
		"new_balance", newBalance)

	return &RedemptionResult{Redemption: redemption, NewBalance: newBalance}, nil
}
