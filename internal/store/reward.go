package store

import (
	"database/sql"
	"fmt"

	"github.com/roomly/roomly/internal/model"
)

type RewardStore struct {
	db *sql.DB
}

func NewRewardStore(db *sql.DB) *RewardStore {
	return &RewardStore{db: db}
}

func scanReward(scanner interface{ Scan(...any) error }) (*model.Reward, error) {
	var r model.Reward
	var available int

	err := scanner.Scan(&r.ID, &r.HouseholdID, &r.Title, &r.Description, &r.PointCost, &available, &r.CreatedAt)
	if err != nil {
		return nil, err
	}

	r.Available = available != 0
	return &r, nil
}

const rewardCols = `id, household_id, title, description, point_cost, available, created_at`

func (s *RewardStore) Create(householdID int64, title, description string, pointCost int, available bool) (*model.Reward, error) {
	var a int
	if available {
		a = 1
	}

	result, err := s.db.Exec(
		`INSERT INTO rewards (household_id, title, description, point_cost, available) VALUES (?, ?, ?, ?, ?)`,
		householdID, title, description, pointCost, a,
	)
	if err != nil {
		return nil, fmt.Errorf("insert reward: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *RewardStore) GetByID(id int64) (*model.Reward, error) {
	return s.GetTx(s.db, id)
}

func (s *RewardStore) GetTx(q Querier, id int64) (*model.Reward, error) {
	row := q.QueryRow(`SELECT `+rewardCols+` FROM rewards WHERE id = ?`, id)
	r, err := scanReward(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reward: %w", err)
	}
	return r, nil
}

// ListByHousehold returns the household's rewards, available first, then by title.
func (s *RewardStore) ListByHousehold(householdID int64) ([]model.Reward, error) {
	rows, err := s.db.Query(
		`SELECT `+rewardCols+` FROM rewards WHERE household_id = ? ORDER BY available DESC, title ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list rewards: %w", err)
	}
	defer rows.Close()

	var rewards []model.Reward
	for rows.Next() {
		r, err := scanReward(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reward: %w", err)
		}
		rewards = append(rewards, *r)
	}
	return rewards, rows.Err()
}

func (s *RewardStore) Update(id int64, title, description string, pointCost int, available bool) (*model.Reward, error) {
	var a int
	if available {
		a = 1
	}

	_, err := s.db.Exec(
		`UPDATE rewards SET title = ?, description = ?, point_cost = ?, available = ? WHERE id = ?`,
		title, description, pointCost, a, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update reward: %w", err)
	}
	return s.GetByID(id)
}

func (s *RewardStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM rewards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete reward: %w", err)
	}
	return nil
}

// --- Redemption methods ---

func scanRedemption(scanner interface{ Scan(...any) error }) (*model.Redemption, error) {
	var r model.Redemption
	err := scanner.Scan(&r.ID, &r.RewardID, &r.RedeemedBy, &r.PointsSpent, &r.RedeemedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

const redemptionCols = `id, reward_id, redeemed_by, points_spent, redeemed_at`

// CreateRedemption inserts the redemption row inside the caller's
// transaction, so it commits or rolls back together with the debit.
func (s *RewardStore) CreateRedemption(q Querier, rewardID, redeemedBy int64, pointsSpent int) (int64, error) {
	result, err := q.Exec(
		`INSERT INTO redemptions (reward_id, redeemed_by, points_spent) VALUES (?, ?, ?)`,
		rewardID, redeemedBy, pointsSpent,
	)
	if err != nil {
		return 0, fmt.Errorf("insert redemption: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

func (s *RewardStore) GetRedemption(id int64) (*model.Redemption, error) {
	row := s.db.QueryRow(`SELECT `+redemptionCols+` FROM redemptions WHERE id = ?`, id)
	r, err := scanRedemption(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get redemption: %w", err)
	}
	return r, nil
}

func (s *RewardStore) ListRedemptionsByUser(userID int64) ([]model.Redemption, error) {
	rows, err := s.db.Query(
		`SELECT `+redemptionCols+` FROM redemptions WHERE redeemed_by = ? ORDER BY redeemed_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list redemptions by user: %w", err)
	}
	defer rows.Close()

	var redemptions []model.Redemption
	for rows.Next() {
		r, err := scanRedemption(rows)
		if err != nil {
			return nil, fmt.Errorf("scan redemption: %w", err)
		}
		redemptions = append(redemptions, *r)
	}
	return redemptions, rows.Err()
}

// Leaderboard returns the balances of a household's active members,
// highest balance first.
func (s *RewardStore) Leaderboard(householdID int64) ([]model.PointBalance, error) {
	rows, err := s.db.Query(
		`SELECT u.id, u.name, u.points, u.streak_days
		 FROM users u
		 JOIN memberships m ON m.user_id = u.id
		 WHERE m.household_id = ? AND m.active = 1
		 ORDER BY u.points DESC, u.name ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()

	var balances []model.PointBalance
	for rows.Next() {
		var b model.PointBalance
		if err := rows.Scan(&b.UserID, &b.UserName, &b.Balance, &b.Streak); err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}
