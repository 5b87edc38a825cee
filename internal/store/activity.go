package store

import (
	"database/sql"
	"fmt"

	"github.com/roomly/roomly/internal/model"
)

type ActivityStore struct {
	db *sql.DB
}

func NewActivityStore(db *sql.DB) *ActivityStore {
	return &ActivityStore{db: db}
}

func scanActivity(scanner interface{ Scan(...any) error }) (*model.Activity, error) {
	var a model.Activity
	var ref sql.NullInt64

	err := scanner.Scan(&a.ID, &a.HouseholdID, &a.UserID, &a.Type, &a.PointDelta, &ref, &a.CreatedAt)
	if err != nil {
		return nil, err
	}

	if ref.Valid {
		a.ReferenceID = &ref.Int64
	}
	return &a, nil
}

const activityCols = `id, household_id, user_id, type, point_delta, reference_id, created_at`

// Append writes one audit row through the caller's querier. The ledger calls
// this in the same transaction as every balance change.
func (s *ActivityStore) Append(q Querier, householdID, userID int64, activityType string, pointDelta int, referenceID *int64) (int64, error) {
	var ref sql.NullInt64
	if referenceID != nil {
		ref = sql.NullInt64{Int64: *referenceID, Valid: true}
	}

	result, err := q.Exec(
		`INSERT INTO activities (household_id, user_id, type, point_delta, reference_id) VALUES (?, ?, ?, ?, ?)`,
		householdID, userID, activityType, pointDelta, ref,
	)
	if err != nil {
		return 0, fmt.Errorf("insert activity: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

func (s *ActivityStore) ListByHousehold(householdID int64, limit int) ([]model.Activity, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT `+activityCols+` FROM activities WHERE household_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		householdID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	var activities []model.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		activities = append(activities, *a)
	}
	return activities, rows.Err()
}

func (s *ActivityStore) ListByUser(userID int64, limit int) ([]model.Activity, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT `+activityCols+` FROM activities WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list activities by user: %w", err)
	}
	defer rows.Close()

	var activities []model.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		activities = append(activities, *a)
	}
	return activities, rows.Err()
}

// SumDeltasForUser reconstructs a user's balance from the audit trail.
// Used by tests to reconcile against the stored balance.
func (s *ActivityStore) SumDeltasForUser(userID int64) (int, error) {
	var sum sql.NullInt64
	err := s.db.QueryRow(
		`SELECT COALESCE(SUM(point_delta), 0) FROM activities WHERE user_id = ?`,
		userID,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum deltas: %w", err)
	}
	return int(sum.Int64), nil
}
