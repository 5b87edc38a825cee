package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/roomly/roomly/internal/model"
)

type ChallengeStore struct {
	db *sql.DB
}

func NewChallengeStore(db *sql.DB) *ChallengeStore {
	return &ChallengeStore{db: db}
}

func scanChallenge(scanner interface{ Scan(...any) error }) (*model.Challenge, error) {
	var c model.Challenge
	var participantCap sql.NullInt64
	var dueDate sql.NullTime
	var active int

	err := scanner.Scan(&c.ID, &c.HouseholdID, &c.Title, &c.PointReward, &participantCap, &dueDate, &active, &c.CreatedAt)
	if err != nil {
		return nil, err
	}

	if participantCap.Valid {
		n := int(participantCap.Int64)
		c.ParticipantCap = &n
	}
	if dueDate.Valid {
		c.DueDate = &dueDate.Time
	}
	c.Active = active != 0
	return &c, nil
}

const challengeCols = `id, household_id, title, point_reward, participant_cap, due_date, active, created_at`

func (s *ChallengeStore) Create(householdID int64, title string, pointReward int, participantCap *int, dueDate *time.Time) (*model.Challenge, error) {
	var capVal sql.NullInt64
	if participantCap != nil {
		capVal = sql.NullInt64{Int64: int64(*participantCap), Valid: true}
	}
	var due sql.NullTime
	if dueDate != nil {
		due = sql.NullTime{Time: dueDate.UTC(), Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO challenges (household_id, title, point_reward, participant_cap, due_date, active) VALUES (?, ?, ?, ?, ?, 1)`,
		householdID, title, pointReward, capVal, due,
	)
	if err != nil {
		return nil, fmt.Errorf("insert challenge: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ChallengeStore) GetByID(id int64) (*model.Challenge, error) {
	return s.GetTx(s.db, id)
}

func (s *ChallengeStore) GetTx(q Querier, id int64) (*model.Challenge, error) {
	row := q.QueryRow(`SELECT `+challengeCols+` FROM challenges WHERE id = ?`, id)
	c, err := scanChallenge(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get challenge: %w", err)
	}
	return c, nil
}

func (s *ChallengeStore) ListByHousehold(householdID int64) ([]model.Challenge, error) {
	rows, err := s.db.Query(
		`SELECT `+challengeCols+` FROM challenges WHERE household_id = ? ORDER BY active DESC, due_date IS NULL, due_date ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list challenges: %w", err)
	}
	defer rows.Close()

	var challenges []model.Challenge
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, fmt.Errorf("scan challenge: %w", err)
		}
		challenges = append(challenges, *c)
	}
	return challenges, rows.Err()
}

// IsParticipant reports whether the user already joined, through the
// caller's transaction so join races observe each other.
func (s *ChallengeStore) IsParticipant(q Querier, challengeID, userID int64) (bool, error) {
	var count int
	err := q.QueryRow(
		`SELECT COUNT(*) FROM challenge_participants WHERE challenge_id = ? AND user_id = ?`,
		challengeID, userID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check participant: %w", err)
	}
	return count > 0, nil
}

func (s *ChallengeStore) CountParticipants(q Querier, challengeID int64) (int, error) {
	var count int
	err := q.QueryRow(
		`SELECT COUNT(*) FROM challenge_participants WHERE challenge_id = ?`,
		challengeID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count participants: %w", err)
	}
	return count, nil
}

func (s *ChallengeStore) AddParticipant(q Querier, challengeID, userID int64) error {
	_, err := q.Exec(
		`INSERT INTO challenge_participants (challenge_id, user_id) VALUES (?, ?)`,
		challengeID, userID,
	)
	if err != nil {
		return fmt.Errorf("add participant: %w", err)
	}
	return nil
}

func (s *ChallengeStore) ListParticipants(challengeID int64) ([]model.ChallengeParticipant, error) {
	rows, err := s.db.Query(
		`SELECT challenge_id, user_id, joined_at FROM challenge_participants WHERE challenge_id = ? ORDER BY joined_at ASC`,
		challengeID,
	)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var participants []model.ChallengeParticipant
	for rows.Next() {
		var p model.ChallengeParticipant
		if err := rows.Scan(&p.ChallengeID, &p.UserID, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}
