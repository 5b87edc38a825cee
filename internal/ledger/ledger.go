// Package ledger owns point balance mutation, streak computation, and audit
// logging. Balances are only ever changed through Credit and Debit, both of
// which run inside the calling engine's transaction and write exactly one
// activity row, so the balance can always be reconstructed from the trail.
package ledger

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/roomly/roomly/internal/apperr"
	"github.com/roomly/roomly/internal/store"
)

type Ledger struct {
	activities *store.ActivityStore
	loc        *time.Location
}

// New creates a ledger. loc is the location used for streak calendar-day
// arithmetic; pass nil for time.Local.
func New(activities *store.ActivityStore, loc *time.Location) *Ledger {
	if loc == nil {
		loc = time.Local
	}
	return &Ledger{activities: activities, loc: loc}
}

// Credit adds amount to the user's balance and returns the new balance.
// Runs through the caller's querier so it commits with the caller's
// transaction. Never fails for amount >= 0 and an existing user.
func (l *Ledger) Credit(q store.Querier, householdID, userID int64, amount int, reason string, referenceID *int64) (int, error) {
	if amount < 0 {
		return 0, apperr.Validation("credit amount must be >= 0, got %d", amount)
	}

	result, err := q.Exec(
		`UPDATE users SET points = points + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		amount, userID,
	)
	if err != nil {
		return 0, fmt.Errorf("credit user: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return 0, apperr.NotFound("user %d not found", userID)
	}

	balance, err := l.balance(q, userID)
	if err != nil {
		return 0, err
	}

	if _, err := l.activities.Append(q, householdID, userID, reason, amount, referenceID); err != nil {
		return 0, err
	}
	return balance, nil
}

// Debit subtracts amount from the user's balance if and only if the balance
// covers it. The guard lives in the UPDATE itself, so two concurrent debits
// inside serialized transactions observe each other's effect.
func (l *Ledger) Debit(q store.Querier, householdID, userID int64, amount int, reason string, referenceID *int64) (int, error) {
	if amount < 0 {
		return 0, apperr.Validation("debit amount must be >= 0, got %d", amount)
	}

	result, err := q.Exec(
		`UPDATE users SET points = points - ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND points >= ?`,
		amount, userID, amount,
	)
	if err != nil {
		return 0, fmt.Errorf("debit user: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		balance, err := l.balance(q, userID)
		if err != nil {
			return 0, err
		}
		return 0, apperr.InsufficientBalance(balance)
	}

	balance, err := l.balance(q, userID)
	if err != nil {
		return 0, err
	}

	if _, err := l.activities.Append(q, householdID, userID, reason, -amount, referenceID); err != nil {
		return 0, err
	}
	return balance, nil
}

// RecordCompletionForStreak updates the user's consecutive-day completion
// streak for a completion at the given time. Same calendar day: no change.
// Exactly one day after the last activity: streak + 1. Anything else
// (gap, or no prior activity): streak resets to 1.
func (l *Ledger) RecordCompletionForStreak(q store.Querier, userID int64, completedAt time.Time) (int, error) {
	var streak int
	var last *time.Time
	var lastNull sql.NullTime
	row := q.QueryRow(`SELECT streak_days, last_activity_at FROM users WHERE id = ?`, userID)
	if err := row.Scan(&streak, &lastNull); err != nil {
		return 0, fmt.Errorf("read streak: %w", err)
	}
	if lastNull.Valid {
		last = &lastNull.Time
	}

	day := calendarDay(completedAt, l.loc)
	newStreak := 1
	if last != nil {
		switch day.Sub(calendarDay(*last, l.loc)) / (24 * time.Hour) {
		case 0:
			newStreak = streak
		case 1:
			newStreak = streak + 1
		}
	}

	_, err := q.Exec(
		`UPDATE users SET streak_days = ?, last_activity_at = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		newStreak, completedAt.UTC(), userID,
	)
	if err != nil {
		return 0, fmt.Errorf("update streak: %w", err)
	}
	return newStreak, nil
}

func (l *Ledger) balance(q store.Querier, userID int64) (int, error) {
	var balance int
	if err := q.QueryRow(`SELECT points FROM users WHERE id = ?`, userID).Scan(&balance); err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return balance, nil
}

// calendarDay truncates t to midnight of its calendar day in loc.
func calendarDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
