// Package engine implements the household operation engines: task
// lifecycle, reward redemption, and challenge rosters. Each engine checks
// access first, mutates state in a single transaction, and publishes an
// event only after that transaction has committed.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/roomly/roomly/internal/access"
	"github.com/roomly/roomly/internal/apperr"
	"github.com/roomly/roomly/internal/broker"
	"github.com/roomly/roomly/internal/ledger"
	"github.com/roomly/roomly/internal/model"
	"github.com/roomly/roomly/internal/push"
	"github.com/roomly/roomly/internal/recurrence"
	"github.com/roomly/roomly/internal/store"
)

type TaskEngine struct {
	db         *sql.DB
	guard      *access.Guard
	tasks      *store.TaskStore
	households *store.HouseholdStore
	ledger     *ledger.Ledger
	broker     *broker.Broker
	notifier   *push.Notifier
	logger     *slog.Logger

	// now is swappable in tests
	now func() time.Time
}

func NewTaskEngine(db *sql.DB, guard *access.Guard, tasks *store.TaskStore, households *store.HouseholdStore, l *ledger.Ledger, b *broker.Broker, notifier *push.Notifier, logger *slog.Logger) *TaskEngine {
	return &TaskEngine{
		db:         db,
		guard:      guard,
		tasks:      tasks,
		households: households,
		ledger:     l,
		broker:     b,
		notifier:   notifier,
		logger:     logger,
		now:        time.Now,
	}
}

type CreateTaskInput struct {
	HouseholdID int64
	Title       string
	Points      int
	Priority    string
	Recurrence  string
	AssignedTo  *int64
	DueDate     *time.Time
}

func (e *TaskEngine) Create(ctx context.Context, actorID int64, in CreateTaskInput) (*model.Task, error) {
	if _, err := e.guard.Authorize(actorID, in.HouseholdID); err != nil {
		return nil, err
	}

	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, apperr.Validation("title is required")
	}
	if in.Points < 0 {
		return nil, apperr.Validation("points must be >= 0")
	}
	if in.Priority == "" {
		in.Priority = model.PriorityMedium
	}
	if !model.ValidPriority(in.Priority) {
		return nil, apperr.Validation("invalid priority %q", in.Priority)
	}
	if in.Recurrence == "" {
		in.Recurrence = model.RecurrenceNone
	}
	if !model.ValidRecurrence(in.Recurrence) {
		return nil, apperr.Validation("invalid recurrence %q", in.Recurrence)
	}
	if in.AssignedTo != nil {
		if err := e.checkAssignee(*in.AssignedTo, in.HouseholdID); err != nil {
			return nil, err
		}
	}

	task, err := e.tasks.Create(store.NewTask{
		HouseholdID: in.HouseholdID,
		Title:       in.Title,
		Points:      in.Points,
		Priority:    in.Priority,
		Recurrence:  in.Recurrence,
		AssignedTo:  in.AssignedTo,
		CreatedBy:   actorID,
		DueDate:     in.DueDate,
	})
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	e.broker.Publish(in.HouseholdID, broker.NewTaskCreated(broker.TaskCreatedData{
		TaskID:     task.ID,
		Title:      task.Title,
		AssignedTo: task.AssignedTo,
		DueDate:    task.DueDate,
	}))

	return task, nil
}

// CompletionResult reports everything a client needs after a completion.
type CompletionResult struct {
	Task          *model.Task `json:"task"`
	PointsAwarded int         `json:"points_awarded"`
	NewBalance    int         `json:"new_balance"`
	StreakDays    int         `json:"streak_days"`
	Successor     *model.Task `json:"successor,omitempty"`
}

// Complete marks a task done, credits the assignee, updates their streak,
// and spawns the recurring successor, all in one transaction. A second
// completion attempt fails with a conflict instead of awarding twice.
func (e *TaskEngine) Complete(ctx context.Context, taskID, actorID int64) (*CompletionResult, error) {
	task, err := e.tasks.GetByID(taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, apperr.NotFound("task %d not found", taskID)
	}

	membership, err := e.guard.Authorize(actorID, task.HouseholdID)
	if err != nil {
		return nil, err
	}

	// Permitted: the assignee, anyone when unassigned (auto-assigns), or an admin.
	awardee := actorID
	if task.AssignedTo != nil {
		awardee = *task.AssignedTo
		if awardee != actorID && membership.Role != model.RoleAdmin {
			return nil, apperr.AccessDenied("task %d is assigned to another member", taskID)
		}
	}

	completedAt := e.now()
	var (
		newBalance  int
		streak      int
		successorID *int64
	)
	err = withTx(ctx, e.db, func(tx *sql.Tx) error {
		ok, err := e.tasks.MarkCompleted(tx, taskID, awardee, completedAt)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Conflict("task %d is already completed", taskID)
		}

		newBalance, err = e.ledger.Credit(tx, task.HouseholdID, awardee, task.Points, model.ActivityTaskCompleted, &task.ID)
		if err != nil {
			return err
		}

		streak, err = e.ledger.RecordCompletionForStreak(tx, awardee, completedAt)
		if err != nil {
			return err
		}

		if task.Recurrence != model.RecurrenceNone {
			base := completedAt
			if task.DueDate != nil {
				base = *task.DueDate
			}
			nextDue := recurrence.NextDue(task.Recurrence, base)

			id, err := e.tasks.CreateTx(tx, store.NewTask{
				HouseholdID: task.HouseholdID,
				Title:       task.Title,
				Points:      task.Points,
				Priority:    task.Priority,
				Recurrence:  task.Recurrence,
				AssignedTo:  task.AssignedTo,
				CreatedBy:   task.CreatedBy,
				DueDate:     &nextDue,
			})
			if err != nil {
				return err
			}
			successorID = &id
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	completed, err := e.tasks.GetByID(taskID)
	if err != nil {
		return nil, err
	}
	result := &CompletionResult{
		Task:          completed,
		PointsAwarded: task.Points,
		NewBalance:    newBalance,
		StreakDays:    streak,
	}
	if successorID != nil {
		result.Successor, err = e.tasks.GetByID(*successorID)
		if err != nil {
			return nil, err
		}
	}

	e.broker.Publish(task.HouseholdID, broker.NewTaskCompleted(broker.TaskCompletedData{
		TaskID:        taskID,
		Title:         task.Title,
		CompletedBy:   awardee,
		PointsAwarded: task.Points,
		NewBalance:    newBalance,
		CompletedAt:   completedAt,
		SuccessorID:   successorID,
	}))
	e.notifier.NotifyHousehold(task.HouseholdID, push.Payload{
		Title: "Task completed",
		Body:  fmt.Sprintf("%s (+%d points)", task.Title, task.Points),
		Tag:   "task_completed",
	})

	return result, nil
}

// UpdateTaskInput carries partial updates; nil fields are left unchanged.
// Validation is all-or-nothing: one bad field rejects the whole update.
type UpdateTaskInput struct {
	Title         *string
	Points        *int
	Priority      *string
	AssignedTo    *int64
	ClearAssignee bool
	DueDate       *time.Time
	ClearDueDate  bool
}

func (e *TaskEngine) Update(ctx context.Context, taskID, actorID int64, in UpdateTaskInput) (*model.Task, error) {
	task, err := e.tasks.GetByID(taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, apperr.NotFound("task %d not found", taskID)
	}

	membership, err := e.guard.Authorize(actorID, task.HouseholdID)
	if err != nil {
		return nil, err
	}
	if task.CreatedBy != actorID && membership.Role != model.RoleAdmin {
		return nil, apperr.AccessDenied("only the creator or an admin can update task %d", taskID)
	}

	next := store.TaskUpdate{
		Title:      task.Title,
		Points:     task.Points,
		Priority:   task.Priority,
		AssignedTo: task.AssignedTo,
		DueDate:    task.DueDate,
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, apperr.Validation("title must not be empty")
		}
		next.Title = title
	}
	if in.Points != nil {
		if *in.Points < 0 {
			return nil, apperr.Validation("points must be >= 0")
		}
		next.Points = *in.Points
	}
	if in.Priority != nil {
		if !model.ValidPriority(*in.Priority) {
			return nil, apperr.Validation("invalid priority %q", *in.Priority)
		}
		next.Priority = *in.Priority
	}
	switch {
	case in.ClearAssignee:
		next.AssignedTo = nil
	case in.AssignedTo != nil:
		if err := e.checkAssignee(*in.AssignedTo, task.HouseholdID); err != nil {
			return nil, err
		}
		next.AssignedTo = in.AssignedTo
	}
	switch {
	case in.ClearDueDate:
		next.DueDate = nil
	case in.DueDate != nil:
		next.DueDate = in.DueDate
	}

	updated, err := e.tasks.Update(taskID, next)
	if err != nil {
		return nil, err
	}

	e.broker.Publish(task.HouseholdID, broker.NewTaskUpdated(broker.TaskUpdatedData{
		TaskID: taskID,
		Title:  updated.Title,
	}))

	return updated, nil
}

// Comment appends a comment to a task. Any active household member may
// comment; task ownership is not required.
func (e *TaskEngine) Comment(ctx context.Context, taskID, actorID int64, text string) (*model.Comment, error) {
	task, err := e.tasks.GetByID(taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, apperr.NotFound("task %d not found", taskID)
	}

	if _, err := e.guard.Authorize(actorID, task.HouseholdID); err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.Validation("comment text is required")
	}

	comment, err := e.tasks.CreateComment(taskID, actorID, text)
	if err != nil {
		return nil, err
	}

	e.broker.Publish(task.HouseholdID, broker.NewCommentAdded(broker.CommentAddedData{
		TaskID:    taskID,
		CommentID: comment.ID,
		AuthorID:  actorID,
		Text:      comment.Text,
	}))

	return comment, nil
}

// checkAssignee rejects an assignee who is not an active member of the
// task's household.
func (e *TaskEngine) checkAssignee(assigneeID, householdID int64) error {
	m, err := e.households.GetMember(householdID, assigneeID)
	if err != nil {
		return fmt.Errorf("check assignee: %w", err)
	}
	if m == nil || !m.Active {
		return apperr.Validation("invalid assignment: user %d is not an active member of household %d", assigneeID, householdID)
	}
	return nil
}
