package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/roomly/roomly/internal/model"
)

type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

func scanTask(scanner interface{ Scan(...any) error }) (*model.Task, error) {
	var t model.Task
	var assignedTo sql.NullInt64
	var completed int
	var completedAt, dueDate sql.NullTime

	err := scanner.Scan(
		&t.ID, &t.HouseholdID, &t.Title, &t.Points, &t.Priority, &t.Recurrence,
		&assignedTo, &t.CreatedBy, &completed, &completedAt, &dueDate,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if assignedTo.Valid {
		t.AssignedTo = &assignedTo.Int64
	}
	t.Completed = completed != 0
	if completedAt.Valid {
		t.CompletedAt = &completedAt.Time
	}
	if dueDate.Valid {
		t.DueDate = &dueDate.Time
	}
	return &t, nil
}

const taskCols = `id, household_id, title, points, priority, recurrence, assigned_to, created_by, completed, completed_at, due_date, created_at, updated_at`

// NewTask carries the template fields for inserting a task. Successor tasks
// of a recurring completion reuse the same struct.
type NewTask struct {
	HouseholdID int64
	Title       string
	Points      int
	Priority    string
	Recurrence  string
	AssignedTo  *int64
	CreatedBy   int64
	DueDate     *time.Time
}

func (s *TaskStore) Create(t NewTask) (*model.Task, error) {
	id, err := s.insert(s.db, t)
	if err != nil {
		return nil, err
	}
	return s.GetByID(id)
}

// CreateTx inserts a task inside the caller's transaction and returns its id.
// Used for recurring successors, which must commit atomically with the
// completion that spawns them.
func (s *TaskStore) CreateTx(q Querier, t NewTask) (int64, error) {
	return s.insert(q, t)
}

func (s *TaskStore) insert(q Querier, t NewTask) (int64, error) {
	var assignedTo sql.NullInt64
	if t.AssignedTo != nil {
		assignedTo = sql.NullInt64{Int64: *t.AssignedTo, Valid: true}
	}
	var dueDate sql.NullTime
	if t.DueDate != nil {
		dueDate = sql.NullTime{Time: t.DueDate.UTC(), Valid: true}
	}

	result, err := q.Exec(
		`INSERT INTO tasks (household_id, title, points, priority, recurrence, assigned_to, created_by, due_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.HouseholdID, t.Title, t.Points, t.Priority, t.Recurrence, assignedTo, t.CreatedBy, dueDate,
	)
	if err != nil {
		return 0, fmt.Errorf("insert task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

func (s *TaskStore) GetByID(id int64) (*model.Task, error) {
	return s.GetTx(s.db, id)
}

func (s *TaskStore) GetTx(q Querier, id int64) (*model.Task, error) {
	row := q.QueryRow(`SELECT `+taskCols+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

func (s *TaskStore) ListByHousehold(householdID int64) ([]model.Task, error) {
	rows, err := s.db.Query(
		`SELECT `+taskCols+` FROM tasks WHERE household_id = ? ORDER BY completed ASC, due_date IS NULL, due_date ASC, created_at ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// MarkCompleted flips the completed flag inside the caller's transaction.
// The WHERE completed = 0 guard makes a second attempt report zero affected
// rows instead of awarding twice.
func (s *TaskStore) MarkCompleted(q Querier, id, completedBy int64, at time.Time) (bool, error) {
	result, err := q.Exec(
		`UPDATE tasks SET completed = 1, completed_at = ?, assigned_to = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND completed = 0`,
		at.UTC(), completedBy, id,
	)
	if err != nil {
		return false, fmt.Errorf("mark completed: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

// TaskUpdate holds the validated replacement field values for Update.
type TaskUpdate struct {
	Title      string
	Points     int
	Priority   string
	AssignedTo *int64
	DueDate    *time.Time
}

func (s *TaskStore) Update(id int64, u TaskUpdate) (*model.Task, error) {
	var assignedTo sql.NullInt64
	if u.AssignedTo != nil {
		assignedTo = sql.NullInt64{Int64: *u.AssignedTo, Valid: true}
	}
	var dueDate sql.NullTime
	if u.DueDate != nil {
		dueDate = sql.NullTime{Time: u.DueDate.UTC(), Valid: true}
	}

	_, err := s.db.Exec(
		`UPDATE tasks SET title = ?, points = ?, priority = ?, assigned_to = ?, due_date = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		u.Title, u.Points, u.Priority, assignedTo, dueDate, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return s.GetByID(id)
}

func (s *TaskStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// --- Comment methods ---

func scanComment(scanner interface{ Scan(...any) error }) (*model.Comment, error) {
	var c model.Comment
	err := scanner.Scan(&c.ID, &c.TaskID, &c.AuthorID, &c.Text, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const commentCols = `id, task_id, author_id, text, created_at`

func (s *TaskStore) CreateComment(taskID, authorID int64, text string) (*model.Comment, error) {
	result, err := s.db.Exec(
		`INSERT INTO comments (task_id, author_id, text) VALUES (?, ?, ?)`,
		taskID, authorID, text,
	)
	if err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+commentCols+` FROM comments WHERE id = ?`, id)
	return scanComment(row)
}

func (s *TaskStore) ListComments(taskID int64) ([]model.Comment, error) {
	rows, err := s.db.Query(
		`SELECT `+commentCols+` FROM comments WHERE task_id = ? ORDER BY created_at ASC, id ASC`,
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, *c)
	}
	return comments, rows.Err()
}
