package model

import "time"

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

const (
	RecurrenceNone    = "none"
	RecurrenceDaily   = "daily"
	RecurrenceWeekly  = "weekly"
	RecurrenceMonthly = "monthly"
)

// ValidPriority reports whether p is one of the allowed priority values.
func ValidPriority(p string) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// ValidRecurrence reports whether r is one of the allowed recurrence values.
func ValidRecurrence(r string) bool {
	return r == RecurrenceNone || r == RecurrenceDaily || r == RecurrenceWeekly || r == RecurrenceMonthly
}

type Task struct {
	ID          int64      `json:"id"`
	HouseholdID int64      `json:"household_id"`
	Title       string     `json:"title"`
	Points      int        `json:"points"`
	Priority    string     `json:"priority"`
	Recurrence  string     `json:"recurrence"`
	AssignedTo  *int64     `json:"assigned_to"`
	CreatedBy   int64      `json:"created_by"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at"`
	DueDate     *time.Time `json:"due_date"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Comment struct {
	ID        int64     `json:"id"`
	TaskID    int64     `json:"task_id"`
	AuthorID  int64     `json:"author_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
