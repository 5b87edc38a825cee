package store

import (
	"testing"
	"time"

	"github.com/roomly/roomly/internal/model"
)

func TestTaskCRUD(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "alice@example.com", "Alice")
	household := createTestHousehold(t, db, "Baker Street", "BAKER221")
	createTestMembership(t, db, household.ID, user.ID, model.RoleAdmin)

	ts := NewTaskStore(db)

	due := time.Date(2026, 3, 15, 18, 0, 0, 0, time.UTC)
	task, err := ts.Create(NewTask{
		HouseholdID: household.ID,
		Title:       "Take out trash",
		Points:      10,
		Priority:    model.PriorityHigh,
		Recurrence:  model.RecurrenceWeekly,
		AssignedTo:  &user.ID,
		CreatedBy:   user.ID,
		DueDate:     &due,
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if task.Title != "Take out trash" {
		t.Errorf("title = %q, want %q", task.Title, "Take out trash")
	}
	if task.Points != 10 {
		t.Errorf("points = %d, want 10", task.Points)
	}
	if task.Completed {
		t.Error("new task should not be completed")
	}
	if task.AssignedTo == nil || *task.AssignedTo != user.ID {
		t.Errorf("assigned_to = %v, want %d", task.AssignedTo, user.ID)
	}
	if task.DueDate == nil || !task.DueDate.Equal(due) {
		t.Errorf("due_date = %v, want %v", task.DueDate, due)
	}

	got, err := ts.GetByID(task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got == nil || got.ID != task.ID {
		t.Fatalf("get returned %+v, want id %d", got, task.ID)
	}

	updated, err := ts.Update(task.ID, TaskUpdate{
		Title:    "Take out trash and recycling",
		Points:   15,
		Priority: model.PriorityMedium,
	})
	if err != nil {
		t.Fatalf("update task: %v", err)
	}
	if updated.Title != "Take out trash and recycling" {
		t.Errorf("updated title = %q", updated.Title)
	}
	if updated.Points != 15 {
		t.Errorf("updated points = %d, want 15", updated.Points)
	}
	if updated.AssignedTo != nil {
		t.Errorf("update with nil assignee should clear it, got %v", *updated.AssignedTo)
	}

	tasks, err := ts.ListByHousehold(household.ID)
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}

	if err := ts.Delete(task.ID); err != nil {
		t.Fatalf("delete task: %v", err)
	}
	got, err = ts.GetByID(task.ID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Error("task should be gone after delete")
	}
}

func TestMarkCompletedOnlyOnce(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "bob@example.com", "Bob")
	household := createTestHousehold(t, db, "Elm Street", "ELM00001")
	createTestMembership(t, db, household.ID, user.ID, model.RoleMember)

	ts := NewTaskStore(db)
	task, err := ts.Create(NewTask{
		HouseholdID: household.ID,
		Title:       "Dishes",
		Points:      5,
		Priority:    model.PriorityLow,
		Recurrence:  model.RecurrenceNone,
		CreatedBy:   user.ID,
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	now := time.Now()
	ok, err := ts.MarkCompleted(db, task.ID, user.ID, now)
	if err != nil {
		t.Fatalf("mark completed: %v", err)
	}
	if !ok {
		t.Fatal("first completion should succeed")
	}

	ok, err = ts.MarkCompleted(db, task.ID, user.ID, now)
	if err != nil {
		t.Fatalf("second mark completed: %v", err)
	}
	if ok {
		t.Error("second completion should report no rows changed")
	}

	got, err := ts.GetByID(task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if !got.Completed {
		t.Error("task should be completed")
	}
	if got.CompletedAt == nil {
		t.Error("completed_at should be set")
	}
	if got.AssignedTo == nil || *got.AssignedTo != user.ID {
		t.Error("completion should record the awardee as assignee")
	}
}

func TestTaskComments(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "carol@example.com", "Carol")
	household := createTestHousehold(t, db, "Oak Lane", "OAK00001")
	createTestMembership(t, db, household.ID, user.ID, model.RoleMember)

	ts := NewTaskStore(db)
	task, err := ts.Create(NewTask{
		HouseholdID: household.ID,
		Title:       "Water plants",
		Points:      3,
		Priority:    model.PriorityLow,
		Recurrence:  model.RecurrenceNone,
		CreatedBy:   user.ID,
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	c1, err := ts.CreateComment(task.ID, user.ID, "Don't forget the fern")
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}
	if c1.Text != "Don't forget the fern" {
		t.Errorf("comment text = %q", c1.Text)
	}
	if _, err := ts.CreateComment(task.ID, user.ID, "Fern done"); err != nil {
		t.Fatalf("create second comment: %v", err)
	}

	comments, err := ts.ListComments(task.ID)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(comments) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(comments))
	}
	if comments[0].Text != "Don't forget the fern" {
		t.Errorf("comments should be listed oldest first, got %q", comments[0].Text)
	}
}
