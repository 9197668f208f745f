package model

import (
	"strings"
	"time"
)

// Status is the lifecycle column a task sits in.
type Status string

// Task status constants.
const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Statuses lists every status in board column order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusCompleted}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Next returns the status that follows s in the toggle cycle
// todo -> in-progress -> completed -> todo. Unknown values restart at todo.
func (s Status) Next() Status {
	switch s {
	case StatusTodo:
		return StatusInProgress
	case StatusInProgress:
		return StatusCompleted
	default:
		return StatusTodo
	}
}

// Label returns the human-readable column title.
func (s Status) Label() string {
	switch s {
	case StatusTodo:
		return "To Do"
	case StatusInProgress:
		return "In Progress"
	case StatusCompleted:
		return "Completed"
	default:
		return string(s)
	}
}

// Priority is the urgency of a task.
type Priority string

// Priority constants.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists every priority from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// DefaultCategory is assigned to tasks that arrive without one.
const DefaultCategory = "General"

// Categories is the fixed label set offered by the task form.
// Free text is accepted as well.
var Categories = []string{
	"General",
	"Work",
	"Personal",
	"Shopping",
	"Health",
	"Finance",
	"Education",
}

// Subtask is a display-only checklist entry within a task.
type Subtask struct {
	Label     string `json:"label"`
	Completed bool   `json:"completed"`
}

// Task is a unit of work on the board.
type Task struct {
	// ID is an opaque token, unique across the collection and never reassigned.
	ID string `json:"id"`

	Title       string   `json:"title"`
	Description string   `json:"description"`
	Status      Status   `json:"status"`
	Priority    Priority `json:"priority"`
	DueDate     *Date    `json:"dueDate"`
	Category    string   `json:"category"`

	// CreatedAt is set once by the store when the task is added.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is refreshed by the store on every mutation.
	UpdatedAt time.Time `json:"updatedAt"`

	Subtasks []Subtask `json:"subtasks,omitempty"`
}

// TaskInput holds the user-editable fields of a task.
type TaskInput struct {
	Title       string
	Description string
	Status      Status
	Priority    Priority
	DueDate     *Date
	Category    string
	Subtasks    []Subtask
}

// Input returns the editable fields of t.
func (t Task) Input() TaskInput {
	return TaskInput{
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		DueDate:     t.DueDate,
		Category:    t.Category,
		Subtasks:    t.Subtasks,
	}
}

// WithInput returns a copy of t with the editable fields replaced by in.
func (t Task) WithInput(in TaskInput) Task {
	t.Title = in.Title
	t.Description = in.Description
	t.Status = in.Status
	t.Priority = in.Priority
	t.DueDate = in.DueDate
	t.Category = in.Category
	t.Subtasks = in.Subtasks
	return t
}

// Clone returns a deep copy of t so callers cannot alias its slices.
func (t Task) Clone() Task {
	if t.Subtasks != nil {
		t.Subtasks = append([]Subtask(nil), t.Subtasks...)
	}
	if t.DueDate != nil {
		d := *t.DueDate
		t.DueDate = &d
	}
	return t
}

// SubtaskProgress returns the number of completed subtasks and the total.
func (t Task) SubtaskProgress() (done, total int) {
	for _, st := range t.Subtasks {
		if st.Completed {
			done++
		}
	}
	return done, len(t.Subtasks)
}

// IsOverdue reports whether the task has a due date before today and is not
// completed yet.
func (t Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.Status == StatusCompleted {
		return false
	}
	return t.DueDate.Before(Today(now))
}

// Matches reports whether term occurs, case-insensitively, in the task's
// title, description, or category. A blank term matches everything;
// otherwise the term is matched as typed, surrounding spaces included.
func (t Task) Matches(term string) bool {
	if strings.TrimSpace(term) == "" {
		return true
	}
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(t.Title), term) ||
		strings.Contains(strings.ToLower(t.Description), term) ||
		strings.Contains(strings.ToLower(t.Category), term)
}
