package task

import "time"

// Priority of a personal or team task.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Status of a personal or team task.
type Status string

const (
	StatusNotStarted Status = "Not Started"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

// Statuses lists the valid statuses in workflow order.
var Statuses = []Status{StatusNotStarted, StatusInProgress, StatusCompleted}

// Priorities lists the valid priorities from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Task is a personal task owned by exactly one user.
type Task struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"user"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date"`
	Priority    Priority  `json:"priority"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Overdue reports whether the task is past due and not completed.
func (t *Task) Overdue(now time.Time) bool {
	return t.Status != StatusCompleted && t.DueDate.Before(now)
}

// FieldsInput is the raw request shape for the editable task fields.
type FieldsInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"due_date"`
	Priority    string `json:"priority"`
}

// Fields holds validated task fields.
type Fields struct {
	Title       string
	Description string
	DueDate     time.Time
	Priority    Priority
}
