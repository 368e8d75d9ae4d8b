package domain

import (
	"strings"
	"time"
)

// Priority represents task priority level
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank orders priorities by severity; unknown priorities rank lowest.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// ParsePriority normalizes a stored priority. ok is false for unrecognized values.
func ParsePriority(p string) (Priority, bool) {
	switch Priority(strings.ToLower(strings.TrimSpace(p))) {
	case PriorityUrgent:
		return PriorityUrgent, true
	case PriorityHigh:
		return PriorityHigh, true
	case PriorityMedium:
		return PriorityMedium, true
	case PriorityLow:
		return PriorityLow, true
	default:
		return "", false
	}
}

// TaskStatus represents the current state of a task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// Task is a to-do item extracted from a voice note or created manually.
type Task struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    Priority   `json:"priority"`
	Status      TaskStatus `json:"status"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	DueTime     string     `json:"due_time,omitempty"` // HH:MM
	Category    string     `json:"category,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	RecordingID string     `json:"recording_id,omitempty"` // Optional link to source voice recording
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (t *Task) IsCompleted() bool {
	return t.Status == TaskStatusCompleted
}
