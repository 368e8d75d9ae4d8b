package domain

import (
	"time"

	taskdomain "github.com/ngandimoun/saydo-ai-sub006/internal/task/domain"
)

// ReminderType distinguishes how the reminder was captured
type ReminderType string

const (
	ReminderTypeTask     ReminderType = "task"
	ReminderTypeTodo     ReminderType = "todo"
	ReminderTypeReminder ReminderType = "reminder"
)

// Reminder is a timed nudge, optionally recurring.
type Reminder struct {
	ID                string              `json:"id"`
	UserID            string              `json:"user_id"`
	Title             string              `json:"title"`
	Description       string              `json:"description,omitempty"`
	ReminderTime      time.Time           `json:"reminder_time"`
	IsRecurring       bool                `json:"is_recurring"`
	RecurrencePattern string              `json:"recurrence_pattern,omitempty"` // e.g. "daily", "weekly"
	IsCompleted       bool                `json:"is_completed"`
	IsSnoozed         bool                `json:"is_snoozed"`
	SnoozeUntil       *time.Time          `json:"snooze_until,omitempty"`
	Tags              []string            `json:"tags,omitempty"`
	Priority          taskdomain.Priority `json:"priority,omitempty"`
	Type              ReminderType        `json:"type"`
	CreatedAt         time.Time           `json:"created_at"`
}
