// Package extractor turns a user's task and reminder history into pattern
// payloads. Every function here is pure: the same input slice always yields
// the same payload, and nothing reads the wall clock.
package extractor

import (
	"strings"
	"time"

	reminderdomain "github.com/ngandimoun/saydo-ai-sub006/internal/reminder/domain"
	taskdomain "github.com/ngandimoun/saydo-ai-sub006/internal/task/domain"
)

type Source string

const (
	SourceTask     Source = "task"
	SourceReminder Source = "reminder"
)

// Item is the normalized view of a task or reminder that extractors consume.
type Item struct {
	Source            Source
	Title             string
	Category          string
	Tags              []string
	Priority          taskdomain.Priority
	Completed         bool
	CreatedAt         time.Time
	DueAt             *time.Time
	DueTime           string // explicit HH:MM, DueAt then only carries the date
	CompletedAt       *time.Time
	Recurring         bool
	RecurrencePattern string
}

func FromTask(t *taskdomain.Task) Item {
	return Item{
		Source:      SourceTask,
		Title:       t.Title,
		Category:    t.Category,
		Tags:        t.Tags,
		Priority:    t.Priority,
		Completed:   t.IsCompleted(),
		CreatedAt:   t.CreatedAt,
		DueAt:       t.DueDate,
		DueTime:     t.DueTime,
		CompletedAt: t.CompletedAt,
	}
}

func FromReminder(r *reminderdomain.Reminder) Item {
	due := r.ReminderTime
	return Item{
		Source:            SourceReminder,
		Title:             r.Title,
		Tags:              r.Tags,
		Priority:          r.Priority,
		Completed:         r.IsCompleted,
		CreatedAt:         r.CreatedAt,
		DueAt:             &due,
		Recurring:         r.IsRecurring,
		RecurrencePattern: r.RecurrencePattern,
	}
}

// FromHistory lists tasks first, then reminders, each in repository order.
func FromHistory(tasks []*taskdomain.Task, reminders []*reminderdomain.Reminder) []Item {
	items := make([]Item, 0, len(tasks)+len(reminders))
	for _, t := range tasks {
		items = append(items, FromTask(t))
	}
	for _, r := range reminders {
		items = append(items, FromReminder(r))
	}
	return items
}

// Filter returns the items for which keep is true, preserving order.
func Filter(items []Item, keep func(Item) bool) []Item {
	var out []Item
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

func HasCategory(it Item) bool { return strings.TrimSpace(it.Category) != "" }
func HasTags(it Item) bool     { return len(uniqueTags(it.Tags)) > 0 }
func HasPriority(it Item) bool { return it.Priority != "" }
func IsTask(it Item) bool      { return it.Source == SourceTask }
func IsRecurring(it Item) bool { return it.Source == SourceReminder && it.Recurring }

// dueClock returns the HH:MM of the due moment and its weekday.
// An explicit due time pairs with the calendar date stored in DueAt.
func dueClock(it Item, loc *time.Location) (string, time.Weekday, bool) {
	if it.DueAt == nil {
		return "", 0, false
	}
	if it.DueTime != "" {
		return it.DueTime, it.DueAt.UTC().Weekday(), true
	}
	local := it.DueAt.In(loc)
	return local.Format("15:04"), local.Weekday(), true
}

// deadline resolves the instant an item is due.
func deadline(it Item, loc *time.Location) (time.Time, bool) {
	if it.DueAt == nil {
		return time.Time{}, false
	}
	if it.DueTime == "" {
		return *it.DueAt, true
	}
	clock, err := time.Parse("15:04", it.DueTime)
	if err != nil {
		return *it.DueAt, true
	}
	d := it.DueAt.UTC()
	return time.Date(d.Year(), d.Month(), d.Day(), clock.Hour(), clock.Minute(), 0, 0, loc), true
}
