package extractor

import (
	"strings"
	"time"

	"github.com/ngandimoun/saydo-ai-sub006/internal/pattern/domain"
)

const unspecifiedFrequency = "unspecified"

// Recurring lists every recurring reminder with its usual time and weekday,
// and counts how often each recurrence frequency is used.
func Recurring(items []Item, loc *time.Location) domain.RecurringData {
	if loc == nil {
		loc = time.UTC
	}
	data := domain.RecurringData{
		Reminders:       []domain.RecurringReminder{},
		FrequencyCounts: make(map[string]int),
	}

	for _, it := range items {
		if !IsRecurring(it) {
			continue
		}
		frequency := strings.TrimSpace(it.RecurrencePattern)
		if frequency == "" {
			frequency = unspecifiedFrequency
		}

		entry := domain.RecurringReminder{Title: it.Title, Frequency: frequency}
		if clock, day, ok := dueClock(it, loc); ok {
			entry.CommonTime = clock
			entry.CommonDay = int(day)
		}
		data.Reminders = append(data.Reminders, entry)
		data.FrequencyCounts[frequency]++
	}
	data.SampleSize = len(data.Reminders)
	return data
}
