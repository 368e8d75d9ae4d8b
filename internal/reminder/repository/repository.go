package repository

import (
	"context"
	"time"

	"github.com/ngandimoun/saydo-ai-sub006/internal/reminder/domain"
	taskrepo "github.com/ngandimoun/saydo-ai-sub006/internal/task/repository"
)

// ReminderRepository defines the read side of reminder data access used for analysis
type ReminderRepository interface {
	// FindForAnalysis returns the most recent reminders for a user inside the window,
	// ordered by created_at then id ascending. Malformed rows are skipped.
	FindForAnalysis(ctx context.Context, userID string, window taskrepo.HistoryWindow) ([]*domain.Reminder, error)

	// FindActiveUserIDs returns the distinct users that created reminders since the given time
	FindActiveUserIDs(ctx context.Context, since time.Time) ([]string, error)
}
