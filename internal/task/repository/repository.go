package repository

import (
	"context"
	"time"

	"github.com/ngandimoun/saydo-ai-sub006/internal/task/domain"
)

// HistoryWindow bounds a history read. Zero values mean unbounded.
type HistoryWindow struct {
	Since *time.Time
	Limit int
}

// TaskRepository defines the read side of task data access used for analysis
type TaskRepository interface {
	// FindForAnalysis returns the most recent tasks for a user inside the window,
	// ordered by created_at then id ascending. Malformed rows are skipped.
	FindForAnalysis(ctx context.Context, userID string, window HistoryWindow) ([]*domain.Task, error)

	// FindActiveUserIDs returns the distinct users that created tasks since the given time
	FindActiveUserIDs(ctx context.Context, since time.Time) ([]string, error)
}
