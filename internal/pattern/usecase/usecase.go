package usecase

import (
	"context"
	"time"

	"github.com/ngandimoun/saydo-ai-sub006/internal/pattern/domain"
	reminderrepo "github.com/ngandimoun/saydo-ai-sub006/internal/reminder/repository"
	taskrepo "github.com/ngandimoun/saydo-ai-sub006/internal/task/repository"
	"github.com/ngandimoun/saydo-ai-sub006/pkg/logger"
)

// PatternUsecase defines the interface for pattern learning business logic
type PatternUsecase interface {
	// AnalyzeUserPatterns re-learns every pattern for a user from their history
	// and re-scores everything stored for them.
	AnalyzeUserPatterns(ctx context.Context, userID string) (*AnalysisResult, error)

	// GetUserPatterns never fails; a storage problem yields an empty list.
	GetUserPatterns(ctx context.Context, userID string, patternType *domain.PatternType) []*domain.Pattern

	DeleteUserPatterns(ctx context.Context, userID string, patternType *domain.PatternType) (int64, error)
}

// AnalysisResult summarizes one analysis run
type AnalysisResult struct {
	PatternsLearned   []domain.PatternType `json:"patternsLearned"`
	TasksAnalyzed     int                  `json:"tasksAnalyzed"`
	RemindersAnalyzed int                  `json:"remindersAnalyzed"`
	TotalPatterns     int                  `json:"totalPatterns"`
	SaveFailures      int                  `json:"saveFailures"`
	PatternsRescored  int                  `json:"patternsRescored"`
	RescoreFailures   int                  `json:"rescoreFailures"`
}

// PatternStore is the persistence the analysis writes through
type PatternStore interface {
	SavePattern(ctx context.Context, userID string, patternType domain.PatternType, payload domain.Payload, metadata map[string]interface{}) (string, error)
	GetUserPatterns(ctx context.Context, userID string, patternType *domain.PatternType) []*domain.Pattern
	LoadUserPatterns(ctx context.Context, userID string) ([]*domain.Pattern, error)
	UpdateConfidence(ctx context.Context, id, userID string, score int) error
	DeleteUserPatterns(ctx context.Context, userID string, patternType *domain.PatternType) (int64, error)
}

// Locker guards against two analyses of the same user running at once
type Locker interface {
	Acquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key, token string) (bool, error)
}

// PatternsUpdatedEvent is announced after a successful analysis
type PatternsUpdatedEvent struct {
	Type            string               `json:"type"`
	UserID          string               `json:"userId"`
	PatternsLearned []domain.PatternType `json:"patternsLearned"`
	TotalPatterns   int                  `json:"totalPatterns"`
	At              time.Time            `json:"at"`
}

const PatternsUpdatedEventType = "patterns.updated"

// Publisher announces analysis results to other services
type Publisher interface {
	PublishPatternsUpdated(ctx context.Context, event PatternsUpdatedEvent) error
}

// Dependencies wires the analysis. Locker and Publisher are optional.
type Dependencies struct {
	Tasks     taskrepo.TaskRepository
	Reminders reminderrepo.ReminderRepository
	Store     PatternStore
	Locker    Locker
	Publisher Publisher
	Logger    *logger.Logger

	// Clock defaults to time.Now; Location to UTC.
	Clock    func() time.Time
	Location *time.Location
	Timeout  time.Duration

	// Getters so the history window can change at runtime.
	HistoryLimit      func() int
	HistoryWindowDays func() int
}
