package repository

import (
	"context"

	"github.com/ngandimoun/saydo-ai-sub006/internal/pattern/domain"
)

// PatternRepository defines the interface for user pattern data access
type PatternRepository interface {
	// Upsert inserts the pattern or, when the user already has one of that
	// type, replaces its data and bumps its frequency. Returns the row id.
	Upsert(ctx context.Context, pattern *domain.Pattern) (string, error)
	// FindByUser lists patterns ordered by confidence then recency.
	// A nil patternType means every type.
	FindByUser(ctx context.Context, userID string, patternType *domain.PatternType) ([]*domain.Pattern, error)
	UpdateConfidence(ctx context.Context, id, userID string, score int) error
	DeleteByUser(ctx context.Context, userID string, patternType *domain.PatternType) (int64, error)
}
