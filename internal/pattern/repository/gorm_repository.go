package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ngandimoun/saydo-ai-sub006/internal/pattern/domain"
	"github.com/ngandimoun/saydo-ai-sub006/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const upsertAttempts = 2

// gormPatternRepository implements PatternRepository using GORM
type gormPatternRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewGormPatternRepository creates a new GORM-based PatternRepository
func NewGormPatternRepository(db *gorm.DB, log *logger.Logger) PatternRepository {
	return &gormPatternRepository{db: db, log: log.With("component", "PatternRepository")}
}

// AutoMigrate creates user_patterns with its (user_id, pattern_type) unique index.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.Pattern{})
}

func (r *gormPatternRepository) Upsert(ctx context.Context, pattern *domain.Pattern) (string, error) {
	var err error
	for attempt := 1; attempt <= upsertAttempts; attempt++ {
		var id string
		id, err = r.upsertOnce(ctx, pattern)
		if err == nil {
			return id, nil
		}
		if !isUniqueViolation(err) {
			break
		}
		// Two writers raced on the same (user, type); the second attempt takes the update path.
		r.log.Warn("Retrying pattern upsert after unique violation",
			"user_id", pattern.UserID, "pattern_type", pattern.PatternType, "attempt", attempt)
		pattern.ID = ""
	}
	return "", fmt.Errorf("upsert %s pattern: %w", pattern.PatternType, err)
}

func (r *gormPatternRepository) upsertOnce(ctx context.Context, pattern *domain.Pattern) (string, error) {
	if pattern.ID == "" {
		pattern.ID = uuid.NewString()
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "pattern_type"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"pattern_data": gorm.Expr("excluded.pattern_data"),
			"metadata":     gorm.Expr("excluded.metadata"),
			"frequency":    gorm.Expr("user_patterns.frequency + 1"),
			"last_seen_at": gorm.Expr("excluded.last_seen_at"),
			"updated_at":   gorm.Expr("excluded.updated_at"),
		}),
	}).Create(pattern).Error
	if err != nil {
		return "", err
	}

	// On the update path the row keeps its original id
	var stored domain.Pattern
	err = r.db.WithContext(ctx).
		Select("id").
		Where("user_id = ? AND pattern_type = ?", pattern.UserID, pattern.PatternType).
		Take(&stored).Error
	if err != nil {
		return "", err
	}
	pattern.ID = stored.ID
	return stored.ID, nil
}

func (r *gormPatternRepository) FindByUser(ctx context.Context, userID string, patternType *domain.PatternType) ([]*domain.Pattern, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if patternType != nil {
		query = query.Where("pattern_type = ?", *patternType)
	}

	var patterns []*domain.Pattern
	if err := query.Order("confidence_score DESC, last_seen_at DESC").Find(&patterns).Error; err != nil {
		return nil, err
	}
	return patterns, nil
}

func (r *gormPatternRepository) UpdateConfidence(ctx context.Context, id, userID string, score int) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Pattern{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("confidence_score", score)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *gormPatternRepository) DeleteByUser(ctx context.Context, userID string, patternType *domain.PatternType) (int64, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if patternType != nil {
		query = query.Where("pattern_type = ?", *patternType)
	}
	result := query.Delete(&domain.Pattern{})
	return result.RowsAffected, result.Error
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.TrimSpace(pgErr.Code) == "23505"
	}
	return false
}
