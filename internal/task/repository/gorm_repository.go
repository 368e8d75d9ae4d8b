package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ngandimoun/saydo-ai-sub006/internal/task/domain"
	"github.com/ngandimoun/saydo-ai-sub006/pkg/logger"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// taskRecord mirrors the Supabase tasks table.
type taskRecord struct {
	ID          string         `gorm:"primaryKey;type:uuid"`
	UserID      string         `gorm:"index;not null"`
	Title       string         `gorm:"not null"`
	Description string
	Priority    string         `gorm:"default:medium"`
	Status      string         `gorm:"default:pending"`
	DueDate     *time.Time
	DueTime     *string
	Category    *string
	Tags        pq.StringArray `gorm:"type:text[];not null;default:'{}'"`
	RecordingID *string
	CreatedAt   time.Time
	CompletedAt *time.Time
}

func (taskRecord) TableName() string {
	return "tasks"
}

// gormTaskRepository implements TaskRepository using GORM
type gormTaskRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewGormTaskRepository creates a new GORM-based TaskRepository
func NewGormTaskRepository(db *gorm.DB, log *logger.Logger) TaskRepository {
	return &gormTaskRepository{db: db, log: log.With("component", "TaskRepository")}
}

// AutoMigrate creates the tasks table for local development; Supabase owns it in production.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&taskRecord{})
}

func (r *gormTaskRepository) FindForAnalysis(ctx context.Context, userID string, window HistoryWindow) ([]*domain.Task, error) {
	query := r.db.WithContext(ctx).Model(&taskRecord{}).Where("user_id = ?", userID)
	if window.Since != nil {
		query = query.Where("created_at >= ?", *window.Since)
	}

	// Newest first so the limit keeps the most recent history
	query = query.Order("created_at DESC, id DESC")
	if window.Limit > 0 {
		query = query.Limit(window.Limit)
	}

	var records []taskRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}

	tasks := make([]*domain.Task, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		task, err := toDomain(records[i])
		if err != nil {
			r.log.Warn("Skipping malformed task row", "task_id", records[i].ID, "error", err)
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (r *gormTaskRepository) FindActiveUserIDs(ctx context.Context, since time.Time) ([]string, error) {
	var userIDs []string
	err := r.db.WithContext(ctx).Model(&taskRecord{}).
		Where("created_at >= ?", since).
		Distinct().
		Order("user_id").
		Pluck("user_id", &userIDs).Error
	return userIDs, err
}

// toDomain is the single parse boundary between stored rows and domain tasks.
func toDomain(rec taskRecord) (*domain.Task, error) {
	if strings.TrimSpace(rec.ID) == "" {
		return nil, fmt.Errorf("missing id")
	}
	if strings.TrimSpace(rec.UserID) == "" {
		return nil, fmt.Errorf("missing user_id")
	}
	if rec.CreatedAt.IsZero() {
		return nil, fmt.Errorf("missing created_at")
	}

	priority := domain.PriorityMedium
	if strings.TrimSpace(rec.Priority) != "" {
		p, ok := domain.ParsePriority(rec.Priority)
		if !ok {
			return nil, fmt.Errorf("unknown priority %q", rec.Priority)
		}
		priority = p
	}

	status, err := parseStatus(rec.Status)
	if err != nil {
		return nil, err
	}

	task := &domain.Task{
		ID:          rec.ID,
		UserID:      rec.UserID,
		Title:       rec.Title,
		Description: rec.Description,
		Priority:    priority,
		Status:      status,
		DueDate:     rec.DueDate,
		Tags:        cleanTags(rec.Tags),
		CreatedAt:   rec.CreatedAt,
		CompletedAt: rec.CompletedAt,
	}
	if rec.Category != nil {
		task.Category = strings.TrimSpace(*rec.Category)
	}
	if rec.RecordingID != nil {
		task.RecordingID = *rec.RecordingID
	}
	if rec.DueTime != nil && strings.TrimSpace(*rec.DueTime) != "" {
		clock, ok := domain.NormalizeClock(*rec.DueTime)
		if !ok {
			return nil, fmt.Errorf("malformed due_time %q", *rec.DueTime)
		}
		task.DueTime = clock
	}
	return task, nil
}

func parseStatus(s string) (domain.TaskStatus, error) {
	switch domain.TaskStatus(strings.ToLower(strings.TrimSpace(s))) {
	case "", domain.TaskStatusPending:
		return domain.TaskStatusPending, nil
	case domain.TaskStatusInProgress:
		return domain.TaskStatusInProgress, nil
	case domain.TaskStatusCompleted:
		return domain.TaskStatusCompleted, nil
	case domain.TaskStatusCancelled:
		return domain.TaskStatusCancelled, nil
	default:
		return "", fmt.Errorf("unknown status %q", s)
	}
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
