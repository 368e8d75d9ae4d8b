package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ngandimoun/saydo-ai-sub006/internal/reminder/domain"
	taskdomain "github.com/ngandimoun/saydo-ai-sub006/internal/task/domain"
	taskrepo "github.com/ngandimoun/saydo-ai-sub006/internal/task/repository"
	"github.com/ngandimoun/saydo-ai-sub006/pkg/logger"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// reminderRecord mirrors the Supabase reminders table.
type reminderRecord struct {
	ID                string `gorm:"primaryKey;type:uuid"`
	UserID            string `gorm:"index;not null"`
	Title             string `gorm:"not null"`
	Description       string
	ReminderTime      time.Time `gorm:"not null"`
	IsRecurring       bool      `gorm:"default:false"`
	RecurrencePattern *string
	IsCompleted       bool `gorm:"default:false"`
	IsSnoozed         bool `gorm:"default:false"`
	SnoozeUntil       *time.Time
	Tags              pq.StringArray `gorm:"type:text[];not null;default:'{}'"`
	Priority          *string
	Type              string `gorm:"default:reminder"`
	CreatedAt         time.Time
}

func (reminderRecord) TableName() string {
	return "reminders"
}

type gormReminderRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewGormReminderRepository creates a new GORM-based ReminderRepository
func NewGormReminderRepository(db *gorm.DB, log *logger.Logger) ReminderRepository {
	return &gormReminderRepository{db: db, log: log.With("component", "ReminderRepository")}
}

// AutoMigrate creates the reminders table for local development.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&reminderRecord{})
}

func (r *gormReminderRepository) FindForAnalysis(ctx context.Context, userID string, window taskrepo.HistoryWindow) ([]*domain.Reminder, error) {
	query := r.db.WithContext(ctx).Model(&reminderRecord{}).Where("user_id = ?", userID)
	if window.Since != nil {
		query = query.Where("created_at >= ?", *window.Since)
	}
	query = query.Order("created_at DESC, id DESC")
	if window.Limit > 0 {
		query = query.Limit(window.Limit)
	}

	var records []reminderRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}

	reminders := make([]*domain.Reminder, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		reminder, err := toDomain(records[i])
		if err != nil {
			r.log.Warn("Skipping malformed reminder row", "reminder_id", records[i].ID, "error", err)
			continue
		}
		reminders = append(reminders, reminder)
	}
	return reminders, nil
}

func (r *gormReminderRepository) FindActiveUserIDs(ctx context.Context, since time.Time) ([]string, error) {
	var userIDs []string
	err := r.db.WithContext(ctx).Model(&reminderRecord{}).
		Where("created_at >= ?", since).
		Distinct().
		Order("user_id").
		Pluck("user_id", &userIDs).Error
	return userIDs, err
}

// toDomain is the single parse boundary between stored rows and domain reminders.
func toDomain(rec reminderRecord) (*domain.Reminder, error) {
	if strings.TrimSpace(rec.ID) == "" {
		return nil, fmt.Errorf("missing id")
	}
	if strings.TrimSpace(rec.UserID) == "" {
		return nil, fmt.Errorf("missing user_id")
	}
	if rec.CreatedAt.IsZero() {
		return nil, fmt.Errorf("missing created_at")
	}
	if rec.ReminderTime.IsZero() {
		return nil, fmt.Errorf("missing reminder_time")
	}

	reminderType, err := parseType(rec.Type)
	if err != nil {
		return nil, err
	}

	reminder := &domain.Reminder{
		ID:           rec.ID,
		UserID:       rec.UserID,
		Title:        rec.Title,
		Description:  rec.Description,
		ReminderTime: rec.ReminderTime,
		IsRecurring:  rec.IsRecurring,
		IsCompleted:  rec.IsCompleted,
		IsSnoozed:    rec.IsSnoozed,
		SnoozeUntil:  rec.SnoozeUntil,
		Type:         reminderType,
		CreatedAt:    rec.CreatedAt,
	}
	if rec.RecurrencePattern != nil {
		reminder.RecurrencePattern = strings.ToLower(strings.TrimSpace(*rec.RecurrencePattern))
	}
	if rec.Priority != nil && strings.TrimSpace(*rec.Priority) != "" {
		p, ok := taskdomain.ParsePriority(*rec.Priority)
		if !ok {
			return nil, fmt.Errorf("unknown priority %q", *rec.Priority)
		}
		reminder.Priority = p
	}
	for _, t := range rec.Tags {
		if t = strings.TrimSpace(t); t != "" {
			reminder.Tags = append(reminder.Tags, t)
		}
	}
	return reminder, nil
}

func parseType(s string) (domain.ReminderType, error) {
	switch domain.ReminderType(strings.ToLower(strings.TrimSpace(s))) {
	case "", domain.ReminderTypeReminder:
		return domain.ReminderTypeReminder, nil
	case domain.ReminderTypeTask:
		return domain.ReminderTypeTask, nil
	case domain.ReminderTypeTodo:
		return domain.ReminderTypeTodo, nil
	default:
		return "", fmt.Errorf("unknown reminder type %q", s)
	}
}
