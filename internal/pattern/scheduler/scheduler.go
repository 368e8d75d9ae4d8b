package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ngandimoun/saydo-ai-sub006/internal/pattern/domain"
	"github.com/ngandimoun/saydo-ai-sub006/internal/pattern/usecase"
	reminderrepo "github.com/ngandimoun/saydo-ai-sub006/internal/reminder/repository"
	taskrepo "github.com/ngandimoun/saydo-ai-sub006/internal/task/repository"
	"github.com/ngandimoun/saydo-ai-sub006/pkg/logger"

	"github.com/go-co-op/gocron/v2"
	"github.com/robfig/cron/v3"
)

// Analyzer is the part of the pattern usecase the scheduler drives
type Analyzer interface {
	AnalyzeUserPatterns(ctx context.Context, userID string) (*usecase.AnalysisResult, error)
}

// PatternAnalysisScheduler re-analyzes every recently active user on a cron schedule
type PatternAnalysisScheduler struct {
	scheduler  gocron.Scheduler
	analyzer   Analyzer
	taskRepo   taskrepo.TaskRepository
	remindRepo reminderrepo.ReminderRepository
	windowDays func() int
	cronExpr   string
	log        *logger.Logger
	now        func() time.Time
}

// ValidateCron checks a standard five-field cron expression
func ValidateCron(expr string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(expr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return nil
}

// NewPatternAnalysisScheduler creates a new scheduler
func NewPatternAnalysisScheduler(
	analyzer Analyzer,
	taskRepo taskrepo.TaskRepository,
	remindRepo reminderrepo.ReminderRepository,
	cronExpr string,
	loc *time.Location,
	windowDays func() int,
	log *logger.Logger,
) (*PatternAnalysisScheduler, error) {
	if err := ValidateCron(cronExpr); err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.UTC
	}

	s, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &PatternAnalysisScheduler{
		scheduler:  s,
		analyzer:   analyzer,
		taskRepo:   taskRepo,
		remindRepo: remindRepo,
		windowDays: windowDays,
		cronExpr:   cronExpr,
		log:        log.With("component", "PatternScheduler"),
		now:        time.Now,
	}, nil
}

// Start registers the analysis job and begins the scheduler loop
func (s *PatternAnalysisScheduler) Start() error {
	_, err := s.scheduler.NewJob(
		gocron.CronJob(s.cronExpr, false),
		gocron.NewTask(func() {
			s.RunOnce(context.Background())
		}),
		gocron.WithName("pattern-analysis"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	s.scheduler.Start()
	s.log.Info("Pattern analysis scheduler started", "cron", s.cronExpr)
	return nil
}

// Stop gracefully stops the scheduler
func (s *PatternAnalysisScheduler) Stop() error {
	s.log.Info("Pattern analysis scheduler stopped")
	return s.scheduler.Shutdown()
}

// RunOnce analyzes every user with activity inside the history window.
// Per-user failures are logged and do not stop the sweep.
func (s *PatternAnalysisScheduler) RunOnce(ctx context.Context) (analyzed, failed int) {
	users, err := s.activeUsers(ctx)
	if err != nil {
		s.log.Error("Failed to list active users", "error", err)
		return 0, 0
	}
	s.log.Info("Running scheduled pattern analysis", "users", len(users))

	for _, userID := range users {
		if ctx.Err() != nil {
			break
		}
		_, err := s.analyzer.AnalyzeUserPatterns(ctx, userID)
		switch {
		case err == nil:
			analyzed++
		case errors.Is(err, domain.ErrAnalysisInProgress):
			s.log.Debug("Skipping user with analysis in progress", "user_id", userID)
		default:
			failed++
			s.log.Error("Scheduled pattern analysis failed", "user_id", userID, "error", err)
		}
	}

	s.log.Info("Scheduled pattern analysis finished", "analyzed", analyzed, "failed", failed)
	return analyzed, failed
}

// activeUsers merges task and reminder authors, sorted for a stable sweep order
func (s *PatternAnalysisScheduler) activeUsers(ctx context.Context) ([]string, error) {
	var since time.Time
	if s.windowDays != nil {
		if days := s.windowDays(); days > 0 {
			since = s.now().AddDate(0, 0, -days)
		}
	}

	fromTasks, err := s.taskRepo.FindActiveUserIDs(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("tasks: %w", err)
	}
	fromReminders, err := s.remindRepo.FindActiveUserIDs(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("reminders: %w", err)
	}

	seen := make(map[string]struct{}, len(fromTasks)+len(fromReminders))
	users := make([]string, 0, len(fromTasks)+len(fromReminders))
	for _, id := range append(fromTasks, fromReminders...) {
		if _, dup := seen[id]; dup || id == "" {
			continue
		}
		seen[id] = struct{}{}
		users = append(users, id)
	}
	sort.Strings(users)
	return users, nil
}
