package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ngandimoun/saydo-ai-sub006/internal/pattern/domain"
	"github.com/ngandimoun/saydo-ai-sub006/internal/pattern/extractor"
	"github.com/ngandimoun/saydo-ai-sub006/internal/pattern/scoring"
	reminderdomain "github.com/ngandimoun/saydo-ai-sub006/internal/reminder/domain"
	taskdomain "github.com/ngandimoun/saydo-ai-sub006/internal/task/domain"
	taskrepo "github.com/ngandimoun/saydo-ai-sub006/internal/task/repository"
	"github.com/ngandimoun/saydo-ai-sub006/pkg/logger"
	"github.com/ngandimoun/saydo-ai-sub006/pkg/metrics"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	lockKeyPrefix = "saydo:patterns:lock:"
	// lockGrace keeps the lock alive a little past the run deadline.
	lockGrace      = 30 * time.Second
	extractWorkers = 3
	analyzerName   = "saydo-patterns/v1"

	defaultTimeout = 60 * time.Second
)

// patternUsecase implements PatternUsecase interface
type patternUsecase struct {
	deps Dependencies
	log  *logger.Logger
}

// NewPatternUsecase creates a new instance of patternUsecase
func NewPatternUsecase(deps Dependencies) PatternUsecase {
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.Timeout <= 0 {
		deps.Timeout = defaultTimeout
	}
	return &patternUsecase{deps: deps, log: deps.Logger.With("component", "PatternUsecase")}
}

func (u *patternUsecase) AnalyzeUserPatterns(ctx context.Context, userID string) (*AnalysisResult, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		metrics.AnalysisRuns.WithLabelValues("invalid").Inc()
		return nil, domain.ErrInvalidUserID
	}

	started := time.Now()
	defer func() { metrics.AnalysisDuration.Observe(time.Since(started).Seconds()) }()

	release, err := u.lock(ctx, userID)
	if err != nil {
		metrics.AnalysisRuns.WithLabelValues("in_progress").Inc()
		return nil, err
	}
	defer release()

	ctx, cancel := context.WithTimeout(ctx, u.deps.Timeout)
	defer cancel()

	runID := uuid.NewString()
	log := u.log.With("user_id", userID, "run_id", runID)
	now := u.deps.Clock()

	tasks, reminders, err := u.fetchHistory(ctx, userID, now)
	if err != nil {
		metrics.AnalysisRuns.WithLabelValues("fetch_error").Inc()
		log.Error("Failed to fetch activity history", "error", err)
		return nil, err
	}
	log.Debug("Fetched activity history", "tasks", len(tasks), "reminders", len(reminders))

	items := extractor.FromHistory(tasks, reminders)
	learned, saveFailures := u.extractAndSave(ctx, userID, runID, items, now, log)

	rescored, rescoreFailures, total := u.rescore(ctx, userID, log)

	if err := ctx.Err(); err != nil {
		metrics.AnalysisRuns.WithLabelValues("timeout").Inc()
		log.Error("Pattern analysis did not finish in time", "timeout", u.deps.Timeout, "error", err)
		return nil, fmt.Errorf("pattern analysis: %w", err)
	}

	result := &AnalysisResult{
		PatternsLearned:   learned,
		TasksAnalyzed:     len(tasks),
		RemindersAnalyzed: len(reminders),
		TotalPatterns:     total,
		SaveFailures:      saveFailures,
		PatternsRescored:  rescored,
		RescoreFailures:   rescoreFailures,
	}
	log.Info("Pattern analysis completed",
		"patterns_learned", len(learned),
		"save_failures", saveFailures,
		"patterns_rescored", rescored,
		"rescore_failures", rescoreFailures,
		"total_patterns", total,
	)
	metrics.AnalysisRuns.WithLabelValues("success").Inc()

	u.publish(ctx, userID, result, log)
	return result, nil
}

// lock takes the per-user run lock. Without a Locker it is a no-op.
func (u *patternUsecase) lock(ctx context.Context, userID string) (func(), error) {
	if u.deps.Locker == nil {
		return func() {}, nil
	}

	key := lockKeyPrefix + userID
	token := uuid.NewString()
	ok, err := u.deps.Locker.Acquire(ctx, key, token, u.deps.Timeout+lockGrace)
	if err != nil {
		// A lock outage must not block analysis entirely.
		u.log.Warn("Failed to acquire analysis lock, continuing without it", "user_id", userID, "error", err)
		return func() {}, nil
	}
	if !ok {
		return nil, domain.ErrAnalysisInProgress
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := u.deps.Locker.Release(releaseCtx, key, token); err != nil {
			u.log.Warn("Failed to release analysis lock", "user_id", userID, "error", err)
		}
	}, nil
}

func (u *patternUsecase) historyWindow(now time.Time) taskrepo.HistoryWindow {
	var window taskrepo.HistoryWindow
	if u.deps.HistoryLimit != nil {
		window.Limit = u.deps.HistoryLimit()
	}
	if u.deps.HistoryWindowDays != nil {
		if days := u.deps.HistoryWindowDays(); days > 0 {
			since := now.AddDate(0, 0, -days)
			window.Since = &since
		}
	}
	return window
}

// fetchHistory reads tasks and reminders concurrently; either failure aborts.
func (u *patternUsecase) fetchHistory(ctx context.Context, userID string, now time.Time) ([]*taskdomain.Task, []*reminderdomain.Reminder, error) {
	window := u.historyWindow(now)

	var (
		tasks     []*taskdomain.Task
		reminders []*reminderdomain.Reminder
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tasks, err = u.deps.Tasks.FindForAnalysis(gctx, userID, window)
		if err != nil {
			return fmt.Errorf("tasks: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		reminders, err = u.deps.Reminders.FindForAnalysis(gctx, userID, window)
		if err != nil {
			return fmt.Errorf("reminders: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", domain.ErrHistoryFetch, err)
	}
	return tasks, reminders, nil
}

type extractJob struct {
	patternType domain.PatternType
	sampleSize  int
	extract     func() domain.Payload
}

// plan lists the extractions that apply to this history. Timing always runs.
func (u *patternUsecase) plan(items []extractor.Item, now time.Time) []extractJob {
	loc := u.deps.Location
	jobs := []extractJob{{
		patternType: domain.PatternTypeTiming,
		sampleSize:  len(items),
		extract:     func() domain.Payload { return extractor.Timing(items, loc) },
	}}

	if categorized := extractor.Filter(items, extractor.HasCategory); len(categorized) > 0 {
		jobs = append(jobs, extractJob{domain.PatternTypeCategory, len(categorized), func() domain.Payload {
			return extractor.Category(categorized)
		}})
	}
	if prioritized := extractor.Filter(items, extractor.HasPriority); len(prioritized) > 0 {
		jobs = append(jobs, extractJob{domain.PatternTypePriority, len(prioritized), func() domain.Payload {
			return extractor.Priority(prioritized)
		}})
	}
	if tagged := extractor.Filter(items, extractor.HasTags); len(tagged) > 0 {
		jobs = append(jobs, extractJob{domain.PatternTypeTags, len(tagged), func() domain.Payload {
			return extractor.Tags(tagged)
		}})
	}
	if tasks := extractor.Filter(items, extractor.IsTask); len(tasks) > 0 {
		jobs = append(jobs, extractJob{domain.PatternTypeCompletion, len(tasks), func() domain.Payload {
			return extractor.Completion(tasks, now, loc)
		}})
	}
	if recurring := extractor.Filter(items, extractor.IsRecurring); len(recurring) > 0 {
		jobs = append(jobs, extractJob{domain.PatternTypeRecurring, len(recurring), func() domain.Payload {
			return extractor.Recurring(recurring, loc)
		}})
	}
	return jobs
}

// extractAndSave runs every applicable extractor in parallel and saves each
// result as soon as it is ready. A failed save is counted and skipped.
func (u *patternUsecase) extractAndSave(ctx context.Context, userID, runID string, items []extractor.Item, now time.Time, log *logger.Logger) ([]domain.PatternType, int) {
	jobs := u.plan(items, now)
	saved := make([]bool, len(jobs))

	var (
		mu       sync.Mutex
		failures int
	)
	g := new(errgroup.Group)
	g.SetLimit(extractWorkers)
	for i, job := range jobs {
		g.Go(func() error {
			metadata := map[string]interface{}{
				"sampleSize": job.sampleSize,
				"analyzer":   analyzerName,
				"runId":      runID,
			}
			if _, err := u.deps.Store.SavePattern(ctx, userID, job.patternType, job.extract(), metadata); err != nil {
				log.Error("Failed to save pattern", "pattern_type", job.patternType, "error", err)
				mu.Lock()
				failures++
				mu.Unlock()
				return nil
			}
			saved[i] = true
			return nil
		})
	}
	_ = g.Wait()

	learned := make([]domain.PatternType, 0, len(jobs))
	for i, job := range jobs {
		if saved[i] {
			learned = append(learned, job.patternType)
		}
	}
	return learned, failures
}

// rescore reloads every stored pattern and writes back confidences that changed.
func (u *patternUsecase) rescore(ctx context.Context, userID string, log *logger.Logger) (rescored, failures, total int) {
	patterns, err := u.deps.Store.LoadUserPatterns(ctx, userID)
	if err != nil {
		log.Error("Failed to load patterns for rescoring", "error", err)
		return 0, 1, len(u.deps.Store.GetUserPatterns(ctx, userID, nil))
	}

	for _, p := range patterns {
		score := scoring.Rescore(p)
		if score == p.ConfidenceScore {
			metrics.RescoreWrites.WithLabelValues("unchanged").Inc()
			continue
		}
		if err := u.deps.Store.UpdateConfidence(ctx, p.ID, userID, score); err != nil {
			log.Error("Failed to update pattern confidence", "pattern_id", p.ID, "pattern_type", p.PatternType, "error", err)
			metrics.RescoreWrites.WithLabelValues("error").Inc()
			failures++
			continue
		}
		metrics.RescoreWrites.WithLabelValues("success").Inc()
		rescored++
	}
	return rescored, failures, len(patterns)
}

func (u *patternUsecase) publish(ctx context.Context, userID string, result *AnalysisResult, log *logger.Logger) {
	if u.deps.Publisher == nil || len(result.PatternsLearned) == 0 {
		return
	}
	event := PatternsUpdatedEvent{
		Type:            PatternsUpdatedEventType,
		UserID:          userID,
		PatternsLearned: result.PatternsLearned,
		TotalPatterns:   result.TotalPatterns,
		At:              u.deps.Clock().UTC(),
	}
	if err := u.deps.Publisher.PublishPatternsUpdated(ctx, event); err != nil {
		log.Warn("Failed to publish patterns update", "error", err)
	}
}

func (u *patternUsecase) GetUserPatterns(ctx context.Context, userID string, patternType *domain.PatternType) []*domain.Pattern {
	if strings.TrimSpace(userID) == "" {
		return []*domain.Pattern{}
	}
	return u.deps.Store.GetUserPatterns(ctx, userID, patternType)
}

func (u *patternUsecase) DeleteUserPatterns(ctx context.Context, userID string, patternType *domain.PatternType) (int64, error) {
	n, err := u.deps.Store.DeleteUserPatterns(ctx, userID, patternType)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidUserID) {
			return 0, err
		}
		return 0, fmt.Errorf("delete patterns: %w", err)
	}
	u.log.Info("Deleted user patterns", "user_id", userID, "deleted", n)
	return n, nil
}
