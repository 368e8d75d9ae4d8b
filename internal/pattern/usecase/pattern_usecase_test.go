package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngandimoun/saydo-ai-sub006/internal/pattern/domain"
	reminderdomain "github.com/ngandimoun/saydo-ai-sub006/internal/reminder/domain"
	taskdomain "github.com/ngandimoun/saydo-ai-sub006/internal/task/domain"
	taskrepo "github.com/ngandimoun/saydo-ai-sub006/internal/task/repository"
	"github.com/ngandimoun/saydo-ai-sub006/pkg/logger"
)

var testNow = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

type fakeTasks struct {
	tasks  []*taskdomain.Task
	err    error
	window taskrepo.HistoryWindow
	// block makes FindForAnalysis wait for the context to end.
	block bool
}

func (f *fakeTasks) FindForAnalysis(ctx context.Context, _ string, window taskrepo.HistoryWindow) ([]*taskdomain.Task, error) {
	f.window = window
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.tasks, f.err
}

func (f *fakeTasks) FindActiveUserIDs(context.Context, time.Time) ([]string, error) {
	return nil, nil
}

type fakeReminders struct {
	reminders []*reminderdomain.Reminder
	err       error
}

func (f *fakeReminders) FindForAnalysis(context.Context, string, taskrepo.HistoryWindow) ([]*reminderdomain.Reminder, error) {
	return f.reminders, f.err
}

func (f *fakeReminders) FindActiveUserIDs(context.Context, time.Time) ([]string, error) {
	return nil, nil
}

// fakeStore keeps one user's patterns in memory with upsert semantics.
type fakeStore struct {
	mu        sync.Mutex
	patterns  map[domain.PatternType]*domain.Pattern
	failSave  map[domain.PatternType]bool
	failRank  bool
	updates   int
	saveCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		patterns: make(map[domain.PatternType]*domain.Pattern),
		failSave: make(map[domain.PatternType]bool),
	}
}

func (s *fakeStore) SavePattern(_ context.Context, userID string, t domain.PatternType, payload domain.Payload, _ map[string]interface{}) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveCalls++
	if s.failSave[t] {
		return "", errors.New("write failed")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	if p, ok := s.patterns[t]; ok {
		p.PatternData = data
		p.Frequency++
		return p.ID, nil
	}
	s.patterns[t] = &domain.Pattern{
		ID:              string(t) + "-id",
		UserID:          userID,
		PatternType:     t,
		PatternData:     data,
		Frequency:       domain.InitialFrequency,
		ConfidenceScore: domain.InitialConfidence,
	}
	return s.patterns[t].ID, nil
}

func (s *fakeStore) snapshot() []*domain.Pattern {
	out := make([]*domain.Pattern, 0, len(s.patterns))
	for _, t := range domain.AllPatternTypes {
		if p, ok := s.patterns[t]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out
}

func (s *fakeStore) GetUserPatterns(context.Context, string, *domain.PatternType) []*domain.Pattern {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *fakeStore) LoadUserPatterns(context.Context, string) ([]*domain.Pattern, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(), nil
}

func (s *fakeStore) UpdateConfidence(_ context.Context, id, _ string, score int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failRank {
		return errors.New("write failed")
	}
	for _, p := range s.patterns {
		if p.ID == id {
			p.ConfidenceScore = score
			s.updates++
			return nil
		}
	}
	return errors.New("not found")
}

func (s *fakeStore) DeleteUserPatterns(context.Context, string, *domain.PatternType) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.patterns))
	s.patterns = make(map[domain.PatternType]*domain.Pattern)
	return n, nil
}

type fakeLocker struct {
	held     bool
	acquired []string
	released []string
}

func (l *fakeLocker) Acquire(_ context.Context, key, _ string, _ time.Duration) (bool, error) {
	if l.held {
		return false, nil
	}
	l.acquired = append(l.acquired, key)
	return true, nil
}

func (l *fakeLocker) Release(_ context.Context, key, _ string) (bool, error) {
	l.released = append(l.released, key)
	return true, nil
}

type fakePublisher struct {
	events []PatternsUpdatedEvent
}

func (p *fakePublisher) PublishPatternsUpdated(_ context.Context, e PatternsUpdatedEvent) error {
	p.events = append(p.events, e)
	return nil
}

func sampleTasks() []*taskdomain.Task {
	due := testNow.Add(-48 * time.Hour)
	done := testNow.Add(-72 * time.Hour)
	return []*taskdomain.Task{
		{ID: "t1", UserID: "u1", Title: "Write report", Priority: taskdomain.PriorityHigh, Status: taskdomain.TaskStatusCompleted,
			Category: "work", Tags: []string{"writing", "deadline"}, CreatedAt: testNow.Add(-96 * time.Hour), DueDate: &due, CompletedAt: &done},
		{ID: "t2", UserID: "u1", Title: "Book dentist", Priority: taskdomain.PriorityMedium, Status: taskdomain.TaskStatusPending,
			Category: "health", CreatedAt: testNow.Add(-50 * time.Hour)},
	}
}

func newTestUsecase(tasks *fakeTasks, reminders *fakeReminders, store *fakeStore) *patternUsecase {
	uc := NewPatternUsecase(Dependencies{
		Tasks:             tasks,
		Reminders:         reminders,
		Store:             store,
		Logger:            logger.Nop(),
		Clock:             func() time.Time { return testNow },
		Timeout:           5 * time.Second,
		HistoryLimit:      func() int { return 500 },
		HistoryWindowDays: func() int { return 30 },
	})
	return uc.(*patternUsecase)
}

func TestAnalyzeLearnsApplicablePatternsOnly(t *testing.T) {
	tasks := &fakeTasks{tasks: sampleTasks()}
	store := newFakeStore()
	uc := newTestUsecase(tasks, &fakeReminders{}, store)

	result, err := uc.AnalyzeUserPatterns(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, []domain.PatternType{
		domain.PatternTypeTiming,
		domain.PatternTypeCategory,
		domain.PatternTypePriority,
		domain.PatternTypeTags,
		domain.PatternTypeCompletion,
	}, result.PatternsLearned)
	assert.NotContains(t, result.PatternsLearned, domain.PatternTypeRecurring)
	assert.Equal(t, 2, result.TasksAnalyzed)
	assert.Zero(t, result.RemindersAnalyzed)
	assert.Equal(t, 5, result.TotalPatterns)
	assert.Zero(t, result.SaveFailures)

	assert.Equal(t, 500, tasks.window.Limit)
	require.NotNil(t, tasks.window.Since)
	assert.Equal(t, testNow.AddDate(0, 0, -30), *tasks.window.Since)
}

func TestAnalyzeRecurringReminders(t *testing.T) {
	reminders := &fakeReminders{reminders: []*reminderdomain.Reminder{
		{ID: "r1", UserID: "u1", Title: "Vitamins", ReminderTime: testNow, IsRecurring: true, RecurrencePattern: "daily", CreatedAt: testNow.Add(-time.Hour)},
	}}
	store := newFakeStore()
	uc := newTestUsecase(&fakeTasks{}, reminders, store)

	result, err := uc.AnalyzeUserPatterns(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, []domain.PatternType{domain.PatternTypeTiming, domain.PatternTypeRecurring}, result.PatternsLearned)
	assert.Equal(t, 1, result.RemindersAnalyzed)
}

func TestAnalyzeEmptyHistory(t *testing.T) {
	store := newFakeStore()
	uc := newTestUsecase(&fakeTasks{}, &fakeReminders{}, store)

	result, err := uc.AnalyzeUserPatterns(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, []domain.PatternType{domain.PatternTypeTiming}, result.PatternsLearned)
	assert.Equal(t, 1, result.TotalPatterns)

	payload, err := domain.DecodePayload(domain.PatternTypeTiming, store.patterns[domain.PatternTypeTiming].PatternData)
	require.NoError(t, err)
	timing := payload.(domain.TimingData)
	assert.Zero(t, timing.SampleSize)
	assert.Empty(t, timing.CreationHours)
	assert.Empty(t, timing.DueTimes)
}

func TestAnalyzeRejectsEmptyUser(t *testing.T) {
	store := newFakeStore()
	uc := newTestUsecase(&fakeTasks{}, &fakeReminders{}, store)

	_, err := uc.AnalyzeUserPatterns(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidUserID)
	assert.Zero(t, store.saveCalls)
}

func TestAnalyzeAbortsOnFetchFailure(t *testing.T) {
	store := newFakeStore()
	uc := newTestUsecase(&fakeTasks{tasks: sampleTasks()}, &fakeReminders{err: errors.New("db down")}, store)

	result, err := uc.AnalyzeUserPatterns(context.Background(), "u1")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrHistoryFetch)
	assert.Contains(t, err.Error(), "db down")
	assert.Zero(t, store.saveCalls, "nothing is saved after a failed fetch")
}

func TestAnalyzeSaveFailureIsPartialSuccess(t *testing.T) {
	store := newFakeStore()
	store.failSave[domain.PatternTypeCategory] = true
	uc := newTestUsecase(&fakeTasks{tasks: sampleTasks()}, &fakeReminders{}, store)

	result, err := uc.AnalyzeUserPatterns(context.Background(), "u1")
	require.NoError(t, err)

	assert.NotContains(t, result.PatternsLearned, domain.PatternTypeCategory)
	assert.Contains(t, result.PatternsLearned, domain.PatternTypeTiming)
	assert.Contains(t, result.PatternsLearned, domain.PatternTypeCompletion)
	assert.Equal(t, 1, result.SaveFailures)
	assert.Equal(t, 4, result.TotalPatterns)
}

func TestRescoreIsIdempotent(t *testing.T) {
	store := newFakeStore()
	uc := newTestUsecase(&fakeTasks{tasks: sampleTasks()}, &fakeReminders{}, store)
	ctx := context.Background()

	first, err := uc.AnalyzeUserPatterns(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, first.PatternsRescored, "first observations keep the initial confidence")

	second, err := uc.AnalyzeUserPatterns(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, second.TotalPatterns, second.PatternsRescored)
	for _, p := range store.patterns {
		assert.Equal(t, 2, p.Frequency)
		assert.Greater(t, p.ConfidenceScore, domain.InitialConfidence)
	}

	updates := store.updates
	rescored, failures, total := uc.rescore(ctx, "u1", logger.Nop())
	assert.Zero(t, rescored)
	assert.Zero(t, failures)
	assert.Equal(t, second.TotalPatterns, total)
	assert.Equal(t, updates, store.updates, "an unchanged score is not written again")
}

func TestAnalyzeRescoreFailuresAreCounted(t *testing.T) {
	store := newFakeStore()
	uc := newTestUsecase(&fakeTasks{tasks: sampleTasks()}, &fakeReminders{}, store)
	ctx := context.Background()

	_, err := uc.AnalyzeUserPatterns(ctx, "u1")
	require.NoError(t, err)

	store.failRank = true
	result, err := uc.AnalyzeUserPatterns(ctx, "u1")
	require.NoError(t, err, "rescore failures never fail the run")

	assert.Len(t, result.PatternsLearned, 5)
	assert.Equal(t, 5, result.TotalPatterns)
	assert.Equal(t, result.TotalPatterns, result.RescoreFailures)
	assert.Zero(t, result.PatternsRescored)
	for _, p := range store.patterns {
		assert.Equal(t, domain.InitialConfidence, p.ConfidenceScore)
	}
}

func TestAnalyzeHonoursDeadline(t *testing.T) {
	store := newFakeStore()
	uc := newTestUsecase(&fakeTasks{tasks: sampleTasks(), block: true}, &fakeReminders{}, store)
	uc.deps.Timeout = 20 * time.Millisecond

	result, err := uc.AnalyzeUserPatterns(context.Background(), "u1")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrHistoryFetch)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, store.saveCalls, "nothing is saved when the fetch times out")
}

func TestAnalyzeDeadlineAfterSavesIsReported(t *testing.T) {
	store := newFakeStore()
	uc := newTestUsecase(&fakeTasks{tasks: sampleTasks()}, &fakeReminders{}, store)
	uc.deps.Timeout = time.Nanosecond

	result, err := uc.AnalyzeUserPatterns(context.Background(), "u1")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.EqualError(t, err, "pattern analysis: context deadline exceeded")
	assert.Equal(t, 5, store.saveCalls)
	assert.Len(t, store.patterns, 5, "patterns saved before the deadline stay stored")
}

func TestAnalyzeRejectsConcurrentRun(t *testing.T) {
	locker := &fakeLocker{held: true}
	store := newFakeStore()
	uc := newTestUsecase(&fakeTasks{tasks: sampleTasks()}, &fakeReminders{}, store)
	uc.deps.Locker = locker

	_, err := uc.AnalyzeUserPatterns(context.Background(), "u1")

	assert.ErrorIs(t, err, domain.ErrAnalysisInProgress)
	assert.Zero(t, store.saveCalls)
}

func TestAnalyzeReleasesLockAndPublishes(t *testing.T) {
	locker := &fakeLocker{}
	publisher := &fakePublisher{}
	uc := newTestUsecase(&fakeTasks{tasks: sampleTasks()}, &fakeReminders{}, newFakeStore())
	uc.deps.Locker = locker
	uc.deps.Publisher = publisher

	result, err := uc.AnalyzeUserPatterns(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, []string{"saydo:patterns:lock:u1"}, locker.acquired)
	assert.Equal(t, locker.acquired, locker.released)

	require.Len(t, publisher.events, 1)
	event := publisher.events[0]
	assert.Equal(t, PatternsUpdatedEventType, event.Type)
	assert.Equal(t, "u1", event.UserID)
	assert.Equal(t, result.PatternsLearned, event.PatternsLearned)
	assert.Equal(t, testNow, event.At)
}

func TestDeleteUserPatterns(t *testing.T) {
	store := newFakeStore()
	uc := newTestUsecase(&fakeTasks{tasks: sampleTasks()}, &fakeReminders{}, store)
	ctx := context.Background()

	_, err := uc.AnalyzeUserPatterns(ctx, "u1")
	require.NoError(t, err)

	n, err := uc.DeleteUserPatterns(ctx, "u1", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
	assert.Empty(t, uc.GetUserPatterns(ctx, "u1", nil))
}
