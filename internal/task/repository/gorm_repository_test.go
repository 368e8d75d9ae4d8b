package repository

import (
	"context"
	"testing"
	"time"

	"github.com/ngandimoun/saydo-ai-sub006/internal/task/domain"
	"github.com/ngandimoun/saydo-ai-sub006/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestToDomain_NormalizesRow(t *testing.T) {
	created := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	rec := taskRecord{
		ID:        "t1",
		UserID:    "u1",
		Title:     "Book lab appointment",
		Priority:  "HIGH",
		Status:    "",
		DueTime:   strPtr("9:30"),
		Category:  strPtr(" health "),
		Tags:      []string{"labs", " ", "doctor"},
		CreatedAt: created,
	}

	task, err := toDomain(rec)
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityHigh, task.Priority)
	assert.Equal(t, domain.TaskStatusPending, task.Status)
	assert.Equal(t, "09:30", task.DueTime)
	assert.Equal(t, "health", task.Category)
	assert.Equal(t, []string{"labs", "doctor"}, task.Tags)
}

func TestToDomain_EmptyPriorityDefaultsToMedium(t *testing.T) {
	task, err := toDomain(taskRecord{ID: "t1", UserID: "u1", CreatedAt: time.Now()})
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityMedium, task.Priority)
}

func TestToDomain_RejectsMalformedRows(t *testing.T) {
	now := time.Now()
	cases := map[string]taskRecord{
		"missing id":       {UserID: "u1", CreatedAt: now},
		"missing user":     {ID: "t1", CreatedAt: now},
		"missing created":  {ID: "t1", UserID: "u1"},
		"unknown priority": {ID: "t1", UserID: "u1", CreatedAt: now, Priority: "someday"},
		"unknown status":   {ID: "t1", UserID: "u1", CreatedAt: now, Status: "archived"},
		"bad due time":     {ID: "t1", UserID: "u1", CreatedAt: now, DueTime: strPtr("25:00")},
	}
	for name, rec := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := toDomain(rec)
			assert.Error(t, err)
		})
	}
}

func TestFindForAnalysis_WindowKeepsMostRecentAscending(t *testing.T) {
	db := testutil.DB(t)
	require.NoError(t, AutoMigrate(db))
	tx := testutil.Tx(t, db)

	userID := uuid.NewString()
	base := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, tx.Create(&taskRecord{
			ID:        uuid.NewString(),
			UserID:    userID,
			Title:     "task",
			Priority:  "medium",
			Status:    "pending",
			CreatedAt: base.AddDate(0, 0, i),
		}).Error)
	}
	// Malformed rows are skipped, not fatal
	require.NoError(t, tx.Create(&taskRecord{
		ID: uuid.NewString(), UserID: userID, Title: "bad", Priority: "someday", CreatedAt: base.AddDate(0, 0, -10),
	}).Error)

	repo := NewGormTaskRepository(tx, testutil.Logger(t))
	ctx := context.Background()

	since := base.AddDate(0, 0, 1)
	tasks, err := repo.FindForAnalysis(ctx, userID, HistoryWindow{Since: &since, Limit: 3})
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.True(t, tasks[0].CreatedAt.Equal(base.AddDate(0, 0, 2)))
	assert.True(t, tasks[2].CreatedAt.Equal(base.AddDate(0, 0, 4)))

	all, err := repo.FindForAnalysis(ctx, userID, HistoryWindow{})
	require.NoError(t, err)
	assert.Len(t, all, 5)

	users, err := repo.FindActiveUserIDs(ctx, base)
	require.NoError(t, err)
	assert.Contains(t, users, userID)
}
