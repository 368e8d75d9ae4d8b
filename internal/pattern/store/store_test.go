package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngandimoun/saydo-ai-sub006/internal/pattern/domain"
	"github.com/ngandimoun/saydo-ai-sub006/pkg/logger"
)

type fakeRepo struct {
	mu        sync.Mutex
	patterns  []*domain.Pattern
	finds     int
	findErr   error
	upsertErr error
	// afterFind runs once, outside the lock, after FindByUser has read its rows.
	afterFind func()
}

func (f *fakeRepo) Upsert(_ context.Context, p *domain.Pattern) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return "", f.upsertErr
	}
	for _, existing := range f.patterns {
		if existing.UserID == p.UserID && existing.PatternType == p.PatternType {
			existing.PatternData = p.PatternData
			existing.Frequency++
			existing.LastSeenAt = p.LastSeenAt
			return existing.ID, nil
		}
	}
	stored := *p
	stored.ID = string(p.PatternType) + "-id"
	f.patterns = append(f.patterns, &stored)
	return stored.ID, nil
}

func (f *fakeRepo) FindByUser(_ context.Context, userID string, t *domain.PatternType) ([]*domain.Pattern, error) {
	out, err := f.find(userID, t)
	if hook := f.afterFind; hook != nil {
		f.afterFind = nil
		hook()
	}
	return out, err
}

func (f *fakeRepo) find(userID string, t *domain.PatternType) ([]*domain.Pattern, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finds++
	if f.findErr != nil {
		return nil, f.findErr
	}
	var out []*domain.Pattern
	for _, p := range f.patterns {
		if p.UserID == userID && (t == nil || p.PatternType == *t) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdateConfidence(_ context.Context, id, userID string, score int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.patterns {
		if p.ID == id && p.UserID == userID {
			p.ConfidenceScore = score
			return nil
		}
	}
	return errors.New("not found")
}

func (f *fakeRepo) DeleteByUser(_ context.Context, userID string, t *domain.PatternType) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []*domain.Pattern
	var n int64
	for _, p := range f.patterns {
		if p.UserID == userID && (t == nil || p.PatternType == *t) {
			n++
			continue
		}
		kept = append(kept, p)
	}
	f.patterns = kept
	return n, nil
}

func newStore(repo *fakeRepo) *Store {
	s := New(repo, time.Minute, logger.Nop())
	s.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	return s
}

func TestSavePatternInsertsThenUpdates(t *testing.T) {
	repo := &fakeRepo{}
	s := newStore(repo)
	ctx := context.Background()

	id, err := s.SavePattern(ctx, "u1", domain.PatternTypeCategory, domain.CategoryData{SampleSize: 1}, map[string]interface{}{"run": 1})
	require.NoError(t, err)

	require.Len(t, repo.patterns, 1)
	assert.Equal(t, domain.InitialFrequency, repo.patterns[0].Frequency)
	assert.Equal(t, domain.InitialConfidence, repo.patterns[0].ConfidenceScore)
	assert.JSONEq(t, `{"run":1}`, string(repo.patterns[0].Metadata))

	again, err := s.SavePattern(ctx, "u1", domain.PatternTypeCategory, domain.CategoryData{SampleSize: 2}, nil)
	require.NoError(t, err)
	assert.Equal(t, id, again)
	assert.Equal(t, 2, repo.patterns[0].Frequency)
	assert.Contains(t, string(repo.patterns[0].PatternData), `"sampleSize":2`)
}

func TestSavePatternValidates(t *testing.T) {
	s := newStore(&fakeRepo{})
	ctx := context.Background()

	_, err := s.SavePattern(ctx, " ", domain.PatternTypeTiming, domain.TimingData{}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidUserID)

	_, err = s.SavePattern(ctx, "u1", "mood", domain.TimingData{}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidPatternType)

	_, err = s.SavePattern(ctx, "u1", domain.PatternTypeTags, domain.TimingData{}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidPatternType)
}

func TestGetUserPatternsNeverFails(t *testing.T) {
	s := newStore(&fakeRepo{findErr: errors.New("connection refused")})

	patterns := s.GetUserPatterns(context.Background(), "u1", nil)

	assert.NotNil(t, patterns)
	assert.Empty(t, patterns)
}

func TestGetUserPatternsCachesAndInvalidates(t *testing.T) {
	repo := &fakeRepo{}
	s := newStore(repo)
	ctx := context.Background()

	_, err := s.SavePattern(ctx, "u1", domain.PatternTypeTiming, domain.TimingData{}, nil)
	require.NoError(t, err)

	assert.Len(t, s.GetUserPatterns(ctx, "u1", nil), 1)
	assert.Len(t, s.GetUserPatterns(ctx, "u1", nil), 1)
	assert.Equal(t, 1, repo.finds, "second read is served from cache")

	_, err = s.SavePattern(ctx, "u1", domain.PatternTypePriority, domain.PriorityData{}, nil)
	require.NoError(t, err)

	assert.Len(t, s.GetUserPatterns(ctx, "u1", nil), 2)
	assert.Equal(t, 2, repo.finds, "a write drops the cached list")

	timing := domain.PatternTypeTiming
	filtered := s.GetUserPatterns(ctx, "u1", &timing)
	require.Len(t, filtered, 1)
	assert.Equal(t, domain.PatternTypeTiming, filtered[0].PatternType)
	assert.Equal(t, 2, repo.finds)

	filtered[0].ConfidenceScore = 99
	assert.Equal(t, domain.InitialConfidence, s.GetUserPatterns(ctx, "u1", &timing)[0].ConfidenceScore)
}

func TestUpdateConfidenceAndDelete(t *testing.T) {
	repo := &fakeRepo{}
	s := newStore(repo)
	ctx := context.Background()

	id, err := s.SavePattern(ctx, "u1", domain.PatternTypeTiming, domain.TimingData{}, nil)
	require.NoError(t, err)
	_, err = s.SavePattern(ctx, "u1", domain.PatternTypeTags, domain.TagData{}, nil)
	require.NoError(t, err)
	require.Len(t, s.GetUserPatterns(ctx, "u1", nil), 2)

	require.NoError(t, s.UpdateConfidence(ctx, id, "u1", 42))
	loaded, err := s.LoadUserPatterns(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 42, loaded[0].ConfidenceScore)

	tags := domain.PatternTypeTags
	n, err := s.DeleteUserPatterns(ctx, "u1", &tags)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Len(t, s.GetUserPatterns(ctx, "u1", nil), 1)

	_, err = s.DeleteUserPatterns(ctx, "", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidUserID)
}

func TestGetUserPatternsDoesNotCacheReadOverlappingWrite(t *testing.T) {
	repo := &fakeRepo{}
	s := newStore(repo)
	ctx := context.Background()

	id, err := s.SavePattern(ctx, "u1", domain.PatternTypeTiming, domain.TimingData{}, nil)
	require.NoError(t, err)

	repo.afterFind = func() {
		require.NoError(t, s.UpdateConfidence(ctx, id, "u1", 55))
	}
	stale := s.GetUserPatterns(ctx, "u1", nil)
	require.Len(t, stale, 1)
	assert.Equal(t, domain.InitialConfidence, stale[0].ConfidenceScore)

	fresh := s.GetUserPatterns(ctx, "u1", nil)
	require.Len(t, fresh, 1)
	assert.Equal(t, 55, fresh[0].ConfidenceScore)
	assert.Equal(t, 2, repo.finds, "the overlapped read was not cached")

	s.GetUserPatterns(ctx, "u1", nil)
	assert.Equal(t, 2, repo.finds)
}

func TestGetUserPatternsReturnsIndependentPayloads(t *testing.T) {
	s := newStore(&fakeRepo{})
	ctx := context.Background()

	_, err := s.SavePattern(ctx, "u1", domain.PatternTypeTiming, domain.TimingData{SampleSize: 3}, map[string]interface{}{"run": 1})
	require.NoError(t, err)

	first := s.GetUserPatterns(ctx, "u1", nil)
	require.Len(t, first, 1)
	for i := range first[0].PatternData {
		first[0].PatternData[i] = 'x'
	}
	for i := range first[0].Metadata {
		first[0].Metadata[i] = 'x'
	}

	second := s.GetUserPatterns(ctx, "u1", nil)
	require.Len(t, second, 1)
	assert.Contains(t, string(second[0].PatternData), `"sampleSize":3`)
	assert.JSONEq(t, `{"run":1}`, string(second[0].Metadata))
}
