// Package store persists learned patterns and serves cached reads of them.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ngandimoun/saydo-ai-sub006/internal/pattern/domain"
	"github.com/ngandimoun/saydo-ai-sub006/internal/pattern/repository"
	"github.com/ngandimoun/saydo-ai-sub006/pkg/logger"
	"github.com/ngandimoun/saydo-ai-sub006/pkg/metrics"

	cache "github.com/patrickmn/go-cache"
	"gorm.io/datatypes"
)

// Store wraps the pattern repository with validation and a per-user read cache.
type Store struct {
	repo  repository.PatternRepository
	cache *cache.Cache
	log   *logger.Logger
	now   func() time.Time

	// generations is bumped on every write so a read that overlapped a
	// write never caches its stale snapshot.
	mu          sync.Mutex
	generations map[string]uint64
}

func New(repo repository.PatternRepository, ttl time.Duration, log *logger.Logger) *Store {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Store{
		repo:        repo,
		cache:       cache.New(ttl, 2*ttl),
		log:         log.With("component", "PatternStore"),
		now:         func() time.Time { return time.Now().UTC() },
		generations: make(map[string]uint64),
	}
}

// SavePattern upserts the user's pattern of the given type and returns its id.
// A new row starts at frequency 1 and confidence 10; an existing row gets the
// new data, one more observation and a fresh last-seen time.
func (s *Store) SavePattern(ctx context.Context, userID string, patternType domain.PatternType, payload domain.Payload, metadata map[string]interface{}) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", domain.ErrInvalidUserID
	}
	if _, err := domain.ParsePatternType(string(patternType)); err != nil {
		return "", err
	}
	if payload == nil || payload.Type() != patternType {
		return "", fmt.Errorf("%w: payload does not match %q", domain.ErrInvalidPatternType, patternType)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode %s pattern data: %w", patternType, err)
	}
	var meta datatypes.JSON
	if len(metadata) > 0 {
		if meta, err = json.Marshal(metadata); err != nil {
			return "", fmt.Errorf("encode %s pattern metadata: %w", patternType, err)
		}
	}

	now := s.now()
	pattern := &domain.Pattern{
		UserID:          userID,
		PatternType:     patternType,
		PatternData:     datatypes.JSON(data),
		Frequency:       domain.InitialFrequency,
		ConfidenceScore: domain.InitialConfidence,
		FirstSeenAt:     now,
		LastSeenAt:      now,
		Metadata:        meta,
	}

	id, err := s.repo.Upsert(ctx, pattern)
	s.invalidate(userID)
	if err != nil {
		metrics.PatternSaves.WithLabelValues(string(patternType), "error").Inc()
		return "", err
	}
	metrics.PatternSaves.WithLabelValues(string(patternType), "success").Inc()
	return id, nil
}

// GetUserPatterns never fails: repository errors are logged and yield an empty list.
func (s *Store) GetUserPatterns(ctx context.Context, userID string, patternType *domain.PatternType) []*domain.Pattern {
	if cached, ok := s.cache.Get(userID); ok {
		return filterByType(cached.([]domain.Pattern), patternType)
	}

	gen := s.generation(userID)
	patterns, err := s.repo.FindByUser(ctx, userID, nil)
	if err != nil {
		s.log.Error("Failed to load user patterns", "user_id", userID, "error", err)
		return []*domain.Pattern{}
	}

	snapshot := make([]domain.Pattern, 0, len(patterns))
	for _, p := range patterns {
		snapshot = append(snapshot, *p)
	}

	s.mu.Lock()
	if s.generations[userID] == gen {
		s.cache.SetDefault(userID, snapshot)
	}
	s.mu.Unlock()
	return filterByType(snapshot, patternType)
}

// LoadUserPatterns reads straight from the repository, bypassing the cache.
func (s *Store) LoadUserPatterns(ctx context.Context, userID string) ([]*domain.Pattern, error) {
	return s.repo.FindByUser(ctx, userID, nil)
}

func (s *Store) UpdateConfidence(ctx context.Context, id, userID string, score int) error {
	err := s.repo.UpdateConfidence(ctx, id, userID, score)
	s.invalidate(userID)
	return err
}

func (s *Store) DeleteUserPatterns(ctx context.Context, userID string, patternType *domain.PatternType) (int64, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, domain.ErrInvalidUserID
	}
	n, err := s.repo.DeleteByUser(ctx, userID, patternType)
	s.invalidate(userID)
	return n, err
}

func (s *Store) generation(userID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[userID]
}

func (s *Store) invalidate(userID string) {
	s.mu.Lock()
	s.generations[userID]++
	s.cache.Delete(userID)
	s.mu.Unlock()
}

// filterByType deep-copies so callers cannot mutate the cached snapshot.
func filterByType(patterns []domain.Pattern, patternType *domain.PatternType) []*domain.Pattern {
	out := make([]*domain.Pattern, 0, len(patterns))
	for i := range patterns {
		if patternType != nil && patterns[i].PatternType != *patternType {
			continue
		}
		p := patterns[i]
		p.PatternData = append(datatypes.JSON(nil), p.PatternData...)
		p.Metadata = append(datatypes.JSON(nil), p.Metadata...)
		out = append(out, &p)
	}
	return out
}
