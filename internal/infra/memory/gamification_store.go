package memory

import (
	"context"
	"sync"
	"time"

	"studyquiz-service/internal/domain"
)

// GamificationStore keeps results, streaks, and achievements in process
// memory. It backs demo deployments and tests; a mutex around the streak
// read-modify-write gives the same atomicity the Postgres store gets from a
// transaction.
type GamificationStore struct {
	mu           sync.Mutex
	results      []domain.Result
	streaks      map[string]domain.StreakRecord
	achievements map[string]map[domain.AchievementID]time.Time
}

func NewGamificationStore() *GamificationStore {
	return &GamificationStore{
		streaks:      make(map[string]domain.StreakRecord),
		achievements: make(map[string]map[domain.AchievementID]time.Time),
	}
}

func (s *GamificationStore) Save(_ context.Context, result domain.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
	return nil
}

func (s *GamificationStore) CountByUser(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, r := range s.results {
		if r.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (s *GamificationStore) History(_ context.Context, userID, quizID string, limit int) ([]domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Result
	// newest first
	for i := len(s.results) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		r := s.results[i]
		if r.UserID == userID && (quizID == "" || r.QuizID == quizID) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *GamificationStore) Advance(_ context.Context, userID string, today time.Time) (domain.StreakRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.streaks[userID].Advance(today)
	s.streaks[userID] = next
	return next, nil
}

func (s *GamificationStore) Get(_ context.Context, userID string) (domain.StreakRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streaks[userID], nil
}

// SeedStreak installs a streak record directly, for tests.
func (s *GamificationStore) SeedStreak(userID string, record domain.StreakRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streaks[userID] = record
}

func (s *GamificationStore) Award(_ context.Context, userID string, id domain.AchievementID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	earned, ok := s.achievements[userID]
	if !ok {
		earned = make(map[domain.AchievementID]time.Time)
		s.achievements[userID] = earned
	}
	if _, exists := earned[id]; !exists {
		earned[id] = time.Now()
	}
	return nil
}

func (s *GamificationStore) ListByUser(_ context.Context, userID string) ([]domain.Achievement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Achievement
	for id, at := range s.achievements[userID] {
		out = append(out, domain.Achievement{ID: id, Name: string(id), EarnedAt: at})
	}
	return out, nil
}
