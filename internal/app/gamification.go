package app

import (
	"context"
	"log"
	"time"

	"studyquiz-service/internal/domain"
)

// StreakRepository persists per-user streak records. Advance must apply the
// read-check-write atomically (single-row transaction or conditional update)
// so near-simultaneous completions cannot race on the counter.
type StreakRepository interface {
	Advance(ctx context.Context, userID string, today time.Time) (domain.StreakRecord, error)
	Get(ctx context.Context, userID string) (domain.StreakRecord, error)
}

// AchievementRepository persists earned badges. Award is idempotent; the
// backing store enforces uniqueness on (user, achievement).
type AchievementRepository interface {
	Award(ctx context.Context, userID string, id domain.AchievementID) error
	ListByUser(ctx context.Context, userID string) ([]domain.Achievement, error)
}

// ResultRepository persists finished-attempt results.
type ResultRepository interface {
	Save(ctx context.Context, result domain.Result) error
	CountByUser(ctx context.Context, userID string) (int, error)
	History(ctx context.Context, userID, quizID string, limit int) ([]domain.Result, error)
}

// GamificationEvaluator decides badge and streak transitions from a
// completed session's report. All persistence here is best-effort: failures
// are logged and swallowed so the user always sees their score.
type GamificationEvaluator struct {
	results      ResultRepository
	streaks      StreakRepository
	achievements AchievementRepository
	now          func() time.Time
}

func NewGamificationEvaluator(results ResultRepository, streaks StreakRepository, achievements AchievementRepository) *GamificationEvaluator {
	return &GamificationEvaluator{
		results:      results,
		streaks:      streaks,
		achievements: achievements,
		now:          time.Now,
	}
}

// NewGamificationEvaluatorWithClock is test-only for deterministic dates.
func NewGamificationEvaluatorWithClock(results ResultRepository, streaks StreakRepository, achievements AchievementRepository, now func() time.Time) *GamificationEvaluator {
	e := NewGamificationEvaluator(results, streaks, achievements)
	e.now = now
	return e
}

// Evaluate runs the three rules in order, each independent: first completion,
// perfect score, streak update. It is called after the result row has been
// saved, so a user count of one means this was the first-ever completion.
func (e *GamificationEvaluator) Evaluate(ctx context.Context, userID string, report domain.SessionReport) []domain.AchievementID {
	earned := []domain.AchievementID{}

	count, err := e.results.CountByUser(ctx, userID)
	if err != nil {
		log.Printf("gamification: count results for %s: %v", userID, err)
	} else if count == 1 {
		if e.award(ctx, userID, domain.AchievementFirstSteps) {
			earned = append(earned, domain.AchievementFirstSteps)
		}
	}

	if report.Perfect() {
		if e.award(ctx, userID, domain.AchievementPerfectionist) {
			earned = append(earned, domain.AchievementPerfectionist)
		}
	}

	streak, err := e.streaks.Advance(ctx, userID, e.now())
	if err != nil {
		log.Printf("gamification: advance streak for %s: %v", userID, err)
	} else if streak.CurrentStreak >= domain.ConsistentLearnerThreshold {
		if e.award(ctx, userID, domain.AchievementConsistentLearner) {
			earned = append(earned, domain.AchievementConsistentLearner)
		}
	}

	return earned
}

func (e *GamificationEvaluator) award(ctx context.Context, userID string, id domain.AchievementID) bool {
	if err := e.achievements.Award(ctx, userID, id); err != nil {
		log.Printf("gamification: award %s to %s: %v", id, userID, err)
		return false
	}
	return true
}
