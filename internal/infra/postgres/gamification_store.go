package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"studyquiz-service/internal/domain"
)

// GamificationStore persists streaks and achievements.
type GamificationStore struct {
	pool *pgxpool.Pool
}

func NewGamificationStore(pool *pgxpool.Pool) *GamificationStore {
	return &GamificationStore{pool: pool}
}

// Advance applies the streak rule inside a single transaction with a row
// lock, so two near-simultaneous completions for the same user cannot race
// on the counter.
func (s *GamificationStore) Advance(ctx context.Context, userID string, today time.Time) (domain.StreakRecord, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.StreakRecord{}, fmt.Errorf("begin streak tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var record domain.StreakRecord
	err = tx.QueryRow(ctx,
		`SELECT current_streak, last_completed_date FROM streaks WHERE user_id=$1 FOR UPDATE`,
		userID).Scan(&record.CurrentStreak, &record.LastCompletedDate)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return domain.StreakRecord{}, fmt.Errorf("read streak: %w", err)
	}

	next := record.Advance(today)
	_, err = tx.Exec(ctx,
		`INSERT INTO streaks (user_id, current_streak, last_completed_date)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id) DO UPDATE
		 SET current_streak=EXCLUDED.current_streak, last_completed_date=EXCLUDED.last_completed_date`,
		userID, next.CurrentStreak, next.LastCompletedDate)
	if err != nil {
		return domain.StreakRecord{}, fmt.Errorf("write streak: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.StreakRecord{}, fmt.Errorf("commit streak tx: %w", err)
	}
	return next, nil
}

func (s *GamificationStore) Get(ctx context.Context, userID string) (domain.StreakRecord, error) {
	var record domain.StreakRecord
	err := s.pool.QueryRow(ctx,
		`SELECT current_streak, last_completed_date FROM streaks WHERE user_id=$1`,
		userID).Scan(&record.CurrentStreak, &record.LastCompletedDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.StreakRecord{}, nil
	}
	if err != nil {
		return domain.StreakRecord{}, fmt.Errorf("read streak: %w", err)
	}
	return record, nil
}

// Award records a badge. The unique constraint on (user_id, achievement_id)
// makes re-awarding a no-op.
func (s *GamificationStore) Award(ctx context.Context, userID string, id domain.AchievementID) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO user_achievements (user_id, achievement_id) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`,
		userID, string(id))
	if err != nil {
		return fmt.Errorf("award achievement: %w", err)
	}
	return nil
}

func (s *GamificationStore) ListByUser(ctx context.Context, userID string) ([]domain.Achievement, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT a.id, a.name, a.description, ua.earned_at
		 FROM user_achievements ua
		 JOIN achievements a ON ua.achievement_id = a.id
		 WHERE ua.user_id=$1
		 ORDER BY ua.earned_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("query achievements: %w", err)
	}
	defer rows.Close()

	var out []domain.Achievement
	for rows.Next() {
		var a domain.Achievement
		var id string
		if err := rows.Scan(&id, &a.Name, &a.Description, &a.EarnedAt); err != nil {
			return nil, fmt.Errorf("scan achievement: %w", err)
		}
		a.ID = domain.AchievementID(id)
		out = append(out, a)
	}
	return out, rows.Err()
}
