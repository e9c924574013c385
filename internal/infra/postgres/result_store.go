package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"studyquiz-service/internal/domain"
)

// ResultStore persists finished-attempt results.
type ResultStore struct {
	pool *pgxpool.Pool
}

func NewResultStore(pool *pgxpool.Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

func (s *ResultStore) Save(ctx context.Context, result domain.Result) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO results (user_id, quiz_id, score, correct, incorrect, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		result.UserID, result.QuizID, result.Score, result.Correct, result.Incorrect, result.CompletedAt)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

func (s *ResultStore) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM results WHERE user_id=$1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count results: %w", err)
	}
	return count, nil
}

// History returns the user's most recent results, newest first. quizID may be
// empty to span all quizzes.
func (s *ResultStore) History(ctx context.Context, userID, quizID string, limit int) ([]domain.Result, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.pool.Query(ctx,
		`SELECT user_id, quiz_id, score, correct, incorrect, completed_at
		 FROM results
		 WHERE user_id=$1 AND ($2 = '' OR quiz_id=$2)
		 ORDER BY completed_at DESC LIMIT $3`,
		userID, quizID, limit)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var out []domain.Result
	for rows.Next() {
		var r domain.Result
		if err := rows.Scan(&r.UserID, &r.QuizID, &r.Score, &r.Correct, &r.Incorrect, &r.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
