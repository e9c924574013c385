package app

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"studyquiz-service/internal/domain"
)

// SessionStore abstracts where live sessions are kept (in-memory, Redis-marked, etc).
type SessionStore interface {
	Put(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// SessionService owns the quiz-attempt use cases: it creates sessions,
// drives the one-second countdown per active session, and on finish persists
// the result and hands the report to gamification.
type SessionService struct {
	sessions     SessionStore
	quizzes      QuizRepository
	results      ResultRepository
	gamification *GamificationEvaluator
	perQuestion  int
	newID        func() string

	mu     sync.Mutex
	timers map[string]context.CancelFunc
}

// NewSessionService wires the engine. results and gamification may be nil
// when the deployment has no persistence; finishing then only reports.
func NewSessionService(sessions SessionStore, quizzes QuizRepository, results ResultRepository, gamification *GamificationEvaluator, perQuestionSeconds int) *SessionService {
	if perQuestionSeconds <= 0 {
		perQuestionSeconds = DefaultSecondsPerQuestion
	}
	return &SessionService{
		sessions:     sessions,
		quizzes:      quizzes,
		results:      results,
		gamification: gamification,
		perQuestion:  perQuestionSeconds,
		newID:        uuid.NewString,
		timers:       make(map[string]context.CancelFunc),
	}
}

// Begin loads and validates the quiz, then creates a configured session in
// Setup. The caller subscribes to the returned session for updates.
func (s *SessionService) Begin(ctx context.Context, quizID, userID string) (*Session, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	session := NewSession(s.newID(), quizID, userID, s.perQuestion)
	if err := session.Configure(quiz); err != nil {
		return nil, err
	}
	s.sessions.Put(session)
	return session, nil
}

// Start activates the session and spawns its countdown driver. The driver is
// the only background activity a session has; it ticks once per second until
// the session finishes or is dropped.
func (s *SessionService) Start(ctx context.Context, sessionID string) (Snapshot, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return Snapshot{}, domain.ErrSessionNotFound
	}
	done, err := session.Start()
	if err != nil {
		return Snapshot{}, err
	}

	timerCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.timers[sessionID] = cancel
	s.mu.Unlock()
	go s.runCountdown(timerCtx, session, done)

	return session.Snapshot(), nil
}

func (s *SessionService) runCountdown(ctx context.Context, session *Session, done <-chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			finished, err := session.Tick()
			if err != nil {
				return
			}
			if finished {
				s.finalize(session)
				return
			}
		case <-done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// RecordAnswer validates the interaction at this boundary (index bounds,
// option membership) and stores the answer. The engine itself records
// verbatim; rejecting unknown options here keeps scoring consistent without
// weakening the core.
func (s *SessionService) RecordAnswer(ctx context.Context, sessionID string, index int, option string) (Snapshot, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return Snapshot{}, domain.ErrSessionNotFound
	}
	question, err := session.QuestionAt(index)
	if err != nil {
		return Snapshot{}, err
	}
	if !question.HasOption(option) {
		return Snapshot{}, domain.ErrInvalidOption
	}
	if err := session.RecordAnswer(index, option); err != nil {
		return Snapshot{}, err
	}
	return session.Snapshot(), nil
}

// Advance moves to the next question, finishing on the last one.
func (s *SessionService) Advance(ctx context.Context, sessionID string) (Snapshot, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return Snapshot{}, domain.ErrSessionNotFound
	}
	finished, err := session.Advance()
	if err != nil {
		return Snapshot{}, err
	}
	if finished {
		s.finalize(session)
	}
	return session.Snapshot(), nil
}

// Finish ends the attempt early. Idempotent: repeat calls return the same
// report without re-running persistence.
func (s *SessionService) Finish(ctx context.Context, sessionID string) (Snapshot, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return Snapshot{}, domain.ErrSessionNotFound
	}
	_, first, err := session.Finish()
	if err != nil {
		return Snapshot{}, err
	}
	if first {
		s.finalize(session)
	}
	return session.Snapshot(), nil
}

// Reset returns a finished (or idle) session to Setup for a repeat attempt.
func (s *SessionService) Reset(ctx context.Context, sessionID string) (Snapshot, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return Snapshot{}, domain.ErrSessionNotFound
	}
	if err := session.Reset(); err != nil {
		return Snapshot{}, err
	}
	return session.Snapshot(), nil
}

// Drop abandons a session: the countdown stops and the session is removed
// from the store. An abandoned Active attempt simply never finishes; there
// is no partial report.
func (s *SessionService) Drop(sessionID string) {
	s.stopTimer(sessionID)
	s.sessions.Delete(sessionID)
}

// finalize runs exactly once per finished attempt: persist the result, then
// hand the report to gamification. Both are best-effort; the snapshot with
// the report reaches subscribers regardless.
func (s *SessionService) finalize(session *Session) {
	s.stopTimer(session.ID())

	report, err := session.Report()
	if err != nil {
		return
	}

	// Persistence outlives the originating request.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if s.results != nil {
		result := domain.Result{
			UserID:      session.UserID(),
			QuizID:      session.QuizID(),
			Score:       report.ScoreOutOfTen,
			Correct:     report.CorrectCount,
			Incorrect:   report.IncorrectCount,
			CompletedAt: time.Now(),
		}
		if err := s.results.Save(ctx, result); err != nil {
			log.Printf("save result for %s/%s: %v", session.UserID(), session.QuizID(), err)
		}
	}

	if s.gamification != nil {
		earned := s.gamification.Evaluate(ctx, session.UserID(), report)
		session.RecordAchievements(earned)
	}
}

func (s *SessionService) stopTimer(sessionID string) {
	s.mu.Lock()
	cancel, ok := s.timers[sessionID]
	if ok {
		delete(s.timers, sessionID)
	}
	s.mu.Unlock()
	if ok {
		cancel()
	}
}
