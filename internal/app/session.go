package app

import (
	"math/rand"
	"sync"
	"time"

	"studyquiz-service/internal/domain"
)

// State is the lifecycle phase of a session.
type State int

const (
	// StateSetup is the initial phase; a question set may or may not be
	// attached and no timer is running.
	StateSetup State = iota
	// StateActive means the countdown is running and answers are accepted.
	StateActive
	// StateFinished is terminal; the report is available and the session is
	// immutable.
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateSetup:
		return "setup"
	case StateActive:
		return "active"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// QuestionView is the answer-key-free projection of a question handed to
// transport layers.
type QuestionView struct {
	Index   int      `json:"index"`
	Prompt  string   `json:"prompt"`
	Topic   string   `json:"topic"`
	Options []string `json:"options"`
	Chosen  string   `json:"chosen,omitempty"`
}

// Snapshot is a point-in-time view of a session for broadcasting.
type Snapshot struct {
	SessionID        string                   `json:"sessionId"`
	QuizID           string                   `json:"quizId"`
	Title            string                   `json:"title,omitempty"`
	State            string                   `json:"state"`
	CurrentIndex     int                      `json:"currentIndex"`
	TotalQuestions   int                      `json:"totalQuestions"`
	RemainingSeconds int                      `json:"remainingSeconds"`
	Question         *QuestionView            `json:"question,omitempty"`
	Report           *domain.SessionReport    `json:"report,omitempty"`
	NewAchievements  []domain.AchievementID   `json:"newAchievements,omitempty"`
}

// Session is one timed attempt at a quiz by one user. Its mutex exists
// because the transport goroutine and the countdown ticker both drive it;
// sessions share no state with each other.
type Session struct {
	id         string
	quizID     string
	userID     string
	perQuestion int
	now        func() time.Time
	rnd        *rand.Rand

	mu           sync.Mutex
	state        State
	quiz         domain.Quiz
	configured   bool
	working      []domain.Question
	answers      map[int]string
	currentIndex int
	remaining    int
	report       *domain.SessionReport
	achievements []domain.AchievementID
	done         chan struct{}
	subscribers  map[chan Snapshot]struct{}
}

// NewSession builds a session in Setup. perQuestionSeconds sets the countdown
// budget per question when the session starts.
func NewSession(id, quizID, userID string, perQuestionSeconds int) *Session {
	return NewSessionWithClock(id, quizID, userID, perQuestionSeconds, time.Now,
		rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewSessionWithClock allows deterministic timestamps and shuffles in tests.
func NewSessionWithClock(id, quizID, userID string, perQuestionSeconds int, now func() time.Time, rnd *rand.Rand) *Session {
	if perQuestionSeconds <= 0 {
		perQuestionSeconds = DefaultSecondsPerQuestion
	}
	return &Session{
		id:          id,
		quizID:      quizID,
		userID:      userID,
		perQuestion: perQuestionSeconds,
		now:         now,
		rnd:         rnd,
		state:       StateSetup,
		subscribers: make(map[chan Snapshot]struct{}),
	}
}

// DefaultSecondsPerQuestion is the countdown budget per question.
const DefaultSecondsPerQuestion = 30

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// QuizID returns the quiz this session attempts.
func (s *Session) QuizID() string { return s.quizID }

// UserID returns the user taking the session.
func (s *Session) UserID() string { return s.userID }

// Configure attaches a validated question set. Valid only in Setup.
func (s *Session) Configure(quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateSetup {
		return &domain.WrongStateError{Op: "configure", Current: s.state.String(), Expected: StateSetup.String()}
	}
	if err := domain.ValidateQuiz(quiz); err != nil {
		return err
	}
	s.quiz = quiz
	s.configured = true
	return nil
}

// Start shuffles the working order, arms the countdown, and moves to Active.
// The returned channel closes when the session finishes; the countdown
// driver watches it to stop ticking.
func (s *Session) Start() (<-chan struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateSetup {
		return nil, &domain.WrongStateError{Op: "start", Current: s.state.String(), Expected: StateSetup.String()}
	}
	if !s.configured {
		return nil, domain.ErrNotConfigured
	}
	s.working = shuffleQuestions(s.rnd, s.quiz.Questions)
	s.answers = make(map[int]string)
	s.currentIndex = 0
	s.remaining = s.perQuestion * len(s.working)
	s.report = nil
	s.achievements = nil
	s.done = make(chan struct{})
	s.state = StateActive
	s.broadcastLocked()
	return s.done, nil
}

// RecordAnswer stores the selected option for a question index, overwriting
// any prior answer. The value is recorded verbatim; option membership is the
// caller's boundary check, since mismatches simply score as incorrect.
func (s *Session) RecordAnswer(index int, option string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return &domain.WrongStateError{Op: "recordAnswer", Current: s.state.String(), Expected: StateActive.String()}
	}
	if index < 0 || index >= len(s.working) {
		return domain.ErrInvalidIndex
	}
	s.answers[index] = option
	s.broadcastLocked()
	return nil
}

// Advance moves the cursor to the next question, or finishes the session if
// the cursor sits on the last question. Reports whether this call finished
// the session.
func (s *Session) Advance() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return false, &domain.WrongStateError{Op: "advance", Current: s.state.String(), Expected: StateActive.String()}
	}
	if s.currentIndex >= len(s.working)-1 {
		s.finishLocked()
		return true, nil
	}
	s.currentIndex++
	s.broadcastLocked()
	return false, nil
}

// Tick decrements the countdown by one second, finishing the session when it
// hits zero. Reports whether this call finished the session.
func (s *Session) Tick() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return false, &domain.WrongStateError{Op: "tick", Current: s.state.String(), Expected: StateActive.String()}
	}
	s.remaining--
	if s.remaining <= 0 {
		s.remaining = 0
		s.finishLocked()
		return true, nil
	}
	s.broadcastLocked()
	return false, nil
}

// Finish scores the attempt and moves to Finished. Idempotent: a second call
// returns the same report and reports first=false. Invalid from Setup.
func (s *Session) Finish() (domain.SessionReport, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateActive:
		s.finishLocked()
		return *s.report, true, nil
	case StateFinished:
		return *s.report, false, nil
	default:
		return domain.SessionReport{}, false, &domain.WrongStateError{Op: "finish", Current: s.state.String(), Expected: StateActive.String()}
	}
}

// finishLocked is the sole exit from Active: every session that stops
// running produces exactly one report.
func (s *Session) finishLocked() {
	report := Score(s.working, s.answers)
	s.report = &report
	s.state = StateFinished
	close(s.done)
	s.broadcastLocked()
}

// Reset clears all attempt state and returns to Setup for a fresh attempt.
// Valid from Finished or Setup.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateActive {
		return &domain.WrongStateError{Op: "reset", Current: s.state.String(), Expected: StateFinished.String()}
	}
	s.working = nil
	s.answers = nil
	s.currentIndex = 0
	s.remaining = 0
	s.report = nil
	s.achievements = nil
	s.done = nil
	s.state = StateSetup
	s.broadcastLocked()
	return nil
}

// Report returns the final report once Finished.
func (s *Session) Report() (domain.SessionReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateFinished {
		return domain.SessionReport{}, &domain.WrongStateError{Op: "report", Current: s.state.String(), Expected: StateFinished.String()}
	}
	return *s.report, nil
}

// QuestionAt returns the working-order question at index. Valid while Active.
func (s *Session) QuestionAt(index int) (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return domain.Question{}, &domain.WrongStateError{Op: "questionAt", Current: s.state.String(), Expected: StateActive.String()}
	}
	if index < 0 || index >= len(s.working) {
		return domain.Question{}, domain.ErrInvalidIndex
	}
	return s.working[index], nil
}

// RecordAchievements attaches newly earned badges to a finished session and
// broadcasts them. Ignored in other states; gamification never fails a
// session.
func (s *Session) RecordAchievements(ids []domain.AchievementID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateFinished || len(ids) == 0 {
		return
	}
	s.achievements = ids
	s.broadcastLocked()
}

// Snapshot returns the current point-in-time view.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel receiving snapshot updates. The caller must
// invoke the cancel function to avoid leaks.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	initial := s.snapshotLocked()
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked() {
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// Drop the stale update so a slow consumer never blocks the
			// session; the latest snapshot supersedes it anyway.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID:        s.id,
		QuizID:           s.quizID,
		Title:            s.quiz.Title,
		State:            s.state.String(),
		CurrentIndex:     s.currentIndex,
		TotalQuestions:   len(s.working),
		RemainingSeconds: s.remaining,
	}
	if s.state == StateActive && s.currentIndex < len(s.working) {
		q := s.working[s.currentIndex]
		options := make([]string, len(q.Options))
		for i, opt := range q.Options {
			options[i] = opt.Text
		}
		snap.Question = &QuestionView{
			Index:   s.currentIndex,
			Prompt:  q.Prompt,
			Topic:   q.TopicOrDefault(),
			Options: options,
			Chosen:  s.answers[s.currentIndex],
		}
	}
	if s.state == StateFinished && s.report != nil {
		report := *s.report
		snap.Report = &report
		snap.NewAchievements = s.achievements
	}
	return snap
}

// shuffleQuestions is a Fisher-Yates shuffle over a copy of the set: O(N),
// every permutation equally likely, input untouched. A sort-by-random-key
// shuffle would bias the comparator, which is why it is spelled out here.
func shuffleQuestions(rnd *rand.Rand, questions []domain.Question) []domain.Question {
	working := make([]domain.Question, len(questions))
	copy(working, questions)
	for i := len(working) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		working[i], working[j] = working[j], working[i]
	}
	return working
}
