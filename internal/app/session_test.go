package app_test

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"studyquiz-service/internal/app"
	"studyquiz-service/internal/domain"
)

func testSession(t *testing.T, perQuestionSeconds int) *app.Session {
	t.Helper()
	return app.NewSessionWithClock("s1", "quiz-1", "u1", perQuestionSeconds,
		time.Now, rand.New(rand.NewSource(1)))
}

func configuredSession(t *testing.T, perQuestionSeconds int) *app.Session {
	t.Helper()
	session := testSession(t, perQuestionSeconds)
	if err := session.Configure(testQuiz()); err != nil {
		t.Fatalf("configure: %v", err)
	}
	return session
}

func testQuiz() domain.Quiz {
	mk := func(prompt, topic, correct, wrong string) domain.Question {
		return domain.Question{
			Prompt: prompt,
			Topic:  topic,
			Options: []domain.Option{
				{Text: wrong, Correct: false},
				{Text: correct, Correct: true},
			},
		}
	}
	return domain.Quiz{
		ID:    "quiz-1",
		Title: "Sample",
		Questions: []domain.Question{
			mk("q1", "Math", "4", "5"),
			mk("q2", "Math", "9", "8"),
			mk("q3", "History", "1492", "1812"),
		},
	}
}

func TestConfigureRejectsInvalidSet(t *testing.T) {
	session := testSession(t, 30)
	err := session.Configure(domain.Quiz{ID: "empty"})
	if !errors.Is(err, domain.ErrInvalidQuestionSet) {
		t.Fatalf("expected ErrInvalidQuestionSet, got %v", err)
	}
}

func TestStartWithoutConfigureFails(t *testing.T) {
	session := testSession(t, 30)
	if _, err := session.Start(); !errors.Is(err, domain.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestStartArmsCountdown(t *testing.T) {
	session := configuredSession(t, 30)
	if _, err := session.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	snap := session.Snapshot()
	if snap.State != "active" {
		t.Fatalf("expected active, got %s", snap.State)
	}
	if snap.RemainingSeconds != 90 {
		t.Fatalf("expected 30x3=90 seconds, got %d", snap.RemainingSeconds)
	}
	if snap.TotalQuestions != 3 || snap.CurrentIndex != 0 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.Question == nil || len(snap.Question.Options) != 2 {
		t.Fatalf("expected current question view, got %+v", snap.Question)
	}
}

func TestOperationsOutsideActiveFail(t *testing.T) {
	session := configuredSession(t, 30)

	if err := session.RecordAnswer(0, "4"); !domain.IsWrongState(err) {
		t.Fatalf("expected WrongState for recordAnswer in setup, got %v", err)
	}
	if _, err := session.Advance(); !domain.IsWrongState(err) {
		t.Fatalf("expected WrongState for advance in setup, got %v", err)
	}
	if _, err := session.Tick(); !domain.IsWrongState(err) {
		t.Fatalf("expected WrongState for tick in setup, got %v", err)
	}
	if _, _, err := session.Finish(); !domain.IsWrongState(err) {
		t.Fatalf("expected WrongState for finish in setup, got %v", err)
	}

	if _, err := session.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := session.Configure(testQuiz()); !domain.IsWrongState(err) {
		t.Fatalf("expected WrongState for configure while active, got %v", err)
	}
	if err := session.Reset(); !domain.IsWrongState(err) {
		t.Fatalf("expected WrongState for reset while active, got %v", err)
	}
}

func TestRecordAnswerBoundsAndOverwrite(t *testing.T) {
	session := configuredSession(t, 30)
	if _, err := session.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := session.RecordAnswer(5, "4"); !errors.Is(err, domain.ErrInvalidIndex) {
		t.Fatalf("expected ErrInvalidIndex, got %v", err)
	}
	if err := session.RecordAnswer(-1, "4"); !errors.Is(err, domain.ErrInvalidIndex) {
		t.Fatalf("expected ErrInvalidIndex, got %v", err)
	}

	// The user may change their answer before advancing.
	if err := session.RecordAnswer(0, "first"); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := session.RecordAnswer(0, "second"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	snap := session.Snapshot()
	if snap.Question.Chosen != "second" {
		t.Fatalf("expected overwritten answer, got %q", snap.Question.Chosen)
	}
}

func TestAdvanceThroughToFinish(t *testing.T) {
	session := configuredSession(t, 30)
	if _, err := session.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	for i := 0; i < 2; i++ {
		finished, err := session.Advance()
		if err != nil {
			t.Fatalf("advance %d: %v", i, err)
		}
		if finished {
			t.Fatalf("finished early at advance %d", i)
		}
	}

	finished, err := session.Advance()
	if err != nil {
		t.Fatalf("final advance: %v", err)
	}
	if !finished {
		t.Fatalf("expected final advance to finish the session")
	}

	report, err := session.Report()
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.TotalQuestions != 3 {
		t.Fatalf("expected 3 questions in report, got %d", report.TotalQuestions)
	}
}

func TestTickCountdownFinishesSession(t *testing.T) {
	session := configuredSession(t, 1) // 1 second per question: 3 ticks total
	done, err := session.Start()
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	for i := 0; i < 2; i++ {
		finished, err := session.Tick()
		if err != nil || finished {
			t.Fatalf("tick %d: finished=%v err=%v", i, finished, err)
		}
	}
	finished, err := session.Tick()
	if err != nil {
		t.Fatalf("final tick: %v", err)
	}
	if !finished {
		t.Fatalf("expected countdown expiry to finish the session")
	}

	select {
	case <-done:
	default:
		t.Fatalf("expected done channel closed after finish")
	}

	snap := session.Snapshot()
	if snap.RemainingSeconds != 0 || snap.State != "finished" {
		t.Fatalf("unexpected snapshot after expiry: %+v", snap)
	}
}

func TestFinishIsIdempotent(t *testing.T) {
	session := configuredSession(t, 30)
	if _, err := session.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := session.RecordAnswer(0, "4"); err != nil {
		t.Fatalf("record: %v", err)
	}

	first, firstTime, err := session.Finish()
	if err != nil || !firstTime {
		t.Fatalf("first finish: firstTime=%v err=%v", firstTime, err)
	}
	second, secondTime, err := session.Finish()
	if err != nil {
		t.Fatalf("second finish errored: %v", err)
	}
	if secondTime {
		t.Fatalf("second finish must not report a fresh transition")
	}
	if first.CorrectCount != second.CorrectCount || first.ScoreOutOfTen != second.ScoreOutOfTen {
		t.Fatalf("reports differ: %+v vs %+v", first, second)
	}
}

func TestResetAllowsRepeatAttempt(t *testing.T) {
	session := configuredSession(t, 30)
	if _, err := session.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, _, err := session.Finish(); err != nil {
		t.Fatalf("finish: %v", err)
	}

	if err := session.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	snap := session.Snapshot()
	if snap.State != "setup" || snap.Report != nil {
		t.Fatalf("expected clean setup state, got %+v", snap)
	}

	// The configured question set survives reset; a fresh attempt starts.
	if _, err := session.Start(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if got := session.Snapshot().RemainingSeconds; got != 90 {
		t.Fatalf("expected fresh countdown, got %d", got)
	}
}

func TestSubscribeReceivesLifecycleUpdates(t *testing.T) {
	session := configuredSession(t, 30)
	updates, cancel := session.Subscribe()
	defer cancel()

	initial := <-updates
	if initial.State != "setup" {
		t.Fatalf("expected setup snapshot first, got %s", initial.State)
	}

	if _, err := session.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	next := <-updates
	if next.State != "active" {
		t.Fatalf("expected active snapshot, got %s", next.State)
	}

	if _, _, err := session.Finish(); err != nil {
		t.Fatalf("finish: %v", err)
	}
	final := <-updates
	if final.State != "finished" || final.Report == nil {
		t.Fatalf("expected finished snapshot with report, got %+v", final)
	}
}
