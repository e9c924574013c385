package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"studyquiz-service/internal/app"
	"studyquiz-service/internal/domain"
	"studyquiz-service/internal/infra/memory"
)

func newTestHandler() *WSHandler {
	store := memory.NewGamificationStore()
	quizRepo := memory.NewQuizRepository(memory.NewStaticQuizLoader(sampleQuiz()), time.Minute)
	evaluator := app.NewGamificationEvaluator(store, store, store)
	service := app.NewSessionService(memory.NewSessionStore(), quizRepo, store, evaluator, 30)
	return NewWSHandler(service)
}

func TestWebSocketAttemptFlow(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", newTestHandler().ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?quizId=quiz-1&userId=u1"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Initial snapshot arrives in setup state.
	snap := readSnapshot(conn, t)
	if snap["state"] != "setup" {
		t.Fatalf("expected setup snapshot, got %v", snap["state"])
	}

	if err := conn.WriteJSON(map[string]any{"type": "start"}); err != nil {
		t.Fatalf("write start: %v", err)
	}
	snap = readSnapshot(conn, t)
	if snap["state"] != "active" {
		t.Fatalf("expected active snapshot, got %v", snap["state"])
	}
	question, ok := snap["question"].(map[string]any)
	if !ok {
		t.Fatalf("expected question view in active snapshot, got %v", snap)
	}
	if _, hasKey := question["options"]; !hasKey {
		t.Fatalf("expected options in question view, got %v", question)
	}

	answer := map[string]any{
		"type":    "answer",
		"payload": map[string]any{"index": 0, "option": "4"},
	}
	if err := conn.WriteJSON(answer); err != nil {
		t.Fatalf("write answer: %v", err)
	}
	// Countdown ticks may interleave with the answer broadcast.
	answerDeadline := time.Now().Add(5 * time.Second)
	for {
		if time.Now().After(answerDeadline) {
			t.Fatalf("never saw recorded answer in a snapshot")
		}
		snap = readSnapshot(conn, t)
		if q, ok := snap["question"].(map[string]any); ok && q["chosen"] == "4" {
			break
		}
	}

	// Advancing past the only question finishes the attempt.
	if err := conn.WriteJSON(map[string]any{"type": "advance"}); err != nil {
		t.Fatalf("write advance: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		if time.Now().After(deadline) {
			t.Fatalf("never saw finished snapshot")
		}
		snap = readSnapshot(conn, t)
		if snap["state"] == "finished" {
			break
		}
	}
	report, ok := snap["report"].(map[string]any)
	if !ok {
		t.Fatalf("expected report in finished snapshot, got %v", snap)
	}
	if report["totalQuestions"].(float64) != 1 || report["scoreOutOfTen"].(float64) != 10 {
		t.Fatalf("unexpected report: %v", report)
	}
}

func TestWebSocketRejectsUnknownOption(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", newTestHandler().ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?quizId=quiz-1&userId=u1"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	_ = readMessage(conn, t) // setup snapshot
	if err := conn.WriteJSON(map[string]any{"type": "start"}); err != nil {
		t.Fatalf("write start: %v", err)
	}
	_ = readMessage(conn, t) // active snapshot

	answer := map[string]any{
		"type":    "answer",
		"payload": map[string]any{"index": 0, "option": "not-an-option"},
	}
	if err := conn.WriteJSON(answer); err != nil {
		t.Fatalf("write answer: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		if time.Now().After(deadline) {
			t.Fatalf("never saw error message")
		}
		if msg := readMessage(conn, t); msg.Type == "error" {
			break
		}
	}
}

type wsMessage struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

func readMessage(conn *websocket.Conn, t *testing.T) wsMessage {
	t.Helper()
	var msg wsMessage
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	return msg
}

func readSnapshot(conn *websocket.Conn, t *testing.T) map[string]any {
	t.Helper()
	msg := readMessage(conn, t)
	if msg.Type != "session" {
		t.Fatalf("expected session message, got %s (%v)", msg.Type, msg.Payload)
	}
	return msg.Payload
}

func sampleQuiz() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:    "quiz-1",
			Title: "Sample",
			Questions: []domain.Question{
				{
					Prompt: "What is 2 + 2?",
					Topic:  "Arithmetic",
					Options: []domain.Option{
						{Text: "3", Correct: false},
						{Text: "4", Correct: true},
						{Text: "5", Correct: false},
					},
				},
			},
		},
	}
}
