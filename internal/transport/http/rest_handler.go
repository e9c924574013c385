package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"studyquiz-service/internal/app"
)

// RESTHandler exposes the small read-side surface next to /ws: result
// history and earned achievements.
type RESTHandler struct {
	results      app.ResultRepository
	achievements app.AchievementRepository
}

func NewRESTHandler(results app.ResultRepository, achievements app.AchievementRepository) *RESTHandler {
	return &RESTHandler{results: results, achievements: achievements}
}

// Register mounts the handler's routes on mux.
func (h *RESTHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/results", h.handleResults)
	mux.HandleFunc("/achievements", h.handleAchievements)
}

// handleResults returns the caller's recent results, newest first.
// GET /results?userId=u1&quizId=quiz-1&limit=10
func (h *RESTHandler) handleResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	results, err := h.results.History(r.Context(), userID, r.URL.Query().Get("quizId"), limit)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, results)
}

// handleAchievements returns the badges a user has earned.
// GET /achievements?userId=u1
func (h *RESTHandler) handleAchievements(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}

	achievements, err := h.achievements.ListByUser(r.Context(), userID)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, achievements)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
