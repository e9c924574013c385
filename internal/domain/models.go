package domain

import "time"

// DefaultTopic is used when a question carries no topic label.
const DefaultTopic = "General"

// Unanswered is the sentinel recorded for questions the user never answered.
const Unanswered = "unanswered"

// Option is a candidate answer for a question.
type Option struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question is an MCQ question with exactly one correct option.
type Question struct {
	Prompt  string   `json:"prompt"`
	Topic   string   `json:"topic"`
	Options []Option `json:"options"`
}

// CorrectAnswer returns the text of the correct option, or "" if none is marked.
func (q Question) CorrectAnswer() string {
	for _, opt := range q.Options {
		if opt.Correct {
			return opt.Text
		}
	}
	return ""
}

// HasOption reports whether text matches one of the question's options.
func (q Question) HasOption(text string) bool {
	for _, opt := range q.Options {
		if opt.Text == text {
			return true
		}
	}
	return false
}

// TopicOrDefault returns the question's topic, falling back to DefaultTopic.
func (q Question) TopicOrDefault() string {
	if q.Topic == "" {
		return DefaultTopic
	}
	return q.Topic
}

// Quiz is an ordered set of questions. The session engine never mutates a
// Quiz; each attempt shuffles its own working copy.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// TopicBreakdown accumulates per-topic correctness counts.
type TopicBreakdown struct {
	Correct   int `json:"correct"`
	Incorrect int `json:"incorrect"`
	Total     int `json:"total"`
}

// MissedQuestion is one entry of the post-session review list.
type MissedQuestion struct {
	Prompt        string `json:"prompt"`
	Topic         string `json:"topic"`
	ChosenAnswer  string `json:"chosenAnswer"`
	CorrectAnswer string `json:"correctAnswer"`
}

// SessionReport is the final scored summary of one attempt. Immutable once
// produced.
type SessionReport struct {
	TotalQuestions  int                       `json:"totalQuestions"`
	CorrectCount    int                       `json:"correctCount"`
	IncorrectCount  int                       `json:"incorrectCount"`
	ScoreOutOfTen   float64                   `json:"scoreOutOfTen"`
	PerTopic        map[string]TopicBreakdown `json:"perTopic"`
	MissedQuestions []MissedQuestion          `json:"missedQuestions"`
}

// Perfect reports whether every question was answered correctly.
func (r SessionReport) Perfect() bool {
	return r.TotalQuestions > 0 && r.CorrectCount == r.TotalQuestions
}

// Result is the persisted record of one finished attempt.
type Result struct {
	UserID      string    `json:"userId"`
	QuizID      string    `json:"quizId"`
	Score       float64   `json:"score"`
	Correct     int       `json:"correct"`
	Incorrect   int       `json:"incorrect"`
	CompletedAt time.Time `json:"completedAt"`
}

// AchievementID names a badge. Named identifiers replace the numeric
// 1/2/3 convention of earlier iterations of the schema.
type AchievementID string

const (
	AchievementFirstSteps        AchievementID = "first_steps"
	AchievementPerfectionist     AchievementID = "perfectionist"
	AchievementConsistentLearner AchievementID = "consistent_learner"
)

// ConsistentLearnerThreshold is the streak length that earns the badge.
const ConsistentLearnerThreshold = 5

// Achievement is a badge a user has earned.
type Achievement struct {
	ID          AchievementID `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	EarnedAt    time.Time     `json:"earnedAt"`
}
