package app

import (
	"math"

	"studyquiz-service/internal/domain"
)

// Score grades a finished attempt. Pure: no side effects, no I/O. Absent
// answers count as incorrect and appear in the review list with the
// unanswered sentinel; topic buckets are created lazily on first encounter.
func Score(workingOrder []domain.Question, answers map[int]string) domain.SessionReport {
	report := domain.SessionReport{
		TotalQuestions:  len(workingOrder),
		PerTopic:        make(map[string]domain.TopicBreakdown),
		MissedQuestions: []domain.MissedQuestion{},
	}

	for i, q := range workingOrder {
		topic := q.TopicOrDefault()
		bucket := report.PerTopic[topic]
		bucket.Total++

		chosen, answered := answers[i]
		if answered && chosen == q.CorrectAnswer() {
			report.CorrectCount++
			bucket.Correct++
		} else {
			report.IncorrectCount++
			bucket.Incorrect++
			if !answered {
				chosen = domain.Unanswered
			}
			report.MissedQuestions = append(report.MissedQuestions, domain.MissedQuestion{
				Prompt:        q.Prompt,
				Topic:         topic,
				ChosenAnswer:  chosen,
				CorrectAnswer: q.CorrectAnswer(),
			})
		}
		report.PerTopic[topic] = bucket
	}

	if report.TotalQuestions > 0 {
		// (correct/total)*10 rounded to one decimal.
		report.ScoreOutOfTen = math.Round(float64(report.CorrectCount)/float64(report.TotalQuestions)*100) / 10
	}
	return report
}
