package domain

import "fmt"

// ValidateQuiz checks the structural contract a question set must satisfy
// before it can back a session: at least one question, every question with a
// prompt, at least two options, and exactly one option marked correct.
// Returned errors wrap ErrInvalidQuestionSet.
func ValidateQuiz(quiz Quiz) error {
	if len(quiz.Questions) == 0 {
		return fmt.Errorf("%w: no questions", ErrInvalidQuestionSet)
	}
	for i, q := range quiz.Questions {
		if q.Prompt == "" {
			return fmt.Errorf("%w: question %d has no prompt", ErrInvalidQuestionSet, i)
		}
		if len(q.Options) < 2 {
			return fmt.Errorf("%w: question %d has %d options, need at least 2", ErrInvalidQuestionSet, i, len(q.Options))
		}
		correct := 0
		for _, opt := range q.Options {
			if opt.Text == "" {
				return fmt.Errorf("%w: question %d has an empty option", ErrInvalidQuestionSet, i)
			}
			if opt.Correct {
				correct++
			}
		}
		if correct != 1 {
			return fmt.Errorf("%w: question %d has %d correct options, need exactly 1", ErrInvalidQuestionSet, i, correct)
		}
	}
	return nil
}
