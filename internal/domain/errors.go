package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrSessionNotFound is returned when a session ID does not resolve.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidQuestionSet rejects a set that fails validation before a
	// session may be configured with it.
	ErrInvalidQuestionSet = errors.New("invalid question set")
	// ErrNotConfigured is returned by start when no question set is attached.
	ErrNotConfigured = errors.New("session has no question set configured")
	// ErrInvalidIndex rejects an answer for an index outside the working order.
	ErrInvalidIndex = errors.New("question index out of range")
	// ErrInvalidOption rejects an answer naming an option the question lacks.
	ErrInvalidOption = errors.New("option not among the question's choices")
)

// WrongStateError reports an operation invoked while the session was in the
// wrong state. Always an integration bug at the call site, never retried.
type WrongStateError struct {
	Op       string
	Current  string
	Expected string
}

func (e *WrongStateError) Error() string {
	return fmt.Sprintf("%s requires state %s, session is %s", e.Op, e.Expected, e.Current)
}

// IsWrongState reports whether err is a WrongStateError.
func IsWrongState(err error) bool {
	var ws *WrongStateError
	return errors.As(err, &ws)
}
