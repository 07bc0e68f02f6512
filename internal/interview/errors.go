package interview

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSessionNotFound is returned when no session exists for the given ID.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionBusy is returned when another mutation is in flight for the
// same session, or a concurrent writer won the version race. Callers may
// retry.
var ErrSessionBusy = errors.New("session busy")

// ErrInvalidTransition reports an operation that the session's current
// status does not allow.
type ErrInvalidTransition struct {
	Op   string
	From Status
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("cannot %s a session in status %q", e.Op, e.From)
}

// ErrReplayedAnswer reports a Continue call for a question that already
// has a recorded answer. The duplicate is never appended.
type ErrReplayedAnswer struct {
	QuestionNumber int
}

func (e *ErrReplayedAnswer) Error() string {
	return fmt.Sprintf("question %d already has a recorded answer", e.QuestionNumber)
}

// ErrQuestionGeneration reports that the backend could not produce an
// acceptable (non-duplicate) question within the dedup retry budget.
type ErrQuestionGeneration struct {
	Attempts int
	Err      error
}

func (e *ErrQuestionGeneration) Error() string {
	return fmt.Sprintf("failed to generate a usable question after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ErrQuestionGeneration) Unwrap() error { return e.Err }

// ErrAnalysisValidation reports a well-formed analysis missing required
// fields. The engine never fills these in silently.
type ErrAnalysisValidation struct {
	Missing []string
}

func (e *ErrAnalysisValidation) Error() string {
	return fmt.Sprintf("analysis missing required fields: %s", strings.Join(e.Missing, ", "))
}
