package interviewscreen

import (
	"time"

	"github.com/cameronkuperman/deepdive/internal/interview"
)

// startedMsg is sent when the engine has produced the first question.
type startedMsg struct {
	Result *interview.StartResult
	Err    error
}

// turnMsg is sent when an answer has been processed: either the next
// question or the final analysis.
type turnMsg struct {
	Result *interview.TurnResult
	Err    error
}

// completedMsg is sent when an on-demand Complete call finishes.
type completedMsg struct {
	Result *interview.CompleteResult
	Err    error
}

// extendedMsg is sent when an AskMore request finishes.
type extendedMsg struct {
	Result *interview.AskMoreResult
	Err    error
}

// spinnerTickMsg animates the waiting indicator.
type spinnerTickMsg time.Time
