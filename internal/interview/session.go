// Package interview implements the adaptive diagnostic interview engine:
// a multi-turn question/answer state machine that drives a reasoning
// backend toward a confident structured assessment.
package interview

import (
	"encoding/json"
	"time"
)

// SchemaVersion is the current persisted session layout version.
// Read-time normalization upgrades older rows to this shape.
const SchemaVersion = 1

// Status is the session lifecycle state.
type Status string

const (
	StatusAwaitingFirstQuestion Status = "awaiting_first_question"
	StatusAwaitingAnswer        Status = "awaiting_answer"
	StatusReadyForAnalysis      Status = "ready_for_analysis"
	StatusCompleted             Status = "completed"
	StatusAbandoned             Status = "abandoned"
)

// Terminal reports whether no further turns are possible from s, other
// than the Completed → AwaitingAnswer reopening AskMore performs.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusAbandoned
}

// Question is one entry in the session's question log.
type Question struct {
	Text     string    `json:"text"`
	Index    int       `json:"index"` // 1-based
	Category string    `json:"category"`
	AskedAt  time.Time `json:"asked_at"`
}

// Answer is one entry in the session's answer log, index-aligned with the
// question log.
type Answer struct {
	Text       string    `json:"text"`
	AnsweredAt time.Time `json:"answered_at"`
}

// Differential is one alternative condition in an analysis.
type Differential struct {
	Condition  string `json:"condition"`
	Likelihood int    `json:"likelihood"` // 0-100
}

// Analysis is the structured assessment produced when an interview
// finishes. PrimaryAssessment, Confidence, and a non-empty
// Recommendations list are mandatory; the rest is advisory.
type Analysis struct {
	PrimaryAssessment string         `json:"primary_assessment"`
	Confidence        int            `json:"confidence"` // 0-100
	Differentials     []Differential `json:"differentials,omitempty"`
	Recommendations   []string       `json:"recommendations"`
	RedFlags          []string       `json:"red_flags,omitempty"`
	KeyFindings       []string       `json:"key_findings,omitempty"`
	ConfidenceNote    string         `json:"confidence_note,omitempty"`
	Model             string         `json:"model,omitempty"`
	ProducedAt        time.Time      `json:"produced_at,omitempty"`
}

// Session is the durable representation of one interview.
//
// Log invariants, maintained by the engine:
//
//	len(Answers) == len(Questions)     after an answer, before the next question
//	len(Answers) == len(Questions)-1   while awaiting an answer
//
// Total questions asked never exceed LifetimeCeiling, across the base
// interview and any extensions.
type Session struct {
	ID            string `json:"id"`
	SchemaVersion int    `json:"schema_version"`
	Status        Status `json:"status"`

	// SubjectContext is the opaque case-intake payload supplied at Start.
	// The engine never inspects its shape; it flows into prompts verbatim.
	SubjectContext json.RawMessage `json:"subject_context"`

	Questions []Question `json:"questions"`
	Answers   []Answer   `json:"answers"`

	// CurrentConfidence is the reasoner's self-reported certainty (0-100)
	// for its working assessment. Not guaranteed monotonic: a
	// contradictory answer may lower it.
	CurrentConfidence int `json:"current_confidence"`
	TargetConfidence  int `json:"target_confidence"`

	MinQuestions    int `json:"min_questions"`
	MaxQuestions    int `json:"max_questions"`
	LifetimeCeiling int `json:"lifetime_ceiling"`

	// Extension state, populated by AskMore. ExtensionAsked counts
	// questions generated since the most recent reopening.
	Extended       bool `json:"extended"`
	ExtensionMax   int  `json:"extension_max"`
	ExtensionAsked int  `json:"extension_asked"`

	// ActiveModel is the catalog ref of the backend that produced the
	// latest accepted turn.
	ActiveModel string `json:"active_model"`

	// FinalAnalysis is written by finalize. A re-completion after AskMore
	// replaces it; Enhance never touches it.
	FinalAnalysis    *Analysis `json:"final_analysis,omitempty"`
	EnhancedAnalysis *Analysis `json:"enhanced_analysis,omitempty"`

	// Version supports optimistic concurrency in the store.
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Normalize defaults missing collections and fields after a read, so
// engine logic never branches on nil-vs-absent. Older persisted rows
// (SchemaVersion 0) left logs null when empty.
func (s *Session) Normalize() {
	if s.Questions == nil {
		s.Questions = []Question{}
	}
	if s.Answers == nil {
		s.Answers = []Answer{}
	}
	if s.TargetConfidence == 0 {
		s.TargetConfidence = DefaultTargetConfidence
	}
	if s.MaxQuestions == 0 {
		s.MaxQuestions = DefaultMaxQuestions
	}
	if s.LifetimeCeiling == 0 {
		s.LifetimeCeiling = s.MaxQuestions + DefaultExtensionMax
	}
	s.SchemaVersion = SchemaVersion
}

// Asked returns the total number of questions asked so far.
func (s *Session) Asked() int {
	return len(s.Questions)
}

// AwaitingAnswer reports whether the latest question has no answer yet.
func (s *Session) AwaitingAnswer() bool {
	return len(s.Answers) == len(s.Questions)-1
}

// QuestionTexts returns the full question history as plain text, for
// dedup checks and avoid-lists.
func (s *Session) QuestionTexts() []string {
	out := make([]string, len(s.Questions))
	for i, q := range s.Questions {
		out[i] = q.Text
	}
	return out
}

// appendQuestion adds a question to the log, keeping the index contiguous
// and tracking the extension counter when the session has been reopened.
func (s *Session) appendQuestion(text, category string, now time.Time) Question {
	q := Question{
		Text:     text,
		Index:    len(s.Questions) + 1,
		Category: category,
		AskedAt:  now,
	}
	s.Questions = append(s.Questions, q)
	if s.Extended {
		s.ExtensionAsked++
	}
	return q
}

// appendAnswer records an answer for the currently open question.
func (s *Session) appendAnswer(text string, now time.Time) {
	s.Answers = append(s.Answers, Answer{Text: text, AnsweredAt: now})
}

// remainingLifetime returns how many more questions may be asked before
// the lifetime ceiling is hit.
func (s *Session) remainingLifetime() int {
	r := s.LifetimeCeiling - len(s.Questions)
	if r < 0 {
		return 0
	}
	return r
}
