package interview

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cameronkuperman/deepdive/internal/extract"
	"github.com/cameronkuperman/deepdive/internal/llm"
)

// Config holds the engine's interview budgets and generation settings.
type Config struct {
	TargetConfidence int
	MinQuestions     int
	MaxQuestions     int

	// ExtensionMax bounds one AskMore extension; the lifetime ceiling is
	// MaxQuestions + ExtensionMax regardless of how extensions are split.
	ExtensionMax int

	DedupThreshold float64
	// DedupRetries is how many times a near-duplicate question is
	// re-prompted before the turn fails.
	DedupRetries int

	QuestionMaxTokens int
	AnalysisMaxTokens int
	Temperature       float64
}

// DefaultConfig returns the standard interview budgets.
func DefaultConfig() Config {
	return Config{
		TargetConfidence:  DefaultTargetConfidence,
		MinQuestions:      DefaultMinQuestions,
		MaxQuestions:      DefaultMaxQuestions,
		ExtensionMax:      DefaultExtensionMax,
		DedupThreshold:    DefaultDedupThreshold,
		DedupRetries:      2,
		QuestionMaxTokens: 512,
		AnalysisMaxTokens: 1024,
		Temperature:       0.3,
	}
}

// Engine orchestrates interview sessions. Every call is one synchronous
// unit of work: load, at most one outbound gateway exchange, persist.
// Persistence is write-after-success only; a failed or cancelled gateway
// call leaves the stored session untouched.
type Engine struct {
	gateway  *llm.Gateway
	sessions SessionStore
	cfg      Config

	locks sessionLocks

	now   func() time.Time
	newID func() string
}

// NewEngine creates an Engine over the given gateway and session store.
func NewEngine(gateway *llm.Gateway, sessions SessionStore, cfg Config) *Engine {
	return &Engine{
		gateway:  gateway,
		sessions: sessions,
		cfg:      cfg,
		locks:    sessionLocks{held: make(map[string]bool)},
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// sessionLocks serializes mutations per session within this process.
// A second mutation arriving while one is in flight is rejected rather
// than queued, so callers see ErrSessionBusy instead of racing appends.
type sessionLocks struct {
	mu   sync.Mutex
	held map[string]bool
}

func (l *sessionLocks) tryAcquire(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[id] {
		return false
	}
	l.held[id] = true
	return true
}

func (l *sessionLocks) release(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, id)
}

// StartResult is the outcome of starting a new interview.
type StartResult struct {
	SessionID      string
	Question       string
	QuestionNumber int
	ModelUsed      string
}

// TurnResult is the outcome of answering a question: either the next
// question, or (when the termination policy fired) the final analysis.
type TurnResult struct {
	Question       string
	QuestionNumber int

	// Analysis is non-nil when the interview finished on this turn.
	Analysis       *Analysis
	Decision       Decision
	Confidence     int
	QuestionsAsked int
	ModelUsed      string
}

// Finished reports whether this turn completed the interview.
func (r *TurnResult) Finished() bool { return r.Analysis != nil }

// AskMoreResult is the outcome of requesting an extension.
type AskMoreResult struct {
	// TargetMet means the current confidence already meets the requested
	// target; no extension was opened.
	TargetMet bool

	// CeilingReached means the session's lifetime question budget is
	// spent; no extension was opened.
	CeilingReached bool

	Question       string
	QuestionNumber int
	Confidence     int
	ModelUsed      string
}

// CompleteResult is the outcome of finalizing an interview.
type CompleteResult struct {
	Analysis       *Analysis
	Confidence     int
	QuestionsAsked int
	ModelUsed      string
}

// EnhanceResult is the outcome of re-running analysis on a stronger model.
type EnhanceResult struct {
	Analysis    *Analysis
	Confidence  int
	Improvement int // confidence delta vs the original analysis
	ModelUsed   string
}

// Start builds the initial prompt from the caller-supplied intake
// context, obtains the first question, and persists a new session
// awaiting its answer. modelPrefs narrows the gateway's catalog for this
// session's turns; nil uses the full catalog order.
func (e *Engine) Start(ctx context.Context, subjectContext json.RawMessage, modelPrefs []string) (*StartResult, error) {
	s := &Session{
		ID:               e.newID(),
		SchemaVersion:    SchemaVersion,
		Status:           StatusAwaitingFirstQuestion,
		SubjectContext:   subjectContext,
		Questions:        []Question{},
		Answers:          []Answer{},
		TargetConfidence: e.cfg.TargetConfidence,
		MinQuestions:     e.cfg.MinQuestions,
		MaxQuestions:     e.cfg.MaxQuestions,
		LifetimeCeiling:  e.cfg.MaxQuestions + e.cfg.ExtensionMax,
		CreatedAt:        e.now(),
		UpdatedAt:        e.now(),
	}

	prompt, err := buildFirstQuestionPrompt(s)
	if err != nil {
		return nil, err
	}

	out, model, err := e.generateQuestion(llm.WithPurpose(ctx, "first-question"), s, prompt, modelPrefs)
	if err != nil {
		return nil, err
	}

	q := s.appendQuestion(out.Question, out.QuestionCategory, e.now())
	e.applyConfidence(s, out)
	s.ActiveModel = model
	s.Status = StatusAwaitingAnswer
	s.UpdatedAt = e.now()

	if err := e.sessions.Create(ctx, s); err != nil {
		return nil, err
	}

	return &StartResult{
		SessionID:      s.ID,
		Question:       q.Text,
		QuestionNumber: q.Index,
		ModelUsed:      model,
	}, nil
}

// Continue records an answer, consults the termination policy, and
// either asks the next question or finalizes the interview.
func (e *Engine) Continue(ctx context.Context, sessionID, answer string) (*TurnResult, error) {
	if !e.locks.tryAcquire(sessionID) {
		return nil, ErrSessionBusy
	}
	defer e.locks.release(sessionID)

	s, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	s.Normalize()

	if s.Status != StatusAwaitingAnswer {
		return nil, &ErrInvalidTransition{Op: "continue", From: s.Status}
	}
	if !s.AwaitingAnswer() {
		// Replay: the latest question already has a recorded answer.
		return nil, &ErrReplayedAnswer{QuestionNumber: len(s.Questions)}
	}

	s.appendAnswer(answer, e.now())

	decision := e.decide(s)
	if decision.Complete() {
		analysis, model, err := e.finalize(ctx, s, decision)
		if err != nil {
			return nil, err
		}
		return &TurnResult{
			Analysis:       analysis,
			Decision:       decision,
			Confidence:     analysis.Confidence,
			QuestionsAsked: s.Asked(),
			ModelUsed:      model,
		}, nil
	}

	prompt, err := buildNextQuestionPrompt(s, "")
	if err != nil {
		return nil, err
	}

	out, model, err := e.generateQuestion(llm.WithPurpose(ctx, "next-question"), s, prompt, nil)
	if err != nil {
		return nil, err
	}

	q := s.appendQuestion(out.Question, out.QuestionCategory, e.now())
	e.applyConfidence(s, out)
	s.ActiveModel = model
	s.UpdatedAt = e.now()

	if err := e.sessions.Update(ctx, s); err != nil {
		return nil, err
	}

	return &TurnResult{
		Question:       q.Text,
		QuestionNumber: q.Index,
		Decision:       decision,
		Confidence:     s.CurrentConfidence,
		QuestionsAsked: s.Asked(),
		ModelUsed:      model,
	}, nil
}

// AskMore reopens a finished session under a fresh extension budget.
// Valid only while the lifetime ceiling has headroom; a target that is
// already met or a spent ceiling returns an informational result rather
// than an error.
func (e *Engine) AskMore(ctx context.Context, sessionID string, targetConfidence, extraMax int) (*AskMoreResult, error) {
	if !e.locks.tryAcquire(sessionID) {
		return nil, ErrSessionBusy
	}
	defer e.locks.release(sessionID)

	s, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	s.Normalize()

	if s.Status != StatusCompleted && s.Status != StatusReadyForAnalysis {
		return nil, &ErrInvalidTransition{Op: "extend", From: s.Status}
	}

	if s.remainingLifetime() == 0 {
		return &AskMoreResult{CeilingReached: true, Confidence: s.CurrentConfidence}, nil
	}

	if targetConfidence <= 0 {
		targetConfidence = s.TargetConfidence
	}
	if s.CurrentConfidence >= targetConfidence {
		return &AskMoreResult{TargetMet: true, Confidence: s.CurrentConfidence}, nil
	}

	if extraMax <= 0 || extraMax > e.cfg.ExtensionMax {
		extraMax = e.cfg.ExtensionMax
	}
	if r := s.remainingLifetime(); extraMax > r {
		extraMax = r
	}

	s.Extended = true
	s.ExtensionMax = extraMax
	s.ExtensionAsked = 0
	s.TargetConfidence = targetConfidence
	s.Status = StatusAwaitingAnswer

	prompt, err := buildNextQuestionPrompt(s, "")
	if err != nil {
		return nil, err
	}

	out, model, err := e.generateQuestion(llm.WithPurpose(ctx, "next-question"), s, prompt, nil)
	if err != nil {
		return nil, err
	}

	q := s.appendQuestion(out.Question, out.QuestionCategory, e.now())
	e.applyConfidence(s, out)
	s.ActiveModel = model
	s.UpdatedAt = e.now()

	if err := e.sessions.Update(ctx, s); err != nil {
		return nil, err
	}

	return &AskMoreResult{
		Question:       q.Text,
		QuestionNumber: q.Index,
		Confidence:     s.CurrentConfidence,
		ModelUsed:      model,
	}, nil
}

// Complete finalizes an interview on demand. finalAnswer, when non-empty
// and a question is still open, is recorded before analysis.
func (e *Engine) Complete(ctx context.Context, sessionID, finalAnswer string) (*CompleteResult, error) {
	if !e.locks.tryAcquire(sessionID) {
		return nil, ErrSessionBusy
	}
	defer e.locks.release(sessionID)

	s, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	s.Normalize()

	if s.Status != StatusAwaitingAnswer && s.Status != StatusReadyForAnalysis {
		return nil, &ErrInvalidTransition{Op: "complete", From: s.Status}
	}

	if finalAnswer != "" && s.AwaitingAnswer() {
		s.appendAnswer(finalAnswer, e.now())
	}

	decision := DecisionCompleteAtCap
	if s.CurrentConfidence >= s.TargetConfidence {
		decision = DecisionCompleteSatisfied
	}

	analysis, model, err := e.finalize(ctx, s, decision)
	if err != nil {
		return nil, err
	}

	return &CompleteResult{
		Analysis:       analysis,
		Confidence:     analysis.Confidence,
		QuestionsAsked: s.Asked(),
		ModelUsed:      model,
	}, nil
}

// Enhance re-runs the final analysis against a stronger backend for an
// already-completed session. The original analysis is never replaced;
// the enhanced result is stored alongside it.
func (e *Engine) Enhance(ctx context.Context, sessionID, strongerModel string) (*EnhanceResult, error) {
	if !e.locks.tryAcquire(sessionID) {
		return nil, ErrSessionBusy
	}
	defer e.locks.release(sessionID)

	s, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	s.Normalize()

	if s.Status != StatusCompleted || s.FinalAnalysis == nil {
		return nil, &ErrInvalidTransition{Op: "enhance", From: s.Status}
	}

	analysis, model, err := e.generateAnalysis(llm.WithPurpose(ctx, "enhance"), s, []string{strongerModel})
	if err != nil {
		return nil, err
	}

	s.EnhancedAnalysis = analysis
	s.UpdatedAt = e.now()

	if err := e.sessions.Update(ctx, s); err != nil {
		return nil, err
	}

	return &EnhanceResult{
		Analysis:    analysis,
		Confidence:  analysis.Confidence,
		Improvement: analysis.Confidence - s.FinalAnalysis.Confidence,
		ModelUsed:   model,
	}, nil
}

// Abandon cancels an in-progress interview. Terminal.
func (e *Engine) Abandon(ctx context.Context, sessionID string) error {
	if !e.locks.tryAcquire(sessionID) {
		return ErrSessionBusy
	}
	defer e.locks.release(sessionID)

	s, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	s.Normalize()

	if s.Status != StatusAwaitingAnswer && s.Status != StatusAwaitingFirstQuestion {
		return &ErrInvalidTransition{Op: "abandon", From: s.Status}
	}

	s.Status = StatusAbandoned
	s.UpdatedAt = e.now()
	return e.sessions.Update(ctx, s)
}

// Get loads a session for read-only inspection.
func (e *Engine) Get(ctx context.Context, sessionID string) (*Session, error) {
	s, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	s.Normalize()
	return s, nil
}

// decide evaluates the termination policy for the session's current
// phase, then clamps to the lifetime ceiling.
func (e *Engine) decide(s *Session) Decision {
	var d Decision
	if s.Extended {
		d = ShouldContinue(s.CurrentConfidence, s.TargetConfidence, s.ExtensionAsked, 1, s.ExtensionMax)
	} else {
		d = ShouldContinue(s.CurrentConfidence, s.TargetConfidence, s.Asked(), s.MinQuestions, s.MaxQuestions)
	}
	if d == DecisionContinue && s.remainingLifetime() == 0 {
		d = DecisionCompleteAtCap
	}
	return d
}

// applyConfidence updates the session's confidence from a question turn.
// A response without a confidence field keeps the previous value.
func (e *Engine) applyConfidence(s *Session, out *questionOutput) {
	if out.Confidence != nil {
		s.CurrentConfidence = *out.Confidence
	}
}

// generateQuestion obtains one non-duplicate question from the gateway.
// Near-duplicates are re-prompted with an explicit avoid instruction up
// to the dedup retry budget, then the turn fails: a near-duplicate is
// never silently accepted.
func (e *Engine) generateQuestion(ctx context.Context, s *Session, prompt string, prefs []string) (*questionOutput, string, error) {
	attempts := e.cfg.DedupRetries + 1
	rejected := ""

	for i := 0; i < attempts; i++ {
		if rejected != "" {
			var err error
			prompt, err = buildNextQuestionPrompt(s, rejected)
			if err != nil {
				return nil, "", err
			}
		}

		out := &questionOutput{}
		req := llm.Request{
			System:      interviewerSystemPrompt,
			Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
			Schema:      QuestionSchema,
			MaxTokens:   e.cfg.QuestionMaxTokens,
			Temperature: e.cfg.Temperature,
		}

		result, err := e.gateway.Generate(ctx, req, prefs, func(text string) error {
			*out = questionOutput{}
			obj, exErr := extract.Object(text,
				extract.WithRepairKeys(questionRepairKeys...),
				extract.WithQuestionFallback("question"),
			)
			if exErr != nil {
				return exErr
			}
			if vErr := llm.ValidateSchema(QuestionSchema, obj); vErr != nil {
				return vErr
			}
			if uErr := json.Unmarshal(obj, out); uErr != nil {
				return uErr
			}
			if out.Question == "" {
				return fmt.Errorf("empty question")
			}
			return nil
		})
		if err != nil {
			return nil, "", err
		}

		if !IsDuplicate(out.Question, s.QuestionTexts(), e.cfg.DedupThreshold) {
			return out, result.Model, nil
		}
		rejected = out.Question
	}

	return nil, "", &ErrQuestionGeneration{
		Attempts: attempts,
		Err:      fmt.Errorf("backend kept producing near-duplicates of %q", rejected),
	}
}

// generateAnalysis obtains a validated structured analysis from the
// gateway. Shape problems are retried inside the gateway; semantically
// empty required fields are terminal and never defaulted.
func (e *Engine) generateAnalysis(ctx context.Context, s *Session, prefs []string) (*Analysis, string, error) {
	prompt, err := buildAnalysisPrompt(s)
	if err != nil {
		return nil, "", err
	}

	out := &analysisOutput{}
	req := llm.Request{
		System:      analystSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		Schema:      AnalysisSchema,
		MaxTokens:   e.cfg.AnalysisMaxTokens,
		Temperature: e.cfg.Temperature,
	}

	result, err := e.gateway.Generate(ctx, req, prefs, func(text string) error {
		*out = analysisOutput{}
		// No question-synthesis fallback here: an analysis response must
		// never be reinterpreted as a free-text question.
		obj, exErr := extract.Object(text, extract.WithRepairKeys(analysisRepairKeys...))
		if exErr != nil {
			return exErr
		}
		if vErr := llm.ValidateSchema(AnalysisSchema, obj); vErr != nil {
			return vErr
		}
		return json.Unmarshal(obj, out)
	})
	if err != nil {
		return nil, "", err
	}

	if err := validateAnalysis(out); err != nil {
		return nil, "", err
	}

	confidence := 0
	if out.Confidence != nil {
		confidence = *out.Confidence
	}

	return &Analysis{
		PrimaryAssessment: out.PrimaryAssessment,
		Confidence:        confidence,
		Differentials:     out.Differentials,
		Recommendations:   out.Recommendations,
		RedFlags:          out.RedFlags,
		KeyFindings:       out.KeyFindings,
		ConfidenceNote:    out.ConfidenceNote,
		Model:             result.Model,
		ProducedAt:        e.now(),
	}, result.Model, nil
}

// finalize produces and persists the final analysis, marking the session
// Completed. Reopened sessions (AskMore) supersede their earlier analysis
// here; Enhance is the only path that stores a second analysis alongside.
func (e *Engine) finalize(ctx context.Context, s *Session, decision Decision) (*Analysis, string, error) {
	analysis, model, err := e.generateAnalysis(llm.WithPurpose(ctx, "final-analysis"), s, nil)
	if err != nil {
		return nil, "", err
	}

	if decision == DecisionCompleteAtCap && analysis.Confidence < s.TargetConfidence && analysis.ConfidenceNote == "" {
		analysis.ConfidenceNote = fmt.Sprintf(
			"Question cap reached before the %d%% confidence target; assessment finalized at %d%%.",
			s.TargetConfidence, analysis.Confidence)
	}

	s.FinalAnalysis = analysis
	s.CurrentConfidence = analysis.Confidence
	s.ActiveModel = model
	s.Status = StatusCompleted
	s.UpdatedAt = e.now()

	if err := e.sessions.Update(ctx, s); err != nil {
		return nil, "", err
	}

	return analysis, model, nil
}
