package interview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cameronkuperman/deepdive/internal/llm"
)

// memStore is an in-memory SessionStore with the same optimistic
// concurrency contract as the sqlite-backed one.
type memStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func newMemStore() *memStore {
	return &memStore{sessions: make(map[string]*Session)}
}

func cloneSession(s *Session) *Session {
	raw, err := json.Marshal(s)
	if err != nil {
		panic(err)
	}
	var out Session
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(err)
	}
	return &out
}

func (m *memStore) Create(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.Version = 1
	m.sessions[s.ID] = cloneSession(s)
	return nil
}

func (m *memStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return cloneSession(s), nil
}

func (m *memStore) Update(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.sessions[s.ID]
	if !ok {
		return ErrSessionNotFound
	}
	if cur.Version != s.Version {
		return ErrSessionBusy
	}
	s.Version++
	m.sessions[s.ID] = cloneSession(s)
	return nil
}

func (m *memStore) List(_ context.Context) ([]*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, cloneSession(s))
	}
	return out, nil
}

func questionJSON(q, category string, confidence int) string {
	return fmt.Sprintf(`{"question": %q, "question_category": %q, "confidence": %d, "reasoning": "test"}`,
		q, category, confidence)
}

func analysisJSON(confidence int) string {
	return fmt.Sprintf(`{"primary_assessment": "tension headache", "confidence": %d, "differentials": [{"condition": "migraine", "likelihood": 30}], "recommendations": ["rest", "hydration"], "red_flags": [], "key_findings": ["gradual onset"]}`,
		confidence)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Temperature = 0
	return cfg
}

func newTestEngine(store SessionStore, cfg Config, provs ...llm.Provider) *Engine {
	cands := make([]llm.Candidate, len(provs))
	for i, p := range provs {
		cands[i] = llm.Candidate{Ref: p.ModelID(), Provider: p}
	}
	gw := llm.NewGateway(llm.NewModelCatalog(cands...), llm.RetryConfig{
		MaxAttempts: 3,
		InitialWait: time.Millisecond,
		MaxWait:     time.Millisecond,
		Multiplier:  1,
	}, 0)
	return NewEngine(gw, store, cfg)
}

func TestInterviewReachesTarget(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	mock := llm.NewMockProvider(
		llm.MockResponse{Text: questionJSON("When did the headache start?", "onset", 40)},
		llm.MockResponse{Text: questionJSON("Where exactly is the pain?", "location", 70)},
		llm.MockResponse{Text: questionJSON("Does light make it worse?", "aggravating_factors", 91)},
		llm.MockResponse{Text: analysisJSON(91)},
	)
	e := newTestEngine(store, testConfig(), mock)

	start, err := e.Start(ctx, json.RawMessage(`{"complaint": "headache"}`), nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if start.QuestionNumber != 1 || start.Question != "When did the headache start?" {
		t.Fatalf("unexpected first question: %+v", start)
	}

	r1, err := e.Continue(ctx, start.SessionID, "Two days ago")
	if err != nil {
		t.Fatalf("Continue 1: %v", err)
	}
	if r1.Finished() || r1.QuestionNumber != 2 {
		t.Fatalf("turn 1 should ask question 2, got %+v", r1)
	}

	r2, err := e.Continue(ctx, start.SessionID, "Behind the eyes")
	if err != nil {
		t.Fatalf("Continue 2: %v", err)
	}
	if r2.Finished() || r2.Confidence != 91 {
		t.Fatalf("turn 2 should ask question 3 at confidence 91, got %+v", r2)
	}

	r3, err := e.Continue(ctx, start.SessionID, "Yes, a lot")
	if err != nil {
		t.Fatalf("Continue 3: %v", err)
	}
	if !r3.Finished() {
		t.Fatal("turn 3 should finalize: confidence above target past the minimum")
	}
	if r3.Decision != DecisionCompleteSatisfied {
		t.Errorf("Decision = %v, want %v", r3.Decision, DecisionCompleteSatisfied)
	}
	if r3.Analysis.PrimaryAssessment != "tension headache" || r3.Analysis.Confidence != 91 {
		t.Errorf("unexpected analysis: %+v", r3.Analysis)
	}
	if len(r3.Analysis.Recommendations) == 0 {
		t.Error("analysis must carry recommendations")
	}

	s, err := store.Get(ctx, start.SessionID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if s.Status != StatusCompleted {
		t.Errorf("Status = %q, want %q", s.Status, StatusCompleted)
	}
	if s.FinalAnalysis == nil || s.FinalAnalysis.Confidence != 91 {
		t.Error("final analysis should be persisted")
	}
	if s.Asked() != 3 || len(s.Answers) != 3 {
		t.Errorf("logs = %dQ/%dA, want 3Q/3A", s.Asked(), len(s.Answers))
	}
	if s.Version != 4 {
		t.Errorf("Version = %d, want 4 (create + three updates)", s.Version)
	}
}

func TestStartFallsBackAcrossModels(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()

	primary := llm.NewNamedMockProvider("primary") // empty queue: always unavailable
	backup := llm.NewNamedMockProvider("backup",
		llm.MockResponse{Text: "I think the best opening is probably {not json"},
		llm.MockResponse{Text: "Here you go:\n```json\n" + questionJSON("When did it start?", "onset", 35) + "\n```"},
	)
	e := newTestEngine(store, testConfig(), primary, backup)

	start, err := e.Start(ctx, nil, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if start.ModelUsed != "backup" {
		t.Errorf("ModelUsed = %q, want backup", start.ModelUsed)
	}
	if primary.CallCount() != 3 {
		t.Errorf("primary attempts = %d, want 3 before fallback", primary.CallCount())
	}
	if backup.CallCount() != 2 {
		t.Errorf("backup attempts = %d, want 2 (malformed then valid)", backup.CallCount())
	}

	s, err := store.Get(ctx, start.SessionID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if s.ActiveModel != "backup" {
		t.Errorf("ActiveModel = %q, want backup", s.ActiveModel)
	}
}

func TestStartNotPersistedOnTotalFailure(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	e := newTestEngine(store, testConfig(), llm.NewNamedMockProvider("dead"))

	_, err := e.Start(ctx, nil, nil)
	var exhausted *llm.ErrAllModelsExhausted
	if !errors.As(err, &exhausted) {
		t.Fatalf("err = %v, want ErrAllModelsExhausted", err)
	}

	sessions, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(sessions) != 0 {
		t.Error("a failed Start must not persist a session")
	}
}

func TestContinueRepromptsNearDuplicate(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	mock := llm.NewMockProvider(
		llm.MockResponse{Text: questionJSON("Do you have fever?", "associated_symptoms", 40)},
		llm.MockResponse{Text: questionJSON("Have you had a fever?", "associated_symptoms", 45)},
		llm.MockResponse{Text: questionJSON("Any recent travel?", "history", 50)},
	)
	e := newTestEngine(store, testConfig(), mock)

	start, err := e.Start(ctx, nil, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	r, err := e.Continue(ctx, start.SessionID, "No idea")
	if err != nil {
		t.Fatalf("Continue: %v", err)
	}
	if r.Question != "Any recent travel?" {
		t.Errorf("Question = %q, want the re-prompted replacement", r.Question)
	}
	if mock.CallCount() != 3 {
		t.Errorf("CallCount = %d, want 3 (first question, duplicate, replacement)", mock.CallCount())
	}

	reprompt := mock.LastCall().Messages[0].Content
	if !strings.Contains(reprompt, "near-duplicate") {
		t.Error("re-prompt should call out the rejected near-duplicate")
	}
	if !strings.Contains(reprompt, "Have you had a fever?") {
		t.Error("re-prompt should quote the rejected question")
	}
}

func TestContinueFailsWhenDuplicatesPersist(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	dup := llm.MockResponse{Text: questionJSON("Have you had a fever?", "associated_symptoms", 45)}
	mock := llm.NewMockProvider(
		llm.MockResponse{Text: questionJSON("Do you have fever?", "associated_symptoms", 40)},
		dup, dup, dup,
	)
	e := newTestEngine(store, testConfig(), mock)

	start, err := e.Start(ctx, nil, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	_, err = e.Continue(ctx, start.SessionID, "No idea")
	var qErr *ErrQuestionGeneration
	if !errors.As(err, &qErr) {
		t.Fatalf("err = %v, want ErrQuestionGeneration", err)
	}
	if qErr.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", qErr.Attempts)
	}

	// The failed turn must not leave a partial write behind.
	s, err := store.Get(ctx, start.SessionID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if s.Asked() != 1 || len(s.Answers) != 0 {
		t.Errorf("logs = %dQ/%dA, want 1Q/0A untouched", s.Asked(), len(s.Answers))
	}
}

func TestContinueRejectsReplayedAnswer(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	e := newTestEngine(store, testConfig(), llm.NewMockProvider())

	now := time.Now()
	s := &Session{
		ID:        "replay",
		Status:    StatusAwaitingAnswer,
		Questions: []Question{{Text: "When did it start?", Index: 1, AskedAt: now}},
		Answers:   []Answer{{Text: "Yesterday", AnsweredAt: now}},
	}
	s.Normalize()
	if err := store.Create(ctx, s); err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err := e.Continue(ctx, "replay", "Yesterday")
	var replay *ErrReplayedAnswer
	if !errors.As(err, &replay) {
		t.Fatalf("err = %v, want ErrReplayedAnswer", err)
	}
	if replay.QuestionNumber != 1 {
		t.Errorf("QuestionNumber = %d, want 1", replay.QuestionNumber)
	}

	got, _ := store.Get(ctx, "replay")
	if len(got.Answers) != 1 {
		t.Error("the replayed answer must not be appended")
	}
}

// blockingProvider parks inside Generate until released, so tests can
// observe a turn in flight.
type blockingProvider struct {
	entered chan struct{}
	release chan struct{}
	text    string
}

func (p *blockingProvider) Generate(ctx context.Context, _ llm.Request) (*llm.Response, error) {
	select {
	case p.entered <- struct{}{}:
	default:
	}
	select {
	case <-p.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &llm.Response{Text: p.text, Model: "block"}, nil
}

func (p *blockingProvider) ModelID() string { return "block" }

func TestConcurrentContinueReturnsBusy(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	block := &blockingProvider{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
		text:    questionJSON("Where does it hurt?", "location", 50),
	}
	e := newTestEngine(store, testConfig(), block)

	now := time.Now()
	s := &Session{
		ID:        "busy",
		Status:    StatusAwaitingAnswer,
		Questions: []Question{{Text: "When did it start?", Index: 1, AskedAt: now}},
		Answers:   []Answer{},
	}
	s.Normalize()
	if err := store.Create(ctx, s); err != nil {
		t.Fatalf("Create: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := e.Continue(ctx, "busy", "Two days ago")
		done <- err
	}()

	<-block.entered
	if _, err := e.Continue(ctx, "busy", "Two days ago"); !errors.Is(err, ErrSessionBusy) {
		t.Errorf("second Continue err = %v, want ErrSessionBusy", err)
	}

	close(block.release)
	if err := <-done; err != nil {
		t.Errorf("first Continue err = %v, want nil", err)
	}
}

func TestInterviewFinalizesAtCap(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	mock := llm.NewMockProvider(
		llm.MockResponse{Text: questionJSON("When did it start?", "onset", 30)},
		llm.MockResponse{Text: questionJSON("Where does it hurt?", "location", 40)},
		llm.MockResponse{Text: analysisJSON(55)},
	)
	cfg := testConfig()
	cfg.MinQuestions = 1
	cfg.MaxQuestions = 2
	cfg.ExtensionMax = 1
	e := newTestEngine(store, cfg, mock)

	start, err := e.Start(ctx, nil, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := e.Continue(ctx, start.SessionID, "Yesterday"); err != nil {
		t.Fatalf("Continue 1: %v", err)
	}

	r, err := e.Continue(ctx, start.SessionID, "Lower back")
	if err != nil {
		t.Fatalf("Continue 2: %v", err)
	}
	if !r.Finished() || r.Decision != DecisionCompleteAtCap {
		t.Fatalf("cap turn = %+v, want finalized at cap", r)
	}
	if r.Analysis.ConfidenceNote == "" {
		t.Error("finishing below target at the cap must disclose the shortfall")
	}
	if r.Analysis.Confidence != 55 {
		t.Errorf("Confidence = %d, want 55", r.Analysis.Confidence)
	}
}

func TestAskMoreExtendsUnderCeiling(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	mock := llm.NewMockProvider(
		llm.MockResponse{Text: questionJSON("Any numbness in your legs?", "associated_symptoms", 60)},
		llm.MockResponse{Text: analysisJSON(70)},
	)
	cfg := testConfig()
	cfg.MinQuestions = 1
	cfg.MaxQuestions = 2
	cfg.ExtensionMax = 1
	e := newTestEngine(store, cfg, mock)

	now := time.Now()
	s := &Session{
		ID:     "ext",
		Status: StatusCompleted,
		Questions: []Question{
			{Text: "When did it start?", Index: 1, AskedAt: now},
			{Text: "Where does it hurt?", Index: 2, AskedAt: now},
		},
		Answers:           []Answer{{Text: "Yesterday"}, {Text: "Lower back"}},
		CurrentConfidence: 55,
		TargetConfidence:  90,
		MinQuestions:      1,
		MaxQuestions:      2,
		LifetimeCeiling:   3,
		FinalAnalysis:     &Analysis{PrimaryAssessment: "muscle strain", Confidence: 55, Recommendations: []string{"rest"}},
	}
	if err := store.Create(ctx, s); err != nil {
		t.Fatalf("Create: %v", err)
	}

	r, err := e.AskMore(ctx, "ext", 95, 3)
	if err != nil {
		t.Fatalf("AskMore: %v", err)
	}
	if r.TargetMet || r.CeilingReached {
		t.Fatalf("extension should open, got %+v", r)
	}
	if r.QuestionNumber != 3 {
		t.Errorf("QuestionNumber = %d, want 3", r.QuestionNumber)
	}

	got, _ := store.Get(ctx, "ext")
	if !got.Extended || got.ExtensionAsked != 1 {
		t.Errorf("extension state = %+v", got)
	}
	if got.ExtensionMax != 1 {
		t.Errorf("ExtensionMax = %d, want clamped to the 1 remaining lifetime slot", got.ExtensionMax)
	}
	if got.Status != StatusAwaitingAnswer {
		t.Errorf("Status = %q, want %q", got.Status, StatusAwaitingAnswer)
	}

	// The lone extension question is also the ceiling, so the next answer
	// finalizes and supersedes the earlier analysis.
	turn, err := e.Continue(ctx, "ext", "Some tingling")
	if err != nil {
		t.Fatalf("Continue: %v", err)
	}
	if !turn.Finished() || turn.Decision != DecisionCompleteAtCap {
		t.Fatalf("extension turn = %+v, want finalized at cap", turn)
	}

	got, _ = store.Get(ctx, "ext")
	if got.FinalAnalysis.Confidence != 70 {
		t.Errorf("FinalAnalysis.Confidence = %d, want 70 after reopened completion", got.FinalAnalysis.Confidence)
	}
	if got.Asked() != 3 {
		t.Errorf("Asked = %d, want 3 (ceiling)", got.Asked())
	}
}

func TestAskMoreTargetAlreadyMet(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	e := newTestEngine(store, testConfig(), llm.NewMockProvider())

	s := &Session{
		ID:                "met",
		Status:            StatusCompleted,
		Questions:         []Question{{Text: "q1", Index: 1}},
		Answers:           []Answer{{Text: "a1"}},
		CurrentConfidence: 92,
		FinalAnalysis:     &Analysis{PrimaryAssessment: "x", Confidence: 92, Recommendations: []string{"y"}},
	}
	s.Normalize()
	if err := store.Create(ctx, s); err != nil {
		t.Fatalf("Create: %v", err)
	}

	r, err := e.AskMore(ctx, "met", 90, 2)
	if err != nil {
		t.Fatalf("AskMore: %v", err)
	}
	if !r.TargetMet || r.Question != "" {
		t.Errorf("result = %+v, want TargetMet with no question", r)
	}
}

func TestAskMoreCeilingReached(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	e := newTestEngine(store, testConfig(), llm.NewMockProvider())

	s := &Session{
		ID:     "capped",
		Status: StatusCompleted,
		Questions: []Question{
			{Text: "q1", Index: 1}, {Text: "q2", Index: 2}, {Text: "q3", Index: 3},
		},
		Answers:           []Answer{{Text: "a1"}, {Text: "a2"}, {Text: "a3"}},
		CurrentConfidence: 60,
		LifetimeCeiling:   3,
		FinalAnalysis:     &Analysis{PrimaryAssessment: "x", Confidence: 60, Recommendations: []string{"y"}},
	}
	if err := store.Create(ctx, s); err != nil {
		t.Fatalf("Create: %v", err)
	}

	r, err := e.AskMore(ctx, "capped", 95, 2)
	if err != nil {
		t.Fatalf("AskMore: %v", err)
	}
	if !r.CeilingReached {
		t.Errorf("result = %+v, want CeilingReached", r)
	}
}

func TestCompleteRecordsFinalAnswer(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	mock := llm.NewMockProvider(
		llm.MockResponse{Text: questionJSON("When did it start?", "onset", 88)},
		llm.MockResponse{Text: analysisJSON(89)},
	)
	e := newTestEngine(store, testConfig(), mock)

	start, err := e.Start(ctx, nil, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	r, err := e.Complete(ctx, start.SessionID, "About a week ago")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if r.Analysis.Confidence != 89 {
		t.Errorf("Confidence = %d, want 89", r.Analysis.Confidence)
	}

	s, _ := store.Get(ctx, start.SessionID)
	if len(s.Answers) != 1 || s.Answers[0].Text != "About a week ago" {
		t.Error("the final answer should be recorded before analysis")
	}
	if s.Status != StatusCompleted {
		t.Errorf("Status = %q, want %q", s.Status, StatusCompleted)
	}
}

func TestCompleteRejectsHollowAnalysis(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	mock := llm.NewMockProvider(
		llm.MockResponse{Text: questionJSON("When did it start?", "onset", 40)},
		llm.MockResponse{Text: `{"primary_assessment": "unclear", "confidence": 50, "recommendations": []}`},
	)
	e := newTestEngine(store, testConfig(), mock)

	start, err := e.Start(ctx, nil, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	_, err = e.Complete(ctx, start.SessionID, "Yesterday")
	var vErr *ErrAnalysisValidation
	if !errors.As(err, &vErr) {
		t.Fatalf("err = %v, want ErrAnalysisValidation", err)
	}
	if len(vErr.Missing) != 1 || vErr.Missing[0] != "recommendations" {
		t.Errorf("Missing = %v, want [recommendations]", vErr.Missing)
	}

	s, _ := store.Get(ctx, start.SessionID)
	if s.Status != StatusAwaitingAnswer || s.FinalAnalysis != nil {
		t.Error("a rejected analysis must not complete the session")
	}
}

func TestEnhanceUsesStrongerModel(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	weak := llm.NewNamedMockProvider("weak")
	strong := llm.NewNamedMockProvider("strong",
		llm.MockResponse{Text: analysisJSON(82)},
	)
	e := newTestEngine(store, testConfig(), weak, strong)

	s := &Session{
		ID:                "done",
		Status:            StatusCompleted,
		Questions:         []Question{{Text: "q1", Index: 1}},
		Answers:           []Answer{{Text: "a1"}},
		CurrentConfidence: 50,
		FinalAnalysis:     &Analysis{PrimaryAssessment: "muscle strain", Confidence: 50, Recommendations: []string{"rest"}},
	}
	s.Normalize()
	if err := store.Create(ctx, s); err != nil {
		t.Fatalf("Create: %v", err)
	}

	r, err := e.Enhance(ctx, "done", "strong")
	if err != nil {
		t.Fatalf("Enhance: %v", err)
	}
	if r.ModelUsed != "strong" {
		t.Errorf("ModelUsed = %q, want strong", r.ModelUsed)
	}
	if r.Improvement != 32 {
		t.Errorf("Improvement = %d, want 32", r.Improvement)
	}
	if weak.CallCount() != 0 {
		t.Error("enhance must only consult the requested model")
	}

	got, _ := store.Get(ctx, "done")
	if got.FinalAnalysis.Confidence != 50 {
		t.Error("enhance must never touch the original analysis")
	}
	if got.EnhancedAnalysis == nil || got.EnhancedAnalysis.Confidence != 82 {
		t.Error("enhanced analysis should be stored alongside the original")
	}
}

func TestEnhanceRequiresCompletedSession(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	e := newTestEngine(store, testConfig(), llm.NewMockProvider())

	s := &Session{ID: "open", Status: StatusAwaitingAnswer,
		Questions: []Question{{Text: "q1", Index: 1}}, Answers: []Answer{}}
	s.Normalize()
	if err := store.Create(ctx, s); err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err := e.Enhance(ctx, "open", "strong")
	var tErr *ErrInvalidTransition
	if !errors.As(err, &tErr) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestAbandon(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	mock := llm.NewMockProvider(
		llm.MockResponse{Text: questionJSON("When did it start?", "onset", 40)},
	)
	e := newTestEngine(store, testConfig(), mock)

	start, err := e.Start(ctx, nil, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := e.Abandon(ctx, start.SessionID); err != nil {
		t.Fatalf("Abandon: %v", err)
	}

	s, _ := store.Get(ctx, start.SessionID)
	if s.Status != StatusAbandoned {
		t.Errorf("Status = %q, want %q", s.Status, StatusAbandoned)
	}

	_, err = e.Continue(ctx, start.SessionID, "too late")
	var tErr *ErrInvalidTransition
	if !errors.As(err, &tErr) {
		t.Fatalf("Continue after abandon err = %v, want ErrInvalidTransition", err)
	}
}

func TestContinueUnknownSession(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(newMemStore(), testConfig(), llm.NewMockProvider())

	_, err := e.Continue(ctx, "nope", "hello")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}
