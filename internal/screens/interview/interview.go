// Package interviewscreen implements the interactive interview screen:
// one question at a time, live confidence, and the final assessment.
package interviewscreen

import (
	"context"
	"encoding/json"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/cameronkuperman/deepdive/internal/interview"
	"github.com/cameronkuperman/deepdive/internal/screen"
	"github.com/cameronkuperman/deepdive/internal/ui/components"
	"github.com/cameronkuperman/deepdive/internal/ui/layout"
)

type phase int

const (
	phaseStarting phase = iota
	phaseAsking
	phaseWaiting
	phaseDone
	phaseFailed
)

// qa is one transcript line.
type qa struct {
	Question string
	Answer   string
}

// Model implements screen.Screen for a live interview.
type Model struct {
	engine  *interview.Engine
	subject json.RawMessage

	phase      phase
	sessionID  string
	question   string
	questionNo int
	confidence int
	target     int
	maxQ       int
	transcript []qa

	analysis   *interview.Analysis
	decision   interview.Decision
	modelUsed  string
	extendNote string
	errMsg     string

	input   components.AnswerInput
	spinner int
}

var _ screen.Screen = (*Model)(nil)
var _ screen.KeyHintProvider = (*Model)(nil)
var _ screen.StatusProvider = (*Model)(nil)

// New creates the interview screen. subject is the opaque intake payload
// passed through to the engine.
func New(engine *interview.Engine, subject json.RawMessage, cfg interview.Config) *Model {
	return &Model{
		engine:  engine,
		subject: subject,
		target:  cfg.TargetConfidence,
		maxQ:    cfg.MaxQuestions,
		input:   components.NewAnswerInput("Type your answer...", 500),
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.startCmd(), m.input.Init(), spinnerTick())
}

func (m *Model) Title() string {
	return "Interview"
}

// Status feeds the header counters.
func (m *Model) Status() (int, int, int) {
	return m.confidence, len(m.transcript), m.maxQ
}

func (m *Model) KeyHints() []layout.KeyHint {
	switch m.phase {
	case phaseAsking:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Answer"},
			{Key: "Ctrl+D", Description: "Finish now"},
		}
	case phaseDone:
		return []layout.KeyHint{
			{Key: "M", Description: "Ask more"},
			{Key: "Q", Description: "Close"},
		}
	case phaseFailed:
		return []layout.KeyHint{
			{Key: "Q", Description: "Close"},
		}
	default:
		return nil
	}
}

func (m *Model) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case startedMsg:
		return m.handleStarted(msg)
	case turnMsg:
		return m.handleTurn(msg)
	case completedMsg:
		return m.handleCompleted(msg)
	case extendedMsg:
		return m.handleExtended(msg)
	case spinnerTickMsg:
		if m.phase == phaseStarting || m.phase == phaseWaiting {
			m.spinner++
			return m, spinnerTick()
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.phase == phaseAsking {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch m.phase {
	case phaseAsking:
		switch msg.String() {
		case "enter":
			answer := m.input.Value()
			if answer == "" {
				return m, nil
			}
			m.transcript[len(m.transcript)-1].Answer = answer
			m.input.Reset()
			m.phase = phaseWaiting
			return m, tea.Batch(m.continueCmd(answer), spinnerTick())
		case "ctrl+d":
			finalAnswer := m.input.Value()
			if finalAnswer != "" {
				m.transcript[len(m.transcript)-1].Answer = finalAnswer
			}
			m.input.Reset()
			m.phase = phaseWaiting
			return m, tea.Batch(m.completeCmd(finalAnswer), spinnerTick())
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case phaseDone:
		switch msg.String() {
		case "m", "M":
			m.extendNote = ""
			m.phase = phaseWaiting
			return m, tea.Batch(m.askMoreCmd(), spinnerTick())
		case "q", "Q", "enter", "esc":
			return m, tea.Quit
		}

	case phaseFailed:
		switch msg.String() {
		case "q", "Q", "enter", "esc":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *Model) handleStarted(msg startedMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		m.phase = phaseFailed
		m.errMsg = msg.Err.Error()
		return m, nil
	}
	m.sessionID = msg.Result.SessionID
	m.question = msg.Result.Question
	m.questionNo = msg.Result.QuestionNumber
	m.modelUsed = msg.Result.ModelUsed
	m.transcript = append(m.transcript, qa{Question: msg.Result.Question})
	m.phase = phaseAsking
	return m, nil
}

func (m *Model) handleTurn(msg turnMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		m.phase = phaseFailed
		m.errMsg = msg.Err.Error()
		return m, nil
	}

	r := msg.Result
	m.confidence = r.Confidence
	m.modelUsed = r.ModelUsed

	if r.Finished() {
		m.analysis = r.Analysis
		m.decision = r.Decision
		m.phase = phaseDone
		return m, nil
	}

	m.question = r.Question
	m.questionNo = r.QuestionNumber
	m.transcript = append(m.transcript, qa{Question: r.Question})
	m.phase = phaseAsking
	return m, nil
}

func (m *Model) handleCompleted(msg completedMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		m.phase = phaseFailed
		m.errMsg = msg.Err.Error()
		return m, nil
	}
	m.analysis = msg.Result.Analysis
	m.confidence = msg.Result.Confidence
	m.modelUsed = msg.Result.ModelUsed
	m.phase = phaseDone
	return m, nil
}

func (m *Model) handleExtended(msg extendedMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		m.phase = phaseFailed
		m.errMsg = msg.Err.Error()
		return m, nil
	}

	r := msg.Result
	switch {
	case r.TargetMet:
		m.extendNote = "Confidence target already met; nothing more to ask."
		m.phase = phaseDone
	case r.CeilingReached:
		m.extendNote = "Question limit reached for this interview."
		m.phase = phaseDone
	default:
		m.question = r.Question
		m.questionNo = r.QuestionNumber
		m.confidence = r.Confidence
		m.modelUsed = r.ModelUsed
		m.transcript = append(m.transcript, qa{Question: r.Question})
		m.phase = phaseAsking
	}
	return m, nil
}

func (m *Model) startCmd() tea.Cmd {
	return func() tea.Msg {
		res, err := m.engine.Start(context.Background(), m.subject, nil)
		return startedMsg{Result: res, Err: err}
	}
}

func (m *Model) continueCmd(answer string) tea.Cmd {
	id := m.sessionID
	return func() tea.Msg {
		res, err := m.engine.Continue(context.Background(), id, answer)
		return turnMsg{Result: res, Err: err}
	}
}

func (m *Model) completeCmd(finalAnswer string) tea.Cmd {
	id := m.sessionID
	return func() tea.Msg {
		res, err := m.engine.Complete(context.Background(), id, finalAnswer)
		return completedMsg{Result: res, Err: err}
	}
}

func (m *Model) askMoreCmd() tea.Cmd {
	id := m.sessionID
	return func() tea.Msg {
		res, err := m.engine.AskMore(context.Background(), id, 0, 0)
		return extendedMsg{Result: res, Err: err}
	}
}

func spinnerTick() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(t time.Time) tea.Msg {
		return spinnerTickMsg(t)
	})
}
