package interviewscreen

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/cameronkuperman/deepdive/internal/interview"
	"github.com/cameronkuperman/deepdive/internal/ui/components"
	"github.com/cameronkuperman/deepdive/internal/ui/theme"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func (m *Model) View(width, height int) string {
	switch m.phase {
	case phaseStarting:
		return m.renderWaiting(width, "Preparing your first question...")
	case phaseWaiting:
		return m.renderWaiting(width, "Thinking...")
	case phaseFailed:
		return m.renderError(width)
	case phaseDone:
		return m.renderAnalysis(width, height)
	default:
		return m.renderQuestion(width, height)
	}
}

func (m *Model) renderWaiting(width int, label string) string {
	frame := spinnerFrames[m.spinner%len(spinnerFrames)]
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render(fmt.Sprintf("\n\n%s %s", frame, label))
}

func (m *Model) renderError(width int) string {
	var b strings.Builder
	b.WriteString(theme.Urgent.Render("  The interview could not continue."))
	b.WriteString("\n\n  ")
	b.WriteString(theme.Body.Render(m.errMsg))
	if m.sessionID != "" {
		b.WriteString("\n\n  ")
		b.WriteString(theme.Hint.Render(fmt.Sprintf("Session %s is saved; your answers are not lost.", m.sessionID)))
	}
	return b.String()
}

func (m *Model) renderQuestion(width, height int) string {
	var b strings.Builder

	b.WriteString(m.renderTranscript(width, height))

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(width-4, 0))))
	b.WriteString("\n\n")

	b.WriteString(theme.Hint.Render(fmt.Sprintf("  Question %d", m.questionNo)))
	b.WriteString("\n  ")
	b.WriteString(theme.QuestionStyle.Render(m.question))
	b.WriteString("\n\n  ")
	b.WriteString(m.input.View())
	b.WriteString("\n\n  ")
	b.WriteString(components.NewConfidenceBar(m.confidence, m.target, width-6).View())

	return b.String()
}

// renderTranscript shows the most recent answered exchanges that fit.
func (m *Model) renderTranscript(width, height int) string {
	answered := make([]qa, 0, len(m.transcript))
	for _, t := range m.transcript {
		if t.Answer != "" {
			answered = append(answered, t)
		}
	}

	// Two lines per exchange plus the question block below.
	visible := (height - 10) / 2
	if visible < 0 {
		visible = 0
	}
	if len(answered) > visible {
		answered = answered[len(answered)-visible:]
	}

	var b strings.Builder
	for _, t := range answered {
		b.WriteString("  ")
		b.WriteString(theme.AnswerStyle.Render("Q: " + t.Question))
		b.WriteString("\n  ")
		b.WriteString(theme.Body.Render("A: " + t.Answer))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderAnalysis(width, height int) string {
	a := m.analysis
	if a == nil {
		return ""
	}

	var b strings.Builder

	heading := "Assessment"
	if m.decision == interview.DecisionCompleteAtCap {
		heading = "Assessment (question limit reached)"
	}
	b.WriteString(theme.Title.Width(width).Render(heading))
	b.WriteString("\n\n  ")
	b.WriteString(theme.QuestionStyle.Render(a.PrimaryAssessment))
	b.WriteString("\n\n  ")
	b.WriteString(components.NewConfidenceBar(a.Confidence, m.target, width-6).View())
	b.WriteString("\n")

	if a.ConfidenceNote != "" {
		b.WriteString("\n  ")
		b.WriteString(theme.Warning.Render(a.ConfidenceNote))
		b.WriteString("\n")
	}

	if len(a.RedFlags) > 0 {
		b.WriteString("\n  ")
		b.WriteString(theme.Urgent.Render("Red flags:"))
		b.WriteString("\n")
		for _, f := range a.RedFlags {
			b.WriteString("    • " + theme.Body.Render(f) + "\n")
		}
	}

	if len(a.Recommendations) > 0 {
		b.WriteString("\n  ")
		b.WriteString(theme.Body.Render("Recommendations:"))
		b.WriteString("\n")
		for _, r := range a.Recommendations {
			b.WriteString("    • " + theme.Body.Render(r) + "\n")
		}
	}

	if len(a.Differentials) > 0 {
		b.WriteString("\n  ")
		b.WriteString(theme.Hint.Render("Also considered:"))
		b.WriteString("\n")
		for _, d := range a.Differentials {
			b.WriteString(fmt.Sprintf("    • %s (%d%%)\n",
				theme.AnswerStyle.Render(d.Condition), d.Likelihood))
		}
	}

	if m.extendNote != "" {
		b.WriteString("\n  ")
		b.WriteString(theme.Hint.Render(m.extendNote))
		b.WriteString("\n")
	}

	b.WriteString("\n  ")
	b.WriteString(theme.Hint.Render(fmt.Sprintf("Model: %s   Session: %s", m.modelUsed, m.sessionID)))

	return b.String()
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
