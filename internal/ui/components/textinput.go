package components

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/cameronkuperman/deepdive/internal/ui/theme"
)

// AnswerInput wraps bubbles/textinput for free-text interview answers.
type AnswerInput struct {
	Model textinput.Model
}

// NewAnswerInput creates a styled answer input.
func NewAnswerInput(placeholder string, charLimit int) AnswerInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	if charLimit > 0 {
		ti.CharLimit = charLimit
	}
	ti.Focus()
	return AnswerInput{Model: ti}
}

// Init returns the initial command.
func (a AnswerInput) Init() tea.Cmd {
	return a.Model.Focus()
}

// Update handles messages.
func (a AnswerInput) Update(msg tea.Msg) (AnswerInput, tea.Cmd) {
	var cmd tea.Cmd
	a.Model, cmd = a.Model.Update(msg)
	return a, cmd
}

// View renders the input with its prompt.
func (a AnswerInput) View() string {
	return theme.Body.Render("› ") + a.Model.View()
}

// Value returns the trimmed input value.
func (a AnswerInput) Value() string {
	return strings.TrimSpace(a.Model.Value())
}

// Reset clears the input for the next answer.
func (a *AnswerInput) Reset() {
	a.Model.SetValue("")
}
