package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/cameronkuperman/deepdive/internal/ui/theme"
)

// ConfidenceBar displays the interview's confidence against its target.
type ConfidenceBar struct {
	Confidence int // 0-100
	Target     int // 0-100, rendered as a tick mark
	Width      int
}

// NewConfidenceBar creates a confidence bar.
func NewConfidenceBar(confidence, target, width int) ConfidenceBar {
	return ConfidenceBar{Confidence: confidence, Target: target, Width: width}
}

// View renders the bar. The filled segment is colored by how close the
// confidence is, and the target position is marked when it sits in the
// unfilled range.
func (c ConfidenceBar) View() string {
	label := lipgloss.NewStyle().Foreground(theme.TextDim).Render("Confidence  ")
	suffix := lipgloss.NewStyle().
		Foreground(theme.ConfidenceColor(c.Confidence)).
		Render(fmt.Sprintf("  %d%%", c.Confidence)) +
		lipgloss.NewStyle().
			Foreground(theme.TextDim).
			Render(fmt.Sprintf(" / %d%%", c.Target))

	barWidth := c.Width - lipgloss.Width(label) - lipgloss.Width(suffix)
	if barWidth < 10 {
		barWidth = 10
	}

	filled := barWidth * clampPercent(c.Confidence) / 100
	targetPos := barWidth * clampPercent(c.Target) / 100

	var b strings.Builder
	for i := 0; i < barWidth; i++ {
		switch {
		case i < filled:
			b.WriteString(lipgloss.NewStyle().
				Foreground(theme.ConfidenceColor(c.Confidence)).
				Render("█"))
		case i == targetPos:
			b.WriteString(lipgloss.NewStyle().
				Foreground(theme.Text).
				Render("┃"))
		default:
			b.WriteString(lipgloss.NewStyle().
				Foreground(theme.Border).
				Render("░"))
		}
	}

	return label + b.String() + suffix
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
