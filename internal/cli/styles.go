// Package cli renders the terminal side of ponto: the review prompt, run progress and reports.
package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Colors adapt to light and dark terminal backgrounds.
var (
	accent  = lipgloss.AdaptiveColor{Light: "#2A5BD7", Dark: "#5B8DEF"}
	good    = lipgloss.AdaptiveColor{Light: "#1B7F5A", Dark: "#4ECDC4"}
	caution = lipgloss.AdaptiveColor{Light: "#9A6700", Dark: "#FFE66D"}
	bad     = lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#FF6B6B"}
	muted   = lipgloss.AdaptiveColor{Light: "#8A8A8A", Dark: "#666666"}
	rule    = lipgloss.AdaptiveColor{Light: "#D0D0D0", Dark: "#333333"}
)

var (
	TitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(accent).MarginBottom(1)
	PromptStyle  = lipgloss.NewStyle().Bold(true).Foreground(accent)
	WarningStyle = lipgloss.NewStyle().Foreground(caution)
	SubtleStyle  = lipgloss.NewStyle().Foreground(muted)
	BoldStyle    = lipgloss.NewStyle().Bold(true)

	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(rule)
	TableCellStyle = lipgloss.NewStyle().PaddingRight(2)

	// IncompleteStyle flags days with a missing punch.
	IncompleteStyle = lipgloss.NewStyle().Foreground(caution).Italic(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(rule).
			Padding(1, 2)
	positiveStyle = lipgloss.NewStyle().Foreground(good)
	negativeStyle = lipgloss.NewStyle().Foreground(bad).Bold(true)
)

// Icons shown in titles and photo prompts.
const (
	ClockIcon  = "🕒"
	CameraIcon = "📷"
	ChartIcon  = "📊"
)

// notice is a one-line message kind: a mark and the style it is drawn in.
type notice struct {
	style lipgloss.Style
	mark  string
}

var (
	noticeSuccess = notice{style: positiveStyle, mark: "✓"}
	noticeError   = notice{style: negativeStyle, mark: "✗"}
	noticeWarning = notice{style: WarningStyle, mark: "!"}
	noticeInfo    = notice{style: lipgloss.NewStyle().Foreground(accent), mark: "›"}
)

func (n notice) render(message string) string {
	return n.style.Render(n.mark + " " + message)
}

// FormatSuccess marks a completed step.
func FormatSuccess(message string) string { return noticeSuccess.render(message) }

// FormatError marks a failed step or rejected input.
func FormatError(message string) string { return noticeError.render(message) }

// FormatWarning marks something the operator should know but need not act on.
func FormatWarning(message string) string { return noticeWarning.render(message) }

// FormatInfo marks a neutral status line.
func FormatInfo(message string) string { return noticeInfo.render(message) }

// FormatTitle renders a section title.
func FormatTitle(title string) string {
	return TitleStyle.Render(ClockIcon + " " + title)
}

// FormatPrompt renders the text before an input cursor.
func FormatPrompt(prompt string) string {
	return PromptStyle.Render(prompt + " → ")
}

// RenderBox frames content under a title.
func RenderBox(title, content string) string {
	head := TitleStyle.UnsetMargins().Render(title)
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, head, content))
}

// StyleBalance colors a "+HH:MM" balance green and a negative one red.
func StyleBalance(balance string) string {
	if strings.HasPrefix(balance, "-") {
		return negativeStyle.Render(balance)
	}
	return positiveStyle.Render(balance)
}
