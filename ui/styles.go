package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	normalFg    = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#dddddd"}
	indigo      = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}
	cream       = lipgloss.AdaptiveColor{Light: "#FFFDF5", Dark: "#FFFDF5"}
	green       = lipgloss.Color("#04B575")
	red         = lipgloss.AdaptiveColor{Light: "#FF4672", Dark: "#ED567A"}
	faintRed    = lipgloss.AdaptiveColor{Light: "#FF6F91", Dark: "#C74665"}
	gray        = lipgloss.AdaptiveColor{Light: "#909090", Dark: "#626262"}
	midGray     = lipgloss.AdaptiveColor{Light: "#B2B2B2", Dark: "#4A4A4A"}
	selectionBg = lipgloss.AdaptiveColor{Light: "#C8D7F5", Dark: "#3B4A6B"}
)

var (
	errorTitleStyle = lipgloss.NewStyle().
			Foreground(cream).
			Background(red).
			Padding(0, 1)

	subtleStyle = lipgloss.NewStyle().
			Foreground(gray)

	logoStyle = lipgloss.NewStyle().
			Foreground(cream).
			Background(indigo).
			Bold(true)

	cursorStyle = lipgloss.NewStyle().
			Reverse(true)

	selectionStyle = lipgloss.NewStyle().
			Foreground(normalFg).
			Background(selectionBg)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(indigo)

	promptStyle = lipgloss.NewStyle().
			Foreground(indigo).
			Bold(true)

	statusBarErrorStyle = lipgloss.NewStyle().
				Foreground(cream).
				Background(faintRed).
				Render

	historyOnStyle = lipgloss.NewStyle().
			Foreground(normalFg).
			Background(statusBarBg).
			Render

	historyOffStyle = lipgloss.NewStyle().
			Foreground(midGray).
			Background(statusBarBg).
			Render
)

func logoView() string {
	return logoStyle.Render(" AutoCast ")
}

// Lightweight version of reflow's indent function.
func indent(s string, n int) string {
	if n <= 0 || s == "" {
		return s
	}
	l := strings.Split(s, "\n")
	b := strings.Builder{}
	i := strings.Repeat(" ", n)
	for _, v := range l {
		b.WriteString(i + v + "\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}
