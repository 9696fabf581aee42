package cli

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.AdaptiveColor{Light: "#4B3CDB", Dark: "#7571F9"}
	colorDim     = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#626262"}
	colorAccent  = lipgloss.AdaptiveColor{Light: "#F25D94", Dark: "#F25D94"}
	colorGreen   = lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#25D366"}
	colorAmber   = lipgloss.AdaptiveColor{Light: "#C27C0E", Dark: "#F5A623"}

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	scoreStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	liveStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	staleStyle = lipgloss.NewStyle().
			Foreground(colorAmber)

	noticeStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Italic(true)
)
