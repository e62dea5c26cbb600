package dashboard

import "github.com/charmbracelet/lipgloss"

const barWidth = 24

var (
	accent = lipgloss.AdaptiveColor{Light: "25", Dark: "45"}
	muted  = lipgloss.AdaptiveColor{Light: "244", Dark: "242"}

	bannerStyle = lipgloss.NewStyle().Bold(true).Foreground(accent).MarginBottom(1)
	accentStyle = lipgloss.NewStyle().Foreground(accent)
	mutedStyle  = lipgloss.NewStyle().Foreground(muted)
	strongStyle = lipgloss.NewStyle().Bold(true)
	labelStyle  = lipgloss.NewStyle().Bold(true).Foreground(accent).Width(14)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("160"))
	barStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("71"))

	cursorStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("231")).Background(lipgloss.Color("31"))
	cursorMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("254")).Background(lipgloss.Color("31"))

	focusedPane  = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(accent)
	blurredPane  = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(muted)
	focusedTitle = lipgloss.NewStyle().Bold(true).Foreground(accent).Padding(0, 1)
	blurredTitle = lipgloss.NewStyle().Bold(true).Foreground(muted).Padding(0, 1)
	footerStyle  = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("250")).Background(lipgloss.Color("237"))
)
