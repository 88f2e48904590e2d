package tui

import "github.com/charmbracelet/lipgloss"

const (
	green = "#22c55e"
	muted = "#737373"
)

var (
	titleStyle        = newWithColor(green).Bold(true).MarginBottom(1)
	headerStyle       = newWithColor("#a1a1a1")
	searchInputStyle  = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#404040"))
	errorStyle        = newWithColor("#ef4444")
	dimStyle          = newWithColor("#525252").Italic(true)
	accentStyle       = newWithColor(green)
	nameStyle         = newWithColor("#fafafa")
	selectedNameStyle = newWithColor(green).Bold(true)
	typeStyle         = newWithColor(muted).Faint(true)
	selectedTypeStyle = newWithColor(green)
	emptyStateStyle   = newWithColor(muted).Italic(true).Padding(1, 2)
	docTitleStyle     = newWithColor(green).Bold(true)
	docBackStyle      = newWithColor(muted)
	docLinksStyle     = newWithColor(muted).Italic(true)
	activeTabStyle    = newWithColor("#0a0a0a").Background(lipgloss.Color(green)).Bold(true)
	inactiveTabStyle  = newWithColor("#a1a1a1").Background(lipgloss.Color("#262626"))
)

func newWithColor(c string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
}
