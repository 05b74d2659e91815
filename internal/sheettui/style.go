package sheettui

import "github.com/charmbracelet/lipgloss"

// Palette. Accent matches the CLI's cyan id highlight.
var (
	accentBG  = lipgloss.Color("30")
	accentFG  = lipgloss.Color("230")
	accent    = lipgloss.Color("37")
	chromeBG  = lipgloss.Color("236")
	chromeFG  = lipgloss.Color("252")
	mutedFG   = lipgloss.Color("245")
	dimFG     = lipgloss.Color("244")
	borderFG  = lipgloss.Color("238")
	editBG    = lipgloss.Color("58")
	errorFG   = lipgloss.Color("1")
	successFG = lipgloss.Color("2")
	warnFG    = lipgloss.Color("3")
)

// borderASCII frames panes with characters every terminal has.
var borderASCII = lipgloss.Border{
	Top: "-", Bottom: "-", Left: "|", Right: "|",
	TopLeft: "+", TopRight: "+", BottomLeft: "+", BottomRight: "+",
}

// Tab bar and help bar.
var (
	tabBarStyle      = lipgloss.NewStyle().Foreground(chromeFG).Background(chromeBG)
	tabActiveStyle   = lipgloss.NewStyle().Foreground(accentFG).Background(accentBG).Bold(true).Padding(0, 1)
	tabInactiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Background(chromeBG).Padding(0, 1)
	helpBarStyle     = lipgloss.NewStyle().Foreground(mutedFG).Background(chromeBG)
)

// Panes and detail text.
var (
	paneStyle       = lipgloss.NewStyle().Border(borderASCII).BorderForeground(borderFG).Padding(0, 1)
	paneActiveStyle = paneStyle.Copy().BorderForeground(accent)

	labelStyle     = lipgloss.NewStyle().Bold(true)
	valueMuted     = lipgloss.NewStyle().Foreground(dimFG)
	selectedBorder = lipgloss.NewStyle().Foreground(accent)
)

// Status line severities.
var (
	statusErrorStyle   = lipgloss.NewStyle().Foreground(errorFG)
	statusSuccessStyle = lipgloss.NewStyle().Foreground(successFG)
	statusWarnStyle    = lipgloss.NewStyle().Foreground(warnFG)
)

// Grid cells and todo statuses.
var (
	headerCellStyle   = lipgloss.NewStyle().Bold(true).Foreground(chromeFG)
	cellStyle         = lipgloss.NewStyle().Foreground(chromeFG)
	cursorCellStyle   = lipgloss.NewStyle().Foreground(accentFG).Background(accentBG)
	editingCellStyle  = lipgloss.NewStyle().Foreground(accentFG).Background(editBG)
	statusDoneStyle   = lipgloss.NewStyle().Foreground(successFG)
	statusActiveStyle = lipgloss.NewStyle().Foreground(warnFG)
)
