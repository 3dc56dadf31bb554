// Package tui implements the terminal user interface using Bubbletea.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Jayphen/todone/internal/types"
)

// Color palette
var (
	ColorCyan    = lipgloss.Color("86")
	ColorGreen   = lipgloss.Color("78")
	ColorYellow  = lipgloss.Color("221")
	ColorRed     = lipgloss.Color("196")
	ColorMagenta = lipgloss.Color("213")
	ColorBlue    = lipgloss.Color("111")
	ColorGray    = lipgloss.Color("245")
	ColorDimGray = lipgloss.Color("239")
)

// PriorityColors follow the usual p1 red to p4 gray scale.
var PriorityColors = map[types.Priority]lipgloss.Color{
	types.P1: ColorRed,
	types.P2: ColorYellow,
	types.P3: ColorBlue,
	types.P4: ColorGray,
}

// Due date styles
var (
	DueOverdue = lipgloss.NewStyle().Foreground(ColorRed)
	DueToday   = lipgloss.NewStyle().Foreground(ColorGreen)
	DueLater   = lipgloss.NewStyle().Foreground(ColorMagenta)
)

// Common styles
var (
	// Title style
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorCyan)

	// Subtitle/dim text
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	// Selected item style
	SelectedStyle = lipgloss.NewStyle().
			Foreground(ColorCyan).
			Bold(true)

	// Dim text style
	DimStyle = lipgloss.NewStyle().
			Foreground(ColorDimGray)

	// Completed task content
	DoneStyle = lipgloss.NewStyle().
			Foreground(ColorDimGray).
			Strikethrough(true)

	// Label chips
	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorBlue)

	// Active section header
	ActiveSectionStyle = lipgloss.NewStyle().
				Foreground(ColorGreen).
				Bold(true)

	// Completed section header
	CompletedSectionStyle = lipgloss.NewStyle().
				Foreground(ColorGray).
				Bold(true)

	// Help key style
	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(ColorCyan)

	// Error style
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	// Status message style
	StatusMsgStyle = lipgloss.NewStyle().
			Foreground(ColorCyan)

	// Warning style
	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorYellow)
)

// Indicators
const (
	IndicatorOpen      = "○"
	IndicatorCompleted = "✓"
	IndicatorSelected  = "❯"
	IndicatorChild     = "├─"
	IndicatorRecurring = "↻"
)

// PriorityStyle returns the flag style for p.
func PriorityStyle(p types.Priority) lipgloss.Style {
	color, ok := PriorityColors[p]
	if !ok {
		color = ColorGray
	}
	return lipgloss.NewStyle().Foreground(color)
}

// ColorStyle returns a foreground style for a user-chosen color.
func ColorStyle(color string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}
