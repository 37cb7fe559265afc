package ui

import "github.com/charmbracelet/lipgloss"

// Palette shared by the dashboard panels.
var (
	ColorAccent  = lipgloss.Color("#7C3AED")
	ColorGood    = lipgloss.Color("#10B981")
	ColorBad     = lipgloss.Color("#EF4444")
	ColorCaution = lipgloss.Color("#F59E0B")
	ColorDim     = lipgloss.Color("#6B7280")
	ColorFrame   = lipgloss.Color("#374151")
)

var (
	// PanelStyle frames the signals, assessment and stats panels.
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorFrame).
			Padding(0, 1)

	// BannerStyle renders the dashboard title bar.
	BannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(ColorAccent).
			Padding(0, 2)

	// PausedStyle renders the notice shown while trading is paused.
	PausedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorCaution).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(ColorCaution).
			PaddingLeft(1)

	DimText = lipgloss.NewStyle().Foreground(ColorDim)
)
