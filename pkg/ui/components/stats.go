package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Stats holds pipeline counters for display.
type Stats struct {
	Received   int
	Scored     int
	Executed   int
	Failed     int
	Skipped    int
	Duplicates int
	Invalid    int

	AlertsSent    int
	AlertsPending int
	AlertsDropped int

	TradesToday int
	MaxDaily    int
	Cooldown    time.Duration
}

// StatsComponent renders statistics.
type StatsComponent struct {
	stats Stats
}

// NewStatsComponent creates a new stats component.
func NewStatsComponent() *StatsComponent {
	return &StatsComponent{}
}

// Update updates the statistics.
func (s *StatsComponent) Update(stats Stats) {
	s.stats = stats
}

// View renders the stats component.
func (s *StatsComponent) View() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)

	v := func(n int) string { return valueStyle.Render(fmt.Sprintf("%d", n)) }

	failed := v(s.stats.Failed)
	if s.stats.Failed > 0 {
		failed = errorStyle.Render(fmt.Sprintf("%d", s.stats.Failed))
	}
	dropped := v(s.stats.AlertsDropped)
	if s.stats.AlertsDropped > 0 {
		dropped = errorStyle.Render(fmt.Sprintf("%d", s.stats.AlertsDropped))
	}
	cooldown := valueStyle.Render("ready")
	if s.stats.Cooldown > 0 {
		cooldown = warnStyle.Render(s.stats.Cooldown.Round(time.Second).String())
	}

	return style.Render("STATS") + "\n" +
		fmt.Sprintf("Pools: %s  │  Scored: %s  │  Bought: %s  │  Failed: %s  │  Skipped: %s  │  Dupes: %s  │  Invalid: %s\n",
			v(s.stats.Received), v(s.stats.Scored), v(s.stats.Executed), failed,
			v(s.stats.Skipped), v(s.stats.Duplicates), v(s.stats.Invalid),
		) +
		fmt.Sprintf("Trades today: %s/%d  │  Cooldown: %s  │  Alerts sent: %s  │  Pending: %s  │  Dropped: %s",
			v(s.stats.TradesToday), s.stats.MaxDaily, cooldown,
			v(s.stats.AlertsSent), v(s.stats.AlertsPending), dropped,
		)
}
