// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// Outcome kinds used to colour a row.
const (
	KindExecuted = "executed"
	KindFailed   = "failed"
	KindSkipped  = "skipped"
)

// FactorRow is one factor score of a signal.
type FactorRow struct {
	Name  string
	Score int
	OK    bool
}

// SignalRow represents a processed opportunity in the list.
type SignalRow struct {
	Time      string
	Symbol    string
	Pool      string
	Mint      string
	Tier      string
	Composite int
	Liquidity decimal.Decimal
	Kind      string
	Decision  string
	Factors   []FactorRow
	Tags      []string
}

// SignalsComponent renders the recent signals with a cursor.
type SignalsComponent struct {
	rows    []SignalRow
	maxRows int
	visible int
	cursor  int
}

// NewSignalsComponent creates a component keeping up to maxRows signals.
func NewSignalsComponent(maxRows int) *SignalsComponent {
	return &SignalsComponent{
		rows:    make([]SignalRow, 0, maxRows),
		maxRows: maxRows,
		visible: 10,
	}
}

// Add prepends a signal. The cursor keeps pointing at the same row when it is not on the newest.
func (s *SignalsComponent) Add(row SignalRow) {
	s.rows = append([]SignalRow{row}, s.rows...)
	if len(s.rows) > s.maxRows {
		s.rows = s.rows[:s.maxRows]
	}
	if s.cursor > 0 && s.cursor < len(s.rows)-1 {
		s.cursor++
	}
}

// Len returns the number of kept signals.
func (s *SignalsComponent) Len() int { return len(s.rows) }

// Clear drops all signals.
func (s *SignalsComponent) Clear() {
	s.rows = s.rows[:0]
	s.cursor = 0
}

// ScrollUp moves the cursor towards newer signals.
func (s *SignalsComponent) ScrollUp() {
	if s.cursor > 0 {
		s.cursor--
	}
}

// ScrollDown moves the cursor towards older signals.
func (s *SignalsComponent) ScrollDown() {
	if s.cursor < len(s.rows)-1 {
		s.cursor++
	}
}

// Selected returns the row under the cursor.
func (s *SignalsComponent) Selected() (SignalRow, bool) {
	if len(s.rows) == 0 {
		return SignalRow{}, false
	}
	return s.rows[s.cursor], true
}

// View renders the signals list.
func (s *SignalsComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("SIGNALS (%d)", len(s.rows))))
	b.WriteString("\n\n")

	if len(s.rows) == 0 {
		b.WriteString(mutedStyle.Render("  Waiting for new pools..."))
		return b.String()
	}

	b.WriteString(mutedStyle.Render(fmt.Sprintf("  %-8s  %-10s  %5s  %10s  %s", "Time", "Token", "Score", "Liquidity", "Decision")))
	b.WriteString("\n")

	start := 0
	if s.cursor >= s.visible {
		start = s.cursor - s.visible + 1
	}
	end := min(start+s.visible, len(s.rows))

	for i := start; i < end; i++ {
		row := s.rows[i]
		marker := "  "
		if i == s.cursor {
			marker = "▸ "
		}
		symbol := row.Symbol
		if symbol == "" {
			symbol = row.Pool
		}
		line := fmt.Sprintf("%-8s  %-10s  %5s  %10s  %s",
			row.Time,
			truncate(symbol, 10),
			fmt.Sprintf("%d/10", row.Composite),
			row.Liquidity.StringFixed(1)+" SOL",
			row.Decision,
		)
		b.WriteString(marker)
		b.WriteString(kindStyle(row.Kind).Render(line))
		b.WriteString("\n")
	}
	if len(s.rows) > end {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  … %d more", len(s.rows)-end)))
	}
	return b.String()
}

func kindStyle(kind string) lipgloss.Style {
	switch kind {
	case KindExecuted:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	case KindFailed:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#D1D5DB"))
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
