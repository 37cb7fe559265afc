package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// FactorsComponent renders the factor breakdown of one signal.
type FactorsComponent struct {
	row *SignalRow
}

// NewFactorsComponent creates an empty breakdown.
func NewFactorsComponent() *FactorsComponent {
	return &FactorsComponent{}
}

// Show selects the signal to break down.
func (f *FactorsComponent) Show(row SignalRow) {
	f.row = &row
}

// Reset clears the selection.
func (f *FactorsComponent) Reset() {
	f.row = nil
}

// View renders the factor table.
func (f *FactorsComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	goodStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	midStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	badStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))

	if f.row == nil {
		return headerStyle.Render("ASSESSMENT") + "\n\n" + dimStyle.Render("  No signal selected")
	}
	row := f.row

	var b strings.Builder
	title := "ASSESSMENT"
	if row.Symbol != "" {
		title += " $" + row.Symbol
	}
	b.WriteString(headerStyle.Render(title))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("  Tier:  %s  (%d/10)\n", row.Tier, row.Composite))
	b.WriteString(fmt.Sprintf("  Pool:  %s\n", dimStyle.Render(row.Pool)))
	b.WriteString(fmt.Sprintf("  Token: %s\n", dimStyle.Render(row.Mint)))
	b.WriteString(dimStyle.Render("  "+strings.Repeat("─", 36)) + "\n")

	for _, fr := range row.Factors {
		if !fr.OK {
			b.WriteString(fmt.Sprintf("  %-10s %s\n", fr.Name, badStyle.Render("failed")))
			continue
		}
		style := badStyle
		switch {
		case fr.Score >= 8:
			style = goodStyle
		case fr.Score >= 5:
			style = midStyle
		}
		filled := max(0, min(fr.Score, 10))
		bar := strings.Repeat("█", filled) + strings.Repeat("░", 10-filled)
		b.WriteString(fmt.Sprintf("  %-10s %s %2d\n", fr.Name, style.Render(bar), fr.Score))
	}

	if len(row.Tags) > 0 {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("  " + strings.Join(row.Tags, ", ")))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString("  " + row.Decision)
	return b.String()
}
