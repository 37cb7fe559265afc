package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// ConnectionStatus represents a connection's state.
type ConnectionStatus struct {
	Name  string
	State string
	Since time.Time
}

// Connected reports whether the state is "connected".
func (c ConnectionStatus) Connected() bool {
	return c.State == "connected"
}

// StatusComponent renders connection status.
type StatusComponent struct {
	connections []ConnectionStatus
}

// NewStatusComponent creates a new status component.
func NewStatusComponent() *StatusComponent {
	return &StatusComponent{
		connections: make([]ConnectionStatus, 0),
	}
}

// Update updates a connection's status. Since only moves when the state changes.
func (s *StatusComponent) Update(status ConnectionStatus) {
	for i, conn := range s.connections {
		if conn.Name == status.Name {
			if conn.State == status.State {
				return
			}
			s.connections[i] = status
			return
		}
	}
	s.connections = append(s.connections, status)
}

// Get returns the status of a named connection.
func (s *StatusComponent) Get(name string) (ConnectionStatus, bool) {
	for _, conn := range s.connections {
		if conn.Name == name {
			return conn, true
		}
	}
	return ConnectionStatus{}, false
}

// View renders the status line.
func (s *StatusComponent) View() string {
	if len(s.connections) == 0 {
		return "No connections"
	}

	var result string
	for i, conn := range s.connections {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
		icon := "●"
		switch conn.State {
		case "connected":
		case "connecting", "reconnecting":
			style = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)
			icon = "◐"
		default:
			style = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
			icon = "○"
		}

		if i > 0 {
			result += "  │  "
		}
		result += style.Render(fmt.Sprintf("%s %s (%s)", icon, conn.Name, conn.State))
	}
	return result
}
