package infra

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fd1az/pool-sniper/business/pipeline/domain"
	tradingDomain "github.com/fd1az/pool-sniper/business/trading/domain"
	"github.com/fd1az/pool-sniper/pkg/ui"
)

// TUIReporter implements Reporter for the Bubble Tea dashboard.
type TUIReporter struct {
	send func(tea.Msg)
}

// NewTUIReporter creates a TUIReporter that forwards to the running program.
func NewTUIReporter() *TUIReporter {
	return &TUIReporter{send: ui.Send}
}

// Start marks the pipeline step ready on the startup screen.
func (r *TUIReporter) Start(ctx context.Context) error {
	r.send(ui.StartupMsg{Step: ui.StepPipeline, Status: ui.StepReady})
	return nil
}

// Report sends one processed opportunity to the dashboard.
func (r *TUIReporter) Report(o domain.Outcome) {
	r.send(ui.OutcomeMsg{Outcome: o, At: time.Now()})
}

// ReportStats sends the counters and the gate snapshot.
func (r *TUIReporter) ReportStats(s domain.Stats, gate tradingDomain.GateSnapshot) {
	r.send(ui.StatsMsg{Stats: s, Gate: gate})
}

// UpdateConnectionStatus sends a connection state change.
func (r *TUIReporter) UpdateConnectionStatus(name, state string) {
	r.send(ui.ConnectionStatusMsg{Name: name, State: state})
}

// Stop is a no-op. The program is owned by main.
func (r *TUIReporter) Stop() error {
	return nil
}

// Attach hands the dashboard the pause switch.
func (r *TUIReporter) Attach(c ui.Controller) {
	r.send(ui.ControllerMsg{Controller: c})
}
