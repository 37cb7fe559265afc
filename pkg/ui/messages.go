// Package ui provides the Bubble Tea TUI for the pool sniper.
package ui

import (
	"time"

	"github.com/fd1az/pool-sniper/business/pipeline/domain"
	tradingDomain "github.com/fd1az/pool-sniper/business/trading/domain"
)

// Message types for TUI updates

// OutcomeMsg is sent when the pipeline finishes an opportunity.
type OutcomeMsg struct {
	Outcome domain.Outcome
	At      time.Time
}

// StatsMsg carries the periodic counters and the execution gate.
type StatsMsg struct {
	Stats domain.Stats
	Gate  tradingDomain.GateSnapshot
}

// ConnectionStatusMsg is sent when a connection changes state.
type ConnectionStatusMsg struct {
	Name  string
	State string
}

// ControllerMsg hands the dashboard the pause switch once the pipeline exists.
type ControllerMsg struct {
	Controller Controller
}

// ErrorMsg is sent when an error occurs.
type ErrorMsg struct {
	Error error
}

// TickMsg is sent periodically for UI updates.
type TickMsg struct{}

// StartModulesMsg signals that modules should start loading.
type StartModulesMsg struct{}

// LogMsg is sent to display a log message in the UI.
type LogMsg struct {
	Level   string // "info", "warn", "error"
	Message string
}

// StartupMsg is sent during application startup to show progress.
type StartupMsg struct {
	Step    string
	Status  string
	Message string // Optional message
}

// Startup steps.
const (
	StepConfig   = "config"
	StepSolana   = "solana"
	StepPipeline = "pipeline"
)

// Startup step statuses.
const (
	StepPending    = "pending"
	StepConnecting = "connecting"
	StepReady      = "ready"
	StepFailed     = "failed"
)

// Controller pauses and resumes execution.
type Controller interface {
	Pause()
	Resume()
	Paused() bool
}
