package domain

import "time"

// GateReason explains a refused execution.
type GateReason string

const (
	GateOK         GateReason = ""
	GateDailyLimit GateReason = "daily_limit"
	GateCooldown   GateReason = "cooldown"
)

// GateSnapshot is a point-in-time view of the execution gate.
type GateSnapshot struct {
	LastExecution time.Time // zero before the first execution
	Remaining     time.Duration
	TodayCount    int
	MaxDaily      int
	Cooldown      time.Duration
}

// Open reports whether an execution would be admitted right now.
func (s GateSnapshot) Open() bool {
	if s.MaxDaily > 0 && s.TodayCount >= s.MaxDaily {
		return false
	}
	return s.Remaining == 0
}
