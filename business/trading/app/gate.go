package app

import (
	"sync"
	"time"

	"github.com/fd1az/pool-sniper/business/trading/domain"
)

const dayLayout = "2006-01-02"

// GateConfig configures CooldownGate.
type GateConfig struct {
	Cooldown time.Duration
	MaxDaily int // <= 0 disables the daily quota
}

// CooldownGate enforces a global cooldown between executions and a per-day quota.
// Days are local calendar days of the process.
type CooldownGate struct {
	config GateConfig
	now    func() time.Time

	mu    sync.Mutex
	last  time.Time
	daily map[string]int
}

// GateOption configures CooldownGate.
type GateOption func(*CooldownGate)

// WithGateClock replaces the wall clock.
func WithGateClock(now func() time.Time) GateOption {
	return func(g *CooldownGate) { g.now = now }
}

// NewCooldownGate creates a gate with no executions recorded.
func NewCooldownGate(cfg GateConfig, opts ...GateOption) *CooldownGate {
	g := &CooldownGate{
		config: cfg,
		now:    time.Now,
		daily:  make(map[string]int),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// MayExecute reports whether an execution would be admitted now.
func (g *CooldownGate) MayExecute() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.check(g.now()) == domain.GateOK
}

// RecordExecution stamps the cooldown and counts one execution for today.
func (g *CooldownGate) RecordExecution() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record(g.now())
}

// RemainingCooldown returns how long until the cooldown expires, zero when it has.
func (g *CooldownGate) RemainingCooldown() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.remaining(g.now())
}

// TryAcquire checks both limits and records the execution when they pass.
// The daily limit is reported ahead of the cooldown.
func (g *CooldownGate) TryAcquire() (bool, domain.GateReason) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if reason := g.check(now); reason != domain.GateOK {
		return false, reason
	}
	g.record(now)
	return true, domain.GateOK
}

// Snapshot returns the current gate state.
func (g *CooldownGate) Snapshot() domain.GateSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	return domain.GateSnapshot{
		LastExecution: g.last,
		Remaining:     g.remaining(now),
		TodayCount:    g.daily[now.Format(dayLayout)],
		MaxDaily:      g.config.MaxDaily,
		Cooldown:      g.config.Cooldown,
	}
}

func (g *CooldownGate) check(now time.Time) domain.GateReason {
	if g.config.MaxDaily > 0 && g.daily[now.Format(dayLayout)] >= g.config.MaxDaily {
		return domain.GateDailyLimit
	}
	if g.remaining(now) > 0 {
		return domain.GateCooldown
	}
	return domain.GateOK
}

func (g *CooldownGate) record(now time.Time) {
	today := now.Format(dayLayout)
	for day := range g.daily {
		if day != today {
			delete(g.daily, day)
		}
	}
	g.daily[today]++
	g.last = now
}

func (g *CooldownGate) remaining(now time.Time) time.Duration {
	if g.last.IsZero() {
		return 0
	}
	left := g.config.Cooldown - now.Sub(g.last)
	if left < 0 {
		return 0
	}
	return left
}
