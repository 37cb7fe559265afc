// Package domain contains signals, pipeline outcomes and counters.
package domain

import (
	"fmt"
	"time"

	chainDomain "github.com/fd1az/pool-sniper/business/chain/domain"
	scoringDomain "github.com/fd1az/pool-sniper/business/scoring/domain"
	tradingDomain "github.com/fd1az/pool-sniper/business/trading/domain"
)

// Signal is a scored opportunity.
type Signal struct {
	Opportunity chainDomain.Opportunity
	Assessment  scoringDomain.Assessment
	ProcessedAt time.Time
	Processed   bool
}

// State is a terminal pipeline state.
type State string

const (
	StateInvalid                    State = "invalid"
	StateDuplicate                  State = "duplicate"
	StateExecuted                   State = "executed"
	StateExecutionFailed            State = "execution_failed"
	StateSkippedPaused              State = "skipped_paused"
	StateSkippedAutoTradeOff        State = "skipped_auto_trade_off"
	StateSkippedTestMode            State = "skipped_test_mode"
	StateSkippedLowScore            State = "skipped_low_score"
	StateSkippedLowLiquidity        State = "skipped_low_liquidity"
	StateSkippedScam                State = "skipped_scam"
	StateSkippedInsufficientBalance State = "skipped_insufficient_balance"
	StateSkippedBalanceUnavailable  State = "skipped_balance_unavailable"
	StateSkippedCooldown            State = "skipped_cooldown"
	StateSkippedDailyLimit          State = "skipped_daily_limit"
)

// Scored reports whether the opportunity reached the scorer, and therefore gets notified.
func (s State) Scored() bool {
	return s != StateInvalid && s != StateDuplicate
}

// Skipped reports whether s is one of the Skipped-* states.
func (s State) Skipped() bool {
	switch s {
	case StateSkippedPaused, StateSkippedAutoTradeOff, StateSkippedTestMode,
		StateSkippedLowScore, StateSkippedLowLiquidity, StateSkippedScam,
		StateSkippedInsufficientBalance, StateSkippedBalanceUnavailable,
		StateSkippedCooldown, StateSkippedDailyLimit:
		return true
	}
	return false
}

// Outcome is the result of processing one opportunity.
type Outcome struct {
	State  State
	Reason string

	// Signal is nil for invalid and duplicate opportunities.
	Signal *Signal

	// Trade is set when State is StateExecuted.
	Trade *tradingDomain.TradeResult

	// Notification is the limiter outcome, empty when nothing was sent.
	Notification string

	Opportunity chainDomain.Opportunity
}

// DecisionLine is the last line of the published alert.
func (o Outcome) DecisionLine() string {
	switch {
	case o.State == StateExecuted && o.Trade != nil:
		order := tradingDomain.TradeOrder{AmountIn: o.Trade.ExecutedAmount}
		line := fmt.Sprintf("✅ Bought %s SOL", order.AmountInSOL().String())
		if o.Trade.Simulated {
			line += " (paper)"
		}
		return line
	case o.State == StateExecutionFailed:
		return "⚠️ Trade failed: " + o.Reason
	default:
		return "⏭ Skipped: " + o.Reason
	}
}
