// Package app contains the decision pipeline, the event deduplicator and their ports.
package app

import (
	"context"

	"github.com/shopspring/decimal"

	chainDomain "github.com/fd1az/pool-sniper/business/chain/domain"
	notifyApp "github.com/fd1az/pool-sniper/business/notify/app"
	"github.com/fd1az/pool-sniper/business/pipeline/domain"
	scoringDomain "github.com/fd1az/pool-sniper/business/scoring/domain"
	tradingDomain "github.com/fd1az/pool-sniper/business/trading/domain"
)

// Scorer assesses an opportunity. It does not fail.
type Scorer interface {
	Score(ctx context.Context, opp chainDomain.Opportunity) scoringDomain.Assessment
}

// Gate admits executions.
type Gate interface {
	TryAcquire() (bool, tradingDomain.GateReason)
	Snapshot() tradingDomain.GateSnapshot
}

// Trader sizes and executes orders.
type Trader interface {
	PrepareOrder(ctx context.Context, pool, tokenMint string, liquidity decimal.Decimal) (tradingDomain.TradeOrder, error)
	Execute(ctx context.Context, order tradingDomain.TradeOrder) (tradingDomain.TradeResult, error)
}

// Notifier publishes alerts under rate limits.
type Notifier interface {
	Send(ctx context.Context, text string) notifyApp.SendOutcome
	Stats() notifyApp.LimiterStats
}

// Reporter displays pipeline activity.
type Reporter interface {
	// Start initializes the reporter.
	Start(ctx context.Context) error

	// Report shows one processed opportunity.
	Report(outcome domain.Outcome)

	// ReportStats shows the periodic counters and the execution gate.
	ReportStats(stats domain.Stats, gate tradingDomain.GateSnapshot)

	// UpdateConnectionStatus shows a connection state change.
	UpdateConnectionStatus(name, state string)

	// Stop gracefully shuts down the reporter.
	Stop() error
}
