// Package app contains the execution gate, the trader and their ports.
package app

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fd1az/pool-sniper/business/trading/domain"
)

// Executor submits a swap and waits for its outcome.
type Executor interface {
	Execute(ctx context.Context, order domain.TradeOrder) (domain.TradeResult, error)
}

// BalanceProvider reports the trading wallet's spendable SOL.
type BalanceProvider interface {
	Balance(ctx context.Context) (decimal.Decimal, error)
}
