// Package app contains the risk scorer and its lookup ports.
package app

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fd1az/pool-sniper/business/scoring/domain"
)

// MintLookup reads token mint state.
type MintLookup interface {
	Mint(ctx context.Context, mint string) (domain.Mint, error)
}

// BalanceLookup reads an account's SOL balance.
type BalanceLookup interface {
	Balance(ctx context.Context, owner string) (decimal.Decimal, error)
}

// Market is the best-effort market view of a pool.
type Market struct {
	Liquidity decimal.Decimal // SOL
	MarketCap decimal.Decimal // USD
	Name      string
	Symbol    string
	Links     int // websites plus social profiles
}

// MarketLookup reads market data for a pool.
type MarketLookup interface {
	Market(ctx context.Context, pool, baseMint string) (Market, error)
}
