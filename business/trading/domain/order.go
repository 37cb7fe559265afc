// Package domain contains trade orders, order sizing and gate types.
package domain

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/fd1az/pool-sniper/internal/apperror"
	"github.com/fd1az/pool-sniper/internal/asset"
)

// BasisPointsDenominator is 100%.
const BasisPointsDenominator = 10000

// TradeOrder is a request to buy TokenMint with AmountIn lamports on PoolID.
type TradeOrder struct {
	PoolID             string
	TokenMint          string
	AmountIn           uint64 // lamports
	MaxSlippagePercent decimal.Decimal
	Deadline           int64 // unix seconds

	// MinAmountOut is zero when the executor computes its own bound.
	MinAmountOut uint64

	// PoolLiquidity is the SOL liquidity the order was sized against.
	PoolLiquidity decimal.Decimal
}

// SlippageBps converts the slippage tolerance to basis points.
func (o TradeOrder) SlippageBps() uint16 {
	return SlippageBps(o.MaxSlippagePercent)
}

// AmountInSOL returns AmountIn in whole SOL.
func (o TradeOrder) AmountInSOL() decimal.Decimal {
	return asset.Lamports(o.AmountIn).ToDecimal()
}

func (o TradeOrder) String() string {
	return fmt.Sprintf("buy %s with %s SOL (slippage %s%%)", o.TokenMint, o.AmountInSOL().String(), o.MaxSlippagePercent.String())
}

// TradeResult is a confirmed execution.
type TradeResult struct {
	Signature      string
	ExecutedAmount uint64 // lamports spent
	AmountOut      uint64 // smallest units received, zero when unknown
	Simulated      bool
}

// SlippageBps converts a percentage to basis points, clamped to [0, 10000].
func SlippageBps(percent decimal.Decimal) uint16 {
	bps := percent.Mul(decimal.NewFromInt(100)).Round(0)
	switch {
	case bps.IsNegative():
		return 0
	case bps.GreaterThan(decimal.NewFromInt(BasisPointsDenominator)):
		return BasisPointsDenominator
	}
	return uint16(bps.IntPart())
}

// MinAmountOut applies a slippage tolerance to an expected output:
// expected * (10000 - bps) / 10000, rounded down.
func MinAmountOut(expected uint64, bps uint16) uint64 {
	if bps >= BasisPointsDenominator {
		return 0
	}
	out := decimal.NewFromBigInt(new(big.Int).SetUint64(expected), 0).
		Mul(decimal.NewFromInt(int64(BasisPointsDenominator - int(bps)))).
		Div(decimal.NewFromInt(BasisPointsDenominator)).
		Floor()
	return out.BigInt().Uint64()
}

// Sizing bounds an order. All amounts are in SOL.
type Sizing struct {
	MaxTrade          decimal.Decimal
	MinTrade          decimal.Decimal
	BalanceFraction   decimal.Decimal
	LiquidityFraction decimal.Decimal
}

// DefaultSizing returns the 0.1 SOL ceiling, 0.001 SOL floor, 90% of balance and 5% of liquidity.
func DefaultSizing() Sizing {
	return Sizing{
		MaxTrade:          decimal.RequireFromString("0.1"),
		MinTrade:          decimal.RequireFromString("0.001"),
		BalanceFraction:   decimal.RequireFromString("0.9"),
		LiquidityFraction: decimal.RequireFromString("0.05"),
	}
}

// AmountIn returns min(max trade, balance fraction, liquidity fraction) in lamports.
// Orders below the floor are refused with CodeInsufficientBalance.
func (s Sizing) AmountIn(balance, liquidity decimal.Decimal) (asset.Amount, error) {
	candidates := []asset.Amount{
		asset.FromDecimalFloor(asset.SOL, s.MaxTrade),
		asset.FromDecimalFloor(asset.SOL, balance.Mul(s.BalanceFraction)),
		asset.FromDecimalFloor(asset.SOL, liquidity.Mul(s.LiquidityFraction)),
	}
	amount, err := asset.Min(candidates[0], candidates[1:]...)
	if err != nil {
		return asset.Amount{}, apperror.Internal(apperror.CodeInvalidTradeSize, "order sizing", err)
	}

	floor := asset.FromDecimalFloor(asset.SOL, s.MinTrade)
	if below, _ := amount.LessThan(floor); below || amount.IsZero() {
		return amount, apperror.New(apperror.CodeInsufficientBalance,
			apperror.WithContext(fmt.Sprintf("sized %s SOL, floor %s SOL", amount.ToDecimal().String(), s.MinTrade.String())))
	}
	return amount, nil
}
