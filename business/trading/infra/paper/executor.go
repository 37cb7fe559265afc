// Package paper simulates swaps against a constant-product pool without touching the chain.
package paper

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"

	"github.com/fd1az/pool-sniper/business/trading/domain"
	"github.com/fd1az/pool-sniper/internal/apperror"
	"github.com/fd1az/pool-sniper/internal/asset"
	"github.com/fd1az/pool-sniper/internal/logger"
)

// DefaultFeeBps is the Raydium AMM v4 swap fee.
const DefaultFeeBps = 25

// Executor fills orders against a virtual pool whose SOL side holds half the
// order's pool liquidity.
type Executor struct {
	feeBps uint16
	logger logger.LoggerInterface
}

// NewExecutor creates a paper executor.
func NewExecutor(feeBps uint16, log logger.LoggerInterface) *Executor {
	return &Executor{feeBps: feeBps, logger: log}
}

// Execute simulates the swap. AmountOut is the SOL value received at the pre-trade
// spot price, so the difference from AmountIn is fee plus price impact.
func (e *Executor) Execute(ctx context.Context, order domain.TradeOrder) (domain.TradeResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.TradeResult{}, err
	}
	if order.AmountIn == 0 {
		return domain.TradeResult{}, apperror.Validation(apperror.CodeInvalidTradeSize, "zero amount in")
	}

	reserve := asset.FromDecimalFloor(asset.SOL, order.PoolLiquidity.Div(decimal.NewFromInt(2)))
	if reserve.IsZero() {
		return domain.TradeResult{}, apperror.New(apperror.CodeMarketDataMissing,
			apperror.WithContext("paper fill needs pool liquidity"))
	}

	out := simulate(order.AmountIn, reserve.Uint64(), e.feeBps)

	minOut := order.MinAmountOut
	if minOut == 0 {
		minOut = domain.MinAmountOut(order.AmountIn, order.SlippageBps())
	}
	if out < minOut {
		return domain.TradeResult{}, apperror.New(apperror.CodePriceImpactExceeded,
			apperror.WithContext(fmt.Sprintf("out %d below minimum %d", out, minOut)))
	}

	sig, err := signature()
	if err != nil {
		return domain.TradeResult{}, apperror.Internal(apperror.CodeExecutionFailed, "paper signature", err)
	}

	e.logger.Info(ctx, "paper trade filled",
		"pool", order.PoolID,
		"amount_in", order.AmountIn,
		"amount_out", out,
		"min_out", minOut)

	return domain.TradeResult{
		Signature:      sig,
		ExecutedAmount: order.AmountIn,
		AmountOut:      out,
		Simulated:      true,
	}, nil
}

// simulate returns the spot value of x*y=k output: in' * R / (R + in') with in' net of fee.
func simulate(amountIn, reserve uint64, feeBps uint16) uint64 {
	in := decimal.NewFromBigInt(asset.Lamports(amountIn).Raw(), 0)
	in = in.Mul(decimal.NewFromInt(int64(domain.BasisPointsDenominator - int(feeBps)))).
		Div(decimal.NewFromInt(domain.BasisPointsDenominator))
	r := decimal.NewFromBigInt(asset.Lamports(reserve).Raw(), 0)

	out := in.Mul(r).Div(r.Add(in)).Floor()
	return out.BigInt().Uint64()
}

func signature() (string, error) {
	var b [64]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return base58.Encode(b[:]), nil
}
