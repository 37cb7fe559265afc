package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/pool-sniper/business/trading/domain"
	"github.com/fd1az/pool-sniper/internal/apperror"
	"github.com/fd1az/pool-sniper/internal/logger"
)

const (
	tracerName = "github.com/fd1az/pool-sniper/business/trading/app"
	meterName  = "github.com/fd1az/pool-sniper/business/trading/app"

	defaultExecutionTimeout = 300 * time.Second
)

// TraderConfig holds order construction settings.
type TraderConfig struct {
	Sizing           domain.Sizing
	MaxSlippage      decimal.Decimal // percent
	ExecutionTimeout time.Duration
}

// Trader sizes orders against the wallet and submits them through an Executor.
type Trader struct {
	config   TraderConfig
	executor Executor
	balances BalanceProvider
	logger   logger.LoggerInterface
	now      func() time.Time

	tracer   trace.Tracer
	executed metric.Int64Counter
	failed   metric.Int64Counter
	spent    metric.Float64Counter
}

// TraderOption configures Trader.
type TraderOption func(*Trader)

// WithTraderClock replaces the wall clock used for order deadlines.
func WithTraderClock(now func() time.Time) TraderOption {
	return func(t *Trader) { t.now = now }
}

// NewTrader creates a Trader.
func NewTrader(cfg TraderConfig, executor Executor, balances BalanceProvider, log logger.LoggerInterface, opts ...TraderOption) (*Trader, error) {
	if cfg.ExecutionTimeout <= 0 {
		cfg.ExecutionTimeout = defaultExecutionTimeout
	}

	t := &Trader{
		config:   cfg,
		executor: executor,
		balances: balances,
		logger:   log,
		now:      time.Now,
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(t)
	}

	if err := t.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return t, nil
}

func (t *Trader) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	if t.executed, err = meter.Int64Counter("trading_executions_total",
		metric.WithDescription("Trades confirmed by the executor")); err != nil {
		return err
	}
	if t.failed, err = meter.Int64Counter("trading_execution_failures_total",
		metric.WithDescription("Trades rejected or timed out")); err != nil {
		return err
	}
	t.spent, err = meter.Float64Counter("trading_sol_spent_total",
		metric.WithDescription("SOL spent on confirmed trades"),
		metric.WithUnit("SOL"))
	return err
}

// PrepareOrder sizes a buy of tokenMint on pool. Orders below the floor fail with
// CodeInsufficientBalance.
func (t *Trader) PrepareOrder(ctx context.Context, pool, tokenMint string, liquidity decimal.Decimal) (domain.TradeOrder, error) {
	balance, err := t.balances.Balance(ctx)
	if err != nil {
		return domain.TradeOrder{}, apperror.Wrap(err, apperror.CodeLookupFailed, "wallet balance")
	}

	amount, err := t.config.Sizing.AmountIn(balance, liquidity)
	if err != nil {
		t.logger.Debug(ctx, "order refused", "pool", pool, "balance", balance.String(), "error", err)
		return domain.TradeOrder{}, err
	}

	return domain.TradeOrder{
		PoolID:             pool,
		TokenMint:          tokenMint,
		AmountIn:           amount.Uint64(),
		MaxSlippagePercent: t.config.MaxSlippage,
		Deadline:           t.now().Add(t.config.ExecutionTimeout).Unix(),
		PoolLiquidity:      liquidity,
	}, nil
}

// Execute submits order and waits at most the execution timeout.
func (t *Trader) Execute(ctx context.Context, order domain.TradeOrder) (domain.TradeResult, error) {
	ctx, span := t.tracer.Start(ctx, "trading.execute",
		trace.WithAttributes(
			attribute.String("pool", order.PoolID),
			attribute.String("mint", order.TokenMint),
			attribute.Int64("amount_in", int64(order.AmountIn)),
		))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, t.config.ExecutionTimeout)
	defer cancel()

	type outcome struct {
		result domain.TradeResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := t.executor.Execute(ctx, order)
		done <- outcome{res, err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-ctx.Done():
		out.err = ctx.Err()
	}

	if out.err != nil {
		out.err = classify(out.err)
		t.failed.Add(ctx, 1, metric.WithAttributes(attribute.String("code", string(apperror.GetCode(out.err)))))
		span.RecordError(out.err)
		span.SetStatus(codes.Error, "execution failed")
		t.logger.Warn(ctx, "trade failed", "pool", order.PoolID, "order", order.String(), "error", out.err)
		return domain.TradeResult{}, out.err
	}

	t.executed.Add(ctx, 1, metric.WithAttributes(attribute.Bool("simulated", out.result.Simulated)))
	t.spent.Add(ctx, order.AmountInSOL().InexactFloat64())
	span.SetAttributes(attribute.String("signature", out.result.Signature))
	span.SetStatus(codes.Ok, "executed")
	t.logger.Info(ctx, "trade executed",
		"pool", order.PoolID,
		"signature", out.result.Signature,
		"amount_in", order.AmountInSOL().String(),
		"simulated", out.result.Simulated)
	return out.result, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperror.New(apperror.CodeExecutionTimeout, apperror.WithCause(err))
	case apperror.IsAppError(err):
		return err
	}
	return apperror.New(apperror.CodeExecutionFailed, apperror.WithCause(err))
}
