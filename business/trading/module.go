// Package trading implements the trading bounded context: order sizing, the
// execution gate and swap executors.
package trading

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fd1az/pool-sniper/business/trading/app"
	tradingDI "github.com/fd1az/pool-sniper/business/trading/di"
	"github.com/fd1az/pool-sniper/business/trading/domain"
	"github.com/fd1az/pool-sniper/business/trading/infra/paper"
	"github.com/fd1az/pool-sniper/business/trading/infra/swapapi"
	"github.com/fd1az/pool-sniper/business/trading/infra/wallet"
	"github.com/fd1az/pool-sniper/internal/config"
	"github.com/fd1az/pool-sniper/internal/di"
	"github.com/fd1az/pool-sniper/internal/logger"
	"github.com/fd1az/pool-sniper/internal/monolith"
	"github.com/fd1az/pool-sniper/internal/solana"
)

// Module implements the trading bounded context.
type Module struct{}

// RegisterServices registers the gate, the trader and the configured executor.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, tradingDI.Executor, func(sr di.ServiceRegistry) app.Executor {
		cfg := sr.Get(monolith.ConfigService).(*config.Config)
		log := sr.Get(monolith.LoggerService).(logger.LoggerInterface)

		if cfg.Trading.Executor == "swapapi" {
			exec, err := swapapi.NewExecutor(swapapi.Config{
				BaseURL: cfg.Trading.SwapAPIURL,
				Token:   cfg.Trading.SwapAPIToken,
				Wallet:  cfg.Solana.WalletAddress,
				Timeout: cfg.Trading.ExecutionTimeout,
			}, log)
			if err != nil {
				panic("failed to create swap executor: " + err.Error())
			}
			return exec
		}
		return paper.NewExecutor(paper.DefaultFeeBps, log)
	})

	di.RegisterToken(c, tradingDI.BalanceProvider, func(sr di.ServiceRegistry) app.BalanceProvider {
		cfg := sr.Get(monolith.ConfigService).(*config.Config)
		rpc := sr.Get(monolith.SolanaService).(*solana.Client)

		if cfg.Solana.WalletAddress == "" {
			return wallet.Fixed(decimal.NewFromFloat(cfg.Trading.PaperBalance))
		}
		b, err := wallet.NewBalance(rpc, cfg.Solana.WalletAddress)
		if err != nil {
			panic("failed to create wallet balance provider: " + err.Error())
		}
		return b
	})

	di.RegisterToken(c, tradingDI.Gate, func(sr di.ServiceRegistry) *app.CooldownGate {
		cfg := sr.Get(monolith.ConfigService).(*config.Config)
		return app.NewCooldownGate(app.GateConfig{
			Cooldown: cfg.Trading.Cooldown(),
			MaxDaily: cfg.Trading.MaxDailyTrades,
		})
	})

	di.RegisterToken(c, tradingDI.Trader, func(sr di.ServiceRegistry) *app.Trader {
		cfg := sr.Get(monolith.ConfigService).(*config.Config)
		log := sr.Get(monolith.LoggerService).(logger.LoggerInterface)

		traderCfg := app.TraderConfig{
			Sizing: domain.Sizing{
				MaxTrade:          cfg.Trading.MaxTradeAmountDecimal(),
				MinTrade:          cfg.Trading.MinTradeAmountDecimal(),
				BalanceFraction:   decimal.NewFromFloat(cfg.Trading.BalanceFraction),
				LiquidityFraction: decimal.NewFromFloat(cfg.Trading.LiquidityFraction),
			},
			MaxSlippage:      cfg.Trading.MaxSlippageDecimal(),
			ExecutionTimeout: cfg.Trading.ExecutionTimeout,
		}
		trader, err := app.NewTrader(traderCfg, tradingDI.GetExecutor(sr), tradingDI.GetBalanceProvider(sr), log)
		if err != nil {
			panic("failed to create trader: " + err.Error())
		}
		return trader
	})

	return nil
}

// Startup logs the trading posture.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config().Trading
	log := mono.Logger()

	if cfg.AutoTradeEnabled && !cfg.TestMode {
		log.Warn(ctx, "auto trading is LIVE",
			"executor", cfg.Executor,
			"max_trade", cfg.MaxTradeAmount,
			"max_daily", cfg.MaxDailyTrades)
	} else {
		log.Info(ctx, "trading module started",
			"auto_trade", cfg.AutoTradeEnabled,
			"test_mode", cfg.TestMode,
			"executor", cfg.Executor)
	}
	return nil
}
