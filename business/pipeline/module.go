// Package pipeline implements the pipeline bounded context: dedupe, score, decide, execute and notify.
package pipeline

import (
	"context"
	"fmt"
	"time"

	chainDI "github.com/fd1az/pool-sniper/business/chain/di"
	notifyDI "github.com/fd1az/pool-sniper/business/notify/di"
	"github.com/fd1az/pool-sniper/business/pipeline/app"
	pipelineDI "github.com/fd1az/pool-sniper/business/pipeline/di"
	"github.com/fd1az/pool-sniper/business/pipeline/infra"
	scoringDI "github.com/fd1az/pool-sniper/business/scoring/di"
	tradingDI "github.com/fd1az/pool-sniper/business/trading/di"
	tradingDomain "github.com/fd1az/pool-sniper/business/trading/domain"
	"github.com/fd1az/pool-sniper/internal/config"
	"github.com/fd1az/pool-sniper/internal/di"
	"github.com/fd1az/pool-sniper/internal/logger"
	"github.com/fd1az/pool-sniper/internal/monolith"
	"github.com/fd1az/pool-sniper/internal/wsconn"
)

// StatsInterval is how often counters and connection state are pushed to the reporter.
const StatsInterval = time.Second

// Module implements the pipeline bounded context.
type Module struct{}

// RegisterServices registers the deduplicator, the reporter and the pipeline.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, pipelineDI.Deduplicator, func(sr di.ServiceRegistry) *app.Deduplicator {
		cfg := sr.Get(monolith.ConfigService).(*config.Config)
		return app.NewDeduplicator(cfg.Pipeline.DedupCapacity)
	})

	di.RegisterToken(c, pipelineDI.Reporter, func(sr di.ServiceRegistry) app.Reporter {
		cfg := sr.Get(monolith.ConfigService).(*config.Config)
		if cfg.App.TUIMode {
			return infra.NewTUIReporter()
		}
		return infra.NewConsoleReporter(nil)
	})

	di.RegisterToken(c, pipelineDI.Pipeline, func(sr di.ServiceRegistry) *app.Pipeline {
		cfg := sr.Get(monolith.ConfigService).(*config.Config)
		log := sr.Get(monolith.LoggerService).(logger.LoggerInterface)

		p, err := app.New(app.Config{
			AutoTradeEnabled: cfg.Trading.AutoTradeEnabled,
			TestMode:         cfg.Trading.TestMode,
			RiskThreshold:    cfg.Trading.RiskThreshold,
			MinLiquidity:     cfg.Trading.MinLiquidityDecimal(),
			Workers:          cfg.Pipeline.Workers,
			MaxMessageLength: cfg.Notify.MaxLength,
		},
			pipelineDI.GetDeduplicator(sr),
			scoringDI.GetScorer(sr),
			tradingDI.GetGate(sr),
			tradingDI.GetTrader(sr),
			notifyDI.GetLimiter(sr),
			log,
			app.WithReporter(pipelineDI.GetReporter(sr)),
		)
		if err != nil {
			panic("failed to create pipeline: " + err.Error())
		}
		return p
	})

	return nil
}

// Startup opens the event stream and runs the pipeline until ctx is done.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	p := pipelineDI.GetPipeline(mono.Services())
	rep := pipelineDI.GetReporter(mono.Services())
	src := chainDI.GetEventSource(mono.Services())
	gate := tradingDI.GetGate(mono.Services())

	if tr, ok := rep.(*infra.TUIReporter); ok {
		tr.Attach(p)
	}

	mono.Health().Register("pipeline", func(context.Context) (bool, string) {
		s := p.Stats()
		if s.Paused {
			return true, "paused"
		}
		return true, fmt.Sprintf("received=%d executed=%d", s.Received, s.Executed)
	})

	events, err := src.Events(ctx)
	if err != nil {
		return fmt.Errorf("open pool event stream: %w", err)
	}
	if err := rep.Start(ctx); err != nil {
		return fmt.Errorf("start reporter: %w", err)
	}

	go func() {
		if err := p.Run(ctx, events); err != nil {
			log.Error(ctx, "pipeline stopped with error", "error", err)
		}
		if err := rep.Stop(); err != nil {
			log.Warn(context.WithoutCancel(ctx), "failed to stop reporter", "error", err)
		}
	}()
	go monitor(ctx, p, gate.Snapshot, src.State, rep)

	log.Info(ctx, "pipeline module started",
		"workers", mono.Config().Pipeline.Workers,
		"risk_threshold", mono.Config().Trading.RiskThreshold,
		"min_liquidity", mono.Config().Trading.MinLiquidityDecimal().String())
	return nil
}

// monitor pushes counters every StatsInterval and connection state on change.
func monitor(ctx context.Context, p *app.Pipeline, gate func() tradingDomain.GateSnapshot, state func() wsconn.State, rep app.Reporter) {
	ticker := time.NewTicker(StatsInterval)
	defer ticker.Stop()

	var last wsconn.State
	for {
		if s := state(); s != last {
			last = s
			rep.UpdateConnectionStatus("solana_ws", string(s))
		}
		rep.ReportStats(p.Stats(), gate())

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
