// Package scoring implements the scoring bounded context: six-factor risk assessment of new pools.
package scoring

import (
	"context"

	"github.com/fd1az/pool-sniper/business/scoring/app"
	scoringDI "github.com/fd1az/pool-sniper/business/scoring/di"
	"github.com/fd1az/pool-sniper/business/scoring/domain"
	"github.com/fd1az/pool-sniper/business/scoring/infra/dexscreener"
	"github.com/fd1az/pool-sniper/business/scoring/infra/onchain"
	"github.com/fd1az/pool-sniper/internal/asset"
	"github.com/fd1az/pool-sniper/internal/config"
	"github.com/fd1az/pool-sniper/internal/di"
	"github.com/fd1az/pool-sniper/internal/logger"
	"github.com/fd1az/pool-sniper/internal/monolith"
	"github.com/fd1az/pool-sniper/internal/solana"
)

// Module implements the scoring bounded context.
type Module struct{}

// RegisterServices registers the scorer and its market data lookup.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, scoringDI.MarketLookup, func(sr di.ServiceRegistry) app.MarketLookup {
		cfg := sr.Get(monolith.ConfigService).(*config.Config)
		log := sr.Get(monolith.LoggerService).(logger.LoggerInterface)

		client, err := dexscreener.NewClient(dexscreener.Config{
			BaseURL:   cfg.DexScreener.BaseURL,
			RateLimit: cfg.DexScreener.RateLimit,
			Timeout:   cfg.DexScreener.Timeout,
		}, log)
		if err != nil {
			panic("failed to create dexscreener client: " + err.Error())
		}
		return client
	})

	di.RegisterToken(c, scoringDI.Scorer, func(sr di.ServiceRegistry) *app.Scorer {
		cfg := sr.Get(monolith.ConfigService).(*config.Config)
		log := sr.Get(monolith.LoggerService).(logger.LoggerInterface)
		rpc := sr.Get(monolith.SolanaService).(*solana.Client)
		registry := sr.Get(monolith.AssetRegistryService).(*asset.Registry)

		onchainLookups := onchain.NewLookups(rpc, registry)
		scorerCfg := app.ScorerConfig{
			LookupTimeout: cfg.Scoring.LookupTimeout,
			NameDenylist:  cfg.Scoring.NameDenylist,
			Timing: domain.TimingWindows{
				PeakStart:     cfg.Scoring.PeakStartHour,
				PeakEnd:       cfg.Scoring.PeakEndHour,
				ExtendedStart: cfg.Scoring.ExtendedStartHour,
				ExtendedEnd:   cfg.Scoring.ExtendedEndHour,
			},
			BlacklistEnabled: cfg.Scoring.BlacklistEnabled,
			Blacklist:        cfg.Scoring.Blacklist,
		}
		scorer, err := app.NewScorer(scorerCfg, onchainLookups, onchainLookups, scoringDI.GetMarketLookup(sr), log)
		if err != nil {
			panic("failed to create risk scorer: " + err.Error())
		}
		return scorer
	})

	return nil
}

// Startup logs the scoring setup.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config().Scoring
	mono.Logger().Info(ctx, "scoring module started",
		"lookup_timeout", cfg.LookupTimeout.String(),
		"blacklist_enabled", cfg.BlacklistEnabled,
		"blacklist_size", len(cfg.Blacklist))
	return nil
}
