// Package chain implements the chain bounded context: pool-creation intake from Solana.
package chain

import (
	"context"
	"fmt"

	"github.com/fd1az/pool-sniper/business/chain/app"
	chainDI "github.com/fd1az/pool-sniper/business/chain/di"
	"github.com/fd1az/pool-sniper/business/chain/infra/raydium"
	"github.com/fd1az/pool-sniper/internal/config"
	"github.com/fd1az/pool-sniper/internal/di"
	"github.com/fd1az/pool-sniper/internal/logger"
	"github.com/fd1az/pool-sniper/internal/monolith"
	"github.com/fd1az/pool-sniper/internal/solana"
	"github.com/fd1az/pool-sniper/internal/wsconn"
)

// Module implements the chain bounded context.
type Module struct{}

// RegisterServices registers the pool-creation event source.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, chainDI.EventSource, func(sr di.ServiceRegistry) app.EventSource {
		cfg := sr.Get(monolith.ConfigService).(*config.Config)
		log := sr.Get(monolith.LoggerService).(logger.LoggerInterface)
		rpc := sr.Get(monolith.SolanaService).(*solana.Client)

		srcCfg := raydium.DefaultSourceConfig(cfg.Solana.WebSocketURL)
		srcCfg.Commitment = cfg.Solana.Commitment
		srcCfg.Programs = cfg.Solana.Programs
		srcCfg.BufferSize = cfg.Pipeline.BufferSize
		srcCfg.InitialBackoff = cfg.Solana.InitialBackoff
		srcCfg.MaxBackoff = cfg.Solana.MaxBackoff
		srcCfg.MaxReconnects = cfg.Solana.MaxReconnects

		src, err := raydium.NewSource(srcCfg, rpc, log)
		if err != nil {
			panic("failed to create pool source: " + err.Error())
		}
		return src
	})
	return nil
}

// Startup registers connection health checks. The pipeline starts the stream.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	src := chainDI.GetEventSource(mono.Services())

	mono.Health().Register("solana_ws", func(context.Context) (bool, string) {
		state := src.State()
		return state == wsconn.StateConnected, string(state)
	})
	mono.Health().Register("solana_rpc", func(context.Context) (bool, string) {
		if mono.Solana().Healthy() {
			return true, "ok"
		}
		return false, "circuit open"
	})

	mono.Logger().Info(ctx, "chain module started", "programs", fmt.Sprint(mono.Config().Solana.Programs))
	return nil
}
