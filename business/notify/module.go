// Package notify implements the notify bounded context: rate-limited publishing of pool alerts.
package notify

import (
	"context"
	"io"
	"os"

	"github.com/fd1az/pool-sniper/business/notify/app"
	notifyDI "github.com/fd1az/pool-sniper/business/notify/di"
	"github.com/fd1az/pool-sniper/business/notify/infra/console"
	"github.com/fd1az/pool-sniper/business/notify/infra/x"
	"github.com/fd1az/pool-sniper/internal/config"
	"github.com/fd1az/pool-sniper/internal/di"
	"github.com/fd1az/pool-sniper/internal/logger"
	"github.com/fd1az/pool-sniper/internal/monolith"
)

// Module implements the notify bounded context.
type Module struct{}

// RegisterServices registers the limiter and the configured publisher.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, notifyDI.Publisher, func(sr di.ServiceRegistry) app.Publisher {
		cfg := sr.Get(monolith.ConfigService).(*config.Config)
		log := sr.Get(monolith.LoggerService).(logger.LoggerInterface)

		if cfg.Notify.Publisher == "x" {
			p, err := x.NewPublisher(x.Config{
				BaseURL:     cfg.Notify.XBaseURL,
				BearerToken: cfg.Notify.XBearerToken,
				Timeout:     cfg.Notify.SendTimeout,
			}, log)
			if err != nil {
				panic("failed to create x publisher: " + err.Error())
			}
			return p
		}

		// The dashboard owns the terminal in TUI mode.
		var out io.Writer = os.Stdout
		if cfg.App.TUIMode {
			out = io.Discard
		}
		return console.NewPublisher(out)
	})

	di.RegisterToken(c, notifyDI.Limiter, func(sr di.ServiceRegistry) *app.Limiter {
		cfg := sr.Get(monolith.ConfigService).(*config.Config)
		log := sr.Get(monolith.LoggerService).(logger.LoggerInterface)

		l, err := app.NewLimiter(app.LimiterConfig{
			MinInterval: cfg.Notify.MinInterval,
			QuotaLimit:  cfg.Notify.QuotaLimit,
			QuotaWindow: cfg.Notify.QuotaWindow,
			MaxAttempts: cfg.Notify.MaxAttempts,
			SendTimeout: cfg.Notify.SendTimeout,
		}, notifyDI.GetPublisher(sr), log)
		if err != nil {
			panic("failed to create notification limiter: " + err.Error())
		}
		return l
	})

	return nil
}

// Startup starts the queue drain loop.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	limiter := notifyDI.GetLimiter(mono.Services())
	go limiter.Run(ctx)

	mono.Logger().Info(ctx, "notify module started",
		"publisher", mono.Config().Notify.Publisher,
		"min_interval", mono.Config().Notify.MinInterval.String())
	return nil
}
