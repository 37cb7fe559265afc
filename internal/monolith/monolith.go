// Package monolith provides the application container and module interface.
package monolith

import (
	"context"

	"github.com/fd1az/pool-sniper/internal/asset"
	"github.com/fd1az/pool-sniper/internal/config"
	"github.com/fd1az/pool-sniper/internal/di"
	"github.com/fd1az/pool-sniper/internal/health"
	"github.com/fd1az/pool-sniper/internal/logger"
	"github.com/fd1az/pool-sniper/internal/solana"
)

// Monolith is the main application container providing access to shared infrastructure.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	Solana() *solana.Client
	AssetRegistry() *asset.Registry
	Health() *health.Checker
	Services() di.ServiceRegistry
}

// Module represents a bounded context module that can register services and start up.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

// Global service names registered by New.
const (
	ConfigService        = "config"
	LoggerService        = "logger"
	SolanaService        = "solana"
	AssetRegistryService = "assetRegistry"
	HealthService        = "health"
)

type app struct {
	config        *config.Config
	logger        logger.LoggerInterface
	solana        *solana.Client
	assetRegistry *asset.Registry
	health        *health.Checker
	container     di.Container
}

// New creates a new Monolith instance.
func New(cfg *config.Config, log logger.LoggerInterface) (*app, error) {
	rpc, err := solana.NewClient(cfg.Solana.RPCURL,
		solana.WithCommitment(cfg.Solana.Commitment),
		solana.WithRateLimit(cfg.Solana.RPCRateLimit),
	)
	if err != nil {
		return nil, err
	}

	assetRegistry := asset.DefaultRegistry()
	checker := health.NewChecker()

	container := di.NewContainer()
	container.Register(ConfigService, cfg)
	container.Register(LoggerService, log)
	container.Register(SolanaService, rpc)
	container.Register(AssetRegistryService, assetRegistry)
	container.Register(HealthService, checker)

	return &app{
		config:        cfg,
		logger:        log,
		solana:        rpc,
		assetRegistry: assetRegistry,
		health:        checker,
		container:     container,
	}, nil
}

func (a *app) Config() *config.Config {
	return a.config
}

func (a *app) Logger() logger.LoggerInterface {
	return a.logger
}

func (a *app) Solana() *solana.Client {
	return a.solana
}

func (a *app) AssetRegistry() *asset.Registry {
	return a.assetRegistry
}

func (a *app) Health() *health.Checker {
	return a.health
}

func (a *app) Services() di.ServiceRegistry {
	return a.container
}

// Container returns the DI container for module registration.
func (a *app) Container() di.Container {
	return a.container
}

// RegisterModules registers all provided modules.
func (a *app) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return err
		}
	}
	return nil
}

// StartModules starts all provided modules in order.
func (a *app) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return err
		}
	}
	return nil
}
