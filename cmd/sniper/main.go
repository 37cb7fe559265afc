// Package main is the entry point for the Solana pool sniper.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/fd1az/pool-sniper/business/chain"
	chainDI "github.com/fd1az/pool-sniper/business/chain/di"
	"github.com/fd1az/pool-sniper/business/notify"
	"github.com/fd1az/pool-sniper/business/pipeline"
	"github.com/fd1az/pool-sniper/business/scoring"
	"github.com/fd1az/pool-sniper/business/trading"
	"github.com/fd1az/pool-sniper/internal/apm"
	"github.com/fd1az/pool-sniper/internal/config"
	"github.com/fd1az/pool-sniper/internal/logger"
	"github.com/fd1az/pool-sniper/internal/metrics"
	"github.com/fd1az/pool-sniper/internal/monolith"
	"github.com/fd1az/pool-sniper/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	cliMode := flag.Bool("cli", false, "Run in CLI mode with logs (no TUI)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("pool-sniper %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// TUI is the default, CLI is for servers and debugging
	tuiMode := !*cliMode

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		if !tuiMode {
			fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		}
		cancel()
	}()

	if err := run(ctx, *configPath, tuiMode); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, tuiMode bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.App.TUIMode = tuiMode

	// The dashboard owns the terminal in TUI mode.
	var out io.Writer = os.Stderr
	if tuiMode {
		out = io.Discard
	}
	log := logger.New(out, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, nil)
	log.Info(ctx, "starting pool sniper",
		"version", version,
		"environment", cfg.App.Environment,
		"auto_trade", cfg.Trading.AutoTradeEnabled,
		"test_mode", cfg.Trading.TestMode,
	)

	if cfg.Telemetry.Enabled {
		traceProvider, err := apm.NewTraceProvider(ctx, log, apm.Config{
			ServiceName: cfg.Telemetry.ServiceName,
			Provider:    apm.ParseProvider(cfg.Telemetry.TraceProvider),
			Endpoint:    cfg.Telemetry.OTLPEndpoint,
			Headers:     cfg.Telemetry.OTLPHeaders,
			HTTP:        strings.HasPrefix(cfg.Telemetry.OTLPEndpoint, "http"),
		})
		if err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
		defer traceProvider.Stop()

		meterProvider, err := metrics.NewMetricProvider(ctx,
			metrics.WithServiceName(cfg.Telemetry.ServiceName),
			metrics.WithProviderConfig(metrics.ProviderCfg{Provider: metrics.PrometheusProvider}),
		)
		if err != nil {
			return fmt.Errorf("failed to initialize metrics: %w", err)
		}
		defer meterProvider.Shutdown(context.WithoutCancel(ctx))
	}

	mono, err := monolith.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}

	// Metrics and health share one listener.
	go metrics.ServePrometheusMetrics(ctx, log,
		metrics.WithPort(cfg.Telemetry.PrometheusPort),
		metrics.WithHandler("/health", mono.Health().Handler()),
	)

	// Define modules in dependency order
	modules := []monolith.Module{
		&chain.Module{},    // pool-creation event source
		&scoring.Module{},  // scorer and market lookups
		&trading.Module{},  // gate, trader and executor
		&notify.Module{},   // rate-limited publisher
		&pipeline.Module{}, // consumes the event source, depends on all of the above
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	stop := func() {
		if err := chainDI.GetEventSource(mono.Services()).Close(); err != nil {
			log.Warn(context.WithoutCancel(ctx), "failed to close event source", "error", err)
		}
	}

	if tuiMode {
		startFunc := func() error {
			ui.Send(ui.StartupMsg{Step: ui.StepSolana, Status: ui.StepConnecting})
			if err := mono.StartModules(ctx, modules...); err != nil {
				return fmt.Errorf("failed to start modules: %w", err)
			}
			return nil
		}
		return runTUI(ctx, startFunc, stop)
	}

	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}
	return runCLI(ctx, log, stop)
}

func runCLI(ctx context.Context, log *logger.Logger, stop func()) error {
	log.Info(ctx, "all modules started, watching for new pools")

	<-ctx.Done()

	log.Info(context.WithoutCancel(ctx), "shutting down")
	stop()
	return nil
}

func runTUI(ctx context.Context, startFunc func() error, stopFunc func()) error {
	startSignal := make(chan struct{}, 1)
	ui.OnStartModules = func() {
		select {
		case startSignal <- struct{}{}:
		default:
		}
	}

	// The program starts immediately on the welcome screen.
	p := tea.NewProgram(ui.New(), tea.WithAltScreen(), tea.WithContext(ctx))
	ui.Program = p

	errCh := make(chan error, 1)
	go func() {
		select {
		case <-startSignal:
		case <-ctx.Done():
			errCh <- nil
			return
		}

		if err := startFunc(); err != nil {
			ui.Send(ui.StartupMsg{Step: ui.StepPipeline, Status: ui.StepFailed, Message: err.Error()})
			errCh <- err
			return
		}

		<-ctx.Done()
		stopFunc()
		errCh <- nil
	}()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}
