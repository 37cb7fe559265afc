package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	chainDomain "github.com/fd1az/pool-sniper/business/chain/domain"
	notifyApp "github.com/fd1az/pool-sniper/business/notify/app"
	notifyDomain "github.com/fd1az/pool-sniper/business/notify/domain"
	"github.com/fd1az/pool-sniper/business/pipeline/domain"
	tradingDomain "github.com/fd1az/pool-sniper/business/trading/domain"
	"github.com/fd1az/pool-sniper/internal/apperror"
	"github.com/fd1az/pool-sniper/internal/logger"
)

const (
	tracerName = "github.com/fd1az/pool-sniper/business/pipeline/app"
	meterName  = "github.com/fd1az/pool-sniper/business/pipeline/app"
)

// Config holds the decision thresholds.
type Config struct {
	AutoTradeEnabled bool
	TestMode         bool
	RiskThreshold    int
	MinLiquidity     decimal.Decimal // SOL
	Workers          int
	MaxMessageLength int
}

// DefaultConfig returns auto trading off, threshold 7 and 10 SOL minimum liquidity.
func DefaultConfig() Config {
	return Config{
		RiskThreshold:    7,
		MinLiquidity:     decimal.NewFromInt(10),
		Workers:          1,
		MaxMessageLength: notifyDomain.MaxLength,
	}
}

// Pipeline turns opportunities into decisions: dedupe, score, gate, execute, notify.
type Pipeline struct {
	config   Config
	dedup    *Deduplicator
	scorer   Scorer
	gate     Gate
	trader   Trader
	notifier Notifier
	reporter Reporter
	logger   logger.LoggerInterface
	now      func() time.Time

	paused atomic.Bool

	mu    sync.Mutex
	stats domain.Stats

	tracer   trace.Tracer
	outcomes metric.Int64Counter
	duration metric.Float64Histogram
}

// Option configures Pipeline.
type Option func(*Pipeline)

// WithClock replaces the wall clock used for signal timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithReporter attaches a display for outcomes.
func WithReporter(r Reporter) Option {
	return func(p *Pipeline) { p.reporter = r }
}

// New creates a Pipeline.
func New(cfg Config, dedup *Deduplicator, scorer Scorer, gate Gate, trader Trader, notifier Notifier, log logger.LoggerInterface, opts ...Option) (*Pipeline, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxMessageLength <= 0 {
		cfg.MaxMessageLength = notifyDomain.MaxLength
	}
	if dedup == nil {
		dedup = NewDeduplicator(DefaultDedupCapacity)
	}

	p := &Pipeline{
		config:   cfg,
		dedup:    dedup,
		scorer:   scorer,
		gate:     gate,
		trader:   trader,
		notifier: notifier,
		logger:   log,
		now:      time.Now,
		stats:    domain.Stats{Skipped: make(map[domain.State]int)},
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(p)
	}

	if err := p.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return p, nil
}

func (p *Pipeline) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	if p.outcomes, err = meter.Int64Counter("pipeline_outcomes_total",
		metric.WithDescription("Processed opportunities by terminal state")); err != nil {
		return err
	}
	p.duration, err = meter.Float64Histogram("pipeline_process_duration_seconds",
		metric.WithDescription("Time from intake to notification"),
		metric.WithUnit("s"))
	return err
}

// Run consumes events with the configured number of workers until the channel
// closes or ctx is done.
func (p *Pipeline) Run(ctx context.Context, events <-chan chainDomain.Opportunity) error {
	p.logger.Info(ctx, "pipeline started", "workers", p.config.Workers,
		"auto_trade", p.config.AutoTradeEnabled, "test_mode", p.config.TestMode)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < p.config.Workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case opp, ok := <-events:
					if !ok {
						return nil
					}
					p.Process(gctx, opp)
				}
			}
		})
	}
	err := g.Wait()

	s := p.Stats()
	p.logger.Info(context.WithoutCancel(ctx), "pipeline stopped",
		"received", s.Received, "executed", s.Executed, "skipped", s.TotalSkipped())
	return err
}

// Process runs a single opportunity to its terminal state.
func (p *Pipeline) Process(ctx context.Context, opp chainDomain.Opportunity) domain.Outcome {
	start := p.now()
	ctx, span := p.tracer.Start(ctx, "pipeline.process",
		trace.WithAttributes(
			attribute.String("signature", opp.ID),
			attribute.String("pool", opp.Pool),
		))
	defer span.End()

	p.count(func(s *domain.Stats) { s.Received++ })

	outcome := p.process(ctx, opp)
	outcome.Opportunity = opp

	p.record(outcome)
	p.outcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("state", string(outcome.State))))
	p.duration.Record(ctx, p.now().Sub(start).Seconds())
	span.SetAttributes(attribute.String("state", string(outcome.State)))
	if outcome.State == domain.StateExecutionFailed {
		span.SetStatus(codes.Error, outcome.Reason)
	}

	if p.reporter != nil {
		p.reporter.Report(outcome)
	}
	return outcome
}

func (p *Pipeline) process(ctx context.Context, opp chainDomain.Opportunity) domain.Outcome {
	if err := opp.Validate(); err != nil {
		p.logger.Warn(ctx, "invalid opportunity dropped", "signature", opp.ID, "error", err)
		return domain.Outcome{State: domain.StateInvalid, Reason: err.Error()}
	}
	if !p.dedup.Observe(opp.ID) {
		p.logger.Debug(ctx, "duplicate opportunity", "signature", opp.ID)
		return domain.Outcome{State: domain.StateDuplicate, Reason: "already processed"}
	}

	sig := &domain.Signal{
		Opportunity: opp,
		Assessment:  p.scorer.Score(ctx, opp),
	}
	p.count(func(s *domain.Stats) { s.Scored++ })

	outcome := p.decide(ctx, sig)
	outcome.Signal = sig

	// Executions are recorded in the gate before the alert goes out.
	outcome.Notification = string(p.notify(ctx, outcome))

	sig.ProcessedAt = p.now()
	sig.Processed = true

	p.logger.Info(ctx, "opportunity processed",
		"signature", opp.ID,
		"pool", opp.Pool,
		"composite", sig.Assessment.Composite(),
		"state", outcome.State,
		"reason", outcome.Reason,
		"notification", outcome.Notification)
	return outcome
}

// decide evaluates the gates in order. The first failing one names the outcome.
func (p *Pipeline) decide(ctx context.Context, sig *domain.Signal) domain.Outcome {
	a := sig.Assessment
	opp := sig.Opportunity

	switch {
	case p.paused.Load():
		return skip(domain.StateSkippedPaused, "paused")
	case !p.config.AutoTradeEnabled:
		return skip(domain.StateSkippedAutoTradeOff, "auto-trade off")
	case p.config.TestMode:
		return skip(domain.StateSkippedTestMode, "test mode")
	case a.Composite() < p.config.RiskThreshold:
		return skip(domain.StateSkippedLowScore, fmt.Sprintf("score %d < %d", a.Composite(), p.config.RiskThreshold))
	case a.Liquidity.LessThan(p.config.MinLiquidity):
		return skip(domain.StateSkippedLowLiquidity,
			fmt.Sprintf("liquidity %s < %s SOL", a.Liquidity.StringFixed(2), p.config.MinLiquidity.String()))
	case a.Scam():
		return skip(domain.StateSkippedScam, "likely scam")
	}

	order, err := p.trader.PrepareOrder(ctx, opp.Pool, opp.BaseMint, a.Liquidity)
	if err != nil {
		if apperror.HasCode(err, apperror.CodeInsufficientBalance) {
			return skip(domain.StateSkippedInsufficientBalance, "insufficient balance")
		}
		p.logger.Warn(ctx, "wallet balance unavailable", "pool", opp.Pool, "error", err)
		return skip(domain.StateSkippedBalanceUnavailable, "wallet balance unavailable")
	}

	if ok, reason := p.gate.TryAcquire(); !ok {
		snap := p.gate.Snapshot()
		if reason == tradingDomain.GateDailyLimit {
			return skip(domain.StateSkippedDailyLimit, fmt.Sprintf("daily limit %d reached", snap.MaxDaily))
		}
		return skip(domain.StateSkippedCooldown, fmt.Sprintf("cooldown %s left", snap.Remaining.Round(time.Second)))
	}

	result, err := p.trader.Execute(ctx, order)
	if err != nil {
		return domain.Outcome{State: domain.StateExecutionFailed, Reason: failureReason(err)}
	}
	return domain.Outcome{State: domain.StateExecuted, Reason: "executed", Trade: &result}
}

func (p *Pipeline) notify(ctx context.Context, outcome domain.Outcome) notifyApp.SendOutcome {
	sig := outcome.Signal
	a := sig.Assessment
	alert := notifyDomain.Alert{
		Tier:      a.Tier(),
		Symbol:    a.TokenSymbol,
		Composite: a.Composite(),
		Liquidity: a.Liquidity,
		MarketCap: a.MarketCap,
		Pool:      sig.Opportunity.Pool,
		Mint:      sig.Opportunity.BaseMint,
		Decision:  outcome.DecisionLine(),
	}
	return p.notifier.Send(ctx, alert.Text(p.config.MaxMessageLength))
}

// Pause makes every following opportunity skip execution. Notifications continue.
func (p *Pipeline) Pause() {
	if !p.paused.Swap(true) {
		p.logger.Warn(context.Background(), "pipeline paused")
	}
}

// Resume re-enables execution.
func (p *Pipeline) Resume() {
	if p.paused.Swap(false) {
		p.logger.Info(context.Background(), "pipeline resumed")
	}
}

// Paused reports whether execution is paused.
func (p *Pipeline) Paused() bool {
	return p.paused.Load()
}

// Stats returns a snapshot of the pipeline counters.
func (p *Pipeline) Stats() domain.Stats {
	p.mu.Lock()
	s := p.stats.Clone()
	p.mu.Unlock()

	ns := p.notifier.Stats()
	s.NotificationsDropped = ns.Dropped
	s.NotificationsPending = ns.Pending
	s.DedupSize = p.dedup.Len()
	s.Paused = p.paused.Load()
	return s
}

func (p *Pipeline) count(fn func(*domain.Stats)) {
	p.mu.Lock()
	fn(&p.stats)
	p.mu.Unlock()
}

func (p *Pipeline) record(o domain.Outcome) {
	p.count(func(s *domain.Stats) {
		switch {
		case o.State == domain.StateInvalid:
			s.Invalid++
		case o.State == domain.StateDuplicate:
			s.Duplicates++
		case o.State == domain.StateExecuted:
			s.Executed++
		case o.State == domain.StateExecutionFailed:
			s.ExecutionFailures++
		case o.State.Skipped():
			s.Skipped[o.State]++
		}

		switch notifyApp.SendOutcome(o.Notification) {
		case notifyApp.OutcomeSent:
			s.NotificationsSent++
		case notifyApp.OutcomeDeferred, notifyApp.OutcomeQueued:
			s.NotificationsQueued++
		case notifyApp.OutcomeFailed:
			s.NotificationsFailed++
		}
	})
}

func skip(state domain.State, reason string) domain.Outcome {
	return domain.Outcome{State: state, Reason: reason}
}

func failureReason(err error) string {
	switch apperror.GetCode(err) {
	case apperror.CodeExecutionTimeout:
		return "execution timeout"
	case apperror.CodePriceImpactExceeded:
		return "slippage exceeded"
	case apperror.CodeCircuitOpen:
		return "executor unavailable"
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Context != "" {
		return appErr.Context
	}
	return "execution failed"
}
