package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fd1az/pool-sniper/internal/apperror"
	"github.com/fd1az/pool-sniper/internal/logger"
	"github.com/fd1az/pool-sniper/internal/ratelimit"
)

const meterName = "github.com/fd1az/pool-sniper/business/notify/app"

// SendOutcome is what happened to a payload handed to Send.
type SendOutcome string

const (
	// OutcomeSent means the payload was published immediately.
	OutcomeSent SendOutcome = "sent"
	// OutcomeDeferred means the minimum spacing had not elapsed; the payload is queued.
	OutcomeDeferred SendOutcome = "deferred"
	// OutcomeQueued means the rolling quota is exhausted or older payloads are waiting.
	OutcomeQueued SendOutcome = "queued"
	// OutcomeFailed means the publish attempt failed; the payload is queued for retry.
	OutcomeFailed SendOutcome = "failed"
)

// LimiterConfig configures Limiter.
type LimiterConfig struct {
	MinInterval time.Duration
	QuotaLimit  int
	QuotaWindow time.Duration
	MaxAttempts int
	SendTimeout time.Duration
}

// DefaultLimiterConfig returns 60s spacing, 300 posts per 15 minutes and 3 attempts.
func DefaultLimiterConfig() LimiterConfig {
	return LimiterConfig{
		MinInterval: 60 * time.Second,
		QuotaLimit:  300,
		QuotaWindow: 15 * time.Minute,
		MaxAttempts: 3,
		SendTimeout: 10 * time.Second,
	}
}

// LimiterStats counts limiter activity since start.
type LimiterStats struct {
	Sent    int
	Queued  int // payloads that entered the queue for any reason
	Failed  int // publish attempts that failed
	Dropped int // payloads abandoned after MaxAttempts
	Pending int
}

type pending struct {
	text     string
	attempts int
}

// Limiter spaces notifications, enforces a rolling quota and retries failures
// from a FIFO queue drained by Run.
type Limiter struct {
	config    LimiterConfig
	publisher Publisher
	quota     *ratelimit.Window
	logger    logger.LoggerInterface
	now       func() time.Time
	meters    metric.MeterProvider

	mu       sync.Mutex
	lastSent time.Time
	queue    []pending
	stats    LimiterStats
	wake     chan struct{}

	outcomes metric.Int64Counter
	dropped  metric.Int64Counter
}

// LimiterOption configures Limiter.
type LimiterOption func(*Limiter)

// WithLimiterClock replaces the wall clock.
func WithLimiterClock(now func() time.Time) LimiterOption {
	return func(l *Limiter) { l.now = now }
}

// WithLimiterMeterProvider replaces the global meter provider.
func WithLimiterMeterProvider(mp metric.MeterProvider) LimiterOption {
	return func(l *Limiter) { l.meters = mp }
}

// NewLimiter creates a Limiter publishing through p.
func NewLimiter(cfg LimiterConfig, p Publisher, log logger.LoggerInterface, opts ...LimiterOption) (*Limiter, error) {
	def := DefaultLimiterConfig()
	if cfg.QuotaLimit <= 0 || cfg.QuotaWindow <= 0 {
		cfg.QuotaLimit, cfg.QuotaWindow = def.QuotaLimit, def.QuotaWindow
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = def.SendTimeout
	}

	l := &Limiter{
		config:    cfg,
		publisher: p,
		quota:     ratelimit.NewWindow(cfg.QuotaLimit, cfg.QuotaWindow),
		logger:    log,
		now:       time.Now,
		meters:    otel.GetMeterProvider(),
		wake:      make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(l)
	}

	if err := l.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return l, nil
}

func (l *Limiter) initMetrics() error {
	meter := l.meters.Meter(meterName)
	var err error

	if l.outcomes, err = meter.Int64Counter("notify_send_outcomes_total",
		metric.WithDescription("Notification send outcomes")); err != nil {
		return err
	}
	if l.dropped, err = meter.Int64Counter("notify_dropped_total",
		metric.WithDescription("Notifications abandoned after repeated failures")); err != nil {
		return err
	}
	queueDepth, err := meter.Int64ObservableGauge("notify_queue_depth",
		metric.WithDescription("Notifications waiting to be published"))
	if err != nil {
		return err
	}
	quotaRemaining, err := meter.Int64ObservableGauge("notify_quota_remaining",
		metric.WithDescription("Posts still allowed in the current rolling window"))
	if err != nil {
		return err
	}

	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(queueDepth, int64(l.Pending()))
		o.ObserveInt64(quotaRemaining, int64(l.QuotaRemaining()))
		return nil
	}, queueDepth, quotaRemaining)
	return err
}

// Send publishes text now if spacing and quota allow, otherwise queues it.
func (l *Limiter) Send(ctx context.Context, text string) SendOutcome {
	outcome := l.send(ctx, text)
	l.outcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", string(outcome))))
	return outcome
}

func (l *Limiter) send(ctx context.Context, text string) SendOutcome {
	l.mu.Lock()
	now := l.now()
	switch {
	case len(l.queue) > 0:
		l.enqueueLocked(pending{text: text})
		l.mu.Unlock()
		return OutcomeQueued
	case l.spacingLocked(now) > 0:
		l.enqueueLocked(pending{text: text})
		l.mu.Unlock()
		return OutcomeDeferred
	case !l.quota.AllowAt(now):
		l.enqueueLocked(pending{text: text})
		l.mu.Unlock()
		return OutcomeQueued
	}
	l.lastSent = now
	l.mu.Unlock()

	if err := l.publish(ctx, text); err != nil {
		l.mu.Lock()
		l.stats.Failed++
		l.retryLocked(ctx, pending{text: text, attempts: 1}, err)
		l.mu.Unlock()
		return OutcomeFailed
	}

	l.mu.Lock()
	l.stats.Sent++
	l.mu.Unlock()
	return OutcomeSent
}

// Run drains the queue until ctx is done.
func (l *Limiter) Run(ctx context.Context) {
	timer := time.NewTimer(l.Drain(ctx))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			if n := l.Pending(); n > 0 {
				l.logger.Warn(ctx, "notification queue abandoned on shutdown", "pending", n)
			}
			return
		case <-timer.C:
		case <-l.wake:
		}
		timer.Reset(l.Drain(ctx))
	}
}

// Drain publishes at most one queued payload and returns how long to wait
// before the next attempt.
func (l *Limiter) Drain(ctx context.Context) time.Duration {
	l.mu.Lock()
	if len(l.queue) == 0 {
		l.mu.Unlock()
		return l.idleWait()
	}
	now := l.now()
	if wait := l.spacingLocked(now); wait > 0 {
		l.mu.Unlock()
		return wait
	}
	if !l.quota.AllowAt(now) {
		l.mu.Unlock()
		return l.quota.WaitAt(now)
	}

	item := l.queue[0]
	l.queue = l.queue[1:]
	l.lastSent = now
	l.mu.Unlock()

	err := l.publish(ctx, item.text)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.stats.Failed++
		item.attempts++
		l.retryLocked(ctx, item, err)
	} else {
		l.stats.Sent++
		l.outcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "drained")))
	}
	return l.spacingLocked(l.now())
}

// Pending returns the queue length.
func (l *Limiter) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// QuotaRemaining returns how many posts the rolling window still allows now.
func (l *Limiter) QuotaRemaining() int {
	return l.quota.RemainingAt(l.now())
}

// Stats returns activity counters.
func (l *Limiter) Stats() LimiterStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.stats
	s.Pending = len(l.queue)
	return s
}

func (l *Limiter) publish(ctx context.Context, text string) error {
	ctx, cancel := context.WithTimeout(ctx, l.config.SendTimeout)
	defer cancel()

	if err := l.publisher.Publish(ctx, text); err != nil {
		if ctx.Err() != nil {
			return apperror.New(apperror.CodeNotificationTimeout, apperror.WithCause(err))
		}
		return apperror.Wrap(err, apperror.CodeNotificationFailed, "publish")
	}
	return nil
}

func (l *Limiter) enqueueLocked(p pending) {
	l.queue = append(l.queue, p)
	l.stats.Queued++
	l.signal()
}

// retryLocked puts a failed payload back at the front, or drops it once it has
// used all attempts.
func (l *Limiter) retryLocked(ctx context.Context, p pending, err error) {
	if p.attempts >= l.config.MaxAttempts {
		l.stats.Dropped++
		l.dropped.Add(ctx, 1)
		l.logger.Warn(ctx, "notification dropped", "attempts", p.attempts, "error", err)
		return
	}
	l.logger.Debug(ctx, "notification failed, will retry", "attempts", p.attempts, "error", err)
	l.queue = append([]pending{p}, l.queue...)
	l.stats.Queued++
	l.signal()
}

func (l *Limiter) spacingLocked(now time.Time) time.Duration {
	if l.lastSent.IsZero() {
		return 0
	}
	if wait := l.config.MinInterval - now.Sub(l.lastSent); wait > 0 {
		return wait
	}
	return 0
}

func (l *Limiter) idleWait() time.Duration {
	if l.config.MinInterval > 0 {
		return l.config.MinInterval
	}
	return time.Second
}

func (l *Limiter) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}
