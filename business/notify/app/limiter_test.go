package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/fd1az/pool-sniper/internal/logger"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakePublisher struct {
	mu       sync.Mutex
	sent     []string
	failures int // fail this many calls before succeeding
	calls    int
}

func (p *fakePublisher) Publish(_ context.Context, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.failures > 0 {
		p.failures--
		return errors.New("upstream unavailable")
	}
	p.sent = append(p.sent, text)
	return nil
}

func (p *fakePublisher) Sent() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.sent...)
}

func newTestLimiter(t *testing.T, cfg LimiterConfig, p Publisher) (*Limiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	l, err := NewLimiter(cfg, p, logger.NewDiscard(), WithLimiterClock(clock.Now))
	require.NoError(t, err)
	return l, clock
}

// stampedPublisher records when each payload went out.
type stampedPublisher struct {
	clock *fakeClock
	mu    sync.Mutex
	at    []time.Time
}

func (p *stampedPublisher) Publish(context.Context, string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.at = append(p.at, p.clock.Now())
	return nil
}

func (p *stampedPublisher) Times() []time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]time.Time(nil), p.at...)
}

func TestLimiter_SpacingDefersSecondSend(t *testing.T) {
	pub := &fakePublisher{}
	l, clock := newTestLimiter(t, DefaultLimiterConfig(), pub)
	ctx := context.Background()

	assert.Equal(t, OutcomeSent, l.Send(ctx, "first"))

	clock.Advance(10 * time.Second)
	assert.Equal(t, OutcomeDeferred, l.Send(ctx, "second"))
	assert.Equal(t, 1, l.Pending())

	assert.Equal(t, 50*time.Second, l.Drain(ctx), "waits out the remaining interval")
	assert.Equal(t, []string{"first"}, pub.Sent())

	clock.Advance(50 * time.Second)
	assert.Equal(t, 60*time.Second, l.Drain(ctx))
	assert.Equal(t, []string{"first", "second"}, pub.Sent())
	assert.Zero(t, l.Pending())
}

func TestLimiter_QueueIsFIFO(t *testing.T) {
	pub := &fakePublisher{}
	l, clock := newTestLimiter(t, DefaultLimiterConfig(), pub)
	ctx := context.Background()

	l.Send(ctx, "a")
	assert.Equal(t, OutcomeDeferred, l.Send(ctx, "b"))
	assert.Equal(t, OutcomeQueued, l.Send(ctx, "c"), "later payloads wait behind the queue")

	for i := 0; i < 2; i++ {
		clock.Advance(time.Minute)
		l.Drain(ctx)
	}
	assert.Equal(t, []string{"a", "b", "c"}, pub.Sent())
}

func TestLimiter_QuotaExhausted(t *testing.T) {
	pub := &fakePublisher{}
	cfg := DefaultLimiterConfig()
	cfg.MinInterval = 0
	cfg.QuotaLimit = 2
	cfg.QuotaWindow = 10 * time.Minute
	l, clock := newTestLimiter(t, cfg, pub)
	ctx := context.Background()

	assert.Equal(t, OutcomeSent, l.Send(ctx, "1"))
	assert.Equal(t, OutcomeSent, l.Send(ctx, "2"))
	assert.Equal(t, OutcomeQueued, l.Send(ctx, "3"))

	assert.Equal(t, 10*time.Minute, l.Drain(ctx), "waits for the oldest post to leave the window")
	assert.Len(t, pub.Sent(), 2)

	clock.Advance(5 * time.Minute)
	assert.Equal(t, 5*time.Minute, l.Drain(ctx))
	assert.Len(t, pub.Sent(), 2, "half a window later the quota is still spent")

	clock.Advance(5 * time.Minute)
	l.Drain(ctx)
	assert.Equal(t, []string{"1", "2", "3"}, pub.Sent())
}

func TestLimiter_QuotaHoldsAcrossRollingWindow(t *testing.T) {
	for _, spacing := range []time.Duration{0, time.Minute} {
		t.Run(spacing.String(), func(t *testing.T) {
			cfg := DefaultLimiterConfig()
			cfg.MinInterval = spacing
			cfg.QuotaLimit = 4
			cfg.QuotaWindow = 15 * time.Minute

			clock := &fakeClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
			pub := &stampedPublisher{clock: clock}
			l, err := NewLimiter(cfg, pub, logger.NewDiscard(), WithLimiterClock(clock.Now))
			require.NoError(t, err)
			ctx := context.Background()

			for range 15 {
				l.Send(ctx, "alert")
				l.Drain(ctx)
				clock.Advance(time.Minute)
			}
			assert.Len(t, pub.Times(), 4, "one window admits exactly the quota")
			assert.Equal(t, 11, l.Pending())

			// Minute 15: the first post leaves the window.
			assert.Equal(t, 1, l.QuotaRemaining())
			l.Drain(ctx)
			assert.Len(t, pub.Times(), 5)
			assert.Zero(t, l.QuotaRemaining())

			for range 30 {
				l.Send(ctx, "alert")
				l.Drain(ctx)
				clock.Advance(time.Minute)
			}
			sent := pub.Times()
			for i, from := range sent {
				inWindow := 0
				for _, at := range sent[i:] {
					if at.Sub(from) < cfg.QuotaWindow {
						inWindow++
					}
				}
				assert.LessOrEqual(t, inWindow, cfg.QuotaLimit, "window starting %s", from.Format(time.Kitchen))
			}
		})
	}
}

func TestLimiter_RetriesThenDrops(t *testing.T) {
	pub := &fakePublisher{failures: 3}
	l, clock := newTestLimiter(t, DefaultLimiterConfig(), pub)
	ctx := context.Background()

	assert.Equal(t, OutcomeFailed, l.Send(ctx, "doomed"))
	assert.Equal(t, 1, l.Pending())

	clock.Advance(time.Minute)
	l.Drain(ctx)
	assert.Equal(t, 1, l.Pending(), "second failure is requeued")

	clock.Advance(time.Minute)
	l.Drain(ctx)
	assert.Zero(t, l.Pending(), "third failure drops the payload")

	stats := l.Stats()
	assert.Equal(t, 3, stats.Failed)
	assert.Equal(t, 1, stats.Dropped)
	assert.Zero(t, stats.Sent)
	assert.Equal(t, 3, pub.calls)
}

func TestLimiter_FailedItemRetriedBeforeNewer(t *testing.T) {
	pub := &fakePublisher{failures: 1}
	l, clock := newTestLimiter(t, DefaultLimiterConfig(), pub)
	ctx := context.Background()

	assert.Equal(t, OutcomeFailed, l.Send(ctx, "flaky"))
	assert.Equal(t, OutcomeQueued, l.Send(ctx, "newer"))

	clock.Advance(time.Minute)
	l.Drain(ctx)
	clock.Advance(time.Minute)
	l.Drain(ctx)

	assert.Equal(t, []string{"flaky", "newer"}, pub.Sent())
	assert.Equal(t, 2, l.Stats().Sent)
}

func TestLimiter_RunDrainsInBackground(t *testing.T) {
	pub := &fakePublisher{}
	cfg := DefaultLimiterConfig()
	cfg.MinInterval = 10 * time.Millisecond
	l, err := NewLimiter(cfg, pub, logger.NewDiscard())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	for _, text := range []string{"a", "b", "c"} {
		l.Send(ctx, text)
	}

	require.Eventually(t, func() bool { return len(pub.Sent()) == 3 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"a", "b", "c"}, pub.Sent())
}

func TestLimiter_ReportsQueueAndQuotaGauges(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	cfg := DefaultLimiterConfig()
	cfg.MinInterval = 0
	cfg.QuotaLimit = 2
	l, err := NewLimiter(cfg, &fakePublisher{}, logger.NewDiscard(), WithLimiterMeterProvider(mp))
	require.NoError(t, err)
	ctx := context.Background()

	l.Send(ctx, "a")
	l.Send(ctx, "b")
	assert.Equal(t, OutcomeQueued, l.Send(ctx, "c"))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	gauges := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if g, ok := m.Data.(metricdata.Gauge[int64]); ok && len(g.DataPoints) > 0 {
				gauges[m.Name] = g.DataPoints[0].Value
			}
		}
	}
	assert.Equal(t, int64(1), gauges["notify_queue_depth"])
	assert.Equal(t, int64(0), gauges["notify_quota_remaining"])
}
