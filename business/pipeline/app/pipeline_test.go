package app

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chainDomain "github.com/fd1az/pool-sniper/business/chain/domain"
	notifyApp "github.com/fd1az/pool-sniper/business/notify/app"
	"github.com/fd1az/pool-sniper/business/pipeline/domain"
	scoringDomain "github.com/fd1az/pool-sniper/business/scoring/domain"
	tradingApp "github.com/fd1az/pool-sniper/business/trading/app"
	tradingDomain "github.com/fd1az/pool-sniper/business/trading/domain"
	"github.com/fd1az/pool-sniper/internal/apperror"
	"github.com/fd1az/pool-sniper/internal/logger"
)

const (
	testPool     = "3gLESRnfLgzAqu6PwGhBwsiBsnQ7BAtyWHhZ5zNcDPMF"
	testMint     = "Ef37CudiH2EeQegAn9gGUjKrGCwf5ksMzXnSAPpWtv17"
	testDeployer = "H4tGwnuuaJKBnA5J4Q7K1jcDQSjd3odTGCK8uU5qxd4m"
	testQuote    = "So11111111111111111111111111111111111111112"
)

// signature returns a distinct valid transaction signature per n.
func signature(n int) string {
	raw := make([]byte, 64)
	for i := range raw {
		raw[i] = byte(n + 1)
	}
	return base58.Encode(raw)
}

func opportunity(n int) chainDomain.Opportunity {
	return chainDomain.Opportunity{
		ID:        signature(n),
		Pool:      testPool,
		BaseMint:  testMint,
		QuoteMint: testQuote,
		Deployer:  testDeployer,
		BlockTime: time.Unix(1_760_000_000, 0),
		Variant:   chainDomain.ConstantProduct,
		Slot:      uint64(300_000_000 + n),
	}
}

// assessment scores every factor at score and reports liquidity SOL.
func assessment(score int, liquidity int64) scoringDomain.Assessment {
	scores := make(map[scoringDomain.Factor]int, len(scoringDomain.Factors))
	for _, f := range scoringDomain.Factors {
		scores[f] = score
	}
	a := scoringDomain.NewAssessment(scores, nil, false)
	a.Liquidity = decimal.NewFromInt(liquidity)
	a.TokenSymbol = "PEPE"
	a.MarketCap = decimal.NewFromInt(120_000)
	return a
}

type fakeScorer struct {
	assessment scoringDomain.Assessment
	calls      atomic.Int64
}

func (f *fakeScorer) Score(context.Context, chainDomain.Opportunity) scoringDomain.Assessment {
	f.calls.Add(1)
	return f.assessment
}

type fakeTrader struct {
	mu         sync.Mutex
	prepareErr error
	executeErr error
	executed   []tradingDomain.TradeOrder
}

func (f *fakeTrader) PrepareOrder(_ context.Context, pool, mint string, liquidity decimal.Decimal) (tradingDomain.TradeOrder, error) {
	if f.prepareErr != nil {
		return tradingDomain.TradeOrder{}, f.prepareErr
	}
	return tradingDomain.TradeOrder{PoolID: pool, TokenMint: mint, AmountIn: 100_000_000, PoolLiquidity: liquidity}, nil
}

func (f *fakeTrader) Execute(_ context.Context, order tradingDomain.TradeOrder) (tradingDomain.TradeResult, error) {
	f.mu.Lock()
	f.executed = append(f.executed, order)
	f.mu.Unlock()
	if f.executeErr != nil {
		return tradingDomain.TradeResult{}, f.executeErr
	}
	return tradingDomain.TradeResult{Signature: "tx", ExecutedAmount: order.AmountIn, Simulated: true}, nil
}

func (f *fakeTrader) executions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.executed)
}

type fakeNotifier struct {
	mu     sync.Mutex
	texts  []string
	onSend func(text string)
}

func (f *fakeNotifier) Send(_ context.Context, text string) notifyApp.SendOutcome {
	if f.onSend != nil {
		f.onSend(text)
	}
	f.mu.Lock()
	f.texts = append(f.texts, text)
	f.mu.Unlock()
	return notifyApp.OutcomeSent
}

func (f *fakeNotifier) Stats() notifyApp.LimiterStats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return notifyApp.LimiterStats{Sent: len(f.texts)}
}

func (f *fakeNotifier) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type harness struct {
	pipeline *Pipeline
	scorer   *fakeScorer
	gate     *tradingApp.CooldownGate
	trader   *fakeTrader
	notifier *fakeNotifier
	clock    *clock
}

func newHarness(t *testing.T, cfg Config, gateCfg tradingApp.GateConfig) *harness {
	t.Helper()
	h := &harness{
		scorer:   &fakeScorer{assessment: assessment(8, 50)},
		trader:   &fakeTrader{},
		notifier: &fakeNotifier{},
		clock:    &clock{now: time.Date(2026, 3, 10, 15, 0, 0, 0, time.Local)},
	}
	h.gate = tradingApp.NewCooldownGate(gateCfg, tradingApp.WithGateClock(h.clock.Now))
	p, err := New(cfg, NewDeduplicator(100), h.scorer, h.gate, h.trader, h.notifier,
		logger.NewDiscard(), WithClock(h.clock.Now))
	require.NoError(t, err)
	h.pipeline = p
	return h
}

func liveConfig() Config {
	cfg := DefaultConfig()
	cfg.AutoTradeEnabled = true
	return cfg
}

func defaultGate() tradingApp.GateConfig {
	return tradingApp.GateConfig{Cooldown: 300 * time.Second, MaxDaily: 10}
}

func TestPipeline_Executes(t *testing.T) {
	h := newHarness(t, liveConfig(), defaultGate())

	h.notifier.onSend = func(string) {
		assert.False(t, h.gate.Snapshot().LastExecution.IsZero(), "execution recorded before the alert")
	}

	out := h.pipeline.Process(context.Background(), opportunity(1))

	assert.Equal(t, domain.StateExecuted, out.State)
	require.NotNil(t, out.Trade)
	require.NotNil(t, out.Signal)
	assert.True(t, out.Signal.Processed)
	assert.Equal(t, string(notifyApp.OutcomeSent), out.Notification)
	assert.Equal(t, 1, h.trader.executions())

	texts := h.notifier.sent()
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "$PEPE")
	assert.Contains(t, texts[0], "✅ Bought 0.1 SOL (paper)")
	assert.LessOrEqual(t, len([]rune(texts[0])), DefaultConfig().MaxMessageLength)
}

func TestPipeline_Skips(t *testing.T) {
	tests := []struct {
		name       string
		cfg        func(*Config)
		score      int
		liquidity  int64
		prepareErr error
		pause      bool
		want       domain.State
		reason     string
	}{
		{
			name: "auto trade off",
			cfg:  func(c *Config) { c.AutoTradeEnabled = false },
			want: domain.StateSkippedAutoTradeOff, reason: "auto-trade off",
		},
		{
			name: "test mode",
			cfg:  func(c *Config) { c.TestMode = true },
			want: domain.StateSkippedTestMode, reason: "test mode",
		},
		{
			name:  "low score",
			score: 5, liquidity: 50,
			want:  domain.StateSkippedLowScore, reason: "score 5 < 7",
		},
		{
			name:  "low liquidity",
			score: 8, liquidity: 4,
			want:  domain.StateSkippedLowLiquidity, reason: "liquidity 4.00 < 10 SOL",
		},
		{
			name: "scam",
			cfg:  func(c *Config) { c.RiskThreshold = 1 },
			// Composite 2 is below the scam threshold.
			score: 2, liquidity: 50,
			want:  domain.StateSkippedScam, reason: "likely scam",
		},
		{
			name:       "insufficient balance",
			prepareErr: apperror.New(apperror.CodeInsufficientBalance),
			want:       domain.StateSkippedInsufficientBalance, reason: "insufficient balance",
		},
		{
			name:       "balance unavailable",
			prepareErr: apperror.New(apperror.CodeLookupFailed),
			want:       domain.StateSkippedBalanceUnavailable, reason: "wallet balance unavailable",
		},
		{
			name:  "paused",
			pause: true,
			want:  domain.StateSkippedPaused, reason: "paused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := liveConfig()
			if tt.cfg != nil {
				tt.cfg(&cfg)
			}
			h := newHarness(t, cfg, defaultGate())
			if tt.score != 0 {
				h.scorer.assessment = assessment(tt.score, tt.liquidity)
			}
			h.trader.prepareErr = tt.prepareErr
			if tt.pause {
				h.pipeline.Pause()
			}

			out := h.pipeline.Process(context.Background(), opportunity(1))

			assert.Equal(t, tt.want, out.State)
			assert.Equal(t, tt.reason, out.Reason)
			assert.Zero(t, h.trader.executions())
			assert.True(t, h.gate.Snapshot().LastExecution.IsZero(), "skips do not consume the gate")

			texts := h.notifier.sent()
			require.Len(t, texts, 1, "every scored opportunity is notified once")
			assert.Contains(t, texts[0], "⏭ Skipped: "+tt.reason)
		})
	}
}

func TestPipeline_PausedWinsOverEverything(t *testing.T) {
	cfg := liveConfig()
	cfg.TestMode = true
	h := newHarness(t, cfg, defaultGate())
	h.scorer.assessment = assessment(1, 0)
	h.pipeline.Pause()

	out := h.pipeline.Process(context.Background(), opportunity(1))
	assert.Equal(t, domain.StateSkippedPaused, out.State)

	h.pipeline.Resume()
	assert.False(t, h.pipeline.Paused())
	out = h.pipeline.Process(context.Background(), opportunity(2))
	assert.Equal(t, domain.StateSkippedTestMode, out.State)
}

func TestPipeline_Cooldown(t *testing.T) {
	h := newHarness(t, liveConfig(), defaultGate())
	ctx := context.Background()

	first := h.pipeline.Process(ctx, opportunity(1))
	require.Equal(t, domain.StateExecuted, first.State)

	h.clock.Advance(60 * time.Second)
	second := h.pipeline.Process(ctx, opportunity(2))
	assert.Equal(t, domain.StateSkippedCooldown, second.State)
	assert.Equal(t, "cooldown 4m0s left", second.Reason)

	h.clock.Advance(240 * time.Second)
	third := h.pipeline.Process(ctx, opportunity(3))
	assert.Equal(t, domain.StateExecuted, third.State)
	assert.Equal(t, 2, h.trader.executions())
}

func TestPipeline_DailyLimit(t *testing.T) {
	h := newHarness(t, liveConfig(), tradingApp.GateConfig{Cooldown: time.Second, MaxDaily: 2})
	ctx := context.Background()

	for i := range 2 {
		out := h.pipeline.Process(ctx, opportunity(i))
		require.Equal(t, domain.StateExecuted, out.State)
		h.clock.Advance(time.Minute)
	}

	out := h.pipeline.Process(ctx, opportunity(2))
	assert.Equal(t, domain.StateSkippedDailyLimit, out.State)
	assert.Equal(t, "daily limit 2 reached", out.Reason)
	assert.Equal(t, 2, h.trader.executions())
}

func TestPipeline_ExecutionFailureKeepsCooldown(t *testing.T) {
	h := newHarness(t, liveConfig(), defaultGate())
	h.trader.executeErr = apperror.New(apperror.CodeExecutionTimeout)
	ctx := context.Background()

	out := h.pipeline.Process(ctx, opportunity(1))
	assert.Equal(t, domain.StateExecutionFailed, out.State)
	assert.Equal(t, "execution timeout", out.Reason)
	assert.Nil(t, out.Trade)
	assert.Contains(t, h.notifier.sent()[0], "⚠️ Trade failed: execution timeout")

	h.trader.executeErr = nil
	out = h.pipeline.Process(ctx, opportunity(2))
	assert.Equal(t, domain.StateSkippedCooldown, out.State)
}

func TestPipeline_BalanceUnavailableLeavesGateOpen(t *testing.T) {
	h := newHarness(t, liveConfig(), defaultGate())
	h.trader.prepareErr = apperror.New(apperror.CodeLookupFailed)
	ctx := context.Background()

	out := h.pipeline.Process(ctx, opportunity(1))
	assert.Equal(t, domain.StateSkippedBalanceUnavailable, out.State)
	assert.True(t, h.gate.Snapshot().LastExecution.IsZero())

	s := h.pipeline.Stats()
	assert.Zero(t, s.ExecutionFailures, "execution failures always hold the gate")
	assert.Equal(t, 1, s.Skipped[domain.StateSkippedBalanceUnavailable])

	// The next opportunity is not blocked by a cooldown.
	h.trader.prepareErr = nil
	out = h.pipeline.Process(ctx, opportunity(2))
	assert.Equal(t, domain.StateExecuted, out.State)
}

func TestPipeline_InvalidAndDuplicateAreNotNotified(t *testing.T) {
	h := newHarness(t, liveConfig(), defaultGate())
	ctx := context.Background()

	bad := opportunity(1)
	bad.Pool = "not-a-key"
	out := h.pipeline.Process(ctx, bad)
	assert.Equal(t, domain.StateInvalid, out.State)
	assert.Nil(t, out.Signal)

	first := h.pipeline.Process(ctx, opportunity(2))
	require.Equal(t, domain.StateExecuted, first.State)
	dup := h.pipeline.Process(ctx, opportunity(2))
	assert.Equal(t, domain.StateDuplicate, dup.State)
	assert.Empty(t, dup.Notification)

	assert.Equal(t, int64(1), h.scorer.calls.Load())
	assert.Len(t, h.notifier.sent(), 1)
}

func TestPipeline_Stats(t *testing.T) {
	h := newHarness(t, liveConfig(), defaultGate())
	ctx := context.Background()

	h.pipeline.Process(ctx, opportunity(1))
	h.pipeline.Process(ctx, opportunity(1))
	h.pipeline.Process(ctx, opportunity(2))
	invalid := opportunity(3)
	invalid.Variant = "stable"
	h.pipeline.Process(ctx, invalid)

	s := h.pipeline.Stats()
	assert.Equal(t, 4, s.Received)
	assert.Equal(t, 1, s.Invalid)
	assert.Equal(t, 1, s.Duplicates)
	assert.Equal(t, 2, s.Scored)
	assert.Equal(t, 1, s.Executed)
	assert.Equal(t, 1, s.Skipped[domain.StateSkippedCooldown])
	assert.Equal(t, 1, s.TotalSkipped())
	assert.Equal(t, 2, s.NotificationsSent)
	assert.Equal(t, 2, s.DedupSize)
	assert.False(t, s.Paused)
}

func TestPipeline_RunDrainsChannel(t *testing.T) {
	cfg := liveConfig()
	cfg.Workers = 4
	h := newHarness(t, cfg, defaultGate())

	events := make(chan chainDomain.Opportunity)
	go func() {
		defer close(events)
		for i := range 20 {
			events <- opportunity(i)
		}
	}()

	require.NoError(t, h.pipeline.Run(context.Background(), events))

	s := h.pipeline.Stats()
	assert.Equal(t, 20, s.Received)
	assert.Equal(t, 20, s.Scored)
	assert.Equal(t, 1, s.Executed, "the gate admits one execution per cooldown")
	assert.Equal(t, 19, s.Skipped[domain.StateSkippedCooldown])
	assert.Len(t, h.notifier.sent(), 20)
}

func TestPipeline_RunStopsOnCancel(t *testing.T) {
	h := newHarness(t, liveConfig(), defaultGate())
	events := make(chan chainDomain.Opportunity)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.pipeline.Run(ctx, events) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

type recordingReporter struct {
	mu       sync.Mutex
	outcomes []domain.Outcome
}

func (r *recordingReporter) Start(context.Context) error { return nil }
func (r *recordingReporter) Stop() error                 { return nil }

func (r *recordingReporter) UpdateConnectionStatus(string, string) {}

func (r *recordingReporter) ReportStats(domain.Stats, tradingDomain.GateSnapshot) {}

func (r *recordingReporter) Report(o domain.Outcome) {
	r.mu.Lock()
	r.outcomes = append(r.outcomes, o)
	r.mu.Unlock()
}

func TestPipeline_ReportsEveryOutcome(t *testing.T) {
	rep := &recordingReporter{}
	h := newHarness(t, liveConfig(), defaultGate())
	p, err := New(liveConfig(), nil, h.scorer, h.gate, h.trader, h.notifier,
		logger.NewDiscard(), WithClock(h.clock.Now), WithReporter(rep))
	require.NoError(t, err)
	h.pipeline = p

	h.pipeline.Process(context.Background(), opportunity(1))
	h.pipeline.Process(context.Background(), opportunity(1))

	require.Len(t, rep.outcomes, 2)
	assert.Equal(t, domain.StateExecuted, rep.outcomes[0].State)
	assert.Equal(t, domain.StateDuplicate, rep.outcomes[1].State)
	assert.Equal(t, signature(1), rep.outcomes[1].Opportunity.ID)
}
