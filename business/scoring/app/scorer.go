package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	chainDomain "github.com/fd1az/pool-sniper/business/chain/domain"
	"github.com/fd1az/pool-sniper/business/scoring/domain"
	"github.com/fd1az/pool-sniper/internal/apperror"
	"github.com/fd1az/pool-sniper/internal/logger"
)

const (
	tracerName = "github.com/fd1az/pool-sniper/business/scoring/app"
	meterName  = "github.com/fd1az/pool-sniper/business/scoring/app"
)

// ScorerConfig holds risk scorer configuration.
type ScorerConfig struct {
	LookupTimeout    time.Duration
	NameDenylist     []string
	Timing           domain.TimingWindows
	BlacklistEnabled bool
	Blacklist        []string
}

// DefaultScorerConfig returns sensible defaults.
func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		LookupTimeout:    5 * time.Second,
		NameDenylist:     []string{"test", "scam", "rug", "fake", "honeypot", "ponzi"},
		Timing:           domain.DefaultTimingWindows(),
		BlacklistEnabled: true,
	}
}

// Scorer computes risk assessments. Factors run concurrently and fail independently.
type Scorer struct {
	config    ScorerConfig
	mints     MintLookup
	balances  BalanceLookup
	market    MarketLookup
	blacklist map[string]struct{}
	logger    logger.LoggerInterface
	now       func() time.Time

	tracer         trace.Tracer
	compositeHist  metric.Int64Histogram
	factorFailures metric.Int64Counter
}

// ScorerOption configures Scorer.
type ScorerOption func(*Scorer)

// WithClock replaces the wall clock used by the timing and contract factors.
func WithClock(now func() time.Time) ScorerOption {
	return func(s *Scorer) { s.now = now }
}

// NewScorer creates a Scorer.
func NewScorer(cfg ScorerConfig, mints MintLookup, balances BalanceLookup, market MarketLookup, log logger.LoggerInterface, opts ...ScorerOption) (*Scorer, error) {
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = 5 * time.Second
	}

	s := &Scorer{
		config:    cfg,
		mints:     mints,
		balances:  balances,
		market:    market,
		blacklist: make(map[string]struct{}, len(cfg.Blacklist)),
		logger:    log,
		now:       time.Now,
		tracer:    otel.Tracer(tracerName),
	}
	for _, addr := range cfg.Blacklist {
		s.blacklist[addr] = struct{}{}
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return s, nil
}

func (s *Scorer) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	if s.compositeHist, err = meter.Int64Histogram("scoring_composite_score",
		metric.WithDescription("Composite risk score per assessment"),
		metric.WithExplicitBucketBoundaries(0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10)); err != nil {
		return err
	}
	s.factorFailures, err = meter.Int64Counter("scoring_factor_failures_total",
		metric.WithDescription("Factor computations that failed or timed out"))
	return err
}

type factorResult struct {
	score int
	tags  []string
	err   error
}

// extras collects the best-effort market estimates while factors run.
type extras struct {
	mu     sync.Mutex
	market *Market
}

func (e *extras) get() *Market {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.market
}

func (e *extras) setMarket(m Market) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.market == nil {
		e.market = &m
	}
}

// Score assesses opp. It never fails: a factor that errors or times out is
// excluded from the composite.
func (s *Scorer) Score(ctx context.Context, opp chainDomain.Opportunity) domain.Assessment {
	ctx, span := s.tracer.Start(ctx, "scoring.score",
		trace.WithAttributes(
			attribute.String("pool", opp.Pool),
			attribute.String("base_mint", opp.BaseMint),
		))
	defer span.End()

	now := s.now()
	ex := &extras{}

	factors := map[domain.Factor]func(context.Context) factorResult{
		domain.FactorLiquidity: func(ctx context.Context) factorResult { return s.liquidity(ctx, opp, ex) },
		domain.FactorSupply:    func(ctx context.Context) factorResult { return s.supply(ctx, opp) },
		domain.FactorContract:  func(ctx context.Context) factorResult { return s.contract(ctx, opp, now, ex) },
		domain.FactorSocial:    func(ctx context.Context) factorResult { return s.social(ctx, opp, ex) },
		domain.FactorTiming:    func(context.Context) factorResult { return factorResult{score: domain.TimingScore(now, s.config.Timing)} },
		domain.FactorDeployer:  func(ctx context.Context) factorResult { return s.deployer(ctx, opp) },
	}

	results := make(map[domain.Factor]factorResult, len(factors))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for name, fn := range factors {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := s.run(ctx, name, fn)
			mu.Lock()
			results[name] = res
			mu.Unlock()
		}()
	}
	wg.Wait()

	scores := make(map[domain.Factor]int, len(results))
	var tags []string
	for name, res := range results {
		if res.err != nil {
			s.factorFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("factor", string(name))))
			s.logger.Debug(ctx, "factor failed", "factor", name, "pool", opp.Pool, "error", res.err)
			continue
		}
		scores[name] = res.score
		tags = append(tags, res.tags...)
	}

	a := domain.NewAssessment(scores, tags, s.blacklisted(opp))
	if m := ex.get(); m != nil {
		a.Liquidity = m.Liquidity
		a.MarketCap = m.MarketCap
		a.TokenName = m.Name
		a.TokenSymbol = m.Symbol
	}

	s.compositeHist.Record(ctx, int64(a.Composite()))
	span.SetAttributes(
		attribute.Int("composite", a.Composite()),
		attribute.Bool("scam", a.Scam()),
		attribute.Int("failed_factors", len(a.Failed())),
	)
	return a
}

// run executes one factor under its own deadline. A panic counts as a failure.
func (s *Scorer) run(ctx context.Context, name domain.Factor, fn func(context.Context) factorResult) factorResult {
	ctx, cancel := context.WithTimeout(ctx, s.config.LookupTimeout)
	defer cancel()

	done := make(chan factorResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- factorResult{err: apperror.New(apperror.CodeInternalError,
					apperror.WithContext("factor "+string(name)+" panicked"))}
			}
		}()
		done <- fn(ctx)
	}()

	select {
	case res := <-done:
		return res
	case <-ctx.Done():
		return factorResult{err: apperror.New(apperror.CodeLookupTimeout,
			apperror.WithCause(ctx.Err()),
			apperror.WithContext(string(name)))}
	}
}

func (s *Scorer) blacklisted(opp chainDomain.Opportunity) bool {
	if !s.config.BlacklistEnabled {
		return false
	}
	_, deployer := s.blacklist[opp.Deployer]
	_, mint := s.blacklist[opp.BaseMint]
	return deployer || mint
}

func (s *Scorer) lookupMarket(ctx context.Context, opp chainDomain.Opportunity, ex *extras) (Market, error) {
	if s.market == nil {
		return Market{}, apperror.New(apperror.CodeMarketDataMissing, apperror.WithContext("no market lookup"))
	}
	m, err := s.market.Market(ctx, opp.Pool, opp.BaseMint)
	if err != nil {
		return Market{}, err
	}
	ex.setMarket(m)
	return m, nil
}

func (s *Scorer) liquidity(ctx context.Context, opp chainDomain.Opportunity, ex *extras) factorResult {
	m, err := s.lookupMarket(ctx, opp, ex)
	if err != nil {
		return factorResult{err: err}
	}
	res := factorResult{score: domain.LiquidityScore(m.Liquidity)}
	if res.score <= 2 {
		res.tags = append(res.tags, domain.TagLowLiquidity)
	}
	return res
}

func (s *Scorer) supply(ctx context.Context, opp chainDomain.Opportunity) factorResult {
	mint, err := s.mints.Mint(ctx, opp.BaseMint)
	if err != nil {
		return factorResult{err: err}
	}
	res := factorResult{score: domain.SupplyScore(mint)}
	if !mint.MintAuthorityRevoked {
		res.tags = append(res.tags, domain.TagMintAuthorityRetained)
	}
	if !mint.FreezeAuthorityRevoked {
		res.tags = append(res.tags, domain.TagFreezeAuthorityRetained)
	}
	return res
}

func (s *Scorer) contract(ctx context.Context, opp chainDomain.Opportunity, now time.Time, ex *extras) factorResult {
	m, err := s.lookupMarket(ctx, opp, ex)
	if err != nil {
		return factorResult{err: err}
	}
	age := opp.Age(now)
	res := factorResult{score: domain.ContractScore(m.Name, m.Symbol, s.config.NameDenylist, age)}
	if m.Name == "" || m.Symbol == "" {
		res.tags = append(res.tags, domain.TagMissingMetadata)
	}
	if domain.NameIsSuspicious(m.Name, s.config.NameDenylist) {
		res.tags = append(res.tags, domain.TagSuspiciousName)
	}
	if age < domain.VeryNewPool {
		res.tags = append(res.tags, domain.TagVeryNewPool)
	}
	return res
}

func (s *Scorer) social(ctx context.Context, opp chainDomain.Opportunity, ex *extras) factorResult {
	m, err := s.lookupMarket(ctx, opp, ex)
	if err != nil {
		return factorResult{err: err}
	}
	res := factorResult{score: domain.SocialScore(m.Links)}
	if m.Links == 0 {
		res.tags = append(res.tags, domain.TagNoSocials)
	}
	return res
}

func (s *Scorer) deployer(ctx context.Context, opp chainDomain.Opportunity) factorResult {
	balance, err := s.balances.Balance(ctx, opp.Deployer)
	if err != nil {
		return factorResult{err: err}
	}
	res := factorResult{score: domain.DeployerScore(balance)}
	if res.score == 5 {
		res.tags = append(res.tags, domain.TagPoorDeployer)
	}
	return res
}
