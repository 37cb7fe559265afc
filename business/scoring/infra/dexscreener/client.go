// Package dexscreener reads pool market data from the DexScreener public API.
package dexscreener

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/fd1az/pool-sniper/business/scoring/app"
	"github.com/fd1az/pool-sniper/internal/apperror"
	"github.com/fd1az/pool-sniper/internal/circuitbreaker"
	"github.com/fd1az/pool-sniper/internal/httpclient"
	"github.com/fd1az/pool-sniper/internal/logger"
	"github.com/fd1az/pool-sniper/internal/ratelimit"
	"github.com/fd1az/pool-sniper/internal/solana"
)

const (
	tracerName = "github.com/fd1az/pool-sniper/business/scoring/infra/dexscreener"

	BaseAPIURL = "https://api.dexscreener.com"

	pairsEndpoint  = "/latest/dex/pairs/solana/"
	tokensEndpoint = "/latest/dex/tokens/"
	chainID        = "solana"

	defaultTimeout   = 5 * time.Second
	defaultRateLimit = 300 // requests per minute
)

// Config holds configuration for the DexScreener client.
type Config struct {
	BaseURL   string
	RateLimit int // requests per minute
	Timeout   time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:   BaseAPIURL,
		RateLimit: defaultRateLimit,
		Timeout:   defaultTimeout,
	}
}

// Client implements app.MarketLookup.
type Client struct {
	client  httpclient.Client
	limiter *ratelimit.Limiter
	cb      *circuitbreaker.CircuitBreaker[*Pair]
	group   singleflight.Group
	logger  logger.LoggerInterface
	tracer  trace.Tracer
}

// NewClient creates a DexScreener client.
func NewClient(cfg Config, log logger.LoggerInterface) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseAPIURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = defaultRateLimit
	}

	tracer := otel.Tracer(tracerName)
	hc, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("dexscreener"),
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithRequestTimeout(cfg.Timeout),
		httpclient.WithTraceOptions(tracer, httpclient.TraceResponse),
		httpclient.WithHeaders(map[string]string{"Accept": "application/json"}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	c := &Client{
		client:  hc,
		limiter: ratelimit.New(cfg.RateLimit),
		logger:  log,
		tracer:  tracer,
	}

	cbCfg := circuitbreaker.DefaultConfig("dexscreener")
	// A pool that is not indexed yet is an answer, not an outage.
	cbCfg.IsSuccessful = func(err error) bool {
		return err == nil ||
			apperror.HasCode(err, apperror.CodeMarketDataMissing) ||
			errors.Is(err, context.Canceled)
	}
	cbCfg.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Info(context.Background(), "circuit breaker state change",
			"breaker", name, "from", from.String(), "to", to.String())
	}
	c.cb = circuitbreaker.New[*Pair](cbCfg)

	return c, nil
}

// Token is a pair side.
type Token struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

// Pair is the subset of a DexScreener pair the scorer reads.
type Pair struct {
	ChainID     string          `json:"chainId"`
	DexID       string          `json:"dexId"`
	PairAddress string          `json:"pairAddress"`
	BaseToken   Token           `json:"baseToken"`
	QuoteToken  Token           `json:"quoteToken"`
	PriceNative decimal.Decimal `json:"priceNative"`
	PriceUSD    decimal.Decimal `json:"priceUsd"`
	Liquidity   struct {
		USD   decimal.Decimal `json:"usd"`
		Base  decimal.Decimal `json:"base"`
		Quote decimal.Decimal `json:"quote"`
	} `json:"liquidity"`
	FDV           decimal.Decimal `json:"fdv"`
	MarketCap     decimal.Decimal `json:"marketCap"`
	PairCreatedAt int64           `json:"pairCreatedAt"`
	Info          *struct {
		ImageURL string `json:"imageUrl"`
		Websites []struct {
			Label string `json:"label"`
			URL   string `json:"url"`
		} `json:"websites"`
		Socials []struct {
			Type string `json:"type"`
			URL  string `json:"url"`
		} `json:"socials"`
	} `json:"info"`
}

type pairsResponse struct {
	Pairs []Pair `json:"pairs"`
}

// Market returns the market view of pool. Concurrent calls for the same pool share one request.
func (c *Client) Market(ctx context.Context, pool, baseMint string) (app.Market, error) {
	ctx, span := c.tracer.Start(ctx, "dexscreener.market",
		trace.WithAttributes(attribute.String("pool", pool)))
	defer span.End()

	v, err, shared := c.group.Do(pool, func() (any, error) {
		return c.cb.Execute(func() (*Pair, error) {
			return c.fetchPair(ctx, pool, baseMint)
		})
	})
	span.SetAttributes(attribute.Bool("shared", shared))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		if errors.Is(err, circuitbreaker.ErrOpen) {
			return app.Market{}, apperror.New(apperror.CodeCircuitOpen, apperror.WithCause(err), apperror.WithContext("dexscreener"))
		}
		return app.Market{}, err
	}

	return toMarket(v.(*Pair), baseMint)
}

func (c *Client) fetchPair(ctx context.Context, pool, baseMint string) (*Pair, error) {
	pairs, err := c.get(ctx, "pairs", pairsEndpoint+pool)
	if err != nil {
		return nil, err
	}
	if p := pickPair(pairs, pool); p != nil {
		return p, nil
	}

	// Freshly created pairs sometimes only show up under the token listing.
	pairs, err = c.get(ctx, "tokens", tokensEndpoint+baseMint)
	if err != nil {
		return nil, err
	}
	if p := pickPair(pairs, pool); p != nil {
		return p, nil
	}
	return nil, apperror.NotFound(apperror.CodeMarketDataMissing, pool)
}

func (c *Client) get(ctx context.Context, endpoint, path string) ([]Pair, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperror.New(apperror.CodeRateLimitExceeded, apperror.WithCause(err), apperror.WithContext("dexscreener"))
	}

	var result pairsResponse
	_, err := c.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", endpoint)),
		httpclient.WithResponseErrorHandler(errorHandler),
	).
		SetResult(&result).
		Get(ctx, path)
	if err != nil {
		if apperror.IsAppError(err) {
			return nil, err
		}
		return nil, apperror.External(apperror.CodeMarketDataFailed, "dexscreener "+endpoint, err)
	}
	return result.Pairs, nil
}

// pickPair prefers the exact pool, then the deepest Solana pair.
func pickPair(pairs []Pair, pool string) *Pair {
	var best *Pair
	for i := range pairs {
		p := &pairs[i]
		if p.ChainID != "" && p.ChainID != chainID {
			continue
		}
		if p.PairAddress == pool {
			return p
		}
		if best == nil || p.Liquidity.USD.GreaterThan(best.Liquidity.USD) {
			best = p
		}
	}
	return best
}

var two = decimal.NewFromInt(2)

func toMarket(p *Pair, baseMint string) (app.Market, error) {
	var liquidity decimal.Decimal
	switch solana.WrappedSOLMint {
	case p.QuoteToken.Address:
		liquidity = p.Liquidity.Quote.Mul(two)
	case p.BaseToken.Address:
		liquidity = p.Liquidity.Base.Mul(two)
	default:
		return app.Market{}, apperror.New(apperror.CodeMarketDataMissing,
			apperror.WithContext(fmt.Sprintf("pair %s is not quoted in SOL", p.PairAddress)))
	}

	marketCap := p.MarketCap
	if !marketCap.IsPositive() {
		marketCap = p.FDV
	}

	token := p.BaseToken
	if strings.EqualFold(p.QuoteToken.Address, baseMint) {
		token = p.QuoteToken
	}

	links := 0
	if p.Info != nil {
		links = len(p.Info.Websites) + len(p.Info.Socials)
	}

	return app.Market{
		Liquidity: liquidity,
		MarketCap: marketCap,
		Name:      token.Name,
		Symbol:    token.Symbol,
		Links:     links,
	}, nil
}

func errorHandler(statusCode int, body []byte) error {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return apperror.New(apperror.CodeRateLimitExceeded, apperror.WithContext("dexscreener"))
	case statusCode >= 400:
		return apperror.New(apperror.CodeMarketDataFailed,
			apperror.WithContext(fmt.Sprintf("HTTP %d: %s", statusCode, string(body))))
	}
	return nil
}
