// Package swapapi submits orders to an HTTP swap service that builds, signs and
// confirms the transaction.
package swapapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/pool-sniper/business/trading/domain"
	"github.com/fd1az/pool-sniper/internal/apperror"
	"github.com/fd1az/pool-sniper/internal/circuitbreaker"
	"github.com/fd1az/pool-sniper/internal/httpclient"
	"github.com/fd1az/pool-sniper/internal/logger"
	"github.com/fd1az/pool-sniper/internal/solana"
)

const (
	tracerName = "github.com/fd1az/pool-sniper/business/trading/infra/swapapi"

	swapEndpoint = "/v1/swap"
)

// Config holds swap service settings.
type Config struct {
	BaseURL string
	Token   string
	Wallet  string
	Timeout time.Duration
}

// Executor implements app.Executor over the swap service.
type Executor struct {
	client httpclient.Client
	cb     *circuitbreaker.CircuitBreaker[domain.TradeResult]
	wallet string
	logger logger.LoggerInterface
	tracer trace.Tracer
}

// SwapRequest is the wire form of a TradeOrder.
type SwapRequest struct {
	Wallet       string `json:"wallet"`
	Pool         string `json:"pool"`
	InputMint    string `json:"inputMint"`
	OutputMint   string `json:"outputMint"`
	AmountIn     uint64 `json:"amountIn,string"`
	SlippageBps  uint16 `json:"slippageBps"`
	MinAmountOut uint64 `json:"minAmountOut,string,omitempty"`
	Deadline     int64  `json:"deadline"`
}

// SwapResponse is the swap service reply.
type SwapResponse struct {
	Signature string `json:"signature"`
	InAmount  uint64 `json:"inAmount,string"`
	OutAmount uint64 `json:"outAmount,string"`
	Error     string `json:"error,omitempty"`
}

// NewExecutor creates a swap service executor.
func NewExecutor(cfg Config, log logger.LoggerInterface) (*Executor, error) {
	if cfg.BaseURL == "" {
		return nil, apperror.New(apperror.CodeConfigurationError, apperror.WithContext("swap api url"))
	}

	tracer := otel.Tracer(tracerName)
	opts := []httpclient.ClientOption{
		httpclient.WithProviderName("swapapi"),
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithTraceOptions(tracer, httpclient.TraceRequest, httpclient.TraceResponse),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, httpclient.WithRequestTimeout(cfg.Timeout))
	}
	if cfg.Token != "" {
		opts = append(opts, httpclient.WithBearerToken(cfg.Token))
	}
	hc, err := httpclient.NewInstrumentedClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	cbCfg := circuitbreaker.DefaultConfig("swapapi")
	cbCfg.ConsecutiveFailures = 3
	// Slippage refusals are the service working as intended.
	cbCfg.IsSuccessful = func(err error) bool {
		return err == nil || apperror.HasCode(err, apperror.CodePriceImpactExceeded)
	}
	cbCfg.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn(context.Background(), "circuit breaker state change",
			"breaker", name, "from", from.String(), "to", to.String())
	}

	return &Executor{
		client: hc,
		cb:     circuitbreaker.New[domain.TradeResult](cbCfg),
		wallet: cfg.Wallet,
		logger: log,
		tracer: tracer,
	}, nil
}

// Execute posts the order and returns the confirmed signature.
func (e *Executor) Execute(ctx context.Context, order domain.TradeOrder) (domain.TradeResult, error) {
	ctx, span := e.tracer.Start(ctx, "swapapi.execute",
		trace.WithAttributes(attribute.String("pool", order.PoolID)))
	defer span.End()

	res, err := e.cb.Execute(func() (domain.TradeResult, error) {
		return e.submit(ctx, order)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "swap failed")
		if errors.Is(err, circuitbreaker.ErrOpen) {
			return domain.TradeResult{}, apperror.New(apperror.CodeCircuitOpen, apperror.WithCause(err), apperror.WithContext("swapapi"))
		}
		return domain.TradeResult{}, err
	}

	span.SetAttributes(attribute.String("signature", res.Signature))
	span.SetStatus(codes.Ok, "confirmed")
	return res, nil
}

func (e *Executor) submit(ctx context.Context, order domain.TradeOrder) (domain.TradeResult, error) {
	req := SwapRequest{
		Wallet:       e.wallet,
		Pool:         order.PoolID,
		InputMint:    solana.WrappedSOLMint,
		OutputMint:   order.TokenMint,
		AmountIn:     order.AmountIn,
		SlippageBps:  order.SlippageBps(),
		MinAmountOut: order.MinAmountOut,
		Deadline:     order.Deadline,
	}

	var result SwapResponse
	_, err := e.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "swap")),
		httpclient.WithResponseErrorHandler(errorHandler),
	).
		SetBody(req).
		SetResult(&result).
		Post(ctx, swapEndpoint)
	if err != nil {
		if apperror.IsAppError(err) {
			return domain.TradeResult{}, err
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.TradeResult{}, apperror.New(apperror.CodeExecutionTimeout, apperror.WithCause(err))
		}
		return domain.TradeResult{}, apperror.External(apperror.CodeExecutionFailed, "swapapi", err)
	}

	if err := solana.ValidateSignature(result.Signature); err != nil {
		return domain.TradeResult{}, apperror.New(apperror.CodeExecutionFailed,
			apperror.WithCause(err),
			apperror.WithContext("swap service returned no valid signature"))
	}

	executed := result.InAmount
	if executed == 0 {
		executed = order.AmountIn
	}
	return domain.TradeResult{
		Signature:      result.Signature,
		ExecutedAmount: executed,
		AmountOut:      result.OutAmount,
	}, nil
}

func errorHandler(statusCode int, body []byte) error {
	switch {
	case statusCode == http.StatusConflict:
		return apperror.New(apperror.CodePriceImpactExceeded, apperror.WithContext(string(body)))
	case statusCode == http.StatusRequestTimeout || statusCode == http.StatusGatewayTimeout:
		return apperror.New(apperror.CodeExecutionTimeout, apperror.WithContext(string(body)))
	case statusCode == http.StatusTooManyRequests:
		return apperror.New(apperror.CodeRateLimitExceeded, apperror.WithContext("swapapi"))
	case statusCode >= 400:
		return apperror.New(apperror.CodeExecutionFailed,
			apperror.WithContext(fmt.Sprintf("HTTP %d: %s", statusCode, string(body))),
			apperror.WithStatusCode(statusCode))
	}
	return nil
}
