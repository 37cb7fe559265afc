// Package x posts notifications through the X API v2.
package x

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

	"github.com/fd1az/pool-sniper/internal/apperror"
	"github.com/fd1az/pool-sniper/internal/circuitbreaker"
	"github.com/fd1az/pool-sniper/internal/httpclient"
	"github.com/fd1az/pool-sniper/internal/logger"
)

const (
	tracerName = "github.com/fd1az/pool-sniper/business/notify/infra/x"

	BaseAPIURL    = "https://api.x.com"
	tweetEndpoint = "/2/tweets"
)

// Config holds X API settings.
type Config struct {
	BaseURL     string
	BearerToken string
	Timeout     time.Duration
}

type tweetRequest struct {
	Text string `json:"text"`
}

type tweetResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

// Publisher implements app.Publisher.
type Publisher struct {
	client httpclient.Client
	cb     *circuitbreaker.CircuitBreaker[string]
	logger logger.LoggerInterface
	tracer trace.Tracer
}

// NewPublisher creates an X publisher.
func NewPublisher(cfg Config, log logger.LoggerInterface) (*Publisher, error) {
	if cfg.BearerToken == "" {
		return nil, apperror.New(apperror.CodeConfigurationError, apperror.WithContext("x bearer token"))
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseAPIURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	tracer := otel.Tracer(tracerName)
	hc, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("x"),
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithRequestTimeout(cfg.Timeout),
		httpclient.WithBearerToken(cfg.BearerToken),
		httpclient.WithTraceOptions(tracer, httpclient.TraceRequest),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	cbCfg := circuitbreaker.DefaultConfig("x")
	cbCfg.Timeout = 2 * time.Minute
	cbCfg.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn(context.Background(), "circuit breaker state change",
			"breaker", name, "from", from.String(), "to", to.String())
	}

	return &Publisher{
		client: hc,
		cb:     circuitbreaker.New[string](cbCfg),
		logger: log,
		tracer: tracer,
	}, nil
}

// Publish creates a post.
func (p *Publisher) Publish(ctx context.Context, text string) error {
	ctx, span := p.tracer.Start(ctx, "x.publish",
		trace.WithAttributes(attribute.Int("length", len(text))))
	defer span.End()

	id, err := p.cb.Execute(func() (string, error) {
		return p.post(ctx, text)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "publish failed")
		if errors.Is(err, circuitbreaker.ErrOpen) {
			return apperror.New(apperror.CodeCircuitOpen, apperror.WithCause(err), apperror.WithContext("x"))
		}
		return err
	}

	span.SetAttributes(attribute.String("post_id", id))
	span.SetStatus(codes.Ok, "published")
	p.logger.Debug(ctx, "notification published", "post_id", id)
	return nil
}

func (p *Publisher) post(ctx context.Context, text string) (string, error) {
	var result tweetResponse
	_, err := p.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "tweets")),
		httpclient.WithResponseErrorHandler(errorHandler),
	).
		SetBody(tweetRequest{Text: text}).
		SetResult(&result).
		Post(ctx, tweetEndpoint)
	if err != nil {
		if apperror.IsAppError(err) {
			return "", err
		}
		return "", apperror.External(apperror.CodeNotificationFailed, "x", err)
	}
	if result.Data.ID == "" {
		return "", apperror.New(apperror.CodeNotificationFailed, apperror.WithContext("x returned no post id"))
	}
	return result.Data.ID, nil
}

func errorHandler(statusCode int, body []byte) error {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return apperror.New(apperror.CodeRateLimitExceeded, apperror.WithContext("x"))
	case statusCode >= 400:
		return apperror.New(apperror.CodeNotificationFailed,
			apperror.WithContext(fmt.Sprintf("HTTP %d: %s", statusCode, string(body))),
			apperror.WithStatusCode(statusCode))
	}
	return nil
}
