package raydium

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/pool-sniper/business/chain/domain"
	"github.com/fd1az/pool-sniper/internal/apperror"
	"github.com/fd1az/pool-sniper/internal/logger"
	"github.com/fd1az/pool-sniper/internal/solana"
	"github.com/fd1az/pool-sniper/internal/wsconn"
)

const (
	tracerName = "github.com/fd1az/pool-sniper/business/chain/infra/raydium"
	meterName  = "github.com/fd1az/pool-sniper/business/chain/infra/raydium"
)

// TransactionFetcher resolves a signature to its confirmed transaction.
type TransactionFetcher interface {
	GetTransaction(ctx context.Context, signature string) (*solana.Transaction, error)
}

// SourceConfig holds configuration for the pool source.
type SourceConfig struct {
	WSURL      string
	Commitment string
	Programs   []string
	BufferSize int

	// Notifications can arrive before the transaction is queryable at the
	// configured commitment; not-found lookups are retried.
	FetchAttempts int
	FetchDelay    time.Duration
	FetchTimeout  time.Duration

	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxReconnects  int
}

// DefaultSourceConfig returns sensible defaults.
func DefaultSourceConfig(wsURL string) SourceConfig {
	return SourceConfig{
		WSURL:          wsURL,
		Commitment:     solana.DefaultCommitment,
		Programs:       []string{solana.RaydiumAMMV4Program},
		BufferSize:     256,
		FetchAttempts:  3,
		FetchDelay:     400 * time.Millisecond,
		FetchTimeout:   10 * time.Second,
		InitialBackoff: time.Second,
		MaxBackoff:     30 * time.Second,
	}
}

type sourceMetrics struct {
	logsReceived  metric.Int64Counter
	poolsDetected metric.Int64Counter
	resolveErrors metric.Int64Counter
	dropped       metric.Int64Counter
}

// Source implements app.EventSource over a logsSubscribe stream.
type Source struct {
	config SourceConfig
	logger logger.LoggerInterface
	rpc    TransactionFetcher
	ws     *wsconn.Client

	out       chan domain.Opportunity
	requestID atomic.Uint64
	started   atomic.Bool
	closeOnce sync.Once
	inflight  sync.WaitGroup

	tracer  trace.Tracer
	metrics *sourceMetrics
}

// NewSource creates a pool-creation source.
func NewSource(cfg SourceConfig, rpc TransactionFetcher, log logger.LoggerInterface) (*Source, error) {
	if len(cfg.Programs) == 0 {
		return nil, apperror.New(apperror.CodeRequiredField, apperror.WithContext("programs"))
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if cfg.FetchAttempts <= 0 {
		cfg.FetchAttempts = 1
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}

	wsCfg := wsconn.DefaultConfig(cfg.WSURL, "solana-logs")
	wsCfg.InitialBackoff = cfg.InitialBackoff
	wsCfg.MaxBackoff = cfg.MaxBackoff
	wsCfg.MaxReconnects = cfg.MaxReconnects
	ws, err := wsconn.New(wsCfg)
	if err != nil {
		return nil, err
	}

	s := &Source{
		config: cfg,
		logger: log,
		rpc:    rpc,
		ws:     ws,
		out:    make(chan domain.Opportunity, cfg.BufferSize),
		tracer: otel.Tracer(tracerName),
	}
	if err := s.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	ws.OnConnect(s.subscribe)
	ws.OnMessage(s.handleMessage)
	ws.OnStateChange(func(state wsconn.State, err error) {
		if err != nil {
			s.logger.Warn(context.Background(), "log stream state change", "state", state, "error", err)
			return
		}
		s.logger.Info(context.Background(), "log stream state change", "state", state)
	})

	return s, nil
}

func (s *Source) initMetrics() error {
	meter := otel.Meter(meterName)
	s.metrics = &sourceMetrics{}
	var err error

	if s.metrics.logsReceived, err = meter.Int64Counter("chain_log_notifications_total",
		metric.WithDescription("Log notifications received from the subscription")); err != nil {
		return err
	}
	if s.metrics.poolsDetected, err = meter.Int64Counter("chain_pools_detected_total",
		metric.WithDescription("Pool-creation instructions decoded")); err != nil {
		return err
	}
	if s.metrics.resolveErrors, err = meter.Int64Counter("chain_resolve_errors_total",
		metric.WithDescription("Transactions that could not be fetched")); err != nil {
		return err
	}
	s.metrics.dropped, err = meter.Int64Counter("chain_events_dropped_total",
		metric.WithDescription("Opportunities dropped because the output buffer was full"))
	return err
}

// Events connects and starts streaming. It can be called once.
func (s *Source) Events(ctx context.Context) (<-chan domain.Opportunity, error) {
	if !s.started.CompareAndSwap(false, true) {
		return nil, apperror.New(apperror.CodeInvalidState, apperror.WithContext("pool source already started"))
	}

	ctx, span := s.tracer.Start(ctx, "chain.events",
		trace.WithAttributes(attribute.StringSlice("programs", s.config.Programs)))
	defer span.End()

	if err := s.ws.ConnectWithRetry(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "connect failed")
		return nil, apperror.New(apperror.CodeSolanaSubscribeFailed, apperror.WithCause(err))
	}

	go func() {
		<-ctx.Done()
		_ = s.Close()
	}()

	span.SetStatus(codes.Ok, "subscribed")
	return s.out, nil
}

// State returns the websocket connection state.
func (s *Source) State() wsconn.State {
	return s.ws.State()
}

// Close stops the subscription and closes the event channel.
func (s *Source) Close() error {
	s.closeOnce.Do(func() {
		s.logger.Info(context.Background(), "closing pool source")
		_ = s.ws.Close()
		s.inflight.Wait()
		close(s.out)
	})
	return nil
}

// subscribe runs after every (re)connect.
func (s *Source) subscribe(ctx context.Context) error {
	req := solana.LogsSubscribeRequest(s.requestID.Add(1), s.config.Commitment, s.config.Programs...)
	if err := s.ws.SendJSON(ctx, req); err != nil {
		return apperror.New(apperror.CodeSolanaSubscribeFailed, apperror.WithCause(err))
	}
	return nil
}

func (s *Source) handleMessage(ctx context.Context, data []byte) {
	msg, err := solana.ParseWSMessage(data)
	if err != nil {
		s.logger.Warn(ctx, "undecodable ws frame", "error", err)
		return
	}

	switch msg.Kind {
	case solana.WSSubscribed:
		s.logger.Info(ctx, "logs subscription active", "subscription", msg.SubscriptionID)
	case solana.WSError:
		s.logger.Error(ctx, "subscription error", "code", msg.Err.Code, "message", msg.Err.Message)
	case solana.WSLogs:
		s.metrics.logsReceived.Add(ctx, 1)
		n := msg.Logs
		if n.Failed || !IsPoolCreation(n.Logs) {
			return
		}
		s.inflight.Add(1)
		go func() {
			defer s.inflight.Done()
			s.resolve(ctx, n.Signature)
		}()
	}
}

// resolve fetches the transaction behind a pool-creation log and emits its opportunities.
func (s *Source) resolve(ctx context.Context, signature string) {
	ctx, span := s.tracer.Start(ctx, "chain.resolve",
		trace.WithAttributes(attribute.String("signature", signature)))
	defer span.End()

	tx, err := s.fetch(ctx, signature)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		s.metrics.resolveErrors.Add(ctx, 1)
		s.logger.Warn(ctx, "resolve pool transaction failed", "signature", signature, "error", err)
		return
	}

	for _, opp := range DecodeOpportunities(tx) {
		s.metrics.poolsDetected.Add(ctx, 1,
			metric.WithAttributes(attribute.String("variant", string(opp.Variant))))
		select {
		case s.out <- opp:
			s.logger.Debug(ctx, "pool detected",
				"pool", opp.Pool, "base_mint", opp.BaseMint, "variant", opp.Variant, "slot", opp.Slot)
		default:
			s.metrics.dropped.Add(ctx, 1)
			span.AddEvent("opportunity_dropped_buffer_full")
			s.logger.Warn(ctx, "opportunity dropped, buffer full", "signature", signature)
		}
	}
}

func (s *Source) fetch(ctx context.Context, signature string) (*solana.Transaction, error) {
	var lastErr error
	for attempt := 1; attempt <= s.config.FetchAttempts; attempt++ {
		fetchCtx, cancel := context.WithTimeout(ctx, s.config.FetchTimeout)
		tx, err := s.rpc.GetTransaction(fetchCtx, signature)
		cancel()
		if err == nil {
			return tx, nil
		}
		lastErr = err
		if !apperror.HasCode(err, apperror.CodeTransactionNotFound) || attempt == s.config.FetchAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.config.FetchDelay):
		}
	}
	return nil, lastErr
}
