// Package solana is a small JSON-RPC 2.0 client for the Solana read APIs the
// sniper needs, plus key validation and logsSubscribe framing.
package solana

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/pool-sniper/internal/apperror"
	"github.com/fd1az/pool-sniper/internal/circuitbreaker"
	"github.com/fd1az/pool-sniper/internal/httpclient"
	"github.com/fd1az/pool-sniper/internal/ratelimit"
)

const tracerName = "github.com/fd1az/pool-sniper/internal/solana"

// Default configuration values.
const (
	DefaultTimeout    = 10 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryDelay = 500 * time.Millisecond
	DefaultMaxDelay   = 5 * time.Second
	DefaultRateLimit  = 10 // requests per second
	DefaultCommitment = "confirmed"
)

// Client talks to a Solana JSON-RPC endpoint.
type Client struct {
	endpoint   string
	http       httpclient.Client
	limiter    *ratelimit.Limiter
	cb         *circuitbreaker.CircuitBreaker[json.RawMessage]
	tracer     trace.Tracer
	commitment string
	maxRetries int
	retryDelay time.Duration
	maxDelay   time.Duration
	requestID  atomic.Uint64
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithMaxRetries sets maximum retry attempts for transport failures.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) { c.maxRetries = n }
}

// WithRetryDelay sets the initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) { c.retryDelay = d }
}

// WithRateLimit caps outbound requests per second.
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = ratelimit.NewWithBurst(rps, burst)
	}
}

// WithCommitment sets the commitment level used for reads.
func WithCommitment(commitment string) ClientOption {
	return func(c *Client) { c.commitment = commitment }
}

// WithHTTPClient replaces the instrumented HTTP client.
func WithHTTPClient(hc httpclient.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// NewClient creates a JSON-RPC client for endpoint.
func NewClient(endpoint string, opts ...ClientOption) (*Client, error) {
	if endpoint == "" {
		return nil, apperror.New(apperror.CodeConfigurationError, apperror.WithContext("solana rpc url is empty"))
	}

	c := &Client{
		endpoint:   endpoint,
		limiter:    ratelimit.NewWithBurst(DefaultRateLimit, DefaultRateLimit),
		tracer:     otel.Tracer(tracerName),
		commitment: DefaultCommitment,
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		maxDelay:   DefaultMaxDelay,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.http == nil {
		hc, err := httpclient.NewInstrumentedClient(
			httpclient.WithProviderName("solana-rpc"),
			httpclient.WithRequestTimeout(DefaultTimeout),
		)
		if err != nil {
			return nil, fmt.Errorf("create http client: %w", err)
		}
		c.http = hc
	}

	cbCfg := circuitbreaker.DefaultConfig("solana-rpc")
	// Node-side RPC errors (bad params, missing tx) are answers, not outages.
	cbCfg.IsSuccessful = func(err error) bool {
		var rpcErr *RPCError
		return err == nil || errors.As(err, &rpcErr) || errors.Is(err, context.Canceled)
	}
	c.cb = circuitbreaker.New[json.RawMessage](cbCfg)

	return c, nil
}

// Healthy reports whether the RPC circuit breaker is admitting requests.
func (c *Client) Healthy() bool {
	return c.cb.State() != gobreaker.StateOpen
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is a JSON-RPC error object returned by the node.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// errRetryable marks transport-level failures worth another attempt.
// after is the server-requested wait, if any.
type errRetryable struct {
	err   error
	after time.Duration
}

func (e errRetryable) Error() string { return e.err.Error() }
func (e errRetryable) Unwrap() error { return e.err }

// call performs a JSON-RPC call through the limiter and breaker with retries.
func (c *Client) call(ctx context.Context, method string, params []any, result any) error {
	ctx, span := c.tracer.Start(ctx, "solana.rpc",
		trace.WithAttributes(attribute.String("rpc.method", method)))
	defer span.End()

	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  method,
		Params:  params,
	}

	raw, err := c.cb.Execute(func() (json.RawMessage, error) {
		return c.callWithRetry(ctx, req)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		var rpcErr *RPCError
		if errors.As(err, &rpcErr) {
			return apperror.New(apperror.CodeSolanaRPCError,
				apperror.WithCause(err),
				apperror.WithContext(method))
		}
		if errors.Is(err, circuitbreaker.ErrOpen) {
			return apperror.New(apperror.CodeCircuitOpen, apperror.WithCause(err), apperror.WithContext(method))
		}
		return apperror.New(apperror.CodeSolanaConnectionFailed,
			apperror.WithCause(err),
			apperror.WithContext(method))
	}

	if result != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, result); err != nil {
			return apperror.New(apperror.CodeInvalidFormat,
				apperror.WithCause(err),
				apperror.WithContext(method+" result"))
		}
	}
	return nil
}

func (c *Client) callWithRetry(ctx context.Context, req rpcRequest) (json.RawMessage, error) {
	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		raw, err := c.post(ctx, req)
		if err == nil {
			return raw, nil
		}
		var retry errRetryable
		if !errors.As(err, &retry) {
			return nil, err
		}
		lastErr = retry.err
		if retry.after > delay {
			delay = min(retry.after, c.maxDelay)
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) post(ctx context.Context, req rpcRequest) (json.RawMessage, error) {
	var rpcResp rpcResponse
	resp, err := c.http.NewRequest().
		SetBody(req).
		SetResult(&rpcResp).
		Post(ctx, c.endpoint)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errRetryable{err: fmt.Errorf("http request: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, errRetryable{err: fmt.Errorf("rate limited (429)"), after: resp.RetryAfter()}
	case resp.StatusCode >= 500:
		return nil, errRetryable{err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, resp.String())
	}

	if resp.Result() == nil {
		return nil, errRetryable{err: fmt.Errorf("undecodable response body")}
	}
	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}
	return rpcResp.Result, nil
}

// GetBalance returns the lamport balance of pubkey.
func (c *Client) GetBalance(ctx context.Context, pubkey string) (uint64, error) {
	params := []any{pubkey, map[string]any{"commitment": c.commitment}}

	var result struct {
		Value uint64 `json:"value"`
	}
	if err := c.call(ctx, "getBalance", params, &result); err != nil {
		return 0, err
	}
	return result.Value, nil
}

// MintInfo is the parsed state of an SPL token mint.
type MintInfo struct {
	Mint            string
	Owner           string
	Decimals        uint8
	Supply          uint64
	MintAuthority   string // empty when revoked
	FreezeAuthority string // empty when revoked
	IsInitialized   bool
}

// MintAuthorityRevoked reports whether new supply can no longer be minted.
func (m MintInfo) MintAuthorityRevoked() bool { return m.MintAuthority == "" }

// FreezeAuthorityRevoked reports whether holder accounts can no longer be frozen.
func (m MintInfo) FreezeAuthorityRevoked() bool { return m.FreezeAuthority == "" }

type parsedAccountResult struct {
	Value *struct {
		Owner string `json:"owner"`
		Data  struct {
			Program string `json:"program"`
			Parsed  struct {
				Type string `json:"type"`
				Info struct {
					Decimals        uint8   `json:"decimals"`
					Supply          string  `json:"supply"`
					MintAuthority   *string `json:"mintAuthority"`
					FreezeAuthority *string `json:"freezeAuthority"`
					IsInitialized   bool    `json:"isInitialized"`
				} `json:"info"`
			} `json:"parsed"`
		} `json:"data"`
	} `json:"value"`
}

// GetMintInfo fetches and decodes a token mint account using jsonParsed encoding.
func (c *Client) GetMintInfo(ctx context.Context, mint string) (*MintInfo, error) {
	params := []any{
		mint,
		map[string]any{"encoding": "jsonParsed", "commitment": c.commitment},
	}

	var result parsedAccountResult
	if err := c.call(ctx, "getAccountInfo", params, &result); err != nil {
		return nil, err
	}
	if result.Value == nil {
		return nil, apperror.NotFound(apperror.CodeAccountNotFound, mint)
	}

	parsed := result.Value.Data.Parsed
	if parsed.Type != "mint" {
		return nil, apperror.New(apperror.CodeInvalidFormat,
			apperror.WithContext(fmt.Sprintf("account %s is %q, not a mint", mint, parsed.Type)))
	}

	supply, err := strconv.ParseUint(parsed.Info.Supply, 10, 64)
	if err != nil {
		return nil, apperror.New(apperror.CodeInvalidFormat,
			apperror.WithCause(err),
			apperror.WithContext("mint supply"))
	}

	info := &MintInfo{
		Mint:          mint,
		Owner:         result.Value.Owner,
		Decimals:      parsed.Info.Decimals,
		Supply:        supply,
		IsInitialized: parsed.Info.IsInitialized,
	}
	if parsed.Info.MintAuthority != nil {
		info.MintAuthority = *parsed.Info.MintAuthority
	}
	if parsed.Info.FreezeAuthority != nil {
		info.FreezeAuthority = *parsed.Info.FreezeAuthority
	}
	return info, nil
}

// Instruction is a compiled instruction with account indexes resolved to keys.
type Instruction struct {
	ProgramID string
	Accounts  []string
	Data      string // base58
}

// Transaction is the subset of a confirmed transaction the pool source needs.
type Transaction struct {
	Signature    string
	Slot         uint64
	BlockTime    int64
	Failed       bool
	AccountKeys  []string
	Instructions []Instruction
	LogMessages  []string
}

type getTransactionResult struct {
	Slot      uint64 `json:"slot"`
	BlockTime *int64 `json:"blockTime"`
	Meta      *struct {
		Err             any      `json:"err"`
		LogMessages     []string `json:"logMessages"`
		LoadedAddresses *struct {
			Writable []string `json:"writable"`
			Readonly []string `json:"readonly"`
		} `json:"loadedAddresses"`
	} `json:"meta"`
	Transaction *struct {
		Message struct {
			AccountKeys  []string `json:"accountKeys"`
			Instructions []struct {
				ProgramIDIndex int    `json:"programIdIndex"`
				Accounts       []int  `json:"accounts"`
				Data           string `json:"data"`
			} `json:"instructions"`
		} `json:"message"`
	} `json:"transaction"`
}

// GetTransaction fetches a confirmed transaction by signature.
func (c *Client) GetTransaction(ctx context.Context, signature string) (*Transaction, error) {
	params := []any{
		signature,
		map[string]any{
			"encoding":                       "json",
			"commitment":                     c.commitment,
			"maxSupportedTransactionVersion": 0,
		},
	}

	var result *getTransactionResult
	if err := c.call(ctx, "getTransaction", params, &result); err != nil {
		return nil, err
	}
	if result == nil || result.Transaction == nil {
		return nil, apperror.NotFound(apperror.CodeTransactionNotFound, signature)
	}

	tx := &Transaction{
		Signature:   signature,
		Slot:        result.Slot,
		AccountKeys: append([]string(nil), result.Transaction.Message.AccountKeys...),
	}
	if result.BlockTime != nil {
		tx.BlockTime = *result.BlockTime
	}
	if result.Meta != nil {
		tx.Failed = result.Meta.Err != nil
		tx.LogMessages = result.Meta.LogMessages
		// v0 transactions index into lookup-table addresses after the static keys.
		if la := result.Meta.LoadedAddresses; la != nil {
			tx.AccountKeys = append(tx.AccountKeys, la.Writable...)
			tx.AccountKeys = append(tx.AccountKeys, la.Readonly...)
		}
	}

	for _, ix := range result.Transaction.Message.Instructions {
		if ix.ProgramIDIndex < 0 || ix.ProgramIDIndex >= len(tx.AccountKeys) {
			return nil, apperror.New(apperror.CodeInvalidFormat,
				apperror.WithContext(fmt.Sprintf("program index %d out of range", ix.ProgramIDIndex)))
		}
		accounts := make([]string, 0, len(ix.Accounts))
		for _, idx := range ix.Accounts {
			if idx < 0 || idx >= len(tx.AccountKeys) {
				return nil, apperror.New(apperror.CodeInvalidFormat,
					apperror.WithContext(fmt.Sprintf("account index %d out of range", idx)))
			}
			accounts = append(accounts, tx.AccountKeys[idx])
		}
		tx.Instructions = append(tx.Instructions, Instruction{
			ProgramID: tx.AccountKeys[ix.ProgramIDIndex],
			Accounts:  accounts,
			Data:      ix.Data,
		})
	}

	return tx, nil
}
