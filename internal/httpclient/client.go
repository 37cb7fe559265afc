// Package httpclient provides the instrumented HTTP client used by the RPC,
// market data, swap and publishing adapters.
package httpclient

import (
	"context"
	"maps"
	"net"
	"net/http"
	"net/http/httptrace"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/fd1az/pool-sniper/internal/httpclient"

	defaultTimeout         = 10 * time.Second
	defaultKeepAlive       = 10 * time.Second
	defaultMaxConnsPerHost = 5
	defaultIdleConnTimeout = 2 * time.Minute

	metricRequests = "http_client_requests_total"
	metricDuration = "http_client_request_duration_seconds"
)

// Client builds and executes instrumented requests.
type Client interface {
	NewRequest() Request
	NewRequestWithOptions(opts ...RequestOption) Request
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// TraceOption selects which bodies are attached to the request span.
type TraceOption string

const (
	TraceRequest  TraceOption = "request"
	TraceResponse TraceOption = "response"
)

type clientOptions struct {
	provider    string
	transport   http.RoundTripper
	timeout     time.Duration
	headers     map[string]string
	baseURL     string
	tracer      trace.Tracer
	logRequest  bool
	logResponse bool
}

// ClientOption configures NewInstrumentedClient.
type ClientOption func(*clientOptions)

// WithProviderName tags metrics and spans with the upstream name.
func WithProviderName(name string) ClientOption {
	return func(o *clientOptions) { o.provider = name }
}

// WithRoundTripper replaces the pooled default transport.
func WithRoundTripper(rt http.RoundTripper) ClientOption {
	return func(o *clientOptions) { o.transport = rt }
}

// WithRequestTimeout bounds each request including reading the body.
func WithRequestTimeout(d time.Duration) ClientOption {
	return func(o *clientOptions) { o.timeout = d }
}

// WithHeaders adds headers sent on every request.
func WithHeaders(headers map[string]string) ClientOption {
	return func(o *clientOptions) { maps.Copy(o.headers, headers) }
}

// WithBearerToken sends "Authorization: Bearer <token>". The value is never attached to spans.
func WithBearerToken(token string) ClientOption {
	return func(o *clientOptions) { o.headers["Authorization"] = "Bearer " + token }
}

// WithBaseURL resolves relative request paths against url.
func WithBaseURL(url string) ClientOption {
	return func(o *clientOptions) { o.baseURL = url }
}

// WithTraceOptions attaches request and/or response bodies to spans of tracer.
func WithTraceOptions(tracer trace.Tracer, opts ...TraceOption) ClientOption {
	return func(o *clientOptions) {
		o.tracer = tracer
		for _, opt := range opts {
			switch opt {
			case TraceRequest:
				o.logRequest = true
			case TraceResponse:
				o.logResponse = true
			}
		}
	}
}

// InstrumentedClient wraps http.Client with OTEL tracing and request metrics.
type InstrumentedClient struct {
	http     *http.Client
	requests metric.Int64Counter
	duration metric.Float64Histogram
	opts     clientOptions
}

// NewInstrumentedClient creates an InstrumentedClient.
func NewInstrumentedClient(opts ...ClientOption) (*InstrumentedClient, error) {
	o := clientOptions{
		provider: "default",
		timeout:  defaultTimeout,
		headers:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(&o)
	}

	transport := o.transport
	if transport == nil {
		transport = &http.Transport{
			DialContext:     (&net.Dialer{KeepAlive: defaultKeepAlive}).DialContext,
			MaxConnsPerHost: defaultMaxConnsPerHost,
			IdleConnTimeout: defaultIdleConnTimeout,
		}
	}
	transport = otelhttp.NewTransport(transport,
		otelhttp.WithClientTrace(func(ctx context.Context) *httptrace.ClientTrace {
			return otelhttptrace.NewClientTrace(ctx)
		}),
	)

	if o.tracer == nil {
		o.tracer = otel.Tracer(instrumentationName)
	}

	meter := otel.Meter(instrumentationName,
		metric.WithInstrumentationAttributes(attribute.String("provider", o.provider)))
	requests, err := meter.Int64Counter(metricRequests,
		metric.WithDescription("Total number of outbound HTTP requests"))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram(metricDuration,
		metric.WithDescription("Outbound HTTP request latency"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return &InstrumentedClient{
		http:     &http.Client{Timeout: o.timeout, Transport: transport},
		requests: requests,
		duration: duration,
		opts:     o,
	}, nil
}

// NewRequest starts a request with default options.
func (c *InstrumentedClient) NewRequest() Request {
	return c.NewRequestWithOptions()
}

// NewRequestWithOptions starts a request with per-request options.
func (c *InstrumentedClient) NewRequestWithOptions(opts ...RequestOption) Request {
	r := &request{
		client:  c,
		headers: maps.Clone(c.opts.headers),
		query:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Do executes req through the instrumented transport.
func (c *InstrumentedClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	return c.http.Do(req.WithContext(ctx))
}
