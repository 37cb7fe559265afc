package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// maxTracedBody caps the body bytes attached to a span event.
const maxTracedBody = 4096

// Request is a single-use request builder.
type Request interface {
	Get(ctx context.Context, path string) (*Response, error)
	Post(ctx context.Context, path string) (*Response, error)

	// SetBody sets the payload. []byte and string are sent as is, anything else as JSON.
	SetBody(body any) Request
	SetHeader(key, value string) Request
	SetQueryParam(key, value string) Request
	// SetResult decodes a JSON response body into result.
	SetResult(result any) Request
}

// ResponseErrorHandler maps a status and body to an error, or nil to accept the response.
type ResponseErrorHandler func(statusCode int, body []byte) error

// Label is an extra metric attribute for one request.
type Label struct {
	Key   string
	Value string
}

// NewLabel creates a Label.
func NewLabel(key, value string) Label {
	return Label{Key: key, Value: value}
}

// RequestOption configures one request.
type RequestOption func(*request)

// WithResponseErrorHandler classifies responses for the request.
func WithResponseErrorHandler(h ResponseErrorHandler) RequestOption {
	return func(r *request) { r.onResponse = h }
}

// WithLabels adds metric attributes for the request, typically the endpoint name.
func WithLabels(labels ...Label) RequestOption {
	return func(r *request) { r.labels = append(r.labels, labels...) }
}

// Response is a fully read HTTP response.
type Response struct {
	*http.Response
	body    []byte
	decoded any
}

// String returns the body.
func (r *Response) String() string { return string(r.body) }

// IsError reports a 4xx or 5xx status.
func (r *Response) IsError() bool { return r.StatusCode >= http.StatusBadRequest }

// Result returns the value passed to SetResult when the body decoded into it, else nil.
func (r *Response) Result() any { return r.decoded }

// RetryAfter returns the delay announced by a Retry-After header in seconds, or 0.
func (r *Response) RetryAfter() time.Duration {
	v := r.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	var secs int
	if _, err := fmt.Sscanf(v, "%d", &secs); err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

type request struct {
	client     *InstrumentedClient
	headers    map[string]string
	query      map[string]string
	body       any
	result     any
	onResponse ResponseErrorHandler
	labels     []Label
}

func (r *request) Get(ctx context.Context, path string) (*Response, error) {
	return r.do(ctx, http.MethodGet, path)
}

func (r *request) Post(ctx context.Context, path string) (*Response, error) {
	return r.do(ctx, http.MethodPost, path)
}

func (r *request) SetBody(body any) Request {
	r.body = body
	return r
}

func (r *request) SetHeader(key, value string) Request {
	r.headers[key] = value
	return r
}

func (r *request) SetQueryParam(key, value string) Request {
	r.query[key] = value
	return r
}

func (r *request) SetResult(result any) Request {
	r.result = result
	return r
}

func (r *request) do(ctx context.Context, method, path string) (*Response, error) {
	c := r.client
	ctx, span := c.opts.tracer.Start(ctx, "http.request",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.path", path),
			attribute.String("provider", c.opts.provider),
		),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		c.duration.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(attribute.String("provider", c.opts.provider)))
	}()

	payload, err := r.encodeBody()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "encode body")
		return nil, err
	}
	if c.opts.logRequest && payload != nil {
		span.AddEvent("request.body", trace.WithAttributes(
			attribute.String("http.request_body", traced(payload))))
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.url(path), body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "build request")
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		r.fail(ctx, span, err)
		return nil, err
	}
	raw, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		r.fail(ctx, span, err)
		return nil, fmt.Errorf("read response body: %w", err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if c.opts.logResponse {
		span.AddEvent("response.body", trace.WithAttributes(
			attribute.String("http.response_body", traced(raw))))
	}

	out := &Response{Response: resp, body: raw}
	if r.result != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, r.result); err != nil {
			span.RecordError(err)
		} else {
			out.decoded = r.result
		}
	}

	if r.onResponse != nil {
		if err := r.onResponse(resp.StatusCode, raw); err != nil {
			span.SetStatus(codes.Error, err.Error())
			r.count(ctx, false)
			return out, err
		}
	}
	r.count(ctx, !out.IsError())
	return out, nil
}

func (r *request) encodeBody() ([]byte, error) {
	switch b := r.body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		if _, ok := r.headers["Content-Type"]; !ok {
			r.headers["Content-Type"] = "application/json"
		}
		return data, nil
	}
}

func (r *request) url(path string) string {
	u := path
	if base := r.client.opts.baseURL; base != "" && !strings.HasPrefix(path, "http") {
		u = strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
	}
	if len(r.query) == 0 {
		return u
	}
	q := url.Values{}
	for k, v := range r.query {
		q.Set(k, v)
	}
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + q.Encode()
}

func (r *request) fail(ctx context.Context, span trace.Span, err error) {
	span.RecordError(err)
	if errors.Is(err, context.Canceled) {
		span.SetAttributes(attribute.Bool("context.cancelled", true))
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		span.SetAttributes(attribute.Bool("request.timeout", true))
	}
	span.SetStatus(codes.Error, err.Error())
	r.count(ctx, false)
}

func (r *request) count(ctx context.Context, success bool) {
	attrs := make([]attribute.KeyValue, 0, 2+len(r.labels))
	attrs = append(attrs,
		attribute.String("provider", r.client.opts.provider),
		attribute.Bool("success", success))
	for _, l := range r.labels {
		attrs = append(attrs, attribute.String(l.Key, l.Value))
	}
	r.client.requests.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func traced(b []byte) string {
	if len(b) > maxTracedBody {
		return string(b[:maxTracedBody]) + "...(truncated)"
	}
	return string(b)
}
