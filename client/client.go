// Package client is the HTTP client for the MinuteMe REST API.
// One Client is built per process with a fixed base URL. Every call issues a
// single request: no retries, no backoff. Deadlines and cancellation come from
// the caller's context.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/otherjamesbrown/minuteme-cli/config"
	mmerrors "github.com/otherjamesbrown/minuteme-cli/pkg/errors"
	"github.com/otherjamesbrown/minuteme-cli/pkg/logging"
)

const (
	// TracerName is the OpenTelemetry tracer used for API requests.
	TracerName = "minuteme.client"

	// HeaderRequestID carries the per-request correlation id.
	HeaderRequestID = "X-Request-ID"

	maxErrorBody = 64 << 10
)

// TokenGetter returns the current session token. An empty token means unauthenticated.
type TokenGetter func(ctx context.Context) (string, error)

// RequestInterceptor mutates an outgoing request. A returned error aborts the request.
type RequestInterceptor func(ctx context.Context, req *http.Request) error

// Client sends requests to the MinuteMe API.
type Client struct {
	baseURL      *url.URL
	httpClient   *http.Client
	interceptors []RequestInterceptor
	logger       logging.Logger
	metrics      *Metrics
	tracer       trace.Tracer
	userAgent    string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithInterceptor appends a request interceptor. Interceptors run in the order added.
func WithInterceptor(i RequestInterceptor) Option {
	return func(c *Client) { c.interceptors = append(c.interceptors, i) }
}

// WithTokenGetter installs BearerAuth for the getter. It logs through the
// client's logger at request time, whatever the option order.
func WithTokenGetter(getter TokenGetter) Option {
	return func(c *Client) {
		c.interceptors = append(c.interceptors, func(ctx context.Context, req *http.Request) error {
			return BearerAuth(getter, c.logger)(ctx, req)
		})
	}
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMetrics records request counts and latency.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New creates a Client for baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base URL %q must use http or https", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{},
		logger:     logging.NewNopLogger(),
		tracer:     otel.Tracer(TracerName),
		userAgent:  "minuteme-cli",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewFromConfig builds a Client from CLI configuration.
func NewFromConfig(cfg *config.CLIConfig, opts ...Option) (*Client, error) {
	hc, err := NewHTTPClient(&cfg.TLS, cfg.Insecure)
	if err != nil {
		return nil, err
	}
	return New(cfg.APIBaseURL, append([]Option{WithHTTPClient(hc)}, opts...)...)
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// BearerAuth sets Authorization from getter. Getter failures are logged and
// the request continues without the header.
func BearerAuth(getter TokenGetter, logger logging.Logger) RequestInterceptor {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return func(ctx context.Context, req *http.Request) error {
		token, err := getter(ctx)
		if err != nil {
			logger.WithContext(ctx).Warn("token lookup failed, sending request unauthenticated",
				logging.F("path", req.URL.Path), logging.Err(err))
			return nil
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		return nil
	}
}

// Get issues GET path and decodes the response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post issues POST path with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Patch issues PATCH path with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPatch, path, body, out)
}

// Delete issues DELETE path.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out)
}

// Do sends one request. A nil out discards the response body.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	route := RouteTemplate(path)

	ctx, span := c.tracer.Start(ctx, method+" "+route, trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("http.route", route),
		))
	defer span.End()

	requestID := logging.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
		ctx = logging.ContextWithRequestID(ctx, requestID)
	}
	log := c.logger.WithContext(ctx)

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	req.Header.Set(HeaderRequestID, requestID)

	for _, intercept := range c.interceptors {
		if err := intercept(ctx, req); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("%s %s: %w", method, path, err)
		}
	}

	start := time.Now()
	c.metrics.inFlight(1)
	resp, err := c.httpClient.Do(req)
	c.metrics.inFlight(-1)
	elapsed := time.Since(start)

	if err != nil {
		c.metrics.observe(method, route, "error", elapsed)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Debug("request failed", logging.F("method", method), logging.F("path", path), logging.Err(err))
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.metrics.observe(method, route, fmt.Sprint(resp.StatusCode), elapsed)
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	log.Debug("request completed",
		logging.F("method", method),
		logging.F("path", path),
		logging.F("status", resp.StatusCode),
		logging.F("elapsed", elapsed))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := newAPIError(method, path, resp.StatusCode, data)
		apiErr.RequestID = requestID
		span.SetStatus(codes.Error, apiErr.Error())
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: reading response: %w", method, path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("%s %s: empty body: %w", method, path, mmerrors.ErrMalformedResponse)
	}
	if err := json.Unmarshal(data, out); err != nil {
		span.SetStatus(codes.Error, "decode")
		return fmt.Errorf("%s %s: decoding response: %v: %w", method, path, err, mmerrors.ErrMalformedResponse)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("parsing path %q: %w", path, err)
	}
	target := *c.baseURL
	target.Path = c.baseURL.Path + "/" + strings.TrimLeft(ref.Path, "/")
	target.RawPath = c.baseURL.EscapedPath() + "/" + strings.TrimLeft(ref.EscapedPath(), "/")
	target.RawQuery = ref.RawQuery

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	return req, nil
}

// RouteTemplate collapses id-like path segments to {id} for metric and span labels.
func RouteTemplate(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, seg := range segments {
		if looksLikeID(seg) {
			segments[i] = "{id}"
		}
	}
	return "/" + strings.Join(segments, "/")
}

func looksLikeID(seg string) bool {
	if len(seg) >= 20 && !strings.Contains(seg, "-") {
		return true
	}
	for _, r := range seg {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func escape(id string) string {
	return url.PathEscape(id)
}
