// Package gateway carries form requests to the Robokassa endpoints and turns
// their JSON or XML answers into Go values.
package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"robokassa/internal/logger"
)

const DefaultBaseURL = "https://auth.robokassa.ru/Merchant/"

// Request is a form POST to a path relative to the transport base URL.
type Request struct {
	Path string
	Form url.Values
}

// Response is a fully read gateway answer.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport sends a request and returns the read body.
// Implementations must be safe for concurrent use.
type Transport interface {
	Do(ctx context.Context, req Request) (*Response, error)
}

// HTTPTransport is the net/http Transport. Zero options give a plain
// single-attempt client with no rate limit.
type HTTPTransport struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	attempts   uint
	retryDelay time.Duration
	metrics    *Metrics
	logger     *zap.Logger
}

type Option func(*HTTPTransport)

func WithBaseURL(baseURL string) Option {
	return func(t *HTTPTransport) {
		if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
			t.baseURL = strings.TrimRight(baseURL, "/") + "/"
		}
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(t *HTTPTransport) {
		if c != nil {
			t.httpClient = c
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(t *HTTPTransport) { t.httpClient.Timeout = d }
}

// WithRateLimit caps outbound requests per second. rps <= 0 disables it.
func WithRateLimit(rps float64, burst int) Option {
	return func(t *HTTPTransport) {
		if rps <= 0 {
			t.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		t.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetry retries network failures only. Gateway answers, including
// error statuses, are never retried.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(t *HTTPTransport) {
		if attempts < 1 {
			attempts = 1
		}
		t.attempts = attempts
		t.retryDelay = delay
	}
}

func WithMetrics(m *Metrics) Option {
	return func(t *HTTPTransport) { t.metrics = m }
}

func WithLogger(l *zap.Logger) Option {
	return func(t *HTTPTransport) { t.logger = l }
}

func NewHTTPTransport(opts ...Option) *HTTPTransport {
	t := &HTTPTransport{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		attempts:   1,
		retryDelay: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// BaseURL returns the URL every request path is resolved against.
func (t *HTTPTransport) BaseURL() string { return t.baseURL }

func (t *HTTPTransport) Do(ctx context.Context, req Request) (*Response, error) {
	ctx, _ = logger.EnsureRequestID(ctx)
	log := logger.With(ctx, t.logger).With(zap.String("path", req.Path))

	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	endpoint := t.baseURL + strings.TrimLeft(req.Path, "/")
	start := time.Now()

	var resp *Response
	err := retry.Do(
		func() error {
			r, err := t.doOnce(ctx, endpoint, req.Form)
			if err != nil {
				return err
			}
			resp = r
			return nil
		},
		retry.Attempts(t.attempts),
		retry.Delay(t.retryDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			if n+1 >= t.attempts {
				return
			}
			log.Warn("Robokassa request failed, retrying", zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	if err != nil {
		t.metrics.observe(req.Path, "error", time.Since(start))
		log.Error("Robokassa request failed", zap.Error(err))
		return nil, fmt.Errorf("robokassa request %s: %w", req.Path, err)
	}

	t.metrics.observe(req.Path, strconv.Itoa(resp.StatusCode), time.Since(start))
	log.Debug("Robokassa responded",
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)
	return resp, nil
}

func (t *HTTPTransport) doOnce(ctx context.Context, endpoint string, form url.Values) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if reqID := logger.RequestIDFrom(ctx); reqID != "" {
		httpReq.Header.Set(logger.RequestIDHeader, reqID)
	}

	httpResp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
	}, nil
}
