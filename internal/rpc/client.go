package rpc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"wave-portal/internal/metrics"

	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Client provides a standardized JSON-RPC client with rate limiting, retries,
// and structured logging on top of the go-ethereum transport.
type Client struct {
	Endpoint    string
	RateLimiter *rate.Limiter
	MaxRetries  int
	RetryDelay  time.Duration
	Logger      *zerolog.Logger

	raw *gethrpc.Client
}

// Options configures Dial.
type Options struct {
	ApiKey      string
	RateLimit   float64
	MaxRetries  int
	RetryDelay  time.Duration
	HTTPTimeout time.Duration
}

// Dial connects to endpoint. HTTP endpoints get a client carrying the API key
// through CustomTransport; websocket endpoints get it as a header.
func Dial(ctx context.Context, endpoint string, opts Options, logger *zerolog.Logger) (*Client, error) {
	var dialOpts []gethrpc.ClientOption
	if isHTTP(endpoint) {
		dialOpts = append(dialOpts, gethrpc.WithHTTPClient(&http.Client{
			Timeout: opts.HTTPTimeout,
			Transport: &CustomTransport{
				Base:   http.DefaultTransport,
				ApiKey: opts.ApiKey,
			},
		}))
	} else if opts.ApiKey != "" {
		dialOpts = append(dialOpts, gethrpc.WithHeader("Authorization", "Bearer "+opts.ApiKey))
	}

	raw, err := gethrpc.DialOptions(ctx, endpoint, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create RPC client: %w", err)
	}

	return NewClient(raw, endpoint, opts, logger), nil
}

// NewClient wraps an already connected go-ethereum client.
func NewClient(raw *gethrpc.Client, endpoint string, opts Options, logger *zerolog.Logger) *Client {
	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	maxRetries := opts.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Client{
		Endpoint:    endpoint,
		RateLimiter: rate.NewLimiter(limit, 1),
		MaxRetries:  maxRetries,
		RetryDelay:  opts.RetryDelay,
		Logger:      logger,
		raw:         raw,
	}
}

// CustomTransport adds API key authentication to HTTP requests
type CustomTransport struct {
	Base   http.RoundTripper
	ApiKey string
}

func (t *CustomTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("Content-Type", "application/json")
	if t.ApiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.ApiKey)
	}
	return t.Base.RoundTrip(req)
}

// Call performs an RPC call with rate limiting, retries, and error handling.
// Errors returned by the remote side (JSON-RPC error objects) are final and
// never retried: a wallet rejection must not be asked again.
func (c *Client) Call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	c.Logger.Debug().
		Str("endpoint", c.Endpoint).
		Str("method", method).
		Interface("params", args).
		Msg("Making RPC call")

	if err := c.RateLimiter.Wait(ctx); err != nil {
		c.Logger.Error().Err(err).Msg("Rate limit error")
		return fmt.Errorf("rate limit error: %w", err)
	}

	start := time.Now()
	err := c.retry(ctx, func() error {
		metrics.RPCCallsTotal.WithLabelValues(method).Inc()
		return c.raw.CallContext(ctx, result, method, args...)
	})
	metrics.RPCLatency.WithLabelValues(method).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.RPCErrorsTotal.WithLabelValues(method).Inc()
		c.Logger.Error().
			Err(err).
			Str("method", method).
			Interface("params", args).
			Msg("RPC call failed")
		return err
	}

	return nil
}

// retry executes a function with retry logic
func (c *Client) retry(ctx context.Context, fn func() error) error {
	var err error
	for i := 0; i < c.MaxRetries; i++ {
		if err = fn(); err == nil || IsRemoteError(err) {
			return err
		}
		if i == c.MaxRetries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(c.RetryDelay):
		}
	}
	return err
}

// Raw exposes the underlying go-ethereum client, e.g. for ethclient.
func (c *Client) Raw() *gethrpc.Client {
	return c.raw
}

// Close closes the underlying connections
func (c *Client) Close() {
	if c.raw != nil {
		c.raw.Close()
	}
}

// IsRemoteError reports whether err is a JSON-RPC error object returned by the
// remote side rather than a transport failure.
func IsRemoteError(err error) bool {
	var rpcErr gethrpc.Error
	return errors.As(err, &rpcErr)
}

func isHTTP(endpoint string) bool {
	return strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://")
}
