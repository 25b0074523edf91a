package sources

// HTTP transport for price pages.
// Requests pass a rate limiter, a circuit breaker and the shared retry module,
// and carry browser-like headers since the price pages are public HTML.

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"price-tracker/internal/infra/log"
	"price-tracker/internal/infra/retry"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type HTTPOptions struct {
	Timeout         time.Duration
	MaxRetries      int
	MaxResponseSize int64
	RateLimit       float64 // requests per second, 0 disables limiting
}

// HTTPClient fetches page bodies.
type HTTPClient struct {
	httpClient      *http.Client
	rateLimiter     *rate.Limiter
	circuitBreaker  *gobreaker.CircuitBreaker
	retry           retry.Options
	maxResponseSize int64
}

func NewHTTPClient(opts HTTPOptions) *HTTPClient {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.MaxResponseSize <= 0 {
		opts.MaxResponseSize = 5 * 1024 * 1024
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	retryOpts := retry.DefaultOptions
	retryOpts.MaxRetries = opts.MaxRetries

	return &HTTPClient{
		httpClient: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				Proxy:           http.ProxyFromEnvironment,
				MaxIdleConns:    4,
				IdleConnTimeout: 90 * time.Second,
			},
		},
		rateLimiter: limiter,
		circuitBreaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "PriceSources",
			MaxRequests: 1,
			Interval:    10 * time.Minute,
			Timeout:     5 * time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
		retry:           retryOpts,
		maxResponseSize: opts.MaxResponseSize,
	}
}

// Get returns the body of a 2xx response for url.
func (c *HTTPClient) Get(ctx context.Context, url string) ([]byte, error) {
	body, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		var respBody []byte
		err := retry.Do(ctx, c.retry, func() error {
			b, err := c.doGET(ctx, url)
			if err != nil {
				return err
			}
			respBody = b
			return nil
		})
		return respBody, err
	})
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	return body.([]byte), nil
}

func (c *HTTPClient) doGET(ctx context.Context, url string) ([]byte, error) {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}
	}

	requestID := log.GenerateRequestID()
	startTime := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	setBrowserHeaders(req)

	log.LogRequest(requestID, req.Method, url)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.LogResponse(requestID, 0, time.Since(startTime).Milliseconds(), zap.String("url", url), zap.Error(err))
		return nil, fmt.Errorf("failed to perform request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseSize))
	duration := time.Since(startTime).Milliseconds()
	if err != nil {
		log.LogResponse(requestID, resp.StatusCode, duration, zap.String("url", url), zap.Error(err))
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	log.LogResponse(requestID, resp.StatusCode, duration, zap.String("url", url), zap.Int("bytes", len(body)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &retry.HTTPError{
			StatusCode: resp.StatusCode,
			Body:       body,
			RetryAfter: retry.ParseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}
	return body, nil
}

func setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
}
