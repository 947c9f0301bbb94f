package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// Client is the bounded outbound fetch primitive: body text or failure
// within the configured timeout. Retries with backoff and redirect
// following come from resty; each upstream host gets its own circuit
// breaker so one dead site cannot burn retry budget for the others, and a
// token bucket caps the total outbound request rate.
type Client struct {
	rest    *resty.Client
	limiter *rate.Limiter

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// NewClient creates a Client with the given per-request timeout.
func NewClient(timeout time.Duration) *Client {
	rest := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5)).
		SetHeader("User-Agent", browserUserAgent).
		SetHeader("Accept-Language", "ru-RU,ru;q=0.9,en-US;q=0.8,en;q=0.7")

	return &Client{
		rest:     rest,
		limiter:  rate.NewLimiter(rate.Limit(10), 20),
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// Text fetches the URL and returns the response body as text.
func (c *Client) Text(ctx context.Context, rawURL string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait canceled: %w", err)
	}

	cb, err := c.breaker(rawURL)
	if err != nil {
		return "", err
	}

	result, err := cb.Execute(func() (interface{}, error) {
		resp, err := c.rest.R().SetContext(ctx).Get(rawURL)
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode(), rawURL)
		}
		return resp.String(), nil
	})
	if err != nil {
		return "", err
	}

	body, ok := result.(string)
	if !ok {
		return "", fmt.Errorf("unexpected result type from circuit breaker")
	}
	return body, nil
}

// JSON fetches the URL and decodes the response body into v.
func (c *Client) JSON(ctx context.Context, rawURL string, v any) error {
	body, err := c.Text(ctx, rawURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return nil
}

func (c *Client) breaker(rawURL string) (*gobreaker.CircuitBreaker, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	host := u.Hostname()

	c.mu.Lock()
	defer c.mu.Unlock()

	cb, ok := c.breakers[host]
	if !ok {
		cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        host,
			MaxRequests: 5,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
		})
		c.breakers[host] = cb
	}
	return cb, nil
}
