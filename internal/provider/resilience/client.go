package resilience

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned when the provider's circuit breaker rejects
// the request without attempting it.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// ClientConfig holds configuration for a resilient HTTP client.
type ClientConfig struct {
	// Name identifies the provider behind this client.
	Name string

	// Timeout bounds each individual HTTP attempt (default: 10 seconds).
	Timeout time.Duration

	// MaxRetries is how many times a failed attempt is retried
	// (default: 3).
	MaxRetries uint64

	// InitialInterval is the first retry backoff delay (default: 100ms).
	InitialInterval time.Duration

	// MaxInterval caps the retry backoff delay (default: 5 seconds).
	MaxInterval time.Duration

	// Breaker overrides the circuit breaker tuning. Nil means
	// DefaultBreakerConfig(Name).
	Breaker *BreakerConfig

	// Registry, when set, tracks this client's health. The client
	// registers itself and records outcomes automatically.
	Registry *Registry

	// Logger for breaker transitions and retry noise.
	Logger zerolog.Logger
}

// DefaultClientConfig returns the standard client tuning for a provider.
func DefaultClientConfig(name string) ClientConfig {
	breaker := DefaultBreakerConfig(name)
	return ClientConfig{
		Name:            name,
		Timeout:         10 * time.Second,
		MaxRetries:      3,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Breaker:         &breaker,
	}
}

// Client is an HTTP client that retries transient failures with exponential
// backoff and stops calling a provider whose circuit breaker is open.
type Client struct {
	name       string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	registry   *Registry
	config     ClientConfig
}

// NewClient creates a resilient HTTP client. When cfg.Registry is set the
// client appears in health reports immediately.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 100 * time.Millisecond
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = 5 * time.Second
	}

	breakerCfg := cfg.Breaker
	if breakerCfg == nil {
		b := DefaultBreakerConfig(cfg.Name)
		b.Logger = cfg.Logger
		breakerCfg = &b
	}

	c := &Client{
		name: cfg.Name,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		breaker:  NewBreaker[*http.Response](*breakerCfg), //nolint:bodyclose // type param, not a response
		registry: cfg.Registry,
		config:   cfg,
	}

	if c.registry != nil {
		c.registry.register(cfg.Name, c)
	}

	return c
}

// Do executes the request with retries and circuit breaking. Responses with
// 5xx status count as failures: they trip the breaker and are retried. A 5xx
// response that survives all retries is returned to the caller, who owns
// status handling. The caller closes the response body.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.config.InitialInterval
	bo.MaxInterval = c.config.MaxInterval
	bo.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.config.MaxRetries), ctx)

	var lastResp *http.Response

	attempt := func() error {
		resp, err := c.breaker.Execute(func() (*http.Response, error) { //nolint:bodyclose // caller closes
			r, err := c.httpClient.Do(req.Clone(ctx))
			if err != nil {
				return nil, err
			}
			if r.StatusCode >= 500 {
				return r, &ServerError{StatusCode: r.StatusCode}
			}
			return r, nil
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(ErrCircuitOpen)
			}
			if resp != nil {
				lastResp = resp
			}
			return err
		}
		lastResp = resp
		return nil
	}

	err := backoff.Retry(attempt, policy)
	if err != nil {
		c.recordFailure(err)
		if lastResp != nil {
			return lastResp, nil
		}
		return nil, err
	}

	c.recordSuccess()
	return lastResp, nil
}

func (c *Client) recordSuccess() {
	if c.registry != nil {
		c.registry.recordSuccess(c.name)
	}
}

func (c *Client) recordFailure(err error) {
	if c.registry != nil {
		c.registry.recordFailure(c.name, err)
	}
}

// BreakerState returns the circuit breaker's current state.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// BreakerCounts returns the circuit breaker's request statistics.
func (c *Client) BreakerCounts() gobreaker.Counts {
	return c.breaker.Counts()
}

// ServerError marks an HTTP 5xx response as a retryable failure.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}
