package resilience

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/petasbytes/course-rag/internal/runner"
)

// ClientConfig configures NewClient.
type ClientConfig struct {
	Name         string // breaker and metrics label, usually the provider
	Retry        RetryConfig
	MaxFailures  int
	ResetTimeout time.Duration
	Logger       zerolog.Logger
}

// Client decorates a runner.ModelClient with retries and a circuit breaker.
// Each Create counts as one breaker result, however many attempts it took.
type Client struct {
	inner   runner.ModelClient
	retry   RetryConfig
	breaker *CircuitBreaker
	name    string
	logger  zerolog.Logger
}

func NewClient(inner runner.ModelClient, cfg ClientConfig) *Client {
	if cfg.Name == "" {
		cfg.Name = "model"
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	return &Client{
		inner:   inner,
		retry:   cfg.Retry,
		breaker: NewCircuitBreaker(cfg.Name, cfg.MaxFailures, cfg.ResetTimeout),
		name:    cfg.Name,
		logger:  cfg.Logger,
	}
}

// Breaker exposes the underlying breaker for health reporting.
func (c *Client) Breaker() *CircuitBreaker { return c.breaker }

func (c *Client) Create(ctx context.Context, req *runner.Request) (*runner.Response, error) {
	if !c.breaker.allowRequest() {
		return nil, &runner.ModelUnavailableError{Provider: c.name, StatusCode: 503, Err: ErrCircuitOpen}
	}

	var resp *runner.Response
	attempt := 0
	err := Retry(ctx, c.retry, IsRetryableModelError, func(ctx context.Context) error {
		attempt++
		r, err := c.inner.Create(ctx, req)
		if err != nil {
			if attempt < c.retry.MaxAttempts && IsRetryableModelError(err) {
				c.logger.Warn().Err(err).Int("attempt", attempt).Str("service", c.name).Msg("Model call failed, retrying")
			}
			return err
		}
		resp = r
		return nil
	})
	// Client errors and cancellation say nothing about provider health.
	c.breaker.RecordResult(err == nil || !IsRetryableModelError(err))
	if err != nil {
		return nil, err
	}
	return resp, nil
}
