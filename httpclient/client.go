// Package httpclient wraps outbound JSON calls to third-party providers in a
// circuit breaker and an exponential backoff retry.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/user/jarvisfi-go/metrics"
)

// Options tunes a Client. Zero values take the defaults in New.
type Options struct {
	Timeout          time.Duration
	MaxAttempts      uint64
	MaxElapsed       time.Duration
	InitialInterval  time.Duration
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// Client is a named provider endpoint with its own breaker.
type Client struct {
	name    string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	opts    Options
	log     *zap.Logger
}

// New builds a Client. Defaults: 10s timeout, 3 attempts within 5s, breaker
// opens after 5 consecutive failures for 30s.
func New(name string, opts Options, log *zap.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = 3
	}
	if opts.MaxElapsed <= 0 {
		opts.MaxElapsed = 5 * time.Second
	}
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = 200 * time.Millisecond
	}
	if opts.FailureThreshold == 0 {
		opts.FailureThreshold = 5
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = 30 * time.Second
	}
	log = log.With(zap.String("provider", name))

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				zap.String("from", from.String()), zap.String("to", to.String()))
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
		},
		// Client errors say nothing about the provider's health.
		IsSuccessful: func(err error) bool {
			var se *StatusError
			if errors.As(err, &se) {
				return se.Code < http.StatusInternalServerError
			}
			return err == nil
		},
	}

	return &Client{
		name:    name,
		http:    &http.Client{Timeout: opts.Timeout},
		breaker: gobreaker.NewCircuitBreaker(settings),
		opts:    opts,
		log:     log,
	}
}

// Name is the provider name the client was built with.
func (c *Client) Name() string { return c.name }

// State reports the breaker state.
func (c *Client) State() gobreaker.State { return c.breaker.State() }

// GetJSON issues a GET and decodes the JSON response into dst.
func (c *Client) GetJSON(ctx context.Context, url string, headers map[string]string, dst interface{}) error {
	return c.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		setHeaders(req, headers)
		return req, nil
	}, dst)
}

// PostJSON sends body as JSON and decodes the JSON response into dst.
func (c *Client) PostJSON(ctx context.Context, url string, headers map[string]string, body, dst interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	return c.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		setHeaders(req, headers)
		return req, nil
	}, dst)
}

// Do runs the request built by build through the breaker with retries. dst
// may be nil, or a *[]byte to receive the raw body.
func (c *Client) Do(ctx context.Context, build func(context.Context) (*http.Request, error), dst interface{}) error {
	attempt := 0
	op := func() error {
		attempt++
		_, err := c.breaker.Execute(func() (interface{}, error) {
			return nil, c.once(ctx, build, dst)
		})
		if err == nil {
			return nil
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return backoff.Permanent(err)
		}
		var se *StatusError
		if errors.As(err, &se) && se.Code < http.StatusInternalServerError && se.Code != http.StatusTooManyRequests {
			return backoff.Permanent(err)
		}
		c.log.Debug("provider call failed", zap.Int("attempt", attempt), zap.Error(err))
		return err
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.opts.InitialInterval
	exp.MaxElapsedTime = c.opts.MaxElapsed
	policy := backoff.WithContext(backoff.WithMaxRetries(exp, c.opts.MaxAttempts-1), ctx)

	if err := backoff.Retry(op, policy); err != nil {
		return fmt.Errorf("%s: %w", c.name, err)
	}
	return nil
}

func (c *Client) once(ctx context.Context, build func(context.Context) (*http.Request, error), dst interface{}) error {
	req, err := build(ctx)
	if err != nil {
		return backoff.Permanent(err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := body
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return &StatusError{Code: resp.StatusCode, Body: string(snippet)}
	}

	switch out := dst.(type) {
	case nil:
		return nil
	case *[]byte:
		*out = body
		return nil
	default:
		if err := json.Unmarshal(body, dst); err != nil {
			return backoff.Permanent(fmt.Errorf("decode response: %w", err))
		}
		return nil
	}
}

func setHeaders(req *http.Request, headers map[string]string) {
	for k, v := range headers {
		req.Header.Set(k, v)
	}
}
