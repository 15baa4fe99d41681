package forecast

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/govje/govje-weather/log"
)

// DefaultURL is where the Government of Jersey publishes the forecast.
const DefaultURL = "https://prodgojweatherstorage.blob.core.windows.net/data/jerseyForecast.json"

// maxBodySize bounds the feed, which is a few kilobytes in practice.
const maxBodySize = 4 << 20

var (
	// ErrUnexpectedStatus is returned by Client.Fetch for responses other than 200 OK.
	ErrUnexpectedStatus = errors.New("unexpected status code")
	// ErrCircuitOpen is returned by Client.Fetch while the circuit breaker rejects requests.
	ErrCircuitOpen = errors.New("circuit breaker open")
)

// breakerTrips is the number of consecutive failed requests that opens the circuit breaker. Failures are counted
// across fetches, so a dead feed opens the breaker on the second refresh.
const breakerTrips = 6

// retryable marks an error worth another attempt. It leaves the message untouched.
type retryable struct {
	err error
}

func (e *retryable) Error() string {
	return e.err.Error()
}

func (e *retryable) Unwrap() error {
	return e.err
}

func isRetryable(err error) bool {
	var r *retryable
	return errors.As(err, &r)
}

// Backoff controls the retries of a single Fetch. Delays double from InitialInterval up to MaxInterval.
type Backoff struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultBackoff is used when ClientConfig.Backoff is the zero value.
var DefaultBackoff = Backoff{
	MaxRetries:      3,
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     5 * time.Second,
}

// ClientConfig describes a Client. Zero fields take their defaults.
type ClientConfig struct {
	// URL of the feed. Defaults to DefaultURL.
	URL string
	// Timeout of each request. Defaults to 30 seconds.
	Timeout time.Duration
	Backoff Backoff

	// HTTPClient defaults to a new client with Timeout.
	HTTPClient *http.Client
}

// Client fetches the forecast feed with retries behind a circuit breaker.
type Client struct {
	url     string
	http    *http.Client
	backoff Backoff
	breaker *gobreaker.CircuitBreaker

	log *slog.Logger
}

// NewClient builds a Client for cfg.
func NewClient(cfg ClientConfig) *Client {
	l := log.ForComponent("forecast.client")

	c := &Client{
		url:     cmp.Or(cfg.URL, DefaultURL),
		http:    cfg.HTTPClient,
		backoff: cfg.Backoff,
		log:     l,
	}

	if c.http == nil {
		c.http = &http.Client{Timeout: cmp.Or(cfg.Timeout, 30*time.Second)}
	}

	if c.backoff == (Backoff{}) {
		c.backoff = DefaultBackoff
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "govje-forecast",
		MaxRequests: 1,
		// Counts are only cleared by a success.
		Interval: 0,
		Timeout:  2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerTrips
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l.Warn(
				"Circuit breaker changed state",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})

	return c
}

// URL returns the address of the feed.
func (c *Client) URL() string {
	return c.url
}

// Fetch downloads and decodes the feed. Network errors, 429 and 5xx responses are retried with exponential backoff;
// other non-200 responses fail at once with ErrUnexpectedStatus.
func (c *Client) Fetch(ctx context.Context) (*Report, error) {
	body, err := c.download(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", c.url, err)
	}

	return Decode(bytes.NewReader(body))
}

func (c *Client) download(ctx context.Context) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := c.breaker.Execute(func() (any, error) {
			return c.get(ctx)
		})
		if err == nil {
			return result.([]byte), nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %w", ErrCircuitOpen, err)
		}

		if !isRetryable(err) || attempt >= c.backoff.MaxRetries {
			return nil, err
		}

		delay := c.backoff.InitialInterval << attempt
		if c.backoff.MaxInterval > 0 && (delay > c.backoff.MaxInterval || delay <= 0) {
			delay = c.backoff.MaxInterval
		}

		c.log.Debug(
			"Retrying forecast download",
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay),
			log.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (c *Client) get(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}

		return nil, &retryable{err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, &retryable{fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &retryable{fmt.Errorf("read body: %w", err)}
	}

	return body, nil
}
