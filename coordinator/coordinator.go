// Package coordinator polls a data source on an interval and shares each result with every interested entity.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"golang.org/x/sync/singleflight"

	"github.com/govje/govje-weather/log"
)

const (
	DefaultInterval = 10 * time.Minute
	MinInterval     = 5 * time.Minute
	MaxInterval     = 1440 * time.Minute

	// DefaultTimeout bounds a scheduled refresh, retries included.
	DefaultTimeout = 2 * time.Minute
)

var (
	// ErrIntervalOutOfRange is returned for update intervals outside MinInterval and MaxInterval.
	ErrIntervalOutOfRange = fmt.Errorf("update interval must be between %s and %s", MinInterval, MaxInterval)
	// ErrNotReady wraps the error of a failed FirstRefresh.
	ErrNotReady = errors.New("first refresh failed")
	// ErrAlreadyStarted is returned by Start when the coordinator is already polling.
	ErrAlreadyStarted = errors.New("coordinator already started")
)

// FetchFunc loads a fresh copy of the data.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Coordinator runs a FetchFunc on a fixed interval. Concurrent refreshes share one fetch, and every listener is told
// about each completed refresh, successful or not. A failed refresh keeps the previous data.
type Coordinator[T any] struct {
	name    string
	fetch   FetchFunc[T]
	timeout time.Duration

	group singleflight.Group

	schedMu   sync.Mutex
	scheduler *gocron.Scheduler
	job       *gocron.Job
	interval  time.Duration

	mu         sync.RWMutex
	data       T
	hasData    bool
	success    bool
	lastErr    error
	lastUpdate time.Time

	listenersMu  sync.Mutex
	listeners    map[int]func()
	nextListener int

	log *slog.Logger
}

// New builds a Coordinator named name that calls fetch every interval once started.
func New[T any](name string, fetch FetchFunc[T], interval time.Duration) (*Coordinator[T], error) {
	if err := ValidateInterval(interval); err != nil {
		return nil, err
	}

	return &Coordinator[T]{
		name:      name,
		fetch:     fetch,
		timeout:   DefaultTimeout,
		scheduler: gocron.NewScheduler(time.UTC),
		interval:  interval,
		listeners: map[int]func(){},

		log: log.ForComponent("coordinator").With(slog.String("name", name)),
	}, nil
}

// ValidateInterval reports ErrIntervalOutOfRange for d outside MinInterval and MaxInterval.
func ValidateInterval(d time.Duration) error {
	if d < MinInterval || d > MaxInterval {
		return fmt.Errorf("%w: got %s", ErrIntervalOutOfRange, d)
	}

	return nil
}

// FirstRefresh performs the initial fetch. Its error wraps ErrNotReady, and callers are expected to give up (or try
// again later) rather than publish entities without data.
func (c *Coordinator[T]) FirstRefresh(ctx context.Context) error {
	if err := c.Refresh(ctx); err != nil {
		return fmt.Errorf("%s: %w: %w", c.name, ErrNotReady, err)
	}

	return nil
}

// Start schedules periodic refreshes. The first scheduled refresh runs one interval from now.
func (c *Coordinator[T]) Start() error {
	c.schedMu.Lock()
	defer c.schedMu.Unlock()

	if c.job != nil {
		return ErrAlreadyStarted
	}

	if err := c.schedule(c.interval); err != nil {
		return err
	}

	c.scheduler.StartAsync()
	c.log.Info("Polling", slog.Duration("interval", c.interval))
	return nil
}

// Stop cancels future refreshes. A refresh in progress is allowed to finish.
func (c *Coordinator[T]) Stop() {
	c.schedMu.Lock()
	defer c.schedMu.Unlock()

	c.scheduler.Stop()
	c.job = nil
}

// schedule replaces the polling job. The caller holds schedMu.
func (c *Coordinator[T]) schedule(d time.Duration) error {
	if c.job != nil {
		c.scheduler.RemoveByReference(c.job)
		c.job = nil
	}

	job, err := c.scheduler.Every(d).WaitForSchedule().SingletonMode().Do(c.scheduled)
	if err != nil {
		return fmt.Errorf("schedule %s: %w", c.name, err)
	}

	c.job = job
	return nil
}

func (c *Coordinator[T]) scheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	if err := c.Refresh(ctx); err != nil {
		c.log.Warn("Scheduled refresh failed", log.Error(err))
	}
}

// Interval returns the current update interval.
func (c *Coordinator[T]) Interval() time.Duration {
	c.schedMu.Lock()
	defer c.schedMu.Unlock()

	return c.interval
}

// SetInterval changes the update interval. If polling has started the next refresh is rescheduled d from now.
func (c *Coordinator[T]) SetInterval(d time.Duration) error {
	if err := ValidateInterval(d); err != nil {
		return err
	}

	c.schedMu.Lock()
	defer c.schedMu.Unlock()

	if d == c.interval {
		return nil
	}

	if c.job != nil {
		if err := c.schedule(d); err != nil {
			return err
		}
	}

	c.log.Info("Updated interval", slog.Duration("from", c.interval), slog.Duration("to", d))
	c.interval = d
	return nil
}

// Refresh fetches new data and notifies the listeners. Callers arriving while a fetch is running wait for that fetch
// instead of starting another one. The fetch itself is not canceled when ctx is, since other callers may be waiting
// on it; only this caller stops waiting.
func (c *Coordinator[T]) Refresh(ctx context.Context) error {
	ch := c.group.DoChan(c.name, func() (any, error) {
		return nil, c.refresh(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		return res.Err
	}
}

func (c *Coordinator[T]) refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	data, err := c.fetch(ctx)

	c.mu.Lock()
	if err != nil {
		c.success, c.lastErr = false, err
	} else {
		c.data, c.hasData, c.success, c.lastErr = data, true, true, nil
	}
	c.lastUpdate = time.Now()
	c.mu.Unlock()

	if err != nil {
		c.log.Error("Error fetching data", log.Error(err))
	} else {
		c.log.Debug("Fetched data", slog.Duration("took", time.Since(start)))
	}

	c.notify()
	return err
}

func (c *Coordinator[T]) notify() {
	c.listenersMu.Lock()
	fns := make([]func(), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.listenersMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// AddListener registers fn to run after every refresh. Call the returned func to remove it.
func (c *Coordinator[T]) AddListener(fn func()) (remove func()) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()

	id := c.nextListener
	c.nextListener++
	c.listeners[id] = fn

	return func() {
		c.listenersMu.Lock()
		defer c.listenersMu.Unlock()

		delete(c.listeners, id)
	}
}

// Data returns the data of the last successful refresh. The second return value is false until there is one.
func (c *Coordinator[T]) Data() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.data, c.hasData
}

// LastUpdateSuccess reports whether the most recent refresh succeeded.
func (c *Coordinator[T]) LastUpdateSuccess() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.success
}

// LastError returns the error of the most recent refresh, or nil if it succeeded.
func (c *Coordinator[T]) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.lastErr
}

// LastUpdate returns when the most recent refresh finished.
func (c *Coordinator[T]) LastUpdate() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.lastUpdate
}
