package coordinator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

type source struct {
	calls atomic.Int32

	mu    sync.Mutex
	value int
	err   error
	gate  chan struct{}
}

func (s *source) fetch(ctx context.Context) (int, error) {
	s.calls.Add(1)

	s.mu.Lock()
	gate, value, err := s.gate, s.value, s.err
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}

	return value, err
}

func (s *source) set(value int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.value, s.err = value, err
}

func newCoordinator(t *testing.T, src *source) *Coordinator[int] {
	t.Helper()

	c, err := New("test", src.fetch, DefaultInterval)
	require.NoError(t, err)
	t.Cleanup(c.Stop)

	return c
}

func TestNew(t *testing.T) {
	for _, d := range []time.Duration{0, time.Minute, 4*time.Minute + 59*time.Second, 1441 * time.Minute} {
		_, err := New("test", (&source{}).fetch, d)
		require.ErrorIs(t, err, ErrIntervalOutOfRange, d.String())
	}

	for _, d := range []time.Duration{MinInterval, DefaultInterval, MaxInterval} {
		_, err := New("test", (&source{}).fetch, d)
		require.NoError(t, err, d.String())
	}
}

func TestFirstRefresh(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		src := &source{value: 42}
		sut := newCoordinator(t, src)

		_, ok := sut.Data()
		require.False(t, ok)

		require.NoError(t, sut.FirstRefresh(t.Context()))

		v, ok := sut.Data()
		require.True(t, ok)
		assert.Equal(t, 42, v)
		assert.True(t, sut.LastUpdateSuccess())
		assert.NoError(t, sut.LastError())
		assert.False(t, sut.LastUpdate().IsZero())
	})

	t.Run("Failure", func(t *testing.T) {
		sut := newCoordinator(t, &source{err: errBoom})

		err := sut.FirstRefresh(t.Context())
		require.ErrorIs(t, err, ErrNotReady)
		require.ErrorIs(t, err, errBoom)
		assert.False(t, sut.LastUpdateSuccess())
	})
}

func TestRefresh(t *testing.T) {
	t.Run("Failure keeps data", func(t *testing.T) {
		src := &source{value: 1}
		sut := newCoordinator(t, src)
		require.NoError(t, sut.Refresh(t.Context()))

		src.set(2, errBoom)
		require.ErrorIs(t, sut.Refresh(t.Context()), errBoom)

		v, ok := sut.Data()
		require.True(t, ok)
		assert.Equal(t, 1, v)
		assert.False(t, sut.LastUpdateSuccess())
		assert.ErrorIs(t, sut.LastError(), errBoom)

		src.set(3, nil)
		require.NoError(t, sut.Refresh(t.Context()))
		v, _ = sut.Data()
		assert.Equal(t, 3, v)
		assert.True(t, sut.LastUpdateSuccess())
		assert.NoError(t, sut.LastError())
	})

	t.Run("Concurrent callers share a fetch", func(t *testing.T) {
		src := &source{value: 7, gate: make(chan struct{})}
		sut := newCoordinator(t, src)

		var notified atomic.Int32
		sut.AddListener(func() { notified.Add(1) })

		var wg sync.WaitGroup
		errs := make(chan error, 5)
		for range 5 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- sut.Refresh(t.Context())
			}()
		}

		require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, time.Millisecond)
		time.Sleep(50 * time.Millisecond)
		close(src.gate)
		wg.Wait()
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}

		assert.EqualValues(t, 1, src.calls.Load())
		assert.EqualValues(t, 1, notified.Load())
	})

	t.Run("Caller gives up", func(t *testing.T) {
		src := &source{value: 7, gate: make(chan struct{})}
		sut := newCoordinator(t, src)

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		require.ErrorIs(t, sut.Refresh(ctx), context.Canceled)
		close(src.gate)
	})
}

func TestListeners(t *testing.T) {
	src := &source{value: 1}
	sut := newCoordinator(t, src)

	var a, b atomic.Int32
	removeA := sut.AddListener(func() { a.Add(1) })
	sut.AddListener(func() { b.Add(1) })

	require.NoError(t, sut.Refresh(t.Context()))

	src.set(0, errBoom)
	require.Error(t, sut.Refresh(t.Context()))

	removeA()
	src.set(2, nil)
	require.NoError(t, sut.Refresh(t.Context()))

	assert.EqualValues(t, 2, a.Load())
	assert.EqualValues(t, 3, b.Load())
}

func TestSetInterval(t *testing.T) {
	sut := newCoordinator(t, &source{})

	require.ErrorIs(t, sut.SetInterval(time.Minute), ErrIntervalOutOfRange)
	require.ErrorIs(t, sut.SetInterval(25*time.Hour), ErrIntervalOutOfRange)
	assert.Equal(t, DefaultInterval, sut.Interval())

	require.NoError(t, sut.SetInterval(30*time.Minute))
	assert.Equal(t, 30*time.Minute, sut.Interval())

	require.NoError(t, sut.Start())
	require.ErrorIs(t, sut.Start(), ErrAlreadyStarted)

	require.NoError(t, sut.SetInterval(MaxInterval))
	assert.Equal(t, MaxInterval, sut.Interval())
	assert.Len(t, sut.scheduler.Jobs(), 1)
}

func TestScheduledRefresh(t *testing.T) {
	src := &source{value: 5}
	sut := newCoordinator(t, src)

	var notified atomic.Int32
	sut.AddListener(func() { notified.Add(1) })

	sut.schedMu.Lock()
	require.NoError(t, sut.schedule(20*time.Millisecond))
	sut.schedMu.Unlock()
	sut.scheduler.StartAsync()

	require.Eventually(t, func() bool { return notified.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)

	v, ok := sut.Data()
	require.True(t, ok)
	assert.Equal(t, 5, v)
}
