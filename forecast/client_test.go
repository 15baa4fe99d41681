package forecast

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stringsReader(s string) io.Reader {
	return strings.NewReader(s)
}

func feedServer(t *testing.T, statuses ...int) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	body, err := os.ReadFile("testdata/jerseyForecast.json")
	require.NoError(t, err)

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(hits.Add(1)) - 1

		status := http.StatusOK
		if n < len(statuses) {
			status = statuses[n]
		} else if len(statuses) > 0 && statuses[len(statuses)-1] != http.StatusOK {
			status = statuses[len(statuses)-1]
		}

		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)

	return srv, &hits
}

func testClient(url string, retries int) *Client {
	return NewClient(ClientConfig{
		URL: url,
		Backoff: Backoff{
			MaxRetries:      retries,
			InitialInterval: time.Millisecond,
			MaxInterval:     5 * time.Millisecond,
		},
	})
}

func TestClientFetch(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		srv, hits := feedServer(t)

		r, err := testClient(srv.URL, 3).Fetch(t.Context())
		require.NoError(t, err)
		assert.Len(t, r.Days, 3)
		assert.EqualValues(t, 1, hits.Load())
	})

	t.Run("Retries server errors", func(t *testing.T) {
		srv, hits := feedServer(t, http.StatusBadGateway, http.StatusTooManyRequests, http.StatusOK)

		r, err := testClient(srv.URL, 3).Fetch(t.Context())
		require.NoError(t, err)
		assert.Len(t, r.Days, 3)
		assert.EqualValues(t, 3, hits.Load())
	})

	t.Run("Gives up after retries", func(t *testing.T) {
		srv, hits := feedServer(t, http.StatusInternalServerError)

		_, err := testClient(srv.URL, 2).Fetch(t.Context())
		require.ErrorIs(t, err, ErrUnexpectedStatus)
		assert.EqualValues(t, 3, hits.Load())
	})

	t.Run("Does not retry client errors", func(t *testing.T) {
		srv, hits := feedServer(t, http.StatusNotFound)

		_, err := testClient(srv.URL, 3).Fetch(t.Context())
		require.ErrorIs(t, err, ErrUnexpectedStatus)
		assert.Contains(t, err.Error(), "404")
		assert.EqualValues(t, 1, hits.Load())
	})

	t.Run("Malformed body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>"))
		}))
		t.Cleanup(srv.Close)

		_, err := testClient(srv.URL, 3).Fetch(t.Context())
		require.Error(t, err)
	})

	t.Run("Canceled", func(t *testing.T) {
		srv, _ := feedServer(t)

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		_, err := testClient(srv.URL, 3).Fetch(ctx)
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("Circuit opens", func(t *testing.T) {
		srv, hits := feedServer(t, http.StatusServiceUnavailable)
		sut := testClient(srv.URL, 0)

		for range 6 {
			_, err := sut.Fetch(t.Context())
			require.ErrorIs(t, err, ErrUnexpectedStatus)
		}

		_, err := sut.Fetch(t.Context())
		require.ErrorIs(t, err, ErrCircuitOpen)
		assert.EqualValues(t, 6, hits.Load())
	})

	t.Run("Circuit opens across refreshes", func(t *testing.T) {
		srv, hits := feedServer(t, http.StatusServiceUnavailable)
		sut := testClient(srv.URL, DefaultBackoff.MaxRetries)

		_, err := sut.Fetch(t.Context())
		require.ErrorIs(t, err, ErrUnexpectedStatus)
		assert.EqualValues(t, DefaultBackoff.MaxRetries+1, hits.Load())

		// the next refresh keeps counting from where the last one stopped
		_, err = sut.Fetch(t.Context())
		require.ErrorIs(t, err, ErrCircuitOpen)
		assert.EqualValues(t, breakerTrips, hits.Load())

		_, err = sut.Fetch(t.Context())
		require.ErrorIs(t, err, ErrCircuitOpen)
		assert.EqualValues(t, breakerTrips, hits.Load())
	})

	t.Run("Success resets the failure count", func(t *testing.T) {
		srv, hits := feedServer(t, http.StatusServiceUnavailable, http.StatusServiceUnavailable, http.StatusOK)
		sut := testClient(srv.URL, 3)

		_, err := sut.Fetch(t.Context())
		require.NoError(t, err)
		assert.EqualValues(t, 3, hits.Load())
		assert.Zero(t, sut.breaker.Counts().ConsecutiveFailures)
	})

	t.Run("Error message", func(t *testing.T) {
		srv, _ := feedServer(t, http.StatusServiceUnavailable)

		_, err := testClient(srv.URL, 0).Fetch(t.Context())
		require.ErrorIs(t, err, ErrUnexpectedStatus)
		assert.NotContains(t, err.Error(), "retryable")
		assert.Contains(t, err.Error(), "unexpected status code: 503")
	})
}

func TestNewClientDefaults(t *testing.T) {
	sut := NewClient(ClientConfig{})

	assert.Equal(t, DefaultURL, sut.URL())
	assert.Equal(t, DefaultBackoff, sut.backoff)
	assert.Equal(t, 30*time.Second, sut.http.Timeout)
}
