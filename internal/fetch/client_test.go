package fetch

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidkirwan/asset-monitoring/internal/model"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestGetSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	c := New("test", time.Second, 0, 0, nil, newTestLogger())
	body, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
}

func TestGetRetriesUntilSuccess(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := New("test", time.Second, 3, 0, nil, newTestLogger())
	body, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Server Error"))
	}))
	defer srv.Close()

	c := New("test", time.Second, 3, 0, nil, newTestLogger())
	_, err := c.Get(context.Background(), srv.URL)
	require.Error(t, err)

	// retries=3 means 4 attempts total
	assert.Equal(t, int32(4), calls.Load())

	var netErr *model.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, http.StatusInternalServerError, netErr.StatusCode)
	assert.Contains(t, netErr.Error(), "API returned 500")
	assert.Contains(t, netErr.Error(), "Internal Server Error")
}

func TestGetRetriesNon2xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := New("test", time.Second, 1, 0, nil, newTestLogger())
	_, err := c.Get(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetTruncatesErrorBody(t *testing.T) {
	long := make([]byte, 4096)
	for i := range long {
		long[i] = 'x'
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write(long)
	}))
	defer srv.Close()

	c := New("test", time.Second, 0, 0, nil, newTestLogger())
	_, err := c.Get(context.Background(), srv.URL)
	require.Error(t, err)

	var netErr *model.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Len(t, netErr.Body, maxErrorBody)
}

func TestGetConnectionError(t *testing.T) {
	// Closed server: connection refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New("test", time.Second, 1, 0, nil, newTestLogger())
	_, err := c.Get(context.Background(), url)
	require.Error(t, err)

	var netErr *model.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Zero(t, netErr.StatusCode)
}

func TestGetStopsOnContextCancel(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New("test", time.Second, 5, time.Hour, nil, newTestLogger())
	_, err := c.Get(ctx, srv.URL)
	require.Error(t, err)

	// The cancelled context stops the retry loop after the first attempt.
	assert.LessOrEqual(t, calls.Load(), int32(1))
}

func TestGetPerAttemptTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	c := New("test", 20*time.Millisecond, 0, 0, nil, newTestLogger())
	start := time.Now()
	_, err := c.Get(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}

func TestNegativeRetriesClamped(t *testing.T) {
	c := New("test", time.Second, -5, 0, nil, newTestLogger())
	assert.Equal(t, 0, c.retries)
}
