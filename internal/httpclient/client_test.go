package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskScope/internal/apperr"
)

func TestGetReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "v", r.Header.Get("X-Test"))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := New(Config{Name: "test", Timeout: time.Second}, nil)
	body, err := c.GetWithHeaders(context.Background(), srv.URL, func() http.Header {
		h := http.Header{}
		h.Set("X-Test", "v")
		return h
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
}

func TestGetRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := New(Config{Name: "test", Timeout: time.Second, MaxRetries: 2, RetryBackoff: time.Millisecond}, nil)
	body, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(body))
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestGetDoesNotRetryAuthFailure(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(Config{Name: "test", Timeout: time.Second, MaxRetries: 3, RetryBackoff: time.Millisecond}, nil)
	_, err := c.Get(context.Background(), srv.URL)
	require.Error(t, err)

	var se *apperr.StatusError
	require.True(t, errors.As(err, &se))
	assert.True(t, se.IsAuth())
	assert.ErrorIs(t, err, apperr.ErrTransient)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestGetTimeoutIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := New(Config{Name: "test", Timeout: 20 * time.Millisecond}, nil)
	_, err := c.Get(context.Background(), srv.URL)
	assert.ErrorIs(t, err, apperr.ErrTransient)
}

func TestGetRetriesAttemptTimeout(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			time.Sleep(200 * time.Millisecond)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := New(Config{Name: "test", Timeout: 50 * time.Millisecond, MaxRetries: 1, RetryBackoff: time.Millisecond}, nil)
	body, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(body))
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestGetStopsRetryingWhenCallerCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		cancel()
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(Config{Name: "test", Timeout: time.Second, MaxRetries: 3, RetryBackoff: time.Millisecond}, nil)
	_, err := c.Get(ctx, srv.URL)
	require.Error(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestRetryableCanceled(t *testing.T) {
	assert.False(t, retryable(apperr.Transient("test", context.Canceled)))
	assert.True(t, retryable(apperr.Transient("test", errors.New("connection reset"))))
}
