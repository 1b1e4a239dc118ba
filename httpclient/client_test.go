package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func fastOptions() Options {
	return Options{
		Timeout:          time.Second,
		MaxAttempts:      3,
		MaxElapsed:       time.Second,
		InitialInterval:  time.Millisecond,
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
	}
}

func TestGetJSONRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"rate":83.2}`))
	}))
	defer srv.Close()

	opts := fastOptions()
	opts.FailureThreshold = 5
	c := New("test", opts, zap.NewNop())

	var out struct {
		Rate float64 `json:"rate"`
	}
	require.NoError(t, c.GetJSON(context.Background(), srv.URL, nil, &out))
	assert.Equal(t, 83.2, out.Rate)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New("test", fastOptions(), zap.NewNop())
	err := c.GetJSON(context.Background(), srv.URL, nil, nil)
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.Code)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, gobreaker.StateClosed, c.State())
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New("test", fastOptions(), zap.NewNop())
	err := c.GetJSON(context.Background(), srv.URL, nil, nil)
	require.Error(t, err)
	assert.Equal(t, gobreaker.StateOpen, c.State())

	before := atomic.LoadInt32(&calls)
	err = c.GetJSON(context.Background(), srv.URL, nil, nil)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, before, atomic.LoadInt32(&calls))
}

func TestPostJSONSendsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := New("test", fastOptions(), zap.NewNop())
	var out map[string]bool
	err := c.PostJSON(context.Background(), srv.URL, map[string]string{"Authorization": "Bearer k"}, map[string]string{"q": "x"}, &out)
	require.NoError(t, err)
	assert.True(t, out["ok"])
}

func TestRawBodyDestination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("RIFF"))
	}))
	defer srv.Close()

	c := New("test", fastOptions(), zap.NewNop())
	var raw []byte
	require.NoError(t, c.GetJSON(context.Background(), srv.URL, nil, &raw))
	assert.Equal(t, []byte("RIFF"), raw)
}
