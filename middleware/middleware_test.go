package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/user/jarvisfi-go/apperror"
	"github.com/user/jarvisfi-go/cache"
	"github.com/user/jarvisfi-go/metrics"
)

func TestProcessTime(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	var flusher bool
	h := ProcessTime(5*time.Millisecond, zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, flusher = w.(http.Flusher)
		if r.URL.Path == "/slow" {
			time.Sleep(20 * time.Millisecond)
		}
		_, _ = w.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fast", nil))
	assert.Regexp(t, regexp.MustCompile(`^\d+\.\d{4}$`), rec.Header().Get(ProcessTimeHeader))
	assert.True(t, flusher, "streaming handlers can still flush")
	assert.Zero(t, logs.Len())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/slow", nil))
	assert.NotEmpty(t, rec.Header().Get(ProcessTimeHeader))
	require.Equal(t, 1, logs.FilterMessage("slow request").Len())
	assert.Equal(t, "/slow", logs.All()[0].ContextMap()["path"])
}

func TestProcessTimeWithoutBody(t *testing.T) {
	h := ProcessTime(0, zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, rec.Header().Get(ProcessTimeHeader))
}

func TestRateLimit(t *testing.T) {
	windows := []cache.Window{{Name: "minute", Limit: 2, Period: time.Minute}}
	h := RateLimit(cache.NewLocalLimiter(), windows)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	do := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/chat", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	before := testutil.ToFloat64(metrics.RateLimited.WithLabelValues("minute"))
	first := do("203.0.113.7:5000")
	assert.Equal(t, http.StatusNoContent, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, http.StatusNoContent, do("203.0.113.7:5001").Code, "the port is not part of the key")

	limited := do("203.0.113.7:5002")
	require.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "60", limited.Header().Get("Retry-After"))
	assert.Equal(t, "0", limited.Header().Get("X-RateLimit-Remaining"))
	var body apperror.ErrorResponse
	require.NoError(t, json.Unmarshal(limited.Body.Bytes(), &body))
	assert.True(t, body.Error)
	assert.Equal(t, "minute", body.Details["window"])
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.RateLimited.WithLabelValues("minute")))

	assert.Equal(t, http.StatusNoContent, do("198.51.100.9:80").Code)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.5"
	assert.Equal(t, "10.0.0.5", ClientIP(req))
	req.RemoteAddr = "[2001:db8::1]:443"
	assert.Equal(t, "2001:db8::1", ClientIP(req))
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := chi.NewRouter()
	r.Use(RequestLogger(zap.New(core)))
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "id") == "missing" {
			apperror.WriteError(w, r, apperror.NewNotFoundError("item not found", nil))
			return
		}
		_, _ = w.Write([]byte("item"))
	})

	before := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues(http.MethodGet, "/items/{id}", "200"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/42", nil))
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues(http.MethodGet, "/items/{id}", "200")))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "/items/{id}", entries[0].ContextMap()["route"])
	assert.EqualValues(t, 4, entries[0].ContextMap()["bytes"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.EqualValues(t, 404, entries[1].ContextMap()["status"])
}

func TestRecoverer(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	h := Recoverer(zap.New(core))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body apperror.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal server error", body.Message)
	require.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
	assert.Equal(t, "boom", logs.All()[0].ContextMap()["panic"])

	abort := Recoverer(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		abort.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}
