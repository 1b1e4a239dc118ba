package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var app = AppInfo{Name: "JarvisFi", Version: "2.0.0", Environment: "test"}

func ok(context.Context) error { return nil }

func TestRunHealthy(t *testing.T) {
	c := NewChecker(app, 0, zap.NewNop())
	c.Register("database", ok)
	c.Register("cache", ok)
	c.Register("voice", nil)

	report := c.Run(context.Background())
	assert.Equal(t, StatusHealthy, report.Status)
	assert.Equal(t, "JarvisFi", report.App)
	assert.Equal(t, map[string]string{
		"database": StatusHealthy,
		"cache":    StatusHealthy,
		"voice":    StatusDisabled,
	}, report.Services)
	assert.Equal(t, []string{"cache", "database", "voice"}, c.Services())
}

func TestRunDegradedOnFailureAndTimeout(t *testing.T) {
	c := NewChecker(app, 50*time.Millisecond, zap.NewNop())
	c.Register("database", ok)
	c.Register("cache", func(context.Context) error { return errors.New("connection refused") })
	c.Register("ai", func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
			return nil
		}
	})

	start := time.Now()
	report := c.Run(context.Background())
	assert.Less(t, time.Since(start), 2*time.Second, "checks share the timeout")
	assert.Equal(t, StatusDegraded, report.Status)
	assert.Equal(t, StatusHealthy, report.Services["database"])
	assert.Equal(t, StatusUnhealthy, report.Services["cache"])
	assert.Equal(t, StatusUnhealthy, report.Services["ai"])
}

func TestRoutes(t *testing.T) {
	c := NewChecker(app, time.Second, zap.NewNop())
	c.Register("cache", func(context.Context) error { return errors.New("down") })
	r := chi.NewRouter()
	c.RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var report Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, StatusDegraded, report.Status)
	assert.Equal(t, "test", report.Environment)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var info RootInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "Welcome to JarvisFi API", info.Message)
	assert.Equal(t, "/health", info.Health)
	assert.Equal(t, "/swagger/index.html", info.Docs)
}
