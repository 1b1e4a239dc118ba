package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/user/jarvisfi-go/advisor"
	"github.com/user/jarvisfi-go/background"
	"github.com/user/jarvisfi-go/cache"
	"github.com/user/jarvisfi-go/config"
	"github.com/user/jarvisfi-go/notify"
	"github.com/user/jarvisfi-go/security"
	"github.com/user/jarvisfi-go/users"
)

type fakeJobs struct{ ran []string }

func (f *fakeJobs) Entries() []background.Entry {
	return []background.Entry{{Name: background.JobSessionCleanup, Spec: "@every 15m"}}
}

func (f *fakeJobs) RunNow(_ context.Context, name string) error {
	if name != background.JobSessionCleanup {
		return background.ErrUnknownJob
	}
	f.ran = append(f.ran, name)
	return nil
}

type fakeUsers struct{}

func (fakeUsers) Stats(context.Context) (*users.Stats, error) {
	return &users.Stats{Total: 4, Active: 3, Verified: 1, ByType: map[string]int64{"student": 4}}, nil
}

type fixture struct {
	router *chi.Mux
	key    string
	cache  *cache.Manager
	jobs   *fakeJobs
	kb     *advisor.KnowledgeBase
	logs   *observer.ObservedLogs
}

func newFixture(t *testing.T, key string) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	core, logs := observer.New(zapcore.InfoLevel)
	log := zap.New(core)
	f := &fixture{
		key:   key,
		cache: cache.NewManager(client, time.Hour, log),
		jobs:  &fakeJobs{},
		kb:    advisor.NewKnowledgeBase(),
		logs:  logs,
	}
	b := notify.NewBroadcaster(zap.NewNop())
	t.Cleanup(b.Close)
	b.Subscribe("user-1")

	h := NewHandlers(Deps{
		Cache:      f.cache,
		RateLimits: &config.RateLimitConfig{PerMinute: 60, PerHour: 1000, PerDay: 10000},
		Streams:    b,
		Knowledge:  f.kb,
		Jobs:       f.jobs,
		Generators: []string{"openai", advisor.RuleBasedName},
		Users:      fakeUsers{},
	}, key, log)
	f.router = chi.NewRouter()
	h.RegisterRoutes(f.router)
	return f
}

func (f *fixture) do(method, path, body, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if key != "" {
		req.Header.Set(APIKeyHeader, key)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestRequireAPIKey(t *testing.T) {
	key := security.GenerateAPIKey("jf")
	f := newFixture(t, key)

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/admin/stats", "", "").Code)
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, "/admin/stats", "", "not-a-key").Code)
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, "/admin/stats", "", security.GenerateAPIKey("jf")).Code)
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, "/admin/stats", "", "xx"+key[2:]).Code, "other prefixes are refused")
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/admin/stats", "", key).Code)
	assert.Equal(t, 3, f.logs.FilterMessage("security event").Len())

	disabled := newFixture(t, "")
	assert.Equal(t, http.StatusServiceUnavailable, disabled.do(http.MethodGet, "/admin/stats", "", key).Code)
}

func TestStats(t *testing.T) {
	key := security.GenerateAPIKey("jf")
	f := newFixture(t, key)

	rec := f.do(http.MethodGet, "/admin/stats", "", key)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp StatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Cache.Connected)
	assert.Equal(t, RateLimits{PerMinute: 60, PerHour: 1000, PerDay: 10000}, resp.RateLimits)
	assert.Equal(t, 1, resp.Notifications.Clients)
	assert.Equal(t, 3, resp.KnowledgeDocuments)
	require.Len(t, resp.Jobs, 1)
	assert.Equal(t, background.JobSessionCleanup, resp.Jobs[0].Name)
	assert.Equal(t, []string{"openai", advisor.RuleBasedName}, resp.Generators)
	require.NotNil(t, resp.Users)
	assert.Equal(t, int64(4), resp.Users.Total)
}

func TestCacheEndpoints(t *testing.T) {
	key := security.GenerateAPIKey("jf")
	f := newFixture(t, key)
	ctx := context.Background()
	require.NoError(t, f.cache.Set(ctx, "ai_response:a", "x", time.Minute))
	require.NoError(t, f.cache.Set(ctx, "ai_response:b", "y", time.Minute))
	require.NoError(t, f.cache.Set(ctx, "exchange_rates:INR", "z", time.Minute))

	rec := f.do(http.MethodDelete, "/admin/cache/ai_response:*", "", key)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deleted":2}`, rec.Body.String())
	assert.True(t, f.cache.Exists(ctx, "exchange_rates:INR"))

	rec = f.do(http.MethodPost, "/admin/cache/flush", "", key)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, f.cache.Exists(ctx, "exchange_rates:INR"))
}

func TestAddDocumentAndRunJob(t *testing.T) {
	key := security.GenerateAPIKey("jf")
	f := newFixture(t, key)

	rec := f.do(http.MethodPost, "/admin/knowledge",
		`{"id":"pmfby","title":"PMFBY","source":"Ministry of Agriculture","text":"Kharif crop insurance premium is 2 percent."}`, key)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"chunks":1}`, rec.Body.String())
	assert.Equal(t, 4, f.kb.Documents())

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/admin/knowledge", `{"id":"x"}`, key).Code)

	assert.Equal(t, http.StatusNoContent, f.do(http.MethodPost, "/admin/jobs/session_cleanup/run", "", key).Code)
	assert.Equal(t, []string{background.JobSessionCleanup}, f.jobs.ran)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodPost, "/admin/jobs/nope/run", "", key).Code)
}
