// Package cache wraps the optional Redis store: a JSON value cache and the
// request rate limiters. Every operation degrades to a no-op when no store is
// configured, so callers never branch on its presence.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/user/jarvisfi-go/metrics"
)

// NewClient parses a redis:// URL and verifies the connection.
func NewClient(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// Stats summarizes cache usage for the admin endpoint.
type Stats struct {
	Connected  bool    `json:"connected"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	HitRate    float64 `json:"hit_rate"`
	Keys       int64   `json:"keys"`
	UsedMemory string  `json:"used_memory,omitempty"`
}

// Manager is a JSON cache over an optional Redis client.
type Manager struct {
	client     *redis.Client
	defaultTTL time.Duration
	log        *zap.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// NewManager creates a Manager. A nil client yields a manager whose reads
// always miss and whose writes succeed without storing anything.
func NewManager(client *redis.Client, defaultTTL time.Duration, log *zap.Logger) *Manager {
	if defaultTTL <= 0 {
		defaultTTL = time.Hour
	}
	return &Manager{
		client:     client,
		defaultTTL: defaultTTL,
		log:        log.With(zap.String("module", "cache")),
	}
}

// Enabled reports whether a backing store is configured.
func (m *Manager) Enabled() bool { return m.client != nil }

// Client exposes the underlying client, possibly nil.
func (m *Manager) Client() *redis.Client { return m.client }

// Get decodes the value stored at key into dst. A missing key is (false, nil).
func (m *Manager) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	if m.client == nil {
		m.miss()
		return false, nil
	}
	data, err := m.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		m.miss()
		return false, nil
	}
	if err != nil {
		metrics.CacheOperations.WithLabelValues("error").Inc()
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		metrics.CacheOperations.WithLabelValues("error").Inc()
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	m.hits.Add(1)
	metrics.CacheOperations.WithLabelValues("hit").Inc()
	return true, nil
}

func (m *Manager) miss() {
	m.misses.Add(1)
	metrics.CacheOperations.WithLabelValues("miss").Inc()
}

// Set stores v as JSON. A ttl of zero uses the default TTL.
func (m *Manager) Set(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	if m.client == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := m.client.Set(ctx, key, data, m.ttl(ttl)).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

func (m *Manager) ttl(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return m.defaultTTL
	}
	return ttl
}

// Delete removes keys and returns how many existed.
func (m *Manager) Delete(ctx context.Context, keys ...string) (int64, error) {
	if m.client == nil || len(keys) == 0 {
		return 0, nil
	}
	n, err := m.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("cache delete: %w", err)
	}
	return n, nil
}

// Exists reports whether key is present. Store errors read as absent.
func (m *Manager) Exists(ctx context.Context, key string) bool {
	if m.client == nil {
		return false
	}
	n, err := m.client.Exists(ctx, key).Result()
	if err != nil {
		m.log.Warn("cache exists failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return n > 0
}

// Expire resets the TTL of key.
func (m *Manager) Expire(ctx context.Context, key string, ttl time.Duration) bool {
	if m.client == nil {
		return false
	}
	ok, err := m.client.Expire(ctx, key, ttl).Result()
	if err != nil {
		m.log.Warn("cache expire failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return ok
}

// GetMany fetches several keys at once. Missing keys are left out of the result.
func (m *Manager) GetMany(ctx context.Context, keys []string) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(keys))
	if m.client == nil || len(keys) == 0 {
		return out, nil
	}
	values, err := m.client.MGet(ctx, keys...).Result()
	if err != nil {
		return out, fmt.Errorf("cache mget: %w", err)
	}
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		out[keys[i]] = json.RawMessage(s)
	}
	return out, nil
}

// SetMany stores every entry in one pipeline.
func (m *Manager) SetMany(ctx context.Context, entries map[string]interface{}, ttl time.Duration) error {
	if m.client == nil || len(entries) == 0 {
		return nil
	}
	pipe := m.client.Pipeline()
	for key, v := range entries {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("cache encode %s: %w", key, err)
		}
		pipe.Set(ctx, key, data, m.ttl(ttl))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache set many: %w", err)
	}
	return nil
}

// DeletePattern removes every key matching a glob pattern, scanning in batches.
func (m *Manager) DeletePattern(ctx context.Context, pattern string) (int64, error) {
	if m.client == nil {
		return 0, nil
	}
	var (
		cursor  uint64
		deleted int64
	)
	for {
		keys, next, err := m.client.Scan(ctx, cursor, pattern, 500).Result()
		if err != nil {
			return deleted, fmt.Errorf("cache scan %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			n, err := m.client.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, fmt.Errorf("cache delete pattern %s: %w", pattern, err)
			}
			deleted += n
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	return deleted, nil
}

// Increment adds by to the integer at key.
func (m *Manager) Increment(ctx context.Context, key string, by int64) (int64, error) {
	if m.client == nil {
		return 0, nil
	}
	n, err := m.client.IncrBy(ctx, key, by).Result()
	if err != nil {
		return 0, fmt.Errorf("cache increment %s: %w", key, err)
	}
	return n, nil
}

// Stats reports local hit and miss counters together with store figures.
func (m *Manager) Stats(ctx context.Context) Stats {
	hits, misses := m.hits.Load(), m.misses.Load()
	s := Stats{Hits: hits, Misses: misses}
	if total := hits + misses; total > 0 {
		s.HitRate = float64(hits) / float64(total) * 100
	}
	if m.client == nil {
		return s
	}
	if err := m.client.Ping(ctx).Err(); err != nil {
		m.log.Warn("cache stats ping failed", zap.Error(err))
		return s
	}
	s.Connected = true
	if n, err := m.client.DBSize(ctx).Result(); err == nil {
		s.Keys = n
	}
	if info, err := m.client.Info(ctx, "memory").Result(); err == nil {
		s.UsedMemory = infoField(info, "used_memory_human")
	}
	return s
}

func infoField(info, name string) string {
	for _, line := range strings.Split(info, "\n") {
		if v, ok := strings.CutPrefix(strings.TrimSpace(line), name+":"); ok {
			return v
		}
	}
	return ""
}

// Flush clears the current database.
func (m *Manager) Flush(ctx context.Context) error {
	if m.client == nil {
		return nil
	}
	if err := m.client.FlushDB(ctx).Err(); err != nil {
		return fmt.Errorf("cache flush: %w", err)
	}
	m.log.Warn("cache flushed, all data cleared")
	return nil
}

// Ping checks store connectivity. Without a store there is nothing to reach.
func (m *Manager) Ping(ctx context.Context) error {
	if m.client == nil {
		return errors.New("cache store not configured")
	}
	return m.client.Ping(ctx).Err()
}

// Remember returns the cached value at key, or computes it with fn and stores
// the result. Store failures are logged and fall through to fn.
func Remember[T any](ctx context.Context, m *Manager, key string, ttl time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var cached T
	found, err := m.Get(ctx, key, &cached)
	if err != nil {
		m.log.Warn("cache read failed, computing", zap.String("key", key), zap.Error(err))
	} else if found {
		return cached, nil
	}

	value, err := fn(ctx)
	if err != nil {
		return value, err
	}
	if err := m.Set(ctx, key, value, ttl); err != nil {
		m.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return value, nil
}
