package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Limiter decides whether the caller identified by key may proceed.
type Limiter interface {
	IsAllowed(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	Remaining(ctx context.Context, key string, limit int) int
}

// NewLimiter returns a Redis-backed limiter when a client is configured and an
// in-process one otherwise.
func NewLimiter(client *redis.Client, log *zap.Logger) Limiter {
	if client == nil {
		return NewLocalLimiter()
	}
	return NewRateLimiter(client, log)
}

// RateLimiter is a fixed-window limiter over Redis INCR/EXPIRE.
// It fails open: store errors allow the request.
type RateLimiter struct {
	client *redis.Client
	log    *zap.Logger
}

// NewRateLimiter creates a RateLimiter.
func NewRateLimiter(client *redis.Client, log *zap.Logger) *RateLimiter {
	return &RateLimiter{client: client, log: log.With(zap.String("module", "rate_limiter"))}
}

// IsAllowed counts a hit on key. The counter and its expiry are set in one
// transaction; EXPIRE NX leaves a running window alone but repairs a
// counter that has lost its TTL.
func (l *RateLimiter) IsAllowed(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if l.client == nil {
		return true, nil
	}
	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		return nil
	})
	if err != nil {
		l.log.Warn("rate limiter unavailable, allowing request", zap.String("key", key), zap.Error(err))
		return true, nil
	}
	return incr.Val() <= int64(limit), nil
}

// Remaining reports how many hits are left in the current window.
func (l *RateLimiter) Remaining(ctx context.Context, key string, limit int) int {
	if l.client == nil {
		return limit
	}
	raw, err := l.client.Get(ctx, key).Result()
	if err != nil {
		return limit
	}
	current, err := strconv.Atoi(raw)
	if err != nil {
		return limit
	}
	return max(0, limit-current)
}

// LocalLimiter is a token bucket per key, refilled at limit/window with a
// burst of limit.
type LocalLimiter struct {
	mu       sync.Mutex
	limiters map[string]*localEntry
	now      func() time.Time
}

type localEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// localSweepSize is the map size past which idle buckets are dropped.
const localSweepSize = 10000

// NewLocalLimiter creates an in-process limiter.
func NewLocalLimiter() *LocalLimiter {
	return &LocalLimiter{limiters: make(map[string]*localEntry), now: time.Now}
}

// IsAllowed spends one token from the key's bucket.
func (l *LocalLimiter) IsAllowed(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.limiters[key]
	if !ok {
		if len(l.limiters) >= localSweepSize {
			l.sweep(now)
		}
		every := rate.Limit(float64(limit) / window.Seconds())
		entry = &localEntry{limiter: rate.NewLimiter(every, limit)}
		l.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1), nil
}

// Remaining reports the whole tokens left in the key's bucket.
func (l *LocalLimiter) Remaining(_ context.Context, key string, limit int) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.limiters[key]
	if !ok {
		return limit
	}
	tokens := int(entry.limiter.TokensAt(l.now()))
	return min(max(0, tokens), limit)
}

func (l *LocalLimiter) sweep(now time.Time) {
	for k, e := range l.limiters {
		if now.Sub(e.lastSeen) > 24*time.Hour {
			delete(l.limiters, k)
		}
	}
}

// Window is one quota checked by MultiWindow.
type Window struct {
	Name   string
	Limit  int
	Period time.Duration
}

// StandardWindows builds the per-minute, per-hour and per-day quotas.
func StandardWindows(perMinute, perHour, perDay int) []Window {
	return []Window{
		{Name: "minute", Limit: perMinute, Period: time.Minute},
		{Name: "hour", Limit: perHour, Period: time.Hour},
		{Name: "day", Limit: perDay, Period: 24 * time.Hour},
	}
}

// Decision is the outcome of a multi-window check.
type Decision struct {
	Allowed    bool
	Window     string // first exceeded window, empty when allowed
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// MultiWindow checks each window in order and reports the first one exceeded.
// Remaining is taken from the tightest window checked.
func MultiWindow(ctx context.Context, l Limiter, client string, windows []Window) Decision {
	d := Decision{Allowed: true, Remaining: -1}
	for _, w := range windows {
		if w.Limit <= 0 {
			continue
		}
		key := Key("rate_limit", w.Name, client)
		ok, err := l.IsAllowed(ctx, key, w.Limit, w.Period)
		if err != nil {
			continue
		}
		if !ok {
			return Decision{Window: w.Name, Limit: w.Limit, Remaining: 0, RetryAfter: w.Period}
		}
		if rem := l.Remaining(ctx, key, w.Limit); d.Remaining < 0 || rem < d.Remaining {
			d.Remaining = rem
			d.Limit = w.Limit
		}
	}
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	return d
}
