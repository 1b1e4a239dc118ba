package background

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/user/jarvisfi-go/metrics"
)

type fakeSessions struct{ n int64 }

func (f fakeSessions) CleanupExpiredSessions(context.Context) (int64, error) { return f.n, nil }

type fakeActivities struct{ retention time.Duration }

func (f *fakeActivities) PurgeActivities(_ context.Context, retention time.Duration) (int64, error) {
	f.retention = retention
	return 4, nil
}

type fakeRates struct{ err error }

func (f fakeRates) Warm(context.Context, string) error { return f.err }

func TestValidateSpec(t *testing.T) {
	for _, spec := range []string{"@every 15m", "@hourly", "0 3 * * *", "*/10 * * * * *"} {
		assert.NoError(t, ValidateSpec(spec), spec)
	}
	assert.Error(t, ValidateSpec("every day"))
	assert.Error(t, ValidateSpec("61 * * * *"))
}

func TestAddRejectsBadJobs(t *testing.T) {
	s := NewScheduler(time.Second, zap.NewNop())
	require.NoError(t, s.Add(SessionCleanup("@every 15m", fakeSessions{})))
	assert.Error(t, s.Add(SessionCleanup("@every 1h", fakeSessions{})), "duplicate name")
	assert.Error(t, s.Add(Job{Name: "x", Spec: "nonsense", Run: func(context.Context, *zap.Logger) error { return nil }}))
	assert.Error(t, s.Add(Job{Name: "", Spec: "@hourly"}))

	entries := s.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, JobSessionCleanup, entries[0].Name)
	assert.Equal(t, "@every 15m", entries[0].Spec)
}

func TestRunNowRecordsOutcome(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := NewScheduler(time.Second, zap.New(core))
	activities := &fakeActivities{}
	require.NoError(t, s.Add(ActivityPurge("0 3 * * *", 90*24*time.Hour, activities)))
	require.NoError(t, s.Add(RateRefresh("@hourly", "INR", fakeRates{err: errors.New("provider down")})))

	okBefore := testutil.ToFloat64(metrics.JobRuns.WithLabelValues(JobActivityPurge, "success"))
	errBefore := testutil.ToFloat64(metrics.JobRuns.WithLabelValues(JobRateRefresh, "error"))

	require.NoError(t, s.RunNow(context.Background(), JobActivityPurge))
	assert.Equal(t, 90*24*time.Hour, activities.retention)
	assert.Error(t, s.RunNow(context.Background(), JobRateRefresh))
	assert.ErrorIs(t, s.RunNow(context.Background(), "nope"), ErrUnknownJob)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(metrics.JobRuns.WithLabelValues(JobActivityPurge, "success")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(metrics.JobRuns.WithLabelValues(JobRateRefresh, "error")))

	purged := logs.FilterMessage("old activities purged").All()
	require.Len(t, purged, 1)
	assert.EqualValues(t, 4, purged[0].ContextMap()["activities"])
	assert.Equal(t, 1, logs.FilterMessage("job failed").Len())
}

func TestScheduledRunsSkipOverlap(t *testing.T) {
	s := NewScheduler(10*time.Second, zap.NewNop())
	var calls int32
	release := make(chan struct{})
	require.NoError(t, s.Add(Job{
		Name: "slow",
		Spec: "* * * * * *",
		Run: func(ctx context.Context, _ *zap.Logger) error {
			atomic.AddInt32(&calls, 1)
			select {
			case <-release:
			case <-ctx.Done():
			}
			return nil
		},
	}))
	s.Start()

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, 3*time.Second, 20*time.Millisecond)
	time.Sleep(1500 * time.Millisecond)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls), "ticks while running are skipped")
	close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}

func TestStopGivesUpAtDeadline(t *testing.T) {
	s := NewScheduler(time.Minute, zap.NewNop())
	started := make(chan struct{})
	var once atomic.Bool
	require.NoError(t, s.Add(Job{
		Name: "stuck",
		Spec: "* * * * * *",
		Run: func(ctx context.Context, _ *zap.Logger) error {
			if once.CompareAndSwap(false, true) {
				close(started)
			}
			<-ctx.Done()
			return ctx.Err()
		},
	}))
	s.Start()
	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("job never started")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Stop(ctx), context.DeadlineExceeded)
}
