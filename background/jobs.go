package background

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Job names.
const (
	JobSessionCleanup = "session_cleanup"
	JobActivityPurge  = "activity_purge"
	JobRateRefresh    = "rate_refresh"
)

// SessionCleaner deactivates expired sessions.
type SessionCleaner interface {
	CleanupExpiredSessions(ctx context.Context) (int64, error)
}

// ActivityPurger deletes activities older than a retention period.
type ActivityPurger interface {
	PurgeActivities(ctx context.Context, retention time.Duration) (int64, error)
}

// RateWarmer refreshes cached exchange rates for a base currency.
type RateWarmer interface {
	Warm(ctx context.Context, base string) error
}

// SessionCleanup deactivates sessions past their expiry.
func SessionCleanup(spec string, sessions SessionCleaner) Job {
	return Job{
		Name: JobSessionCleanup,
		Spec: spec,
		Run: func(ctx context.Context, log *zap.Logger) error {
			n, err := sessions.CleanupExpiredSessions(ctx)
			if err != nil {
				return err
			}
			log.Info("expired sessions deactivated", zap.Int64("sessions", n))
			return nil
		},
	}
}

// ActivityPurge deletes activity rows older than retention.
func ActivityPurge(spec string, retention time.Duration, activities ActivityPurger) Job {
	return Job{
		Name: JobActivityPurge,
		Spec: spec,
		Run: func(ctx context.Context, log *zap.Logger) error {
			n, err := activities.PurgeActivities(ctx, retention)
			if err != nil {
				return err
			}
			log.Info("old activities purged", zap.Int64("activities", n), zap.Duration("retention", retention))
			return nil
		},
	}
}

// RateRefresh re-fetches exchange rates for base.
func RateRefresh(spec, base string, rates RateWarmer) Job {
	return Job{
		Name: JobRateRefresh,
		Spec: spec,
		Run: func(ctx context.Context, log *zap.Logger) error {
			if err := rates.Warm(ctx, base); err != nil {
				return err
			}
			log.Debug("exchange rates refreshed", zap.String("base", base))
			return nil
		},
	}
}
