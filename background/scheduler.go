// Package background runs the periodic maintenance jobs on a cron
// schedule.
package background

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/user/jarvisfi-go/metrics"
)

// DefaultJobTimeout bounds a single job run.
const DefaultJobTimeout = 5 * time.Minute

// Job is a named task run on a cron spec.
type Job struct {
	Name string
	// Spec is a cron expression with an optional seconds field, or a
	// descriptor such as "@hourly" or "@every 15m".
	Spec string
	Run  func(ctx context.Context, log *zap.Logger) error
}

// Entry describes a scheduled job.
type Entry struct {
	Name string    `json:"name"`
	Spec string    `json:"spec"`
	Next time.Time `json:"next"`
	Prev time.Time `json:"prev"`
}

// ErrUnknownJob is returned by RunNow for names that were never added.
var ErrUnknownJob = errors.New("background: unknown job")

var parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Scheduler wraps a cron runner. Overlapping runs of one job are skipped
// and panics are recovered.
type Scheduler struct {
	cron    *cron.Cron
	log     *zap.Logger
	timeout time.Duration

	mu      sync.Mutex
	jobs    map[string]Job
	entries map[string]cron.EntryID
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewScheduler creates a Scheduler. Jobs run with timeout, or
// DefaultJobTimeout when it is zero.
func NewScheduler(timeout time.Duration, log *zap.Logger) *Scheduler {
	log = log.With(zap.String("module", "background"))
	if timeout <= 0 {
		timeout = DefaultJobTimeout
	}
	cl := cronLogger{log.Sugar()}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		log:     log,
		timeout: timeout,
		jobs:    make(map[string]Job),
		entries: make(map[string]cron.EntryID),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// ValidateSpec reports whether spec parses.
func ValidateSpec(spec string) error {
	_, err := parser.Parse(spec)
	return err
}

// Add schedules job. Names must be unique.
func (s *Scheduler) Add(job Job) error {
	if job.Name == "" || job.Run == nil {
		return errors.New("background: job needs a name and a run function")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.jobs[job.Name]; dup {
		return fmt.Errorf("background: job %q already scheduled", job.Name)
	}
	id, err := s.cron.AddFunc(job.Spec, func() { _ = s.run(s.ctx, job) })
	if err != nil {
		return fmt.Errorf("background: job %q: %w", job.Name, err)
	}
	s.jobs[job.Name] = job
	s.entries[job.Name] = id
	s.log.Info("job scheduled", zap.String("job", job.Name), zap.String("spec", job.Spec))
	return nil
}

// RunNow runs the named job immediately on the calling goroutine.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return s.run(ctx, job)
}

func (s *Scheduler) run(ctx context.Context, job Job) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	log := s.log.With(zap.String("job", job.Name))
	start := time.Now()
	err := job.Run(ctx, log)
	elapsed := time.Since(start)
	if err != nil {
		metrics.JobRuns.WithLabelValues(job.Name, "error").Inc()
		log.Error("job failed", zap.Duration("duration", elapsed), zap.Error(err))
		return err
	}
	metrics.JobRuns.WithLabelValues(job.Name, "success").Inc()
	log.Info("job finished", zap.Duration("duration", elapsed))
	return nil
}

// Entries lists the scheduled jobs by name.
func (s *Scheduler) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, 0, len(s.jobs))
	for name, job := range s.jobs {
		e := s.cron.Entry(s.entries[name])
		out = append(out, Entry{Name: name, Spec: job.Spec, Next: e.Next, Prev: e.Prev})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Start begins running jobs on their schedules.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", zap.Int("jobs", len(s.Entries())))
}

// Stop halts scheduling and waits for running jobs until ctx is done.
// Jobs still running when ctx ends see their context cancelled.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.cancel()
		s.log.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		s.cancel()
		return ctx.Err()
	}
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
