// Package health reports liveness and dependency status.
package health

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/user/jarvisfi-go/apperror"
)

// Overall and per-service states.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
	StatusDisabled  = "disabled"
)

// DefaultTimeout bounds each dependency check.
const DefaultTimeout = 2 * time.Second

// Check tests one dependency. A nil Check marks the service disabled.
type Check func(ctx context.Context) error

// AppInfo identifies the running service.
type AppInfo struct {
	Name        string
	Version     string
	Environment string
	Description string
}

// Report is the body of GET /health.
type Report struct {
	Status      string            `json:"status"`
	App         string            `json:"app"`
	Version     string            `json:"version"`
	Environment string            `json:"environment"`
	Timestamp   time.Time         `json:"timestamp"`
	Services    map[string]string `json:"services"`
}

// RootInfo is the body of GET /.
type RootInfo struct {
	Message     string `json:"message"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version"`
	Docs        string `json:"docs"`
	Health      string `json:"health"`
	Metrics     string `json:"metrics"`
}

type namedCheck struct {
	name  string
	check Check
}

// Checker runs the registered checks in parallel.
type Checker struct {
	app     AppInfo
	timeout time.Duration
	checks  []namedCheck
	log     *zap.Logger
	now     func() time.Time
}

// NewChecker creates a Checker. timeout 0 means DefaultTimeout.
func NewChecker(app AppInfo, timeout time.Duration, log *zap.Logger) *Checker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Checker{app: app, timeout: timeout, log: log.With(zap.String("module", "health")), now: time.Now}
}

// Register adds a named check. Pass a nil check for a service that is
// switched off.
func (c *Checker) Register(name string, check Check) {
	c.checks = append(c.checks, namedCheck{name: name, check: check})
}

// Services lists the registered check names, sorted.
func (c *Checker) Services() []string {
	out := make([]string, len(c.checks))
	for i, nc := range c.checks {
		out[i] = nc.name
	}
	sort.Strings(out)
	return out
}

// Run executes every check with the configured timeout. The report is
// degraded when any enabled check fails.
func (c *Checker) Run(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	results := make([]string, len(c.checks))
	var g errgroup.Group
	for i, nc := range c.checks {
		if nc.check == nil {
			results[i] = StatusDisabled
			continue
		}
		g.Go(func() error {
			if err := nc.check(ctx); err != nil {
				c.log.Warn("health check failed", zap.String("service", nc.name), zap.Error(err))
				results[i] = StatusUnhealthy
				return nil
			}
			results[i] = StatusHealthy
			return nil
		})
	}
	_ = g.Wait()

	report := Report{
		Status:      StatusHealthy,
		App:         c.app.Name,
		Version:     c.app.Version,
		Environment: c.app.Environment,
		Timestamp:   c.now().UTC(),
		Services:    make(map[string]string, len(c.checks)),
	}
	for i, nc := range c.checks {
		report.Services[nc.name] = results[i]
		if results[i] == StatusUnhealthy {
			report.Status = StatusDegraded
		}
	}
	return report
}

// RegisterRoutes mounts / and /health.
func (c *Checker) RegisterRoutes(r chi.Router) {
	r.Get("/", c.HandleRoot())
	r.Get("/health", c.HandleHealth())
}

// HandleHealth godoc
// @Summary Health check
// @Description Reports each dependency. A degraded service still answers 200.
// @Tags Health
// @Produce json
// @Success 200 {object} health.Report
// @Router /health [get]
func (c *Checker) HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apperror.WriteJSON(w, http.StatusOK, c.Run(r.Context()))
	}
}

// HandleRoot godoc
// @Summary Service information
// @Tags Health
// @Produce json
// @Success 200 {object} health.RootInfo
// @Router / [get]
func (c *Checker) HandleRoot() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apperror.WriteJSON(w, http.StatusOK, RootInfo{
			Message:     "Welcome to " + c.app.Name + " API",
			Description: c.app.Description,
			Version:     c.app.Version,
			Docs:        "/swagger/index.html",
			Health:      "/health",
			Metrics:     "/metrics",
		})
	}
}
