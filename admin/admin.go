// Package admin serves the operator endpoints guarded by the admin API
// key.
package admin

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/user/jarvisfi-go/advisor"
	"github.com/user/jarvisfi-go/apperror"
	"github.com/user/jarvisfi-go/background"
	"github.com/user/jarvisfi-go/cache"
	"github.com/user/jarvisfi-go/config"
	"github.com/user/jarvisfi-go/notify"
	"github.com/user/jarvisfi-go/security"
	"github.com/user/jarvisfi-go/users"
)

// APIKeyHeader carries the admin key.
const APIKeyHeader = "X-API-Key"

// Jobs is the scheduler surface the admin endpoints use.
type Jobs interface {
	Entries() []background.Entry
	RunNow(ctx context.Context, name string) error
}

// Streams reports live notification connections.
type Streams interface {
	Stats() notify.Stats
}

// UserStats summarises the user population.
type UserStats interface {
	Stats(ctx context.Context) (*users.Stats, error)
}

// Deps are the components the admin endpoints inspect. Nil members are
// reported as absent.
type Deps struct {
	Cache      *cache.Manager
	RateLimits *config.RateLimitConfig
	Streams    Streams
	Knowledge  *advisor.KnowledgeBase
	Jobs       Jobs
	Generators []string
	Users      UserStats
}

// Handlers serves /admin.
type Handlers struct {
	deps  Deps
	key   string
	audit *security.AuditLogger
	log   *zap.Logger
}

// NewHandlers creates the admin handlers. An empty key disables every
// admin endpoint.
func NewHandlers(deps Deps, key string, log *zap.Logger) *Handlers {
	return &Handlers{
		deps:  deps,
		key:   key,
		audit: security.NewAuditLogger(log),
		log:   log.With(zap.String("module", "admin")),
	}
}

// RegisterRoutes mounts the admin endpoints behind RequireAPIKey.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(h.RequireAPIKey)
		r.Get("/stats", h.HandleStats())
		r.Post("/cache/flush", h.HandleFlushCache())
		r.Delete("/cache/{pattern}", h.HandleDeleteCache())
		r.Post("/knowledge", h.HandleAddDocument())
		r.Post("/jobs/{name}/run", h.HandleRunJob())
	})
}

// RequireAPIKey admits requests whose X-API-Key matches the configured
// key. Keys not shaped like a generated jf_ key are refused before
// comparing.
func (h *Handlers) RequireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.key == "" {
			apperror.WriteError(w, r, apperror.NewUnavailableError("admin API is not configured", nil))
			return
		}
		key := r.Header.Get(APIKeyHeader)
		if key == "" {
			apperror.WriteError(w, r, apperror.NewAuthError("admin API key required", nil))
			return
		}
		if !strings.HasPrefix(key, "jf_") || !security.ValidateAPIKeyFormat(key) || !security.ConstantTimeEqual(key, h.key) {
			h.audit.Log(security.EventSuspiciousActivity, "", map[string]interface{}{
				"reason": "invalid admin api key",
				"path":   r.URL.Path,
				"remote": r.RemoteAddr,
			})
			apperror.WriteError(w, r, apperror.NewUnauthorizedError("invalid admin API key", nil))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimits is the configured request quota.
type RateLimits struct {
	PerMinute int `json:"per_minute"`
	PerHour   int `json:"per_hour"`
	PerDay    int `json:"per_day"`
}

// StatsResponse answers GET /admin/stats.
type StatsResponse struct {
	Cache              cache.Stats        `json:"cache"`
	RateLimits         RateLimits         `json:"rate_limits"`
	Notifications      notify.Stats       `json:"notifications"`
	KnowledgeDocuments int                `json:"knowledge_documents"`
	Jobs               []background.Entry `json:"jobs"`
	Generators         []string           `json:"generators"`
	Users              *users.Stats       `json:"users,omitempty"`
}

// DocumentRequest is the body of POST /admin/knowledge.
type DocumentRequest struct {
	ID     string `json:"id" validate:"required,max=100"`
	Title  string `json:"title" validate:"required,max=200"`
	Source string `json:"source" validate:"required,max=200"`
	Text   string `json:"text" validate:"required"`
}

// HandleStats godoc
// @Summary Service statistics
// @Tags Admin
// @Produce json
// @Success 200 {object} admin.StatsResponse
// @Failure 401 {object} apperror.ErrorResponse "Missing key"
// @Failure 403 {object} apperror.ErrorResponse "Invalid key"
// @Router /api/v1/admin/stats [get]
// @Security ApiKeyAuth
func (h *Handlers) HandleStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := StatsResponse{
			Jobs:       []background.Entry{},
			Generators: h.deps.Generators,
		}
		if h.deps.Cache != nil {
			resp.Cache = h.deps.Cache.Stats(r.Context())
		}
		if rl := h.deps.RateLimits; rl != nil {
			resp.RateLimits = RateLimits{PerMinute: rl.PerMinute, PerHour: rl.PerHour, PerDay: rl.PerDay}
		}
		if h.deps.Streams != nil {
			resp.Notifications = h.deps.Streams.Stats()
		}
		if h.deps.Knowledge != nil {
			resp.KnowledgeDocuments = h.deps.Knowledge.Documents()
		}
		if h.deps.Jobs != nil {
			resp.Jobs = h.deps.Jobs.Entries()
		}
		if h.deps.Users != nil {
			st, err := h.deps.Users.Stats(r.Context())
			if err != nil {
				h.log.Warn("user stats unavailable", zap.Error(err))
			} else {
				resp.Users = st
			}
		}
		apperror.WriteJSON(w, http.StatusOK, resp)
	}
}

// HandleFlushCache godoc
// @Summary Flush the cache
// @Tags Admin
// @Produce json
// @Success 200 {object} map[string]bool
// @Router /api/v1/admin/cache/flush [post]
// @Security ApiKeyAuth
func (h *Handlers) HandleFlushCache() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.deps.Cache == nil {
			apperror.WriteError(w, r, apperror.NewUnavailableError("cache is not configured", nil))
			return
		}
		if err := h.deps.Cache.Flush(r.Context()); err != nil {
			apperror.WriteError(w, r, apperror.NewExternalServiceError("cache flush failed", err))
			return
		}
		h.log.Warn("cache flushed through admin API")
		apperror.WriteJSON(w, http.StatusOK, map[string]bool{"flushed": true})
	}
}

// HandleDeleteCache godoc
// @Summary Delete cache keys by pattern
// @Tags Admin
// @Produce json
// @Param pattern path string true "Glob pattern, e.g. ai_response:*"
// @Success 200 {object} map[string]int64
// @Router /api/v1/admin/cache/{pattern} [delete]
// @Security ApiKeyAuth
func (h *Handlers) HandleDeleteCache() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.deps.Cache == nil {
			apperror.WriteError(w, r, apperror.NewUnavailableError("cache is not configured", nil))
			return
		}
		pattern := chi.URLParam(r, "pattern")
		n, err := h.deps.Cache.DeletePattern(r.Context(), pattern)
		if err != nil {
			apperror.WriteError(w, r, apperror.NewExternalServiceError("cache delete failed", err))
			return
		}
		h.log.Info("cache keys deleted", zap.String("pattern", pattern), zap.Int64("deleted", n))
		apperror.WriteJSON(w, http.StatusOK, map[string]int64{"deleted": n})
	}
}

// HandleAddDocument godoc
// @Summary Add a knowledge document
// @Description Chunks the text and adds it to the retrieval store, replacing a document with the same id.
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body admin.DocumentRequest true "Document"
// @Success 201 {object} map[string]int
// @Router /api/v1/admin/knowledge [post]
// @Security ApiKeyAuth
func (h *Handlers) HandleAddDocument() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.deps.Knowledge == nil {
			apperror.WriteError(w, r, apperror.NewUnavailableError("knowledge base is disabled", nil))
			return
		}
		var req DocumentRequest
		if err := apperror.DecodeJSON(w, r, &req); err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		if err := security.ValidateStruct(req); err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		n, err := h.deps.Knowledge.AddDocument(req.ID, req.Title, req.Source, req.Text)
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		h.log.Info("knowledge document added", zap.String("doc_id", req.ID), zap.Int("chunks", n))
		apperror.WriteJSON(w, http.StatusCreated, map[string]int{"chunks": n})
	}
}

// HandleRunJob godoc
// @Summary Run a background job now
// @Tags Admin
// @Param name path string true "session_cleanup, activity_purge or rate_refresh"
// @Success 204 "Job finished"
// @Failure 404 {object} apperror.ErrorResponse "Unknown job"
// @Router /api/v1/admin/jobs/{name}/run [post]
// @Security ApiKeyAuth
func (h *Handlers) HandleRunJob() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.deps.Jobs == nil {
			apperror.WriteError(w, r, apperror.NewUnavailableError("scheduler is not running", nil))
			return
		}
		err := h.deps.Jobs.RunNow(r.Context(), chi.URLParam(r, "name"))
		switch {
		case errors.Is(err, background.ErrUnknownJob):
			apperror.WriteError(w, r, apperror.NewNotFoundError("unknown job", err))
		case err != nil:
			apperror.WriteError(w, r, apperror.NewInternalError("job failed", err))
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}
}
