package community

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/user/jarvisfi-go/apperror"
	"github.com/user/jarvisfi-go/auth"
	"github.com/user/jarvisfi-go/security"
)

// Handlers serves the community endpoints.
type Handlers struct {
	service *Service
}

// NewHandlers creates the community handlers.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes mounts the community endpoints. They expect an
// authenticated user in the request context.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/community", func(r chi.Router) {
		r.Get("/discussions", h.HandleList())
		r.Post("/discussions", h.HandleCreate())
		r.Get("/discussions/{id}", h.HandleThread())
		r.Delete("/discussions/{id}", h.HandleDelete())
		r.Post("/discussions/{id}/replies", h.HandleReply())
		r.Post("/discussions/{id}/like", h.HandleLike())
		r.Get("/trending", h.HandleTrending())
		r.Get("/stats", h.HandleStats())
	})
}

func currentUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		apperror.WriteError(w, r, apperror.NewAuthError("authentication required", nil))
	}
	return id, ok
}

func discussionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		apperror.WriteError(w, r, apperror.NewBadRequestError("invalid discussion id", err))
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		apperror.WriteError(w, r, apperror.NewValidationError("invalid "+name, err).
			WithDetails(map[string]string{name: "must be an integer"}))
		return 0, false
	}
	return n, true
}

// HandleList godoc
// @Summary List discussions
// @Tags Community
// @Produce json
// @Param category query string false "investment, personal_finance, farmer_finance, tax_planning or credit"
// @Param page query int false "Page, from 1"
// @Param per_page query int false "Page size, 1 to 100"
// @Success 200 {object} community.DiscussionPage
// @Failure 400 {object} apperror.ErrorResponse "Invalid input"
// @Router /api/v1/community/discussions [get]
// @Security BearerAuth
func (h *Handlers) HandleList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := currentUser(w, r); !ok {
			return
		}
		page, ok := queryInt(w, r, "page")
		if !ok {
			return
		}
		perPage, ok := queryInt(w, r, "per_page")
		if !ok {
			return
		}
		res, err := h.service.ListDiscussions(r.Context(), r.URL.Query().Get("category"), page, perPage)
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		apperror.WriteJSON(w, http.StatusOK, res)
	}
}

// HandleCreate godoc
// @Summary Start a discussion
// @Tags Community
// @Accept json
// @Produce json
// @Param request body community.CreateDiscussionRequest true "Discussion"
// @Success 201 {object} community.Discussion
// @Failure 400 {object} apperror.ErrorResponse "Invalid input"
// @Router /api/v1/community/discussions [post]
// @Security BearerAuth
func (h *Handlers) HandleCreate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		var req CreateDiscussionRequest
		if !decode(w, r, &req) {
			return
		}
		d, err := h.service.CreateDiscussion(r.Context(), userID, req)
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		apperror.WriteJSON(w, http.StatusCreated, d)
	}
}

// HandleThread godoc
// @Summary Get a discussion with its replies
// @Tags Community
// @Produce json
// @Param id path string true "Discussion id"
// @Success 200 {object} community.Thread
// @Failure 404 {object} apperror.ErrorResponse "Discussion not found"
// @Router /api/v1/community/discussions/{id} [get]
// @Security BearerAuth
func (h *Handlers) HandleThread() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		id, ok := discussionID(w, r)
		if !ok {
			return
		}
		thread, err := h.service.GetThread(r.Context(), id, userID)
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		apperror.WriteJSON(w, http.StatusOK, thread)
	}
}

// HandleDelete godoc
// @Summary Delete a discussion
// @Tags Community
// @Param id path string true "Discussion id"
// @Success 204 "Deleted"
// @Failure 403 {object} apperror.ErrorResponse "Not the author"
// @Failure 404 {object} apperror.ErrorResponse "Discussion not found"
// @Router /api/v1/community/discussions/{id} [delete]
// @Security BearerAuth
func (h *Handlers) HandleDelete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		id, ok := discussionID(w, r)
		if !ok {
			return
		}
		if err := h.service.Delete(r.Context(), userID, id); err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleReply godoc
// @Summary Reply to a discussion
// @Tags Community
// @Accept json
// @Produce json
// @Param id path string true "Discussion id"
// @Param request body community.ReplyRequest true "Reply"
// @Success 201 {object} community.Reply
// @Failure 400 {object} apperror.ErrorResponse "Invalid input"
// @Failure 404 {object} apperror.ErrorResponse "Discussion not found"
// @Router /api/v1/community/discussions/{id}/replies [post]
// @Security BearerAuth
func (h *Handlers) HandleReply() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		id, ok := discussionID(w, r)
		if !ok {
			return
		}
		var req ReplyRequest
		if !decode(w, r, &req) {
			return
		}
		reply, err := h.service.Reply(r.Context(), userID, id, req)
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		apperror.WriteJSON(w, http.StatusCreated, reply)
	}
}

// HandleLike godoc
// @Summary Like or unlike a discussion
// @Tags Community
// @Produce json
// @Param id path string true "Discussion id"
// @Success 200 {object} community.LikeResult
// @Failure 404 {object} apperror.ErrorResponse "Discussion not found"
// @Router /api/v1/community/discussions/{id}/like [post]
// @Security BearerAuth
func (h *Handlers) HandleLike() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		id, ok := discussionID(w, r)
		if !ok {
			return
		}
		res, err := h.service.ToggleLike(r.Context(), userID, id)
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		apperror.WriteJSON(w, http.StatusOK, res)
	}
}

// HandleTrending godoc
// @Summary Trending discussions
// @Tags Community
// @Produce json
// @Param timespan query string false "day, week, month, year or all"
// @Param limit query int false "1 to 50"
// @Success 200 {array} community.Discussion
// @Router /api/v1/community/trending [get]
// @Security BearerAuth
func (h *Handlers) HandleTrending() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := currentUser(w, r); !ok {
			return
		}
		limit, ok := queryInt(w, r, "limit")
		if !ok {
			return
		}
		since := Since(r.URL.Query().Get("timespan"), h.service.now())
		items, err := h.service.Trending(r.Context(), since, limit)
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		apperror.WriteJSON(w, http.StatusOK, items)
	}
}

// HandleStats godoc
// @Summary Community statistics
// @Tags Community
// @Produce json
// @Success 200 {object} community.Stats
// @Router /api/v1/community/stats [get]
// @Security BearerAuth
func (h *Handlers) HandleStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := currentUser(w, r); !ok {
			return
		}
		st, err := h.service.Stats(r.Context())
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		apperror.WriteJSON(w, http.StatusOK, st)
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := apperror.DecodeJSON(w, r, dst); err != nil {
		apperror.WriteError(w, r, err)
		return false
	}
	if err := security.ValidateStruct(dst); err != nil {
		apperror.WriteError(w, r, err)
		return false
	}
	return true
}
