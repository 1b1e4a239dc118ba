package users

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/user/jarvisfi-go/apperror"
	"github.com/user/jarvisfi-go/auth"
	"github.com/user/jarvisfi-go/security"
)

// UserHandlers holds dependencies for user-related HTTP handlers.
type UserHandlers struct {
	service *UserService
}

// NewUserHandlers creates a new UserHandlers.
func NewUserHandlers(service *UserService) *UserHandlers {
	return &UserHandlers{service: service}
}

// RegisterRoutes mounts the /users/me endpoints. The router must already be
// behind the JWT middleware.
func (h *UserHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/me", func(r chi.Router) {
		r.Get("/", h.HandleGetProfile())
		r.Put("/", h.HandleUpdateProfile())
		r.Delete("/", h.HandleDeleteAccount())
		r.Get("/preferences", h.HandleListPreferences())
		r.Put("/preferences/{category}/{key}", h.HandleSetPreference())
		r.Delete("/preferences/{category}/{key}", h.HandleDeletePreference())
		r.Get("/activities", h.HandleListActivities())
		r.Post("/points", h.HandleAwardPoints())
		r.Get("/export", h.HandleExport())
		r.Post("/import", h.HandleImport())
		r.Get("/financial-profile", h.HandleGetFinancialProfile())
		r.Put("/financial-profile", h.HandleSaveFinancialProfile())
		r.Post("/financial-profile/reset", h.HandleResetFinancialProfile())
	})
}

func currentUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		apperror.WriteError(w, r, apperror.NewAuthError("authentication required", nil))
	}
	return id, ok
}

// HandleGetProfile godoc
// @Summary Get Current User Profile
// @Tags Users
// @Produce json
// @Success 200 {object} users.ProfileResponse
// @Failure 401 {object} apperror.ErrorResponse "Unauthorized"
// @Failure 404 {object} apperror.ErrorResponse "User not found"
// @Router /api/v1/users/me [get]
// @Security BearerAuth
func (h *UserHandlers) HandleGetProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		profile, err := h.service.GetProfile(r.Context(), userID)
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		apperror.WriteJSON(w, http.StatusOK, profile)
	}
}

// HandleUpdateProfile godoc
// @Summary Update Current User Profile
// @Description Partial update. PAN and Aadhaar numbers are validated and stored encrypted.
// @Tags Users
// @Accept json
// @Produce json
// @Param profile body users.UpdateProfileRequest true "Fields to change"
// @Success 200 {object} users.ProfileResponse
// @Failure 400 {object} apperror.ErrorResponse "Invalid input"
// @Failure 401 {object} apperror.ErrorResponse "Unauthorized"
// @Router /api/v1/users/me [put]
// @Security BearerAuth
func (h *UserHandlers) HandleUpdateProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		var req UpdateProfileRequest
		if err := apperror.DecodeJSON(w, r, &req); err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		profile, err := h.service.UpdateProfile(r.Context(), userID, req)
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		apperror.WriteJSON(w, http.StatusOK, profile)
	}
}

// HandleDeleteAccount godoc
// @Summary Delete Current User
// @Description Soft-deletes the account and ends all of its sessions.
// @Tags Users
// @Success 204 "Deleted"
// @Router /api/v1/users/me [delete]
// @Security BearerAuth
func (h *UserHandlers) HandleDeleteAccount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		if err := h.service.SoftDelete(r.Context(), userID); err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleListPreferences godoc
// @Summary List Preferences
// @Tags Users
// @Produce json
// @Param category query string false "Only this category"
// @Success 200 {array} users.Preference
// @Router /api/v1/users/me/preferences [get]
// @Security BearerAuth
func (h *UserHandlers) HandleListPreferences() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		prefs, err := h.service.GetPreferences(r.Context(), userID, r.URL.Query().Get("category"))
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		apperror.WriteJSON(w, http.StatusOK, prefs)
	}
}

// HandleSetPreference godoc
// @Summary Set Preference
// @Tags Users
// @Accept json
// @Produce json
// @Param category path string true "Category"
// @Param key path string true "Key"
// @Param body body users.PreferenceValue true "Value"
// @Success 200 {object} users.Preference
// @Router /api/v1/users/me/preferences/{category}/{key} [put]
// @Security BearerAuth
func (h *UserHandlers) HandleSetPreference() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		var body PreferenceValue
		if err := apperror.DecodeJSON(w, r, &body); err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		if err := security.ValidateStruct(body); err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		pref, err := h.service.SetPreference(r.Context(), userID, chi.URLParam(r, "category"), chi.URLParam(r, "key"), body.Value)
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		apperror.WriteJSON(w, http.StatusOK, pref)
	}
}

// HandleDeletePreference godoc
// @Summary Delete Preference
// @Tags Users
// @Param category path string true "Category"
// @Param key path string true "Key"
// @Success 204 "Deleted"
// @Failure 404 {object} apperror.ErrorResponse "Preference not found"
// @Router /api/v1/users/me/preferences/{category}/{key} [delete]
// @Security BearerAuth
func (h *UserHandlers) HandleDeletePreference() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		if err := h.service.DeletePreference(r.Context(), userID, chi.URLParam(r, "category"), chi.URLParam(r, "key")); err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleListActivities godoc
// @Summary List Recent Activities
// @Tags Users
// @Produce json
// @Param limit query int false "Max entries (1-100, default 20)"
// @Success 200 {array} users.Activity
// @Router /api/v1/users/me/activities [get]
// @Security BearerAuth
func (h *UserHandlers) HandleListActivities() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				apperror.WriteError(w, r, apperror.NewBadRequestError("invalid limit parameter", err))
				return
			}
			limit = n
		}
		acts, err := h.service.ListActivities(r.Context(), userID, limit)
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		apperror.WriteJSON(w, http.StatusOK, acts)
	}
}

// HandleAwardPoints godoc
// @Summary Award Points
// @Tags Users
// @Accept json
// @Produce json
// @Param body body users.AwardPointsRequest true "Points and reason"
// @Success 200 {object} users.PointsResult
// @Router /api/v1/users/me/points [post]
// @Security BearerAuth
func (h *UserHandlers) HandleAwardPoints() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		var req AwardPointsRequest
		if err := apperror.DecodeJSON(w, r, &req); err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		if err := security.ValidateStruct(req); err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		res, err := h.service.AwardPoints(r.Context(), userID, req.Reason, req.Points)
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		if req.Badge != "" {
			if _, err := h.service.AwardBadge(r.Context(), userID, req.Badge); err != nil {
				apperror.WriteError(w, r, err)
				return
			}
			res.Badges = appendUnique(res.Badges, req.Badge)
		}
		apperror.WriteJSON(w, http.StatusOK, res)
	}
}

func appendUnique(list []string, v string) []string {
	for _, have := range list {
		if have == v {
			return list
		}
	}
	return append(list, v)
}

// HandleExport godoc
// @Summary Export Profile
// @Description Returns a JSON backup of the profile, preferences and recent activity.
// @Tags Users
// @Produce json
// @Success 200 {object} users.ProfileExport
// @Router /api/v1/users/me/export [get]
// @Security BearerAuth
func (h *UserHandlers) HandleExport() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		exp, err := h.service.ExportProfile(r.Context(), userID)
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		w.Header().Set("Content-Disposition", `attachment; filename="jarvisfi-profile.json"`)
		apperror.WriteJSON(w, http.StatusOK, exp)
	}
}

// HandleImport godoc
// @Summary Import Profile
// @Tags Users
// @Accept json
// @Produce json
// @Param body body users.ProfileExport true "A previous export"
// @Success 200 {object} users.ImportResult
// @Failure 400 {object} apperror.ErrorResponse "Unsupported format version or invalid fields"
// @Router /api/v1/users/me/import [post]
// @Security BearerAuth
func (h *UserHandlers) HandleImport() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		var exp ProfileExport
		if err := apperror.DecodeJSON(w, r, &exp); err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		res, err := h.service.ImportProfile(r.Context(), userID, &exp)
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		apperror.WriteJSON(w, http.StatusOK, res)
	}
}

// HandleGetFinancialProfile godoc
// @Summary Get Financial Profile
// @Tags Users
// @Produce json
// @Success 200 {object} users.FinancialProfile
// @Router /api/v1/users/me/financial-profile [get]
// @Security BearerAuth
func (h *UserHandlers) HandleGetFinancialProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		fp, err := h.service.FinancialProfile(r.Context(), userID)
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		apperror.WriteJSON(w, http.StatusOK, fp)
	}
}

// HandleSaveFinancialProfile godoc
// @Summary Save Financial Profile
// @Tags Users
// @Accept json
// @Produce json
// @Param body body users.FinancialProfile true "Profile"
// @Success 200 {object} users.FinancialProfile
// @Router /api/v1/users/me/financial-profile [put]
// @Security BearerAuth
func (h *UserHandlers) HandleSaveFinancialProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		fp := DefaultFinancialProfile()
		if err := apperror.DecodeJSON(w, r, &fp); err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		saved, err := h.service.SaveFinancialProfile(r.Context(), userID, fp)
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		apperror.WriteJSON(w, http.StatusOK, saved)
	}
}

// HandleResetFinancialProfile godoc
// @Summary Reset Financial Profile
// @Tags Users
// @Produce json
// @Success 200 {object} users.FinancialProfile
// @Router /api/v1/users/me/financial-profile/reset [post]
// @Security BearerAuth
func (h *UserHandlers) HandleResetFinancialProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		fp, err := h.service.ResetFinancialProfile(r.Context(), userID)
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		apperror.WriteJSON(w, http.StatusOK, fp)
	}
}
