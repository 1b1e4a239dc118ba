package profile

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/user/jarvisfi-go/apperror"
	"github.com/user/jarvisfi-go/auth"
	"github.com/user/jarvisfi-go/users"
)

// Source supplies the stored profile data personalization works from.
type Source interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*users.ProfileResponse, error)
	FinancialProfile(ctx context.Context, id uuid.UUID) (*users.FinancialProfile, error)
}

// Insights is the personalized dashboard for one user.
type Insights struct {
	UserType           string      `json:"user_type"`
	Greeting           string      `json:"greeting"`
	SuggestedTopics    []string    `json:"suggested_topics"`
	RecommendedSavings float64     `json:"recommended_monthly_savings"`
	Milestones         []Milestone `json:"milestones"`
	Stage              string      `json:"stage"`
	NextSteps          []string    `json:"next_steps"`
	Config             TypeConfig  `json:"config"`
}

// Handlers serves the personalization endpoints.
type Handlers struct {
	source Source
}

// NewHandlers creates the personalization handlers.
func NewHandlers(source Source) *Handlers {
	return &Handlers{source: source}
}

// RegisterRoutes mounts the public type lookup and, behind requireAuth, the
// per-user insights.
func (h *Handlers) RegisterRoutes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Get("/types/{userType}", h.HandleTypeInfo())
	r.With(requireAuth).Get("/insights", h.HandleInsights())
}

// HandleTypeInfo godoc
// @Summary Personalization For A User Type
// @Tags Profile
// @Produce json
// @Param userType path string true "student, professional, beginner or intermediate"
// @Param lang query string false "Language code"
// @Success 200 {object} profile.Insights
// @Router /api/v1/profile/types/{userType} [get]
func (h *Handlers) HandleTypeInfo() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userType := resolveType(chi.URLParam(r, "userType"))
		lang := r.URL.Query().Get("lang")
		apperror.WriteJSON(w, http.StatusOK, Insights{
			UserType:        userType,
			Greeting:        Greeting(userType, lang, ""),
			SuggestedTopics: SuggestedTopics(userType, lang),
			Config:          Config(userType),
		})
	}
}

// HandleInsights godoc
// @Summary Personalized Insights
// @Description Greeting, topics, savings target, milestones and next steps for the caller.
// @Tags Profile
// @Produce json
// @Param lang query string false "Language code, defaults to the user's preferred language"
// @Success 200 {object} profile.Insights
// @Failure 401 {object} apperror.ErrorResponse "Unauthorized"
// @Router /api/v1/profile/insights [get]
// @Security BearerAuth
func (h *Handlers) HandleInsights() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			apperror.WriteError(w, r, apperror.NewAuthError("authentication required", nil))
			return
		}
		user, err := h.source.GetProfile(r.Context(), userID)
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		fp, err := h.source.FinancialProfile(r.Context(), userID)
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		lang := r.URL.Query().Get("lang")
		if lang == "" {
			lang = user.PreferredLanguage
		}
		apperror.WriteJSON(w, http.StatusOK, BuildInsights(user, fp, lang))
	}
}

// BuildInsights assembles the dashboard from stored data.
func BuildInsights(user *users.ProfileResponse, fp *users.FinancialProfile, lang string) Insights {
	income := fp.MonthlyIncome
	if user.MonthlyIncome != nil && *user.MonthlyIncome > 0 {
		income = *user.MonthlyIncome
	}
	snap := Snapshot{
		UserType:        user.UserType,
		MonthlyIncome:   income,
		MonthlyExpenses: fp.TotalExpenses(),
		EmergencyFund:   fp.EmergencyFund,
		Savings:         fp.CurrentSavings,
		Investments:     fp.CurrentInvestments,
	}
	onboarded := user.FirstName != "" && income > 0
	stage := StageFor(onboarded, len(fp.MonthlyExpenses) > 0)
	userType := resolveType(user.UserType)

	return Insights{
		UserType:           userType,
		Greeting:           Greeting(userType, lang, user.FirstName),
		SuggestedTopics:    SuggestedTopics(userType, lang),
		RecommendedSavings: RecommendedSavings(userType, income),
		Milestones:         ProgressMilestones(snap),
		Stage:              stage,
		NextSteps:          NextSteps(stage, userType, lang),
		Config:             Config(userType),
	}
}
