package advisor

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/user/jarvisfi-go/apperror"
	"github.com/user/jarvisfi-go/auth"
	"github.com/user/jarvisfi-go/i18n"
	"github.com/user/jarvisfi-go/security"
)

// SearchRequest is the body of POST /chat/search.
type SearchRequest struct {
	Query     string  `json:"query" validate:"required,max=2000"`
	TopK      int     `json:"top_k" validate:"gte=0,lte=20"`
	Threshold float64 `json:"threshold" validate:"gte=0,lte=1"`
}

// SearchResponse answers POST /chat/search.
type SearchResponse struct {
	Results    []Match `json:"results"`
	Confidence float64 `json:"confidence"`
}

// FactCheckRequest is the body of POST /chat/fact-check.
type FactCheckRequest struct {
	Response string `json:"response" validate:"required,max=10000"`
	Query    string `json:"query" validate:"max=2000"`
}

// GreetingResponse answers GET /chat/greeting.
type GreetingResponse struct {
	Greeting string `json:"greeting"`
	UserType string `json:"user_type"`
	Language string `json:"language"`
}

// Handlers serves the chat endpoints.
type Handlers struct {
	engine *Engine
}

// NewHandlers creates the chat handlers.
func NewHandlers(engine *Engine) *Handlers {
	return &Handlers{engine: engine}
}

// RegisterRoutes mounts the chat endpoints.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.HandleChat())
	r.Get("/chat/greeting", h.HandleGreeting())
	r.Post("/chat/search", h.HandleSearch())
	r.Post("/chat/fact-check", h.HandleFactCheck())
}

// negotiated picks the request language: explicit value, then the script of
// msg, then Accept-Language.
func (h *Handlers) negotiated(r *http.Request, explicit, msg string) string {
	if explicit != "" {
		return explicit
	}
	if msg != "" {
		if lang := i18n.DetectLanguage(msg); lang != i18n.English {
			return lang
		}
	}
	if header := r.Header.Get("Accept-Language"); header != "" {
		return i18n.Negotiate(header, h.engine.SupportedLanguages())
	}
	return ""
}

// HandleChat godoc
// @Summary Chat with the assistant
// @Description Answers a finance question in the user's language with disclaimers and sources.
// @Tags Chat
// @Accept json
// @Produce json
// @Param request body advisor.ChatRequest true "Message"
// @Success 200 {object} advisor.ChatResponse
// @Failure 400 {object} apperror.ErrorResponse "Invalid input"
// @Router /api/v1/chat [post]
func (h *Handlers) HandleChat() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		if !decode(w, r, &req) {
			return
		}
		req.Language = h.negotiated(r, req.Language, req.Message)
		if id, ok := auth.UserIDFromContext(r.Context()); ok {
			req.UserID = id.String()
		}
		resp, err := h.engine.Chat(r.Context(), req)
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		apperror.WriteJSON(w, http.StatusOK, resp)
	}
}

// HandleGreeting godoc
// @Summary Greeting
// @Tags Chat
// @Produce json
// @Param user_type query string false "student, professional, farmer or senior_citizen"
// @Param lang query string false "Language code; negotiated from Accept-Language when empty"
// @Success 200 {object} advisor.GreetingResponse
// @Router /api/v1/chat/greeting [get]
func (h *Handlers) HandleGreeting() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userType := r.URL.Query().Get("user_type")
		if userType == "" {
			userType = "professional"
		}
		lang := h.negotiated(r, r.URL.Query().Get("lang"), "")
		if lang == "" {
			lang = i18n.English
		}
		apperror.WriteJSON(w, http.StatusOK, GreetingResponse{
			Greeting: Greeting(userType, lang),
			UserType: userType,
			Language: lang,
		})
	}
}

// HandleSearch godoc
// @Summary Search guidelines
// @Tags Chat
// @Accept json
// @Produce json
// @Param request body advisor.SearchRequest true "Query"
// @Success 200 {object} advisor.SearchResponse
// @Failure 400 {object} apperror.ErrorResponse "Invalid input"
// @Router /api/v1/chat/search [post]
func (h *Handlers) HandleSearch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SearchRequest
		if !decode(w, r, &req) {
			return
		}
		results := h.engine.Search(req.Query, req.TopK, req.Threshold)
		apperror.WriteJSON(w, http.StatusOK, SearchResponse{
			Results:    results,
			Confidence: Confidence(req.Query, len(results)),
		})
	}
}

// HandleFactCheck godoc
// @Summary Fact-check a response
// @Tags Chat
// @Accept json
// @Produce json
// @Param request body advisor.FactCheckRequest true "Response and the query behind it"
// @Success 200 {object} advisor.FactCheckResult
// @Failure 400 {object} apperror.ErrorResponse "Invalid input"
// @Router /api/v1/chat/fact-check [post]
func (h *Handlers) HandleFactCheck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req FactCheckRequest
		if !decode(w, r, &req) {
			return
		}
		query := req.Query
		if query == "" {
			query = req.Response
		}
		docs := h.engine.Search(query, DefaultTopK, DefaultThreshold)
		apperror.WriteJSON(w, http.StatusOK, FactCheck(req.Response, req.Query, docs))
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
