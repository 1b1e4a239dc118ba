package auth

import (
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/user/jarvisfi-go/apperror"
	"github.com/user/jarvisfi-go/security"
)

// Handlers wraps the AuthService to provide HTTP handlers
type Handlers struct {
	service *AuthService
}

// NewHandlers creates a new Handlers instance
func NewHandlers(service *AuthService) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes mounts the auth endpoints. requireAuth guards logout and
// session listing.
func (h *Handlers) RegisterRoutes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Post("/register", h.HandleRegister())
	r.Post("/login", h.HandleLogin())
	r.Post("/refresh", h.HandleRefreshToken())
	r.Post("/password-strength", h.HandlePasswordStrength())

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/logout", h.HandleLogout())
		r.Get("/sessions", h.HandleSessions())
	})
}

// HandleRegister godoc
// @Summary User Registration
// @Description Registers a new user. The password must pass every strength check.
// @Tags Auth
// @Accept json
// @Produce json
// @Param registerBody body auth.RegisterRequest true "User registration details"
// @Success 201 {object} auth.AccountResponse "User created successfully"
// @Failure 400 {object} apperror.ErrorResponse "Invalid input or weak password"
// @Failure 409 {object} apperror.ErrorResponse "Email, phone or username already exists"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /api/v1/auth/register [post]
func (h *Handlers) HandleRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := apperror.DecodeJSON(w, r, &req); err != nil {
			apperror.WriteError(w, r, err)
			return
		}

		user, err := h.service.Register(r.Context(), req)
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		apperror.WriteJSON(w, http.StatusCreated, user)
	}
}

// HandleLogin godoc
// @Summary User Login
// @Description Logs in with email, phone or username and returns a token pair.
// @Tags Auth
// @Accept json
// @Produce json
// @Param loginBody body auth.LoginRequest true "User login credentials"
// @Success 200 {object} auth.LoginResponse "Login successful"
// @Failure 400 {object} apperror.ErrorResponse "Invalid input"
// @Failure 401 {object} apperror.ErrorResponse "Invalid credentials or locked account"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /api/v1/auth/login [post]
func (h *Handlers) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := apperror.DecodeJSON(w, r, &req); err != nil {
			apperror.WriteError(w, r, err)
			return
		}

		resp, err := h.service.Login(r.Context(), req, clientInfo(r))
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		apperror.WriteJSON(w, http.StatusOK, resp)
	}
}

// HandleRefreshToken godoc
// @Summary Refresh Access Token
// @Description Exchanges a refresh token for a new pair. The old refresh token is revoked.
// @Tags Auth
// @Accept json
// @Produce json
// @Param refreshBody body auth.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} security.TokenPair "Tokens refreshed"
// @Failure 400 {object} apperror.ErrorResponse "Missing refresh token"
// @Failure 401 {object} apperror.ErrorResponse "Invalid or expired refresh token"
// @Router /api/v1/auth/refresh [post]
func (h *Handlers) HandleRefreshToken() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RefreshTokenRequest
		if err := apperror.DecodeJSON(w, r, &req); err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		if err := security.ValidateStruct(req); err != nil {
			apperror.WriteError(w, r, err)
			return
		}

		pair, err := h.service.Refresh(r.Context(), req.RefreshToken)
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		apperror.WriteJSON(w, http.StatusOK, pair)
	}
}

// HandleLogout godoc
// @Summary Logout
// @Description Ends the session the access token belongs to, or the one named by session_id.
// @Tags Auth
// @Produce json
// @Param session_id query string false "Session to end"
// @Success 204 "Logged out"
// @Failure 401 {object} apperror.ErrorResponse "Unauthorized"
// @Failure 404 {object} apperror.ErrorResponse "Session not found"
// @Router /api/v1/auth/logout [post]
// @Security BearerAuth
func (h *Handlers) HandleLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := UserIDFromContext(r.Context())
		if !ok {
			apperror.WriteError(w, r, apperror.NewAuthError("authentication required", nil))
			return
		}

		sessionID, ok := SessionIDFromContext(r.Context())
		if raw := r.URL.Query().Get("session_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				apperror.WriteError(w, r, apperror.NewBadRequestError("invalid session_id", err))
				return
			}
			sessionID, ok = id, true
		}
		if !ok {
			apperror.WriteError(w, r, apperror.NewBadRequestError("no session to end", nil))
			return
		}

		if err := h.service.Logout(r.Context(), userID, sessionID); err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleSessions godoc
// @Summary List Active Sessions
// @Tags Auth
// @Produce json
// @Success 200 {array} auth.UserSession
// @Failure 401 {object} apperror.ErrorResponse "Unauthorized"
// @Router /api/v1/auth/sessions [get]
// @Security BearerAuth
func (h *Handlers) HandleSessions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := UserIDFromContext(r.Context())
		if !ok {
			apperror.WriteError(w, r, apperror.NewAuthError("authentication required", nil))
			return
		}
		sessions, err := h.service.ActiveSessions(r.Context(), userID)
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		apperror.WriteJSON(w, http.StatusOK, sessions)
	}
}

// HandlePasswordStrength godoc
// @Summary Check Password Strength
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body auth.PasswordStrengthRequest true "Password to score"
// @Success 200 {object} security.PasswordStrength
// @Router /api/v1/auth/password-strength [post]
func (h *Handlers) HandlePasswordStrength() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PasswordStrengthRequest
		if err := apperror.DecodeJSON(w, r, &req); err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		apperror.WriteJSON(w, http.StatusOK, security.ValidatePasswordStrength(req.Password))
	}
}

// clientInfo reads the caller's address and agent. RealIP has already
// rewritten RemoteAddr when a proxy header is present.
func clientInfo(r *http.Request) ClientInfo {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return ClientInfo{
		IPAddress: ip,
		UserAgent: r.UserAgent(),
		DeviceInfo: map[string]interface{}{
			"platform": r.Header.Get("X-Device-Platform"),
		},
	}
}
