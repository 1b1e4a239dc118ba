package notify

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/user/jarvisfi-go/apperror"
	"github.com/user/jarvisfi-go/auth"
)

// DefaultKeepalive is the interval between keepalive comments.
const DefaultKeepalive = 25 * time.Second

// Handlers serves notification streams.
type Handlers struct {
	broadcaster *Broadcaster
	keepalive   time.Duration
	log         *zap.Logger
}

// NewHandlers creates the stream handlers.
func NewHandlers(b *Broadcaster, log *zap.Logger) *Handlers {
	return &Handlers{broadcaster: b, keepalive: DefaultKeepalive, log: log.With(zap.String("module", "notify"))}
}

// RegisterRoutes mounts the stream. It must sit behind JWT authentication.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Get("/notifications/stream", h.HandleStream())
}

// HandleStream godoc
// @Summary Notification stream
// @Description Server-sent events for the caller: smart alerts, community replies and system messages.
// @Tags Notifications
// @Produce text/event-stream
// @Security BearerAuth
// @Success 200 {string} string "event stream"
// @Failure 401 {object} apperror.ErrorResponse "Not authenticated"
// @Router /api/v1/notifications/stream [get]
func (h *Handlers) HandleStream() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			apperror.WriteError(w, r, apperror.NewAuthError("authentication required", nil))
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			apperror.WriteError(w, r, apperror.NewInternalError("streaming not supported", nil))
			return
		}

		clientID, events := h.broadcaster.Subscribe(userID.String())
		defer h.broadcaster.Unsubscribe(clientID)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)

		hello, err := NewEvent(TypeSystem, map[string]string{"status": "connected", "client_id": clientID})
		if err == nil {
			if _, err := hello.WriteTo(w); err != nil {
				return
			}
			flusher.Flush()
		}

		ticker := time.NewTicker(h.keepalive)
		defer ticker.Stop()
		for {
			select {
			case <-r.Context().Done():
				return
			case e, open := <-events:
				if !open {
					return
				}
				if _, err := e.WriteTo(w); err != nil {
					h.log.Debug("stream write failed", zap.String("client_id", clientID), zap.Error(err))
					return
				}
				flusher.Flush()
			case <-ticker.C:
				if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}
