package voice

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/user/jarvisfi-go/apperror"
	"github.com/user/jarvisfi-go/security"
)

// SynthesizeRequest is the body of POST /voice/synthesize.
type SynthesizeRequest struct {
	Text     string `json:"text" validate:"required,max=5000"`
	Language string `json:"language" validate:"omitempty,len=2"`
}

// Handlers serves the voice endpoints.
type Handlers struct {
	processor *Processor
}

// NewHandlers creates the voice handlers.
func NewHandlers(p *Processor) *Handlers {
	return &Handlers{processor: p}
}

// RegisterRoutes mounts the voice endpoints.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Post("/voice/transcribe", h.HandleTranscribe())
	r.Post("/voice/synthesize", h.HandleSynthesize())
}

func language(lang string) string {
	if lang == "" {
		return "en"
	}
	return lang
}

// HandleTranscribe godoc
// @Summary Speech to text
// @Description Accepts a raw wav, mp3, ogg or webm recording of at most 10 MiB.
// @Tags Voice
// @Accept octet-stream
// @Produce json
// @Param format query string false "wav, mp3, ogg or webm; detected when empty"
// @Param lang query string false "Language code" default(en)
// @Success 200 {object} voice.Transcription
// @Failure 400 {object} apperror.ErrorResponse "Invalid audio"
// @Failure 503 {object} apperror.ErrorResponse "Voice processing unavailable"
// @Router /api/v1/voice/transcribe [post]
func (h *Handlers) HandleTranscribe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		audio, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxUploadBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				apperror.WriteError(w, r, apperror.NewValidationError("audio exceeds 10 MiB", err))
				return
			}
			apperror.WriteError(w, r, apperror.NewBadRequestError("could not read audio", err))
			return
		}
		format, err := NormalizeFormat(r.URL.Query().Get("format"), r.Header.Get("Content-Type"), audio)
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		res, err := h.processor.Transcribe(r.Context(), audio, format, language(r.URL.Query().Get("lang")))
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		apperror.WriteJSON(w, http.StatusOK, res)
	}
}

// HandleSynthesize godoc
// @Summary Text to speech
// @Description Returns base64 audio, or text only with source "text" when no provider is available.
// @Tags Voice
// @Accept json
// @Produce json
// @Param request body voice.SynthesizeRequest true "Text to speak"
// @Success 200 {object} voice.Speech
// @Failure 400 {object} apperror.ErrorResponse "Invalid input"
// @Router /api/v1/voice/synthesize [post]
func (h *Handlers) HandleSynthesize() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SynthesizeRequest
		if err := apperror.DecodeJSON(w, r, &req); err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		if err := security.ValidateStruct(&req); err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		sp, err := h.processor.Synthesize(r.Context(), req.Text, language(req.Language))
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		apperror.WriteJSON(w, http.StatusOK, sp)
	}
}
