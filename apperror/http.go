package apperror

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// maxBodyBytes bounds JSON request bodies accepted by DecodeJSON.
const maxBodyBytes = 1 << 20

// ErrorResponse is the JSON envelope every failed request returns.
type ErrorResponse struct {
	Error      bool              `json:"error" example:"true"`
	Message    string            `json:"message" example:"A description of the error"`
	StatusCode int               `json:"status_code" example:"400"`
	Timestamp  string            `json:"timestamp" example:"2024-06-01T10:00:00Z"`
	RequestID  string            `json:"request_id,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
}

// ToResponse converts an AppError to an ErrorResponse. Only the user-facing
// `Message` is included, never the wrapped error.
func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{
		Error:      true,
		Message:    e.Message,
		StatusCode: e.StatusCode(),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Details:    e.Details,
	}
}

// WriteJSON serializes `data` to JSON and writes it with the given status.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Error("failed to encode response", zap.Error(err))
	}
}

// WriteError converts any error into the standard envelope and writes it.
// Errors that are not AppErrors are reported as internal errors and their
// text is kept out of the response.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := FromError(err)
	if !ok {
		appErr = NewInternalError("an unexpected error occurred", err)
	}

	resp := appErr.ToResponse()
	if r != nil {
		resp.RequestID = middleware.GetReqID(r.Context())
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		fields := []zap.Field{
			zap.String("error_type", appErr.Type.String()),
			zap.Error(appErr),
			zap.String("request_id", resp.RequestID),
		}
		if r != nil {
			fields = append(fields, zap.String("method", r.Method), zap.String("path", r.URL.Path))
		}
		zap.L().Error("request failed", fields...)
	}

	WriteJSON(w, resp.StatusCode, resp)
}

// DecodeJSON reads a JSON request body into dst, rejecting unknown fields and
// bodies over 1 MiB. Failures are returned as BadRequest errors.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return NewBadRequestError("request body is empty", err)
		}
		return NewBadRequestError("invalid request body: "+err.Error(), err)
	}
	return nil
}
