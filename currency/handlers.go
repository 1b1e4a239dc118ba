package currency

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/user/jarvisfi-go/apperror"
	"github.com/user/jarvisfi-go/security"
)

// Handlers serves the currency endpoints.
type Handlers struct {
	conv *Converter
}

// NewHandlers creates the currency handlers.
func NewHandlers(conv *Converter) *Handlers {
	return &Handlers{conv: conv}
}

// RegisterRoutes mounts convert and popular.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Get("/convert", h.HandleConvert())
	r.Get("/popular", h.HandlePopular())
}

// HandleConvert godoc
// @Summary Convert Currency
// @Description Converts an amount using live rates, falling back to built-in rates when every provider fails.
// @Tags Currency
// @Produce json
// @Param amount query number true "Amount to convert"
// @Param from query string false "Source currency" default(USD)
// @Param to query string false "Target currency" default(INR)
// @Success 200 {object} currency.Conversion
// @Failure 400 {object} apperror.ErrorResponse "Invalid amount or currency code"
// @Router /api/v1/financial/currency/convert [get]
func (h *Handlers) HandleConvert() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		amount, err := security.ParseFinite("amount", q.Get("amount"))
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		from, to := q.Get("from"), q.Get("to")
		if from == "" {
			from = "USD"
		}
		if to == "" {
			to = "INR"
		}
		conv, err := h.conv.Convert(r.Context(), amount, from, to)
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		apperror.WriteJSON(w, http.StatusOK, conv)
	}
}

// HandlePopular godoc
// @Summary Popular Currencies
// @Tags Currency
// @Produce json
// @Success 200 {array} currency.Info
// @Router /api/v1/financial/currency/popular [get]
func (h *Handlers) HandlePopular() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apperror.WriteJSON(w, http.StatusOK, PopularCurrencies())
	}
}
