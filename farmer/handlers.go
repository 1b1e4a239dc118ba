package farmer

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/user/jarvisfi-go/apperror"
	"github.com/user/jarvisfi-go/security"
)

// CropLoanRequest is the body of POST /crop-loan.
type CropLoanRequest struct {
	Amount   float64 `json:"amount" validate:"gt=0"`
	Months   int     `json:"months" validate:"gte=0,lte=84"`
	KCC      bool    `json:"kcc"`
	Category string  `json:"category" validate:"omitempty,oneof=marginal_farmer small_farmer large_farmer"`
}

// PremiumRequest is the body of POST /insurance-premium.
type PremiumRequest struct {
	Season        string  `json:"season" validate:"required"`
	SumInsured    float64 `json:"sum_insured" validate:"gt=0"`
	ActuarialRate float64 `json:"actuarial_rate" validate:"gte=0,lte=100"`
}

// Handlers serves the farmer tools.
type Handlers struct {
	weather *WeatherService
}

// NewHandlers creates the farmer handlers.
func NewHandlers(weather *WeatherService) *Handlers {
	return &Handlers{weather: weather}
}

// RegisterRoutes mounts the farmer tools.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Get("/msp", h.HandleMSPList())
	r.Get("/msp/{crop}", h.HandleMSP())
	r.Post("/crop-loan", h.HandleCropLoan())
	r.Post("/insurance-premium", h.HandlePremium())
	r.Get("/schemes", h.HandleSchemes())
	r.Get("/weather", h.HandleWeather())
	r.Get("/market-prices", h.HandleMarketPrices())
}

// HandleMSPList godoc
// @Summary Minimum Support Prices
// @Tags Farmer
// @Produce json
// @Success 200 {array} farmer.MSP
// @Router /api/v1/farmer/msp [get]
func (h *Handlers) HandleMSPList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apperror.WriteJSON(w, http.StatusOK, AllMSP())
	}
}

// HandleMSP godoc
// @Summary Crop MSP
// @Description Returns the MSP of a crop. With a quintals query parameter it also estimates income.
// @Tags Farmer
// @Produce json
// @Param crop path string true "Crop name"
// @Param quintals query number false "Harvest size"
// @Success 200 {object} farmer.MSP
// @Failure 404 {object} apperror.ErrorResponse "Unknown crop"
// @Router /api/v1/farmer/msp/{crop} [get]
func (h *Handlers) HandleMSP() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		crop := chi.URLParam(r, "crop")
		if q := r.URL.Query().Get("quintals"); q != "" {
			quintals, err := security.ParseFinite("quintals", q)
			if err != nil {
				apperror.WriteError(w, r, err)
				return
			}
			income, err := EstimateCropIncome(crop, quintals)
			if err != nil {
				apperror.WriteError(w, r, err)
				return
			}
			apperror.WriteJSON(w, http.StatusOK, income)
			return
		}
		m, err := MSPFor(crop)
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		apperror.WriteJSON(w, http.StatusOK, m)
	}
}

// HandleCropLoan godoc
// @Summary Crop Loan Quote
// @Tags Farmer
// @Accept json
// @Produce json
// @Param request body farmer.CropLoanRequest true "Loan details"
// @Success 200 {object} farmer.CropLoanQuote
// @Failure 400 {object} apperror.ErrorResponse "Invalid input"
// @Router /api/v1/farmer/crop-loan [post]
func (h *Handlers) HandleCropLoan() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CropLoanRequest
		if !decode(w, r, &req) {
			return
		}
		q, err := QuoteCropLoan(req.Amount, req.Months, req.KCC, req.Category)
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		apperror.WriteJSON(w, http.StatusOK, q)
	}
}

// HandlePremium godoc
// @Summary Crop Insurance Premium
// @Tags Farmer
// @Accept json
// @Produce json
// @Param request body farmer.PremiumRequest true "Season and sum insured"
// @Success 200 {object} farmer.PremiumQuote
// @Failure 400 {object} apperror.ErrorResponse "Invalid input"
// @Router /api/v1/farmer/insurance-premium [post]
func (h *Handlers) HandlePremium() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PremiumRequest
		if !decode(w, r, &req) {
			return
		}
		q, err := PMFBYPremium(req.Season, req.SumInsured, req.ActuarialRate)
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		apperror.WriteJSON(w, http.StatusOK, q)
	}
}

// HandleSchemes godoc
// @Summary Government Schemes
// @Tags Farmer
// @Produce json
// @Success 200 {array} farmer.Scheme
// @Router /api/v1/farmer/schemes [get]
func (h *Handlers) HandleSchemes() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apperror.WriteJSON(w, http.StatusOK, Schemes())
	}
}

// HandleWeather godoc
// @Summary Weather Alerts
// @Description Weather alerts with their financial impact. Demo data is returned when no weather key is configured.
// @Tags Farmer
// @Produce json
// @Param region query string false "Region or city" default(India)
// @Success 200 {object} farmer.WeatherReport
// @Router /api/v1/farmer/weather [get]
func (h *Handlers) HandleWeather() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apperror.WriteJSON(w, http.StatusOK, h.weather.WeatherAlerts(r.Context(), r.URL.Query().Get("region")))
	}
}

// HandleMarketPrices godoc
// @Summary Market Prices
// @Tags Farmer
// @Produce json
// @Param crop query string false "Crop name; all crops when empty"
// @Success 200 {array} farmer.MarketPrice
// @Failure 404 {object} apperror.ErrorResponse "Unknown crop"
// @Router /api/v1/farmer/market-prices [get]
func (h *Handlers) HandleMarketPrices() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		prices, err := MarketPrices(r.URL.Query().Get("crop"))
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		apperror.WriteJSON(w, http.StatusOK, prices)
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
