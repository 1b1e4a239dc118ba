package finance

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/user/jarvisfi-go/apperror"
	"github.com/user/jarvisfi-go/auth"
	"github.com/user/jarvisfi-go/security"
)

// Notifier pushes an event to a user's live connections and returns how
// many received it.
type Notifier interface {
	Notify(userID, eventType string, payload interface{}) int
}

// EMIRequest is the body of POST /emi.
type EMIRequest struct {
	Principal     float64 `json:"principal" validate:"gt=0"`
	AnnualRate    float64 `json:"annual_rate" validate:"gte=0,lte=50"`
	Years         int     `json:"years" validate:"gt=0,lte=40"`
	MonthlyIncome float64 `json:"monthly_income" validate:"gte=0"`
}

// SIPRequest is the body of POST /sip.
type SIPRequest struct {
	MonthlyInvestment float64 `json:"monthly_investment" validate:"gt=0"`
	AnnualRate        float64 `json:"annual_rate" validate:"gte=0,lte=50"`
	Years             int     `json:"years" validate:"gt=0,lte=50"`
}

// GrowthRequest is the body of POST /growth.
type GrowthRequest struct {
	InitialInvestment float64 `json:"initial_investment" validate:"gte=0"`
	MonthlyAddition   float64 `json:"monthly_addition" validate:"gte=0"`
	AnnualRate        float64 `json:"annual_rate" validate:"gte=0,lte=50"`
	Years             int     `json:"years" validate:"gt=0,lte=50"`
}

// DebtPayoffRequest is the body of POST /debt-payoff.
type DebtPayoffRequest struct {
	Debt           float64 `json:"debt" validate:"gt=0"`
	AnnualRate     float64 `json:"annual_rate" validate:"gte=0,lte=60"`
	MonthlyPayment float64 `json:"monthly_payment" validate:"gt=0"`
}

// TaxRequest is the body of POST /tax.
type TaxRequest struct {
	AnnualIncome float64    `json:"annual_income" validate:"gte=0"`
	Deductions   Deductions `json:"deductions"`
}

// CreditScoreRequest is the body of POST /credit-score.
type CreditScoreRequest struct {
	PAN string `json:"pan" validate:"omitempty,pan"`
}

// DebtAnalysisRequest is the body of POST /debt-analysis.
type DebtAnalysisRequest struct {
	Debts         map[string]float64 `json:"debts" validate:"dive,gte=0"`
	MonthlyIncome float64            `json:"monthly_income" validate:"gte=0"`
}

// InvestmentRequest is the body of POST /investments.
type InvestmentRequest struct {
	Age           int     `json:"age" validate:"gte=18,lte=100"`
	MonthlyIncome float64 `json:"monthly_income" validate:"gt=0"`
	RiskTolerance string  `json:"risk_tolerance" validate:"omitempty,oneof=conservative moderate aggressive"`
	UserType      string  `json:"user_type" validate:"omitempty,max=32"`
}

// BudgetRequest is the body of POST /budget/analyze and POST /alerts.
type BudgetRequest struct {
	Transactions []Transaction `json:"transactions" validate:"max=10000"`
	Profile      BudgetProfile `json:"profile"`
}

// AlertsResponse is returned by POST /alerts.
type AlertsResponse struct {
	Alerts   []Alert        `json:"alerts"`
	Counts   map[string]int `json:"counts"`
	Notified int            `json:"notified"`
}

// Handlers serves the calculators.
type Handlers struct {
	credit   *CreditScoreService
	notifier Notifier
	now      func() time.Time
}

// NewHandlers creates the calculator handlers. notifier may be nil.
func NewHandlers(credit *CreditScoreService, notifier Notifier) *Handlers {
	return &Handlers{credit: credit, notifier: notifier, now: time.Now}
}

// RegisterRoutes mounts every calculator.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Post("/emi", h.HandleEMI())
	r.Post("/sip", h.HandleSIP())
	r.Post("/growth", h.HandleGrowth())
	r.Post("/debt-payoff", h.HandleDebtPayoff())
	r.Post("/tax", h.HandleTax())
	r.Post("/credit-score", h.HandleCreditScore())
	r.Post("/debt-analysis", h.HandleDebtAnalysis())
	r.Post("/investments", h.HandleInvestments())
	r.Post("/budget/analyze", h.HandleBudgetAnalysis())
	r.Post("/budget/report", h.HandleBudgetReport())
	r.Get("/budget/503020", h.HandleBudgetRule())
	r.Post("/alerts", h.HandleAlerts())
}

// decode reads and validates a request body.
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

func respond(w http.ResponseWriter, r *http.Request, v interface{}, err error) {
	if err != nil {
		apperror.WriteError(w, r, err)
		return
	}
	apperror.WriteJSON(w, http.StatusOK, v)
}

// HandleEMI godoc
// @Summary EMI And Loan Analysis
// @Tags Financial
// @Accept json
// @Produce json
// @Param request body finance.EMIRequest true "Loan details"
// @Success 200 {object} finance.LoanResult
// @Failure 400 {object} apperror.ErrorResponse "Invalid input"
// @Router /api/v1/financial/emi [post]
func (h *Handlers) HandleEMI() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req EMIRequest
		if !decode(w, r, &req) {
			return
		}
		res, err := LoanAnalysis(req.Principal, req.AnnualRate, req.Years, req.MonthlyIncome)
		respond(w, r, res, err)
	}
}

// HandleSIP godoc
// @Summary SIP Future Value
// @Tags Financial
// @Accept json
// @Produce json
// @Param request body finance.SIPRequest true "SIP details"
// @Success 200 {object} finance.SIPResult
// @Failure 400 {object} apperror.ErrorResponse "Invalid input"
// @Router /api/v1/financial/sip [post]
func (h *Handlers) HandleSIP() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SIPRequest
		if !decode(w, r, &req) {
			return
		}
		res, err := SIPFutureValue(req.MonthlyInvestment, req.AnnualRate, req.Years)
		respond(w, r, res, err)
	}
}

// HandleGrowth godoc
// @Summary Investment Growth
// @Tags Financial
// @Accept json
// @Produce json
// @Param request body finance.GrowthRequest true "Lump sum and monthly additions"
// @Success 200 {object} finance.GrowthResult
// @Failure 400 {object} apperror.ErrorResponse "Invalid input"
// @Router /api/v1/financial/growth [post]
func (h *Handlers) HandleGrowth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GrowthRequest
		if !decode(w, r, &req) {
			return
		}
		res, err := InvestmentGrowth(req.InitialInvestment, req.MonthlyAddition, req.AnnualRate, req.Years)
		respond(w, r, res, err)
	}
}

// HandleDebtPayoff godoc
// @Summary Debt Payoff Time
// @Tags Financial
// @Accept json
// @Produce json
// @Param request body finance.DebtPayoffRequest true "Debt details"
// @Success 200 {object} finance.DebtPayoffResult
// @Failure 400 {object} apperror.ErrorResponse "Invalid input or payment below interest"
// @Router /api/v1/financial/debt-payoff [post]
func (h *Handlers) HandleDebtPayoff() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DebtPayoffRequest
		if !decode(w, r, &req) {
			return
		}
		res, err := DebtPayoff(req.Debt, req.AnnualRate, req.MonthlyPayment)
		respond(w, r, res, err)
	}
}

// HandleTax godoc
// @Summary Tax Regime Comparison
// @Description FY2024-25 old and new regime liability with tax-saving suggestions.
// @Tags Financial
// @Accept json
// @Produce json
// @Param request body finance.TaxRequest true "Income and deductions"
// @Success 200 {object} finance.RegimeComparison
// @Failure 400 {object} apperror.ErrorResponse "Invalid input"
// @Router /api/v1/financial/tax [post]
func (h *Handlers) HandleTax() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TaxRequest
		if !decode(w, r, &req) {
			return
		}
		res, err := CompareRegimes(req.AnnualIncome, req.Deductions)
		respond(w, r, res, err)
	}
}

// HandleCreditScore godoc
// @Summary Credit Score
// @Description Looks the score up with the configured bureaus, or returns a demo score.
// @Tags Financial
// @Accept json
// @Produce json
// @Param request body finance.CreditScoreRequest true "PAN"
// @Success 200 {object} finance.CreditReport
// @Failure 400 {object} apperror.ErrorResponse "Invalid PAN"
// @Router /api/v1/financial/credit-score [post]
func (h *Handlers) HandleCreditScore() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreditScoreRequest
		if !decode(w, r, &req) {
			return
		}
		userID := "anonymous"
		if id, ok := auth.UserIDFromContext(r.Context()); ok {
			userID = id.String()
		}
		apperror.WriteJSON(w, http.StatusOK, h.credit.Report(r.Context(), userID, req.PAN))
	}
}

// HandleDebtAnalysis godoc
// @Summary Debt Analysis
// @Tags Financial
// @Accept json
// @Produce json
// @Param request body finance.DebtAnalysisRequest true "Debts by name and monthly income"
// @Success 200 {object} finance.DebtAnalysis
// @Router /api/v1/financial/debt-analysis [post]
func (h *Handlers) HandleDebtAnalysis() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DebtAnalysisRequest
		if !decode(w, r, &req) {
			return
		}
		apperror.WriteJSON(w, http.StatusOK, AnalyzeDebt(req.Debts, req.MonthlyIncome))
	}
}

// HandleInvestments godoc
// @Summary Investment Recommendations
// @Tags Financial
// @Accept json
// @Produce json
// @Param request body finance.InvestmentRequest true "Investor profile"
// @Success 200 {object} finance.InvestmentPlan
// @Router /api/v1/financial/investments [post]
func (h *Handlers) HandleInvestments() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req InvestmentRequest
		if !decode(w, r, &req) {
			return
		}
		risk := req.RiskTolerance
		if risk == "" {
			risk = "moderate"
		}
		apperror.WriteJSON(w, http.StatusOK,
			InvestmentRecommendations(req.Age, req.MonthlyIncome, risk, req.UserType))
	}
}

// HandleBudgetAnalysis godoc
// @Summary Budget Analysis
// @Description Summary, categories, trend, insights and a health score for the last 90 days.
// @Tags Financial
// @Accept json
// @Produce json
// @Param request body finance.BudgetRequest true "Transactions and profile"
// @Success 200 {object} finance.BudgetAnalysis
// @Router /api/v1/financial/budget/analyze [post]
func (h *Handlers) HandleBudgetAnalysis() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BudgetRequest
		if !decode(w, r, &req) {
			return
		}
		apperror.WriteJSON(w, http.StatusOK, AnalyzeBudget(req.Transactions, req.Profile, h.now()))
	}
}

// HandleBudgetReport godoc
// @Summary Budget Report PDF
// @Description Runs the budget analysis and returns it as a printable PDF.
// @Tags Financial
// @Accept json
// @Produce application/pdf
// @Param request body finance.ReportRequest true "Transactions, profile and the name to print"
// @Success 200 {file} file
// @Failure 400 {object} apperror.ErrorResponse "Invalid request"
// @Router /api/v1/financial/budget/report [post]
func (h *Handlers) HandleBudgetReport() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ReportRequest
		if !decode(w, r, &req) {
			return
		}
		now := h.now()
		doc, err := BudgetReport(req.Name, req.Profile, AnalyzeBudget(req.Transactions, req.Profile, now), now)
		if err != nil {
			apperror.WriteError(w, r, apperror.NewInternalError("failed to render report", err))
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="budget-report-`+now.Format("2006-01-02")+`.pdf"`)
		w.Header().Set("Content-Length", strconv.Itoa(len(doc)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(doc)
	}
}

// HandleBudgetRule godoc
// @Summary 50/30/20 Budget Split
// @Tags Financial
// @Produce json
// @Param income query number true "Monthly income"
// @Success 200 {object} finance.BudgetSplit
// @Failure 400 {object} apperror.ErrorResponse "Invalid income"
// @Router /api/v1/financial/budget/503020 [get]
func (h *Handlers) HandleBudgetRule() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		income, err := security.ParseFinite("income", r.URL.Query().Get("income"))
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		res, err := BudgetRule503020(income)
		respond(w, r, res, err)
	}
}

// HandleAlerts godoc
// @Summary Smart Alerts
// @Description Generates spending alerts. For a signed-in caller, critical and warning alerts are also pushed to their notification stream.
// @Tags Financial
// @Accept json
// @Produce json
// @Param request body finance.BudgetRequest true "Transactions and profile"
// @Success 200 {object} finance.AlertsResponse
// @Router /api/v1/financial/alerts [post]
func (h *Handlers) HandleAlerts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BudgetRequest
		if !decode(w, r, &req) {
			return
		}
		now := h.now()
		alerts := GenerateAlerts(req.Transactions, req.Profile, AnalyzeBudget(req.Transactions, req.Profile, now), now)

		resp := AlertsResponse{Alerts: alerts, Counts: CountByType(alerts)}
		if id, ok := auth.UserIDFromContext(r.Context()); ok && h.notifier != nil {
			for _, a := range Urgent(alerts) {
				resp.Notified += h.notifier.Notify(id.String(), "alert", a)
			}
		}
		apperror.WriteJSON(w, http.StatusOK, resp)
	}
}
