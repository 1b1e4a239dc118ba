package finance

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/jarvisfi-go/auth"
	"github.com/user/jarvisfi-go/security"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) Notify(userID, eventType string, payload interface{}) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	a := payload.(Alert)
	n.events = append(n.events, userID+"|"+eventType+"|"+a.Type)
	return 1
}

func withUser(id uuid.UUID) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := &security.Claims{TokenType: security.TokenTypeAccess, RegisteredClaims: jwt.RegisteredClaims{Subject: id.String()}}
			next.ServeHTTP(w, r.WithContext(auth.NewContextWithClaims(r.Context(), claims)))
		})
	}
}

func newRouter(n Notifier, mw ...func(http.Handler) http.Handler) http.Handler {
	h := NewHandlers(NewCreditScoreService(zap.NewNop()), n)
	h.now = func() time.Time { return analysisNow }
	r := chi.NewRouter()
	r.Use(mw...)
	h.RegisterRoutes(r)
	return r
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestHandleEMI(t *testing.T) {
	h := newRouter(nil)

	rec := serve(h, http.MethodPost, "/emi", `{"principal":1000000,"annual_rate":8.5,"years":20,"monthly_income":20000}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res LoanResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 8678.23, res.EMI)
	assert.Equal(t, Manageable, res.Affordability)

	rec = serve(h, http.MethodPost, "/emi", `{"principal":-5,"annual_rate":8.5,"years":20}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "principal")

	rec = serve(h, http.MethodPost, "/emi", `{"principal":1000,"years":1,"bogus":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleBudgetRuleRejectsNonFinite(t *testing.T) {
	h := newRouter(nil)
	rec := serve(h, http.MethodGet, "/budget/503020?income=50000", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"needs":25000`)

	for _, income := range []string{"NaN", "Inf", "-Inf", "abc"} {
		rec := serve(h, http.MethodGet, "/budget/503020?income="+income, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, income)
		assert.Contains(t, rec.Body.String(), `"income"`, income)
	}
}

func TestHandleDebtPayoffTooLow(t *testing.T) {
	rec := serve(newRouter(nil), http.MethodPost, "/debt-payoff", `{"debt":200000,"annual_rate":18,"monthly_payment":3000}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "too low")
}

func TestHandleTax(t *testing.T) {
	rec := serve(newRouter(nil), http.MethodPost, "/tax", `{"annual_income":1200000}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var cmp RegimeComparison
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cmp))
	assert.Equal(t, NewRegime, cmp.RecommendedRegime)
	assert.Equal(t, 179400.0, cmp.Old.TotalTax)
}

func TestHandleCreditScore(t *testing.T) {
	h := newRouter(nil)

	rec := serve(h, http.MethodPost, "/credit-score", `{"pan":"ABCDE1234F"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var rep CreditReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.Equal(t, "anonymous", rep.UserID)
	assert.Equal(t, "mock", rep.Source)

	rec = serve(h, http.MethodPost, "/credit-score", `{"pan":"123"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleInvestmentsDefaultsToModerate(t *testing.T) {
	rec := serve(newRouter(nil), http.MethodPost, "/investments", `{"age":30,"monthly_income":50000}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var plan InvestmentPlan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plan))
	assert.Equal(t, "Hybrid Fund", plan.RecommendedFunds[2].Name)

	rec = serve(newRouter(nil), http.MethodPost, "/investments", `{"age":12,"monthly_income":50000}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleBudget(t *testing.T) {
	h := newRouter(nil)
	body := `{"transactions":[
		{"date":"2024-06-01","amount":50000,"category":"salary"},
		{"date":"2024-06-05","amount":-15000,"category":"rent"}
	],"profile":{"user_type":"professional","monthly_income":50000}}`

	rec := serve(h, http.MethodPost, "/budget/analyze", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var a BudgetAnalysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &a))
	assert.Equal(t, 15000.0, a.Summary.TotalSpent)

	rec = serve(h, http.MethodGet, "/budget/503020?income=40000", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"needs":20000`)

	rec = serve(h, http.MethodGet, "/budget/503020?income=lots", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAlertsNotifiesSignedInUser(t *testing.T) {
	body := `{"transactions":[
		{"date":"2024-06-01","amount":20000,"category":"salary"},
		{"date":"2024-06-10","amount":-18000,"category":"shopping"}
	],"profile":{"monthly_income":20000}}`

	n := &recordingNotifier{}
	id := uuid.New()
	rec := serve(newRouter(n, withUser(id)), http.MethodPost, "/alerts", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp AlertsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Alerts, 4)
	assert.Equal(t, 1, resp.Counts[AlertCritical])
	assert.Equal(t, 2, resp.Notified)
	assert.Equal(t, []string{
		id.String() + "|alert|" + AlertCritical,
		id.String() + "|alert|" + AlertWarning,
	}, n.events)

	anon := &recordingNotifier{}
	rec = serve(newRouter(anon), http.MethodPost, "/alerts", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, anon.events)
}
