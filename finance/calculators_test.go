package finance

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/jarvisfi-go/apperror"
)

func TestEMI(t *testing.T) {
	emi, err := EMI(1000000, 8.5, 20)
	require.NoError(t, err)
	assert.InDelta(t, 8678.23, emi, 0.005)

	emi, err = EMI(500000, 10, 5)
	require.NoError(t, err)
	assert.InDelta(t, 10623.52, emi, 0.005)

	emi, err = EMI(120000, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 10000.0, emi)

	for _, tc := range []struct {
		p, rate float64
		years   int
	}{{0, 8, 10}, {100000, -1, 10}, {100000, 8, 0}} {
		_, err := EMI(tc.p, tc.rate, tc.years)
		assert.True(t, apperror.IsValidationError(err), "%+v", tc)
	}
}

func TestLoanAnalysis(t *testing.T) {
	res, err := LoanAnalysis(1000000, 8.5, 20, 20000)
	require.NoError(t, err)

	assert.Equal(t, 8678.23, res.EMI)
	assert.Equal(t, 240, res.Months)
	assert.InDelta(t, res.EMI*240-1000000, res.TotalInterest, 2)
	assert.InDelta(t, 43.39, res.EMIToIncome, 0.01)
	assert.Equal(t, Manageable, res.Affordability)

	require.Len(t, res.Schedule, 240)
	assert.Equal(t, 7083.33, res.Schedule[0].Interest)
	assert.Equal(t, 0.0, res.Schedule[239].Balance)

	var principal float64
	for _, row := range res.Schedule {
		principal += row.Principal
	}
	assert.InDelta(t, 1000000, principal, 2)

	res, err = LoanAnalysis(100000, 10, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, Unknown, res.Affordability)

	assert.Equal(t, Affordable, affordability(0.40))
	assert.Equal(t, Manageable, affordability(0.50))
	assert.Equal(t, NotRecommended, affordability(0.51))
}

func TestSIPFutureValue(t *testing.T) {
	res, err := SIPFutureValue(5000, 12, 10)
	require.NoError(t, err)
	assert.Equal(t, 1161695.38, res.FutureValue)
	assert.Equal(t, 600000.0, res.Invested)
	assert.Equal(t, 561695.38, res.Gains)
	require.Len(t, res.Yearly, 10)
	assert.Equal(t, res.FutureValue, res.Yearly[9].Value)
	assert.InDelta(t, 64046.64, res.Yearly[0].Value, 0.01)

	res, err = SIPFutureValue(1000, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, 24000.0, res.FutureValue)
	assert.Equal(t, 0.0, res.Gains)

	_, err = SIPFutureValue(0, 12, 10)
	assert.True(t, apperror.IsValidationError(err))
}

func TestInvestmentGrowth(t *testing.T) {
	res, err := InvestmentGrowth(100000, 5000, 12, 10)
	require.NoError(t, err)
	assert.Equal(t, 310584.82, res.LumpSumValue)
	assert.Equal(t, 1161695.38, res.SIPValue)
	assert.Equal(t, 1472280.2, res.FutureValue)
	assert.Equal(t, 700000.0, res.Invested)
	assert.Equal(t, 2.1, res.ReturnMultiple)

	_, err = InvestmentGrowth(0, 0, 12, 10)
	assert.True(t, apperror.IsValidationError(err))
}

func TestDebtPayoff(t *testing.T) {
	res, err := DebtPayoff(200000, 18, 10000)
	require.NoError(t, err)
	assert.Equal(t, 24, res.Months)
	assert.Equal(t, 2.0, res.Years)
	assert.Equal(t, 39562.25, res.TotalInterest)

	require.Len(t, res.ExtraPayments, 3)
	first := res.ExtraPayments[0]
	assert.Equal(t, 1000.0, first.Extra)
	assert.Equal(t, 22, first.Months)
	assert.Equal(t, 3, first.MonthsSaved)
	assert.InDelta(t, 4282.36, first.InterestSaved, 0.01)
	assert.Equal(t, 15, res.ExtraPayments[2].Months)

	_, err = DebtPayoff(200000, 18, 3000)
	assert.True(t, errors.Is(err, ErrPaymentTooLow))

	res, err = DebtPayoff(12000, 0, 1000)
	require.NoError(t, err)
	assert.Equal(t, 12, res.Months)
	assert.Equal(t, 0.0, res.TotalInterest)
}

func TestCalculateTax(t *testing.T) {
	old, err := CalculateTax(1200000, OldRegime, Deductions{})
	require.NoError(t, err)
	assert.Equal(t, 172500.0, old.SlabTax)
	assert.Equal(t, 6900.0, old.Cess)
	assert.Equal(t, 179400.0, old.TotalTax)
	assert.Equal(t, 14.95, old.EffectiveRate)
	require.Len(t, old.Breakdown, 3)
	assert.Equal(t, 5.0, old.Breakdown[0].Rate)
	assert.Nil(t, old.Breakdown[2].To)

	nw, err := CalculateTax(1200000, "new_regime", Deductions{Section80C: 150000})
	require.NoError(t, err)
	assert.Equal(t, NewRegime, nw.Regime)
	assert.Equal(t, 0.0, nw.Deductions)
	assert.Equal(t, 90000.0, nw.SlabTax)
	assert.Equal(t, 93600.0, nw.TotalTax)

	below, err := CalculateTax(250000, OldRegime, Deductions{})
	require.NoError(t, err)
	assert.Equal(t, 0.0, below.TotalTax)
	assert.Empty(t, below.Breakdown)

	_, err = CalculateTax(-1, OldRegime, Deductions{})
	assert.True(t, apperror.IsValidationError(err))
}

func TestCalculateTaxSlabBoundaries(t *testing.T) {
	for _, tc := range []struct {
		income   float64
		regime   string
		slabTax  float64
		totalTax float64
	}{
		{0, OldRegime, 0, 0},
		{300000, OldRegime, 2500, 2600},
		{600000, OldRegime, 32500, 33800},
		{1500000, OldRegime, 262500, 273000},
		{2000000, OldRegime, 412500, 429000},
		{0, NewRegime, 0, 0},
		{300000, NewRegime, 0, 0},
		{600000, NewRegime, 15000, 15600},
		{1500000, NewRegime, 150000, 156000},
		{2000000, NewRegime, 300000, 312000},
	} {
		res, err := CalculateTax(tc.income, tc.regime, Deductions{})
		require.NoError(t, err)
		assert.Equal(t, tc.slabTax, res.SlabTax, "%s %.0f", tc.regime, tc.income)
		assert.Equal(t, tc.totalTax, res.TotalTax, "%s %.0f", tc.regime, tc.income)
	}
}

func TestCalculatorsRejectNonFinite(t *testing.T) {
	nan, inf := math.NaN(), math.Inf(1)

	_, err := EMI(nan, 8, 10)
	assert.True(t, apperror.IsValidationError(err))
	_, err = EMI(100000, inf, 10)
	assert.True(t, apperror.IsValidationError(err))
	_, err = SIPFutureValue(inf, 12, 10)
	assert.True(t, apperror.IsValidationError(err))
	_, err = SIPFutureValue(5000, nan, 10)
	assert.True(t, apperror.IsValidationError(err))
	_, err = InvestmentGrowth(nan, 0, 10, 5)
	assert.True(t, apperror.IsValidationError(err))
	_, err = DebtPayoff(100000, 12, math.Inf(-1))
	assert.True(t, apperror.IsValidationError(err))
	_, err = CalculateTax(inf, OldRegime, Deductions{})
	assert.True(t, apperror.IsValidationError(err))
	_, err = CalculateTax(1000000, OldRegime, Deductions{HRA: nan})
	assert.True(t, apperror.IsValidationError(err))
	_, err = BudgetRule503020(inf)
	assert.True(t, apperror.IsValidationError(err))
}

func TestDeductionsAreCapped(t *testing.T) {
	res, err := CalculateTax(1200000, OldRegime, Deductions{Section80C: 200000, Section80D: 30000})
	require.NoError(t, err)
	assert.Equal(t, 175000.0, res.Deductions)
	assert.Equal(t, 1025000.0, res.TaxableIncome)
	assert.Equal(t, 124800.0, res.TotalTax)
}

func TestCompareRegimes(t *testing.T) {
	cmp, err := CompareRegimes(1200000, Deductions{})
	require.NoError(t, err)
	assert.Equal(t, NewRegime, cmp.RecommendedRegime)
	assert.Equal(t, 85800.0, cmp.Savings)
	assert.Len(t, cmp.Recommendations, 3)

	cmp, err = CompareRegimes(200000, Deductions{})
	require.NoError(t, err)
	assert.Equal(t, NewRegime, cmp.RecommendedRegime, "ties go to the new regime")
	assert.Equal(t, 0.0, cmp.Savings)
	assert.Empty(t, cmp.Recommendations)
}

func TestTaxSavingRecommendations(t *testing.T) {
	recs := TaxSavingRecommendations(400000)
	require.Len(t, recs, 2)
	assert.Equal(t, "ELSS Mutual Funds", recs[0].Instrument)
	assert.Equal(t, 45000.0, recs[0].TaxSaved)

	recs = TaxSavingRecommendations(600000)
	require.Len(t, recs, 3)
	assert.Equal(t, "NPS", recs[2].Instrument)
	assert.Equal(t, 15000.0, recs[2].TaxSaved)

}

func TestNormalizeRegime(t *testing.T) {
	assert.Equal(t, OldRegime, NormalizeRegime("OLD"))
	assert.Equal(t, OldRegime, NormalizeRegime("old_regime"))
	assert.Equal(t, NewRegime, NormalizeRegime(""))
	assert.Equal(t, NewRegime, NormalizeRegime("new"))
}
