package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreHealthyBusiness(t *testing.T) {
	scorer := NewHealthScorer(DefaultScoreWeights())

	// Strong margins, large reserve, no debt, growing income: every
	// component should max out.
	income := MonthlySeries{"2025-01": 20000, "2025-02": 24000, "2025-03": 30000}
	expense := MonthlySeries{"2025-01": 8000, "2025-02": 8000, "2025-03": 8000}

	score, m := scorer.Score(income, expense, 100000, nil)

	assert.InDelta(t, 100, score.Score, 1e-9)
	assert.Equal(t, HealthExcellent, score.Category)
	assert.InDelta(t, 25, score.Components.Cashflow, 1e-9)
	assert.InDelta(t, 25, score.Components.Savings, 1e-9)
	assert.InDelta(t, 20, score.Components.EmergencyFund, 1e-9)
	assert.InDelta(t, 20, score.Components.Debt, 1e-9)
	assert.InDelta(t, 10, score.Components.Growth, 1e-9)
	assert.InDelta(t, 0.5, m.IncomeGrowth, 1e-9)
}

func TestScoreStrugglingBusiness(t *testing.T) {
	scorer := NewHealthScorer(DefaultScoreWeights())

	income := MonthlySeries{"2025-01": 5000, "2025-02": 4000, "2025-03": 3000}
	expense := MonthlySeries{"2025-01": 7000, "2025-02": 7000, "2025-03": 7000}

	score, m := scorer.Score(income, expense, 0, map[string]float64{"loan": 20000})

	assert.Equal(t, HealthPoor, score.Category)
	assert.Less(t, score.Score, 40.0)
	assert.Zero(t, score.Components.Savings)
	assert.Zero(t, score.Components.EmergencyFund)
	assert.Zero(t, score.Components.Debt) // ratio 20000/12000 > ceiling
	assert.Negative(t, m.NetCashflow)
}

func TestScoreStaysInRange(t *testing.T) {
	scorer := NewHealthScorer(DefaultScoreWeights())

	scenarios := []struct {
		name    string
		income  MonthlySeries
		expense MonthlySeries
		balance float64
		debts   map[string]float64
	}{
		{"empty", MonthlySeries{}, MonthlySeries{}, 0, nil},
		{"collapsing income", MonthlySeries{"2025-01": 10000, "2025-02": 1000, "2025-03": 10}, MonthlySeries{"2025-01": 5000}, 0, nil},
		{"huge debt", MonthlySeries{"2025-01": 1000}, MonthlySeries{"2025-01": 900}, 100, map[string]float64{"a": 1e9}},
		{"no income with debt", MonthlySeries{}, MonthlySeries{"2025-01": 500}, 0, map[string]float64{"a": 100}},
	}
	for _, s := range scenarios {
		t.Run(s.name, func(t *testing.T) {
			score, _ := scorer.Score(s.income, s.expense, s.balance, s.debts)
			assert.GreaterOrEqual(t, score.Score, 0.0)
			assert.LessOrEqual(t, score.Score, 100.0)
			assert.NotEmpty(t, score.Category)
			assert.NotEmpty(t, score.Profile)
		})
	}
}

func TestScoreDebtRatioNoIncome(t *testing.T) {
	scorer := NewHealthScorer(DefaultScoreWeights())

	_, m := scorer.Score(MonthlySeries{}, MonthlySeries{}, 0, map[string]float64{"loan": 5000})
	require.True(t, math.IsInf(float64(m.DebtToIncomeRatio), 1))
}

func TestScoreNoIncomeNoDebtGetsNoDebtCredit(t *testing.T) {
	scorer := NewHealthScorer(DefaultScoreWeights())

	// Zero income makes the ratio undefined either way; the debt component
	// must not score full marks just because no debt is recorded.
	score, m := scorer.Score(MonthlySeries{}, MonthlySeries{"2025-01": 500}, 0, nil)
	require.True(t, math.IsInf(float64(m.DebtToIncomeRatio), 1))
	assert.Zero(t, score.Components.Debt)
}

func TestCategorize(t *testing.T) {
	scorer := NewHealthScorer(DefaultScoreWeights())
	tests := []struct {
		score float64
		want  HealthCategory
	}{
		{100, HealthExcellent},
		{80, HealthExcellent},
		{79.9, HealthGood},
		{60, HealthGood},
		{59.9, HealthFair},
		{40, HealthFair},
		{39.9, HealthPoor},
		{0, HealthPoor},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, scorer.categorize(tt.score), "score %v", tt.score)
	}
}

func TestClassifyProfile(t *testing.T) {
	tests := []struct {
		name    string
		growth  float64
		savings float64
		debt    float64
		want    Profile
	}{
		{"high growth low debt", 0.2, 0.05, 0.1, ProfileGrowthSeeker},
		{"high growth high debt", 0.2, 0.05, 0.5, ProfileStabilitySeeker},
		{"high savings low debt", 0.05, 0.2, 0.1, ProfileSecuritySeeker},
		{"high savings high debt", 0.05, 0.2, 0.35, ProfileStabilitySeeker},
		{"growth wins over savings", 0.2, 0.2, 0.1, ProfileGrowthSeeker},
		{"default", 0.05, 0.05, 0.1, ProfileStabilitySeeker},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyProfile(tt.growth, tt.savings, tt.debt))
		})
	}
}
