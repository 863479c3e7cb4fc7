package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func priorityAreas(priorities []Priority) []string {
	areas := make([]string, len(priorities))
	for i, p := range priorities {
		areas[i] = p.Area
	}
	return areas
}

func detailedAreas(blocks []AdviceBlock) []string {
	areas := make([]string, len(blocks))
	for i, b := range blocks {
		areas[i] = b.Area
	}
	return areas
}

func TestRecommendPriorityOrderAndTruncation(t *testing.T) {
	a := NewAdvisor()

	// Everything is wrong at once: all five priority areas fire, and the
	// fixed total order keeps the top three.
	health := HealthScore{Category: HealthPoor, Profile: ProfileGrowthSeeker}
	m := FinancialMetrics{
		EmergencyFundMonths: 1,
		DebtToIncomeRatio:   0.6,
		SavingsRatio:        0.02,
		CashflowRatio:       1.0,
		IncomeGrowth:        0.05,
	}

	set := a.Recommend(health, m, nil, nil)
	assert.Equal(t, []string{"emergency_fund", "debt_reduction", "cashflow_improvement"}, priorityAreas(set.Priorities))
}

func TestRecommendNoPrioritiesWhenHealthy(t *testing.T) {
	a := NewAdvisor()

	health := HealthScore{Category: HealthExcellent, Profile: ProfileSecuritySeeker}
	m := FinancialMetrics{
		EmergencyFundMonths: 8,
		DebtToIncomeRatio:   0.1,
		SavingsRatio:        0.25,
		CashflowRatio:       2.0,
		IncomeGrowth:        0.1,
	}

	set := a.Recommend(health, m, nil, nil)
	assert.Empty(t, set.Priorities)
	assert.Contains(t, set.Summary, "excellent")
}

func TestRecommendDetailedBlocksUseFullCandidateList(t *testing.T) {
	a := NewAdvisor()

	// All five candidates fire; priorities truncate to three but the
	// detailed blocks still cover the areas dropped by truncation.
	health := HealthScore{Category: HealthPoor, Profile: ProfileGrowthSeeker}
	m := FinancialMetrics{
		EmergencyFundMonths: 1,
		DebtToIncomeRatio:   0.6,
		SavingsRatio:        0.02,
		CashflowRatio:       1.0,
		IncomeGrowth:        0.05,
		AvgMonthlyExpense:   5000,
	}
	categories := map[string]float64{"rent": 10000, "payroll": 8000, "software": 2000, "misc": 100}

	set := a.Recommend(health, m, categories, nil)
	areas := detailedAreas(set.Detailed)

	assert.Equal(t, []string{"cashflow", "debt", "emergency_fund", "investment", "business_growth"}, areas)

	// Cashflow advice names the largest category.
	require.NotEmpty(t, set.Detailed[0].Categories)
	assert.Equal(t, "rent", set.Detailed[0].Categories[0].Name)
	assert.Len(t, set.Detailed[0].Categories, 3)

	// Emergency fund target is six months of expenses.
	assert.Contains(t, set.Detailed[2].Description, "30000.00")
}

func TestRecommendInvestmentStrategyByProfile(t *testing.T) {
	a := NewAdvisor()

	m := FinancialMetrics{
		EmergencyFundMonths: 8,
		DebtToIncomeRatio:   0.1,
		SavingsRatio:        0.25,
		CashflowRatio:       2.0,
	}

	tests := []struct {
		profile  Profile
		strategy string
	}{
		{ProfileGrowthSeeker, "stocks 70%"},
		{ProfileStabilitySeeker, "stocks 50%"},
		{ProfileSecuritySeeker, "stocks 30%"},
	}
	for _, tt := range tests {
		t.Run(string(tt.profile), func(t *testing.T) {
			set := a.Recommend(HealthScore{Category: HealthGood, Profile: tt.profile}, m, nil, nil)
			var investment *AdviceBlock
			for i := range set.Detailed {
				if set.Detailed[i].Area == "investment" {
					investment = &set.Detailed[i]
				}
			}
			require.NotNil(t, investment)
			assert.Contains(t, investment.Recommendations[0], tt.strategy)
		})
	}
}

func TestRecommendGoals(t *testing.T) {
	a := NewAdvisor()

	health := HealthScore{Category: HealthFair, Profile: ProfileStabilitySeeker}
	m := FinancialMetrics{
		TotalIncome:         120000,
		AvgMonthlyExpense:   8000,
		EmergencyFundMonths: 2,
		DebtToIncomeRatio:   0.5,
		SavingsRatio:        0.05,
		IncomeGrowth:        0.02,
	}

	goals := a.RecommendGoals(health, m, nil)
	require.NotEmpty(t, goals)

	types := make(map[string]GoalRecommendation, len(goals))
	for _, g := range goals {
		types[g.Type] = g
	}

	emergency, ok := types["emergency_fund"]
	require.True(t, ok)
	assert.InDelta(t, 4*8000, emergency.TargetAmount, 1e-9)
	assert.Equal(t, PriorityHigh, emergency.Priority)

	debt, ok := types["debt_reduction"]
	require.True(t, ok)
	assert.InDelta(t, 0.2*120000, debt.TargetAmount, 1e-9)

	savings, ok := types["savings_increase"]
	require.True(t, ok)
	// Stability profile targets a 15% savings rate.
	assert.InDelta(t, (0.15-0.05)*120000/12, savings.TargetAmount, 1e-9)

	growth, ok := types["income_growth"]
	require.True(t, ok)
	assert.InDelta(t, 120000*0.1, growth.TargetAmount, 1e-9)

	// Low emergency cover blocks the investment goal.
	_, ok = types["investment"]
	assert.False(t, ok)

	retirement, ok := types["retirement"]
	require.True(t, ok)
	assert.Equal(t, PriorityLow, retirement.Priority)

	// High-priority goals sort before medium, medium before low.
	var lastTier int
	for _, g := range goals {
		tier := tierRank(g.Priority)
		assert.GreaterOrEqual(t, tier, lastTier)
		lastTier = tier
	}
}

func TestRecommendGoalsSkipsExistingTypes(t *testing.T) {
	a := NewAdvisor()

	health := HealthScore{Category: HealthFair, Profile: ProfileStabilitySeeker}
	m := FinancialMetrics{
		TotalIncome:         120000,
		AvgMonthlyExpense:   8000,
		EmergencyFundMonths: 2,
		SavingsRatio:        0.2,
		IncomeGrowth:        0.2,
	}
	current := []GoalRecommendation{
		{Type: "emergency_fund", Title: "My own fund plan", Priority: PriorityMedium},
	}

	goals := a.RecommendGoals(health, m, current)

	count := 0
	for _, g := range goals {
		if g.Type == "emergency_fund" {
			count++
			assert.Equal(t, "My own fund plan", g.Title)
		}
	}
	assert.Equal(t, 1, count)
}

func TestRecommendGoalsHealthyBusiness(t *testing.T) {
	a := NewAdvisor()

	health := HealthScore{Category: HealthExcellent, Profile: ProfileGrowthSeeker}
	m := FinancialMetrics{
		TotalIncome:         200000,
		AvgMonthlyExpense:   8000,
		EmergencyFundMonths: 8,
		DebtToIncomeRatio:   0.1,
		SavingsRatio:        0.2,
		IncomeGrowth:        0.25,
	}

	goals := a.RecommendGoals(health, m, nil)

	types := make(map[string]bool, len(goals))
	for _, g := range goals {
		types[g.Type] = true
	}
	assert.False(t, types["emergency_fund"])
	assert.False(t, types["debt_reduction"])
	assert.True(t, types["investment"])
	assert.False(t, types["retirement"]) // growth profile
}

func TestRecommendGoalsNoIncome(t *testing.T) {
	a := NewAdvisor()

	health := HealthScore{Category: HealthPoor, Profile: ProfileStabilitySeeker}
	m := FinancialMetrics{
		EmergencyFundMonths: Ratio(math.Inf(1)),
	}

	goals := a.RecommendGoals(health, m, nil)
	assert.Empty(t, goals)
}

func TestRankOf(t *testing.T) {
	assert.Equal(t, 0, rankOf("emergency_fund"))
	assert.Equal(t, 4, rankOf("business_growth"))
	assert.Equal(t, len(priorityRank), rankOf("something_else"))
}
