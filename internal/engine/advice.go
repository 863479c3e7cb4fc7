package engine

import (
	"fmt"
	"sort"
)

// PriorityTier orders recommendations and goals: high < medium < low.
type PriorityTier string

const (
	PriorityHigh   PriorityTier = "high"
	PriorityMedium PriorityTier = "medium"
	PriorityLow    PriorityTier = "low"
)

// Priority is one prioritized focus area.
type Priority struct {
	Area        string `json:"area"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// AdviceBlock is a detailed advice section for one area.
type AdviceBlock struct {
	Area            string           `json:"area"`
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	Categories      []CategoryAmount `json:"categories,omitempty"`
	Recommendations []string         `json:"recommendations"`
}

// RecommendationSet is the advisor's full output: a summary keyed by health
// category, up to three priorities in the fixed total order, detailed advice
// blocks for the areas that fired, and the merged goal list.
type RecommendationSet struct {
	Summary    string               `json:"summary"`
	Priorities []Priority           `json:"priorities"`
	Detailed   []AdviceBlock        `json:"detailed_advice"`
	Goals      []GoalRecommendation `json:"goals"`
}

// GoalRecommendation is a suggested or existing financial goal.
type GoalRecommendation struct {
	Type          string       `json:"type"`
	Title         string       `json:"title"`
	TargetAmount  float64      `json:"target_amount"`
	CurrentAmount float64      `json:"current_amount"`
	Priority      PriorityTier `json:"priority"`
	Timeframe     string       `json:"timeframe"`
	Description   string       `json:"description"`
}

// ProfileTargets describes one financial-profile segment and its targets.
type ProfileTargets struct {
	Profile            Profile
	Description        string
	IncomeGrowthTarget float64
	SavingsTarget      float64
	RiskTolerance      string
}

// AssetAllocation is one slice of an investment strategy's allocation.
type AssetAllocation struct {
	Asset string  `json:"asset"`
	Share float64 `json:"share"`
}

// InvestmentStrategy is one risk-tiered strategy with its target allocation.
type InvestmentStrategy struct {
	Name        string
	Description string
	Allocation  []AssetAllocation
	SuitableFor []Profile
}

// priorityRank is the fixed total order of priority areas. Areas not listed
// sort after all listed ones.
var priorityRank = []string{
	"emergency_fund",
	"debt_reduction",
	"cashflow_improvement",
	"savings_increase",
	"business_growth",
}

// Advisor turns health scores and metrics into prioritized recommendations
// and goal targets. Stateless; safe for concurrent use.
type Advisor struct {
	profiles   []ProfileTargets
	strategies []InvestmentStrategy
}

// NewAdvisor builds an advisor with the standard profile and strategy tables.
func NewAdvisor() *Advisor {
	return &Advisor{
		profiles: []ProfileTargets{
			{ProfileGrowthSeeker, "growth-focused young business", 0.2, 0.1, "high"},
			{ProfileStabilitySeeker, "stability-focused established business", 0.1, 0.15, "medium"},
			{ProfileSecuritySeeker, "security-focused mature business", 0.05, 0.2, "low"},
		},
		strategies: []InvestmentStrategy{
			{
				Name:        "high_risk",
				Description: "High return potential, high risk",
				Allocation: []AssetAllocation{
					{"stocks", 0.70}, {"bonds", 0.15}, {"cash", 0.05}, {"alternative", 0.10},
				},
				SuitableFor: []Profile{ProfileGrowthSeeker},
			},
			{
				Name:        "medium_risk",
				Description: "Balanced, medium risk",
				Allocation: []AssetAllocation{
					{"stocks", 0.50}, {"bonds", 0.30}, {"cash", 0.10}, {"alternative", 0.10},
				},
				SuitableFor: []Profile{ProfileGrowthSeeker, ProfileStabilitySeeker},
			},
			{
				Name:        "low_risk",
				Description: "Preservation-focused, low risk",
				Allocation: []AssetAllocation{
					{"stocks", 0.30}, {"bonds", 0.40}, {"cash", 0.25}, {"alternative", 0.05},
				},
				SuitableFor: []Profile{ProfileStabilitySeeker, ProfileSecuritySeeker},
			},
			{
				Name:        "very_low_risk",
				Description: "Security-focused, very low risk",
				Allocation: []AssetAllocation{
					{"stocks", 0.10}, {"bonds", 0.50}, {"cash", 0.35}, {"alternative", 0.05},
				},
				SuitableFor: []Profile{ProfileSecuritySeeker},
			},
		},
	}
}

// Recommend produces the summary, top-3 priorities, detailed advice blocks,
// and the merged goal list. expenseCategories and currentGoals may be nil.
func (a *Advisor) Recommend(health HealthScore, m FinancialMetrics, expenseCategories map[string]float64, currentGoals []GoalRecommendation) RecommendationSet {
	set := RecommendationSet{Summary: a.summary(health.Category)}

	candidates := a.priorityCandidates(health, m)
	sorted := make([]Priority, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return rankOf(sorted[i].Area) < rankOf(sorted[j].Area)
	})
	if len(sorted) > 3 {
		sorted = sorted[:3]
	}
	set.Priorities = sorted

	// Detailed blocks fire off the full candidate set, not the truncated top 3.
	fired := make(map[string]bool, len(candidates))
	for _, p := range candidates {
		fired[p.Area] = true
	}

	if float64(m.CashflowRatio) < 1.5 && len(expenseCategories) > 0 {
		top := TopCategories(expenseCategories, 3)
		set.Detailed = append(set.Detailed, AdviceBlock{
			Area:        "cashflow",
			Title:       "Cash Flow Improvement",
			Description: "Consider these steps to improve your cash flow:",
			Categories:  top,
			Recommendations: []string{
				fmt.Sprintf("Review spending in the %q category; potential savings are around 5-10%%.", top[0].Name),
				"Review your pricing strategy and look for income growth opportunities.",
				"Build a monthly cash flow budget to forecast and plan.",
			},
		})
	}

	if fired["debt_reduction"] {
		set.Detailed = append(set.Detailed, AdviceBlock{
			Area:        "debt",
			Title:       "Debt Management Strategy",
			Description: "Consider these strategies to lighten your debt load:",
			Recommendations: []string{
				"Prioritize your highest-interest debts for accelerated repayment.",
				"Talk to lenders about restructuring at lower rates where possible.",
				"Direct any extra income toward debt payments.",
				"Avoid new borrowing and clear credit card balances.",
			},
		})
	}

	if fired["emergency_fund"] {
		targetFund := m.AvgMonthlyExpense * 6
		set.Detailed = append(set.Detailed, AdviceBlock{
			Area:        "emergency_fund",
			Title:       "Building an Emergency Fund",
			Description: fmt.Sprintf("For a solid safety net, build an emergency fund of %.2f (6 months of expenses):", targetFund),
			Recommendations: []string{
				"Move 5-10% of income into the emergency fund on a regular schedule.",
				"Keep the fund in highly liquid, low-risk accounts.",
				"Use it only for genuine emergencies, never day-to-day spending.",
				"Once funded, revisit the target at least once a year.",
			},
		})
	}

	if strategy, ok := a.strategyFor(health.Profile); ok {
		profile, _ := a.profileTargets(health.Profile)
		allocation := ""
		for i, slice := range strategy.Allocation {
			if i > 0 {
				allocation += ", "
			}
			allocation += fmt.Sprintf("%s %.0f%%", slice.Asset, slice.Share*100)
		}
		set.Detailed = append(set.Detailed, AdviceBlock{
			Area:        "investment",
			Title:       "Savings and Investment Strategy",
			Description: fmt.Sprintf("Strategy suited to your profile (%s): %s", profile.Description, strategy.Description),
			Recommendations: []string{
				fmt.Sprintf("Asset allocation: %s", allocation),
				"Build a regular savings habit; automate at least 10% of income into investments.",
				"Consider a personal pension plan for retirement planning.",
				"Diversify the portfolio and review it regularly.",
			},
		})
	}

	if health.Profile == ProfileGrowthSeeker {
		set.Detailed = append(set.Detailed, AdviceBlock{
			Area:        "business_growth",
			Title:       "Business Growth Strategies",
			Description: "Consider these strategies to grow the business and its income:",
			Recommendations: []string{
				"Run market research on new customer segments or markets.",
				"Create cross-sell opportunities with additional products or services.",
				"Use digital marketing channels to widen your reach.",
				"Reach new markets through strategic partnerships.",
				"Lift margins by improving operational efficiency.",
			},
		})
	}

	set.Goals = a.RecommendGoals(health, m, currentGoals)
	return set
}

// RecommendGoals generates goal targets from the metrics, merges in the
// caller's current goals (skipping duplicate goal types), and sorts the
// combined list by priority tier.
func (a *Advisor) RecommendGoals(health HealthScore, m FinancialMetrics, currentGoals []GoalRecommendation) []GoalRecommendation {
	var recommended []GoalRecommendation
	profile, _ := a.profileTargets(health.Profile)
	annualIncome := m.TotalIncome
	emergencyMonths := float64(m.EmergencyFundMonths)
	debtRatio := float64(m.DebtToIncomeRatio)

	if emergencyMonths < 6 && m.AvgMonthlyExpense > 0 {
		amount := (6 - emergencyMonths) * m.AvgMonthlyExpense
		if amount > 0 {
			recommended = append(recommended, GoalRecommendation{
				Type:          "emergency_fund",
				Title:         "Build a 6-Month Emergency Fund",
				TargetAmount:  amount,
				CurrentAmount: emergencyMonths * m.AvgMonthlyExpense,
				Priority:      PriorityHigh,
				Timeframe:     "short",
				Description:   fmt.Sprintf("Grow your emergency fund from %.1f months of expenses to 6.", emergencyMonths),
			})
		}
	}

	if debtRatio > 0.3 && annualIncome > 0 {
		currentDebt := debtRatio * annualIncome
		amount := currentDebt - 0.3*annualIncome
		if amount > 0 {
			recommended = append(recommended, GoalRecommendation{
				Type:          "debt_reduction",
				Title:         "Debt Reduction",
				TargetAmount:  amount,
				CurrentAmount: currentDebt,
				Priority:      PriorityHigh,
				Timeframe:     "medium",
				Description:   fmt.Sprintf("Bring your debt-to-income ratio down from %.1f%% to 30%%.", debtRatio*100),
			})
		}
	}

	if m.SavingsRatio < profile.SavingsTarget && annualIncome > 0 {
		recommended = append(recommended, GoalRecommendation{
			Type:          "savings_increase",
			Title:         "Increase Monthly Savings",
			TargetAmount:  (profile.SavingsTarget - m.SavingsRatio) * annualIncome / 12,
			CurrentAmount: m.SavingsRatio * annualIncome / 12,
			Priority:      PriorityMedium,
			Timeframe:     "ongoing",
			Description:   fmt.Sprintf("Raise your monthly savings rate from %.1f%% to %.1f%%.", m.SavingsRatio*100, profile.SavingsTarget*100),
		})
	}

	if m.IncomeGrowth < profile.IncomeGrowthTarget && annualIncome > 0 {
		recommended = append(recommended, GoalRecommendation{
			Type:          "income_growth",
			Title:         "Annual Income Growth",
			TargetAmount:  annualIncome * profile.IncomeGrowthTarget,
			CurrentAmount: annualIncome,
			Priority:      PriorityMedium,
			Timeframe:     "medium",
			Description:   fmt.Sprintf("Lift annual income growth from %.1f%% to %.1f%%.", m.IncomeGrowth*100, profile.IncomeGrowthTarget*100),
		})
	}

	if m.SavingsRatio > 0.1 && emergencyMonths >= 3 && annualIncome > 0 {
		recommended = append(recommended, GoalRecommendation{
			Type:          "investment",
			Title:         "Build an Annual Investment Portfolio",
			TargetAmount:  annualIncome * 0.15,
			CurrentAmount: 0,
			Priority:      PriorityMedium,
			Timeframe:     "long",
			Description:   "Direct 15% of income into a long-term investment portfolio.",
		})
	}

	if (health.Profile == ProfileStabilitySeeker || health.Profile == ProfileSecuritySeeker) && annualIncome > 0 {
		recommended = append(recommended, GoalRecommendation{
			Type:          "retirement",
			Title:         "Build a Retirement Fund",
			TargetAmount:  annualIncome * 15,
			CurrentAmount: 0,
			Priority:      PriorityLow,
			Timeframe:     "long",
			Description:   "Build a retirement fund for long-term financial independence.",
		})
	}

	existing := make(map[string]bool, len(currentGoals))
	for _, goal := range currentGoals {
		existing[goal.Type] = true
	}
	combined := make([]GoalRecommendation, 0, len(currentGoals)+len(recommended))
	combined = append(combined, currentGoals...)
	for _, goal := range recommended {
		if !existing[goal.Type] {
			combined = append(combined, goal)
		}
	}

	sort.SliceStable(combined, func(i, j int) bool {
		return tierRank(combined[i].Priority) < tierRank(combined[j].Priority)
	})
	return combined
}

func (a *Advisor) priorityCandidates(health HealthScore, m FinancialMetrics) []Priority {
	var candidates []Priority

	if float64(m.EmergencyFundMonths) < 3 {
		candidates = append(candidates, Priority{
			Area:        "emergency_fund",
			Title:       "Build an Emergency Fund",
			Description: fmt.Sprintf("Your emergency fund covers %.1f months of expenses. Bring it up to at least 3-6 months.", float64(m.EmergencyFundMonths)),
		})
	}
	if float64(m.DebtToIncomeRatio) > 0.4 {
		candidates = append(candidates, Priority{
			Area:        "debt_reduction",
			Title:       "Reduce Debt",
			Description: fmt.Sprintf("Your debt-to-income ratio is %.2f, which is high. Work it below 0.3 with a debt reduction plan.", float64(m.DebtToIncomeRatio)),
		})
	}
	if m.SavingsRatio < 0.1 {
		candidates = append(candidates, Priority{
			Area:        "savings_increase",
			Title:       "Increase Savings",
			Description: fmt.Sprintf("Your savings rate is %.1f%%. Aim for at least 10-15%% of income.", m.SavingsRatio*100),
		})
	}
	if float64(m.CashflowRatio) < 1.2 {
		candidates = append(candidates, Priority{
			Area:        "cashflow_improvement",
			Title:       "Improve Cash Flow",
			Description: fmt.Sprintf("Your cash flow ratio is %.2f. Target above 1.5 via income growth or expense cuts.", float64(m.CashflowRatio)),
		})
	}
	if health.Profile == ProfileGrowthSeeker && m.IncomeGrowth < 0.15 {
		candidates = append(candidates, Priority{
			Area:        "business_growth",
			Title:       "Business Growth Strategy",
			Description: fmt.Sprintf("For a growth-focused profile, income growth of %.1f%% is not enough. Evaluate new lines of business or customer segments.", m.IncomeGrowth*100),
		})
	}
	return candidates
}

func (a *Advisor) summary(category HealthCategory) string {
	switch category {
	case HealthExcellent:
		return "Your finances are in excellent shape. Now is the time to focus on growth and investment."
	case HealthGood:
		return "Your finances are in good shape. A few improvements would bring them to an excellent level."
	case HealthFair:
		return "Your finances are in fair shape. Several areas need improvement."
	default:
		return "Your finances need urgent improvement. Set your priorities now."
	}
}

func (a *Advisor) profileTargets(profile Profile) (ProfileTargets, bool) {
	for _, p := range a.profiles {
		if p.Profile == profile {
			return p, true
		}
	}
	return ProfileTargets{}, false
}

// strategyFor returns the first strategy suited to the profile; table order
// runs highest risk first.
func (a *Advisor) strategyFor(profile Profile) (InvestmentStrategy, bool) {
	for _, s := range a.strategies {
		for _, suited := range s.SuitableFor {
			if suited == profile {
				return s, true
			}
		}
	}
	return InvestmentStrategy{}, false
}

func rankOf(area string) int {
	for i, a := range priorityRank {
		if a == area {
			return i
		}
	}
	return len(priorityRank)
}

func tierRank(tier PriorityTier) int {
	switch tier {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}
