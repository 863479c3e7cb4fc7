package engine

import "math"

// HealthCategory buckets the composite score.
type HealthCategory string

const (
	HealthExcellent HealthCategory = "excellent"
	HealthGood      HealthCategory = "good"
	HealthFair      HealthCategory = "fair"
	HealthPoor      HealthCategory = "poor"
)

// Profile is the named financial-profile classification of a business.
type Profile string

const (
	ProfileGrowthSeeker    Profile = "growth_seeker"
	ProfileStabilitySeeker Profile = "stability_seeker"
	ProfileSecuritySeeker  Profile = "security_seeker"
)

// ComponentScores are the five weighted sub-scores of the composite.
type ComponentScores struct {
	Cashflow      float64 `json:"cashflow_score"`
	Savings       float64 `json:"savings_score"`
	EmergencyFund float64 `json:"emergency_fund_score"`
	Debt          float64 `json:"debt_score"`
	Growth        float64 `json:"growth_score"`
}

// HealthScore is a computed view produced fresh per request.
type HealthScore struct {
	Score      float64         `json:"score"`
	Category   HealthCategory  `json:"category"`
	Profile    Profile         `json:"profile"`
	Components ComponentScores `json:"component_scores"`
}

// ScoreWeights holds the component weights (summing to 100) and the
// ratio-to-target denominators of the composite score.
type ScoreWeights struct {
	Cashflow      float64
	Savings       float64
	EmergencyFund float64
	Debt          float64
	Growth        float64

	CashflowTarget      float64
	SavingsTarget       float64
	EmergencyFundTarget float64
	DebtCeiling         float64
	GrowthTarget        float64
}

// DefaultScoreWeights returns the standard weighting: cashflow 25, savings 25,
// emergency fund 20, debt 20, growth 10.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		Cashflow:      25,
		Savings:       25,
		EmergencyFund: 20,
		Debt:          20,
		Growth:        10,

		CashflowTarget:      1.5,
		SavingsTarget:       0.2,
		EmergencyFundTarget: 6,
		DebtCeiling:         0.5,
		GrowthTarget:        0.2,
	}
}

// categoryThreshold is one row of the ordered category table; evaluated
// top-down with inclusive lower bounds.
type categoryThreshold struct {
	category HealthCategory
	min      float64
}

// HealthScorer computes the composite financial-health score. It is stateless
// and safe for concurrent use.
type HealthScorer struct {
	weights    ScoreWeights
	categories []categoryThreshold
}

// NewHealthScorer binds the weights at construction; the scorer itself holds
// no mutable state.
func NewHealthScorer(weights ScoreWeights) *HealthScorer {
	return &HealthScorer{
		weights: weights,
		categories: []categoryThreshold{
			{HealthExcellent, 80},
			{HealthGood, 60},
			{HealthFair, 40},
		},
	}
}

// Score derives the composite 0-100 health score, its category, and the
// profile classification. debts maps debt labels to outstanding amounts and
// may be nil. The metrics used for scoring are returned alongside the score
// so callers do not recompute them.
func (h *HealthScorer) Score(income, expense MonthlySeries, balance float64, debts map[string]float64) (HealthScore, FinancialMetrics) {
	m := Aggregate(income, expense, balance)

	var totalDebt float64
	for _, amount := range debts {
		totalDebt += amount
	}
	if m.TotalIncome > 0 {
		m.DebtToIncomeRatio = Ratio(totalDebt / m.TotalIncome)
	} else {
		// Without income the ratio is undefined even at zero debt; treat it
		// as infinite so the debt component scores zero.
		m.DebtToIncomeRatio = Ratio(math.Inf(1))
	}

	w := h.weights
	components := ComponentScores{
		Cashflow:      w.Cashflow * clamp01(float64(m.CashflowRatio)/w.CashflowTarget),
		Savings:       w.Savings * clamp01(m.SavingsRatio/w.SavingsTarget),
		EmergencyFund: w.EmergencyFund * clamp01(float64(m.EmergencyFundMonths)/w.EmergencyFundTarget),
		Debt:          w.Debt * (1 - clamp01(float64(m.DebtToIncomeRatio)/w.DebtCeiling)),
		Growth:        w.Growth * clamp01(0.5+math.Min(m.IncomeGrowth/w.GrowthTarget, 0.5)),
	}
	score := components.Cashflow + components.Savings + components.EmergencyFund + components.Debt + components.Growth

	return HealthScore{
		Score:      score,
		Category:   h.categorize(score),
		Profile:    classifyProfile(m.IncomeGrowth, m.SavingsRatio, float64(m.DebtToIncomeRatio)),
		Components: components,
	}, m
}

func (h *HealthScorer) categorize(score float64) HealthCategory {
	for _, t := range h.categories {
		if score >= t.min {
			return t.category
		}
	}
	return HealthPoor
}

// classifyProfile applies the deterministic rule order; first match wins.
func classifyProfile(incomeGrowth, savingsRatio, debtRatio float64) Profile {
	switch {
	case incomeGrowth > 0.15 && debtRatio < 0.4:
		return ProfileGrowthSeeker
	case savingsRatio > 0.15 && debtRatio < 0.3:
		return ProfileSecuritySeeker
	default:
		return ProfileStabilitySeeker
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
